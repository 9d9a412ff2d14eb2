// Copyright 2024 the LinuxBoot Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package encode

import (
	"fmt"

	"github.com/linuxboot/mcaddr/cmds/mcaddr/commands"
	"github.com/linuxboot/mcaddr/pkg/intel/mc/xlat"
)

var _ commands.Command = (*Command)(nil)

type Command struct {
	commands.SnapshotOptions
	commands.OutputOptions
	Channel   uint8  `short:"c" long:"channel" base:"0" description:"physical channel"`
	Dimm      uint8  `short:"d" long:"dimm" base:"0" description:"physical DIMM slot of the channel"`
	Rank      uint8  `short:"r" long:"rank" base:"0" description:"rank of the DIMM"`
	BankGroup uint8  `short:"g" long:"bank-group" base:"0" description:"bank group"`
	Bank      uint8  `short:"b" long:"bank" base:"0" description:"bank of the bank group"`
	Row       uint32 `long:"row" base:"0" description:"row"`
	Column    uint16 `long:"column" base:"0" description:"column"`
	TCM       bool   `long:"tcm" description:"encode an access of the TCM traffic class"`
}

// Result is the outcome of encoding a DRAM location.
type Result struct {
	DRAM    xlat.DramAddress   `json:"dram"`
	Address xlat.SystemAddress `json:"address"`
}

// ShortDescription explains what this command does in one line
func (cmd *Command) ShortDescription() string {
	return "translates a DRAM location to a system address"
}

// LongDescription explains what this verb does (without limitation in amount of lines)
func (cmd *Command) LongDescription() string {
	return "Translates a DRAM location to the system address accessing it. " +
		"The column bits resolved by the burst order must be zero."
}

// Execute is the main function here. It is responsible to
// start the execution of the command.
//
// `args` are the arguments left unused by verb itself and options.
func (cmd *Command) Execute(args []string) error {
	if len(args) != 0 {
		return commands.ErrArgs{Err: fmt.Errorf("there are extra arguments")}
	}
	format, err := cmd.OutputFormat()
	if err != nil {
		return err
	}

	cfg, err := cmd.Config()
	if err != nil {
		return err
	}

	dram := xlat.DramAddress{
		Channel:   cmd.Channel,
		Dimm:      cmd.Dimm,
		Rank:      cmd.Rank,
		BankGroup: cmd.BankGroup,
		Bank:      cmd.Bank,
		Row:       cmd.Row,
		Column:    cmd.Column,
		TCM:       cmd.TCM,
	}
	addr, err := xlat.Encode(dram, cfg)
	if err != nil {
		return fmt.Errorf("unable to encode %s: %w", dram, err)
	}

	switch format {
	case commands.FormatText:
		fmt.Fprintf(cmd.Output(), "%s -> %s\n", dram, addr)
	case commands.FormatJSON:
		return cmd.PrintJSON(Result{DRAM: dram, Address: addr})
	}
	return nil
}
