// Copyright 2024 the LinuxBoot Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package decode

import (
	"fmt"
	"strconv"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/linuxboot/mcaddr/cmds/mcaddr/commands"
	"github.com/linuxboot/mcaddr/pkg/intel/mc/xlat"
)

var _ commands.Command = (*Command)(nil)

type Command struct {
	commands.SnapshotOptions
	commands.OutputOptions
	TCM bool `long:"tcm" description:"decode accesses of the TCM traffic class"`
}

// Result is the outcome of decoding a single address.
type Result struct {
	Address xlat.SystemAddress `json:"address"`
	DRAM    *xlat.DramAddress  `json:"dram,omitempty"`
	Error   string             `json:"error,omitempty"`
}

// ShortDescription explains what this command does in one line
func (cmd *Command) ShortDescription() string {
	return "translates system addresses to DRAM locations"
}

// LongDescription explains what this verb does (without limitation in amount of lines)
func (cmd *Command) LongDescription() string {
	return "Translates every system address given as an argument (decimal, or hexadecimal with a 0x prefix) " +
		"to the channel, DIMM, rank, bank group, bank, row and column the memory controller accesses for it."
}

// Execute is the main function here. It is responsible to
// start the execution of the command.
//
// `args` are the arguments left unused by verb itself and options.
func (cmd *Command) Execute(args []string) error {
	if len(args) == 0 {
		return commands.ErrArgs{Err: fmt.Errorf("at least one address is expected")}
	}
	format, err := cmd.OutputFormat()
	if err != nil {
		return err
	}

	addrs := make([]xlat.SystemAddress, 0, len(args))
	for _, arg := range args {
		v, err := strconv.ParseUint(arg, 0, 64)
		if err != nil {
			return commands.ErrArgs{Err: fmt.Errorf("invalid address '%s': %w", arg, err)}
		}
		addrs = append(addrs, xlat.SystemAddress{Address: v, TCM: cmd.TCM})
	}

	cfg, err := cmd.Config()
	if err != nil {
		return err
	}

	results := make([]Result, 0, len(addrs))
	failed := 0
	for _, addr := range addrs {
		r := Result{Address: addr}
		dram, err := xlat.Decode(addr, cfg)
		if err != nil {
			r.Error = err.Error()
			failed++
		} else {
			r.DRAM = &dram
		}
		results = append(results, r)
	}

	switch format {
	case commands.FormatText:
		fmt.Fprintln(cmd.Output(), Table(results).Render())
	case commands.FormatJSON:
		if err := cmd.PrintJSON(results); err != nil {
			return err
		}
	}

	if failed != 0 {
		return commands.ErrPartial{Operation: "decode", Failed: failed, Total: len(addrs)}
	}
	return nil
}

// Table renders the results with one row per address.
func Table(results []Result) table.Writer {
	t := table.NewWriter()
	t.AppendHeader(table.Row{"Address", "Channel", "DIMM", "Rank", "Bank group", "Bank", "Row", "Column", "Error"})
	for _, r := range results {
		if r.DRAM == nil {
			t.AppendRow(table.Row{r.Address, "", "", "", "", "", "", "", r.Error})
			continue
		}
		d := r.DRAM
		t.AppendRow(table.Row{
			r.Address,
			d.Channel,
			d.Dimm,
			d.Rank,
			d.BankGroup,
			d.Bank,
			fmt.Sprintf("0x%X", d.Row),
			fmt.Sprintf("0x%X", d.Column),
			"",
		})
	}
	return t
}
