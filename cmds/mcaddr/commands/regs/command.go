// Copyright 2024 the LinuxBoot Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package regs

import (
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/linuxboot/mcaddr/cmds/mcaddr/commands"
	"github.com/linuxboot/mcaddr/pkg/compression"
	"github.com/linuxboot/mcaddr/pkg/intel/mc/regs"
	"github.com/linuxboot/mcaddr/pkg/intel/mc/snapshot"
	"github.com/linuxboot/mcaddr/pkg/intel/mc/xlat"
	"github.com/linuxboot/mcaddr/pkg/log"
)

var _ commands.Command = (*Command)(nil)

type Command struct {
	commands.SnapshotOptions
	commands.OutputOptions
	Save       string `long:"save" description:"write the registers to a snapshot file"`
	SaveFormat string `long:"save-format" default:"yaml" description:"format of the saved snapshot [yaml, json, binary]"`
	Compress   string `long:"compress" description:"compress the saved snapshot [xz, zstd, lz4, lzma, zlib]"`
}

// Result is the JSON output of the command.
type Result struct {
	Registers regs.Set     `json:"registers"`
	Config    *xlat.Config `json:"config,omitempty"`
	Error     string       `json:"error,omitempty"`
}

// ShortDescription explains what this command does in one line
func (cmd *Command) ShortDescription() string {
	return "prints the memory controller registers"
}

// LongDescription explains what this verb does (without limitation in amount of lines)
func (cmd *Command) LongDescription() string {
	return "Prints the memory controller registers and the configuration derived from them. " +
		"With --save the registers are also written to a snapshot file, which the other commands accept with --snapshot."
}

// Table renders the registers with one row per register.
func Table(set regs.Set) table.Writer {
	t := table.NewWriter()
	t.SetTitle("Registers")
	t.AppendHeader(table.Row{"Register", "Value"})
	for _, f := range set.Fields() {
		t.AppendRow(table.Row{f.Name, fmt.Sprintf("0x%X", f.Value)})
	}
	return t
}

func (cmd *Command) save(set regs.Set) error {
	format := snapshot.ParseFormat(cmd.SaveFormat)
	if format == snapshot.FormatUndefined {
		return commands.ErrArgs{Err: fmt.Errorf("unknown snapshot format '%s'", cmd.SaveFormat)}
	}
	var compressor compression.Compressor
	if cmd.Compress != "" {
		var err error
		compressor, err = compression.CompressorFromName(cmd.Compress)
		if err != nil {
			return commands.ErrArgs{Err: err}
		}
	}
	if err := snapshot.Save(cmd.Save, set, format, compressor); err != nil {
		return fmt.Errorf("unable to save the snapshot to '%s': %w", cmd.Save, err)
	}
	log.Debugf("saved the registers to '%s' (%s)", cmd.Save, format)
	return nil
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

	set, err := cmd.Source().Registers()
	if err != nil {
		return fmt.Errorf("unable to read the memory controller registers: %w", err)
	}
	if cmd.Save != "" {
		if err := cmd.save(set); err != nil {
			return err
		}
	}

	cfg, cfgErr := xlat.NewConfig(set)
	switch format {
	case commands.FormatText:
		fmt.Fprintln(cmd.Output(), Table(set).Render())
		if cfgErr == nil {
			fmt.Fprint(cmd.Output(), cfg.String())
		}
	case commands.FormatJSON:
		result := Result{Registers: set, Config: cfg}
		if cfgErr != nil {
			result.Error = cfgErr.Error()
		}
		if err := cmd.PrintJSON(result); err != nil {
			return err
		}
	}
	return cfgErr
}
