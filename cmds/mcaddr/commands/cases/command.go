// Copyright 2024 the LinuxBoot Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package cases

import (
	"fmt"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/linuxboot/mcaddr/cmds/mcaddr/commands"
	"github.com/linuxboot/mcaddr/pkg/intel/mc/layout"
)

var _ commands.Command = (*Command)(nil)

type Command struct {
	commands.OutputOptions
	Name   string `short:"n" long:"name" description:"only print cases whose name contains this string"`
	Layout bool   `short:"l" long:"layout" description:"print the field feeding each address bit"`
}

// Entry describes a single case.
type Entry struct {
	ID         layout.CaseID `json:"id"`
	Name       string        `json:"name"`
	RowBits    uint          `json:"row_bits"`
	ColumnMask uint16        `json:"column_mask"`
	Layout     []string      `json:"layout,omitempty"`
	Enhanced   []string      `json:"enhanced,omitempty"`
}

// ShortDescription explains what this command does in one line
func (cmd *Command) ShortDescription() string {
	return "prints the address layout cases"
}

// LongDescription explains what this verb does (without limitation in amount of lines)
func (cmd *Command) LongDescription() string {
	return "Prints the address layout cases: which DRAM field every DIMM-local address bit feeds " +
		"for each technology, geometry and interleave mode."
}

func positionName(pos uint8) string {
	if pos == layout.Unmapped {
		return "-"
	}
	return fmt.Sprintf("%d", pos)
}

// Entries lists the cases whose name contains the filter.
func Entries(filter string, withLayout bool) []Entry {
	var result []Entry
	for _, c := range layout.Cases() {
		if !strings.Contains(c.Name, strings.ToUpper(filter)) {
			continue
		}
		e := Entry{
			ID:         c.ID,
			Name:       c.Name,
			RowBits:    c.RowBits(),
			ColumnMask: c.ColumnMask(),
		}
		if withLayout {
			for _, f := range c.Layout {
				e.Layout = append(e.Layout, f.String())
			}
			for _, pos := range c.Enhanced {
				e.Enhanced = append(e.Enhanced, positionName(pos))
			}
		}
		result = append(result, e)
	}
	return result
}

// Table renders the entries with one row per case.
func Table(entries []Entry) table.Writer {
	t := table.NewWriter()
	header := table.Row{"ID", "Name", "Row bits", "Column mask"}
	if len(entries) != 0 && entries[0].Layout != nil {
		header = append(header, "Layout (bit 0 first)", "Enhanced partners")
	}
	t.AppendHeader(header)
	for _, e := range entries {
		row := table.Row{e.ID, e.Name, e.RowBits, fmt.Sprintf("0x%03X", e.ColumnMask)}
		if e.Layout != nil {
			row = append(row, strings.Join(e.Layout, " "), strings.Join(e.Enhanced, " "))
		}
		t.AppendRow(row)
	}
	return t
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

	entries := Entries(cmd.Name, cmd.Layout)
	if len(entries) == 0 {
		return fmt.Errorf("no case name contains '%s'", cmd.Name)
	}

	switch format {
	case commands.FormatText:
		fmt.Fprintln(cmd.Output(), Table(entries).Render())
	case commands.FormatJSON:
		return cmd.PrintJSON(entries)
	}
	return nil
}
