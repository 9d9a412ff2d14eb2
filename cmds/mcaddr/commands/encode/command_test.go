// Copyright 2024 the LinuxBoot Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package encode

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/linuxboot/mcaddr/cmds/mcaddr/commands"
	"github.com/linuxboot/mcaddr/pkg/intel/mc/layout"
	"github.com/linuxboot/mcaddr/pkg/intel/mc/regs"
	"github.com/linuxboot/mcaddr/pkg/intel/mc/snapshot"
	"github.com/linuxboot/mcaddr/pkg/intel/mc/xlat"
)

func writeSnapshot(t *testing.T) string {
	set := regs.Reset()
	set.TOLUD = 0xC000_0000
	set.TOM = 0x1_0000_0000
	set.InterChannel = regs.InterChannel(0).WithDDRType(regs.DDRTypeDDR4)
	set.DimmChannel[0] = regs.DimmChannel(0).WithDimm(regs.DimmL, 8, uint8(layout.X8), 1, false, false)

	path := filepath.Join(t.TempDir(), "regs.json")
	require.NoError(t, snapshot.Save(path, set, snapshot.FormatJSON, nil))
	return path
}

func TestEncode(t *testing.T) {
	path := writeSnapshot(t)

	for _, tt := range []struct {
		name    string
		cmd     Command
		format  string
		args    []string
		output  string
		wantErr interface{}
	}{
		{
			name:   "first",
			output: "ch0/dimm0/rank0 bg 0 ba 0 row 0x0 col 0x0 -> 0x0\n",
		},
		{
			name:   "last",
			cmd:    Command{BankGroup: 3, Bank: 3, Row: 0x7FFF, Column: 0x3FC},
			output: "ch0/dimm0/rank0 bg 3 ba 3 row 0x7FFF col 0x3FC -> 0xFFFFFFE0\n",
		},
		{
			name:    "out_of_range",
			cmd:     Command{Rank: 1, Row: 0x8000},
			wantErr: &xlat.ErrInvalidCoordinate{},
		},
		{
			name:    "extra_arguments",
			args:    []string{"0x0"},
			wantErr: &commands.ErrArgs{},
		},
		{
			name:    "unknown_format",
			format:  "yaml",
			wantErr: &commands.ErrArgs{},
		},
	} {
		t.Run(tt.name, func(t *testing.T) {
			var output bytes.Buffer
			cmd := tt.cmd
			cmd.Snapshot = path
			if tt.format != "" {
				cmd.Format = &tt.format
			}
			cmd.SetOutput(&output)

			err := cmd.Execute(tt.args)
			if tt.wantErr != nil {
				require.ErrorAs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.output, output.String())
		})
	}
}

func TestEncodeJSON(t *testing.T) {
	var output bytes.Buffer
	format := "json"
	cmd := Command{Dimm: 0, BankGroup: 1, Row: 0x10, TCM: true}
	cmd.Snapshot = writeSnapshot(t)
	cmd.Format = &format
	cmd.SetOutput(&output)
	require.NoError(t, cmd.Execute(nil))

	var result Result
	require.NoError(t, json.Unmarshal(output.Bytes(), &result))
	require.Equal(t, xlat.DramAddress{BankGroup: 1, Row: 0x10, TCM: true}, result.DRAM)
	require.True(t, result.Address.TCM)
}
