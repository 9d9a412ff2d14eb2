// Copyright 2024 the LinuxBoot Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package cases

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/linuxboot/mcaddr/pkg/intel/mc/layout"
)

func TestEntries(t *testing.T) {
	require.Len(t, Entries("", false), layout.NumCases)

	entries := Entries("ddr4_x8_4g", true)
	require.Len(t, entries, 12)
	require.Equal(t, "DDR4_X8_4G_NI", entries[0].Name)
	require.Len(t, entries[0].Layout, layout.NumPositions)
	require.Len(t, entries[0].Enhanced, layout.EnhancedWindow)

	wio2 := Entries("WIO2", false)
	require.Len(t, wio2, 1)
	require.Equal(t, layout.WIO2Case, wio2[0].ID)
	require.Nil(t, wio2[0].Layout)
}

func TestCommand(t *testing.T) {
	var output bytes.Buffer
	cmd := Command{Name: "LPDDR3_X32_8G"}
	cmd.SetOutput(&output)
	require.NoError(t, cmd.Execute(nil))
	require.Contains(t, output.String(), "LPDDR3_X32_8G_NI")
	require.NotContains(t, output.String(), "Layout")

	output.Reset()
	format := "json"
	cmd = Command{Name: "DDR4_X16_4G_RI1", Layout: true}
	cmd.Format = &format
	cmd.SetOutput(&output)
	require.NoError(t, cmd.Execute(nil))
	var entries []Entry
	require.NoError(t, json.Unmarshal(output.Bytes(), &entries))
	require.Len(t, entries, 2)
	for _, e := range entries {
		c := layout.Get(e.ID)
		require.Equal(t, c.Name, e.Name)
		require.Equal(t, c.RowBits(), e.RowBits)
		require.Equal(t, c.Layout[6].String(), e.Layout[6])
	}

	cmd = Command{Name: "DDR5"}
	require.Error(t, cmd.Execute(nil))
	require.Error(t, cmd.Execute([]string{"extra"}))
}
