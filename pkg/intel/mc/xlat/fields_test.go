// Copyright 2024 the LinuxBoot Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package xlat

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/linuxboot/mcaddr/pkg/intel/mc/layout"
	"github.com/linuxboot/mcaddr/pkg/intel/mc/regs"
)

// x8Set is a single DDR4 x8 4Gb DIMM in channel 0.
func x8Set(units uint64, ranks uint8, intra regs.IntraChannel) regs.Set {
	set := singleDimmSet()
	set.DimmChannel[0] = regs.DimmChannel(0).WithDimm(regs.DimmL, units, uint8(layout.X8), ranks, false, false)
	set.IntraChannel[0] = intra
	set.TOM = regs.TOM(units * regs.SizeUnit)
	if set.TOM.Base() < set.TOLUD.Base() {
		set.TOLUD = regs.TOLUD(set.TOM)
	}
	return set
}

func TestFieldSchemes(t *testing.T) {
	hori := x8Set(8, 2, regs.IntraChannel(0).WithHORI(true, 2))
	erm := x8Set(6, 3, regs.IntraChannel(0).WithRankInterleave(true))
	dualRange := x8Set(8, 2, 0)
	tripleRange := x8Set(6, 3, 0)
	quadRange := x8Set(16, 4, 0)
	quad := x8Set(16, 4, regs.IntraChannel(0).WithRankInterleave(true))
	enhanced := x8Set(8, 2, regs.IntraChannel(0).WithRankInterleave(true).WithEnhancedInterleave(true))
	quirk := singleDimmSet()
	quirk.DimmChannel[0] = regs.DimmChannel(0).WithDimm(regs.DimmL, 8, uint8(layout.X8), 1, false, true)

	for _, tt := range []struct {
		name string
		set  regs.Set
		addr uint64
		want DramAddress
	}{
		// HORI takes the rank from line bit 20+2 and drops it from the row.
		{name: "hori_rank_bit", set: hori, addr: 1 << 28, want: DramAddress{Rank: 1}},
		{name: "hori_row_above_rank_bit", set: hori, addr: 1 << 29, want: DramAddress{Row: 0x800}},
		{name: "hori_row_below_rank_bit", set: hori, addr: 1 << 27, want: DramAddress{Row: 0x400}},

		// ERM divides the line bits from R0 up by three.
		{name: "erm_rank_1", set: erm, addr: 4 << 16, want: DramAddress{Rank: 1, Row: 1}},
		{name: "erm_rank_2", set: erm, addr: 5 << 16, want: DramAddress{Rank: 2, Row: 1}},
		{name: "erm_rank_0", set: erm, addr: 6 << 16, want: DramAddress{Row: 2}},

		{name: "range_2_ranks", set: dualRange, addr: 0x8000_0000, want: DramAddress{Rank: 1}},
		{name: "range_2_ranks_last_line", set: dualRange, addr: 0x7FFF_FFC0, want: DramAddress{BankGroup: 3, Bank: 3, Row: 0x3FFF, Column: 0x3F8}},
		{name: "range_3_ranks_1", set: tripleRange, addr: 0x4000_0000, want: DramAddress{Rank: 1}},
		{name: "range_3_ranks_2", set: tripleRange, addr: 0x8000_0000, want: DramAddress{Rank: 2}},
		{name: "range_4_ranks_1", set: quadRange, addr: 0x8000_0000, want: DramAddress{Rank: 1}},
		{name: "range_4_ranks_2", set: quadRange, addr: 0x1_0000_0000, want: DramAddress{Rank: 2}},
		{name: "range_4_ranks_3", set: quadRange, addr: 0x1_8000_0000, want: DramAddress{Rank: 3}},

		// BG1 of four rank DIMMs is the high rank bit.
		{name: "quad_rank_bit_0", set: quad, addr: 1 << 16, want: DramAddress{Rank: 1}},
		{name: "quad_rank_bit_1", set: quad, addr: 1 << 17, want: DramAddress{Rank: 2}},
		{name: "quad_bank_group", set: quad, addr: 1 << 13, want: DramAddress{BankGroup: 1}},

		// RK0 is XORed with R4, BG0 with R0.
		{name: "enhanced_rank_partner", set: enhanced, addr: 1 << 22, want: DramAddress{Rank: 1, Row: 0x10}},
		{name: "enhanced_rank_cancelled", set: enhanced, addr: 1<<22 | 1<<17, want: DramAddress{Row: 0x10}},
		{name: "enhanced_bank_group_partner", set: enhanced, addr: 1 << 18, want: DramAddress{BankGroup: 1, Row: 1}},

		{name: "quirk_c7", set: quirk, addr: 1 << 13, want: DramAddress{Column: 0x80}},
		{name: "quirk_bg0", set: quirk, addr: 1 << 10, want: DramAddress{BankGroup: 1}},
	} {
		t.Run(tt.name, func(t *testing.T) {
			cfg := mustConfig(t, tt.set)

			a, err := Decode(SystemAddress{Address: tt.addr}, cfg)
			require.NoError(t, err)
			require.Equal(t, tt.want, a, fmt.Sprintf("address 0x%X", tt.addr))

			addr, err := Encode(a, cfg)
			require.NoError(t, err)
			require.Equal(t, SystemAddress{Address: tt.addr}, addr)
		})
	}
}

func TestFieldSchemesWithoutFlags(t *testing.T) {
	// the same addresses decode plainly when the scheme is off
	cfg := mustConfig(t, x8Set(8, 2, regs.IntraChannel(0).WithRankInterleave(true)))
	a, err := Decode(SystemAddress{Address: 1 << 22}, cfg)
	require.NoError(t, err)
	require.Equal(t, DramAddress{Row: 0x10}, a)

	cfg = mustConfig(t, singleDimmSet())
	a, err = Decode(SystemAddress{Address: 1 << 13}, cfg)
	require.NoError(t, err)
	require.Equal(t, DramAddress{BankGroup: 1}, a)
}
