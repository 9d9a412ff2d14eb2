// Copyright 2024 the LinuxBoot Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package xlat

import (
	"errors"
	"testing"

	"github.com/hashicorp/go-multierror"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/linuxboot/mcaddr/pkg/intel/mc/layout"
	"github.com/linuxboot/mcaddr/pkg/intel/mc/regs"
)

// singleDimmSet is one 4GiB single rank x8 DDR4 DIMM in channel 0.
func singleDimmSet() regs.Set {
	set := regs.Reset()
	set.TOLUD = 0xC0000000
	set.TOM = 0x1_0000_0000
	set.InterChannel = regs.InterChannel(0).WithDDRType(regs.DDRTypeDDR4)
	set.DimmChannel[0] = regs.DimmChannel(0).WithDimm(regs.DimmL, 8, uint8(layout.X8), 1, false, false)
	return set
}

// remapSet is one 8GiB DIMM with the 1GiB hole below 4GiB remapped to 8GiB.
func remapSet() regs.Set {
	set := regs.Reset()
	set.TOLUD = 0xC0000000
	set.TOM = 0x2_0000_0000
	set.RemapBase = 0x2_0000_0000
	set.RemapLimit = 0x2_3FFF_FFFF
	set.InterChannel = regs.InterChannel(0).WithDDRType(regs.DDRTypeDDR4)
	set.DimmChannel[0] = regs.DimmChannel(0).WithDimm(regs.DimmL, 16, uint8(layout.X8), 1, true, false)
	return set
}

func mustConfig(t *testing.T, set regs.Set) *Config {
	cfg, err := NewConfig(set)
	require.NoError(t, err)
	return cfg
}

func TestDecodeSingleDimm(t *testing.T) {
	cfg := mustConfig(t, singleDimmSet())
	require.Equal(t, "DDR4_X8_4G_NI", cfg.Case(0, 0, 0).Name)

	first, err := Decode(SystemAddress{Address: 0}, cfg)
	require.NoError(t, err)
	require.Equal(t, DramAddress{}, first)

	last, err := Decode(SystemAddress{Address: 0xFFFF_FFFF}, cfg)
	require.NoError(t, err)
	require.Equal(t, DramAddress{
		BankGroup: 3,
		Bank:      3,
		Row:       0x7FFF,
		Column:    0x3FC,
	}, last)

	addr, err := Encode(last, cfg)
	require.NoError(t, err)
	require.Equal(t, SystemAddress{Address: 0xFFFF_FFE0}, addr)

	// byte bit 5 is column bit 2, bits 0..4 never reach DRAM
	a, err := Decode(SystemAddress{Address: 0x3F}, cfg)
	require.NoError(t, err)
	require.Equal(t, uint16(1<<2), a.Column)
}

func TestCapacityBoundary(t *testing.T) {
	cfg := mustConfig(t, singleDimmSet())

	_, err := Decode(SystemAddress{Address: cfg.TOM - 1<<lineShift}, cfg)
	require.NoError(t, err)

	_, err = Decode(SystemAddress{Address: cfg.TOM}, cfg)
	var capErr ErrOutOfCapacity
	require.ErrorAs(t, err, &capErr)
	require.Equal(t, cfg.TOM>>lineShift, capErr.Line)
}

func TestRemapWindow(t *testing.T) {
	cfg := mustConfig(t, remapSet())
	require.True(t, cfg.RemapEnabled())
	require.Equal(t, uint64(0x4000_0000), cfg.RemapSize())

	for _, tt := range []struct {
		name    string
		addr    uint64
		tcm     bool
		wantErr interface{}
		line    uint64
	}{
		{name: "below_tolud", addr: 0xBFFF_FFFF, line: 0xBFFF_FFFF >> lineShift},
		{name: "gap_start", addr: 0xC000_0000, wantErr: &ErrUnmappedGap{}},
		{name: "gap_end", addr: 0xFFFF_FFFF, wantErr: &ErrUnmappedGap{}},
		{name: "past_gap", addr: 0x1_0000_0000, line: 0x1_0000_0000 >> lineShift},
		{name: "window_start", addr: 0x2_0000_0000, line: 0xC000_0000 >> lineShift},
		{name: "window_end", addr: 0x2_3FFF_FFFF, line: 0xFFFF_FFFF >> lineShift},
		{name: "window_tcm", addr: 0x2_0000_0000, tcm: true, wantErr: &ErrInvalidTrafficClass{}},
	} {
		t.Run(tt.name, func(t *testing.T) {
			line, err := ToLine(tt.addr, tt.tcm, cfg)
			if tt.wantErr != nil {
				require.ErrorAs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.line, line)
			require.Equal(t, tt.addr, FromLine(line, tt.addr&(1<<lineShift-1), cfg))
		})
	}

	_, err := Decode(SystemAddress{Address: 0x2_4000_0000}, cfg)
	require.ErrorAs(t, err, &ErrOutOfCapacity{})

	a, err := Decode(SystemAddress{Address: 0x2_1234_5678}, cfg)
	require.NoError(t, err)
	back, err := Encode(a, cfg)
	require.NoError(t, err)
	require.Equal(t, uint64(0x2_1234_5660), back.Address)
}

func TestManageabilityStolenMemory(t *testing.T) {
	set := singleDimmSet()
	set.TOM = 0xE000_0000
	set.RemapBase = 0x1_0000_0000
	set.RemapLimit = 0x1_1FFF_FFFF
	cfg := mustConfig(t, set)

	line, err := ToLine(0xD000_0000, false, cfg)
	require.NoError(t, err)
	require.Equal(t, uint64(0xD000_0000>>lineShift), line)
	require.Equal(t, uint64(0xD000_0000), FromLine(line, 0, cfg))

	line, err = ToLine(0x1_0000_0040, false, cfg)
	require.NoError(t, err)
	require.Equal(t, uint64(0xC000_0040>>lineShift), line)
}

func TestHashSelfConsistency(t *testing.T) {
	for _, h := range []Hash{
		{},
		{Enabled: true, Mask: 0x1A5, LSB: 3},
		{Enabled: true, Mask: 0x3FFF, LSB: 7},
		{Enabled: true, Mask: 0, LSB: 0},
	} {
		for line := uint64(0); line < 1<<12; line++ {
			sel, local := h.split(line)
			require.Equal(t, line, h.join(local, sel), "hash %+v line 0x%X", h, line)
			if h.Enabled {
				require.Equal(t, parity(line&(h.Mask|1<<h.LSB)), sel)
			} else {
				require.Equal(t, uint8(line&1), sel)
			}
		}
	}
}

func TestChannelHash(t *testing.T) {
	set := singleDimmSet()
	set.TOM = 0x2_0000_0000
	set.DimmChannel[1] = set.DimmChannel[0]
	set.ChannelHash = regs.Hash(0).WithEnabled(true).WithMask(0x0C30).WithLSBMaskBit(1)
	cfg := mustConfig(t, set)

	for line := uint64(0); line < 1<<14; line += 7 {
		ch, local, err := cfg.locateChannel(line)
		require.NoError(t, err)
		require.Equal(t, parity(line&(0x0C30|1<<1)), ch)
		require.Equal(t, line, cfg.composeChannel(ch, local))
	}
}

func TestStackedChannels(t *testing.T) {
	set := singleDimmSet()
	set.DimmChannel[1] = regs.DimmChannel(0).WithDimm(regs.DimmL, 4, uint8(layout.X16), 1, false, false)
	// channel 1 (2GiB) at the bottom of a 4GiB stack
	set.InterChannel = set.InterChannel.WithStacked(true, true, 3)
	set.TOM = 0x2_0000_0000
	cfg := mustConfig(t, set)

	a, err := Decode(SystemAddress{Address: 0x1000}, cfg)
	require.NoError(t, err)
	require.Equal(t, uint8(1), a.Channel)

	// hole between the top of channel 1 and the stack size
	_, err = Decode(SystemAddress{Address: 0x8000_0000}, cfg)
	require.ErrorAs(t, err, &ErrOutOfCapacity{})

	a, err = Decode(SystemAddress{Address: 0x1_0000_1000}, cfg)
	require.NoError(t, err)
	require.Equal(t, uint8(0), a.Channel)

	_, err = Decode(SystemAddress{Address: cfg.TOM}, cfg)
	require.ErrorAs(t, err, &ErrOutOfCapacity{})
}

func TestBitErrorRecovery(t *testing.T) {
	plain := mustConfig(t, singleDimmSet())
	target, err := Decode(SystemAddress{Address: 0x2000}, plain)
	require.NoError(t, err)
	abort, err := Decode(SystemAddress{Address: 0x4000}, plain)
	require.NoError(t, err)

	set := singleDimmSet()
	set.BERSource[0] = regs.NewBERSource(0x1000, false)
	set.BERTarget[0] = target.Register()
	set.BERAbort = abort.Register().WithAbortValid(true)
	cfg := mustConfig(t, set)

	// the source is redirected, for the whole cache line
	for _, addr := range []uint64{0x1000, 0x1010, 0x103F} {
		a, err := Decode(SystemAddress{Address: addr}, cfg)
		require.NoError(t, err)
		require.Equal(t, target, a)
	}

	// the replaced location is unreachable through its own address
	_, err = Decode(SystemAddress{Address: 0x2000}, cfg)
	var removed ErrRemovedByRecovery
	require.ErrorAs(t, err, &removed)
	require.Equal(t, 0, removed.Entry)

	// TCM accesses do not match a non-TCM source
	a, err := Decode(SystemAddress{Address: 0x1000, TCM: true}, cfg)
	require.NoError(t, err)
	require.False(t, a.SameLocation(target))
	require.True(t, a.TCM)

	addr, err := Encode(target, cfg)
	require.NoError(t, err)
	require.Equal(t, SystemAddress{Address: 0x1000}, addr)

	// TCM accesses right below TOM are served by the abort register
	a, err = Decode(SystemAddress{Address: cfg.TOM - 0x10, TCM: true}, cfg)
	require.NoError(t, err)
	require.True(t, a.SameLocation(abort))
	require.True(t, a.TCM)

	a, err = Decode(SystemAddress{Address: cfg.TOM - 0x10}, cfg)
	require.NoError(t, err)
	require.False(t, a.SameLocation(abort))

	a, err = Decode(SystemAddress{Address: cfg.TOM - abortWindow - 1, TCM: true}, cfg)
	require.NoError(t, err)
	require.False(t, a.SameLocation(abort))
}

func TestEncodeZone(t *testing.T) {
	// a 4GiB DIMM L interleaved with a 2GiB DIMM S: the top 2GiB of DIMM L
	// are decoded with the zone 1 case
	set := singleDimmSet()
	set.TOM = 0x1_8000_0000
	set.DimmChannel[0] = set.DimmChannel[0].WithDimm(regs.DimmS, 4, uint8(layout.X8), 1, false, false)
	set.IntraChannel[0] = regs.IntraChannel(0).WithRankInterleave(true)
	cfg := mustConfig(t, set)

	for _, tt := range []struct {
		name     string
		row      uint32
		addr     uint64
		zone     uint8
		caseName string
	}{
		{name: "interleaved", row: 0x2000, addr: 0x8000_0000, zone: 0, caseName: "DDR4_X8_4G_RI1Z0"},
		{name: "above_dimm_s", row: 0x4000, addr: 0x1_0000_0000, zone: 1, caseName: "DDR4_X8_4G_RI1Z1"},
	} {
		t.Run(tt.name, func(t *testing.T) {
			a := DramAddress{Row: tt.row}
			_, _, zone := cfg.encodeChannelLine(a)
			require.Equal(t, tt.zone, zone)
			require.Equal(t, tt.caseName, cfg.Case(0, uint8(regs.DimmL), zone).Name)

			addr, err := Encode(a, cfg)
			require.NoError(t, err)
			require.Equal(t, SystemAddress{Address: tt.addr}, addr)

			back, err := Decode(addr, cfg)
			require.NoError(t, err)
			require.Equal(t, a, back)
		})
	}
}

func TestEncodeValidation(t *testing.T) {
	cfg := mustConfig(t, singleDimmSet())

	_, err := Encode(DramAddress{Rank: 1, Bank: 4, Row: 0x8000, Column: 0x403}, cfg)
	var invalid ErrInvalidCoordinate
	require.ErrorAs(t, err, &invalid)
	var merr *multierror.Error
	require.ErrorAs(t, err, &merr)
	require.Len(t, merr.Errors, 5)

	var fieldErr ErrFieldRange
	require.ErrorAs(t, err, &fieldErr)
	require.Equal(t, "rank", fieldErr.Field)

	kinds := map[string]uint16{}
	for _, e := range merr.Errors {
		var colErr ErrReservedColumnBits
		if errors.As(e, &colErr) {
			kinds[colErr.Kind] = colErr.Bits
		}
	}
	require.Equal(t, map[string]uint16{"burst order": 0x3, "command": 0x400}, kinds)

	_, err = Encode(DramAddress{Channel: 1}, cfg)
	require.ErrorAs(t, err, &ErrNotPopulated{})

	_, err = Encode(DramAddress{Channel: 2}, cfg)
	require.ErrorAs(t, err, &fieldErr)
	require.Equal(t, "channel", fieldErr.Field)

	_, err = Encode(DramAddress{Column: 0x800}, cfg)
	require.ErrorAs(t, err, &ErrReservedColumnBits{})

	_, err = Encode(DramAddress{BankGroup: 3, Bank: 3, Row: 0x7FFF, Column: 0x3FC}, cfg)
	require.NoError(t, err)
}

func TestDramAddressString(t *testing.T) {
	a := DramAddress{Channel: 1, Dimm: 0, Rank: 2, BankGroup: 1, Bank: 3, Row: 0x1234, Column: 0x3F8, TCM: true}
	assert.Equal(t, "ch1/dimm0/rank2 bg 1 ba 3 row 0x1234 col 0x3F8 (TCM)", a.String())
	assert.Equal(t, "0x1000", SystemAddress{Address: 0x1000}.String())
	assert.Equal(t, a.Register(), regs.NewBERTarget(1, 0, 2, 1, 3, 0x1234, 0x3F8))
}
