// Copyright 2024 the LinuxBoot Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package xlat translates between system addresses and DRAM coordinates
// using the memory controller registers.
//
// A Config is derived once per register snapshot and never modified;
// Decode and Encode are pure functions over it.
package xlat

import (
	"fmt"
	"math/bits"

	"github.com/hashicorp/go-multierror"

	"github.com/linuxboot/mcaddr/pkg/intel/mc/layout"
	"github.com/linuxboot/mcaddr/pkg/intel/mc/regs"
	"github.com/linuxboot/mcaddr/pkg/log"
)

const (
	lineShift = layout.LineShift

	// unitShift converts between 512MiB size units and cache lines.
	unitShift = 23

	fourGiB = uint64(1) << 32

	// abortWindow is the region below TOM served by the abort register.
	abortWindow = 4096

	dimmsPerChannel = 2

	// horiRankBase is the DIMM-local line bit selected by a HORI selector
	// of zero.
	horiRankBase = 20
)

// Hash describes the XOR hash selecting between two interleaved channels
// or DIMMs.
type Hash struct {
	Enabled bool

	// Mask selects the line address bits folded into the selector.
	Mask uint64

	// LSB is the line address bit removed from the interleaved address.
	LSB uint
}

func hashFromRegister(r regs.Hash) Hash {
	return Hash{
		Enabled: r.Enabled(),
		Mask:    r.Mask(),
		LSB:     r.LSBMaskBit(),
	}
}

// Dimm is the geometry of one DIMM.
type Dimm struct {
	// Lines is the capacity in cache lines; 0 means not populated.
	Lines         uint64
	Ranks         uint8
	Width         layout.Width
	Is8Gb         bool
	BG0OnRowBit11 bool
}

// Populated returns true if the slot holds a DIMM.
func (d Dimm) Populated() bool {
	return d.Lines != 0
}

// Units returns the capacity in 512MiB units.
func (d Dimm) Units() uint64 {
	return d.Lines >> unitShift
}

// Size returns the capacity in bytes.
func (d Dimm) Size() uint64 {
	return d.Lines << lineShift
}

// RankLines returns the capacity of one rank in cache lines. Three rank
// DIMMs have equally sized ranks as well.
func (d Dimm) RankLines() uint64 {
	if d.Ranks == 0 {
		return 0
	}
	return d.Lines / uint64(d.Ranks)
}

// RowBits returns the width of the row field, 0 if the rank is too small
// to hold a single row.
func (d Dimm) RowBits(t regs.DDRType) uint {
	rankLines := d.RankLines()
	if rankLines == 0 {
		return 0
	}
	rankBits := uint(bits.Len64(rankLines) - 1)
	low := layout.LowLineBits(t, d.Width, d.Ranks)
	if rankBits < low {
		return 0
	}
	return rankBits - low
}

// rankSpan is the number of DIMM-local lines per rank when the ranks are
// not interleaved.
func (d Dimm) rankSpan() uint64 {
	if d.Ranks == 2 {
		return 1 << (unitShift - 1 + uint(bits.Len64(d.Units())-1))
	}
	return d.RankLines()
}

// Channel holds the DIMM decode settings of one channel.
type Channel struct {
	// DimmLMap is the physical index of DIMM L.
	DimmLMap uint8

	RankInterleave     bool
	EnhancedInterleave bool
	HORI               bool
	HORISelect         uint8

	// Dimms are indexed by logical slot: regs.DimmL, then regs.DimmS.
	Dimms [dimmsPerChannel]Dimm
}

// Lines returns the capacity of the channel in cache lines.
func (c *Channel) Lines() uint64 {
	return c.Dimms[regs.DimmL].Lines + c.Dimms[regs.DimmS].Lines
}

// DimmCount returns the number of populated DIMMs.
func (c *Channel) DimmCount() int {
	count := 0
	for _, d := range c.Dimms {
		if d.Populated() {
			count++
		}
	}
	return count
}

// Interleaved returns true if the DIMM interleave layout is used.
func (c *Channel) Interleaved() bool {
	return c.RankInterleave || c.HORI
}

// usesHORI returns true if the DIMM is decoded with high order rank
// interleave. Only dual rank DIMMs are.
func (c *Channel) usesHORI(d Dimm) bool {
	return c.HORI && d.Ranks == 2
}

// BEREntry is a bit error recovery entry: accesses of Source go to Target
// instead, and Target is unreachable otherwise.
type BEREntry struct {
	Enabled bool
	Source  SystemAddress
	Target  DramAddress
}

// Config is the decoded memory controller configuration.
type Config struct {
	TOLUD      uint64
	TOM        uint64
	RemapBase  uint64
	RemapLimit uint64

	ChannelHash Hash
	DimmHash    Hash

	Technology          regs.DDRType
	EnhancedChannelMode bool

	// ChannelLMap is the physical index of channel L.
	ChannelLMap uint8

	Stacked     bool
	StackedSwap bool

	// StackLines is the size of the lower stacked channel in cache lines.
	StackLines uint64

	// Channels are indexed by physical channel.
	Channels [regs.Channels]Channel

	BER [regs.BEREntries]BEREntry

	// Abort holds the coordinate served to TCM accesses right below TOM,
	// nil if the abort register is not valid.
	Abort *DramAddress
}

// NewConfig normalizes the registers and derives the configuration.
func NewConfig(set regs.Set) (*Config, error) {
	set = set.Normalize()
	inter := set.InterChannel

	cfg := &Config{
		TOLUD:               set.TOLUD.Base(),
		TOM:                 set.TOM.Base(),
		RemapBase:           set.RemapBase.Address(),
		RemapLimit:          set.RemapLimit.Address(),
		ChannelHash:         hashFromRegister(set.ChannelHash),
		DimmHash:            hashFromRegister(set.DimmHash),
		Technology:          inter.DDRType(),
		EnhancedChannelMode: inter.EnhancedChannelMode(),
		ChannelLMap:         inter.ChannelLMap(),
		Stacked:             inter.Stacked(),
		StackedSwap:         inter.StackedSwap(),
		StackLines:          1 << (inter.StackSizeEncoding() + unitShift),
	}

	for ch := range cfg.Channels {
		intra := set.IntraChannel[ch]
		channel := &cfg.Channels[ch]
		channel.DimmLMap = intra.DimmLMap()
		channel.RankInterleave = intra.RankInterleave()
		channel.EnhancedInterleave = intra.EnhancedInterleave()
		channel.HORI = intra.HORI()
		channel.HORISelect = intra.HORIAddress()
		for _, s := range []regs.DimmSelect{regs.DimmL, regs.DimmS} {
			r := set.DimmChannel[ch]
			channel.Dimms[s] = Dimm{
				Lines:         r.SizeUnits(s) << unitShift,
				Ranks:         r.Ranks(s),
				Width:         layout.Width(r.Width(s)),
				Is8Gb:         r.Is8Gb(s),
				BG0OnRowBit11: r.BG0OnRowBit11(s),
			}
		}
	}

	for idx := range cfg.BER {
		src := set.BERSource[idx]
		cfg.BER[idx] = BEREntry{
			Enabled: src.Valid(),
			Source:  SystemAddress{Address: src.Address(), TCM: src.TCM()},
			Target:  dramAddressFromRegister(set.BERTarget[idx]),
		}
	}
	if set.BERAbort.AbortValid() {
		abort := dramAddressFromRegister(set.BERAbort)
		cfg.Abort = &abort
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	log.Debugf("memory controller configuration: %s, %d channel(s), %s", cfg.Technology, cfg.channelCount(), cfg.capacityString())
	return cfg, nil
}

func (cfg *Config) channelCount() int {
	count := 0
	for ch := range cfg.Channels {
		if cfg.Channels[ch].Lines() != 0 {
			count++
		}
	}
	return count
}

// Lines returns the installed capacity in cache lines.
func (cfg *Config) Lines() uint64 {
	return cfg.Channels[0].Lines() + cfg.Channels[1].Lines()
}

// RemapEnabled returns true if the remap window is active.
func (cfg *Config) RemapEnabled() bool {
	return cfg.RemapLimit > cfg.RemapBase
}

// RemapSize returns the size of the remap window in bytes.
func (cfg *Config) RemapSize() uint64 {
	if !cfg.RemapEnabled() {
		return 0
	}
	return cfg.RemapLimit - cfg.RemapBase + 1
}

// stackedLowerChannel returns the physical channel mapped at line 0 in
// stacked mode.
func (cfg *Config) stackedLowerChannel() uint8 {
	if cfg.StackedSwap {
		return 1
	}
	return 0
}

// Case returns the configuration case used for a DIMM of a channel in the
// given zone.
func (cfg *Config) Case(ch, logicalDimm, zone uint8) *layout.Case {
	channel := &cfg.Channels[ch]
	dimmL, dimmS := channel.Dimms[regs.DimmL], channel.Dimms[regs.DimmS]
	target := channel.Dimms[logicalDimm]
	id := layout.ResolveCase(layout.Query{
		Technology:          cfg.Technology,
		EnhancedChannelMode: cfg.EnhancedChannelMode,
		DimmCount:           channel.DimmCount(),
		RankCount:           target.Ranks,
		LargeDimmRankCount:  dimmL.Ranks,
		LargeDimmWidth:      dimmL.Width,
		SameWidth:           !dimmS.Populated() || dimmL.Width == dimmS.Width,
		Interleaved:         channel.Interleaved(),
		Zone:                zone,
		WIO2:                cfg.Technology == regs.DDRTypeWIO2,
	})
	return layout.Get(layout.Refine(id, target.Width, target.Is8Gb))
}

// Validate checks that the configuration is one the controller supports.
// Every violation is reported.
func (cfg *Config) Validate() error {
	var result *multierror.Error

	if cfg.Technology > regs.DDRTypeWIO2 {
		result = multierror.Append(result, fmt.Errorf("unsupported memory technology %s", cfg.Technology))
		return ErrInvalidConfig{Err: result}
	}
	if cfg.EnhancedChannelMode && cfg.Technology != regs.DDRTypeDDR4 {
		log.Warnf("enhanced channel mode is set on %s memory, ignoring it", cfg.Technology)
	}

	for ch := range cfg.Channels {
		channel := &cfg.Channels[ch]
		dimmL, dimmS := channel.Dimms[regs.DimmL], channel.Dimms[regs.DimmS]
		if dimmS.Lines > dimmL.Lines {
			result = multierror.Append(result, fmt.Errorf("channel %d: DIMM S (%d units) is larger than DIMM L (%d units)",
				ch, dimmS.Units(), dimmL.Units()))
		}
		dualRank := false
		for slot, d := range channel.Dimms {
			if !d.Populated() {
				continue
			}
			if err := cfg.validateDimm(uint8(ch), uint8(slot)); err != nil {
				result = multierror.Append(result, err)
				continue
			}
			if d.Ranks != 2 {
				continue
			}
			dualRank = true
			if !channel.HORI {
				continue
			}
			rowBase := newHORILayout(cfg.Technology, d.Width, cfg.EnhancedChannelMode).rowBase
			rankBit := horiRankBase + uint(channel.HORISelect)
			if rankBit < rowBase || rankBit > rowBase+d.RowBits(cfg.Technology) {
				result = multierror.Append(result, fmt.Errorf("channel %d DIMM %s: HORI rank bit %d is outside of the row bits [%d, %d]",
					ch, regs.DimmSelect(slot), rankBit, rowBase, rowBase+d.RowBits(cfg.Technology)))
			}
		}
		if channel.HORI && !dualRank && channel.Lines() != 0 {
			log.Warnf("channel %d: HORI is enabled without a dual rank DIMM", ch)
		}
	}

	if cfg.Stacked {
		lower := cfg.Channels[cfg.stackedLowerChannel()].Lines()
		if cfg.StackLines < lower {
			result = multierror.Append(result, fmt.Errorf("stack size 0x%X lines is smaller than the lower channel (0x%X lines)",
				cfg.StackLines, lower))
		}
	} else {
		sizeL := cfg.Channels[cfg.ChannelLMap].Lines()
		sizeS := cfg.Channels[cfg.ChannelLMap^1].Lines()
		if sizeS > sizeL {
			result = multierror.Append(result, fmt.Errorf("channel S (0x%X lines) is larger than channel L (0x%X lines)", sizeS, sizeL))
		}
	}

	if err := result.ErrorOrNil(); err != nil {
		return ErrInvalidConfig{Err: err}
	}
	return nil
}

func (cfg *Config) validateDimm(ch, slot uint8) error {
	d := cfg.Channels[ch].Dimms[slot]
	prefix := fmt.Sprintf("channel %d DIMM %s", ch, regs.DimmSelect(slot))

	if !layout.IsLegalWidth(cfg.Technology, d.Width) {
		return fmt.Errorf("%s: width %s is not supported by %s", prefix, d.Width, cfg.Technology)
	}
	if d.Ranks == 0 || d.Ranks > layout.MaxRanks(cfg.Technology) {
		return fmt.Errorf("%s: %d ranks, %s supports up to %d", prefix, d.Ranks, cfg.Technology, layout.MaxRanks(cfg.Technology))
	}
	rankLines := d.RankLines()
	if d.Lines%uint64(d.Ranks) != 0 || bits.OnesCount64(rankLines) != 1 {
		return fmt.Errorf("%s: rank size of %d lines is not a power of two", prefix, rankLines)
	}
	rows := d.RowBits(cfg.Technology)
	if rows == 0 {
		return fmt.Errorf("%s: rank of %d lines is smaller than a row", prefix, rankLines)
	}
	if limit := cfg.Case(ch, slot, 0).RowBits(); rows > limit {
		return fmt.Errorf("%s: %d row bits, the %s %s geometry has %d", prefix, rows, d.Width, densityString(d.Is8Gb), limit)
	}
	return nil
}

func densityString(is8Gb bool) string {
	if is8Gb {
		return "8Gb"
	}
	return "4Gb"
}
