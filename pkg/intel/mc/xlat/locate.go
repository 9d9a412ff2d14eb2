// Copyright 2024 the LinuxBoot Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package xlat

import (
	"math/bits"

	"github.com/linuxboot/mcaddr/pkg/intel/mc/regs"
)

func parity(v uint64) uint8 {
	return uint8(bits.OnesCount64(v) & 1)
}

// deleteBit removes bit n and moves the bits above it down.
func deleteBit(v uint64, n uint) uint64 {
	low := v & (1<<n - 1)
	return v>>(n+1)<<n | low
}

// insertBit makes room at bit n and sets it to b.
func insertBit(v uint64, n uint, b uint64) uint64 {
	low := v & (1<<n - 1)
	return v>>n<<(n+1) | b&1<<n | low
}

// split returns the selector of an interleaved line and the line inside
// the selected channel or DIMM.
func (h Hash) split(line uint64) (uint8, uint64) {
	if !h.Enabled {
		return uint8(line & 1), line >> 1
	}
	return parity(line & (h.Mask | 1<<h.LSB)), deleteBit(line, h.LSB)
}

// join is the inverse of split.
func (h Hash) join(local uint64, sel uint8) uint64 {
	if !h.Enabled {
		return local<<1 | uint64(sel)
	}
	line := insertBit(local, h.LSB, 0)
	b := uint64(sel ^ parity(line&h.Mask&^(1<<h.LSB)))
	return line | b<<h.LSB
}

// locateChannel returns the physical channel of a line address and the
// line inside the channel.
func (cfg *Config) locateChannel(line uint64) (uint8, uint64, error) {
	if cfg.Stacked {
		ch, local := uint8(0), line
		if line >= cfg.StackLines {
			ch, local = 1, line-cfg.StackLines
		}
		if cfg.StackedSwap {
			ch ^= 1
		}
		if limit := cfg.Channels[ch].Lines(); local >= limit {
			return 0, 0, ErrOutOfCapacity{Level: "channel", Line: local, Limit: limit}
		}
		return ch, local, nil
	}

	sizeL := cfg.Channels[cfg.ChannelLMap].Lines()
	sizeS := cfg.Channels[cfg.ChannelLMap^1].Lines()
	var logical uint8
	var local uint64
	switch {
	case line < 2*sizeS:
		logical, local = cfg.ChannelHash.split(line)
	case line < sizeL+sizeS:
		logical, local = 0, line-sizeS
	default:
		return 0, 0, ErrOutOfCapacity{Level: "system", Line: line, Limit: sizeL + sizeS}
	}
	return logical ^ cfg.ChannelLMap, local, nil
}

// composeChannel is the inverse of locateChannel.
func (cfg *Config) composeChannel(ch uint8, local uint64) uint64 {
	if cfg.Stacked {
		if ch == cfg.stackedLowerChannel() {
			return local
		}
		return local + cfg.StackLines
	}
	logical := ch ^ cfg.ChannelLMap
	sizeS := cfg.Channels[cfg.ChannelLMap^1].Lines()
	if logical == 0 && local >= sizeS {
		return local + sizeS
	}
	return cfg.ChannelHash.join(local, logical)
}

// locateDimm returns the logical DIMM of a channel-local line, the line
// inside the DIMM and the zone: 1 for the part of DIMM L above the
// interleaved region, 0 otherwise.
func (cfg *Config) locateDimm(ch uint8, local uint64) (uint8, uint64, uint8, error) {
	channel := &cfg.Channels[ch]
	dimmL, dimmS := channel.Dimms[regs.DimmL], channel.Dimms[regs.DimmS]
	if !channel.Interleaved() {
		switch {
		case local < dimmL.Lines:
			return uint8(regs.DimmL), local, 0, nil
		case local < dimmL.Lines+dimmS.Lines:
			return uint8(regs.DimmS), local - dimmL.Lines, 0, nil
		}
		return 0, 0, 0, ErrOutOfCapacity{Level: "channel", Line: local, Limit: channel.Lines()}
	}
	switch {
	case local < 2*dimmS.Lines:
		logical, d := cfg.DimmHash.split(local)
		return logical, d, 0, nil
	case local < dimmL.Lines+dimmS.Lines:
		return uint8(regs.DimmL), local - dimmS.Lines, 1, nil
	}
	return 0, 0, 0, ErrOutOfCapacity{Level: "channel", Line: local, Limit: channel.Lines()}
}

// composeDimm is the inverse of locateDimm. It also returns the zone the
// composed line falls into.
func (cfg *Config) composeDimm(ch, logical uint8, d uint64) (uint64, uint8) {
	channel := &cfg.Channels[ch]
	dimmL, dimmS := channel.Dimms[regs.DimmL], channel.Dimms[regs.DimmS]
	if !channel.Interleaved() {
		if logical == uint8(regs.DimmL) {
			return d, 0
		}
		return d + dimmL.Lines, 0
	}
	if logical == uint8(regs.DimmL) && d >= dimmS.Lines {
		return d + dimmS.Lines, 1
	}
	return cfg.DimmHash.join(d, logical), 0
}
