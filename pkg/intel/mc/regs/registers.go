// Copyright 2024 the LinuxBoot Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package regs describes the memory controller registers consumed by the
// address translation engine.
//
// Every register is a named integer type with accessor methods for its
// bit fields. The With* methods return a copy with one field replaced and
// are used to build register values programmatically.
package regs

import (
	"fmt"
)

const (
	mib          = uint64(1) << 20
	addressMask  = uint64(1)<<39 - 1 // bits [38:0]
	mibAlignMask = addressMask &^ (mib - 1)
)

func bits(v uint64, hi, lo uint) uint64 {
	return (v >> lo) & (uint64(1)<<(hi-lo+1) - 1)
}

func setBits(v uint64, hi, lo uint, field uint64) uint64 {
	mask := (uint64(1)<<(hi-lo+1) - 1) << lo
	return (v &^ mask) | ((field << lo) & mask)
}

func bit(v uint64, n uint) bool {
	return v>>n&1 != 0
}

func setBit(v uint64, n uint, b bool) uint64 {
	if b {
		return v | 1<<n
	}
	return v &^ (1 << n)
}

// TOLUD is the "Top Of Low Usable DRAM" register.
type TOLUD uint32

// Base returns the first address of the MMIO hole below 4GiB.
func (r TOLUD) Base() uint64 { return uint64(r) & 0xFFF00000 }

// Normalize masks the register to its architected bits.
func (r TOLUD) Normalize() TOLUD { return TOLUD(r.Base()) }

func (r TOLUD) String() string { return fmt.Sprintf("0x%08X", r.Base()) }

// TOM is the "Top Of Memory" register.
type TOM uint64

// Base returns the total amount of installed memory as a system address.
func (r TOM) Base() uint64 { return uint64(r) & mibAlignMask }

// Normalize masks the register to its architected bits.
func (r TOM) Normalize() TOM { return TOM(r.Base()) }

func (r TOM) String() string { return fmt.Sprintf("0x%X", r.Base()) }

// RemapBase is the first system address of the remap window.
type RemapBase uint64

// Address returns the first byte of the remap window.
func (r RemapBase) Address() uint64 { return uint64(r) & mibAlignMask }

// Normalize masks the register to its architected bits.
func (r RemapBase) Normalize() RemapBase { return RemapBase(r.Address()) }

func (r RemapBase) String() string { return fmt.Sprintf("0x%X", r.Address()) }

// RemapLimit is the last system address of the remap window.
//
// The hardware does not define bits [19:0]. They are always treated as set
// so the limit is an inclusive byte address.
type RemapLimit uint64

// Address returns the last byte of the remap window.
func (r RemapLimit) Address() uint64 { return uint64(r)&mibAlignMask | (mib - 1) }

// Normalize masks the register to its architected bits and sets the
// undefined low bits.
func (r RemapLimit) Normalize() RemapLimit { return RemapLimit(r.Address()) }

func (r RemapLimit) String() string { return fmt.Sprintf("0x%X", r.Address()) }

// Hash is the layout shared by the channel and the DIMM hash registers.
//
// When enabled, the interleave selector is the XOR of all line address
// bits selected by Mask plus the LSB mask bit.
type Hash uint32

// Mask returns the hashed line address bits (line bits 0..13).
func (r Hash) Mask() uint64 { return bits(uint64(r), 19, 6) }

// LSBMaskBit returns the line address bit which is always part of the
// hash and is removed from the interleaved address.
func (r Hash) LSBMaskBit() uint { return uint(bits(uint64(r), 26, 24)) }

// Enabled returns true if hashing is enabled.
func (r Hash) Enabled() bool { return bit(uint64(r), 28) }

// WithMask sets the hashed line address bits.
func (r Hash) WithMask(mask uint64) Hash { return Hash(setBits(uint64(r), 19, 6, mask)) }

// WithLSBMaskBit sets the LSB mask bit.
func (r Hash) WithLSBMaskBit(n uint) Hash { return Hash(setBits(uint64(r), 26, 24, uint64(n))) }

// WithEnabled sets the enable bit.
func (r Hash) WithEnabled(b bool) Hash { return Hash(setBit(uint64(r), 28, b)) }

// Normalize masks the register to its architected bits.
func (r Hash) Normalize() Hash {
	return Hash(uint64(r) & (0x3FFF<<6 | 0x7<<24 | 1<<28))
}

// DDRType is the memory technology programmed into the inter-channel
// register.
type DDRType uint8

// Supported memory technologies.
const (
	DDRTypeDDR4 = DDRType(iota)
	DDRTypeDDR3
	DDRTypeLPDDR3
	DDRTypeWIO2
)

func (t DDRType) String() string {
	switch t {
	case DDRTypeDDR4:
		return "DDR4"
	case DDRTypeDDR3:
		return "DDR3"
	case DDRTypeLPDDR3:
		return "LPDDR3"
	case DDRTypeWIO2:
		return "WIO2"
	}
	return fmt.Sprintf("DDRType(%d)", uint8(t))
}

// InterChannel is the inter-channel decode register.
type InterChannel uint32

// DDRType returns the memory technology.
func (r InterChannel) DDRType() DDRType { return DDRType(bits(uint64(r), 2, 0)) }

// EnhancedChannelMode returns true if DDR4 enhanced channel mode is enabled.
func (r InterChannel) EnhancedChannelMode() bool { return bit(uint64(r), 3) }

// ChannelLMap returns the physical index of the larger (L) channel.
func (r InterChannel) ChannelLMap() uint8 { return uint8(bits(uint64(r), 4, 4)) }

// Stacked returns true if stacked channel mode is enabled.
func (r InterChannel) Stacked() bool { return bit(uint64(r), 8) }

// StackedSwap returns true if channel 1 sits below channel 0 in stacked mode.
func (r InterChannel) StackedSwap() bool { return bit(uint64(r), 9) }

// StackSizeEncoding returns the raw stack size encoding. The stack is
// 512MiB << encoding.
func (r InterChannel) StackSizeEncoding() uint { return uint(bits(uint64(r), 26, 24)) }

// WithDDRType sets the memory technology.
func (r InterChannel) WithDDRType(t DDRType) InterChannel {
	return InterChannel(setBits(uint64(r), 2, 0, uint64(t)))
}

// WithEnhancedChannelMode sets the enhanced channel mode bit.
func (r InterChannel) WithEnhancedChannelMode(b bool) InterChannel {
	return InterChannel(setBit(uint64(r), 3, b))
}

// WithChannelLMap sets the physical index of the L channel.
func (r InterChannel) WithChannelLMap(ch uint8) InterChannel {
	return InterChannel(setBits(uint64(r), 4, 4, uint64(ch)))
}

// WithStacked sets the stacked mode bits.
func (r InterChannel) WithStacked(enabled, swap bool, encoding uint) InterChannel {
	v := setBit(uint64(r), 8, enabled)
	v = setBit(v, 9, swap)
	return InterChannel(setBits(v, 26, 24, uint64(encoding)))
}

// Normalize masks the register to its architected bits.
func (r InterChannel) Normalize() InterChannel {
	return InterChannel(uint64(r) & (0x7 | 1<<3 | 1<<4 | 1<<8 | 1<<9 | 0x7<<24))
}

// IntraChannel is the per-channel DIMM decode register.
type IntraChannel uint32

// DimmLMap returns the physical index of the larger (L) DIMM.
func (r IntraChannel) DimmLMap() uint8 { return uint8(bits(uint64(r), 0, 0)) }

// RankInterleave returns true if DIMM/rank interleave is enabled.
func (r IntraChannel) RankInterleave() bool { return bit(uint64(r), 4) }

// EnhancedInterleave returns true if enhanced interleave mode is enabled.
func (r IntraChannel) EnhancedInterleave() bool { return bit(uint64(r), 8) }

// HORI returns true if high order rank interleave is enabled.
func (r IntraChannel) HORI() bool { return bit(uint64(r), 12) }

// HORIAddress returns the selector of the HORI rank bit: the rank is
// taken from DIMM-local line address bit 20+HORIAddress.
func (r IntraChannel) HORIAddress() uint8 { return uint8(bits(uint64(r), 18, 16)) }

// WithDimmLMap sets the physical index of the L DIMM.
func (r IntraChannel) WithDimmLMap(d uint8) IntraChannel {
	return IntraChannel(setBits(uint64(r), 0, 0, uint64(d)))
}

// WithRankInterleave sets the rank interleave bit.
func (r IntraChannel) WithRankInterleave(b bool) IntraChannel {
	return IntraChannel(setBit(uint64(r), 4, b))
}

// WithEnhancedInterleave sets the enhanced interleave bit.
func (r IntraChannel) WithEnhancedInterleave(b bool) IntraChannel {
	return IntraChannel(setBit(uint64(r), 8, b))
}

// WithHORI sets the high order rank interleave enable and selector.
func (r IntraChannel) WithHORI(enabled bool, sel uint8) IntraChannel {
	return IntraChannel(setBits(setBit(uint64(r), 12, enabled), 18, 16, uint64(sel)))
}

// Normalize masks the register to its architected bits.
func (r IntraChannel) Normalize() IntraChannel {
	return IntraChannel(uint64(r) & (1 | 1<<4 | 1<<8 | 1<<12 | 0x7<<16))
}

// DimmSelect selects one of the two DIMM slots of a channel in the
// DIMM channel register.
type DimmSelect uint8

// DIMM slots, ordered by size.
const (
	DimmL = DimmSelect(iota)
	DimmS
)

func (s DimmSelect) String() string {
	if s == DimmL {
		return "L"
	}
	return "S"
}

// SizeUnit is the granularity of the DIMM size fields.
const SizeUnit = 512 * mib

type dimmFields struct {
	sizeHi, sizeLo   uint
	widthHi, widthLo uint
	ranksHi, ranksLo uint
	is8Gb            uint
	quirk            uint
}

var dimmFieldsBySelect = [2]dimmFields{
	DimmL: {sizeHi: 6, sizeLo: 0, widthHi: 9, widthLo: 8, ranksHi: 11, ranksLo: 10, is8Gb: 12, quirk: 29},
	DimmS: {sizeHi: 22, sizeLo: 16, widthHi: 25, widthLo: 24, ranksHi: 27, ranksLo: 26, is8Gb: 28, quirk: 30},
}

// DimmChannel is the per-channel DIMM geometry register.
type DimmChannel uint32

// SizeUnits returns the DIMM capacity in 512MiB units; 0 means not populated.
func (r DimmChannel) SizeUnits(s DimmSelect) uint64 {
	f := dimmFieldsBySelect[s]
	return bits(uint64(r), f.sizeHi, f.sizeLo)
}

// Size returns the DIMM capacity in bytes.
func (r DimmChannel) Size(s DimmSelect) uint64 { return r.SizeUnits(s) * SizeUnit }

// Width returns the raw device width encoding (0 x8, 1 x16, 2 x32, 3 x64).
func (r DimmChannel) Width(s DimmSelect) uint8 {
	f := dimmFieldsBySelect[s]
	return uint8(bits(uint64(r), f.widthHi, f.widthLo))
}

// Ranks returns the number of ranks (1..4).
func (r DimmChannel) Ranks(s DimmSelect) uint8 {
	f := dimmFieldsBySelect[s]
	return uint8(bits(uint64(r), f.ranksHi, f.ranksLo)) + 1
}

// Is8Gb returns true for 8Gb device density.
func (r DimmChannel) Is8Gb(s DimmSelect) bool { return bit(uint64(r), dimmFieldsBySelect[s].is8Gb) }

// BG0OnRowBit11 returns true if the DIMM needs the column bit 7 and bank
// group bit 0 swap.
func (r DimmChannel) BG0OnRowBit11(s DimmSelect) bool {
	return bit(uint64(r), dimmFieldsBySelect[s].quirk)
}

// WithDimm sets all geometry fields of one DIMM slot.
func (r DimmChannel) WithDimm(s DimmSelect, units uint64, width uint8, ranks uint8, is8Gb, bg0OnRowBit11 bool) DimmChannel {
	f := dimmFieldsBySelect[s]
	v := setBits(uint64(r), f.sizeHi, f.sizeLo, units)
	v = setBits(v, f.widthHi, f.widthLo, uint64(width))
	if ranks > 0 {
		v = setBits(v, f.ranksHi, f.ranksLo, uint64(ranks-1))
	}
	v = setBit(v, f.is8Gb, is8Gb)
	return DimmChannel(setBit(v, f.quirk, bg0OnRowBit11))
}

// Normalize masks the register to its architected bits.
func (r DimmChannel) Normalize() DimmChannel {
	return DimmChannel(uint64(r) & 0x7F7F1F7F)
}

// BERSource is a bit error recovery source register.
type BERSource uint64

// Valid returns true if the entry is enabled.
func (r BERSource) Valid() bool { return bit(uint64(r), 0) }

// TCM returns true if the source is a manageability engine access.
func (r BERSource) TCM() bool { return bit(uint64(r), 1) }

// Address returns the cache line aligned source system address.
func (r BERSource) Address() uint64 { return uint64(r) & addressMask &^ 0x3F }

// NewBERSource builds a BER source register value.
func NewBERSource(addr uint64, tcm bool) BERSource {
	v := addr&addressMask&^0x3F | 1
	return BERSource(setBit(v, 1, tcm))
}

// Normalize masks the register to its architected bits.
func (r BERSource) Normalize() BERSource {
	return BERSource(uint64(r) & (addressMask&^0x3F | 0x3))
}

// BERTarget is a packed DRAM coordinate, used by the bit error recovery
// target registers and the abort register.
type BERTarget uint64

// Column returns the column field.
func (r BERTarget) Column() uint16 { return uint16(bits(uint64(r), 11, 0)) }

// Row returns the row field.
func (r BERTarget) Row() uint32 { return uint32(bits(uint64(r), 28, 12)) }

// Bank returns the bank field.
func (r BERTarget) Bank() uint8 { return uint8(bits(uint64(r), 31, 29)) }

// BankGroup returns the bank group field.
func (r BERTarget) BankGroup() uint8 { return uint8(bits(uint64(r), 33, 32)) }

// Rank returns the rank field.
func (r BERTarget) Rank() uint8 { return uint8(bits(uint64(r), 35, 34)) }

// Dimm returns the physical DIMM field.
func (r BERTarget) Dimm() uint8 { return uint8(bits(uint64(r), 36, 36)) }

// Channel returns the physical channel field.
func (r BERTarget) Channel() uint8 { return uint8(bits(uint64(r), 37, 37)) }

// AbortValid returns true if the register holds a recovery window
// coordinate. Only meaningful for the abort register.
func (r BERTarget) AbortValid() bool { return bit(uint64(r), 63) }

// NewBERTarget packs a DRAM coordinate.
func NewBERTarget(channel, dimm, rank, bankGroup, bank uint8, row uint32, column uint16) BERTarget {
	v := setBits(0, 11, 0, uint64(column))
	v = setBits(v, 28, 12, uint64(row))
	v = setBits(v, 31, 29, uint64(bank))
	v = setBits(v, 33, 32, uint64(bankGroup))
	v = setBits(v, 35, 34, uint64(rank))
	v = setBits(v, 36, 36, uint64(dimm))
	return BERTarget(setBits(v, 37, 37, uint64(channel)))
}

// WithAbortValid sets the abort valid bit.
func (r BERTarget) WithAbortValid(b bool) BERTarget { return BERTarget(setBit(uint64(r), 63, b)) }

// Normalize masks the register to its architected bits.
func (r BERTarget) Normalize() BERTarget {
	return BERTarget(uint64(r) & (uint64(1)<<38 - 1 | 1<<63))
}
