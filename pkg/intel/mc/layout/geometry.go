// Copyright 2024 the LinuxBoot Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package layout

import (
	"fmt"

	"github.com/linuxboot/mcaddr/pkg/intel/mc/regs"
)

// Width is the data width of the DRAM devices on a DIMM.
type Width uint8

// Device widths, in register encoding.
const (
	X8 = Width(iota)
	X16
	X32
	X64
)

func (w Width) String() string {
	switch w {
	case X8:
		return "X8"
	case X16:
		return "X16"
	case X32:
		return "X32"
	case X64:
		return "X64"
	}
	return fmt.Sprintf("Width(%d)", uint8(w))
}

// Widths returns the device widths supported with the technology, the
// narrowest first.
func Widths(t regs.DDRType) []Width {
	switch t {
	case regs.DDRTypeDDR4, regs.DDRTypeDDR3:
		return []Width{X8, X16}
	case regs.DDRTypeLPDDR3:
		return []Width{X16, X32}
	case regs.DDRTypeWIO2:
		return []Width{X64}
	}
	return nil
}

// IsLegalWidth returns true if the technology supports the device width.
func IsLegalWidth(t regs.DDRType, w Width) bool {
	for _, legal := range Widths(t) {
		if legal == w {
			return true
		}
	}
	return false
}

// MaxRanks returns the maximal number of ranks per DIMM.
func MaxRanks(t regs.DDRType) uint8 {
	switch t {
	case regs.DDRTypeDDR4, regs.DDRTypeDDR3:
		return 4
	case regs.DDRTypeLPDDR3:
		return 2
	case regs.DDRTypeWIO2:
		return 1
	}
	return 0
}

// PreCachelineColumn returns the column bit that sits in byte address bit 5,
// below the cache line.
func PreCachelineColumn(t regs.DDRType) uint {
	switch t {
	case regs.DDRTypeDDR4, regs.DDRTypeDDR3:
		return 2
	}
	return 3
}

// BurstColumnBits returns the number of low column bits resolved by the
// burst order only. They never reach the address.
func BurstColumnBits(t regs.DDRType) uint {
	return PreCachelineColumn(t)
}

// LineColumns returns the column bits carried by the line address, in
// line address order.
func LineColumns(t regs.DDRType, w Width) []uint {
	var first, last uint
	switch {
	case t == regs.DDRTypeDDR4 || t == regs.DDRTypeDDR3:
		first, last = 3, 9
	case t == regs.DDRTypeLPDDR3 && w == X32:
		first, last = 4, 9
	case t == regs.DDRTypeLPDDR3:
		first, last = 4, 10
	default:
		first, last = 4, 11
	}
	result := make([]uint, 0, last-first+1)
	for c := first; c <= last; c++ {
		result = append(result, c)
	}
	return result
}

// BankGroupBits returns the number of bank group bits. DDR4 x8 devices
// have two, but the second one becomes a rank bit on DIMMs with more than
// two ranks.
func BankGroupBits(t regs.DDRType, w Width, ranks uint8) uint {
	if t != regs.DDRTypeDDR4 {
		return 0
	}
	if w == X8 && ranks <= 2 {
		return 2
	}
	return 1
}

// BankBits returns the number of bank address bits.
func BankBits(t regs.DDRType) uint {
	switch t {
	case regs.DDRTypeDDR3, regs.DDRTypeLPDDR3:
		return 3
	}
	return 2
}

// LowLineBits returns the number of line address bits below the row
// field: line column bits, bank group bits and bank bits.
func LowLineBits(t regs.DDRType, w Width, ranks uint8) uint {
	return uint(len(LineColumns(t, w))) + BankGroupBits(t, w, ranks) + BankBits(t)
}
