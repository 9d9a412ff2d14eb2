// Copyright 2024 the LinuxBoot Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package layout

import (
	"fmt"
	"strconv"
)

// Field is a single bit of a DRAM coordinate field.
type Field uint8

// Rank, bank group and bank bits.
const (
	FieldNone = Field(iota)
	RK0
	BG0
	BG1
	BA0
	BA1
	BA2
)

// Row and column bits.
const (
	R0 = BA2 + 1 + Field(iota)
	R1
	R2
	R3
	R4
	R5
	R6
	R7
	R8
	R9
	R10
	R11
	R12
	R13
	R14
	R15
	R16
	C0
	C1
	C2
	C3
	C4
	C5
	C6
	C7
	C8
	C9
	C10
	C11

	NumFields
)

// Widths of the coordinate fields in the layout table.
const (
	MaxRowBits       = 17
	MaxColumnBits    = 12
	MaxBankBits      = 3
	MaxBankGroupBits = 2
)

// Row returns row bit n.
func Row(n uint) Field { return R0 + Field(n) }

// Column returns column bit n.
func Column(n uint) Field { return C0 + Field(n) }

// Bank returns bank bit n.
func Bank(n uint) Field { return BA0 + Field(n) }

// BankGroup returns bank group bit n.
func BankGroup(n uint) Field { return BG0 + Field(n) }

// IsRow returns true for R0..R16.
func (f Field) IsRow() bool { return f >= R0 && f <= R16 }

// IsColumn returns true for C0..C11.
func (f Field) IsColumn() bool { return f >= C0 && f <= C11 }

// IsSelector returns true for the fields which select a rank, bank group
// or bank. Only selectors are affected by enhanced interleave.
func (f Field) IsSelector() bool { return f >= RK0 && f <= BA2 }

// Index returns the bit number of the field inside its coordinate field.
func (f Field) Index() uint {
	switch {
	case f.IsRow():
		return uint(f - R0)
	case f.IsColumn():
		return uint(f - C0)
	case f >= BA0 && f <= BA2:
		return uint(f - BA0)
	case f == BG0 || f == BG1:
		return uint(f - BG0)
	}
	return 0
}

func (f Field) String() string {
	switch {
	case f == FieldNone:
		return "-"
	case f == RK0:
		return "RK0"
	case f == BG0 || f == BG1:
		return "BG" + strconv.Itoa(int(f.Index()))
	case f >= BA0 && f <= BA2:
		return "BA" + strconv.Itoa(int(f.Index()))
	case f.IsRow():
		return "R" + strconv.Itoa(int(f.Index()))
	case f.IsColumn():
		return "C" + strconv.Itoa(int(f.Index()))
	}
	return fmt.Sprintf("Field(%d)", uint8(f))
}

// ParseField parses the textual form used by the layout table.
func ParseField(s string) (Field, error) {
	for f := FieldNone; f < NumFields; f++ {
		if f.String() == s {
			return f, nil
		}
	}
	return FieldNone, fmt.Errorf("unknown field '%s'", s)
}
