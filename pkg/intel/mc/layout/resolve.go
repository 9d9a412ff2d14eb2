// Copyright 2024 the LinuxBoot Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package layout

import (
	"fmt"
	"strings"

	"github.com/linuxboot/mcaddr/pkg/intel/mc/regs"
)

// WIO2Case is the only case of Wide I/O 2 configurations.
const WIO2Case = CaseID(NumCases - 1)

// Query holds the inputs of the case resolver.
type Query struct {
	Technology regs.DDRType

	// EnhancedChannelMode is the DDR4 enhanced channel mode flag.
	EnhancedChannelMode bool

	// DimmCount is the number of populated DIMMs in the channel.
	DimmCount int

	// RankCount is the rank count of the DIMM being decoded.
	RankCount uint8

	// LargeDimmRankCount and LargeDimmWidth describe DIMM L.
	LargeDimmRankCount uint8
	LargeDimmWidth     Width

	// SameWidth is true if both DIMMs of the channel use the same width
	// (or only one is populated).
	SameWidth bool

	// Interleaved is true if rank interleave or high order rank interleave
	// is enabled.
	Interleaved bool

	// Zone is 0 for the interleaved low region of the channel and 1 for
	// the non-interleaved region above it.
	Zone uint8

	WIO2 bool
}

var technologyNames = map[regs.DDRType]string{
	regs.DDRTypeDDR4:   "DDR4",
	regs.DDRTypeDDR3:   "DDR3",
	regs.DDRTypeLPDDR3: "LPDDR3",
}

func densityName(is8Gb bool) string {
	if is8Gb {
		return "8G"
	}
	return "4G"
}

func mode(q Query) string {
	ranks := q.LargeDimmRankCount
	if q.DimmCount >= 2 {
		ranks = q.RankCount
	}
	if !q.Interleaved {
		if ranks <= 2 || q.Technology == regs.DDRTypeLPDDR3 {
			return "NI"
		}
		return "NIM"
	}
	if ranks > MaxRanks(q.Technology) {
		ranks = MaxRanks(q.Technology)
	}
	if ranks == 2 && q.EnhancedChannelMode && q.Technology == regs.DDRTypeDDR4 {
		return fmt.Sprintf("ECM2Z%d", q.Zone)
	}
	return fmt.Sprintf("RI%dZ%d", ranks, q.Zone)
}

// ResolveCase selects the configuration case from the DIMM population and
// interleave flags of a channel.
//
// The result assumes 4Gb devices and, for mixed width channels, the
// narrowest width; Refine adjusts it once the target DIMM is known.
func ResolveCase(q Query) CaseID {
	if q.WIO2 || q.Technology == regs.DDRTypeWIO2 {
		return WIO2Case
	}
	tech, ok := technologyNames[q.Technology]
	if !ok {
		panic(fmt.Sprintf("unsupported technology %s", q.Technology))
	}
	width := q.LargeDimmWidth
	if !q.SameWidth || !IsLegalWidth(q.Technology, width) {
		width = Widths(q.Technology)[0]
	}
	name := strings.Join([]string{tech, width.String(), densityName(false), mode(q)}, "_")
	id, ok := Lookup(name)
	if !ok {
		panic(fmt.Sprintf("no configuration case '%s'", name))
	}
	return id
}

// Refine returns the case sharing the interleave mode of id but using the
// given device width and density.
func Refine(id CaseID, width Width, is8Gb bool) CaseID {
	if id == WIO2Case {
		return id
	}
	parts := strings.Split(Get(id).Name, "_")
	if len(parts) != 4 {
		return id
	}
	parts[1] = width.String()
	parts[2] = densityName(is8Gb)
	refined, ok := Lookup(strings.Join(parts, "_"))
	if !ok {
		return id
	}
	return refined
}
