// Copyright 2024 the LinuxBoot Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package xlat

import (
	"github.com/linuxboot/mcaddr/pkg/intel/mc/layout"
	"github.com/linuxboot/mcaddr/pkg/intel/mc/regs"
)

// horiLayout gives the line bits of the bank group and bank fields of a
// dual rank DIMM in high order rank interleave mode. The row starts at
// rowBase and contains the rank bit.
type horiLayout struct {
	bankGroup [layout.MaxBankGroupBits]uint8
	bank      [layout.MaxBankBits]uint8
	rowBase   uint
}

func newHORILayout(t regs.DDRType, w layout.Width, ecm bool) horiLayout {
	columns := uint(len(layout.LineColumns(t, w)))
	bankGroups := layout.BankGroupBits(t, w, 2)
	banks := layout.BankBits(t)

	var l horiLayout
	for n := range l.bankGroup {
		l.bankGroup[n] = layout.Unmapped
	}
	for n := range l.bank {
		l.bank[n] = layout.Unmapped
	}
	for n := uint(0); n < bankGroups; n++ {
		l.bankGroup[n] = uint8(columns + n)
	}
	if ecm && t == regs.DDRTypeDDR4 && bankGroups > 0 {
		l.bankGroup[0] = 0
	}
	for n := uint(0); n < banks; n++ {
		l.bank[n] = uint8(columns + bankGroups + n)
	}
	l.rowBase = columns + bankGroups + banks
	return l
}

// fieldCodec extracts and builds the coordinate fields of one DIMM.
type fieldCodec struct {
	tech        regs.DDRType
	c           *layout.Case
	dimm        Dimm
	interleaved bool
	hori        *horiLayout
	horiRankBit uint
	enhanced    bool

	// position maps a field to its DIMM-local byte address bit after the
	// HORI and BG0 quirk adjustments.
	position [layout.NumFields]uint8
}

func (cfg *Config) fieldCodec(ch, logicalDimm, zone uint8) *fieldCodec {
	channel := &cfg.Channels[ch]
	fc := &fieldCodec{
		tech:        cfg.Technology,
		c:           cfg.Case(ch, logicalDimm, zone),
		dimm:        channel.Dimms[logicalDimm],
		interleaved: channel.Interleaved(),
	}
	for f := range fc.position {
		fc.position[f] = fc.c.Position(layout.Field(f))
	}

	if channel.usesHORI(fc.dimm) {
		l := newHORILayout(cfg.Technology, fc.dimm.Width, cfg.EnhancedChannelMode)
		fc.hori = &l
		fc.horiRankBit = horiRankBase + uint(channel.HORISelect)
		for f := layout.RK0; f <= layout.BA2; f++ {
			fc.position[f] = layout.Unmapped
		}
		for n, pos := range l.bankGroup {
			if pos != layout.Unmapped {
				fc.position[layout.BankGroup(uint(n))] = pos + lineShift
			}
		}
		for n, pos := range l.bank {
			if pos != layout.Unmapped {
				fc.position[layout.Bank(uint(n))] = pos + lineShift
			}
		}
		for n := uint(0); n < layout.MaxRowBits; n++ {
			fc.position[layout.Row(n)] = layout.Unmapped
		}
	} else {
		fc.enhanced = channel.EnhancedInterleave
	}

	if fc.dimm.BG0OnRowBit11 && fc.position[layout.BG0] != layout.Unmapped && fc.position[layout.C7] != layout.Unmapped {
		fc.position[layout.BG0], fc.position[layout.C7] = fc.position[layout.C7], fc.position[layout.BG0]
	}
	return fc
}

// rankByRange returns true if ranks are stacked one after the other in
// the DIMM.
func (fc *fieldCodec) rankByRange() bool {
	return fc.dimm.Ranks > 1 && !fc.interleaved
}

// erm returns true for interleaved three rank DIMMs. Rank and row are the
// remainder and quotient of a division by three.
func (fc *fieldCodec) erm() bool {
	return fc.dimm.Ranks == 3 && fc.interleaved && fc.hori == nil
}

// rowShift is the DIMM-local line bit holding row bit 0 in the case. The
// ERM dividend starts there too rather than at a fixed line bit 8: the
// three rank cases put R0 right above their bank bits (line bit 10 on DDR4
// and DDR3), and a lower shift would divide bank bits into the row.
func (fc *fieldCodec) rowShift() uint {
	return uint(fc.c.Position(layout.R0)) - lineShift
}

// get reads a field bit from a DIMM-local byte address.
func (fc *fieldCodec) get(addr uint64, f layout.Field) uint64 {
	pos := fc.position[f]
	if pos == layout.Unmapped {
		return 0
	}
	b := addr >> pos & 1
	if fc.enhanced && f.IsSelector() {
		if partner := fc.c.Partner(f); partner != layout.Unmapped {
			b ^= addr >> partner & 1
		}
	}
	return b
}

// decode extracts rank, bank group, bank, row and column. d is the
// DIMM-local line address, low the byte offset in the line.
func (fc *fieldCodec) decode(d, low uint64) DramAddress {
	rankByRange := fc.rankByRange()
	var rank uint64
	if rankByRange {
		span := fc.dimm.rankSpan()
		rank, d = d/span, d%span
	}
	addr := d<<lineShift | low

	var column, row uint64
	for n := uint(0); n < layout.MaxColumnBits; n++ {
		column |= fc.get(addr, layout.Column(n)) << n
	}
	for n := uint(0); n < layout.MaxRowBits; n++ {
		row |= fc.get(addr, layout.Row(n)) << n
	}
	rk0 := fc.get(addr, layout.RK0)
	bg0 := fc.get(addr, layout.BG0)
	bg1 := fc.get(addr, layout.BG1)
	var bank uint64
	for n := uint(0); n < layout.MaxBankBits; n++ {
		bank |= fc.get(addr, layout.Bank(n)) << n
	}

	switch {
	case fc.hori != nil:
		rk0 = d >> fc.horiRankBit & 1
		row = deleteBit(d>>fc.hori.rowBase, fc.horiRankBit-fc.hori.rowBase)
	case fc.erm():
		x := d >> fc.rowShift()
		rank, row = x%3, x/3
		rankByRange = true
	}
	row &= 1<<fc.dimm.RowBits(fc.tech) - 1

	if rankByRange {
		rk0 = rank & 1
		if fc.dimm.Ranks > 2 {
			bg1 = rank >> 1
		}
	}

	result := DramAddress{
		Rank:      uint8(rk0),
		BankGroup: uint8(bg0 | bg1<<1),
		Bank:      uint8(bank),
		Row:       uint32(row),
		Column:    uint16(column),
	}
	if fc.dimm.Ranks > 2 {
		result.Rank |= uint8(bg1 << 1)
		result.BankGroup = uint8(bg0)
	}
	return result
}

// encode is the inverse of decode. It returns the DIMM-local line address
// and the byte offset in the line.
func (fc *fieldCodec) encode(a DramAddress) (uint64, uint64) {
	var value [layout.NumFields]uint64
	for n := uint(0); n < layout.MaxColumnBits; n++ {
		value[layout.Column(n)] = uint64(a.Column) >> n & 1
	}
	for n := uint(0); n < layout.MaxRowBits; n++ {
		value[layout.Row(n)] = uint64(a.Row) >> n & 1
	}
	for n := uint(0); n < layout.MaxBankBits; n++ {
		value[layout.Bank(n)] = uint64(a.Bank) >> n & 1
	}
	value[layout.RK0] = uint64(a.Rank & 1)
	value[layout.BG0] = uint64(a.BankGroup & 1)
	value[layout.BG1] = uint64(a.BankGroup >> 1 & 1)
	if fc.dimm.Ranks > 2 {
		value[layout.BG1] = uint64(a.Rank >> 1 & 1)
	}

	var addr, high uint64
	switch {
	case fc.hori != nil:
		row := insertBit(uint64(a.Row), fc.horiRankBit-fc.hori.rowBase, uint64(a.Rank))
		addr = row << fc.hori.rowBase << lineShift
	case fc.rankByRange():
		value[layout.RK0] = 0
		if fc.dimm.Ranks > 2 {
			value[layout.BG1] = 0
		}
		high = uint64(a.Rank) * fc.dimm.rankSpan()
	case fc.erm():
		value[layout.RK0], value[layout.BG1] = 0, 0
		addr = (uint64(a.Row)*3 + uint64(a.Rank)) << fc.rowShift() << lineShift
		for n := uint(0); n < layout.MaxRowBits; n++ {
			value[layout.Row(n)] = 0
		}
	}

	for f := layout.FieldNone + 1; f < layout.NumFields; f++ {
		if f.IsSelector() {
			continue
		}
		if pos := fc.position[f]; pos != layout.Unmapped && value[f] != 0 {
			addr |= 1 << pos
		}
	}
	// Selectors last: their enhanced partners are row bits.
	for f := layout.RK0; f <= layout.BA2; f++ {
		pos := fc.position[f]
		if pos == layout.Unmapped {
			continue
		}
		b := value[f]
		if fc.enhanced {
			if partner := fc.c.Partner(f); partner != layout.Unmapped {
				b ^= addr >> partner & 1
			}
		}
		addr |= b << pos
	}

	return addr>>lineShift + high, addr & (1<<lineShift - 1)
}
