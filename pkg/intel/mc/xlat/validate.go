// Copyright 2024 the LinuxBoot Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package xlat

import (
	"github.com/hashicorp/go-multierror"

	"github.com/linuxboot/mcaddr/pkg/intel/mc/layout"
	"github.com/linuxboot/mcaddr/pkg/intel/mc/regs"
)

// commandColumnBits are the column bits carrying the auto-precharge and
// burst chop commands on DDR3 and DDR4.
const commandColumnBits = uint16(1<<10 | 1<<12)

// columnMask returns the column bits a DIMM can address.
func columnMask(t regs.DDRType, w layout.Width) uint16 {
	mask := uint16(1) << layout.PreCachelineColumn(t)
	for _, c := range layout.LineColumns(t, w) {
		mask |= 1 << c
	}
	return mask
}

func (cfg *Config) validateCoordinate(a DramAddress) error {
	var result *multierror.Error
	checkRange := func(field string, value, limit uint64) {
		if value >= limit {
			result = multierror.Append(result, ErrFieldRange{Field: field, Value: value, Limit: limit})
		}
	}

	switch {
	case a.Channel >= regs.Channels:
		checkRange("channel", uint64(a.Channel), regs.Channels)
	case a.Dimm >= dimmsPerChannel:
		checkRange("DIMM", uint64(a.Dimm), dimmsPerChannel)
	default:
		channel := &cfg.Channels[a.Channel]
		dimm := channel.Dimms[a.Dimm^channel.DimmLMap]
		if !dimm.Populated() {
			result = multierror.Append(result, ErrNotPopulated{Channel: a.Channel, Dimm: a.Dimm})
			break
		}
		t := cfg.Technology
		checkRange("rank", uint64(a.Rank), uint64(dimm.Ranks))
		checkRange("bank group", uint64(a.BankGroup), 1<<layout.BankGroupBits(t, dimm.Width, dimm.Ranks))
		checkRange("bank", uint64(a.Bank), 1<<layout.BankBits(t))
		checkRange("row", uint64(a.Row), 1<<dimm.RowBits(t))

		burst := uint16(1)<<layout.BurstColumnBits(t) - 1
		var command uint16
		if t == regs.DDRTypeDDR3 || t == regs.DDRTypeDDR4 {
			command = commandColumnBits
		}
		width := ^(columnMask(t, dimm.Width) | burst | command)
		for _, check := range []struct {
			kind string
			bits uint16
		}{
			{"burst order", burst},
			{"command", command},
			{"out of width", width},
		} {
			if a.Column&check.bits != 0 {
				result = multierror.Append(result, ErrReservedColumnBits{Column: a.Column, Bits: a.Column & check.bits, Kind: check.kind})
			}
		}
	}

	if err := result.ErrorOrNil(); err != nil {
		return ErrInvalidCoordinate{Coordinate: a, Err: err}
	}
	return nil
}
