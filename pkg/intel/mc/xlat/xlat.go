// Copyright 2024 the LinuxBoot Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package xlat

import (
	"github.com/linuxboot/mcaddr/pkg/log"
)

// Decode translates a system address into the DRAM location the memory
// controller accesses for it.
//
// Bit error recovery is applied in this order: the abort register serves
// TCM accesses right below TOM, locations replaced by an entry are
// unreachable through their own address, and entry sources are redirected
// to their targets.
func Decode(addr SystemAddress, cfg *Config) (DramAddress, error) {
	var result DramAddress
	if cfg.abortHit(addr) {
		result = *cfg.Abort
		result.TCM = true
	} else {
		var err error
		result, err = decodeGeneric(addr, cfg)
		if err != nil {
			return DramAddress{}, err
		}
		if idx := cfg.berTarget(result); idx >= 0 {
			return DramAddress{}, ErrRemovedByRecovery{Address: addr, Entry: idx, Target: result}
		}
	}

	if idx := cfg.berSource(addr); idx >= 0 {
		log.Debugf("address %s is redirected by BER entry %d", addr, idx)
		result = cfg.BER[idx].Target
		result.TCM = addr.TCM
	}
	return result, nil
}

func decodeGeneric(addr SystemAddress, cfg *Config) (DramAddress, error) {
	line, err := ToLine(addr.Address, addr.TCM, cfg)
	if err != nil {
		return DramAddress{}, err
	}
	ch, local, err := cfg.locateChannel(line)
	if err != nil {
		return DramAddress{}, err
	}
	logical, d, zone, err := cfg.locateDimm(ch, local)
	if err != nil {
		return DramAddress{}, err
	}

	fc := cfg.fieldCodec(ch, logical, zone)
	result := fc.decode(d, addr.Address&(1<<lineShift-1))
	result.Channel = ch
	result.Dimm = logical ^ cfg.Channels[ch].DimmLMap
	result.TCM = addr.TCM
	return result, nil
}

// Encode translates a DRAM location into the system address accessing it.
// Locations replaced by bit error recovery encode to the entry source.
//
// The two column bits below the pre-cacheline bit (or three, on LPDDR3
// and WIO2) are resolved by the burst order and do not appear in the
// result.
func Encode(a DramAddress, cfg *Config) (SystemAddress, error) {
	if idx := cfg.berTarget(a); idx >= 0 {
		return cfg.BER[idx].Source, nil
	}
	if err := cfg.validateCoordinate(a); err != nil {
		return SystemAddress{}, err
	}

	local, low, _ := cfg.encodeChannelLine(a)
	line := cfg.composeChannel(a.Channel, local)
	return SystemAddress{Address: FromLine(line, low, cfg), TCM: a.TCM}, nil
}

// encodeChannelLine builds the channel-local line and the byte offset in
// the line of a valid coordinate. It also returns the zone of the line.
func (cfg *Config) encodeChannelLine(a DramAddress) (uint64, uint64, uint8) {
	logical := a.Dimm ^ cfg.Channels[a.Channel].DimmLMap
	var local, low uint64
	var zone uint8
	// The zone is only known once the DIMM-local line is built.
	for pass := 0; pass < 2; pass++ {
		var d uint64
		d, low = cfg.fieldCodec(a.Channel, logical, zone).encode(a)
		var composed uint8
		local, composed = cfg.composeDimm(a.Channel, logical, d)
		if composed == zone {
			break
		}
		zone = composed
	}
	return local, low, zone
}
