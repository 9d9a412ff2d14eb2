// Copyright 2024 the LinuxBoot Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

//go:build linux
// +build linux

package snapshot

import (
	"encoding/binary"
	"fmt"
	"os"

	"github.com/u-root/u-root/pkg/memio"

	"github.com/linuxboot/mcaddr/pkg/intel/mc/regs"
	"github.com/linuxboot/mcaddr/pkg/log"
)

// DefaultHostBridgeConfig is the PCI configuration space of device 0:0.0.
const DefaultHostBridgeConfig = "/sys/bus/pci/devices/0000:00:00.0/config"

// Offsets locates the registers. Host bridge offsets are relative to the
// PCI configuration space, the others to MCHBAR.
type Offsets struct {
	TOLUD      int64
	TOM        int64
	RemapBase  int64
	RemapLimit int64
	MCHBAR     int64

	InterChannel int64
	IntraChannel [regs.Channels]int64
	DimmChannel  [regs.Channels]int64
	ChannelHash  int64
	DimmHash     int64
	BERSource    int64
	BERTarget    int64
	BERAbort     int64
}

// DefaultOffsets are the register offsets of the client memory controller.
var DefaultOffsets = Offsets{
	TOLUD:      0xBC,
	TOM:        0xA0,
	RemapBase:  0x90,
	RemapLimit: 0x98,
	MCHBAR:     0x48,

	InterChannel: 0x5000,
	IntraChannel: [regs.Channels]int64{0x5004, 0x5008},
	DimmChannel:  [regs.Channels]int64{0x500C, 0x5010},
	ChannelHash:  0x5024,
	DimmHash:     0x5028,
	BERSource:    0x5080,
	BERTarget:    0x50A0,
	BERAbort:     0x50C0,
}

const (
	mchbarEnable = 1
	mchbarMask   = ^uint64(0x7FFF)
	berStride    = 8
)

// Live reads the registers of the running machine. It needs root
// privileges.
type Live struct {
	HostBridgeConfig string
	Offsets          Offsets
	ReadPhys         func(addr int64, data memio.UintN) error
}

// NewLive returns a Live source for the local host bridge.
func NewLive() *Live {
	return &Live{
		HostBridgeConfig: DefaultHostBridgeConfig,
		Offsets:          DefaultOffsets,
		ReadPhys:         memio.Read,
	}
}

func readConfig(config []byte, offset int64, size int) (uint64, error) {
	if offset < 0 || int(offset)+size > len(config) {
		return 0, fmt.Errorf("offset 0x%X is out of the configuration space of size 0x%X", offset, len(config))
	}
	b := config[offset : int(offset)+size]
	if size == 4 {
		return uint64(binary.LittleEndian.Uint32(b)), nil
	}
	return binary.LittleEndian.Uint64(b), nil
}

// Registers implements xlat.Source.
func (l *Live) Registers() (regs.Set, error) {
	set := regs.Reset()
	config, err := os.ReadFile(l.HostBridgeConfig)
	if err != nil {
		return set, fmt.Errorf("unable to read the host bridge configuration: %w", err)
	}

	var bridge [5]uint64
	for idx, r := range []struct {
		offset int64
		size   int
	}{
		{l.Offsets.TOLUD, 4},
		{l.Offsets.TOM, 8},
		{l.Offsets.RemapBase, 8},
		{l.Offsets.RemapLimit, 8},
		{l.Offsets.MCHBAR, 8},
	} {
		if bridge[idx], err = readConfig(config, r.offset, r.size); err != nil {
			return set, err
		}
	}
	set.TOLUD = regs.TOLUD(bridge[0])
	set.TOM = regs.TOM(bridge[1])
	set.RemapBase = regs.RemapBase(bridge[2])
	set.RemapLimit = regs.RemapLimit(bridge[3])

	mchbar := bridge[4]
	if mchbar&mchbarEnable == 0 {
		return set, fmt.Errorf("MCHBAR is disabled (0x%X)", mchbar)
	}
	base := int64(mchbar & mchbarMask)
	log.Debugf("MCHBAR is at 0x%X", base)

	read32 := func(offset int64) (uint32, error) {
		var v memio.Uint32
		if err := l.ReadPhys(base+offset, &v); err != nil {
			return 0, fmt.Errorf("unable to read MCHBAR+0x%X: %w", offset, err)
		}
		return uint32(v), nil
	}
	read64 := func(offset int64) (uint64, error) {
		var v memio.Uint64
		if err := l.ReadPhys(base+offset, &v); err != nil {
			return 0, fmt.Errorf("unable to read MCHBAR+0x%X: %w", offset, err)
		}
		return uint64(v), nil
	}

	v, err := read32(l.Offsets.InterChannel)
	if err != nil {
		return set, err
	}
	set.InterChannel = regs.InterChannel(v)
	if v, err = read32(l.Offsets.ChannelHash); err != nil {
		return set, err
	}
	set.ChannelHash = regs.Hash(v)
	if v, err = read32(l.Offsets.DimmHash); err != nil {
		return set, err
	}
	set.DimmHash = regs.Hash(v)
	for ch := 0; ch < regs.Channels; ch++ {
		if v, err = read32(l.Offsets.IntraChannel[ch]); err != nil {
			return set, err
		}
		set.IntraChannel[ch] = regs.IntraChannel(v)
		if v, err = read32(l.Offsets.DimmChannel[ch]); err != nil {
			return set, err
		}
		set.DimmChannel[ch] = regs.DimmChannel(v)
	}

	for idx := 0; idx < regs.BEREntries; idx++ {
		offset := int64(idx * berStride)
		src, err := read64(l.Offsets.BERSource + offset)
		if err != nil {
			return set, err
		}
		set.BERSource[idx] = regs.BERSource(src)
		dst, err := read64(l.Offsets.BERTarget + offset)
		if err != nil {
			return set, err
		}
		set.BERTarget[idx] = regs.BERTarget(dst)
	}
	abort, err := read64(l.Offsets.BERAbort)
	if err != nil {
		return set, err
	}
	set.BERAbort = regs.BERTarget(abort)
	return set, nil
}
