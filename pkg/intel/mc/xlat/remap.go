// Copyright 2024 the LinuxBoot Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package xlat

// ToLine translates a system address into a DRAM line address.
//
// Addresses inside the remap window are moved down to TOLUD. The range
// below the window they replace is a hole, except for the memory stolen
// by the manageability engine between TOLUD and a TOM below 4GiB.
func ToLine(addr uint64, tcm bool, cfg *Config) (uint64, error) {
	if cfg.RemapEnabled() {
		size := cfg.RemapSize()
		switch {
		case addr >= cfg.RemapBase && addr <= cfg.RemapLimit:
			if tcm && addr >= cfg.TOM {
				return 0, ErrInvalidTrafficClass{Address: addr, TOM: cfg.TOM}
			}
			addr = addr - cfg.RemapBase + cfg.TOLUD
		case cfg.TOM < fourGiB && addr >= cfg.TOLUD && addr < cfg.TOM:
		case addr >= cfg.TOLUD && addr < cfg.TOLUD+size:
			return 0, ErrUnmappedGap{Address: addr, Start: cfg.TOLUD, End: cfg.TOLUD + size}
		}
	}

	line := addr >> lineShift
	if cfg.Stacked && line >= cfg.TOM>>lineShift {
		return 0, ErrOutOfCapacity{Level: "system", Line: line, Limit: cfg.TOM >> lineShift}
	}
	return line, nil
}

// FromLine is the inverse of ToLine. low holds the address bits below the
// cache line.
func FromLine(line, low uint64, cfg *Config) uint64 {
	addr := line<<lineShift | low
	if !cfg.RemapEnabled() {
		return addr
	}
	if addr >= cfg.TOLUD && addr < cfg.TOLUD+cfg.RemapSize() && !(cfg.TOM < fourGiB && addr < cfg.TOM) {
		addr = addr - cfg.TOLUD + cfg.RemapBase
	}
	return addr
}
