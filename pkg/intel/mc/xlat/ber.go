// Copyright 2024 the LinuxBoot Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package xlat

// abortHit returns true if the access is served by the abort register.
func (cfg *Config) abortHit(addr SystemAddress) bool {
	return addr.TCM && cfg.Abort != nil && cfg.TOM >= abortWindow &&
		addr.Address >= cfg.TOM-abortWindow && addr.Address < cfg.TOM
}

// berSource returns the index of the enabled entry redirecting the cache
// line of addr, or -1.
func (cfg *Config) berSource(addr SystemAddress) int {
	for idx, entry := range cfg.BER {
		if !entry.Enabled || entry.Source.TCM != addr.TCM {
			continue
		}
		if entry.Source.Address>>lineShift == addr.Address>>lineShift {
			return idx
		}
	}
	return -1
}

// berTarget returns the index of the enabled entry whose target is the
// given location, or -1.
func (cfg *Config) berTarget(a DramAddress) int {
	for idx, entry := range cfg.BER {
		if entry.Enabled && entry.Target.SameLocation(a) {
			return idx
		}
	}
	return -1
}
