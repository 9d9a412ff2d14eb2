// Copyright 2024 the LinuxBoot Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package xlat

import (
	"fmt"

	"github.com/linuxboot/mcaddr/pkg/intel/mc/regs"
)

// SystemAddress is a physical address as seen by the memory controller.
type SystemAddress struct {
	Address uint64 `json:"address"`

	// TCM is set for accesses of the manageability engine.
	TCM bool `json:"tcm"`
}

func (a SystemAddress) String() string {
	if a.TCM {
		return fmt.Sprintf("0x%X (TCM)", a.Address)
	}
	return fmt.Sprintf("0x%X", a.Address)
}

// DramAddress is the location of a byte in DRAM. Channel and Dimm are
// physical indexes.
type DramAddress struct {
	Channel   uint8  `json:"channel"`
	Dimm      uint8  `json:"dimm"`
	Rank      uint8  `json:"rank"`
	BankGroup uint8  `json:"bank_group"`
	Bank      uint8  `json:"bank"`
	Row       uint32 `json:"row"`
	Column    uint16 `json:"column"`
	TCM       bool   `json:"tcm"`
}

// SameLocation returns true if both addresses name the same DRAM location.
// The TCM flag is ignored.
func (a DramAddress) SameLocation(b DramAddress) bool {
	a.TCM, b.TCM = false, false
	return a == b
}

func (a DramAddress) String() string {
	s := fmt.Sprintf("ch%d/dimm%d/rank%d bg %d ba %d row 0x%X col 0x%X",
		a.Channel, a.Dimm, a.Rank, a.BankGroup, a.Bank, a.Row, a.Column)
	if a.TCM {
		s += " (TCM)"
	}
	return s
}

func dramAddressFromRegister(r regs.BERTarget) DramAddress {
	return DramAddress{
		Channel:   r.Channel(),
		Dimm:      r.Dimm(),
		Rank:      r.Rank(),
		BankGroup: r.BankGroup(),
		Bank:      r.Bank(),
		Row:       r.Row(),
		Column:    r.Column(),
	}
}

// Register packs the coordinate into the BER target register layout.
func (a DramAddress) Register() regs.BERTarget {
	return regs.NewBERTarget(a.Channel, a.Dimm, a.Rank, a.BankGroup, a.Bank, a.Row, a.Column)
}
