// Copyright 2024 the LinuxBoot Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package xlat

import (
	"fmt"
)

// ErrOutOfCapacity means the address is above the installed memory of the
// system, of a channel or of a DIMM.
type ErrOutOfCapacity struct {
	Level string
	Line  uint64
	Limit uint64
}

func (err ErrOutOfCapacity) Error() string {
	return fmt.Sprintf("line 0x%X is out of %s capacity (0x%X lines)", err.Line, err.Level, err.Limit)
}

// ErrUnmappedGap means the address falls into the hole left below the
// remap window.
type ErrUnmappedGap struct {
	Address uint64
	Start   uint64
	End     uint64
}

func (err ErrUnmappedGap) Error() string {
	return fmt.Sprintf("address 0x%X is in the unmapped gap [0x%X, 0x%X)", err.Address, err.Start, err.End)
}

// ErrInvalidTrafficClass means a manageability engine access hit the remap
// window above TOM.
type ErrInvalidTrafficClass struct {
	Address uint64
	TOM     uint64
}

func (err ErrInvalidTrafficClass) Error() string {
	return fmt.Sprintf("TCM access to remapped address 0x%X above TOM 0x%X", err.Address, err.TOM)
}

// ErrRemovedByRecovery means the DRAM location was taken out of service by
// a bit error recovery entry.
type ErrRemovedByRecovery struct {
	Address SystemAddress
	Entry   int
	Target  DramAddress
}

func (err ErrRemovedByRecovery) Error() string {
	return fmt.Sprintf("address %s maps to %s which is replaced by BER entry %d", err.Address, err.Target, err.Entry)
}

// ErrInvalidCoordinate means a DRAM coordinate cannot be encoded. Err holds
// every violated constraint.
type ErrInvalidCoordinate struct {
	Coordinate DramAddress
	Err        error
}

func (err ErrInvalidCoordinate) Error() string {
	return fmt.Sprintf("invalid DRAM coordinate %s: %v", err.Coordinate, err.Err)
}

func (err ErrInvalidCoordinate) Unwrap() error {
	return err.Err
}

// ErrFieldRange means a coordinate field exceeds the geometry of its DIMM.
type ErrFieldRange struct {
	Field string
	Value uint64
	Limit uint64
}

func (err ErrFieldRange) Error() string {
	return fmt.Sprintf("%s %d is out of range, expected below %d", err.Field, err.Value, err.Limit)
}

// ErrReservedColumnBits means the column sets bits that never reach the
// DRAM: burst order bits, command bits or bits above the column width.
type ErrReservedColumnBits struct {
	Column uint16
	Bits   uint16
	Kind   string
}

func (err ErrReservedColumnBits) Error() string {
	return fmt.Sprintf("column 0x%X sets %s bits 0x%X", err.Column, err.Kind, err.Bits)
}

// ErrNotPopulated means the coordinate names an empty DIMM slot.
type ErrNotPopulated struct {
	Channel uint8
	Dimm    uint8
}

func (err ErrNotPopulated) Error() string {
	return fmt.Sprintf("channel %d DIMM %d is not populated", err.Channel, err.Dimm)
}

// ErrInvalidConfig means the register set does not describe a memory
// configuration the controller supports.
type ErrInvalidConfig struct {
	Err error
}

func (err ErrInvalidConfig) Error() string {
	return fmt.Sprintf("invalid memory controller configuration: %v", err.Err)
}

func (err ErrInvalidConfig) Unwrap() error {
	return err.Err
}
