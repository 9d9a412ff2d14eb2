// Copyright 2024 the LinuxBoot Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package xlat

import (
	"fmt"

	"github.com/linuxboot/mcaddr/pkg/intel/mc/regs"
)

// Source provides register snapshots.
type Source interface {
	Registers() (regs.Set, error)
}

// StaticSource is a Source always returning the same registers.
type StaticSource regs.Set

// Registers implements Source.
func (s StaticSource) Registers() (regs.Set, error) {
	return regs.Set(s), nil
}

// Engine translates addresses with a fresh register snapshot on every
// call. Nothing is cached between calls.
type Engine struct {
	Source Source
}

// NewEngine returns an Engine reading registers from source.
func NewEngine(source Source) *Engine {
	return &Engine{Source: source}
}

// Config reads the registers and derives the configuration.
func (e *Engine) Config() (*Config, error) {
	set, err := e.Source.Registers()
	if err != nil {
		return nil, fmt.Errorf("unable to read the memory controller registers: %w", err)
	}
	return NewConfig(set)
}

// Decode is Decode with a fresh configuration.
func (e *Engine) Decode(addr SystemAddress) (DramAddress, error) {
	cfg, err := e.Config()
	if err != nil {
		return DramAddress{}, err
	}
	return Decode(addr, cfg)
}

// Encode is Encode with a fresh configuration.
func (e *Engine) Encode(a DramAddress) (SystemAddress, error) {
	cfg, err := e.Config()
	if err != nil {
		return SystemAddress{}, err
	}
	return Encode(a, cfg)
}
