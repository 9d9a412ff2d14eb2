// Copyright 2024 the LinuxBoot Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

//go:build !linux
// +build !linux

package snapshot

import (
	"fmt"
	"runtime"

	"github.com/linuxboot/mcaddr/pkg/intel/mc/regs"
)

// Live reads the registers of the running machine. It is only supported
// on Linux.
type Live struct{}

// NewLive returns a Live source.
func NewLive() *Live {
	return &Live{}
}

// Registers implements xlat.Source.
func (l *Live) Registers() (regs.Set, error) {
	return regs.Set{}, fmt.Errorf("reading live registers is not supported on %s", runtime.GOOS)
}
