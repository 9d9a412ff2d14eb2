// Copyright 2024 the LinuxBoot Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package regs

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/fatih/camelcase"
)

// Number of register instances.
const (
	Channels   = 2
	BEREntries = 4
)

// Set is a snapshot of every register the translation engine reads.
//
// The field order is also the order of a binary register dump: all values
// little-endian, without padding.
type Set struct {
	TOLUD        TOLUD                  `yaml:"tolud" json:"tolud"`
	TOM          TOM                    `yaml:"tom" json:"tom"`
	RemapBase    RemapBase              `yaml:"remap_base" json:"remap_base"`
	RemapLimit   RemapLimit             `yaml:"remap_limit" json:"remap_limit"`
	ChannelHash  Hash                   `yaml:"channel_hash" json:"channel_hash"`
	DimmHash     Hash                   `yaml:"dimm_hash" json:"dimm_hash"`
	InterChannel InterChannel           `yaml:"inter_channel" json:"inter_channel"`
	IntraChannel [Channels]IntraChannel `yaml:"intra_channel" json:"intra_channel"`
	DimmChannel  [Channels]DimmChannel  `yaml:"dimm_channel" json:"dimm_channel"`
	BERSource    [BEREntries]BERSource  `yaml:"ber_source" json:"ber_source"`
	BERTarget    [BEREntries]BERTarget  `yaml:"ber_target" json:"ber_target"`
	BERAbort     BERTarget              `yaml:"ber_abort" json:"ber_abort"`
}

// Reset returns the register values of a controller with nothing
// configured: no memory and the remap window disabled.
func Reset() Set {
	return Set{
		RemapBase: RemapBase(mibAlignMask),
	}
}

// Normalize returns a copy of the set with every register masked to its
// architected bits.
func (s Set) Normalize() Set {
	n := Set{
		TOLUD:        s.TOLUD.Normalize(),
		TOM:          s.TOM.Normalize(),
		RemapBase:    s.RemapBase.Normalize(),
		RemapLimit:   s.RemapLimit.Normalize(),
		ChannelHash:  s.ChannelHash.Normalize(),
		DimmHash:     s.DimmHash.Normalize(),
		InterChannel: s.InterChannel.Normalize(),
		BERAbort:     s.BERAbort.Normalize(),
	}
	for ch := 0; ch < Channels; ch++ {
		n.IntraChannel[ch] = s.IntraChannel[ch].Normalize()
		n.DimmChannel[ch] = s.DimmChannel[ch].Normalize()
	}
	for idx := 0; idx < BEREntries; idx++ {
		n.BERSource[idx] = s.BERSource[idx].Normalize()
		n.BERTarget[idx] = s.BERTarget[idx].Normalize()
	}
	return n
}

// Field is a single register value of a Set with a human readable name.
type Field struct {
	Name  string
	Value uint64
}

// Fields lists every register of the set in dump order. Array registers
// get their index appended, e.g. "Intra Channel 1".
func (s Set) Fields() []Field {
	var result []Field
	v := reflect.ValueOf(s)
	t := v.Type()
	for idx := 0; idx < t.NumField(); idx++ {
		name := strings.Join(camelcase.Split(t.Field(idx).Name), " ")
		f := v.Field(idx)
		if f.Kind() != reflect.Array {
			result = append(result, Field{Name: name, Value: f.Uint()})
			continue
		}
		for i := 0; i < f.Len(); i++ {
			result = append(result, Field{
				Name:  fmt.Sprintf("%s %d", name, i),
				Value: f.Index(i).Uint(),
			})
		}
	}
	return result
}
