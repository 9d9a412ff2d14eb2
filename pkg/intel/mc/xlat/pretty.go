// Copyright 2024 the LinuxBoot Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package xlat

import (
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/linuxboot/mcaddr/pkg/intel/mc/regs"
)

func (cfg *Config) capacityString() string {
	return humanize.IBytes(cfg.Lines() << lineShift)
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

func hashString(h Hash) string {
	if !h.Enabled {
		return "disabled"
	}
	return fmt.Sprintf("mask 0x%04X, LSB %d", h.Mask, h.LSB)
}

// DimmTable renders one row per populated DIMM.
func (cfg *Config) DimmTable() table.Writer {
	t := table.NewWriter()
	t.SetTitle("%s DIMMs", cfg.Technology)
	t.AppendHeader(table.Row{"Channel", "DIMM", "Slot", "Size", "Ranks", "Width", "Density", "Row bits", "Case"})
	for ch := range cfg.Channels {
		channel := &cfg.Channels[ch]
		for slot, d := range channel.Dimms {
			if !d.Populated() {
				continue
			}
			c := cfg.Case(uint8(ch), uint8(slot), 0)
			t.AppendRow(table.Row{
				ch,
				uint8(slot) ^ channel.DimmLMap,
				regs.DimmSelect(slot),
				humanize.IBytes(d.Size()),
				d.Ranks,
				d.Width,
				densityString(d.Is8Gb),
				d.RowBits(cfg.Technology),
				c.Name,
			})
		}
	}
	return t
}

// String returns a human readable summary of the configuration.
func (cfg *Config) String() string {
	var s strings.Builder
	fmt.Fprintf(&s, "Technology:      %s (enhanced channel mode: %s)\n", cfg.Technology, yesNo(cfg.EnhancedChannelMode))
	fmt.Fprintf(&s, "Capacity:        %s\n", cfg.capacityString())
	fmt.Fprintf(&s, "TOLUD:           0x%X\n", cfg.TOLUD)
	fmt.Fprintf(&s, "TOM:             0x%X (%s)\n", cfg.TOM, humanize.IBytes(cfg.TOM))
	if cfg.RemapEnabled() {
		fmt.Fprintf(&s, "Remap:           0x%X-0x%X (%s)\n", cfg.RemapBase, cfg.RemapLimit, humanize.IBytes(cfg.RemapSize()))
	} else {
		fmt.Fprintf(&s, "Remap:           disabled\n")
	}
	if cfg.Stacked {
		fmt.Fprintf(&s, "Stacked:         lower channel %d, stack %s\n", cfg.stackedLowerChannel(), humanize.IBytes(cfg.StackLines<<lineShift))
	} else {
		fmt.Fprintf(&s, "Channel L:       %d, hash %s\n", cfg.ChannelLMap, hashString(cfg.ChannelHash))
	}
	fmt.Fprintf(&s, "DIMM hash:       %s\n", hashString(cfg.DimmHash))
	for ch := range cfg.Channels {
		channel := &cfg.Channels[ch]
		fmt.Fprintf(&s, "Channel %d:       DIMM L %d, rank interleave %s, enhanced interleave %s, HORI %s",
			ch, channel.DimmLMap, yesNo(channel.RankInterleave), yesNo(channel.EnhancedInterleave), yesNo(channel.HORI))
		if channel.HORI {
			fmt.Fprintf(&s, " (bit %d)", horiRankBase+uint(channel.HORISelect))
		}
		s.WriteString("\n")
	}
	for idx, entry := range cfg.BER {
		if entry.Enabled {
			fmt.Fprintf(&s, "BER %d:           %s -> %s\n", idx, entry.Source, entry.Target)
		}
	}
	if cfg.Abort != nil {
		fmt.Fprintf(&s, "BER abort:       %s\n", *cfg.Abort)
	}
	s.WriteString(cfg.DimmTable().Render())
	s.WriteString("\n")
	return s.String()
}
