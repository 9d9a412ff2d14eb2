// Copyright 2024 the LinuxBoot Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// mcaddr translates between system addresses and DRAM locations of the
// client memory controller.
//
// Synopsis:
//     mcaddr decode [-s SNAPSHOT] [--tcm] [options] ADDRESS...
//     mcaddr encode [-s SNAPSHOT] -c CHANNEL -d DIMM -r RANK -g BANK_GROUP -b BANK --row ROW --column COLUMN [options]
//     mcaddr cases [-n NAME] [-l] [options]
//     mcaddr regs [-s SNAPSHOT] [--save FILE [--save-format FORMAT] [--compress COMPRESSION]] [options]
//
// An example:
//     mcaddr regs --save regs.yaml.xz --compress xz
//     mcaddr decode -s regs.yaml.xz 0x1234567c0 0xfee00000
//     mcaddr encode -s regs.yaml.xz -c 1 -r 1 -g 2 -b 3 --row 0x1fff --column 0x3f8 --format json
//
// Description:
//     decode: Translate system addresses to DRAM locations
//     encode: Translate a DRAM location to a system address
//     cases:  Print the address layout cases
//     regs:   Print (and optionally save) the memory controller registers
//
// Without a snapshot the registers of the running machine are read, which
// requires root privileges.
package main

import (
	"github.com/jessevdk/go-flags"

	"github.com/linuxboot/mcaddr/cmds/mcaddr/commands"
	"github.com/linuxboot/mcaddr/cmds/mcaddr/commands/cases"
	"github.com/linuxboot/mcaddr/cmds/mcaddr/commands/decode"
	"github.com/linuxboot/mcaddr/cmds/mcaddr/commands/encode"
	"github.com/linuxboot/mcaddr/cmds/mcaddr/commands/regs"
	"github.com/linuxboot/mcaddr/pkg/log"
)

var (
	knownCommands = map[string]commands.Command{
		"decode": &decode.Command{},
		"encode": &encode.Command{},
		"cases":  &cases.Command{},
		"regs":   &regs.Command{},
	}
)

func main() {
	flagsParser := flags.NewParser(nil, flags.Default)
	for commandName, command := range knownCommands {
		_, err := flagsParser.AddCommand(commandName, command.ShortDescription(), command.LongDescription(), command)
		if err != nil {
			panic(err)
		}
	}

	// parse arguments and execute the appropriate command
	if _, err := flagsParser.Parse(); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok && flagsErr.Type == flags.ErrHelp {
			return
		}
		log.Fatalf("%v", err)
	}
}
