// Copyright 2024 the LinuxBoot Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// addr2dram annotates system addresses with their DRAM location.
//
// Synopsis:
//     addr2dram [-s SNAPSHOT] [-t TEMPLATE] [FILE]
//
// Options:
//     -s SNAPSHOT:
//         A register snapshot (YAML, JSON or binary, optionally
//         compressed). The live registers are read if not set.
//     -t TEMPLATE:
//         A template used to replace addresses. The template can refer to
//         the following variables:
//             * {{.Match}}: The address as it appears in the input
//             * {{.Address}}: The system address being mapped
//             * {{.DRAM}}: The DRAM location of the address
//             * {{.OK}}: Set to true when the address decodes to DRAM
//             * {{.Err}}: The decoding error otherwise
//         The default template is
//         "{{.Match}} ({{if .OK}}{{.DRAM}}{{else}}unmapped{{end}})".
//
// Description:
//     Every hexadecimal number with a 0x prefix is treated as a system
//     address, for example in a machine check log:
//         dmesg | grep ADDR | addr2dram -s regs.yaml
//     If FILE is not specified, stdin is used.
package main

import (
	"io"
	stdlog "log"
	"os"
	"text/template"

	flag "github.com/spf13/pflag"
	"golang.org/x/text/transform"

	"github.com/linuxboot/mcaddr/pkg/addr2dram"
	"github.com/linuxboot/mcaddr/pkg/intel/mc/snapshot"
	"github.com/linuxboot/mcaddr/pkg/intel/mc/xlat"
	"github.com/linuxboot/mcaddr/pkg/log"
)

var (
	tmpl     = flag.StringP("template", "t", addr2dram.DefaultTemplate, "template string")
	snapPath = flag.StringP("snapshot", "s", "", "register snapshot, the live registers are read if not set")
	verbose  = flag.BoolP("verbose", "v", false, "print debug messages")
)

func main() {
	flag.Parse()
	if *verbose {
		log.DefaultLogger = log.NewLogger(stdlog.New(os.Stderr, "", stdlog.LstdFlags), true)
	}

	r := os.Stdin
	switch flag.NArg() {
	case 0:
	case 1:
		var err error
		r, err = os.Open(flag.Arg(0))
		if err != nil {
			log.Fatalf("Error opening file: %v", err)
		}
		defer r.Close()
	default:
		log.Fatalf("At most 1 positional arguments expected")
	}

	t, err := template.New("addr2dram").Parse(*tmpl)
	if err != nil {
		log.Fatalf("Template not valid: %v", err)
	}

	var source xlat.Source = snapshot.NewLive()
	if *snapPath != "" {
		source = snapshot.File(*snapPath)
	}
	cfg, err := xlat.NewEngine(source).Config()
	if err != nil {
		log.Fatalf("%v", err)
	}

	trans := addr2dram.New(addr2dram.NewTemplateMapper(t, cfg))

	_, err = io.Copy(os.Stdout, transform.NewReader(r, trans))
	if err != nil {
		log.Fatalf("Error copying buffer: %v", err)
	}
}
