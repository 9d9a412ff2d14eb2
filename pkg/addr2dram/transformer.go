// Copyright 2024 the LinuxBoot Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package addr2dram provides a transform.Transformer which annotates all
// hexadecimal system addresses in the input (for example in a machine
// check log) with the DRAM location they decode to.
package addr2dram

import (
	"bytes"
	"regexp"
	"strconv"
	"text/template"

	"golang.org/x/text/transform"

	"github.com/linuxboot/mcaddr/pkg/intel/mc/xlat"
	"github.com/linuxboot/mcaddr/pkg/log"
)

// DefaultTemplate prints the address followed by its DRAM location.
const DefaultTemplate = "{{.Match}} ({{if .OK}}{{.DRAM}}{{else}}unmapped{{end}})"

var addressRegex = regexp.MustCompile(`\b0[xX][0-9a-fA-F]{1,16}\b`)

// partialAddressRegex matches the end of a buffer which may continue as an
// address in the next one.
var partialAddressRegex = regexp.MustCompile(`\b0([xX][0-9a-fA-F]{0,16})?$`)

// Mapper converts a system address to a string.
type Mapper interface {
	Map(match []byte, addr xlat.SystemAddress) []byte
}

// TemplateMapper implements mapper using Go's text/template package. The
// template can refer to the following variables:
//   - {{.Match}}: The address as it appears in the input
//   - {{.Address}}: The system address being mapped
//   - {{.DRAM}}: The DRAM location of the address
//   - {{.OK}}: Set to true when the address decodes to DRAM
//   - {{.Err}}: The decoding error otherwise
type TemplateMapper struct {
	tmpl *template.Template
	cfg  *xlat.Config
}

// NewTemplateMapper creates a new TemplateMapper decoding with the given
// configuration.
func NewTemplateMapper(tmpl *template.Template, cfg *xlat.Config) *TemplateMapper {
	return &TemplateMapper{
		tmpl: tmpl,
		cfg:  cfg,
	}
}

// Map implements the Mapper.Map() function.
func (f *TemplateMapper) Map(match []byte, addr xlat.SystemAddress) []byte {
	dram, decodeErr := xlat.Decode(addr, f.cfg)

	b := &bytes.Buffer{}
	err := f.tmpl.Execute(b, struct {
		Match   string
		Address xlat.SystemAddress
		DRAM    xlat.DramAddress
		OK      bool
		Err     error
	}{
		Match:   string(match),
		Address: addr,
		DRAM:    dram,
		OK:      decodeErr == nil,
		Err:     decodeErr,
	})
	if err != nil {
		// Do not interrupt the byte stream on a template bug.
		log.Errorf("Error in template: %v", err)
	}
	return b.Bytes()
}

// Transformer replaces all the addresses using the Mapper interface.
type Transformer struct {
	mapper Mapper
}

// New creates a new Transformer with the given Mapper.
func New(m Mapper) *Transformer {
	return &Transformer{
		mapper: m,
	}
}

func (t *Transformer) bufferMap(match []byte) []byte {
	// The regex only matches up to 16 hex digits, so this must parse.
	v, err := strconv.ParseUint(string(match[2:]), 16, 64)
	if err != nil {
		return match
	}
	return t.mapper.Map(match, xlat.SystemAddress{Address: v})
}

// Transform implements transform.Transformer.Transform().
func (t *Transformer) Transform(dst, src []byte, atEOF bool) (nDst, nSrc int, err error) {
	if atEOF {
		// we have the end of file, try to process all at once
		transformed := addressRegex.ReplaceAllFunc(src, t.bufferMap)
		if len(transformed) > len(dst) {
			// dst is too short, send what fits and come back
			d, s, e := t.Transform(dst, src, false)
			if e != transform.ErrShortSrc {
				return d, s, e
			}
			return d, s, transform.ErrShortDst
		}
		copy(dst, transformed)
		return len(transformed), len(src), nil
	}

	loc := addressRegex.FindIndex(src)
	if loc == nil || loc[1] == len(src) {
		// an address touching the end may still grow
		start := len(src)
		if loc != nil {
			start = loc[0]
		} else if partial := partialAddressRegex.FindIndex(src); partial != nil {
			start = partial[0]
		}
		copy(dst, src[:start])
		if start == len(src) {
			return len(src), len(src), nil
		}
		return start, start, transform.ErrShortSrc
	}

	copy(dst, src[:loc[0]])
	mapped := t.bufferMap(src[loc[0]:loc[1]])
	if loc[0]+len(mapped) > len(dst) {
		// mapped buffer does not fit, only send the plain part
		return loc[0], loc[0], transform.ErrShortDst
	}
	copy(dst[loc[0]:], mapped)
	return loc[0] + len(mapped), loc[1], transform.ErrShortSrc
}

// Reset implements transform.Transformer.Reset().
func (t *Transformer) Reset() {
}
