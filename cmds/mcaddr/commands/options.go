// Copyright 2024 the LinuxBoot Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package commands

import (
	"encoding/json"
	"fmt"
	"io"
	stdlog "log"
	"os"
	"strings"

	"github.com/linuxboot/mcaddr/pkg/intel/mc/snapshot"
	"github.com/linuxboot/mcaddr/pkg/intel/mc/xlat"
	"github.com/linuxboot/mcaddr/pkg/log"
)

// Format is the output format of a command.
type Format int

// Supported output formats.
const (
	FormatUndefined = Format(iota)
	FormatText
	FormatJSON
)

// ParseFormat parses the name of a Format, FormatUndefined if unknown.
func ParseFormat(s string) Format {
	switch strings.Trim(strings.ToLower(s), " ") {
	case "text":
		return FormatText
	case "json":
		return FormatJSON
	}
	return FormatUndefined
}

// OutputOptions are the options of commands printing results.
type OutputOptions struct {
	Format *string `long:"format" description:"output format [text, json]"`

	stdout io.Writer
}

// SetOutput redirects the command output, os.Stdout by default.
func (opts *OutputOptions) SetOutput(w io.Writer) {
	opts.stdout = w
}

// Output returns where the command prints its results.
func (opts *OutputOptions) Output() io.Writer {
	if opts.stdout == nil {
		return os.Stdout
	}
	return opts.stdout
}

// OutputFormat returns the requested output format, text by default.
func (opts *OutputOptions) OutputFormat() (Format, error) {
	if opts.Format == nil {
		return FormatText, nil
	}
	format := ParseFormat(*opts.Format)
	if format == FormatUndefined {
		return FormatUndefined, ErrArgs{Err: fmt.Errorf("unknown format '%s'", *opts.Format)}
	}
	return format, nil
}

// PrintJSON prints v as indented JSON.
func (opts *OutputOptions) PrintJSON(v interface{}) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("unable to serialize the result: %w", err)
	}
	_, err = fmt.Fprintf(opts.Output(), "%s\n", b)
	return err
}

// SnapshotOptions select where the memory controller registers are read
// from.
type SnapshotOptions struct {
	Snapshot string `short:"s" long:"snapshot" description:"path to a register snapshot (YAML, JSON or binary, optionally compressed); the live registers are read if not set"`
	Verbose  bool   `short:"v" long:"verbose" description:"print debug messages"`
}

// Source returns the register source selected by the options.
func (opts *SnapshotOptions) Source() xlat.Source {
	if opts.Verbose {
		log.DefaultLogger = log.NewLogger(stdlog.New(os.Stderr, "", stdlog.LstdFlags), true)
	}
	if opts.Snapshot == "" {
		log.Debugf("reading the live registers")
		return snapshot.NewLive()
	}
	log.Debugf("reading the registers from '%s'", opts.Snapshot)
	return snapshot.File(opts.Snapshot)
}

// Config reads the registers and derives the translation configuration.
func (opts *SnapshotOptions) Config() (*xlat.Config, error) {
	return xlat.NewEngine(opts.Source()).Config()
}
