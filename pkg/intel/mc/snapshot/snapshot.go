// Copyright 2024 the LinuxBoot Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package snapshot loads and stores memory controller register sets.
//
// A snapshot is either a YAML (or JSON) document keyed by register name,
// or a binary dump: an 8 byte header followed by the registers of
// regs.Set in field order, little-endian. Any of them may be compressed
// with one of the formats of package compression.
package snapshot

import (
	"bytes"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/xaionaro-go/bytesextra"

	"github.com/linuxboot/mcaddr/pkg/compression"
	"github.com/linuxboot/mcaddr/pkg/intel/mc/regs"
)

// Format is the encoding of a snapshot.
type Format int

// Supported snapshot formats.
const (
	FormatUndefined = Format(iota)
	FormatYAML
	FormatJSON
	FormatBinary
)

func (f Format) String() string {
	switch f {
	case FormatYAML:
		return "yaml"
	case FormatJSON:
		return "json"
	case FormatBinary:
		return "binary"
	}
	return fmt.Sprintf("Format(%d)", int(f))
}

// ParseFormat parses the name of a Format, FormatUndefined if unknown.
func ParseFormat(s string) Format {
	switch strings.Trim(strings.ToLower(s), " ") {
	case "yaml", "yml":
		return FormatYAML
	case "json":
		return FormatJSON
	case "binary", "bin":
		return FormatBinary
	}
	return FormatUndefined
}

// Magic starts every binary snapshot.
var Magic = [6]byte{'M', 'C', 'R', 'E', 'G', 'S'}

// BinaryVersion is the version of the binary layout written by
// WriteBinary.
const BinaryVersion = 1

type binaryHeader struct {
	Magic   [6]byte
	Version uint16
}

// IsBinary returns true if the data starts with the binary snapshot magic.
func IsBinary(data []byte) bool {
	return bytes.HasPrefix(data, Magic[:])
}

// ParseBinary parses a binary snapshot.
func ParseBinary(data []byte) (regs.Set, error) {
	var set regs.Set
	var header binaryHeader
	r := bytesextra.NewReadWriteSeeker(data)
	if err := binary.Read(r, binary.LittleEndian, &header); err != nil {
		return set, fmt.Errorf("unable to read the header: %w", err)
	}
	if header.Magic != Magic {
		return set, &ErrInvalidMagic{Received: header.Magic[:]}
	}
	if header.Version != BinaryVersion {
		return set, &ErrUnsupportedVersion{Version: header.Version}
	}
	if err := binary.Read(r, binary.LittleEndian, &set); err != nil {
		return set, fmt.Errorf("unable to read the registers: %w", err)
	}
	if rest := len(data) - binary.Size(header) - binary.Size(set); rest != 0 {
		return set, fmt.Errorf("%d trailing bytes after the registers", rest)
	}
	return set, nil
}

// WriteBinary encodes the set as a binary snapshot.
func WriteBinary(set regs.Set) ([]byte, error) {
	header := binaryHeader{Magic: Magic, Version: BinaryVersion}
	data := make([]byte, binary.Size(header)+binary.Size(set))
	w := bytesextra.NewReadWriteSeeker(data)
	if err := binary.Write(w, binary.LittleEndian, header); err != nil {
		return nil, err
	}
	if err := binary.Write(w, binary.LittleEndian, set); err != nil {
		return nil, err
	}
	return data, nil
}

// Parse decodes an uncompressed snapshot of any format.
func Parse(data []byte) (regs.Set, error) {
	if IsBinary(data) {
		return ParseBinary(data)
	}
	return ParseYAML(data)
}

// Marshal encodes the set in the given format.
func Marshal(set regs.Set, format Format) ([]byte, error) {
	switch format {
	case FormatYAML:
		return MarshalYAML(set)
	case FormatJSON:
		return json.MarshalIndent(set, "", "  ")
	case FormatBinary:
		return WriteBinary(set)
	}
	return nil, fmt.Errorf("unknown snapshot format %s", format)
}

// Load reads a snapshot file, decompressing it if needed.
func Load(path string) (regs.Set, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return regs.Set{}, fmt.Errorf("unable to read snapshot '%s': %w", path, err)
	}
	data, err = compression.Decompress(data)
	if err != nil {
		return regs.Set{}, fmt.Errorf("unable to decompress snapshot '%s': %w", path, err)
	}
	set, err := Parse(data)
	if err != nil {
		return regs.Set{}, fmt.Errorf("unable to parse snapshot '%s': %w", path, err)
	}
	return set, nil
}

// Save writes a snapshot file. The compressor may be nil.
func Save(path string, set regs.Set, format Format, compressor compression.Compressor) error {
	data, err := Marshal(set, format)
	if err != nil {
		return err
	}
	if compressor != nil {
		if data, err = compressor.Encode(data); err != nil {
			return fmt.Errorf("unable to compress the snapshot with %s: %w", compressor.Name(), err)
		}
	}
	return os.WriteFile(path, data, 0o644)
}

// File is a Source reading a snapshot file on every call.
type File string

// Registers implements xlat.Source.
func (f File) Registers() (regs.Set, error) {
	return Load(string(f))
}
