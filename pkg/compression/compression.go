// Copyright 2018 the LinuxBoot Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package compression implements reading and writing of compressed files.
//
// It covers the formats register snapshots are usually shipped in: xz,
// zstd, lz4 frames, legacy lzma and zlib streams.
package compression

import (
	"bytes"
	"fmt"
	"strings"
)

// Compressor defines a single compression scheme (such as XZ).
type Compressor interface {
	// Name is typically the name of a class.
	Name() string

	// Decode and Encode obey "x == Decode(Encode(x))".
	Decode(encodedData []byte) ([]byte, error)
	Encode(decodedData []byte) ([]byte, error)
}

type magic struct {
	prefix     []byte
	compressor func() Compressor
}

var magics = []magic{
	{prefix: []byte{0xFD, '7', 'z', 'X', 'Z', 0x00}, compressor: func() Compressor { return &XZ{} }},
	{prefix: []byte{0x28, 0xB5, 0x2F, 0xFD}, compressor: func() Compressor { return &Zstd{} }},
	{prefix: []byte{0x04, 0x22, 0x4D, 0x18}, compressor: func() Compressor { return &LZ4{} }},
	// lc=3 lp=0 pb=2 and a dictionary size multiple of 64KiB
	{prefix: []byte{0x5D, 0x00, 0x00}, compressor: func() Compressor { return &LZMA{} }},
}

// All returns one instance of every supported Compressor.
func All() []Compressor {
	return []Compressor{&XZ{}, &Zstd{}, &LZ4{}, &LZMA{}, &ZLIB{}}
}

// Detect returns the Compressor matching the header of the data, or nil if
// the data does not look compressed.
func Detect(data []byte) Compressor {
	for _, m := range magics {
		if bytes.HasPrefix(data, m.prefix) {
			return m.compressor()
		}
	}
	if isZLIBHeader(data) {
		return &ZLIB{}
	}
	return nil
}

// CompressorFromName returns the Compressor with the given name,
// case-insensitive.
func CompressorFromName(name string) (Compressor, error) {
	for _, c := range All() {
		if strings.EqualFold(c.Name(), name) {
			return c, nil
		}
	}
	return nil, fmt.Errorf("unknown compression '%s'", name)
}

// Decompress decodes data with the detected Compressor. Data without a
// known header is returned unchanged.
func Decompress(data []byte) ([]byte, error) {
	c := Detect(data)
	if c == nil {
		return data, nil
	}
	decoded, err := c.Decode(data)
	if err != nil {
		return nil, fmt.Errorf("unable to decode %s data: %w", c.Name(), err)
	}
	return decoded, nil
}
