// Copyright 2024 the LinuxBoot Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package compression

import (
	"github.com/klauspost/compress/zstd"
)

// Zstd implements Compressor for zstandard frames.
type Zstd struct{}

// Name returns the type of compression employed.
func (c *Zstd) Name() string {
	return "ZSTD"
}

// Decode decodes a byte slice of zstd data.
func (c *Zstd) Decode(encodedData []byte) ([]byte, error) {
	d, err := zstd.NewReader(nil)
	if err != nil {
		return nil, err
	}
	defer d.Close()
	return d.DecodeAll(encodedData, nil)
}

// Encode encodes a byte slice with zstd.
func (c *Zstd) Encode(decodedData []byte) ([]byte, error) {
	e, err := zstd.NewWriter(nil)
	if err != nil {
		return nil, err
	}
	defer e.Close()
	return e.EncodeAll(decodedData, nil), nil
}
