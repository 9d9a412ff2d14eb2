// Copyright 2024 the LinuxBoot Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package compression

import (
	"bytes"
	"io"

	"github.com/pierrec/lz4"
)

// lz4BlockSize bounds the frame blocks. Snapshots are a few hundred bytes,
// the 4MiB default would only grow the writer buffers.
const lz4BlockSize = 64 << 10

// LZ4 implements Compressor for LZ4 frames.
type LZ4 struct{}

// Name returns the type of compression employed.
func (c *LZ4) Name() string {
	return "LZ4"
}

// Decode decodes all frames of a byte slice of LZ4 data.
func (c *LZ4) Decode(encodedData []byte) ([]byte, error) {
	var out bytes.Buffer
	if _, err := io.Copy(&out, lz4.NewReader(bytes.NewReader(encodedData))); err != nil {
		return nil, err
	}
	return out.Bytes(), nil
}

// Encode encodes a byte slice into a single LZ4 frame.
func (c *LZ4) Encode(decodedData []byte) ([]byte, error) {
	var out bytes.Buffer
	w := lz4.NewWriter(&out)
	w.Header.BlockMaxSize = lz4BlockSize
	if _, err := io.Copy(w, bytes.NewReader(decodedData)); err != nil {
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return out.Bytes(), nil
}
