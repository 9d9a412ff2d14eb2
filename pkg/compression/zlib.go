// Copyright 2023 the LinuxBoot Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package compression

import (
	"bytes"
	"compress/zlib"
	"encoding/binary"
	"io"
)

const zlibCompressionLevel = 9

// ZLIB implements Compressor and uses the zlib package from the standard
// library
type ZLIB struct{}

// isZLIBHeader checks the compression method and the header checksum of
// RFC 1950.
func isZLIBHeader(data []byte) bool {
	if len(data) < 2 || data[0]&0x0F != 8 || data[0]>>4 > 7 {
		return false
	}
	return binary.BigEndian.Uint16(data)%31 == 0
}

// Name returns the type of compression employed.
func (c *ZLIB) Name() string {
	return "ZLIB"
}

// Decode decodes a byte slice of ZLIB data.
func (c *ZLIB) Decode(encodedData []byte) ([]byte, error) {
	r, err := zlib.NewReader(bytes.NewReader(encodedData))
	if err != nil {
		return nil, err
	}

	decodedData, err := io.ReadAll(r)
	r.Close()
	if err != nil {
		return nil, err
	}

	return decodedData, nil
}

// Encode encodes a byte slice with ZLIB.
func (c *ZLIB) Encode(decodedData []byte) ([]byte, error) {
	var encodedData bytes.Buffer

	w, err := zlib.NewWriterLevel(&encodedData, zlibCompressionLevel)
	if err != nil {
		return nil, err
	}

	_, err = w.Write(decodedData)
	w.Close()
	if err != nil {
		return nil, err
	}
	return encodedData.Bytes(), nil
}
