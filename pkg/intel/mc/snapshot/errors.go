// Copyright 2024 the LinuxBoot Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package snapshot

import (
	"fmt"
)

// ErrInvalidMagic means the data is not a binary snapshot.
type ErrInvalidMagic struct {
	Received []byte
}

func (err *ErrInvalidMagic) Error() string {
	return fmt.Sprintf("string '%s' was expected at the start of a binary snapshot, but received: '%s'",
		Magic[:], err.Received)
}

// ErrUnsupportedVersion means the binary snapshot layout is unknown.
type ErrUnsupportedVersion struct {
	Version uint16
}

func (err *ErrUnsupportedVersion) Error() string {
	return fmt.Sprintf("unsupported binary snapshot version %d", err.Version)
}

// ErrUnknownRegister means a YAML document names a register that does not
// exist.
type ErrUnknownRegister struct {
	Err error
}

func (err *ErrUnknownRegister) Error() string {
	return fmt.Sprintf("invalid register document: %v", err.Err)
}

func (err *ErrUnknownRegister) Unwrap() error {
	return err.Err
}
