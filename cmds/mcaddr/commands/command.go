// Copyright 2017-2018 the LinuxBoot Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package commands holds what the verbs of mcaddr share: the Command
// interface, the snapshot and output options and argument errors.
package commands

import (
	"github.com/jessevdk/go-flags"
)

// Command is a verb of mcaddr (like "decode" of "mcaddr decode"). Its
// exported fields are the options of the verb, parsed by go-flags.
type Command interface {
	flags.Commander

	// ShortDescription explains what this command does in one line
	ShortDescription() string

	// LongDescription explains what this verb does (without limitation in amount of lines)
	LongDescription() string
}
