// Copyright 2021 the LinuxBoot Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package log

import (
	"log"
	"os"
)

// Logger describes a logger to be used in mcaddr.
type Logger interface {
	// Debugf logs a debug message. It is dropped unless verbose output
	// was requested.
	Debugf(format string, args ...interface{})

	// Warnf logs an warning message.
	Warnf(format string, args ...interface{})

	// Errorf logs an error message.
	Errorf(format string, args ...interface{})

	// Fatalf logs a fatal message and immediately exits the application
	// with os.Exit.
	Fatalf(format string, args ...interface{})
}

// DefaultLogger is the logger used by default everywhere within mcaddr.
var DefaultLogger Logger

func init() {
	DefaultLogger = NewLogger(log.New(os.Stderr, "", log.LstdFlags), false)
}

// NewLogger wraps a standard library logger. Debug messages are only
// emitted if verbose is true.
func NewLogger(l *log.Logger, verbose bool) Logger {
	return logWrapper{Logger: l, Verbose: verbose}
}

type logWrapper struct {
	Logger  *log.Logger
	Verbose bool
}

// Debugf implements Logger.
func (logger logWrapper) Debugf(format string, args ...interface{}) {
	if !logger.Verbose {
		return
	}
	logger.Logger.Printf("[mcaddr][DEBUG] "+format, args...)
}

// Warnf implements Logger.
func (logger logWrapper) Warnf(format string, args ...interface{}) {
	logger.Logger.Printf("[mcaddr][WARN] "+format, args...)
}

// Errorf implements Logger.
func (logger logWrapper) Errorf(format string, args ...interface{}) {
	logger.Logger.Printf("[mcaddr][ERROR] "+format, args...)
}

// Fatalf implements Logger.
func (logger logWrapper) Fatalf(format string, args ...interface{}) {
	logger.Logger.Fatalf("[mcaddr][FATAL] "+format, args...)
}

// Debugf logs a debug message.
func Debugf(format string, args ...interface{}) {
	DefaultLogger.Debugf(format, args...)
}

// Warnf logs an warning message.
func Warnf(format string, args ...interface{}) {
	DefaultLogger.Warnf(format, args...)
}

// Errorf logs an error message.
func Errorf(format string, args ...interface{}) {
	DefaultLogger.Errorf(format, args...)
}

// Fatalf logs a fatal message and immediately exits the application
// with os.Exit (which is expected to be called by the DefaultLogger.Fatalf).
func Fatalf(format string, args ...interface{}) {
	DefaultLogger.Fatalf(format, args...)
}
