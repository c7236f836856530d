// Copyright 2024 syzkaller project authors. All rights reserved.
// Use of this source code is governed by Apache 2 LICENSE that can be found in the LICENSE file.

// Package log is a small verbosity-gated logger, used throughout fuzvisor
// instead of the standard library's bare log package so that a single -v
// flag controls how chatty every binary is.
package log

import (
	"flag"
	"fmt"
	"log"
	"os"
	"sync/atomic"
)

var verbose atomic.Int32

// SetVerbose sets the package-wide verbosity level; Logf calls at or below
// this level are printed.
func SetVerbose(v int) {
	verbose.Store(int32(v))
}

// RegisterFlags adds the -v flag to fs (typically flag.CommandLine), the
// same flag name every fuzvisor binary exposes.
func RegisterFlags(fs *flag.FlagSet) {
	fs.Func("v", "verbosity level", func(s string) error {
		var v int
		if _, err := fmt.Sscanf(s, "%d", &v); err != nil {
			return err
		}
		SetVerbose(v)
		return nil
	})
}

// Logf prints msg if level is at or below the current verbosity.
func Logf(level int, msg string, args ...any) {
	if int32(level) > verbose.Load() {
		return
	}
	log.Printf(msg, args...)
}

// Fatalf prints msg unconditionally and exits the process with status 1.
func Fatalf(msg string, args ...any) {
	log.Printf(msg, args...)
	os.Exit(1)
}
