// Copyright 2024 syzkaller project authors. All rights reserved.
// Use of this source code is governed by Apache 2 LICENSE that can be found in the LICENSE file.

//go:build linux
// +build linux

// Package osutil holds the handful of raw-syscall helpers fuzvisor needs
// that the standard library does not expose portably.
package osutil

import "golang.org/x/sys/unix"

// Gettid returns the calling goroutine's OS thread id. Go has no portable
// notion of thread-local storage, but the runtime runs a cgo callback on
// the OS thread that invoked it and keeps it there until it returns, so
// the thread id doubles as a TLS key for the fuzzer client shim's
// per-thread corpus-priority scratch space.
func Gettid() int {
	return unix.Gettid()
}
