// Copyright 2024 syzkaller project authors. All rights reserved.
// Use of this source code is governed by Apache 2 LICENSE that can be found in the LICENSE file.

// Package corpus holds the Corpus Priority data model: for each fuzzer, the
// set of corpus input ids the Observer currently considers worth
// prioritizing, and the incremental add/remove diff a fuzzer client needs
// to reconcile its local view against.
package corpus

import "sync"

// Diff is the incremental change to a fuzzer's priority set since the last
// time it was queried: corpus ids newly added to, or dropped from, the
// prioritized set.
type Diff struct {
	Added   []uint64
	Dropped []uint64
}

// PriorityTracker holds one fuzzer's current corpus-priority set and
// produces the add/drop diff against the previous call to Reconcile. It is
// safe for concurrent use; the Observer calls Reconcile under its own
// lock, but a fuzzer client and a debug/metrics reader may read
// Snapshot concurrently with that.
type PriorityTracker struct {
	mu      sync.RWMutex
	current map[uint64]bool
}

// NewPriorityTracker returns an empty tracker.
func NewPriorityTracker() *PriorityTracker {
	return &PriorityTracker{current: make(map[uint64]bool)}
}

// Reconcile replaces the tracked set with next and returns the ids added and
// dropped relative to the previous set.
func (pt *PriorityTracker) Reconcile(next map[uint64]bool) Diff {
	pt.mu.Lock()
	defer pt.mu.Unlock()

	var d Diff
	for id := range next {
		if !pt.current[id] {
			d.Added = append(d.Added, id)
		}
	}
	for id := range pt.current {
		if !next[id] {
			d.Dropped = append(d.Dropped, id)
		}
	}
	pt.current = next
	return d
}

// Snapshot returns the corpus ids currently prioritized.
func (pt *PriorityTracker) Snapshot() []uint64 {
	pt.mu.RLock()
	defer pt.mu.RUnlock()
	out := make([]uint64, 0, len(pt.current))
	for id := range pt.current {
		out = append(out, id)
	}
	return out
}

// Len reports how many corpus ids are currently prioritized.
func (pt *PriorityTracker) Len() int {
	pt.mu.RLock()
	defer pt.mu.RUnlock()
	return len(pt.current)
}
