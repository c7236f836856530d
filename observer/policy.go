// Copyright 2024 syzkaller project authors. All rights reserved.
// Use of this source code is governed by Apache 2 LICENSE that can be found in the LICENSE file.

package observer

// Policy turns the current coverage frontier and its per-node hit
// frequency into the set of corpus ids, for one fuzzer, that should be
// prioritized for further mutation. Must be called with Tracker.mu held.
type Policy interface {
	Derive(t *Tracker, fuzzerID uint64) map[uint64]bool
}

// WeightedPolicy is the "low-frequency-high-priority" policy: every corpus
// id attributed to a frontier node is weighted by the inverse of that
// node's hit frequency, and every corpus id whose weight is at least the
// mean weight across all candidates is prioritized. A node hit only once or
// twice (a rare, hard-to-reach edge) vastly outweighs one hit thousands of
// times, so corpora that unlocked rare frontiers dominate the result.
type WeightedPolicy struct{}

func (WeightedPolicy) Derive(t *Tracker, fuzzerID uint64) map[uint64]bool {
	type candidate struct {
		corpusID uint64
		weight   float64
	}
	var candidates []candidate
	for idx, entry := range t.frontier {
		corpora, ok := entry.owners[fuzzerID]
		if !ok {
			continue
		}
		freq := t.freq[idx]
		if freq == 0 {
			freq = 1
		}
		weight := 1.0 / float64(freq)
		for cid := range corpora {
			candidates = append(candidates, candidate{cid, weight})
		}
	}
	if len(candidates) == 0 {
		return map[uint64]bool{}
	}
	var sum float64
	for _, c := range candidates {
		sum += c.weight
	}
	mean := sum / float64(len(candidates))

	out := make(map[uint64]bool)
	for _, c := range candidates {
		if c.weight >= mean {
			out[c.corpusID] = true
		}
	}
	return out
}

// DecilePolicy prioritizes corpus ids attributed to the lowest-frequency
// tenth of frontier nodes: a simpler alternative to WeightedPolicy that
// does not need per-candidate weighting, at the cost of a hard cutoff
// instead of a smooth one.
type DecilePolicy struct{}

func (DecilePolicy) Derive(t *Tracker, fuzzerID uint64) map[uint64]bool {
	nodes := t.frontierNodesSorted()
	if len(nodes) == 0 {
		return map[uint64]bool{}
	}
	cutoff := len(nodes) / 10
	if cutoff == 0 {
		cutoff = 1
	}
	out := make(map[uint64]bool)
	for _, idx := range nodes[:cutoff] {
		for cid := range t.frontier[idx].owners[fuzzerID] {
			out[cid] = true
		}
	}
	return out
}
