// Copyright 2024 syzkaller project authors. All rights reserved.
// Use of this source code is governed by Apache 2 LICENSE that can be found in the LICENSE file.

// Package fuzzerengine tracks one instrumented fuzzing target's coverage
// state: which structure-graph nodes have fired, and which uninstrumented
// nodes must have executed too because both of their instrumented
// neighbors did. It holds no locks of its own; the Collector Service
// serializes access per fuzzer (see package collector).
package fuzzerengine

import "github.com/google/fuzvisor/structgraph"

// FeatureHit is one entry of a raw sancov feature report: the counter's
// index in the process-wide remapped address space, and its saturating
// 8-bit hit count as read out of the sanitizer-coverage counter array.
type FeatureHit struct {
	SancovIdx uint32
	Count     uint8
}

// Delta is one node whose bit counter changed as a result of processing a
// batch of FeatureHits, either because it was hit directly or because both
// ends of an instrumentation-free path through it were hit.
type Delta struct {
	NodeIndex int
	Value     uint8
}

type pathEdge struct {
	nextSancovIdx uint32
	path          []int // node indices strictly between the two instrumented nodes
}

// Fuzzer is the per-target coverage engine described by the Fuzzer State
// data model: a node bit-counter array plus the precomputed sancov-index
// adjacency needed to propagate coverage across uninstrumented blocks.
type Fuzzer struct {
	Graph          structgraph.Graph
	bitCounters    []uint8
	sancovIndexMap map[uint32]int
	sancovEdges    map[uint32][]pathEdge
}

// New builds a Fuzzer for the given structure graph: it indexes every node
// carrying a sancov counter, then precomputes, for each such node, every
// reachable next instrumented node and the uninstrumented path between
// them, by a depth-first traversal that stops at the first instrumented
// successor on each branch and refuses to revisit a node already on the
// current path.
func New(g structgraph.Graph) *Fuzzer {
	f := &Fuzzer{
		Graph:          g,
		bitCounters:    make([]uint8, len(g.Nodes)),
		sancovIndexMap: make(map[uint32]int),
		sancovEdges:    make(map[uint32][]pathEdge),
	}
	for i, n := range g.Nodes {
		if n.HasSancov {
			f.sancovIndexMap[n.SancovIdx] = i
		}
	}
	for i, n := range g.Nodes {
		if !n.HasSancov {
			continue
		}
		visiting := make(map[int]bool)
		f.sancovEdges[n.SancovIdx] = pathTraverse(g, i, visiting)
	}
	return f
}

// pathTraverse walks successors of node, stopping at the next instrumented
// node on every branch and recording the (possibly empty) chain of
// uninstrumented nodes crossed to get there. Nodes already on the current
// DFS stack are skipped, so a cycle of uninstrumented blocks terminates the
// branch instead of looping forever.
func pathTraverse(g structgraph.Graph, node int, visiting map[int]bool) []pathEdge {
	var out []pathEdge
	for _, succ := range g.Nodes[node].Successors {
		if g.Nodes[succ].HasSancov {
			out = append(out, pathEdge{nextSancovIdx: g.Nodes[succ].SancovIdx})
			continue
		}
		if visiting[succ] {
			continue
		}
		visiting[succ] = true
		for _, sub := range pathTraverse(g, succ, visiting) {
			sub.path = append([]int{succ}, sub.path...)
			out = append(out, sub)
		}
		delete(visiting, succ)
	}
	return out
}

// UpdateFeatures folds a batch of raw sancov hits into the fuzzer's node
// bit counters. Every directly-hit node that changed value is reported.
// Then, for every instrumented node that just fired, each precomputed path
// to another instrumented node that also fired this round has its
// in-between (uninstrumented) nodes marked covered, since code on that path
// must have executed for the counter on the far end to have incremented.
func (f *Fuzzer) UpdateFeatures(hits []FeatureHit) []Delta {
	var deltas []Delta
	covered := make(map[uint32]bool, len(hits))
	for _, h := range hits {
		if h.Count == 0 {
			continue
		}
		covered[h.SancovIdx] = true
		idx, ok := f.sancovIndexMap[h.SancovIdx]
		if !ok {
			continue
		}
		if f.bitCounters[idx] != h.Count {
			f.bitCounters[idx] = h.Count
			deltas = append(deltas, Delta{NodeIndex: idx, Value: h.Count})
		}
	}
	for sancovIdx := range covered {
		for _, edge := range f.sancovEdges[sancovIdx] {
			if !covered[edge.nextSancovIdx] {
				continue
			}
			for _, pn := range edge.path {
				if f.bitCounters[pn] == 0 {
					f.bitCounters[pn] = 1
					deltas = append(deltas, Delta{NodeIndex: pn, Value: 1})
				}
			}
		}
	}
	return deltas
}

// BitCounters returns the current per-node hit counters. Callers must not
// mutate the returned slice.
func (f *Fuzzer) BitCounters() []uint8 {
	return f.bitCounters
}
