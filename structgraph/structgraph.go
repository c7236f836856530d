// Copyright 2024 syzkaller project authors. All rights reserved.
// Use of this source code is governed by Apache 2 LICENSE that can be found in the LICENSE file.

// Package structgraph turns a normalized control-flow graph (package cfg)
// into the structure graph the Fuzzer Engine and Observer walk: plain nodes
// and functions with deduplicated successor/predecessor edges, addressed by
// dense array index rather than by the block ids the wire format used.
package structgraph

import (
	"sort"

	"github.com/google/fuzvisor/cfg"
)

// Node is one basic block in the structure graph. SancovIdx/HasSancov carry
// the global sancov index cfg.Normalize assigned, if any; a block with no
// counter (e.g. because the compiler folded it into its only predecessor)
// still participates in graph traversal, it just never gets hit directly.
type Node struct {
	BlockID      uint32
	Function     int // index into Graph.Functions
	HasSancov    bool
	SancovIdx    uint32
	Successors   []int // node indices
	Predecessors []int // node indices, derived
}

// Function groups the node indices that belong to one function.
type Function struct {
	Name  string
	Nodes []int
}

// Graph is the structure graph: dense, index-addressed, with predecessor
// edges already derived from the successor edges the CFG normalizer kept.
type Graph struct {
	Nodes     []Node
	Functions []Function
}

// Build derives a Graph from a normalized cfg.Graph. Successor lists are
// sorted and deduplicated; predecessor edges are the reverse of the
// (deduplicated) successor edges, computed in a single pass over all nodes.
func Build(g cfg.Graph) Graph {
	out := Graph{
		Nodes:     make([]Node, len(g.Blocks)),
		Functions: make([]Function, len(g.Functions)),
	}
	for i, fn := range g.Functions {
		out.Functions[i] = Function{Name: fn.Name}
	}
	for i, b := range g.Blocks {
		succ := dedupSorted(b.Successors)
		node := Node{
			BlockID:   b.ID,
			Function:  int(b.Function),
			HasSancov: b.HasSancov,
			SancovIdx: b.SancovIdx,
		}
		for _, s := range succ {
			node.Successors = append(node.Successors, int(s))
		}
		out.Nodes[i] = node
		if int(b.Function) < len(out.Functions) {
			out.Functions[b.Function].Nodes = append(out.Functions[b.Function].Nodes, i)
		}
	}
	for i := range out.Nodes {
		for _, s := range out.Nodes[i].Successors {
			out.Nodes[s].Predecessors = append(out.Nodes[s].Predecessors, i)
		}
	}
	for i := range out.Nodes {
		out.Nodes[i].Predecessors = dedupSortedInt(out.Nodes[i].Predecessors)
	}
	return out
}

func dedupSorted(ids []uint32) []uint32 {
	if len(ids) == 0 {
		return nil
	}
	cp := append([]uint32(nil), ids...)
	sort.Slice(cp, func(i, j int) bool { return cp[i] < cp[j] })
	out := cp[:1]
	for _, v := range cp[1:] {
		if v != out[len(out)-1] {
			out = append(out, v)
		}
	}
	return out
}

func dedupSortedInt(ids []int) []int {
	if len(ids) == 0 {
		return nil
	}
	cp := append([]int(nil), ids...)
	sort.Ints(cp)
	out := cp[:1]
	for _, v := range cp[1:] {
		if v != out[len(out)-1] {
			out = append(out, v)
		}
	}
	return out
}
