// Copyright 2024 syzkaller project authors. All rights reserved.
// Use of this source code is governed by Apache 2 LICENSE that can be found in the LICENSE file.

package observer

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/google/fuzvisor/cfg"
	"github.com/google/fuzvisor/fuzzerengine"
	"github.com/google/fuzvisor/structgraph"
)

// 0 -> 1 -> 2
//      1 -> 3
func diamondGraph() structgraph.Graph {
	g := cfg.Graph{
		Functions: []cfg.Function{{ID: 0, Name: "f"}},
		Blocks: []cfg.BasicBlock{
			{ID: 0, Function: 0, HasSancov: true, SancovIdx: 0, Successors: []uint32{1}},
			{ID: 1, Function: 0, HasSancov: true, SancovIdx: 1, Successors: []uint32{2, 3}},
			{ID: 2, Function: 0, HasSancov: true, SancovIdx: 2},
			{ID: 3, Function: 0, HasSancov: true, SancovIdx: 3},
		},
	}
	return structgraph.Build(g)
}

func TestUpdateNodesTracksCoverageAndFunctions(t *testing.T) {
	tr := NewTracker(WeightedPolicy{})
	g := diamondGraph()
	tr.EnsureGraph(g)

	tr.UpdateNodes(1, 100, []fuzzerengine.Delta{{NodeIndex: 0, Value: 1}})
	assert.Equal(t, 1, tr.coveredNodes)
	assert.Equal(t, 1, tr.coveredFunctions)
	assert.Len(t, tr.frontier, 1) // node 0 has an uncovered successor (1)

	tr.UpdateNodes(1, 100, []fuzzerengine.Delta{{NodeIndex: 1, Value: 1}})
	// node 0's only successor (1) is now covered, so node 0 drops out of the frontier.
	_, stillFrontier := tr.frontier[0]
	assert.False(t, stillFrontier)
	// node 1 has two uncovered successors, so it enters the frontier.
	_, isFrontier := tr.frontier[1]
	assert.True(t, isFrontier)
}

func TestUpdateNodesFullCoverageEmptiesFrontier(t *testing.T) {
	tr := NewTracker(WeightedPolicy{})
	tr.EnsureGraph(diamondGraph())

	for _, idx := range []int{0, 1, 2, 3} {
		tr.UpdateNodes(1, 1, []fuzzerengine.Delta{{NodeIndex: idx, Value: 1}})
	}
	assert.Empty(t, tr.frontier)
	assert.Equal(t, 4, tr.coveredNodes)
}

// two independent roots, each with one never-covered leaf, so each root
// becomes its own frontier entry with a single distinct owner.
func twoRootsGraph() structgraph.Graph {
	g := cfg.Graph{
		Functions: []cfg.Function{{ID: 0, Name: "f"}},
		Blocks: []cfg.BasicBlock{
			{ID: 0, Function: 0, HasSancov: true, SancovIdx: 0, Successors: []uint32{2}},
			{ID: 1, Function: 0, HasSancov: true, SancovIdx: 1, Successors: []uint32{3}},
			{ID: 2, Function: 0, HasSancov: false},
			{ID: 3, Function: 0, HasSancov: false},
		},
	}
	return structgraph.Build(g)
}

func TestWeightedPolicyPrioritizesLowFrequencyOwner(t *testing.T) {
	tr := NewTracker(WeightedPolicy{})
	tr.EnsureGraph(twoRootsGraph())

	tr.UpdateNodes(1, 10, []fuzzerengine.Delta{{NodeIndex: 0, Value: 1}})
	tr.UpdateNodes(1, 20, []fuzzerengine.Delta{{NodeIndex: 1, Value: 1}})
	assert.Len(t, tr.frontier, 2)

	// Node 1 is hit many more times than node 0, so its owner's weight
	// (1/freq) drops well below the mean and is dropped from priority.
	tr.freq[1] += 99
	diff := tr.UpdateNodes(1, 20, nil)
	assert.Contains(t, diff.Dropped, uint64(20))
	assert.NotContains(t, diff.Added, uint64(20))
}

func TestEnsureGraphIsIdempotent(t *testing.T) {
	tr := NewTracker(nil)
	g := diamondGraph()
	tr.EnsureGraph(g)
	tr.EnsureGraph(structgraph.Graph{}) // must not reset the already-attached graph
	assert.Len(t, tr.nodes, 4)
}
