// Copyright 2024 syzkaller project authors. All rights reserved.
// Use of this source code is governed by Apache 2 LICENSE that can be found in the LICENSE file.

package structgraph

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/google/fuzvisor/cfg"
)

func TestBuildDerivesPredecessorsAndDedupsSuccessors(t *testing.T) {
	g := cfg.Graph{
		Functions: []cfg.Function{{ID: 0, Name: "f"}},
		Blocks: []cfg.BasicBlock{
			{ID: 0, Function: 0, HasSancov: true, SancovIdx: 0, Successors: []uint32{1, 2, 1}},
			{ID: 1, Function: 0, HasSancov: true, SancovIdx: 1, Successors: []uint32{2}},
			{ID: 2, Function: 0, HasSancov: false},
		},
	}
	sg := Build(g)

	assert.Len(t, sg.Nodes, 3)
	assert.Equal(t, []int{1, 2}, sg.Nodes[0].Successors)
	assert.Equal(t, []int{0, 1}, sg.Nodes[2].Predecessors)
	assert.Equal(t, []int{0, 1, 2}, sg.Functions[0].Nodes)
}

func TestBuildEmptyGraph(t *testing.T) {
	sg := Build(cfg.Graph{})
	assert.Empty(t, sg.Nodes)
	assert.Empty(t, sg.Functions)
}
