// Copyright 2024 syzkaller project authors. All rights reserved.
// Use of this source code is governed by Apache 2 LICENSE that can be found in the LICENSE file.

package cfg

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
)

func twoBlockGraph() Graph {
	return Graph{
		Functions: []Function{{ID: 0, Name: "f"}},
		Blocks: []BasicBlock{
			{ID: 0, Function: 0, HasSancov: true, SancovIdx: 0, Successors: []uint32{1}},
			{ID: 1, Function: 0, HasSancov: true, SancovIdx: 1},
		},
	}
}

func TestValidateCatchesBadReferences(t *testing.T) {
	g := twoBlockGraph()
	g.Blocks[0].Successors = []uint32{7}
	err := g.Validate()
	assert.Error(t, err)
	var de *DecodeError
	assert.ErrorAs(t, err, &de)
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	p := WirePayload{Graph: twoBlockGraph(), SancovCount: 2, ModuleName: "mod-a"}
	data, err := Encode(p)
	assert.NoError(t, err)

	got, err := Decode(data)
	assert.NoError(t, err)
	assert.Equal(t, p.ModuleName, got.ModuleName)
	if diff := cmp.Diff(p.Graph, got.Graph); diff != "" {
		t.Errorf("graph changed across the wire (-want +got):\n%s", diff)
	}
}

func TestDecodeRejectsGarbage(t *testing.T) {
	_, err := Decode([]byte("not a gob stream"))
	assert.Error(t, err)
}

func TestConcatRebasesIdsAndSancovIndices(t *testing.T) {
	a := twoBlockGraph()
	b := twoBlockGraph()

	merged, remap := Concat([]Graph{a, b}, []uint32{2, 2})

	assert.Len(t, merged.Blocks, 4)
	assert.Equal(t, uint32(0), merged.Blocks[0].ID)
	assert.Equal(t, uint32(2), merged.Blocks[2].ID)
	assert.Equal(t, uint32(2), merged.Blocks[2].SancovIdx)
	assert.Equal(t, uint32(3), merged.Blocks[3].SancovIdx)

	assert.Len(t, remap, 2)
	assert.Equal(t, uint32(0), remap[0].RawStart)
	assert.Equal(t, uint32(2), remap[1].RawStart)
}

func TestRemapSancovIndexFindsOwningModule(t *testing.T) {
	remap := []RemapStart{
		{RawStart: 0, Base: 0, Module: 0},
		{RawStart: 5, Base: 100, Module: 1},
	}
	assert.Equal(t, uint32(3), RemapSancovIndex(remap, 3))
	assert.Equal(t, uint32(102), RemapSancovIndex(remap, 7))
}

func TestNormalizeMultiModule(t *testing.T) {
	p1, err := Encode(WirePayload{Graph: twoBlockGraph(), SancovCount: 2, ModuleName: "a"})
	assert.NoError(t, err)
	p2, err := Encode(WirePayload{Graph: twoBlockGraph(), SancovCount: 2, ModuleName: "b"})
	assert.NoError(t, err)

	merged, remap, err := Normalize([][]byte{p1, p2})
	assert.NoError(t, err)
	assert.Len(t, merged.Blocks, 4)
	assert.Len(t, remap, 2)
}

func TestNormalizePropagatesDecodeError(t *testing.T) {
	_, _, err := Normalize([][]byte{[]byte("garbage")})
	assert.Error(t, err)
}
