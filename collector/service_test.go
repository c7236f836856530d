// Copyright 2024 syzkaller project authors. All rights reserved.
// Use of this source code is governed by Apache 2 LICENSE that can be found in the LICENSE file.

package collector

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/google/fuzvisor/cfg"
	"github.com/google/fuzvisor/fuzzerengine"
	"github.com/google/fuzvisor/observer"
)

func samplePayload(t *testing.T) []byte {
	g := cfg.Graph{
		Functions: []cfg.Function{{ID: 0, Name: "f"}},
		Blocks: []cfg.BasicBlock{
			{ID: 0, Function: 0, HasSancov: true, SancovIdx: 0, Successors: []uint32{1}},
			{ID: 1, Function: 0, HasSancov: true, SancovIdx: 1},
		},
	}
	data, err := cfg.Encode(cfg.WirePayload{Graph: g, SancovCount: 2, ModuleName: "m"})
	assert.NoError(t, err)
	return data
}

func TestCreateFuzzerAssignsDistinctIDs(t *testing.T) {
	svc := NewService(observer.NewTracker(nil))
	payload := samplePayload(t)

	id1, err := svc.CreateFuzzer(payload)
	assert.NoError(t, err)
	id2, err := svc.CreateFuzzer(payload)
	assert.NoError(t, err)
	assert.NotEqual(t, id1, id2)
}

func TestCreateFuzzerRejectsBadPayload(t *testing.T) {
	svc := NewService(observer.NewTracker(nil))
	_, err := svc.CreateFuzzer([]byte("garbage"))
	assert.Error(t, err)
}

func TestUpdateFeaturesUnknownFuzzer(t *testing.T) {
	svc := NewService(observer.NewTracker(nil))
	_, err := svc.UpdateFeatures(999, 1, nil)
	assert.ErrorIs(t, err, ErrUnknownFuzzer)
}

func TestUpdateFeaturesRoundTrip(t *testing.T) {
	svc := NewService(observer.NewTracker(nil))
	id, err := svc.CreateFuzzer(samplePayload(t))
	assert.NoError(t, err)

	_, err = svc.UpdateFeatures(id, 1, []fuzzerengine.FeatureHit{{SancovIdx: 0, Count: 1}})
	assert.NoError(t, err)
}
