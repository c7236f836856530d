// Copyright 2024 syzkaller project authors. All rights reserved.
// Use of this source code is governed by Apache 2 LICENSE that can be found in the LICENSE file.

package rpcwire

import (
	"net"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/google/fuzvisor/cfg"
	"github.com/google/fuzvisor/collector"
	"github.com/google/fuzvisor/fuzzerengine"
	"github.com/google/fuzvisor/observer"
)

func startCollectorServer(t *testing.T) net.Addr {
	svc := collector.NewService(observer.NewTracker(nil))
	_, s, err := NewCollectorServer(svc)
	assert.NoError(t, err)

	lis, err := net.Listen("tcp", "127.0.0.1:0")
	assert.NoError(t, err)
	go Serve(s, lis)
	t.Cleanup(func() { lis.Close() })
	return lis.Addr()
}

func TestClientCreateFuzzerAndUpdateFeatures(t *testing.T) {
	addr := startCollectorServer(t)
	client, err := Dial(addr.String())
	assert.NoError(t, err)
	defer client.Close()

	g := cfg.Graph{
		Functions: []cfg.Function{{ID: 0, Name: "f"}},
		Blocks: []cfg.BasicBlock{
			{ID: 0, Function: 0, HasSancov: true, SancovIdx: 0, Successors: []uint32{1}},
			{ID: 1, Function: 0, HasSancov: true, SancovIdx: 1},
		},
	}
	payload, err := cfg.Encode(cfg.WirePayload{Graph: g, SancovCount: 2})
	assert.NoError(t, err)

	id, err := client.CreateFuzzer(payload)
	assert.NoError(t, err)
	assert.NotZero(t, id)

	added, _, err := client.UpdateFeatures(id, 1, []fuzzerengine.FeatureHit{{SancovIdx: 0, Count: 1}})
	assert.NoError(t, err)
	assert.NotNil(t, added) // node 0 enters the frontier, making corpus 1 priority-worthy
}
