// Copyright 2024 syzkaller project authors. All rights reserved.
// Use of this source code is governed by Apache 2 LICENSE that can be found in the LICENSE file.

package rpcwire

import (
	"fmt"
	"net/rpc"
	"sync"

	"github.com/google/fuzvisor/corpus"
	"github.com/google/fuzvisor/fuzzerengine"
	"github.com/google/fuzvisor/pkg/log"
	"github.com/google/fuzvisor/structgraph"
)

// ObserverClient implements collector.Observer by forwarding every call
// over net/rpc to a remote Observer. fuzvisor-observer-proxy wraps one of
// these in an ObserverServer so a Collector Service elsewhere on the
// network can talk to a remote Observer as if it were local.
type ObserverClient struct {
	mu   sync.Mutex
	conn *rpc.Client
}

// DialObserver opens a connection to a remote Observer RPC server.
func DialObserver(addr string) (*ObserverClient, error) {
	c, err := rpc.Dial("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("rpcwire: dial observer %s: %w", addr, err)
	}
	return &ObserverClient{conn: c}, nil
}

func (oc *ObserverClient) EnsureGraph(g structgraph.Graph) {
	oc.mu.Lock()
	defer oc.mu.Unlock()
	var reply EnsureGraphReply
	if err := oc.conn.Call("Observer.EnsureGraph", &EnsureGraphArgs{Graph: g}, &reply); err != nil {
		log.Logf(0, "observer proxy: ensure graph: %v", err)
	}
}

func (oc *ObserverClient) UpdateNodes(fuzzerID, corpusID uint64, deltas []fuzzerengine.Delta) corpus.Diff {
	oc.mu.Lock()
	defer oc.mu.Unlock()
	args := &UpdateNodesArgs{FuzzerID: fuzzerID, CorpusID: corpusID, Deltas: deltas}
	var reply UpdateNodesReply
	if err := oc.conn.Call("Observer.UpdateNodes", args, &reply); err != nil {
		log.Logf(0, "observer proxy: update nodes: %v", err)
		return corpus.Diff{}
	}
	return corpus.Diff{Added: reply.Added, Dropped: reply.Dropped}
}
