// Copyright 2024 syzkaller project authors. All rights reserved.
// Use of this source code is governed by Apache 2 LICENSE that can be found in the LICENSE file.

package rpcwire

import (
	"net/rpc"

	"github.com/google/fuzvisor/collector"
)

// ObserverServer adapts a collector.Observer (normally an *observer.Tracker,
// but equally an *ObserverClient chained onto another remote Observer, which
// is exactly what fuzvisor-observer-proxy does) to the net/rpc calling
// convention.
type ObserverServer struct {
	obs collector.Observer
}

// NewObserverServer registers obs under the RPC name "Observer".
func NewObserverServer(obs collector.Observer) (*rpc.Server, error) {
	s := rpc.NewServer()
	if err := s.RegisterName("Observer", &ObserverServer{obs: obs}); err != nil {
		return nil, err
	}
	return s, nil
}

func (os *ObserverServer) EnsureGraph(args *EnsureGraphArgs, reply *EnsureGraphReply) error {
	os.obs.EnsureGraph(args.Graph)
	return nil
}

func (os *ObserverServer) UpdateNodes(args *UpdateNodesArgs, reply *UpdateNodesReply) error {
	diff := os.obs.UpdateNodes(args.FuzzerID, args.CorpusID, args.Deltas)
	reply.Added = diff.Added
	reply.Dropped = diff.Dropped
	return nil
}
