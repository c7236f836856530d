// Copyright 2024 syzkaller project authors. All rights reserved.
// Use of this source code is governed by Apache 2 LICENSE that can be found in the LICENSE file.

package rpcwire

import (
	"net"
	"net/rpc"

	"github.com/google/fuzvisor/collector"
	"github.com/google/fuzvisor/pkg/log"
)

// CollectorServer adapts a *collector.Service to the net/rpc calling
// convention and serves it over a listener, one goroutine per accepted
// connection, exactly as syzkaller's own RPC server does.
type CollectorServer struct {
	svc *collector.Service
}

// NewCollectorServer registers svc under the RPC name "Collector" and
// returns a server ready to Serve a net.Listener.
func NewCollectorServer(svc *collector.Service) (*CollectorServer, *rpc.Server, error) {
	cs := &CollectorServer{svc: svc}
	s := rpc.NewServer()
	if err := s.RegisterName("Collector", cs); err != nil {
		return nil, nil, err
	}
	return cs, s, nil
}

// Serve accepts connections on lis until it is closed, handing each one to
// the net/rpc server on its own goroutine.
func Serve(s *rpc.Server, lis net.Listener) error {
	for {
		conn, err := lis.Accept()
		if err != nil {
			return err
		}
		go s.ServeConn(conn)
	}
}

// CreateFuzzer is the net/rpc-exported method a fuzzer client calls once at
// startup with its normalized CFG payload.
func (cs *CollectorServer) CreateFuzzer(args *CreateFuzzerArgs, reply *CreateFuzzerReply) error {
	id, err := cs.svc.CreateFuzzer(args.Payload)
	if err != nil {
		log.Logf(0, "create fuzzer failed: %v", err)
		return err
	}
	reply.FuzzerID = id
	return nil
}

// UpdateFeatures is the net/rpc-exported method a fuzzer client calls after
// every execution that produced new sancov feature hits.
func (cs *CollectorServer) UpdateFeatures(args *UpdateFeaturesArgs, reply *UpdateFeaturesReply) error {
	diff, err := cs.svc.UpdateFeatures(args.FuzzerID, args.CorpusID, args.Hits)
	if err != nil {
		return err
	}
	reply.Added = diff.Added
	reply.Dropped = diff.Dropped
	return nil
}
