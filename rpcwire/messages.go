// Copyright 2024 syzkaller project authors. All rights reserved.
// Use of this source code is governed by Apache 2 LICENSE that can be found in the LICENSE file.

// Package rpcwire is the binary-encoded RPC transport between a fuzzer
// client, the Collector Service, and (optionally) a standalone Observer
// reached through the observer proxy. It is built on net/rpc with the
// default gob codec rather than a generated protobuf/gRPC stack, the way
// syzkaller's own manager<->fuzzer channel is.
package rpcwire

import (
	"github.com/google/fuzvisor/fuzzerengine"
	"github.com/google/fuzvisor/structgraph"
)

// CreateFuzzerArgs carries one already-normalized module CFG payload (see
// package cfg) from a fuzzer client to the Collector Service.
type CreateFuzzerArgs struct {
	Payload []byte
}

// CreateFuzzerReply returns the fuzzer id the client must attach to every
// subsequent UpdateFeatures call.
type CreateFuzzerReply struct {
	FuzzerID uint64
}

// UpdateFeaturesArgs carries one execution's raw sancov feature report for
// an already-registered fuzzer/corpus-input pair.
type UpdateFeaturesArgs struct {
	FuzzerID uint64
	CorpusID uint64
	Hits     []fuzzerengine.FeatureHit
}

// UpdateFeaturesReply is the corpus-priority diff for this fuzzer, relative
// to the last time it called UpdateFeatures.
type UpdateFeaturesReply struct {
	Added   []uint64
	Dropped []uint64
}

// EnsureGraphArgs attaches a structure graph to a (possibly remote)
// Observer, used by the observer proxy chain.
type EnsureGraphArgs struct {
	Graph structgraph.Graph
}

// EnsureGraphReply is empty; the call either succeeds or the RPC itself
// fails.
type EnsureGraphReply struct{}

// UpdateNodesArgs forwards one fuzzer's coverage deltas to a (possibly
// remote) Observer.
type UpdateNodesArgs struct {
	FuzzerID uint64
	CorpusID uint64
	Deltas   []fuzzerengine.Delta
}

// UpdateNodesReply is the corpus-priority diff the Observer computed.
type UpdateNodesReply struct {
	Added   []uint64
	Dropped []uint64
}
