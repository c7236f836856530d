// Copyright 2024 syzkaller project authors. All rights reserved.
// Use of this source code is governed by Apache 2 LICENSE that can be found in the LICENSE file.

// Command fuzzerclient is the native shim an instrumented fuzzing binary
// links against: it exposes a small C ABI (see shim.go) over a persistent
// connection to a Collector Service, so the instrumented binary itself
// never needs to know Go exists. Built with `go build -buildmode=c-archive`.
package main

import (
	"os"
	"sync"
	"sync/atomic"

	"github.com/google/fuzvisor/cfg"
	"github.com/google/fuzvisor/fuzzerengine"
	"github.com/google/fuzvisor/pkg/log"
	"github.com/google/fuzvisor/pkg/osutil"
	"github.com/google/fuzvisor/rpcwire"
)

// serverURLEnv and defaultServerURL mirror the original shim's environment
// variable contract: a running process need not link CLI flag parsing, so
// the server address is read from the environment at init time.
const (
	serverURLEnv     = "FUZVISOR_SERVER_URL"
	defaultServerURL = "[::1]:2501"
)

var (
	client      *rpcwire.Client
	clientMu    sync.Mutex
	fuzzerID    atomic.Uint64
	remapStarts []cfg.RemapStart

	// pendingPriority is a crude per-thread scratch area: the host binary
	// calls fuzzer_client_update_features and fuzzer_client_get_corpus_priorities
	// from the same OS thread (the one the instrumented target executes on),
	// so keying by Gettid() stands in for real thread-local storage.
	pendingMu       sync.Mutex
	pendingPriority = map[int][]uint64{}
)

func serverAddr() string {
	if v := os.Getenv(serverURLEnv); v != "" {
		return v
	}
	return defaultServerURL
}

func ensureClient() (*rpcwire.Client, error) {
	clientMu.Lock()
	defer clientMu.Unlock()
	if client != nil {
		return client, nil
	}
	c, err := rpcwire.Dial(serverAddr())
	if err != nil {
		return nil, err
	}
	client = c
	return c, nil
}

func initFuzzer(modulePayloads [][]byte, sancovCounts []uint32) error {
	c, err := ensureClient()
	if err != nil {
		return err
	}

	graphs := make([]cfg.Graph, 0, len(modulePayloads))
	for _, data := range modulePayloads {
		wp, err := cfg.Decode(data)
		if err != nil {
			return err
		}
		graphs = append(graphs, wp.Graph)
	}
	merged, remap := cfg.Concat(graphs, sancovCounts)
	remapStarts = remap

	payload, err := cfg.Encode(cfg.WirePayload{Graph: merged})
	if err != nil {
		return err
	}
	id, err := c.CreateFuzzer(payload)
	if err != nil {
		return err
	}
	fuzzerID.Store(id)
	log.Logf(1, "registered fuzzer id=%d with %d modules", id, len(modulePayloads))
	return nil
}

func updateFeatures(corpusID uint64, rawHits []fuzzerengine.FeatureHit) error {
	c, err := ensureClient()
	if err != nil {
		return err
	}
	hits := make([]fuzzerengine.FeatureHit, len(rawHits))
	for i, h := range rawHits {
		hits[i] = fuzzerengine.FeatureHit{
			SancovIdx: cfg.RemapSancovIndex(remapStarts, h.SancovIdx),
			Count:     h.Count,
		}
	}
	added, _, err := c.UpdateFeatures(fuzzerID.Load(), corpusID, hits)
	if err != nil {
		return err
	}
	tid := osutil.Gettid()
	pendingMu.Lock()
	pendingPriority[tid] = append(pendingPriority[tid], added...)
	pendingMu.Unlock()
	return nil
}

// drainPriorities returns and clears this OS thread's pending
// corpus-priority list.
func drainPriorities() []uint64 {
	tid := osutil.Gettid()
	pendingMu.Lock()
	defer pendingMu.Unlock()
	ids := pendingPriority[tid]
	delete(pendingPriority, tid)
	return ids
}

func main() {} // required for -buildmode=c-archive, never actually runs
