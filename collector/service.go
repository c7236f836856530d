// Copyright 2024 syzkaller project authors. All rights reserved.
// Use of this source code is governed by Apache 2 LICENSE that can be found in the LICENSE file.

// Package collector implements the Collector Service: it owns one Fuzzer
// Engine per connected fuzzer process and forwards the coverage deltas each
// one produces to a shared Observer.
package collector

import (
	"errors"
	"fmt"
	"sync"

	"github.com/google/fuzvisor/cfg"
	"github.com/google/fuzvisor/corpus"
	"github.com/google/fuzvisor/fuzzerengine"
	"github.com/google/fuzvisor/structgraph"
)

// ErrUnknownFuzzer is returned when UpdateFeatures names a fuzzer id that
// CreateFuzzer never issued, or that was since evicted.
var ErrUnknownFuzzer = errors.New("collector: unknown fuzzer id")

// Observer is the subset of *observer.Tracker the Collector Service needs.
// It is an interface, not a concrete type, so the service can be pointed at
// an in-process Observer or at one reached over the network through
// rpcwire's Observer proxy client.
type Observer interface {
	EnsureGraph(g structgraph.Graph)
	UpdateNodes(fuzzerID, corpusID uint64, deltas []fuzzerengine.Delta) corpus.Diff
}

type fuzzerEntry struct {
	mu     sync.Mutex
	engine *fuzzerengine.Fuzzer
}

// Service is the Collector Service. A single coarse lock guards the fuzzer
// id map; each entry then has its own lock so that two different fuzzers'
// Fuzzer Engine updates never wait on each other. The Observer call that
// follows is serialized by the Observer itself.
type Service struct {
	mu      sync.Mutex
	nextID  uint64
	fuzzers map[uint64]*fuzzerEntry

	Tracker Observer
}

// NewService returns a Collector Service backed by tracker.
func NewService(tracker Observer) *Service {
	return &Service{
		fuzzers: make(map[uint64]*fuzzerEntry),
		Tracker: tracker,
	}
}

// CreateFuzzer decodes a single module's already-normalized control-flow
// graph (the fuzzer client is responsible for concatenating multi-module
// CFGs and remapping sancov indices before it ever reaches here), builds a
// structure graph and Fuzzer Engine for it, attaches the structure graph to
// the shared Observer, and returns a new fuzzer id.
func (s *Service) CreateFuzzer(payload []byte) (uint64, error) {
	wp, err := cfg.Decode(payload)
	if err != nil {
		return 0, fmt.Errorf("collector: create fuzzer: %w", err)
	}
	sg := structgraph.Build(wp.Graph)
	s.Tracker.EnsureGraph(sg)
	engine := fuzzerengine.New(sg)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	id := s.nextID
	s.fuzzers[id] = &fuzzerEntry{engine: engine}
	return id, nil
}

// UpdateFeatures folds a batch of raw sancov hits, already remapped into
// global indices by the fuzzer client, into the named fuzzer's Fuzzer
// Engine, forwards the resulting node deltas to the Observer, and returns
// the corpus priority diff for this fuzzer.
func (s *Service) UpdateFeatures(fuzzerID, corpusID uint64, hits []fuzzerengine.FeatureHit) (corpus.Diff, error) {
	s.mu.Lock()
	entry, ok := s.fuzzers[fuzzerID]
	s.mu.Unlock()
	if !ok {
		return corpus.Diff{}, ErrUnknownFuzzer
	}

	entry.mu.Lock()
	defer entry.mu.Unlock()
	deltas := entry.engine.UpdateFeatures(hits)
	return s.Tracker.UpdateNodes(fuzzerID, corpusID, deltas), nil
}

// Evict drops a fuzzer's engine, e.g. once its process has exited. It is
// not an error to evict an id that is already gone.
func (s *Service) Evict(fuzzerID uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.fuzzers, fuzzerID)
}
