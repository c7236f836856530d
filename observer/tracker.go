// Copyright 2024 syzkaller project authors. All rights reserved.
// Use of this source code is governed by Apache 2 LICENSE that can be found in the LICENSE file.

// Package observer maintains the process-wide coverage picture that every
// connected fuzzer's deltas feed into: which structure-graph nodes and
// functions are covered, the current coverage frontier, per-node hit
// frequency, and the per-fuzzer corpus priorities derived from it.
package observer

import (
	"sort"
	"sync"

	"github.com/google/fuzvisor/corpus"
	"github.com/google/fuzvisor/fuzzerengine"
	"github.com/google/fuzvisor/structgraph"
)

type nodeState struct {
	function            int
	covered             bool
	uncoveredSuccessors int
}

type functionState struct {
	name         string
	coveredNodes int
}

// frontierEntry records which corpus ids, from which fuzzer, are credited
// with having reached a frontier node, so a priority policy can translate
// "this node is a good lead" into "these corpus ids are worth prioritizing."
type frontierEntry struct {
	owners map[uint64]map[uint64]bool // fuzzerID -> corpus ids
}

// Tracker is the Observer: one instance per instrumented binary, shared by
// every fuzzer process that reports coverage for it. It is safe for
// concurrent use.
type Tracker struct {
	mu sync.Mutex

	graph     structgraph.Graph
	nodes     []nodeState
	freq      []uint64
	functions []functionState

	coveredNodes     int
	coveredFunctions int

	frontier map[int]*frontierEntry

	policy Policy
	prios  map[uint64]*corpus.PriorityTracker
	sinks  []Sink
}

// NewTracker returns an Observer with no graph yet attached; EnsureGraph
// must be called (normally by the Collector Service, once per connecting
// fuzzer) before UpdateNodes is used.
func NewTracker(policy Policy) *Tracker {
	if policy == nil {
		policy = WeightedPolicy{}
	}
	return &Tracker{
		policy: policy,
		prios:  make(map[uint64]*corpus.PriorityTracker),
	}
}

// AddSink registers a coverage-change observer, e.g. the console printer or
// the Prometheus exporter.
func (t *Tracker) AddSink(s Sink) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.sinks = append(t.sinks, s)
}

// EnsureGraph attaches the shared structure graph the first time a fuzzer
// of this binary connects. Every later call is a no-op, whatever graph it
// passes: every fuzzer of the same binary reports against identical node
// indices.
func (t *Tracker) EnsureGraph(g structgraph.Graph) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.nodes != nil {
		return
	}
	t.graph = g
	t.nodes = make([]nodeState, len(g.Nodes))
	t.freq = make([]uint64, len(g.Nodes))
	t.functions = make([]functionState, len(g.Functions))
	for i, n := range g.Nodes {
		t.nodes[i].function = n.Function
	}
	for i, fn := range g.Functions {
		t.functions[i].name = fn.Name
	}
	t.frontier = make(map[int]*frontierEntry)
}

// priorityTracker returns (creating if necessary) the corpus priority
// tracker for one fuzzer.
func (t *Tracker) priorityTracker(fuzzerID uint64) *corpus.PriorityTracker {
	pt, ok := t.prios[fuzzerID]
	if !ok {
		pt = corpus.NewPriorityTracker()
		t.prios[fuzzerID] = pt
	}
	return pt
}

// UpdateNodes folds one fuzzer's coverage deltas into the shared graph
// state and returns that fuzzer's updated corpus priority diff.
//
// For every node that newly became covered: the owning function's
// covered-node count is bumped (and, on the function's first covered node,
// the global covered-function count); the node itself enters the frontier
// if any of its successors is not yet covered; every predecessor, if covered, has its uncovered-successor count
// decremented, dropping out of the frontier once it reaches zero. The
// fuzzer/corpus id pair that produced the delta is recorded as an owner of
// any frontier node it touches, feeding the priority policy.
func (t *Tracker) UpdateNodes(fuzzerID, corpusID uint64, deltas []fuzzerengine.Delta) corpus.Diff {
	t.mu.Lock()
	defer t.mu.Unlock()

	coveredBefore := t.coveredNodes
	for _, d := range deltas {
		t.applyDelta(fuzzerID, corpusID, d.NodeIndex)
	}
	next := t.policy.Derive(t, fuzzerID)
	pt := t.priorityTracker(fuzzerID)
	diff := pt.Reconcile(next)

	if t.coveredNodes == coveredBefore {
		return diff
	}
	for _, s := range t.sinks {
		s.CoverageChanged(Summary{
			CoveredNodes:     t.coveredNodes,
			TotalNodes:       len(t.nodes),
			CoveredFunctions: t.coveredFunctions,
			TotalFunctions:   len(t.functions),
			FrontierSize:     len(t.frontier),
		})
	}
	return diff
}

func (t *Tracker) applyDelta(fuzzerID, corpusID uint64, idx int) {
	if idx < 0 || idx >= len(t.nodes) {
		return
	}
	t.freq[idx]++
	n := &t.nodes[idx]
	if n.covered {
		if _, ok := t.frontier[idx]; ok {
			t.addFrontier(idx, fuzzerID, corpusID)
		}
		return
	}
	n.covered = true
	t.coveredNodes++

	fn := &t.functions[n.function]
	fn.coveredNodes++
	if fn.coveredNodes == 1 {
		t.coveredFunctions++
	}

	uncovered := 0
	for _, succ := range t.graph.Nodes[idx].Successors {
		if !t.nodes[succ].covered {
			uncovered++
		}
	}
	n.uncoveredSuccessors = uncovered
	if uncovered > 0 {
		t.addFrontier(idx, fuzzerID, corpusID)
	}

	for _, pred := range t.graph.Nodes[idx].Predecessors {
		if pred == idx {
			continue // a self-loop was already excluded from the count above
		}
		pn := &t.nodes[pred]
		if !pn.covered || pn.uncoveredSuccessors == 0 {
			continue
		}
		pn.uncoveredSuccessors--
		if pn.uncoveredSuccessors == 0 {
			delete(t.frontier, pred)
		}
	}
}

func (t *Tracker) addFrontier(idx int, fuzzerID, corpusID uint64) {
	entry, ok := t.frontier[idx]
	if !ok {
		entry = &frontierEntry{owners: make(map[uint64]map[uint64]bool)}
		t.frontier[idx] = entry
	}
	corpora, ok := entry.owners[fuzzerID]
	if !ok {
		corpora = make(map[uint64]bool)
		entry.owners[fuzzerID] = corpora
	}
	corpora[corpusID] = true
}

// frontierNodesSorted returns frontier node indices sorted ascending by hit
// frequency, the order both shipped priority policies reason about.
func (t *Tracker) frontierNodesSorted() []int {
	nodes := make([]int, 0, len(t.frontier))
	for idx := range t.frontier {
		nodes = append(nodes, idx)
	}
	sort.Slice(nodes, func(i, j int) bool { return t.freq[nodes[i]] < t.freq[nodes[j]] })
	return nodes
}

// Summary is a point-in-time readout of the coverage state, passed to Sinks.
type Summary struct {
	CoveredNodes     int
	TotalNodes       int
	CoveredFunctions int
	TotalFunctions   int
	FrontierSize     int
}

// Sink receives a Summary every time UpdateNodes changes coverage state.
type Sink interface {
	CoverageChanged(Summary)
}
