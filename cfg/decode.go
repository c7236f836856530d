// Copyright 2024 syzkaller project authors. All rights reserved.
// Use of this source code is governed by Apache 2 LICENSE that can be found in the LICENSE file.

package cfg

import (
	"bytes"
	"encoding/gob"
	"fmt"
)

// WirePayload is the format a fuzzer client sends a module's CFG in: the
// gob-encoded Graph plus that module's raw sancov counter count, needed by
// Concat to compute the next module's base offset.
type WirePayload struct {
	Graph       Graph
	SancovCount uint32
	ModuleName  string
}

// Decode parses a single module's wire payload. It never panics on
// malformed input; structural problems come back as a *DecodeError.
func Decode(data []byte) (WirePayload, error) {
	var p WirePayload
	dec := gob.NewDecoder(bytes.NewReader(data))
	if err := dec.Decode(&p); err != nil {
		return WirePayload{}, &DecodeError{Reason: fmt.Sprintf("gob: %v", err)}
	}
	if err := p.Graph.Validate(); err != nil {
		return WirePayload{}, err
	}
	return p, nil
}

// Encode is the inverse of Decode, used by tests and by the fuzzer client
// shim to send its merged graph to the Collector Service.
func Encode(p WirePayload) ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(p); err != nil {
		return nil, fmt.Errorf("cfg: encode: %w", err)
	}
	return buf.Bytes(), nil
}

// Normalize decodes every module's payload, validates it, and concatenates
// them into one process-wide Graph via Concat. This is the Normalizer
// described as accepting "one CFG payload per instrumented module" and
// producing a single merged graph plus its sancov remap table.
func Normalize(payloads [][]byte) (Graph, []RemapStart, error) {
	graphs := make([]Graph, 0, len(payloads))
	counts := make([]uint32, 0, len(payloads))
	for i, data := range payloads {
		p, err := Decode(data)
		if err != nil {
			return Graph{}, nil, fmt.Errorf("module %d: %w", i, err)
		}
		graphs = append(graphs, p.Graph)
		counts = append(counts, p.SancovCount)
	}
	merged, remap := Concat(graphs, counts)
	if err := merged.Validate(); err != nil {
		return Graph{}, nil, err
	}
	return merged, remap, nil
}
