// Copyright 2024 syzkaller project authors. All rights reserved.
// Use of this source code is governed by Apache 2 LICENSE that can be found in the LICENSE file.

package main

/*
#include <stdint.h>
#include <stddef.h>

// One module's CFG payload, gob-encoded by the instrumented binary's build
// step (see package cfg) and handed to us as an opaque byte blob.
typedef struct {
	const uint8_t *data;
	size_t len;
	uint32_t sancov_count;
} fuzzer_client_cfg_module;

// One raw sancov feature hit: a process-wide counter index (before
// cross-module remapping) and its saturating hit count.
typedef struct {
	uint32_t sancov_idx;
	uint8_t count;
} fuzzer_client_feature;
*/
import "C"

import (
	"unsafe"

	"github.com/google/fuzvisor/fuzzerengine"
	"github.com/google/fuzvisor/pkg/log"
	"github.com/google/fuzvisor/pkg/osutil"
)

// fuzzer_client_init decodes and concatenates every module's CFG payload,
// registers the merged graph with the Collector Service, and stores the
// resulting fuzzer id for subsequent calls. Returns 0 on success, -1 on
// failure (check the process log for the reason).
//
//export fuzzer_client_init
func fuzzer_client_init(modules *C.fuzzer_client_cfg_module, count C.size_t) C.int {
	n := int(count)
	mods := unsafe.Slice(modules, n)

	payloads := make([][]byte, n)
	counts := make([]uint32, n)
	for i, m := range mods {
		payloads[i] = C.GoBytes(unsafe.Pointer(m.data), C.int(m.len))
		counts[i] = uint32(m.sancov_count)
	}
	if err := initFuzzer(payloads, counts); err != nil {
		log.Logf(0, "fuzzer_client_init: %v", err)
		return -1
	}
	return 0
}

// fuzzer_client_update_features reports one execution's raw sancov feature
// hits for the given corpus input id. Returns 0 on success, -1 on failure.
//
//export fuzzer_client_update_features
func fuzzer_client_update_features(corpusID C.uint64_t, hits *C.fuzzer_client_feature, count C.size_t) C.int {
	n := int(count)
	raw := unsafe.Slice(hits, n)

	converted := make([]fuzzerengine.FeatureHit, n)
	for i, h := range raw {
		converted[i] = fuzzerengine.FeatureHit{SancovIdx: uint32(h.sancov_idx), Count: uint8(h.count)}
	}
	if err := updateFeatures(uint64(corpusID), converted); err != nil {
		log.Logf(0, "fuzzer_client_update_features: %v", err)
		return -1
	}
	return 0
}

// fuzzer_client_get_corpus_priorities drains this OS thread's pending
// priority list into out, up to cap entries, and returns the number of ids
// that exist. If the return value is greater than cap, none are written and
// the caller must retry with a larger buffer, exactly as the ids are not
// dropped until they successfully fit.
//
//export fuzzer_client_get_corpus_priorities
func fuzzer_client_get_corpus_priorities(out *C.uint64_t, cap C.size_t) C.size_t {
	ids := drainPriorities()
	if len(ids) > int(cap) {
		pendingMu.Lock()
		pendingPriority[osutil.Gettid()] = ids
		pendingMu.Unlock()
		return C.size_t(len(ids))
	}
	dst := unsafe.Slice(out, len(ids))
	for i, id := range ids {
		dst[i] = C.uint64_t(id)
	}
	return C.size_t(len(ids))
}
