// Copyright 2024 syzkaller project authors. All rights reserved.
// Use of this source code is governed by Apache 2 LICENSE that can be found in the LICENSE file.

package cfg

import "sort"

// Concat merges several per-module graphs into one, renumbering block ids,
// function ids and sancov indices so that every value is unique and
// monotonically ordered across modules. It returns the merged graph plus the
// RemapStart table that RemapSancovIndex needs to translate a raw
// per-process sancov index (as reported by the running binary, which
// concatenates each module's __sancov_guards array back to back at load
// time) into the merged graph's global index space.
func Concat(graphs []Graph, sancovCounts []uint32) (Graph, []RemapStart) {
	var merged Graph
	remap := make([]RemapStart, 0, len(graphs))

	var blockBase, funcBase, sancovBase uint32
	for mi, g := range graphs {
		remap = append(remap, RemapStart{RawStart: sancovBase, Base: sancovBase, Module: mi})

		for _, fn := range g.Functions {
			merged.Functions = append(merged.Functions, Function{
				ID:   fn.ID + funcBase,
				Name: fn.Name,
			})
		}
		for _, b := range g.Blocks {
			nb := BasicBlock{
				ID:        b.ID + blockBase,
				Function:  b.Function + funcBase,
				HasSancov: b.HasSancov,
			}
			if b.HasSancov {
				nb.SancovIdx = b.SancovIdx + sancovBase
			}
			for _, s := range b.Successors {
				nb.Successors = append(nb.Successors, s+blockBase)
			}
			merged.Blocks = append(merged.Blocks, nb)
		}

		blockBase += uint32(len(g.Blocks))
		funcBase += uint32(len(g.Functions))
		if mi < len(sancovCounts) {
			sancovBase += sancovCounts[mi]
		}
	}
	return merged, remap
}

// RemapSancovIndex translates a raw, process-wide sancov counter index into
// the global index space Concat produced, by locating the module whose
// runtime range the raw index falls into (a binary search over remapStarts,
// sorted ascending by RawStart, as Concat produces them) and re-basing the
// within-module offset onto that module's position in the CFG-merged graph.
func RemapSancovIndex(remapStarts []RemapStart, rawIdx uint32) uint32 {
	i := sort.Search(len(remapStarts), func(i int) bool {
		return remapStarts[i].RawStart > rawIdx
	}) - 1
	if i < 0 {
		return rawIdx
	}
	local := rawIdx - remapStarts[i].RawStart
	return remapStarts[i].Base + local
}
