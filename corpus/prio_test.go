// Copyright 2024 syzkaller project authors. All rights reserved.
// Use of this source code is governed by Apache 2 LICENSE that can be found in the LICENSE file.

package corpus

import (
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestReconcileReportsAddedAndDropped(t *testing.T) {
	pt := NewPriorityTracker()

	d := pt.Reconcile(map[uint64]bool{1: true, 2: true})
	sort.Slice(d.Added, func(i, j int) bool { return d.Added[i] < d.Added[j] })
	assert.Equal(t, []uint64{1, 2}, d.Added)
	assert.Empty(t, d.Dropped)

	d = pt.Reconcile(map[uint64]bool{2: true, 3: true})
	assert.Equal(t, []uint64{3}, d.Added)
	assert.Equal(t, []uint64{1}, d.Dropped)

	assert.Equal(t, 2, pt.Len())
}

func TestReconcileEmptyToEmpty(t *testing.T) {
	pt := NewPriorityTracker()
	d := pt.Reconcile(map[uint64]bool{})
	assert.Empty(t, d.Added)
	assert.Empty(t, d.Dropped)
}
