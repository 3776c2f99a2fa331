// Copyright 2026 The statecompressor Authors
// This file is part of statecompressor.
//
// statecompressor is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// statecompressor is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with statecompressor. If not, see <http://www.gnu.org/licenses/>.

package compressor

import (
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
)

// StackEntry is one layer of a materialised parent-stack: the layer's own
// short_state_hash, its full state at that layer, and the added/removed
// sets that produced it relative to its parent (spec §4.4.1).
type StackEntry struct {
	ShortStateHash uint64
	Full           FullStateHandle
	Added          FullStateHandle
	Removed        FullStateHandle
}

// StackCache is component E: a bounded LRU of reconstructed parent-stacks,
// keyed by short_state_hash. It is advisory — a miss only costs a
// recursive walk through the diff store, never a correctness problem,
// because a stored StateDiff's (added, removed) content never changes
// once written (spec §4.5).
type StackCache struct {
	mu      sync.Mutex
	lru     *lru.Cache[uint64, []StackEntry]
	metrics *Metrics
}

// NewStackCache builds a StackCache with room for capacity entries.
func NewStackCache(capacity int, metrics *Metrics) (*StackCache, error) {
	l, err := lru.New[uint64, []StackEntry](capacity)
	if err != nil {
		return nil, err
	}
	return &StackCache{lru: l, metrics: metrics}, nil
}

// Get returns a clone of the cached stack for h, if present. Locking is
// held only across the LRU lookup; the clone itself runs outside the
// critical section, per spec §5.
func (c *StackCache) Get(h uint64) ([]StackEntry, bool) {
	c.mu.Lock()
	stack, ok := c.lru.Get(h)
	c.mu.Unlock()

	if !ok {
		c.metrics.cacheMiss()
		return nil, false
	}
	c.metrics.cacheHit()
	return cloneStack(stack), true
}

// Put inserts a clone of stack under h, evicting the least-recently-used
// entry if the cache is full.
func (c *StackCache) Put(h uint64, stack []StackEntry) {
	cloned := cloneStack(stack)
	c.mu.Lock()
	c.lru.Add(h, cloned)
	c.mu.Unlock()
}

// cloneStack copies the entry slice; each StackEntry's FullStateHandle
// fields are shared, not deep-copied — FullStates are never mutated in
// place once published (writers always start from Clone()), so aliasing
// them between cache and caller is safe.
func cloneStack(stack []StackEntry) []StackEntry {
	out := make([]StackEntry, len(stack))
	copy(out, stack)
	return out
}
