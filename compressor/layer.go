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
	"github.com/RoaringBitmap/roaring/v2/roaring64"
	"github.com/erigontech/erigon-lib/kv"
	"github.com/erigontech/erigon-lib/log/v3"
	pkgerrors "github.com/pkg/errors"
)

// Engine is component D: the layer engine. It reconstructs parent-stacks
// (LoadStack) and decides, on every commit, whether a new layer stands on
// its own or folds into an ancestor (SaveStateFromDiff), per spec §4.4.
type Engine struct {
	store   *DiffStore
	cache   *StackCache
	cfg     Config
	logger  log.Logger
	metrics *Metrics
}

// NewEngine wires a layer engine against a diff store and stack cache.
func NewEngine(store *DiffStore, cache *StackCache, cfg Config, logger log.Logger, metrics *Metrics) *Engine {
	return &Engine{store: store, cache: cache, cfg: cfg, logger: logger, metrics: metrics}
}

// LoadStack reconstructs the full parent chain for h, root first, h last.
// Each StackEntry's Full is the complete state at that layer; Added/Removed
// are the layer's own diff relative to its parent (the root's Added is the
// entire state, Removed empty).
//
// A hit in the stack cache returns immediately. Reconstruction walks parent
// pointers from h towards the root, so the recursion here works top-down:
// loadStack(h) first resolves loadStack(parent), then applies h's own diff
// on top of the parent's Full.
func (e *Engine) LoadStack(tx kv.Tx, h uint64) ([]StackEntry, error) {
	return e.loadStack(tx, h, roaring64.New())
}

func (e *Engine) loadStack(tx kv.Tx, h uint64, visited *roaring64.Bitmap) ([]StackEntry, error) {
	if cached, ok := e.cache.Get(h); ok {
		return cached, nil
	}

	if visited.Contains(h) {
		return nil, pkgerrors.Wrapf(ErrCorruption, "state diff %d: cyclic parent chain", h)
	}
	visited.Add(h)
	if visited.GetCardinality() > uint64(e.cfg.MaxLayerDepth)+1 {
		return nil, pkgerrors.Wrapf(ErrCorruption, "state diff %d: parent chain exceeds max depth %d", h, e.cfg.MaxLayerDepth)
	}

	diff, err := e.store.GetStateDiff(tx, h)
	if err != nil {
		return nil, err
	}

	if diff.Parent == nil {
		stack := []StackEntry{{
			ShortStateHash: h,
			Full:           diff.Added,
			Added:          diff.Added,
			Removed:        diff.Removed,
		}}
		e.cache.Put(h, stack)
		return stack, nil
	}

	if *diff.Parent >= h {
		return nil, pkgerrors.Wrapf(ErrCorruption, "state diff %d: parent %d is not older", h, *diff.Parent)
	}

	parentStack, err := e.loadStack(tx, *diff.Parent, visited)
	if err != nil {
		return nil, err
	}

	full := parentStack[len(parentStack)-1].Full.Clone()
	diff.Added.Each(func(c CompressedStateEvent) bool {
		full.Add(c)
		return true
	})
	diff.Removed.Each(func(c CompressedStateEvent) bool {
		full.Remove(c)
		return true
	})

	stack := make([]StackEntry, len(parentStack), len(parentStack)+1)
	copy(stack, parentStack)
	stack = append(stack, StackEntry{
		ShortStateHash: h,
		Full:           full,
		Added:          diff.Added,
		Removed:        diff.Removed,
	})
	e.cache.Put(h, stack)
	return stack, nil
}

// SaveStateFromDiff persists the diff (added, removed) for the new layer h,
// deciding where in parentStack (root first, nearest parent last) it should
// actually attach. diffToSibling is the advisory weight used by the size
// test; the committer passes the constant initialDiffToSibling (2) for a
// fresh commit, and after every fold it becomes the size
// len(added)+len(removed) of the diff as it stood before that fold.
//
// The loop below is the iterative form of spec §4.4.2's decision tree: each
// iteration either commits (returns) or folds the current diff into the
// nearest parent and retries one layer further up. A fold always targets
// the layer actually being committed (h); popped ancestors keep their own
// on-disk StateDiff untouched (spec §4.5) — only h's record is ever written.
func (e *Engine) SaveStateFromDiff(tx kv.RwTx, h uint64, added, removed FullStateHandle, diffToSibling int, parentStack []StackEntry) error {
	for {
		diffSum := added.Len() + removed.Len()

		if len(parentStack) > e.cfg.DepthOverrunAt {
			parent := parentStack[len(parentStack)-1]
			parentStack = parentStack[:len(parentStack)-1]
			added, removed = foldSymmetricDiff(parent.Added, parent.Removed, added, removed)
			diffToSibling = diffSum
			e.metrics.rebalance()
			continue
		}

		if len(parentStack) == 0 {
			e.metrics.observeDepth(0)
			return e.store.SaveStateDiff(tx, h, StateDiff{Added: added, Removed: removed})
		}

		parent := parentStack[len(parentStack)-1]
		parentDiffSize := parent.Added.Len() + parent.Removed.Len()
		if diffSum*diffSum >= e.cfg.SizeRatioNumerator*diffToSibling*parentDiffSize {
			parentStack = parentStack[:len(parentStack)-1]
			added, removed = foldSymmetricDiff(parent.Added, parent.Removed, added, removed)
			diffToSibling = diffSum
			e.metrics.rebalance()
			continue
		}

		parentHash := parent.ShortStateHash
		e.metrics.observeDepth(len(parentStack))
		return e.store.SaveStateDiff(tx, h, StateDiff{Parent: &parentHash, Added: added, Removed: removed})
	}
}

// foldSymmetricDiff merges a child's (added, removed) into its parent's own
// (added, removed), producing the diff the child would have had if it had
// been computed directly against the parent's parent (spec §4.4.3).
//
// A removal that cancels something the parent itself added is dropped
// rather than propagated, and an addition that cancels something the
// parent itself removed is dropped the same way — both sides of the fold
// only ever shrink or rewrite the parent's sets, never grow a set with an
// element already cancelled out on the other side.
func foldSymmetricDiff(parentAdded, parentRemoved, childAdded, childRemoved FullStateHandle) (newAdded, newRemoved FullStateHandle) {
	added := parentAdded.Clone()
	removed := parentRemoved.Clone()

	childRemoved.Each(func(c CompressedStateEvent) bool {
		if added.Has(c) {
			added.Remove(c)
		} else {
			removed.Add(c)
		}
		return true
	})
	childAdded.Each(func(c CompressedStateEvent) bool {
		if removed.Has(c) {
			removed.Remove(c)
		} else {
			added.Add(c)
		}
		return true
	})

	return added, removed
}
