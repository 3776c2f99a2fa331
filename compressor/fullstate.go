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

import "github.com/google/btree"

const btreeDegree = 32

// FullState is an ordered set of CompressedStateEvents, backed by a
// google/btree so iteration (and therefore the codec's lexicographic
// byte order) walks short_state_key-major, matching the grouping the
// wire encoding exploits per spec §4.2. FullState is the materialised
// state at one layer of the diff chain.
//
// A FullState is shared, not copied, between the stack cache and any
// caller holding a stack returned by LoadStack: btree.Clone is O(1)
// copy-on-write, so taking a Clone is cheap and mutating a Clone never
// disturbs the FullState it was taken from. Holders of the same pointer
// do see each other's mutations, which is why published FullStates are
// never mutated in place.
type FullState struct {
	tree *btree.BTreeG[CompressedStateEvent]
}

// NewFullState returns an empty FullState.
func NewFullState() *FullState {
	return &FullState{tree: btree.NewG(btreeDegree, CompressedStateEvent.Less)}
}

// Clone returns a FullState that can be mutated independently of the
// receiver, in O(1), via the underlying btree's copy-on-write clone.
func (s *FullState) Clone() *FullState {
	return &FullState{tree: s.tree.Clone()}
}

// Has reports whether c is a member.
func (s *FullState) Has(c CompressedStateEvent) bool {
	_, ok := s.tree.Get(c)
	return ok
}

// Add inserts c, a no-op if already present.
func (s *FullState) Add(c CompressedStateEvent) {
	s.tree.ReplaceOrInsert(c)
}

// Remove deletes c, a no-op if absent. Reports whether c had been present.
func (s *FullState) Remove(c CompressedStateEvent) bool {
	_, ok := s.tree.Delete(c)
	return ok
}

// Len returns the number of elements.
func (s *FullState) Len() int {
	return s.tree.Len()
}

// Each calls fn for every element in ascending byte order, stopping early
// if fn returns false.
func (s *FullState) Each(fn func(CompressedStateEvent) bool) {
	s.tree.Ascend(func(c CompressedStateEvent) bool {
		return fn(c)
	})
}

// ToSlice materialises the set in ascending order.
func (s *FullState) ToSlice() []CompressedStateEvent {
	out := make([]CompressedStateEvent, 0, s.Len())
	s.Each(func(c CompressedStateEvent) bool {
		out = append(out, c)
		return true
	})
	return out
}

// NewFullStateFromSlice builds a FullState from an unordered slice,
// deduplicating as google/btree would on repeated inserts.
func NewFullStateFromSlice(events []CompressedStateEvent) *FullState {
	s := NewFullState()
	for _, c := range events {
		s.Add(c)
	}
	return s
}

// Difference returns the elements of s not present in other: s ∖ other.
func (s *FullState) Difference(other *FullState) *FullState {
	out := NewFullState()
	s.Each(func(c CompressedStateEvent) bool {
		if !other.Has(c) {
			out.Add(c)
		}
		return true
	})
	return out
}

// FullStateHandle is the refcounted-in-spirit handle aliased between
// cache entries and caller-held stacks (spec §9). In Go, sharing is just
// sharing a pointer: the GC reclaims a FullState once every handle
// referencing it is gone, so no explicit atomic counter is kept — adding
// one would duplicate bookkeeping the runtime already does for free (see
// DESIGN.md). Writers never mutate a published FullStateHandle in place;
// they always start from Clone().
type FullStateHandle = *FullState
