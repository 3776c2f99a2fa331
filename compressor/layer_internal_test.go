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

import "testing"

func TestFoldSymmetricDiffCancelsOverlap(t *testing.T) {
	one, two, three, four, five := Compress(1, 1), Compress(2, 2), Compress(3, 3), Compress(4, 4), Compress(5, 5)

	parentAdded := NewFullStateFromSlice([]CompressedStateEvent{one, two})
	parentRemoved := NewFullStateFromSlice([]CompressedStateEvent{three})
	childAdded := NewFullStateFromSlice([]CompressedStateEvent{three, four})
	childRemoved := NewFullStateFromSlice([]CompressedStateEvent{one, five})

	newAdded, newRemoved := foldSymmetricDiff(parentAdded, parentRemoved, childAdded, childRemoved)

	if newAdded.Has(one) {
		t.Fatal("child removing a parent addition should cancel it, not carry it into removed")
	}
	if newRemoved.Has(three) {
		t.Fatal("child adding a parent removal should cancel it, not duplicate the addition")
	}
	if !newAdded.Has(two) || !newAdded.Has(four) {
		t.Fatal("unrelated additions from both sides must survive the fold")
	}
	if !newRemoved.Has(five) {
		t.Fatal("child removal of an event the parent never added must propagate")
	}
}

func TestFoldSymmetricDiffLeavesInputsUntouched(t *testing.T) {
	one := Compress(1, 1)
	parentAdded := NewFullStateFromSlice([]CompressedStateEvent{one})
	parentRemoved := NewFullState()
	childAdded := NewFullState()
	childRemoved := NewFullStateFromSlice([]CompressedStateEvent{one})

	_, _ = foldSymmetricDiff(parentAdded, parentRemoved, childAdded, childRemoved)

	if !parentAdded.Has(one) {
		t.Fatal("foldSymmetricDiff must not mutate the parent's own sets in place")
	}
}
