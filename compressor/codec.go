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

// Package compressor implements the layered state-diff compressor for a
// Matrix homeserver: the compressed state-event encoding (component B),
// the diff store (C), the layer engine (D), the stack cache (E) and the
// snapshot committer (F).
package compressor

import "encoding/binary"

// CompressedStateEvent is the 16-byte re-interpretation of a
// (short_state_key, short_event_id) pair: big-endian
// short_state_key ‖ short_event_id. It is a fixed-size array, never a
// slice, so Compress/Decode never allocate.
type CompressedStateEvent [16]byte

// Compress concatenates shortStateKey and shortEventID, big-endian, into
// a CompressedStateEvent. Lexicographic order on the resulting bytes
// groups events by shortStateKey first; the diff store writes its sets in
// that order, though its decoder does not depend on it.
func Compress(shortStateKey, shortEventID uint64) CompressedStateEvent {
	var c CompressedStateEvent
	binary.BigEndian.PutUint64(c[0:8], shortStateKey)
	binary.BigEndian.PutUint64(c[8:16], shortEventID)
	return c
}

// Decode splits a CompressedStateEvent back into its short_state_key and
// short_event_id.
func Decode(c CompressedStateEvent) (shortStateKey, shortEventID uint64) {
	return binary.BigEndian.Uint64(c[0:8]), binary.BigEndian.Uint64(c[8:16])
}

// ShortStateKey returns the short_state_key half of c without decoding
// the event half, for callers that only need to group or filter by key.
func (c CompressedStateEvent) ShortStateKey() uint64 {
	return binary.BigEndian.Uint64(c[0:8])
}

// ShortEventID returns the short_event_id half of c.
func (c CompressedStateEvent) ShortEventID() uint64 {
	return binary.BigEndian.Uint64(c[8:16])
}

// Less orders CompressedStateEvents lexicographically on their byte
// representation, satisfying google/btree's ordering contract and
// matching the order in which the diff store writes its sets.
func (c CompressedStateEvent) Less(than CompressedStateEvent) bool {
	for i := range c {
		if c[i] != than[i] {
			return c[i] < than[i]
		}
	}
	return false
}
