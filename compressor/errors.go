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

import "github.com/pkg/errors"

// Error kinds, per spec §7. None of these are locally retried: the
// compressor's write paths are idempotent (the existed check on every
// short-hash assignment), so a whole Commit may be retried safely by the
// caller after any failure that did not reach the point of persisting a
// new StateDiff.
var (
	// ErrNotFound means a short ID or a StateDiff was looked up but is not
	// present. Every minted short_state_hash must have a diff record; a
	// miss here is an internal invariant violation, not a normal miss.
	ErrNotFound = errors.New("compressor: not found")

	// ErrCorruption means a StateDiff record failed to decode, or a cycle
	// was detected while walking a parent chain.
	ErrCorruption = errors.New("compressor: corruption")

	// ErrCapacityExceeded names a short-ID counter wraparound. This is
	// unrecoverable: shortid.Registry panics on wraparound and no method in
	// this package recovers that panic, so no function here returns this
	// sentinel.
	ErrCapacityExceeded = errors.New("compressor: short id capacity exceeded")
)

// Backend errors (I/O failures from the underlying kv.RwDB) are not
// replaced by a sentinel: they propagate with only a context message added
// (github.com/pkg/errors wrapping), so the caller can distinguish its own storage failures from compressor-raised
// ones with a plain errors.As/errors.Is against its own backend error
// types.
