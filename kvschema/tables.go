// Copyright 2024 The Erigon Authors
// (original work)
// Copyright 2026 The statecompressor Authors
// (modifications)
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

// Package kvschema names the tables (MDBX sub-databases) the state
// compressor keeps inside the host's ordered key-value store, and
// documents the key/value framing of each one. Naming and doc-comment
// style follows erigon-lib/kv's table catalogue: one exported string
// constant per table, a same-line comment giving the key -> value shape.
package kvschema

const (
	// StateDiffs holds one record per minted short_state_hash.
	// shortstatehash_u64_be -> StateDiff record (parent u64_be, 0=none ‖ added_len uvarint ‖ added_bytes ‖ removed_bytes)
	StateDiffs = "StateDiffs"

	// RoomShortStateHash tracks, per room, the short_state_hash of its
	// current state. Populated and consulted by the snapshot committer (F)
	// so save_state can find "the room's previous short_state_hash"
	// without a sibling rooms.state service.
	// room_id -> shortstatehash_u64_be
	RoomShortStateHash = "RoomShortStateHash"

	// EventIDToShort and ShortToEventID form the bidirectional short_event_id index.
	// event_id -> shorteventid_u64_be
	EventIDToShort = "EventIDToShort"
	// shorteventid_u64_be -> event_id
	ShortToEventID = "ShortToEventID"

	// StateKeyToShort and ShortToStateKey form the bidirectional short_state_key index.
	// The forward key is the (event_type, state_key) tuple encoded as
	// len(event_type) uvarint ‖ event_type ‖ state_key.
	// encoded_tuple -> shortstatekey_u64_be
	StateKeyToShort = "StateKeyToShort"
	// shortstatekey_u64_be -> encoded_tuple
	ShortToStateKey = "ShortToStateKey"

	// StateHashToShort and ShortToStateHash form the bidirectional short_state_hash index.
	// state_hash (32 bytes) -> shortstatehash_u64_be
	StateHashToShort = "StateHashToShort"
	// shortstatehash_u64_be -> state_hash (32 bytes)
	ShortToStateHash = "ShortToStateHash"

	// ShortIDSequence stores the monotonic allocation counter for each Kind
	// of short ID, one row per kind, in the same spirit as Erigon's
	// Sequence table (tbl_name -> seq_u64).
	// kind_byte -> last_issued_id_u64
	ShortIDSequence = "ShortIDSequence"
)

// Tables lists every sub-database this package owns, for callers that open
// the backing kv.RwDB themselves and need to declare the full table set
// up front (mirrors erigon-lib/kv's TableCfg pattern).
var Tables = []string{
	StateDiffs,
	RoomShortStateHash,
	EventIDToShort,
	ShortToEventID,
	StateKeyToShort,
	ShortToStateKey,
	StateHashToShort,
	ShortToStateHash,
	ShortIDSequence,
}
