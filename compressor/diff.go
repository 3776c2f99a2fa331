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
	"encoding/binary"

	"github.com/erigontech/erigon-lib/kv"
	pkgerrors "github.com/pkg/errors"

	"github.com/erigontech/statecompressor/kvschema"
)

// StateDiff is the persisted record for one short_state_hash: its parent
// layer (absent for a root) plus the sets added and removed relative to
// that parent. For a root, Added is the entire state and Removed is
// always empty (spec §3).
type StateDiff struct {
	Parent  *uint64
	Added   *FullState
	Removed *FullState
}

// diffSize is |added| + |removed|, the quantity the layer engine's size
// test and depth-overrun fold operate on.
func (d StateDiff) diffSize() int {
	return d.Added.Len() + d.Removed.Len()
}

// encodeStateDiff serialises d per spec §6:
// parent (8 bytes, 0 = none) ‖ added_len (uvarint) ‖ added_bytes ‖ removed_bytes,
// with each *_bytes section a concatenation of 16-byte CompressedStateEvents
// in ascending order (the decoder does not require that order, but FullState
// already walks ascending, so encoding is deterministic for free).
func encodeStateDiff(d StateDiff) []byte {
	added := d.Added.ToSlice()
	removed := d.Removed.ToSlice()

	buf := make([]byte, 8, 8+binary.MaxVarintLen64+len(added)*16+len(removed)*16)
	if d.Parent != nil {
		binary.BigEndian.PutUint64(buf[0:8], *d.Parent)
	}

	var lenBuf [binary.MaxVarintLen64]byte
	n := binary.PutUvarint(lenBuf[:], uint64(len(added)*16))
	buf = append(buf, lenBuf[:n]...)

	for _, c := range added {
		buf = append(buf, c[:]...)
	}
	for _, c := range removed {
		buf = append(buf, c[:]...)
	}
	return buf
}

// decodeStateDiff reverses encodeStateDiff. A malformed record (short
// buffer, addedLen not a multiple of 16, or a removed section with a
// partial trailing element) is reported as ErrCorruption.
func decodeStateDiff(raw []byte) (StateDiff, error) {
	if len(raw) < 8 {
		return StateDiff{}, pkgerrors.Wrap(ErrCorruption, "state diff record too short")
	}
	parentRaw := binary.BigEndian.Uint64(raw[0:8])
	rest := raw[8:]

	addedLen, n := binary.Uvarint(rest)
	if n <= 0 {
		return StateDiff{}, pkgerrors.Wrap(ErrCorruption, "state diff record: bad added length")
	}
	rest = rest[n:]
	if addedLen%16 != 0 || uint64(len(rest)) < addedLen {
		return StateDiff{}, pkgerrors.Wrap(ErrCorruption, "state diff record: truncated added section")
	}

	addedBytes, removedBytes := rest[:addedLen], rest[addedLen:]
	if len(removedBytes)%16 != 0 {
		return StateDiff{}, pkgerrors.Wrap(ErrCorruption, "state diff record: truncated removed section")
	}

	d := StateDiff{Added: NewFullState(), Removed: NewFullState()}
	if parentRaw != 0 {
		p := parentRaw
		d.Parent = &p
	}
	for i := 0; i < len(addedBytes); i += 16 {
		var c CompressedStateEvent
		copy(c[:], addedBytes[i:i+16])
		d.Added.Add(c)
	}
	for i := 0; i < len(removedBytes); i += 16 {
		var c CompressedStateEvent
		copy(c[:], removedBytes[i:i+16])
		d.Removed.Add(c)
	}
	return d, nil
}

// DiffStore is component C: persistence for StateDiff records keyed by
// short_state_hash.
type DiffStore struct{}

// NewDiffStore constructs a DiffStore. It is stateless; every method takes
// the transaction it runs under explicitly.
func NewDiffStore() *DiffStore { return &DiffStore{} }

// GetStateDiff fetches the StateDiff for h. Fails with ErrNotFound if h was
// never minted — every short_state_hash must have a diff record, so a miss
// here is an internal invariant violation, not an ordinary cache-style miss.
func (s *DiffStore) GetStateDiff(tx kv.Tx, h uint64) (StateDiff, error) {
	key := shortStateHashKey(h)
	raw, err := tx.GetOne(kvschema.StateDiffs, key)
	if err != nil {
		return StateDiff{}, pkgerrors.Wrapf(err, "compressor: get state diff %d", h)
	}
	if raw == nil {
		return StateDiff{}, pkgerrors.Wrapf(ErrNotFound, "state diff %d", h)
	}
	d, err := decodeStateDiff(raw)
	if err != nil {
		return StateDiff{}, pkgerrors.Wrapf(err, "state diff %d", h)
	}
	return d, nil
}

// SaveStateDiff unconditionally upserts the StateDiff for h. The layer
// engine only ever writes the record of the hash being committed; a
// rebalance does not rewrite the records of the ancestors it folds.
func (s *DiffStore) SaveStateDiff(tx kv.RwTx, h uint64, d StateDiff) error {
	if err := tx.Put(kvschema.StateDiffs, shortStateHashKey(h), encodeStateDiff(d)); err != nil {
		return pkgerrors.Wrapf(err, "compressor: save state diff %d", h)
	}
	return nil
}

func shortStateHashKey(h uint64) []byte {
	var key [8]byte
	binary.BigEndian.PutUint64(key[:], h)
	return key[:]
}
