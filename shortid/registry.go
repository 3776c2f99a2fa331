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

// Package shortid implements component A of the state compressor: a
// bijective map between long opaque identifiers (Matrix event IDs,
// (event_type, state_key) tuples, and state-set hashes) and fixed-width
// 64-bit short IDs, persisted in an ordered key-value store. Every lookup
// reads the store; there is no in-memory cache.
package shortid

import (
	"encoding/binary"
	"fmt"
	"sync"

	"github.com/erigontech/erigon-lib/kv"
	"github.com/erigontech/erigon-lib/log/v3"
	"github.com/pkg/errors"

	"github.com/erigontech/statecompressor/kvschema"
)

// ErrNotFound is returned when a short ID is looked up but was never
// assigned. Per spec, this is an internal invariant violation: every
// minted short ID must remain resolvable forever.
var ErrNotFound = errors.New("shortid: not found")

// Kind discriminates the three allocation streams the registry maintains.
// Each Kind has its own monotonic counter and its own bidirectional index,
// so minting an event ID never contends with minting a state hash.
type Kind uint8

const (
	KindEventID Kind = iota
	KindStateKey
	KindStateHash
	kindLen
)

func (k Kind) String() string {
	switch k {
	case KindEventID:
		return "event_id"
	case KindStateKey:
		return "state_key"
	case KindStateHash:
		return "state_hash"
	default:
		return "unknown kind"
	}
}

// Registry is the in-process handle to the short-ID tables. It owns one
// mutex per Kind so that concurrent assignment of, say, event IDs never
// blocks on state-hash assignment (see spec §5).
type Registry struct {
	logger log.Logger

	mu [kindLen]sync.Mutex
}

// New constructs a Registry. The caller's kv transaction is supplied per
// call so the registry never holds a transaction open across unrelated work; this
// matches the dependency-injection shape the rest of the library uses.
func New(logger log.Logger) *Registry {
	return &Registry{logger: logger}
}

// ShortenEventID returns the existing short_event_id for eventID, or mints
// a fresh monotonically increasing one.
func (r *Registry) ShortenEventID(tx kv.RwTx, eventID string) (uint64, error) {
	id, _, err := r.shorten(tx, KindEventID, []byte(eventID), kvschema.EventIDToShort, kvschema.ShortToEventID)
	return id, err
}

// EventIDFromShort resolves a previously minted short_event_id back to its
// event ID. Fails with ErrNotFound if the ID was never issued.
func (r *Registry) EventIDFromShort(tx kv.Tx, short uint64) (string, error) {
	v, err := r.reverseLookup(tx, kvschema.ShortToEventID, short)
	if err != nil {
		return "", err
	}
	return string(v), nil
}

// ShortStateKey returns or assigns the short_state_key for the
// (event_type, state_key) tuple.
func (r *Registry) ShortStateKey(tx kv.RwTx, eventType, stateKey string) (uint64, error) {
	id, _, err := r.shorten(tx, KindStateKey, encodeTuple(eventType, stateKey), kvschema.StateKeyToShort, kvschema.ShortToStateKey)
	return id, err
}

// ShortenStateHash returns or assigns the short_state_hash for a
// deterministic hash of a sorted state set. The second return value tells
// the caller (the snapshot committer) whether the layer engine must be
// invoked: false means this is a brand-new snapshot.
func (r *Registry) ShortenStateHash(tx kv.RwTx, hash [32]byte) (id uint64, existed bool, err error) {
	return r.shorten(tx, KindStateHash, hash[:], kvschema.StateHashToShort, kvschema.ShortToStateHash)
}

// shorten implements the idempotent assign-or-fetch operation shared by
// all three Kinds: look up the forward index, and on a miss, allocate the
// next counter value and write both directions of the index plus the
// advanced counter within the same kv.RwTx. Holding the per-Kind mutex
// across the whole sequence is what makes "exactly one caller observes
// existed=false" true even though the underlying store's per-key write
// discipline alone would not guarantee it for a brand-new key.
func (r *Registry) shorten(tx kv.RwTx, kind Kind, long []byte, forward, reverse string) (id uint64, existed bool, err error) {
	r.mu[kind].Lock()
	defer r.mu[kind].Unlock()

	v, err := tx.GetOne(forward, long)
	if err != nil {
		return 0, false, errors.Wrapf(err, "shortid: lookup %s", kind)
	}
	if v != nil {
		return binary.BigEndian.Uint64(v), true, nil
	}

	next, err := r.nextSequence(tx, kind)
	if err != nil {
		return 0, false, err
	}

	var idBuf [8]byte
	binary.BigEndian.PutUint64(idBuf[:], next)

	if err := tx.Put(forward, long, idBuf[:]); err != nil {
		return 0, false, errors.Wrapf(err, "shortid: persist forward %s", kind)
	}
	if err := tx.Put(reverse, idBuf[:], long); err != nil {
		return 0, false, errors.Wrapf(err, "shortid: persist reverse %s", kind)
	}

	r.logger.Debug("shortid: minted", "kind", kind.String(), "short", next)
	return next, false, nil
}

func (r *Registry) reverseLookup(tx kv.Tx, reverse string, short uint64) ([]byte, error) {
	var idBuf [8]byte
	binary.BigEndian.PutUint64(idBuf[:], short)
	v, err := tx.GetOne(reverse, idBuf[:])
	if err != nil {
		return nil, errors.Wrap(err, "shortid: reverse lookup")
	}
	if v == nil {
		return nil, errors.Wrapf(ErrNotFound, "short id %d", short)
	}
	return v, nil
}

// nextSequence allocates the next counter value for kind, persisting the
// advanced counter in the same transaction. CapacityExceeded (counter
// wraparound) is unrecoverable per spec §7 and panics rather than
// returning an error the caller could paper over.
func (r *Registry) nextSequence(tx kv.RwTx, kind Kind) (uint64, error) {
	key := []byte{byte(kind)}
	v, err := tx.GetOne(kvschema.ShortIDSequence, key)
	if err != nil {
		return 0, errors.Wrapf(err, "shortid: read sequence %s", kind)
	}

	var cur uint64
	if v != nil {
		cur = binary.BigEndian.Uint64(v)
	}
	if cur == ^uint64(0) {
		r.logger.Crit("shortid: sequence exhausted", "kind", kind.String())
		panic(fmt.Sprintf("shortid: %s sequence wrapped around", kind))
	}

	next := cur + 1
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], next)
	if err := tx.Put(kvschema.ShortIDSequence, key, buf[:]); err != nil {
		return 0, errors.Wrapf(err, "shortid: advance sequence %s", kind)
	}
	return next, nil
}

// encodeTuple frames an (event_type, state_key) pair as
// len(event_type) uvarint ‖ event_type ‖ state_key, per kvschema's
// documented StateKeyToShort key shape.
func encodeTuple(eventType, stateKey string) []byte {
	buf := make([]byte, 0, 10+len(eventType)+len(stateKey))
	var lenBuf [binary.MaxVarintLen64]byte
	n := binary.PutUvarint(lenBuf[:], uint64(len(eventType)))
	buf = append(buf, lenBuf[:n]...)
	buf = append(buf, eventType...)
	buf = append(buf, stateKey...)
	return buf
}

// DecodeTuple reverses encodeTuple, for callers that need to recover the
// (event_type, state_key) pair from a ShortToStateKey row.
func DecodeTuple(encoded []byte) (eventType, stateKey string, err error) {
	l, n := binary.Uvarint(encoded)
	if n <= 0 {
		return "", "", errors.New("shortid: corrupt state-key tuple")
	}
	rest := encoded[n:]
	if uint64(len(rest)) < l {
		return "", "", errors.New("shortid: corrupt state-key tuple")
	}
	return string(rest[:l]), string(rest[l:]), nil
}
