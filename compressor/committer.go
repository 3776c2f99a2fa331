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
	"github.com/erigontech/erigon-lib/log/v3"
	pkgerrors "github.com/pkg/errors"
	"golang.org/x/crypto/sha3"

	"github.com/erigontech/statecompressor/kvschema"
)

// initialDiffToSibling is the advisory weight the committer hands to the
// layer engine for every fresh commit (spec §4.4.2, §4.6 step 7): "each
// state change in the source layer is worth ~2 diff entries", since a
// membership change typically rewrites both the old and new m.room.member
// event.
const initialDiffToSibling = 2

// Committer is component F: it turns a room's newly-computed full state
// into a persisted short_state_hash, delegating the layer placement
// decision to the Engine. It is the only component that invents a new
// short_state_hash value.
type Committer struct {
	registry StateHasher
	engine   *Engine
	logger   log.Logger
	metrics  *Metrics
}

// StateHasher shortens a 32-byte state-set hash into a short_state_hash,
// reporting whether that hash was already known. It is satisfied by
// *shortid.Registry; the narrower interface keeps Committer decoupled from
// the rest of shortid's surface.
type StateHasher interface {
	ShortenStateHash(tx kv.RwTx, hash [32]byte) (id uint64, existed bool, err error)
}

// NewCommitter wires a Committer against a StateHasher and layer engine.
func NewCommitter(registry StateHasher, engine *Engine, logger log.Logger, metrics *Metrics) *Committer {
	return &Committer{registry: registry, engine: engine, logger: logger, metrics: metrics}
}

// SaveState commits newState as the current state of roomID (spec §4.6). It
// returns the resulting short_state_hash along with the (added, removed)
// sets actually computed relative to the room's previous state — these are
// what a caller diffs against the room's prior FullStateHandle to know what
// changed.
//
// Steps, matching spec §4.6:
//  1. Hash newState's sorted compressed-event bytes with Keccak-256.
//  2. Shorten that hash, getting H_new and whether it was already minted
//     anywhere (existed) — this is distinct from whether it equals the
//     room's own previous short_state_hash, checked next.
//  3. Look up the room's previous short_state_hash. If it equals H_new,
//     the room's state truly hasn't changed: return with no writes.
//  4. Otherwise reconstruct the room's previous full state (empty if the
//     room has none yet) and diff it against newState.
//  5. If H_new already existed, its StateDiff was written by whichever
//     commit minted it first; skip the engine call, since a second write
//     under the same hash would be redundant (and the engine has no
//     record of the room's own chain position to fold against). If H_new
//     is brand new, hand (added, removed) to the layer engine, which
//     decides where in the room's existing stack it attaches.
//  6. Persist the room's new short_state_hash pointer.
func (c *Committer) SaveState(tx kv.RwTx, roomID string, newState *FullState) (hNew uint64, added, removed *FullState, err error) {
	hash := hashFullState(newState)
	hNew, existed, err := c.registry.ShortenStateHash(tx, hash)
	if err != nil {
		return 0, nil, nil, pkgerrors.Wrapf(err, "compressor: commit state for room %q", roomID)
	}

	roomKey := []byte(roomID)
	prevRaw, err := tx.GetOne(kvschema.RoomShortStateHash, roomKey)
	if err != nil {
		return 0, nil, nil, pkgerrors.Wrapf(err, "compressor: read previous state for room %q", roomID)
	}

	var hPrev uint64
	var havePrev bool
	if prevRaw != nil {
		hPrev = decodeShortHash(prevRaw)
		havePrev = true
	}

	if havePrev && hPrev == hNew {
		return hNew, NewFullState(), NewFullState(), nil
	}

	var prevFull *FullState
	var stack []StackEntry
	if havePrev {
		stack, err = c.engine.LoadStack(tx, hPrev)
		if err != nil {
			return 0, nil, nil, err
		}
		prevFull = stack[len(stack)-1].Full
	} else {
		prevFull = NewFullState()
	}

	added = newState.Difference(prevFull)
	removed = prevFull.Difference(newState)

	if !existed {
		if !havePrev {
			if err := c.engine.store.SaveStateDiff(tx, hNew, StateDiff{Added: newState, Removed: NewFullState()}); err != nil {
				return 0, nil, nil, err
			}
		} else if err := c.engine.SaveStateFromDiff(tx, hNew, added, removed, initialDiffToSibling, stack); err != nil {
			return 0, nil, nil, err
		}
	}

	if err := tx.Put(kvschema.RoomShortStateHash, roomKey, encodeShortHash(hNew)); err != nil {
		return 0, nil, nil, pkgerrors.Wrapf(err, "compressor: repoint room %q", roomID)
	}
	return hNew, added, removed, nil
}

// hashFullState computes a Keccak-256 digest over the state set's sorted
// 16-byte elements, giving the same hash for any two sets containing the
// same events regardless of insertion order.
func hashFullState(s *FullState) [32]byte {
	hw := sha3.NewLegacyKeccak256()
	s.Each(func(c CompressedStateEvent) bool {
		hw.Write(c[:])
		return true
	})
	var out [32]byte
	copy(out[:], hw.Sum(nil))
	return out
}

func encodeShortHash(h uint64) []byte {
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], h)
	return buf[:]
}

func decodeShortHash(raw []byte) uint64 {
	return binary.BigEndian.Uint64(raw)
}
