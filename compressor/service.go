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
	"github.com/prometheus/client_golang/prometheus"

	"github.com/erigontech/statecompressor/kvschema"
	"github.com/erigontech/statecompressor/shortid"
)

// Service is the assembly root: it wires the short-ID registry, diff
// store, stack cache, layer engine and committer into the handles a
// caller actually needs, replacing what a monolithic global-services
// singleton would otherwise hold (spec §9). Callers hold one Service per
// kv.RwDB; there is no hidden global state anywhere in this package.
type Service struct {
	Registry *shortid.Registry
	Store    *DiffStore
	Cache    *StackCache
	Engine   *Engine
	Commit   *Committer
}

// New builds a fully wired Service. cfg.MetricsRegisterer may be nil, in
// which case metrics collection is a no-op throughout.
func New(cfg Config, logger log.Logger) (*Service, error) {
	metrics := NewMetrics(cfg.MetricsRegisterer)

	registry := shortid.New(logger)
	store := NewDiffStore()
	cache, err := NewStackCache(cfg.StateCacheCapacity, metrics)
	if err != nil {
		return nil, err
	}
	engine := NewEngine(store, cache, cfg, logger, metrics)
	committer := NewCommitter(registry, engine, logger, metrics)

	return &Service{
		Registry: registry,
		Store:    store,
		Cache:    cache,
		Engine:   engine,
		Commit:   committer,
	}, nil
}

// NewWithRegisterer is a convenience constructor for callers that already
// have a prometheus.Registerer in hand and want the defaults from
// DefaultConfig otherwise.
func NewWithRegisterer(reg prometheus.Registerer, logger log.Logger) (*Service, error) {
	cfg := DefaultConfig()
	cfg.MetricsRegisterer = reg
	return New(cfg, logger)
}

// ExpandCompressedStateEvent resolves a CompressedStateEvent back to the
// (event_type, state_key, event_id) triple it encodes. This mirrors the
// original Rust implementation's parse_compressed_state_event, which the
// distilled spec omitted: reconstructing full state from a stack of
// CompressedStateEvents is only useful to a caller that can turn each one
// back into a real Matrix event reference.
func (s *Service) ExpandCompressedStateEvent(tx kv.Tx, c CompressedStateEvent) (eventType, stateKey, eventID string, err error) {
	shortStateKey, shortEventID := Decode(c)

	eventID, err = s.Registry.EventIDFromShort(tx, shortEventID)
	if err != nil {
		return "", "", "", err
	}

	var keyBuf [8]byte
	binary.BigEndian.PutUint64(keyBuf[:], shortStateKey)
	raw, err := tx.GetOne(kvschema.ShortToStateKey, keyBuf[:])
	if err != nil {
		return "", "", "", err
	}
	if raw == nil {
		return "", "", "", ErrNotFound
	}
	eventType, stateKey, err = shortid.DecodeTuple(raw)
	if err != nil {
		return "", "", "", err
	}
	return eventType, stateKey, eventID, nil
}
