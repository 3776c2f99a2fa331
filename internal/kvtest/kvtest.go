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

// Package kvtest opens an in-memory MDBX database pre-configured with the
// state compressor's table set, for use by package tests. It intentionally
// exercises the same kv.RwDB/kv.RwTx surface production code runs against,
// rather than a hand-rolled fake, so tests catch schema and framing bugs a
// mock would hide.
package kvtest

import (
	"testing"

	"github.com/erigontech/erigon-lib/kv"
	"github.com/erigontech/erigon-lib/kv/mdbx"
	"github.com/erigontech/erigon-lib/log/v3"

	"github.com/erigontech/statecompressor/kvschema"
)

// NewDB opens a fresh in-memory MDBX database scoped to tb's lifetime,
// with every table statecompressor uses already declared.
func NewDB(tb testing.TB) kv.RwDB {
	tb.Helper()

	logger := log.New()
	db := mdbx.NewMDBX(logger).
		InMem(tb.TempDir()).
		Label(kv.InMem).
		WithTableCfg(func(kv.TableCfg) kv.TableCfg {
			cfg := make(kv.TableCfg, len(kvschema.Tables))
			for _, name := range kvschema.Tables {
				cfg[name] = kv.TableCfgItem{}
			}
			return cfg
		}).
		MustOpen()

	tb.Cleanup(db.Close)
	return db
}
