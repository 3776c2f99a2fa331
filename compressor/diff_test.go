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

package compressor_test

import (
	"context"
	"testing"

	"github.com/erigontech/erigon-lib/kv"
	"github.com/stretchr/testify/require"

	"github.com/erigontech/statecompressor/compressor"
	"github.com/erigontech/statecompressor/internal/kvtest"
)

func TestSaveAndGetStateDiffRoundTrips(t *testing.T) {
	db := kvtest.NewDB(t)
	store := compressor.NewDiffStore()

	parent := uint64(7)
	want := compressor.StateDiff{
		Parent:  &parent,
		Added:   compressor.NewFullStateFromSlice([]compressor.CompressedStateEvent{compressor.Compress(1, 1)}),
		Removed: compressor.NewFullStateFromSlice([]compressor.CompressedStateEvent{compressor.Compress(2, 2)}),
	}

	require.NoError(t, db.Update(context.Background(), func(tx kv.RwTx) error {
		return store.SaveStateDiff(tx, 42, want)
	}))

	require.NoError(t, db.View(context.Background(), func(tx kv.Tx) error {
		got, err := store.GetStateDiff(tx, 42)
		require.NoError(t, err)
		require.NotNil(t, got.Parent)
		require.Equal(t, *want.Parent, *got.Parent)
		require.ElementsMatch(t, want.Added.ToSlice(), got.Added.ToSlice())
		require.ElementsMatch(t, want.Removed.ToSlice(), got.Removed.ToSlice())
		return nil
	}))
}

func TestGetStateDiffRootHasNilParent(t *testing.T) {
	db := kvtest.NewDB(t)
	store := compressor.NewDiffStore()

	root := compressor.StateDiff{
		Added:   compressor.NewFullStateFromSlice([]compressor.CompressedStateEvent{compressor.Compress(1, 1)}),
		Removed: compressor.NewFullState(),
	}
	require.NoError(t, db.Update(context.Background(), func(tx kv.RwTx) error {
		return store.SaveStateDiff(tx, 1, root)
	}))
	require.NoError(t, db.View(context.Background(), func(tx kv.Tx) error {
		got, err := store.GetStateDiff(tx, 1)
		require.NoError(t, err)
		require.Nil(t, got.Parent)
		return nil
	}))
}

func TestGetStateDiffNotFound(t *testing.T) {
	db := kvtest.NewDB(t)
	store := compressor.NewDiffStore()

	err := db.View(context.Background(), func(tx kv.Tx) error {
		_, err := store.GetStateDiff(tx, 9999)
		return err
	})
	require.ErrorIs(t, err, compressor.ErrNotFound)
}

func TestSaveStateDiffReplacesExisting(t *testing.T) {
	db := kvtest.NewDB(t)
	store := compressor.NewDiffStore()

	first := compressor.StateDiff{Added: compressor.NewFullStateFromSlice([]compressor.CompressedStateEvent{compressor.Compress(1, 1)}), Removed: compressor.NewFullState()}
	second := compressor.StateDiff{Added: compressor.NewFullStateFromSlice([]compressor.CompressedStateEvent{compressor.Compress(2, 2)}), Removed: compressor.NewFullState()}

	require.NoError(t, db.Update(context.Background(), func(tx kv.RwTx) error {
		return store.SaveStateDiff(tx, 5, first)
	}))
	require.NoError(t, db.Update(context.Background(), func(tx kv.RwTx) error {
		return store.SaveStateDiff(tx, 5, second)
	}))
	require.NoError(t, db.View(context.Background(), func(tx kv.Tx) error {
		got, err := store.GetStateDiff(tx, 5)
		require.NoError(t, err)
		require.True(t, got.Added.Has(compressor.Compress(2, 2)))
		require.False(t, got.Added.Has(compressor.Compress(1, 1)))
		return nil
	}))
}
