// © Copyright 2025-2026, Query.Farm LLC - https://query.farm
// SPDX-License-Identifier: Apache-2.0

package sqlcsv

import (
	"context"
	"database/sql"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	"github.com/Query-farm/csvwire/csvhttp"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	// One connection, or the pool hands out fresh empty in-memory DBs.
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })

	_, err = db.Exec(`CREATE TABLE readings (city TEXT, temp REAL, sensor TEXT)`)
	require.NoError(t, err)
	_, err = db.Exec(`INSERT INTO readings VALUES ('Bergen', 7.5, 's-1'), ('Oslo', 12, NULL)`)
	require.NoError(t, err)
	return db
}

func TestBlockFromRows(t *testing.T) {
	db := openTestDB(t)
	rows, err := db.Query(`SELECT city, temp, sensor FROM readings ORDER BY city`)
	require.NoError(t, err)

	block, err := BlockFromRows(rows)
	require.NoError(t, err)
	msg, err := csvhttp.NewMessage([]csvhttp.MessageBlock{block})
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	require.NoError(t, csvhttp.NewConverter().Write(context.Background(), msg, rec))
	require.Equal(t, "city;temp;sensor\nBergen;7.5;s-1\nOslo;12;\n", rec.Body.String())

	// The result set is closed; the connection is back in the pool.
	var n int
	require.NoError(t, db.QueryRow(`SELECT count(*) FROM readings`).Scan(&n))
	require.Equal(t, 2, n)
}

func TestBlockFromRowsSinglePass(t *testing.T) {
	db := openTestDB(t)
	rows, err := db.Query(`SELECT city FROM readings`)
	require.NoError(t, err)

	block, err := BlockFromRows(rows)
	require.NoError(t, err)
	msg, err := csvhttp.NewMessage([]csvhttp.MessageBlock{block})
	require.NoError(t, err)

	conv := csvhttp.NewConverter()
	require.NoError(t, conv.Write(context.Background(), msg, httptest.NewRecorder()))
	require.ErrorIs(t, conv.Write(context.Background(), msg, httptest.NewRecorder()), csvhttp.ErrRowsConsumed)
}

func TestBlockFromRowsNil(t *testing.T) {
	_, err := BlockFromRows(nil)
	require.ErrorIs(t, err, ErrNilRows)
}

func TestBlockFromRowsClosed(t *testing.T) {
	db := openTestDB(t)
	rows, err := db.Query(`SELECT city FROM readings`)
	require.NoError(t, err)
	require.NoError(t, rows.Close())

	_, err = BlockFromRows(rows)
	require.Error(t, err)
}

func TestBlockFromRowsAbandoned(t *testing.T) {
	db := openTestDB(t)
	rows, err := db.Query(`SELECT city FROM readings`)
	require.NoError(t, err)

	block, err := BlockFromRows(rows)
	require.NoError(t, err)

	// Pair the block with a nil one so the write aborts before streaming.
	msg, err := csvhttp.NewMessage([]csvhttp.MessageBlock{block, nil})
	require.NoError(t, err)
	require.ErrorIs(t, csvhttp.NewConverter().Write(context.Background(), msg, httptest.NewRecorder()), csvhttp.ErrNilBlock)

	// The abort sweep closed the result set, freeing the connection.
	var n int
	require.NoError(t, db.QueryRow(`SELECT count(*) FROM readings`).Scan(&n))
	require.Equal(t, 2, n)
}
