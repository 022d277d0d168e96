// © Copyright 2025-2026, Query.Farm LLC - https://query.farm
// SPDX-License-Identifier: Apache-2.0

// Package sqlcsv bridges database/sql result sets into csvhttp blocks.
package sqlcsv

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/Query-farm/csvwire/csvhttp"
)

// ErrNilRows reports a nil *sql.Rows handed to [BlockFromRows].
var ErrNilRows = errors.New("sqlcsv: nil rows")

// BlockFromRows builds a block streaming the result set: one column per
// result column, headers from the column names, rows scanned lazily as
// the serializer pulls them. []byte cells are converted to string so
// text read back from drivers without type information stays readable.
//
// The block owns rows from here on: they are closed when the block has
// been written or abandoned, and a deferred scan or iteration error
// surfaces from the write.
func BlockFromRows(rows *sql.Rows) (*csvhttp.Block[[]any], error) {
	if rows == nil {
		return nil, ErrNilRows
	}
	names, err := rows.Columns()
	if err != nil {
		_ = rows.Close()
		return nil, fmt.Errorf("sqlcsv: column names: %w", err)
	}

	cols := make([]csvhttp.Column[[]any], len(names))
	for i, name := range names {
		idx := i
		cols[i] = csvhttp.NewColumn(func(row []any) any { return row[idx] }).WithHeader(name)
	}

	var scanErr error
	next := func() ([]any, bool) {
		if scanErr != nil || !rows.Next() {
			return nil, false
		}
		values := make([]any, len(names))
		ptrs := make([]any, len(names))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			scanErr = fmt.Errorf("sqlcsv: scan row: %w", err)
			return nil, false
		}
		for i, v := range values {
			if b, ok := v.([]byte); ok {
				values[i] = string(b)
			}
		}
		return values, true
	}
	fin := func() error {
		cerr := rows.Close()
		if scanErr != nil {
			return scanErr
		}
		if err := rows.Err(); err != nil {
			return fmt.Errorf("sqlcsv: iterate rows: %w", err)
		}
		return cerr
	}
	return csvhttp.NewBlock(cols, csvhttp.RowsFromFunc(next, fin)), nil
}
