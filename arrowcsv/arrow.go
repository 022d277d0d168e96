// © Copyright 2025-2026, Query.Farm LLC - https://query.farm
// SPDX-License-Identifier: Apache-2.0

// Package arrowcsv bridges Arrow record batches into csvhttp blocks.
package arrowcsv

import (
	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"

	"github.com/Query-farm/csvwire/csvhttp"
)

// BlockFromRecord builds a block over rec: one column per schema field,
// headers from the field names, rows in record order. Null cells
// serialize as empty cells.
//
// The record is retained until the block has been written or abandoned;
// the caller's own reference stays valid. A nil rec yields a block the
// converter rejects.
func BlockFromRecord(rec arrow.Record) *csvhttp.Block[int] {
	if rec == nil {
		return csvhttp.NewBlock[int](nil, nil)
	}
	rec.Retain()

	schema := rec.Schema()
	cols := make([]csvhttp.Column[int], rec.NumCols())
	for i := range cols {
		col := rec.Column(i)
		cols[i] = csvhttp.NewColumn(func(row int) any { return cellValue(col, row) }).
			WithHeader(schema.Field(i).Name)
	}

	n := int(rec.NumRows())
	row := 0
	next := func() (int, bool) {
		if row >= n {
			return 0, false
		}
		r := row
		row++
		return r, true
	}
	fin := func() error {
		rec.Release()
		return nil
	}
	return csvhttp.NewBlock(cols, csvhttp.RowsFromFunc(next, fin))
}

// cellValue extracts one Go value from an Arrow column. Types without a
// direct mapping fall back to the column's string rendering, so binary
// columns come out base64 and temporal columns in their Arrow text form.
func cellValue(col arrow.Array, idx int) any {
	if col.IsNull(idx) {
		return nil
	}
	switch c := col.(type) {
	case *array.String:
		return c.Value(idx)
	case *array.LargeString:
		return c.Value(idx)
	case *array.Int8:
		return c.Value(idx)
	case *array.Int16:
		return c.Value(idx)
	case *array.Int32:
		return c.Value(idx)
	case *array.Int64:
		return c.Value(idx)
	case *array.Uint8:
		return c.Value(idx)
	case *array.Uint16:
		return c.Value(idx)
	case *array.Uint32:
		return c.Value(idx)
	case *array.Uint64:
		return c.Value(idx)
	case *array.Float32:
		return c.Value(idx)
	case *array.Float64:
		return c.Value(idx)
	case *array.Boolean:
		return c.Value(idx)
	case *array.Dictionary:
		if dict, ok := c.Dictionary().(*array.String); ok {
			return dict.Value(c.GetValueIndex(idx))
		}
		return c.ValueStr(idx)
	default:
		return c.ValueStr(idx)
	}
}
