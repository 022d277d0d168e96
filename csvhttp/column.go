// © Copyright 2025-2026, Query.Farm LLC - https://query.farm
// SPDX-License-Identifier: Apache-2.0

package csvhttp

import "github.com/Query-farm/csvwire/csvenc"

// Column describes how one CSV field is produced from a row of type T: an
// optional extractor pulling the cell out of the row, an optional header,
// and an optional processor formatting the cell before encoding.
//
// All three parts are independent and optional. A column without an
// extractor emits the row value itself. A column without a header stays
// anonymous; an empty header is still a header and occupies a slot in the
// block's header record. A column without a processor emits its cell
// unchanged.
//
// Columns are immutable values; the WithX methods return modified copies
// and never touch the receiver. The zero Column is usable.
type Column[T any] struct {
	extract   func(T) any
	header    string
	hasHeader bool
	proc      csvenc.Processor
}

// NewColumn returns a column extracting its cell with extract. A nil
// extract means the row value itself is the cell.
func NewColumn[T any](extract func(T) any) Column[T] {
	return Column[T]{extract: extract}
}

// WithExtractor returns a copy of c using extract for cell extraction.
func (c Column[T]) WithExtractor(extract func(T) any) Column[T] {
	c.extract = extract
	return c
}

// WithHeader returns a copy of c carrying the given header.
func (c Column[T]) WithHeader(header string) Column[T] {
	c.header = header
	c.hasHeader = true
	return c
}

// WithProcessor returns a copy of c formatting its cells with p.
func (c Column[T]) WithProcessor(p csvenc.Processor) Column[T] {
	c.proc = p
	return c
}

// Extractor returns the cell extractor, nil when the column emits the row
// value itself.
func (c Column[T]) Extractor() func(T) any { return c.extract }

// Header returns the column header and whether one is set.
func (c Column[T]) Header() (string, bool) { return c.header, c.hasHeader }

// Processor returns the cell processor, nil when none is set.
func (c Column[T]) Processor() csvenc.Processor { return c.proc }
