// © Copyright 2025-2026, Query.Farm LLC - https://query.farm
// SPDX-License-Identifier: Apache-2.0

package csvhttp

import "github.com/Query-farm/csvwire/csvenc"

// MessageBlock is the type-erased view of a [Block] carried by a
// [Message], letting one message mix blocks of different row types. Its
// methods are unexported; the serializer is the only consumer.
type MessageBlock interface {
	check() error
	write(w *csvenc.Writer, stats *WriteStatistics) error
	closeRows() error
}

// Block is one table segment of a message: ordered columns over a
// single-pass row cursor, plus optional comment lines emitted verbatim
// before the header.
type Block[T any] struct {
	cols    []Column[T]
	rows    *Rows[T]
	comment []string
}

// NewBlock returns a block serializing rows through columns, in column
// order. Zero columns is legal; every row then serializes to an empty
// line.
func NewBlock[T any](columns []Column[T], rows *Rows[T]) *Block[T] {
	return &Block[T]{cols: append([]Column[T](nil), columns...), rows: rows}
}

// SetComments sets the comment lines written before the block's header
// and returns b for chaining. Lines are emitted verbatim: no encoding, no
// quoting, any comment marker included.
func (b *Block[T]) SetComments(lines ...string) *Block[T] {
	b.comment = append([]string(nil), lines...)
	return b
}

// Columns returns a copy of the block's columns.
func (b *Block[T]) Columns() []Column[T] {
	return append([]Column[T](nil), b.cols...)
}

// Comments returns a copy of the block's comment lines.
func (b *Block[T]) Comments() []string {
	return append([]string(nil), b.comment...)
}

// Headers derives the block's header record. The record is empty when no
// column carries a header; otherwise it holds one slot per column, with
// headerless columns contributing empty slots.
func (b *Block[T]) Headers() []string {
	present := false
	for _, c := range b.cols {
		if c.hasHeader {
			present = true
			break
		}
	}
	if !present {
		return nil
	}
	hs := make([]string, len(b.cols))
	for i, c := range b.cols {
		hs[i] = c.header
	}
	return hs
}

// Processors derives the block's cell processors. The slice is empty when
// no column carries a processor; otherwise it holds one slot per column,
// nil for columns without one.
func (b *Block[T]) Processors() []csvenc.Processor {
	present := false
	for _, c := range b.cols {
		if c.proc != nil {
			present = true
			break
		}
	}
	if !present {
		return nil
	}
	ps := make([]csvenc.Processor, len(b.cols))
	for i, c := range b.cols {
		ps[i] = c.proc
	}
	return ps
}

// Mappers returns one extractor per column, substituting the identity
// function for columns without one.
func (b *Block[T]) Mappers() []func(T) any {
	ms := make([]func(T) any, len(b.cols))
	for i, c := range b.cols {
		if c.extract != nil {
			ms[i] = c.extract
		} else {
			ms[i] = func(row T) any { return row }
		}
	}
	return ms
}

func (b *Block[T]) check() error {
	if b.rows == nil {
		return ErrNilRows
	}
	if b.rows.consumed {
		return ErrRowsConsumed
	}
	return nil
}

// closeRows releases the cursor's underlying source without serializing
// anything. Idempotent; the serializer sweeps every block with it so
// aborted writes do not strand row sources in later blocks.
func (b *Block[T]) closeRows() error {
	if b.rows == nil {
		return nil
	}
	return b.rows.close()
}

// write serializes the block: comments, then the header record when the
// block has one, then every row. Processors are derived once for the
// whole block, not per row. The cursor is claimed before the first line,
// so a block whose rows are already consumed contributes no bytes at all.
func (b *Block[T]) write(w *csvenc.Writer, stats *WriteStatistics) error {
	if err := b.rows.acquire(); err != nil {
		return err
	}
	defer b.rows.close()

	for _, line := range b.comment {
		if err := w.WriteComment(line); err != nil {
			return err
		}
		stats.CommentLines++
	}
	if hs := b.Headers(); len(hs) > 0 {
		if err := w.WriteHeader(hs...); err != nil {
			return err
		}
		stats.HeaderRecords++
	}

	procs := b.Processors()
	mappers := b.Mappers()

	values := make([]any, len(mappers))
	for {
		row, ok := b.rows.next()
		if !ok {
			break
		}
		for i, m := range mappers {
			values[i] = m(row)
		}
		if err := w.WriteProcessed(values, procs); err != nil {
			return err
		}
		stats.Rows++
	}
	return b.rows.close()
}
