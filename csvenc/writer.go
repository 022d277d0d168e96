// © Copyright 2025-2026, Query.Farm LLC - https://query.farm
// SPDX-License-Identifier: Apache-2.0

package csvenc

import (
	"fmt"
	"io"
	"unicode/utf8"
)

// Writer emits CSV lines for one serialization pass.
//
// Writer does no buffering of its own: every comment, header and record
// reaches the underlying io.Writer as a single Write call, so a sink that
// fails mid-stream never observes a torn line. Raw sink errors are
// returned as-is.
//
// Construct a fresh Writer per output. The bound [Encoder] carries state
// and must not be shared between writers; NewWriter takes care of that by
// asking the preference for a new one.
type Writer struct {
	w    io.Writer
	pref Preference
	enc  Encoder
	buf  []byte
	line int
	row  int
}

// NewWriter returns a Writer emitting the pref dialect to w.
func NewWriter(w io.Writer, pref Preference) *Writer {
	return &Writer{w: w, pref: pref, enc: pref.newEncoder()}
}

// LineNumber returns how many lines have been written, comments included.
func (w *Writer) LineNumber() int { return w.line }

// RowNumber returns how many header and data records have been written.
func (w *Writer) RowNumber() int { return w.row }

// WriteComment writes line verbatim, followed by the line terminator. No
// encoding or quoting is applied; any comment marker must already be part
// of line.
func (w *Writer) WriteComment(line string) error {
	w.buf = append(w.buf[:0], line...)
	return w.endLine()
}

// WriteHeader writes one encoded header record.
func (w *Writer) WriteHeader(headers ...string) error {
	w.buf = w.buf[:0]
	for i, h := range headers {
		if i > 0 {
			w.buf = utf8.AppendRune(w.buf, w.pref.delimiter)
		}
		w.buf = append(w.buf, w.enc.EncodeCell(h, w.pref)...)
	}
	if err := w.endLine(); err != nil {
		return err
	}
	w.row++
	return nil
}

// Write writes one data record. Nil values become empty cells; other
// values are rendered with [CellString]. A record with no values produces
// an empty line.
func (w *Writer) Write(values ...any) error {
	return w.WriteProcessed(values, nil)
}

// WriteProcessed writes one data record, passing each value through its
// positional processor first. procs may be nil to skip processing
// entirely; a nil entry passes its column through unchanged. A non-nil
// procs must carry one entry per value.
func (w *Writer) WriteProcessed(values []any, procs []Processor) error {
	if procs != nil && len(procs) != len(values) {
		return fmt.Errorf("csvenc: %d processors for %d values", len(procs), len(values))
	}
	w.buf = w.buf[:0]
	for i, v := range values {
		if procs != nil && procs[i] != nil {
			pv, err := procs[i](v)
			if err != nil {
				return fmt.Errorf("csvenc: process column %d: %w", i, err)
			}
			v = pv
		}
		if i > 0 {
			w.buf = utf8.AppendRune(w.buf, w.pref.delimiter)
		}
		w.buf = append(w.buf, w.enc.EncodeCell(CellString(v), w.pref)...)
	}
	if err := w.endLine(); err != nil {
		return err
	}
	w.row++
	return nil
}

func (w *Writer) endLine() error {
	w.buf = append(w.buf, w.pref.eol...)
	if _, err := w.w.Write(w.buf); err != nil {
		return err
	}
	w.line++
	return nil
}
