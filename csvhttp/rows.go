// © Copyright 2025-2026, Query.Farm LLC - https://query.farm
// SPDX-License-Identifier: Apache-2.0

package csvhttp

import (
	"iter"
	"sync"
)

// Rows is a single-pass, forward-only cursor over the rows of one block.
//
// The serializer consumes a cursor exactly once; a message whose cursor
// was already drained fails with [ErrRowsConsumed] instead of silently
// emitting nothing. Build a fresh message, with fresh cursors, for every
// response.
type Rows[T any] struct {
	next func() (T, bool)
	fin  func() error

	consumed  bool
	closeOnce sync.Once
	closeErr  error
}

// RowsOf returns a cursor over the given values.
func RowsOf[T any](values ...T) *Rows[T] {
	i := 0
	return &Rows[T]{next: func() (T, bool) {
		if i >= len(values) {
			var zero T
			return zero, false
		}
		v := values[i]
		i++
		return v, true
	}}
}

// RowsFromSeq returns a cursor pulling rows lazily from seq.
func RowsFromSeq[T any](seq iter.Seq[T]) *Rows[T] {
	next, stop := iter.Pull(seq)
	return &Rows[T]{
		next: next,
		fin: func() error {
			stop()
			return nil
		},
	}
}

// RowsFromFunc returns a cursor reading rows from next until it reports
// false. fin, when non-nil, runs exactly once after the serializer is
// done with the cursor, drained or aborted; adapters use it to release
// the underlying source and to surface a deferred read error.
func RowsFromFunc[T any](next func() (T, bool), fin func() error) *Rows[T] {
	return &Rows[T]{next: next, fin: fin}
}

// acquire claims the cursor for one serialization pass.
func (r *Rows[T]) acquire() error {
	if r.consumed {
		return ErrRowsConsumed
	}
	r.consumed = true
	return nil
}

// close runs fin once; later calls return the remembered result. A closed
// cursor counts as consumed: its source is gone, so serializing it again
// must fail loudly rather than read past the release.
func (r *Rows[T]) close() error {
	r.consumed = true
	r.closeOnce.Do(func() {
		if r.fin != nil {
			r.closeErr = r.fin()
		}
	})
	return r.closeErr
}
