// © Copyright 2025-2026, Query.Farm LLC - https://query.farm
// SPDX-License-Identifier: Apache-2.0

package csvhttp

import "context"

// WriteHook provides observability callpoints around message writes.
// Implementations must be safe for concurrent use when the converter
// serves concurrent requests. Hook panics are isolated and logged; they
// never corrupt the response.
type WriteHook interface {
	// OnWriteStart runs once the response headers are prepared, before
	// the first body byte. A non-nil returned context replaces ctx for
	// the rest of the write; the token is handed back to OnWriteEnd.
	OnWriteStart(ctx context.Context, info WriteInfo) (context.Context, HookToken)

	// OnWriteEnd runs once the write finished or failed, with the final
	// statistics and the write error, if any.
	OnWriteEnd(ctx context.Context, token HookToken, info WriteInfo, stats *WriteStatistics, err error)
}

// HookToken is an opaque value returned by OnWriteStart and passed back
// to OnWriteEnd. Only meaningful to the WriteHook that created it.
type HookToken interface{}

// WriteInfo carries write metadata passed to hooks.
type WriteInfo struct {
	ContentType string // response content type
	Charset     string // resolved body charset name
	Filename    string // download filename, empty when none
	Blocks      int    // blocks in the message
	RequestID   string // request identifier, empty outside Handler
}

// WriteStatistics holds per-write output counters.
type WriteStatistics struct {
	Blocks        int64 // blocks fully serialized
	CommentLines  int64
	HeaderRecords int64
	Rows          int64 // data records written
	Bytes         int64 // body bytes that reached the sink
}
