// Copyright 2025-2026, Query.Farm LLC - https://query.farm
// SPDX-License-Identifier: Apache-2.0

// Package csvhttp serializes tabular messages as CSV onto HTTP responses:
// content-type aware, streaming, and write-only.
//
// Data is modeled as a [Message] made of ordered [Block] values; each
// block pairs ordered [Column] definitions with a single-pass [Rows]
// cursor and optional comment lines. A [Converter] turns the message into
// body bytes on an http.ResponseWriter, row by row, holding one row in
// memory at a time.
//
// # Model
//
//   - [Column]: how one field is produced from a row. An optional
//     extractor (nil means the row itself is the cell), an optional
//     header, an optional [csvenc.Processor] formatting the cell.
//     Immutable; derive variants with WithExtractor, WithHeader,
//     WithProcessor.
//   - [Block]: ordered columns over a [Rows] cursor, plus comment lines
//     emitted verbatim before the header. The header record is skipped
//     entirely when no column names one, and processors are resolved once
//     per block.
//   - [Message]: ordered blocks plus response options, a download
//     filename and a BOM flag.
//
// # Writing
//
// [Converter.Write] resolves the body charset from the response
// Content-Type (defaulting to UTF-8), sets the download disposition
// before any body byte, emits the optional byte order mark first, then
// streams every block through a fresh [csvenc.Writer]. Row cursors are
// consumed exactly once; serializing a drained cursor fails with
// [ErrRowsConsumed]. A sink error aborts the remaining rows and
// propagates to the caller; bytes already flushed stay on the wire, and
// every block's row source is closed whether its rows were written or not.
//
// Reading is permanently unsupported: [Converter.Read] always returns
// [ErrReadUnsupported] and [Converter.CanRead] is always false.
//
// # HTTP endpoints
//
// [Handler] exposes a message-producing function as an http.Handler with
// Accept negotiation against [Converter.SupportedMediaTypes], X-Request-ID
// propagation, and optional zstd/gzip response compression.
//
// # Observability
//
// A [WriteHook] observes writes (start/end, statistics, error) without
// touching the data path. The csvhttp/otel subpackage provides an
// OpenTelemetry implementation with traces and metrics.
//
// # Row sources
//
// The sqlcsv and arrowcsv packages adapt database/sql result sets and
// Apache Arrow record batches into blocks.
package csvhttp
