// © Copyright 2025-2026, Query.Farm LLC - https://query.farm
// SPDX-License-Identifier: Apache-2.0

// Package csvenc implements the CSV grammar used when serializing tabular
// messages: dialect [Preference] values, cell encoding, cell [Processor]
// functions, and a line-oriented [Writer].
//
// csvenc is not a wrapper around encoding/csv. The quoting policy here
// follows spreadsheet dialects: cells with surrounding spaces stay unquoted
// unless the preference demands otherwise, comment lines are emitted
// verbatim, and the quote character, delimiter and line terminator are all
// configurable per preference.
package csvenc
