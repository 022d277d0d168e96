// © Copyright 2025-2026, Query.Farm LLC - https://query.farm
// SPDX-License-Identifier: Apache-2.0

package csvenc

import (
	"strings"
	"unicode/utf8"
)

// Encoder turns one cell into its on-wire form under a preference.
//
// Encoders may carry per-stream state (the default one reuses an internal
// scratch buffer) and must not be shared between writers. [NewWriter]
// obtains a fresh instance for every writer it builds.
type Encoder interface {
	EncodeCell(cell string, pref Preference) string
}

// defaultEncoder quotes a cell when it contains the quote character, the
// delimiter, or a line break, or when the preference forces quotes around
// surrounding whitespace. Embedded quotes are doubled and embedded line
// breaks are normalized to the preference line terminator.
type defaultEncoder struct {
	buf []byte
}

func (e *defaultEncoder) EncodeCell(cell string, pref Preference) string {
	if !needsQuotes(cell, pref) {
		return cell
	}

	buf := utf8.AppendRune(e.buf[:0], pref.quote)
	i := 0
	for i < len(cell) {
		r, size := utf8.DecodeRuneInString(cell[i:])
		i += size
		switch r {
		case pref.quote:
			buf = utf8.AppendRune(buf, pref.quote)
			buf = utf8.AppendRune(buf, pref.quote)
		case '\r':
			buf = append(buf, pref.eol...)
			// \r\n counts as a single break
			if i < len(cell) && cell[i] == '\n' {
				i++
			}
		case '\n':
			buf = append(buf, pref.eol...)
		default:
			buf = utf8.AppendRune(buf, r)
		}
	}
	buf = utf8.AppendRune(buf, pref.quote)
	e.buf = buf
	return string(buf)
}

func needsQuotes(cell string, pref Preference) bool {
	if cell == "" {
		return false
	}
	if strings.ContainsRune(cell, pref.quote) ||
		strings.ContainsRune(cell, pref.delimiter) ||
		strings.ContainsAny(cell, "\r\n") {
		return true
	}
	if pref.spaceQuote {
		return cell[0] == ' ' || cell[len(cell)-1] == ' '
	}
	return false
}
