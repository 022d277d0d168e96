// © Copyright 2025-2026, Query.Farm LLC - https://query.farm
// SPDX-License-Identifier: Apache-2.0

package csvenc

// Preference describes a CSV dialect: the quote character, the cell
// delimiter, the line terminator, and the quoting policy for cells with
// surrounding whitespace. Preferences are immutable values; the WithX
// methods return modified copies.
//
// Start from one of the stock preferences. The zero Preference has no
// delimiter or line terminator and is rejected by consumers.
type Preference struct {
	quote      rune
	delimiter  rune
	eol        string
	spaceQuote bool
	encoder    func() Encoder
}

// Stock preferences, mirroring the dialects spreadsheet tools produce.
var (
	// Standard is the RFC 4180 dialect: comma delimited, CRLF terminated.
	Standard = Preference{quote: '"', delimiter: ',', eol: "\r\n"}

	// Excel is comma delimited with bare LF line endings.
	Excel = Preference{quote: '"', delimiter: ',', eol: "\n"}

	// ExcelNorthEurope is semicolon delimited with bare LF line endings,
	// the Excel dialect for locales where the comma is the decimal
	// separator.
	ExcelNorthEurope = Preference{quote: '"', delimiter: ';', eol: "\n"}

	// Tab is tab delimited with bare LF line endings.
	Tab = Preference{quote: '"', delimiter: '\t', eol: "\n"}
)

// Quote returns the quote character.
func (p Preference) Quote() rune { return p.quote }

// Delimiter returns the cell delimiter.
func (p Preference) Delimiter() rune { return p.delimiter }

// EOL returns the line terminator.
func (p Preference) EOL() string { return p.eol }

// SurroundingSpacesNeedQuotes reports whether cells with leading or
// trailing spaces are forced into quotes. The stock preferences leave such
// cells bare.
func (p Preference) SurroundingSpacesNeedQuotes() bool { return p.spaceQuote }

// WithQuote returns a copy of p using q as the quote character.
func (p Preference) WithQuote(q rune) Preference {
	p.quote = q
	return p
}

// WithDelimiter returns a copy of p using d as the cell delimiter.
func (p Preference) WithDelimiter(d rune) Preference {
	p.delimiter = d
	return p
}

// WithEOL returns a copy of p using eol as the line terminator.
func (p Preference) WithEOL(eol string) Preference {
	p.eol = eol
	return p
}

// WithSurroundingSpacesNeedQuotes returns a copy of p with the
// surrounding-space quoting policy set to v.
func (p Preference) WithSurroundingSpacesNeedQuotes(v bool) Preference {
	p.spaceQuote = v
	return p
}

// WithEncoderFunc returns a copy of p whose writers obtain their cell
// encoder from fn instead of the default. fn is invoked once per
// [NewWriter] call so that encoder state is never shared between writers.
func (p Preference) WithEncoderFunc(fn func() Encoder) Preference {
	p.encoder = fn
	return p
}

// Valid reports whether p carries a quote character, a delimiter and a
// line terminator.
func (p Preference) Valid() bool {
	return p.quote != 0 && p.delimiter != 0 && p.eol != ""
}

// newEncoder returns a fresh encoder bound to nothing else.
func (p Preference) newEncoder() Encoder {
	if p.encoder != nil {
		return p.encoder()
	}
	return &defaultEncoder{}
}
