// © Copyright 2025-2026, Query.Farm LLC - https://query.farm
// SPDX-License-Identifier: Apache-2.0

package csvhttp

import (
	"fmt"
	"io"
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/ianaindex"
	"golang.org/x/text/transform"
)

const defaultCharsetName = "utf-8"

// charset couples an IANA charset name with its encoding. A nil encoding
// means native UTF-8 passthrough.
type charset struct {
	name string
	enc  encoding.Encoding
}

// resolveCharset maps an IANA charset name to an encoding. An empty name
// resolves to UTF-8. UTF-16 and UTF-32 families are rejected: the body is
// a byte-oriented CSV stream.
func resolveCharset(name string) (charset, error) {
	if name == "" {
		return charset{name: defaultCharsetName}, nil
	}
	lower := strings.ToLower(name)
	if lower == "utf-8" || lower == "utf8" {
		return charset{name: name}, nil
	}
	if strings.HasPrefix(lower, "utf-16") || strings.HasPrefix(lower, "utf-32") {
		return charset{}, fmt.Errorf("%w: %s", ErrUnsupportedCharset, name)
	}
	enc, err := ianaindex.MIME.Encoding(name)
	if err != nil || enc == nil {
		return charset{}, fmt.Errorf("%w: %s", ErrUnsupportedCharset, name)
	}
	return charset{name: name, enc: enc}, nil
}

// newWriter wraps w so UTF-8 text written to the result reaches the sink
// in the charset. Unmappable runes degrade to the encoding's replacement
// character rather than aborting mid-stream. Close flushes the
// transformer; for UTF-8 it is a no-op.
func (cs charset) newWriter(w io.Writer) io.WriteCloser {
	if cs.enc == nil {
		return nopWriteCloser{w}
	}
	return transform.NewWriter(w, encoding.ReplaceUnsupported(cs.enc.NewEncoder()))
}

// encode renders s in the charset, for header parameter values.
func (cs charset) encode(s string) string {
	if cs.enc == nil {
		return s
	}
	out, err := encoding.ReplaceUnsupported(cs.enc.NewEncoder()).String(s)
	if err != nil {
		return s
	}
	return out
}

type nopWriteCloser struct{ io.Writer }

func (nopWriteCloser) Close() error { return nil }
