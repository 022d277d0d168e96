// © Copyright 2025-2026, Query.Farm LLC - https://query.farm
// SPDX-License-Identifier: Apache-2.0

package csvhttp

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/Query-farm/csvwire/csvenc"
)

// Media types the converter produces.
const (
	MediaTypeCSV     = "text/csv"
	MediaTypeCSVUTF8 = "text/csv; charset=utf-8"
)

const utf8BOM = "\ufeff"

// Converter serializes [Message] values as CSV onto HTTP responses.
//
// A Converter holds only immutable dialect configuration (plus an
// optional hook) and is reusable across sequential writes. A single write
// owns its sink and is single-threaded; nothing concurrent touches one
// response.
type Converter struct {
	pref csvenc.Preference
	hook WriteHook
}

// NewConverter returns a converter using the semicolon-delimited
// [csvenc.ExcelNorthEurope] dialect.
func NewConverter() *Converter {
	return &Converter{pref: csvenc.ExcelNorthEurope}
}

// NewConverterWithPreference returns a converter using the given dialect.
// It panics when pref lacks a quote, delimiter or line terminator.
func NewConverterWithPreference(pref csvenc.Preference) *Converter {
	if !pref.Valid() {
		panic("csvhttp: preference lacks a quote, delimiter or line terminator")
	}
	return &Converter{pref: pref}
}

// Preference returns the converter's dialect.
func (c *Converter) Preference() csvenc.Preference { return c.pref }

// SetWriteHook installs h around subsequent writes and returns c for
// chaining.
func (c *Converter) SetWriteHook(h WriteHook) *Converter {
	c.hook = h
	return c
}

// SupportedMediaTypes lists the media types the converter can produce, in
// preference order. They are write-only declarations; see [Converter.Read].
func (c *Converter) SupportedMediaTypes() []string {
	return []string{MediaTypeCSVUTF8, MediaTypeCSV}
}

// CanWrite reports whether the converter can produce mediaType. The empty
// media type and wildcards are accepted.
func (c *Converter) CanWrite(mediaType string) bool {
	if mediaType == "" {
		return true
	}
	mt, _, err := mime.ParseMediaType(mediaType)
	if err != nil {
		return false
	}
	switch mt {
	case "*/*", "text/*", "text/csv":
		return true
	}
	return false
}

// CanRead reports whether the converter can parse mediaType. It cannot:
// CSV messages are write-only.
func (c *Converter) CanRead(string) bool { return false }

// Read always fails with [ErrReadUnsupported], regardless of the request.
func (c *Converter) Read(*http.Request) (*Message, error) {
	return nil, ErrReadUnsupported
}

// Write serializes msg onto w.
//
// The body charset comes from the charset parameter of w's Content-Type
// header; when the header is unset it is set to [MediaTypeCSVUTF8] first.
// All response headers, the download disposition included, are final
// before the first body byte. Once rows are streaming, a sink failure
// aborts the remaining rows and propagates unwrapped; bytes already
// flushed stay on the wire. Every block's row source is closed before
// Write returns, written or not.
func (c *Converter) Write(ctx context.Context, msg *Message, w http.ResponseWriter) (err error) {
	if w == nil {
		return ErrNilSink
	}
	if msg == nil {
		return ErrNilMessage
	}
	// Row sources are released on every exit path, aborts included.
	defer func() {
		for _, b := range msg.blocks {
			if b != nil {
				_ = b.closeRows()
			}
		}
	}()
	for _, b := range msg.blocks {
		if b == nil {
			return ErrNilBlock
		}
		if cerr := b.check(); cerr != nil {
			return cerr
		}
	}

	contentType := w.Header().Get("Content-Type")
	if contentType == "" {
		contentType = MediaTypeCSVUTF8
		w.Header().Set("Content-Type", contentType)
	}
	cs, err := charsetOf(contentType)
	if err != nil {
		return err
	}

	if msg.filename != "" {
		w.Header().Set("Content-Disposition", contentDisposition(msg.filename, cs))
	}

	info := WriteInfo{
		ContentType: contentType,
		Charset:     cs.name,
		Filename:    msg.filename,
		Blocks:      len(msg.blocks),
		RequestID:   RequestIDFrom(ctx),
	}

	var token HookToken
	hookActive := false
	if c.hook != nil {
		func() {
			defer func() {
				if rv := recover(); rv != nil {
					slog.Error("write hook start panic", "err", rv)
				}
			}()
			var hookCtx context.Context
			hookCtx, token = c.hook.OnWriteStart(ctx, info)
			if hookCtx != nil {
				ctx = hookCtx
			}
			hookActive = true
		}()
	}

	counting := &countingWriter{w: w}
	body := cs.newWriter(counting)
	stats := &WriteStatistics{}

	defer func() {
		if cerr := body.Close(); cerr != nil && err == nil {
			err = cerr
		}
		stats.Bytes = counting.n
		if hookActive {
			c.endHook(ctx, token, info, stats, err)
		}
	}()

	// Fresh grammar writer per invocation; encoder state never crosses
	// writes.
	cw := csvenc.NewWriter(body, c.pref)

	if msg.withBOM {
		if _, err = io.WriteString(body, utf8BOM); err != nil {
			return err
		}
	}

	for _, b := range msg.blocks {
		if err = b.write(cw, stats); err != nil {
			return err
		}
		stats.Blocks++
	}
	return nil
}

// endHook fires OnWriteEnd, isolating hook panics from the data path.
func (c *Converter) endHook(ctx context.Context, token HookToken, info WriteInfo, stats *WriteStatistics, err error) {
	defer func() {
		if rv := recover(); rv != nil {
			slog.Error("write hook end panic", "err", rv)
		}
	}()
	c.hook.OnWriteEnd(ctx, token, info, stats, err)
}

// charsetOf resolves the charset parameter of a content type.
func charsetOf(contentType string) (charset, error) {
	_, params, err := mime.ParseMediaType(contentType)
	if err != nil {
		return charset{}, fmt.Errorf("csvhttp: parse content type %q: %w", contentType, err)
	}
	return resolveCharset(params["charset"])
}

// contentDisposition builds the download header value. ASCII filenames
// use the plain quoted form; anything else gets the RFC 5987 extended
// form, percent-encoding the filename rendered in the response charset.
func contentDisposition(filename string, cs charset) string {
	if isASCII(filename) {
		return `attachment; filename="` + quoteEscape(filename) + `"`
	}
	return "attachment; filename*=" + cs.name + "''" + percentEncode(cs.encode(filename))
}

func isASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] >= utf8.RuneSelf || s[i] < 0x20 {
			return false
		}
	}
	return true
}

func quoteEscape(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	return strings.ReplaceAll(s, `"`, `\"`)
}

// percentEncode escapes every byte outside the RFC 5987 attr-char set.
func percentEncode(s string) string {
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		if isAttrChar(s[i]) {
			b.WriteByte(s[i])
		} else {
			fmt.Fprintf(&b, "%%%02X", s[i])
		}
	}
	return b.String()
}

func isAttrChar(c byte) bool {
	switch {
	case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9':
		return true
	}
	switch c {
	case '!', '#', '$', '&', '+', '-', '.', '^', '_', '`', '|', '~':
		return true
	}
	return false
}

// countingWriter counts the body bytes that reached the sink.
type countingWriter struct {
	w io.Writer
	n int64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += int64(n)
	return n, err
}
