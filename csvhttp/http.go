package csvhttp

import (
	"context"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
)

// Handler serves a message-producing function as one HTTP endpoint, with
// Accept negotiation, request identifiers, and optional response
// compression in front of a [Converter].
type Handler struct {
	conv             *Converter
	produce          func(*http.Request) (*Message, error)
	compressionLevel int
}

// NewHandler returns a handler answering requests with the message built
// by produce. Compression starts disabled; see [Handler.SetCompressionLevel].
func NewHandler(conv *Converter, produce func(*http.Request) (*Message, error)) *Handler {
	return &Handler{conv: conv, produce: produce}
}

// SetCompressionLevel enables Accept-Encoding negotiation (zstd preferred
// over gzip) at the given level. Zero or below disables compression.
func (h *Handler) SetCompressionLevel(level int) {
	h.compressionLevel = level
}

// ServeHTTP implements http.Handler.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	mediaType, ok := h.negotiate(r)
	if !ok {
		http.Error(w, "acceptable media types: "+strings.Join(h.conv.SupportedMediaTypes(), ", "),
			http.StatusNotAcceptable)
		return
	}

	requestID := r.Header.Get("X-Request-ID")
	if requestID == "" {
		requestID = uuid.NewString()
	}
	w.Header().Set("X-Request-ID", requestID)
	ctx := withRequestID(r.Context(), requestID)

	msg, err := h.produce(r.WithContext(ctx))
	if err != nil {
		slog.Error("csv message producer failed", "err", err, "path", r.URL.Path, "request_id", requestID)
		http.Error(w, "failed to produce response", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", mediaType)

	sink, finish := h.newSink(w, r)
	err = h.conv.Write(ctx, msg, sink)
	if err != nil && !sink.wrote {
		// No body bytes sent yet; the status line is still ours. Closing
		// the compressor into w would commit it, so discard instead.
		_ = finish(false)
		slog.Error("csv write failed", "err", err, "path", r.URL.Path, "request_id", requestID)
		w.Header().Del("Content-Encoding")
		w.Header().Del("Content-Disposition")
		http.Error(w, "csv serialization failed", http.StatusInternalServerError)
		return
	}
	if cerr := finish(true); cerr != nil && err == nil {
		err = cerr
	}
	if err != nil {
		slog.Error("csv write failed", "err", err, "path", r.URL.Path, "request_id", requestID)
	}
}

// negotiate picks the response content type from the Accept header: the
// acceptable member with the highest q wins, ties keep header order.
func (h *Handler) negotiate(r *http.Request) (string, bool) {
	accept := r.Header.Get("Accept")
	if accept == "" {
		return MediaTypeCSVUTF8, true
	}
	best, bestQ := "", 0.0
	for part := range strings.SplitSeq(accept, ",") {
		mt, params, err := mime.ParseMediaType(strings.TrimSpace(part))
		if err != nil {
			continue
		}
		q := qValue(params["q"])
		if q <= 0 || q <= bestQ {
			continue
		}
		switch mt {
		case "*/*", "text/*":
			best, bestQ = MediaTypeCSVUTF8, q
		case "text/csv":
			name := params["charset"]
			if name == "" {
				best, bestQ = MediaTypeCSVUTF8, q
				continue
			}
			if _, cerr := resolveCharset(name); cerr != nil {
				continue
			}
			best, bestQ = mime.FormatMediaType("text/csv", map[string]string{"charset": name}), q
		}
	}
	return best, best != ""
}

func qValue(q string) float64 {
	if q == "" {
		return 1
	}
	f, err := strconv.ParseFloat(q, 64)
	if err != nil {
		return 1
	}
	return f
}

// responseSink is the ResponseWriter handed to the converter. It tracks
// whether body bytes were produced and routes them through an optional
// compressor.
type responseSink struct {
	http.ResponseWriter
	zw    io.WriteCloser
	wrote bool
}

func (s *responseSink) Write(p []byte) (int, error) {
	s.wrote = true
	if s.zw != nil {
		return s.zw.Write(p)
	}
	return s.ResponseWriter.Write(p)
}

// newSink wraps w with the negotiated content encoding. The returned
// finish func must run after the write, on every path: finish(true)
// flushes the compressor into w, finish(false) redirects it to io.Discard
// first so nothing reaches the wire.
func (h *Handler) newSink(w http.ResponseWriter, r *http.Request) (*responseSink, func(commit bool) error) {
	sink := &responseSink{ResponseWriter: w}
	if h.compressionLevel <= 0 {
		return sink, func(bool) error { return nil }
	}

	switch preferredEncoding(r.Header.Get("Accept-Encoding")) {
	case "zstd":
		zw, err := zstd.NewWriter(w, zstd.WithEncoderLevel(zstd.EncoderLevelFromZstd(h.compressionLevel)))
		if err != nil {
			break
		}
		w.Header().Set("Content-Encoding", "zstd")
		w.Header().Add("Vary", "Accept-Encoding")
		sink.zw = zw
		return sink, func(commit bool) error {
			if !commit {
				zw.Reset(io.Discard)
			}
			return zw.Close()
		}
	case "gzip":
		gw, err := gzip.NewWriterLevel(w, min(h.compressionLevel, gzip.BestCompression))
		if err != nil {
			break
		}
		w.Header().Set("Content-Encoding", "gzip")
		w.Header().Add("Vary", "Accept-Encoding")
		sink.zw = gw
		return sink, func(commit bool) error {
			if !commit {
				gw.Reset(io.Discard)
			}
			return gw.Close()
		}
	}
	return sink, func(bool) error { return nil }
}

// preferredEncoding picks the response encoding from Accept-Encoding,
// favoring zstd.
func preferredEncoding(acceptEncoding string) string {
	var zstdOK, gzipOK bool
	for part := range strings.SplitSeq(acceptEncoding, ",") {
		token, attrs, _ := strings.Cut(part, ";")
		if encQValue(attrs) <= 0 {
			continue
		}
		switch strings.ToLower(strings.TrimSpace(token)) {
		case "zstd":
			zstdOK = true
		case "gzip":
			gzipOK = true
		}
	}
	if zstdOK {
		return "zstd"
	}
	if gzipOK {
		return "gzip"
	}
	return ""
}

func encQValue(attrs string) float64 {
	attrs = strings.ReplaceAll(attrs, " ", "")
	for part := range strings.SplitSeq(attrs, ";") {
		if v, ok := strings.CutPrefix(part, "q="); ok {
			if f, err := strconv.ParseFloat(v, 64); err == nil {
				return f
			}
		}
	}
	return 1
}

type requestIDKey struct{}

// withRequestID stores the request identifier consumed by [RequestIDFrom].
func withRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

// RequestIDFrom returns the request identifier attached by [Handler],
// empty when none.
func RequestIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}
