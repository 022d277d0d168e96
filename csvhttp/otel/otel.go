// © Copyright 2025-2026, Query.Farm LLC - https://query.farm
// SPDX-License-Identifier: Apache-2.0

// Package csvotel provides OpenTelemetry instrumentation for CSV response
// writing. It implements the [csvhttp.WriteHook] interface to add
// distributed tracing and metrics to every serialized response.
//
// Usage:
//
//	conv := csvhttp.NewConverter()
//	csvotel.InstrumentConverter(conv, csvotel.DefaultConfig())
package csvotel

import (
	"context"
	"fmt"
	"time"

	"github.com/Query-farm/csvwire/csvhttp"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

const instrumentationName = "csvwire"

// OtelConfig configures OpenTelemetry instrumentation for a converter.
type OtelConfig struct {
	// TracerProvider supplies the tracer. Defaults to otel.GetTracerProvider().
	TracerProvider trace.TracerProvider
	// MeterProvider supplies the meter. Defaults to otel.GetMeterProvider().
	MeterProvider metric.MeterProvider
	// EnableTracing enables span creation. Default true.
	EnableTracing bool
	// EnableMetrics enables counter and histogram recording. Default true.
	EnableMetrics bool
	// RecordExceptions calls RecordError on the span for failed writes.
	// Default true.
	RecordExceptions bool
	// ServiceName is the csv.service attribute value. Defaults to "csvwire".
	ServiceName string
	// CustomAttributes are added to every span.
	CustomAttributes []attribute.KeyValue
}

// DefaultConfig returns an OtelConfig with sensible defaults.
// TracerProvider and MeterProvider are resolved from the global OTel SDK
// at instrumentation time.
func DefaultConfig() OtelConfig {
	return OtelConfig{
		EnableTracing:    true,
		EnableMetrics:    true,
		RecordExceptions: true,
	}
}

// InstrumentConverter attaches OpenTelemetry instrumentation to a
// converter. The hook is installed via [csvhttp.Converter.SetWriteHook].
func InstrumentConverter(conv *csvhttp.Converter, cfg OtelConfig) {
	if cfg.TracerProvider == nil {
		cfg.TracerProvider = otel.GetTracerProvider()
	}
	if cfg.MeterProvider == nil {
		cfg.MeterProvider = otel.GetMeterProvider()
	}
	if cfg.ServiceName == "" {
		cfg.ServiceName = "csvwire"
	}

	hook := &otelHook{
		cfg:    cfg,
		tracer: cfg.TracerProvider.Tracer(instrumentationName),
	}

	if cfg.EnableMetrics {
		meter := cfg.MeterProvider.Meter(instrumentationName)
		hook.writeCounter, _ = meter.Int64Counter("csv.server.writes",
			metric.WithUnit("{write}"),
			metric.WithDescription("Number of CSV responses written"),
		)
		hook.rowCounter, _ = meter.Int64Counter("csv.server.rows",
			metric.WithUnit("{row}"),
			metric.WithDescription("Number of CSV data rows written"),
		)
		hook.durationHistogram, _ = meter.Float64Histogram("csv.server.write_duration",
			metric.WithUnit("s"),
			metric.WithDescription("Duration of CSV response writes"),
		)
		hook.sizeHistogram, _ = meter.Int64Histogram("csv.server.response_size",
			metric.WithUnit("By"),
			metric.WithDescription("Body bytes per CSV response"),
		)
	}

	conv.SetWriteHook(hook)
}

// otelHook implements csvhttp.WriteHook with OpenTelemetry tracing and metrics.
type otelHook struct {
	cfg               OtelConfig
	tracer            trace.Tracer
	writeCounter      metric.Int64Counter
	rowCounter        metric.Int64Counter
	durationHistogram metric.Float64Histogram
	sizeHistogram     metric.Int64Histogram
}

// spanToken is the HookToken returned by OnWriteStart.
type spanToken struct {
	span      trace.Span
	startTime time.Time
}

// OnWriteStart opens a span for the response write.
func (h *otelHook) OnWriteStart(ctx context.Context, info csvhttp.WriteInfo) (context.Context, csvhttp.HookToken) {
	if !h.cfg.EnableTracing {
		return ctx, &spanToken{startTime: time.Now()}
	}

	attrs := []attribute.KeyValue{
		attribute.String("csv.service", h.cfg.ServiceName),
		attribute.String("csv.content_type", info.ContentType),
		attribute.String("csv.charset", info.Charset),
		attribute.Int("csv.blocks", info.Blocks),
	}
	if info.Filename != "" {
		attrs = append(attrs, attribute.String("csv.filename", info.Filename))
	}
	if info.RequestID != "" {
		attrs = append(attrs, attribute.String("request.id", info.RequestID))
	}
	attrs = append(attrs, h.cfg.CustomAttributes...)

	ctx, span := h.tracer.Start(ctx, "csv_write",
		trace.WithSpanKind(trace.SpanKindServer),
		trace.WithAttributes(attrs...),
	)

	return ctx, &spanToken{span: span, startTime: time.Now()}
}

// OnWriteEnd records span attributes, metrics, and ends the span.
func (h *otelHook) OnWriteEnd(ctx context.Context, token csvhttp.HookToken, info csvhttp.WriteInfo, stats *csvhttp.WriteStatistics, err error) {
	st, ok := token.(*spanToken)
	if !ok {
		return
	}

	duration := time.Since(st.startTime)

	status := "ok"
	if err != nil {
		status = "error"
	}

	if h.cfg.EnableMetrics {
		metricAttrs := metric.WithAttributes(
			attribute.String("csv.service", h.cfg.ServiceName),
			attribute.String("csv.charset", info.Charset),
			attribute.String("status", status),
		)
		if h.writeCounter != nil {
			h.writeCounter.Add(ctx, 1, metricAttrs)
		}
		if h.rowCounter != nil && stats != nil {
			h.rowCounter.Add(ctx, stats.Rows, metricAttrs)
		}
		if h.durationHistogram != nil {
			h.durationHistogram.Record(ctx, duration.Seconds(), metricAttrs)
		}
		if h.sizeHistogram != nil && stats != nil {
			h.sizeHistogram.Record(ctx, stats.Bytes, metricAttrs)
		}
	}

	if st.span != nil && st.span.IsRecording() {
		if stats != nil {
			st.span.SetAttributes(
				attribute.Int64("csv.blocks_written", stats.Blocks),
				attribute.Int64("csv.comment_lines", stats.CommentLines),
				attribute.Int64("csv.header_records", stats.HeaderRecords),
				attribute.Int64("csv.rows", stats.Rows),
				attribute.Int64("csv.bytes", stats.Bytes),
			)
		}

		if err != nil {
			st.span.SetStatus(codes.Error, err.Error())
			if h.cfg.RecordExceptions {
				st.span.RecordError(err)
			}
			st.span.SetAttributes(attribute.String("csv.error_type", fmt.Sprintf("%T", err)))
		} else {
			st.span.SetStatus(codes.Ok, "")
		}

		st.span.End()
	}
}
