// © Copyright 2025-2026, Query.Farm LLC - https://query.farm
// SPDX-License-Identifier: Apache-2.0

package csvotel

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/Query-farm/csvwire/csvhttp"
)

func testMessage(t *testing.T) *csvhttp.Message {
	t.Helper()
	block := csvhttp.NewBlock(
		[]csvhttp.Column[string]{csvhttp.NewColumn[string](nil).WithHeader("name")},
		csvhttp.RowsOf("a", "b"),
	)
	msg, err := csvhttp.NewMessage([]csvhttp.MessageBlock{block})
	require.NoError(t, err)
	return msg
}

func newTestProviders() (*tracetest.SpanRecorder, *sdktrace.TracerProvider, *sdkmetric.ManualReader, *sdkmetric.MeterProvider) {
	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	return sr, tp, reader, mp
}

func TestInstrumentConverterRecordsSpanAndMetrics(t *testing.T) {
	sr, tp, reader, mp := newTestProviders()

	cfg := DefaultConfig()
	cfg.TracerProvider = tp
	cfg.MeterProvider = mp
	cfg.ServiceName = "test-export"
	cfg.CustomAttributes = []attribute.KeyValue{attribute.String("deployment", "test")}

	conv := csvhttp.NewConverter()
	InstrumentConverter(conv, cfg)

	rec := httptest.NewRecorder()
	require.NoError(t, conv.Write(context.Background(), testMessage(t), rec))

	spans := sr.Ended()
	require.Len(t, spans, 1)
	span := spans[0]
	require.Equal(t, "csv_write", span.Name())
	require.Equal(t, codes.Ok, span.Status().Code)

	attrs := span.Attributes()
	require.Contains(t, attrs, attribute.String("csv.service", "test-export"))
	require.Contains(t, attrs, attribute.String("csv.charset", "utf-8"))
	require.Contains(t, attrs, attribute.String("deployment", "test"))
	require.Contains(t, attrs, attribute.Int64("csv.rows", 2))
	require.Contains(t, attrs, attribute.Int64("csv.header_records", 1))
	require.Contains(t, attrs, attribute.Int64("csv.blocks_written", 1))

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))
	require.Len(t, rm.ScopeMetrics, 1)

	byName := map[string]metricdata.Metrics{}
	for _, m := range rm.ScopeMetrics[0].Metrics {
		byName[m.Name] = m
	}
	require.Contains(t, byName, "csv.server.writes")
	require.Contains(t, byName, "csv.server.rows")
	require.Contains(t, byName, "csv.server.write_duration")
	require.Contains(t, byName, "csv.server.response_size")

	writes, ok := byName["csv.server.writes"].Data.(metricdata.Sum[int64])
	require.True(t, ok)
	require.Len(t, writes.DataPoints, 1)
	require.Equal(t, int64(1), writes.DataPoints[0].Value)

	rows, ok := byName["csv.server.rows"].Data.(metricdata.Sum[int64])
	require.True(t, ok)
	require.Equal(t, int64(2), rows.DataPoints[0].Value)
}

// failSink rejects every body write.
type failSink struct {
	header http.Header
	err    error
}

func (f *failSink) Header() http.Header         { return f.header }
func (f *failSink) WriteHeader(int)             {}
func (f *failSink) Write([]byte) (int, error)   { return 0, f.err }

func TestInstrumentConverterRecordsFailure(t *testing.T) {
	sr, tp, _, mp := newTestProviders()

	cfg := DefaultConfig()
	cfg.TracerProvider = tp
	cfg.MeterProvider = mp

	conv := csvhttp.NewConverter()
	InstrumentConverter(conv, cfg)

	sink := &failSink{header: make(http.Header), err: errors.New("sink closed")}
	require.Error(t, conv.Write(context.Background(), testMessage(t), sink))

	spans := sr.Ended()
	require.Len(t, spans, 1)
	require.Equal(t, codes.Error, spans[0].Status().Code)
	require.Contains(t, spans[0].Attributes(), attribute.String("csv.error_type", "*errors.errorString"))

	events := spans[0].Events()
	require.NotEmpty(t, events)
	require.Equal(t, "exception", events[0].Name)
}

func TestInstrumentConverterTracingDisabled(t *testing.T) {
	sr, tp, reader, mp := newTestProviders()

	cfg := DefaultConfig()
	cfg.TracerProvider = tp
	cfg.MeterProvider = mp
	cfg.EnableTracing = false

	conv := csvhttp.NewConverter()
	InstrumentConverter(conv, cfg)

	rec := httptest.NewRecorder()
	require.NoError(t, conv.Write(context.Background(), testMessage(t), rec))

	require.Empty(t, sr.Ended())

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))
	require.NotEmpty(t, rm.ScopeMetrics)
}
