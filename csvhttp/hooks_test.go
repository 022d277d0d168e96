// © Copyright 2025-2026, Query.Farm LLC - https://query.farm
// SPDX-License-Identifier: Apache-2.0

package csvhttp

import (
	"context"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

type hookKey struct{}

// recordingHook captures everything the converter hands to a hook.
type recordingHook struct {
	info      WriteInfo
	endInfo   WriteInfo
	token     HookToken
	stats     WriteStatistics
	err       error
	endCtxVal string
	starts    int
	ends      int
}

func (h *recordingHook) OnWriteStart(ctx context.Context, info WriteInfo) (context.Context, HookToken) {
	h.starts++
	h.info = info
	return context.WithValue(ctx, hookKey{}, "carried"), "tok-1"
}

func (h *recordingHook) OnWriteEnd(ctx context.Context, token HookToken, info WriteInfo, stats *WriteStatistics, err error) {
	h.ends++
	h.endCtxVal, _ = ctx.Value(hookKey{}).(string)
	h.token = token
	h.endInfo = info
	h.stats = *stats
	h.err = err
}

func TestWriteHookObservesWrite(t *testing.T) {
	hook := &recordingHook{}
	conv := NewConverter().SetWriteHook(hook)
	ctx := withRequestID(context.Background(), "req-7")

	rec := httptest.NewRecorder()
	require.NoError(t, conv.Write(ctx, fixtureMessage(t), rec))

	require.Equal(t, 1, hook.starts)
	require.Equal(t, 1, hook.ends)
	require.Equal(t, HookToken("tok-1"), hook.token)
	require.Equal(t, "carried", hook.endCtxVal)

	want := WriteInfo{
		ContentType: MediaTypeCSVUTF8,
		Charset:     "utf-8",
		Blocks:      2,
		RequestID:   "req-7",
	}
	require.Equal(t, want, hook.info)
	require.Equal(t, want, hook.endInfo)

	require.Equal(t, int64(2), hook.stats.Blocks)
	require.Equal(t, int64(1), hook.stats.CommentLines)
	require.Equal(t, int64(2), hook.stats.HeaderRecords)
	require.Equal(t, int64(5), hook.stats.Rows)
	require.Equal(t, int64(len(fixtureCSV)), hook.stats.Bytes)
	require.NoError(t, hook.err)
}

func TestWriteHookSeesSinkFailure(t *testing.T) {
	hook := &recordingHook{}
	sink := newFailingSink(1)
	err := NewConverter().SetWriteHook(hook).Write(context.Background(), fixtureMessage(t), sink)

	require.Error(t, err)
	require.Equal(t, 1, hook.ends)
	require.Equal(t, err, hook.err)
	require.Equal(t, int64(0), hook.stats.Blocks)
	require.Equal(t, int64(1), hook.stats.HeaderRecords)
	require.Equal(t, int64(0), hook.stats.Rows)
	require.Equal(t, int64(len("Header;\n")), hook.stats.Bytes)
}

type panickyStartHook struct{ ends int }

func (h *panickyStartHook) OnWriteStart(context.Context, WriteInfo) (context.Context, HookToken) {
	panic("start boom")
}

func (h *panickyStartHook) OnWriteEnd(context.Context, HookToken, WriteInfo, *WriteStatistics, error) {
	h.ends++
}

type panickyEndHook struct{ starts int }

func (h *panickyEndHook) OnWriteStart(ctx context.Context, _ WriteInfo) (context.Context, HookToken) {
	h.starts++
	return ctx, nil
}

func (h *panickyEndHook) OnWriteEnd(context.Context, HookToken, WriteInfo, *WriteStatistics, error) {
	panic("end boom")
}

func TestWriteHookPanicsAreIsolated(t *testing.T) {
	hook := &panickyStartHook{}
	rec := httptest.NewRecorder()
	require.NoError(t, NewConverter().SetWriteHook(hook).Write(context.Background(), fixtureMessage(t), rec))
	require.Equal(t, fixtureCSV, rec.Body.String())
	// Start never completed, so end is skipped.
	require.Zero(t, hook.ends)

	end := &panickyEndHook{}
	rec = httptest.NewRecorder()
	require.NoError(t, NewConverter().SetWriteHook(end).Write(context.Background(), fixtureMessage(t), rec))
	require.Equal(t, fixtureCSV, rec.Body.String())
	require.Equal(t, 1, end.starts)
}
