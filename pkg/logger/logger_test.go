package logger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	appctx "tombstone/internal/core/context"
)

func TestFromContext_AddsTraceAndOperation(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	base := &Logger{zap.New(core).Sugar()}

	ctx := WithLogger(context.Background(), base)
	ctx = appctx.WithTrace(ctx, &appctx.TraceContext{TraceID: "t-1", RequestID: "r-1"})
	ctx = appctx.WithOperation(ctx, &appctx.Operation{Model: "books", Name: "delete_all"})

	Debug(ctx, "soft delete rewrite", "affected", 1)

	entries := logs.All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, "t-1", fields["trace_id"])
	assert.Equal(t, "r-1", fields["request_id"])
	assert.Equal(t, "books", fields["model"])
	assert.Equal(t, "delete_all", fields["operation"])
	assert.Equal(t, int64(1), fields["affected"])
}

func TestNew_InvalidLevelFallsBackToInfo(t *testing.T) {
	l, err := New(Config{Level: "chatty", OutputPaths: []string{"stderr"}})
	require.NoError(t, err)
	assert.False(t, l.Desugar().Core().Enabled(zap.DebugLevel))
	assert.True(t, l.Desugar().Core().Enabled(zap.InfoLevel))
}

func TestWithComponent_SurvivesContext(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	base := (&Logger{zap.New(core).Sugar()}).WithComponent("http")

	ctx := WithLogger(context.Background(), base)
	Info(ctx, "http request")
	Debug(ctx, "dropped")

	entries := logs.All()
	require.Len(t, entries, 1)
	assert.Equal(t, "http", entries[0].ContextMap()["component"])
	_, hasTrace := entries[0].ContextMap()["trace_id"]
	assert.False(t, hasTrace)
}

func TestFromContext_FallsBackToDefault(t *testing.T) {
	assert.Same(t, Default(), FromContext(context.Background()))
}

func TestNewNop(t *testing.T) {
	assert.NotPanics(t, func() { NewNop().WithComponent("test").Infow("ignored") })
}
