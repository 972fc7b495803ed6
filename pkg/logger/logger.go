// Package logger wraps zap with a request-scoped logger carried in
// context.Context. Package-level helpers pick up the trace and the model
// operation recorded by the HTTP and data layers.
package logger

import (
	"context"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	appctx "tombstone/internal/core/context"
)

// Logger is a sugared zap logger.
type Logger struct {
	*zap.SugaredLogger
}

type ctxKey struct{}

// Config selects level, encoding and sinks.
type Config struct {
	Level       string // debug, info, warn, error; unknown values mean info
	Development bool   // console encoder with colored levels
	OutputPaths []string
}

// New builds a Logger. An unparsable level falls back to info.
func New(cfg Config) (*Logger, error) {
	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		level = zapcore.InfoLevel
	}

	zc := zap.NewProductionConfig()
	if cfg.Development {
		zc = zap.NewDevelopmentConfig()
		zc.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}
	zc.Level = zap.NewAtomicLevelAt(level)
	if len(cfg.OutputPaths) > 0 {
		zc.OutputPaths = cfg.OutputPaths
	}

	z, err := zc.Build(zap.AddCallerSkip(1))
	if err != nil {
		return nil, err
	}
	return &Logger{z.Sugar()}, nil
}

var (
	fallbackOnce sync.Once
	fallback     *Logger
)

// Default is the process-wide JSON logger on stdout, used when no logger was
// attached to the context.
func Default() *Logger {
	fallbackOnce.Do(func() {
		l, err := New(Config{Level: "info", OutputPaths: []string{"stdout"}})
		if err != nil {
			l = NewNop()
		}
		fallback = l
	})
	return fallback
}

// NewNop discards everything.
func NewNop() *Logger {
	return &Logger{zap.NewNop().Sugar()}
}

// WithContext returns l annotated with the trace ids and the model operation
// found in ctx.
func (l *Logger) WithContext(ctx context.Context) *Logger {
	fields := contextFields(ctx)
	if len(fields) == 0 {
		return l
	}
	return &Logger{l.SugaredLogger.With(fields...)}
}

func contextFields(ctx context.Context) []any {
	var fields []any
	if tr := appctx.GetTrace(ctx); tr != nil {
		fields = append(fields, "trace_id", tr.TraceID, "request_id", tr.RequestID)
	}
	if op := appctx.GetOperation(ctx); op != nil {
		fields = append(fields, "model", op.Model, "operation", op.Name)
	}
	return fields
}

// WithComponent tags every entry with the subsystem that produced it.
func (l *Logger) WithComponent(name string) *Logger {
	return &Logger{l.SugaredLogger.With("component", name)}
}

// WithLogger stores l in ctx.
func WithLogger(ctx context.Context, l *Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, l)
}

// FromContext returns the logger stored in ctx, or Default, annotated with
// the context fields.
func FromContext(ctx context.Context) *Logger {
	l, ok := ctx.Value(ctxKey{}).(*Logger)
	if !ok {
		l = Default()
	}
	return l.WithContext(ctx)
}

func Debug(ctx context.Context, msg string, kv ...any) { FromContext(ctx).Debugw(msg, kv...) }

func Info(ctx context.Context, msg string, kv ...any) { FromContext(ctx).Infow(msg, kv...) }

func Warn(ctx context.Context, msg string, kv ...any) { FromContext(ctx).Warnw(msg, kv...) }

func Error(ctx context.Context, msg string, kv ...any) { FromContext(ctx).Errorw(msg, kv...) }
