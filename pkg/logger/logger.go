package logger

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger wraps zap.Logger for the sample programs.
type Logger struct {
	*zap.Logger
}

// New creates a new logger configured for the given environment.
func New(env string) (*Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.EncoderConfig = zap.NewProductionEncoderConfig()
	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	cfg.DisableStacktrace = env == "production"

	if env != "production" {
		cfg = zap.NewDevelopmentConfig()
		cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	}

	lg, err := cfg.Build()
	if err != nil {
		return nil, fmt.Errorf("logger: build failed: %w", err)
	}

	return &Logger{Logger: lg}, nil
}

// Wrap adapts an existing zap logger, mostly for tests.
func Wrap(lg *zap.Logger) *Logger {
	if lg == nil {
		lg = zap.NewNop()
	}
	return &Logger{Logger: lg}
}

// Nop returns a logger that discards everything.
func Nop() *Logger {
	return &Logger{Logger: zap.NewNop()}
}

// WithContext attaches the active trace id, if any, to log entries.
func (l *Logger) WithContext(ctx context.Context) *Logger {
	if ctx == nil {
		return l
	}
	sc := trace.SpanContextFromContext(ctx)
	if !sc.HasTraceID() {
		return l
	}
	return &Logger{Logger: l.Logger.With(zap.String("trace_id", sc.TraceID().String()))}
}

// Named returns a child logger for a component.
func (l *Logger) Named(name string) *Logger {
	return &Logger{Logger: l.Logger.Named(name)}
}

// Sync flushes any buffered log entries.
func (l *Logger) Sync() {
	_ = l.Logger.Sync()
}
