// Package logger provides structured logging utilities
package logger

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds logger configuration
type Config struct {
	Level  string `mapstructure:"level"`  // debug, info, warn, error, fatal
	Format string `mapstructure:"format"` // text or json
	Output string `mapstructure:"output"` // stdout, stderr, or file path
}

var (
	mu   sync.RWMutex
	base = zap.NewNop()
)

// Init builds the process logger from configuration
func Init(cfg Config) error {
	level := zapcore.InfoLevel
	if err := level.UnmarshalText([]byte(strings.ToLower(strings.TrimSpace(cfg.Level)))); err != nil {
		level = zapcore.InfoLevel
	}

	zcfg := zap.NewProductionConfig()
	if strings.EqualFold(strings.TrimSpace(cfg.Format), "text") {
		zcfg = zap.NewDevelopmentConfig()
	}
	zcfg.Level = zap.NewAtomicLevelAt(level)
	zcfg.EncoderConfig.TimeKey = "timestamp"
	zcfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	out := strings.TrimSpace(cfg.Output)
	if out == "" {
		out = "stdout"
	}
	zcfg.OutputPaths = []string{out}
	zcfg.ErrorOutputPaths = []string{"stderr"}

	l, err := zcfg.Build(zap.AddCallerSkip(1))
	if err != nil {
		return fmt.Errorf("build logger: %w", err)
	}
	Use(l)
	return nil
}

// Use replaces the process logger, mainly for tests
func Use(l *zap.Logger) {
	if l == nil {
		l = zap.NewNop()
	}
	mu.Lock()
	base = l
	mu.Unlock()
}

// L returns the underlying zap logger
func L() *zap.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return base
}

// Sync flushes buffered entries
func Sync() {
	_ = L().Sync()
}

// Debug logs debug message (only shown when level=debug)
func Debug(msg string, fields ...zap.Field) { L().Debug(msg, fields...) }

// Debugf logs formatted debug message
func Debugf(format string, args ...interface{}) { L().Debug(fmt.Sprintf(format, args...)) }

// Info logs info message
func Info(msg string, fields ...zap.Field) { L().Info(msg, fields...) }

// Infof logs formatted info message
func Infof(format string, args ...interface{}) { L().Info(fmt.Sprintf(format, args...)) }

// Warn logs warning message
func Warn(msg string, fields ...zap.Field) { L().Warn(msg, fields...) }

// Warnf logs formatted warning message
func Warnf(format string, args ...interface{}) { L().Warn(fmt.Sprintf(format, args...)) }

// Error logs error message
func Error(msg string, fields ...zap.Field) { L().Error(msg, fields...) }

// Errorf logs formatted error message
func Errorf(format string, args ...interface{}) { L().Error(fmt.Sprintf(format, args...)) }

// Fatal logs fatal message and exits
func Fatal(msg string, fields ...zap.Field) { L().Fatal(msg, fields...) }

// Fatalf logs formatted fatal message and exits
func Fatalf(format string, args ...interface{}) { L().Fatal(fmt.Sprintf(format, args...)) }

// WithFields returns a logger carrying structured fields
func WithFields(fields map[string]interface{}) *FieldLogger {
	zf := make([]zap.Field, 0, len(fields))
	for k, v := range fields {
		zf = append(zf, zap.Any(k, v))
	}
	return &FieldLogger{l: L().With(zf...)}
}

// FieldLogger allows structured logging with fields
type FieldLogger struct {
	l *zap.Logger
}

func (f *FieldLogger) Debug(msg string) { f.l.Debug(msg) }
func (f *FieldLogger) Info(msg string)  { f.l.Info(msg) }
func (f *FieldLogger) Warn(msg string)  { f.l.Warn(msg) }
func (f *FieldLogger) Error(msg string) { f.l.Error(msg) }

// Protocol-specific logging with structured fields

// HTTP logs HTTP protocol activity
func HTTP(method, path string, status, latencyMs int) {
	L().Info(fmt.Sprintf("HTTP %s %s %d - %dms", method, path, status, latencyMs),
		zap.String("protocol", "http"),
		zap.String("method", method),
		zap.String("path", path),
		zap.Int("status", status),
		zap.Int("latency_ms", latencyMs),
	)
}

// GRPC logs gRPC protocol activity
func GRPC(method string, code string, latencyMs int) {
	L().Info(fmt.Sprintf("gRPC %s %s - %dms", method, code, latencyMs),
		zap.String("protocol", "grpc"),
		zap.String("method", method),
		zap.String("code", code),
		zap.Int("latency_ms", latencyMs),
	)
}

// WebSocket logs event stream activity
func WebSocket(event, userID string) {
	L().Info(fmt.Sprintf("WebSocket %s", event),
		zap.String("protocol", "websocket"),
		zap.String("event", event),
		zap.String("user_id", userID),
	)
}

type contextKey string

const requestIDKey contextKey = "request_id"

// ContextWithRequestID stores a request ID for later log lines
func ContextWithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey, id)
}

// WithRequestID extracts request ID from context and logs with it
func WithRequestID(ctx context.Context) *FieldLogger {
	if requestID, ok := ctx.Value(requestIDKey).(string); ok {
		return WithFields(map[string]interface{}{
			"request_id": requestID,
		})
	}
	return &FieldLogger{l: L()}
}
