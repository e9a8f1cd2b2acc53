// Package observability provides OpenTelemetry tracing, metrics, and structured logging
// with trace correlation for the CodeTech backend.
package observability

import (
	"context"
	"os"

	"codetech/internal/config"
	contextutils "codetech/internal/utils"

	"go.opentelemetry.io/contrib/bridges/otelzap"
	"go.opentelemetry.io/otel/exporters/otlp/otlplog/otlploggrpc"
	"go.opentelemetry.io/otel/sdk/log"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger wraps the zap logger with OpenTelemetry context support
type Logger struct {
	*zap.Logger
}

// NewNopLogger returns a logger that discards everything.
func NewNopLogger() *Logger {
	return &Logger{Logger: zap.NewNop()}
}

// NewLogger creates a new logger with OpenTelemetry context support and OTLP export
func NewLogger(cfg *config.OpenTelemetryConfig) *Logger {
	return NewLoggerWithLevel(cfg, zap.InfoLevel)
}

// ParseLevel maps a configured level name to a zap level, defaulting to info.
func ParseLevel(name string) zapcore.Level {
	level, err := zapcore.ParseLevel(name)
	if err != nil {
		return zap.InfoLevel
	}
	return level
}

// NewLoggerWithLevel creates a stdout JSON logger. When OTLP logging is enabled
// the logger tees into an OpenTelemetry log pipeline as well.
func NewLoggerWithLevel(cfg *config.OpenTelemetryConfig, level zapcore.Level) *Logger {
	if cfg == nil {
		return NewNopLogger()
	}

	zapConfig := zap.NewProductionConfig()
	zapConfig.Level = zap.NewAtomicLevelAt(level)
	zapConfig.EncoderConfig.TimeKey = "timestamp"
	zapConfig.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	zapConfig.EncoderConfig.StacktraceKey = "stacktrace"

	if os.Getenv("ENV") == "development" {
		zapConfig = zap.NewDevelopmentConfig()
		zapConfig.Level = zap.NewAtomicLevelAt(level)
	}

	zapLogger, err := zapConfig.Build()
	if err != nil {
		zapLogger = zap.NewExample()
	}

	if !cfg.EnableLogging || cfg.Endpoint == "" {
		return &Logger{Logger: zapLogger}
	}

	res, err := resource.New(context.Background(),
		resource.WithAttributes(
			semconv.ServiceName(cfg.ServiceName),
			semconv.ServiceVersion(cfg.ServiceVersion),
		),
	)
	if err != nil {
		zapLogger.Error("Failed to create otel resource", zap.Error(err))
		return &Logger{Logger: zapLogger}
	}

	opts := []otlploggrpc.Option{otlploggrpc.WithEndpoint(cfg.Endpoint)}
	if cfg.Insecure {
		opts = append(opts, otlploggrpc.WithInsecure())
	}
	if len(cfg.Headers) > 0 {
		opts = append(opts, otlploggrpc.WithHeaders(cfg.Headers))
	}

	exporter, err := otlploggrpc.New(context.Background(), opts...)
	if err != nil {
		zapLogger.Error("Failed to create OTLP log exporter", zap.Error(err), zap.String("endpoint", cfg.Endpoint))
		return &Logger{Logger: zapLogger}
	}

	provider := log.NewLoggerProvider(
		log.WithProcessor(log.NewBatchProcessor(exporter)),
		log.WithResource(res),
	)
	otelCore := otelzap.NewCore("codetech", otelzap.WithLoggerProvider(provider))

	zapLogger = zap.New(zapcore.NewTee(zapLogger.Core(), otelCore))
	zapLogger.Info("OTLP logging configured", zap.String("endpoint", cfg.Endpoint))

	return &Logger{Logger: zapLogger}
}

// Debug logs a debug message with context
func (l *Logger) Debug(ctx context.Context, msg string, fields ...map[string]interface{}) {
	l.logWithContext(ctx, zap.DebugLevel, msg, mergeFields(fields...))
}

// Info logs an info message with context
func (l *Logger) Info(ctx context.Context, msg string, fields ...map[string]interface{}) {
	l.logWithContext(ctx, zap.InfoLevel, msg, mergeFields(fields...))
}

// Warn logs a warning message with context
func (l *Logger) Warn(ctx context.Context, msg string, fields ...map[string]interface{}) {
	l.logWithContext(ctx, zap.WarnLevel, msg, mergeFields(fields...))
}

// Error logs an error message with context
func (l *Logger) Error(ctx context.Context, msg string, err error, fields ...map[string]interface{}) {
	allFields := mergeFields(fields...)
	if err != nil {
		allFields["error"] = err.Error()
		allFields["error_code"] = string(contextutils.GetErrorCode(err))
	}
	l.logWithContext(ctx, zap.ErrorLevel, msg, allFields)
}

// With returns a logger that always carries the given fields.
func (l *Logger) With(fields map[string]interface{}) *Logger {
	zapFields := make([]zap.Field, 0, len(fields))
	for k, v := range fields {
		zapFields = append(zapFields, zap.Any(k, v))
	}
	return &Logger{Logger: l.Logger.With(zapFields...)}
}

// logWithContext logs a message with trace and request correlation
func (l *Logger) logWithContext(ctx context.Context, level zapcore.Level, msg string, allFields map[string]interface{}) {
	if ctx != nil {
		if spanContext := trace.SpanFromContext(ctx).SpanContext(); spanContext.IsValid() {
			allFields["trace_id"] = spanContext.TraceID().String()
			allFields["span_id"] = spanContext.SpanID().String()
		}
		if requestID := contextutils.GetRequestIDFromContext(ctx); requestID != "" {
			allFields["request_id"] = requestID
		}
	}

	zapFields := make([]zap.Field, 0, len(allFields))
	for k, v := range allFields {
		zapFields = append(zapFields, zap.Any(k, v))
	}

	if ce := l.Logger.Check(level, msg); ce != nil {
		ce.Write(zapFields...)
	}
}

// mergeFields copies every field map into a fresh map so callers' maps are never mutated
func mergeFields(fields ...map[string]interface{}) map[string]interface{} {
	merged := make(map[string]interface{})
	for _, fieldMap := range fields {
		for k, v := range fieldMap {
			merged[k] = v
		}
	}
	return merged
}

// Sync flushes any buffered log entries
func (l *Logger) Sync() error {
	return l.Logger.Sync()
}
