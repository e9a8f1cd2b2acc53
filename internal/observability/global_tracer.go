package observability

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "codetech"

var globalTracer trace.Tracer

// InitGlobalTracer initializes the global tracer for the application.
func InitGlobalTracer() {
	globalTracer = otel.Tracer(tracerName)
}

// GetGlobalTracer returns the global tracer instance for the application.
func GetGlobalTracer() trace.Tracer {
	if globalTracer == nil {
		globalTracer = otel.Tracer(tracerName)
	}
	return globalTracer
}

// TraceFunction starts a new span with a descriptive name for the given service and function.
func TraceFunction(ctx context.Context, serviceName, functionName string, attributes ...attribute.KeyValue) (context.Context, trace.Span) {
	spanName := fmt.Sprintf("%s.%s", serviceName, functionName)
	return GetGlobalTracer().Start(ctx, spanName, trace.WithAttributes(attributes...))
}

// TraceUserFunction starts a new span for a user service function.
func TraceUserFunction(ctx context.Context, functionName string, attributes ...attribute.KeyValue) (context.Context, trace.Span) {
	return TraceFunction(ctx, "user", functionName, attributes...)
}

// TraceAuthFunction starts a new span for token issuing and verification.
func TraceAuthFunction(ctx context.Context, functionName string, attributes ...attribute.KeyValue) (context.Context, trace.Span) {
	return TraceFunction(ctx, "auth", functionName, attributes...)
}

// TraceContentFunction starts a new span for a content service function.
func TraceContentFunction(ctx context.Context, functionName string, attributes ...attribute.KeyValue) (context.Context, trace.Span) {
	return TraceFunction(ctx, "content", functionName, attributes...)
}

// TraceProgressFunction starts a new span for a progress service function.
func TraceProgressFunction(ctx context.Context, functionName string, attributes ...attribute.KeyValue) (context.Context, trace.Span) {
	return TraceFunction(ctx, "progress", functionName, attributes...)
}

// TraceStatsFunction starts a new span for a stats service function.
func TraceStatsFunction(ctx context.Context, functionName string, attributes ...attribute.KeyValue) (context.Context, trace.Span) {
	return TraceFunction(ctx, "stats", functionName, attributes...)
}

// TraceLeaderboardFunction starts a new span for a leaderboard service function.
func TraceLeaderboardFunction(ctx context.Context, functionName string, attributes ...attribute.KeyValue) (context.Context, trace.Span) {
	return TraceFunction(ctx, "leaderboard", functionName, attributes...)
}

// TraceAdminFunction starts a new span for an admin service function.
func TraceAdminFunction(ctx context.Context, functionName string, attributes ...attribute.KeyValue) (context.Context, trace.Span) {
	return TraceFunction(ctx, "admin", functionName, attributes...)
}

// TraceGoalFunction starts a new span for a goal service function.
func TraceGoalFunction(ctx context.Context, functionName string, attributes ...attribute.KeyValue) (context.Context, trace.Span) {
	return TraceFunction(ctx, "goal", functionName, attributes...)
}

// TraceChallengeFunction starts a new span for a challenge service function.
func TraceChallengeFunction(ctx context.Context, functionName string, attributes ...attribute.KeyValue) (context.Context, trace.Span) {
	return TraceFunction(ctx, "challenge", functionName, attributes...)
}

// TraceEmailFunction starts a new span for an email service function.
func TraceEmailFunction(ctx context.Context, functionName string, attributes ...attribute.KeyValue) (context.Context, trace.Span) {
	return TraceFunction(ctx, "email", functionName, attributes...)
}

// TraceWorkerFunction starts a new span for a worker job.
func TraceWorkerFunction(ctx context.Context, functionName string, attributes ...attribute.KeyValue) (context.Context, trace.Span) {
	return TraceFunction(ctx, "worker", functionName, attributes...)
}

// TraceSeedFunction starts a new span for content seeding.
func TraceSeedFunction(ctx context.Context, functionName string, attributes ...attribute.KeyValue) (context.Context, trace.Span) {
	return TraceFunction(ctx, "seed", functionName, attributes...)
}

// TraceDatabaseFunction starts a new span for a database function.
func TraceDatabaseFunction(ctx context.Context, functionName string, attributes ...attribute.KeyValue) (context.Context, trace.Span) {
	return TraceFunction(ctx, "database", functionName, attributes...)
}

// TraceHandlerFunction starts a new span for a handler function.
func TraceHandlerFunction(ctx context.Context, functionName string, attributes ...attribute.KeyValue) (context.Context, trace.Span) {
	return TraceFunction(ctx, "handler", functionName, attributes...)
}

// AttributeUserID returns a tracing attribute for a user ID.
func AttributeUserID(id int) attribute.KeyValue {
	return attribute.Int("user.id", id)
}

// AttributeSubjectID returns a tracing attribute for a subject ID.
func AttributeSubjectID(id int) attribute.KeyValue {
	return attribute.Int("subject.id", id)
}

// AttributeLevelID returns a tracing attribute for a level ID.
func AttributeLevelID(id int) attribute.KeyValue {
	return attribute.Int("level.id", id)
}

// AttributeQuizID returns a tracing attribute for a quiz ID.
func AttributeQuizID(id int) attribute.KeyValue {
	return attribute.Int("quiz.id", id)
}

// AttributeLimit returns a tracing attribute for a limit value.
func AttributeLimit(limit int) attribute.KeyValue {
	return attribute.Int("limit", limit)
}
