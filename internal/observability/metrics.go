package observability

import (
	"context"
	"sync"

	"codetech/internal/config"
	contextutils "codetech/internal/utils"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	otelmetric "go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/sdk/metric"
)

// InitMetrics initializes OpenTelemetry metrics
func InitMetrics(cfg *config.OpenTelemetryConfig) (result0 *metric.MeterProvider, err error) {
	ctx := context.Background()

	res, err := newResource(ctx, cfg)
	if err != nil {
		return nil, err
	}

	var exporter metric.Exporter
	switch cfg.Protocol {
	case "grpc":
		opts := []otlpmetricgrpc.Option{
			otlpmetricgrpc.WithEndpoint(cfg.Endpoint),
			otlpmetricgrpc.WithHeaders(cfg.Headers),
		}
		if cfg.Insecure {
			opts = append(opts, otlpmetricgrpc.WithInsecure())
		}
		exp, err := otlpmetricgrpc.New(ctx, opts...)
		if err != nil {
			return nil, contextutils.WrapErrorf(contextutils.ErrInternalError, "failed to create otlp grpc metric exporter: %w", err)
		}
		exporter = exp
	case "http":
		opts := []otlpmetrichttp.Option{
			otlpmetrichttp.WithEndpoint(cfg.Endpoint),
			otlpmetrichttp.WithHeaders(cfg.Headers),
		}
		if cfg.Insecure {
			opts = append(opts, otlpmetrichttp.WithInsecure())
		}
		exp, err := otlpmetrichttp.New(ctx, opts...)
		if err != nil {
			return nil, contextutils.WrapErrorf(contextutils.ErrInternalError, "failed to create otlp http metric exporter: %w", err)
		}
		exporter = exp
	default:
		return nil, contextutils.WrapErrorf(contextutils.ErrInvalidInput, "unsupported otel protocol: %s", cfg.Protocol)
	}

	return metric.NewMeterProvider(
		metric.WithReader(metric.NewPeriodicReader(exporter)),
		metric.WithResource(res),
	), nil
}

// DomainMetrics holds the application level instruments.
type DomainMetrics struct {
	submissions otelmetric.Int64Counter
	scores      otelmetric.Int64Histogram
	logins      otelmetric.Int64Counter
	jobRuns     otelmetric.Int64Counter
}

var (
	domainMetrics     *DomainMetrics
	domainMetricsOnce sync.Once
)

// Metrics returns the process-wide instruments, created lazily from the global MeterProvider.
// Instruments degrade to no-ops when metrics are disabled.
func Metrics() *DomainMetrics {
	domainMetricsOnce.Do(func() {
		meter := otel.Meter("codetech")
		m := &DomainMetrics{}
		m.submissions, _ = meter.Int64Counter("codetech.quiz.submissions",
			otelmetric.WithDescription("Quiz submissions by outcome"))
		m.scores, _ = meter.Int64Histogram("codetech.quiz.score",
			otelmetric.WithDescription("Submitted quiz scores"), otelmetric.WithUnit("%"))
		m.logins, _ = meter.Int64Counter("codetech.auth.logins",
			otelmetric.WithDescription("Login attempts by result"))
		m.jobRuns, _ = meter.Int64Counter("codetech.worker.job_runs",
			otelmetric.WithDescription("Background job runs by job and result"))
		domainMetrics = m
	})
	return domainMetrics
}

// RecordSubmission counts a quiz submission and its score.
func (m *DomainMetrics) RecordSubmission(ctx context.Context, authenticated bool, score int) {
	if m == nil || m.submissions == nil {
		return
	}
	attrs := otelmetric.WithAttributes(attribute.Bool("authenticated", authenticated))
	m.submissions.Add(ctx, 1, attrs)
	if m.scores != nil {
		m.scores.Record(ctx, int64(score), attrs)
	}
}

// RecordLogin counts a login attempt.
func (m *DomainMetrics) RecordLogin(ctx context.Context, success bool) {
	if m == nil || m.logins == nil {
		return
	}
	m.logins.Add(ctx, 1, otelmetric.WithAttributes(attribute.Bool("success", success)))
}

// RecordJobRun counts a background job execution.
func (m *DomainMetrics) RecordJobRun(ctx context.Context, job string, err error) {
	if m == nil || m.jobRuns == nil {
		return
	}
	m.jobRuns.Add(ctx, 1, otelmetric.WithAttributes(
		attribute.String("job", job),
		attribute.Bool("success", err == nil),
	))
}
