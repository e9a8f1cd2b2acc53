package observability

import (
	"context"
	"errors"

	"codetech/internal/config"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/sdk/metric"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// Providers bundles the telemetry pipeline of a process so it can be flushed on shutdown.
type Providers struct {
	Tracer *sdktrace.TracerProvider
	Meter  *metric.MeterProvider
	Logger *Logger
}

// Shutdown flushes and stops every configured provider.
func (p *Providers) Shutdown(ctx context.Context) error {
	var errs []error
	if p.Tracer != nil {
		errs = append(errs, p.Tracer.Shutdown(ctx))
	}
	if p.Meter != nil {
		errs = append(errs, p.Meter.Shutdown(ctx))
	}
	if p.Logger != nil {
		_ = p.Logger.Sync()
	}
	return errors.Join(errs...)
}

// SetupObservability initializes tracing, metrics, and logging for a service
func SetupObservability(cfg *config.OpenTelemetryConfig, serviceName, logLevel string) (result0 *Providers, err error) {
	if serviceName != "" {
		cfg.ServiceName = serviceName
	}

	providers := &Providers{
		Logger: NewLoggerWithLevel(cfg, ParseLevel(logLevel)),
	}

	InitPropagation()

	if cfg.EnableTracing {
		tp, err := InitTracing(cfg)
		if err != nil {
			return nil, err
		}
		otel.SetTracerProvider(tp)
		providers.Tracer = tp
		providers.Logger.Info(context.Background(), "Tracing enabled", map[string]interface{}{
			"service_name": cfg.ServiceName,
			"endpoint":     cfg.Endpoint,
		})
	}
	InitGlobalTracer()

	if cfg.EnableMetrics {
		mp, err := InitMetrics(cfg)
		if err != nil {
			return nil, err
		}
		otel.SetMeterProvider(mp)
		providers.Meter = mp
	}

	return providers, nil
}
