package observability

import (
	"context"
	"testing"

	"codetech/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetupObservability_NoneEnabled(t *testing.T) {
	cfg := &config.OpenTelemetryConfig{Protocol: "grpc", Endpoint: "localhost:4317"}

	providers, err := SetupObservability(cfg, "codetech-test", "debug")
	require.NoError(t, err)

	assert.Nil(t, providers.Tracer)
	assert.Nil(t, providers.Meter)
	require.NotNil(t, providers.Logger)
	assert.Equal(t, "codetech-test", cfg.ServiceName)
	assert.NoError(t, providers.Shutdown(context.Background()))
}

func TestSetupObservability_TracingAndMetrics(t *testing.T) {
	cfg := &config.OpenTelemetryConfig{
		Endpoint:      "localhost:4317",
		Protocol:      "grpc",
		Insecure:      true,
		EnableTracing: true,
		EnableMetrics: true,
		SamplingRate:  1.0,
	}

	providers, err := SetupObservability(cfg, "codetech-test", "info")
	require.NoError(t, err)
	assert.NotNil(t, providers.Tracer)
	assert.NotNil(t, providers.Meter)

	// Exporters connect lazily; shutting down against a missing collector may time out.
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_ = providers.Shutdown(ctx)
}

func TestInitTracing_Protocols(t *testing.T) {
	for _, protocol := range []string{"grpc", "http"} {
		t.Run(protocol, func(t *testing.T) {
			tp, err := InitTracing(&config.OpenTelemetryConfig{
				Endpoint:     "localhost:4317",
				Protocol:     protocol,
				Insecure:     true,
				SamplingRate: 1.0,
			})
			require.NoError(t, err)
			assert.NotNil(t, tp)
		})
	}
}

func TestInitTracing_InvalidProtocol(t *testing.T) {
	_, err := InitTracing(&config.OpenTelemetryConfig{Protocol: "carrier-pigeon"})
	assert.Error(t, err)
}

func TestInitMetrics_InvalidProtocol(t *testing.T) {
	_, err := InitMetrics(&config.OpenTelemetryConfig{Protocol: "smoke-signal"})
	assert.Error(t, err)
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, "debug", ParseLevel("debug").String())
	assert.Equal(t, "warn", ParseLevel("warn").String())
	assert.Equal(t, "info", ParseLevel("").String())
	assert.Equal(t, "info", ParseLevel("verbose").String())
}

func TestMetrics_RecordDoesNotPanic(t *testing.T) {
	m := Metrics()
	require.NotNil(t, m)

	ctx := context.Background()
	m.RecordSubmission(ctx, true, 80)
	m.RecordLogin(ctx, false)
	m.RecordJobRun(ctx, "repair", nil)

	var nilMetrics *DomainMetrics
	nilMetrics.RecordLogin(ctx, true)
}
