package commands

import (
	"fmt"
	"net/http"
	"strings"

	"codetech/internal/config"
	contextutils "codetech/internal/utils"

	"github.com/go-resty/resty/v2"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/trace"
)

// HealthResponse is the body served by GET /health
type HealthResponse struct {
	Status    string `json:"status"`
	Service   string `json:"service"`
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildTime string `json:"build_time"`
}

// HealthCommands returns the health check commands
func HealthCommands(env *Env) *cobra.Command {
	healthCmd := &cobra.Command{
		Use:   "health",
		Short: "Service health commands",
	}
	healthCmd.AddCommand(pingCmd(env))
	return healthCmd
}

func newHTTPClient() *resty.Client {
	return resty.NewWithClient(&http.Client{
		Transport: otelhttp.NewTransport(http.DefaultTransport,
			otelhttp.WithSpanOptions(trace.WithSpanKind(trace.SpanKindClient)),
		),
	}).SetTimeout(config.HealthPingTimeout)
}

func pingCmd(env *Env) *cobra.Command {
	var target string

	cmd := &cobra.Command{
		Use:   "ping",
		Short: "Call the /health endpoint of a running server",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if target == "" {
				target = "http://localhost:" + env.Config.Server.Port
			}
			target = strings.TrimSuffix(target, "/")
			if !strings.HasSuffix(target, "/health") {
				target += "/health"
			}

			var body HealthResponse
			resp, err := newHTTPClient().R().
				SetContext(cmd.Context()).
				SetResult(&body).
				Get(target)
			if err != nil {
				return contextutils.WrapErrorf(err, "health check against %s failed", target)
			}
			if resp.StatusCode() != http.StatusOK {
				return contextutils.ErrorWithContextf("health check against %s returned %d", target, resp.StatusCode())
			}

			fmt.Fprintf(cmd.OutOrStdout(), "%s: %s (version %s, commit %s)\n",
				body.Service, body.Status, body.Version, body.Commit)
			return nil
		},
	}

	cmd.Flags().StringVar(&target, "url", "", "Base URL of the server (defaults to localhost on the configured port)")

	return cmd
}
