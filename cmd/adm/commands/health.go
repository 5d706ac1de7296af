package commands

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"civicfeedback/internal/config"
	contextutils "civicfeedback/internal/utils"

	"github.com/spf13/cobra"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/trace"
)

// HealthCommand returns the command that probes a running server
func HealthCommand(env *Env) *cobra.Command {
	var baseURL string

	cmd := &cobra.Command{
		Use:   "health",
		Short: "Check that a running server is healthy",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) (err error) {
			ctx, finish := traced(cmd)
			defer finish(&err)

			if baseURL == "" {
				baseURL = "http://localhost:" + env.Config.Server.Port
			}

			status, err := probeHealth(ctx, baseURL)
			if err != nil {
				return err
			}

			writef(cmd.OutOrStdout(), "%s is %s\n", baseURL, status)
			return nil
		},
	}

	cmd.Flags().StringVar(&baseURL, "url", "", "Base URL of the server (default http://localhost:<server.port>)")
	return cmd
}

// probeHealth calls GET /health and returns the reported status
func probeHealth(ctx context.Context, baseURL string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, config.HealthCheckTimeout)
	defer cancel()

	client := &http.Client{
		Transport: otelhttp.NewTransport(http.DefaultTransport,
			otelhttp.WithSpanOptions(trace.WithSpanKind(trace.SpanKindClient)),
		),
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, strings.TrimSuffix(baseURL, "/")+"/health", nil)
	if err != nil {
		return "", contextutils.WrapError(err, "invalid server url")
	}

	resp, err := client.Do(req)
	if err != nil && errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return "", contextutils.WithDetails(contextutils.ErrTimeout, "%s did not answer in time", baseURL)
	}
	if err != nil {
		return "", contextutils.NewAppErrorWithCause(contextutils.ErrorCodeServiceUnavailable, contextutils.SeverityError,
			"server unreachable", baseURL, err)
	}
	defer func() { _ = resp.Body.Close() }()

	var body struct {
		Success bool `json:"success"`
		Data    struct {
			Status string `json:"status"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", contextutils.WrapError(err, "invalid health response")
	}

	if resp.StatusCode != http.StatusOK || !body.Success {
		return "", contextutils.WithDetails(contextutils.ErrServiceUnavailable, "health check returned HTTP %d", resp.StatusCode)
	}
	return body.Data.Status, nil
}
