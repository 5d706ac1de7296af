// Package main provides the main entry point for the civic feedback admin CLI tool.
package main

import (
	"context"
	"fmt"
	"os"

	"civicfeedback/cmd/adm/commands"
	"civicfeedback/internal/config"
	"civicfeedback/internal/observability"
)

func main() {
	ctx := context.Background()

	if err := config.LoadDotEnv(); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load .env file: %v\n", err)
		os.Exit(1)
	}

	cfg, err := config.NewConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Keep the admin tool quiet and offline
	cfg.Server.LogLevel = "error"
	cfg.OpenTelemetry.EnableTracing = false
	cfg.OpenTelemetry.EnableMetrics = false
	cfg.OpenTelemetry.EnableLogging = false

	tp, mp, logger, err := observability.SetupObservability(&cfg.OpenTelemetry, "civic-admin")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize observability: %v\n", err)
		os.Exit(1)
	}

	env := commands.NewEnv(cfg, logger)
	rootCmd := commands.NewRootCommand(env)

	exitCode := 0
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		exitCode = 1
	}

	if err := env.Close(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to close record store: %v\n", err)
	}
	if tp != nil {
		_ = tp.Shutdown(ctx)
	}
	if mp != nil {
		_ = mp.Shutdown(ctx)
	}

	os.Exit(exitCode)
}
