// Package main provides the main entry point for the CodeTech admin CLI tool.
package main

import (
	"context"
	"fmt"
	"os"

	"codetech/cmd/adm/commands"
	"codetech/internal/config"
	"codetech/internal/observability"
	"codetech/internal/version"

	"github.com/spf13/cobra"
)

func main() {
	cfg, err := config.NewConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// The CLI prints its own output; telemetry would only add connection noise
	cfg.OpenTelemetry.EnableTracing = false
	cfg.OpenTelemetry.EnableMetrics = false
	cfg.OpenTelemetry.EnableLogging = false

	providers, err := observability.SetupObservability(&cfg.OpenTelemetry, "codetech-adm", "error")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize observability: %v\n", err)
		os.Exit(1)
	}

	env := commands.NewEnv(cfg, providers.Logger)
	rootCmd := newRootCmd(env, commands.TerminalPasswordReader)

	err = rootCmd.ExecuteContext(context.Background())
	if closeErr := env.Close(); closeErr != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to close database connection: %v\n", closeErr)
	}
	_ = providers.Shutdown(context.Background())
	if err != nil {
		os.Exit(1)
	}
}

func newRootCmd(env *commands.Env, readPassword commands.PasswordReader) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:     "codetech-adm",
		Short:   "CodeTech administration tool",
		Version: fmt.Sprintf("%s (commit %s, built %s)", version.Version, version.Commit, version.BuildTime),
		Long: `CodeTech administration tool

Commands for user management, database operations and progress maintenance.`,
		SilenceUsage: true,
	}

	rootCmd.AddCommand(commands.UserCommands(env, readPassword))
	rootCmd.AddCommand(commands.DatabaseCommands(env))
	rootCmd.AddCommand(commands.StatsCommands(env))
	rootCmd.AddCommand(commands.HealthCommands(env))

	return rootCmd
}
