// Package commands provides CLI commands for the admin tool
package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"syscall"

	"civicfeedback/internal/config"
	"civicfeedback/internal/di"
	"civicfeedback/internal/observability"
	contextutils "civicfeedback/internal/utils"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

// Env carries the shared resources of one CLI invocation.
// The service container is opened on first use so commands like health never touch the store.
type Env struct {
	Config *config.Config
	Logger *observability.Logger

	// ReadPassword prompts for a secret without echoing it
	ReadPassword func(prompt string) (string, error)

	// NewContainer builds the service container; defaults to di.NewServiceContainer
	NewContainer func(cfg *config.Config, logger *observability.Logger) *di.ServiceContainer

	container *di.ServiceContainer
}

// NewEnv creates an Env that reads passwords from the terminal
func NewEnv(cfg *config.Config, logger *observability.Logger) *Env {
	if logger == nil {
		logger = observability.NewNopLogger()
	}
	return &Env{
		Config:       cfg,
		Logger:       logger,
		ReadPassword: terminalPassword,
		NewContainer: di.NewServiceContainer,
	}
}

// Container returns the initialized service container
func (e *Env) Container(ctx context.Context) (*di.ServiceContainer, error) {
	if e.container != nil {
		return e.container, nil
	}

	container := e.NewContainer(e.Config, e.Logger)
	if err := container.Initialize(ctx); err != nil {
		return nil, contextutils.WrapError(err, "failed to open record store")
	}
	e.container = container
	return container, nil
}

// Close releases the service container if one was opened
func (e *Env) Close(ctx context.Context) error {
	if e.container == nil {
		return nil
	}
	err := e.container.Shutdown(ctx)
	e.container = nil
	return err
}

// NewRootCommand builds the adm command tree
func NewRootCommand(env *Env) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "adm",
		Short: "Civic Feedback Administration Tool",
		Long: `Civic Feedback Administration Tool

Manage accounts, triage feedback, export reports and inspect the record store
of a civic feedback portal.`,
		SilenceUsage: true,
		PersistentPostRunE: func(cmd *cobra.Command, _ []string) error {
			return env.Close(cmd.Context())
		},
		Run: func(cmd *cobra.Command, _ []string) {
			if err := cmd.Help(); err != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "Error showing help: %v\n", err)
			}
		},
	}

	rootCmd.AddCommand(UserCommands(env))
	rootCmd.AddCommand(FeedbackCommands(env))
	rootCmd.AddCommand(AnalyticsCommand(env))
	rootCmd.AddCommand(StoreCommands(env))
	rootCmd.AddCommand(HealthCommand(env))

	return rootCmd
}

func terminalPassword(prompt string) (string, error) {
	fmt.Fprint(os.Stderr, prompt)
	passwordBytes, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", contextutils.WrapErrorf(contextutils.ErrInternalError, "failed to read password: %v", err)
	}
	return string(passwordBytes), nil
}

// commandContext returns the command's context, or Background when it runs outside Execute
func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

// traced starts a CLI span named after the command
func traced(cmd *cobra.Command) (context.Context, func(*error)) {
	ctx, span := observability.TraceCLIFunction(commandContext(cmd), cmd.CommandPath())
	return ctx, func(errPtr *error) { observability.FinishSpan(span, errPtr) }
}

func writef(w io.Writer, format string, args ...interface{}) {
	_, _ = fmt.Fprintf(w, format, args...)
}
