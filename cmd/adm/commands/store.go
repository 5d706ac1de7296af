package commands

import (
	"net/url"

	"civicfeedback/internal/config"

	"github.com/spf13/cobra"
)

// StoreCommands returns the record store inspection commands
func StoreCommands(env *Env) *cobra.Command {
	storeCmd := &cobra.Command{
		Use:   "store",
		Short: "Record store commands",
		Long: `Record store commands for the civic feedback portal.

Available commands:
  stats    - Show the backend, record counts and id counters`,
	}

	storeCmd.AddCommand(storeStatsCmd(env))
	return storeCmd
}

func storeStatsCmd(env *Env) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show record store statistics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) (err error) {
			ctx, finish := traced(cmd)
			defer finish(&err)

			container, err := env.Container(ctx)
			if err != nil {
				return err
			}
			st := container.GetStore()

			users, err := st.Users(ctx)
			if err != nil {
				return err
			}
			items, err := st.Feedback(ctx)
			if err != nil {
				return err
			}
			seq := st.Sequences()

			out := cmd.OutOrStdout()
			writef(out, "Backend:        %s\n", st.Backend())
			writef(out, "Location:       %s\n", storeLocation(env.Config))
			writef(out, "Id strategy:    %s\n", env.Config.Store.IDStrategy)
			writef(out, "Users:          %d\n", len(users))
			writef(out, "Feedback:       %d\n", len(items))
			writef(out, "Next user id:   %d\n", seq.Users+1)
			writef(out, "Next report id: %d\n", seq.Feedback+1)
			return nil
		},
	}
}

// storeLocation describes where the configured backend keeps its data, without secrets
func storeLocation(cfg *config.Config) string {
	switch cfg.Store.Backend {
	case config.StoreBackendFile:
		return cfg.Store.Dir
	case config.StoreBackendSQLite:
		return cfg.Store.SQLitePath
	case config.StoreBackendPostgres:
		return maskDatabaseURL(cfg.Database.URL)
	case config.StoreBackendRedis:
		return maskDatabaseURL(cfg.Redis.Addr) + " (prefix " + cfg.Redis.KeyPrefix + ")"
	default:
		return "process memory"
	}
}

// maskDatabaseURL hides the password of a connection URL
func maskDatabaseURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.User == nil {
		return raw
	}
	return u.Redacted()
}
