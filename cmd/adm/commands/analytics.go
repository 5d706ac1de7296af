package commands

import (
	"encoding/json"
	"sort"

	"github.com/spf13/cobra"
)

// AnalyticsCommand returns the dashboard statistics command
func AnalyticsCommand(env *Env) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "analytics",
		Short: "Show feedback statistics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) (err error) {
			ctx, finish := traced(cmd)
			defer finish(&err)

			container, err := env.Container(ctx)
			if err != nil {
				return err
			}
			analyticsService, err := container.GetAnalyticsService()
			if err != nil {
				return err
			}

			stats, err := analyticsService.Get(ctx)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(stats)
			}

			writef(out, "Total feedback:        %d\n", stats.TotalFeedback)
			writef(out, "Resolved:              %d%%\n", stats.ResolvedPercentage)
			writef(out, "Pending:               %d%%\n", stats.PendingPercentage)
			writef(out, "Avg resolution (days): %.1f\n", stats.AvgResolutionTime)
			writef(out, "Active last 30 days:   %d\n", stats.RecentActivity)
			printBreakdown(cmd, "By status", stats.StatusBreakdown)
			printBreakdown(cmd, "By type", stats.TypeBreakdown)
			printBreakdown(cmd, "By urgency", stats.UrgencyBreakdown)
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the statistics as JSON")
	return cmd
}

func printBreakdown(cmd *cobra.Command, title string, counts map[string]int) {
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := cmd.OutOrStdout()
	writef(out, "%s:\n", title)
	for _, k := range keys {
		writef(out, "  %-14s %d\n", k, counts[k])
	}
}
