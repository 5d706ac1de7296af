package commands

import (
	"io"
	"os"
	"text/tabwriter"

	"civicfeedback/internal/models"
	contextutils "civicfeedback/internal/utils"

	"github.com/spf13/cobra"
)

// FeedbackCommands returns the feedback triage commands
func FeedbackCommands(env *Env) *cobra.Command {
	feedbackCmd := &cobra.Command{
		Use:   "feedback",
		Short: "Feedback triage commands",
		Long: `Feedback triage commands for the civic feedback portal.

Available commands:
  list     - List feedback, newest first
  status   - Change the status of a report
  delete   - Delete a report
  export   - Export reports as CSV`,
	}

	feedbackCmd.AddCommand(listFeedbackCmd(env))
	feedbackCmd.AddCommand(statusCmd(env))
	feedbackCmd.AddCommand(deleteFeedbackCmd(env))
	feedbackCmd.AddCommand(exportCmd(env))

	return feedbackCmd
}

func addFilterFlags(cmd *cobra.Command, filter *models.FeedbackFilter) {
	cmd.Flags().StringVar(&filter.Status, "status", "", "Only reports with this status (pending, in-progress, resolved)")
	cmd.Flags().StringVar(&filter.IssueType, "type", "", "Only reports of this issue type")
	cmd.Flags().StringVar(&filter.Urgency, "urgency", "", "Only reports with this urgency (low, medium, high)")
	cmd.Flags().StringVar(&filter.UserID, "user", "", "Only reports submitted by this user id")
	cmd.Flags().StringVar(&filter.Query, "query", "", "Case-insensitive text search")
}

func listFeedbackCmd(env *Env) *cobra.Command {
	var filter models.FeedbackFilter

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List feedback",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) (err error) {
			ctx, finish := traced(cmd)
			defer finish(&err)

			container, err := env.Container(ctx)
			if err != nil {
				return err
			}
			feedbackService, err := container.GetFeedbackService()
			if err != nil {
				return err
			}

			items, err := feedbackService.Search(ctx, filter)
			if err != nil {
				return err
			}

			if len(items) == 0 {
				writef(cmd.OutOrStdout(), "No feedback found\n")
				return nil
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			writef(tw, "ID\tSTATUS\tURGENCY\tTYPE\tLOCALITY\tTITLE\tCREATED\n")
			for _, item := range items {
				writef(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
					item.ID, item.Status, item.Urgency, item.IssueType, item.Locality, item.Title,
					item.CreatedAt.Format("2006-01-02"))
			}
			return tw.Flush()
		},
	}

	addFilterFlags(cmd, &filter)
	return cmd
}

func statusCmd(env *Env) *cobra.Command {
	var (
		response string
		adminID  string
	)

	cmd := &cobra.Command{
		Use:   "status <id> <status>",
		Short: "Change the status of a report",
		Long: `Change the status of a report. The submitter is notified by email when notifications are enabled.
--response replaces the admin response; pass --response "" to clear it.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			ctx, finish := traced(cmd)
			defer finish(&err)

			update := models.StatusUpdate{
				Status:  models.FeedbackStatus(args[1]),
				AdminID: adminID,
			}
			if cmd.Flags().Changed("response") {
				update.Response = &response
			}

			container, err := env.Container(ctx)
			if err != nil {
				return err
			}
			feedbackService, err := container.GetFeedbackService()
			if err != nil {
				return err
			}

			item, err := feedbackService.UpdateStatus(ctx, args[0], update)
			if err != nil {
				return err
			}

			writef(cmd.OutOrStdout(), "Feedback %s is now %s\n", item.ID, item.Status)
			return nil
		},
	}

	cmd.Flags().StringVar(&response, "response", "", "Admin response shown to the submitter")
	cmd.Flags().StringVar(&adminID, "admin-id", "", "Id of the administrator making the change")
	_ = cmd.MarkFlagRequired("admin-id")

	return cmd
}

func deleteFeedbackCmd(env *Env) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a report",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			ctx, finish := traced(cmd)
			defer finish(&err)

			container, err := env.Container(ctx)
			if err != nil {
				return err
			}
			feedbackService, err := container.GetFeedbackService()
			if err != nil {
				return err
			}

			if _, err := feedbackService.Delete(ctx, args[0]); err != nil {
				return err
			}

			writef(cmd.OutOrStdout(), "Deleted feedback %s\n", args[0])
			return nil
		},
	}
}

func exportCmd(env *Env) *cobra.Command {
	var (
		filter models.FeedbackFilter
		out    string
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export reports as CSV",
		Long:  `Export reports as CSV to stdout, or to the file named by --out.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) (err error) {
			ctx, finish := traced(cmd)
			defer finish(&err)

			container, err := env.Container(ctx)
			if err != nil {
				return err
			}
			feedbackService, err := container.GetFeedbackService()
			if err != nil {
				return err
			}

			var w io.Writer = cmd.OutOrStdout()
			if out != "" {
				f, createErr := os.Create(out)
				if createErr != nil {
					return contextutils.WrapErrorf(createErr, "failed to create %s", out)
				}
				defer func() {
					if cerr := f.Close(); cerr != nil && err == nil {
						err = cerr
					}
				}()
				w = f
			}

			if err := feedbackService.ExportCSV(ctx, w, filter); err != nil {
				return err
			}

			if out != "" {
				writef(cmd.ErrOrStderr(), "Wrote %s\n", out)
			}
			return nil
		},
	}

	addFilterFlags(cmd, &filter)
	cmd.Flags().StringVar(&out, "out", "", "Write the CSV to this file instead of stdout")

	return cmd
}
