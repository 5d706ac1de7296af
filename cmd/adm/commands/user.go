package commands

import (
	"text/tabwriter"

	"civicfeedback/internal/models"
	contextutils "civicfeedback/internal/utils"

	"github.com/spf13/cobra"
)

// UserCommands returns the user management commands
func UserCommands(env *Env) *cobra.Command {
	userCmd := &cobra.Command{
		Use:   "user",
		Short: "User management commands",
		Long: `User management commands for the civic feedback portal.

Available commands:
  list     - List all users
  create   - Create a user or administrator account`,
	}

	userCmd.AddCommand(listUsersCmd(env))
	userCmd.AddCommand(createUserCmd(env))

	return userCmd
}

// listUsersCmd returns the list command
func listUsersCmd(env *Env) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all users",
		Long:  `List all accounts with their role and contact details. Credentials are never shown.`,
		Args:  cobra.NoArgs,
		RunE:  runListUsers(env),
	}
}

// createUserCmd returns the create command
func createUserCmd(env *Env) *cobra.Command {
	var (
		name  string
		phone string
		admin bool
	)

	cmd := &cobra.Command{
		Use:   "create [email]",
		Short: "Create a user account",
		Long: `Create an account. The password is read from the terminal and must be entered twice.
Account creation through this command works even when public signups are disabled.`,
		Args: cobra.ExactArgs(1),
		RunE: runCreateUser(env, &name, &phone, &admin),
	}

	cmd.Flags().StringVar(&name, "name", "", "Display name")
	cmd.Flags().StringVar(&phone, "phone", "", "Contact phone number")
	cmd.Flags().BoolVar(&admin, "admin", false, "Grant the admin role")

	return cmd
}

// runListUsers returns a function that lists all users
func runListUsers(env *Env) func(cmd *cobra.Command, args []string) error {
	return func(cmd *cobra.Command, _ []string) (err error) {
		ctx, finish := traced(cmd)
		defer finish(&err)

		container, err := env.Container(ctx)
		if err != nil {
			return err
		}
		identityService, err := container.GetIdentityService()
		if err != nil {
			return err
		}

		users, err := identityService.ListUsers(ctx)
		if err != nil {
			env.Logger.Error(ctx, "Failed to get users", err)
			return contextutils.WrapError(err, "failed to get users")
		}

		if len(users) == 0 {
			writef(cmd.OutOrStdout(), "No users found\n")
			return nil
		}

		tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
		writef(tw, "ID\tEMAIL\tNAME\tROLE\tPHONE\n")
		for _, user := range users {
			writef(tw, "%s\t%s\t%s\t%s\t%s\n", user.ID, user.Email, orDash(user.Name), user.Role, orDash(user.Phone))
		}
		return tw.Flush()
	}
}

// runCreateUser returns a function that creates an account
func runCreateUser(env *Env, name, phone *string, admin *bool) func(cmd *cobra.Command, args []string) error {
	return func(cmd *cobra.Command, args []string) (err error) {
		ctx, finish := traced(cmd)
		defer finish(&err)

		password, err := env.ReadPassword("Enter password: ")
		if err != nil {
			return err
		}
		confirm, err := env.ReadPassword("Confirm password: ")
		if err != nil {
			return err
		}
		if password != confirm {
			return contextutils.ErrorWithContextf("passwords do not match")
		}

		role := models.RoleUser
		if *admin {
			role = models.RoleAdmin
		}

		container, err := env.Container(ctx)
		if err != nil {
			return err
		}
		identityService, err := container.GetIdentityService()
		if err != nil {
			return err
		}

		user, err := identityService.CreateUser(ctx, models.SignupRequest{
			Email:    args[0],
			Password: password,
			Name:     *name,
			Phone:    *phone,
		}, role)
		if err != nil {
			return err
		}

		env.Logger.Info(ctx, "User created from admin CLI", map[string]interface{}{"user_id": user.ID, "role": string(user.Role)})
		writef(cmd.OutOrStdout(), "Created %s %s (ID: %s)\n", user.Role, user.Email, user.ID)
		return nil
	}
}

func orDash(v string) string {
	if v == "" {
		return "-"
	}
	return v
}
