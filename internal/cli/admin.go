package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var createDBCmd = &cobra.Command{
	Use:   "create-db [name]",
	Short: "Create a database",
	Long: `Create a database by connecting to the postgres maintenance database
with the configured credentials. Without an argument the configured
database name is created. The operation runs outside the retry loop;
a failure is reported immediately.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, cmdArgs []string) error {
		name := ""
		if len(cmdArgs) == 1 {
			name = cmdArgs[0]
		}

		ctx := cmd.Context()
		client, cleanup, err := setupClient(ctx, cmd)
		if err != nil {
			return err
		}
		defer cleanup()

		if err := client.CreateDatabase(ctx, name); err != nil {
			return err
		}
		fmt.Fprintln(os.Stderr, "Database created.")
		return nil
	},
}

var createUserCmd = &cobra.Command{
	Use:   "create-user",
	Short: "Create the configured user with IAM login",
	Long: `Create the configured user on the postgres maintenance database and
grant it IAM-based login. The admin credentials used for this one
operation are taken from --admin-user and --admin-password; the admin
password is prompted for when omitted.`,
	RunE: func(cmd *cobra.Command, cmdArgs []string) error {
		adminUser, _ := cmd.Flags().GetString("admin-user")
		adminPassword, _ := cmd.Flags().GetString("admin-password")

		ctx := cmd.Context()
		client, cleanup, err := setupClient(ctx, cmd)
		if err != nil {
			return err
		}
		defer cleanup()

		if adminPassword == "" {
			adminPassword, err = promptPassword(adminUser)
			if err != nil {
				return err
			}
		}

		if err := client.CreateIAMUser(ctx, adminUser, adminPassword); err != nil {
			return err
		}
		fmt.Fprintln(os.Stderr, "User created.")
		return nil
	},
}

var verifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Check whether the database accepts a connection",
	Long: `Attempt a single connection with the configured parameters. Prints OK
and exits 0 when the database is reachable and the credentials are
accepted; prints UNAVAILABLE and exits 1 when the server answers but the
database or credentials do not exist yet. Network-level failures are
reported as errors.`,
	RunE: func(cmd *cobra.Command, cmdArgs []string) error {
		ctx := cmd.Context()
		client, cleanup, err := setupClient(ctx, cmd)
		if err != nil {
			return err
		}
		defer cleanup()

		ok, err := client.VerifyConnect(ctx)
		if err != nil {
			return err
		}
		if !ok {
			fmt.Fprintln(os.Stdout, "UNAVAILABLE")
			return fmt.Errorf("database is not ready for connections")
		}
		fmt.Fprintln(os.Stdout, "OK")
		return nil
	},
}

func init() {
	createUserCmd.Flags().String("admin-user", "postgres", "Administrative user for the operation")
	createUserCmd.Flags().String("admin-password", "", "Administrative password (prompted when empty)")
	rootCmd.AddCommand(createDBCmd)
	rootCmd.AddCommand(createUserCmd)
	rootCmd.AddCommand(verifyCmd)
}
