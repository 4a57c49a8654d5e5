package cli

import (
	"github.com/spf13/cobra"
)

var execCmd = &cobra.Command{
	Use:   "exec <query>",
	Short: "Execute a named query or literal SQL",
	Long: `Execute a statement without fetching results. The argument is the name
of a .sql file in the query directory; with --sql it is treated as a
literal statement instead. Named arguments are passed as repeated
--arg key=value flags and bound to @key placeholders.

Transient failures (network faults, failovers, lock timeouts) are retried
with reconnection between attempts.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, cmdArgs []string) error {
		literal, _ := cmd.Flags().GetBool("sql")
		argPairs, _ := cmd.Flags().GetStringArray("arg")

		args, err := parseQueryArgs(argPairs)
		if err != nil {
			return err
		}

		ctx := cmd.Context()
		client, cleanup, err := setupClient(ctx, cmd)
		if err != nil {
			return err
		}
		defer cleanup()

		if literal {
			return client.ExecSQL(ctx, cmdArgs[0], args)
		}
		return client.Exec(ctx, cmdArgs[0], args)
	},
}

func init() {
	execCmd.Flags().Bool("sql", false, "Treat the argument as literal SQL instead of a query name")
	execCmd.Flags().StringArray("arg", nil, "Named argument as key=value (repeatable)")
	rootCmd.AddCommand(execCmd)
}
