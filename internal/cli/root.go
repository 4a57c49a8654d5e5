// Package cli implements the pgkeeper command line interface.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "pgkeeper",
	Short: "Resilient PostgreSQL connection manager",
	Long: `pgkeeper runs SQL against PostgreSQL through a self-healing connection.
Failed statements are retried with reconnection and backoff; passwords set
to IAM, SECRET-MANAGED or AZURE-ENTRA are resolved freshly on every
connect, so rotated credentials never strand a session.

Exit Codes:
  0  - Success
  1  - General error
  2  - CLI usage error (invalid arguments or flags)
  3  - Panic or unexpected system error
  10 - Invalid configuration or parameters
  11 - Database connection failed
  12 - Credential resolution failed
  13 - SQL execution failed or query not found`,
	SilenceUsage: true,
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose output for all commands")
	rootCmd.PersistentFlags().StringP("config", "C", ".", "Directory containing pgkeeper.yaml")
	rootCmd.PersistentFlags().StringP("env", "e", "", "Environment prefix for connection variables (e.g. PROD reads PROD_DB_HOST)")
	rootCmd.PersistentFlags().StringP("queries", "q", "", "Directory holding named .sql queries")
}

// getVerboseFlag safely retrieves the verbose flag value
func getVerboseFlag(cmd *cobra.Command) bool {
	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: Failed to get verbose flag: %v\n", err)
		return false
	}
	return verbose
}
