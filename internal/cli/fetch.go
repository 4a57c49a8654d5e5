package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/vvka-141/pgkeeper/pkg/pgkeeper"
)

var fetchCmd = &cobra.Command{
	Use:   "fetch <query>",
	Short: "Run a query and print its rows",
	Long: `Run a named query (or literal SQL with --sql) and print the result as
tab-separated values with a header line. With --one only the first row is
fetched; an empty result prints nothing and still succeeds.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, cmdArgs []string) error {
		literal, _ := cmd.Flags().GetBool("sql")
		one, _ := cmd.Flags().GetBool("one")
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

		var rows []pgkeeper.Row
		switch {
		case one && literal:
			row, err := client.FetchOneSQL(ctx, cmdArgs[0], args)
			if err != nil {
				return err
			}
			if row != nil {
				rows = []pgkeeper.Row{*row}
			}
		case one:
			row, err := client.FetchOne(ctx, cmdArgs[0], args)
			if err != nil {
				return err
			}
			if row != nil {
				rows = []pgkeeper.Row{*row}
			}
		case literal:
			rows, err = client.FetchAllSQL(ctx, cmdArgs[0], args)
			if err != nil {
				return err
			}
		default:
			rows, err = client.FetchAll(ctx, cmdArgs[0], args)
			if err != nil {
				return err
			}
		}

		printRows(rows)
		return nil
	},
}

// printRows writes a header plus one line per row to stdout. NULL values
// render as empty fields.
func printRows(rows []pgkeeper.Row) {
	if len(rows) == 0 {
		return
	}

	fmt.Fprintln(os.Stdout, strings.Join(rows[0].Columns(), "\t"))
	for _, row := range rows {
		fields := make([]string, row.Len())
		for i, v := range row.Values() {
			if v == nil {
				continue
			}
			fields[i] = fmt.Sprintf("%v", v)
		}
		fmt.Fprintln(os.Stdout, strings.Join(fields, "\t"))
	}
}

func init() {
	fetchCmd.Flags().Bool("sql", false, "Treat the argument as literal SQL instead of a query name")
	fetchCmd.Flags().Bool("one", false, "Fetch only the first row")
	fetchCmd.Flags().StringArray("arg", nil, "Named argument as key=value (repeatable)")
	rootCmd.AddCommand(fetchCmd)
}
