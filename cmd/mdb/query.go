package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/zulandar/multidb/internal/query"
	"github.com/zulandar/multidb/internal/result"
)

func newQueryCmd() *cobra.Command {
	var (
		configPath string
		as         uint
	)

	cmd := &cobra.Command{
		Use:   "query <instance-id> <statement>...",
		Short: "Run a statement against an instance as its owner",
		Long: `Runs one statement against a tenant database, with the same access
checks, statement filter and access logging as the HTTP API.

SQL engines take SQL text. MongoDB takes a database command as extended
JSON, e.g. '{"find": "people", "filter": {}}'. Redis takes a command line,
e.g. 'GET greeting'.`,
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runQuery(cmd, configPath, args[0], strings.Join(args[1:], " "), as)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", defaultConfigPath, "path to multidb config file")
	cmd.Flags().UintVar(&as, "as", 0, "requesting user id (required)")
	cmd.MarkFlagRequired("as")
	return cmd
}

func runQuery(cmd *cobra.Command, configPath, idArg, statement string, as uint) error {
	id, err := parseID("instance id", idArg)
	if err != nil {
		return err
	}
	a, err := loadApp(configPath)
	if err != nil {
		return err
	}

	res := a.dispatcher.Execute(context.Background(), query.Request{InstanceID: id, Query: statement}, as)
	return printResult(cmd, res)
}

// printResult writes a dispatched result. A failed result is returned as an
// error so the command exits non-zero.
func printResult(cmd *cobra.Command, res *result.QueryResult) error {
	out := cmd.OutOrStdout()
	if !res.Success {
		return fmt.Errorf("%s", res.ErrorMessage)
	}
	if res.AffectedRows != nil {
		fmt.Fprintf(out, "%s: %d row(s) affected (%s)\n", res.QueryType, *res.AffectedRows, result.FormatDuration(res.ExecutionTime))
		return nil
	}

	cols, rows := resultRows(res)
	if len(rows) == 0 {
		fmt.Fprintf(out, "No rows (%s)\n", result.FormatDuration(res.ExecutionTime))
		return nil
	}
	if err := renderTable(out, cols, rows); err != nil {
		return err
	}
	fmt.Fprintf(out, "%d row(s) (%s)\n", len(rows), result.FormatDuration(res.ExecutionTime))
	return nil
}
