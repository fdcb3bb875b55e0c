package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/zulandar/multidb/internal/reconcile"
)

func newReconcileCmd() *cobra.Command {
	var (
		configPath string
		notify     bool
	)

	cmd := &cobra.Command{
		Use:   "reconcile",
		Short: "Compare engine databases with recorded instances",
		Long: `Lists databases that exist on an engine master with a generated name but
no instance record, and instances whose database is gone. Nothing is dropped.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReconcile(cmd, configPath, notify)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", defaultConfigPath, "path to multidb config file")
	cmd.Flags().BoolVar(&notify, "notify", false, "post findings to reconcile.slack_webhook")
	return cmd
}

func runReconcile(cmd *cobra.Command, configPath string, notify bool) error {
	a, err := loadApp(configPath)
	if err != nil {
		return err
	}
	runner := a.reconciler()
	if !notify {
		runner.Notifier = nil
	} else if runner.Notifier == nil {
		return fmt.Errorf("--notify requires reconcile.slack_webhook in %s", configPath)
	}

	return printReport(cmd, runner.RunOnce(context.Background()))
}

func printReport(cmd *cobra.Command, rep reconcile.Report) error {
	out := cmd.OutOrStdout()
	if rep.Clean() {
		fmt.Fprintln(out, "All engines reconciled; nothing to report.")
		return nil
	}

	var rows [][]string
	for _, er := range rep.Engines {
		for _, name := range er.Orphans {
			rows = append(rows, []string{string(er.Engine), name, "orphaned"})
		}
		for _, name := range er.Missing {
			rows = append(rows, []string{string(er.Engine), name, "missing"})
		}
		if er.Err != nil {
			rows = append(rows, []string{string(er.Engine), "-", "error: " + strings.TrimSpace(er.Err.Error())})
		}
	}
	if err := renderTable(out, []string{"ENGINE", "DATABASE", "FINDING"}, rows); err != nil {
		return err
	}
	fmt.Fprintf(out, "%d orphaned database(s)\n", rep.OrphanCount())
	return nil
}
