package main

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
	"github.com/zulandar/multidb/internal/engine"
	"github.com/zulandar/multidb/internal/models"
)

func newEnginesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "engines",
		Short: "Inspect the configured engine masters",
	}

	cmd.AddCommand(newEnginesHealthCmd())
	cmd.AddCommand(newEnginesDatabasesCmd())
	return cmd
}

func newEnginesHealthCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "health",
		Short: "Test the connection to every enabled engine",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEnginesHealth(cmd, configPath)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", defaultConfigPath, "path to multidb config file")
	return cmd
}

func runEnginesHealth(cmd *cobra.Command, configPath string) error {
	a, err := loadApp(configPath)
	if err != nil {
		return err
	}
	return printHealth(cmd, a.registry.HealthCheckAll(context.Background()))
}

func printHealth(cmd *cobra.Command, report []engine.Health) error {
	out := cmd.OutOrStdout()
	if len(report) == 0 {
		fmt.Fprintln(out, "No engines enabled.")
		return nil
	}
	rows := make([][]string, 0, len(report))
	unhealthy := 0
	for _, h := range report {
		state := "ok"
		if !h.Healthy {
			state = "unreachable"
			unhealthy++
		}
		rows = append(rows, []string{string(h.Engine), strconv.Itoa(h.Port), state})
	}
	if err := renderTable(out, []string{"ENGINE", "PORT", "STATUS"}, rows); err != nil {
		return err
	}
	if unhealthy > 0 {
		return fmt.Errorf("%d of %d engines unreachable", unhealthy, len(report))
	}
	return nil
}

func newEnginesDatabasesCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "databases <engine>",
		Short: "List tenant databases present on an engine",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEnginesDatabases(cmd, configPath, args[0])
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", defaultConfigPath, "path to multidb config file")
	return cmd
}

func runEnginesDatabases(cmd *cobra.Command, configPath, name string) error {
	et, err := models.ParseEngineType(name)
	if err != nil {
		return err
	}
	a, err := loadApp(configPath)
	if err != nil {
		return err
	}
	d, ok := a.registry.Lookup(et)
	if !ok {
		return fmt.Errorf("engine %s is not enabled", et)
	}

	out := cmd.OutOrStdout()
	names := d.ListDatabases(context.Background())
	if len(names) == 0 {
		fmt.Fprintf(out, "No databases on %s.\n", et)
		return nil
	}
	for _, n := range names {
		fmt.Fprintln(out, n)
	}
	return nil
}
