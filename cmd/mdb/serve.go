package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/zulandar/multidb/internal/api"
	"github.com/zulandar/multidb/internal/reconcile"
	"golang.org/x/sync/errgroup"
)

func newServeCmd() *cobra.Command {
	var (
		configPath string
		port       int
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		Long: `Starts the multidb HTTP API.

When reconcile.schedule is set in config, the orphan scan runs on that
schedule alongside the API and posts findings to reconcile.slack_webhook
if one is configured.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd, configPath, port)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", defaultConfigPath, "path to multidb config file")
	cmd.Flags().IntVarP(&port, "port", "p", 0, "port to listen on (overrides api.port)")
	return cmd
}

func runServe(cmd *cobra.Command, configPath string, port int) error {
	a, err := loadApp(configPath)
	if err != nil {
		return err
	}
	if port == 0 {
		port = a.cfg.API.Port
	}
	schedule := a.cfg.Reconcile.Schedule
	if schedule != "" {
		if err := reconcile.ValidateSchedule(schedule); err != nil {
			return err
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		fmt.Fprintf(cmd.OutOrStdout(), "\nReceived %s, shutting down...\n", sig)
		cancel()
	}()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return api.Start(ctx, api.StartOpts{
			Instances: a.instances,
			Queries:   a.dispatcher,
			Engines:   a.registry,
			Auth:      api.AuthConfig{Secret: a.cfg.API.JWTSecret, Issuer: a.cfg.API.JWTIssuer},
			Port:      port,
			Out:       cmd.OutOrStdout(),
		})
	})
	if schedule != "" {
		fmt.Fprintf(cmd.OutOrStdout(), "Reconcile scheduled: %s\n", schedule)
		runner := a.reconciler()
		g.Go(func() error {
			return runner.Run(ctx, schedule)
		})
	}
	return g.Wait()
}
