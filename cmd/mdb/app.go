package main

import (
	"fmt"

	"github.com/zulandar/multidb/internal/config"
	"github.com/zulandar/multidb/internal/db"
	"github.com/zulandar/multidb/internal/engine"
	"github.com/zulandar/multidb/internal/instance"
	"github.com/zulandar/multidb/internal/query"
	"github.com/zulandar/multidb/internal/reconcile"
	"github.com/zulandar/multidb/internal/store"
	"gorm.io/gorm"
)

// app is everything a command needs once config is loaded.
type app struct {
	cfg        *config.Config
	db         *gorm.DB
	store      *store.Gorm
	registry   *engine.Registry
	instances  *instance.Service
	dispatcher *query.Dispatcher
}

func connectFromConfig(configPath string) (*config.Config, *gorm.DB, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}

	gormDB, err := db.Connect(cfg.Store)
	if err != nil {
		return nil, nil, fmt.Errorf("connect to %s: %w", cfg.Store.Database, err)
	}

	return cfg, gormDB, nil
}

// loadApp loads config, connects to the metadata store and wires the
// registry, orchestrator and dispatcher.
func loadApp(configPath string) (*app, error) {
	cfg, gormDB, err := connectFromConfig(configPath)
	if err != nil {
		return nil, err
	}
	return newApp(cfg, gormDB)
}

func newApp(cfg *config.Config, gormDB *gorm.DB) (*app, error) {
	registry, err := engine.BuildRegistry(cfg)
	if err != nil {
		return nil, err
	}
	st := store.New(gormDB)
	dispatcher, err := query.NewFromConfig(st, cfg)
	if err != nil {
		return nil, err
	}
	return &app{
		cfg:        cfg,
		db:         gormDB,
		store:      st,
		registry:   registry,
		instances:  instance.NewService(st, registry, instance.Options{PublicHost: cfg.PublicHost}),
		dispatcher: dispatcher,
	}, nil
}

// reconciler returns a runner over the app's engines and instances. It
// notifies Slack when a webhook is configured.
func (a *app) reconciler() *reconcile.Runner {
	r := &reconcile.Runner{Lister: a.registry, Tracker: a.instances}
	if url := a.cfg.Reconcile.SlackWebhook; url != "" {
		r.Notifier = reconcile.SlackWebhook{URL: url}
	}
	return r
}
