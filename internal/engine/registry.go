package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/zulandar/multidb/internal/config"
	"github.com/zulandar/multidb/internal/models"
	"golang.org/x/sync/errgroup"
)

// DefaultHealthTimeout bounds each health check when none is configured.
const DefaultHealthTimeout = 5 * time.Second

// Health is one engine's entry in a health report.
type Health struct {
	Engine  models.EngineType `json:"engine"`
	Port    int               `json:"port"`
	Healthy bool              `json:"healthy"`
}

// Registry holds the drivers built at startup. It is read-only after
// construction and safe for concurrent use.
type Registry struct {
	byType        map[models.EngineType]Driver
	ordered       []Driver
	healthTimeout time.Duration
}

// NewRegistry returns a registry over drivers. When two drivers share an
// engine type the later one wins.
func NewRegistry(healthTimeout time.Duration, drivers ...Driver) *Registry {
	if healthTimeout <= 0 {
		healthTimeout = DefaultHealthTimeout
	}
	r := &Registry{
		byType:        make(map[models.EngineType]Driver, len(drivers)),
		healthTimeout: healthTimeout,
	}
	for _, d := range drivers {
		r.byType[d.Descriptor().Type] = d
	}
	for _, et := range models.AllEngineTypes {
		if d, ok := r.byType[et]; ok {
			r.ordered = append(r.ordered, d)
		}
	}
	return r
}

// New returns the driver for engine type et.
func New(et models.EngineType, ec config.EngineConfig, timeout time.Duration) (Driver, error) {
	switch et {
	case models.EngineMySQL:
		return NewMySQL(ec, timeout), nil
	case models.EnginePostgreSQL:
		return NewPostgreSQL(ec, timeout), nil
	case models.EngineSQLServer:
		return NewSQLServer(ec, timeout), nil
	case models.EngineMongoDB:
		return NewMongoDB(ec, timeout), nil
	case models.EngineRedis:
		return NewRedis(ec, timeout), nil
	}
	return nil, fmt.Errorf("engine: unsupported engine %q", et)
}

// BuildRegistry constructs a driver for every enabled engine in cfg.
func BuildRegistry(cfg *config.Config) (*Registry, error) {
	var drivers []Driver
	for _, et := range cfg.EnabledEngines() {
		d, err := New(et, cfg.Engines[et], cfg.Timeouts.Engine)
		if err != nil {
			return nil, err
		}
		drivers = append(drivers, d)
	}
	return NewRegistry(cfg.Timeouts.Health, drivers...), nil
}

// Lookup returns the driver registered for et.
func (r *Registry) Lookup(et models.EngineType) (Driver, bool) {
	d, ok := r.byType[et]
	return d, ok
}

// Drivers returns the registered drivers in canonical engine order.
func (r *Registry) Drivers() []Driver {
	return append([]Driver(nil), r.ordered...)
}

// HealthCheckAll tests every driver concurrently. The report has one entry per
// driver, in canonical order. A check that outlives the health timeout is
// abandoned and reported unhealthy.
func (r *Registry) HealthCheckAll(ctx context.Context) []Health {
	report := make([]Health, len(r.ordered))
	var g errgroup.Group
	for i, d := range r.ordered {
		desc := d.Descriptor()
		report[i] = Health{Engine: desc.Type, Port: desc.DefaultPort}
		g.Go(func() error {
			report[i].Healthy = r.check(ctx, d)
			return nil
		})
	}
	_ = g.Wait()
	return report
}

func (r *Registry) check(ctx context.Context, d Driver) bool {
	ctx, cancel := context.WithTimeout(ctx, r.healthTimeout)
	defer cancel()

	done := make(chan bool, 1)
	go func() { done <- d.TestConnection(ctx) }()
	select {
	case ok := <-done:
		return ok
	case <-ctx.Done():
		return false
	}
}
