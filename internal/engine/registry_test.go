package engine

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/zulandar/multidb/internal/config"
	"github.com/zulandar/multidb/internal/models"
)

// fakeDriver is a hand-rolled Driver whose health is scripted.
type fakeDriver struct {
	et      models.EngineType
	healthy bool
	hang    chan struct{}
	calls   atomic.Int32
}

func (f *fakeDriver) Descriptor() Descriptor                                      { return descriptorFor(f.et) }
func (f *fakeDriver) CreateDatabase(context.Context, string, string, string) bool { return true }
func (f *fakeDriver) DropDatabase(context.Context, string) bool                   { return true }
func (f *fakeDriver) DatabaseExists(context.Context, string) bool                 { return false }
func (f *fakeDriver) ListDatabases(context.Context) []string                      { return []string{} }

// TestConnection blocks on hang, ignoring ctx, when hang is set.
func (f *fakeDriver) TestConnection(ctx context.Context) bool {
	f.calls.Add(1)
	if f.hang != nil {
		<-f.hang
	}
	return f.healthy
}

func TestRegistry_LookupAndOrder(t *testing.T) {
	r := NewRegistry(0,
		&fakeDriver{et: models.EngineRedis},
		&fakeDriver{et: models.EngineMySQL},
		&fakeDriver{et: models.EngineMongoDB},
	)

	if _, ok := r.Lookup(models.EngineMySQL); !ok {
		t.Error("Lookup(mysql) not found")
	}
	if _, ok := r.Lookup(models.EngineSQLServer); ok {
		t.Error("Lookup(sqlserver) found, want missing")
	}

	var got []models.EngineType
	for _, d := range r.Drivers() {
		got = append(got, d.Descriptor().Type)
	}
	want := []models.EngineType{models.EngineMySQL, models.EngineMongoDB, models.EngineRedis}
	if len(got) != len(want) {
		t.Fatalf("Drivers() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Drivers()[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestRegistry_HealthCheckAll_OneTimesOut(t *testing.T) {
	hang := make(chan struct{})
	defer close(hang)

	drivers := []*fakeDriver{
		{et: models.EngineMySQL, healthy: true},
		{et: models.EnginePostgreSQL, healthy: false},
		{et: models.EngineMongoDB, healthy: true, hang: hang},
		{et: models.EngineRedis, healthy: true},
		{et: models.EngineSQLServer, healthy: true},
	}
	var ds []Driver
	for _, d := range drivers {
		ds = append(ds, d)
	}
	const timeout = 100 * time.Millisecond
	r := NewRegistry(timeout, ds...)

	start := time.Now()
	report := r.HealthCheckAll(context.Background())
	elapsed := time.Since(start)

	if len(report) != 5 {
		t.Fatalf("len(report) = %d, want 5", len(report))
	}
	want := map[models.EngineType]bool{
		models.EngineMySQL:      true,
		models.EnginePostgreSQL: false,
		models.EngineMongoDB:    false,
		models.EngineRedis:      true,
		models.EngineSQLServer:  true,
	}
	for _, h := range report {
		if h.Healthy != want[h.Engine] {
			t.Errorf("%s healthy = %v, want %v", h.Engine, h.Healthy, want[h.Engine])
		}
		if h.Port != h.Engine.DefaultPort() {
			t.Errorf("%s port = %d, want %d", h.Engine, h.Port, h.Engine.DefaultPort())
		}
	}
	if elapsed > 10*timeout {
		t.Errorf("HealthCheckAll took %v, want close to %v", elapsed, timeout)
	}
	for _, d := range drivers {
		if d.calls.Load() != 1 {
			t.Errorf("%s TestConnection calls = %d, want 1", d.et, d.calls.Load())
		}
	}
}

func TestRegistry_HealthCheckAll_Empty(t *testing.T) {
	r := NewRegistry(time.Second)
	if got := r.HealthCheckAll(context.Background()); len(got) != 0 {
		t.Errorf("HealthCheckAll() = %v, want empty", got)
	}
}

func TestBuildRegistry(t *testing.T) {
	cfg, err := config.Parse([]byte(`
engines:
  mysql: {}
  redis: {}
  sqlserver:
    disabled: true
`))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	r, err := BuildRegistry(cfg)
	if err != nil {
		t.Fatalf("BuildRegistry: %v", err)
	}
	if len(r.Drivers()) != 2 {
		t.Errorf("len(Drivers()) = %d, want 2", len(r.Drivers()))
	}
	if _, ok := r.Lookup(models.EngineSQLServer); ok {
		t.Error("disabled engine registered")
	}
	if d, ok := r.Lookup(models.EngineMySQL); !ok {
		t.Error("mysql not registered")
	} else if _, isMySQL := d.(*MySQL); !isMySQL {
		t.Errorf("mysql driver is %T, want *MySQL", d)
	}
}
