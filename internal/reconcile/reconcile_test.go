package reconcile

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/slack-go/slack"
	"github.com/zulandar/multidb/internal/config"
	"github.com/zulandar/multidb/internal/engine"
	"github.com/zulandar/multidb/internal/models"
)

type listDriver struct {
	et   models.EngineType
	dbs  []string
	down bool
}

func (d *listDriver) Descriptor() engine.Descriptor {
	return engine.Descriptor{Type: d.et, DefaultPort: d.et.DefaultPort()}
}

func (d *listDriver) CreateDatabase(context.Context, string, string, string) bool { return true }
func (d *listDriver) DropDatabase(context.Context, string) bool                   { return true }
func (d *listDriver) TestConnection(context.Context) bool                         { return !d.down }
func (d *listDriver) DatabaseExists(context.Context, string) bool                 { return true }
func (d *listDriver) ListDatabases(context.Context) []string {
	if d.down {
		return []string{}
	}
	return d.dbs
}

type staticTracker struct {
	byEngine map[models.EngineType][]string
	failOn   models.EngineType
}

func (s staticTracker) Tracked(_ context.Context, et models.EngineType) (map[string]bool, error) {
	if et == s.failOn {
		return nil, errors.New("store: list instances: connection reset")
	}
	out := map[string]bool{}
	for _, n := range s.byEngine[et] {
		out[n] = true
	}
	return out, nil
}

type countingNotifier struct {
	calls atomic.Int32
	err   error
}

func (n *countingNotifier) Notify(context.Context, Report) error {
	n.calls.Add(1)
	return n.err
}

func captureLog(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	prev := log.Writer()
	log.SetOutput(&buf)
	t.Cleanup(func() { log.SetOutput(prev) })
	return &buf
}

func testRegistry() *engine.Registry {
	return engine.NewRegistry(0,
		&listDriver{et: models.EngineMySQL, dbs: []string{"multidb", "alice_mysql_0a1b2c3d", "bob_mysql_deadbeef"}},
		&listDriver{et: models.EngineRedis, dbs: []string{"alice_redis_11112222"}},
		&listDriver{et: models.EngineMongoDB, dbs: []string{}},
	)
}

func TestScan(t *testing.T) {
	tracker := staticTracker{byEngine: map[models.EngineType][]string{
		models.EngineMySQL:   {"alice_mysql_0a1b2c3d"},
		models.EngineRedis:   {"alice_redis_11112222"},
		models.EngineMongoDB: {"carol_mongodb_abcdef01"},
	}}

	rep := Scan(context.Background(), testRegistry(), tracker)
	if len(rep.Engines) != 3 {
		t.Fatalf("len(Engines) = %d, want 3", len(rep.Engines))
	}
	byEngine := map[models.EngineType]EngineReport{}
	for _, e := range rep.Engines {
		byEngine[e.Engine] = e
	}

	my := byEngine[models.EngineMySQL]
	if len(my.Orphans) != 1 || my.Orphans[0] != "bob_mysql_deadbeef" {
		t.Errorf("mysql orphans = %v, want [bob_mysql_deadbeef] (multidb is not generated)", my.Orphans)
	}
	if rd := byEngine[models.EngineRedis]; len(rd.Orphans) != 0 || len(rd.Missing) != 0 {
		t.Errorf("redis = %+v, want clean", rd)
	}
	mg := byEngine[models.EngineMongoDB]
	if len(mg.Missing) != 1 || mg.Missing[0] != "carol_mongodb_abcdef01" {
		t.Errorf("mongodb missing = %v, want [carol_mongodb_abcdef01]", mg.Missing)
	}
	if rep.Clean() {
		t.Error("Clean() = true, want false")
	}
	if rep.OrphanCount() != 1 {
		t.Errorf("OrphanCount() = %d, want 1", rep.OrphanCount())
	}
}

func TestScan_TrackerFailureIsPerEngine(t *testing.T) {
	tracker := staticTracker{
		byEngine: map[models.EngineType][]string{models.EngineMySQL: {"alice_mysql_0a1b2c3d", "bob_mysql_deadbeef"}},
		failOn:   models.EngineRedis,
	}
	rep := Scan(context.Background(), testRegistry(), tracker)
	for _, e := range rep.Engines {
		switch e.Engine {
		case models.EngineRedis:
			if e.Err == nil {
				t.Error("redis Err = nil, want tracker failure")
			}
		default:
			if e.Err != nil || len(e.Orphans) != 0 {
				t.Errorf("%s = %+v, want clean", e.Engine, e)
			}
		}
	}
}

func TestScan_UnreachableEngineIsAnError(t *testing.T) {
	reg := engine.NewRegistry(0,
		&listDriver{et: models.EngineMySQL, dbs: []string{"alice_mysql_0a1b2c3d"}, down: true},
		&listDriver{et: models.EngineRedis, dbs: []string{"alice_redis_11112222"}},
	)
	tracker := staticTracker{byEngine: map[models.EngineType][]string{
		models.EngineMySQL: {"alice_mysql_0a1b2c3d", "bob_mysql_deadbeef"},
		models.EngineRedis: {"alice_redis_11112222"},
	}}

	rep := Scan(context.Background(), reg, tracker)
	for _, e := range rep.Engines {
		switch e.Engine {
		case models.EngineMySQL:
			if e.Err == nil || !strings.Contains(e.Err.Error(), "unreachable") {
				t.Errorf("mysql Err = %v, want unreachable", e.Err)
			}
			if len(e.Missing) != 0 || len(e.Orphans) != 0 {
				t.Errorf("mysql missing = %v orphans = %v, want none while unreachable", e.Missing, e.Orphans)
			}
		case models.EngineRedis:
			if e.Err != nil || len(e.Missing) != 0 || len(e.Orphans) != 0 {
				t.Errorf("redis = %+v, want clean", e)
			}
		}
	}
}

func TestScan_UnreachableRealDriver(t *testing.T) {
	d := engine.NewMySQL(config.EngineConfig{Host: "127.0.0.1", Port: 1, User: "root"}, time.Second)
	tracker := staticTracker{byEngine: map[models.EngineType][]string{
		models.EngineMySQL: {"alice_mysql_0a1b2c3d", "bob_mysql_deadbeef"},
	}}

	rep := Scan(context.Background(), engine.NewRegistry(time.Second, d), tracker)
	if len(rep.Engines) != 1 {
		t.Fatalf("len(Engines) = %d, want 1", len(rep.Engines))
	}
	e := rep.Engines[0]
	if e.Err == nil {
		t.Error("Err = nil, want unreachable")
	}
	if len(e.Missing) != 0 {
		t.Errorf("Missing = %v, want none", e.Missing)
	}
}

func TestRunOnce_LogsAndNotifies(t *testing.T) {
	buf := captureLog(t)
	n := &countingNotifier{err: errors.New("webhook returned 404")}
	r := &Runner{Lister: testRegistry(), Tracker: staticTracker{}, Notifier: n}

	rep := r.RunOnce(context.Background())
	if rep.OrphanCount() != 3 {
		t.Errorf("OrphanCount() = %d, want 3", rep.OrphanCount())
	}
	if n.calls.Load() != 1 {
		t.Errorf("notifier called %d times, want 1", n.calls.Load())
	}
	out := buf.String()
	if !strings.Contains(out, "orphaned engine resource engine=mysql database=bob_mysql_deadbeef") {
		t.Errorf("log missing orphan line:\n%s", out)
	}
	if !strings.Contains(out, "reconcile: notify: webhook returned 404") {
		t.Errorf("log missing notify failure:\n%s", out)
	}
}

func TestRunOnce_CleanSkipsNotifier(t *testing.T) {
	n := &countingNotifier{}
	tracker := staticTracker{byEngine: map[models.EngineType][]string{
		models.EngineMySQL: {"alice_mysql_0a1b2c3d", "bob_mysql_deadbeef"},
		models.EngineRedis: {"alice_redis_11112222"},
	}}
	r := &Runner{Lister: testRegistry(), Tracker: tracker, Notifier: n}
	if rep := r.RunOnce(context.Background()); !rep.Clean() {
		t.Errorf("report = %+v, want clean", rep)
	}
	if n.calls.Load() != 0 {
		t.Errorf("notifier called %d times for a clean report", n.calls.Load())
	}
}

func TestSlackWebhook_Posts(t *testing.T) {
	var got slack.WebhookMessage
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		if err := json.Unmarshal(body, &got); err != nil {
			t.Errorf("decode webhook body: %v", err)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	rep := Report{Engines: []EngineReport{
		{Engine: models.EngineMySQL, Orphans: []string{"bob_mysql_deadbeef"}},
		{Engine: models.EngineRedis},
		{Engine: models.EngineMongoDB, Err: errors.New("tracked databases: timeout")},
	}}
	if err := (SlackWebhook{URL: srv.URL}).Notify(context.Background(), rep); err != nil {
		t.Fatalf("Notify: %v", err)
	}
	if !strings.Contains(got.Text, "1 orphaned") {
		t.Errorf("Text = %q", got.Text)
	}
	if len(got.Attachments) != 2 {
		t.Fatalf("len(Attachments) = %d, want 2 (clean engines omitted)", len(got.Attachments))
	}
	if got.Attachments[0].Title != "mysql" || got.Attachments[0].Fields[0].Value != "bob_mysql_deadbeef" {
		t.Errorf("Attachments[0] = %+v", got.Attachments[0])
	}
	if got.Attachments[1].Color != "danger" {
		t.Errorf("Attachments[1].Color = %q, want danger", got.Attachments[1].Color)
	}
}

func TestSlackWebhook_Error(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	err := (SlackWebhook{URL: srv.URL}).Notify(context.Background(), Report{})
	if err == nil || !strings.Contains(err.Error(), "post slack webhook") {
		t.Errorf("Notify error = %v, want post failure", err)
	}
}

func TestValidateSchedule(t *testing.T) {
	for _, expr := range []string{"*/30 * * * *", "0 3 * * 1-5"} {
		if err := ValidateSchedule(expr); err != nil {
			t.Errorf("ValidateSchedule(%q) = %v", expr, err)
		}
	}
	for _, expr := range []string{"", "* * *", "0 0 0 * * *", "@hourly", "every minute"} {
		if err := ValidateSchedule(expr); err == nil {
			t.Errorf("ValidateSchedule(%q) = nil, want error", expr)
		}
	}
}

func TestRun_StopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	r := &Runner{Lister: testRegistry(), Tracker: staticTracker{}}
	done := make(chan error, 1)
	go func() { done <- r.Run(ctx, "0 0 1 1 *") }()
	cancel()
	if err := <-done; err != nil {
		t.Errorf("Run() = %v, want nil", err)
	}
}

func TestRun_InvalidSchedule(t *testing.T) {
	r := &Runner{Lister: testRegistry(), Tracker: staticTracker{}}
	if err := r.Run(context.Background(), "nope"); err == nil {
		t.Error("Run(nope) = nil, want error")
	}
}
