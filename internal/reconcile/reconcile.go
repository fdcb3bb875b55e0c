// Package reconcile compares the databases present on each engine master with
// the instances recorded in the metadata store. It reports differences and
// never drops anything.
package reconcile

import (
	"context"
	"fmt"
	"sort"

	"github.com/zulandar/multidb/internal/credential"
	"github.com/zulandar/multidb/internal/engine"
	"github.com/zulandar/multidb/internal/logging"
	"github.com/zulandar/multidb/internal/models"
	"golang.org/x/sync/errgroup"
)

// Lister exposes the configured engine drivers.
type Lister interface {
	Drivers() []engine.Driver
}

// Tracker returns the database names recorded for an engine.
type Tracker interface {
	Tracked(ctx context.Context, et models.EngineType) (map[string]bool, error)
}

// EngineReport is the outcome of one engine's scan.
type EngineReport struct {
	Engine models.EngineType
	// Orphans exist on the engine with a generated name but have no record.
	Orphans []string
	// Missing are recorded but absent from the engine.
	Missing []string
	Err     error
}

// Report collects every engine's scan in registry order.
type Report struct {
	Engines []EngineReport
}

// Clean reports whether no engine has orphans, missing databases or errors.
func (r Report) Clean() bool {
	for _, e := range r.Engines {
		if len(e.Orphans) > 0 || len(e.Missing) > 0 || e.Err != nil {
			return false
		}
	}
	return true
}

// OrphanCount totals orphans across engines.
func (r Report) OrphanCount() int {
	n := 0
	for _, e := range r.Engines {
		n += len(e.Orphans)
	}
	return n
}

// Scan lists every engine's databases concurrently and diffs them against the
// tracked names. Databases whose names were not generated by multidb are
// ignored. A failure on one engine is recorded on its entry.
func Scan(ctx context.Context, lister Lister, tracker Tracker) Report {
	drivers := lister.Drivers()
	out := make([]EngineReport, len(drivers))

	var g errgroup.Group
	for i, d := range drivers {
		g.Go(func() error {
			out[i] = scanEngine(ctx, d, tracker)
			return nil
		})
	}
	g.Wait()
	return Report{Engines: out}
}

func scanEngine(ctx context.Context, d engine.Driver, tracker Tracker) EngineReport {
	et := d.Descriptor().Type
	rep := EngineReport{Engine: et}

	tracked, err := tracker.Tracked(ctx, et)
	if err != nil {
		rep.Err = fmt.Errorf("reconcile: %s: tracked databases: %w", et, err)
		return rep
	}

	// An unreachable engine lists nothing; diffing that would report every
	// tracked database as missing.
	if !d.TestConnection(ctx) {
		rep.Err = fmt.Errorf("reconcile: %s: engine unreachable", et)
		return rep
	}

	present := make(map[string]bool)
	for _, name := range d.ListDatabases(ctx) {
		present[name] = true
		if !tracked[name] && credential.IsGeneratedDatabaseName(name, et) {
			rep.Orphans = append(rep.Orphans, name)
		}
	}
	for name := range tracked {
		if !present[name] {
			rep.Missing = append(rep.Missing, name)
		}
	}
	sort.Strings(rep.Orphans)
	sort.Strings(rep.Missing)
	return rep
}

// Log writes one line per finding in the same key=value shape as the
// provisioning orphan event.
func Log(r Report) {
	for _, e := range r.Engines {
		if e.Err != nil {
			logging.Printf("reconcile: %v", e.Err)
		}
		for _, name := range e.Orphans {
			logging.Printf("reconcile: orphaned engine resource engine=%s database=%s", e.Engine, name)
		}
		for _, name := range e.Missing {
			logging.Printf("reconcile: missing engine resource engine=%s database=%s", e.Engine, name)
		}
	}
}
