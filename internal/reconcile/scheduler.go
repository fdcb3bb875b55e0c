package reconcile

import (
	"context"
	"fmt"

	"github.com/robfig/cron/v3"
	"github.com/zulandar/multidb/internal/logging"
)

// cronParser uses standard 5-field cron expressions (minute, hour, dom, month, dow).
var cronParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)

// ValidateSchedule reports whether expr is a 5-field cron expression.
func ValidateSchedule(expr string) error {
	if _, err := cronParser.Parse(expr); err != nil {
		return fmt.Errorf("reconcile: schedule %q: %w", expr, err)
	}
	return nil
}

// Runner scans on demand or on a schedule.
type Runner struct {
	Lister   Lister
	Tracker  Tracker
	Notifier Notifier // optional
}

// RunOnce scans, logs the findings and notifies when the report is not clean.
func (r *Runner) RunOnce(ctx context.Context) Report {
	rep := Scan(ctx, r.Lister, r.Tracker)
	Log(rep)
	if !rep.Clean() && r.Notifier != nil {
		if err := r.Notifier.Notify(ctx, rep); err != nil {
			logging.Printf("reconcile: notify: %v", err)
		}
	}
	return rep
}

// Run scans on schedule until ctx is cancelled. Overlapping runs are skipped.
func (r *Runner) Run(ctx context.Context, schedule string) error {
	c := cron.New(
		cron.WithParser(cronParser),
		cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)),
	)
	if _, err := c.AddFunc(schedule, func() { r.RunOnce(ctx) }); err != nil {
		return fmt.Errorf("reconcile: schedule %q: %w", schedule, err)
	}
	c.Start()
	<-ctx.Done()
	<-c.Stop().Done()
	return nil
}
