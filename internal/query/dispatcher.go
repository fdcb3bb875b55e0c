// Package query runs tenant queries against their own instance and
// normalizes the engine's reply into a result.QueryResult.
//
// The dispatcher never returns an error: every failure, from a missing
// instance to an engine timeout, is reported as an unsuccessful result.
package query

import (
	"context"
	"fmt"
	"time"

	"github.com/zulandar/multidb/internal/config"
	"github.com/zulandar/multidb/internal/logging"
	"github.com/zulandar/multidb/internal/models"
	"github.com/zulandar/multidb/internal/result"
)

// DefaultTimeout bounds a single query when none is configured.
const DefaultTimeout = 30 * time.Second

// Fixed failure messages.
const (
	MsgNoAccess     = "no access to this instance"
	MsgNotFound     = "instance not found"
	MsgNotPermitted = "operation not permitted: administrative statements are blocked"
)

// Store is the persistence the dispatcher needs.
type Store interface {
	GetInstance(ctx context.Context, id uint) (*models.Instance, error)
	TouchInstance(ctx context.Context, id uint, at time.Time) error
	RecordAccess(ctx context.Context, entry *models.AccessLog) error
}

// Request is one query against an instance. Parameters are accepted for
// API compatibility but not bound into the statement.
type Request struct {
	InstanceID uint           `json:"instanceId"`
	Query      string         `json:"query"`
	Parameters map[string]any `json:"parameters,omitempty"`
}

// Options tunes a Dispatcher.
type Options struct {
	Timeout   time.Duration
	Executors map[models.EngineType]Executor
	// Endpoints overrides the dial address per engine. See targetFor.
	Endpoints map[models.EngineType]config.EngineConfig
}

// Dispatcher routes queries to the executor for the instance's engine.
type Dispatcher struct {
	store     Store
	timeout   time.Duration
	executors map[models.EngineType]Executor
	endpoints map[models.EngineType]config.EngineConfig
	now       func() time.Time
}

// NewDispatcher returns a Dispatcher over store.
func NewDispatcher(store Store, opts Options) *Dispatcher {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	return &Dispatcher{
		store:     store,
		timeout:   opts.Timeout,
		executors: opts.Executors,
		endpoints: opts.Endpoints,
		now:       time.Now,
	}
}

// NewFromConfig wires a Dispatcher with executors and endpoints from cfg.
func NewFromConfig(store Store, cfg *config.Config) (*Dispatcher, error) {
	executors, err := NewExecutors(cfg)
	if err != nil {
		return nil, err
	}
	return NewDispatcher(store, Options{
		Timeout:   cfg.Timeouts.Query,
		Executors: executors,
		Endpoints: cfg.Engines,
	}), nil
}

// ValidateAccess reports whether instanceID exists and is owned by userID.
func (d *Dispatcher) ValidateAccess(ctx context.Context, instanceID, userID uint) bool {
	inst, err := d.store.GetInstance(ctx, instanceID)
	return err == nil && inst.UserID == userID
}

// Execute runs req on behalf of userID.
func (d *Dispatcher) Execute(ctx context.Context, req Request, userID uint) *result.QueryResult {
	inst, err := d.store.GetInstance(ctx, req.InstanceID)
	if err != nil || inst.UserID != userID {
		return result.Failure(MsgNoAccess)
	}
	if inst.Credential == nil {
		return result.Failure(MsgNotFound)
	}

	// The duration spans the filter and the engine call.
	start := d.now()
	if Dangerous(req.Query, inst.EngineType) {
		res := result.Failure(MsgNotPermitted)
		res.ExecutionTime = d.now().Sub(start)
		return res
	}
	res := d.run(ctx, inst, req.Query)
	res.ExecutionTime = d.now().Sub(start)

	d.record(ctx, inst, userID, res)
	return res
}

// run executes q under the query timeout. Errors and panics become failure
// results.
func (d *Dispatcher) run(ctx context.Context, inst *models.Instance, q string) (res *result.QueryResult) {
	exec, ok := d.executors[inst.EngineType]
	if !ok {
		return result.Failure(fmt.Sprintf("engine %q is not supported", inst.EngineType))
	}

	defer func() {
		if r := recover(); r != nil {
			logging.Printf("query: instance %d: panic: %v", inst.ID, r)
			res = result.Failure(fmt.Sprintf("error: %v", r))
		}
	}()

	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	out, err := exec.Execute(ctx, targetFor(inst, d.endpoints[inst.EngineType]), q)
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return result.Failure(fmt.Sprintf("error: query timed out after %s", d.timeout))
		}
		return result.Failure(logging.Mask(fmt.Sprintf("error: %v", err)))
	}
	return out
}

// record touches the instance and appends an access log entry. Failures are
// logged only; the caller already has its result.
func (d *Dispatcher) record(ctx context.Context, inst *models.Instance, userID uint, res *result.QueryResult) {
	now := d.now().UTC()
	if err := d.store.TouchInstance(ctx, inst.ID, now); err != nil {
		logging.Printf("query: touch instance %d: %v", inst.ID, err)
	}
	entry := &models.AccessLog{
		InstanceID: inst.ID,
		UserID:     userID,
		QueryType:  res.QueryType,
		Success:    res.Success,
		AccessedAt: now,
	}
	if err := d.store.RecordAccess(ctx, entry); err != nil {
		logging.Printf("query: record access for instance %d: %v", inst.ID, err)
	}
}
