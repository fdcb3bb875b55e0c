package engine

import (
	"context"
	"database/sql"
	"time"

	"github.com/zulandar/multidb/internal/logging"
	"github.com/zulandar/multidb/internal/models"
)

// Opener opens a database/sql handle. It matches sql.Open.
type Opener func(driverName, dsn string) (*sql.DB, error)

// sqlMaster is the database/sql plumbing shared by the relational drivers.
type sqlMaster struct {
	desc       Descriptor
	driverName string
	dsn        string
	timeout    time.Duration
	open       Opener
}

func newSQLMaster(et models.EngineType, driverName, dsn string, timeout time.Duration) sqlMaster {
	return sqlMaster{
		desc:       descriptorFor(et),
		driverName: driverName,
		dsn:        dsn,
		timeout:    timeoutOrDefault(timeout),
		open:       sql.Open,
	}
}

func (m *sqlMaster) Descriptor() Descriptor { return m.desc }

// SetOpener replaces the function used to open master connections.
func (m *sqlMaster) SetOpener(open Opener) { m.open = open }

// do opens a master connection, runs fn under the call timeout and closes the
// connection. Any failure is logged and reported as false.
func (m *sqlMaster) do(ctx context.Context, op string, fn func(context.Context, *sql.DB) error) bool {
	ctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	db, err := m.open(m.driverName, m.dsn)
	if err != nil {
		logging.Printf("engine: %s: %s: open: %v", m.desc.Type, op, err)
		return false
	}
	defer db.Close()

	if err := fn(ctx, db); err != nil {
		logging.Printf("engine: %s: %s: %v", m.desc.Type, op, err)
		return false
	}
	return true
}

func (m *sqlMaster) TestConnection(ctx context.Context) bool {
	return m.do(ctx, "test connection", func(ctx context.Context, db *sql.DB) error {
		return db.PingContext(ctx)
	})
}

// count reports whether a single-value COUNT query returned more than zero.
func (m *sqlMaster) count(ctx context.Context, op, query string, args ...any) bool {
	var n int64
	ok := m.do(ctx, op, func(ctx context.Context, db *sql.DB) error {
		return db.QueryRowContext(ctx, query, args...).Scan(&n)
	})
	return ok && n > 0
}

// names collects the first column of query, skipping names in exclude.
func (m *sqlMaster) names(ctx context.Context, query string, exclude map[string]bool) []string {
	out := []string{}
	ok := m.do(ctx, "list databases", func(ctx context.Context, db *sql.DB) error {
		rows, err := db.QueryContext(ctx, query)
		if err != nil {
			return err
		}
		defer rows.Close()
		for rows.Next() {
			var name string
			if err := rows.Scan(&name); err != nil {
				return err
			}
			if !exclude[name] {
				out = append(out, name)
			}
		}
		return rows.Err()
	})
	if !ok {
		return []string{}
	}
	return out
}

// execAll runs stmts in order, stopping at the first failure.
func execAll(ctx context.Context, db *sql.DB, stmts ...string) error {
	for _, s := range stmts {
		if _, err := db.ExecContext(ctx, s); err != nil {
			return err
		}
	}
	return nil
}
