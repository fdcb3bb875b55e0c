package engine

import (
	"context"
	"database/sql"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/zulandar/multidb/internal/config"
	"github.com/zulandar/multidb/internal/dsn"
	"github.com/zulandar/multidb/internal/models"
)

// PostgreSQL provisions databases owned by a dedicated role.
type PostgreSQL struct {
	sqlMaster
}

// NewPostgreSQL returns a driver for the PostgreSQL master described by ec.
// The master connection attaches to the postgres maintenance database.
func NewPostgreSQL(ec config.EngineConfig, timeout time.Duration) *PostgreSQL {
	master, _ := dsn.BuildMaster(models.EnginePostgreSQL, ec.Host, ec.Port, ec.User, ec.Password)
	return &PostgreSQL{newSQLMaster(models.EnginePostgreSQL, "pgx", master, timeout)}
}

func (d *PostgreSQL) CreateDatabase(ctx context.Context, name, username, password string) bool {
	db := quotePostgresIdent(name)
	role := quotePostgresIdent(username)
	return d.do(ctx, "create database "+name, func(ctx context.Context, conn *sql.DB) error {
		return execAll(ctx, conn,
			"CREATE USER "+role+" WITH PASSWORD "+quotePostgresString(password),
			"CREATE DATABASE "+db+" OWNER "+role,
			"GRANT ALL PRIVILEGES ON DATABASE "+db+" TO "+role,
		)
	})
}

// DropDatabase terminates other sessions on name before dropping it.
func (d *PostgreSQL) DropDatabase(ctx context.Context, name string) bool {
	return d.do(ctx, "drop database "+name, func(ctx context.Context, conn *sql.DB) error {
		if _, err := conn.ExecContext(ctx,
			"SELECT pg_terminate_backend(pid) FROM pg_stat_activity WHERE datname = $1 AND pid <> pg_backend_pid()",
			name); err != nil {
			return err
		}
		return execAll(ctx, conn, "DROP DATABASE IF EXISTS "+quotePostgresIdent(name))
	})
}

func (d *PostgreSQL) DatabaseExists(ctx context.Context, name string) bool {
	return d.count(ctx, "database exists", "SELECT COUNT(*) FROM pg_database WHERE datname = $1", name)
}

func (d *PostgreSQL) ListDatabases(ctx context.Context) []string {
	return d.names(ctx, "SELECT datname FROM pg_database WHERE datistemplate = false",
		map[string]bool{"postgres": true})
}
