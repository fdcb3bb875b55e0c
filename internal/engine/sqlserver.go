package engine

import (
	"context"
	"database/sql"
	"time"

	_ "github.com/microsoft/go-mssqldb"
	"github.com/zulandar/multidb/internal/config"
	"github.com/zulandar/multidb/internal/dsn"
	"github.com/zulandar/multidb/internal/models"
)

// SQLServer provisions databases with a server login mapped to db_owner.
type SQLServer struct {
	sqlMaster
}

// NewSQLServer returns a driver for the SQL Server master described by ec.
func NewSQLServer(ec config.EngineConfig, timeout time.Duration) *SQLServer {
	master, _ := dsn.BuildMaster(models.EngineSQLServer, ec.Host, ec.Port, ec.User, ec.Password)
	return &SQLServer{newSQLMaster(models.EngineSQLServer, "sqlserver", master, timeout)}
}

func (d *SQLServer) CreateDatabase(ctx context.Context, name, username, password string) bool {
	db := quoteSQLServerIdent(name)
	login := quoteSQLServerIdent(username)
	return d.do(ctx, "create database "+name, func(ctx context.Context, conn *sql.DB) error {
		return execAll(ctx, conn,
			"CREATE DATABASE "+db,
			"CREATE LOGIN "+login+" WITH PASSWORD = "+quoteSQLServerString(password),
			// USE only lasts for the batch, so the user mapping shares one.
			"USE "+db+"; CREATE USER "+login+" FOR LOGIN "+login+"; ALTER ROLE db_owner ADD MEMBER "+login+";",
		)
	})
}

// DropDatabase forces other sessions off name before dropping it.
func (d *SQLServer) DropDatabase(ctx context.Context, name string) bool {
	db := quoteSQLServerIdent(name)
	return d.do(ctx, "drop database "+name, func(ctx context.Context, conn *sql.DB) error {
		return execAll(ctx, conn,
			"IF DB_ID("+quoteSQLServerString(name)+") IS NOT NULL BEGIN "+
				"ALTER DATABASE "+db+" SET SINGLE_USER WITH ROLLBACK IMMEDIATE; "+
				"DROP DATABASE "+db+"; END",
		)
	})
}

func (d *SQLServer) DatabaseExists(ctx context.Context, name string) bool {
	return d.count(ctx, "database exists", "SELECT COUNT(*) FROM sys.databases WHERE name = @p1", name)
}

// ListDatabases skips master, tempdb, model and msdb (database_id 1-4).
func (d *SQLServer) ListDatabases(ctx context.Context) []string {
	return d.names(ctx, "SELECT name FROM sys.databases WHERE database_id > 4", nil)
}
