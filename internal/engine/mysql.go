package engine

import (
	"context"
	"database/sql"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/zulandar/multidb/internal/config"
	"github.com/zulandar/multidb/internal/dsn"
	"github.com/zulandar/multidb/internal/models"
)

var mysqlSystemDatabases = map[string]bool{
	"information_schema": true,
	"mysql":              true,
	"performance_schema": true,
	"sys":                true,
}

// MySQL provisions databases and '%'-host users on a MySQL master.
type MySQL struct {
	sqlMaster
}

// NewMySQL returns a driver for the MySQL master described by ec.
func NewMySQL(ec config.EngineConfig, timeout time.Duration) *MySQL {
	master, _ := dsn.BuildMaster(models.EngineMySQL, ec.Host, ec.Port, ec.User, ec.Password)
	return &MySQL{newSQLMaster(models.EngineMySQL, "mysql", master, timeout)}
}

func (d *MySQL) CreateDatabase(ctx context.Context, name, username, password string) bool {
	db := quoteMySQLIdent(name)
	user := quoteMySQLString(username) + "@'%'"
	return d.do(ctx, "create database "+name, func(ctx context.Context, conn *sql.DB) error {
		return execAll(ctx, conn,
			"CREATE DATABASE "+db,
			"CREATE USER "+user+" IDENTIFIED BY "+quoteMySQLString(password),
			"GRANT ALL PRIVILEGES ON "+db+".* TO "+user,
			"FLUSH PRIVILEGES",
		)
	})
}

func (d *MySQL) DropDatabase(ctx context.Context, name string) bool {
	return d.do(ctx, "drop database "+name, func(ctx context.Context, conn *sql.DB) error {
		return execAll(ctx, conn, "DROP DATABASE IF EXISTS "+quoteMySQLIdent(name))
	})
}

func (d *MySQL) DatabaseExists(ctx context.Context, name string) bool {
	return d.count(ctx, "database exists",
		"SELECT COUNT(*) FROM INFORMATION_SCHEMA.SCHEMATA WHERE SCHEMA_NAME = ?", name)
}

func (d *MySQL) ListDatabases(ctx context.Context) []string {
	return d.names(ctx, "SHOW DATABASES", mysqlSystemDatabases)
}
