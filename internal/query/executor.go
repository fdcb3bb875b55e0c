package query

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/microsoft/go-mssqldb"
	"github.com/redis/go-redis/v9"
	"github.com/zulandar/multidb/internal/config"
	"github.com/zulandar/multidb/internal/dsn"
	"github.com/zulandar/multidb/internal/models"
	"github.com/zulandar/multidb/internal/result"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// Target is the tenant login a query runs under.
type Target struct {
	Host     string
	Port     int
	Database string
	Username string
	Password string
}

// targetFor builds the login for inst. The dial address comes from the
// engine's configured master endpoint when one is set, since the credential
// host is the address handed to tenants.
func targetFor(inst *models.Instance, ep config.EngineConfig) Target {
	t := Target{
		Host:     inst.Credential.Host,
		Port:     inst.Credential.Port,
		Database: inst.Credential.Database,
		Username: inst.Credential.Username,
		Password: inst.Credential.Password,
	}
	if ep.Host != "" {
		t.Host = ep.Host
	}
	if ep.Port != 0 {
		t.Port = ep.Port
	}
	return t
}

// Executor runs one query text against a tenant database.
type Executor interface {
	Execute(ctx context.Context, t Target, q string) (*result.QueryResult, error)
}

// Opener opens a database/sql handle. It matches sql.Open.
type Opener func(driverName, dsn string) (*sql.DB, error)

// SQLExecutor runs statements through database/sql. Statements that start
// with SELECT are read; everything else is executed for its row count.
type SQLExecutor struct {
	engine     models.EngineType
	driverName string
	open       Opener
}

// NewSQLExecutor returns an executor for a relational engine.
func NewSQLExecutor(et models.EngineType) (*SQLExecutor, error) {
	var driverName string
	switch et {
	case models.EngineMySQL:
		driverName = "mysql"
	case models.EnginePostgreSQL:
		driverName = "pgx"
	case models.EngineSQLServer:
		driverName = "sqlserver"
	default:
		return nil, fmt.Errorf("query: %s is not a relational engine", et)
	}
	return &SQLExecutor{engine: et, driverName: driverName, open: sql.Open}, nil
}

// SetOpener replaces the function used to open tenant connections.
func (e *SQLExecutor) SetOpener(open Opener) { e.open = open }

func (e *SQLExecutor) Execute(ctx context.Context, t Target, q string) (*result.QueryResult, error) {
	conn, err := dsn.Build(e.engine, t.Host, t.Port, t.Database, t.Username, t.Password)
	if err != nil {
		return nil, err
	}
	db, err := e.open(e.driverName, conn)
	if err != nil {
		return nil, fmt.Errorf("open: %w", err)
	}
	defer db.Close()

	if IsRead(q) {
		return readRows(ctx, db, q)
	}
	res, err := db.ExecContext(ctx, q)
	if err != nil {
		return nil, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("rows affected: %w", err)
	}
	return result.Write(Classify(q), n), nil
}

func readRows(ctx context.Context, db *sql.DB, q string) (*result.QueryResult, error) {
	rows, err := db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("columns: %w", err)
	}
	out := []result.Row{}
	for rows.Next() {
		vals := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		row := make(result.Row, len(cols))
		for i, c := range cols {
			row[c] = result.FromSQL(vals[i])
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result.Read(result.TypeSelect, cols, out), nil
}

// MongoExecutor runs the query text as a single database command written in
// extended JSON, e.g. {"find": "users", "filter": {"age": {"$gt": 30}}}.
type MongoExecutor struct{}

func (MongoExecutor) Execute(ctx context.Context, t Target, q string) (*result.QueryResult, error) {
	var cmd bson.D
	if err := bson.UnmarshalExtJSON([]byte(q), false, &cmd); err != nil {
		return nil, fmt.Errorf("parse command: %w", err)
	}
	uri, err := dsn.Build(models.EngineMongoDB, t.Host, t.Port, t.Database, t.Username, t.Password)
	if err != nil {
		return nil, err
	}
	opts := options.Client().ApplyURI(uri)
	if dl, ok := ctx.Deadline(); ok {
		opts.SetServerSelectionTimeout(time.Until(dl))
	}
	client, err := mongo.Connect(opts)
	if err != nil {
		return nil, fmt.Errorf("connect: %w", err)
	}
	defer client.Disconnect(context.WithoutCancel(ctx))

	var reply bson.D
	if err := client.Database(t.Database).RunCommand(ctx, cmd).Decode(&reply); err != nil {
		return nil, err
	}
	doc := result.FromBSON(reply).AsMap()
	cols := make([]string, 0, len(reply))
	for _, e := range reply {
		cols = append(cols, e.Key)
	}
	return result.Read(result.TypeCommand, cols, []result.Row{result.Row(doc)}), nil
}

// RedisExecutor splits the query text on whitespace and sends it as one
// command. With ACL enabled it authenticates as the tenant; otherwise the
// tenant has no server-side login and the master credentials are used.
type RedisExecutor struct {
	acl    bool
	master redis.Options
}

// NewRedisExecutor returns an executor for the Redis master described by ec.
func NewRedisExecutor(ec config.EngineConfig) *RedisExecutor {
	return &RedisExecutor{
		acl: ec.ACL,
		master: redis.Options{
			Addr:     net.JoinHostPort(ec.Host, strconv.Itoa(ec.Port)),
			Username: ec.User,
			Password: ec.Password,
		},
	}
}

// redisField is the single column of a Redis reply row.
const redisField = "result"

func (e *RedisExecutor) Execute(ctx context.Context, t Target, q string) (*result.QueryResult, error) {
	fields := strings.Fields(q)
	if len(fields) == 0 {
		return nil, errors.New("empty command")
	}
	args := make([]any, len(fields))
	args[0] = strings.ToUpper(fields[0])
	for i, f := range fields[1:] {
		args[i+1] = f
	}

	opts := e.master
	if e.acl {
		opts.Username = t.Username
		opts.Password = t.Password
	}
	opts.Addr = net.JoinHostPort(t.Host, strconv.Itoa(t.Port))
	opts.ContextTimeoutEnabled = true
	c := redis.NewClient(&opts)
	defer c.Close()

	reply, err := c.Do(ctx, args...).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return nil, err
	}
	row := result.Row{redisField: result.FromRedis(reply)}
	return result.Read(result.TypeRedisCommand, []string{redisField}, []result.Row{row}), nil
}

// NewExecutors builds an executor for every enabled engine in cfg.
func NewExecutors(cfg *config.Config) (map[models.EngineType]Executor, error) {
	out := make(map[models.EngineType]Executor)
	for _, et := range cfg.EnabledEngines() {
		switch {
		case et.Relational():
			e, err := NewSQLExecutor(et)
			if err != nil {
				return nil, err
			}
			out[et] = e
		case et == models.EngineMongoDB:
			out[et] = MongoExecutor{}
		case et == models.EngineRedis:
			out[et] = NewRedisExecutor(cfg.Engines[et])
		default:
			return nil, fmt.Errorf("query: no executor for engine %q", et)
		}
	}
	return out, nil
}
