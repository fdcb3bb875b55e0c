package engine

import (
	"context"
	"time"

	"github.com/zulandar/multidb/internal/config"
	"github.com/zulandar/multidb/internal/dsn"
	"github.com/zulandar/multidb/internal/logging"
	"github.com/zulandar/multidb/internal/models"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// initCollection materialises a tenant database; MongoDB only lists
// databases that hold at least one collection.
const initCollection = "_init"

var mongoSystemDatabases = map[string]bool{"admin": true, "config": true, "local": true}

// MongoDB provisions databases with a dbOwner user authenticated against the
// tenant database itself.
type MongoDB struct {
	desc    Descriptor
	uri     string
	timeout time.Duration
}

// NewMongoDB returns a driver for the MongoDB master described by ec.
func NewMongoDB(ec config.EngineConfig, timeout time.Duration) *MongoDB {
	uri, _ := dsn.BuildMaster(models.EngineMongoDB, ec.Host, ec.Port, ec.User, ec.Password)
	return &MongoDB{
		desc:    descriptorFor(models.EngineMongoDB),
		uri:     uri,
		timeout: timeoutOrDefault(timeout),
	}
}

func (d *MongoDB) Descriptor() Descriptor { return d.desc }

func (d *MongoDB) do(ctx context.Context, op string, fn func(context.Context, *mongo.Client) error) bool {
	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	client, err := mongo.Connect(options.Client().ApplyURI(d.uri).SetServerSelectionTimeout(d.timeout))
	if err != nil {
		logging.Printf("engine: mongodb: %s: connect: %v", op, err)
		return false
	}
	defer client.Disconnect(context.WithoutCancel(ctx))

	if err := fn(ctx, client); err != nil {
		logging.Printf("engine: mongodb: %s: %v", op, err)
		return false
	}
	return true
}

func (d *MongoDB) CreateDatabase(ctx context.Context, name, username, password string) bool {
	return d.do(ctx, "create database "+name, func(ctx context.Context, c *mongo.Client) error {
		db := c.Database(name)
		if _, err := db.Collection(initCollection).InsertOne(ctx, bson.D{{Key: "init", Value: true}}); err != nil {
			return err
		}
		return db.RunCommand(ctx, bson.D{
			{Key: "createUser", Value: username},
			{Key: "pwd", Value: password},
			{Key: "roles", Value: bson.A{bson.D{{Key: "role", Value: "dbOwner"}, {Key: "db", Value: name}}}},
		}).Err()
	})
}

// DropDatabase drops name and its users. Dropping a missing database succeeds.
func (d *MongoDB) DropDatabase(ctx context.Context, name string) bool {
	return d.do(ctx, "drop database "+name, func(ctx context.Context, c *mongo.Client) error {
		db := c.Database(name)
		if err := db.RunCommand(ctx, bson.D{{Key: "dropAllUsersFromDatabase", Value: 1}}).Err(); err != nil {
			return err
		}
		return db.Drop(ctx)
	})
}

func (d *MongoDB) TestConnection(ctx context.Context) bool {
	return d.do(ctx, "test connection", func(ctx context.Context, c *mongo.Client) error {
		return c.Ping(ctx, nil)
	})
}

func (d *MongoDB) DatabaseExists(ctx context.Context, name string) bool {
	var found bool
	ok := d.do(ctx, "database exists", func(ctx context.Context, c *mongo.Client) error {
		names, err := c.ListDatabaseNames(ctx, bson.D{{Key: "name", Value: name}})
		found = len(names) > 0
		return err
	})
	return ok && found
}

func (d *MongoDB) ListDatabases(ctx context.Context) []string {
	out := []string{}
	ok := d.do(ctx, "list databases", func(ctx context.Context, c *mongo.Client) error {
		names, err := c.ListDatabaseNames(ctx, bson.D{})
		if err != nil {
			return err
		}
		for _, n := range names {
			if !mongoSystemDatabases[n] {
				out = append(out, n)
			}
		}
		return nil
	})
	if !ok {
		return []string{}
	}
	return out
}
