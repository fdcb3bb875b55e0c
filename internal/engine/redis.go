package engine

import (
	"context"
	"errors"
	"net"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/zulandar/multidb/internal/config"
	"github.com/zulandar/multidb/internal/dsn"
	"github.com/zulandar/multidb/internal/logging"
	"github.com/zulandar/multidb/internal/models"
)

const (
	markerSuffix = ":_init"
	// markerValue is stored when no ACL user backs the namespace.
	markerValue = "initialized"
	scanBatch   = 100
)

// Redis maps a tenant database onto the key prefix "<name>:". The namespace
// exists while its marker key "<name>:_init" does.
//
// With ACL enabled, CreateDatabase also creates an ACL user restricted to the
// prefix and records its name in the marker so DropDatabase can remove it.
type Redis struct {
	desc    Descriptor
	opts    redis.Options
	timeout time.Duration
	acl     bool
}

// NewRedis returns a driver for the Redis master described by ec.
func NewRedis(ec config.EngineConfig, timeout time.Duration) *Redis {
	d := &Redis{
		desc:    descriptorFor(models.EngineRedis),
		timeout: timeoutOrDefault(timeout),
		acl:     ec.ACL,
	}
	master, _ := dsn.BuildMaster(models.EngineRedis, ec.Host, ec.Port, ec.User, ec.Password)
	if opts, err := redis.ParseURL(master); err == nil {
		d.opts = *opts
	} else {
		d.opts = redis.Options{
			Addr:     net.JoinHostPort(ec.Host, strconv.Itoa(ec.Port)),
			Username: ec.User,
			Password: ec.Password,
		}
	}
	d.opts.ContextTimeoutEnabled = true
	return d
}

func (d *Redis) Descriptor() Descriptor { return d.desc }

func (d *Redis) do(ctx context.Context, op string, fn func(context.Context, *redis.Client) error) bool {
	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	opts := d.opts
	c := redis.NewClient(&opts)
	defer c.Close()

	if err := fn(ctx, c); err != nil {
		logging.Printf("engine: redis: %s: %v", op, err)
		return false
	}
	return true
}

func markerKey(name string) string { return name + markerSuffix }

// globEscape quotes the characters SCAN MATCH treats as wildcards.
func globEscape(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch r {
		case '*', '?', '[', ']', '\\':
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}

func (d *Redis) CreateDatabase(ctx context.Context, name, username, password string) bool {
	return d.do(ctx, "create database "+name, func(ctx context.Context, c *redis.Client) error {
		value := markerValue
		if d.acl {
			err := c.Do(ctx, "ACL", "SETUSER", username, "reset", "on", ">"+password,
				"~"+globEscape(name)+":*", "+@all", "-@admin", "-@dangerous").Err()
			if err != nil {
				return err
			}
			value = username
		}
		return c.Set(ctx, markerKey(name), value, 0).Err()
	})
}

// DropDatabase deletes every key under the namespace prefix, and the ACL user
// recorded in the marker if there is one.
func (d *Redis) DropDatabase(ctx context.Context, name string) bool {
	return d.do(ctx, "drop database "+name, func(ctx context.Context, c *redis.Client) error {
		if d.acl {
			user, err := c.Get(ctx, markerKey(name)).Result()
			switch {
			case errors.Is(err, redis.Nil):
			case err != nil:
				return err
			case user != markerValue:
				if err := c.Do(ctx, "ACL", "DELUSER", user).Err(); err != nil {
					return err
				}
			}
		}

		// Deleting while a SCAN cursor is open can skip keys, so each pass
		// collects the whole prefix before deleting. Passes repeat until one
		// finds nothing.
		for {
			keys, err := scanAll(ctx, c, globEscape(name)+":*")
			if err != nil {
				return err
			}
			if len(keys) == 0 {
				return nil
			}
			for start := 0; start < len(keys); start += scanBatch {
				end := min(start+scanBatch, len(keys))
				if err := c.Del(ctx, keys[start:end]...).Err(); err != nil {
					return err
				}
			}
		}
	})
}

func scanAll(ctx context.Context, c *redis.Client, match string) ([]string, error) {
	var keys []string
	iter := c.Scan(ctx, 0, match, scanBatch).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	return keys, iter.Err()
}

func (d *Redis) TestConnection(ctx context.Context) bool {
	return d.do(ctx, "test connection", func(ctx context.Context, c *redis.Client) error {
		return c.Ping(ctx).Err()
	})
}

func (d *Redis) DatabaseExists(ctx context.Context, name string) bool {
	var n int64
	ok := d.do(ctx, "database exists", func(ctx context.Context, c *redis.Client) error {
		var err error
		n, err = c.Exists(ctx, markerKey(name)).Result()
		return err
	})
	return ok && n > 0
}

// ListDatabases returns namespace names with a marker key, sorted.
func (d *Redis) ListDatabases(ctx context.Context) []string {
	out := []string{}
	ok := d.do(ctx, "list databases", func(ctx context.Context, c *redis.Client) error {
		iter := c.Scan(ctx, 0, "*"+markerSuffix, scanBatch).Iterator()
		for iter.Next(ctx) {
			out = append(out, strings.TrimSuffix(iter.Val(), markerSuffix))
		}
		return iter.Err()
	})
	if !ok {
		return []string{}
	}
	sort.Strings(out)
	return out
}
