// Package config provides YAML-based configuration loading for multidb.
package config

import (
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/zulandar/multidb/internal/models"
	"gopkg.in/yaml.v3"
)

// Config is the top-level multidb configuration, loaded from multidb.yaml.
type Config struct {
	// PublicHost is the host handed back to tenants in their credentials.
	PublicHost string                             `yaml:"public_host"`
	Store      StoreConfig                        `yaml:"store"`
	Engines    map[models.EngineType]EngineConfig `yaml:"engines"`
	Timeouts   TimeoutConfig                      `yaml:"timeouts"`
	API        APIConfig                          `yaml:"api"`
	Reconcile  ReconcileConfig                    `yaml:"reconcile"`
	Users      []UserConfig                       `yaml:"users"`
}

// StoreConfig holds connection settings for the MySQL metadata database.
type StoreConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Database string `yaml:"database"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
}

// EngineConfig holds the master endpoint of one engine family.
type EngineConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Disabled bool   `yaml:"disabled"`
	// ACL enables per-tenant ACL users on Redis 6+. Ignored by other engines.
	ACL bool `yaml:"acl"`
}

// TimeoutConfig bounds every blocking call against an engine.
type TimeoutConfig struct {
	Engine time.Duration `yaml:"engine"`
	Query  time.Duration `yaml:"query"`
	Health time.Duration `yaml:"health"`
}

// APIConfig configures the HTTP API.
type APIConfig struct {
	Port      int    `yaml:"port"`
	JWTSecret string `yaml:"jwt_secret"`
	JWTIssuer string `yaml:"jwt_issuer"`
}

// ReconcileConfig configures the orphan scan. An empty Schedule disables it.
type ReconcileConfig struct {
	Schedule     string `yaml:"schedule"`
	SlackWebhook string `yaml:"slack_webhook"`
}

// UserConfig seeds an account into the metadata store.
type UserConfig struct {
	UserName string `yaml:"user_name"`
	Email    string `yaml:"email"`
	Role     string `yaml:"role"`
}

// defaultEngineUsers are the conventional superuser names per engine.
var defaultEngineUsers = map[models.EngineType]string{
	models.EngineMySQL:      "root",
	models.EnginePostgreSQL: "postgres",
	models.EngineSQLServer:  "sa",
	models.EngineMongoDB:    "root",
}

// Load reads a YAML config file from path and returns a validated Config.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	return Parse(data)
}

// Parse unmarshals YAML bytes into a validated Config.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config: parse: %w", err)
	}
	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// EnabledEngines returns the configured, non-disabled engines in canonical order.
func (c *Config) EnabledEngines() []models.EngineType {
	var out []models.EngineType
	for _, et := range models.AllEngineTypes {
		if ec, ok := c.Engines[et]; ok && !ec.Disabled {
			out = append(out, et)
		}
	}
	return out
}

// applyDefaults fills in derived and default values.
func (c *Config) applyDefaults() {
	if c.PublicHost == "" {
		c.PublicHost = "localhost"
	}
	if c.Store.Host == "" {
		c.Store.Host = "127.0.0.1"
	}
	if c.Store.Port == 0 {
		c.Store.Port = 3306
	}
	if c.Store.Database == "" {
		c.Store.Database = "multidb"
	}
	if c.Store.User == "" {
		c.Store.User = "root"
	}
	for et, ec := range c.Engines {
		if ec.Host == "" {
			ec.Host = "localhost"
		}
		if ec.Port == 0 {
			ec.Port = et.DefaultPort()
		}
		if ec.User == "" {
			ec.User = defaultEngineUsers[et]
		}
		c.Engines[et] = ec
	}
	if c.Timeouts.Engine == 0 {
		c.Timeouts.Engine = 10 * time.Second
	}
	if c.Timeouts.Query == 0 {
		c.Timeouts.Query = 30 * time.Second
	}
	if c.Timeouts.Health == 0 {
		c.Timeouts.Health = 5 * time.Second
	}
	if c.API.Port == 0 {
		c.API.Port = 8080
	}
	for i := range c.Users {
		if c.Users[i].Role == "" {
			c.Users[i].Role = models.RoleStudent
		}
	}
}

// validate checks that all required fields are present and consistent.
func (c *Config) validate() error {
	var errs []string
	if len(c.Engines) == 0 {
		errs = append(errs, "at least one engine is required")
	}
	// Sorted so the joined message is stable.
	keys := make([]string, 0, len(c.Engines))
	for et := range c.Engines {
		keys = append(keys, string(et))
	}
	sort.Strings(keys)
	for _, k := range keys {
		if !models.EngineType(k).Valid() {
			errs = append(errs, fmt.Sprintf("engines.%s: unsupported engine", k))
		}
	}
	if c.Timeouts.Engine < 0 || c.Timeouts.Query < 0 || c.Timeouts.Health < 0 {
		errs = append(errs, "timeouts must not be negative")
	}
	for i, u := range c.Users {
		if u.UserName == "" {
			errs = append(errs, fmt.Sprintf("users[%d].user_name is required", i))
		}
		if u.Role != models.RoleAdmin && u.Role != models.RoleStudent {
			errs = append(errs, fmt.Sprintf("users[%d].role must be %q or %q", i, models.RoleAdmin, models.RoleStudent))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("config: validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}
