// Package engine implements one provisioning driver per supported database
// engine and the registry that holds them.
//
// Drivers talk to an engine's master endpoint with admin credentials. They
// open a fresh connection for every call, bound it by the configured timeout,
// and release it before returning. Failures are logged and reported as false
// or an empty list; callers only learn whether the call succeeded.
package engine

import (
	"context"
	"time"

	"github.com/zulandar/multidb/internal/models"
)

// DefaultTimeout bounds driver calls when no timeout is configured.
const DefaultTimeout = 10 * time.Second

// Descriptor identifies a driver's engine family and default port.
type Descriptor struct {
	Type        models.EngineType
	DefaultPort int
}

// Driver is the provisioning contract every engine family implements.
type Driver interface {
	Descriptor() Descriptor
	// CreateDatabase creates database name and a login that fully owns it.
	CreateDatabase(ctx context.Context, name, username, password string) bool
	// DropDatabase removes database name. An absent database counts as dropped.
	DropDatabase(ctx context.Context, name string) bool
	TestConnection(ctx context.Context) bool
	DatabaseExists(ctx context.Context, name string) bool
	// ListDatabases returns tenant databases, excluding the engine's own
	// system databases. It never returns nil.
	ListDatabases(ctx context.Context) []string
}

func descriptorFor(et models.EngineType) Descriptor {
	return Descriptor{Type: et, DefaultPort: et.DefaultPort()}
}

func timeoutOrDefault(d time.Duration) time.Duration {
	if d <= 0 {
		return DefaultTimeout
	}
	return d
}
