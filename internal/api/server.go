// Package api exposes instance provisioning and query dispatch over HTTP.
package api

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/zulandar/multidb/internal/engine"
	"github.com/zulandar/multidb/internal/instance"
	"github.com/zulandar/multidb/internal/models"
	"github.com/zulandar/multidb/internal/query"
	"github.com/zulandar/multidb/internal/result"
)

// Instances is the provisioning surface the API serves.
type Instances interface {
	Create(ctx context.Context, req instance.CreateRequest) (*instance.Response, error)
	Delete(ctx context.Context, id uint) error
	UpdateStatus(ctx context.Context, id uint, status models.InstanceStatus) error
	AssignToOwner(ctx context.Context, id, ownerID uint) error
	GetCredentials(ctx context.Context, id, requesterID uint) (*instance.CredentialView, error)
	Get(ctx context.Context, id, requesterID uint, isAdmin bool) (*instance.Response, error)
	List(ctx context.Context) ([]instance.Response, error)
	ListByOwner(ctx context.Context, ownerID uint) ([]instance.Response, error)
	ListByEngine(ctx context.Context, et models.EngineType) ([]instance.Response, error)
}

// Queries is the query surface the API serves.
type Queries interface {
	ValidateAccess(ctx context.Context, instanceID, userID uint) bool
	Execute(ctx context.Context, req query.Request, userID uint) *result.QueryResult
}

// Engines is the admin view of the engine masters.
type Engines interface {
	Lookup(et models.EngineType) (engine.Driver, bool)
	HealthCheckAll(ctx context.Context) []engine.Health
}

// StartOpts holds configuration for the API server.
type StartOpts struct {
	Instances Instances
	Queries   Queries
	Engines   Engines
	Auth      AuthConfig
	Port      int
	Out       io.Writer
}

func (o StartOpts) validate() error {
	switch {
	case o.Instances == nil:
		return fmt.Errorf("api: instance service is required")
	case o.Queries == nil:
		return fmt.Errorf("api: query dispatcher is required")
	case o.Engines == nil:
		return fmt.Errorf("api: engine registry is required")
	case o.Auth.Secret == "":
		return fmt.Errorf("api: jwt secret is required")
	}
	return nil
}

// NewRouter builds the gin engine with every route registered.
func NewRouter(opts StartOpts) (*gin.Engine, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}
	router := gin.New()
	router.Use(gin.Recovery())
	registerRoutes(router, opts)
	return router, nil
}

// Start launches the API server. It blocks until ctx is cancelled, then
// shuts down gracefully.
func Start(ctx context.Context, opts StartOpts) error {
	if opts.Port <= 0 {
		opts.Port = 8080
	}

	gin.SetMode(gin.ReleaseMode)
	router, err := NewRouter(opts)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", opts.Port),
		Handler: router,
	}

	go func() {
		<-ctx.Done()
		srv.Shutdown(context.Background())
	}()

	if opts.Out != nil {
		fmt.Fprintf(opts.Out, "API listening on http://localhost:%d\n", opts.Port)
	}

	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("api: %w", err)
	}
	return nil
}
