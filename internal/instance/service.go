// Package instance orchestrates tenant database provisioning: it generates
// names and credentials, creates the database on the engine's master server
// and records the result in the metadata store.
package instance

import (
	"context"
	"fmt"
	"strings"

	"github.com/zulandar/multidb/internal/apperr"
	"github.com/zulandar/multidb/internal/credential"
	"github.com/zulandar/multidb/internal/engine"
	"github.com/zulandar/multidb/internal/logging"
	"github.com/zulandar/multidb/internal/models"
)

// Store is the persistence the orchestrator needs. Lookups that miss return
// an apperr NotFound error.
type Store interface {
	GetUser(ctx context.Context, id uint) (*models.User, error)
	GetInstance(ctx context.Context, id uint) (*models.Instance, error)
	ListInstances(ctx context.Context) ([]models.Instance, error)
	ListInstancesByOwner(ctx context.Context, ownerID uint) ([]models.Instance, error)
	ListInstancesByEngine(ctx context.Context, et models.EngineType) ([]models.Instance, error)
	ExistsByNameAndEngine(ctx context.Context, databaseName string, et models.EngineType) (bool, error)
	// CreateInstance persists cred and then inst referencing it.
	CreateInstance(ctx context.Context, inst *models.Instance, cred *models.Credential) error
	UpdateStatus(ctx context.Context, id uint, status models.InstanceStatus) error
	UpdateOwner(ctx context.Context, id, ownerID uint) error
	// DeleteInstance removes the instance and its credential.
	DeleteInstance(ctx context.Context, id uint) error
}

// Registry resolves the driver for an engine type.
type Registry interface {
	Lookup(et models.EngineType) (engine.Driver, bool)
}

// Options tunes a Service.
type Options struct {
	// PublicHost is recorded on new instances and credentials. Defaults to
	// "localhost".
	PublicHost     string
	PasswordLength int
}

// Service is the provisioning orchestrator.
type Service struct {
	store          Store
	registry       Registry
	publicHost     string
	passwordLength int
}

// NewService returns a Service over store and registry.
func NewService(store Store, registry Registry, opts Options) *Service {
	if opts.PublicHost == "" {
		opts.PublicHost = "localhost"
	}
	if opts.PasswordLength <= 0 {
		opts.PasswordLength = credential.DefaultPasswordLength
	}
	return &Service{
		store:          store,
		registry:       registry,
		publicHost:     opts.PublicHost,
		passwordLength: opts.PasswordLength,
	}
}

// CreateRequest asks for a new instance on EngineType owned by OwnerID.
type CreateRequest struct {
	Name       string            `json:"name"`
	EngineType models.EngineType `json:"engineType"`
	OwnerID    uint              `json:"userId"`
}

// Create provisions a database on the requested engine and records it.
//
// Nothing is persisted when the engine refuses the database. When the engine
// succeeds but persistence fails, the engine-side database and login are left
// in place, an orphaned engine resource event is logged for reconciliation,
// and a TwoPhaseInconsistency error is returned.
func (s *Service) Create(ctx context.Context, req CreateRequest) (*Response, error) {
	if strings.TrimSpace(req.Name) == "" {
		return nil, apperr.New(apperr.Validation, "name is required")
	}

	owner, err := s.store.GetUser(ctx, req.OwnerID)
	if err != nil {
		return nil, err
	}

	driver, ok := s.registry.Lookup(req.EngineType)
	if !ok {
		return nil, apperr.Newf(apperr.UnsupportedEngine, "engine %q is not supported", req.EngineType)
	}
	desc := driver.Descriptor()

	dbName, err := credential.GenerateDatabaseName(owner.UserName, desc.Type)
	if err != nil {
		return nil, fmt.Errorf("instance: %w", err)
	}
	username, err := credential.GenerateUsername(owner.UserName)
	if err != nil {
		return nil, fmt.Errorf("instance: %w", err)
	}
	password, err := credential.GeneratePassword(s.passwordLength)
	if err != nil {
		return nil, fmt.Errorf("instance: %w", err)
	}

	taken, err := s.store.ExistsByNameAndEngine(ctx, dbName, desc.Type)
	if err != nil {
		return nil, fmt.Errorf("instance: %w", err)
	}
	if taken {
		return nil, apperr.Newf(apperr.Conflict, "database %s already exists on %s", dbName, desc.Type)
	}

	if !driver.CreateDatabase(ctx, dbName, username, password) {
		return nil, apperr.Newf(apperr.ProvisioningFailed, "could not create database on %s", desc.Type)
	}

	cred := &models.Credential{
		Username: username,
		Password: password,
		Database: dbName,
		Host:     s.publicHost,
		Port:     desc.DefaultPort,
	}
	inst := &models.Instance{
		Name:         req.Name,
		EngineType:   desc.Type,
		Status:       models.StatusActive,
		DatabaseName: dbName,
		Host:         s.publicHost,
		Port:         desc.DefaultPort,
		UserID:       owner.ID,
	}
	if err := s.store.CreateInstance(ctx, inst, cred); err != nil {
		logging.Printf("instance: orphaned engine resource engine=%s database=%s username=%s owner=%d error=%q",
			desc.Type, dbName, username, owner.ID, err.Error())
		return nil, apperr.Wrap(apperr.TwoPhaseInconsistency,
			"database was created but could not be recorded", err)
	}
	inst.User = owner
	inst.Credential = cred
	return toResponse(inst), nil
}

// Delete drops the instance's database, best effort, then removes its records.
// A failed drop is logged and does not block record deletion.
func (s *Service) Delete(ctx context.Context, id uint) error {
	inst, err := s.store.GetInstance(ctx, id)
	if err != nil {
		return err
	}
	if driver, ok := s.registry.Lookup(inst.EngineType); ok {
		if !driver.DropDatabase(ctx, inst.DatabaseName) {
			logging.Printf("instance: drop %s on %s failed; removing record %d anyway",
				inst.DatabaseName, inst.EngineType, inst.ID)
		}
	}
	return s.store.DeleteInstance(ctx, id)
}

// UpdateStatus sets an instance's lifecycle status.
func (s *Service) UpdateStatus(ctx context.Context, id uint, status models.InstanceStatus) error {
	if !status.Valid() {
		return apperr.Newf(apperr.Validation, "unknown status %q", status)
	}
	return s.store.UpdateStatus(ctx, id, status)
}

// AssignToOwner hands an instance to another existing user.
func (s *Service) AssignToOwner(ctx context.Context, id, ownerID uint) error {
	if _, err := s.store.GetUser(ctx, ownerID); err != nil {
		return err
	}
	return s.store.UpdateOwner(ctx, id, ownerID)
}

// GetCredentials returns an instance's credential. Only the owner may read it.
func (s *Service) GetCredentials(ctx context.Context, id, requesterID uint) (*CredentialView, error) {
	inst, err := s.store.GetInstance(ctx, id)
	if err != nil {
		return nil, err
	}
	if inst.UserID != requesterID {
		return nil, apperr.New(apperr.Forbidden, "you do not own this instance")
	}
	if inst.Credential == nil {
		return nil, apperr.New(apperr.NotFound, "no credentials for this instance")
	}
	return toCredentialView(inst.EngineType, inst.Credential), nil
}

// Get returns an instance to its owner or to an admin.
func (s *Service) Get(ctx context.Context, id, requesterID uint, isAdmin bool) (*Response, error) {
	inst, err := s.store.GetInstance(ctx, id)
	if err != nil {
		return nil, err
	}
	if !isAdmin && inst.UserID != requesterID {
		return nil, apperr.New(apperr.Forbidden, "you do not own this instance")
	}
	return toResponse(inst), nil
}

// List returns every instance.
func (s *Service) List(ctx context.Context) ([]Response, error) {
	return toResponses(s.store.ListInstances(ctx))
}

// ListByOwner returns the instances owned by ownerID.
func (s *Service) ListByOwner(ctx context.Context, ownerID uint) ([]Response, error) {
	return toResponses(s.store.ListInstancesByOwner(ctx, ownerID))
}

// ListByEngine returns the instances on engine et.
func (s *Service) ListByEngine(ctx context.Context, et models.EngineType) ([]Response, error) {
	if !et.Valid() {
		return nil, apperr.Newf(apperr.UnsupportedEngine, "engine %q is not supported", et)
	}
	return toResponses(s.store.ListInstancesByEngine(ctx, et))
}

// Tracked returns the database names recorded for engine et.
func (s *Service) Tracked(ctx context.Context, et models.EngineType) (map[string]bool, error) {
	instances, err := s.store.ListInstancesByEngine(ctx, et)
	if err != nil {
		return nil, err
	}
	out := make(map[string]bool, len(instances))
	for _, inst := range instances {
		out[inst.DatabaseName] = true
	}
	return out, nil
}
