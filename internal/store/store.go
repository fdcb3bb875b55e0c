// Package store is the gorm-backed persistence collaborator for instances,
// credentials, users and access logs.
package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/zulandar/multidb/internal/apperr"
	"github.com/zulandar/multidb/internal/models"
	"gorm.io/gorm"
)

// Gorm implements the instance and query store contracts over a *gorm.DB.
type Gorm struct {
	db *gorm.DB
}

// New returns a store over db. The schema must already be migrated.
func New(db *gorm.DB) *Gorm {
	return &Gorm{db: db}
}

// notFound maps a gorm miss to an apperr NotFound, wrapping anything else.
func notFound(err error, msg, op string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperr.Wrap(apperr.NotFound, msg, err)
	}
	return fmt.Errorf("store: %s: %w", op, err)
}

// GetUser loads a user by ID.
func (s *Gorm) GetUser(ctx context.Context, id uint) (*models.User, error) {
	var u models.User
	if err := s.db.WithContext(ctx).First(&u, id).Error; err != nil {
		return nil, notFound(err, "user not found", fmt.Sprintf("get user %d", id))
	}
	return &u, nil
}

// GetInstance loads an instance with its owner and credential.
func (s *Gorm) GetInstance(ctx context.Context, id uint) (*models.Instance, error) {
	var inst models.Instance
	err := s.db.WithContext(ctx).
		Preload("User").
		Preload("Credential").
		First(&inst, id).Error
	if err != nil {
		return nil, notFound(err, "instance not found", fmt.Sprintf("get instance %d", id))
	}
	return &inst, nil
}

// ListInstances returns every instance, oldest first.
func (s *Gorm) ListInstances(ctx context.Context) ([]models.Instance, error) {
	return s.listWhere(ctx, "list instances", nil)
}

// ListInstancesByOwner returns the instances owned by ownerID.
func (s *Gorm) ListInstancesByOwner(ctx context.Context, ownerID uint) ([]models.Instance, error) {
	return s.listWhere(ctx, fmt.Sprintf("list instances for user %d", ownerID), map[string]any{"user_id": ownerID})
}

// ListInstancesByEngine returns the instances provisioned on engine et.
func (s *Gorm) ListInstancesByEngine(ctx context.Context, et models.EngineType) ([]models.Instance, error) {
	return s.listWhere(ctx, fmt.Sprintf("list %s instances", et), map[string]any{"engine_type": et})
}

func (s *Gorm) listWhere(ctx context.Context, op string, where map[string]any) ([]models.Instance, error) {
	q := s.db.WithContext(ctx).Preload("User").Preload("Credential").Order("id")
	if where != nil {
		q = q.Where(where)
	}
	var out []models.Instance
	if err := q.Find(&out).Error; err != nil {
		return nil, fmt.Errorf("store: %s: %w", op, err)
	}
	return out, nil
}

// ExistsByNameAndEngine reports whether an instance already uses databaseName
// on engine et.
func (s *Gorm) ExistsByNameAndEngine(ctx context.Context, databaseName string, et models.EngineType) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&models.Instance{}).
		Where("database_name = ? AND engine_type = ?", databaseName, et).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("store: check database name %s: %w", databaseName, err)
	}
	return count > 0, nil
}

// CreateInstance persists cred, then inst referencing it, in one transaction.
func (s *Gorm) CreateInstance(ctx context.Context, inst *models.Instance, cred *models.Credential) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(cred).Error; err != nil {
			return fmt.Errorf("create credential: %w", err)
		}
		inst.CredentialID = &cred.ID
		inst.Credential = nil
		if err := tx.Omit("User", "Credential").Create(inst).Error; err != nil {
			return fmt.Errorf("create instance: %w", err)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("store: %w", err)
	}
	inst.Credential = cred
	return nil
}

// UpdateStatus sets an instance's status and bumps updated_at.
func (s *Gorm) UpdateStatus(ctx context.Context, id uint, status models.InstanceStatus) error {
	return s.updateInstance(ctx, id, "update status", map[string]any{"status": status})
}

// UpdateOwner reassigns an instance to ownerID and bumps updated_at.
func (s *Gorm) UpdateOwner(ctx context.Context, id, ownerID uint) error {
	return s.updateInstance(ctx, id, "assign owner", map[string]any{"user_id": ownerID})
}

// TouchInstance records the time of the latest query against an instance.
func (s *Gorm) TouchInstance(ctx context.Context, id uint, at time.Time) error {
	result := s.db.WithContext(ctx).Model(&models.Instance{}).
		Where("id = ?", id).
		UpdateColumn("last_accessed_at", at)
	if result.Error != nil {
		return fmt.Errorf("store: touch instance %d: %w", id, result.Error)
	}
	return nil
}

func (s *Gorm) updateInstance(ctx context.Context, id uint, op string, fields map[string]any) error {
	fields["updated_at"] = time.Now()
	result := s.db.WithContext(ctx).Model(&models.Instance{}).Where("id = ?", id).Updates(fields)
	if result.Error != nil {
		return fmt.Errorf("store: %s on instance %d: %w", op, id, result.Error)
	}
	if result.RowsAffected == 0 {
		return apperr.Newf(apperr.NotFound, "instance %d not found", id)
	}
	return nil
}

// DeleteInstance removes an instance and its credential in one transaction.
func (s *Gorm) DeleteInstance(ctx context.Context, id uint) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var inst models.Instance
		if err := tx.First(&inst, id).Error; err != nil {
			return err
		}
		if err := tx.Delete(&models.Instance{}, id).Error; err != nil {
			return fmt.Errorf("delete instance: %w", err)
		}
		if inst.CredentialID != nil {
			if err := tx.Delete(&models.Credential{}, *inst.CredentialID).Error; err != nil {
				return fmt.Errorf("delete credential: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return notFound(err, "instance not found", fmt.Sprintf("delete instance %d", id))
	}
	return nil
}

// RecordAccess appends an access log entry.
func (s *Gorm) RecordAccess(ctx context.Context, entry *models.AccessLog) error {
	if err := s.db.WithContext(ctx).Create(entry).Error; err != nil {
		return fmt.Errorf("store: record access for instance %d: %w", entry.InstanceID, err)
	}
	return nil
}

// ListAccess returns the most recent access log entries for an instance,
// newest first. A limit of zero or less returns all of them.
func (s *Gorm) ListAccess(ctx context.Context, instanceID uint, limit int) ([]models.AccessLog, error) {
	q := s.db.WithContext(ctx).Where("instance_id = ?", instanceID).Order("accessed_at DESC, id DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	var out []models.AccessLog
	if err := q.Find(&out).Error; err != nil {
		return nil, fmt.Errorf("store: list access for instance %d: %w", instanceID, err)
	}
	return out, nil
}
