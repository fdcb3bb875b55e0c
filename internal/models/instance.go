package models

import "time"

// InstanceStatus is the lifecycle state of a provisioned instance.
type InstanceStatus string

const (
	StatusCreating InstanceStatus = "creating"
	StatusActive   InstanceStatus = "active"
	StatusStopped  InstanceStatus = "stopped"
	StatusError    InstanceStatus = "error"
	StatusDeleted  InstanceStatus = "deleted"
)

// ValidStatuses lists every lifecycle state.
var ValidStatuses = []InstanceStatus{
	StatusCreating,
	StatusActive,
	StatusStopped,
	StatusError,
	StatusDeleted,
}

// Valid reports whether s is a known lifecycle state.
func (s InstanceStatus) Valid() bool {
	for _, v := range ValidStatuses {
		if v == s {
			return true
		}
	}
	return false
}

// Instance is a tenant database provisioned on one engine's master server.
type Instance struct {
	ID             uint           `gorm:"primaryKey;autoIncrement"`
	Name           string         `gorm:"size:128;not null"`
	EngineType     EngineType     `gorm:"size:16;not null;uniqueIndex:idx_instance_db_engine;index"`
	Status         InstanceStatus `gorm:"size:16;default:creating;index"`
	DatabaseName   string         `gorm:"size:128;not null;uniqueIndex:idx_instance_db_engine"`
	Host           string         `gorm:"size:255;default:localhost"`
	Port           int
	UserID         uint  `gorm:"not null;index"`
	CredentialID   *uint `gorm:"uniqueIndex"`
	CreatedAt      time.Time
	UpdatedAt      time.Time
	LastAccessedAt *time.Time

	User       *User       `gorm:"foreignKey:UserID"`
	Credential *Credential `gorm:"foreignKey:CredentialID"`
}
