package models

import "time"

// Credential holds the login for one Instance. Password is stored as issued.
type Credential struct {
	ID        uint   `gorm:"primaryKey;autoIncrement"`
	Username  string `gorm:"size:128;not null"`
	Password  string `gorm:"size:255;not null"`
	Database  string `gorm:"size:128;not null"`
	Host      string `gorm:"size:255;default:localhost"`
	Port      int
	CreatedAt time.Time
}
