package models

import "time"

const (
	RoleAdmin   = "admin"
	RoleStudent = "student"
)

// User is an account that can own instances. The core only reads users.
type User struct {
	ID        uint   `gorm:"primaryKey;autoIncrement"`
	UserName  string `gorm:"size:64;not null;uniqueIndex"`
	Email     string `gorm:"size:255"`
	Role      string `gorm:"size:16;default:student"`
	CreatedAt time.Time
	UpdatedAt time.Time
}
