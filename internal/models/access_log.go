package models

import "time"

// AccessLog records one query dispatched against an instance.
type AccessLog struct {
	ID         uint   `gorm:"primaryKey;autoIncrement"`
	InstanceID uint   `gorm:"index"`
	UserID     uint   `gorm:"index"`
	QueryType  string `gorm:"size:32"`
	Success    bool
	AccessedAt time.Time `gorm:"index"`
}
