package db

import (
	"fmt"

	"github.com/zulandar/multidb/internal/config"
	"github.com/zulandar/multidb/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// AllModels returns every GORM model in the metadata store, parents first.
func AllModels() []interface{} {
	return []interface{}{
		&models.User{},
		&models.Credential{},
		&models.Instance{},
		&models.AccessLog{},
	}
}

// AutoMigrate creates or updates all metadata tables.
func AutoMigrate(db *gorm.DB) error {
	if err := db.AutoMigrate(AllModels()...); err != nil {
		return fmt.Errorf("db: auto-migrate: %w", err)
	}
	return nil
}

// SeedUsers upserts User rows from configuration, keyed by user name.
func SeedUsers(db *gorm.DB, users []config.UserConfig) error {
	for _, uc := range users {
		user := models.User{
			UserName: uc.UserName,
			Email:    uc.Email,
			Role:     uc.Role,
		}

		result := db.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_name"}},
			DoUpdates: clause.AssignmentColumns([]string{"email", "role", "updated_at"}),
		}).Create(&user)
		if result.Error != nil {
			return fmt.Errorf("db: seed user %q: %w", uc.UserName, result.Error)
		}
	}
	return nil
}
