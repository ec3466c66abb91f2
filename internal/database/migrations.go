package database

import (
	"fmt"
	"inmuebles/server/internal/models"

	"gorm.io/gorm"
)

// MigrateSchema creates or updates the properties table and its indexes
func MigrateSchema(db *gorm.DB) error {
	if err := db.AutoMigrate(&models.Property{}); err != nil {
		return fmt.Errorf("failed to migrate properties table: %w", err)
	}

	// Sale queries filter on sold_at IS NOT NULL
	if err := db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_properties_sold_at
		ON properties(sold_at);
	`).Error; err != nil {
		return fmt.Errorf("failed to create sold_at index: %w", err)
	}

	return nil
}

func (d *Database) RunMigrations() error {
	return MigrateSchema(d.db)
}
