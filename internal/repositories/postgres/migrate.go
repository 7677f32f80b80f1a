package postgres

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/SAP-F-2025/training-assessment-service/internal/models"
)

// Migrate creates or updates every table the service owns
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&models.Tenant{},
		&models.University{},
		&models.College{},
		&models.Student{},
		&models.Assessment{},
		&models.Module{},
		&models.Question{},
		&models.Option{},
		&models.Attempt{},
		&models.Response{},
	); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}
	return nil
}
