package postgres

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/SAP-F-2025/training-assessment-service/internal/models"
	"github.com/SAP-F-2025/training-assessment-service/internal/repositories"
)

type CollegePostgreSQL struct {
	db *gorm.DB
}

func NewCollegePostgreSQL(db *gorm.DB) repositories.CollegeRepository {
	return &CollegePostgreSQL{db: db}
}

func (c *CollegePostgreSQL) List(ctx context.Context, tx *gorm.DB, tenantID uint) ([]models.College, error) {
	db := getDB(c.db, tx)
	var colleges []models.College
	if err := db.WithContext(ctx).
		Where("tenant_id = ?", tenantID).
		Order("name ASC").
		Find(&colleges).Error; err != nil {
		return nil, fmt.Errorf("failed to list colleges: %w", err)
	}
	return colleges, nil
}

// CountStudents returns the number of students per college
func (c *CollegePostgreSQL) CountStudents(ctx context.Context, tx *gorm.DB, tenantID uint) (map[uint]int, error) {
	db := getDB(c.db, tx)

	var rows []struct {
		CollegeID uint
		Total     int
	}
	if err := db.WithContext(ctx).
		Model(&models.Student{}).
		Select("college_id, COUNT(*) AS total").
		Where("tenant_id = ? AND college_id IS NOT NULL", tenantID).
		Group("college_id").
		Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to count students by college: %w", err)
	}

	counts := make(map[uint]int, len(rows))
	for _, row := range rows {
		counts[row.CollegeID] = row.Total
	}
	return counts, nil
}
