package postgres

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"gorm.io/gorm"

	"github.com/SAP-F-2025/training-assessment-service/internal/models"
	"github.com/SAP-F-2025/training-assessment-service/internal/repositories"
)

type StudentPostgreSQL struct {
	db *gorm.DB
}

func NewStudentPostgreSQL(db *gorm.DB) repositories.StudentRepository {
	return &StudentPostgreSQL{db: db}
}

func (s *StudentPostgreSQL) GetByID(ctx context.Context, tx *gorm.DB, tenantID, id uint) (*models.Student, error) {
	db := getDB(s.db, tx)
	var student models.Student
	if err := db.WithContext(ctx).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		Preload("College").
		First(&student).Error; err != nil {
		return nil, fmt.Errorf("failed to get student: %w", err)
	}
	return &student, nil
}

func (s *StudentPostgreSQL) GetByUserID(ctx context.Context, tx *gorm.DB, tenantID uint, userID string) (*models.Student, error) {
	db := getDB(s.db, tx)
	var student models.Student
	if err := db.WithContext(ctx).
		Where("tenant_id = ? AND user_id = ?", tenantID, userID).
		First(&student).Error; err != nil {
		return nil, fmt.Errorf("failed to get student by user: %w", err)
	}
	return &student, nil
}

func (s *StudentPostgreSQL) UpdateTrainingStatus(ctx context.Context, tx *gorm.DB, tenantID, id uint, from []models.TrainingStatus, to models.TrainingStatus) (bool, error) {
	db := getDB(s.db, tx)

	query := db.WithContext(ctx).
		Model(&models.Student{}).
		Where("tenant_id = ? AND id = ?", tenantID, id)

	if slices.Contains(from, models.StatusReadyForBaseline) {
		query = query.Where("(training_status IN ? OR training_status IS NULL OR training_status = '')", from)
	} else {
		query = query.Where("training_status IN ?", from)
	}

	result := query.Update("training_status", to)
	if result.Error != nil {
		return false, fmt.Errorf("failed to update training status: %w", result.Error)
	}
	return result.RowsAffected > 0, nil
}

func (s *StudentPostgreSQL) Count(ctx context.Context, tx *gorm.DB, tenantID uint) (int64, error) {
	db := getDB(s.db, tx)
	var count int64
	if err := db.WithContext(ctx).
		Model(&models.Student{}).
		Where("tenant_id = ?", tenantID).
		Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count students: %w", err)
	}
	return count, nil
}

func (s *StudentPostgreSQL) List(ctx context.Context, tx *gorm.DB, tenantID uint, limit int) ([]models.Student, error) {
	db := getDB(s.db, tx)
	var students []models.Student
	if err := db.WithContext(ctx).
		Where("tenant_id = ?", tenantID).
		Order("name ASC").
		Order("id ASC").
		Limit(limit).
		Find(&students).Error; err != nil {
		return nil, fmt.Errorf("failed to list students: %w", err)
	}
	return students, nil
}

// Search matches reg_no or name, case-insensitively
func (s *StudentPostgreSQL) Search(ctx context.Context, tx *gorm.DB, tenantID uint, query string, limit int) ([]models.Student, error) {
	db := getDB(s.db, tx)
	var students []models.Student

	q := db.WithContext(ctx).Where("tenant_id = ?", tenantID)
	if query = strings.TrimSpace(query); query != "" {
		like := "%" + strings.ToLower(query) + "%"
		q = q.Where("(LOWER(reg_no) LIKE ? OR LOWER(name) LIKE ?)", like, like)
	}

	if err := q.Order("name ASC").Limit(limit).Find(&students).Error; err != nil {
		return nil, fmt.Errorf("failed to search students: %w", err)
	}
	return students, nil
}
