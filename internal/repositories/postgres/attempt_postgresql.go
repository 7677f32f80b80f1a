package postgres

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/SAP-F-2025/training-assessment-service/internal/models"
	"github.com/SAP-F-2025/training-assessment-service/internal/repositories"
)

type AttemptPostgreSQL struct {
	db *gorm.DB
}

func NewAttemptPostgreSQL(db *gorm.DB) repositories.AttemptRepository {
	return &AttemptPostgreSQL{db: db}
}

func (a *AttemptPostgreSQL) FindOrCreate(ctx context.Context, tx *gorm.DB, attempt *models.Attempt) (*models.Attempt, bool, error) {
	db := getDB(a.db, tx)

	result := db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "tenant_id"}, {Name: "assessment_id"}, {Name: "student_id"}},
			DoNothing: true,
		}).
		Create(attempt)
	if result.Error != nil {
		return nil, false, fmt.Errorf("failed to create attempt: %w", result.Error)
	}

	// The loser of a concurrent insert reads the winner's row
	stored, err := a.GetByStudentAndAssessment(ctx, tx, attempt.TenantID, attempt.StudentID, attempt.AssessmentID)
	if err != nil {
		return nil, false, err
	}
	return stored, result.RowsAffected > 0, nil
}

func (a *AttemptPostgreSQL) GetByID(ctx context.Context, tx *gorm.DB, tenantID, id uint) (*models.Attempt, error) {
	db := getDB(a.db, tx)
	var attempt models.Attempt
	if err := db.WithContext(ctx).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		First(&attempt).Error; err != nil {
		return nil, fmt.Errorf("failed to get attempt: %w", err)
	}
	return &attempt, nil
}

// GetForUpdate locks the attempt row until the transaction ends
func (a *AttemptPostgreSQL) GetForUpdate(ctx context.Context, tx *gorm.DB, tenantID, id uint) (*models.Attempt, error) {
	db := getDB(a.db, tx).WithContext(ctx)
	if isPostgres(db) {
		db = db.Clauses(clause.Locking{Strength: "UPDATE"})
	}

	var attempt models.Attempt
	if err := db.Where("tenant_id = ? AND id = ?", tenantID, id).First(&attempt).Error; err != nil {
		return nil, fmt.Errorf("failed to lock attempt: %w", err)
	}
	return &attempt, nil
}

func (a *AttemptPostgreSQL) GetWithResponses(ctx context.Context, tx *gorm.DB, tenantID, id uint) (*models.Attempt, error) {
	db := getDB(a.db, tx)
	var attempt models.Attempt
	if err := preloadResponses(db.WithContext(ctx)).
		Preload("Assessment").
		Where("tenant_id = ? AND id = ?", tenantID, id).
		First(&attempt).Error; err != nil {
		return nil, fmt.Errorf("failed to get attempt with responses: %w", err)
	}
	return &attempt, nil
}

func (a *AttemptPostgreSQL) GetByStudentAndAssessment(ctx context.Context, tx *gorm.DB, tenantID, studentID, assessmentID uint) (*models.Attempt, error) {
	db := getDB(a.db, tx)
	var attempt models.Attempt
	if err := db.WithContext(ctx).
		Where("tenant_id = ? AND student_id = ? AND assessment_id = ?", tenantID, studentID, assessmentID).
		Preload("Responses", byID).
		First(&attempt).Error; err != nil {
		return nil, fmt.Errorf("failed to get attempt by student and assessment: %w", err)
	}
	return &attempt, nil
}

func (a *AttemptPostgreSQL) List(ctx context.Context, tx *gorm.DB, filters repositories.AttemptFilters) ([]*models.Attempt, error) {
	db := getDB(a.db, tx)
	var attempts []*models.Attempt

	query := applyAttemptFilters(db.WithContext(ctx).Model(&models.Attempt{}), filters).
		Preload("Assessment").
		Order("attempts.submitted_at DESC").
		Order("attempts.id DESC")

	if err := query.Find(&attempts).Error; err != nil {
		return nil, fmt.Errorf("failed to list attempts: %w", err)
	}
	return attempts, nil
}

func (a *AttemptPostgreSQL) MarkSubmitted(ctx context.Context, tx *gorm.DB, attempt *models.Attempt) error {
	db := getDB(a.db, tx)

	result := db.WithContext(ctx).
		Model(&models.Attempt{}).
		Where("tenant_id = ? AND id = ? AND submitted_at IS NULL", attempt.TenantID, attempt.ID).
		Updates(map[string]interface{}{
			"score":        attempt.Score,
			"total_marks":  attempt.TotalMarks,
			"submitted_at": attempt.SubmittedAt,
			"duration_sec": attempt.DurationSec,
			"updated_at":   time.Now(),
		})
	if result.Error != nil {
		return fmt.Errorf("failed to submit attempt: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return repositories.ErrAlreadySubmitted
	}
	return nil
}

func (a *AttemptPostgreSQL) CountActiveSince(ctx context.Context, tx *gorm.DB, tenantID uint, since time.Time) (int64, error) {
	db := getDB(a.db, tx)
	var count int64
	if err := db.WithContext(ctx).
		Model(&models.Attempt{}).
		Where("tenant_id = ? AND started_at >= ? AND submitted_at IS NULL", tenantID, since).
		Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count active attempts: %w", err)
	}
	return count, nil
}
