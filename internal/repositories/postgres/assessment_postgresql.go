package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/SAP-F-2025/training-assessment-service/internal/models"
	"github.com/SAP-F-2025/training-assessment-service/internal/repositories"
)

type AssessmentPostgreSQL struct {
	db *gorm.DB
}

func NewAssessmentPostgreSQL(db *gorm.DB) repositories.AssessmentRepository {
	return &AssessmentPostgreSQL{db: db}
}

func (a *AssessmentPostgreSQL) ListWorkflow(ctx context.Context, tx *gorm.DB, tenantID uint) ([]models.Assessment, error) {
	db := getDB(a.db, tx)
	var assessments []models.Assessment
	if err := db.WithContext(ctx).
		Where("tenant_id = ?", tenantID).
		Order(orderColumn).
		Order("id ASC").
		Limit(2).
		Find(&assessments).Error; err != nil {
		return nil, fmt.Errorf("failed to resolve workflow assessments: %w", err)
	}
	return assessments, nil
}

func (a *AssessmentPostgreSQL) GetWithModules(ctx context.Context, tx *gorm.DB, tenantID, id uint, filter *models.AdaptiveModuleFilter) (*models.Assessment, error) {
	db := getDB(a.db, tx)
	var assessment models.Assessment

	modules := func(db *gorm.DB) *gorm.DB {
		db = orderedModules(db)
		if filter != nil {
			db = db.Where("id IN ?", filter.ModuleIDs)
		}
		return db
	}

	if err := db.WithContext(ctx).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		Preload("Modules", modules).
		Preload("Modules.Questions", byID).
		Preload("Modules.Questions.Options", byID).
		First(&assessment).Error; err != nil {
		return nil, fmt.Errorf("failed to get assessment: %w", err)
	}
	return &assessment, nil
}

func (a *AssessmentPostgreSQL) ListWithModules(ctx context.Context, tx *gorm.DB, tenantID uint, activeOnly bool) ([]models.Assessment, error) {
	db := getDB(a.db, tx)
	var assessments []models.Assessment

	query := db.WithContext(ctx).Where("tenant_id = ?", tenantID)
	if activeOnly {
		query = query.Where("is_active = ?", true)
	}

	if err := query.
		Preload("Modules", orderedModules).
		Preload("Modules.Questions", byID).
		Preload("Modules.Questions.Options", byID).
		Order(orderColumn).
		Order("id ASC").
		Find(&assessments).Error; err != nil {
		return nil, fmt.Errorf("failed to list assessments: %w", err)
	}
	return assessments, nil
}

func (a *AssessmentPostgreSQL) ListModules(ctx context.Context, tx *gorm.DB, tenantID, assessmentID uint) ([]models.Module, error) {
	db := getDB(a.db, tx)
	var modules []models.Module
	if err := orderedModules(db.WithContext(ctx)).
		Where("tenant_id = ? AND assessment_id = ?", tenantID, assessmentID).
		Find(&modules).Error; err != nil {
		return nil, fmt.Errorf("failed to list modules: %w", err)
	}
	return modules, nil
}

func (a *AssessmentPostgreSQL) CountActive(ctx context.Context, tx *gorm.DB, tenantID uint) (int64, error) {
	db := getDB(a.db, tx)
	var count int64
	if err := db.WithContext(ctx).
		Model(&models.Assessment{}).
		Where("tenant_id = ? AND is_active = ?", tenantID, true).
		Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count active assessments: %w", err)
	}
	return count, nil
}

// UpcomingModules lists modules of active assessments ending between from and to
func (a *AssessmentPostgreSQL) UpcomingModules(ctx context.Context, tx *gorm.DB, tenantID uint, from, to time.Time, limit int) ([]models.Module, error) {
	db := getDB(a.db, tx)
	var modules []models.Module
	if err := db.WithContext(ctx).
		Select("modules.*").
		Joins("JOIN assessments ON assessments.id = modules.assessment_id").
		Where("assessments.tenant_id = ? AND assessments.is_active = ?", tenantID, true).
		Where("modules.end_at BETWEEN ? AND ?", from, to).
		Preload("Assessment").
		Order("modules.end_at ASC").
		Limit(limit).
		Find(&modules).Error; err != nil {
		return nil, fmt.Errorf("failed to list upcoming modules: %w", err)
	}
	return modules, nil
}

func (a *AssessmentPostgreSQL) GetQuestion(ctx context.Context, tx *gorm.DB, tenantID, questionID uint) (*models.Question, error) {
	db := getDB(a.db, tx)
	var question models.Question
	if err := db.WithContext(ctx).
		Where("tenant_id = ? AND id = ?", tenantID, questionID).
		Preload("Module").
		First(&question).Error; err != nil {
		return nil, fmt.Errorf("failed to get question: %w", err)
	}
	return &question, nil
}

// QuestionPoints lists the points of every question of the assessment, across
// all of its modules
func (a *AssessmentPostgreSQL) QuestionPoints(ctx context.Context, tx *gorm.DB, assessmentID uint) ([]*int, error) {
	db := getDB(a.db, tx)
	var rows []sql.NullInt64
	if err := db.WithContext(ctx).
		Model(&models.Question{}).
		Joins("JOIN modules ON modules.id = questions.module_id").
		Where("modules.assessment_id = ?", assessmentID).
		Pluck("questions.points", &rows).Error; err != nil {
		return nil, fmt.Errorf("failed to load question points: %w", err)
	}

	points := make([]*int, len(rows))
	for i, row := range rows {
		if row.Valid {
			p := int(row.Int64)
			points[i] = &p
		}
	}
	return points, nil
}
