package postgres

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/SAP-F-2025/training-assessment-service/internal/models"
	"github.com/SAP-F-2025/training-assessment-service/internal/repositories"
)

type dashboardRepository struct {
	db *gorm.DB
}

func NewDashboardRepository(db *gorm.DB) repositories.DashboardRepository {
	return &dashboardRepository{db: db}
}

// ===== TOPICS =====

func (r *dashboardRepository) TopicPerformance(ctx context.Context, tx *gorm.DB, tenantID uint, studentID *uint, limit int) ([]repositories.TopicPerformanceData, error) {
	db := getDB(r.db, tx)

	query := db.WithContext(ctx).
		Table("responses").
		Select("questions.topic AS topic, COUNT(*) AS total_attempts, " +
			"AVG(CASE WHEN options.is_correct THEN 100.0 ELSE 0 END) AS avg_score").
		Joins("JOIN attempts ON attempts.id = responses.attempt_id").
		Joins("JOIN questions ON questions.id = responses.question_id").
		Joins("JOIN options ON options.id = responses.option_id").
		Where("attempts.tenant_id = ? AND questions.topic IS NOT NULL", tenantID)

	if studentID != nil {
		query = query.Where("attempts.student_id = ?", *studentID)
	}

	var results []repositories.TopicPerformanceData
	if err := query.
		Group("questions.topic").
		Order("avg_score ASC").
		Order("questions.topic ASC").
		Limit(limit).
		Scan(&results).Error; err != nil {
		return nil, fmt.Errorf("failed to get topic performance: %w", err)
	}
	return results, nil
}

// ===== COMPLETIONS =====

func (r *dashboardRepository) CompletionsByCollege(ctx context.Context, tx *gorm.DB, tenantID, assessmentID uint) (map[uint]int, error) {
	db := getDB(r.db, tx)

	var rows []struct {
		CollegeID uint
		Completed int
	}
	if err := db.WithContext(ctx).
		Model(&models.Attempt{}).
		Select("students.college_id AS college_id, COUNT(DISTINCT attempts.student_id) AS completed").
		Joins("JOIN students ON students.id = attempts.student_id").
		Where("attempts.tenant_id = ? AND attempts.assessment_id = ?", tenantID, assessmentID).
		Where("attempts.submitted_at IS NOT NULL AND students.college_id IS NOT NULL").
		Group("students.college_id").
		Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to count completions by college: %w", err)
	}

	counts := make(map[uint]int, len(rows))
	for _, row := range rows {
		counts[row.CollegeID] = row.Completed
	}
	return counts, nil
}

func (r *dashboardRepository) DistinctAttempters(ctx context.Context, tx *gorm.DB, tenantID, assessmentID uint) (int64, error) {
	db := getDB(r.db, tx)
	var count int64
	if err := db.WithContext(ctx).
		Model(&models.Attempt{}).
		Where("tenant_id = ? AND assessment_id = ?", tenantID, assessmentID).
		Distinct("student_id").
		Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count attempters: %w", err)
	}
	return count, nil
}
