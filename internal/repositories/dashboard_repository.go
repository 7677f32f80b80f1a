package repositories

import (
	"context"

	"gorm.io/gorm"
)

// DashboardRepository runs the aggregate queries behind dashboards and reports
type DashboardRepository interface {
	// TopicPerformance averages option correctness per question topic, lowest
	// first. studentID narrows it to one student.
	TopicPerformance(ctx context.Context, tx *gorm.DB, tenantID uint, studentID *uint, limit int) ([]TopicPerformanceData, error)

	// CompletionsByCollege counts distinct students with a submitted attempt
	// on the assessment, per college
	CompletionsByCollege(ctx context.Context, tx *gorm.DB, tenantID, assessmentID uint) (map[uint]int, error)

	// DistinctAttempters counts students with any attempt on the assessment
	DistinctAttempters(ctx context.Context, tx *gorm.DB, tenantID, assessmentID uint) (int64, error)
}

// Data structures for dashboard responses

type TopicPerformanceData struct {
	Topic         string  `json:"topic"`
	TotalAttempts int64   `json:"total_attempts"`
	AvgScore      float64 `json:"avg_score"`
}
