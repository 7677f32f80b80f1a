package validator

import (
	"time"
)

// SaveProgressRequest records one answer. Exactly the last write per question
// is kept.
type SaveProgressRequest struct {
	QuestionID uint    `json:"question_id" validate:"required"`
	OptionID   *uint   `json:"option_id" validate:"omitempty,min=1"`
	TextAnswer *string `json:"text_answer" validate:"omitempty,max=5000"`
}

// AdminDashboardQuery is bound from the query string
type AdminDashboardQuery struct {
	Timeframe string `form:"timeframe" validate:"omitempty,timeframe"`
}

// ReportOverviewQuery is bound from the query string
type ReportOverviewQuery struct {
	TimeRange string `form:"timeRange" validate:"omitempty,report_range"`
}

// StudentSearchQuery is bound from the query string
type StudentSearchQuery struct {
	Q string `form:"q" validate:"max=100"`
}

// TrainingCompletedMessage is the payload consumed from the training topic
type TrainingCompletedMessage struct {
	TenantID    uint      `json:"tenant_id" validate:"required"`
	StudentID   uint      `json:"student_id" validate:"required"`
	CompletedAt time.Time `json:"completed_at"`
	Source      string    `json:"source" validate:"max=100"`
}
