package models

import "time"

// TrainingStatus is the canonical programme stage of a student.
type TrainingStatus string

const (
	StatusReadyForBaseline   TrainingStatus = "ready_for_baseline"
	StatusBaselineInProgress TrainingStatus = "baseline_in_progress"
	StatusInTraining         TrainingStatus = "in_training"
	StatusReadyForFinal      TrainingStatus = "ready_for_final"
	StatusFinalInProgress    TrainingStatus = "final_in_progress"
	StatusCompleted          TrainingStatus = "completed"
)

// Stage labels produced when the stage is derived from attempts rather than
// read from the stored status.
const (
	liveBaselineNotStarted = "baseline_not_started"
	liveFinalNotStarted    = "final_not_started"
)

var trainingStatuses = map[TrainingStatus]struct{}{
	StatusReadyForBaseline:   {},
	StatusBaselineInProgress: {},
	StatusInTraining:         {},
	StatusReadyForFinal:      {},
	StatusFinalInProgress:    {},
	StatusCompleted:          {},
}

// ParseTrainingStatus accepts both the stored and the attempt-derived
// vocabularies. Empty or unknown values resolve to ready_for_baseline.
func ParseTrainingStatus(s string) TrainingStatus {
	switch s {
	case liveBaselineNotStarted:
		return StatusReadyForBaseline
	case liveFinalNotStarted:
		return StatusReadyForFinal
	}
	if _, ok := trainingStatuses[TrainingStatus(s)]; ok {
		return TrainingStatus(s)
	}
	return StatusReadyForBaseline
}

// Normalize maps an empty or unknown status to ready_for_baseline.
func (s TrainingStatus) Normalize() TrainingStatus {
	return ParseTrainingStatus(string(s))
}

// StageFromAttempts derives the stage from the student's Baseline and Final
// attempts. Either attempt may be nil.
func StageFromAttempts(baseline, final *Attempt) TrainingStatus {
	switch {
	case baseline == nil:
		return ParseTrainingStatus(liveBaselineNotStarted)
	case !baseline.IsSubmitted():
		return StatusBaselineInProgress
	case final == nil:
		return ParseTrainingStatus(liveFinalNotStarted)
	case !final.IsSubmitted():
		return StatusFinalInProgress
	default:
		return StatusCompleted
	}
}

type Student struct {
	ID              uint           `json:"id" gorm:"primaryKey"`
	TenantID        uint           `json:"tenant_id" gorm:"not null;index;uniqueIndex:idx_student_tenant_regno"`
	UserID          *string        `json:"user_id" gorm:"size:255;index"`
	CollegeID       *uint          `json:"college_id" gorm:"index"`
	RegNo           string         `json:"reg_no" gorm:"not null;size:100;uniqueIndex:idx_student_tenant_regno"`
	Name            string         `json:"name" gorm:"not null;size:255"`
	Email           *string        `json:"email" gorm:"size:255"`
	Branch          *string        `json:"branch" gorm:"size:100"`
	Cohort          *string        `json:"cohort" gorm:"size:50"`
	InstitutionName *string        `json:"institution_name" gorm:"size:255"`
	TrainingStatus  TrainingStatus `json:"training_status" gorm:"size:30;default:ready_for_baseline;index"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`

	College *College `json:"college,omitempty" gorm:"foreignKey:CollegeID"`
}

func (Student) TableName() string {
	return "students"
}
