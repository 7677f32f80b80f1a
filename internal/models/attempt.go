package models

import (
	"encoding/json"
	"slices"
	"time"

	"gorm.io/datatypes"
)

// AdaptiveModuleFilter restricts which modules of an assessment an attempt
// exposes. Module ids have set semantics.
type AdaptiveModuleFilter struct {
	ModuleIDs []uint `json:"focused_modules"`
}

// NewAdaptiveModuleFilter returns nil for an empty id set, meaning no filter.
func NewAdaptiveModuleFilter(ids []uint) *AdaptiveModuleFilter {
	if len(ids) == 0 {
		return nil
	}
	set := slices.Clone(ids)
	slices.Sort(set)
	return &AdaptiveModuleFilter{ModuleIDs: slices.Compact(set)}
}

func (f *AdaptiveModuleFilter) Contains(moduleID uint) bool {
	if f == nil {
		return true
	}
	_, found := slices.BinarySearch(f.ModuleIDs, moduleID)
	return found
}

// WorkflowRole is the programme slot an attempt was served for
type WorkflowRole string

const (
	WorkflowRoleBaseline WorkflowRole = "baseline"
	WorkflowRoleFinal    WorkflowRole = "final"
)

type attemptMeta struct {
	FocusedModules []uint       `json:"focused_modules,omitempty"`
	Role           WorkflowRole `json:"workflow_role,omitempty"`
}

type Attempt struct {
	ID           uint           `json:"id" gorm:"primaryKey"`
	TenantID     uint           `json:"tenant_id" gorm:"not null;index;uniqueIndex:idx_attempt_tenant_assessment_student"`
	AssessmentID uint           `json:"assessment_id" gorm:"not null;uniqueIndex:idx_attempt_tenant_assessment_student"`
	StudentID    uint           `json:"student_id" gorm:"not null;index;uniqueIndex:idx_attempt_tenant_assessment_student"`
	StartedAt    time.Time      `json:"started_at" gorm:"not null"`
	SubmittedAt  *time.Time     `json:"submitted_at" gorm:"index"`
	DurationSec  int            `json:"duration_sec" gorm:"not null;default:0"`
	Score        *float64       `json:"score" gorm:"type:decimal(6,2)"`
	TotalMarks   *float64       `json:"total_marks" gorm:"type:decimal(6,2)"`
	Meta         datatypes.JSON `json:"-" gorm:"type:jsonb"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`

	Assessment *Assessment `json:"assessment,omitempty" gorm:"foreignKey:AssessmentID"`
	Student    *Student    `json:"student,omitempty" gorm:"foreignKey:StudentID"`
	Responses  []Response  `json:"responses,omitempty" gorm:"foreignKey:AttemptID;constraint:OnDelete:CASCADE"`
}

type Response struct {
	ID         uint      `json:"id" gorm:"primaryKey"`
	AttemptID  uint      `json:"attempt_id" gorm:"not null;uniqueIndex:idx_response_attempt_question"`
	QuestionID uint      `json:"question_id" gorm:"not null;uniqueIndex:idx_response_attempt_question;index"`
	OptionID   *uint     `json:"option_id"`
	TextAnswer *string   `json:"text_answer" gorm:"type:text"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`

	Question *Question `json:"question,omitempty" gorm:"foreignKey:QuestionID"`
	Option   *Option   `json:"option,omitempty" gorm:"foreignKey:OptionID"`
}

func (Attempt) TableName() string {
	return "attempts"
}

func (Response) TableName() string {
	return "responses"
}

func (a *Attempt) IsSubmitted() bool {
	return a != nil && a.SubmittedAt != nil
}

func (a *Attempt) meta() attemptMeta {
	var meta attemptMeta
	if a == nil || len(a.Meta) == 0 {
		return meta
	}
	if err := json.Unmarshal(a.Meta, &meta); err != nil {
		return attemptMeta{}
	}
	return meta
}

func (a *Attempt) setMeta(meta attemptMeta) {
	data, _ := json.Marshal(meta)
	a.Meta = datatypes.JSON(data)
}

// ModuleFilter decodes the stored adaptive filter. Missing or malformed meta
// means no filter.
func (a *Attempt) ModuleFilter() *AdaptiveModuleFilter {
	return NewAdaptiveModuleFilter(a.meta().FocusedModules)
}

// WithModuleFilter stores the filter in meta. A nil filter clears it.
func (a *Attempt) WithModuleFilter(f *AdaptiveModuleFilter) {
	meta := a.meta()
	meta.FocusedModules = nil
	if f != nil {
		meta.FocusedModules = f.ModuleIDs
	}
	a.setMeta(meta)
}

// WorkflowRole reports the slot the workflow served this attempt for, or ""
// when it was opened directly.
func (a *Attempt) WorkflowRole() WorkflowRole {
	return a.meta().Role
}

func (a *Attempt) WithWorkflowRole(role WorkflowRole) {
	meta := a.meta()
	meta.Role = role
	a.setMeta(meta)
}

// Percentage returns the score relative to total marks, rounded, or nil while
// the attempt is unscored.
func (a *Attempt) Percentage() *float64 {
	if a == nil || a.Score == nil {
		return nil
	}
	total := 1.0
	if a.TotalMarks != nil && *a.TotalMarks > 0 {
		total = *a.TotalMarks
	}
	pct := *a.Score / total * 100
	return &pct
}
