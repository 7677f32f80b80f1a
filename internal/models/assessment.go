package models

import (
	"time"
)

type ModuleStatus string

const (
	ModuleScheduled ModuleStatus = "Scheduled"
	ModuleOpen      ModuleStatus = "Open"
	ModuleClosed    ModuleStatus = "Closed"
)

type Assessment struct {
	ID           uint       `json:"id" gorm:"primaryKey"`
	TenantID     uint       `json:"tenant_id" gorm:"not null;index"`
	Title        string     `json:"title" gorm:"not null;size:200" validate:"required,min=1,max=200"`
	Instructions *string    `json:"instructions" gorm:"type:text"`
	Order        int        `json:"order" gorm:"column:order;not null;default:0;index"`
	TotalMarks   int        `json:"total_marks" gorm:"not null;default:0"` // informational, never used for scoring
	IsActive     bool       `json:"is_active" gorm:"not null;default:true"`
	OpenAt       *time.Time `json:"open_at"`
	CloseAt      *time.Time `json:"close_at"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`

	Modules []Module `json:"modules,omitempty" gorm:"foreignKey:AssessmentID"`
}

type Module struct {
	ID                     uint         `json:"id" gorm:"primaryKey"`
	TenantID               uint         `json:"tenant_id" gorm:"not null;index"`
	AssessmentID           uint         `json:"assessment_id" gorm:"not null;index"`
	Title                  string       `json:"title" gorm:"not null;size:200"`
	Code                   *string      `json:"code" gorm:"size:50"`
	Order                  int          `json:"order" gorm:"column:order;not null;default:0"`
	Status                 ModuleStatus `json:"status" gorm:"size:20;default:Scheduled"`
	StartAt                *time.Time   `json:"start_at"`
	EndAt                  *time.Time   `json:"end_at"`
	PerStudentTimeLimitMin *int         `json:"time_limit_min"`
	CreatedAt              time.Time    `json:"created_at"`
	UpdatedAt              time.Time    `json:"updated_at"`

	Assessment *Assessment `json:"-" gorm:"foreignKey:AssessmentID"`
	Questions  []Question  `json:"questions,omitempty" gorm:"foreignKey:ModuleID"`
}

func (Assessment) TableName() string {
	return "assessments"
}

func (Module) TableName() string {
	return "modules"
}

// MatchKey is the key used to pair a Baseline module with a Final module.
// The code wins when both sides carry one.
func (m Module) MatchKey(useCode bool) string {
	if useCode && m.Code != nil && *m.Code != "" {
		return *m.Code
	}
	return m.Title
}

// QuestionPoints lists the points of every question across all loaded modules.
func (a Assessment) QuestionPoints() []*int {
	var points []*int
	for _, m := range a.Modules {
		for _, q := range m.Questions {
			points = append(points, q.Points)
		}
	}
	return points
}
