package models

import (
	"time"

	"gorm.io/datatypes"
)

type QuestionType string

const (
	QuestionMCQ     QuestionType = "MCQ"
	QuestionBoolean QuestionType = "BOOLEAN"
	QuestionText    QuestionType = "TEXT"
)

type Question struct {
	ID         uint           `json:"id" gorm:"primaryKey"`
	TenantID   uint           `json:"tenant_id" gorm:"not null;index"`
	ModuleID   uint           `json:"module_id" gorm:"not null;index"`
	Type       QuestionType   `json:"type" gorm:"size:20;not null;index"`
	Stem       string         `json:"prompt" gorm:"type:text;not null"`
	Points     *int           `json:"marks"`
	Topic      *string        `json:"topic" gorm:"size:100;index"`
	Difficulty *string        `json:"difficulty" gorm:"size:20"`
	Tags       datatypes.JSON `json:"tags" gorm:"type:jsonb"`
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`

	Module  *Module  `json:"-" gorm:"foreignKey:ModuleID"`
	Options []Option `json:"options,omitempty" gorm:"foreignKey:QuestionID"`
}

type Option struct {
	ID         uint      `json:"id" gorm:"primaryKey"`
	QuestionID uint      `json:"question_id" gorm:"not null;index"`
	Label      string    `json:"label" gorm:"size:10"`
	Text       string    `json:"text" gorm:"type:text;not null"`
	IsCorrect  bool      `json:"is_correct" gorm:"not null;default:false"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

func (Question) TableName() string {
	return "questions"
}

func (Option) TableName() string {
	return "options"
}

// CorrectOption returns the first option flagged correct, or nil.
func (q Question) CorrectOption() *Option {
	for i := range q.Options {
		if q.Options[i].IsCorrect {
			return &q.Options[i]
		}
	}
	return nil
}

// PointsOrZero treats missing points as zero.
func (q Question) PointsOrZero() int {
	if q.Points == nil {
		return 0
	}
	return *q.Points
}
