package events

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/SAP-F-2025/training-assessment-service/internal/models"
)

type EventType string

const (
	EventAttemptSubmitted EventType = "attempt.submitted"
	EventStageChanged     EventType = "student.stage_changed"
	EventFinalQualified   EventType = "student.final_qualified"
)

// Event is the envelope published for every domain change
type Event struct {
	ID         string          `json:"id"`
	Type       EventType       `json:"type"`
	TenantID   uint            `json:"tenant_id"`
	OccurredAt time.Time       `json:"occurred_at"`
	Payload    json.RawMessage `json:"payload"`
}

type AttemptSubmittedPayload struct {
	AttemptID    uint    `json:"attempt_id"`
	AssessmentID uint    `json:"assessment_id"`
	StudentID    uint    `json:"student_id"`
	Score        float64 `json:"score"`
	TotalMarks   float64 `json:"total_marks"`
	Percentage   int     `json:"percentage"`
	DurationSec  int     `json:"duration_sec"`
}

type StageChangedPayload struct {
	StudentID uint                  `json:"student_id"`
	From      models.TrainingStatus `json:"from"`
	To        models.TrainingStatus `json:"to"`
}

// FinalQualifiedPayload carries what a mailer needs to notify the student
type FinalQualifiedPayload struct {
	StudentID uint    `json:"student_id"`
	Name      string  `json:"name"`
	Email     *string `json:"email"`
	RegNo     string  `json:"reg_no"`
}

// NewEvent wraps payload into an envelope with a fresh id
func NewEvent(eventType EventType, tenantID uint, payload interface{}) (Event, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return Event{}, fmt.Errorf("failed to marshal %s payload: %w", eventType, err)
	}
	return Event{
		ID:         uuid.NewString(),
		Type:       eventType,
		TenantID:   tenantID,
		OccurredAt: time.Now().UTC(),
		Payload:    data,
	}, nil
}

// DecodePayload unmarshals the payload of an event
func (e Event) DecodePayload(dest interface{}) error {
	return json.Unmarshal(e.Payload, dest)
}
