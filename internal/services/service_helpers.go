package services

import (
	"context"
	"log/slog"
	"time"

	"github.com/SAP-F-2025/training-assessment-service/internal/events"
	"github.com/SAP-F-2025/training-assessment-service/internal/models"
)

// requireStudent returns the caller's student id
func requireStudent(tc models.TenantContext) (uint, error) {
	if !tc.Valid() {
		return 0, ErrTenantRequired
	}
	if !tc.IsStudent() {
		return 0, ErrNotAStudent
	}
	return *tc.StudentID, nil
}

func requireAdmin(tc models.TenantContext, resource, action string) error {
	if !tc.Valid() {
		return ErrTenantRequired
	}
	if !tc.IsAdmin() {
		return NewPermissionError(tc.UserID, 0, resource, action, "admin role required")
	}
	return nil
}

// ===== EVENTS =====

type eventDraft struct {
	Type    events.EventType
	Payload interface{}
}

func stageChangedDraft(change *StageChange) eventDraft {
	return eventDraft{
		Type: events.EventStageChanged,
		Payload: events.StageChangedPayload{
			StudentID: change.StudentID,
			From:      change.From,
			To:        change.To,
		},
	}
}

// publishAfterCommit publishes events once the transaction is durable. A
// failure is logged and never reaches the caller.
func publishAfterCommit(ctx context.Context, publisher events.EventPublisher, logger *slog.Logger, tenantID uint, drafts ...eventDraft) {
	if publisher == nil || len(drafts) == 0 {
		return
	}

	batch := make([]events.Event, 0, len(drafts))
	for _, d := range drafts {
		event, err := events.NewEvent(d.Type, tenantID, d.Payload)
		if err != nil {
			logger.Error("Failed to build event", "error", err, "type", d.Type)
			continue
		}
		batch = append(batch, event)
	}

	if err := publisher.Publish(context.WithoutCancel(ctx), batch...); err != nil {
		logger.Error("Failed to publish events",
			"error", err,
			"tenant_id", tenantID,
			"count", len(batch))
	}
}

// ===== TIME WINDOWS =====

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// windowStart returns the first instant of a today|7d|30d window. "all" and
// unknown values yield nil.
func windowStart(window string, now time.Time) *time.Time {
	var from time.Time
	switch window {
	case "today":
		from = startOfDay(now)
	case "7d":
		from = now.AddDate(0, 0, -7)
	case "30d":
		from = now.AddDate(0, 0, -30)
	default:
		return nil
	}
	return &from
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
