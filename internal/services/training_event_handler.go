package services

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/ThreeDotsLabs/watermill/message"

	"github.com/SAP-F-2025/training-assessment-service/internal/models"
	"github.com/SAP-F-2025/training-assessment-service/internal/validator"
)

// trainingEventHandler promotes students when the training platform reports a
// completed programme
type trainingEventHandler struct {
	workflow  WorkflowService
	validator *validator.Validator
	logger    *slog.Logger
}

func NewTrainingEventHandler(workflow WorkflowService, validator *validator.Validator, logger *slog.Logger) TrainingEventHandler {
	return &trainingEventHandler{
		workflow:  workflow,
		validator: validator,
		logger:    logger,
	}
}

// HandleTrainingCompleted acks malformed messages and students that are not in
// training, so only transient failures are retried
func (h *trainingEventHandler) HandleTrainingCompleted(msg *message.Message) error {
	var payload TrainingCompletedMessage
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		h.logger.Warn("Dropping malformed training message", "message_uuid", msg.UUID, "error", err)
		return nil
	}
	if err := h.validator.Validate(&payload); err != nil {
		h.logger.Warn("Dropping invalid training message", "message_uuid", msg.UUID, "error", err)
		return nil
	}

	ctx := msg.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	// The training platform acts with admin rights inside the tenant
	tc := models.TenantContext{
		TenantID: payload.TenantID,
		UserID:   "training:" + payload.Source,
		Role:     models.RoleAdmin,
	}

	change, err := h.workflow.ApproveFinal(ctx, tc, payload.StudentID)
	switch {
	case err == nil:
		h.logger.Info("Student promoted from training event",
			"tenant_id", payload.TenantID,
			"student_id", payload.StudentID,
			"from", change.From)
		return nil
	case errors.Is(err, ErrStudentNotFound), errors.Is(err, ErrInvalidStageTransition):
		h.logger.Warn("Training event ignored",
			"tenant_id", payload.TenantID,
			"student_id", payload.StudentID,
			"reason", err)
		return nil
	default:
		return err
	}
}
