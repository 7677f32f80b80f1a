package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/SAP-F-2025/training-assessment-service/internal/models"
	"github.com/SAP-F-2025/training-assessment-service/internal/services"
	"github.com/SAP-F-2025/training-assessment-service/internal/utils"
	"github.com/SAP-F-2025/training-assessment-service/internal/validator"
)

// ===== RESPONSES =====

type ErrorResponse struct {
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

type SuccessResponse struct {
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// BaseHandler carries the logger shared by every handler
type BaseHandler struct {
	logger utils.Logger
}

func NewBaseHandler(logger utils.Logger) BaseHandler {
	return BaseHandler{logger: logger}
}

func (h *BaseHandler) LogRequest(c *gin.Context, msg string, args ...any) {
	utils.GetLogger(c, h.logger).Info(msg, append(args, "user_id", c.GetString("user_id"))...)
}

func (h *BaseHandler) LogError(c *gin.Context, err error, msg string, args ...any) {
	utils.GetLogger(c, h.logger).Error(msg, append(args, "error", err)...)
}

// parseIDParam reads a positive numeric path parameter. It writes a 400 and
// returns 0 when the value is invalid.
func (h *BaseHandler) parseIDParam(c *gin.Context, name string) uint {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid " + name,
			Details: c.Param(name),
		})
		return 0
	}
	return uint(id)
}

// tenantContext returns the context built by the auth middleware. It writes a
// 400 when the caller carries no tenant.
func (h *BaseHandler) tenantContext(c *gin.Context) (models.TenantContext, bool) {
	tc, ok := GetTenantContext(c)
	if !ok || !tc.Valid() {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Tenant context required",
		})
		return models.TenantContext{}, false
	}
	return tc, true
}

// studentID returns the caller's student id. It writes a 403 for callers
// without a student profile.
func (h *BaseHandler) studentID(c *gin.Context, tc models.TenantContext) (uint, bool) {
	if !tc.IsStudent() {
		c.JSON(http.StatusForbidden, ErrorResponse{
			Message: "Student profile required",
		})
		return 0, false
	}
	return *tc.StudentID, true
}

func (h *BaseHandler) handleServiceError(c *gin.Context, err error) {
	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Validation failed",
			Details: validationErrors,
		})
		return
	}

	var permissionError *services.PermissionError
	if errors.As(err, &permissionError) {
		c.JSON(http.StatusForbidden, ErrorResponse{
			Message: "Access denied",
			Details: map[string]interface{}{
				"resource": permissionError.Resource,
				"action":   permissionError.Action,
				"reason":   permissionError.Reason,
			},
		})
		return
	}

	var businessRuleError *services.BusinessRuleError
	if errors.As(err, &businessRuleError) {
		c.JSON(http.StatusConflict, ErrorResponse{
			Message: businessRuleError.Message,
			Details: map[string]interface{}{
				"rule": businessRuleError.Rule,
			},
		})
		return
	}

	switch {
	// Not found
	case errors.Is(err, services.ErrAttemptNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Message: "Attempt not found"})
	case errors.Is(err, services.ErrAssessmentNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Message: "Assessment not found"})
	case errors.Is(err, services.ErrQuestionNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Message: "Question not found"})
	case errors.Is(err, services.ErrStudentNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Message: "Student profile not found"})
	case errors.Is(err, services.ErrNoAssessmentsConfigured):
		c.JSON(http.StatusNotFound, ErrorResponse{Message: "No assessments configured"})
	case errors.Is(err, services.ErrFinalNotConfigured):
		c.JSON(http.StatusNotFound, ErrorResponse{Message: "Final assessment not configured"})

	// Forbidden
	case errors.Is(err, services.ErrQuestionNotInAssessment):
		c.JSON(http.StatusForbidden, ErrorResponse{Message: "Question does not belong to this attempt"})
	case errors.Is(err, services.ErrNotAStudent):
		c.JSON(http.StatusForbidden, ErrorResponse{Message: "Student profile required"})
	case errors.Is(err, services.ErrStudentInTraining):
		c.JSON(http.StatusForbidden, ErrorResponse{Message: "Training in progress; the final assessment is not open yet"})
	case errors.Is(err, services.ErrForbidden):
		c.JSON(http.StatusForbidden, ErrorResponse{Message: "Forbidden - insufficient permissions"})

	// Conflicts
	case errors.Is(err, services.ErrAttemptAlreadySubmitted):
		c.JSON(http.StatusConflict, ErrorResponse{Message: "Attempt already submitted"})
	case errors.Is(err, services.ErrProgrammeCompleted):
		c.JSON(http.StatusConflict, ErrorResponse{Message: "Programme already completed"})
	case errors.Is(err, services.ErrInvalidStageTransition):
		c.JSON(http.StatusConflict, ErrorResponse{Message: "Invalid stage transition"})
	case errors.Is(err, services.ErrConflict):
		c.JSON(http.StatusConflict, ErrorResponse{Message: "Resource conflict"})

	// Generic errors
	case errors.Is(err, services.ErrValidationFailed):
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Validation failed",
			Details: err.Error(),
		})
	case errors.Is(err, services.ErrTenantRequired):
		c.JSON(http.StatusBadRequest, ErrorResponse{Message: "Tenant context required"})
	case errors.Is(err, services.ErrUnauthorized):
		c.JSON(http.StatusUnauthorized, ErrorResponse{Message: "Unauthorized access"})
	default:
		h.LogError(c, err, "Unexpected service error")
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Message: "Internal server error",
		})
	}
}
