package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/SAP-F-2025/training-assessment-service/internal/services"
	"github.com/SAP-F-2025/training-assessment-service/internal/utils"
)

type AttemptHandler struct {
	BaseHandler
	attemptService services.AttemptService
}

func NewAttemptHandler(
	attemptService services.AttemptService,
	logger utils.Logger,
) *AttemptHandler {
	return &AttemptHandler{
		BaseHandler:    NewBaseHandler(logger),
		attemptService: attemptService,
	}
}

// StartCurrent starts or resumes the attempt the programme assigns to the caller
// @Summary Start current assessment
// @Description Creates or resumes the Baseline or Final attempt of the calling student
// @Tags attempts
// @Produce json
// @Success 200 {object} models.AttemptView
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /assessment/attempt [post]
func (h *AttemptHandler) StartCurrent(c *gin.Context) {
	tc, ok := h.tenantContext(c)
	if !ok {
		return
	}

	h.LogRequest(c, "Starting current assessment attempt")

	attempt, err := h.attemptService.StartCurrent(c.Request.Context(), tc)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, attempt)
}

// Start opens an attempt for a given assessment
// @Summary Start assessment attempt
// @Tags attempts
// @Produce json
// @Param id path uint true "Assessment ID"
// @Success 200 {object} models.AttemptView
// @Failure 400 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /assessments/{id}/attempts [post]
func (h *AttemptHandler) Start(c *gin.Context) {
	assessmentID := h.parseIDParam(c, "id")
	if assessmentID == 0 {
		return
	}
	tc, ok := h.tenantContext(c)
	if !ok {
		return
	}
	studentID, ok := h.studentID(c, tc)
	if !ok {
		return
	}

	h.LogRequest(c, "Starting assessment attempt", "assessment_id", assessmentID)

	attempt, err := h.attemptService.Start(c.Request.Context(), tc, studentID, assessmentID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, attempt)
}

// GetAttempt retrieves an attempt with its assessment and responses
// @Summary Get attempt
// @Tags attempts
// @Produce json
// @Param id path uint true "Attempt ID"
// @Success 200 {object} models.AttemptView
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /attempts/{id} [get]
func (h *AttemptHandler) GetAttempt(c *gin.Context) {
	attemptID := h.parseIDParam(c, "id")
	if attemptID == 0 {
		return
	}
	tc, ok := h.tenantContext(c)
	if !ok {
		return
	}

	attempt, err := h.attemptService.Get(c.Request.Context(), tc, attemptID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, attempt)
}

// SaveProgress stores one answer of an open attempt
// @Summary Save answer
// @Tags attempts
// @Accept json
// @Produce json
// @Param id path uint true "Attempt ID"
// @Param answer body services.SaveProgressRequest true "Answer"
// @Success 200 {object} SuccessResponse
// @Failure 400 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /attempts/{id}/save [post]
func (h *AttemptHandler) SaveProgress(c *gin.Context) {
	attemptID := h.parseIDParam(c, "id")
	if attemptID == 0 {
		return
	}

	var req services.SaveProgressRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}

	tc, ok := h.tenantContext(c)
	if !ok {
		return
	}
	studentID, ok := h.studentID(c, tc)
	if !ok {
		return
	}

	if err := h.attemptService.SaveProgress(c.Request.Context(), tc, studentID, attemptID, &req); err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{Message: "saved"})
}

// Submit grades and closes an attempt
// @Summary Submit attempt
// @Tags attempts
// @Produce json
// @Param id path uint true "Attempt ID"
// @Success 200 {object} models.AttemptView
// @Failure 401 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /attempts/{id}/submit [post]
func (h *AttemptHandler) Submit(c *gin.Context) {
	attemptID := h.parseIDParam(c, "id")
	if attemptID == 0 {
		return
	}
	tc, ok := h.tenantContext(c)
	if !ok {
		return
	}
	studentID, ok := h.studentID(c, tc)
	if !ok {
		return
	}

	h.LogRequest(c, "Submitting attempt", "attempt_id", attemptID)

	attempt, err := h.attemptService.Submit(c.Request.Context(), tc, studentID, attemptID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, attempt)
}
