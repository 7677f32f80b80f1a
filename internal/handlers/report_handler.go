package handlers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/SAP-F-2025/training-assessment-service/internal/services"
	"github.com/SAP-F-2025/training-assessment-service/internal/utils"
	"github.com/SAP-F-2025/training-assessment-service/internal/validator"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type ReportHandler struct {
	BaseHandler
	reportService   services.ReportService
	exportService   services.ExportService
	workflowService services.WorkflowService
}

func NewReportHandler(
	reportService services.ReportService,
	exportService services.ExportService,
	workflowService services.WorkflowService,
	logger utils.Logger,
) *ReportHandler {
	return &ReportHandler{
		BaseHandler:     NewBaseHandler(logger),
		reportService:   reportService,
		exportService:   exportService,
		workflowService: workflowService,
	}
}

// Overview returns cohort analytics
// @Summary Get report overview
// @Tags reports
// @Produce json
// @Param timeRange query string false "7d, 30d, 90d or all (default: 7d)"
// @Success 200 {object} models.ReportOverview
// @Failure 400 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Router /reports/overview [get]
func (h *ReportHandler) Overview(c *gin.Context) {
	timeRange, ok := h.bindTimeRange(c)
	if !ok {
		return
	}
	tc, ok := h.tenantContext(c)
	if !ok {
		return
	}

	overview, err := h.reportService.Overview(c.Request.Context(), tc, timeRange)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, overview)
}

// ExportOverview downloads the overview as a workbook
// @Summary Export report overview
// @Tags reports
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param timeRange query string false "7d, 30d, 90d or all (default: 7d)"
// @Success 200 {file} file
// @Failure 400 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Router /reports/overview/export [get]
func (h *ReportHandler) ExportOverview(c *gin.Context) {
	timeRange, ok := h.bindTimeRange(c)
	if !ok {
		return
	}
	tc, ok := h.tenantContext(c)
	if !ok {
		return
	}

	h.LogRequest(c, "Exporting report overview", "time_range", timeRange)

	data, err := h.exportService.ExportOverview(c.Request.Context(), tc, timeRange)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	h.sendWorkbook(c, fmt.Sprintf("overview-%s.xlsx", time.Now().Format("20060102")), data)
}

// Search finds students by name or registration number
// @Summary Search students
// @Tags reports
// @Produce json
// @Param q query string false "Search term"
// @Success 200 {array} models.StudentSearchResult
// @Failure 400 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Router /reports/search [get]
func (h *ReportHandler) Search(c *gin.Context) {
	var query validator.StudentSearchQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid query parameters",
			Details: err.Error(),
		})
		return
	}
	tc, ok := h.tenantContext(c)
	if !ok {
		return
	}

	results, err := h.reportService.Search(c.Request.Context(), tc, query.Q)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, results)
}

// Student returns one student's report
// @Summary Get student report
// @Tags reports
// @Produce json
// @Param id path uint true "Student ID"
// @Success 200 {object} models.StudentReport
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /reports/student/{id} [get]
func (h *ReportHandler) Student(c *gin.Context) {
	studentID := h.parseIDParam(c, "id")
	if studentID == 0 {
		return
	}
	tc, ok := h.tenantContext(c)
	if !ok {
		return
	}

	report, err := h.reportService.StudentReport(c.Request.Context(), tc, studentID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, report)
}

// ExportStudent downloads one student's report as a workbook
// @Summary Export student report
// @Tags reports
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param id path uint true "Student ID"
// @Success 200 {file} file
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /reports/student/{id}/export [get]
func (h *ReportHandler) ExportStudent(c *gin.Context) {
	studentID := h.parseIDParam(c, "id")
	if studentID == 0 {
		return
	}
	tc, ok := h.tenantContext(c)
	if !ok {
		return
	}

	h.LogRequest(c, "Exporting student report", "student_id", studentID)

	data, err := h.exportService.ExportStudentReport(c.Request.Context(), tc, studentID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	h.sendWorkbook(c, fmt.Sprintf("student-%d.xlsx", studentID), data)
}

// ApproveFinal lets an in-training student take the Final
// @Summary Approve final assessment
// @Tags reports
// @Produce json
// @Param id path uint true "Student ID"
// @Success 200 {object} SuccessResponse
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse "Student is not in training"
// @Router /reports/student/{id}/approve-final [post]
func (h *ReportHandler) ApproveFinal(c *gin.Context) {
	studentID := h.parseIDParam(c, "id")
	if studentID == 0 {
		return
	}
	tc, ok := h.tenantContext(c)
	if !ok {
		return
	}

	h.LogRequest(c, "Approving final assessment", "student_id", studentID)

	change, err := h.workflowService.ApproveFinal(c.Request.Context(), tc, studentID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{
		Message: "Final assessment approved",
		Data: gin.H{
			"student_id": change.StudentID,
			"status":     change.To,
		},
	})
}

// AttemptDetails returns a graded attempt question by question
// @Summary Get attempt details
// @Tags reports
// @Produce json
// @Param id path uint true "Attempt ID"
// @Success 200 {object} models.AttemptDetails
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /reports/attempts/{id} [get]
func (h *ReportHandler) AttemptDetails(c *gin.Context) {
	attemptID := h.parseIDParam(c, "id")
	if attemptID == 0 {
		return
	}
	tc, ok := h.tenantContext(c)
	if !ok {
		return
	}

	details, err := h.reportService.AttemptDetails(c.Request.Context(), tc, attemptID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, details)
}

// ===== HELPERS =====

func (h *ReportHandler) bindTimeRange(c *gin.Context) (string, bool) {
	var query validator.ReportOverviewQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid query parameters",
			Details: err.Error(),
		})
		return "", false
	}
	return query.TimeRange, true
}

func (h *ReportHandler) sendWorkbook(c *gin.Context, filename string, data []byte) {
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, xlsxContentType, data)
}
