package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/SAP-F-2025/training-assessment-service/internal/models"
	"github.com/SAP-F-2025/training-assessment-service/internal/services"
	"github.com/SAP-F-2025/training-assessment-service/internal/utils"
	"github.com/SAP-F-2025/training-assessment-service/internal/validator"
)

type DashboardHandler struct {
	BaseHandler
	dashboardService services.DashboardService
	studentService   services.StudentService
}

func NewDashboardHandler(dashboardService services.DashboardService, studentService services.StudentService, logger utils.Logger) *DashboardHandler {
	return &DashboardHandler{
		BaseHandler:      NewBaseHandler(logger),
		dashboardService: dashboardService,
		studentService:   studentService,
	}
}

// ===== DASHBOARD ENDPOINTS =====

// Admin returns the tenant dashboard
// @Summary Get admin dashboard
// @Description KPIs, submission trend, upcoming deadlines, recent results and college progress
// @Tags dashboard
// @Produce json
// @Param timeframe query string false "today, 7d, 30d or all (default: today)"
// @Success 200 {object} models.AdminDashboard
// @Failure 400 {object} ErrorResponse "Missing tenant or invalid timeframe"
// @Failure 500 {object} ErrorResponse "Internal server error"
// @Router /dashboard/admin [get]
func (h *DashboardHandler) Admin(c *gin.Context) {
	var query validator.AdminDashboardQuery
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

	h.LogRequest(c, "Getting admin dashboard", "timeframe", query.Timeframe)

	dashboard, err := h.dashboardService.GetAdminDashboard(c.Request.Context(), tc, query.Timeframe)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, dashboard)
}

// Student returns the calling student's dashboard
// @Summary Get student dashboard
// @Tags dashboard
// @Produce json
// @Success 200 {object} models.StudentDashboard
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse "No student profile"
// @Router /dashboard/student [get]
func (h *DashboardHandler) Student(c *gin.Context) {
	tc, ok := h.tenantContext(c)
	if !ok {
		return
	}
	if tc.Role == models.RoleStudent && tc.StudentID == nil {
		c.JSON(http.StatusNotFound, ErrorResponse{Message: "Student profile not found"})
		return
	}

	dashboard, err := h.studentService.GetStudentDashboard(c.Request.Context(), tc)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, dashboard)
}
