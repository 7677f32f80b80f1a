package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/SAP-F-2025/training-assessment-service/internal/models"
	"github.com/SAP-F-2025/training-assessment-service/internal/services"
	"github.com/SAP-F-2025/training-assessment-service/internal/utils"
)

const healthCheckTimeout = 3 * time.Second

// HealthChecker is a dependency reported by /health
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

type HandlerManager struct {
	attemptHandler   *AttemptHandler
	dashboardHandler *DashboardHandler
	reportHandler    *ReportHandler
	authMiddleware   *CasdoorAuthMiddleware
	healthChecks     map[string]HealthChecker
}

func NewHandlerManager(
	serviceManager services.ServiceManager,
	logger utils.Logger,
	authMiddleware *CasdoorAuthMiddleware,
	cacheHealth HealthChecker,
) *HandlerManager {
	healthChecks := map[string]HealthChecker{"database": serviceManager}
	if cacheHealth != nil {
		healthChecks["cache"] = cacheHealth
	}

	return &HandlerManager{
		attemptHandler:   NewAttemptHandler(serviceManager.Attempt(), logger),
		dashboardHandler: NewDashboardHandler(serviceManager.Dashboard(), serviceManager.Student(), logger),
		reportHandler:    NewReportHandler(serviceManager.Report(), serviceManager.Export(), serviceManager.Workflow(), logger),
		authMiddleware:   authMiddleware,
		healthChecks:     healthChecks,
	}
}

// SetupRoutes sets up all API routes
func (hm *HandlerManager) SetupRoutes(router *gin.Engine) {
	router.GET("/health", hm.health)

	// API v1 routes with authentication
	v1 := router.Group("/v1")
	v1.Use(hm.authMiddleware.AuthMiddleware())
	{
		// Programme attempt - students only
		v1.POST("/assessment/attempt", hm.authMiddleware.RequireRoleMiddleware(models.RoleStudent), hm.attemptHandler.StartCurrent)
		v1.POST("/assessments/:id/attempts", hm.authMiddleware.RequireRoleMiddleware(models.RoleStudent), hm.attemptHandler.Start)

		// Attempt routes
		attempts := v1.Group("/attempts")
		{
			attempts.GET("/:id", hm.attemptHandler.GetAttempt)
			attempts.POST("/:id/save", hm.attemptHandler.SaveProgress)
			attempts.POST("/:id/submit", hm.attemptHandler.Submit)
		}

		// Dashboard routes
		dashboard := v1.Group("/dashboard")
		{
			dashboard.GET("/student", hm.authMiddleware.RequireRoleMiddleware(models.RoleStudent), hm.dashboardHandler.Student)
			dashboard.GET("/admin", hm.authMiddleware.RequireRoleMiddleware(models.RoleTeacher, models.RoleAdmin), hm.dashboardHandler.Admin)
		}

		// Report routes - Admins only
		reports := v1.Group("/reports")
		reports.Use(hm.authMiddleware.RequireRoleMiddleware(models.RoleAdmin))
		{
			reports.GET("/overview", hm.reportHandler.Overview)
			reports.GET("/overview/export", hm.reportHandler.ExportOverview)
			reports.GET("/search", hm.reportHandler.Search)
			reports.GET("/student/:id", hm.reportHandler.Student)
			reports.GET("/student/:id/export", hm.reportHandler.ExportStudent)
			reports.POST("/student/:id/approve-final", hm.reportHandler.ApproveFinal)
			reports.GET("/attempts/:id", hm.reportHandler.AttemptDetails)
		}
	}
}

func (hm *HandlerManager) health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), healthCheckTimeout)
	defer cancel()

	status := http.StatusOK
	checks := make(gin.H, len(hm.healthChecks))
	for name, checker := range hm.healthChecks {
		if err := checker.HealthCheck(ctx); err != nil {
			status = http.StatusServiceUnavailable
			checks[name] = err.Error()
			continue
		}
		checks[name] = "ok"
	}

	state := "healthy"
	if status != http.StatusOK {
		state = "unhealthy"
	}
	c.JSON(status, gin.H{
		"status":  state,
		"service": "training-assessment-service",
		"checks":  checks,
	})
}
