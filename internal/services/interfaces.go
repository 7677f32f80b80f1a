package services

import (
	"context"

	"github.com/ThreeDotsLabs/watermill/message"
	"gorm.io/gorm"

	"github.com/SAP-F-2025/training-assessment-service/internal/models"
	"github.com/SAP-F-2025/training-assessment-service/internal/scoring"
	"github.com/SAP-F-2025/training-assessment-service/internal/validator"
)

// ===== REQUEST/RESPONSE DTOs =====

// Use validator request types
type SaveProgressRequest = validator.SaveProgressRequest
type TrainingCompletedMessage = validator.TrainingCompletedMessage

// GradeResult is the outcome of grading one attempt
type GradeResult struct {
	Score      float64
	TotalMarks float64
	Percentage int
	Answers    []scoring.Answer
}

// WorkflowAssessments holds the tenant's Baseline and Final assessment ids.
// FinalID is zero when only one assessment exists.
type WorkflowAssessments struct {
	BaselineID uint `json:"baseline_id"`
	FinalID    uint `json:"final_id"`
}

// StageChange records a training status move made by the workflow
type StageChange struct {
	StudentID uint
	From      models.TrainingStatus
	To        models.TrainingStatus
}

// CurrentAssessment is the workflow's answer to "what should this student
// take now"
type CurrentAssessment struct {
	AssessmentID uint
	Role         models.WorkflowRole
	Filter       *models.AdaptiveModuleFilter
	// The stored stage and the stage the student moves to once the attempt
	// exists. They are equal when resuming.
	From models.TrainingStatus
	To   models.TrainingStatus
}

// ===== SERVICE INTERFACES =====

type GradingService interface {
	// GradeAttempt scores every response of the attempt against the whole
	// assessment's total marks
	GradeAttempt(ctx context.Context, tx *gorm.DB, attempt *models.Attempt) (*GradeResult, error)

	// ModulePerformance returns the points-weighted result per answered module
	ModulePerformance(ctx context.Context, tx *gorm.DB, attempt *models.Attempt) ([]scoring.ModuleResult, error)
}

type WorkflowService interface {
	ResolveAssessments(ctx context.Context, tenantID uint) (*WorkflowAssessments, error)
	ResolveCurrent(ctx context.Context, tc models.TenantContext) (*CurrentAssessment, error)
	AdaptiveFilter(ctx context.Context, tx *gorm.DB, tenantID, studentID uint, wa *WorkflowAssessments) (*models.AdaptiveModuleFilter, error)

	// AdvanceOnSubmit moves the student forward after a Baseline or Final
	// submission. It returns nil when the assessment is neither.
	AdvanceOnSubmit(ctx context.Context, tx *gorm.DB, attempt *models.Attempt) (*StageChange, error)

	// ApproveFinal promotes an in-training student to ready_for_final
	ApproveFinal(ctx context.Context, tc models.TenantContext, studentID uint) (*StageChange, error)
}

type AttemptService interface {
	StartCurrent(ctx context.Context, tc models.TenantContext) (*models.AttemptView, error)
	Start(ctx context.Context, tc models.TenantContext, studentID, assessmentID uint) (*models.AttemptView, error)
	GetOrCreate(ctx context.Context, tc models.TenantContext, studentID, assessmentID uint, filter *models.AdaptiveModuleFilter) (*models.AttemptView, error)
	Get(ctx context.Context, tc models.TenantContext, attemptID uint) (*models.AttemptView, error)
	SaveProgress(ctx context.Context, tc models.TenantContext, studentID, attemptID uint, req *SaveProgressRequest) error
	Submit(ctx context.Context, tc models.TenantContext, studentID, attemptID uint) (*models.AttemptView, error)
}

type DashboardService interface {
	GetAdminDashboard(ctx context.Context, tc models.TenantContext, timeframe string) (*models.AdminDashboard, error)
}

type StudentService interface {
	GetStudentDashboard(ctx context.Context, tc models.TenantContext) (*models.StudentDashboard, error)
}

type ReportService interface {
	Overview(ctx context.Context, tc models.TenantContext, timeRange string) (*models.ReportOverview, error)
	StudentReport(ctx context.Context, tc models.TenantContext, studentID uint) (*models.StudentReport, error)
	AttemptDetails(ctx context.Context, tc models.TenantContext, attemptID uint) (*models.AttemptDetails, error)
	Search(ctx context.Context, tc models.TenantContext, query string) ([]models.StudentSearchResult, error)
}

type ExportService interface {
	ExportOverview(ctx context.Context, tc models.TenantContext, timeRange string) ([]byte, error)
	ExportStudentReport(ctx context.Context, tc models.TenantContext, studentID uint) ([]byte, error)
}

// TrainingEventHandler consumes training.completed messages
type TrainingEventHandler interface {
	HandleTrainingCompleted(msg *message.Message) error
}

// ServiceManager manages all services
type ServiceManager interface {
	Grading() GradingService
	Workflow() WorkflowService
	Attempt() AttemptService
	Dashboard() DashboardService
	Student() StudentService
	Report() ReportService
	Export() ExportService
	TrainingEvents() TrainingEventHandler

	// Health and lifecycle
	Initialize(ctx context.Context) error
	HealthCheck(ctx context.Context) error
	Shutdown(ctx context.Context) error
}
