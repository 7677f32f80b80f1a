package repositories

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/SAP-F-2025/training-assessment-service/internal/models"
)

// ===== FILTER TYPES =====

// AttemptFilters selects attempts of one tenant. Nil fields are ignored.
type AttemptFilters struct {
	TenantID      uint
	StudentID     *uint
	AssessmentID  *uint
	SubmittedOnly bool
	SubmittedFrom *time.Time
	SubmittedTo   *time.Time

	// Preload responses with their question, options and selected option
	WithResponses bool
	// Preload the student and the student's college
	WithStudent bool
	Limit       int
}

// ===== ATTEMPT REPOSITORY =====

type AttemptRepository interface {
	// FindOrCreate inserts attempt unless a row for (tenant, assessment,
	// student) exists, then returns the stored row. created reports whether
	// this call inserted it.
	FindOrCreate(ctx context.Context, tx *gorm.DB, attempt *models.Attempt) (stored *models.Attempt, created bool, err error)

	GetByID(ctx context.Context, tx *gorm.DB, tenantID, id uint) (*models.Attempt, error)
	GetForUpdate(ctx context.Context, tx *gorm.DB, tenantID, id uint) (*models.Attempt, error)
	GetWithResponses(ctx context.Context, tx *gorm.DB, tenantID, id uint) (*models.Attempt, error)
	GetByStudentAndAssessment(ctx context.Context, tx *gorm.DB, tenantID, studentID, assessmentID uint) (*models.Attempt, error)
	List(ctx context.Context, tx *gorm.DB, filters AttemptFilters) ([]*models.Attempt, error)

	// MarkSubmitted stores score, total marks, submitted_at and duration.
	// It returns ErrAlreadySubmitted when submitted_at was already set.
	MarkSubmitted(ctx context.Context, tx *gorm.DB, attempt *models.Attempt) error

	CountActiveSince(ctx context.Context, tx *gorm.DB, tenantID uint, since time.Time) (int64, error)
}

// ===== RESPONSE REPOSITORY =====

type ResponseRepository interface {
	// Upsert keeps exactly one response per (attempt, question); last write wins
	Upsert(ctx context.Context, tx *gorm.DB, response *models.Response) error
	ListByAttempt(ctx context.Context, tx *gorm.DB, attemptID uint) ([]models.Response, error)
}

// ===== ASSESSMENT REPOSITORY =====

type AssessmentRepository interface {
	// ListWorkflow returns the first two assessments by order then id
	ListWorkflow(ctx context.Context, tx *gorm.DB, tenantID uint) ([]models.Assessment, error)

	// GetWithModules loads modules ordered by order, restricted by filter when
	// it is non-nil, with their questions and options
	GetWithModules(ctx context.Context, tx *gorm.DB, tenantID, id uint, filter *models.AdaptiveModuleFilter) (*models.Assessment, error)
	ListWithModules(ctx context.Context, tx *gorm.DB, tenantID uint, activeOnly bool) ([]models.Assessment, error)
	ListModules(ctx context.Context, tx *gorm.DB, tenantID, assessmentID uint) ([]models.Module, error)
	CountActive(ctx context.Context, tx *gorm.DB, tenantID uint) (int64, error)
	UpcomingModules(ctx context.Context, tx *gorm.DB, tenantID uint, from, to time.Time, limit int) ([]models.Module, error)

	// GetQuestion loads a question of the tenant with its module
	GetQuestion(ctx context.Context, tx *gorm.DB, tenantID, questionID uint) (*models.Question, error)
	QuestionPoints(ctx context.Context, tx *gorm.DB, assessmentID uint) ([]*int, error)
}

// ===== STUDENT REPOSITORY =====

type StudentRepository interface {
	GetByID(ctx context.Context, tx *gorm.DB, tenantID, id uint) (*models.Student, error)
	GetByUserID(ctx context.Context, tx *gorm.DB, tenantID uint, userID string) (*models.Student, error)

	// UpdateTrainingStatus moves the student to `to` only while the stored
	// status is one of `from`. An empty stored status matches
	// ready_for_baseline. It reports whether a row changed.
	UpdateTrainingStatus(ctx context.Context, tx *gorm.DB, tenantID, id uint, from []models.TrainingStatus, to models.TrainingStatus) (bool, error)

	Count(ctx context.Context, tx *gorm.DB, tenantID uint) (int64, error)
	List(ctx context.Context, tx *gorm.DB, tenantID uint, limit int) ([]models.Student, error)
	Search(ctx context.Context, tx *gorm.DB, tenantID uint, query string, limit int) ([]models.Student, error)
}

// ===== COLLEGE REPOSITORY =====

type CollegeRepository interface {
	List(ctx context.Context, tx *gorm.DB, tenantID uint) ([]models.College, error)
	CountStudents(ctx context.Context, tx *gorm.DB, tenantID uint) (map[uint]int, error)
}
