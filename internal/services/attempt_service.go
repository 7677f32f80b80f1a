package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"gorm.io/gorm"

	"github.com/SAP-F-2025/training-assessment-service/internal/cache"
	"github.com/SAP-F-2025/training-assessment-service/internal/events"
	"github.com/SAP-F-2025/training-assessment-service/internal/models"
	"github.com/SAP-F-2025/training-assessment-service/internal/repositories"
	"github.com/SAP-F-2025/training-assessment-service/internal/validator"
)

type attemptService struct {
	repo      repositories.Repository
	db        *gorm.DB
	logger    *slog.Logger
	validator *validator.Validator
	cache     *cache.CacheManager
	workflow  WorkflowService
	grading   GradingService
	publisher events.EventPublisher
}

func NewAttemptService(
	repo repositories.Repository,
	db *gorm.DB,
	logger *slog.Logger,
	validator *validator.Validator,
	cacheManager *cache.CacheManager,
	workflow WorkflowService,
	grading GradingService,
	publisher events.EventPublisher,
) AttemptService {
	return &attemptService{
		repo:      repo,
		db:        db,
		logger:    logger,
		validator: validator,
		cache:     cacheManager,
		workflow:  workflow,
		grading:   grading,
		publisher: publisher,
	}
}

// ===== CORE ATTEMPT OPERATIONS =====

// StartCurrent creates or resumes the attempt the workflow assigns to the
// calling student and moves the student into the matching in-progress stage
func (s *attemptService) StartCurrent(ctx context.Context, tc models.TenantContext) (*models.AttemptView, error) {
	current, err := s.workflow.ResolveCurrent(ctx, tc)
	if err != nil {
		return nil, err
	}
	studentID := *tc.StudentID

	assessment, err := s.loadAssessment(ctx, tc.TenantID, current.AssessmentID)
	if err != nil {
		return nil, err
	}

	var attempt *models.Attempt
	var change *StageChange
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		attempt, _, err = s.findOrCreate(ctx, tx, tc.TenantID, studentID, assessment.ID, current.Role, current.Filter)
		if err != nil {
			return err
		}

		if current.From == current.To {
			return nil
		}
		changed, err := s.repo.Student().UpdateTrainingStatus(ctx, tx, tc.TenantID, studentID,
			[]models.TrainingStatus{current.From}, current.To)
		if err != nil {
			return err
		}
		if changed {
			change = &StageChange{StudentID: studentID, From: current.From, To: current.To}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to start current attempt: %w", err)
	}

	if change != nil {
		s.logger.Info("Training status advanced",
			"tenant_id", tc.TenantID,
			"student_id", studentID,
			"from", change.From,
			"to", change.To)
		publishAfterCommit(ctx, s.publisher, s.logger, tc.TenantID, stageChangedDraft(change))
		cache.InvalidateTenantAggregates(ctx, s.cache, tc.TenantID)
	}

	return s.viewOf(ctx, nil, attempt, assessment)
}

// Start opens an attempt for a named assessment without consulting the workflow
func (s *attemptService) Start(ctx context.Context, tc models.TenantContext, studentID, assessmentID uint) (*models.AttemptView, error) {
	callerID, err := requireStudent(tc)
	if err != nil {
		return nil, err
	}
	if callerID != studentID {
		return nil, NewPermissionError(tc.UserID, assessmentID, "assessment", "start_attempt", "students start their own attempts")
	}

	s.logger.Info("Starting assessment attempt",
		"tenant_id", tc.TenantID,
		"assessment_id", assessmentID,
		"student_id", studentID)

	return s.GetOrCreate(ctx, tc, studentID, assessmentID, nil)
}

// GetOrCreate returns the single attempt of (tenant, assessment, student),
// creating it when absent. A stored module filter always wins over filter.
func (s *attemptService) GetOrCreate(ctx context.Context, tc models.TenantContext, studentID, assessmentID uint, filter *models.AdaptiveModuleFilter) (*models.AttemptView, error) {
	if !tc.Valid() {
		return nil, ErrTenantRequired
	}

	assessment, err := s.loadAssessment(ctx, tc.TenantID, assessmentID)
	if err != nil {
		return nil, err
	}

	attempt, created, err := s.findOrCreate(ctx, nil, tc.TenantID, studentID, assessmentID, "", filter)
	if err != nil {
		return nil, err
	}
	if created {
		s.logger.Info("Attempt created",
			"attempt_id", attempt.ID,
			"assessment_id", assessmentID,
			"student_id", studentID)
	}

	return s.viewOf(ctx, nil, attempt, assessment)
}

func (s *attemptService) Get(ctx context.Context, tc models.TenantContext, attemptID uint) (*models.AttemptView, error) {
	if !tc.Valid() {
		return nil, ErrTenantRequired
	}

	attempt, err := s.repo.Attempt().GetByID(ctx, nil, tc.TenantID, attemptID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrAttemptNotFound
		}
		return nil, err
	}

	if !tc.IsAdmin() && (tc.StudentID == nil || *tc.StudentID != attempt.StudentID) {
		return nil, NewPermissionError(tc.UserID, attemptID, "attempt", "read", "not owner")
	}

	assessment, err := s.loadAssessment(ctx, tc.TenantID, attempt.AssessmentID)
	if err != nil {
		return nil, err
	}
	return s.viewOf(ctx, nil, attempt, assessment)
}

// SaveProgress upserts one response. The attempt row is locked so a
// concurrent submit cannot interleave with the write.
func (s *attemptService) SaveProgress(ctx context.Context, tc models.TenantContext, studentID, attemptID uint, req *SaveProgressRequest) error {
	if !tc.Valid() {
		return ErrTenantRequired
	}
	if err := s.validator.Validate(req); err != nil {
		return fmt.Errorf("%w: %w", ErrValidationFailed, err)
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		attempt, err := s.ownedAttempt(ctx, tx, tc, studentID, attemptID, "save_progress")
		if err != nil {
			return err
		}
		if errs := s.validator.Business().ValidateAttemptWritable(attempt); len(errs) > 0 {
			return ErrAttemptAlreadySubmitted
		}

		question, err := s.repo.Assessment().GetQuestion(ctx, tx, tc.TenantID, req.QuestionID)
		if err != nil {
			if repositories.IsNotFoundError(err) {
				return ErrQuestionNotFound
			}
			return err
		}
		if question.Module == nil || question.Module.AssessmentID != attempt.AssessmentID {
			return ErrQuestionNotInAssessment
		}
		if !attempt.ModuleFilter().Contains(question.ModuleID) {
			return ErrQuestionNotInAssessment
		}

		return s.repo.Response().Upsert(ctx, tx, &models.Response{
			AttemptID:  attempt.ID,
			QuestionID: question.ID,
			OptionID:   req.OptionID,
			TextAnswer: req.TextAnswer,
		})
	})
}

// Submit grades the attempt, stores the score and advances the workflow in
// one transaction. Events and cache invalidation follow the commit.
func (s *attemptService) Submit(ctx context.Context, tc models.TenantContext, studentID, attemptID uint) (*models.AttemptView, error) {
	if !tc.Valid() {
		return nil, ErrTenantRequired
	}

	var attempt *models.Attempt
	var grade *GradeResult
	var change *StageChange

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		attempt, err = s.ownedAttempt(ctx, tx, tc, studentID, attemptID, "submit")
		if err != nil {
			return err
		}
		if attempt.IsSubmitted() {
			return ErrAttemptAlreadySubmitted
		}

		grade, err = s.grading.GradeAttempt(ctx, tx, attempt)
		if err != nil {
			return fmt.Errorf("failed to grade attempt: %w", err)
		}

		now := time.Now()
		attempt.Score = &grade.Score
		attempt.TotalMarks = &grade.TotalMarks
		attempt.SubmittedAt = &now
		attempt.DurationSec = max(0, int(now.Sub(attempt.StartedAt).Seconds()))

		if err := s.repo.Attempt().MarkSubmitted(ctx, tx, attempt); err != nil {
			if errors.Is(err, repositories.ErrAlreadySubmitted) {
				return ErrAttemptAlreadySubmitted
			}
			return err
		}

		change, err = s.workflow.AdvanceOnSubmit(ctx, tx, attempt)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Attempt submitted",
		"tenant_id", tc.TenantID,
		"attempt_id", attempt.ID,
		"student_id", attempt.StudentID,
		"score", grade.Score,
		"total_marks", grade.TotalMarks)

	drafts := []eventDraft{{
		Type: events.EventAttemptSubmitted,
		Payload: events.AttemptSubmittedPayload{
			AttemptID:    attempt.ID,
			AssessmentID: attempt.AssessmentID,
			StudentID:    attempt.StudentID,
			Score:        grade.Score,
			TotalMarks:   grade.TotalMarks,
			Percentage:   grade.Percentage,
			DurationSec:  attempt.DurationSec,
		},
	}}
	if change != nil {
		drafts = append(drafts, stageChangedDraft(change))
	}
	publishAfterCommit(ctx, s.publisher, s.logger, tc.TenantID, drafts...)
	cache.InvalidateTenantAggregates(ctx, s.cache, tc.TenantID)

	assessment, err := s.loadAssessment(ctx, tc.TenantID, attempt.AssessmentID)
	if err != nil {
		return nil, err
	}
	return s.viewOf(ctx, nil, attempt, assessment)
}

// ===== HELPERS =====

func (s *attemptService) findOrCreate(ctx context.Context, tx *gorm.DB, tenantID, studentID, assessmentID uint, role models.WorkflowRole, filter *models.AdaptiveModuleFilter) (*models.Attempt, bool, error) {
	attempt := &models.Attempt{
		TenantID:     tenantID,
		AssessmentID: assessmentID,
		StudentID:    studentID,
		StartedAt:    time.Now(),
	}
	attempt.WithModuleFilter(filter)
	attempt.WithWorkflowRole(role)

	stored, created, err := s.repo.Attempt().FindOrCreate(ctx, tx, attempt)
	if err != nil {
		return nil, false, fmt.Errorf("failed to get or create attempt: %w", err)
	}
	return stored, created, nil
}

// ownedAttempt locks the attempt and checks the caller owns it
func (s *attemptService) ownedAttempt(ctx context.Context, tx *gorm.DB, tc models.TenantContext, studentID, attemptID uint, action string) (*models.Attempt, error) {
	attempt, err := s.repo.Attempt().GetForUpdate(ctx, tx, tc.TenantID, attemptID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrAttemptNotFound
		}
		return nil, err
	}
	if attempt.StudentID != studentID {
		return nil, NewPermissionError(tc.UserID, attemptID, "attempt", action, "not owned by student")
	}
	return attempt, nil
}

func (s *attemptService) loadAssessment(ctx context.Context, tenantID, assessmentID uint) (*models.Assessment, error) {
	assessment, err := s.repo.Assessment().GetWithModules(ctx, nil, tenantID, assessmentID, nil)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrAssessmentNotFound
		}
		return nil, err
	}
	return assessment, nil
}

// viewOf restricts the assessment to the attempt's stored module filter and
// attaches the saved responses
func (s *attemptService) viewOf(ctx context.Context, tx *gorm.DB, attempt *models.Attempt, assessment *models.Assessment) (*models.AttemptView, error) {
	responses, err := s.repo.Response().ListByAttempt(ctx, tx, attempt.ID)
	if err != nil {
		return nil, err
	}
	attempt.Responses = responses

	filtered := *assessment
	if filter := attempt.ModuleFilter(); filter != nil {
		filtered.Modules = make([]models.Module, 0, len(assessment.Modules))
		for _, m := range assessment.Modules {
			if filter.Contains(m.ID) {
				filtered.Modules = append(filtered.Modules, m)
			}
		}
	}

	view := models.NewAttemptView(attempt, &filtered)
	return &view, nil
}
