package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"gorm.io/gorm"

	"github.com/SAP-F-2025/training-assessment-service/internal/cache"
	"github.com/SAP-F-2025/training-assessment-service/internal/events"
	"github.com/SAP-F-2025/training-assessment-service/internal/models"
	"github.com/SAP-F-2025/training-assessment-service/internal/repositories"
	"github.com/SAP-F-2025/training-assessment-service/internal/scoring"
	"github.com/SAP-F-2025/training-assessment-service/internal/validator"
)

// WorkflowConfig holds the thresholds of the workflow
type WorkflowConfig struct {
	WeakModuleThreshold float64
}

type workflowService struct {
	repo      repositories.Repository
	db        *gorm.DB
	logger    *slog.Logger
	validator *validator.Validator
	cache     *cache.CacheManager
	grading   GradingService
	publisher events.EventPublisher
	config    WorkflowConfig
}

func NewWorkflowService(
	repo repositories.Repository,
	db *gorm.DB,
	logger *slog.Logger,
	validator *validator.Validator,
	cacheManager *cache.CacheManager,
	grading GradingService,
	publisher events.EventPublisher,
	config WorkflowConfig,
) WorkflowService {
	if config.WeakModuleThreshold == 0 {
		config.WeakModuleThreshold = 70
	}
	return &workflowService{
		repo:      repo,
		db:        db,
		logger:    logger,
		validator: validator,
		cache:     cacheManager,
		grading:   grading,
		publisher: publisher,
		config:    config,
	}
}

// ResolveAssessments picks Baseline and Final as the first two assessments by
// order then id
func (s *workflowService) ResolveAssessments(ctx context.Context, tenantID uint) (*WorkflowAssessments, error) {
	return s.cachedAssessments(ctx, nil, tenantID)
}

func (s *workflowService) cachedAssessments(ctx context.Context, tx *gorm.DB, tenantID uint) (*WorkflowAssessments, error) {
	var wa WorkflowAssessments
	err := s.cache.Workflow.CacheOrExecute(ctx, cache.WorkflowAssessmentsKey(tenantID), &wa, cache.WorkflowCacheConfig.TTL, func() (interface{}, error) {
		return s.resolveAssessments(ctx, tx, tenantID)
	})
	if err != nil {
		return nil, err
	}
	return &wa, nil
}

func (s *workflowService) resolveAssessments(ctx context.Context, tx *gorm.DB, tenantID uint) (*WorkflowAssessments, error) {
	assessments, err := s.repo.Assessment().ListWorkflow(ctx, tx, tenantID)
	if err != nil {
		return nil, err
	}
	if len(assessments) == 0 {
		return nil, ErrNoAssessmentsConfigured
	}

	wa := &WorkflowAssessments{BaselineID: assessments[0].ID}
	if len(assessments) > 1 {
		wa.FinalID = assessments[1].ID
	}
	return wa, nil
}

func (s *workflowService) ResolveCurrent(ctx context.Context, tc models.TenantContext) (*CurrentAssessment, error) {
	studentID, err := requireStudent(tc)
	if err != nil {
		return nil, err
	}

	student, err := s.repo.Student().GetByID(ctx, nil, tc.TenantID, studentID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrStudentNotFound
		}
		return nil, err
	}

	wa, err := s.ResolveAssessments(ctx, tc.TenantID)
	if err != nil {
		return nil, err
	}

	stage := student.TrainingStatus.Normalize()
	switch stage {
	case models.StatusReadyForBaseline, models.StatusBaselineInProgress:
		return &CurrentAssessment{
			AssessmentID: wa.BaselineID,
			Role:         models.WorkflowRoleBaseline,
			From:         stage,
			To:           models.StatusBaselineInProgress,
		}, nil

	case models.StatusInTraining:
		return nil, ErrStudentInTraining

	case models.StatusReadyForFinal, models.StatusFinalInProgress:
		if wa.FinalID == 0 {
			return nil, ErrFinalNotConfigured
		}
		current := &CurrentAssessment{
			AssessmentID: wa.FinalID,
			Role:         models.WorkflowRoleFinal,
			From:         stage,
			To:           models.StatusFinalInProgress,
		}

		// The filter is computed once; a resumed attempt keeps its stored one
		_, err := s.repo.Attempt().GetByStudentAndAssessment(ctx, nil, tc.TenantID, studentID, wa.FinalID)
		switch {
		case err == nil:
			return current, nil
		case !repositories.IsNotFoundError(err):
			return nil, err
		}

		current.Filter, err = s.AdaptiveFilter(ctx, nil, tc.TenantID, studentID, wa)
		if err != nil {
			return nil, err
		}
		return current, nil

	default:
		return nil, ErrProgrammeCompleted
	}
}

// AdaptiveFilter restricts the Final to the modules the student was weak at in
// the Baseline. It returns nil when every module is served.
func (s *workflowService) AdaptiveFilter(ctx context.Context, tx *gorm.DB, tenantID, studentID uint, wa *WorkflowAssessments) (*models.AdaptiveModuleFilter, error) {
	baseline, err := s.repo.Attempt().GetByStudentAndAssessment(ctx, tx, tenantID, studentID, wa.BaselineID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, nil
		}
		return nil, err
	}
	if !baseline.IsSubmitted() {
		return nil, nil
	}

	results, err := s.grading.ModulePerformance(ctx, tx, baseline)
	if err != nil {
		return nil, err
	}

	weak := scoring.WeakModules(results, s.config.WeakModuleThreshold)
	if len(weak) == 0 {
		return nil, nil
	}

	finalModules, err := s.repo.Assessment().ListModules(ctx, tx, tenantID, wa.FinalID)
	if err != nil {
		return nil, err
	}

	filter := models.NewAdaptiveModuleFilter(scoring.MatchModules(weak, finalModules))
	s.logger.Info("Adaptive module filter computed",
		"tenant_id", tenantID,
		"student_id", studentID,
		"weak_modules", len(weak),
		"filter", filter)

	return filter, nil
}

// roleOf reports the slot an attempt belongs to. Attempts served by the
// workflow carry it; attempts opened directly are matched against the same
// cached lookup ResolveCurrent uses.
func (s *workflowService) roleOf(ctx context.Context, tx *gorm.DB, attempt *models.Attempt) (models.WorkflowRole, error) {
	if role := attempt.WorkflowRole(); role != "" {
		return role, nil
	}

	wa, err := s.cachedAssessments(ctx, tx, attempt.TenantID)
	if err != nil {
		if errors.Is(err, ErrNoAssessmentsConfigured) {
			return "", nil
		}
		return "", err
	}
	switch attempt.AssessmentID {
	case wa.BaselineID:
		return models.WorkflowRoleBaseline, nil
	case wa.FinalID:
		return models.WorkflowRoleFinal, nil
	}
	return "", nil
}

func (s *workflowService) AdvanceOnSubmit(ctx context.Context, tx *gorm.DB, attempt *models.Attempt) (*StageChange, error) {
	role, err := s.roleOf(ctx, tx, attempt)
	if err != nil {
		return nil, err
	}

	var from []models.TrainingStatus
	var to models.TrainingStatus
	switch role {
	case models.WorkflowRoleBaseline:
		from = []models.TrainingStatus{models.StatusReadyForBaseline, models.StatusBaselineInProgress}
		to = models.StatusInTraining
	case models.WorkflowRoleFinal:
		from = []models.TrainingStatus{models.StatusReadyForFinal, models.StatusFinalInProgress}
		to = models.StatusCompleted
	default:
		return nil, nil
	}

	tenantID, studentID := attempt.TenantID, attempt.StudentID
	student, err := s.repo.Student().GetByID(ctx, tx, tenantID, studentID)
	if err != nil {
		return nil, fmt.Errorf("failed to load student: %w", err)
	}

	changed, err := s.repo.Student().UpdateTrainingStatus(ctx, tx, tenantID, studentID, from, to)
	if err != nil {
		return nil, err
	}
	if !changed {
		s.logger.Info("Training status left unchanged on submit",
			"student_id", studentID,
			"status", student.TrainingStatus,
			"assessment_id", attempt.AssessmentID,
			"workflow_role", role)
		return nil, nil
	}

	return &StageChange{
		StudentID: studentID,
		From:      student.TrainingStatus.Normalize(),
		To:        to,
	}, nil
}

func (s *workflowService) ApproveFinal(ctx context.Context, tc models.TenantContext, studentID uint) (*StageChange, error) {
	if err := requireAdmin(tc, "student", "approve_final"); err != nil {
		return nil, err
	}

	var change *StageChange
	var student *models.Student
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		student, err = s.repo.Student().GetByID(ctx, tx, tc.TenantID, studentID)
		if err != nil {
			if repositories.IsNotFoundError(err) {
				return ErrStudentNotFound
			}
			return err
		}

		from := student.TrainingStatus.Normalize()
		if errs := s.validator.Business().ValidateStageTransition(from, models.StatusReadyForFinal); len(errs) > 0 {
			return NewBusinessRuleError("stage_transition", errs.Error(), ErrInvalidStageTransition)
		}

		changed, err := s.repo.Student().UpdateTrainingStatus(ctx, tx, tc.TenantID, studentID,
			[]models.TrainingStatus{from}, models.StatusReadyForFinal)
		if err != nil {
			return err
		}
		if !changed {
			return ErrInvalidStageTransition
		}

		change = &StageChange{StudentID: studentID, From: from, To: models.StatusReadyForFinal}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Student approved for final assessment",
		"tenant_id", tc.TenantID,
		"student_id", studentID,
		"approved_by", tc.UserID)

	publishAfterCommit(ctx, s.publisher, s.logger, tc.TenantID,
		stageChangedDraft(change),
		eventDraft{
			Type: events.EventFinalQualified,
			Payload: events.FinalQualifiedPayload{
				StudentID: student.ID,
				Name:      student.Name,
				Email:     student.Email,
				RegNo:     student.RegNo,
			},
		})
	cache.InvalidateTenantAggregates(ctx, s.cache, tc.TenantID)

	return change, nil
}
