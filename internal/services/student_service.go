package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"

	"gorm.io/gorm"

	"github.com/SAP-F-2025/training-assessment-service/internal/models"
	"github.com/SAP-F-2025/training-assessment-service/internal/repositories"
	"github.com/SAP-F-2025/training-assessment-service/internal/scoring"
)

// Module and next-action labels shown on the student dashboard
const (
	ModuleComplete   = "Complete"
	ModuleIncomplete = "Incomplete"

	ActionOpen      = "open"
	ActionCompleted = "completed"
	ActionLocked    = "locked"

	attemptHref = "/assessment/attempt"
)

type studentService struct {
	repo     repositories.Repository
	db       *gorm.DB
	logger   *slog.Logger
	workflow WorkflowService
}

func NewStudentService(repo repositories.Repository, db *gorm.DB, logger *slog.Logger, workflow WorkflowService) StudentService {
	return &studentService{
		repo:     repo,
		db:       db,
		logger:   logger,
		workflow: workflow,
	}
}

func (s *studentService) GetStudentDashboard(ctx context.Context, tc models.TenantContext) (*models.StudentDashboard, error) {
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

	assessments, err := s.repo.Assessment().ListWithModules(ctx, nil, tc.TenantID, false)
	if err != nil {
		return nil, err
	}
	attempts, err := s.repo.Attempt().List(ctx, nil, repositories.AttemptFilters{
		TenantID:      tc.TenantID,
		StudentID:     &studentID,
		WithResponses: true,
	})
	if err != nil {
		return nil, err
	}
	byAssessment := make(map[uint]*models.Attempt, len(attempts))
	for _, a := range attempts {
		byAssessment[a.AssessmentID] = a
	}

	wa, err := s.workflow.ResolveAssessments(ctx, tc.TenantID)
	if err != nil && !errors.Is(err, ErrNoAssessmentsConfigured) {
		return nil, fmt.Errorf("failed to resolve workflow: %w", err)
	}
	if wa == nil {
		wa = &WorkflowAssessments{}
	}

	stage := dashboardStage(student.TrainingStatus, byAssessment[wa.BaselineID], byAssessment[wa.FinalID])

	dashboard := &models.StudentDashboard{
		Stage:       stage,
		NextAction:  nextAction(stage),
		Assessments: make([]models.StudentAssessment, 0, len(assessments)),
		MyQueue: models.StudentQueue{
			Submitted: []models.QueueSubmitted{},
			Upcoming:  []models.QueueUpcoming{},
		},
	}

	// Module scores per assessment, keyed by module id
	scores := make(map[uint]map[uint]*int, len(assessments))
	var aggregate []int
	for i := range assessments {
		a := &assessments[i]
		attempt := byAssessment[a.ID]
		scores[a.ID] = make(map[uint]*int, len(a.Modules))

		view := models.StudentAssessment{
			ID:           a.ID,
			Title:        a.Title,
			Availability: availability(a),
			Modules:      make([]models.StudentModule, 0, len(a.Modules)),
		}
		for _, m := range a.Modules {
			var score *int
			if attempt != nil {
				score = scoring.ModuleScore(m, attempt.Responses)
			}
			scores[a.ID][m.ID] = score

			status := ModuleIncomplete
			if attempt.IsSubmitted() && score != nil {
				status = ModuleComplete
				aggregate = append(aggregate, *score)
				dashboard.MyQueue.Submitted = append(dashboard.MyQueue.Submitted, models.QueueSubmitted{
					Title:       fmt.Sprintf("%s (%s)", m.Title, a.Title),
					SubmittedAt: attempt.SubmittedAt,
					Score:       *score,
				})
			}
			view.Modules = append(view.Modules, models.StudentModule{
				Number: m.Order,
				Title:  m.Title,
				Status: status,
				Score:  score,
				DueAt:  m.EndAt,
			})
			if m.EndAt != nil && (view.DueAt == nil || m.EndAt.After(*view.DueAt)) {
				view.DueAt = m.EndAt
			}
		}
		dashboard.Assessments = append(dashboard.Assessments, view)
	}
	dashboard.AggregateScore = scoring.Average(aggregate)

	index := indexAssessments(assessments)
	dashboard.Comparisons = comparisons(index[wa.BaselineID], index[wa.FinalID],
		submittedScores(byAssessment[wa.BaselineID], scores[wa.BaselineID]),
		submittedScores(byAssessment[wa.FinalID], scores[wa.FinalID]))

	if currentID := currentAssessmentID(stage, wa); currentID != 0 && index[currentID] != nil {
		current := index[currentID]
		attempt := byAssessment[currentID]
		dashboard.ActiveModule = activeModule(current, attempt, scores[currentID])
		for _, m := range servedModules(current, attempt) {
			if scores[currentID][m.ID] == nil {
				dashboard.MyQueue.Upcoming = append(dashboard.MyQueue.Upcoming, models.QueueUpcoming{
					Title: m.Title,
					DueAt: m.EndAt,
				})
			}
		}
	}

	return dashboard, nil
}

// dashboardStage derives the stage from attempts. A stored in_training stays
// in_training until the student is promoted.
func dashboardStage(stored models.TrainingStatus, baseline, final *models.Attempt) models.TrainingStatus {
	derived := models.StageFromAttempts(baseline, final)
	if stored.Normalize() == models.StatusInTraining && derived == models.StatusReadyForFinal {
		return models.StatusInTraining
	}
	return derived
}

func nextAction(stage models.TrainingStatus) models.NextAction {
	switch stage {
	case models.StatusReadyForBaseline:
		return models.NextAction{Label: "Start Baseline Assessment", Status: ActionOpen, Helper: "Modules will unlock one by one.", Href: attemptHref}
	case models.StatusBaselineInProgress:
		return models.NextAction{Label: "Continue Baseline Assessment", Status: ActionOpen, Helper: "Finish your current module to unlock the next one.", Href: attemptHref}
	case models.StatusReadyForFinal:
		return models.NextAction{Label: "Start Final Assessment", Status: ActionOpen, Helper: "You'll retake selected modules to measure your progress.", Href: attemptHref}
	case models.StatusFinalInProgress:
		return models.NextAction{Label: "Continue Final Assessment", Status: ActionOpen, Helper: "Modules will open in sequence.", Href: attemptHref}
	case models.StatusCompleted:
		return models.NextAction{Label: "Programme completed", Status: ActionCompleted, Helper: "You can review your scores anytime."}
	default:
		return models.NextAction{Label: "Assessment not available yet", Status: ActionLocked, Helper: "Your college will open assessments when they're ready."}
	}
}

func availability(a *models.Assessment) string {
	if a.IsActive {
		return "open"
	}
	return "not_due"
}

func currentAssessmentID(stage models.TrainingStatus, wa *WorkflowAssessments) uint {
	switch stage {
	case models.StatusReadyForBaseline, models.StatusBaselineInProgress:
		return wa.BaselineID
	case models.StatusReadyForFinal, models.StatusFinalInProgress:
		return wa.FinalID
	default:
		return 0
	}
}

// servedModules applies the attempt's module filter
func servedModules(a *models.Assessment, attempt *models.Attempt) []models.Module {
	filter := attempt.ModuleFilter()
	if filter == nil {
		return a.Modules
	}
	modules := make([]models.Module, 0, len(a.Modules))
	for _, m := range a.Modules {
		if filter.Contains(m.ID) {
			modules = append(modules, m)
		}
	}
	return modules
}

// activeModule is the first served module without a score
func activeModule(a *models.Assessment, attempt *models.Attempt, scores map[uint]*int) *models.ActiveModule {
	modules := servedModules(a, attempt)
	for _, m := range modules {
		if scores[m.ID] != nil {
			continue
		}
		status := "not_started"
		if attempt != nil && !attempt.IsSubmitted() {
			status = "in_progress"
		}
		return &models.ActiveModule{
			AssessmentID:    a.ID,
			AssessmentTitle: a.Title,
			ModuleNumber:    m.Order,
			ModuleTitle:     m.Title,
			TotalModules:    len(modules),
			Status:          status,
			TimeLimitMin:    m.PerStudentTimeLimitMin,
		}
	}
	return nil
}

func submittedScores(attempt *models.Attempt, scores map[uint]*int) map[uint]*int {
	if !attempt.IsSubmitted() {
		return nil
	}
	return scores
}

// comparisons pairs Baseline and Final module scores by module number
func comparisons(baseline, final *models.Assessment, baselineScores, finalScores map[uint]*int) []models.ModuleComparison {
	byNumber := make(map[int]*models.ModuleComparison)
	add := func(a *models.Assessment, scores map[uint]*int, isFinal bool) {
		if a == nil {
			return
		}
		for _, m := range a.Modules {
			c, ok := byNumber[m.Order]
			if !ok {
				c = &models.ModuleComparison{Module: m.Order, Title: m.Title}
				byNumber[m.Order] = c
			}
			if isFinal {
				c.Final = scores[m.ID]
			} else {
				c.Baseline = scores[m.ID]
			}
		}
	}
	add(baseline, baselineScores, false)
	add(final, finalScores, true)

	numbers := make([]int, 0, len(byNumber))
	for n := range byNumber {
		numbers = append(numbers, n)
	}
	slices.Sort(numbers)

	result := make([]models.ModuleComparison, 0, len(numbers))
	for _, n := range numbers {
		result = append(result, *byNumber[n])
	}
	return result
}
