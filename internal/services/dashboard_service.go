package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"gorm.io/gorm"

	"github.com/SAP-F-2025/training-assessment-service/internal/cache"
	"github.com/SAP-F-2025/training-assessment-service/internal/models"
	"github.com/SAP-F-2025/training-assessment-service/internal/repositories"
	"github.com/SAP-F-2025/training-assessment-service/internal/scoring"
	"github.com/SAP-F-2025/training-assessment-service/internal/validator"
)

const (
	maxTrendPoints      = 12
	maxRecentSubmission = 20
	upcomingWindowDays  = 10
	upcomingLimit       = 10
)

// Progress labels of a college on one assessment
const (
	ProgressNotStarted = "Not started"
	ProgressInProgress = "In progress"
	ProgressCompleted  = "Completed"
)

type dashboardService struct {
	repo      repositories.Repository
	db        *gorm.DB
	logger    *slog.Logger
	validator *validator.Validator
	cache     *cache.CacheManager
	workflow  WorkflowService
	config    ReportConfig
}

// ReportConfig holds the thresholds shared by dashboards and reports
type ReportConfig struct {
	AtRiskThreshold float64
}

func NewDashboardService(
	repo repositories.Repository,
	db *gorm.DB,
	logger *slog.Logger,
	validator *validator.Validator,
	cacheManager *cache.CacheManager,
	workflow WorkflowService,
	config ReportConfig,
) DashboardService {
	if config.AtRiskThreshold == 0 {
		config.AtRiskThreshold = 60
	}
	return &dashboardService{
		repo:      repo,
		db:        db,
		logger:    logger,
		validator: validator,
		cache:     cacheManager,
		workflow:  workflow,
		config:    config,
	}
}

func (s *dashboardService) GetAdminDashboard(ctx context.Context, tc models.TenantContext, timeframe string) (*models.AdminDashboard, error) {
	if !tc.Valid() {
		return nil, ErrTenantRequired
	}
	if timeframe == "" {
		timeframe = "today"
	}
	if err := s.validator.Validate(&validator.AdminDashboardQuery{Timeframe: timeframe}); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrValidationFailed, err)
	}

	var dashboard models.AdminDashboard
	err := s.cache.Dashboard.CacheOrExecute(ctx, cache.AdminDashboardKey(tc.TenantID, timeframe), &dashboard, cache.DashboardCacheConfig.TTL, func() (interface{}, error) {
		return s.buildAdminDashboard(ctx, tc.TenantID, timeframe, time.Now())
	})
	if err != nil {
		return nil, err
	}
	return &dashboard, nil
}

func (s *dashboardService) buildAdminDashboard(ctx context.Context, tenantID uint, timeframe string, now time.Time) (*models.AdminDashboard, error) {
	from := *windowStart(timeframe, now)

	colleges, err := s.repo.College().List(ctx, nil, tenantID)
	if err != nil {
		return nil, err
	}
	activeCount, err := s.repo.Assessment().CountActive(ctx, nil, tenantID)
	if err != nil {
		return nil, err
	}
	assessments, err := s.repo.Assessment().ListWithModules(ctx, nil, tenantID, false)
	if err != nil {
		return nil, err
	}
	attempts, err := s.repo.Attempt().List(ctx, nil, repositories.AttemptFilters{
		TenantID:      tenantID,
		SubmittedFrom: &from,
		SubmittedTo:   &now,
		WithResponses: true,
		WithStudent:   true,
	})
	if err != nil {
		return nil, err
	}

	scored := scoreAttempts(attempts, indexAssessments(assessments))

	dashboard := &models.AdminDashboard{
		Timeframe:             timeframe,
		Colleges:              make([]models.CollegeRef, 0, len(colleges)),
		Trend:                 submissionTrend(attempts, from, now),
		DistributionByCollege: make(map[uint][]models.DistributionBucket),
	}
	for _, c := range colleges {
		dashboard.Colleges = append(dashboard.Colleges, models.CollegeRef{ID: c.ID, Name: c.Name})
	}

	// KPIs
	var allScores []int
	byStudent := make(map[uint][]int)
	byCollege := make(map[uint][]int)
	for _, sa := range scored {
		allScores = append(allScores, sa.Average)
		byStudent[sa.Attempt.StudentID] = append(byStudent[sa.Attempt.StudentID], sa.ModuleScores...)
		if sa.Attempt.Student != nil && sa.Attempt.Student.CollegeID != nil {
			id := *sa.Attempt.Student.CollegeID
			byCollege[id] = append(byCollege[id], sa.Average)
		}
	}
	atRisk := 0
	for _, scores := range byStudent {
		if avg := scoring.Average(scores); avg != nil && float64(*avg) < s.config.AtRiskThreshold {
			atRisk++
		}
	}
	avgScore := 0
	if avg := scoring.Average(allScores); avg != nil {
		avgScore = *avg
	}
	dashboard.KPIs = []models.KPI{
		{Label: "Active Assessments", Value: float64(activeCount)},
		{Label: "Submissions", Value: float64(len(attempts))},
		{Label: "Average Score", Value: float64(avgScore), Unit: "%"},
		{Label: "At-risk Students", Value: float64(atRisk)},
	}

	// Upcoming modules
	dashboard.Upcoming, err = s.upcoming(ctx, tenantID, now)
	if err != nil {
		return nil, err
	}

	// Recent submissions, newest first
	dashboard.Recent = make([]models.RecentSubmission, 0, min(len(scored), maxRecentSubmission))
	for _, sa := range scored {
		if len(dashboard.Recent) == maxRecentSubmission {
			break
		}
		dashboard.Recent = append(dashboard.Recent, recentSubmission(sa))
	}

	// Distribution
	dashboard.Distribution = scoring.Distribution(allScores)
	for id, scores := range byCollege {
		dashboard.DistributionByCollege[id] = scoring.Distribution(scores)
	}

	dashboard.ProgressByCollege, err = s.progressByCollege(ctx, tenantID, colleges)
	if err != nil {
		return nil, err
	}

	return dashboard, nil
}

func (s *dashboardService) upcoming(ctx context.Context, tenantID uint, now time.Time) ([]models.UpcomingItem, error) {
	modules, err := s.repo.Assessment().UpcomingModules(ctx, nil, tenantID, now, now.AddDate(0, 0, upcomingWindowDays), upcomingLimit)
	if err != nil {
		return nil, err
	}
	participants, err := s.repo.Student().Count(ctx, nil, tenantID)
	if err != nil {
		return nil, err
	}

	items := make([]models.UpcomingItem, 0, len(modules))
	for _, m := range modules {
		title := m.Title
		if m.Assessment != nil {
			title = m.Assessment.Title
		}
		status := string(models.ModuleOpen)
		if m.StartAt != nil && m.StartAt.After(now) {
			status = string(models.ModuleScheduled)
		}
		items = append(items, models.UpcomingItem{
			Title:        title,
			Module:       m.Title,
			DueAt:        m.EndAt,
			Participants: participants,
			Status:       status,
		})
	}
	return items, nil
}

func (s *dashboardService) progressByCollege(ctx context.Context, tenantID uint, colleges []models.College) ([]models.CollegeProgress, error) {
	totals, err := s.repo.College().CountStudents(ctx, nil, tenantID)
	if err != nil {
		return nil, err
	}

	var baseline, final map[uint]int
	wa, err := s.workflow.ResolveAssessments(ctx, tenantID)
	switch {
	case err == nil:
		if baseline, err = s.repo.Dashboard().CompletionsByCollege(ctx, nil, tenantID, wa.BaselineID); err != nil {
			return nil, err
		}
		if wa.FinalID != 0 {
			if final, err = s.repo.Dashboard().CompletionsByCollege(ctx, nil, tenantID, wa.FinalID); err != nil {
				return nil, err
			}
		}
	case !errors.Is(err, ErrNoAssessmentsConfigured):
		return nil, err
	}

	progress := make([]models.CollegeProgress, 0, len(colleges))
	for _, c := range colleges {
		total := totals[c.ID]
		p := models.CollegeProgress{
			CollegeID:   c.ID,
			CollegeName: c.Name,
			Total:       total,
			A1Completed: baseline[c.ID],
			A2Completed: final[c.ID],
		}
		p.A1Status = progressLabel(p.A1Completed, total)
		p.A2Status = progressLabel(p.A2Completed, total)
		progress = append(progress, p)
	}
	return progress, nil
}

func progressLabel(completed, total int) string {
	switch {
	case total == 0 || completed == 0:
		return ProgressNotStarted
	case completed < total:
		return ProgressInProgress
	default:
		return ProgressCompleted
	}
}

func recentSubmission(sa scoredAttempt) models.RecentSubmission {
	r := models.RecentSubmission{
		StudentID:   sa.Attempt.StudentID,
		Score:       sa.Average,
		SubmittedAt: *sa.Attempt.SubmittedAt,
	}
	if sa.Attempt.Assessment != nil {
		r.Assessment = sa.Attempt.Assessment.Title
	}
	if st := sa.Attempt.Student; st != nil {
		r.Student = st.Name
		r.CollegeID = st.CollegeID
		if st.College != nil {
			r.CollegeName = st.College.Name
		}
	}
	return r
}

// ===== SHARED AGGREGATION =====

// scoredAttempt is a submitted attempt with its MCQ module scores
type scoredAttempt struct {
	Attempt      *models.Attempt
	ModuleScores []int
	Average      int
}

func indexAssessments(assessments []models.Assessment) map[uint]*models.Assessment {
	index := make(map[uint]*models.Assessment, len(assessments))
	for i := range assessments {
		index[assessments[i].ID] = &assessments[i]
	}
	return index
}

// moduleScores returns the non-nil module scores of an attempt, in module order
func moduleScores(attempt *models.Attempt, assessment *models.Assessment) []int {
	if assessment == nil {
		return nil
	}
	var scores []int
	for _, m := range assessment.Modules {
		if score := scoring.ModuleScore(m, attempt.Responses); score != nil {
			scores = append(scores, *score)
		}
	}
	return scores
}

// scoreAttempts keeps the order of attempts and skips those without any
// module score
func scoreAttempts(attempts []*models.Attempt, assessments map[uint]*models.Assessment) []scoredAttempt {
	scored := make([]scoredAttempt, 0, len(attempts))
	for _, a := range attempts {
		if !a.IsSubmitted() {
			continue
		}
		scores := moduleScores(a, assessments[a.AssessmentID])
		avg := scoring.Average(scores)
		if avg == nil {
			continue
		}
		scored = append(scored, scoredAttempt{Attempt: a, ModuleScores: scores, Average: *avg})
	}
	return scored
}

// submissionTrend counts submissions per day, oldest first, over at most
// maxTrendPoints days ending today
func submissionTrend(attempts []*models.Attempt, from, now time.Time) []int {
	diffDays := int(math.Floor(startOfDay(now).Sub(startOfDay(from)).Hours() / 24))
	days := min(maxTrendPoints, diffDays+1)

	trend := make([]int, days)
	today := startOfDay(now)
	for i := 0; i < days; i++ {
		day := today.AddDate(0, 0, -(days - 1 - i))
		for _, a := range attempts {
			if a.SubmittedAt != nil && sameDay(a.SubmittedAt.In(now.Location()), day) {
				trend[i]++
			}
		}
	}
	return trend
}
