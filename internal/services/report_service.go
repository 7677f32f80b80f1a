package services

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/SAP-F-2025/training-assessment-service/internal/cache"
	"github.com/SAP-F-2025/training-assessment-service/internal/models"
	"github.com/SAP-F-2025/training-assessment-service/internal/repositories"
	"github.com/SAP-F-2025/training-assessment-service/internal/scoring"
	"github.com/SAP-F-2025/training-assessment-service/internal/validator"
)

const (
	activeNowWindow    = 2 * time.Hour
	weakPointLimit     = 8
	studentListLimit   = 50
	searchLimit        = 10
	excelingAbove      = 80
	trendDateLayout    = "Mon, Jan 2"
	historyDateLayout  = "2006-01-02"
	joinedAtDateLayout = "Jan 2006"
)

// Student status labels used in reports
const (
	StatusInactive = "Inactive"
	StatusAtRisk   = "At Risk"
	StatusOnTrack  = "On Track"
	StatusExceling = "Exceling"
)

type reportService struct {
	repo      repositories.Repository
	db        *gorm.DB
	logger    *slog.Logger
	validator *validator.Validator
	cache     *cache.CacheManager
	config    ReportConfig
}

func NewReportService(
	repo repositories.Repository,
	db *gorm.DB,
	logger *slog.Logger,
	validator *validator.Validator,
	cacheManager *cache.CacheManager,
	config ReportConfig,
) ReportService {
	if config.AtRiskThreshold == 0 {
		config.AtRiskThreshold = 60
	}
	return &reportService{
		repo:      repo,
		db:        db,
		logger:    logger,
		validator: validator,
		cache:     cacheManager,
		config:    config,
	}
}

// ===== OVERVIEW =====

func (s *reportService) Overview(ctx context.Context, tc models.TenantContext, timeRange string) (*models.ReportOverview, error) {
	if err := requireAdmin(tc, "report", "overview"); err != nil {
		return nil, err
	}
	if timeRange == "" {
		timeRange = "7d"
	}
	if err := s.validator.Validate(&validator.ReportOverviewQuery{TimeRange: timeRange}); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrValidationFailed, err)
	}

	var overview models.ReportOverview
	err := s.cache.Report.CacheOrExecute(ctx, cache.ReportOverviewKey(tc.TenantID, timeRange), &overview, cache.ReportCacheConfig.TTL, func() (interface{}, error) {
		return s.buildOverview(ctx, tc.TenantID, timeRange, time.Now())
	})
	if err != nil {
		return nil, err
	}
	return &overview, nil
}

func (s *reportService) buildOverview(ctx context.Context, tenantID uint, timeRange string, now time.Time) (*models.ReportOverview, error) {
	totalStudents, err := s.repo.Student().Count(ctx, nil, tenantID)
	if err != nil {
		return nil, err
	}
	activeNow, err := s.repo.Attempt().CountActiveSince(ctx, nil, tenantID, now.Add(-activeNowWindow))
	if err != nil {
		return nil, err
	}
	attempts, err := s.repo.Attempt().List(ctx, nil, repositories.AttemptFilters{
		TenantID:      tenantID,
		SubmittedOnly: true,
		SubmittedFrom: windowStart(timeRange, now),
	})
	if err != nil {
		return nil, err
	}

	graded := gradedAttempts(attempts)
	byStudent := groupByStudent(graded)

	overview := &models.ReportOverview{
		TimeRange: timeRange,
		KPIs: models.ReportKPIs{
			TotalStudents:  totalStudents,
			ActiveNow:      activeNow,
			AvgPerformance: roundMean(percentages(graded)),
		},
		Trend: performanceTrend(graded),
	}
	for _, pcts := range byStudent {
		if mean(pcts) < s.config.AtRiskThreshold {
			overview.KPIs.AtRiskCount++
		}
	}

	overview.WeakPoints, err = s.weakPoints(ctx, tenantID, nil)
	if err != nil {
		return nil, err
	}

	overview.AssessmentStats, err = s.assessmentStats(ctx, tenantID, totalStudents, graded)
	if err != nil {
		return nil, err
	}

	students, err := s.repo.Student().List(ctx, nil, tenantID, studentListLimit)
	if err != nil {
		return nil, err
	}
	lastActive := make(map[uint]time.Time)
	for _, g := range graded {
		if t := *g.Attempt.SubmittedAt; t.After(lastActive[g.Attempt.StudentID]) {
			lastActive[g.Attempt.StudentID] = t
		}
	}
	overview.StudentPerformances = make([]models.StudentPerformance, 0, len(students))
	for _, st := range students {
		pcts := byStudent[st.ID]
		perf := models.StudentPerformance{
			StudentID:     st.ID,
			Name:          st.Name,
			RegNo:         st.RegNo,
			TotalAttempts: len(pcts),
			AvgScore:      roundMean(pcts),
			Status:        s.studentStatus(pcts),
		}
		if t, ok := lastActive[st.ID]; ok {
			perf.LastActive = &t
		}
		overview.StudentPerformances = append(overview.StudentPerformances, perf)
	}

	return overview, nil
}

func (s *reportService) assessmentStats(ctx context.Context, tenantID uint, totalStudents int64, graded []gradedAttempt) ([]models.AssessmentStat, error) {
	assessments, err := s.repo.Assessment().ListWithModules(ctx, nil, tenantID, true)
	if err != nil {
		return nil, err
	}

	byAssessment := make(map[uint][]float64)
	for _, g := range graded {
		byAssessment[g.Attempt.AssessmentID] = append(byAssessment[g.Attempt.AssessmentID], g.Percentage)
	}

	stats := make([]models.AssessmentStat, 0, len(assessments))
	for _, a := range assessments {
		attempters, err := s.repo.Dashboard().DistinctAttempters(ctx, nil, tenantID, a.ID)
		if err != nil {
			return nil, err
		}
		rate := 0
		if totalStudents > 0 {
			rate = int(math.Round(float64(attempters) / float64(totalStudents) * 100))
		}
		stats = append(stats, models.AssessmentStat{
			AssessmentID:   a.ID,
			Title:          a.Title,
			CompletionRate: rate,
			AvgScore:       roundMean(byAssessment[a.ID]),
		})
	}
	return stats, nil
}

func (s *reportService) weakPoints(ctx context.Context, tenantID uint, studentID *uint) ([]models.WeakPoint, error) {
	topics, err := s.repo.Dashboard().TopicPerformance(ctx, nil, tenantID, studentID, weakPointLimit)
	if err != nil {
		return nil, err
	}
	points := make([]models.WeakPoint, 0, len(topics))
	for _, t := range topics {
		points = append(points, models.WeakPoint{
			Topic:           t.Topic,
			AvgScore:        int(math.Round(t.AvgScore)),
			TotalAttempts:   t.TotalAttempts,
			DifficultyIndex: difficultyIndex(t.AvgScore),
		})
	}
	return points, nil
}

func difficultyIndex(avg float64) string {
	switch {
	case avg < 50:
		return "High"
	case avg < 75:
		return "Medium"
	default:
		return "Low"
	}
}

func (s *reportService) studentStatus(pcts []float64) string {
	if len(pcts) == 0 {
		return StatusInactive
	}
	avg := mean(pcts)
	switch {
	case avg < s.config.AtRiskThreshold:
		return StatusAtRisk
	case avg > excelingAbove:
		return StatusExceling
	default:
		return StatusOnTrack
	}
}

// ===== STUDENT REPORT =====

func (s *reportService) StudentReport(ctx context.Context, tc models.TenantContext, studentID uint) (*models.StudentReport, error) {
	if err := requireAdmin(tc, "report", "student"); err != nil {
		return nil, err
	}

	var report models.StudentReport
	err := s.cache.Report.CacheOrExecute(ctx, cache.StudentReportKey(tc.TenantID, studentID), &report, cache.ReportCacheConfig.TTL, func() (interface{}, error) {
		return s.buildStudentReport(ctx, tc.TenantID, studentID)
	})
	if err != nil {
		return nil, err
	}
	return &report, nil
}

func (s *reportService) buildStudentReport(ctx context.Context, tenantID, studentID uint) (*models.StudentReport, error) {
	student, err := s.repo.Student().GetByID(ctx, nil, tenantID, studentID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrStudentNotFound
		}
		return nil, err
	}

	// Every submitted attempt of the tenant feeds the cohort averages and the
	// percentile
	all, err := s.repo.Attempt().List(ctx, nil, repositories.AttemptFilters{
		TenantID:      tenantID,
		SubmittedOnly: true,
	})
	if err != nil {
		return nil, err
	}
	graded := gradedAttempts(all)

	cohort := make(map[uint][]float64)
	for _, g := range graded {
		cohort[g.Attempt.AssessmentID] = append(cohort[g.Attempt.AssessmentID], g.Percentage)
	}
	byStudent := groupByStudent(graded)
	mine := byStudent[studentID]

	report := &models.StudentReport{
		Student: models.StudentProfile{
			ID:             student.ID,
			Name:           student.Name,
			Email:          student.Email,
			RegNo:          student.RegNo,
			JoinedAt:       student.CreatedAt.Format(joinedAtDateLayout),
			TrainingStatus: student.TrainingStatus.Normalize(),
		},
		Stats: models.StudentStats{
			AvgScore:      roundMean(mine),
			TotalAttempts: len(mine),
			Percentile:    percentile(byStudent, studentID),
			Status:        s.studentStatus(mine),
		},
		History: []models.AttemptHistoryItem{},
	}

	// Attempts are listed newest first
	for _, a := range all {
		if a.StudentID != studentID {
			continue
		}
		item := models.AttemptHistoryItem{
			AttemptID:     a.ID,
			ScoreObtained: a.Score,
			TotalMarks:    a.TotalMarks,
			CohortAvg:     roundMean(cohort[a.AssessmentID]),
			Duration:      formatDuration(a.DurationSec),
		}
		if a.Assessment != nil {
			item.Assessment = a.Assessment.Title
		}
		if pct := attemptPercentage(a); pct != nil {
			item.Score = int(math.Round(*pct))
		}
		if a.SubmittedAt != nil {
			date := a.SubmittedAt.Format(historyDateLayout)
			item.Date = &date
		}
		report.History = append(report.History, item)
	}

	report.WeakPoints, err = s.weakPoints(ctx, tenantID, &studentID)
	if err != nil {
		return nil, err
	}

	return report, nil
}

// percentile is the share of students whose average is below the given
// student's. A lone student with attempts sits at 100.
func percentile(byStudent map[uint][]float64, studentID uint) int {
	mine, ok := byStudent[studentID]
	if !ok {
		return 0
	}
	if len(byStudent) == 1 {
		return 100
	}
	myAvg := mean(mine)
	below := 0
	for id, pcts := range byStudent {
		if id != studentID && mean(pcts) < myAvg {
			below++
		}
	}
	return int(math.Round(float64(below) / float64(len(byStudent)) * 100))
}

func formatDuration(seconds int) string {
	if seconds <= 0 {
		return "N/A"
	}
	return fmt.Sprintf("%02d:%02d:%02d", seconds/3600, seconds%3600/60, seconds%60)
}

// ===== ATTEMPT DETAILS =====

func (s *reportService) AttemptDetails(ctx context.Context, tc models.TenantContext, attemptID uint) (*models.AttemptDetails, error) {
	if err := requireAdmin(tc, "attempt", "details"); err != nil {
		return nil, err
	}

	attempt, err := s.repo.Attempt().GetWithResponses(ctx, nil, tc.TenantID, attemptID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrAttemptNotFound
		}
		return nil, err
	}

	details := &models.AttemptDetails{
		ID:          attempt.ID,
		SubmittedAt: attempt.SubmittedAt,
		TotalMarks:  attempt.TotalMarks,
		Responses:   make([]models.ResponseDetail, 0, len(attempt.Responses)),
	}
	if attempt.Assessment != nil {
		details.AssessmentTitle = attempt.Assessment.Title
	}
	if pct := attemptPercentage(attempt); pct != nil {
		details.Score = int(math.Round(*pct))
	}

	for _, r := range attempt.Responses {
		detail := models.ResponseDetail{
			ID:         r.ID,
			QuestionID: r.QuestionID,
			TextAnswer: r.TextAnswer,
		}
		if r.Option != nil {
			text := r.Option.Text
			detail.OptionText = &text
		}
		if answer, ok := scoring.AnswerFromResponse(r); ok {
			detail.Question = answer.Question.Stem
			detail.Type = string(answer.Question.Type)
			detail.Points = answer.Question.Points
			detail.IsCorrect = scoring.IsCorrect(answer)
			detail.CorrectText = scoring.CorrectText(answer.Question)
		}
		details.Responses = append(details.Responses, detail)
	}
	return details, nil
}

// ===== SEARCH =====

func (s *reportService) Search(ctx context.Context, tc models.TenantContext, query string) ([]models.StudentSearchResult, error) {
	if err := requireAdmin(tc, "student", "search"); err != nil {
		return nil, err
	}
	if err := s.validator.Validate(&validator.StudentSearchQuery{Q: query}); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrValidationFailed, err)
	}

	students, err := s.repo.Student().Search(ctx, nil, tc.TenantID, strings.TrimSpace(query), searchLimit)
	if err != nil {
		return nil, err
	}

	results := make([]models.StudentSearchResult, 0, len(students))
	for _, st := range students {
		results = append(results, models.StudentSearchResult{
			ID:    st.ID,
			Label: fmt.Sprintf("%s (%s)", st.Name, st.RegNo),
			Value: st.ID,
		})
	}
	return results, nil
}

// ===== HELPERS =====

// gradedAttempt is a submitted attempt with a usable percentage
type gradedAttempt struct {
	Attempt    *models.Attempt
	Percentage float64
}

// attemptPercentage is score / total_marks * 100, or nil while unscored or
// when total marks are missing
func attemptPercentage(a *models.Attempt) *float64 {
	if a.Score == nil || a.TotalMarks == nil || *a.TotalMarks <= 0 {
		return nil
	}
	return a.Percentage()
}

func gradedAttempts(attempts []*models.Attempt) []gradedAttempt {
	graded := make([]gradedAttempt, 0, len(attempts))
	for _, a := range attempts {
		if !a.IsSubmitted() {
			continue
		}
		if pct := attemptPercentage(a); pct != nil {
			graded = append(graded, gradedAttempt{Attempt: a, Percentage: *pct})
		}
	}
	return graded
}

func groupByStudent(graded []gradedAttempt) map[uint][]float64 {
	byStudent := make(map[uint][]float64)
	for _, g := range graded {
		byStudent[g.Attempt.StudentID] = append(byStudent[g.Attempt.StudentID], g.Percentage)
	}
	return byStudent
}

func percentages(graded []gradedAttempt) []float64 {
	pcts := make([]float64, len(graded))
	for i, g := range graded {
		pcts[i] = g.Percentage
	}
	return pcts
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

func roundMean(values []float64) int {
	return int(math.Round(mean(values)))
}

// performanceTrend averages percentages per submission day, oldest first
func performanceTrend(graded []gradedAttempt) []models.TrendPoint {
	type day struct {
		date time.Time
		pcts []float64
	}
	days := make(map[string]*day)
	for _, g := range graded {
		d := startOfDay(*g.Attempt.SubmittedAt)
		key := d.Format(historyDateLayout)
		if days[key] == nil {
			days[key] = &day{date: d}
		}
		days[key].pcts = append(days[key].pcts, g.Percentage)
	}

	ordered := make([]*day, 0, len(days))
	for _, d := range days {
		ordered = append(ordered, d)
	}
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].date.Before(ordered[j].date) })

	trend := make([]models.TrendPoint, 0, len(ordered))
	for _, d := range ordered {
		trend = append(trend, models.TrendPoint{
			Date:     d.date.Format(trendDateLayout),
			AvgScore: scoring.Round1(mean(d.pcts)),
			Attempts: len(d.pcts),
		})
	}
	return trend
}
