package services

import (
	"context"
	"errors"
	"testing"

	"github.com/SAP-F-2025/training-assessment-service/internal/models"
)

// seedCohort submits the Baseline for both students: Asha scores 50% and
// Ravi 100%
func seedCohort(t *testing.T, h *harness) (asha, ravi *models.AttemptView) {
	t.Helper()
	ctx := context.Background()

	asha = h.completeBaseline(t, h.student())

	tc := h.otherStudent()
	view, err := h.services.Attempt().StartCurrent(ctx, tc)
	if err != nil {
		t.Fatalf("start for second student: %v", err)
	}
	for _, q := range h.p.BaselineQuant {
		h.choose(t, tc, view.ID, q.ID, q.Correct)
	}
	h.choose(t, tc, view.ID, h.p.BaselineVerbalMCQ.ID, h.p.BaselineVerbalMCQ.Correct)
	h.write(t, tc, view.ID, h.p.BaselineVerbalText.ID, "Paris")
	ravi, err = h.services.Attempt().Submit(ctx, tc, h.p.OtherStudent.ID, view.ID)
	if err != nil {
		t.Fatalf("submit for second student: %v", err)
	}
	return asha, ravi
}

func TestReportOverview(t *testing.T) {
	h := newHarness(t)
	seedCohort(t, h)

	overview, err := h.services.Report().Overview(context.Background(), h.admin(), "all")
	if err != nil {
		t.Fatalf("Overview() error = %v", err)
	}

	kpis := overview.KPIs
	if kpis.TotalStudents != 2 || kpis.ActiveNow != 0 || kpis.AvgPerformance != 75 || kpis.AtRiskCount != 1 {
		t.Errorf("kpis = %+v", kpis)
	}

	if len(overview.Trend) != 1 || overview.Trend[0].Attempts != 2 || overview.Trend[0].AvgScore != 75 {
		t.Errorf("trend = %+v", overview.Trend)
	}

	if len(overview.WeakPoints) != 2 {
		t.Fatalf("weak points = %+v", overview.WeakPoints)
	}
	if w := overview.WeakPoints[0]; w.Topic != "Arithmetic" || w.AvgScore != 50 || w.DifficultyIndex != "Medium" {
		t.Errorf("weakest topic = %+v", w)
	}

	stats := make(map[uint]models.AssessmentStat)
	for _, s := range overview.AssessmentStats {
		stats[s.AssessmentID] = s
	}
	if s := stats[h.p.Baseline.ID]; s.CompletionRate != 100 || s.AvgScore != 75 {
		t.Errorf("baseline stats = %+v", s)
	}
	if s := stats[h.p.Final.ID]; s.CompletionRate != 0 {
		t.Errorf("final stats = %+v", s)
	}

	statuses := make(map[uint]string)
	for _, p := range overview.StudentPerformances {
		statuses[p.StudentID] = p.Status
	}
	if statuses[h.p.Student.ID] != StatusAtRisk || statuses[h.p.OtherStudent.ID] != StatusExceling {
		t.Errorf("statuses = %v", statuses)
	}
}

func TestReportOverviewAccess(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	if _, err := h.services.Report().Overview(ctx, h.student(), "7d"); !errors.Is(err, ErrForbidden) {
		t.Errorf("Overview() as student error = %v, want ErrForbidden", err)
	}
	if _, err := h.services.Report().Overview(ctx, h.admin(), "1y"); !errors.Is(err, ErrValidationFailed) {
		t.Errorf("Overview(1y) error = %v, want ErrValidationFailed", err)
	}

	overview, err := h.services.Report().Overview(ctx, h.admin(), "")
	if err != nil {
		t.Fatalf("Overview() error = %v", err)
	}
	if overview.TimeRange != "7d" {
		t.Errorf("default time range = %q, want 7d", overview.TimeRange)
	}
}

func TestStudentReport(t *testing.T) {
	h := newHarness(t)
	seedCohort(t, h)
	ctx := context.Background()

	report, err := h.services.Report().StudentReport(ctx, h.admin(), h.p.Student.ID)
	if err != nil {
		t.Fatalf("StudentReport() error = %v", err)
	}
	if report.Student.RegNo != "REG001" || report.Student.TrainingStatus != models.StatusInTraining {
		t.Errorf("profile = %+v", report.Student)
	}
	if report.Stats.AvgScore != 50 || report.Stats.TotalAttempts != 1 || report.Stats.Percentile != 0 || report.Stats.Status != StatusAtRisk {
		t.Errorf("stats = %+v", report.Stats)
	}
	if len(report.History) != 1 {
		t.Fatalf("history = %+v", report.History)
	}
	item := report.History[0]
	if item.Assessment != h.p.Baseline.Title || item.Score != 50 || item.CohortAvg != 75 || item.Date == nil {
		t.Errorf("history[0] = %+v", item)
	}

	other, err := h.services.Report().StudentReport(ctx, h.admin(), h.p.OtherStudent.ID)
	if err != nil {
		t.Fatalf("StudentReport() error = %v", err)
	}
	if other.Stats.Percentile != 50 || other.Stats.Status != StatusExceling {
		t.Errorf("second student stats = %+v", other.Stats)
	}

	if _, err := h.services.Report().StudentReport(ctx, h.admin(), 9999); !errors.Is(err, ErrStudentNotFound) {
		t.Errorf("StudentReport() for unknown student error = %v, want ErrStudentNotFound", err)
	}
}

func TestAttemptDetails(t *testing.T) {
	h := newHarness(t)
	asha, _ := seedCohort(t, h)

	details, err := h.services.Report().AttemptDetails(context.Background(), h.admin(), asha.ID)
	if err != nil {
		t.Fatalf("AttemptDetails() error = %v", err)
	}
	if details.Score != 50 || details.AssessmentTitle != h.p.Baseline.Title {
		t.Errorf("details = %+v", details)
	}
	if len(details.Responses) != 4 {
		t.Fatalf("responses = %d, want 4", len(details.Responses))
	}

	correct := 0
	for _, r := range details.Responses {
		if r.IsCorrect {
			correct++
		}
		if r.CorrectText == nil {
			t.Errorf("response to question %d has no correct text", r.QuestionID)
		}
		if r.QuestionID == h.p.BaselineVerbalText.ID && (!r.IsCorrect || r.Type != string(models.QuestionText)) {
			t.Errorf("text response = %+v, want a correct TEXT answer", r)
		}
	}
	if correct != 2 {
		t.Errorf("correct responses = %d, want 2", correct)
	}

	if _, err := h.services.Report().AttemptDetails(context.Background(), h.admin(), 9999); !errors.Is(err, ErrAttemptNotFound) {
		t.Errorf("AttemptDetails() for unknown attempt error = %v, want ErrAttemptNotFound", err)
	}
}

func TestSearch(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	tests := []struct {
		query string
		want  []string
	}{
		{query: "asha", want: []string{"Asha Rao (REG001)"}},
		{query: "REG002", want: []string{"Ravi Kumar (REG002)"}},
		{query: "nobody", want: nil},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			results, err := h.services.Report().Search(ctx, h.admin(), tt.query)
			if err != nil {
				t.Fatalf("Search() error = %v", err)
			}
			if len(results) != len(tt.want) {
				t.Fatalf("Search() = %+v, want %v", results, tt.want)
			}
			for i, r := range results {
				if r.Label != tt.want[i] || r.Value != r.ID {
					t.Errorf("result %d = %+v, want label %q", i, r, tt.want[i])
				}
			}
		})
	}
}

func TestPercentile(t *testing.T) {
	byStudent := map[uint][]float64{
		1: {40, 60},
		2: {90},
		3: {70},
		4: {20},
	}

	tests := []struct {
		name      string
		byStudent map[uint][]float64
		id        uint
		want      int
	}{
		{name: "top of four", byStudent: byStudent, id: 2, want: 75},
		{name: "middle", byStudent: byStudent, id: 1, want: 25},
		{name: "bottom", byStudent: byStudent, id: 4, want: 0},
		{name: "no attempts", byStudent: byStudent, id: 9, want: 0},
		{name: "alone", byStudent: map[uint][]float64{7: {10}}, id: 7, want: 100},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := percentile(tt.byStudent, tt.id); got != tt.want {
				t.Errorf("percentile() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		seconds int
		want    string
	}{
		{0, "N/A"},
		{-4, "N/A"},
		{59, "00:00:59"},
		{3725, "01:02:05"},
	}
	for _, tt := range tests {
		if got := formatDuration(tt.seconds); got != tt.want {
			t.Errorf("formatDuration(%d) = %q, want %q", tt.seconds, got, tt.want)
		}
	}
}

func TestDifficultyIndex(t *testing.T) {
	tests := []struct {
		avg  float64
		want string
	}{
		{0, "High"},
		{49.9, "High"},
		{50, "Medium"},
		{74.9, "Medium"},
		{75, "Low"},
		{100, "Low"},
	}
	for _, tt := range tests {
		if got := difficultyIndex(tt.avg); got != tt.want {
			t.Errorf("difficultyIndex(%v) = %q, want %q", tt.avg, got, tt.want)
		}
	}
}
