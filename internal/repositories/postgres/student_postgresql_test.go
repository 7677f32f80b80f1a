package postgres_test

import (
	"context"
	"testing"
	"time"

	"github.com/SAP-F-2025/training-assessment-service/internal/models"
	"github.com/SAP-F-2025/training-assessment-service/internal/repositories/postgres"
	"github.com/SAP-F-2025/training-assessment-service/internal/testutil"
)

func TestUpdateTrainingStatusIsGuarded(t *testing.T) {
	db := testutil.NewTestDB(t)
	p := testutil.SeedProgramme(t, db)
	repo := postgres.NewStudentPostgreSQL(db)
	ctx := context.Background()

	changed, err := repo.UpdateTrainingStatus(ctx, nil, p.TenantID, p.Student.ID,
		[]models.TrainingStatus{models.StatusInTraining}, models.StatusReadyForFinal)
	if err != nil {
		t.Fatalf("UpdateTrainingStatus() error = %v", err)
	}
	if changed {
		t.Error("status changed from an unexpected source state")
	}

	changed, err = repo.UpdateTrainingStatus(ctx, nil, p.TenantID, p.Student.ID,
		[]models.TrainingStatus{models.StatusReadyForBaseline}, models.StatusBaselineInProgress)
	if err != nil || !changed {
		t.Fatalf("UpdateTrainingStatus() = %v, %v", changed, err)
	}

	student, err := repo.GetByID(ctx, nil, p.TenantID, p.Student.ID)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if student.TrainingStatus != models.StatusBaselineInProgress {
		t.Errorf("status = %s", student.TrainingStatus)
	}
}

func TestStudentSearch(t *testing.T) {
	db := testutil.NewTestDB(t)
	p := testutil.SeedProgramme(t, db)
	repo := postgres.NewStudentPostgreSQL(db)
	ctx := context.Background()

	tests := []struct {
		query string
		want  int
	}{
		{query: "", want: 2},
		{query: "asha", want: 1},
		{query: "reg00", want: 2},
		{query: "nobody", want: 0},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			got, err := repo.Search(ctx, nil, p.TenantID, tt.query, 10)
			if err != nil {
				t.Fatalf("Search() error = %v", err)
			}
			if len(got) != tt.want {
				t.Errorf("Search(%q) = %d results, want %d", tt.query, len(got), tt.want)
			}
		})
	}
}

func TestDashboardAggregates(t *testing.T) {
	db := testutil.NewTestDB(t)
	p := testutil.SeedProgramme(t, db)
	ctx := context.Background()

	submitted := time.Now()
	attempt := models.Attempt{
		TenantID: p.TenantID, AssessmentID: p.Baseline.ID, StudentID: p.Student.ID,
		StartedAt: submitted.Add(-time.Hour), SubmittedAt: &submitted,
	}
	if err := db.Create(&attempt).Error; err != nil {
		t.Fatal(err)
	}
	correct, wrong := p.BaselineQuant[0].Correct, p.BaselineVerbalMCQ.Incorrect
	for _, r := range []models.Response{
		{AttemptID: attempt.ID, QuestionID: p.BaselineQuant[0].ID, OptionID: &correct},
		{AttemptID: attempt.ID, QuestionID: p.BaselineVerbalMCQ.ID, OptionID: &wrong},
	} {
		r := r
		if err := db.Create(&r).Error; err != nil {
			t.Fatal(err)
		}
	}

	dashboard := postgres.NewDashboardRepository(db)

	topics, err := dashboard.TopicPerformance(ctx, nil, p.TenantID, nil, 8)
	if err != nil {
		t.Fatalf("TopicPerformance() error = %v", err)
	}
	if len(topics) != 2 || topics[0].Topic != "Vocabulary" || topics[0].AvgScore != 0 || topics[1].AvgScore != 100 {
		t.Errorf("topics = %+v", topics)
	}

	completions, err := dashboard.CompletionsByCollege(ctx, nil, p.TenantID, p.Baseline.ID)
	if err != nil {
		t.Fatalf("CompletionsByCollege() error = %v", err)
	}
	if completions[p.CollegeID] != 1 {
		t.Errorf("completions = %v", completions)
	}

	attempters, err := dashboard.DistinctAttempters(ctx, nil, p.TenantID, p.Baseline.ID)
	if err != nil || attempters != 1 {
		t.Errorf("DistinctAttempters() = %d, %v", attempters, err)
	}

	counts, err := postgres.NewCollegePostgreSQL(db).CountStudents(ctx, nil, p.TenantID)
	if err != nil || counts[p.CollegeID] != 2 {
		t.Errorf("CountStudents() = %v, %v", counts, err)
	}
}
