package postgres_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/SAP-F-2025/training-assessment-service/internal/models"
	"github.com/SAP-F-2025/training-assessment-service/internal/repositories"
	"github.com/SAP-F-2025/training-assessment-service/internal/repositories/postgres"
	"github.com/SAP-F-2025/training-assessment-service/internal/testutil"
)

func TestFindOrCreateConvergesToOneRow(t *testing.T) {
	db := testutil.NewTestDB(t)
	p := testutil.SeedProgramme(t, db)
	repo := postgres.NewAttemptPostgreSQL(db)
	ctx := context.Background()

	const workers = 8
	var wg sync.WaitGroup
	ids := make([]uint, workers)
	created := make([]bool, workers)
	errs := make([]error, workers)

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			attempt := &models.Attempt{
				TenantID:     p.TenantID,
				AssessmentID: p.Baseline.ID,
				StudentID:    p.Student.ID,
				StartedAt:    time.Now(),
			}
			stored, ok, err := repo.FindOrCreate(ctx, nil, attempt)
			errs[i] = err
			if err == nil {
				ids[i] = stored.ID
				created[i] = ok
			}
		}(i)
	}
	wg.Wait()

	winners := 0
	for i := 0; i < workers; i++ {
		if errs[i] != nil {
			t.Fatalf("worker %d: %v", i, errs[i])
		}
		if ids[i] != ids[0] {
			t.Errorf("worker %d got attempt %d, want %d", i, ids[i], ids[0])
		}
		if created[i] {
			winners++
		}
	}
	if winners != 1 {
		t.Errorf("created by %d workers, want 1", winners)
	}

	var count int64
	db.Model(&models.Attempt{}).Where("student_id = ?", p.Student.ID).Count(&count)
	if count != 1 {
		t.Errorf("attempt rows = %d, want 1", count)
	}
}

func TestFindOrCreateKeepsStoredFilter(t *testing.T) {
	db := testutil.NewTestDB(t)
	p := testutil.SeedProgramme(t, db)
	repo := postgres.NewAttemptPostgreSQL(db)
	ctx := context.Background()

	first := &models.Attempt{TenantID: p.TenantID, AssessmentID: p.Final.ID, StudentID: p.Student.ID, StartedAt: time.Now()}
	first.WithModuleFilter(models.NewAdaptiveModuleFilter([]uint{p.FinalQuantModule}))
	if _, _, err := repo.FindOrCreate(ctx, nil, first); err != nil {
		t.Fatalf("FindOrCreate() error = %v", err)
	}

	second := &models.Attempt{TenantID: p.TenantID, AssessmentID: p.Final.ID, StudentID: p.Student.ID, StartedAt: time.Now()}
	second.WithModuleFilter(models.NewAdaptiveModuleFilter([]uint{p.FinalVerbalModule}))
	stored, created, err := repo.FindOrCreate(ctx, nil, second)
	if err != nil {
		t.Fatalf("FindOrCreate() error = %v", err)
	}
	if created {
		t.Error("second call should not create")
	}
	f := stored.ModuleFilter()
	if f == nil || len(f.ModuleIDs) != 1 || f.ModuleIDs[0] != p.FinalQuantModule {
		t.Errorf("filter = %+v, want only %d", f, p.FinalQuantModule)
	}
}

func TestResponseUpsertLastWriteWins(t *testing.T) {
	db := testutil.NewTestDB(t)
	p := testutil.SeedProgramme(t, db)
	attempts := postgres.NewAttemptPostgreSQL(db)
	responses := postgres.NewResponsePostgreSQL(db)
	ctx := context.Background()

	attempt, _, err := attempts.FindOrCreate(ctx, nil, &models.Attempt{
		TenantID: p.TenantID, AssessmentID: p.Baseline.ID, StudentID: p.Student.ID, StartedAt: time.Now(),
	})
	if err != nil {
		t.Fatalf("FindOrCreate() error = %v", err)
	}

	q := p.BaselineQuant[0]
	for _, optionID := range []uint{q.Incorrect, q.Correct} {
		opt := optionID
		if err := responses.Upsert(ctx, nil, &models.Response{AttemptID: attempt.ID, QuestionID: q.ID, OptionID: &opt}); err != nil {
			t.Fatalf("Upsert() error = %v", err)
		}
	}

	stored, err := responses.ListByAttempt(ctx, nil, attempt.ID)
	if err != nil {
		t.Fatalf("ListByAttempt() error = %v", err)
	}
	if len(stored) != 1 {
		t.Fatalf("responses = %d, want 1", len(stored))
	}
	if stored[0].OptionID == nil || *stored[0].OptionID != q.Correct {
		t.Errorf("option = %v, want %d", stored[0].OptionID, q.Correct)
	}
	if stored[0].Question == nil || len(stored[0].Question.Options) != 2 {
		t.Errorf("question options not preloaded: %+v", stored[0].Question)
	}
}

func TestMarkSubmittedOnlyOnce(t *testing.T) {
	db := testutil.NewTestDB(t)
	p := testutil.SeedProgramme(t, db)
	repo := postgres.NewAttemptPostgreSQL(db)
	ctx := context.Background()

	attempt, _, err := repo.FindOrCreate(ctx, nil, &models.Attempt{
		TenantID: p.TenantID, AssessmentID: p.Baseline.ID, StudentID: p.Student.ID, StartedAt: time.Now().Add(-time.Minute),
	})
	if err != nil {
		t.Fatalf("FindOrCreate() error = %v", err)
	}

	score, total := 5.0, 20.0
	now := time.Now()
	attempt.Score, attempt.TotalMarks, attempt.SubmittedAt, attempt.DurationSec = &score, &total, &now, 60
	if err := repo.MarkSubmitted(ctx, nil, attempt); err != nil {
		t.Fatalf("MarkSubmitted() error = %v", err)
	}

	rescore := 20.0
	attempt.Score = &rescore
	if err := repo.MarkSubmitted(ctx, nil, attempt); !errors.Is(err, repositories.ErrAlreadySubmitted) {
		t.Fatalf("second MarkSubmitted() error = %v, want ErrAlreadySubmitted", err)
	}

	stored, err := repo.GetByID(ctx, nil, p.TenantID, attempt.ID)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if stored.Score == nil || *stored.Score != 5 {
		t.Errorf("score = %v, want 5", stored.Score)
	}
	if stored.DurationSec != 60 {
		t.Errorf("duration = %d, want 60", stored.DurationSec)
	}
}

func TestGetByIDIsTenantScoped(t *testing.T) {
	db := testutil.NewTestDB(t)
	p := testutil.SeedProgramme(t, db)
	repo := postgres.NewAttemptPostgreSQL(db)
	ctx := context.Background()

	attempt, _, err := repo.FindOrCreate(ctx, nil, &models.Attempt{
		TenantID: p.TenantID, AssessmentID: p.Baseline.ID, StudentID: p.Student.ID, StartedAt: time.Now(),
	})
	if err != nil {
		t.Fatalf("FindOrCreate() error = %v", err)
	}

	_, err = repo.GetByID(ctx, nil, p.OtherTenantID, attempt.ID)
	if !repositories.IsNotFoundError(err) {
		t.Errorf("GetByID() from other tenant error = %v, want not found", err)
	}
}
