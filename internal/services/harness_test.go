package services

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/SAP-F-2025/training-assessment-service/internal/cache"
	"github.com/SAP-F-2025/training-assessment-service/internal/events"
	"github.com/SAP-F-2025/training-assessment-service/internal/models"
	"github.com/SAP-F-2025/training-assessment-service/internal/repositories"
	"github.com/SAP-F-2025/training-assessment-service/internal/repositories/postgres"
	"github.com/SAP-F-2025/training-assessment-service/internal/testutil"
	"github.com/SAP-F-2025/training-assessment-service/internal/validator"
)

type stubUsers struct{}

func (stubUsers) GetByID(ctx context.Context, id string) (*models.User, error) {
	return nil, gorm.ErrRecordNotFound
}

type harness struct {
	db        *gorm.DB
	p         testutil.Programme
	repo      repositories.Repository
	cache     *cache.CacheManager
	publisher *events.MockEventPublisher
	services  ServiceManager
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	db := testutil.NewTestDB(t)
	p := testutil.SeedProgramme(t, db)

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	repo := postgres.NewPostgreSQLRepository(postgres.RepositoryConfig{
		DB:             db,
		RedisClient:    client,
		UserRepository: stubUsers{},
	})
	cacheManager := cache.NewCacheManager(client)
	publisher := events.NewMockEventPublisher(logger)

	sm := NewServiceManager(db, repo, logger, validator.New(), cacheManager, publisher, DefaultServiceManagerConfig())
	if err := sm.Initialize(context.Background()); err != nil {
		t.Fatalf("initialize services: %v", err)
	}

	return &harness{
		db:        db,
		p:         p,
		repo:      repo,
		cache:     cacheManager,
		publisher: publisher,
		services:  sm,
	}
}

func (h *harness) admin() models.TenantContext {
	return models.TenantContext{TenantID: h.p.TenantID, UserID: "admin-1", Role: models.RoleAdmin}
}

func (h *harness) student() models.TenantContext {
	id := h.p.Student.ID
	return models.TenantContext{TenantID: h.p.TenantID, UserID: *h.p.Student.UserID, Role: models.RoleStudent, StudentID: &id}
}

func (h *harness) otherStudent() models.TenantContext {
	id := h.p.OtherStudent.ID
	return models.TenantContext{TenantID: h.p.TenantID, UserID: *h.p.OtherStudent.UserID, Role: models.RoleStudent, StudentID: &id}
}

func (h *harness) trainingStatus(t *testing.T, studentID uint) models.TrainingStatus {
	t.Helper()
	st, err := h.repo.Student().GetByID(context.Background(), nil, h.p.TenantID, studentID)
	if err != nil {
		t.Fatalf("load student: %v", err)
	}
	return st.TrainingStatus
}

func (h *harness) choose(t *testing.T, tc models.TenantContext, attemptID, questionID, optionID uint) {
	t.Helper()
	err := h.services.Attempt().SaveProgress(context.Background(), tc, *tc.StudentID, attemptID, &SaveProgressRequest{
		QuestionID: questionID,
		OptionID:   &optionID,
	})
	if err != nil {
		t.Fatalf("save option %d for question %d: %v", optionID, questionID, err)
	}
}

func (h *harness) write(t *testing.T, tc models.TenantContext, attemptID, questionID uint, text string) {
	t.Helper()
	err := h.services.Attempt().SaveProgress(context.Background(), tc, *tc.StudentID, attemptID, &SaveProgressRequest{
		QuestionID: questionID,
		TextAnswer: &text,
	})
	if err != nil {
		t.Fatalf("save text for question %d: %v", questionID, err)
	}
}

// completeBaseline starts and submits the Baseline with Quant wrong and
// Verbal right. Quant scores 0 and Verbal 50, as only MCQs count as correct,
// while performance is 0% and 100%.
func (h *harness) completeBaseline(t *testing.T, tc models.TenantContext) *models.AttemptView {
	t.Helper()
	ctx := context.Background()

	view, err := h.services.Attempt().StartCurrent(ctx, tc)
	if err != nil {
		t.Fatalf("start baseline: %v", err)
	}
	for _, q := range h.p.BaselineQuant {
		h.choose(t, tc, view.ID, q.ID, q.Incorrect)
	}
	h.choose(t, tc, view.ID, h.p.BaselineVerbalMCQ.ID, h.p.BaselineVerbalMCQ.Correct)
	h.write(t, tc, view.ID, h.p.BaselineVerbalText.ID, "paris")

	submitted, err := h.services.Attempt().Submit(ctx, tc, *tc.StudentID, view.ID)
	if err != nil {
		t.Fatalf("submit baseline: %v", err)
	}
	return submitted
}
