// Package testutil builds an on-disk sqlite database seeded with a small
// two-assessment programme for repository and service tests.
package testutil

import (
	"path/filepath"
	"testing"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/SAP-F-2025/training-assessment-service/internal/models"
	"github.com/SAP-F-2025/training-assessment-service/internal/repositories/postgres"
)

// NewTestDB opens a migrated sqlite database that lives for the test
func NewTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "test.db")), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	// sqlite allows one writer at a time
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	if err := postgres.Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

// Question is a seeded question with the ids of its options
type Question struct {
	ID        uint
	Correct   uint
	Incorrect uint
}

// Programme is the seeded data of tenant 1
type Programme struct {
	TenantID      uint
	OtherTenantID uint
	CollegeID     uint

	Student      models.Student
	OtherStudent models.Student

	Baseline models.Assessment
	Final    models.Assessment

	// Baseline "Quantitative Aptitude": two MCQ worth 5 points each
	BaselineQuant []Question
	// Baseline "Verbal Ability": one MCQ and one TEXT, 5 points each
	BaselineVerbalMCQ  Question
	BaselineVerbalText Question

	FinalQuantModule  uint
	FinalVerbalModule uint
	FinalQuant        Question
	FinalVerbal       Question

	// A question of another tenant
	ForeignQuestion Question
}

// SeedProgramme creates two tenants. Tenant 1 owns a Baseline and a Final
// assessment with matching module titles and codes.
func SeedProgramme(t *testing.T, db *gorm.DB) Programme {
	t.Helper()

	p := Programme{TenantID: 1, OtherTenantID: 2}
	must := func(err error) {
		t.Helper()
		if err != nil {
			t.Fatalf("seed: %v", err)
		}
	}

	must(db.Create(&models.Tenant{ID: p.TenantID, Name: "North", Slug: "north"}).Error)
	must(db.Create(&models.Tenant{ID: p.OtherTenantID, Name: "South", Slug: "south"}).Error)

	college := models.College{TenantID: p.TenantID, Name: "City College"}
	must(db.Create(&college).Error)
	p.CollegeID = college.ID

	userID, otherUserID := "user-1", "user-2"
	email := "asha@example.com"
	p.Student = models.Student{
		TenantID:       p.TenantID,
		UserID:         &userID,
		CollegeID:      &college.ID,
		RegNo:          "REG001",
		Name:           "Asha Rao",
		Email:          &email,
		TrainingStatus: models.StatusReadyForBaseline,
	}
	must(db.Create(&p.Student).Error)
	p.OtherStudent = models.Student{
		TenantID:       p.TenantID,
		UserID:         &otherUserID,
		CollegeID:      &college.ID,
		RegNo:          "REG002",
		Name:           "Ravi Kumar",
		TrainingStatus: models.StatusReadyForBaseline,
	}
	must(db.Create(&p.OtherStudent).Error)

	now := time.Now()
	p.Baseline = models.Assessment{TenantID: p.TenantID, Title: "Baseline Assessment", Order: 1, IsActive: true}
	must(db.Create(&p.Baseline).Error)
	p.Final = models.Assessment{TenantID: p.TenantID, Title: "Final Assessment", Order: 2, IsActive: true}
	must(db.Create(&p.Final).Error)

	quant, verbal := "QA", "VA"
	endAt := now.Add(48 * time.Hour)
	baseQuant := createModule(t, db, p.TenantID, p.Baseline.ID, "Quantitative Aptitude", &quant, 1, &endAt)
	baseVerbal := createModule(t, db, p.TenantID, p.Baseline.ID, "Verbal Ability", &verbal, 2, nil)
	p.FinalQuantModule = createModule(t, db, p.TenantID, p.Final.ID, "Quantitative Aptitude", &quant, 1, nil)
	p.FinalVerbalModule = createModule(t, db, p.TenantID, p.Final.ID, "Verbal Ability", &verbal, 2, nil)

	p.BaselineQuant = []Question{
		createChoice(t, db, p.TenantID, baseQuant, "2 + 2?", "4", "5", "Arithmetic"),
		createChoice(t, db, p.TenantID, baseQuant, "3 * 3?", "9", "6", "Arithmetic"),
	}
	p.BaselineVerbalMCQ = createChoice(t, db, p.TenantID, baseVerbal, "Synonym of big?", "large", "tiny", "Vocabulary")
	p.BaselineVerbalText = createText(t, db, p.TenantID, baseVerbal, "Capital of France?", "  Paris  ")
	p.FinalQuant = createChoice(t, db, p.TenantID, p.FinalQuantModule, "10 / 2?", "5", "2", "Arithmetic")
	p.FinalVerbal = createChoice(t, db, p.TenantID, p.FinalVerbalModule, "Antonym of hot?", "cold", "warm", "Vocabulary")

	other := models.Assessment{TenantID: p.OtherTenantID, Title: "Other Baseline", Order: 1, IsActive: true}
	must(db.Create(&other).Error)
	otherModule := createModule(t, db, p.OtherTenantID, other.ID, "Quantitative Aptitude", nil, 1, nil)
	p.ForeignQuestion = createChoice(t, db, p.OtherTenantID, otherModule, "1 + 1?", "2", "3", "Arithmetic")

	return p
}

func createModule(t *testing.T, db *gorm.DB, tenantID, assessmentID uint, title string, code *string, order int, endAt *time.Time) uint {
	t.Helper()
	m := models.Module{
		TenantID:     tenantID,
		AssessmentID: assessmentID,
		Title:        title,
		Code:         code,
		Order:        order,
		Status:       models.ModuleOpen,
		EndAt:        endAt,
	}
	if err := db.Create(&m).Error; err != nil {
		t.Fatalf("seed module: %v", err)
	}
	return m.ID
}

func createChoice(t *testing.T, db *gorm.DB, tenantID, moduleID uint, stem, correct, incorrect, topic string) Question {
	t.Helper()
	points := 5
	q := models.Question{
		TenantID: tenantID,
		ModuleID: moduleID,
		Type:     models.QuestionMCQ,
		Stem:     stem,
		Points:   &points,
		Topic:    &topic,
		Options: []models.Option{
			{Label: "A", Text: correct, IsCorrect: true},
			{Label: "B", Text: incorrect},
		},
	}
	if err := db.Create(&q).Error; err != nil {
		t.Fatalf("seed question: %v", err)
	}
	return Question{ID: q.ID, Correct: q.Options[0].ID, Incorrect: q.Options[1].ID}
}

func createText(t *testing.T, db *gorm.DB, tenantID, moduleID uint, stem, canonical string) Question {
	t.Helper()
	points := 5
	q := models.Question{
		TenantID: tenantID,
		ModuleID: moduleID,
		Type:     models.QuestionText,
		Stem:     stem,
		Points:   &points,
		Options:  []models.Option{{Label: "A", Text: canonical, IsCorrect: true}},
	}
	if err := db.Create(&q).Error; err != nil {
		t.Fatalf("seed question: %v", err)
	}
	return Question{ID: q.ID, Correct: q.Options[0].ID}
}
