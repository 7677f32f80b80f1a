package services

import (
	"context"
	"fmt"
	"log/slog"

	"gorm.io/gorm"

	"github.com/SAP-F-2025/training-assessment-service/internal/models"
	"github.com/SAP-F-2025/training-assessment-service/internal/repositories"
	"github.com/SAP-F-2025/training-assessment-service/internal/scoring"
)

type gradingService struct {
	db     *gorm.DB
	repo   repositories.Repository
	logger *slog.Logger
}

func NewGradingService(db *gorm.DB, repo repositories.Repository, logger *slog.Logger) GradingService {
	return &gradingService{
		db:     db,
		repo:   repo,
		logger: logger,
	}
}

// answers loads the attempt's responses with their questions and pairs them
// for the score engine. Responses whose question disappeared are skipped.
func (s *gradingService) answers(ctx context.Context, tx *gorm.DB, attempt *models.Attempt) ([]scoring.Answer, error) {
	responses, err := s.repo.Response().ListByAttempt(ctx, tx, attempt.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load responses: %w", err)
	}

	answers := make([]scoring.Answer, 0, len(responses))
	for _, r := range responses {
		a, ok := scoring.AnswerFromResponse(r)
		if !ok {
			s.logger.Warn("Response without question skipped",
				"attempt_id", attempt.ID,
				"question_id", r.QuestionID)
			continue
		}
		answers = append(answers, a)
	}
	return answers, nil
}

func (s *gradingService) GradeAttempt(ctx context.Context, tx *gorm.DB, attempt *models.Attempt) (*GradeResult, error) {
	if tx == nil {
		tx = s.db
	}

	answers, err := s.answers(ctx, tx, attempt)
	if err != nil {
		return nil, err
	}

	points, err := s.repo.Assessment().QuestionPoints(ctx, tx, attempt.AssessmentID)
	if err != nil {
		return nil, err
	}

	result := &GradeResult{
		Score:      scoring.Score(answers),
		TotalMarks: scoring.TotalMarks(points),
		Answers:    answers,
	}
	result.Percentage = scoring.Percentage(result.Score, result.TotalMarks)

	s.logger.Debug("Attempt graded",
		"attempt_id", attempt.ID,
		"score", result.Score,
		"total_marks", result.TotalMarks,
		"answers", len(answers))

	return result, nil
}

func (s *gradingService) ModulePerformance(ctx context.Context, tx *gorm.DB, attempt *models.Attempt) ([]scoring.ModuleResult, error) {
	if tx == nil {
		tx = s.db
	}

	answers, err := s.answers(ctx, tx, attempt)
	if err != nil {
		return nil, err
	}

	modules, err := s.repo.Assessment().ListModules(ctx, tx, attempt.TenantID, attempt.AssessmentID)
	if err != nil {
		return nil, err
	}

	return scoring.ModulePerformance(modules, answers), nil
}
