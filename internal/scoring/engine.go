// Package scoring grades responses and turns raw points into percentages.
// Every function is pure: callers load questions, options and responses and
// pass them in.
package scoring

import (
	"math"
	"strings"

	"github.com/SAP-F-2025/training-assessment-service/internal/models"
)

// Answer is one response paired with the question it answers.
type Answer struct {
	Question models.Question
	OptionID *uint
	Text     *string
}

// AnswerFromResponse builds an Answer from a response whose Question is
// preloaded. ok is false when the question is missing.
func AnswerFromResponse(r models.Response) (Answer, bool) {
	if r.Question == nil {
		return Answer{}, false
	}
	a := Answer{Question: *r.Question, OptionID: r.OptionID, Text: r.TextAnswer}
	if r.Option != nil && a.OptionID == nil {
		a.OptionID = &r.Option.ID
	}
	return a, true
}

func (a Answer) selectedOption() *models.Option {
	if a.OptionID == nil {
		return nil
	}
	for i := range a.Question.Options {
		if a.Question.Options[i].ID == *a.OptionID {
			return &a.Question.Options[i]
		}
	}
	return nil
}

// IsCorrect grades a single answer. It never fails: missing data is incorrect.
func IsCorrect(a Answer) bool {
	switch KindOf(a.Question.Type).(type) {
	case ChoiceKind:
		opt := a.selectedOption()
		return opt != nil && opt.IsCorrect
	case TextKind:
		if a.Text == nil {
			return false
		}
		given := normalize(*a.Text)
		if given == "" {
			return false
		}
		canonical := a.Question.CorrectOption()
		if canonical == nil {
			return false
		}
		return given == normalize(canonical.Text)
	default:
		return false
	}
}

// CorrectText is the canonical answer shown in reports, or nil.
func CorrectText(q models.Question) *string {
	opt := q.CorrectOption()
	if opt == nil {
		return nil
	}
	text := opt.Text
	return &text
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Score sums the points of every correct answer. Missing points count as zero.
func Score(answers []Answer) float64 {
	var score float64
	for _, a := range answers {
		if IsCorrect(a) {
			score += float64(a.Question.PointsOrZero())
		}
	}
	return score
}

// TotalMarks sums question points over a whole assessment. A zero sum becomes
// 1 so percentages never divide by zero.
func TotalMarks(points []*int) float64 {
	var total float64
	for _, p := range points {
		if p != nil {
			total += float64(*p)
		}
	}
	if total == 0 {
		return 1
	}
	return total
}

// Percentage is round(score / total * 100) with a zero total treated as 1.
func Percentage(score, total float64) int {
	if total <= 0 {
		total = 1
	}
	return int(math.Round(score / total * 100))
}

// Round1 rounds to one decimal place.
func Round1(v float64) float64 {
	return math.Round(v*10) / 10
}
