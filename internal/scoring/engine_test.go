package scoring

import (
	"testing"

	"github.com/SAP-F-2025/training-assessment-service/internal/models"
)

func intPtr(v int) *int       { return &v }
func uintPtr(v uint) *uint    { return &v }
func strPtr(v string) *string { return &v }

func mcq(id uint, points int, correctOptionID uint, optionIDs ...uint) models.Question {
	q := models.Question{ID: id, Type: models.QuestionMCQ, Points: intPtr(points)}
	for _, oid := range optionIDs {
		q.Options = append(q.Options, models.Option{ID: oid, QuestionID: id, Text: "opt", IsCorrect: oid == correctOptionID})
	}
	return q
}

func TestKindOf(t *testing.T) {
	tests := []struct {
		in   models.QuestionType
		want Kind
	}{
		{in: models.QuestionMCQ, want: ChoiceKind{}},
		{in: models.QuestionBoolean, want: ChoiceKind{}},
		{in: models.QuestionText, want: TextKind{}},
		{in: "ESSAY", want: UnsupportedKind{Raw: "ESSAY"}},
		{in: "", want: UnsupportedKind{Raw: ""}},
	}
	for _, tt := range tests {
		t.Run(string(tt.in), func(t *testing.T) {
			if got := KindOf(tt.in); got != tt.want {
				t.Errorf("KindOf(%q) = %#v, want %#v", tt.in, got, tt.want)
			}
		})
	}
}

func TestIsCorrect(t *testing.T) {
	textQ := models.Question{
		ID:   10,
		Type: models.QuestionText,
		Options: []models.Option{
			{ID: 1, Text: "London"},
			{ID: 2, Text: "  Paris  ", IsCorrect: true},
		},
	}
	noCanonical := models.Question{ID: 11, Type: models.QuestionText, Options: []models.Option{{ID: 3, Text: "x"}}}
	boolQ := models.Question{ID: 12, Type: models.QuestionBoolean, Options: []models.Option{{ID: 4, Text: "True", IsCorrect: true}, {ID: 5, Text: "False"}}}

	tests := []struct {
		name   string
		answer Answer
		want   bool
	}{
		{name: "mcq correct option", answer: Answer{Question: mcq(1, 5, 100, 100, 101), OptionID: uintPtr(100)}, want: true},
		{name: "mcq wrong option", answer: Answer{Question: mcq(1, 5, 100, 100, 101), OptionID: uintPtr(101)}, want: false},
		{name: "mcq no selection", answer: Answer{Question: mcq(1, 5, 100, 100, 101)}, want: false},
		{name: "mcq option from another question", answer: Answer{Question: mcq(1, 5, 100, 100, 101), OptionID: uintPtr(999)}, want: false},
		{name: "boolean correct", answer: Answer{Question: boolQ, OptionID: uintPtr(4)}, want: true},
		{name: "boolean wrong", answer: Answer{Question: boolQ, OptionID: uintPtr(5)}, want: false},
		{name: "text trimmed and case folded", answer: Answer{Question: textQ, Text: strPtr("paris")}, want: true},
		{name: "text with surrounding spaces", answer: Answer{Question: textQ, Text: strPtr("  PARIS ")}, want: true},
		{name: "text wrong", answer: Answer{Question: textQ, Text: strPtr("london")}, want: false},
		{name: "text empty", answer: Answer{Question: textQ, Text: strPtr("   ")}, want: false},
		{name: "text missing", answer: Answer{Question: textQ}, want: false},
		{name: "text without canonical answer", answer: Answer{Question: noCanonical, Text: strPtr("x")}, want: false},
		{name: "unsupported type", answer: Answer{Question: models.Question{Type: "ESSAY", Options: []models.Option{{ID: 7, IsCorrect: true}}}, OptionID: uintPtr(7)}, want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsCorrect(tt.answer); got != tt.want {
				t.Errorf("IsCorrect() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestScoreAndPercentage(t *testing.T) {
	// Two MCQ worth 5 each; first answered correctly, second wrong.
	q1 := mcq(1, 5, 11, 11, 12)
	q2 := mcq(2, 5, 21, 21, 22)
	answers := []Answer{
		{Question: q1, OptionID: uintPtr(11)},
		{Question: q2, OptionID: uintPtr(22)},
	}

	score := Score(answers)
	if score != 5 {
		t.Fatalf("Score() = %v, want 5", score)
	}

	total := TotalMarks([]*int{q1.Points, q2.Points})
	if total != 10 {
		t.Fatalf("TotalMarks() = %v, want 10", total)
	}

	if pct := Percentage(score, total); pct != 50 {
		t.Errorf("Percentage() = %d, want 50", pct)
	}
}

func TestScoreIgnoresMissingPoints(t *testing.T) {
	q := mcq(1, 0, 11, 11)
	q.Points = nil
	if got := Score([]Answer{{Question: q, OptionID: uintPtr(11)}}); got != 0 {
		t.Errorf("Score() = %v, want 0", got)
	}
}

func TestTotalMarks(t *testing.T) {
	tests := []struct {
		name   string
		points []*int
		want   float64
	}{
		{name: "empty assessment", points: nil, want: 1},
		{name: "all nil points", points: []*int{nil, nil}, want: 1},
		{name: "zero points", points: []*int{intPtr(0)}, want: 1},
		{name: "mixed", points: []*int{intPtr(2), nil, intPtr(3)}, want: 5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := TotalMarks(tt.points); got != tt.want {
				t.Errorf("TotalMarks() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestPercentageZeroTotal(t *testing.T) {
	if got := Percentage(0, 0); got != 0 {
		t.Errorf("Percentage(0, 0) = %d, want 0", got)
	}
	if got := Percentage(1, 3); got != 33 {
		t.Errorf("Percentage(1, 3) = %d, want 33", got)
	}
}

func TestAnswerFromResponse(t *testing.T) {
	if _, ok := AnswerFromResponse(models.Response{QuestionID: 1}); ok {
		t.Fatal("expected missing question to be rejected")
	}

	q := mcq(1, 2, 5, 5, 6)
	a, ok := AnswerFromResponse(models.Response{QuestionID: 1, Question: &q, Option: &q.Options[0]})
	if !ok {
		t.Fatal("expected answer")
	}
	if !IsCorrect(a) {
		t.Error("expected option from preloaded relation to be graded correct")
	}
}
