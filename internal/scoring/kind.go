package scoring

import "github.com/SAP-F-2025/training-assessment-service/internal/models"

// Kind is the closed set of question kinds the engine knows how to grade.
// New kinds must be added here and to Grade; there is no other extension point.
type Kind interface {
	kind()
}

// ChoiceKind covers MCQ and BOOLEAN questions: correct when the selected
// option is flagged correct.
type ChoiceKind struct{}

// TextKind is correct when the answer equals the canonical option text after
// trimming and case folding.
type TextKind struct{}

// UnsupportedKind carries an unknown stored type. It is always graded incorrect.
type UnsupportedKind struct {
	Raw models.QuestionType
}

func (ChoiceKind) kind()      {}
func (TextKind) kind()        {}
func (UnsupportedKind) kind() {}

// KindOf maps the stored question type onto the closed variant.
func KindOf(t models.QuestionType) Kind {
	switch t {
	case models.QuestionMCQ, models.QuestionBoolean:
		return ChoiceKind{}
	case models.QuestionText:
		return TextKind{}
	default:
		return UnsupportedKind{Raw: t}
	}
}
