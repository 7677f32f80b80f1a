package validator

import (
	"slices"

	"github.com/SAP-F-2025/training-assessment-service/internal/models"
	"github.com/go-playground/validator/v10"
)

// Timeframes accepted by the admin dashboard
var Timeframes = []string{"today", "7d", "30d"}

// ReportRanges accepted by the report overview
var ReportRanges = []string{"today", "7d", "30d", "all"}

// allowedStageTransitions lists every legal move of the training workflow.
// The workflow only moves forward.
var allowedStageTransitions = map[models.TrainingStatus][]models.TrainingStatus{
	models.StatusReadyForBaseline:   {models.StatusBaselineInProgress},
	models.StatusBaselineInProgress: {models.StatusInTraining},
	models.StatusInTraining:         {models.StatusReadyForFinal},
	models.StatusReadyForFinal:      {models.StatusFinalInProgress},
	models.StatusFinalInProgress:    {models.StatusCompleted},
	models.StatusCompleted:          {},
}

// BusinessValidator handles business rule validation
type BusinessValidator struct {
	validate *validator.Validate
}

// NewBusinessValidator creates a new business validator
func NewBusinessValidator() *BusinessValidator {
	validate := validator.New()

	bv := &BusinessValidator{validate: validate}
	bv.registerBusinessRules()

	return bv
}

// Validate validates business rules for any struct
func (bv *BusinessValidator) Validate(s interface{}) ValidationErrors {
	err := bv.validate.Struct(s)
	if err != nil {
		return ToValidationErrors(err)
	}
	return nil
}

// ValidateStageTransition checks a training status move against the workflow
func (bv *BusinessValidator) ValidateStageTransition(from, to models.TrainingStatus) ValidationErrors {
	from = from.Normalize()
	if slices.Contains(allowedStageTransitions[from], to) {
		return nil
	}
	return ValidationErrors{{
		Field:   "training_status",
		Message: "transition from " + string(from) + " to " + string(to) + " is not allowed",
		Value:   to,
		Rule:    "business_logic",
	}}
}

// ValidateAttemptWritable rejects changes to a submitted attempt
func (bv *BusinessValidator) ValidateAttemptWritable(attempt *models.Attempt) ValidationErrors {
	if !attempt.IsSubmitted() {
		return nil
	}
	return ValidationErrors{{
		Field:   "submitted_at",
		Message: "attempt has already been submitted",
		Value:   attempt.SubmittedAt,
		Rule:    "business_logic",
	}}
}

// registerBusinessRules registers custom business rule validators
func (bv *BusinessValidator) registerBusinessRules() {
	bv.validate.RegisterValidation("timeframe", func(fl validator.FieldLevel) bool {
		return slices.Contains(Timeframes, fl.Field().String())
	})

	bv.validate.RegisterValidation("report_range", func(fl validator.FieldLevel) bool {
		return slices.Contains(ReportRanges, fl.Field().String())
	})

	// A saved answer needs an option or a text answer
	bv.validate.RegisterStructValidation(func(sl validator.StructLevel) {
		req := sl.Current().Interface().(SaveProgressRequest)
		if req.OptionID == nil && req.TextAnswer == nil {
			sl.ReportError(req.OptionID, "option_id", "OptionID", "answer_present", "")
		}
	}, SaveProgressRequest{})
}
