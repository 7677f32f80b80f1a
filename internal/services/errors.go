package services

import (
	"errors"
	"fmt"
)

// Attempt errors
var (
	ErrAttemptNotFound         = errors.New("attempt not found")
	ErrAttemptAlreadySubmitted = errors.New("attempt already submitted")
	ErrAssessmentNotFound      = errors.New("assessment not found")
	ErrQuestionNotFound        = errors.New("question not found")
	ErrQuestionNotInAssessment = errors.New("question does not belong to the attempt's assessment")
)

// Workflow errors
var (
	ErrStudentNotFound         = errors.New("student profile not found")
	ErrNotAStudent             = errors.New("caller is not a student")
	ErrStudentInTraining       = errors.New("student is in training; the final assessment is not open yet")
	ErrProgrammeCompleted      = errors.New("programme already completed")
	ErrNoAssessmentsConfigured = errors.New("no assessments configured")
	ErrFinalNotConfigured      = errors.New("final assessment not configured")
	ErrInvalidStageTransition  = errors.New("invalid stage transition")
)

// Generic errors
var (
	ErrTenantRequired   = errors.New("tenant context required")
	ErrValidationFailed = errors.New("validation failed")
	ErrUnauthorized     = errors.New("unauthorized")
	ErrForbidden        = errors.New("forbidden")
	ErrConflict         = errors.New("conflict")
)

// PermissionError describes an action a caller is not allowed to take. It
// matches ErrForbidden with errors.Is.
type PermissionError struct {
	UserID     string
	ResourceID uint
	Resource   string
	Action     string
	Reason     string
}

func NewPermissionError(userID string, resourceID uint, resource, action, reason string) *PermissionError {
	return &PermissionError{
		UserID:     userID,
		ResourceID: resourceID,
		Resource:   resource,
		Action:     action,
		Reason:     reason,
	}
}

func (e *PermissionError) Error() string {
	return fmt.Sprintf("user %s cannot %s %s %d: %s", e.UserID, e.Action, e.Resource, e.ResourceID, e.Reason)
}

func (e *PermissionError) Unwrap() error {
	return ErrForbidden
}

// BusinessRuleError reports a broken workflow rule. Err is the sentinel the
// handler maps to a status code.
type BusinessRuleError struct {
	Rule    string
	Message string
	Err     error
}

func NewBusinessRuleError(rule, message string, err error) *BusinessRuleError {
	return &BusinessRuleError{Rule: rule, Message: message, Err: err}
}

func (e *BusinessRuleError) Error() string {
	return fmt.Sprintf("%s: %s", e.Rule, e.Message)
}

func (e *BusinessRuleError) Unwrap() error {
	if e.Err == nil {
		return ErrConflict
	}
	return e.Err
}
