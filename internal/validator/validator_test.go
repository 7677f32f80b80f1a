package validator

import (
	"errors"
	"testing"

	"github.com/SAP-F-2025/training-assessment-service/internal/models"
)

func TestValidateSaveProgressRequest(t *testing.T) {
	v := New()
	optionID := uint(3)
	text := "paris"

	tests := []struct {
		name    string
		req     SaveProgressRequest
		wantErr bool
		rule    string
	}{
		{name: "option answer", req: SaveProgressRequest{QuestionID: 1, OptionID: &optionID}},
		{name: "text answer", req: SaveProgressRequest{QuestionID: 1, TextAnswer: &text}},
		{name: "missing question", req: SaveProgressRequest{OptionID: &optionID}, wantErr: true, rule: "required"},
		{name: "no answer", req: SaveProgressRequest{QuestionID: 1}, wantErr: true, rule: "answer_present"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.Validate(tt.req)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr {
				return
			}
			var verrs ValidationErrors
			if !errors.As(err, &verrs) {
				t.Fatalf("expected ValidationErrors, got %T", err)
			}
			if verrs[0].Rule != tt.rule {
				t.Errorf("rule = %q, want %q", verrs[0].Rule, tt.rule)
			}
		})
	}
}

func TestValidateQueries(t *testing.T) {
	v := New()

	if err := v.Validate(AdminDashboardQuery{Timeframe: "7d"}); err != nil {
		t.Errorf("unexpected error for 7d: %v", err)
	}
	if err := v.Validate(AdminDashboardQuery{}); err != nil {
		t.Errorf("empty timeframe should fall back to default: %v", err)
	}
	if err := v.Validate(AdminDashboardQuery{Timeframe: "all"}); err == nil {
		t.Error("expected dashboard to reject all")
	}
	if err := v.Validate(ReportOverviewQuery{TimeRange: "all"}); err != nil {
		t.Errorf("unexpected error for all: %v", err)
	}
	if err := v.Validate(ReportOverviewQuery{TimeRange: "90d"}); err == nil {
		t.Error("expected report to reject 90d")
	}
}

func TestCustomTagMessages(t *testing.T) {
	v := New()

	tests := []struct {
		name string
		in   interface{}
		rule string
		want string
	}{
		{"timeframe", AdminDashboardQuery{Timeframe: "90d"}, "timeframe", "must be one of today, 7d, 30d"},
		{"report range", ReportOverviewQuery{TimeRange: "90d"}, "report_range", "must be one of today, 7d, 30d, all"},
		{"answer present", SaveProgressRequest{QuestionID: 1}, "answer_present", "option_id or text_answer is required"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var verrs ValidationErrors
			if !errors.As(v.Validate(tt.in), &verrs) || len(verrs) != 1 {
				t.Fatalf("errors = %v, want one", verrs)
			}
			if verrs[0].Rule != tt.rule || verrs[0].Message != tt.want {
				t.Errorf("error = %+v, want rule %q message %q", verrs[0], tt.rule, tt.want)
			}
		})
	}
}

func TestValidateStageTransition(t *testing.T) {
	bv := NewBusinessValidator()

	tests := []struct {
		from, to models.TrainingStatus
		ok       bool
	}{
		{from: "", to: models.StatusBaselineInProgress, ok: true},
		{from: models.StatusReadyForBaseline, to: models.StatusBaselineInProgress, ok: true},
		{from: models.StatusBaselineInProgress, to: models.StatusInTraining, ok: true},
		{from: models.StatusInTraining, to: models.StatusReadyForFinal, ok: true},
		{from: models.StatusReadyForFinal, to: models.StatusFinalInProgress, ok: true},
		{from: models.StatusFinalInProgress, to: models.StatusCompleted, ok: true},
		{from: models.StatusCompleted, to: models.StatusReadyForBaseline, ok: false},
		{from: models.StatusInTraining, to: models.StatusBaselineInProgress, ok: false},
		{from: models.StatusReadyForBaseline, to: models.StatusReadyForFinal, ok: false},
	}
	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			errs := bv.ValidateStageTransition(tt.from, tt.to)
			if (len(errs) == 0) != tt.ok {
				t.Errorf("ValidateStageTransition() = %v, want ok=%v", errs, tt.ok)
			}
		})
	}
}
