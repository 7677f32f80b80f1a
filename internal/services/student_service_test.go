package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/SAP-F-2025/training-assessment-service/internal/models"
)

func TestStudentDashboardBeforeStart(t *testing.T) {
	h := newHarness(t)

	dashboard, err := h.services.Student().GetStudentDashboard(context.Background(), h.student())
	if err != nil {
		t.Fatalf("GetStudentDashboard() error = %v", err)
	}

	if dashboard.Stage != models.StatusReadyForBaseline {
		t.Errorf("stage = %s, want %s", dashboard.Stage, models.StatusReadyForBaseline)
	}
	if dashboard.NextAction.Label != "Start Baseline Assessment" || dashboard.NextAction.Status != ActionOpen {
		t.Errorf("next action = %+v", dashboard.NextAction)
	}
	if dashboard.ActiveModule == nil {
		t.Fatal("active module missing")
	}
	if dashboard.ActiveModule.ModuleNumber != 1 || dashboard.ActiveModule.TotalModules != 2 || dashboard.ActiveModule.Status != "not_started" {
		t.Errorf("active module = %+v", dashboard.ActiveModule)
	}
	if len(dashboard.MyQueue.Upcoming) != 2 || len(dashboard.MyQueue.Submitted) != 0 {
		t.Errorf("queue = %+v", dashboard.MyQueue)
	}
	if dashboard.AggregateScore != nil {
		t.Errorf("aggregate score = %d, want nil", *dashboard.AggregateScore)
	}

	baseline := dashboard.Assessments[0]
	if baseline.Availability != "open" || baseline.DueAt == nil {
		t.Errorf("baseline = %+v, want open with a due date", baseline)
	}
}

func TestStudentDashboardAfterBaseline(t *testing.T) {
	h := newHarness(t)
	tc := h.student()
	h.completeBaseline(t, tc)

	dashboard, err := h.services.Student().GetStudentDashboard(context.Background(), tc)
	if err != nil {
		t.Fatalf("GetStudentDashboard() error = %v", err)
	}

	if dashboard.Stage != models.StatusInTraining {
		t.Errorf("stage = %s, want %s", dashboard.Stage, models.StatusInTraining)
	}
	if dashboard.NextAction.Status != ActionLocked {
		t.Errorf("next action = %+v, want locked", dashboard.NextAction)
	}
	if dashboard.ActiveModule != nil {
		t.Errorf("active module = %+v, want nil while in training", dashboard.ActiveModule)
	}
	if dashboard.AggregateScore == nil || *dashboard.AggregateScore != 25 {
		t.Errorf("aggregate score = %v, want 25", dashboard.AggregateScore)
	}

	if len(dashboard.MyQueue.Submitted) != 2 {
		t.Fatalf("submitted queue = %+v, want two modules", dashboard.MyQueue.Submitted)
	}
	if got := dashboard.MyQueue.Submitted[0].Title; got != "Quantitative Aptitude (Baseline Assessment)" {
		t.Errorf("queue title = %q", got)
	}

	for _, m := range dashboard.Assessments[0].Modules {
		if m.Status != ModuleComplete || m.Score == nil {
			t.Errorf("baseline module %+v, want complete with a score", m)
		}
	}
	for _, m := range dashboard.Assessments[1].Modules {
		if m.Status != ModuleIncomplete || m.Score != nil {
			t.Errorf("final module %+v, want incomplete without a score", m)
		}
	}

	if len(dashboard.Comparisons) != 2 {
		t.Fatalf("comparisons = %+v", dashboard.Comparisons)
	}
	quant, verbal := dashboard.Comparisons[0], dashboard.Comparisons[1]
	if quant.Module != 1 || quant.Baseline == nil || *quant.Baseline != 0 || quant.Final != nil {
		t.Errorf("quant comparison = %+v", quant)
	}
	if verbal.Module != 2 || verbal.Baseline == nil || *verbal.Baseline != 50 {
		t.Errorf("verbal comparison = %+v", verbal)
	}
}

func TestStudentDashboardRequiresStudent(t *testing.T) {
	h := newHarness(t)

	if _, err := h.services.Student().GetStudentDashboard(context.Background(), h.admin()); !errors.Is(err, ErrNotAStudent) {
		t.Errorf("GetStudentDashboard() as admin error = %v, want ErrNotAStudent", err)
	}

	ghost := h.student()
	id := uint(9999)
	ghost.StudentID = &id
	if _, err := h.services.Student().GetStudentDashboard(context.Background(), ghost); !errors.Is(err, ErrStudentNotFound) {
		t.Errorf("GetStudentDashboard() for unknown student error = %v, want ErrStudentNotFound", err)
	}
}

func TestNextAction(t *testing.T) {
	tests := []struct {
		stage      models.TrainingStatus
		wantStatus string
		wantHref   bool
	}{
		{models.StatusReadyForBaseline, ActionOpen, true},
		{models.StatusBaselineInProgress, ActionOpen, true},
		{models.StatusInTraining, ActionLocked, false},
		{models.StatusReadyForFinal, ActionOpen, true},
		{models.StatusFinalInProgress, ActionOpen, true},
		{models.StatusCompleted, ActionCompleted, false},
	}
	for _, tt := range tests {
		t.Run(string(tt.stage), func(t *testing.T) {
			got := nextAction(tt.stage)
			if got.Status != tt.wantStatus {
				t.Errorf("status = %q, want %q", got.Status, tt.wantStatus)
			}
			if (got.Href != "") != tt.wantHref {
				t.Errorf("href = %q", got.Href)
			}
		})
	}
}

func TestDashboardStageKeepsTraining(t *testing.T) {
	now := time.Now()
	baseline := &models.Attempt{SubmittedAt: &now}

	if got := dashboardStage(models.StatusInTraining, baseline, nil); got != models.StatusInTraining {
		t.Errorf("dashboardStage(in_training) = %s", got)
	}
	if got := dashboardStage(models.StatusReadyForFinal, baseline, nil); got != models.StatusReadyForFinal {
		t.Errorf("dashboardStage(ready_for_final) = %s", got)
	}
	if got := dashboardStage("", nil, nil); got != models.StatusReadyForBaseline {
		t.Errorf("dashboardStage(unset) = %s", got)
	}
}
