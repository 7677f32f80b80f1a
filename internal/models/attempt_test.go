package models

import (
	"slices"
	"testing"
)

func TestAttemptMetaKeepsFilterAndRole(t *testing.T) {
	var a Attempt
	a.WithWorkflowRole(WorkflowRoleFinal)
	a.WithModuleFilter(NewAdaptiveModuleFilter([]uint{7, 3, 7}))

	if got := a.WorkflowRole(); got != WorkflowRoleFinal {
		t.Errorf("WorkflowRole() = %q, want %q", got, WorkflowRoleFinal)
	}
	if f := a.ModuleFilter(); f == nil || !slices.Equal(f.ModuleIDs, []uint{3, 7}) {
		t.Errorf("ModuleFilter() = %+v, want [3 7]", f)
	}

	a.WithModuleFilter(nil)
	if f := a.ModuleFilter(); f != nil {
		t.Errorf("ModuleFilter() after clear = %+v, want nil", f)
	}
	if got := a.WorkflowRole(); got != WorkflowRoleFinal {
		t.Errorf("WorkflowRole() after clearing the filter = %q", got)
	}
}

func TestAttemptMetaMalformed(t *testing.T) {
	a := Attempt{Meta: []byte("{not json")}
	if a.ModuleFilter() != nil || a.WorkflowRole() != "" {
		t.Errorf("malformed meta decoded as filter %+v role %q", a.ModuleFilter(), a.WorkflowRole())
	}
}
