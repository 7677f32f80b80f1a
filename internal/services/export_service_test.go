package services

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/xuri/excelize/v2"
)

func openWorkbook(t *testing.T, data []byte) *excelize.File {
	t.Helper()
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("open workbook: %v", err)
	}
	t.Cleanup(func() { f.Close() })
	return f
}

func TestExportOverview(t *testing.T) {
	h := newHarness(t)
	seedCohort(t, h)

	data, err := h.services.Export().ExportOverview(context.Background(), h.admin(), "all")
	if err != nil {
		t.Fatalf("ExportOverview() error = %v", err)
	}
	f := openWorkbook(t, data)

	want := []string{sheetSummary, sheetTrend, sheetWeak, sheetStudents}
	got := f.GetSheetList()
	if len(got) != len(want) {
		t.Fatalf("sheets = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("sheet %d = %q, want %q", i, got[i], want[i])
		}
	}

	rows, err := f.GetRows(sheetStudents)
	if err != nil {
		t.Fatalf("read students: %v", err)
	}
	// header plus two students
	if len(rows) != 3 || rows[0][0] != "Name" {
		t.Errorf("students sheet = %v", rows)
	}

	total, err := f.GetCellValue(sheetSummary, "B3")
	if err != nil {
		t.Fatalf("read summary: %v", err)
	}
	if total != "2" {
		t.Errorf("total students cell = %q, want 2", total)
	}
}

func TestExportStudentReport(t *testing.T) {
	h := newHarness(t)
	seedCohort(t, h)

	data, err := h.services.Export().ExportStudentReport(context.Background(), h.admin(), h.p.Student.ID)
	if err != nil {
		t.Fatalf("ExportStudentReport() error = %v", err)
	}
	f := openWorkbook(t, data)

	rows, err := f.GetRows(sheetHistory)
	if err != nil {
		t.Fatalf("read history: %v", err)
	}
	if len(rows) != 2 || rows[1][0] != h.p.Baseline.Title {
		t.Errorf("history sheet = %v", rows)
	}

	name, err := f.GetCellValue(sheetSummary, "B2")
	if err != nil {
		t.Fatalf("read summary: %v", err)
	}
	if name != h.p.Student.Name {
		t.Errorf("name cell = %q, want %q", name, h.p.Student.Name)
	}
}

func TestExportRequiresAdmin(t *testing.T) {
	h := newHarness(t)

	if _, err := h.services.Export().ExportOverview(context.Background(), h.student(), "7d"); !errors.Is(err, ErrForbidden) {
		t.Errorf("ExportOverview() as student error = %v, want ErrForbidden", err)
	}
}
