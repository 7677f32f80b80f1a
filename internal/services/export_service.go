package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/xuri/excelize/v2"

	"github.com/SAP-F-2025/training-assessment-service/internal/models"
)

const (
	sheetSummary  = "Summary"
	sheetTrend    = "Trend"
	sheetWeak     = "Weak Points"
	sheetStudents = "Students"
	sheetHistory  = "History"
)

// exportService renders report views to XLSX workbooks
type exportService struct {
	reports ReportService
	logger  *slog.Logger
}

func NewExportService(reports ReportService, logger *slog.Logger) ExportService {
	return &exportService{
		reports: reports,
		logger:  logger,
	}
}

func (s *exportService) ExportOverview(ctx context.Context, tc models.TenantContext, timeRange string) ([]byte, error) {
	overview, err := s.reports.Overview(ctx, tc, timeRange)
	if err != nil {
		return nil, err
	}

	wb, err := newWorkbook(sheetSummary)
	if err != nil {
		return nil, err
	}
	defer wb.close(s.logger)

	summary := [][]interface{}{
		{"Time range", overview.TimeRange},
		{"Total students", overview.KPIs.TotalStudents},
		{"Active now", overview.KPIs.ActiveNow},
		{"Average performance (%)", overview.KPIs.AvgPerformance},
		{"At-risk students", overview.KPIs.AtRiskCount},
	}
	if err := wb.table(sheetSummary, []interface{}{"Metric", "Value"}, summary); err != nil {
		return nil, err
	}

	trend := make([][]interface{}, 0, len(overview.Trend))
	for _, p := range overview.Trend {
		trend = append(trend, []interface{}{p.Date, p.AvgScore, p.Attempts})
	}
	if err := wb.table(sheetTrend, []interface{}{"Date", "Average score", "Attempts"}, trend); err != nil {
		return nil, err
	}

	if err := wb.table(sheetWeak, weakPointHeader, weakPointRows(overview.WeakPoints)); err != nil {
		return nil, err
	}

	students := make([][]interface{}, 0, len(overview.StudentPerformances))
	for _, p := range overview.StudentPerformances {
		lastActive := ""
		if p.LastActive != nil {
			lastActive = p.LastActive.Format(historyDateLayout)
		}
		students = append(students, []interface{}{p.Name, p.RegNo, p.TotalAttempts, p.AvgScore, lastActive, p.Status})
	}
	if err := wb.table(sheetStudents, []interface{}{"Name", "Reg. no", "Attempts", "Average score", "Last active", "Status"}, students); err != nil {
		return nil, err
	}

	return wb.bytes()
}

func (s *exportService) ExportStudentReport(ctx context.Context, tc models.TenantContext, studentID uint) ([]byte, error) {
	report, err := s.reports.StudentReport(ctx, tc, studentID)
	if err != nil {
		return nil, err
	}

	wb, err := newWorkbook(sheetSummary)
	if err != nil {
		return nil, err
	}
	defer wb.close(s.logger)

	email := ""
	if report.Student.Email != nil {
		email = *report.Student.Email
	}
	summary := [][]interface{}{
		{"Name", report.Student.Name},
		{"Reg. no", report.Student.RegNo},
		{"Email", email},
		{"Joined", report.Student.JoinedAt},
		{"Training status", string(report.Student.TrainingStatus)},
		{"Average score (%)", report.Stats.AvgScore},
		{"Attempts", report.Stats.TotalAttempts},
		{"Percentile", report.Stats.Percentile},
		{"Status", report.Stats.Status},
	}
	if err := wb.table(sheetSummary, []interface{}{"Field", "Value"}, summary); err != nil {
		return nil, err
	}

	history := make([][]interface{}, 0, len(report.History))
	for _, h := range report.History {
		date := ""
		if h.Date != nil {
			date = *h.Date
		}
		history = append(history, []interface{}{h.Assessment, date, floatOrBlank(h.ScoreObtained), floatOrBlank(h.TotalMarks), h.Score, h.CohortAvg, h.Duration})
	}
	if err := wb.table(sheetHistory, []interface{}{"Assessment", "Date", "Score", "Total marks", "Percentage", "Cohort average", "Duration"}, history); err != nil {
		return nil, err
	}

	if err := wb.table(sheetWeak, weakPointHeader, weakPointRows(report.WeakPoints)); err != nil {
		return nil, err
	}

	return wb.bytes()
}

var weakPointHeader = []interface{}{"Topic", "Average score", "Responses", "Difficulty"}

func weakPointRows(points []models.WeakPoint) [][]interface{} {
	rows := make([][]interface{}, 0, len(points))
	for _, w := range points {
		rows = append(rows, []interface{}{w.Topic, w.AvgScore, w.TotalAttempts, w.DifficultyIndex})
	}
	return rows
}

func floatOrBlank(v *float64) interface{} {
	if v == nil {
		return ""
	}
	return *v
}

// ===== WORKBOOK =====

type workbook struct {
	file   *excelize.File
	header int
	first  string
}

// newWorkbook renames the default sheet to first
func newWorkbook(first string) (*workbook, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", first); err != nil {
		return nil, fmt.Errorf("failed to name sheet: %w", err)
	}
	header, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, fmt.Errorf("failed to create header style: %w", err)
	}
	return &workbook{file: f, header: header, first: first}, nil
}

// table writes a bold header row followed by rows, creating the sheet when
// needed
func (w *workbook) table(sheet string, header []interface{}, rows [][]interface{}) error {
	if sheet != w.first {
		if _, err := w.file.NewSheet(sheet); err != nil {
			return fmt.Errorf("failed to create sheet %s: %w", sheet, err)
		}
	}

	if err := w.file.SetSheetRow(sheet, "A1", &header); err != nil {
		return fmt.Errorf("failed to write header of %s: %w", sheet, err)
	}
	if err := w.file.SetRowStyle(sheet, 1, 1, w.header); err != nil {
		return fmt.Errorf("failed to style header of %s: %w", sheet, err)
	}

	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := w.file.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("failed to write row %d of %s: %w", i+2, sheet, err)
		}
	}
	return nil
}

func (w *workbook) bytes() ([]byte, error) {
	buf, err := w.file.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to render workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func (w *workbook) close(logger *slog.Logger) {
	if err := w.file.Close(); err != nil {
		logger.Warn("Failed to close workbook", "error", err)
	}
}
