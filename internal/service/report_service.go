package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/sala-digital/attendance-api/internal/attendance"
	"github.com/sala-digital/attendance-api/internal/dto"
	"github.com/sala-digital/attendance-api/internal/models"
	appErrors "github.com/sala-digital/attendance-api/pkg/errors"
	"github.com/sala-digital/attendance-api/pkg/export"
)

// ExportFormat enumerates report download formats.
type ExportFormat string

const (
	ExportCSV ExportFormat = "csv"
	ExportPDF ExportFormat = "pdf"
)

// ContentType returns the MIME type for the format.
func (f ExportFormat) ContentType() string {
	if f == ExportPDF {
		return "application/pdf"
	}
	return "text/csv"
}

// ReportService builds monthly absence and late summaries per student.
type ReportService struct {
	events    attendanceEventRepository
	roster    rosterRepository
	config    engineConfigSource
	csv       *export.CSVExporter
	pdf       *export.PDFExporter
	logger    *zap.Logger
	policy    attendance.Policy
	maxMonths int
	now       func() time.Time
}

// NewReportService constructs the report service.
func NewReportService(events attendanceEventRepository, roster rosterRepository, config engineConfigSource, logger *zap.Logger, policy attendance.Policy, maxMonths int) *ReportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if maxMonths <= 0 {
		maxMonths = 12
	}
	return &ReportService{
		events:    events,
		roster:    roster,
		config:    config,
		csv:       export.NewCSVExporter(),
		pdf:       export.NewPDFExporter(),
		logger:    logger,
		policy:    policy,
		maxMonths: maxMonths,
		now:       time.Now,
	}
}

func parseMonth(value string, loc *time.Location) (time.Time, error) {
	parts := strings.SplitN(value, "-", 2)
	if len(parts) != 2 {
		return time.Time{}, fmt.Errorf("expected YYYY-MM")
	}
	year, err := strconv.Atoi(parts[0])
	if err != nil || year < 2000 || year > 2200 {
		return time.Time{}, fmt.Errorf("invalid year")
	}
	month, err := strconv.Atoi(parts[1])
	if err != nil || month < 1 || month > 12 {
		return time.Time{}, fmt.Errorf("invalid month")
	}
	return time.Date(year, time.Month(month), 1, 0, 0, 0, 0, loc), nil
}

// Monthly computes per-student absence and late aggregates for one month,
// optionally restricted to a class and shift.
func (s *ReportService) Monthly(ctx context.Context, month, classKey, shiftKey string) (*dto.MonthlyReportResponse, error) {
	first, err := parseMonth(month, s.policy.Location)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "invalid month, expected YYYY-MM")
	}

	now := s.now().In(s.policy.Location)
	oldest := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, s.policy.Location).AddDate(0, -s.maxMonths, 0)
	if first.Before(oldest) {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("month is older than the %d month report horizon", s.maxMonths))
	}

	active := true
	students, _, err := s.roster.List(ctx, models.StudentFilter{ClassKey: classKey, ShiftKey: shiftKey, Active: &active, PageSize: 500})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load roster")
	}

	ids := make([]string, 0, len(students))
	for _, student := range students {
		ids = append(ids, student.ID)
	}
	last := first.AddDate(0, 1, -1)
	eventsByStudent, err := s.events.ListForStudents(ctx, ids, attendance.DateKey(first), attendance.DateKey(last))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load events")
	}

	schedules, holidays, err := s.config.EngineConfig(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load class configuration")
	}

	rows := make([]dto.MonthlyReportRow, 0, len(students))
	for _, student := range students {
		sub := subjectFor(&student)
		events := engineEvents(eventsByStudent[student.ID])

		absences := attendance.MonthlyAbsences(sub, events, first.Year(), first.Month(), schedules, holidays, s.policy, now)
		lates := attendance.MonthlyLates(sub, events, first.Year(), first.Month(), s.policy, now)

		rows = append(rows, dto.MonthlyReportRow{
			StudentID:      student.ID,
			FullName:       student.FullName,
			ClassKey:       student.ClassKey,
			ShiftKey:       student.ShiftKey,
			ApplicableDays: absences.ApplicableDays,
			AbsenceCount:   absences.Count,
			AbsentDates:    absences.AbsentDates,
			LateCount:      lates.Count,
			LateDates:      lates.Dates,
			ConfigMissing:  absences.ConfigMissing,
		})
	}

	return &dto.MonthlyReportResponse{Month: month, ClassKey: classKey, ShiftKey: shiftKey, Rows: rows}, nil
}

var reportHeaders = []string{"Student ID", "Name", "Class", "Shift", "Applicable Days", "Absences", "Lates"}

// ExportMonthly renders the monthly report as CSV or PDF bytes.
func (s *ReportService) ExportMonthly(ctx context.Context, month, classKey, shiftKey string, format ExportFormat) ([]byte, string, error) {
	report, err := s.Monthly(ctx, month, classKey, shiftKey)
	if err != nil {
		return nil, "", err
	}

	dataset := export.Dataset{Headers: reportHeaders}
	for _, row := range report.Rows {
		dataset.Rows = append(dataset.Rows, map[string]string{
			"Student ID":      row.StudentID,
			"Name":            row.FullName,
			"Class":           row.ClassKey,
			"Shift":           row.ShiftKey,
			"Applicable Days": strconv.Itoa(row.ApplicableDays),
			"Absences":        strconv.Itoa(row.AbsenceCount),
			"Lates":           strconv.Itoa(row.LateCount),
		})
	}

	name := "attendance-" + month
	if classKey != "" {
		name += "-" + classKey
	}

	switch format {
	case ExportPDF:
		payload, err := s.pdf.Render(dataset, "Monthly Attendance "+month)
		if err != nil {
			return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render pdf")
		}
		return payload, name + ".pdf", nil
	case ExportCSV:
		payload, err := s.csv.Render(dataset)
		if err != nil {
			return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render csv")
		}
		return payload, name + ".csv", nil
	default:
		return nil, "", appErrors.Clone(appErrors.ErrValidation, "unsupported export format")
	}
}
