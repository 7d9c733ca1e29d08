package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/sala-digital/attendance-api/internal/attendance"
	"github.com/sala-digital/attendance-api/internal/models"
)

func newReportService(events *fakeEventRepo, roster *fakeRoster, now time.Time) *ReportService {
	svc := NewReportService(events, roster, serviceConfig(), zap.NewNop(), servicePolicy(), 12)
	svc.now = func() time.Time { return now }
	return svc
}

func TestMonthlyReportCounts(t *testing.T) {
	// March 2024 has 21 weekdays. Two lates keep those days out of the
	// absence count.
	events := &fakeEventRepo{events: map[string]models.AttendanceEvent{
		eventKey("s1", "2024-03-04"): {ID: "e1", StudentID: "s1", Date: "2024-03-04", Status: attendance.StatusLate},
		eventKey("s1", "2024-03-05"): {ID: "e2", StudentID: "s1", Date: "2024-03-05", Status: attendance.StatusLate},
	}}
	student := activeStudent("s1")
	student.EnrolledAt = time.Date(2023, 9, 1, 0, 0, 0, 0, time.UTC)
	roster := &fakeRoster{students: map[string]models.Student{"s1": student}}
	svc := newReportService(events, roster, time.Date(2024, 4, 2, 10, 0, 0, 0, time.UTC))

	report, err := svc.Monthly(context.Background(), "2024-03", "12A", "")
	require.NoError(t, err)
	require.Len(t, report.Rows, 1)

	row := report.Rows[0]
	assert.Equal(t, 21, row.ApplicableDays)
	assert.Equal(t, 19, row.AbsenceCount)
	assert.Equal(t, 2, row.LateCount)
	assert.ElementsMatch(t, []string{"2024-03-04", "2024-03-05"}, row.LateDates)
	assert.False(t, row.ConfigMissing)
}

func TestMonthlyReportRejectsMalformedMonth(t *testing.T) {
	svc := newReportService(&fakeEventRepo{}, &fakeRoster{}, time.Date(2024, 4, 2, 10, 0, 0, 0, time.UTC))

	_, err := svc.Monthly(context.Background(), "March 2024", "", "")
	require.Error(t, err)
}

func TestMonthlyReportRejectsOldMonth(t *testing.T) {
	svc := newReportService(&fakeEventRepo{}, &fakeRoster{}, time.Date(2024, 4, 2, 10, 0, 0, 0, time.UTC))

	_, err := svc.Monthly(context.Background(), "2022-01", "", "")
	require.Error(t, err)
}

func TestExportMonthlyCSV(t *testing.T) {
	student := activeStudent("s1")
	student.EnrolledAt = time.Date(2023, 9, 1, 0, 0, 0, 0, time.UTC)
	roster := &fakeRoster{students: map[string]models.Student{"s1": student}}
	svc := newReportService(&fakeEventRepo{}, roster, time.Date(2024, 4, 2, 10, 0, 0, 0, time.UTC))

	payload, filename, err := svc.ExportMonthly(context.Background(), "2024-03", "12A", "", ExportCSV)
	require.NoError(t, err)
	assert.Equal(t, "attendance-2024-03-12A.csv", filename)
	assert.Contains(t, string(payload), "Student ID")
	assert.Contains(t, string(payload), "Student s1")
}

func TestExportMonthlyPDF(t *testing.T) {
	student := activeStudent("s1")
	student.EnrolledAt = time.Date(2023, 9, 1, 0, 0, 0, 0, time.UTC)
	roster := &fakeRoster{students: map[string]models.Student{"s1": student}}
	svc := newReportService(&fakeEventRepo{}, roster, time.Date(2024, 4, 2, 10, 0, 0, 0, time.UTC))

	payload, filename, err := svc.ExportMonthly(context.Background(), "2024-03", "12A", "", ExportPDF)
	require.NoError(t, err)
	assert.Equal(t, "attendance-2024-03-12A.pdf", filename)
	assert.True(t, len(payload) > 0)
	assert.Equal(t, "%PDF", string(payload[:4]))
}

func TestExportMonthlyUnknownFormat(t *testing.T) {
	svc := newReportService(&fakeEventRepo{}, &fakeRoster{}, time.Date(2024, 4, 2, 10, 0, 0, 0, time.UTC))

	_, _, err := svc.ExportMonthly(context.Background(), "2024-03", "", "", ExportFormat("xlsx"))
	require.Error(t, err)
}
