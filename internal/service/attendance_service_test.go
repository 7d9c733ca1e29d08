package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/sala-digital/attendance-api/internal/attendance"
	"github.com/sala-digital/attendance-api/internal/models"
	appErrors "github.com/sala-digital/attendance-api/pkg/errors"
)

type fakeEventRepo struct {
	events   map[string]models.AttendanceEvent // studentID|date
	upserted []models.AttendanceEvent
	err      error
}

func eventKey(studentID, date string) string { return studentID + "|" + date }

func (f *fakeEventRepo) Upsert(ctx context.Context, event *models.AttendanceEvent) (*models.AttendanceEvent, error) {
	if f.err != nil {
		return nil, f.err
	}
	if f.events == nil {
		f.events = make(map[string]models.AttendanceEvent)
	}
	if event.ID == "" {
		event.ID = "generated"
	}
	f.events[eventKey(event.StudentID, event.Date)] = *event
	f.upserted = append(f.upserted, *event)
	return event, nil
}

func (f *fakeEventRepo) FindByStudentAndDate(ctx context.Context, studentID, date string) (*models.AttendanceEvent, error) {
	if ev, ok := f.events[eventKey(studentID, date)]; ok {
		return &ev, nil
	}
	return nil, sql.ErrNoRows
}

func (f *fakeEventRepo) List(ctx context.Context, filter models.AttendanceEventFilter) ([]models.AttendanceEvent, int, error) {
	if f.err != nil {
		return nil, 0, f.err
	}
	var rows []models.AttendanceEvent
	for _, ev := range f.events {
		rows = append(rows, ev)
	}
	return rows, len(rows), nil
}

func (f *fakeEventRepo) ListForStudents(ctx context.Context, studentIDs []string, dateFrom, dateTo string) (map[string][]models.AttendanceEvent, error) {
	if f.err != nil {
		return nil, f.err
	}
	out := make(map[string][]models.AttendanceEvent)
	for _, id := range studentIDs {
		for _, ev := range f.events {
			if ev.StudentID == id && ev.Date >= dateFrom && ev.Date <= dateTo {
				out[id] = append(out[id], ev)
			}
		}
	}
	return out, nil
}

type fakeRoster struct {
	students map[string]models.Student
}

func (f *fakeRoster) GetByID(ctx context.Context, id string) (*models.Student, error) {
	if s, ok := f.students[id]; ok {
		return &s, nil
	}
	return nil, sql.ErrNoRows
}

func (f *fakeRoster) List(ctx context.Context, filter models.StudentFilter) ([]models.Student, int, error) {
	var rows []models.Student
	for _, s := range f.students {
		if filter.ClassKey != "" && s.ClassKey != filter.ClassKey {
			continue
		}
		if filter.ShiftKey != "" && s.ShiftKey != filter.ShiftKey {
			continue
		}
		if filter.Active != nil && s.Active != *filter.Active {
			continue
		}
		rows = append(rows, s)
	}
	return rows, len(rows), nil
}

type fakeConfigSource struct {
	schedules attendance.ScheduleSet
	holidays  attendance.DaySet
	err       error
}

func (f *fakeConfigSource) EngineConfig(ctx context.Context) (attendance.ScheduleSet, attendance.DaySet, error) {
	if f.err != nil {
		return nil, nil, f.err
	}
	return f.schedules, f.holidays, nil
}

func servicePolicy() attendance.Policy {
	return attendance.Policy{GraceMinutes: 15, LateWindowMinutes: 90, LookbackDays: 14, Location: time.UTC}
}

func serviceConfig() *fakeConfigSource {
	return &fakeConfigSource{
		schedules: attendance.ScheduleSet{
			"12A": {
				StudyDays: []int{1, 2, 3, 4, 5},
				Shifts:    map[string]string{"morning": "07:00"},
			},
		},
		holidays: attendance.NewDaySet(),
	}
}

func activeStudent(id string) models.Student {
	return models.Student{
		ID:         id,
		FullName:   "Student " + id,
		ClassKey:   "12A",
		ShiftKey:   "morning",
		EnrolledAt: time.Date(2024, 1, 8, 0, 0, 0, 0, time.UTC),
		Active:     true,
	}
}

func newAttendanceService(events *fakeEventRepo, roster *fakeRoster, cfg *fakeConfigSource, now time.Time) *AttendanceService {
	svc := NewAttendanceService(events, roster, cfg, validator.New(), zap.NewNop(), nil, servicePolicy())
	svc.now = func() time.Time { return now }
	return svc
}

// 2024-03-12 is a Tuesday.
func TestRecordScanOnTime(t *testing.T) {
	events := &fakeEventRepo{}
	roster := &fakeRoster{students: map[string]models.Student{"s1": activeStudent("s1")}}
	svc := newAttendanceService(events, roster, serviceConfig(), time.Date(2024, 3, 12, 7, 10, 0, 0, time.UTC))

	result, err := svc.RecordScan(context.Background(), ScanRequest{StudentID: "s1"})
	require.NoError(t, err)
	assert.Equal(t, attendance.StatusPresent, result.Verdict)
	assert.False(t, result.AlreadyRecorded)
	require.Len(t, events.upserted, 1)
	assert.Equal(t, "2024-03-12", events.upserted[0].Date)
}

func TestRecordScanLate(t *testing.T) {
	events := &fakeEventRepo{}
	roster := &fakeRoster{students: map[string]models.Student{"s1": activeStudent("s1")}}
	svc := newAttendanceService(events, roster, serviceConfig(), time.Date(2024, 3, 12, 7, 30, 0, 0, time.UTC))

	result, err := svc.RecordScan(context.Background(), ScanRequest{StudentID: "s1"})
	require.NoError(t, err)
	assert.Equal(t, attendance.StatusLate, result.Verdict)
}

func TestRecordScanAfterCutoff(t *testing.T) {
	events := &fakeEventRepo{}
	roster := &fakeRoster{students: map[string]models.Student{"s1": activeStudent("s1")}}
	svc := newAttendanceService(events, roster, serviceConfig(), time.Date(2024, 3, 12, 9, 10, 0, 0, time.UTC))

	_, err := svc.RecordScan(context.Background(), ScanRequest{StudentID: "s1"})
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrWindowClosed.Code, appErr.Code)
	assert.Empty(t, events.upserted)
}

func TestRecordScanConfigMissing(t *testing.T) {
	student := activeStudent("s1")
	student.ShiftKey = "evening"
	events := &fakeEventRepo{}
	roster := &fakeRoster{students: map[string]models.Student{"s1": student}}
	svc := newAttendanceService(events, roster, serviceConfig(), time.Date(2024, 3, 12, 7, 10, 0, 0, time.UTC))

	_, err := svc.RecordScan(context.Background(), ScanRequest{StudentID: "s1"})
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrConfigMissing.Code, appErr.Code)
}

func TestRecordScanIdempotent(t *testing.T) {
	events := &fakeEventRepo{}
	roster := &fakeRoster{students: map[string]models.Student{"s1": activeStudent("s1")}}
	svc := newAttendanceService(events, roster, serviceConfig(), time.Date(2024, 3, 12, 7, 10, 0, 0, time.UTC))

	first, err := svc.RecordScan(context.Background(), ScanRequest{StudentID: "s1"})
	require.NoError(t, err)
	second, err := svc.RecordScan(context.Background(), ScanRequest{StudentID: "s1"})
	require.NoError(t, err)
	assert.True(t, second.AlreadyRecorded)
	assert.Equal(t, first.Verdict, second.Verdict)
	assert.Len(t, events.upserted, 1)
}

func TestRecordScanInactiveStudent(t *testing.T) {
	student := activeStudent("s1")
	student.Active = false
	roster := &fakeRoster{students: map[string]models.Student{"s1": student}}
	svc := newAttendanceService(&fakeEventRepo{}, roster, serviceConfig(), time.Date(2024, 3, 12, 7, 10, 0, 0, time.UTC))

	_, err := svc.RecordScan(context.Background(), ScanRequest{StudentID: "s1"})
	require.Error(t, err)
}

func TestMarkFutureDateRejected(t *testing.T) {
	roster := &fakeRoster{students: map[string]models.Student{"s1": activeStudent("s1")}}
	svc := newAttendanceService(&fakeEventRepo{}, roster, serviceConfig(), time.Date(2024, 3, 12, 10, 0, 0, 0, time.UTC))

	_, err := svc.Mark(context.Background(), MarkRequest{StudentID: "s1", Date: "2024-03-20", Status: "present"})
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
}

func TestMarkStoresCorrection(t *testing.T) {
	events := &fakeEventRepo{}
	roster := &fakeRoster{students: map[string]models.Student{"s1": activeStudent("s1")}}
	svc := newAttendanceService(events, roster, serviceConfig(), time.Date(2024, 3, 12, 10, 0, 0, 0, time.UTC))

	stored, err := svc.Mark(context.Background(), MarkRequest{StudentID: "s1", Date: "2024-03-11", Status: "late"})
	require.NoError(t, err)
	assert.Equal(t, attendance.StatusLate, stored.Status)
	assert.Equal(t, "2024-03-11", stored.Date)
}

func TestMarkRejectsUnknownStatus(t *testing.T) {
	roster := &fakeRoster{students: map[string]models.Student{"s1": activeStudent("s1")}}
	svc := newAttendanceService(&fakeEventRepo{}, roster, serviceConfig(), time.Date(2024, 3, 12, 10, 0, 0, 0, time.UTC))

	_, err := svc.Mark(context.Background(), MarkRequest{StudentID: "s1", Date: "2024-03-11", Status: "absent"})
	require.Error(t, err)
}

func TestDailyCheckEvaluatesRoster(t *testing.T) {
	events := &fakeEventRepo{events: map[string]models.AttendanceEvent{
		eventKey("s1", "2024-03-12"): {
			ID: "e1", StudentID: "s1", Date: "2024-03-12",
			Status: attendance.StatusPresent, RecordedAt: time.Date(2024, 3, 12, 7, 5, 0, 0, time.UTC),
		},
	}}
	roster := &fakeRoster{students: map[string]models.Student{
		"s1": activeStudent("s1"),
		"s2": activeStudent("s2"),
	}}
	svc := newAttendanceService(events, roster, serviceConfig(), time.Date(2024, 3, 12, 10, 0, 0, 0, time.UTC))

	statuses, err := svc.DailyCheck(context.Background(), "12A", "morning", "2024-03-12")
	require.NoError(t, err)
	require.Len(t, statuses, 2)

	byID := make(map[string]attendance.Status)
	for _, st := range statuses {
		byID[st.Student.ID] = st.Status
	}
	assert.Equal(t, attendance.StatusPresent, byID["s1"])
	assert.Equal(t, attendance.StatusAbsent, byID["s2"])
}

func TestDailyCheckRejectsFutureDate(t *testing.T) {
	roster := &fakeRoster{students: map[string]models.Student{}}
	svc := newAttendanceService(&fakeEventRepo{}, roster, serviceConfig(), time.Date(2024, 3, 12, 10, 0, 0, 0, time.UTC))

	_, err := svc.DailyCheck(context.Background(), "12A", "", "2024-03-13")
	require.Error(t, err)
}

func TestStudentHistorySkipsNonSchoolDays(t *testing.T) {
	events := &fakeEventRepo{events: map[string]models.AttendanceEvent{
		eventKey("s1", "2024-03-11"): {
			ID: "e1", StudentID: "s1", Date: "2024-03-11",
			Status: attendance.StatusLate, RecordedAt: time.Date(2024, 3, 11, 7, 40, 0, 0, time.UTC),
		},
	}}
	roster := &fakeRoster{students: map[string]models.Student{"s1": activeStudent("s1")}}
	svc := newAttendanceService(events, roster, serviceConfig(), time.Date(2024, 3, 12, 10, 0, 0, 0, time.UTC))

	// 2024-03-09 and 2024-03-10 are a weekend.
	history, err := svc.StudentHistory(context.Background(), "s1", "2024-03-08", "2024-03-12")
	require.NoError(t, err)
	require.Len(t, history, 3)
	assert.Equal(t, "2024-03-08", history[0].Date)
	assert.Equal(t, attendance.StatusAbsent, history[0].Status)
	assert.Equal(t, attendance.StatusLate, history[1].Status)
	assert.Equal(t, attendance.StatusAbsent, history[2].Status)
}
