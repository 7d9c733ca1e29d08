package repository

import (
	"context"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sala-digital/attendance-api/internal/attendance"
	"github.com/sala-digital/attendance-api/internal/models"
)

func TestAttendanceRepositoryUpsert(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewAttendanceRepository(db)

	rows := sqlmock.NewRows([]string{"id", "student_id", "date", "status", "class_key", "shift_key", "recorded_at", "created_at"}).
		AddRow("evt-1", "stu-1", "2024-03-12", "present", "12A", "morning", time.Now(), time.Now())
	mock.ExpectQuery("INSERT INTO attendance_events").
		WithArgs(sqlmock.AnyArg(), "stu-1", "2024-03-12", "present", "12A", "morning", sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnRows(rows)

	stored, err := repo.Upsert(context.Background(), &models.AttendanceEvent{
		StudentID:  "stu-1",
		Date:       "2024-03-12",
		Status:     attendance.StatusPresent,
		ClassKey:   "12A",
		ShiftKey:   "morning",
		RecordedAt: time.Now(),
	})
	require.NoError(t, err)
	assert.Equal(t, "evt-1", stored.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAttendanceRepositoryList(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewAttendanceRepository(db)

	rows := sqlmock.NewRows([]string{"id", "student_id", "date", "status", "class_key", "shift_key", "recorded_at", "created_at"}).
		AddRow("evt-1", "stu-1", "2024-03-12", "late", "12A", "morning", time.Now(), time.Now())
	mock.ExpectQuery("SELECT id, student_id, date, status, class_key, shift_key, recorded_at, created_at FROM attendance_events WHERE 1=1 AND student_id = ").
		WithArgs("stu-1", "2024-03-01", "2024-03-31").
		WillReturnRows(rows)
	mock.ExpectQuery("SELECT COUNT\\(\\*\\) FROM attendance_events WHERE 1=1 AND student_id = ").
		WithArgs("stu-1", "2024-03-01", "2024-03-31").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	events, total, err := repo.List(context.Background(), models.AttendanceEventFilter{
		StudentID: "stu-1",
		DateFrom:  "2024-03-01",
		DateTo:    "2024-03-31",
	})
	require.NoError(t, err)
	assert.Len(t, events, 1)
	assert.Equal(t, 1, total)
	assert.Equal(t, attendance.StatusLate, events[0].Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAttendanceRepositoryListForStudentsGroups(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewAttendanceRepository(db)

	rows := sqlmock.NewRows([]string{"id", "student_id", "date", "status", "class_key", "shift_key", "recorded_at", "created_at"}).
		AddRow("evt-1", "stu-1", "2024-03-11", "present", "12A", "morning", time.Now(), time.Now()).
		AddRow("evt-2", "stu-2", "2024-03-11", "late", "12A", "morning", time.Now(), time.Now()).
		AddRow("evt-3", "stu-1", "2024-03-12", "late", "12A", "morning", time.Now(), time.Now())
	mock.ExpectQuery("SELECT id, student_id, date, status, class_key, shift_key, recorded_at, created_at FROM attendance_events WHERE student_id IN ").
		WillReturnRows(rows)

	grouped, err := repo.ListForStudents(context.Background(), []string{"stu-1", "stu-2"}, "2024-03-01", "2024-03-31")
	require.NoError(t, err)
	assert.Len(t, grouped["stu-1"], 2)
	assert.Len(t, grouped["stu-2"], 1)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAttendanceRepositoryListForStudentsEmpty(t *testing.T) {
	db, _, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewAttendanceRepository(db)

	grouped, err := repo.ListForStudents(context.Background(), nil, "2024-03-01", "2024-03-31")
	require.NoError(t, err)
	assert.Empty(t, grouped)
}
