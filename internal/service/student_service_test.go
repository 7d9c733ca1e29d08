package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/sala-digital/attendance-api/internal/models"
	appErrors "github.com/sala-digital/attendance-api/pkg/errors"
)

type fakeClassReader struct {
	schedules map[string]models.ClassSchedule
}

func (f *fakeClassReader) GetSchedule(ctx context.Context, classKey string) (*models.ClassSchedule, error) {
	if s, ok := f.schedules[classKey]; ok {
		return &s, nil
	}
	return nil, sql.ErrNoRows
}

type fakeStudentRepo struct {
	fakeRoster
	deactivated []string
}

func (f *fakeStudentRepo) Create(ctx context.Context, student *models.Student) error {
	if f.students == nil {
		f.students = make(map[string]models.Student)
	}
	if student.ID == "" {
		student.ID = "generated"
	}
	f.students[student.ID] = *student
	return nil
}

func (f *fakeStudentRepo) Update(ctx context.Context, student *models.Student) error {
	f.students[student.ID] = *student
	return nil
}

func (f *fakeStudentRepo) Deactivate(ctx context.Context, id string) error {
	f.deactivated = append(f.deactivated, id)
	if s, ok := f.students[id]; ok {
		s.Active = false
		f.students[id] = s
	}
	return nil
}

func testClassReader() *fakeClassReader {
	return &fakeClassReader{schedules: map[string]models.ClassSchedule{
		"12A": {
			ClassKey:  "12A",
			Name:      "Grade 12 A",
			StudyDays: pq.Int64Array{1, 2, 3, 4, 5},
			Shifts:    models.ShiftMap{"morning": "07:00"},
		},
	}}
}

func newStudentServiceForTest(repo *fakeStudentRepo) *StudentService {
	return NewStudentService(repo, testClassReader(), validator.New(), zap.NewNop())
}

func TestStudentCreate(t *testing.T) {
	repo := &fakeStudentRepo{}
	svc := newStudentServiceForTest(repo)

	student, err := svc.Create(context.Background(), CreateStudentRequest{
		FullName: "Dara Chan",
		ClassKey: "12A",
		ShiftKey: "morning",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, student.ID)
	assert.True(t, student.Active)
	assert.Len(t, repo.students, 1)
}

func TestStudentCreateUnknownShift(t *testing.T) {
	svc := newStudentServiceForTest(&fakeStudentRepo{})

	_, err := svc.Create(context.Background(), CreateStudentRequest{
		FullName: "Dara Chan",
		ClassKey: "12A",
		ShiftKey: "evening",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestStudentCreateUnknownClass(t *testing.T) {
	svc := newStudentServiceForTest(&fakeStudentRepo{})

	_, err := svc.Create(context.Background(), CreateStudentRequest{
		FullName: "Dara Chan",
		ClassKey: "9Z",
		ShiftKey: "morning",
	})
	require.Error(t, err)
}

func TestStudentUpdatePartial(t *testing.T) {
	repo := &fakeStudentRepo{fakeRoster: fakeRoster{students: map[string]models.Student{
		"s1": activeStudent("s1"),
	}}}
	svc := newStudentServiceForTest(repo)

	name := "Renamed Student"
	updated, err := svc.Update(context.Background(), "s1", UpdateStudentRequest{FullName: &name})
	require.NoError(t, err)
	assert.Equal(t, "Renamed Student", updated.FullName)
	assert.Equal(t, "12A", updated.ClassKey)
}

func TestStudentUpdateRevalidatesAssignment(t *testing.T) {
	repo := &fakeStudentRepo{fakeRoster: fakeRoster{students: map[string]models.Student{
		"s1": activeStudent("s1"),
	}}}
	svc := newStudentServiceForTest(repo)

	shift := "evening"
	_, err := svc.Update(context.Background(), "s1", UpdateStudentRequest{ShiftKey: &shift})
	require.Error(t, err)
}

func TestStudentDeactivate(t *testing.T) {
	repo := &fakeStudentRepo{fakeRoster: fakeRoster{students: map[string]models.Student{
		"s1": activeStudent("s1"),
	}}}
	svc := newStudentServiceForTest(repo)

	require.NoError(t, svc.Deactivate(context.Background(), "s1"))
	assert.Contains(t, repo.deactivated, "s1")
}

func TestStudentGetMissing(t *testing.T) {
	svc := newStudentServiceForTest(&fakeStudentRepo{})

	_, err := svc.Get(context.Background(), "missing")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}
