package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/mhofstetter/schulplan-api/internal/models"
	"github.com/mhofstetter/schulplan-api/internal/repository"
	appErrors "github.com/mhofstetter/schulplan-api/pkg/errors"
)

type mockLessonRepo struct {
	listResp  []models.LessonInfo
	created   *repository.Offering
	createErr error
	updateErr error
	deleteErr error
	deletedID int64
}

func (m *mockLessonRepo) ListByTeacher(ctx context.Context, teacherID int64) ([]models.LessonInfo, error) {
	return m.listResp, nil
}

func (m *mockLessonRepo) CreateOffering(ctx context.Context, off repository.Offering) (*models.Lesson, error) {
	if m.createErr != nil {
		return nil, m.createErr
	}
	m.created = &off
	return &models.Lesson{ID: 1, Subject: off.Subject, TeacherID: off.TeacherID, Weekday: off.Weekday, StartTime: off.Start, EndTime: off.End}, nil
}

func (m *mockLessonRepo) UpdateOffering(ctx context.Context, lessonID int64, off repository.Offering) (*models.Lesson, error) {
	if m.updateErr != nil {
		return nil, m.updateErr
	}
	return &models.Lesson{ID: lessonID, Subject: off.Subject, TeacherID: off.TeacherID, Weekday: off.Weekday, StartTime: off.Start, EndTime: off.End}, nil
}

func (m *mockLessonRepo) DeleteOwned(ctx context.Context, lessonID, teacherID int64) error {
	if m.deleteErr != nil {
		return m.deleteErr
	}
	m.deletedID = lessonID
	return nil
}

type mockTeacherRepo struct {
	teacher *models.Teacher
	err     error
}

func (m *mockTeacherRepo) FindByUserID(ctx context.Context, userID int64) (*models.Teacher, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.teacher, nil
}

func newLessonService(lessons *mockLessonRepo, teachers *mockTeacherRepo) *LessonService {
	return NewLessonService(lessons, teachers, validator.New(), zap.NewNop())
}

func validLessonRequest() LessonRequest {
	return LessonRequest{Subject: "Mathe", Room: "A101", Weekday: 1, Start: "08:00", End: "08:45"}
}

func TestLessonServiceCreate(t *testing.T) {
	repo := &mockLessonRepo{}
	svc := newLessonService(repo, &mockTeacherRepo{teacher: &models.Teacher{ID: 3, Name: "Meier"}})

	lesson, err := svc.Create(context.Background(), 1, validLessonRequest())
	require.NoError(t, err)
	assert.Equal(t, models.Montag, lesson.Weekday)
	require.NotNil(t, repo.created)
	assert.Equal(t, int64(3), repo.created.TeacherID)
	assert.Equal(t, "A101", repo.created.RoomLabel)
}

func TestLessonServiceCreateDefaultsRoom(t *testing.T) {
	repo := &mockLessonRepo{}
	svc := newLessonService(repo, &mockTeacherRepo{teacher: &models.Teacher{ID: 3}})

	req := validLessonRequest()
	req.Room = ""
	_, err := svc.Create(context.Background(), 1, req)
	require.NoError(t, err)
	assert.Equal(t, "unbekannt", repo.created.RoomLabel)
}

func TestLessonServiceCreatePadsClockValues(t *testing.T) {
	repo := &mockLessonRepo{}
	svc := newLessonService(repo, &mockTeacherRepo{teacher: &models.Teacher{ID: 3}})

	req := validLessonRequest()
	req.Start = "8:00"
	req.End = "9:45"
	_, err := svc.Create(context.Background(), 1, req)
	require.NoError(t, err)
	assert.Equal(t, "08:00", repo.created.Start)
	assert.Equal(t, "09:45", repo.created.End)
}

func TestLessonServiceCreateRejectsInvertedTimes(t *testing.T) {
	svc := newLessonService(&mockLessonRepo{}, &mockTeacherRepo{teacher: &models.Teacher{ID: 3}})

	req := validLessonRequest()
	req.Start = "10:00"
	req.End = "09:00"
	_, err := svc.Create(context.Background(), 1, req)
	assertAppError(t, err, appErrors.ErrValidation.Code)
}

func TestLessonServiceCreateRejectsWeekend(t *testing.T) {
	svc := newLessonService(&mockLessonRepo{}, &mockTeacherRepo{teacher: &models.Teacher{ID: 3}})

	req := validLessonRequest()
	req.Weekday = 6
	_, err := svc.Create(context.Background(), 1, req)
	assertAppError(t, err, appErrors.ErrValidation.Code)
}

func TestLessonServiceCreateSlotTaken(t *testing.T) {
	repo := &mockLessonRepo{createErr: repository.ErrSlotTaken}
	svc := newLessonService(repo, &mockTeacherRepo{teacher: &models.Teacher{ID: 3}})

	_, err := svc.Create(context.Background(), 1, validLessonRequest())
	assertAppError(t, err, appErrors.ErrTimeslotConflict.Code)
}

func TestLessonServiceCreateWithoutTeacherProfile(t *testing.T) {
	svc := newLessonService(&mockLessonRepo{}, &mockTeacherRepo{err: sql.ErrNoRows})

	_, err := svc.Create(context.Background(), 1, validLessonRequest())
	assertAppError(t, err, appErrors.ErrForbidden.Code)
}

func TestLessonServiceUpdateNotFound(t *testing.T) {
	repo := &mockLessonRepo{updateErr: sql.ErrNoRows}
	svc := newLessonService(repo, &mockTeacherRepo{teacher: &models.Teacher{ID: 3}})

	_, err := svc.Update(context.Background(), 1, 99, validLessonRequest())
	assertAppError(t, err, appErrors.ErrNotFound.Code)
}

func TestLessonServiceWeekGroupsByDay(t *testing.T) {
	repo := &mockLessonRepo{listResp: []models.LessonInfo{
		{ID: 1, Subject: "Mathe", Weekday: models.Montag, StartTime: "08:00", EndTime: "08:45"},
		{ID: 2, Subject: "Physik", Weekday: models.Mittwoch, StartTime: "10:00", EndTime: "10:45"},
	}}
	svc := newLessonService(repo, &mockTeacherRepo{teacher: &models.Teacher{ID: 3}})

	days, err := svc.Week(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, days, 5)
	assert.Equal(t, "Montag", days[0].Label)
	assert.Len(t, days[0].Lessons, 1)
	assert.Len(t, days[1].Lessons, 0)
	assert.Len(t, days[2].Lessons, 1)
	assert.Equal(t, "Freitag", days[4].Label)
}

func TestLessonServiceWeekPDF(t *testing.T) {
	repo := &mockLessonRepo{listResp: []models.LessonInfo{
		{ID: 1, Subject: "Mathe", RoomNumber: "A101", Weekday: models.Montag, StartTime: "08:00", EndTime: "08:45"},
	}}
	svc := newLessonService(repo, &mockTeacherRepo{teacher: &models.Teacher{ID: 3}})

	data, err := svc.WeekPDF(context.Background(), 1)
	require.NoError(t, err)
	assert.True(t, len(data) > 0)
	assert.Equal(t, "%PDF", string(data[:4]))
}
