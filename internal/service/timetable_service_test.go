package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/mhofstetter/schulplan-api/internal/models"
	"github.com/mhofstetter/schulplan-api/internal/repository"
	appErrors "github.com/mhofstetter/schulplan-api/pkg/errors"
)

type mockEnrollmentRepo struct {
	entries    []models.TimetableEntry
	available  []models.LessonInfo
	enrollErr  error
	created    bool
	repointErr error
	deleteErr  error
}

func (m *mockEnrollmentRepo) ListEntries(ctx context.Context, userID int64) ([]models.TimetableEntry, error) {
	return m.entries, nil
}

func (m *mockEnrollmentRepo) ListAvailable(ctx context.Context, userID int64) ([]models.LessonInfo, error) {
	return m.available, nil
}

func (m *mockEnrollmentRepo) Enroll(ctx context.Context, userID, lessonID int64) (bool, error) {
	if m.enrollErr != nil {
		return false, m.enrollErr
	}
	return m.created, nil
}

func (m *mockEnrollmentRepo) Repoint(ctx context.Context, enrollmentID, userID, lessonID int64) error {
	return m.repointErr
}

func (m *mockEnrollmentRepo) DeleteOwned(ctx context.Context, enrollmentID, userID int64) error {
	return m.deleteErr
}

func TestTimetableServiceWeekAlwaysFiveDays(t *testing.T) {
	repo := &mockEnrollmentRepo{entries: []models.TimetableEntry{
		{EnrollmentID: 1, Subject: "Mathe", Weekday: models.Dienstag, StartTime: "08:00", EndTime: "08:45"},
	}}
	svc := NewTimetableService(repo, zap.NewNop())

	days, err := svc.Week(context.Background(), 7)
	require.NoError(t, err)
	require.Len(t, days, 5)
	assert.Equal(t, "Montag", days[0].Label)
	assert.Empty(t, days[0].Entries)
	assert.Len(t, days[1].Entries, 1)
	assert.NotNil(t, days[4].Entries)
}

func TestTimetableServiceEnrollCreated(t *testing.T) {
	repo := &mockEnrollmentRepo{created: true}
	svc := NewTimetableService(repo, zap.NewNop())

	result, err := svc.Enroll(context.Background(), 7, 4)
	require.NoError(t, err)
	assert.True(t, result.Created)
}

func TestTimetableServiceEnrollDuplicateIsNoop(t *testing.T) {
	repo := &mockEnrollmentRepo{created: false}
	svc := NewTimetableService(repo, zap.NewNop())

	result, err := svc.Enroll(context.Background(), 7, 4)
	require.NoError(t, err)
	assert.False(t, result.Created)
}

func TestTimetableServiceEnrollSlotConflict(t *testing.T) {
	repo := &mockEnrollmentRepo{enrollErr: repository.ErrSlotTaken}
	svc := NewTimetableService(repo, zap.NewNop())

	_, err := svc.Enroll(context.Background(), 7, 4)
	assertAppError(t, err, appErrors.ErrTimeslotConflict.Code)
}

func TestTimetableServiceEnrollUnknownLesson(t *testing.T) {
	repo := &mockEnrollmentRepo{enrollErr: sql.ErrNoRows}
	svc := NewTimetableService(repo, zap.NewNop())

	_, err := svc.Enroll(context.Background(), 7, 99)
	assertAppError(t, err, appErrors.ErrNotFound.Code)
}

func TestTimetableServiceEditDuplicateTargetIsConflict(t *testing.T) {
	repo := &mockEnrollmentRepo{repointErr: repository.ErrDuplicate}
	svc := NewTimetableService(repo, zap.NewNop())

	err := svc.Edit(context.Background(), 7, 31, 4)
	assertAppError(t, err, appErrors.ErrTimeslotConflict.Code)
}

func TestTimetableServiceDeleteNotFound(t *testing.T) {
	repo := &mockEnrollmentRepo{deleteErr: sql.ErrNoRows}
	svc := NewTimetableService(repo, zap.NewNop())

	err := svc.Delete(context.Background(), 7, 31)
	assertAppError(t, err, appErrors.ErrNotFound.Code)
}

func TestTimetableServiceWeekPDF(t *testing.T) {
	repo := &mockEnrollmentRepo{entries: []models.TimetableEntry{
		{EnrollmentID: 1, Subject: "Mathe", TeacherName: "Meier", RoomNumber: "A101", Weekday: models.Montag, StartTime: "08:00", EndTime: "08:45"},
	}}
	svc := NewTimetableService(repo, zap.NewNop())

	data, err := svc.WeekPDF(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, "%PDF", string(data[:4]))
}
