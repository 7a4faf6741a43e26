package service

import (
	"context"
	"database/sql"
	"errors"

	"go.uber.org/zap"

	"github.com/mhofstetter/schulplan-api/internal/models"
	"github.com/mhofstetter/schulplan-api/internal/repository"
	appErrors "github.com/mhofstetter/schulplan-api/pkg/errors"
	"github.com/mhofstetter/schulplan-api/pkg/export"
)

type enrollmentRepository interface {
	ListEntries(ctx context.Context, userID int64) ([]models.TimetableEntry, error)
	ListAvailable(ctx context.Context, userID int64) ([]models.LessonInfo, error)
	Enroll(ctx context.Context, userID, lessonID int64) (bool, error)
	Repoint(ctx context.Context, enrollmentID, userID, lessonID int64) error
	DeleteOwned(ctx context.Context, enrollmentID, userID int64) error
}

// EnrollResult reports whether the enrollment was newly created; re-enrolling
// in an already-joined lesson is a no-op.
type EnrollResult struct {
	Created bool `json:"created"`
}

// TimetableService coordinates a student's weekly schedule.
type TimetableService struct {
	enrollments enrollmentRepository
	logger      *zap.Logger
}

// NewTimetableService instantiates TimetableService.
func NewTimetableService(enrollments enrollmentRepository, logger *zap.Logger) *TimetableService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TimetableService{enrollments: enrollments, logger: logger}
}

// Week returns the student's timetable grouped Monday through Friday,
// ascending by start time within a day.
func (s *TimetableService) Week(ctx context.Context, userID int64) ([]models.DaySchedule, error) {
	entries, err := s.enrollments.ListEntries(ctx, userID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load timetable")
	}

	days := make([]models.DaySchedule, 0, 5)
	for _, weekday := range models.Weekdays() {
		day := models.DaySchedule{Weekday: weekday, Label: weekday.Label(), Entries: []models.TimetableEntry{}}
		for _, entry := range entries {
			if entry.Weekday == weekday {
				day.Entries = append(day.Entries, entry)
			}
		}
		days = append(days, day)
	}
	return days, nil
}

// Available lists every lesson the student has not yet joined.
func (s *TimetableService) Available(ctx context.Context, userID int64) ([]models.LessonInfo, error) {
	lessons, err := s.enrollments.ListAvailable(ctx, userID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list available lessons")
	}
	return lessons, nil
}

// Enroll joins a lesson. Duplicate enrollments are a no-op; a time-slot
// collision with another joined lesson is a conflict.
func (s *TimetableService) Enroll(ctx context.Context, userID, lessonID int64) (*EnrollResult, error) {
	created, err := s.enrollments.Enroll(ctx, userID, lessonID)
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return nil, appErrors.Clone(appErrors.ErrNotFound, "lesson not found")
		case errors.Is(err, repository.ErrSlotTaken):
			return nil, appErrors.ErrTimeslotConflict
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to enroll")
	}
	if created {
		s.logger.Info("student enrolled", zap.Int64("user_id", userID), zap.Int64("lesson_id", lessonID))
	}
	return &EnrollResult{Created: created}, nil
}

// Edit re-points an owned enrollment to a different lesson, applying the same
// time-slot invariant as Enroll.
func (s *TimetableService) Edit(ctx context.Context, userID, enrollmentID, lessonID int64) error {
	if err := s.enrollments.Repoint(ctx, enrollmentID, userID, lessonID); err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return appErrors.ErrNotFound
		case errors.Is(err, repository.ErrDuplicate):
			return appErrors.Clone(appErrors.ErrTimeslotConflict, "already enrolled in this lesson")
		case errors.Is(err, repository.ErrSlotTaken):
			return appErrors.ErrTimeslotConflict
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to edit enrollment")
	}
	return nil
}

// Delete removes an owned enrollment.
func (s *TimetableService) Delete(ctx context.Context, userID, enrollmentID int64) error {
	if err := s.enrollments.DeleteOwned(ctx, enrollmentID, userID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.ErrNotFound
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete enrollment")
	}
	return nil
}

// WeekPDF renders the student's weekly timetable as a PDF download.
func (s *TimetableService) WeekPDF(ctx context.Context, userID int64) ([]byte, error) {
	days, err := s.Week(ctx, userID)
	if err != nil {
		return nil, err
	}

	table := export.Table{
		Title:   "Stundenplan",
		Headers: []string{"Tag", "Zeit", "Fach", "Lehrer", "Raum"},
	}
	for _, day := range days {
		for _, entry := range day.Entries {
			table.Rows = append(table.Rows, []string{
				day.Label,
				entry.StartTime + "-" + entry.EndTime,
				entry.Subject,
				entry.TeacherName,
				entry.RoomNumber,
			})
		}
	}

	data, err := export.RenderPDF(table)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render pdf")
	}
	return data, nil
}
