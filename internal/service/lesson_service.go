package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/mhofstetter/schulplan-api/internal/models"
	"github.com/mhofstetter/schulplan-api/internal/repository"
	appErrors "github.com/mhofstetter/schulplan-api/pkg/errors"
	"github.com/mhofstetter/schulplan-api/pkg/export"
)

// fallback room label for submissions without one, kept from the legacy forms
const defaultRoomLabel = "unbekannt"

type lessonRepository interface {
	ListByTeacher(ctx context.Context, teacherID int64) ([]models.LessonInfo, error)
	CreateOffering(ctx context.Context, off repository.Offering) (*models.Lesson, error)
	UpdateOffering(ctx context.Context, lessonID int64, off repository.Offering) (*models.Lesson, error)
	DeleteOwned(ctx context.Context, lessonID, teacherID int64) error
}

type teacherProfileRepository interface {
	FindByUserID(ctx context.Context, userID int64) (*models.Teacher, error)
}

// LessonRequest is the payload for creating or editing a lesson offering.
type LessonRequest struct {
	Subject string `json:"subject" validate:"required,max=100"`
	Room    string `json:"room" validate:"max=50"`
	Weekday int    `json:"weekday" validate:"required,min=1,max=5"`
	Start   string `json:"start_time" validate:"required"`
	End     string `json:"end_time" validate:"required"`
}

// LessonService coordinates teacher-authored lesson management.
type LessonService struct {
	lessons   lessonRepository
	teachers  teacherProfileRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewLessonService instantiates LessonService.
func NewLessonService(lessons lessonRepository, teachers teacherProfileRepository, validate *validator.Validate, logger *zap.Logger) *LessonService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LessonService{lessons: lessons, teachers: teachers, validator: validate, logger: logger}
}

// Week returns the teacher's offerings grouped Monday through Friday.
func (s *LessonService) Week(ctx context.Context, userID int64) ([]models.DayLessons, error) {
	teacher, err := s.resolveTeacher(ctx, userID)
	if err != nil {
		return nil, err
	}
	lessons, err := s.lessons.ListByTeacher(ctx, teacher.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list lessons")
	}
	return groupLessons(lessons), nil
}

// Create adds a lesson offering for the acting teacher. Submitting the
// identical offering twice lands on the same row.
func (s *LessonService) Create(ctx context.Context, userID int64, req LessonRequest) (*models.Lesson, error) {
	teacher, err := s.resolveTeacher(ctx, userID)
	if err != nil {
		return nil, err
	}
	off, err := s.buildOffering(teacher.ID, req)
	if err != nil {
		return nil, err
	}

	lesson, err := s.lessons.CreateOffering(ctx, *off)
	if err != nil {
		if errors.Is(err, repository.ErrSlotTaken) {
			return nil, appErrors.ErrTimeslotConflict
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create lesson")
	}

	s.logger.Info("lesson created",
		zap.Int64("teacher_id", teacher.ID),
		zap.String("subject", lesson.Subject),
		zap.Int("weekday", int(lesson.Weekday)))
	return lesson, nil
}

// Update rewrites an owned lesson, keeping both exclusivity invariants.
func (s *LessonService) Update(ctx context.Context, userID, lessonID int64, req LessonRequest) (*models.Lesson, error) {
	teacher, err := s.resolveTeacher(ctx, userID)
	if err != nil {
		return nil, err
	}
	off, err := s.buildOffering(teacher.ID, req)
	if err != nil {
		return nil, err
	}

	lesson, err := s.lessons.UpdateOffering(ctx, lessonID, *off)
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return nil, appErrors.ErrNotFound
		case errors.Is(err, repository.ErrSlotTaken):
			return nil, appErrors.ErrTimeslotConflict
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update lesson")
	}
	return lesson, nil
}

// Delete removes an owned lesson together with every enrollment referencing it.
func (s *LessonService) Delete(ctx context.Context, userID, lessonID int64) error {
	teacher, err := s.resolveTeacher(ctx, userID)
	if err != nil {
		return err
	}
	if err := s.lessons.DeleteOwned(ctx, lessonID, teacher.ID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.ErrNotFound
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete lesson")
	}
	s.logger.Info("lesson deleted", zap.Int64("teacher_id", teacher.ID), zap.Int64("lesson_id", lessonID))
	return nil
}

// WeekPDF renders the teacher's weekly offerings as a PDF download.
func (s *LessonService) WeekPDF(ctx context.Context, userID int64) ([]byte, error) {
	days, err := s.Week(ctx, userID)
	if err != nil {
		return nil, err
	}

	table := export.Table{
		Title:   "Wochenplan",
		Headers: []string{"Tag", "Zeit", "Fach", "Raum"},
	}
	for _, day := range days {
		for _, lesson := range day.Lessons {
			table.Rows = append(table.Rows, []string{
				day.Label,
				lesson.StartTime + "-" + lesson.EndTime,
				lesson.Subject,
				lesson.RoomNumber,
			})
		}
	}

	data, err := export.RenderPDF(table)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render pdf")
	}
	return data, nil
}

// resolveTeacher maps the acting user to their teacher profile. A teacher
// account without a profile cannot manage lessons.
func (s *LessonService) resolveTeacher(ctx context.Context, userID int64) (*models.Teacher, error) {
	teacher, err := s.teachers.FindByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrForbidden, "no teacher profile for this account")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve teacher profile")
	}
	return teacher, nil
}

func (s *LessonService) buildOffering(teacherID int64, req LessonRequest) (*repository.Offering, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid lesson payload")
	}

	weekday, err := models.ParseWeekday(req.Weekday)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid weekday")
	}

	start, err := normalizeClock(req.Start)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid start time")
	}
	end, err := normalizeClock(req.End)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid end time")
	}
	if end <= start {
		return nil, appErrors.Clone(appErrors.ErrValidation, "end time must be after start time")
	}

	room := req.Room
	if room == "" {
		room = defaultRoomLabel
	}

	return &repository.Offering{
		TeacherID: teacherID,
		Subject:   req.Subject,
		RoomLabel: room,
		Weekday:   weekday,
		Start:     start,
		End:       end,
	}, nil
}

// normalizeClock validates an HH:MM string and returns it zero-padded.
func normalizeClock(raw string) (string, error) {
	parsed, err := time.Parse("15:04", raw)
	if err != nil {
		return "", fmt.Errorf("invalid clock value %q: %w", raw, err)
	}
	return parsed.Format("15:04"), nil
}

func groupLessons(lessons []models.LessonInfo) []models.DayLessons {
	days := make([]models.DayLessons, 0, 5)
	for _, weekday := range models.Weekdays() {
		day := models.DayLessons{Weekday: weekday, Label: weekday.Label(), Lessons: []models.LessonInfo{}}
		for _, lesson := range lessons {
			if lesson.Weekday == weekday {
				day.Lessons = append(day.Lessons, lesson)
			}
		}
		days = append(days, day)
	}
	return days
}
