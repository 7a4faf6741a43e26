package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/mhofstetter/schulplan-api/internal/models"
)

// Offering describes a lesson as submitted by its teacher. Start and End are
// HH:MM strings; the room is addressed by its exact label.
type Offering struct {
	TeacherID int64
	Subject   string
	RoomLabel string
	Weekday   models.Weekday
	Start     string
	End       string
}

// LessonRepository manages lessons and their rooms.
type LessonRepository struct {
	db *sqlx.DB
}

// NewLessonRepository constructs a LessonRepository.
func NewLessonRepository(db *sqlx.DB) *LessonRepository {
	return &LessonRepository{db: db}
}

const lessonColumns = `id, subject, teacher_id, room_id, weekday, to_char(start_time, 'HH24:MI') AS start_time, to_char(end_time, 'HH24:MI') AS end_time`

const lessonInfoSelect = `SELECT l.id, l.subject, t.name AS teacher_name, r.number AS room_number, l.weekday,
	to_char(l.start_time, 'HH24:MI') AS start_time, to_char(l.end_time, 'HH24:MI') AS end_time
	FROM lessons l
	JOIN teachers t ON l.teacher_id = t.id
	JOIN rooms r ON l.room_id = r.id`

// ListByTeacher returns a teacher's offerings ordered by weekday and start time.
func (r *LessonRepository) ListByTeacher(ctx context.Context, teacherID int64) ([]models.LessonInfo, error) {
	query := lessonInfoSelect + ` WHERE l.teacher_id = $1 ORDER BY l.weekday ASC, l.start_time ASC`
	var lessons []models.LessonInfo
	if err := r.db.SelectContext(ctx, &lessons, query, teacherID); err != nil {
		return nil, fmt.Errorf("list lessons by teacher: %w", err)
	}
	return lessons, nil
}

// FindOwned loads a lesson only when it belongs to the given teacher.
func (r *LessonRepository) FindOwned(ctx context.Context, lessonID, teacherID int64) (*models.Lesson, error) {
	query := `SELECT ` + lessonColumns + ` FROM lessons WHERE id = $1 AND teacher_id = $2`
	var lesson models.Lesson
	if err := r.db.GetContext(ctx, &lesson, query, lessonID, teacherID); err != nil {
		return nil, err
	}
	return &lesson, nil
}

// CreateOffering stores a lesson offering, finding or creating the room and the
// lesson row atomically. A resubmission of the identical tuple lands on the
// existing row; a different lesson in an occupied teacher slot returns
// ErrSlotTaken.
func (r *LessonRepository) CreateOffering(ctx context.Context, off Offering) (lesson *models.Lesson, err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin create offering: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	roomID, err := findOrCreateRoom(ctx, tx, off.RoomLabel)
	if err != nil {
		return nil, err
	}

	// The identity tuple is excluded so re-submitting the same offering stays
	// idempotent instead of colliding with itself.
	const conflictQuery = `SELECT EXISTS (
		SELECT 1 FROM lessons
		WHERE teacher_id = $1 AND weekday = $2 AND start_time = $3::time AND end_time = $4::time
		AND NOT (subject = $5 AND room_id = $6))`
	var taken bool
	if err = tx.GetContext(ctx, &taken, conflictQuery, off.TeacherID, off.Weekday, off.Start, off.End, off.Subject, roomID); err != nil {
		return nil, fmt.Errorf("check teacher slot: %w", err)
	}
	if taken {
		err = ErrSlotTaken
		return nil, err
	}

	// An identical tuple conflicts on the identity key, a concurrent competing
	// offering on the teacher-slot key; DO NOTHING absorbs both, the fetch
	// below tells them apart.
	const upsert = `INSERT INTO lessons (subject, teacher_id, room_id, weekday, start_time, end_time)
		VALUES ($1, $2, $3, $4, $5::time, $6::time)
		ON CONFLICT DO NOTHING`
	if _, err = tx.ExecContext(ctx, upsert, off.Subject, off.TeacherID, roomID, off.Weekday, off.Start, off.End); err != nil {
		return nil, fmt.Errorf("insert lesson: %w", err)
	}

	fetch := `SELECT ` + lessonColumns + ` FROM lessons
		WHERE subject = $1 AND teacher_id = $2 AND room_id = $3 AND weekday = $4 AND start_time = $5::time AND end_time = $6::time`
	var found models.Lesson
	if err = tx.GetContext(ctx, &found, fetch, off.Subject, off.TeacherID, roomID, off.Weekday, off.Start, off.End); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			// a concurrent writer claimed the slot between check and insert
			err = ErrSlotTaken
			return nil, err
		}
		return nil, fmt.Errorf("fetch lesson: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit create offering: %w", err)
	}
	return &found, nil
}

// UpdateOffering rewrites an owned lesson. The slot conflict check excludes the
// lesson being edited. Returns sql.ErrNoRows for absent or foreign lessons.
func (r *LessonRepository) UpdateOffering(ctx context.Context, lessonID int64, off Offering) (lesson *models.Lesson, err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin update offering: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	var ownedID int64
	if err = tx.GetContext(ctx, &ownedID, `SELECT id FROM lessons WHERE id = $1 AND teacher_id = $2`, lessonID, off.TeacherID); err != nil {
		return nil, err
	}

	const conflictQuery = `SELECT EXISTS (
		SELECT 1 FROM lessons
		WHERE teacher_id = $1 AND weekday = $2 AND start_time = $3::time AND end_time = $4::time AND id <> $5)`
	var taken bool
	if err = tx.GetContext(ctx, &taken, conflictQuery, off.TeacherID, off.Weekday, off.Start, off.End, lessonID); err != nil {
		return nil, fmt.Errorf("check teacher slot: %w", err)
	}
	if taken {
		err = ErrSlotTaken
		return nil, err
	}

	roomID, err := findOrCreateRoom(ctx, tx, off.RoomLabel)
	if err != nil {
		return nil, err
	}

	const update = `UPDATE lessons SET subject = $1, room_id = $2, weekday = $3, start_time = $4::time, end_time = $5::time WHERE id = $6`
	if _, err = tx.ExecContext(ctx, update, off.Subject, roomID, off.Weekday, off.Start, off.End, lessonID); err != nil {
		return nil, fmt.Errorf("update lesson: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit update offering: %w", err)
	}

	return &models.Lesson{
		ID:        lessonID,
		Subject:   off.Subject,
		TeacherID: off.TeacherID,
		RoomID:    roomID,
		Weekday:   off.Weekday,
		StartTime: off.Start,
		EndTime:   off.End,
	}, nil
}

// DeleteOwned removes an owned lesson and every enrollment referencing it in
// one transaction. Returns sql.ErrNoRows for absent or foreign lessons.
func (r *LessonRepository) DeleteOwned(ctx context.Context, lessonID, teacherID int64) (err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin delete lesson: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	var ownedID int64
	if err = tx.GetContext(ctx, &ownedID, `SELECT id FROM lessons WHERE id = $1 AND teacher_id = $2`, lessonID, teacherID); err != nil {
		return err
	}

	if _, err = tx.ExecContext(ctx, `DELETE FROM enrollments WHERE lesson_id = $1`, lessonID); err != nil {
		return fmt.Errorf("delete lesson enrollments: %w", err)
	}
	if _, err = tx.ExecContext(ctx, `DELETE FROM lessons WHERE id = $1`, lessonID); err != nil {
		return fmt.Errorf("delete lesson: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit delete lesson: %w", err)
	}
	return nil
}

func findOrCreateRoom(ctx context.Context, tx *sqlx.Tx, label string) (int64, error) {
	if _, err := tx.ExecContext(ctx, `INSERT INTO rooms (number) VALUES ($1) ON CONFLICT (number) DO NOTHING`, label); err != nil {
		return 0, fmt.Errorf("upsert room: %w", err)
	}
	var roomID int64
	if err := tx.GetContext(ctx, &roomID, `SELECT id FROM rooms WHERE number = $1`, label); err != nil {
		if err == sql.ErrNoRows {
			return 0, fmt.Errorf("room vanished after upsert: %q", label)
		}
		return 0, fmt.Errorf("fetch room: %w", err)
	}
	return roomID, nil
}
