package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/mhofstetter/schulplan-api/internal/models"
)

// EnrollmentRepository manages timetable entries.
type EnrollmentRepository struct {
	db *sqlx.DB
}

// NewEnrollmentRepository constructs an EnrollmentRepository.
func NewEnrollmentRepository(db *sqlx.DB) *EnrollmentRepository {
	return &EnrollmentRepository{db: db}
}

const entrySelect = `SELECT e.id AS enrollment_id, l.id AS lesson_id, l.subject, t.name AS teacher_name, r.number AS room_number, l.weekday,
	to_char(l.start_time, 'HH24:MI') AS start_time, to_char(l.end_time, 'HH24:MI') AS end_time
	FROM enrollments e
	JOIN lessons l ON e.lesson_id = l.id
	JOIN teachers t ON l.teacher_id = t.id
	JOIN rooms r ON l.room_id = r.id`

// ListEntries returns a student's timetable ordered by weekday and start time.
func (r *EnrollmentRepository) ListEntries(ctx context.Context, userID int64) ([]models.TimetableEntry, error) {
	query := entrySelect + ` WHERE e.user_id = $1 ORDER BY l.weekday ASC, l.start_time ASC`
	var entries []models.TimetableEntry
	if err := r.db.SelectContext(ctx, &entries, query, userID); err != nil {
		return nil, fmt.Errorf("list timetable entries: %w", err)
	}
	return entries, nil
}

// ListAvailable returns every lesson the student has not yet joined, ordered by
// subject, weekday and start time.
func (r *EnrollmentRepository) ListAvailable(ctx context.Context, userID int64) ([]models.LessonInfo, error) {
	const query = `SELECT l.id, l.subject, t.name AS teacher_name, r.number AS room_number, l.weekday,
		to_char(l.start_time, 'HH24:MI') AS start_time, to_char(l.end_time, 'HH24:MI') AS end_time
		FROM lessons l
		JOIN teachers t ON l.teacher_id = t.id
		JOIN rooms r ON l.room_id = r.id
		LEFT JOIN enrollments e ON l.id = e.lesson_id AND e.user_id = $1
		WHERE e.id IS NULL
		ORDER BY l.subject ASC, l.weekday ASC, l.start_time ASC`
	var lessons []models.LessonInfo
	if err := r.db.SelectContext(ctx, &lessons, query, userID); err != nil {
		return nil, fmt.Errorf("list available lessons: %w", err)
	}
	return lessons, nil
}

// Enroll joins a student to a lesson. Re-enrolling in the same lesson is a
// no-op (created=false). A time-slot collision with another joined lesson
// returns ErrSlotTaken. Check and insert share one transaction.
func (r *EnrollmentRepository) Enroll(ctx context.Context, userID, lessonID int64) (created bool, err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("begin enroll: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	var targetID int64
	if err = tx.GetContext(ctx, &targetID, `SELECT id FROM lessons WHERE id = $1`, lessonID); err != nil {
		return false, err
	}

	var existingID int64
	err = tx.GetContext(ctx, &existingID, `SELECT id FROM enrollments WHERE user_id = $1 AND lesson_id = $2`, userID, lessonID)
	if err == nil {
		// already enrolled, idempotent
		return false, tx.Commit()
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return false, fmt.Errorf("check existing enrollment: %w", err)
	}

	taken, err := studentSlotTaken(ctx, tx, userID, lessonID, 0)
	if err != nil {
		return false, err
	}
	if taken {
		err = ErrSlotTaken
		return false, err
	}

	if _, err = tx.ExecContext(ctx, `INSERT INTO enrollments (user_id, lesson_id) VALUES ($1, $2)`, userID, lessonID); err != nil {
		return false, fmt.Errorf("insert enrollment: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return false, fmt.Errorf("commit enroll: %w", err)
	}
	return true, nil
}

// Repoint moves an owned enrollment to a different lesson, running the same
// slot check as Enroll but excluding the entry being edited. Returns
// sql.ErrNoRows for absent or foreign entries and ErrDuplicate when the target
// lesson is already enrolled through another entry.
func (r *EnrollmentRepository) Repoint(ctx context.Context, enrollmentID, userID, lessonID int64) (err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin repoint enrollment: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	var ownedID int64
	if err = tx.GetContext(ctx, &ownedID, `SELECT id FROM enrollments WHERE id = $1 AND user_id = $2`, enrollmentID, userID); err != nil {
		return err
	}

	var targetID int64
	if err = tx.GetContext(ctx, &targetID, `SELECT id FROM lessons WHERE id = $1`, lessonID); err != nil {
		return err
	}

	var duplicate bool
	const dupQuery = `SELECT EXISTS (SELECT 1 FROM enrollments WHERE user_id = $1 AND lesson_id = $2 AND id <> $3)`
	if err = tx.GetContext(ctx, &duplicate, dupQuery, userID, lessonID, enrollmentID); err != nil {
		return fmt.Errorf("check duplicate enrollment: %w", err)
	}
	if duplicate {
		err = ErrDuplicate
		return err
	}

	taken, err := studentSlotTaken(ctx, tx, userID, lessonID, enrollmentID)
	if err != nil {
		return err
	}
	if taken {
		err = ErrSlotTaken
		return err
	}

	if _, err = tx.ExecContext(ctx, `UPDATE enrollments SET lesson_id = $1 WHERE id = $2`, lessonID, enrollmentID); err != nil {
		return fmt.Errorf("update enrollment: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit repoint enrollment: %w", err)
	}
	return nil
}

// DeleteOwned removes an enrollment scoped to its owner. Returns
// sql.ErrNoRows when nothing matched.
func (r *EnrollmentRepository) DeleteOwned(ctx context.Context, enrollmentID, userID int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM enrollments WHERE id = $1 AND user_id = $2`, enrollmentID, userID)
	if err != nil {
		return fmt.Errorf("delete enrollment: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete enrollment result: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// DistinctSubjects returns the subject universe of a student's timetable.
func (r *EnrollmentRepository) DistinctSubjects(ctx context.Context, userID int64) ([]string, error) {
	const query = `SELECT DISTINCT l.subject FROM enrollments e JOIN lessons l ON e.lesson_id = l.id WHERE e.user_id = $1 ORDER BY l.subject ASC`
	var subjects []string
	if err := r.db.SelectContext(ctx, &subjects, query, userID); err != nil {
		return nil, fmt.Errorf("list enrolled subjects: %w", err)
	}
	return subjects, nil
}

// studentSlotTaken reports whether any other joined lesson occupies the same
// weekday/start/end slot as the candidate lesson.
func studentSlotTaken(ctx context.Context, tx *sqlx.Tx, userID, lessonID, excludeEnrollmentID int64) (bool, error) {
	const query = `SELECT EXISTS (
		SELECT 1 FROM enrollments e
		JOIN lessons joined ON e.lesson_id = joined.id
		JOIN lessons target ON target.id = $2
		WHERE e.user_id = $1 AND e.id <> $3
		AND joined.weekday = target.weekday
		AND joined.start_time = target.start_time
		AND joined.end_time = target.end_time)`
	var taken bool
	if err := tx.GetContext(ctx, &taken, query, userID, lessonID, excludeEnrollmentID); err != nil {
		return false, fmt.Errorf("check student slot: %w", err)
	}
	return taken, nil
}
