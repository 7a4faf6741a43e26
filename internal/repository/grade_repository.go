package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/mhofstetter/schulplan-api/internal/models"
)

// GradeRepository manages subject weights and exam entries.
type GradeRepository struct {
	db *sqlx.DB
}

// NewGradeRepository constructs a GradeRepository.
func NewGradeRepository(db *sqlx.DB) *GradeRepository {
	return &GradeRepository{db: db}
}

// SubjectWeights returns every saved weight of a student keyed by subject.
func (r *GradeRepository) SubjectWeights(ctx context.Context, userID int64) (map[string]float64, error) {
	const query = `SELECT id, user_id, subject, weight FROM subject_weights WHERE user_id = $1`
	var rows []models.SubjectWeight
	if err := r.db.SelectContext(ctx, &rows, query, userID); err != nil {
		return nil, fmt.Errorf("list subject weights: %w", err)
	}
	weights := make(map[string]float64, len(rows))
	for _, row := range rows {
		weights[row.Subject] = row.Weight
	}
	return weights, nil
}

// ExamsBySubject returns every saved exam of a student grouped by subject,
// in insertion order within a subject.
func (r *GradeRepository) ExamsBySubject(ctx context.Context, userID int64) (map[string][]models.Exam, error) {
	const query = `SELECT id, user_id, subject, grade, weight FROM exams WHERE user_id = $1 ORDER BY subject ASC, id ASC`
	var rows []models.Exam
	if err := r.db.SelectContext(ctx, &rows, query, userID); err != nil {
		return nil, fmt.Errorf("list exams: %w", err)
	}
	grouped := make(map[string][]models.Exam)
	for _, row := range rows {
		grouped[row.Subject] = append(grouped[row.Subject], row)
	}
	return grouped, nil
}

// ReplaceSubject upserts the subject weight and wholesale-replaces the
// subject's exam entries, all in one transaction.
func (r *GradeRepository) ReplaceSubject(ctx context.Context, userID int64, subject string, weight float64, exams []models.Exam) (err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin replace subject grades: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	const upsertWeight = `INSERT INTO subject_weights (user_id, subject, weight) VALUES ($1, $2, $3)
		ON CONFLICT ON CONSTRAINT subject_weights_user_subject_key DO UPDATE SET weight = EXCLUDED.weight`
	if _, err = tx.ExecContext(ctx, upsertWeight, userID, subject, weight); err != nil {
		return fmt.Errorf("upsert subject weight: %w", err)
	}

	if _, err = tx.ExecContext(ctx, `DELETE FROM exams WHERE user_id = $1 AND subject = $2`, userID, subject); err != nil {
		return fmt.Errorf("delete exams: %w", err)
	}

	for _, exam := range exams {
		if _, err = tx.ExecContext(ctx, `INSERT INTO exams (user_id, subject, grade, weight) VALUES ($1, $2, $3, $4)`,
			userID, subject, exam.Grade, exam.Weight); err != nil {
			return fmt.Errorf("insert exam: %w", err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit replace subject grades: %w", err)
	}
	return nil
}
