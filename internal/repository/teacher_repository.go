package repository

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/mhofstetter/schulplan-api/internal/models"
)

// TeacherRepository manages teacher profiles.
type TeacherRepository struct {
	db *sqlx.DB
}

// NewTeacherRepository constructs a TeacherRepository.
func NewTeacherRepository(db *sqlx.DB) *TeacherRepository {
	return &TeacherRepository{db: db}
}

// FindByUserID resolves the teacher profile owned by a user account.
func (r *TeacherRepository) FindByUserID(ctx context.Context, userID int64) (*models.Teacher, error) {
	const query = `SELECT id, name, user_id FROM teachers WHERE user_id = $1`
	var teacher models.Teacher
	if err := r.db.GetContext(ctx, &teacher, query, userID); err != nil {
		return nil, err
	}
	return &teacher, nil
}

// FindByID loads a teacher profile by id.
func (r *TeacherRepository) FindByID(ctx context.Context, id int64) (*models.Teacher, error) {
	const query = `SELECT id, name, user_id FROM teachers WHERE id = $1`
	var teacher models.Teacher
	if err := r.db.GetContext(ctx, &teacher, query, id); err != nil {
		return nil, err
	}
	return &teacher, nil
}
