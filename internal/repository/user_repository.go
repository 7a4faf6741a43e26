package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/mhofstetter/schulplan-api/internal/models"
)

const pqUniqueViolation = "23505"

// UserRepository manages persistence for user accounts.
type UserRepository struct {
	db *sqlx.DB
}

// NewUserRepository constructs a UserRepository.
func NewUserRepository(db *sqlx.DB) *UserRepository {
	return &UserRepository{db: db}
}

// FindByID loads a user by id.
func (r *UserRepository) FindByID(ctx context.Context, id int64) (*models.User, error) {
	const query = `SELECT id, username, password_hash, role, created_at FROM users WHERE id = $1`
	var user models.User
	if err := r.db.GetContext(ctx, &user, query, id); err != nil {
		return nil, err
	}
	return &user, nil
}

// FindByUsername loads a user by its unique username.
func (r *UserRepository) FindByUsername(ctx context.Context, username string) (*models.User, error) {
	const query = `SELECT id, username, password_hash, role, created_at FROM users WHERE username = $1`
	var user models.User
	if err := r.db.GetContext(ctx, &user, query, username); err != nil {
		return nil, err
	}
	return &user, nil
}

// Create registers an account. Teacher accounts also get their linked teacher
// profile, inside the same transaction. Returns ErrDuplicate when the username
// is already taken.
func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin create user: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	const insertUser = `INSERT INTO users (username, password_hash, role, created_at) VALUES ($1, $2, $3, $4) RETURNING id`
	if err = tx.QueryRowxContext(ctx, insertUser, user.Username, user.PasswordHash, user.Role, user.CreatedAt).Scan(&user.ID); err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == pqUniqueViolation {
			err = ErrDuplicate
			return err
		}
		err = fmt.Errorf("insert user: %w", err)
		return err
	}

	if user.Role == models.RoleTeacher {
		const insertTeacher = `INSERT INTO teachers (name, user_id) VALUES ($1, $2)`
		if _, err = tx.ExecContext(ctx, insertTeacher, user.Username, user.ID); err != nil {
			err = fmt.Errorf("insert teacher profile: %w", err)
			return err
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit create user: %w", err)
	}
	return nil
}
