package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/mhofstetter/schulplan-api/internal/models"
)

// TodoRepository manages per-user task items.
type TodoRepository struct {
	db *sqlx.DB
}

// NewTodoRepository constructs a TodoRepository.
func NewTodoRepository(db *sqlx.DB) *TodoRepository {
	return &TodoRepository{db: db}
}

// List returns the owner's todos: open items first, dated items ascending with
// open-ended ones last, newest first among equals.
func (r *TodoRepository) List(ctx context.Context, userID int64) ([]models.Todo, error) {
	const query = `SELECT id, user_id, title, due_date, completed, created_at FROM todos
		WHERE user_id = $1
		ORDER BY completed ASC, due_date ASC NULLS LAST, created_at DESC`
	var todos []models.Todo
	if err := r.db.SelectContext(ctx, &todos, query, userID); err != nil {
		return nil, fmt.Errorf("list todos: %w", err)
	}
	return todos, nil
}

// Create stores a new todo.
func (r *TodoRepository) Create(ctx context.Context, todo *models.Todo) error {
	if todo.CreatedAt.IsZero() {
		todo.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO todos (user_id, title, due_date, completed, created_at) VALUES ($1, $2, $3, $4, $5) RETURNING id`
	if err := r.db.QueryRowxContext(ctx, query, todo.UserID, todo.Title, todo.DueDate, todo.Completed, todo.CreatedAt).Scan(&todo.ID); err != nil {
		return fmt.Errorf("insert todo: %w", err)
	}
	return nil
}

// Toggle flips the completed flag of an owned todo and returns the new state.
// Returns sql.ErrNoRows for absent or foreign todos.
func (r *TodoRepository) Toggle(ctx context.Context, todoID, userID int64) (*models.Todo, error) {
	const query = `UPDATE todos SET completed = NOT completed WHERE id = $1 AND user_id = $2
		RETURNING id, user_id, title, due_date, completed, created_at`
	var todo models.Todo
	if err := r.db.GetContext(ctx, &todo, query, todoID, userID); err != nil {
		return nil, err
	}
	return &todo, nil
}

// DeleteOwned removes an owned todo. Returns sql.ErrNoRows when nothing matched.
func (r *TodoRepository) DeleteOwned(ctx context.Context, todoID, userID int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM todos WHERE id = $1 AND user_id = $2`, todoID, userID)
	if err != nil {
		return fmt.Errorf("delete todo: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete todo result: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}
