package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/mhofstetter/schulplan-api/internal/models"
	appErrors "github.com/mhofstetter/schulplan-api/pkg/errors"
)

type todoRepository interface {
	List(ctx context.Context, userID int64) ([]models.Todo, error)
	Create(ctx context.Context, todo *models.Todo) error
	Toggle(ctx context.Context, todoID, userID int64) (*models.Todo, error)
	DeleteOwned(ctx context.Context, todoID, userID int64) error
}

// CreateTodoRequest is the task creation payload; DueDate is YYYY-MM-DD.
type CreateTodoRequest struct {
	Title   string `json:"title"`
	DueDate string `json:"due_date"`
}

// TodoService manages a user's task list.
type TodoService struct {
	todos  todoRepository
	logger *zap.Logger
}

// NewTodoService instantiates TodoService.
func NewTodoService(todos todoRepository, logger *zap.Logger) *TodoService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TodoService{todos: todos, logger: logger}
}

// List returns the owner's todos in the pinned ordering.
func (s *TodoService) List(ctx context.Context, userID int64) ([]models.Todo, error) {
	todos, err := s.todos.List(ctx, userID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list todos")
	}
	if todos == nil {
		todos = []models.Todo{}
	}
	return todos, nil
}

// Create stores a new todo; a blank title is rejected.
func (s *TodoService) Create(ctx context.Context, userID int64, req CreateTodoRequest) (*models.Todo, error) {
	title := strings.TrimSpace(req.Title)
	if title == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "title is required")
	}

	todo := &models.Todo{UserID: userID, Title: title}
	if req.DueDate != "" {
		due, err := time.Parse("2006-01-02", req.DueDate)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid due date")
		}
		todo.DueDate = &due
	}

	if err := s.todos.Create(ctx, todo); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create todo")
	}
	return todo, nil
}

// Toggle flips the completed flag of an owned todo.
func (s *TodoService) Toggle(ctx context.Context, userID, todoID int64) (*models.Todo, error) {
	todo, err := s.todos.Toggle(ctx, todoID, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrNotFound
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to toggle todo")
	}
	return todo, nil
}

// Delete removes an owned todo.
func (s *TodoService) Delete(ctx context.Context, userID, todoID int64) error {
	if err := s.todos.DeleteOwned(ctx, todoID, userID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.ErrNotFound
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete todo")
	}
	return nil
}
