package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mhofstetter/schulplan-api/internal/models"
)

func TestTodoRepositoryListOrdering(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewTodoRepository(db)

	rows := sqlmock.NewRows([]string{"id", "user_id", "title", "due_date", "completed", "created_at"}).
		AddRow(int64(2), int64(7), "Hausaufgaben", time.Now(), false, time.Now()).
		AddRow(int64(1), int64(7), "Referat", nil, true, time.Now())
	mock.ExpectQuery(regexp.QuoteMeta("ORDER BY completed ASC, due_date ASC NULLS LAST, created_at DESC")).
		WithArgs(int64(7)).
		WillReturnRows(rows)

	todos, err := repo.List(context.Background(), 7)
	require.NoError(t, err)
	require.Len(t, todos, 2)
	assert.False(t, todos[0].Completed)
	assert.Nil(t, todos[1].DueDate)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTodoRepositoryCreate(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewTodoRepository(db)

	mock.ExpectQuery("INSERT INTO todos").
		WithArgs(int64(7), "Referat vorbereiten", nil, false, sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(12)))

	todo := &models.Todo{UserID: 7, Title: "Referat vorbereiten"}
	require.NoError(t, repo.Create(context.Background(), todo))
	assert.Equal(t, int64(12), todo.ID)
	assert.False(t, todo.CreatedAt.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTodoRepositoryToggle(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewTodoRepository(db)

	rows := sqlmock.NewRows([]string{"id", "user_id", "title", "due_date", "completed", "created_at"}).
		AddRow(int64(12), int64(7), "Referat", nil, true, time.Now())
	mock.ExpectQuery("UPDATE todos SET completed = NOT completed").
		WithArgs(int64(12), int64(7)).
		WillReturnRows(rows)

	todo, err := repo.Toggle(context.Background(), 12, 7)
	require.NoError(t, err)
	assert.True(t, todo.Completed)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTodoRepositoryToggleForeign(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewTodoRepository(db)

	mock.ExpectQuery("UPDATE todos SET completed = NOT completed").
		WithArgs(int64(12), int64(8)).
		WillReturnError(sql.ErrNoRows)

	_, err := repo.Toggle(context.Background(), 12, 8)
	assert.ErrorIs(t, err, sql.ErrNoRows)
}

func TestTodoRepositoryDeleteOwnedMissing(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewTodoRepository(db)

	mock.ExpectExec("DELETE FROM todos WHERE id").
		WithArgs(int64(99), int64(7)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.DeleteOwned(context.Background(), 99, 7)
	assert.ErrorIs(t, err, sql.ErrNoRows)
}
