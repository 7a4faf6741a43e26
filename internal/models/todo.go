package models

import "time"

// Todo is a per-user task item.
type Todo struct {
	ID        int64      `db:"id" json:"id"`
	UserID    int64      `db:"user_id" json:"-"`
	Title     string     `db:"title" json:"title"`
	DueDate   *time.Time `db:"due_date" json:"due_date,omitempty"`
	Completed bool       `db:"completed" json:"completed"`
	CreatedAt time.Time  `db:"created_at" json:"created_at"`
}
