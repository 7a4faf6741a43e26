package models

// Teacher is the profile under which a user offers lessons.
// UserID is nullable: legacy rows may exist without an account binding.
type Teacher struct {
	ID     int64  `db:"id" json:"id"`
	Name   string `db:"name" json:"name"`
	UserID *int64 `db:"user_id" json:"user_id,omitempty"`
}

// Room is a lesson location, found or created by its unique label.
type Room struct {
	ID     int64  `db:"id" json:"id"`
	Number string `db:"number" json:"number"`
}
