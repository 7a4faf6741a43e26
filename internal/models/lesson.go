package models

import "fmt"

// Weekday is the closed Monday..Friday enumeration. The ordinal doubles as the
// sort key, so weekly views never depend on a hand-maintained label list.
type Weekday int

const (
	Montag Weekday = iota + 1
	Dienstag
	Mittwoch
	Donnerstag
	Freitag
)

var weekdayLabels = map[Weekday]string{
	Montag:     "Montag",
	Dienstag:   "Dienstag",
	Mittwoch:   "Mittwoch",
	Donnerstag: "Donnerstag",
	Freitag:    "Freitag",
}

// ParseWeekday converts the 1-5 form value into a Weekday.
func ParseWeekday(ordinal int) (Weekday, error) {
	d := Weekday(ordinal)
	if !d.Valid() {
		return 0, fmt.Errorf("weekday out of range: %d", ordinal)
	}
	return d, nil
}

// Valid reports whether the weekday is within Monday..Friday.
func (d Weekday) Valid() bool {
	return d >= Montag && d <= Freitag
}

// Label returns the canonical day label.
func (d Weekday) Label() string {
	return weekdayLabels[d]
}

// Weekdays returns the school week in fixed order.
func Weekdays() []Weekday {
	return []Weekday{Montag, Dienstag, Mittwoch, Donnerstag, Freitag}
}

// Lesson is a subject offering: teacher, room and a weekly time slot.
type Lesson struct {
	ID        int64   `db:"id" json:"id"`
	Subject   string  `db:"subject" json:"subject"`
	TeacherID int64   `db:"teacher_id" json:"teacher_id"`
	RoomID    int64   `db:"room_id" json:"room_id"`
	Weekday   Weekday `db:"weekday" json:"weekday"`
	StartTime string  `db:"start_time" json:"start_time"`
	EndTime   string  `db:"end_time" json:"end_time"`
}

// LessonInfo is a lesson joined with its teacher and room for display.
type LessonInfo struct {
	ID          int64   `db:"id" json:"id"`
	Subject     string  `db:"subject" json:"subject"`
	TeacherName string  `db:"teacher_name" json:"teacher"`
	RoomNumber  string  `db:"room_number" json:"room"`
	Weekday     Weekday `db:"weekday" json:"weekday"`
	StartTime   string  `db:"start_time" json:"start_time"`
	EndTime     string  `db:"end_time" json:"end_time"`
}
