package models

// Enrollment links a student to a lesson in their weekly timetable.
type Enrollment struct {
	ID       int64 `db:"id" json:"id"`
	UserID   int64 `db:"user_id" json:"user_id"`
	LessonID int64 `db:"lesson_id" json:"lesson_id"`
}

// TimetableEntry is an enrollment joined with its lesson for the weekly view.
type TimetableEntry struct {
	EnrollmentID int64   `db:"enrollment_id" json:"enrollment_id"`
	LessonID     int64   `db:"lesson_id" json:"lesson_id"`
	Subject      string  `db:"subject" json:"subject"`
	TeacherName  string  `db:"teacher_name" json:"teacher"`
	RoomNumber   string  `db:"room_number" json:"room"`
	Weekday      Weekday `db:"weekday" json:"weekday"`
	StartTime    string  `db:"start_time" json:"start_time"`
	EndTime      string  `db:"end_time" json:"end_time"`
}

// DaySchedule groups entries of one weekday; views carry the whole week
// Monday through Friday, ascending by start time within a day.
type DaySchedule struct {
	Weekday Weekday          `json:"weekday"`
	Label   string           `json:"label"`
	Entries []TimetableEntry `json:"entries"`
}

// DayLessons mirrors DaySchedule for a teacher's own offerings.
type DayLessons struct {
	Weekday Weekday      `json:"weekday"`
	Label   string       `json:"label"`
	Lessons []LessonInfo `json:"lessons"`
}
