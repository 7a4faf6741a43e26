package models

// SubjectWeight is a student's weighting of one subject, defaulting to 1.0.
type SubjectWeight struct {
	ID      int64   `db:"id" json:"id"`
	UserID  int64   `db:"user_id" json:"user_id"`
	Subject string  `db:"subject" json:"subject"`
	Weight  float64 `db:"weight" json:"weight"`
}

// Exam is one recorded grade with its own weight.
type Exam struct {
	ID      int64   `db:"id" json:"id"`
	UserID  int64   `db:"user_id" json:"-"`
	Subject string  `db:"subject" json:"-"`
	Grade   float64 `db:"grade" json:"grade"`
	Weight  float64 `db:"weight" json:"weight"`
}

// SubjectGrades is the Pluspunkte sheet for one subject: the saved weight,
// the exam list and the derived figures.
type SubjectGrades struct {
	Subject         string  `json:"subject"`
	Weight          float64 `json:"weight"`
	Exams           []Exam  `json:"exams"`
	WeightedAverage float64 `json:"weighted_average"`
	Contribution    float64 `json:"contribution"`
}
