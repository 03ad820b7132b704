package models

import "time"

// Exam is the cohort/time scope a set of scores belongs to.
type Exam struct {
	ID         string    `db:"id" json:"id"`
	Code       string    `db:"code" json:"code"`
	Name       string    `db:"name" json:"name"`
	SchoolYear string    `db:"school_year" json:"school_year"`
	Semester   int       `db:"semester" json:"semester"`
	StartDate  time.Time `db:"start_date" json:"start_date"`
	EndDate    time.Time `db:"end_date" json:"end_date"`
	Deleted    bool      `db:"deleted" json:"-"`
}
