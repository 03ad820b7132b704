package models

import (
	"time"

	"github.com/volatiletech/null/v8"
)

// Course carries the score configuration used for validation and statistics.
type Course struct {
	ID             string       `db:"id" json:"id"`
	Code           string       `db:"code" json:"code"`
	Name           string       `db:"name" json:"name"`
	FullScore      float64      `db:"full_score" json:"full_score"`
	PassScore      null.Float64 `db:"pass_score" json:"pass_score"`
	GoodScore      null.Float64 `db:"good_score" json:"good_score"`
	ExcellentScore null.Float64 `db:"excellent_score" json:"excellent_score"`
	Deleted        bool         `db:"deleted" json:"-"`
	CreatedAt      time.Time    `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time    `db:"updated_at" json:"updated_at"`
}

// ThresholdProfile returns the course's cutoffs.
func (c Course) ThresholdProfile() ThresholdProfile {
	return ThresholdProfile{
		CourseID:       c.ID,
		FullScore:      c.FullScore,
		PassScore:      c.PassScore,
		GoodScore:      c.GoodScore,
		ExcellentScore: c.ExcellentScore,
	}
}

// ThresholdProfile holds a course's full score and optional cutoffs. A null cutoff is not configured.
type ThresholdProfile struct {
	CourseID       string       `json:"course_id"`
	FullScore      float64      `json:"full_score"`
	PassScore      null.Float64 `json:"pass_score"`
	GoodScore      null.Float64 `json:"good_score"`
	ExcellentScore null.Float64 `json:"excellent_score"`
}
