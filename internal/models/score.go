package models

import (
	"time"

	"github.com/volatiletech/null/v8"
)

// Score is one student's result for one course within one exam.
type Score struct {
	ID         string       `db:"id" json:"id"`
	ExamID     string       `db:"exam_id" json:"exam_id"`
	StudentID  string       `db:"student_id" json:"student_id"`
	CourseID   string       `db:"course_id" json:"course_id"`
	ClassID    string       `db:"class_id" json:"class_id"`
	Score      null.Float64 `db:"score" json:"score"`
	Absent     bool         `db:"absent" json:"absent"`
	ClassRank  null.Int     `db:"class_rank" json:"class_rank"`
	GradeRank  null.Int     `db:"grade_rank" json:"grade_rank"`
	GradeLevel null.String  `db:"grade_level" json:"grade_level"`
	TeacherID  null.String  `db:"teacher_id" json:"teacher_id"`
	Remark     null.String  `db:"remark" json:"remark"`
	Deleted    bool         `db:"deleted" json:"-"`
	CreatedAt  time.Time    `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time    `db:"updated_at" json:"updated_at"`
}

// Participating reports whether the score takes part in ranking and averages.
func (s Score) Participating() bool {
	return !s.Absent && s.Score.Valid
}

// Key returns the natural (exam, student, course) key.
func (s Score) Key() ScoreKey {
	return ScoreKey{ExamID: s.ExamID, StudentID: s.StudentID, CourseID: s.CourseID}
}

// CohortScope returns the exam+course scope the score belongs to.
func (s Score) CohortScope() RankScope {
	return RankScope{ExamID: s.ExamID, CourseID: s.CourseID}
}

// ScoreKey is the natural uniqueness key of a score.
type ScoreKey struct {
	ExamID    string
	StudentID string
	CourseID  string
}

// RankScope groups scores for ranking and statistics. An empty ClassID means the whole cohort.
type RankScope struct {
	ExamID   string `json:"exam_id"`
	CourseID string `json:"course_id"`
	ClassID  string `json:"class_id,omitempty"`
}

// IsClass reports whether the scope is narrowed to one class.
func (s RankScope) IsClass() bool {
	return s.ClassID != ""
}

// Cohort drops the class narrowing.
func (s RankScope) Cohort() RankScope {
	return RankScope{ExamID: s.ExamID, CourseID: s.CourseID}
}

// LockKey identifies the cohort scope for advisory locking.
func (s RankScope) LockKey() string {
	return s.ExamID + ":" + s.CourseID
}

// ScoreFilter narrows score listings.
type ScoreFilter struct {
	ExamID    string
	StudentID string
	CourseID  string
	ClassID   string
	Page      int
	PageSize  int
}

// RankAssignment is a computed rank pair written back onto a score row.
type RankAssignment struct {
	ScoreID   string   `db:"id"`
	ClassRank null.Int `db:"class_rank"`
	GradeRank null.Int `db:"grade_rank"`
}
