package models

// StudentScoreReport lists one student's scores with a simple per-exam summary.
type StudentScoreReport struct {
	StudentID    string   `json:"student_id"`
	StudentCode  string   `json:"student_code"`
	FullName     string   `json:"full_name"`
	ClassID      string   `json:"class_id"`
	ExamID       string   `json:"exam_id,omitempty"`
	CourseCount  int      `json:"course_count"`
	ValidCount   int      `json:"valid_count"`
	TotalScore   *float64 `json:"total_score,omitempty"`
	AverageScore *float64 `json:"average_score,omitempty"`
	Scores       []Score  `json:"scores"`
}
