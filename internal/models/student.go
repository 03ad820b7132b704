package models

// Student is the subset of the student roster the score engine needs.
type Student struct {
	ID       string `db:"id" json:"id"`
	Code     string `db:"code" json:"code"`
	FullName string `db:"full_name" json:"full_name"`
	ClassID  string `db:"class_id" json:"class_id"`
	Deleted  bool   `db:"deleted" json:"-"`
}
