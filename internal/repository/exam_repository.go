package repository

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/sma-score-api/internal/models"
)

// ExamRepository reads exam records.
type ExamRepository struct {
	db *sqlx.DB
}

// NewExamRepository constructs an ExamRepository.
func NewExamRepository(db *sqlx.DB) *ExamRepository {
	return &ExamRepository{db: db}
}

// FindByID fetches a live exam.
func (r *ExamRepository) FindByID(ctx context.Context, id string) (*models.Exam, error) {
	const query = `SELECT id, code, name, school_year, semester, start_date, end_date, deleted
        FROM exams WHERE id = $1 AND deleted = false`
	var exam models.Exam
	if err := r.db.GetContext(ctx, &exam, query, id); err != nil {
		return nil, err
	}
	return &exam, nil
}
