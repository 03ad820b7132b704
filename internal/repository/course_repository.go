package repository

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/sma-score-api/internal/models"
)

// CourseRepository reads course score configuration.
type CourseRepository struct {
	db *sqlx.DB
}

// NewCourseRepository constructs a CourseRepository.
func NewCourseRepository(db *sqlx.DB) *CourseRepository {
	return &CourseRepository{db: db}
}

// FindByID fetches a live course. Returns sql.ErrNoRows when absent.
func (r *CourseRepository) FindByID(ctx context.Context, id string) (*models.Course, error) {
	const query = `SELECT id, code, name, full_score, pass_score, good_score, excellent_score, deleted, created_at, updated_at
        FROM courses WHERE id = $1 AND deleted = false`
	var course models.Course
	if err := r.db.GetContext(ctx, &course, query, id); err != nil {
		return nil, err
	}
	return &course, nil
}

// ResolveThresholds returns the threshold profile of a course.
func (r *CourseRepository) ResolveThresholds(ctx context.Context, courseID string) (*models.ThresholdProfile, error) {
	course, err := r.FindByID(ctx, courseID)
	if err != nil {
		return nil, err
	}
	profile := course.ThresholdProfile()
	return &profile, nil
}
