package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/noah-isme/sma-score-api/internal/models"
	"github.com/noah-isme/sma-score-api/pkg/database"
)

var (
	// ErrDuplicateKey is returned when a live score already holds the (exam, student, course) key.
	ErrDuplicateKey = errors.New("score key already exists")
	// ErrScopeBusy is returned when a scope lock or serializable snapshot could not be obtained.
	ErrScopeBusy = errors.New("ranking scope busy")
)

const scoreColumns = `id, exam_id, student_id, course_id, class_id, score, absent, class_rank, grade_rank,
        grade_level, teacher_id, remark, deleted, created_at, updated_at`

// scopeOrder is the deterministic read order used as the ranking input order.
const scopeOrder = "ORDER BY score DESC NULLS LAST, created_at, id"

type scoreQuerier interface {
	GetContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
	SelectContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	NamedExecContext(ctx context.Context, query string, arg interface{}) (sql.Result, error)
}

// ScoreWriter is the transactional view of the score store handed to Transact callbacks.
type ScoreWriter interface {
	FindByID(ctx context.Context, id string) (*models.Score, error)
	ExistsByKey(ctx context.Context, key models.ScoreKey, excludeID string) (bool, error)
	Insert(ctx context.Context, score *models.Score) error
	Update(ctx context.Context, score *models.Score) error
	SoftDelete(ctx context.Context, id string) error
	FindByScope(ctx context.Context, scope models.RankScope) ([]models.Score, error)
	UpdateRanks(ctx context.Context, assignments []models.RankAssignment) error
}

// ScoreRepository persists exam scores and their computed ranks.
type ScoreRepository struct {
	db          *sqlx.DB
	lockTimeout time.Duration
}

// NewScoreRepository constructs the repository. A positive lockTimeout bounds the wait for scope locks.
func NewScoreRepository(db *sqlx.DB, lockTimeout time.Duration) *ScoreRepository {
	return &ScoreRepository{db: db, lockTimeout: lockTimeout}
}

// FindByID fetches a live score by identifier.
func (r *ScoreRepository) FindByID(ctx context.Context, id string) (*models.Score, error) {
	return findScoreByID(ctx, r.db, id)
}

// FindByScope returns the live scores of a cohort or class scope in ranking input order.
func (r *ScoreRepository) FindByScope(ctx context.Context, scope models.RankScope) ([]models.Score, error) {
	return findScoresByScope(ctx, r.db, scope)
}

// FindByStudent lists a student's live scores, optionally narrowed to one exam.
func (r *ScoreRepository) FindByStudent(ctx context.Context, studentID, examID string) ([]models.Score, error) {
	query := "SELECT " + scoreColumns + " FROM scores WHERE deleted = false AND student_id = $1"
	args := []interface{}{studentID}
	if examID != "" {
		query += " AND exam_id = $2"
		args = append(args, examID)
	}
	query += " ORDER BY exam_id, course_id"
	var scores []models.Score
	if err := r.db.SelectContext(ctx, &scores, query, args...); err != nil {
		return nil, fmt.Errorf("list student scores: %w", err)
	}
	return scores, nil
}

// List returns a page of live scores matching the filter along with the total count.
func (r *ScoreRepository) List(ctx context.Context, filter models.ScoreFilter) ([]models.Score, int, error) {
	conditions := []string{"deleted = false"}
	var args []interface{}
	if filter.ExamID != "" {
		args = append(args, filter.ExamID)
		conditions = append(conditions, fmt.Sprintf("exam_id = $%d", len(args)))
	}
	if filter.CourseID != "" {
		args = append(args, filter.CourseID)
		conditions = append(conditions, fmt.Sprintf("course_id = $%d", len(args)))
	}
	if filter.ClassID != "" {
		args = append(args, filter.ClassID)
		conditions = append(conditions, fmt.Sprintf("class_id = $%d", len(args)))
	}
	if filter.StudentID != "" {
		args = append(args, filter.StudentID)
		conditions = append(conditions, fmt.Sprintf("student_id = $%d", len(args)))
	}
	where := "WHERE " + strings.Join(conditions, " AND ")

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	offset := (page - 1) * size

	query := fmt.Sprintf("SELECT %s FROM scores %s ORDER BY created_at DESC, id LIMIT %d OFFSET %d", scoreColumns, where, size, offset)
	var scores []models.Score
	if err := r.db.SelectContext(ctx, &scores, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list scores: %w", err)
	}

	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) FROM scores "+where, args...); err != nil {
		return nil, 0, fmt.Errorf("count scores: %w", err)
	}
	return scores, total, nil
}

// Transact runs fn in one transaction holding an advisory lock per cohort scope.
// Locks are taken in key order so concurrent writers touching several scopes cannot deadlock.
func (r *ScoreRepository) Transact(ctx context.Context, scopes []models.RankScope, fn func(ctx context.Context, w ScoreWriter) error) error {
	keys := lockKeys(scopes)
	err := database.WithTx(ctx, r.db, func(tx *sqlx.Tx) error {
		if r.lockTimeout > 0 {
			if _, err := tx.ExecContext(ctx, fmt.Sprintf("SET LOCAL lock_timeout = %d", r.lockTimeout.Milliseconds())); err != nil {
				return fmt.Errorf("set lock timeout: %w", err)
			}
		}
		for _, key := range keys {
			if _, err := tx.ExecContext(ctx, "SELECT pg_advisory_xact_lock(hashtext($1))", key); err != nil {
				return fmt.Errorf("lock scope %s: %w", key, err)
			}
		}
		return fn(ctx, &scoreTx{q: tx})
	})
	return classifyScoreError(err)
}

type scoreTx struct {
	q scoreQuerier
}

func (t *scoreTx) FindByID(ctx context.Context, id string) (*models.Score, error) {
	return findScoreByID(ctx, t.q, id)
}

func (t *scoreTx) FindByScope(ctx context.Context, scope models.RankScope) ([]models.Score, error) {
	return findScoresByScope(ctx, t.q, scope)
}

func (t *scoreTx) ExistsByKey(ctx context.Context, key models.ScoreKey, excludeID string) (bool, error) {
	query := "SELECT 1 FROM scores WHERE deleted = false AND exam_id = $1 AND student_id = $2 AND course_id = $3"
	args := []interface{}{key.ExamID, key.StudentID, key.CourseID}
	if excludeID != "" {
		query += " AND id <> $4"
		args = append(args, excludeID)
	}
	var exists int
	if err := t.q.GetContext(ctx, &exists, query+" LIMIT 1", args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("check score key: %w", err)
	}
	return true, nil
}

func (t *scoreTx) Insert(ctx context.Context, score *models.Score) error {
	if score.ID == "" {
		score.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if score.CreatedAt.IsZero() {
		score.CreatedAt = now
	}
	score.UpdatedAt = now
	const query = `INSERT INTO scores (id, exam_id, student_id, course_id, class_id, score, absent, class_rank, grade_rank,
        grade_level, teacher_id, remark, deleted, created_at, updated_at)
        VALUES (:id, :exam_id, :student_id, :course_id, :class_id, :score, :absent, :class_rank, :grade_rank,
        :grade_level, :teacher_id, :remark, false, :created_at, :updated_at)`
	if _, err := t.q.NamedExecContext(ctx, query, score); err != nil {
		return fmt.Errorf("insert score: %w", err)
	}
	return nil
}

func (t *scoreTx) Update(ctx context.Context, score *models.Score) error {
	score.UpdatedAt = time.Now().UTC()
	const query = `UPDATE scores SET exam_id = :exam_id, student_id = :student_id, course_id = :course_id, class_id = :class_id,
        score = :score, absent = :absent, grade_level = :grade_level, teacher_id = :teacher_id, remark = :remark,
        updated_at = :updated_at
        WHERE id = :id AND deleted = false`
	res, err := t.q.NamedExecContext(ctx, query, score)
	if err != nil {
		return fmt.Errorf("update score: %w", err)
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func (t *scoreTx) SoftDelete(ctx context.Context, id string) error {
	res, err := t.q.ExecContext(ctx, "UPDATE scores SET deleted = true, class_rank = NULL, grade_rank = NULL, updated_at = $2 WHERE id = $1 AND deleted = false", id, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("delete score: %w", err)
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func (t *scoreTx) UpdateRanks(ctx context.Context, assignments []models.RankAssignment) error {
	for _, a := range assignments {
		if _, err := t.q.ExecContext(ctx, "UPDATE scores SET class_rank = $1, grade_rank = $2 WHERE id = $3", a.ClassRank, a.GradeRank, a.ScoreID); err != nil {
			return fmt.Errorf("write rank for score %s: %w", a.ScoreID, err)
		}
	}
	return nil
}

func findScoreByID(ctx context.Context, q scoreQuerier, id string) (*models.Score, error) {
	var score models.Score
	if err := q.GetContext(ctx, &score, "SELECT "+scoreColumns+" FROM scores WHERE id = $1 AND deleted = false", id); err != nil {
		return nil, err
	}
	return &score, nil
}

func findScoresByScope(ctx context.Context, q scoreQuerier, scope models.RankScope) ([]models.Score, error) {
	query := "SELECT " + scoreColumns + " FROM scores WHERE deleted = false AND exam_id = $1 AND course_id = $2"
	args := []interface{}{scope.ExamID, scope.CourseID}
	if scope.IsClass() {
		query += " AND class_id = $3"
		args = append(args, scope.ClassID)
	}
	var scores []models.Score
	if err := q.SelectContext(ctx, &scores, query+" "+scopeOrder, args...); err != nil {
		return nil, fmt.Errorf("load scope scores: %w", err)
	}
	return scores, nil
}

func lockKeys(scopes []models.RankScope) []string {
	seen := make(map[string]bool, len(scopes))
	keys := make([]string, 0, len(scopes))
	for _, scope := range scopes {
		key := scope.LockKey()
		if !seen[key] {
			seen[key] = true
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)
	return keys
}

func classifyScoreError(err error) error {
	if err == nil {
		return nil
	}
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return err
	}
	switch pqErr.Code {
	case "23505":
		return fmt.Errorf("%w: %v", ErrDuplicateKey, err)
	case "40001", "40P01", "55P03":
		return fmt.Errorf("%w: %v", ErrScopeBusy, err)
	}
	return err
}
