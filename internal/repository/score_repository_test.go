package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/volatiletech/null/v8"

	"github.com/noah-isme/sma-score-api/internal/models"
)

var scoreRowColumns = []string{"id", "exam_id", "student_id", "course_id", "class_id", "score", "absent", "class_rank", "grade_rank", "grade_level", "teacher_id", "remark", "deleted", "created_at", "updated_at"}

func newScoreMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestScoreRepositoryFindByScopeClass(t *testing.T) {
	db, mock, cleanup := newScoreMock(t)
	defer cleanup()
	repo := NewScoreRepository(db, 0)

	now := time.Now()
	rows := sqlmock.NewRows(scoreRowColumns).
		AddRow("s1", "e1", "st1", "c1", "x1", 90.0, false, int64(1), int64(1), nil, nil, nil, false, now, now).
		AddRow("s2", "e1", "st2", "c1", "x1", nil, true, nil, nil, nil, nil, nil, false, now, now)
	mock.ExpectQuery(regexp.QuoteMeta("FROM scores WHERE deleted = false AND exam_id = $1 AND course_id = $2 AND class_id = $3 ORDER BY score DESC NULLS LAST, created_at, id")).
		WithArgs("e1", "c1", "x1").
		WillReturnRows(rows)

	scores, err := repo.FindByScope(context.Background(), models.RankScope{ExamID: "e1", CourseID: "c1", ClassID: "x1"})
	require.NoError(t, err)
	require.Len(t, scores, 2)
	assert.Equal(t, null.Float64From(90), scores[0].Score)
	assert.Equal(t, null.IntFrom(1), scores[0].GradeRank)
	assert.False(t, scores[1].Score.Valid)
	assert.True(t, scores[1].Absent)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestScoreRepositoryList(t *testing.T) {
	db, mock, cleanup := newScoreMock(t)
	defer cleanup()
	repo := NewScoreRepository(db, 0)

	now := time.Now()
	mock.ExpectQuery(regexp.QuoteMeta("FROM scores WHERE deleted = false AND exam_id = $1 AND student_id = $2 ORDER BY created_at DESC, id LIMIT 10 OFFSET 10")).
		WithArgs("e1", "st1").
		WillReturnRows(sqlmock.NewRows(scoreRowColumns).AddRow("s1", "e1", "st1", "c1", "x1", 75.5, false, nil, nil, "B", nil, nil, false, now, now))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM scores WHERE deleted = false AND exam_id = $1 AND student_id = $2")).
		WithArgs("e1", "st1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(11))

	scores, total, err := repo.List(context.Background(), models.ScoreFilter{ExamID: "e1", StudentID: "st1", Page: 2, PageSize: 10})
	require.NoError(t, err)
	assert.Len(t, scores, 1)
	assert.Equal(t, 11, total)
	assert.Equal(t, null.StringFrom("B"), scores[0].GradeLevel)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestScoreRepositoryFindByIDNotFound(t *testing.T) {
	db, mock, cleanup := newScoreMock(t)
	defer cleanup()
	repo := NewScoreRepository(db, 0)

	mock.ExpectQuery(regexp.QuoteMeta("FROM scores WHERE id = $1 AND deleted = false")).
		WithArgs("missing").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.FindByID(context.Background(), "missing")
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestScoreRepositoryTransactLocksScopesInKeyOrder(t *testing.T) {
	db, mock, cleanup := newScoreMock(t)
	defer cleanup()
	repo := NewScoreRepository(db, 5*time.Second)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("SET LOCAL lock_timeout = 5000")).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta("SELECT pg_advisory_xact_lock(hashtext($1))")).WithArgs("e1:c1").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta("SELECT pg_advisory_xact_lock(hashtext($1))")).WithArgs("e1:c2").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE scores SET class_rank = $1, grade_rank = $2 WHERE id = $3")).
		WithArgs(null.IntFrom(1), null.IntFrom(2), "s1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	scopes := []models.RankScope{
		{ExamID: "e1", CourseID: "c2"},
		{ExamID: "e1", CourseID: "c1", ClassID: "x1"},
		{ExamID: "e1", CourseID: "c2"},
	}
	err := repo.Transact(context.Background(), scopes, func(ctx context.Context, w ScoreWriter) error {
		return w.UpdateRanks(ctx, []models.RankAssignment{{ScoreID: "s1", ClassRank: null.IntFrom(1), GradeRank: null.IntFrom(2)}})
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestScoreRepositoryTransactMapsLockFailure(t *testing.T) {
	db, mock, cleanup := newScoreMock(t)
	defer cleanup()
	repo := NewScoreRepository(db, 0)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("SELECT pg_advisory_xact_lock(hashtext($1))")).
		WithArgs("e1:c1").
		WillReturnError(&pq.Error{Code: "55P03", Message: "canceling statement due to lock timeout"})
	mock.ExpectRollback()

	called := false
	err := repo.Transact(context.Background(), []models.RankScope{{ExamID: "e1", CourseID: "c1"}}, func(ctx context.Context, w ScoreWriter) error {
		called = true
		return nil
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrScopeBusy)
	assert.False(t, called)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestScoreRepositoryTransactMapsUniqueViolation(t *testing.T) {
	db, mock, cleanup := newScoreMock(t)
	defer cleanup()
	repo := NewScoreRepository(db, 0)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("SELECT pg_advisory_xact_lock(hashtext($1))")).WithArgs("e1:c1").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT 1 FROM scores WHERE deleted = false AND exam_id = $1 AND student_id = $2 AND course_id = $3 LIMIT 1")).
		WithArgs("e1", "st1", "c1").
		WillReturnError(sql.ErrNoRows)
	mock.ExpectExec("INSERT INTO scores").WillReturnError(&pq.Error{Code: "23505", Constraint: "scores_live_key"})
	mock.ExpectRollback()

	score := &models.Score{ExamID: "e1", StudentID: "st1", CourseID: "c1", ClassID: "x1", Score: null.Float64From(80)}
	err := repo.Transact(context.Background(), []models.RankScope{score.CohortScope()}, func(ctx context.Context, w ScoreWriter) error {
		exists, err := w.ExistsByKey(ctx, score.Key(), "")
		if err != nil {
			return err
		}
		assert.False(t, exists)
		return w.Insert(ctx, score)
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrDuplicateKey)
	assert.NotEmpty(t, score.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestScoreRepositorySoftDeleteMissing(t *testing.T) {
	db, mock, cleanup := newScoreMock(t)
	defer cleanup()
	repo := NewScoreRepository(db, 0)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("SELECT pg_advisory_xact_lock(hashtext($1))")).WithArgs("e1:c1").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE scores SET deleted = true")).
		WithArgs("s9", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	err := repo.Transact(context.Background(), []models.RankScope{{ExamID: "e1", CourseID: "c1"}}, func(ctx context.Context, w ScoreWriter) error {
		return w.SoftDelete(ctx, "s9")
	})
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCourseRepositoryResolveThresholds(t *testing.T) {
	db, mock, cleanup := newScoreMock(t)
	defer cleanup()
	repo := NewCourseRepository(db)

	now := time.Now()
	mock.ExpectQuery(regexp.QuoteMeta("FROM courses WHERE id = $1 AND deleted = false")).
		WithArgs("c1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "code", "name", "full_score", "pass_score", "good_score", "excellent_score", "deleted", "created_at", "updated_at"}).
			AddRow("c1", "MTH", "Mathematics", 100.0, 60.0, nil, 90.0, false, now, now))

	profile, err := repo.ResolveThresholds(context.Background(), "c1")
	require.NoError(t, err)
	assert.Equal(t, 100.0, profile.FullScore)
	assert.Equal(t, null.Float64From(60), profile.PassScore)
	assert.False(t, profile.GoodScore.Valid)
	assert.Equal(t, null.Float64From(90), profile.ExcellentScore)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStudentRepositoryFindByID(t *testing.T) {
	db, mock, cleanup := newScoreMock(t)
	defer cleanup()
	repo := NewStudentRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, code, full_name, class_id, deleted FROM students WHERE id = $1 AND deleted = false")).
		WithArgs("st1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "code", "full_name", "class_id", "deleted"}).AddRow("st1", "001", "Student", "x1", false))

	student, err := repo.FindByID(context.Background(), "st1")
	require.NoError(t, err)
	assert.Equal(t, "x1", student.ClassID)
	assert.NoError(t, mock.ExpectationsWereMet())
}
