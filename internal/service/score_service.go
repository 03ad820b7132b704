package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/volatiletech/null/v8"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-score-api/internal/models"
	"github.com/noah-isme/sma-score-api/internal/repository"
	appErrors "github.com/noah-isme/sma-score-api/pkg/errors"
)

const defaultMaxBatchSize = 500

type scoreStore interface {
	FindByID(ctx context.Context, id string) (*models.Score, error)
	FindByScope(ctx context.Context, scope models.RankScope) ([]models.Score, error)
	FindByStudent(ctx context.Context, studentID, examID string) ([]models.Score, error)
	List(ctx context.Context, filter models.ScoreFilter) ([]models.Score, int, error)
	Transact(ctx context.Context, scopes []models.RankScope, fn func(ctx context.Context, w repository.ScoreWriter) error) error
}

type thresholdResolver interface {
	ResolveThresholds(ctx context.Context, courseID string) (*models.ThresholdProfile, error)
}

type courseReader interface {
	FindByID(ctx context.Context, id string) (*models.Course, error)
	thresholdResolver
}

type examReader interface {
	FindByID(ctx context.Context, id string) (*models.Exam, error)
}

type studentReader interface {
	FindByID(ctx context.Context, id string) (*models.Student, error)
}

// ScoreInput is the payload of a single score entry or correction.
type ScoreInput struct {
	ExamID     string   `json:"exam_id" validate:"required"`
	StudentID  string   `json:"student_id" validate:"required"`
	CourseID   string   `json:"course_id" validate:"required"`
	Score      *float64 `json:"score" validate:"omitempty,gte=0"`
	Absent     bool     `json:"absent"`
	GradeLevel string   `json:"grade_level" validate:"omitempty,max=8"`
	TeacherID  string   `json:"teacher_id" validate:"omitempty,max=64"`
	Remark     string   `json:"remark" validate:"omitempty,max=255"`
}

// BatchScoresRequest wraps an atomic batch of score entries.
type BatchScoresRequest struct {
	Scores []ScoreInput `json:"scores" validate:"required,min=1"`
}

// ScoreServiceConfig tunes the write path.
type ScoreServiceConfig struct {
	MaxBatchSize  int
	StatisticsTTL time.Duration
}

// ScoreService records scores, keeps cohort and class ranks current, and reports statistics.
type ScoreService struct {
	scores    scoreStore
	courses   courseReader
	exams     examReader
	students  studentReader
	cache     *CacheService
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
	cfg       ScoreServiceConfig
}

// NewScoreService constructs ScoreService.
func NewScoreService(scores scoreStore, courses courseReader, exams examReader, students studentReader, cache *CacheService, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger, cfg ScoreServiceConfig) *ScoreService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.MaxBatchSize <= 0 {
		cfg.MaxBatchSize = defaultMaxBatchSize
	}
	return &ScoreService{
		scores:    scores,
		courses:   courses,
		exams:     exams,
		students:  students,
		cache:     cache,
		metrics:   metrics,
		validator: validate,
		logger:    logger,
		cfg:       cfg,
	}
}

// AddScore records one score and recomputes the ranks of its cohort.
func (s *ScoreService) AddScore(ctx context.Context, in ScoreInput) (*models.Score, error) {
	record, err := s.prepare(ctx, in, newReferenceCache())
	if err != nil {
		return nil, err
	}

	var created models.Score
	err = s.withRetry(ctx, "add", func() error {
		return s.scores.Transact(ctx, []models.RankScope{record.CohortScope()}, func(ctx context.Context, w repository.ScoreWriter) error {
			exists, err := w.ExistsByKey(ctx, record.Key(), "")
			if err != nil {
				return err
			}
			if exists {
				return duplicateError(record.Key())
			}
			if err := w.Insert(ctx, record); err != nil {
				return err
			}
			ranked, err := s.recompute(ctx, w, record.CohortScope())
			if err != nil {
				return err
			}
			created = ranked[record.ID]
			return nil
		})
	})
	if err != nil {
		return nil, s.translate(err, "failed to record score")
	}

	s.afterWrite(ctx, "add", 1, record.CohortScope())
	s.logger.Info("score recorded",
		zap.String("score_id", created.ID),
		zap.String("exam_id", created.ExamID),
		zap.String("course_id", created.CourseID),
		zap.String("student_id", created.StudentID),
	)
	return &created, nil
}

// BatchAddScores records every entry or none. Validation stops at the first offender, whose index is reported.
func (s *ScoreService) BatchAddScores(ctx context.Context, req BatchScoresRequest) ([]models.Score, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid batch payload")
	}
	if len(req.Scores) > s.cfg.MaxBatchSize {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("batch exceeds %d entries", s.cfg.MaxBatchSize))
	}

	refs := newReferenceCache()
	records := make([]*models.Score, 0, len(req.Scores))
	seen := make(map[models.ScoreKey]int, len(req.Scores))
	for i, in := range req.Scores {
		record, err := s.prepare(ctx, in, refs)
		if err != nil {
			return nil, atIndex(err, i)
		}
		if first, dup := seen[record.Key()]; dup {
			return nil, atIndex(appErrors.Clone(appErrors.ErrDuplicateScore, fmt.Sprintf("entry repeats the key of entry %d", first)), i)
		}
		seen[record.Key()] = i
		records = append(records, record)
	}

	scopes := make([]models.RankScope, 0, len(records))
	for _, record := range records {
		scopes = append(scopes, record.CohortScope())
	}
	cohorts := uniqueCohorts(scopes)

	result := make([]models.Score, len(records))
	err := s.withRetry(ctx, "batch", func() error {
		return s.scores.Transact(ctx, cohorts, func(ctx context.Context, w repository.ScoreWriter) error {
			for i, record := range records {
				exists, err := w.ExistsByKey(ctx, record.Key(), "")
				if err != nil {
					return err
				}
				if exists {
					return atIndex(duplicateError(record.Key()), i)
				}
			}
			for _, record := range records {
				if err := w.Insert(ctx, record); err != nil {
					return err
				}
			}
			ranked := make(map[string]models.Score, len(records))
			for _, cohort := range cohorts {
				scoped, err := s.recompute(ctx, w, cohort)
				if err != nil {
					return err
				}
				for id, score := range scoped {
					ranked[id] = score
				}
			}
			for i, record := range records {
				result[i] = ranked[record.ID]
			}
			return nil
		})
	})
	if err != nil {
		return nil, s.translate(err, "failed to record score batch")
	}

	s.afterWrite(ctx, "batch", len(records), cohorts...)
	s.logger.Info("score batch recorded", zap.Int("count", len(records)), zap.Int("scopes", len(cohorts)))
	return result, nil
}

// UpdateScore replaces a score. When the key moves to another cohort both cohorts are re-ranked.
func (s *ScoreService) UpdateScore(ctx context.Context, id string, in ScoreInput) (*models.Score, error) {
	replacement, err := s.prepare(ctx, in, newReferenceCache())
	if err != nil {
		return nil, err
	}

	var updated models.Score
	var scopes []models.RankScope
	err = s.withRetry(ctx, "update", func() error {
		existing, err := s.scores.FindByID(ctx, id)
		if err != nil {
			return err
		}
		previous := existing.CohortScope()
		scopes = uniqueCohorts([]models.RankScope{previous, replacement.CohortScope()})

		return s.scores.Transact(ctx, scopes, func(ctx context.Context, w repository.ScoreWriter) error {
			current, err := w.FindByID(ctx, id)
			if err != nil {
				return err
			}
			if current.CohortScope() != previous {
				return fmt.Errorf("score %s moved while waiting for its scope: %w", id, repository.ErrScopeBusy)
			}
			if current.Key() != replacement.Key() {
				exists, err := w.ExistsByKey(ctx, replacement.Key(), id)
				if err != nil {
					return err
				}
				if exists {
					return duplicateError(replacement.Key())
				}
			}

			next := *replacement
			next.ID = current.ID
			next.CreatedAt = current.CreatedAt
			if err := w.Update(ctx, &next); err != nil {
				return err
			}
			for _, scope := range scopes {
				ranked, err := s.recompute(ctx, w, scope)
				if err != nil {
					return err
				}
				if score, ok := ranked[id]; ok {
					updated = score
				}
			}
			return nil
		})
	})
	if err != nil {
		return nil, s.translate(err, "failed to update score")
	}

	s.afterWrite(ctx, "update", 1, scopes...)
	s.logger.Info("score updated", zap.String("score_id", id), zap.Int("scopes", len(scopes)))
	return &updated, nil
}

// DeleteScore soft-deletes a score and re-ranks the remaining cohort.
func (s *ScoreService) DeleteScore(ctx context.Context, id string) error {
	var scope models.RankScope
	err := s.withRetry(ctx, "delete", func() error {
		existing, err := s.scores.FindByID(ctx, id)
		if err != nil {
			return err
		}
		scope = existing.CohortScope()
		return s.scores.Transact(ctx, []models.RankScope{scope}, func(ctx context.Context, w repository.ScoreWriter) error {
			current, err := w.FindByID(ctx, id)
			if err != nil {
				return err
			}
			if current.CohortScope() != scope {
				return fmt.Errorf("score %s moved while waiting for its scope: %w", id, repository.ErrScopeBusy)
			}
			if err := w.SoftDelete(ctx, id); err != nil {
				return err
			}
			_, err = s.recompute(ctx, w, scope)
			return err
		})
	})
	if err != nil {
		return s.translate(err, "failed to delete score")
	}

	s.afterWrite(ctx, "delete", 1, scope)
	s.logger.Info("score deleted", zap.String("score_id", id))
	return nil
}

// RecalculateScope re-ranks a cohort from its stored scores and returns the number of rows whose ranks changed.
func (s *ScoreService) RecalculateScope(ctx context.Context, scope models.RankScope) (int, error) {
	if scope.ExamID == "" || scope.CourseID == "" {
		return 0, appErrors.Clone(appErrors.ErrValidation, "exam_id and course_id are required")
	}
	cohort := scope.Cohort()
	changed := 0
	err := s.withRetry(ctx, "recalculate", func() error {
		return s.scores.Transact(ctx, []models.RankScope{cohort}, func(ctx context.Context, w repository.ScoreWriter) error {
			before, err := w.FindByScope(ctx, cohort)
			if err != nil {
				return err
			}
			ranked, err := RankCohort(before)
			if err != nil {
				return err
			}
			assignments := changedAssignments(before, ranked)
			changed = len(assignments)
			return w.UpdateRanks(ctx, assignments)
		})
	})
	if err != nil {
		return 0, s.translate(err, "failed to recalculate ranks")
	}
	s.invalidate(ctx, cohort)
	s.logger.Info("scope recalculated", zap.String("exam_id", cohort.ExamID), zap.String("course_id", cohort.CourseID), zap.Int("changed", changed))
	return changed, nil
}

// GetStatistics summarises a cohort or class scope. The boolean reports a cache hit.
func (s *ScoreService) GetStatistics(ctx context.Context, scope models.RankScope) (*models.Statistics, bool, error) {
	if scope.ExamID == "" || scope.CourseID == "" {
		return nil, false, appErrors.Clone(appErrors.ErrValidation, "exam_id and course_id are required")
	}

	// a write committed after this read bumps the generation, so a report
	// built from an older snapshot is stored under a key no reader asks for
	generation, genErr := s.cache.ScopeGeneration(ctx, scope)
	cacheable := genErr == nil
	key := StatisticsKey(scope, generation)
	if cacheable {
		var cached models.Statistics
		if hit, err := s.cache.Get(ctx, key, &cached); err == nil && hit {
			return &cached, true, nil
		}
	}

	if _, err := s.exams.FindByID(ctx, scope.ExamID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, appErrors.Clone(appErrors.ErrNotFound, "exam not found")
		}
		return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load exam")
	}
	profile, err := s.courses.ResolveThresholds(ctx, scope.CourseID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, appErrors.Clone(appErrors.ErrConfigurationMissing, fmt.Sprintf("course %s has no score configuration", scope.CourseID))
		}
		return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
	}
	scores, err := s.loadScope(ctx, scope)
	if err != nil {
		return nil, false, err
	}

	stats, err := Summarize(scores, profile)
	if err != nil {
		return nil, false, err
	}
	stats.Scope = scope

	if cacheable {
		_ = s.cache.Set(ctx, key, stats, s.cfg.StatisticsTTL)
	}
	return stats, false, nil
}

// GetScoresByScope returns the live scores of a scope ordered by the rank of that scope. Unranked scores come last.
func (s *ScoreService) GetScoresByScope(ctx context.Context, scope models.RankScope) ([]models.Score, error) {
	if scope.ExamID == "" || scope.CourseID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "exam_id and course_id are required")
	}
	scores, err := s.loadScope(ctx, scope)
	if err != nil {
		return nil, err
	}
	rankOf := func(score models.Score) null.Int {
		if scope.IsClass() {
			return score.ClassRank
		}
		return score.GradeRank
	}
	sort.SliceStable(scores, func(i, j int) bool {
		a, b := rankOf(scores[i]), rankOf(scores[j])
		if a.Valid != b.Valid {
			return a.Valid
		}
		return a.Valid && a.Int < b.Int
	})
	return scores, nil
}

// List returns a page of scores.
func (s *ScoreService) List(ctx context.Context, filter models.ScoreFilter) ([]models.Score, *models.Pagination, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 || filter.PageSize > 100 {
		filter.PageSize = 20
	}
	scores, total, err := s.scores.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list scores")
	}
	return scores, &models.Pagination{Page: filter.Page, PageSize: filter.PageSize, TotalCount: total}, nil
}

// Get returns a score by id.
func (s *ScoreService) Get(ctx context.Context, id string) (*models.Score, error) {
	score, err := s.scores.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "score not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load score")
	}
	return score, nil
}

// StudentScores lists a student's scores, optionally for one exam, with a total and average over valid scores.
func (s *ScoreService) StudentScores(ctx context.Context, studentID, examID string) (*models.StudentScoreReport, error) {
	student, err := s.students.FindByID(ctx, studentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	scores, err := s.scores.FindByStudent(ctx, studentID, examID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student scores")
	}
	if scores == nil {
		scores = []models.Score{}
	}

	report := &models.StudentScoreReport{
		StudentID:   student.ID,
		StudentCode: student.Code,
		FullName:    student.FullName,
		ClassID:     student.ClassID,
		ExamID:      examID,
		CourseCount: len(scores),
		Scores:      scores,
	}
	var sum int64
	for _, score := range scores {
		if score.Participating() {
			report.ValidCount++
			sum += tenths(score.Score.Float64)
		}
	}
	if report.ValidCount > 0 {
		report.TotalScore = floatPtr(float64(sum) / 10)
		report.AverageScore = floatPtr(float64(divRoundHalfUp(sum*10, int64(report.ValidCount))) / 100)
	}
	return report, nil
}

func (s *ScoreService) prepare(ctx context.Context, in ScoreInput, refs *referenceCache) (*models.Score, error) {
	if err := s.validator.Struct(in); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid score payload")
	}
	if in.Absent && in.Score != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "an absent entry cannot carry a score")
	}

	if err := refs.exam(ctx, s.exams, in.ExamID); err != nil {
		return nil, err
	}
	student, err := refs.student(ctx, s.students, in.StudentID)
	if err != nil {
		return nil, err
	}
	course, err := refs.course(ctx, s.courses, in.CourseID)
	if err != nil {
		return nil, err
	}

	record := &models.Score{
		ExamID:     in.ExamID,
		StudentID:  in.StudentID,
		CourseID:   in.CourseID,
		ClassID:    student.ClassID,
		Absent:     in.Absent,
		GradeLevel: optionalString(in.GradeLevel),
		TeacherID:  optionalString(in.TeacherID),
		Remark:     optionalString(in.Remark),
	}
	if in.Score != nil {
		value := normalizeScore(*in.Score)
		if value < 0 || tenths(value) > tenths(course.FullScore) {
			return nil, appErrors.WithDetail(
				appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("score %.1f outside 0..%.1f for course %s", value, course.FullScore, course.ID)),
				"field", "score")
		}
		record.Score = null.Float64From(value)
	}
	return record, nil
}

func (s *ScoreService) loadScope(ctx context.Context, scope models.RankScope) ([]models.Score, error) {
	start := time.Now()
	scores, err := s.scores.FindByScope(ctx, scope)
	s.metrics.ObserveDBQuery("scores_by_scope", time.Since(start))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load scope scores")
	}
	return scores, nil
}

// recompute re-ranks a cohort inside the caller's transaction and writes back changed ranks.
// It returns the ranked cohort keyed by score id.
func (s *ScoreService) recompute(ctx context.Context, w repository.ScoreWriter, cohort models.RankScope) (map[string]models.Score, error) {
	start := time.Now()
	before, err := w.FindByScope(ctx, cohort.Cohort())
	if err != nil {
		return nil, err
	}
	ranked, err := RankCohort(before)
	if err != nil {
		return nil, err
	}
	if err := w.UpdateRanks(ctx, changedAssignments(before, ranked)); err != nil {
		return nil, err
	}
	s.metrics.ObserveRankRecompute(time.Since(start), len(ranked))

	byID := make(map[string]models.Score, len(ranked))
	for _, score := range ranked {
		byID[score.ID] = score
	}
	return byID, nil
}

func (s *ScoreService) withRetry(ctx context.Context, operation string, fn func() error) error {
	err := fn()
	if !errors.Is(err, repository.ErrScopeBusy) {
		return err
	}
	s.metrics.RecordScopeConflict("retried")
	s.logger.Warn("ranking scope busy, retrying once", zap.String("operation", operation), zap.Error(err))
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	err = fn()
	if errors.Is(err, repository.ErrScopeBusy) {
		s.metrics.RecordScopeConflict("failed")
	}
	return err
}

func (s *ScoreService) translate(err error, message string) error {
	var appErr *appErrors.Error
	switch {
	case errors.As(err, &appErr):
		return appErr
	case errors.Is(err, repository.ErrScopeBusy):
		return appErrors.Wrap(err, appErrors.ErrConcurrencyConflict.Code, appErrors.ErrConcurrencyConflict.Status, appErrors.ErrConcurrencyConflict.Message)
	case errors.Is(err, repository.ErrDuplicateKey):
		return appErrors.Wrap(err, appErrors.ErrDuplicateScore.Code, appErrors.ErrDuplicateScore.Status, appErrors.ErrDuplicateScore.Message)
	case errors.Is(err, sql.ErrNoRows):
		return appErrors.Clone(appErrors.ErrNotFound, "score not found")
	default:
		s.logger.Error(message, zap.Error(err))
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, message)
	}
}

func (s *ScoreService) afterWrite(ctx context.Context, operation string, count int, scopes ...models.RankScope) {
	s.metrics.RecordScoreWrite(operation, count)
	s.invalidate(ctx, scopes...)
}

func (s *ScoreService) invalidate(ctx context.Context, scopes ...models.RankScope) {
	for _, scope := range uniqueCohorts(scopes) {
		if err := s.cache.InvalidateScope(ctx, scope); err != nil {
			s.logger.Warn("statistics cache invalidation failed", zap.String("scope", scope.LockKey()), zap.Error(err))
		}
	}
}

// changedAssignments returns rank write-backs only for rows whose ranks differ from storage.
func changedAssignments(before, after []models.Score) []models.RankAssignment {
	previous := make(map[string]models.Score, len(before))
	for _, score := range before {
		previous[score.ID] = score
	}
	var changed []models.Score
	for _, score := range after {
		old, ok := previous[score.ID]
		if ok && old.ClassRank == score.ClassRank && old.GradeRank == score.GradeRank {
			continue
		}
		changed = append(changed, score)
	}
	return RankAssignments(changed)
}

func uniqueCohorts(scopes []models.RankScope) []models.RankScope {
	seen := make(map[models.RankScope]bool, len(scopes))
	unique := make([]models.RankScope, 0, len(scopes))
	for _, scope := range scopes {
		cohort := scope.Cohort()
		if !seen[cohort] {
			seen[cohort] = true
			unique = append(unique, cohort)
		}
	}
	return unique
}

func duplicateError(key models.ScoreKey) *appErrors.Error {
	return appErrors.Clone(appErrors.ErrDuplicateScore,
		fmt.Sprintf("score already recorded for exam %s, student %s, course %s", key.ExamID, key.StudentID, key.CourseID))
}

// atIndex tags a batch failure with the 0-based index of the offending entry.
func atIndex(err error, index int) error {
	appErr := appErrors.FromError(err)
	return appErrors.WithDetail(appErr, "index", index)
}

// normalizeScore rounds a score half up to one decimal place.
func normalizeScore(v float64) float64 {
	return float64(tenths(v)) / 10
}

func optionalString(v string) null.String {
	v = strings.TrimSpace(v)
	if v == "" {
		return null.String{}
	}
	return null.StringFrom(v)
}

// referenceCache memoises exam, student and course lookups across the entries of one batch.
type referenceCache struct {
	exams    map[string]bool
	students map[string]*models.Student
	courses  map[string]*models.Course
}

func newReferenceCache() *referenceCache {
	return &referenceCache{
		exams:    make(map[string]bool),
		students: make(map[string]*models.Student),
		courses:  make(map[string]*models.Course),
	}
}

func (r *referenceCache) exam(ctx context.Context, exams examReader, id string) error {
	if r.exams[id] {
		return nil
	}
	if _, err := exams.FindByID(ctx, id); err != nil {
		return referenceError(err, "exam", id)
	}
	r.exams[id] = true
	return nil
}

func (r *referenceCache) student(ctx context.Context, students studentReader, id string) (*models.Student, error) {
	if student, ok := r.students[id]; ok {
		return student, nil
	}
	student, err := students.FindByID(ctx, id)
	if err != nil {
		return nil, referenceError(err, "student", id)
	}
	r.students[id] = student
	return student, nil
}

func (r *referenceCache) course(ctx context.Context, courses courseReader, id string) (*models.Course, error) {
	if course, ok := r.courses[id]; ok {
		return course, nil
	}
	course, err := courses.FindByID(ctx, id)
	if err != nil {
		return nil, referenceError(err, "course", id)
	}
	r.courses[id] = course
	return course, nil
}

func referenceError(err error, kind, id string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return appErrors.WithDetail(appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("%s %s not found", kind, id)), "field", kind+"_id")
	}
	return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load "+kind)
}
