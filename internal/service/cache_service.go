package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/sma-score-api/internal/models"
	appErrors "github.com/noah-isme/sma-score-api/pkg/errors"
)

// CacheRepository abstracts persistence for cached statistics reports.
type CacheRepository interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Incr(ctx context.Context, key string) (int64, error)
	DeleteByPattern(ctx context.Context, pattern string) error
}

// globEscaper quotes Redis SCAN MATCH metacharacters so ids match literally.
var globEscaper = strings.NewReplacer(`\`, `\\`, `*`, `\*`, `?`, `\?`, `[`, `\[`, `]`, `\]`)

// CacheService caches statistics reports and records cache metrics. A disabled service is a no-op.
type CacheService struct {
	repo       CacheRepository
	metrics    *MetricsService
	defaultTTL time.Duration
	logger     *zap.Logger
	enabled    bool
}

// NewCacheService constructs a cache service.
func NewCacheService(repo CacheRepository, metrics *MetricsService, defaultTTL time.Duration, logger *zap.Logger, enabled bool) *CacheService {
	if defaultTTL <= 0 {
		defaultTTL = 10 * time.Minute
	}
	return &CacheService{repo: repo, metrics: metrics, defaultTTL: defaultTTL, logger: logger, enabled: enabled}
}

// Enabled indicates whether caching is active.
func (s *CacheService) Enabled() bool {
	return s != nil && s.enabled && s.repo != nil
}

// Get attempts to retrieve a cached entry. It returns true when the cache was hit.
func (s *CacheService) Get(ctx context.Context, key string, dest interface{}) (bool, error) {
	if !s.Enabled() {
		return false, nil
	}
	start := time.Now()
	err := s.repo.Get(ctx, key, dest)
	duration := time.Since(start)
	if err != nil {
		if errors.Is(err, appErrors.ErrCacheMiss) {
			if s.metrics != nil {
				s.metrics.RecordCacheOperation(false, duration)
			}
			return false, nil
		}
		if s.metrics != nil {
			s.metrics.RecordCacheOperation(false, duration)
		}
		if s.logger != nil {
			s.logger.Warn("cache get failed", zap.String("key", key), zap.Error(err))
		}
		return false, err
	}
	if s.metrics != nil {
		s.metrics.RecordCacheOperation(true, duration)
	}
	return true, nil
}

// Set stores the value in cache.
func (s *CacheService) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	if !s.Enabled() {
		return nil
	}
	if ttl <= 0 {
		ttl = s.defaultTTL
	}
	start := time.Now()
	err := s.repo.Set(ctx, key, value, ttl)
	if s.metrics != nil {
		s.metrics.ObserveCacheWrite(time.Since(start))
	}
	if err != nil && s.logger != nil {
		s.logger.Warn("cache set failed", zap.String("key", key), zap.Error(err))
	}
	return err
}

// Invalidate removes cached values for the provided pattern.
func (s *CacheService) Invalidate(ctx context.Context, pattern string) error {
	if !s.Enabled() {
		return nil
	}
	if err := s.repo.DeleteByPattern(ctx, pattern); err != nil {
		if s.logger != nil {
			s.logger.Warn("cache invalidate failed", zap.String("pattern", pattern), zap.Error(err))
		}
		return err
	}
	return nil
}

// StatisticsKey is the cache key of a statistics report for scope at a cohort generation.
func StatisticsKey(scope models.RankScope, generation int64) string {
	class := scope.ClassID
	if class == "" {
		class = "_cohort"
	}
	return fmt.Sprintf("stats:%s:%s:%s:g%d", scope.ExamID, scope.CourseID, class, generation)
}

func generationKey(scope models.RankScope) string {
	return fmt.Sprintf("statsgen:%s:%s", scope.ExamID, scope.CourseID)
}

// ScopeGeneration returns the current cache generation of the cohort containing scope.
// Reports must be read and written under the generation captured before their scores were loaded.
func (s *CacheService) ScopeGeneration(ctx context.Context, scope models.RankScope) (int64, error) {
	if !s.Enabled() {
		return 0, nil
	}
	var generation int64
	if err := s.repo.Get(ctx, generationKey(scope), &generation); err != nil {
		if errors.Is(err, appErrors.ErrCacheMiss) {
			return 0, nil
		}
		if s.logger != nil {
			s.logger.Warn("cache generation read failed", zap.String("scope", scope.LockKey()), zap.Error(err))
		}
		return 0, err
	}
	return generation, nil
}

// InvalidateScope bumps the cohort generation, orphaning every cached report of the cohort
// including class reports, then drops the orphaned entries.
func (s *CacheService) InvalidateScope(ctx context.Context, scope models.RankScope) error {
	if !s.Enabled() {
		return nil
	}
	_, bumpErr := s.repo.Incr(ctx, generationKey(scope))
	if bumpErr != nil && s.logger != nil {
		s.logger.Warn("cache generation bump failed", zap.String("scope", scope.LockKey()), zap.Error(bumpErr))
	}
	err := s.Invalidate(ctx, fmt.Sprintf("stats:%s:%s:*", globEscaper.Replace(scope.ExamID), globEscaper.Replace(scope.CourseID)))
	return errors.Join(bumpErr, err)
}
