package main

import (
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-score-api/internal/repository"
	"github.com/noah-isme/sma-score-api/internal/service"
	"github.com/noah-isme/sma-score-api/pkg/cache"
	"github.com/noah-isme/sma-score-api/pkg/config"
	"github.com/noah-isme/sma-score-api/pkg/database"
	"github.com/noah-isme/sma-score-api/pkg/logger"
)

// app holds the process-wide dependencies shared by every command.
type app struct {
	cfg       *config.Config
	logger    *zap.Logger
	db        *sqlx.DB
	redis     *redis.Client
	cacheRepo *repository.CacheRepository
	metrics   *service.MetricsService
	scores    *service.ScoreService
}

func bootstrap() (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	logr, err := logger.New(cfg)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}
	return &app{cfg: cfg, logger: logr}, nil
}

func (a *app) connectDB() error {
	db, err := database.NewPostgres(a.cfg.Database)
	if err != nil {
		return fmt.Errorf("connect postgres: %w", err)
	}
	a.db = db
	return nil
}

// wire connects every backing store and builds the score service.
func (a *app) wire() error {
	if err := a.connectDB(); err != nil {
		return err
	}

	client, err := cache.NewRedis(a.cfg.Redis)
	if err != nil {
		// statistics are recomputed on every request without Redis
		a.logger.Warn("redis unavailable, statistics cache disabled", zap.Error(err))
	}
	a.redis = client

	a.metrics = service.NewMetricsService()

	var cacheRepo service.CacheRepository
	if client != nil {
		a.cacheRepo = repository.NewCacheRepository(client, a.logger)
		cacheRepo = a.cacheRepo
	}
	cacheSvc := service.NewCacheService(cacheRepo, a.metrics, a.cfg.Statistics.CacheTTL, a.logger, a.cfg.Statistics.CacheEnabled)

	a.scores = service.NewScoreService(
		repository.NewScoreRepository(a.db, a.cfg.Scores.LockTimeout),
		repository.NewCourseRepository(a.db),
		repository.NewExamRepository(a.db),
		repository.NewStudentRepository(a.db),
		cacheSvc,
		a.metrics,
		validator.New(),
		a.logger,
		service.ScoreServiceConfig{
			MaxBatchSize:  a.cfg.Scores.MaxBatchSize,
			StatisticsTTL: a.cfg.Statistics.CacheTTL,
		},
	)
	return nil
}

func (a *app) close() {
	if a.cacheRepo != nil {
		if err := a.cacheRepo.Close(); err != nil {
			a.logger.Warn("close redis", zap.Error(err))
		}
	}
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			a.logger.Warn("close postgres", zap.Error(err))
		}
	}
	_ = a.logger.Sync()
}
