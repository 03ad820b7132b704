package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, EnvDevelopment, cfg.Env)
	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, "/api/v1", cfg.APIPrefix)
	assert.Equal(t, 500, cfg.Scores.MaxBatchSize)
	assert.Equal(t, 5*time.Second, cfg.Scores.LockTimeout)
	assert.Equal(t, 10*time.Minute, cfg.Statistics.CacheTTL)
	assert.False(t, cfg.Redis.Enabled)
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("ALLOWED_ORIGINS", "https://a.example, https://b.example ,")
	t.Setenv("STATISTICS_CACHE_TTL", "not-a-duration")
	t.Setenv("SCORES_MAX_BATCH_SIZE", "-3")
	t.Setenv("ENABLE_STATISTICS_CACHE", "true")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Port)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORS.AllowedOrigins)
	assert.Equal(t, 10*time.Minute, cfg.Statistics.CacheTTL)
	assert.True(t, cfg.Statistics.CacheEnabled)
	assert.Equal(t, 500, cfg.Scores.MaxBatchSize)
}
