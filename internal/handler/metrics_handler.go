package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-score-api/internal/service"
)

const readinessTimeout = 2 * time.Second

// dependencyCheck reports whether a backing service is reachable.
type dependencyCheck func(ctx context.Context) error

// MetricsHandler exposes observability endpoints.
type MetricsHandler struct {
	metrics *service.MetricsService
	checks  map[string]dependencyCheck
	logger  *zap.Logger
}

// NewMetricsHandler constructs a metrics handler.
func NewMetricsHandler(metrics *service.MetricsService, logger *zap.Logger) *MetricsHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MetricsHandler{metrics: metrics, checks: make(map[string]dependencyCheck), logger: logger}
}

// AddCheck registers a readiness probe under name. A nil check is ignored.
func (h *MetricsHandler) AddCheck(name string, check dependencyCheck) *MetricsHandler {
	if check != nil {
		h.checks[name] = check
	}
	return h
}

// Prometheus serves the Prometheus metrics endpoint.
func (h *MetricsHandler) Prometheus(c *gin.Context) {
	if h.metrics == nil {
		c.Status(http.StatusServiceUnavailable)
		return
	}
	h.metrics.Handler().ServeHTTP(c.Writer, c.Request)
}

// Health responds with a generic OK payload for liveness usage.
func (h *MetricsHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Ready probes every registered dependency and answers 503 when one is down.
func (h *MetricsHandler) Ready(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), readinessTimeout)
	defer cancel()

	status := http.StatusOK
	deps := make(map[string]string, len(h.checks))
	for name, check := range h.checks {
		if err := check(ctx); err != nil {
			h.logger.Warn("readiness check failed", zap.String("dependency", name), zap.Error(err))
			deps[name] = "down"
			status = http.StatusServiceUnavailable
			continue
		}
		deps[name] = "up"
	}
	state := "ready"
	if status != http.StatusOK {
		state = "unavailable"
	}
	c.JSON(status, gin.H{"status": state, "dependencies": deps})
}
