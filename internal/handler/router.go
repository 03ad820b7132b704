package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sma-score-api/internal/middleware"
	"github.com/noah-isme/sma-score-api/internal/models"
)

// RegisterScoreRoutes mounts the score endpoints on an authenticated group.
func RegisterScoreRoutes(secured *gin.RouterGroup, h *ScoreHandler) {
	writers := middleware.RequireRoles(models.RoleTeacher, models.RoleAdmin, models.RoleSuperAdmin)
	admins := middleware.RequireRoles(models.RoleAdmin, models.RoleSuperAdmin)

	scores := secured.Group("/scores")
	scores.GET("", h.List)
	scores.GET("/ranking", h.Ranking)
	scores.GET("/statistics", h.Statistics)
	scores.GET("/export", writers, h.Export)
	scores.GET("/students/:studentId", middleware.RequireRolesOrSelf("studentId", models.RoleTeacher, models.RoleAdmin, models.RoleSuperAdmin), h.StudentScores)
	scores.GET("/:id", h.Get)
	scores.POST("", writers, h.Create)
	scores.POST("/batch", writers, h.Batch)
	scores.POST("/recalculate", admins, h.Recalculate)
	scores.PUT("/:id", writers, h.Update)
	scores.DELETE("/:id", admins, h.Delete)
}

// RegisterOpsRoutes mounts liveness, readiness and metrics endpoints.
func RegisterOpsRoutes(r gin.IRoutes, h *MetricsHandler) {
	r.GET("/health", h.Health)
	r.GET("/ready", h.Ready)
	r.GET("/metrics", h.Prometheus)
}
