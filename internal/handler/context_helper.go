package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sma-score-api/internal/middleware"
	"github.com/noah-isme/sma-score-api/internal/models"
)

func claimsFromContext(c *gin.Context) *models.JWTClaims {
	claims, ok := middleware.CurrentClaims(c)
	if !ok {
		return nil
	}
	return claims
}

// pickQuery reads the camelCase parameter, falling back to its snake_case alias.
func pickQuery(c *gin.Context, preferred string, fallback string) string {
	if value := c.Query(preferred); value != "" {
		return value
	}
	return c.Query(fallback)
}
