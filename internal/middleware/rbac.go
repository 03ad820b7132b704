package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sma-score-api/internal/models"
	appErrors "github.com/noah-isme/sma-score-api/pkg/errors"
	"github.com/noah-isme/sma-score-api/pkg/response"
)

// RequireRoles admits only callers holding one of roles.
func RequireRoles(roles ...models.UserRole) gin.HandlerFunc {
	return guard(roles, "")
}

// RequireRolesOrSelf admits callers holding one of roles, or any caller whose user id
// equals the path parameter param.
func RequireRolesOrSelf(param string, roles ...models.UserRole) gin.HandlerFunc {
	return guard(roles, param)
}

func guard(roles []models.UserRole, selfParam string) gin.HandlerFunc {
	allowed := make(map[models.UserRole]struct{}, len(roles))
	for _, r := range roles {
		allowed[r] = struct{}{}
	}
	return func(c *gin.Context) {
		claims, ok := CurrentClaims(c)
		if !ok {
			response.Error(c, appErrors.ErrUnauthorized)
			c.Abort()
			return
		}

		if _, ok := allowed[claims.Role]; ok {
			c.Next()
			return
		}

		if selfParam != "" {
			if target := c.Param(selfParam); target != "" && target == claims.UserID {
				c.Next()
				return
			}
		}

		response.Error(c, appErrors.ErrForbidden)
		c.Abort()
	}
}
