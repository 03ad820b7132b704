package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-score-api/internal/models"
	"github.com/noah-isme/sma-score-api/internal/service"
)

const testSecret = "test-secret"

func signToken(t *testing.T, claims models.JWTClaims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(testSecret))
	require.NoError(t, err)
	return signed
}

func newSecuredEngine() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(WithResponseMeta())
	secured := r.Group("", JWT(service.NewAuthService(testSecret, "sma-identity")))
	secured.GET("/scores", func(c *gin.Context) {
		SetCacheHit(c, true)
		c.JSON(http.StatusOK, ExtractMeta(c))
	})
	secured.DELETE("/scores/:id", RequireRoles(models.RoleAdmin), func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})
	secured.GET("/students/:studentId", RequireRolesOrSelf("studentId", models.RoleTeacher), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	return r
}

func serve(r *gin.Engine, method, path, token string) *httptest.ResponseRecorder {
	req, _ := http.NewRequest(method, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func validClaims(userID string, role models.UserRole) models.JWTClaims {
	return models.JWTClaims{
		UserID: userID,
		Role:   role,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "sma-identity",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
}

func TestJWT(t *testing.T) {
	r := newSecuredEngine()

	t.Run("missing header", func(t *testing.T) {
		w := serve(r, http.MethodGet, "/scores", "")
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("malformed header", func(t *testing.T) {
		req, _ := http.NewRequest(http.MethodGet, "/scores", nil)
		req.Header.Set("Authorization", "Token abc")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Contains(t, w.Body.String(), "invalid authorization header")
	})

	t.Run("expired token", func(t *testing.T) {
		claims := validClaims("u1", models.RoleAdmin)
		claims.ExpiresAt = jwt.NewNumericDate(time.Now().Add(-time.Minute))
		w := serve(r, http.MethodGet, "/scores", signToken(t, claims))
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("foreign issuer", func(t *testing.T) {
		claims := validClaims("u1", models.RoleAdmin)
		claims.Issuer = "elsewhere"
		w := serve(r, http.MethodGet, "/scores", signToken(t, claims))
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("valid token carries meta", func(t *testing.T) {
		w := serve(r, http.MethodGet, "/scores", signToken(t, validClaims("u1", models.RoleStudent)))
		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"cache_hit":true`)
		assert.Contains(t, w.Body.String(), `"processing_time_ms"`)
	})
}

func TestRoleGuards(t *testing.T) {
	r := newSecuredEngine()

	w := serve(r, http.MethodDelete, "/scores/s1", signToken(t, validClaims("u1", models.RoleTeacher)))
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = serve(r, http.MethodDelete, "/scores/s1", signToken(t, validClaims("u1", models.RoleAdmin)))
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = serve(r, http.MethodGet, "/students/st1", signToken(t, validClaims("st1", models.RoleStudent)))
	assert.Equal(t, http.StatusOK, w.Code)

	w = serve(r, http.MethodGet, "/students/st2", signToken(t, validClaims("st1", models.RoleStudent)))
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = serve(r, http.MethodGet, "/students/st2", signToken(t, validClaims("t1", models.RoleTeacher)))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestGuardWithoutClaims(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/x", RequireRoles(models.RoleAdmin), func(c *gin.Context) { c.Status(http.StatusOK) })
	w := serve(r, http.MethodGet, "/x", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestMetricsLabelsRouteTemplate(t *testing.T) {
	gin.SetMode(gin.TestMode)
	metrics := service.NewMetricsService()
	r := gin.New()
	r.Use(Metrics(metrics))
	r.GET("/scores/:id", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/metrics", gin.WrapH(metrics.Handler()))

	serve(r, http.MethodGet, "/scores/abc", "")
	serve(r, http.MethodGet, "/nowhere/123", "")
	w := serve(r, http.MethodGet, "/metrics", "")

	body := w.Body.String()
	assert.Contains(t, body, `path="/scores/:id"`)
	assert.Contains(t, body, `path="unmatched"`)
	assert.NotContains(t, body, "/nowhere/123")
}
