package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edustack/campus-core/internal/config"
	"github.com/edustack/campus-core/internal/models"
	"github.com/edustack/campus-core/pkg/cache"
)

const testSecret = "unit-test-secret"

func authRouter(t *testing.T, valkeyCache cache.ValkeyCache) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(AuthMiddleware(config.AuthConfig{JWTSecret: testSecret}, valkeyCache))
	router.GET("/api/v1/ping", func(c *gin.Context) {
		p, _ := principalFrom(c)
		c.JSON(http.StatusOK, gin.H{"principal_id": p.ID, "role": p.Role})
	})
	router.GET("/health", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	return router
}

func signTestJWT(t *testing.T, secret string, claims jwt.MapClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return token
}

func TestAuthRejectsMissingToken(t *testing.T) {
	router := authRouter(t, cache.NewNoopValkeyCache())

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/ping", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthSkipsPublicEndpoints(t *testing.T) {
	router := authRouter(t, cache.NewNoopValkeyCache())

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestAuthAcceptsValidJWT(t *testing.T) {
	router := authRouter(t, cache.NewNoopValkeyCache())
	token := signTestJWT(t, testSecret, jwt.MapClaims{
		"sub":       "teacher-1",
		"tenant_id": "tenant-north",
		"role":      "teacher",
		"exp":       time.Now().Add(time.Hour).Unix(),
	})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/ping", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "teacher-1")
}

func TestAuthRejectsWrongSignature(t *testing.T) {
	router := authRouter(t, cache.NewNoopValkeyCache())
	token := signTestJWT(t, "some-other-secret", jwt.MapClaims{
		"sub":  "teacher-1",
		"role": "teacher",
		"exp":  time.Now().Add(time.Hour).Unix(),
	})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/ping", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthRejectsExpiredJWT(t *testing.T) {
	router := authRouter(t, cache.NewNoopValkeyCache())
	token := signTestJWT(t, testSecret, jwt.MapClaims{
		"sub":  "teacher-1",
		"role": "teacher",
		"exp":  time.Now().Add(-time.Hour).Unix(),
	})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/ping", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthRejectsUnknownRole(t *testing.T) {
	router := authRouter(t, cache.NewNoopValkeyCache())
	token := signTestJWT(t, testSecret, jwt.MapClaims{
		"sub":  "intruder-1",
		"role": "headmaster",
		"exp":  time.Now().Add(time.Hour).Unix(),
	})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/ping", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthPrefersCachedSession(t *testing.T) {
	valkeyCache := cache.NewNoopValkeyCache()
	session := &models.UserSession{
		ID:        "sess-1",
		UserID:    "student-5",
		TenantID:  "tenant-north",
		Role:      models.RoleStudent,
		ExpiresAt: time.Now().Add(time.Hour),
	}
	require.NoError(t, valkeyCache.SetSession(context.Background(), session))

	router := authRouter(t, valkeyCache)
	req := httptest.NewRequest(http.MethodGet, "/api/v1/ping", nil)
	req.Header.Set("X-Session-Token", "sess-1")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "student-5")
}

func TestAuthRejectsExpiredSession(t *testing.T) {
	valkeyCache := cache.NewNoopValkeyCache()
	session := &models.UserSession{
		ID:        "sess-2",
		UserID:    "student-5",
		TenantID:  "tenant-north",
		Role:      models.RoleStudent,
		ExpiresAt: time.Now().Add(-time.Minute),
	}
	require.NoError(t, valkeyCache.SetSession(context.Background(), session))

	router := authRouter(t, valkeyCache)
	req := httptest.NewRequest(http.MethodGet, "/api/v1/ping", nil)
	req.Header.Set("X-Session-Token", "sess-2")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
