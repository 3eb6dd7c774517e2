package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/edustack/campus-core/internal/config"
	"github.com/edustack/campus-core/internal/models"
	"github.com/edustack/campus-core/pkg/cache"
)

func rateLimitedRouter(cfg config.RateLimitConfig, principalID string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(func(c *gin.Context) {
		if principalID != "" {
			c.Set(ContextPrincipal, models.Principal{ID: principalID, Role: models.RoleTeacher})
		}
		c.Next()
	})
	router.Use(RateLimiter(cache.NewNoopValkeyCache(), cfg))
	router.GET("/ping", func(c *gin.Context) { c.Status(http.StatusOK) })
	return router
}

func TestRateLimiterEnforcesWindowLimit(t *testing.T) {
	router := rateLimitedRouter(config.RateLimitConfig{Enabled: true, RequestsPerMinute: 2}, "teacher-1")

	for i := 0; i < 2; i++ {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))
		assert.Equal(t, http.StatusOK, w.Code)
	}

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "0", w.Header().Get("X-Rate-Limit-Remaining"))
}

func TestRateLimiterDisabled(t *testing.T) {
	router := rateLimitedRouter(config.RateLimitConfig{Enabled: false, RequestsPerMinute: 1}, "teacher-1")

	for i := 0; i < 5; i++ {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))
		assert.Equal(t, http.StatusOK, w.Code)
	}
}

func TestRateLimiterBucketsAnonymousRequestsTogether(t *testing.T) {
	router := rateLimitedRouter(config.RateLimitConfig{Enabled: true, RequestsPerMinute: 1}, "")

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
}
