package middleware

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/edustack/campus-core/internal/config"
	"github.com/edustack/campus-core/internal/models"
	"github.com/edustack/campus-core/pkg/cache"
)

// Anonymous bucket for requests without an authenticated principal.
const anonymousBucket = "anonymous"

// RateLimiter implements per-principal fixed-window rate limiting on
// top of the shared cache. The window is one minute.
func RateLimiter(valkeyCache cache.ValkeyCache, cfg config.RateLimitConfig) gin.HandlerFunc {
	maxRequests := int64(cfg.RequestsPerMinute)
	if maxRequests <= 0 {
		maxRequests = 1000
	}

	return func(c *gin.Context) {
		if !cfg.Enabled {
			c.Next()
			return
		}

		bucket := anonymousBucket
		if v, exists := c.Get(ContextPrincipal); exists {
			if principal, ok := v.(models.Principal); ok {
				bucket = principal.ID
			}
		}

		window := time.Now().Unix() / 60
		key := fmt.Sprintf("rate_limit:%s:%d", bucket, window)

		count, err := valkeyCache.IncrWindow(c.Request.Context(), key, 2*time.Minute)
		if err != nil {
			// A broken cache must not take the API down with it.
			c.Next()
			return
		}

		c.Header("X-Rate-Limit-Limit", strconv.FormatInt(maxRequests, 10))
		c.Header("X-Rate-Limit-Reset", strconv.FormatInt((window+1)*60, 10))

		if count > maxRequests {
			c.Header("X-Rate-Limit-Remaining", "0")
			c.JSON(http.StatusTooManyRequests, gin.H{
				"status":      "error",
				"error":       "Rate limit exceeded",
				"retry_after": 60,
			})
			c.Abort()
			return
		}

		c.Header("X-Rate-Limit-Remaining", strconv.FormatInt(maxRequests-count, 10))
		c.Next()
	}
}
