// internal/api/handlers/health.handler.go
package handlers

import (
	"context"
	"database/sql"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/edustack/campus-core/pkg/cache"
	"github.com/edustack/campus-core/pkg/logger"
)

// HealthHandler serves liveness and readiness probes.
type HealthHandler struct {
	db     *sql.DB
	cache  cache.ValkeyCache
	logger logger.Logger
}

func NewHealthHandler(db *sql.DB, valkeyCache cache.ValkeyCache, log logger.Logger) *HealthHandler {
	return &HealthHandler{db: db, cache: valkeyCache, logger: log}
}

// HealthCheck handles GET /health
func (h *HealthHandler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"service":   "campus-core",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// ReadinessCheck handles GET /ready. The service is ready only when
// the tenant directory store and the cache both answer.
func (h *HealthHandler) ReadinessCheck(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	checks := gin.H{}
	ready := true

	if err := h.db.PingContext(ctx); err != nil {
		h.logger.Warn("Readiness probe: database unreachable", "error", err)
		checks["database"] = "unavailable"
		ready = false
	} else {
		checks["database"] = "ok"
	}

	if err := h.cache.HealthCheck(ctx); err != nil {
		h.logger.Warn("Readiness probe: cache unreachable", "error", err)
		checks["cache"] = "unavailable"
		ready = false
	} else {
		checks["cache"] = "ok"
	}

	status := http.StatusOK
	if !ready {
		status = http.StatusServiceUnavailable
	}
	c.JSON(status, gin.H{
		"ready":  ready,
		"checks": checks,
	})
}
