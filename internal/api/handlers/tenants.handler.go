// internal/api/handlers/tenants.handler.go
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/edustack/campus-core/internal/api/middleware"
	"github.com/edustack/campus-core/internal/models"
	"github.com/edustack/campus-core/internal/tenant"
	"github.com/edustack/campus-core/pkg/logger"
)

// TenantsHandler serves tenant administration. Listing and lifecycle
// changes are platform-operator actions and require the super_admin
// role; reading the current tenant is open to any principal bound to it.
type TenantsHandler struct {
	directory tenant.Directory
	logger    logger.Logger
}

func NewTenantsHandler(directory tenant.Directory, log logger.Logger) *TenantsHandler {
	return &TenantsHandler{directory: directory, logger: log}
}

// GetCurrent handles GET /api/v1/tenants/current
func (h *TenantsHandler) GetCurrent(c *gin.Context) {
	rc, ok := middleware.RequestContextFrom(c)
	if !ok {
		respondMissingContext(c)
		return
	}

	t := rc.Tenant()
	c.JSON(http.StatusOK, gin.H{
		"status": "success",
		"data": gin.H{
			"id":          t.ID,
			"name":        t.Name,
			"displayName": t.DisplayName,
			"subdomain":   t.Subdomain,
			"status":      t.Status,
		},
	})
}

// List handles GET /api/v1/tenants
func (h *TenantsHandler) List(c *gin.Context) {
	rc, ok := middleware.RequestContextFrom(c)
	if !ok {
		respondMissingContext(c)
		return
	}
	if rc.Principal().Role != models.RoleSuperAdmin {
		respondForbidden(c)
		return
	}

	tenants, err := h.directory.List(c.Request.Context())
	if err != nil {
		h.logger.Error("Tenant list failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"status": "error",
			"error":  "Internal error",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status": "success",
		"data": gin.H{
			"tenants": tenants,
			"count":   len(tenants),
		},
	})
}

// Suspend handles POST /api/v1/tenants/:id/suspend
func (h *TenantsHandler) Suspend(c *gin.Context) {
	h.setStatus(c, models.TenantStatusSuspended)
}

// Activate handles POST /api/v1/tenants/:id/activate
func (h *TenantsHandler) Activate(c *gin.Context) {
	h.setStatus(c, models.TenantStatusActive)
}

func (h *TenantsHandler) setStatus(c *gin.Context, status models.TenantStatus) {
	rc, ok := middleware.RequestContextFrom(c)
	if !ok {
		respondMissingContext(c)
		return
	}
	if rc.Principal().Role != models.RoleSuperAdmin {
		respondForbidden(c)
		return
	}

	id := c.Param("id")
	if err := h.directory.UpdateStatus(c.Request.Context(), id, status); err != nil {
		if errors.Is(err, tenant.ErrTenantNotKnown) {
			c.JSON(http.StatusNotFound, gin.H{
				"status": "error",
				"error":  "Tenant not found",
			})
			return
		}
		h.logger.Error("Tenant status update failed", "tenant_id", id, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"status": "error",
			"error":  "Internal error",
		})
		return
	}

	h.logger.Info("Tenant status changed",
		"tenant_id", id,
		"status", status,
		"changed_by", rc.Principal().ID)

	c.JSON(http.StatusOK, gin.H{
		"status": "success",
		"data":   gin.H{"id": id, "tenantStatus": status},
	})
}
