// internal/api/handlers/audit.handler.go
package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/edustack/campus-core/internal/access"
	"github.com/edustack/campus-core/internal/api/middleware"
	"github.com/edustack/campus-core/internal/audit"
	"github.com/edustack/campus-core/internal/models"
	"github.com/edustack/campus-core/pkg/logger"
)

// AuditHandler serves tenant-scoped audit queries. The query is itself
// an authorized operation on the audit resource, so a student asking
// for the audit log gets a recorded denial like any other.
type AuditHandler struct {
	engine *access.Engine
	audit  *audit.Service
	logger logger.Logger
}

func NewAuditHandler(engine *access.Engine, auditSvc *audit.Service, log logger.Logger) *AuditHandler {
	return &AuditHandler{engine: engine, audit: auditSvc, logger: log}
}

// ListRecords handles GET /api/v1/audit/records
func (h *AuditHandler) ListRecords(c *gin.Context) {
	rc, ok := middleware.RequestContextFrom(c)
	if !ok {
		respondMissingContext(c)
		return
	}

	res := models.ResourceDescriptor{
		TenantID: rc.Tenant().ID,
		Kind:     models.ResourceAudit,
	}
	decision := h.engine.Authorize(rc, res, models.ActionRead)
	if !decision.Allowed {
		h.audit.RecordDenial(c.Request.Context(), rc.Tenant().ID, rc.Principal(),
			res, models.ActionRead, decision.Reason)
		respondForbidden(c)
		return
	}

	filters := audit.Filters{
		PrincipalID: c.Query("principal_id"),
		Reason:      models.DecisionReason(c.Query("reason")),
		DeniedOnly:  c.Query("denied_only") == "true",
	}
	if v := c.Query("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			filters.Limit = n
		}
	}
	if v := c.Query("since"); v != "" {
		since, err := time.Parse(time.RFC3339, v)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"status": "error",
				"error":  "Invalid since timestamp",
			})
			return
		}
		filters.Since = &since
	}

	records, err := h.audit.Query(c.Request.Context(), rc.Tenant().ID, filters)
	if err != nil {
		h.logger.Error("Audit query failed", "tenant_id", rc.Tenant().ID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"status": "error",
			"error":  "Internal error",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status": "success",
		"data": gin.H{
			"records": records,
			"count":   len(records),
		},
	})
}
