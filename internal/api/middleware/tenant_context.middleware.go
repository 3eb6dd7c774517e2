// internal/api/middleware/tenant_context.middleware.go
package middleware

import (
	"crypto/subtle"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/edustack/campus-core/internal/access"
	"github.com/edustack/campus-core/internal/config"
	"github.com/edustack/campus-core/internal/models"
	"github.com/edustack/campus-core/internal/tenant"
	"github.com/edustack/campus-core/pkg/logger"
)

// ContextRequest is the gin context key holding the built
// *access.RequestContext.
const ContextRequest = "request_context"

// TenantContext resolves the request's tenant and binds it to the
// authenticated principal. Every failure is terminal for the request
// and maps to a generic, non-leaking response body.
func TenantContext(resolver *tenant.Resolver, tenancy config.TenancyConfig, log logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if isPublicEndpoint(c.Request.URL.Path) {
			c.Next()
			return
		}

		principal, ok := principalFrom(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{
				"status": "error",
				"error":  "Authentication required",
			})
			c.Abort()
			return
		}

		internalCaller := isInternalCaller(c, tenancy)
		explicitTenant := c.GetHeader(tenancy.TenantHeader)

		resolved, err := resolver.Resolve(c.Request.Context(), c.Request.Host, explicitTenant, internalCaller)
		if err != nil && !errors.Is(err, tenant.ErrNoTenantIndicated) {
			status, body := resolutionFailure(err)
			log.Warn("Tenant resolution failed",
				"host", c.Request.Host,
				"principal_id", principal.ID,
				"error", err)
			c.JSON(status, body)
			c.Abort()
			return
		}

		// A missing tenant indication flows into BuildContext as a nil
		// tenant and fails closed there, super admins included.
		rc, err := access.BuildContext(resolved, principal)
		if err != nil {
			log.Warn("Request context rejected",
				"principal_id", principal.ID,
				"principal_tenant", principal.TenantID,
				"error", err)
			c.JSON(http.StatusForbidden, gin.H{
				"status": "error",
				"error":  "Access denied",
			})
			c.Abort()
			return
		}

		c.Set(ContextRequest, rc)
		c.Header("X-Tenant-ID", rc.Tenant().ID)

		c.Next()
	}
}

// principalFrom pulls the authenticated principal set by AuthMiddleware.
func principalFrom(c *gin.Context) (models.Principal, bool) {
	v, exists := c.Get(ContextPrincipal)
	if !exists {
		return models.Principal{}, false
	}
	principal, ok := v.(models.Principal)
	return principal, ok
}

// RequestContextFrom pulls the built request context; handlers call
// this instead of reaching into gin keys directly.
func RequestContextFrom(c *gin.Context) (*access.RequestContext, bool) {
	v, exists := c.Get(ContextRequest)
	if !exists {
		return nil, false
	}
	rc, ok := v.(*access.RequestContext)
	return rc, ok
}

func isInternalCaller(c *gin.Context, tenancy config.TenancyConfig) bool {
	if tenancy.InternalToken == "" {
		return false
	}
	presented := c.GetHeader(tenancy.InternalHeader)
	return subtle.ConstantTimeCompare([]byte(presented), []byte(tenancy.InternalToken)) == 1
}

func resolutionFailure(err error) (int, gin.H) {
	switch {
	case errors.Is(err, tenant.ErrTenantNotFound):
		return http.StatusNotFound, gin.H{
			"status": "error",
			"error":  "Tenant not found",
		}
	case errors.Is(err, tenant.ErrTenantSuspended):
		return http.StatusServiceUnavailable, gin.H{
			"status": "error",
			"error":  "Tenant suspended",
		}
	case errors.Is(err, tenant.ErrResolutionTimeout):
		return http.StatusGatewayTimeout, gin.H{
			"status": "error",
			"error":  "Tenant resolution timed out",
		}
	default:
		return http.StatusForbidden, gin.H{
			"status": "error",
			"error":  "Access denied",
		}
	}
}
