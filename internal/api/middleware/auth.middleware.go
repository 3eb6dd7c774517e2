// internal/api/middleware/auth.middleware.go
package middleware

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"github.com/edustack/campus-core/internal/config"
	"github.com/edustack/campus-core/internal/models"
	"github.com/edustack/campus-core/internal/monitoring"
	"github.com/edustack/campus-core/pkg/cache"
)

// Context keys set by the auth middleware for downstream middleware
// and handlers.
const (
	ContextPrincipal = "principal"
	ContextSessionID = "session_id"
)

// AuthMiddleware authenticates the request principal. Session tokens
// issued by the platform auth provider are looked up in the cache
// first; JWTs are verified locally as a fallback. Requests without a
// valid principal never reach tenant resolution.
func AuthMiddleware(authConfig config.AuthConfig, valkeyCache cache.ValkeyCache) gin.HandlerFunc {
	return func(c *gin.Context) {
		if isPublicEndpoint(c.Request.URL.Path) {
			c.Next()
			return
		}

		token := extractToken(c)
		if token == "" {
			monitoring.RecordAuthAttempt("none", "failure")
			c.JSON(http.StatusUnauthorized, gin.H{
				"status": "error",
				"error":  "Authentication required",
			})
			c.Abort()
			return
		}

		principal, sessionID, err := authenticate(c, token, authConfig, valkeyCache)
		if err != nil {
			monitoring.RecordAuthAttempt("token", "failure")
			c.JSON(http.StatusUnauthorized, gin.H{
				"status": "error",
				"error":  "Invalid authentication token",
			})
			c.Abort()
			return
		}
		monitoring.RecordAuthAttempt("token", "success")

		c.Set(ContextPrincipal, principal)
		c.Set(ContextSessionID, sessionID)

		c.Header("X-Content-Type-Options", "nosniff")
		c.Header("X-Frame-Options", "DENY")

		c.Next()
	}
}

// extractToken gets the authentication token from the request.
func extractToken(c *gin.Context) string {
	authHeader := c.GetHeader("Authorization")
	if authHeader != "" {
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "bearer") {
			return parts[1]
		}
	}

	if sessionToken := c.GetHeader("X-Session-Token"); sessionToken != "" {
		return sessionToken
	}

	if cookie, err := c.Cookie("campus_session"); err == nil {
		return cookie
	}

	return ""
}

// authenticate resolves the token to a principal: cached session first,
// then JWT verification.
func authenticate(c *gin.Context, token string, authConfig config.AuthConfig, valkeyCache cache.ValkeyCache) (models.Principal, string, error) {
	if session, err := valkeyCache.GetSession(c.Request.Context(), token); err == nil && session != nil {
		if session.Expired(time.Now()) {
			return models.Principal{}, "", fmt.Errorf("session expired")
		}
		session.LastActivity = time.Now()
		session.IPAddress = c.ClientIP()
		// Refresh failures do not fail the request.
		_ = valkeyCache.SetSession(c.Request.Context(), session)
		return session.Principal(), session.ID, nil
	}

	principal, err := verifyJWT(token, authConfig.JWTSecret)
	if err != nil {
		return models.Principal{}, "", err
	}
	return principal, "", nil
}

// campusClaims are the claims the platform auth provider puts in its
// JWTs.
type campusClaims struct {
	TenantID         string   `json:"tenant_id"`
	Role             string   `json:"role"`
	ClassIDs         []string `json:"class_ids,omitempty"`
	LinkedStudentIDs []string `json:"linked_student_ids,omitempty"`
	jwt.RegisteredClaims
}

func verifyJWT(token, secret string) (models.Principal, error) {
	if secret == "" {
		return models.Principal{}, fmt.Errorf("jwt verification not configured")
	}

	claims := &campusClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil {
		return models.Principal{}, fmt.Errorf("invalid JWT: %w", err)
	}
	if !parsed.Valid {
		return models.Principal{}, fmt.Errorf("invalid JWT")
	}

	principal := models.Principal{
		ID:               claims.Subject,
		TenantID:         claims.TenantID,
		Role:             models.Role(claims.Role),
		ClassIDs:         claims.ClassIDs,
		LinkedStudentIDs: claims.LinkedStudentIDs,
	}
	if principal.ID == "" || !models.ValidRole(principal.Role) {
		return models.Principal{}, fmt.Errorf("JWT missing subject or role")
	}
	return principal, nil
}

func isPublicEndpoint(path string) bool {
	publicEndpoints := []string{
		"/health",
		"/ready",
		"/metrics",
	}
	for _, endpoint := range publicEndpoints {
		if path == endpoint {
			return true
		}
	}
	return false
}
