package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/edustack/campus-core/internal/gateway"
)

// respondGatewayError maps gateway failures to generic responses. The
// body never echoes identifiers or query structure back to the caller;
// the specifics live in the audit log.
func respondGatewayError(c *gin.Context, err error) {
	var denied *gateway.DeniedError

	switch {
	case errors.Is(err, gateway.ErrConflictingTenantFilter), errors.As(err, &denied):
		c.JSON(http.StatusForbidden, gin.H{
			"status": "error",
			"error":  "Access denied",
		})
	case errors.Is(err, gateway.ErrRowNotFound):
		c.JSON(http.StatusNotFound, gin.H{
			"status": "error",
			"error":  "Not found",
		})
	case errors.Is(err, gateway.ErrGatewayTimeout):
		c.JSON(http.StatusGatewayTimeout, gin.H{
			"status": "error",
			"error":  "Request timed out",
		})
	case errors.Is(err, gateway.ErrUnknownColumn):
		c.JSON(http.StatusBadRequest, gin.H{
			"status": "error",
			"error":  "Invalid request",
		})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{
			"status": "error",
			"error":  "Internal error",
		})
	}
}

func respondForbidden(c *gin.Context) {
	c.JSON(http.StatusForbidden, gin.H{
		"status": "error",
		"error":  "Access denied",
	})
}

func respondMissingContext(c *gin.Context) {
	c.JSON(http.StatusForbidden, gin.H{
		"status": "error",
		"error":  "Access denied",
	})
}
