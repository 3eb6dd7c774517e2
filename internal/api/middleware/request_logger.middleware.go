// internal/api/middleware/request_logger.middleware.go
package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/edustack/campus-core/pkg/logger"
)

// RequestLogger logs HTTP requests with the structured logger. Bodies
// are never logged; denial responses stay generic on the wire and the
// detail lives in the audit log instead.
func RequestLogger(log logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		fields := []interface{}{
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"client_ip", c.ClientIP(),
			"request_id", c.Request.Header.Get("X-Request-ID"),
		}
		if sid := c.GetString(ContextSessionID); sid != "" {
			fields = append(fields, "session_id", sid)
		}

		status := c.Writer.Status()
		switch {
		case status >= 500:
			log.Error("HTTP request", fields...)
		case status >= 400:
			log.Warn("HTTP request", fields...)
		default:
			log.Info("HTTP request", fields...)
		}
	}
}
