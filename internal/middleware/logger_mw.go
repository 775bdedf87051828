package middleware

import (
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// RequestLogger logs each request with a request id and attaches a contextual
// logger to the gin context for downstream use.
func RequestLogger(base *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		reqID := c.GetHeader("X-Request-ID")
		if reqID == "" {
			reqID = uuid.NewString()
		}

		logger := base.With(
			"req_id", reqID,
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"remote_addr", c.ClientIP(),
		)
		c.Set(LoggerKey, logger)
		c.Header("X-Request-ID", reqID)

		c.Next()

		logger.Info("http_request",
			"status", c.Writer.Status(),
			"duration_ms", time.Since(start).Milliseconds(),
			"user_agent", c.Request.UserAgent(),
		)
	}
}

// LoggerKey is the gin context key for the request-scoped logger.
const LoggerKey = "requestLogger"

// LoggerFromContext returns the request-scoped logger, or the default logger
// outside of a request.
func LoggerFromContext(c *gin.Context) *slog.Logger {
	if val, exists := c.Get(LoggerKey); exists {
		if l, ok := val.(*slog.Logger); ok {
			return l
		}
	}
	return slog.Default()
}
