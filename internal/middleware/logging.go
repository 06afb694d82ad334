package middleware

import (
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"budgeteer/internal/logger"
	"budgeteer/internal/uuid"
)

const (
	// RequestIDHeader carries the correlation ID in both directions.
	RequestIDHeader = "X-Request-ID"

	requestIDKey       = "requestID"
	maxRequestIDLength = 128
)

// RequestLogging returns a Gin middleware that assigns each request a
// correlation ID and logs method, path, status code, latency, and client IP
// using Zap. A caller-supplied X-Request-ID is reused. The ID and a logger
// carrying it are stored on the request context for downstream code.
func RequestLogging(log *zap.SugaredLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		requestID := strings.TrimSpace(c.GetHeader(RequestIDHeader))
		if requestID == "" || len(requestID) > maxRequestIDLength {
			requestID = uuid.New()
		}
		c.Set(requestIDKey, requestID)
		c.Writer.Header().Set(RequestIDHeader, requestID)

		reqLog := log.With("request_id", requestID)
		ctx := logger.WithRequestID(c.Request.Context(), requestID)
		ctx = logger.WithContext(ctx, reqLog)
		c.Request = c.Request.WithContext(ctx)

		c.Next()

		reqLog.Infow("request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"latency_ms", time.Since(start).Milliseconds(),
			"client_ip", c.ClientIP(),
		)
	}
}
