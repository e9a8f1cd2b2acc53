package middleware

import (
	"time"

	"codetech/internal/observability"
	contextutils "codetech/internal/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// RequestIDHeader carries the request correlation id in both directions
const RequestIDHeader = "X-Request-ID"

// RequestID reuses an incoming X-Request-ID or generates one, stores it in the
// request context and echoes it on the response.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(RequestIDHeader)
		if id == "" || len(id) > 128 {
			id = uuid.NewString()
		}
		c.Request = c.Request.WithContext(contextutils.WithRequestID(c.Request.Context(), id))
		c.Header(RequestIDHeader, id)
		c.Next()
	}
}

// RequestLogger logs one line per request once the handler chain has finished
func RequestLogger(logger *observability.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		fields := map[string]interface{}{
			"method":      c.Request.Method,
			"path":        c.Request.URL.Path,
			"route":       c.FullPath(),
			"status":      status,
			"latency_ms":  time.Since(start).Milliseconds(),
			"client_ip":   c.ClientIP(),
			"user_agent":  c.Request.UserAgent(),
			"body_length": c.Writer.Size(),
		}
		if userID := contextutils.GetUserIDFromContext(c.Request.Context()); userID != 0 {
			fields["user_id"] = userID
		}

		ctx := c.Request.Context()
		switch {
		case status >= 500:
			var err error
			if last := c.Errors.Last(); last != nil {
				err = last.Err
			}
			logger.Error(ctx, "Request failed", err, fields)
		case status >= 400:
			logger.Warn(ctx, "Request rejected", fields)
		default:
			logger.Info(ctx, "Request handled", fields)
		}
	}
}
