package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"moodping/api/metrics"
)

const (
	RequestIDHeader = "X-Request-ID"
	contextRequest  = "request_id"
)

// RequestID tags each request with an id, reusing the caller's when given.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(RequestIDHeader)
		if id == "" || len(id) > 64 {
			id = uuid.NewString()
		}
		c.Set(contextRequest, id)
		c.Header(RequestIDHeader, id)
		c.Next()
	}
}

func RequestIDFrom(c *gin.Context) string {
	return c.GetString(contextRequest)
}

// Instrument records Prometheus metrics and an access log line per request.
func Instrument() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		metrics.IncInFlight()
		defer metrics.DecInFlight()

		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		status := c.Writer.Status()
		elapsed := time.Since(start)
		metrics.RecordHTTPRequest(c.Request.Method, path, status, elapsed)

		entry := log.WithFields(log.Fields{
			"request_id": RequestIDFrom(c),
			"method":     c.Request.Method,
			"path":       path,
			"status":     status,
			"elapsed":    elapsed.String(),
		})
		if status >= 500 {
			entry.Error("request failed")
		} else {
			entry.Debug("request served")
		}
	}
}
