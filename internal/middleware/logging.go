package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"ridehail/internal/observability"
)

// RequestLogger writes one structured access log line per request and
// records request count and latency metrics.
func RequestLogger(log logrus.FieldLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		elapsed := time.Since(start)
		status := c.Writer.Status()
		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}

		labels := []string{c.Request.Method, path, strconv.Itoa(status)}
		observability.HTTPRequestsTotal.WithLabelValues(labels...).Inc()
		observability.HTTPRequestDuration.WithLabelValues(labels...).Observe(elapsed.Seconds())

		fields := logrus.Fields{
			"method":     c.Request.Method,
			"path":       c.Request.URL.Path,
			"route":      path,
			"status":     status,
			"latency_ms": elapsed.Milliseconds(),
			"client_ip":  c.ClientIP(),
		}
		if role, ok := c.Get(ContextRole); ok {
			fields["role"] = role
			fields["subject"] = c.GetString(ContextSubject)
		}

		entry := log.WithFields(fields)
		if len(c.Errors) > 0 {
			entry = entry.WithError(c.Errors.Last().Err)
		}

		switch {
		case status >= 500:
			entry.Error("request failed")
		case status >= 400:
			entry.Warn("request rejected")
		default:
			entry.Info("request handled")
		}
	}
}
