package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"supply-rounds/internal/logging"
	"supply-rounds/internal/metrics"
)

// Logger logs each request and records the HTTP metrics.
func Logger(log logging.Logger) gin.HandlerFunc {
	if log == nil {
		log = logging.Noop()
	}
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		latency := time.Since(start)

		// route template keeps metric cardinality bounded
		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		status := strconv.Itoa(c.Writer.Status())
		metrics.HTTPRequests.WithLabelValues(c.Request.Method, path, status).Inc()
		metrics.HTTPDuration.WithLabelValues(c.Request.Method, path, status).Observe(latency.Seconds())

		log.Info(c.Request.Context(), "http request",
			logging.String("method", c.Request.Method),
			logging.String("path", c.Request.URL.Path),
			logging.Int("status", c.Writer.Status()),
			logging.Any("latency", latency),
			logging.String("client_ip", c.ClientIP()))
	}
}
