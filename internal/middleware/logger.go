package middleware

import (
	"time" // Latency measurement

	"github.com/gin-gonic/gin"   // Gin web framework
	"github.com/sirupsen/logrus" // Structured logging
)

// Logger writes one structured line per request
func Logger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		fields := logrus.Fields{
			"request_id": c.GetString("requestID"), // Set by RequestID
			"method":     c.Request.Method,         // HTTP method
			"path":       c.Request.URL.Path,       // Request path
			"status":     c.Writer.Status(),        // Response status
			"latency":    time.Since(start).String(),
			"client_ip":  c.ClientIP(),
		}
		if email := c.GetString(ctxEmail); email != "" {
			fields["email"] = email // Authenticated caller
		}
		entry := logrus.WithFields(fields)
		switch {
		case c.Writer.Status() >= 500:
			entry.Error("request failed")
		case c.Writer.Status() >= 400:
			entry.Warn("request rejected")
		default:
			entry.Info("request served")
		}
	}
}
