package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"

	"KCMS-gateway/internal/platform/logging"
)

// RequestLogger: メソッド・パス・ステータス・所要時間・IP をアクセスログに出す
func RequestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		c.Next()

		entry := logging.FromContext(c.Request.Context()).WithFields(log.Fields{
			"method":     c.Request.Method,
			"path":       path,
			"status":     c.Writer.Status(),
			"latency_ms": time.Since(start).Milliseconds(),
			"ip":         c.ClientIP(),
		})
		switch {
		case len(c.Errors) > 0:
			entry.WithField("errors", c.Errors.String()).Warn("request completed with errors")
		case c.Writer.Status() >= 500:
			entry.Warn("request completed")
		default:
			entry.Info("request completed")
		}
	}
}
