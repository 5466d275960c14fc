package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"KCMS-gateway/internal/platform/logging"
)

const (
	HeaderRequestID = "X-Request-Id"
	CtxRequestIDKey = "request_id"
)

// RequestID: X-Request-Id を生成または透過し、リクエスト単位のロガーにも載せる
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		rid := c.Request.Header.Get(HeaderRequestID)
		if rid == "" {
			rid = uuid.NewString()
		}
		c.Set(CtxRequestIDKey, rid)
		c.Writer.Header().Set(HeaderRequestID, rid)

		entry := log.WithField("request_id", rid)
		c.Request = c.Request.WithContext(logging.WithEntry(c.Request.Context(), entry))
		c.Next()
	}
}
