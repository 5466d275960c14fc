package middleware

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"

	"KCMS-gateway/internal/platform/logging"
	"KCMS-gateway/internal/platform/resp"
)

// RateLimit: Redis の INCR+TTL による固定窓の流量制限。
// Redis 障害時は制限せずに通す
func RateLimit(rdb *redis.Client, prefix string, limit int, window time.Duration, keyFn func(*gin.Context) string) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := keyFn(c)
		if key == "" {
			c.Next()
			return
		}
		rkey := fmt.Sprintf("rl:%s:%s", prefix, key)
		cnt, err := rdb.Incr(c.Request.Context(), rkey).Result()
		if err != nil {
			logging.FromContext(c.Request.Context()).WithError(err).Warn("rate limiter unavailable")
			c.Next()
			return
		}
		// 最初の INCR で窓の TTL を張る
		if cnt == 1 {
			_ = rdb.Expire(c.Request.Context(), rkey, window).Err()
		}
		if cnt > int64(limit) {
			c.Header("Retry-After", fmt.Sprintf("%d", int(window.Seconds())))
			resp.FailWith(c, http.StatusTooManyRequests, "rate limited", nil)
			c.Abort()
			return
		}
		c.Next()
	}
}

func ClientIPKey(c *gin.Context) string { return c.ClientIP() }
