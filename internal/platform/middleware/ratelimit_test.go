package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/require"
)

func newLimitedRouter(rdb *redis.Client, limit int) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.POST("/x", RateLimit(rdb, "mutation", limit, time.Minute, ClientIPKey), func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})
	return r
}

func hit(r http.Handler) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/x", nil)
	req.RemoteAddr = "10.0.0.7:5123"
	r.ServeHTTP(w, req)
	return w
}

func TestRateLimitRejectsOverLimit(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()
	r := newLimitedRouter(rdb, 2)

	require.Equal(t, http.StatusNoContent, hit(r).Code)
	require.Equal(t, http.StatusNoContent, hit(r).Code)

	w := hit(r)
	require.Equal(t, http.StatusTooManyRequests, w.Code)
	require.Equal(t, "60", w.Header().Get("Retry-After"))

	// 窓が張られている
	require.Equal(t, time.Minute, mr.TTL("rl:mutation:10.0.0.7"))

	// 窓が過ぎれば数え直し
	mr.FastForward(time.Minute + time.Second)
	require.Equal(t, http.StatusNoContent, hit(r).Code)
}

func TestRateLimitFailsOpenWhenRedisDown(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{
		Addr:        mr.Addr(),
		DialTimeout: 100 * time.Millisecond,
		MaxRetries:  -1,
	})
	defer rdb.Close()
	mr.Close()

	r := newLimitedRouter(rdb, 1)
	for i := 0; i < 3; i++ {
		require.Equal(t, http.StatusNoContent, hit(r).Code)
	}
}
