package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// - http_requests_total: パス・メソッド・ステータス別のリクエスト数
// - http_request_duration_seconds: パス・メソッド別の処理時間
// - batch_return_items_total: 一括返却の明細結果（success / failed）
// - upstream_requests_total: MES 呼び出し結果（endpoint / outcome）
var (
	HTTPRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "http_requests_total", Help: "HTTP requests by path, method and status"},
		[]string{"path", "method", "status"},
	)
	HTTPLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{Name: "http_request_duration_seconds", Help: "HTTP request latency", Buckets: prometheus.DefBuckets},
		[]string{"path", "method"},
	)
	BatchReturnItems = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "batch_return_items_total", Help: "Batch return items by result"},
		[]string{"result"},
	)
	UpstreamRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "upstream_requests_total", Help: "MES requests by endpoint and outcome"},
		[]string{"endpoint", "outcome"},
	)
	OverdueMarked = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "overdue_marked_total", Help: "Records moved to overdue by the sweep"},
	)
)

func init() {
	prometheus.MustRegister(HTTPRequests, HTTPLatency, BatchReturnItems, UpstreamRequests, OverdueMarked)
}

// Handler: 基本的な HTTP 指標を記録するミドルウェア
func Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		HTTPLatency.WithLabelValues(path, c.Request.Method).Observe(time.Since(start).Seconds())
		HTTPRequests.WithLabelValues(path, c.Request.Method, strconv.Itoa(c.Writer.Status())).Inc()
	}
}

// Exposer: /metrics 用
func Exposer() gin.HandlerFunc { return gin.WrapH(promhttp.Handler()) }
