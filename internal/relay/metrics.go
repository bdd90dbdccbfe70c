package relay

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	requestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "relay_http_requests_total",
			Help: "Total number of relay HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	requestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "relay_http_request_duration_seconds",
			Help:    "Duration of relay HTTP requests, including streamed bodies",
			Buckets: []float64{.01, .05, .1, .25, .5, 1, 2.5, 5, 10, 30, 60},
		},
		[]string{"method", "path"},
	)

	activeStreams = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "relay_active_streams",
			Help: "Chat completion streams currently being relayed",
		},
	)

	upstreamResponses = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "relay_upstream_responses_total",
			Help: "Upstream responses by endpoint and status class",
		},
		[]string{"endpoint", "status"}, // 2xx, 4xx, 5xx, error
	)
)

func metricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		method := c.Request.Method
		requestsTotal.WithLabelValues(method, path, strconv.Itoa(c.Writer.Status())).Inc()
		requestDuration.WithLabelValues(method, path).Observe(time.Since(start).Seconds())
	}
}

func trackUpstream(endpoint string, status int) {
	class := "error"
	if status > 0 {
		class = strconv.Itoa(status/100) + "xx"
	}
	upstreamResponses.WithLabelValues(endpoint, class).Inc()
}
