package gateway

import (
	"strconv"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
)

var httpMetricsOnce sync.Once

var (
	httpRequestsTotal   *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
)

func initHTTPMetrics() {
	httpMetricsOnce.Do(func() {
		httpRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "authgate",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total HTTP requests by route, method and status.",
		}, []string{"route", "method", "status"})
		if err := prometheus.Register(httpRequestsTotal); err != nil {
			if already, ok := err.(prometheus.AlreadyRegisteredError); ok {
				httpRequestsTotal = already.ExistingCollector.(*prometheus.CounterVec)
			}
		}

		httpRequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "authgate",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route", "method"})
		if err := prometheus.Register(httpRequestDuration); err != nil {
			if already, ok := err.(prometheus.AlreadyRegisteredError); ok {
				httpRequestDuration = already.ExistingCollector.(*prometheus.HistogramVec)
			}
		}
	})
}

// Instrumentation records per-route counters and latency. The route template
// is used instead of the raw path so callback URLs do not explode label
// cardinality.
func Instrumentation() fiber.Handler {
	initHTTPMetrics()
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()

		route := c.Path()
		if r := c.Route(); r != nil && r.Path != "" {
			route = r.Path
		}
		status := strconv.Itoa(c.Response().StatusCode())
		httpRequestsTotal.WithLabelValues(route, c.Method(), status).Inc()
		httpRequestDuration.WithLabelValues(route, c.Method()).Observe(time.Since(start).Seconds())
		return err
	}
}
