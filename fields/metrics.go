package fields

import (
	"log"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var authMetricsOnce sync.Once

var (
	authLoginsTotal      *prometheus.CounterVec
	authCallbacksTotal   *prometheus.CounterVec
	authCallbackDuration *prometheus.HistogramVec
)

func registerAuthCountVec(c *prometheus.CounterVec) *prometheus.CounterVec {
	if err := prometheus.Register(c); err != nil {
		if already, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := already.ExistingCollector.(*prometheus.CounterVec); ok {
				return existing
			}
		}
		log.Printf("prometheus counter register failed: %v", err)
	}
	return c
}

func registerAuthHistogramVec(c *prometheus.HistogramVec) *prometheus.HistogramVec {
	if err := prometheus.Register(c); err != nil {
		if already, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := already.ExistingCollector.(*prometheus.HistogramVec); ok {
				return existing
			}
		}
		log.Printf("prometheus histogram register failed: %v", err)
	}
	return c
}

func initAuthMetrics() {
	authMetricsOnce.Do(func() {
		authLoginsTotal = registerAuthCountVec(prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "authgate",
			Subsystem: "oauth",
			Name:      "logins_total",
			Help:      "Total OAuth login initiations.",
		}, []string{"provider", "result"}))

		authCallbacksTotal = registerAuthCountVec(prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "authgate",
			Subsystem: "oauth",
			Name:      "callbacks_total",
			Help:      "Total OAuth callback outcomes.",
		}, []string{"provider", "result"}))

		authCallbackDuration = registerAuthHistogramVec(prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "authgate",
			Subsystem: "oauth",
			Name:      "callback_duration_seconds",
			Help:      "Duration of OAuth callback handling, token exchange included.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"provider", "result"}))
	})
}

// CountLogin records an initiation outcome ("redirected", "unsupported",
// "failed", "rate_limited").
func CountLogin(provider, result string) {
	initAuthMetrics()
	authLoginsTotal.WithLabelValues(provider, result).Inc()
}

// ObserveCallback records a callback outcome and its duration.
func ObserveCallback(provider, result string, elapsed time.Duration) {
	initAuthMetrics()
	authCallbacksTotal.WithLabelValues(provider, result).Inc()
	authCallbackDuration.WithLabelValues(provider, result).Observe(elapsed.Seconds())
}
