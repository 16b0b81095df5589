// Package obs registers prometheus metrics for the API. HTTP traffic is
// instrumented via an Echo middleware; the classifier reports identification
// outcomes and risk tiers through dedicated counters.
package obs

import (
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"method", "path", "status"},
	)

	httpRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latencies in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)

	identificationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vescom_identifications_total",
			Help: "Identification attempts by access type.",
		},
		[]string{"access_type"},
	)

	unauthorizedByTier = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vescom_unauthorized_by_tier_total",
			Help: "Unauthorized identification attempts by risk tier.",
		},
		[]string{"tier"},
	)
)

// Init registers all metrics with the default registry. Call once at startup.
func Init() {
	prometheus.MustRegister(httpRequestsTotal, httpRequestDuration,
		identificationsTotal, unauthorizedByTier)
}

// Handler exposes the default prometheus registry, wrapped for Echo.
func Handler() echo.HandlerFunc {
	h := promhttp.Handler()
	return func(c echo.Context) error {
		h.ServeHTTP(c.Response(), c.Request())
		return nil
	}
}

// Instrument is an Echo middleware recording request counts and latencies
// per route template (not per raw URL, to keep cardinality bounded).
func Instrument() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			status := c.Response().Status
			if err != nil {
				if he, ok := err.(*echo.HTTPError); ok {
					status = he.Code
				}
			}
			path := c.Path()
			if path == "" {
				path = c.Request().URL.Path
			}
			labels := []string{c.Request().Method, path, strconv.Itoa(status)}
			httpRequestsTotal.WithLabelValues(labels...).Inc()
			httpRequestDuration.WithLabelValues(labels...).Observe(time.Since(start).Seconds())
			return err
		}
	}
}

// CountIdentification records one identification outcome. Tier is only
// meaningful for unauthorized attempts and is ignored otherwise.
func CountIdentification(accessType, tier string) {
	identificationsTotal.WithLabelValues(accessType).Inc()
	if tier != "" {
		unauthorizedByTier.WithLabelValues(tier).Inc()
	}
}
