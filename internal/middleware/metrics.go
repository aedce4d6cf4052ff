package middleware

import (
	"strconv" // Status code labels
	"time"    // Latency measurement

	"github.com/gin-gonic/gin"                                // Gin web framework
	"github.com/prometheus/client_golang/prometheus"          // Metric types
	"github.com/prometheus/client_golang/prometheus/promhttp" // Scrape handler
)

var (
	// RequestDuration tracks request latency by route
	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "bookcourier",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)

	// RequestTotal counts requests by route and status
	RequestTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "bookcourier",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests.",
		},
		[]string{"method", "path", "status"},
	)

	// RequestInFlight tracks requests being served
	RequestInFlight = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "bookcourier",
		Subsystem: "http",
		Name:      "requests_in_flight",
		Help:      "Number of HTTP requests currently being served.",
	})

	// OrderTransitions counts applied order status changes
	OrderTransitions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "bookcourier",
			Subsystem: "orders",
			Name:      "transitions_total",
			Help:      "Order status transitions applied.",
		},
		[]string{"from", "to"},
	)

	// PaymentsVerified counts verify-payment outcomes
	PaymentsVerified = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "bookcourier",
			Subsystem: "payments",
			Name:      "verifications_total",
			Help:      "Checkout session verifications by outcome.",
		},
		[]string{"outcome"}, // "paid" | "unpaid" | "duplicate" | "error"
	)
)

func init() {
	prometheus.MustRegister(RequestDuration, RequestTotal, RequestInFlight, OrderTransitions, PaymentsVerified)
}

// Metrics records latency and counts for every request
func Metrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		RequestInFlight.Inc()
		c.Next()
		RequestInFlight.Dec()

		path := c.FullPath() // Route template keeps label cardinality bounded
		if path == "" {
			path = "unmatched"
		}
		status := strconv.Itoa(c.Writer.Status())
		RequestDuration.WithLabelValues(c.Request.Method, path, status).Observe(time.Since(start).Seconds())
		RequestTotal.WithLabelValues(c.Request.Method, path, status).Inc()
	}
}

// MetricsHandler exposes the default registry for scraping
func MetricsHandler() gin.HandlerFunc {
	return gin.WrapH(promhttp.Handler())
}
