// Package metrics holds the Prometheus collectors for pumpwatch and the
// Fiber glue that records and exposes them.
package metrics

import (
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/valyala/fasthttp/fasthttpadaptor"
)

// Refresh outcomes.
const (
	OutcomeCommitted = "committed"
	OutcomeStale     = "stale"
	OutcomeFallback  = "fallback"
)

// Collectors are created up front so code paths that record metrics work
// in tests without a registry; Register exposes them.
var (
	RefreshTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pumpwatch_refresh_total",
			Help: "Refresh cycles, by trigger and outcome.",
		},
		[]string{"trigger", "outcome"},
	)

	FetchDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "pumpwatch_upstream_fetch_duration_seconds",
			Help:    "Duration of upstream list requests.",
			Buckets: prometheus.DefBuckets,
		},
	)

	SnapshotStreams = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "pumpwatch_snapshot_streams",
			Help: "Number of streams in the committed snapshot.",
		},
	)

	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "pumpwatch_api_request_duration_seconds",
			Help:    "HTTP request duration in seconds, by endpoint and method.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"endpoint", "method", "status"},
	)

	RequestsInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "pumpwatch_requests_in_flight",
			Help: "Number of HTTP requests currently being served.",
		},
	)

	CacheHits = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "pumpwatch_cache_hits_total",
			Help: "Total Redis view cache hits.",
		},
	)

	CacheMisses = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "pumpwatch_cache_misses_total",
			Help: "Total Redis view cache misses.",
		},
	)

	ArchivedSamples = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "pumpwatch_archived_samples_total",
			Help: "Stream samples written to the snapshot archive.",
		},
	)
)

// Register registers all collectors with the default registry. Call once
// at startup. pool may be nil when the archive is disabled.
func Register(pool *pgxpool.Pool) {
	prometheus.MustRegister(
		RefreshTotal,
		FetchDuration,
		SnapshotStreams,
		RequestDuration,
		RequestsInFlight,
		CacheHits,
		CacheMisses,
		ArchivedSamples,
	)

	if pool == nil {
		return
	}
	prometheus.MustRegister(
		prometheus.NewGaugeFunc(
			prometheus.GaugeOpts{
				Name: "pumpwatch_db_connection_pool_active",
				Help: "Number of active database connections.",
			},
			func() float64 { return float64(pool.Stat().AcquiredConns()) },
		),
		prometheus.NewGaugeFunc(
			prometheus.GaugeOpts{
				Name: "pumpwatch_db_connection_pool_idle",
				Help: "Number of idle database connections.",
			},
			func() float64 { return float64(pool.Stat().IdleConns()) },
		),
	)
}

// Middleware records request duration and in-flight count.
func Middleware() fiber.Handler {
	return func(c fiber.Ctx) error {
		if c.Path() == "/metrics" {
			return c.Next()
		}

		// Fiber hands out slices backed by the fasthttp buffer; copy them
		// before the handler chain can reuse it.
		path := string([]byte(c.Path()))
		method := string([]byte(c.Method()))
		endpoint := SanitizeEndpoint(path)

		RequestsInFlight.Inc()
		start := time.Now()

		err := c.Next()

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(c.Response().StatusCode())

		RequestDuration.WithLabelValues(endpoint, method, status).Observe(duration)
		RequestsInFlight.Dec()

		return err
	}
}

// SanitizeEndpoint collapses stream ids and page numbers so label
// cardinality stays bounded.
func SanitizeEndpoint(path string) string {
	switch {
	case strings.HasPrefix(path, "/api/streams/") && strings.HasSuffix(path, "/history"):
		return "/api/streams/:id/history"
	case strings.HasPrefix(path, "/api/streams/"):
		return "/api/streams/:id"
	case strings.HasPrefix(path, "/api/dashboard/page/"):
		return "/api/dashboard/page/:page"
	default:
		return path
	}
}

// Handler serves the Prometheus /metrics endpoint via Fiber.
func Handler() fiber.Handler {
	httpHandler := fasthttpadaptor.NewFastHTTPHandler(promhttp.Handler())
	return func(c fiber.Ctx) error {
		httpHandler(c.RequestCtx())
		return nil
	}
}
