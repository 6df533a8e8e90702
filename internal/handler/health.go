package handler

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/mathieu-neron/pumpwatch/internal/metrics"
	"github.com/mathieu-neron/pumpwatch/internal/service"
)

// Version is reported by the readiness probe.
const Version = "1.0.0"

type HealthHandler struct {
	pool      *pgxpool.Pool
	rdb       *redis.Client
	refresher *service.Refresher
	dash      *service.Dashboard
	startAt   time.Time
}

// NewHealthHandler creates a health handler. pool and rdb may be nil when
// the archive or cache is disabled.
func NewHealthHandler(refresher *service.Refresher, dash *service.Dashboard, pool *pgxpool.Pool, rdb *redis.Client) *HealthHandler {
	return &HealthHandler{
		pool:      pool,
		rdb:       rdb,
		refresher: refresher,
		dash:      dash,
		startAt:   time.Now(),
	}
}

// Live handles GET /health/live
func (h *HealthHandler) Live(c fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "ok"})
}

// Ready handles GET /health/ready. The service is ready once a refresh has
// committed; a fallback snapshot or a stale one reports degraded.
func (h *HealthHandler) Ready(c fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.Context(), 3*time.Second)
	defer cancel()

	checks := make(fiber.Map)
	overallStatus := "healthy"

	upstream := checkUpstream(h.refresher.LastStatus(), h.refresher.Interval(), time.Now())
	checks["upstream"] = upstream
	if upstream["status"] != "up" {
		overallStatus = "degraded"
	}

	if db := checkDB(ctx, h.pool); db != nil {
		checks["database"] = db
		if db["status"] == "down" {
			overallStatus = "degraded"
		}
	}

	redisCheck := checkRedis(ctx, h.rdb)
	checks["redis"] = redisCheck
	if redisCheck["status"] == "down" && overallStatus == "healthy" {
		overallStatus = "degraded"
	}

	resp := fiber.Map{
		"status":         overallStatus,
		"checks":         checks,
		"generation":     h.dash.Generation(),
		"uptime_seconds": int(time.Since(h.startAt).Seconds()),
		"version":        Version,
	}

	status := fiber.StatusOK
	if overallStatus != "healthy" {
		status = fiber.StatusServiceUnavailable
	}
	return c.Status(status).JSON(resp)
}

// checkUpstream grades the last committed refresh. A snapshot older than
// three intervals counts as stale.
func checkUpstream(last service.RefreshStatus, interval time.Duration, now time.Time) fiber.Map {
	switch {
	case last.Generation == 0:
		return fiber.Map{"status": "pending"}
	case last.Outcome == metrics.OutcomeFallback:
		return fiber.Map{"status": "fallback", "error": last.Error, "last_refresh": last.FinishedAt}
	case now.Sub(last.FinishedAt) > 3*interval:
		return fiber.Map{"status": "stale", "last_refresh": last.FinishedAt}
	}
	return fiber.Map{
		"status":       "up",
		"streams":      last.Streams,
		"last_refresh": last.FinishedAt,
	}
}

func checkDB(ctx context.Context, pool *pgxpool.Pool) fiber.Map {
	if pool == nil {
		return nil
	}

	start := time.Now()
	err := pool.Ping(ctx)
	latency := time.Since(start).Milliseconds()

	if err != nil {
		return fiber.Map{
			"status":     "down",
			"latency_ms": latency,
			"error":      "connection failed",
		}
	}
	return fiber.Map{
		"status":     "up",
		"latency_ms": latency,
	}
}

func checkRedis(ctx context.Context, rdb *redis.Client) fiber.Map {
	if rdb == nil {
		return fiber.Map{
			"status": "disabled",
		}
	}

	start := time.Now()
	err := rdb.Ping(ctx).Err()
	latency := time.Since(start).Milliseconds()

	if err != nil {
		return fiber.Map{
			"status":     "down",
			"latency_ms": latency,
			"error":      "connection failed",
		}
	}
	return fiber.Map{
		"status":     "up",
		"latency_ms": latency,
	}
}
