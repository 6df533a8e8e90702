package router

import (
	"github.com/gofiber/fiber/v3"
	recoverer "github.com/gofiber/fiber/v3/middleware/recover"

	"github.com/mathieu-neron/pumpwatch/internal/handler"
	"github.com/mathieu-neron/pumpwatch/internal/metrics"
	"github.com/mathieu-neron/pumpwatch/internal/middleware"
)

// Handlers holds all handler instances needed by the router.
type Handlers struct {
	Page      *handler.PageHandler
	Dashboard *handler.DashboardHandler
	Stream    *handler.StreamHandler
	Event     *handler.EventHandler
	Health    *handler.HealthHandler
}

// Limiters holds the per-route rate limiters. Any of them may be nil to
// leave the route unlimited.
type Limiters struct {
	Refresh *middleware.RateLimiter
	Event   *middleware.RateLimiter
	API     *middleware.RateLimiter
}

// Close stops every limiter's cleanup loop.
func (l *Limiters) Close() {
	for _, rl := range []*middleware.RateLimiter{l.Refresh, l.Event, l.API} {
		if rl != nil {
			rl.Close()
		}
	}
}

// Setup configures the middleware stack and all routes on the given Fiber app.
func Setup(app *fiber.App, h *Handlers, l *Limiters, corsOrigins string) {
	// Middleware stack (order matters)
	app.Use(recoverer.New())
	app.Use(middleware.NewRequestLogger())
	app.Use(metrics.Middleware())
	app.Use(middleware.NewCORS(corsOrigins))

	// Probes and metrics sit outside the API group and its limits.
	app.Get("/health/live", h.Health.Live)
	app.Get("/health/ready", h.Health.Ready)
	app.Get("/metrics", metrics.Handler())

	// Rendered dashboard
	app.Get("/", h.Page.Index)

	api := app.Group("/api")

	// Shared dashboard state
	api.Get("/dashboard", h.Dashboard.View)
	api.Post("/dashboard/search", h.Dashboard.Search)
	api.Post("/dashboard/filter", h.Dashboard.Filter)
	api.Post("/dashboard/page/:page", h.Dashboard.Page)
	api.Post("/refresh", limit(l.Refresh), h.Dashboard.Refresh)

	// Stateless stream queries
	api.Get("/streams", limit(l.API), h.Stream.List)
	api.Get("/streams/:id", limit(l.API), h.Stream.Get)
	api.Get("/streams/:id/history", limit(l.API), h.Stream.History)

	// UI events
	api.Post("/events", limit(l.Event), h.Event.Dispatch)
}

// limit returns the limiter's middleware, or a pass-through when rl is nil.
func limit(rl *middleware.RateLimiter) fiber.Handler {
	if rl == nil {
		return func(c fiber.Ctx) error { return c.Next() }
	}
	return rl.Handler()
}
