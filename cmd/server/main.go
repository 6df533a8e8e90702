package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mathieu-neron/pumpwatch/internal/config"
	"github.com/mathieu-neron/pumpwatch/internal/db"
	"github.com/mathieu-neron/pumpwatch/internal/events"
	"github.com/mathieu-neron/pumpwatch/internal/handler"
	"github.com/mathieu-neron/pumpwatch/internal/metrics"
	"github.com/mathieu-neron/pumpwatch/internal/middleware"
	"github.com/mathieu-neron/pumpwatch/internal/render"
	"github.com/mathieu-neron/pumpwatch/internal/repository"
	"github.com/mathieu-neron/pumpwatch/internal/router"
	"github.com/mathieu-neron/pumpwatch/internal/service"
	"github.com/mathieu-neron/pumpwatch/internal/upstream"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		boot := middleware.InitLogger("info", "pumpwatch", "")
		boot.Fatal().Err(err).Msg("invalid configuration")
	}

	log := middleware.InitLogger(cfg.LogLevel, "pumpwatch", cfg.LogFile)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Snapshot archive (optional)
	var pool *pgxpool.Pool
	archive := service.NewArchiveService(nil)
	if cfg.DatabaseURL != "" {
		pool, err = db.NewPool(ctx, cfg.DatabaseURL, log)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect to database")
		}
		defer pool.Close()

		repo := repository.NewSnapshotRepo(pool)
		if err := repo.EnsureSchema(ctx); err != nil {
			log.Fatal().Err(err).Msg("failed to create archive schema")
		}
		archive = service.NewArchiveService(repo)
		log.Info().Msg("snapshot archive enabled")
	}

	metrics.Register(pool)

	cache := service.NewCacheService(cfg.RedisURL, cfg.Dashboard.RefreshInterval, log)
	defer cache.Close()

	client := upstream.NewClient(upstream.Config{
		BaseURL:    cfg.Upstream.URL,
		ResultPath: cfg.Upstream.ResultPath,
		Limit:      cfg.Upstream.Limit,
		Timeout:    cfg.Upstream.Timeout,
	}, nil)

	dash := service.NewDashboard(cfg.Dashboard.PageSize, cfg.Dashboard.TrendingThreshold)
	refresher := service.NewRefresher(client, service.NewNormalizer(), dash, archive, log, cfg.Dashboard.RefreshInterval)
	streams := service.NewStreamService(dash, cache, archive, cfg.Dashboard.DetailURL, log)

	renderer, err := render.New(cfg.Dashboard.RefreshInterval)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load templates")
	}

	binder := events.NewBinder()
	handler.BindDashboardEvents(binder, dash, streams, refresher)

	limiters := &router.Limiters{
		Refresh: middleware.NewRefreshRateLimiter(),
		Event:   middleware.NewEventRateLimiter(),
		API:     middleware.NewAPIRateLimiter(),
	}
	defer limiters.Close()

	app := fiber.New(fiber.Config{
		AppName:      "PumpWatch",
		ServerHeader: "PumpWatch",
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	})

	router.Setup(app, &router.Handlers{
		Page:      handler.NewPageHandler(dash, renderer),
		Dashboard: handler.NewDashboardHandler(dash, refresher),
		Stream:    handler.NewStreamHandler(streams),
		Event:     handler.NewEventHandler(binder),
		Health:    handler.NewHealthHandler(refresher, dash, pool, cache.Client()),
	}, limiters, cfg.CORSOrigins)

	go refresher.Start(ctx)

	go func() {
		<-ctx.Done()
		log.Info().Msg("shutting down")
		refresher.Stop()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := app.ShutdownWithContext(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("shutdown failed")
		}
	}()

	log.Info().
		Str("port", cfg.Port).
		Str("env", cfg.Environment).
		Str("upstream", cfg.Upstream.URL).
		Dur("refresh_interval", cfg.Dashboard.RefreshInterval).
		Msg("pumpwatch starting")

	if err := app.Listen(":"+cfg.Port, fiber.ListenConfig{DisableStartupMessage: true}); err != nil {
		log.Fatal().Err(err).Msg("server stopped")
	}
}
