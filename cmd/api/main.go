package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/ww1air/frontlines/internal/adapters/cfs3"
	"github.com/ww1air/frontlines/internal/adapters/http"
	natsadapter "github.com/ww1air/frontlines/internal/adapters/nats"
	"github.com/ww1air/frontlines/internal/adapters/postgres"
	"github.com/ww1air/frontlines/internal/adapters/valkey"
	"github.com/ww1air/frontlines/internal/core/interpolation"
	"github.com/ww1air/frontlines/internal/core/ports"
	"github.com/ww1air/frontlines/internal/core/usecases"
	"github.com/ww1air/frontlines/internal/pkg/config"
	"github.com/ww1air/frontlines/internal/pkg/logging"
	"github.com/ww1air/frontlines/internal/pkg/metrics"
	"github.com/ww1air/frontlines/internal/pkg/telemetry"
)

func main() {
	cfg, err := config.Load("frontlines-api")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	// Structured logging
	logFile := logging.SetupWithFile(cfg.Logging.Level, cfg.Logging.Format, logging.FileOptions{
		Path:       cfg.Logging.File,
		MaxSizeMB:  cfg.Logging.MaxSizeMB,
		MaxBackups: cfg.Logging.MaxBackups,
		MaxAgeDays: cfg.Logging.MaxAgeDays,
	})
	defer logFile.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Telemetry
	shutdown, err := telemetry.InitTracer(ctx, telemetry.Options{
		Enabled:     cfg.Telemetry.Enabled,
		Endpoint:    cfg.Telemetry.Endpoint,
		Insecure:    cfg.Telemetry.Insecure,
		ServiceName: cfg.Telemetry.ServiceName,
		SampleRatio: cfg.Telemetry.SampleRatio,
	})
	if err != nil {
		slog.Warn("telemetry init failed", "error", err)
	} else {
		defer shutdown(context.Background())
	}

	deps := &http.Dependencies{Theaters: []string{cfg.Frontlines.Theater}}

	// Archive
	var archive ports.FrontlineArchive
	if cfg.Database.Enabled {
		db, err := postgres.New(ctx, cfg.Database.DSN())
		if err != nil {
			log.Fatalf("database: %v", err)
		}
		defer db.Close()
		deps.DB = db
		archive = postgres.NewFrontlineRepo(db)

		go func() {
			ticker := time.NewTicker(15 * time.Second)
			defer ticker.Stop()
			for {
				select {
				case <-ctx.Done():
					return
				case <-ticker.C:
					metrics.UpdateDBPoolMetrics(db.Stat())
				}
			}
		}()
	}

	// Cache
	var cache ports.CacheService
	if cfg.Valkey.Enabled {
		vc, err := valkey.New(cfg.Valkey.Addr, "frontlines:")
		if err != nil {
			slog.Warn("valkey unavailable", "error", err)
		} else {
			defer vc.Close()
			deps.Cache = vc
			cache = vc
		}
	}

	svc, err := usecases.NewFrontlineService(
		cfs3.NewSource(cfg.Frontlines.SourceDir, cfg.Frontlines.Workers),
		cache,
		archive,
		usecases.FrontlineOptions{
			Interpolation: interpolation.Options{
				Resolution: cfg.Frontlines.Resolution,
				Workers:    cfg.Frontlines.Workers,
			},
			Stores:     cfg.Cache.Stores,
			TTLSeconds: cfg.Cache.TTLSeconds,
		},
	)
	if err != nil {
		log.Fatalf("frontline service: %v", err)
	}
	deps.Frontlines = svc

	// NATS: drop stale theaters when a build finishes, relay events over /ws
	if cfg.NATS.Enabled {
		sub, err := natsadapter.NewSubscriber(cfg.NATS.URL, "")
		if err != nil {
			slog.Warn("nats unavailable", "error", err)
		} else {
			defer sub.Close()
			if err := sub.SubscribeFrontlineEvents(ctx, svc.HandleGenerated); err != nil {
				slog.Warn("nats subscribe failed", "error", err)
			}
		}

		natsConn, err := natsadapter.RawConn(cfg.NATS.URL)
		if err != nil {
			slog.Warn("nats ws conn unavailable", "error", err)
		} else {
			defer natsConn.Close()
			deps.NATS = natsConn
		}
	}

	// Fiber
	app := fiber.New(fiber.Config{
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		BodyLimit:    1024 * 1024, // 1 MB max request body
		AppName:      "Frontlines API",
	})
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,OPTIONS",
		AllowHeaders: "Origin, Content-Type, Accept, If-None-Match",
		MaxAge:       3600,
	}))

	http.SetupRoutes(app, deps)

	// Graceful shutdown
	go func() {
		addr := fmt.Sprintf(":%d", cfg.Server.Port)
		slog.Info("API server starting", "addr", addr, "theater_dir", cfg.Frontlines.SourceDir)
		if err := app.Listen(addr); err != nil {
			log.Fatalf("listen: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	slog.Info("shutdown signal received, draining connections...", "signal", sig.String())

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		slog.Error("forced shutdown", "error", err)
	}

	slog.Info("server stopped")
}
