package main

import (
	"context"
	"log"
	"log/slog"

	"go.temporal.io/sdk/client"
	"go.temporal.io/sdk/worker"

	"github.com/ww1air/frontlines/internal/adapters/cfs3"
	"github.com/ww1air/frontlines/internal/adapters/geojson"
	natsadapter "github.com/ww1air/frontlines/internal/adapters/nats"
	"github.com/ww1air/frontlines/internal/adapters/postgres"
	"github.com/ww1air/frontlines/internal/core/interpolation"
	"github.com/ww1air/frontlines/internal/core/ports"
	"github.com/ww1air/frontlines/internal/core/usecases"
	"github.com/ww1air/frontlines/internal/pkg/config"
	"github.com/ww1air/frontlines/internal/pkg/logging"
	"github.com/ww1air/frontlines/internal/workflows"
)

func main() {
	cfg, err := config.Load("frontlines-worker")
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logging.Setup(cfg.Logging.Level, cfg.Logging.Format)

	ctx := context.Background()

	var writers []ports.FrontlineWriter
	for _, f := range cfg.Frontlines.Formats {
		switch f {
		case "geojson":
			writers = append(writers, geojson.Writer{})
		case "cfs3":
			writers = append(writers, cfs3.Writer{})
		}
	}

	builder := usecases.NewBuildService(
		cfs3.NewSource(cfg.Frontlines.SourceDir, cfg.Frontlines.Workers),
		writers,
		usecases.BuildOptions{
			OutputDir:  cfg.Frontlines.OutputDir,
			ReportFile: cfg.Frontlines.ReportFile,
			Interpolation: interpolation.Options{
				Resolution: cfg.Frontlines.Resolution,
				Workers:    cfg.Frontlines.Workers,
			},
		},
	)

	if cfg.Database.Enabled {
		db, err := postgres.New(ctx, cfg.Database.DSN())
		if err != nil {
			log.Fatalf("database: %v", err)
		}
		defer db.Close()
		builder.WithArchive(postgres.NewFrontlineRepo(db))
	}
	if cfg.NATS.Enabled {
		pub, err := natsadapter.NewPublisher(cfg.NATS.URL)
		if err != nil {
			log.Fatalf("nats: %v", err)
		}
		defer pub.Close()
		builder.WithEvents(pub)
	}

	// Connect to Temporal
	c, err := client.Dial(client.Options{
		HostPort:  cfg.Temporal.HostPort,
		Namespace: cfg.Temporal.Namespace,
		Logger:    slog.Default(),
	})
	if err != nil {
		log.Fatalf("temporal client: %v", err)
	}
	defer c.Close()

	w := worker.New(c, cfg.Temporal.TaskQueue, worker.Options{})

	w.RegisterWorkflow(workflows.FrontlineBuildWorkflow)
	w.RegisterActivity(&workflows.BuildActivities{Builder: builder})

	slog.Info("build worker started", "task_queue", cfg.Temporal.TaskQueue)
	if err := w.Run(worker.InterruptCh()); err != nil {
		log.Fatalf("worker: %v", err)
	}
}
