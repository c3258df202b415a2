// Command frontlines builds the front line outputs of one theater.
//
// Usage:
//
//	frontlines [--config path] [--periods 1915,1916-07-01] [--dry-run]
//
// Exit status is 0 when every period was built, 1 when at least one period
// failed and 2 when the build could not run at all.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/pflag"

	"github.com/ww1air/frontlines/internal/adapters/cfs3"
	"github.com/ww1air/frontlines/internal/adapters/geojson"
	natsadapter "github.com/ww1air/frontlines/internal/adapters/nats"
	"github.com/ww1air/frontlines/internal/adapters/postgres"
	"github.com/ww1air/frontlines/internal/core/domain"
	"github.com/ww1air/frontlines/internal/core/interpolation"
	"github.com/ww1air/frontlines/internal/core/ports"
	"github.com/ww1air/frontlines/internal/core/usecases"
	"github.com/ww1air/frontlines/internal/pkg/config"
	"github.com/ww1air/frontlines/internal/pkg/logging"
	"github.com/ww1air/frontlines/internal/pkg/metrics"
	"github.com/ww1air/frontlines/internal/pkg/telemetry"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	fs := pflag.NewFlagSet("frontlines", pflag.ContinueOnError)
	configFile := fs.String("config", "", "config file (default ./config.yaml or ./configs/config.yaml)")
	periods := fs.String("periods", "all", "comma separated period labels, or all for the configured periods")
	dryRun := fs.Bool("dry-run", false, "interpolate and report without writing outputs")
	fs.String("theater", "", "theater to build")
	fs.String("source-dir", "", "snapshot source directory")
	fs.String("output-dir", "", "output directory")
	fs.Int("resolution", 0, "fixed vertex count; 0 uses max(m, n)")
	fs.Int("workers", 0, "concurrent periods; 0 uses GOMAXPROCS")
	fs.String("log-level", "", "debug, info, warn or error")
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return 0
		}
		fmt.Fprintln(os.Stderr, err)
		return 2
	}

	cfg, err := config.Load("frontlines",
		config.WithFile(*configFile),
		config.WithFlags(fs, map[string]string{
			"theater":    "frontlines.theater",
			"source-dir": "frontlines.source_dir",
			"output-dir": "frontlines.output_dir",
			"resolution": "frontlines.resolution",
			"workers":    "frontlines.workers",
			"log-level":  "logging.level",
		}),
	)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		return 2
	}

	logFile := logging.SetupWithFile(cfg.Logging.Level, cfg.Logging.Format, logging.FileOptions{
		Path:       cfg.Logging.File,
		MaxSizeMB:  cfg.Logging.MaxSizeMB,
		MaxBackups: cfg.Logging.MaxBackups,
		MaxAgeDays: cfg.Logging.MaxAgeDays,
	})
	defer logFile.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

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
		defer func() {
			flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = shutdown(flushCtx)
		}()
	}

	requested, err := selectPeriods(cfg, *periods)
	if err != nil {
		slog.Error("invalid periods", "error", err)
		return 2
	}

	svc := usecases.NewBuildService(
		cfs3.NewSource(cfg.Frontlines.SourceDir, cfg.Frontlines.Workers),
		writersFor(cfg.Frontlines.Formats),
		usecases.BuildOptions{
			OutputDir:  cfg.Frontlines.OutputDir,
			ReportFile: cfg.Frontlines.ReportFile,
			Interpolation: interpolation.Options{
				Resolution: cfg.Frontlines.Resolution,
				Workers:    cfg.Frontlines.Workers,
			},
		},
	)

	if cfg.Database.Enabled && !*dryRun {
		db, err := postgres.New(ctx, cfg.Database.DSN())
		if err != nil {
			slog.Warn("archive unavailable", "error", err)
		} else {
			defer db.Close()
			svc.WithArchive(postgres.NewFrontlineRepo(db))
		}
	}
	if cfg.NATS.Enabled && !*dryRun {
		pub, err := natsadapter.NewPublisher(cfg.NATS.URL)
		if err != nil {
			slog.Warn("nats unavailable", "error", err)
		} else {
			defer pub.Close()
			svc.WithEvents(pub)
		}
	}

	report, err := svc.Build(ctx, usecases.BuildRequest{
		Theater: cfg.Frontlines.Theater,
		Periods: requested,
		DryRun:  *dryRun,
	})
	if err != nil {
		slog.Error("build failed", "theater", cfg.Frontlines.Theater, "error", err, "kind", domain.ErrorKind(err))
		return 2
	}

	if cfg.Metrics.Textfile != "" {
		if err := metrics.WriteTextfile(cfg.Metrics.Textfile); err != nil {
			slog.Warn("metrics textfile", "error", err)
		}
	}

	for _, f := range report.Failures() {
		fmt.Fprintf(os.Stderr, "%s: %s: %s\n", f.Period, f.ErrorKind, f.Error)
	}
	if report.Failed > 0 {
		return 1
	}
	return 0
}

// selectPeriods resolves the --periods flag. "all" selects the configured
// output periods.
func selectPeriods(cfg *config.Config, flag string) ([]domain.OutputPeriod, error) {
	var (
		periods []domain.OutputPeriod
		err     error
	)
	if strings.TrimSpace(flag) == "all" || strings.TrimSpace(flag) == "" {
		periods, err = cfg.Periods()
	} else {
		periods, err = domain.ParsePeriods(flag)
	}
	if err != nil {
		return nil, err
	}
	if len(periods) == 0 {
		return nil, fmt.Errorf("no output periods configured: %w", domain.ErrInvalidPeriod)
	}
	return periods, nil
}

func writersFor(formats []string) []ports.FrontlineWriter {
	var writers []ports.FrontlineWriter
	for _, f := range formats {
		switch f {
		case "geojson":
			writers = append(writers, geojson.Writer{})
		case "cfs3":
			writers = append(writers, cfs3.Writer{})
		}
	}
	return writers
}
