package main

import (
	"context"
	"log"
	"log/slog"
	"os"

	"github.com/ww1air/frontlines/internal/adapters/postgres"
	"github.com/ww1air/frontlines/internal/pkg/config"
	"github.com/ww1air/frontlines/internal/pkg/logging"
)

func main() {
	if len(os.Args) < 2 {
		log.Fatal("usage: migrate <up|list>")
	}

	cfg, err := config.Load("frontlines-migrate")
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logging.Setup(cfg.Logging.Level, cfg.Logging.Format)

	switch os.Args[1] {
	case "up":
		ctx := context.Background()
		db, err := postgres.New(ctx, cfg.Database.DSN())
		if err != nil {
			log.Fatalf("db: %v", err)
		}
		defer db.Close()
		if err := db.Migrate(ctx); err != nil {
			slog.Error("migrate failed", "error", err)
			os.Exit(1)
		}
		slog.Info("all migrations applied")
	case "list":
		names, err := postgres.Migrations()
		if err != nil {
			log.Fatalf("list: %v", err)
		}
		for _, n := range names {
			os.Stdout.WriteString(n + "\n")
		}
	default:
		log.Fatalf("unknown command: %s", os.Args[1])
	}
}
