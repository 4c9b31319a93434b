// Command migrate applies the embedded goose migrations.
//
//	migrate [up|down|status|reset|version|redo] [args...]
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/geocoder89/fintrack/internal/config"
	"github.com/geocoder89/fintrack/internal/db"
	"github.com/geocoder89/fintrack/internal/observability"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("config", "err", err)
		os.Exit(1)
	}

	log := observability.NewLogger(cfg.Env)

	command := "up"
	var args []string

	if len(os.Args) > 1 {
		command = os.Args[1]
		args = os.Args[2:]
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := db.NewPool(ctx, cfg.DBURL)
	if err != nil {
		log.Error("db connect failed", "err", err)
		os.Exit(1)
	}
	defer pool.Close()

	if err := db.Migrate(ctx, pool, command, args...); err != nil {
		log.Error("migration failed", "command", command, "err", err)
		pool.Close()
		os.Exit(1)
	}

	log.Info("migration complete", "command", command)
}
