// Command seed loads the demo users and transactions into Postgres. It is
// safe to run more than once.
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
	"github.com/geocoder89/fintrack/internal/repo/postgres"
	"github.com/geocoder89/fintrack/internal/validation"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("config", "err", err)
		os.Exit(1)
	}

	log := observability.NewLogger(cfg.Env)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := db.NewPool(ctx, cfg.DBURL)
	if err != nil {
		log.Error("db connect failed", "err", err)
		os.Exit(1)
	}
	defer pool.Close()

	rules := validation.New(cfg.PhonePrefixes)

	res, err := db.SeedDemo(ctx, postgres.NewUsersRepo(pool, nil, rules), postgres.NewTransactionsRepo(pool, nil))
	if err != nil {
		log.Error("seed failed", "err", err)
		pool.Close()
		os.Exit(1)
	}

	log.Info("seed complete", "users", res.UsersCreated, "transactions", res.TransactionsCreated)
}
