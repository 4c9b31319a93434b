package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/geocoder89/fintrack/internal/config"
	"github.com/geocoder89/fintrack/internal/db"
	httpx "github.com/geocoder89/fintrack/internal/http"
	"github.com/geocoder89/fintrack/internal/http/handlers"
	"github.com/geocoder89/fintrack/internal/observability"
	"github.com/geocoder89/fintrack/internal/redisclient"
	"github.com/geocoder89/fintrack/internal/repo/memory"
	"github.com/geocoder89/fintrack/internal/repo/postgres"
	"github.com/geocoder89/fintrack/internal/session"
	"github.com/geocoder89/fintrack/internal/validation"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

func main() {
	if err := run(); err != nil {
		slog.Error("fatal", "err", err)
		os.Exit(1)
	}
}

func run() error {
	// Load the config set up
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	log := observability.NewLogger(cfg.Env)
	slog.SetDefault(log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.TracingEnabled {
		shutdownTracer, err := observability.InitTracer(ctx, observability.ServiceName, cfg.OTLPEndpoint)
		if err != nil {
			return err
		}
		defer func() {
			sctx, cancel := config.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = shutdownTracer(sctx)
		}()
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	prom := observability.NewProm(reg)

	rules := validation.New(cfg.PhonePrefixes)
	checks := map[string]handlers.Check{}

	deps := httpx.Deps{Rules: rules, Prom: prom, Gatherer: reg, Checks: checks}

	var seedUsers db.SeedUsers
	var seedTxs db.SeedTransactions

	switch cfg.StoreDriver {
	case config.StoreDriverMemory:
		store := memory.NewStore(rules)
		deps.Users, deps.Transactions = store.Users(), store.Transactions()
		seedUsers, seedTxs = store.Users(), store.Transactions()
		checks["store"] = store.Ping
		log.Warn("using in-memory store; data is lost on restart")

	default:
		pool, err := db.NewPool(ctx, cfg.DBURL)
		if err != nil {
			return fmt.Errorf("db connect: %w", err)
		}
		defer pool.Close()

		if cfg.MigrateOnStart {
			if err := db.Migrate(ctx, pool, "up"); err != nil {
				return err
			}
			log.Info("migrations applied")
		}

		users := postgres.NewUsersRepo(pool, prom, rules)
		txs := postgres.NewTransactionsRepo(pool, prom)
		deps.Users, deps.Transactions = users, txs
		seedUsers, seedTxs = users, txs
		checks["store"] = users.Ping
	}

	if cfg.SeedDemo {
		res, err := db.SeedDemo(ctx, seedUsers, seedTxs)
		if err != nil {
			return err
		}
		log.Info("demo data loaded", "users", res.UsersCreated, "transactions", res.TransactionsCreated)
	}

	var backend session.Backend

	if cfg.Redis.Addr != "" {
		rc, err := redisclient.Connect(ctx, redisclient.Config{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			return fmt.Errorf("redis connect: %w", err)
		}
		defer rc.Close()

		backend = session.NewRedisBackend(rc.Raw())
		checks["sessions"] = rc.Ping
	} else {
		backend = session.NewMemoryBackend()
		log.Warn("REDIS_ADDR not set; sessions are kept in process memory")
	}

	deps.Sessions = session.NewManager(backend, cfg.Session.Secret, cfg.Session.TTL, prom)

	router, err := httpx.NewRouter(log, cfg, deps)
	if err != nil {
		return err
	}

	// server set up
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	serveErr := make(chan error, 1)

	go func() {
		log.Info("Server starting", "port", cfg.Port, "env", cfg.Env, "store", cfg.StoreDriver)
		err := srv.ListenAndServe()

		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	// Graceful shutdown

	select {
	case err := <-serveErr:
		return err
	case <-ctx.Done():
	}

	log.Info("server shutting down")

	sctx, cancel := config.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(sctx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}

	log.Info("shutdown complete")
	return nil
}
