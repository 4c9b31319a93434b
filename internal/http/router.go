package http

import (
	"context"
	"log/slog"
	"time"

	"github.com/geocoder89/fintrack/internal/config"
	"github.com/geocoder89/fintrack/internal/http/handlers"
	"github.com/geocoder89/fintrack/internal/http/middlewares"
	"github.com/geocoder89/fintrack/internal/observability"
	"github.com/geocoder89/fintrack/internal/validation"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
)

// Sessions is what the HTTP layer needs from session.Manager.
type Sessions interface {
	Start(ctx context.Context, userID int64) (string, time.Time, error)
	Resolve(ctx context.Context, token string) (int64, error)
	End(ctx context.Context, token string) error
}

type Deps struct {
	Users        handlers.UserStore
	Transactions handlers.TransactionStore
	Sessions     Sessions
	Rules        *validation.Validator

	// Optional.
	Prom     *observability.Prom
	Gatherer prometheus.Gatherer
	Checks   map[string]handlers.Check
}

func NewRouter(log *slog.Logger, cfg config.Config, deps Deps) (*gin.Engine, error) {
	if log == nil {
		log = slog.Default()
	}

	if cfg.Env == "prod" {
		gin.SetMode(gin.ReleaseMode)
	}

	rules := deps.Rules
	if rules == nil {
		rules = validation.New(cfg.PhonePrefixes)
	}

	if err := validation.RegisterGinRules(rules); err != nil {
		return nil, err
	}

	r := gin.New()

	// middleware

	r.Use(gin.Recovery())
	r.Use(middlewares.RequestID())

	if cfg.TracingEnabled {
		r.Use(otelgin.Middleware(observability.ServiceName))
	}

	if deps.Prom != nil {
		r.Use(deps.Prom.GinHandleMiddleware())
	}

	sm := middlewares.NewSessionMiddleware(deps.Sessions, cfg.Session.CookieName)

	r.Use(middlewares.RequestLogger(log))
	r.Use(middlewares.SecurityHeaders())
	r.Use(middlewares.CORSMiddleware(cfg.CORSOrigins))

	if cfg.MaxBodyBytes > 0 {
		r.Use(middlewares.MaxBodyBytes(cfg.MaxBodyBytes))
	}

	r.Use(middlewares.RequireJSON())
	r.Use(sm.LoadSession())

	// health
	h := handlers.NewHealthHandler(log, deps.Checks)
	r.GET("/welcome", h.Welcome)
	r.GET("/healthz", h.Healthz)
	r.GET("/readyz", h.Readyz)

	if deps.Gatherer != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{})))
	}

	// auth
	authHandler := handlers.NewAuthHandler(deps.Users, deps.Sessions, deps.Prom, log, cfg)
	r.POST("/signup", authHandler.SignUp)
	r.POST("/login", authHandler.Login)
	r.POST("/logout", authHandler.Logout)
	r.GET("/me", sm.RequireSession(), authHandler.Me)

	// users
	usersHandler := handlers.NewUsersHandler(deps.Users, log)
	users := r.Group("/users")
	users.GET("", usersHandler.ListUsers)
	users.POST("", usersHandler.CreateUser)
	users.GET("/:id", usersHandler.GetUserByID)
	users.PATCH("/:id", usersHandler.UpdateUser)
	users.DELETE("/:id", usersHandler.DeleteUser)

	// transactions
	txHandler := handlers.NewTransactionsHandler(deps.Transactions, log)
	txs := r.Group("/transactions")
	txs.GET("", txHandler.ListTransactions)
	txs.GET("/summary", txHandler.Summary)
	txs.POST("", txHandler.CreateTransaction)
	txs.GET("/:id", txHandler.GetTransactionByID)
	txs.PATCH("/:id", txHandler.UpdateTransaction)
	txs.DELETE("/:id", txHandler.DeleteTransaction)

	return r, nil
}
