package config

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/sethvargo/go-envconfig"
)

const (
	StoreDriverPostgres = "postgres"
	StoreDriverMemory   = "memory"
)

type Config struct {
	Env  string `env:"APP_ENV, default=dev"`
	Port int    `env:"PORT, default=5555"`

	DB          DBConfig
	DBURL       string `env:"DATABASE_URL"`
	StoreDriver string `env:"STORE_DRIVER, default=postgres"`

	MigrateOnStart bool `env:"MIGRATE_ON_START, default=false"`
	SeedDemo       bool `env:"SEED_DEMO, default=false"`

	Redis   RedisConfig
	Session SessionConfig

	CORSOrigins   []string `env:"CORS_ORIGINS, default=http://localhost:5173"`
	PhonePrefixes []string `env:"PHONE_PREFIXES, default=07,01,254"`
	MaxBodyBytes  int64    `env:"MAX_BODY_BYTES, default=1048576"`

	TracingEnabled bool   `env:"TRACING_ENABLED, default=false"`
	OTLPEndpoint   string `env:"OTEL_EXPORTER_OTLP_ENDPOINT, default=localhost:4317"`

	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT, default=10s"`
}

type DBConfig struct {
	Host     string `env:"DB_HOST, default=127.0.0.1"`
	Port     string `env:"DB_PORT, default=5432"`
	User     string `env:"DB_USER, default=fintrack"`
	Password string `env:"DB_PASSWORD, default=fintrack"`
	Name     string `env:"DB_NAME, default=fintrack"`
	SSLMode  string `env:"DB_SSLMODE, default=disable"`
}

// RedisConfig leaves Addr empty by default, which keeps sessions in process memory.
type RedisConfig struct {
	Addr     string `env:"REDIS_ADDR"`
	Password string `env:"REDIS_PASSWORD"`
	DB       int    `env:"REDIS_DB, default=0"`
}

type SessionConfig struct {
	Secret     string        `env:"SESSION_SECRET, default=super_secret"`
	TTL        time.Duration `env:"SESSION_TTL, default=24h"`
	CookieName string        `env:"SESSION_COOKIE, default=session_id"`
}

// Load reads an optional .env file and then the process environment.
func Load() (Config, error) {
	err := godotenv.Load()

	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("config: read .env: %w", err)
	}

	return load(context.Background(), envconfig.OsLookuper())
}

func load(ctx context.Context, lookuper envconfig.Lookuper) (Config, error) {
	var cfg Config

	err := envconfig.ProcessWith(ctx, &envconfig.Config{
		Target:   &cfg,
		Lookuper: lookuper,
	})

	if err != nil {
		return Config{}, fmt.Errorf("config: process env: %w", err)
	}

	if cfg.DBURL == "" {
		cfg.DBURL = buildDBURL(cfg.DB)
	}

	cfg.StoreDriver = strings.ToLower(strings.TrimSpace(cfg.StoreDriver))

	switch cfg.StoreDriver {
	case StoreDriverPostgres, StoreDriverMemory:
	default:
		return Config{}, fmt.Errorf("config: unknown STORE_DRIVER %q", cfg.StoreDriver)
	}

	if cfg.Env == "prod" && cfg.Session.Secret == "super_secret" {
		return Config{}, errors.New("config: SESSION_SECRET must be set in prod")
	}

	return cfg, nil
}

func buildDBURL(db DBConfig) string {
	return "postgres://" + db.User + ":" + db.Password + "@" + db.Host + ":" + db.Port + "/" + db.Name + "?sslmode=" + db.SSLMode
}

// WithTimeout bounds a store call made on behalf of a request. A nil parent
// falls back to context.Background.
func WithTimeout(parent context.Context, duration time.Duration) (context.Context, context.CancelFunc) {
	if parent == nil {
		parent = context.Background()
	}
	return context.WithTimeout(parent, duration)
}
