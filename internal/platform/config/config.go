package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

const devSigningKey = "dev-secret-key-change-in-production"

// Server captures process level configuration.
type Server struct {
	Addr     string
	Env      string
	LogLevel string
	// LogFormat is "json" (default) or "text".
	LogFormat string
	SeedFile  string

	JWT       JWTConfig
	Realtime  RealtimeConfig
	Dashboard DashboardConfig
	Redis     RedisConfig
	Database  DatabaseConfig
	Kafka     KafkaConfig
}

// JWTConfig holds credential verification settings. Only verification happens
// in this service; tokens are issued elsewhere.
type JWTConfig struct {
	SigningKey string
	Issuer     string
	Audience   string
}

// RealtimeConfig tunes the WebSocket fan-out.
type RealtimeConfig struct {
	PingInterval     time.Duration
	IdleTimeout      time.Duration
	HandshakeTimeout time.Duration
	WriteTimeout     time.Duration
	// MaxWriteQueue is the per-session frame backlog before the session is
	// closed as a slow consumer.
	MaxWriteQueue int
	// BusQueueDepth is the per-group publish buffer.
	BusQueueDepth int
	// OriginPatterns lists browser origins allowed to open a socket besides
	// the serving host. Requests without an Origin header are always allowed.
	OriginPatterns []string
}

// DashboardConfig controls aggregate caching.
type DashboardConfig struct {
	CacheTTL time.Duration
}

// RedisConfig configures the optional Redis-backed dashboard cache.
// An empty URL selects the in-memory cache.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// DatabaseConfig configures the optional PostgreSQL principal store.
// An empty URL selects the in-memory store.
type DatabaseConfig struct {
	URL          string
	MaxOpenConns int
	MaxIdleConns int
}

// KafkaConfig configures the optional event mirror.
type KafkaConfig struct {
	Brokers []string
	Topic   string
}

// FromEnv builds a Server config from environment variables so main stays lean.
func FromEnv() (Server, error) {
	cfg := Server{
		Addr:      envOr("ELECTIONHUB_ADDR", ":8080"),
		Env:       envOr("ENV", "development"),
		LogLevel:  envOr("LOG_LEVEL", "info"),
		LogFormat: envOr("LOG_FORMAT", "json"),
		SeedFile:  os.Getenv("SEED_FILE"),
		JWT: JWTConfig{
			SigningKey: envOr("JWT_SIGNING_KEY", devSigningKey),
			Issuer:     envOr("JWT_ISSUER", "electionhub"),
			Audience:   envOr("JWT_AUDIENCE", "electionhub-operators"),
		},
		Realtime: RealtimeConfig{
			OriginPatterns: splitList(os.Getenv("WS_ORIGIN_PATTERNS")),
		},
		Redis: RedisConfig{
			URL: os.Getenv("REDIS_URL"),
		},
		Database: DatabaseConfig{
			URL: os.Getenv("DATABASE_URL"),
		},
		Kafka: KafkaConfig{
			Brokers: splitList(os.Getenv("KAFKA_BROKERS")),
			Topic:   envOr("KAFKA_TOPIC", "election.updates"),
		},
	}

	var errs []error
	collect := func(err error) {
		if err != nil {
			errs = append(errs, err)
		}
	}

	var err error
	cfg.Realtime.PingInterval, err = durationEnv("WS_PING_INTERVAL", 20*time.Second)
	collect(err)
	cfg.Realtime.IdleTimeout, err = durationEnv("WS_IDLE_TIMEOUT", 3*cfg.Realtime.PingInterval)
	collect(err)
	cfg.Realtime.HandshakeTimeout, err = durationEnv("WS_HANDSHAKE_TIMEOUT", 10*time.Second)
	collect(err)
	cfg.Realtime.WriteTimeout, err = durationEnv("WS_WRITE_TIMEOUT", 10*time.Second)
	collect(err)
	cfg.Realtime.MaxWriteQueue, err = intEnv("WS_MAX_WRITE_QUEUE", 256)
	collect(err)
	cfg.Realtime.BusQueueDepth, err = intEnv("BUS_QUEUE_DEPTH", 1024)
	collect(err)
	cfg.Dashboard.CacheTTL, err = durationEnv("DASHBOARD_CACHE_TTL", 5*time.Minute)
	collect(err)

	cfg.Redis.PoolSize, err = intEnv("REDIS_POOL_SIZE", 10)
	collect(err)
	cfg.Redis.MinIdleConns, err = intEnv("REDIS_MIN_IDLE_CONNS", 2)
	collect(err)
	cfg.Redis.DialTimeout, err = durationEnv("REDIS_DIAL_TIMEOUT", 5*time.Second)
	collect(err)
	cfg.Redis.ReadTimeout, err = durationEnv("REDIS_READ_TIMEOUT", 3*time.Second)
	collect(err)
	cfg.Redis.WriteTimeout, err = durationEnv("REDIS_WRITE_TIMEOUT", 3*time.Second)
	collect(err)

	cfg.Database.MaxOpenConns, err = intEnv("DATABASE_MAX_OPEN_CONNS", 10)
	collect(err)
	cfg.Database.MaxIdleConns, err = intEnv("DATABASE_MAX_IDLE_CONNS", 5)
	collect(err)

	if len(errs) > 0 {
		return Server{}, errors.Join(errs...)
	}
	if err := cfg.Validate(); err != nil {
		return Server{}, err
	}
	return cfg, nil
}

// Validate checks that the configuration is internally consistent.
func (c Server) Validate() error {
	if c.IsProduction() && c.JWT.SigningKey == devSigningKey {
		return fmt.Errorf("JWT_SIGNING_KEY must be set in production")
	}
	if c.Realtime.PingInterval <= 0 {
		return fmt.Errorf("WS_PING_INTERVAL must be positive")
	}
	if c.Realtime.IdleTimeout < c.Realtime.PingInterval {
		return fmt.Errorf("WS_IDLE_TIMEOUT (%s) must be at least WS_PING_INTERVAL (%s)",
			c.Realtime.IdleTimeout, c.Realtime.PingInterval)
	}
	if c.Realtime.HandshakeTimeout <= 0 || c.Realtime.WriteTimeout <= 0 {
		return fmt.Errorf("WS_HANDSHAKE_TIMEOUT and WS_WRITE_TIMEOUT must be positive")
	}
	if c.Realtime.MaxWriteQueue <= 0 || c.Realtime.BusQueueDepth <= 0 {
		return fmt.Errorf("WS_MAX_WRITE_QUEUE and BUS_QUEUE_DEPTH must be positive")
	}
	if c.Dashboard.CacheTTL <= 0 {
		return fmt.Errorf("DASHBOARD_CACHE_TTL must be positive")
	}
	return nil
}

// IsProduction returns true when running with ENV=production.
func (c Server) IsProduction() bool {
	return strings.EqualFold(c.Env, "production")
}

// SlogLevel maps LogLevel to an slog.Level.
func (c Server) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func durationEnv(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}

func intEnv(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}

func splitList(v string) []string {
	if strings.TrimSpace(v) == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
