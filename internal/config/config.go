package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	BackendPostgres = "postgres"
	BackendBolt     = "bolt"
)

type Config struct {
	Server      ServerConfig
	Log         LogConfig
	Storage     StorageConfig
	Postgres    PostgresConfig
	Redis       RedisConfig
	Booking     BookingConfig
	RateLimit   RateLimitConfig
	Idempotency IdempotencyConfig
	Cache       CacheConfig
	Admin       AdminConfig
	CORS        CORSConfig
}

type ServerConfig struct {
	Host         string
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

type LogConfig struct {
	Level string
}

type StorageConfig struct {
	Backend  string
	BoltPath string
}

type PostgresConfig struct {
	User     string
	Password string
	Name     string
	Host     string
	Port     int
	SSLMode  string
	MaxConns int32
	Migrate  bool
}

// DSN builds the pgx connection string.
func (c PostgresConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.User,
		c.Password,
		c.Host,
		c.Port,
		c.Name,
		c.SSLMode,
	)
}

type RedisConfig struct {
	Enabled  bool
	Addr     string
	Password string
	DB       int
}

type BookingConfig struct {
	MaxPNRAttempts int
	VerifyAmount   bool
}

type RateLimitConfig struct {
	Limit  int
	Window time.Duration
}

type IdempotencyConfig struct {
	TTL time.Duration
}

type CacheConfig struct {
	AvailabilityTTL time.Duration
}

type AdminConfig struct {
	Username     string
	PasswordHash string
	JWTSecret    string
	TokenTTL     time.Duration
}

type CORSConfig struct {
	AllowOrigins []string
}

func New() (*Config, error) {
	const op = "config.New"

	_ = godotenv.Load()

	var err error
	cfg := &Config{}

	cfg.Server.Host = envString("SERVER_HOST", "localhost")
	if cfg.Server.Port, err = envInt("SERVER_PORT", 8080); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if cfg.Server.ReadTimeout, err = envDuration("SERVER_READ_TIMEOUT", 10*time.Second); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if cfg.Server.WriteTimeout, err = envDuration("SERVER_WRITE_TIMEOUT", 15*time.Second); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if cfg.Server.IdleTimeout, err = envDuration("SERVER_IDLE_TIMEOUT", 60*time.Second); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	cfg.Log.Level = strings.ToLower(envString("LOG_LEVEL", "info"))
	switch cfg.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return nil, fmt.Errorf("%s: invalid LOG_LEVEL %q", op, cfg.Log.Level)
	}

	cfg.Storage.Backend = strings.ToLower(envString("STORAGE_BACKEND", BackendPostgres))
	cfg.Storage.BoltPath = envString("BOLT_PATH", "busgo.db")
	switch cfg.Storage.Backend {
	case BackendPostgres:
		if cfg.Postgres, err = postgresFromEnv(); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
	case BackendBolt:
	default:
		return nil, fmt.Errorf("%s: invalid STORAGE_BACKEND %q", op, cfg.Storage.Backend)
	}

	if cfg.Redis.Enabled, err = envBool("REDIS_ENABLED", true); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	cfg.Redis.Addr = envString("REDIS_ADDR", "localhost:6380")
	cfg.Redis.Password = os.Getenv("REDIS_PASSWORD")
	if cfg.Redis.DB, err = envInt("REDIS_DB", 0); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if cfg.Booking.MaxPNRAttempts, err = envInt("BOOKING_MAX_PNR_ATTEMPTS", 5); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if cfg.Booking.MaxPNRAttempts < 1 {
		return nil, fmt.Errorf("%s: BOOKING_MAX_PNR_ATTEMPTS must be positive", op)
	}
	if cfg.Booking.VerifyAmount, err = envBool("BOOKING_VERIFY_AMOUNT", true); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if cfg.RateLimit.Limit, err = envInt("RATE_LIMIT_BOOKINGS", 10); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if cfg.RateLimit.Window, err = envDuration("RATE_LIMIT_WINDOW", time.Minute); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if cfg.Idempotency.TTL, err = envDuration("IDEMPOTENCY_TTL", 2*time.Hour); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if cfg.Cache.AvailabilityTTL, err = envDuration("CACHE_AVAILABILITY_TTL", 15*time.Second); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	cfg.Admin.Username = envString("ADMIN_USERNAME", "admin")
	cfg.Admin.PasswordHash = os.Getenv("ADMIN_PASSWORD_HASH")
	cfg.Admin.JWTSecret = os.Getenv("ADMIN_JWT_SECRET")
	if cfg.Admin.TokenTTL, err = envDuration("ADMIN_TOKEN_TTL", 12*time.Hour); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	cfg.CORS.AllowOrigins = envList("CORS_ALLOW_ORIGINS", []string{"http://localhost:3000"})

	return cfg, nil
}

func postgresFromEnv() (PostgresConfig, error) {
	var err error
	pg := PostgresConfig{
		Host:     envString("POSTGRES_HOST", "localhost"),
		SSLMode:  envString("POSTGRES_SSLMODE", "disable"),
		User:     os.Getenv("POSTGRES_USER"),
		Password: os.Getenv("POSTGRES_PASSWORD"),
		Name:     os.Getenv("POSTGRES_DB"),
	}

	if pg.Port, err = envInt("POSTGRES_PORT", 5432); err != nil {
		return pg, err
	}

	maxConns, err := envInt("POSTGRES_MAX_CONNS", 10)
	if err != nil {
		return pg, err
	}
	pg.MaxConns = int32(maxConns)

	if pg.Migrate, err = envBool("POSTGRES_MIGRATE", true); err != nil {
		return pg, err
	}

	if pg.User == "" {
		return pg, fmt.Errorf("missing POSTGRES_USER")
	}
	if pg.Password == "" {
		return pg, fmt.Errorf("missing POSTGRES_PASSWORD")
	}
	if pg.Name == "" {
		return pg, fmt.Errorf("missing POSTGRES_DB")
	}

	return pg, nil
}

func envString(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envInt(key string, def int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}

func envBool(key string, def bool) (bool, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("invalid %s: %w", key, err)
	}
	return b, nil
}

func envDuration(key string, def time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}

func envList(key string, def []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
