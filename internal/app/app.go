package app

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

	goredis "github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"github.com/kirinyoku/busgo/internal/auth"
	"github.com/kirinyoku/busgo/internal/config"
	"github.com/kirinyoku/busgo/internal/postgres"
	"github.com/kirinyoku/busgo/internal/redis"
	boltrepo "github.com/kirinyoku/busgo/internal/repository/bolt"
	postgresrepo "github.com/kirinyoku/busgo/internal/repository/postgres"
	redisrepo "github.com/kirinyoku/busgo/internal/repository/redis"
	"github.com/kirinyoku/busgo/internal/service"
	"github.com/kirinyoku/busgo/internal/service/booking"
	"github.com/kirinyoku/busgo/internal/service/query"
	httpgin "github.com/kirinyoku/busgo/internal/transport/http/gin"
)

const shutdownTimeout = 5 * time.Second

type App struct {
	cfg        *config.Config
	logger     *slog.Logger
	httpServer *http.Server
	closers    []func() error
}

// storage is the backend picked by STORAGE_BACKEND.
type storage struct {
	repos service.Repos
	ping  func() error
	close func() error
}

func New(cfg *config.Config, logger *slog.Logger) (*App, error) {
	ctx := context.Background()
	a := &App{cfg: cfg, logger: logger}

	// Initialize storage
	st, err := openStorage(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, st.close)

	// Initialize Redis components; nil values disable them.
	var (
		cache   *redisrepo.Cache
		pubsub  *redisrepo.SchedulesPubSub
		limiter *redisrepo.SlidingWindowLimiter
		idem    *redisrepo.IdempotencyStore
	)

	if cfg.Redis.Enabled {
		rdb, err := redis.New(ctx, redis.Config{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			a.close()
			return nil, fmt.Errorf("failed to initialize redis: %w", err)
		}
		a.closers = append(a.closers, rdb.Close)

		cache = redisrepo.NewCache(rdb)
		pubsub = redisrepo.NewSchedulesPubSub(rdb)
		limiter = redisrepo.NewSlidingWindowLimiter(rdb, "bookings", cfg.RateLimit.Limit, cfg.RateLimit.Window)
		idem = redisrepo.NewIdempotencyStore(rdb, cfg.Idempotency.TTL, 0)

		st.ping = withRedisPing(st.ping, rdb)
	} else {
		logger.Warn("redis disabled: no cache, rate limit, idempotency or live updates")
	}

	// Initialize services
	services := service.NewServices(st.repos, cache, pubsub, limiter, logger, service.Config{
		Booking: booking.Config{
			MaxPNRAttempts: cfg.Booking.MaxPNRAttempts,
			VerifyAmount:   cfg.Booking.VerifyAmount,
		},
		Query: query.Config{
			AvailabilityTTL: cfg.Cache.AvailabilityTTL,
		},
	})

	authenticator := auth.New(auth.Config{
		Username:     cfg.Admin.Username,
		PasswordHash: cfg.Admin.PasswordHash,
		JWTSecret:    cfg.Admin.JWTSecret,
		TokenTTL:     cfg.Admin.TokenTTL,
	})
	if cfg.Admin.PasswordHash == "" || cfg.Admin.JWTSecret == "" {
		logger.Warn("admin login disabled: set ADMIN_PASSWORD_HASH and ADMIN_JWT_SECRET")
	}

	// Initialize Gin router
	router := httpgin.NewRouter(services, httpgin.Deps{
		Auth:        authenticator,
		Idem:        idem,
		PubSub:      pubsub,
		CORSOrigins: cfg.CORS.AllowOrigins,
		Ready:       st.ping,
	}, logger)

	a.httpServer = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	return a, nil
}

func (a *App) Run(ctx context.Context) error {
	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()
	defer a.close()

	g, gCtx := errgroup.WithContext(ctx)

	// Start HTTP server
	g.Go(func() error {
		a.logger.Info("HTTP server listening",
			"host", a.cfg.Server.Host,
			"port", a.cfg.Server.Port,
			"storage", a.cfg.Storage.Backend,
		)
		if err := a.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("failed to start HTTP server: %w", err)
		}
		return nil
	})

	// Graceful shutdown
	g.Go(func() error {
		<-gCtx.Done()
		a.logger.Info("shutting down HTTP server")
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return a.httpServer.Shutdown(ctx)
	})

	return g.Wait()
}

func (a *App) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			a.logger.Warn("close failed", "error", err)
		}
	}
	a.closers = nil
}

// Migrate applies the postgres schema and returns.
func Migrate(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	if cfg.Storage.Backend != config.BackendPostgres {
		return fmt.Errorf("migrations need STORAGE_BACKEND=%s, got %q", config.BackendPostgres, cfg.Storage.Backend)
	}

	return postgres.Migrate(ctx, cfg.Postgres.DSN(), logger)
}

// NewLogger builds the text logger used everywhere.
func NewLogger(level string) *slog.Logger {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		lvl = slog.LevelInfo
	}

	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: lvl}))
}

func openStorage(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*storage, error) {
	switch cfg.Storage.Backend {
	case config.BackendBolt:
		store, err := boltrepo.Open(cfg.Storage.BoltPath)
		if err != nil {
			return nil, fmt.Errorf("failed to open bolt store: %w", err)
		}
		logger.Info("using bolt storage", "path", cfg.Storage.BoltPath)

		return &storage{
			repos: service.Repos{
				Bookings:  store.Bookings(),
				Schedules: store.Schedules(),
				Admin:     store.Admin(),
				Messages:  store.Messages(),
			},
			ping:  store.Ping,
			close: store.Close,
		}, nil

	case config.BackendPostgres:
		dsn := cfg.Postgres.DSN()

		if cfg.Postgres.Migrate {
			if err := postgres.Migrate(ctx, dsn, logger); err != nil {
				return nil, fmt.Errorf("failed to migrate postgres: %w", err)
			}
		}

		pgxPool, err := postgres.New(ctx, postgres.Config{DSN: dsn, MaxConns: cfg.Postgres.MaxConns})
		if err != nil {
			return nil, fmt.Errorf("failed to initialize postgres: %w", err)
		}

		store := postgresrepo.NewStore(pgxPool)

		return &storage{
			repos: service.Repos{
				Bookings:  store.Bookings(),
				Schedules: store.Schedules(),
				Admin:     store.Admin(),
				Messages:  store.Messages(),
			},
			ping: func() error {
				ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
				defer cancel()
				return store.Ping(ctx)
			},
			close: store.Close,
		}, nil
	}

	return nil, fmt.Errorf("unknown storage backend %q", cfg.Storage.Backend)
}

func withRedisPing(next func() error, rdb *goredis.Client) func() error {
	return func() error {
		if err := next(); err != nil {
			return err
		}
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		return rdb.Ping(ctx).Err()
	}
}
