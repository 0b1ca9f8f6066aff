package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	httpAdapter "github.com/iho/splitsync/internal/adapter/http"
	"github.com/iho/splitsync/internal/adapter/http/handler"
	"github.com/iho/splitsync/internal/adapter/http/middleware"
	postgresRepo "github.com/iho/splitsync/internal/adapter/repository/postgres"
	redisRepo "github.com/iho/splitsync/internal/adapter/repository/redis"
	"github.com/iho/splitsync/internal/infrastructure/auth"
	"github.com/iho/splitsync/internal/infrastructure/clock"
	"github.com/iho/splitsync/internal/infrastructure/config"
	"github.com/iho/splitsync/internal/infrastructure/logger"
	"github.com/iho/splitsync/internal/infrastructure/metrics"
	"github.com/iho/splitsync/internal/infrastructure/postgres"
	"github.com/iho/splitsync/internal/infrastructure/redis"
	"github.com/iho/splitsync/internal/infrastructure/retry"
	"github.com/iho/splitsync/internal/infrastructure/syncworker"
	"github.com/iho/splitsync/internal/usecase"
)

// limiterIdle is how long a client's rate limiter survives without requests.
const limiterIdle = 10 * time.Minute

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	logg := logger.New(logger.Config{Level: cfg.LogLevel, Format: cfg.LogFormat, Output: os.Stderr})
	log.Logger = logg

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logg); err != nil {
		logg.Fatal().Err(err).Msg("agent failed")
	}
	logg.Info().Msg("agent stopped")
}

func run(ctx context.Context, cfg *config.Config, logg zerolog.Logger) error {
	// Local store
	if cfg.RunMigrations {
		if err := postgres.NewMigrator(cfg.DatabaseURL, cfg.MigrationsPath, logg).Up(); err != nil {
			return fmt.Errorf("migrate local store: %w", err)
		}
	}

	pool, err := postgres.NewPoolWithConfig(ctx, postgres.PoolConfig{
		DatabaseURL:    cfg.DatabaseURL,
		MaxConns:       cfg.DatabaseMaxConns,
		MinConns:       cfg.DatabaseMinConns,
		ConnectTimeout: cfg.DatabaseTimeout,
	})
	if err != nil {
		return fmt.Errorf("connect to postgres: %w", err)
	}
	defer pool.Close()
	logg.Info().Msg("connected to postgres")

	// Redis: idempotency cache and remote snapshot store
	cacheClient, err := redis.NewClient(ctx, redis.Config{URL: cfg.RedisURL, ClientName: "splitsync-cache"})
	if err != nil {
		return fmt.Errorf("connect to redis: %w", err)
	}
	defer cacheClient.Close()

	remoteClient, err := newRemoteClient(ctx, cfg.RemoteRedisURL, logg)
	if err != nil {
		return err
	}
	defer remoteClient.Close()

	// Identity
	var jwtManager *auth.JWTManager
	if cfg.JWTSecret != "" {
		jwtManager = auth.NewJWTManager(cfg.JWTSecret, cfg.JWTExpiration)
	}
	device := auth.NewTokenIdentityProvider(cfg.AccessToken, jwtManager)
	principal := resolvePrincipal(ctx, device, logg)

	// Core
	m := metrics.New()
	store := postgresRepo.NewLocalStore(pool)
	idGen := postgresRepo.NewULIDGenerator()
	clk := clock.SystemClock{}
	locks := usecase.NewGroupLocks()
	remote := redisRepo.NewSnapshotStore(remoteClient, principal)

	syncUC := usecase.NewSyncUseCase(usecase.SyncConfig{
		Store:     store,
		Remote:    remote,
		Identity:  device,
		Locks:     locks,
		Retrier:   retry.NewRetrier(retry.Config{}, logg),
		Clock:     clk,
		IDGen:     idGen,
		Recorder:  m,
		Logger:    logg,
		AutoMerge: cfg.SyncAutoMerge,
	})
	queue := usecase.NewOfflineQueue(store, locks, syncUC, idGen, clk, m, logg)

	groupUC := usecase.NewGroupUseCase(store, queue, remote, idGen, clk, logg)
	expenseUC := usecase.NewExpenseUseCase(store, queue, idGen, clk)
	settlementUC := usecase.NewSettlementUseCase(store, queue, idGen, clk)
	balanceUC := usecase.NewBalanceUseCase(store, clk)

	// HTTP
	requestIdentity := middleware.NewRequestIdentity(device)
	rateLimiter := middleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst).WithRecorder(m)

	routerCfg := httpAdapter.RouterConfig{
		GroupHandler:      handler.NewGroupHandler(groupUC, requestIdentity),
		ExpenseHandler:    handler.NewExpenseHandler(expenseUC),
		SettlementHandler: handler.NewSettlementHandler(settlementUC),
		BalanceHandler:    handler.NewBalanceHandler(balanceUC),
		SyncHandler:       handler.NewSyncHandler(syncUC, syncUC.Resolver(), queue, requestIdentity),
		HealthHandler:     handler.NewHealthHandler(healthChecks(pool.Ping, cacheClient, remoteClient)),

		IdempotencyStore:    redisRepo.NewIdempotencyStore(cacheClient),
		IdempotencyTTL:      cfg.IdempotencyTTL,
		RateLimiter:         rateLimiter,
		Logger:              &logg,
		AuthFailureRecorder: m,
	}
	if cfg.AuthEnabled {
		routerCfg.JWTManager = jwtManager
	}

	server := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.HTTPPort),
		Handler:      httpAdapter.NewRouter(routerCfg),
		ReadTimeout:  cfg.HTTPReadTimeout,
		WriteTimeout: cfg.HTTPWriteTimeout,
		IdleTimeout:  cfg.HTTPIdleTimeout,
	}

	worker := syncworker.New(syncworker.Config{
		Syncer:          syncUC,
		Logger:          logg,
		Interval:        cfg.SyncInterval,
		ShutdownTimeout: cfg.SyncShutdownTimeout,
	})

	errCh := make(chan error, 2)

	go func() {
		logg.Info().Str("port", cfg.HTTPPort).Msg("starting server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()

	workerDone := make(chan struct{})
	go func() {
		defer close(workerDone)
		if err := worker.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
			errCh <- fmt.Errorf("sync worker: %w", err)
		}
	}()

	go cleanupLimiters(ctx, rateLimiter, logg)

	var runErr error
	select {
	case <-ctx.Done():
		logg.Info().Msg("shutting down...")
	case runErr = <-errCh:
		logg.Error().Err(runErr).Msg("shutting down after failure")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTPShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logg.Error().Err(err).Msg("server forced to shutdown")
	}

	if runErr == nil {
		// The worker drains in-flight sync attempts once ctx is done.
		<-workerDone
	}
	return runErr
}

// newRemoteClient connects to the remote snapshot store. An unreachable
// remote is not fatal: the agent keeps working locally and sync attempts
// report remote errors until it comes back.
func newRemoteClient(ctx context.Context, url string, logg zerolog.Logger) (*goredis.Client, error) {
	client, err := redis.NewClient(ctx, redis.Config{URL: url, ClientName: "splitsync-remote"})
	if err == nil {
		return client, nil
	}

	opts, parseErr := goredis.ParseURL(url)
	if parseErr != nil {
		return nil, fmt.Errorf("parse remote redis URL: %w", parseErr)
	}
	logg.Warn().Err(err).Msg("remote store unreachable, starting offline")
	opts.ClientName = "splitsync-remote"
	return goredis.NewClient(opts), nil
}

// resolvePrincipal returns the e-mail remote access checks run as. Without
// a usable identity the checks are disabled and sync requests fail later
// with an authorization error.
func resolvePrincipal(ctx context.Context, identity usecase.IdentityProvider, logg zerolog.Logger) string {
	id, err := identity.Current(ctx)
	if err != nil {
		logg.Warn().Err(err).Msg("no device identity, remote sync disabled until ACCESS_TOKEN is set")
		return ""
	}
	logg.Info().Str("user_id", id.UserID).Str("email", id.Email).Msg("device identity resolved")
	return id.Email
}

// healthChecks names the dependencies the readiness probe pings.
func healthChecks(pgPing func(context.Context) error, cache, remote goredis.UniversalClient) map[string]handler.Pinger {
	return map[string]handler.Pinger{
		"postgres": handler.PingFunc(pgPing),
		"redis": handler.PingFunc(func(ctx context.Context) error {
			return cache.Ping(ctx).Err()
		}),
		"remote": handler.PingFunc(func(ctx context.Context) error {
			return remote.Ping(ctx).Err()
		}),
	}
}

func cleanupLimiters(ctx context.Context, rl *middleware.RateLimiter, logg zerolog.Logger) {
	ticker := time.NewTicker(limiterIdle)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			remaining := rl.CleanupLimiters(limiterIdle)
			logg.Debug().Int("clients", remaining).Msg("rate limiters cleaned up")
		}
	}
}
