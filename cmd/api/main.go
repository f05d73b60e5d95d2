package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata"

	"crm_sync_backend/internal/crm"
	"crm_sync_backend/internal/events"
	apphttp "crm_sync_backend/internal/http"
	"crm_sync_backend/internal/http/router"
	"crm_sync_backend/platform/config"
	"crm_sync_backend/platform/db"
	"crm_sync_backend/platform/logger"
	"crm_sync_backend/platform/metrics"
	"crm_sync_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	// Initialize structured logger
	log := logger.New(cfg.Env)
	log.Info("starting server", "env", cfg.Env, "addr", cfg.HTTPAddr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// ========================================================================
	// Infrastructure Layer
	// ========================================================================

	var pool *pgxpool.Pool
	if err := withRetry(ctx, log, "business ledger connection", 5, 2*time.Second, func() error {
		p, err := db.NewPool(ctx, cfg)
		if err != nil {
			return err
		}
		pool = p
		return nil
	}); err != nil {
		log.Error("failed to connect to business ledger", "error", err)
		panic("failed to connect to business ledger: " + err.Error())
	}
	defer pool.Close()
	log.Info("business ledger connection established")

	loc, _ := time.LoadLocation(cfg.GetDispatchTimezone())

	var agenda *sql.DB
	if err := withRetry(ctx, log, "scheduling ledger connection", 5, 2*time.Second, func() error {
		d, err := db.NewMySQL(ctx, cfg, loc)
		if err != nil {
			return err
		}
		agenda = d
		return nil
	}); err != nil {
		log.Error("failed to connect to scheduling ledger", "error", err)
		panic("failed to connect to scheduling ledger: " + err.Error())
	}
	defer func() { _ = agenda.Close() }()
	log.Info("scheduling ledger connection established")

	health := map[string]apphttp.HealthChecker{
		"business":   db.NewPoolAdapter(pool),
		"scheduling": db.NewSQLAdapter(agenda),
	}

	optional := map[string]apphttp.HealthChecker{}
	redisClient := initRedis(ctx, cfg, log)
	if redisClient != nil {
		defer func() { _ = redisClient.Close() }()
		optional["redis"] = db.NewRedisAdapter(redisClient)
	}

	var m *metrics.Metrics
	if cfg.IsMetricsEnabled() {
		m = metrics.New()
	}

	// Event bus for decoupled communication between modules
	eventBus := events.NewInMemoryBus(log)

	// Shared validator instance for dependency injection
	val := validator.New()

	// ========================================================================
	// Domain Modules (Composition Root)
	// ========================================================================

	crmModule, err := crm.NewModule(crm.Deps{
		Pool:     pool,
		Agenda:   agenda,
		Redis:    redisClient,
		Metrics:  m,
		EventBus: eventBus,
		Logger:   log,
	}, cfg, val)
	if err != nil {
		log.Error("failed to initialize crm module", "error", err)
		panic("failed to initialize crm module: " + err.Error())
	}

	// ========================================================================
	// HTTP Layer
	// ========================================================================

	app := &apphttp.App{
		Config:   cfg,
		Logger:   log,
		Health:   health,
		Optional: optional,
		Metrics:  m,
		EventBus: eventBus,
		Modules: []apphttp.Module{
			crmModule,
		},
	}

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router.New(app),
		ReadHeaderTimeout: 10 * time.Second,
	}

	srvErr := make(chan error, 1)
	go func() {
		log.Info("server listening", "addr", cfg.HTTPAddr)
		srvErr <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		log.Info("shutdown signal received, gracefully shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.GetShutdownTimeout())
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error("graceful shutdown failed", "error", err)
		}
		eventBus.Wait()
	case err := <-srvErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", "error", err)
			panic("server error: " + err.Error())
		}
	}
}

// initRedis connects the optional anomaly store. The API still serves
// passes without it.
func initRedis(ctx context.Context, cfg config.SchedulerConfig, log *logger.Logger) *redis.Client {
	if cfg.GetRedisURL() == "" {
		log.Warn("REDIS_URL not configured; anomaly history disabled")
		return nil
	}

	client, err := db.NewRedis(ctx, cfg)
	if err != nil {
		log.Error("failed to connect to redis; anomaly history disabled", "error", err)
		return nil
	}
	return client
}

func withRetry(ctx context.Context, log *logger.Logger, name string, attempts int, baseDelay time.Duration, fn func() error) error {
	if attempts < 1 {
		return fmt.Errorf("%s: invalid retry attempts", name)
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err := fn(); err == nil {
			return nil
		} else {
			lastErr = err
			log.Warn("retryable operation failed", "operation", name, "attempt", attempt, "error", err)
		}

		if attempt < attempts {
			delay := time.Duration(attempt*attempt) * baseDelay
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}
	}

	return errors.New(name + ": " + lastErr.Error())
}
