package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata"

	"crm_sync_backend/internal/crm"
	"crm_sync_backend/internal/crm/service"
	"crm_sync_backend/internal/events"
	"crm_sync_backend/internal/scheduler"
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

	log := logger.New(cfg.Env)
	log.Info("starting scheduler", "env", cfg.Env, "cron", cfg.GetAuditCronSpec())

	if !cfg.IsSchedulerEnabled() {
		panic("REDIS_URL is required to run the scheduler")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

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

	var redisClient *redis.Client
	if err := withRetry(ctx, log, "redis connection", 5, 2*time.Second, func() error {
		c, err := db.NewRedis(ctx, cfg)
		if err != nil {
			return err
		}
		redisClient = c
		return nil
	}); err != nil {
		log.Error("failed to connect to redis", "error", err)
		panic("failed to connect to redis: " + err.Error())
	}
	defer func() { _ = redisClient.Close() }()

	var m *metrics.Metrics
	if cfg.IsMetricsEnabled() {
		m = metrics.New()
		go serveMetrics(ctx, cfg.GetMetricsAddr(), m, log)
	}

	eventBus := events.NewInMemoryBus(log)
	service.NewAuditLogger(log).Subscribe(eventBus)

	crmModule, err := crm.NewModule(crm.Deps{
		Pool:     pool,
		Agenda:   agenda,
		Redis:    redisClient,
		Metrics:  m,
		EventBus: eventBus,
		Logger:   log,
	}, cfg, validator.New())
	if err != nil {
		log.Error("failed to initialize crm module", "error", err)
		panic("failed to initialize crm module: " + err.Error())
	}

	cron, err := scheduler.NewCron(cfg, loc, log)
	if err != nil {
		log.Error("failed to initialize audit cron", "error", err)
		panic("failed to initialize audit cron: " + err.Error())
	}
	go func() {
		if err := cron.Run(ctx); err != nil {
			log.Error("audit cron stopped", "error", err)
			stop()
		}
	}()

	worker, err := scheduler.NewWorker(cfg, crmModule.Service(), log)
	if err != nil {
		log.Error("failed to initialize scheduler worker", "error", err)
		panic("failed to initialize scheduler worker: " + err.Error())
	}

	worker.Run(ctx)
	eventBus.Wait()
}

// serveMetrics exposes /metrics until ctx is done.
func serveMetrics(ctx context.Context, addr string, m *metrics.Metrics, log *logger.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	log.Info("metrics listening", "addr", addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Error("metrics server stopped", "error", err)
	}
}

func withRetry(ctx context.Context, log *logger.Logger, name string, attempts int, baseDelay time.Duration, fn func() error) error {
	if attempts < 1 {
		return errors.New(name + ": invalid retry attempts")
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
