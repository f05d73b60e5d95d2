package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata"

	"crm_sync_backend/internal/cli"
	"crm_sync_backend/internal/crm"
	"crm_sync_backend/internal/events"
	"crm_sync_backend/internal/scheduler"
	"crm_sync_backend/platform/config"
	"crm_sync_backend/platform/db"
	"crm_sync_backend/platform/logger"
	"crm_sync_backend/platform/validator"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cmd := cli.NewRootCommand(cli.Deps{
		Dashboarder: connectLedgers,
		Enqueuer:    connectScheduler,
	})
	if err := cmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

// connectLedgers opens both ledgers for a single pass. Logs go to stderr so
// that --format json output stays parseable.
func connectLedgers(ctx context.Context) (cli.Dashboarder, func(), error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	log := logger.NewWithWriter(cfg.Env, os.Stderr)

	pool, err := db.NewPool(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}
	loc, _ := time.LoadLocation(cfg.GetDispatchTimezone())
	agenda, err := db.NewMySQL(ctx, cfg, loc)
	if err != nil {
		pool.Close()
		return nil, nil, err
	}

	deps := crm.Deps{
		Pool:     pool,
		Agenda:   agenda,
		EventBus: events.NewInMemoryBus(log),
		Logger:   log,
	}
	if cfg.IsSchedulerEnabled() {
		if client, err := db.NewRedis(ctx, cfg); err == nil {
			deps.Redis = client
		} else {
			log.Warn("redis unavailable; anomalies will not be stored", "error", err)
		}
	}

	release := func() {
		if deps.Redis != nil {
			_ = deps.Redis.Close()
		}
		_ = agenda.Close()
		pool.Close()
	}

	module, err := crm.NewModule(deps, cfg, validator.New())
	if err != nil {
		release()
		return nil, nil, err
	}
	return module.Service(), release, nil
}

func connectScheduler(ctx context.Context) (cli.Enqueuer, func(), error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	client, err := scheduler.NewClient(cfg)
	if err != nil {
		return nil, nil, err
	}
	return client, func() { _ = client.Close() }, nil
}
