package scheduler

import (
	"context"
	"fmt"
	"time"

	"crm_sync_backend/internal/crm/service"
	"crm_sync_backend/platform/config"
	"crm_sync_backend/platform/logger"

	"github.com/hibiken/asynq"
)

// Cron enqueues an audit task on the configured schedule.
type Cron struct {
	scheduler *asynq.Scheduler
	spec      string
	entryID   string
	log       *logger.Logger
}

// NewCron registers the audit schedule. Cron specs are read in loc so that
// "0 8 * * *" means eight in the morning at the dispatch site.
func NewCron(cfg config.SchedulerConfig, loc *time.Location, log *logger.Logger) (*Cron, error) {
	opt, queue, err := connOpt(cfg)
	if err != nil {
		return nil, err
	}

	spec := cfg.GetAuditCronSpec()
	if spec == "" {
		return nil, fmt.Errorf("audit cron spec not configured")
	}

	scheduler := asynq.NewScheduler(opt, &asynq.SchedulerOpts{
		Location: loc,
		PostEnqueueFunc: func(info *asynq.TaskInfo, err error) {
			if err != nil {
				log.Warn("failed to enqueue audit task", "error", err)
			}
		},
	})

	task, err := NewAuditTask(AuditPayload{Trigger: service.TriggerScheduler})
	if err != nil {
		return nil, err
	}

	entryID, err := scheduler.Register(spec, task, auditTaskOptions(queue)...)
	if err != nil {
		return nil, fmt.Errorf("register audit cron %q: %w", spec, err)
	}

	return &Cron{scheduler: scheduler, spec: spec, entryID: entryID, log: log}, nil
}

func (c *Cron) Run(ctx context.Context) error {
	if c == nil || c.scheduler == nil {
		return nil
	}

	if err := c.scheduler.Start(); err != nil {
		return err
	}
	c.log.Info("audit cron started", "spec", c.spec, "entryId", c.entryID)

	<-ctx.Done()
	c.scheduler.Shutdown()
	return nil
}
