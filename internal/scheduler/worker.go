package scheduler

import (
	"context"
	"fmt"

	"crm_sync_backend/internal/crm/service"
	"crm_sync_backend/platform/apperr"
	"crm_sync_backend/platform/config"
	"crm_sync_backend/platform/logger"

	"github.com/hibiken/asynq"
)

// Auditor runs one audit pass and publishes its outcome.
type Auditor interface {
	Audit(ctx context.Context, trigger string) (service.Pass, error)
}

type Worker struct {
	server  *asynq.Server
	mux     *asynq.ServeMux
	auditor Auditor
	log     *logger.Logger
}

func NewWorker(cfg config.SchedulerConfig, auditor Auditor, log *logger.Logger) (*Worker, error) {
	opt, queue, err := connOpt(cfg)
	if err != nil {
		return nil, err
	}

	concurrency := cfg.GetAsynqConcurrency()
	if concurrency < 1 {
		concurrency = 2
	}

	server := asynq.NewServer(opt, asynq.Config{
		Concurrency: concurrency,
		Queues: map[string]int{
			queue: 1,
		},
	})

	return newWorker(server, auditor, log), nil
}

func newWorker(server *asynq.Server, auditor Auditor, log *logger.Logger) *Worker {
	mux := asynq.NewServeMux()
	w := &Worker{
		server:  server,
		mux:     mux,
		auditor: auditor,
		log:     log,
	}

	mux.HandleFunc(TaskReconcileAudit, w.handleAudit)

	return w
}

func (w *Worker) Run(ctx context.Context) {
	if w == nil || w.server == nil {
		return
	}

	go func() {
		<-ctx.Done()
		w.server.Shutdown()
	}()

	if err := w.server.Run(w.mux); err != nil {
		w.log.Error("scheduler worker stopped", "error", err)
	}
}

func (w *Worker) handleAudit(ctx context.Context, task *asynq.Task) error {
	payload, err := ParseAuditPayload(task)
	if err != nil {
		return fmt.Errorf("%w: %v", asynq.SkipRetry, err)
	}

	trigger := payload.Trigger
	if trigger == "" {
		trigger = service.TriggerScheduler
	}

	pass, err := w.auditor.Audit(ctx, trigger)
	if err != nil {
		// A ledger outage is already reported by the audit event; the
		// task itself is done.
		if apperr.Is(err, apperr.KindUnavailable) {
			return nil
		}
		return err
	}

	w.log.Info("audit task completed", "runId", pass.RunID, "trigger", trigger)
	return nil
}
