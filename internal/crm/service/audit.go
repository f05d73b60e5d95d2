package service

import (
	"context"
	"errors"
	"fmt"

	"crm_sync_backend/internal/crm/domain"
	"crm_sync_backend/internal/events"
	"crm_sync_backend/platform/logger"
)

// Audit runs a pass with the configured defaults and publishes its outcome
// on the event bus.
func (s *Service) Audit(ctx context.Context, trigger string) (Pass, error) {
	pass, err := s.Run(ctx, PassRequest{Trigger: trigger})
	if err != nil {
		s.publishFailure(ctx, pass, trigger, err)
		return pass, err
	}

	if s.eventBus == nil {
		return pass, nil
	}

	summary := pass.Result.Summary
	event := events.ReconciliationCompleted{
		BaseEvent: events.NewBaseEvent(),
		RunID:     pass.RunID,
		Trigger:   trigger,
		Total:     summary.Total,
		ByStatus:  make(map[string]int, len(summary.ByStatus)),
		ByAction:  make(map[string]int, len(summary.ByAction)),
		Anomalies: summary.Anomalies,
	}
	for status, n := range summary.ByStatus {
		event.ByStatus[string(status)] = n
	}
	for kind, n := range summary.ByAction {
		event.ByAction[string(kind)] = n
	}
	for _, r := range pass.Result.Records {
		if r.IntegrityStatus != domain.StatusGhost {
			continue
		}
		event.Ghosts = append(event.Ghosts, events.GhostCustomer{
			CustomerID: r.CustomerID,
			Name:       r.Name,
			Phone:      r.Phone,
			Technician: r.ResolvedTechnicianName,
		})
	}
	s.eventBus.Publish(ctx, event)

	return pass, nil
}

func (s *Service) publishFailure(ctx context.Context, pass Pass, trigger string, err error) {
	if s.eventBus == nil {
		return
	}
	var source domain.Source
	var sue *domain.SourceUnavailableError
	if errors.As(err, &sue) {
		source = sue.Source
	}
	s.eventBus.Publish(ctx, events.ReconciliationFailed{
		BaseEvent: events.NewBaseEvent(),
		RunID:     pass.RunID,
		Trigger:   trigger,
		Source:    string(source),
		Error:     err.Error(),
	})
}

// AuditLogger writes one warning per GHOST customer of a completed audit so
// operators can chase the missing bookings.
type AuditLogger struct {
	log *logger.Logger
}

// NewAuditLogger creates the audit event handler.
func NewAuditLogger(log *logger.Logger) *AuditLogger {
	return &AuditLogger{log: log}
}

// Subscribe registers the handler for audit events.
func (a *AuditLogger) Subscribe(bus events.Bus) {
	bus.Subscribe(events.ReconciliationCompleted{}.EventName(), a)
	bus.Subscribe(events.ReconciliationFailed{}.EventName(), a)
}

// Handle implements events.Handler.
func (a *AuditLogger) Handle(ctx context.Context, event events.Event) error {
	switch e := event.(type) {
	case events.ReconciliationCompleted:
		log := a.log.WithContext(context.WithValue(ctx, logger.RunIDKey, e.RunID))
		for _, g := range e.Ghosts {
			log.Warn("ghost appointment",
				"customer_id", g.CustomerID,
				"name", g.Name,
				"phone", g.Phone,
				"technician", g.Technician,
			)
		}
		log.Info("audit completed", "trigger", e.Trigger, "total", e.Total, "ghosts", len(e.Ghosts), "anomalies", e.Anomalies)
		return nil
	case events.ReconciliationFailed:
		a.log.Error("audit failed", "run_id", e.RunID, "trigger", e.Trigger, "source", e.Source, "error", e.Error)
		return nil
	default:
		return fmt.Errorf("unexpected event %s", event.EventName())
	}
}
