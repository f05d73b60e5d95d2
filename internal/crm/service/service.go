package service

import (
	"context"
	"errors"
	"time"

	"crm_sync_backend/internal/crm/domain"
	"crm_sync_backend/internal/crm/repository"
	"crm_sync_backend/internal/crm/transport"
	"crm_sync_backend/internal/events"
	"crm_sync_backend/platform/apperr"
	"crm_sync_backend/platform/logger"
	"crm_sync_backend/platform/metrics"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// Pass triggers, used as metric labels and in audit events.
const (
	TriggerAPI       = "api"
	TriggerScheduler = "scheduler"
	TriggerCLI       = "cli"
)

// BusinessLedger reads customers and their cases.
type BusinessLedger interface {
	ListCustomers(ctx context.Context, limit int) ([]domain.CustomerRecord, error)
	GetCustomer(ctx context.Context, id string) (domain.CustomerRecord, error)
}

// SchedulingLedger reads agenda bookings.
type SchedulingLedger interface {
	ListAppointments(ctx context.Context, since time.Time) ([]domain.AppointmentRecord, error)
}

// AnomalyRecorder keeps unknown values across passes.
type AnomalyRecorder interface {
	Record(ctx context.Context, anomalies []domain.Anomaly) error
	Counts(ctx context.Context) (map[domain.AnomalyField][]repository.AnomalyCount, error)
}

// Options are the pass defaults used when a request leaves them unset.
type Options struct {
	LookbackDays  int
	CustomerLimit int
}

// PassRequest narrows one pass. Zero values use Options.
type PassRequest struct {
	LookbackDays int
	Limit        int
	Trigger      string
}

// Pass is the outcome of one reconciliation over live ledger data.
type Pass struct {
	RunID  string
	At     time.Time
	Result domain.Result
}

// Service runs reconciliation passes over the two ledgers.
type Service struct {
	business   BusinessLedger
	scheduling SchedulingLedger
	anomalies  AnomalyRecorder
	rules      domain.Rules
	opts       Options
	eventBus   events.Bus
	metrics    *metrics.Metrics
	log        *logger.Logger
	now        func() time.Time
}

// New creates a new CRM reconciliation service
func New(business BusinessLedger, scheduling SchedulingLedger, rules domain.Rules, opts Options, eventBus events.Bus, log *logger.Logger) *Service {
	return &Service{
		business:   business,
		scheduling: scheduling,
		rules:      rules,
		opts:       opts,
		eventBus:   eventBus,
		log:        log,
		now:        time.Now,
	}
}

// SetAnomalyRecorder enables persistent anomaly counters.
func (s *Service) SetAnomalyRecorder(recorder AnomalyRecorder) {
	s.anomalies = recorder
}

// SetMetrics enables Prometheus instrumentation.
func (s *Service) SetMetrics(m *metrics.Metrics) {
	s.metrics = m
}

// SetClock replaces the wall clock, for tests.
func (s *Service) SetClock(now func() time.Time) {
	s.now = now
}

// Rules returns the active rule table.
func (s *Service) Rules() domain.Rules {
	return s.rules
}

// Run fetches both ledgers and reconciles them. If either ledger cannot be
// read the pass fails as a whole: the returned Pass then only carries its
// RunID and time, never a partial result.
func (s *Service) Run(ctx context.Context, req PassRequest) (Pass, error) {
	started := time.Now()
	pass := Pass{RunID: uuid.NewString(), At: s.now()}
	ctx = context.WithValue(ctx, logger.RunIDKey, pass.RunID)

	lookback := req.LookbackDays
	if lookback <= 0 {
		lookback = s.opts.LookbackDays
	}
	limit := req.Limit
	if limit <= 0 {
		limit = s.opts.CustomerLimit
	}
	trigger := req.Trigger
	if trigger == "" {
		trigger = TriggerAPI
	}

	customers, appointments, err := s.fetch(ctx, pass.At.AddDate(0, 0, -lookback), limit)
	if err != nil {
		s.metrics.ObservePass(trigger, started, err)
		return pass, err
	}

	pass.Result = domain.Reconcile(customers, appointments, pass.At, s.rules)
	s.observe(ctx, pass.Result)
	s.metrics.ObservePass(trigger, started, nil)

	s.log.WithContext(ctx).Info("reconciliation pass completed",
		"trigger", trigger,
		"customers", len(customers),
		"appointments", len(appointments),
		"ghost", pass.Result.Summary.ByStatus[domain.StatusGhost],
		"manual", pass.Result.Summary.ByStatus[domain.StatusManual],
		"anomalies", pass.Result.Summary.Anomalies,
	)
	return pass, nil
}

func (s *Service) fetch(ctx context.Context, since time.Time, limit int) ([]domain.CustomerRecord, []domain.AppointmentRecord, error) {
	var (
		customers    []domain.CustomerRecord
		appointments []domain.AppointmentRecord
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		customers, err = s.business.ListCustomers(gctx, limit)
		if err != nil {
			return s.unavailable(ctx, gctx, domain.SourceBusiness, err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		appointments, err = s.scheduling.ListAppointments(gctx, since)
		if err != nil {
			return s.unavailable(ctx, gctx, domain.SourceScheduling, err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}

	return customers, appointments, nil
}

// unavailable wraps a ledger failure. A read that only failed because its
// sibling already cancelled the group is not reported again.
func (s *Service) unavailable(ctx, gctx context.Context, source domain.Source, err error) error {
	if ctx.Err() == nil && gctx.Err() != nil && errors.Is(err, context.Canceled) {
		return err
	}
	s.log.WithContext(ctx).SourceUnavailable(string(source), err)
	s.metrics.IncSourceFailure(string(source))
	return sourceUnavailable(source, err)
}

func sourceUnavailable(source domain.Source, err error) error {
	return apperr.Wrap(apperr.KindUnavailable, string(source)+" ledger unavailable",
		&domain.SourceUnavailableError{Source: source, Err: err}).
		WithOp("crm.fetch").
		WithDetails(map[string]string{"source": string(source)})
}

// observe logs, counts and stores what a pass found.
func (s *Service) observe(ctx context.Context, result domain.Result) {
	statusCounts := make(map[string]int, len(result.Summary.ByStatus))
	for status, n := range result.Summary.ByStatus {
		statusCounts[string(status)] = n
	}
	s.metrics.SetStatusCounts(statusCounts)
	s.metrics.AddMatches(string(domain.MatchLink), result.Summary.ByMethod[domain.MatchLink])
	s.metrics.AddMatches(string(domain.MatchPhone), result.Summary.ByMethod[domain.MatchPhone])

	s.observeAnomalies(ctx, result.Anomalies)
}

// observeAnomalies reports unknown values found by any pass, whatever its
// source.
func (s *Service) observeAnomalies(ctx context.Context, anomalies []domain.Anomaly) {
	if len(anomalies) == 0 {
		return
	}
	log := s.log.WithContext(ctx)
	for _, a := range anomalies {
		log.ReconcileAnomaly(a.CustomerID, string(a.Field), a.Value)
		s.metrics.IncAnomaly(string(a.Field))
	}
	if s.anomalies != nil {
		if err := s.anomalies.Record(ctx, anomalies); err != nil {
			log.Warn("failed to store anomalies", "error", err)
		}
	}
}

// Dashboard runs a pass and returns the filtered view. The summary always
// covers the whole pass.
func (s *Service) Dashboard(ctx context.Context, req transport.DashboardRequest) (transport.DashboardResponse, error) {
	var status domain.IntegrityStatus
	if req.Status != "" {
		parsed, ok := domain.ParseIntegrityStatus(req.Status)
		if !ok {
			return transport.DashboardResponse{}, apperr.Validation("unknown integrity status").WithOp("crm.Dashboard")
		}
		status = parsed
	}

	pass, err := s.Run(ctx, PassRequest{LookbackDays: req.LookbackDays, Limit: req.Limit, Trigger: TriggerAPI})
	if err != nil {
		return transport.DashboardResponse{}, err
	}

	records := domain.Filter(pass.Result.Records, status, req.Intent)
	return transport.ToDashboardResponse(records, pass.Result.Summary, pass.At), nil
}

// Get reconciles a single customer against the agenda.
func (s *Service) Get(ctx context.Context, id string) (transport.UnifiedClientResponse, error) {
	at := s.now()
	var (
		customer     domain.CustomerRecord
		appointments []domain.AppointmentRecord
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		customer, err = s.business.GetCustomer(gctx, id)
		if err != nil {
			if apperr.Is(err, apperr.KindNotFound) {
				return err
			}
			return s.unavailable(ctx, gctx, domain.SourceBusiness, err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		appointments, err = s.scheduling.ListAppointments(gctx, at.AddDate(0, 0, -s.opts.LookbackDays))
		if err != nil {
			return s.unavailable(ctx, gctx, domain.SourceScheduling, err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return transport.UnifiedClientResponse{}, err
	}

	record, anomalies := domain.ReconcileOne(customer, appointments, at, s.rules)
	s.observeAnomalies(ctx, anomalies)
	return transport.ToUnifiedClientResponse(record), nil
}

// ReconcileRecords runs the engine over caller-supplied records. No ledger
// is read. Both record sets must be present: an absent agenda would turn
// every customer into a ghost.
func (s *Service) ReconcileRecords(ctx context.Context, req transport.ReconcileRequest) (transport.DashboardResponse, error) {
	if req.Customers == nil || req.Appointments == nil {
		return transport.DashboardResponse{}, apperr.Validation("customers and appointments are required").WithOp("crm.ReconcileRecords")
	}

	at := s.now()
	if req.Now != nil {
		at = *req.Now
	}

	result := domain.Reconcile(
		transport.ToCustomerRecords(req.Customers),
		transport.ToAppointmentRecords(req.Appointments),
		at,
		s.rules,
	)
	s.observeAnomalies(ctx, result.Anomalies)
	return transport.ToDashboardResponse(result.Records, result.Summary, at), nil
}

// Anomalies returns the stored unknown-value counters.
func (s *Service) Anomalies(ctx context.Context) (transport.AnomaliesResponse, error) {
	if s.anomalies == nil {
		return transport.AnomaliesResponse{}, apperr.Unavailable("anomaly store is not configured").WithOp("crm.Anomalies")
	}

	counts, err := s.anomalies.Counts(ctx)
	if err != nil {
		return transport.AnomaliesResponse{}, apperr.Wrap(apperr.KindUnavailable, "anomaly store unavailable", err).WithOp("crm.Anomalies")
	}

	resp := transport.AnomaliesResponse{Fields: make(map[string][]transport.AnomalyCount, len(counts))}
	for field, values := range counts {
		list := make([]transport.AnomalyCount, 0, len(values))
		for _, v := range values {
			list = append(list, transport.AnomalyCount{Value: v.Value, Count: v.Count})
		}
		resp.Fields[string(field)] = list
	}
	return resp, nil
}
