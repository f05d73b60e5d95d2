// Package crm provides the CRM reconciliation module: it unifies the CRM and
// the agenda into one view per customer and predicts the dispatcher's next
// message.
package crm

import (
	"database/sql"
	"fmt"
	"os"

	"crm_sync_backend/internal/crm/domain"
	"crm_sync_backend/internal/crm/handler"
	"crm_sync_backend/internal/crm/repository"
	"crm_sync_backend/internal/crm/service"
	"crm_sync_backend/internal/crm/transport"
	"crm_sync_backend/internal/events"
	apphttp "crm_sync_backend/internal/http"
	"crm_sync_backend/platform/config"
	"crm_sync_backend/platform/logger"
	"crm_sync_backend/platform/metrics"
	"crm_sync_backend/platform/phone"
	"crm_sync_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
)

// Module represents the CRM reconciliation module
type Module struct {
	handler *handler.Handler
	service *service.Service
}

// Deps are the infrastructure handles the module reads from. Redis and
// Metrics are optional.
type Deps struct {
	Pool     *pgxpool.Pool
	Agenda   *sql.DB
	Redis    *redis.Client
	Metrics  *metrics.Metrics
	EventBus events.Bus
	Logger   *logger.Logger
}

// NewModule creates a new CRM module with all dependencies wired
func NewModule(deps Deps, cfg config.ReconcileConfig, val *validator.Validator) (*Module, error) {
	rules, err := LoadRules(cfg)
	if err != nil {
		return nil, err
	}
	if err := transport.RegisterValidations(val); err != nil {
		return nil, err
	}

	svc := service.New(
		repository.NewBusiness(deps.Pool),
		repository.NewScheduling(deps.Agenda),
		rules,
		service.Options{LookbackDays: cfg.GetLookbackDays(), CustomerLimit: cfg.GetCustomerLimit()},
		deps.EventBus,
		deps.Logger,
	)
	svc.SetMetrics(deps.Metrics)
	if deps.Redis != nil {
		svc.SetAnomalyRecorder(repository.NewAnomalyStore(deps.Redis))
	}

	return &Module{
		handler: handler.New(svc, val),
		service: svc,
	}, nil
}

// LoadRules builds the rule table: built-in defaults, then the configured
// timezone and phone region, then the optional YAML rule file.
func LoadRules(cfg config.ReconcileConfig) (domain.Rules, error) {
	base := domain.DefaultRules()
	base.Phone = phone.NewNormalizer(cfg.GetPhoneRegion())

	rules, err := domain.RuleFile{Timezone: cfg.GetDispatchTimezone()}.Apply(base)
	if err != nil {
		return domain.Rules{}, err
	}

	path := cfg.GetRulesFile()
	if path == "" {
		return rules, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return domain.Rules{}, fmt.Errorf("read rule file: %w", err)
	}
	return domain.ParseRules(data, rules)
}

// Service exposes the reconciliation service for the scheduler and CLI.
func (m *Module) Service() *service.Service {
	return m.service
}

// Name returns the module name for logging
func (m *Module) Name() string {
	return "crm"
}

// RegisterRoutes registers the module's routes under /api/v1/crm
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	crm := ctx.V1.Group("/crm")
	m.handler.RegisterRoutes(crm, ctx.RateLimiter.RateLimit())
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
