// Package http provides HTTP server infrastructure including module registration.
package http

import (
	"context"

	"crm_sync_backend/internal/events"
	"crm_sync_backend/platform/config"
	"crm_sync_backend/platform/logger"
	"crm_sync_backend/platform/metrics"
)

// RouterConfig combines the config interfaces needed by the HTTP router.
type RouterConfig interface {
	config.HTTPConfig
	config.MetricsConfig
}

// HealthChecker exposes minimal functionality for readiness checks.
type HealthChecker interface {
	Ping(ctx context.Context) error
}

// App holds the fully initialized application dependencies.
// This is populated by main.go (the composition root) and passed to the router.
type App struct {
	// Config holds the router configuration (HTTP and metrics settings only).
	Config RouterConfig
	// Logger is the structured logger.
	Logger *logger.Logger
	// Health checks every ledger the API reads from, keyed by ledger name.
	Health map[string]HealthChecker
	// Optional is reported by the health endpoint but never fails it.
	Optional map[string]HealthChecker
	// Metrics is the Prometheus registry owner; nil disables /metrics.
	Metrics *metrics.Metrics
	// EventBus is the domain event bus for cross-module communication.
	EventBus events.Bus
	// Modules contains all HTTP-facing domain modules.
	Modules []Module
}
