// Package events provides domain event definitions for decoupled,
// event-driven communication between modules.
// Infrastructure (Bus, Handler) is in platform/events.
package events

import (
	"crm_sync_backend/platform/events"
)

// Re-export platform types for convenience
type (
	Event       = events.Event
	Bus         = events.Bus
	Handler     = events.Handler
	HandlerFunc = events.HandlerFunc
	BaseEvent   = events.BaseEvent
)

// Re-export platform functions
var NewBaseEvent = events.NewBaseEvent

// =============================================================================
// CRM Reconciliation Events
// =============================================================================

// GhostCustomer identifies a customer the CRM believes has a visit the
// agenda does not hold.
type GhostCustomer struct {
	CustomerID string `json:"customerId"`
	Name       string `json:"name"`
	Phone      string `json:"phone"`
	Technician string `json:"technician"`
}

// ReconciliationCompleted is published after every successful audit pass.
type ReconciliationCompleted struct {
	BaseEvent
	RunID     string          `json:"runId"`
	Trigger   string          `json:"trigger"`
	Total     int             `json:"total"`
	ByStatus  map[string]int  `json:"byStatus"`
	ByAction  map[string]int  `json:"byAction"`
	Anomalies int             `json:"anomalies"`
	Ghosts    []GhostCustomer `json:"ghosts"`
}

func (e ReconciliationCompleted) EventName() string { return "crm.reconciliation.completed" }

// ReconciliationFailed is published when an audit pass could not read a ledger.
type ReconciliationFailed struct {
	BaseEvent
	RunID   string `json:"runId"`
	Trigger string `json:"trigger"`
	Source  string `json:"source"`
	Error   string `json:"error"`
}

func (e ReconciliationFailed) EventName() string { return "crm.reconciliation.failed" }
