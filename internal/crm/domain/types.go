// Package domain holds the reconciliation engine that unifies the CRM
// (business ledger) and the agenda (scheduling ledger) into one view per
// customer. Everything here is pure: no I/O, no clock reads.
package domain

import "time"

// CustomerRecord is a customer as the business ledger knows it.
// Cases are ordered most recent first.
type CustomerRecord struct {
	ID                string
	Name              string
	Phone             string
	BusinessIntent    string
	CRMStatus         string
	Cases             []CaseRecord
	AppointmentDate   *time.Time
	AppointmentStatus string
	NextFollowUpDate  *time.Time
	PendingBalance    float64
	LastInteraction   *time.Time
	AISummary         string
}

// CaseRecord is one service case attached to a customer.
type CaseRecord struct {
	ID                     string
	Status                 string
	AmountCharged          float64
	CreatedAt              *time.Time
	AssignedTechnicianName string
}

// AppointmentRecord is a booking in the scheduling ledger.
type AppointmentRecord struct {
	ID                  string
	StartTime           time.Time
	StructuredLink      string
	CustomerPhoneOnFile string
	TechnicianName      string
}

// IntegrityStatus is the outcome of comparing expected and actual appointments.
type IntegrityStatus string

const (
	// StatusOK means the CRM expects a visit and the agenda has one.
	StatusOK IntegrityStatus = "OK"
	// StatusGhost means the CRM expects a visit the agenda does not have.
	StatusGhost IntegrityStatus = "GHOST"
	// StatusManual means the agenda has a visit the CRM never asked for.
	StatusManual IntegrityStatus = "MANUAL"
	// StatusNone means neither side claims a visit.
	StatusNone IntegrityStatus = "NONE"
)

// IntegrityStatuses lists every status in display order.
var IntegrityStatuses = []IntegrityStatus{StatusGhost, StatusManual, StatusOK, StatusNone}

// ParseIntegrityStatus returns the status named by s.
func ParseIntegrityStatus(s string) (IntegrityStatus, bool) {
	for _, status := range IntegrityStatuses {
		if string(status) == s {
			return status, true
		}
	}
	return "", false
}

// MatchMethod records which strategy linked an appointment to a customer.
type MatchMethod string

const (
	MatchNone  MatchMethod = "none"
	MatchLink  MatchMethod = "link"
	MatchPhone MatchMethod = "phone"
)

// ActionKind is the kind of automated message the dispatcher will send next.
type ActionKind string

const (
	ActionDayBeforeReminder ActionKind = "DAY_BEFORE_REMINDER"
	ActionDayOfReminder     ActionKind = "DAY_OF_REMINDER"
	ActionFollowUpQueued    ActionKind = "FOLLOW_UP_QUEUED"
	ActionFollowUpScheduled ActionKind = "FOLLOW_UP_SCHEDULED"
)

// ActionKinds lists every predicted action kind.
var ActionKinds = []ActionKind{
	ActionDayBeforeReminder,
	ActionDayOfReminder,
	ActionFollowUpQueued,
	ActionFollowUpScheduled,
}

// Severity ranks how urgently an operator should look at a predicted action.
type Severity string

const (
	SeverityInfo     Severity = "info"
	SeverityWarning  Severity = "warning"
	SeverityCritical Severity = "critical"
)

// PredictedAction is what the dispatcher will do next for a customer.
type PredictedAction struct {
	Kind        ActionKind
	Severity    Severity
	Message     string
	ScheduledAt time.Time
}

// AnomalyField names the customer attribute that carried an unknown value.
type AnomalyField string

const (
	AnomalyIntent            AnomalyField = "intent"
	AnomalyAppointmentStatus AnomalyField = "appointment_status"
)

// Anomaly is a value the rule table does not recognise.
type Anomaly struct {
	CustomerID string
	Field      AnomalyField
	Value      string
}

// Prediction is the predictor output: an optional action plus any unknown
// values met while evaluating the rules.
type Prediction struct {
	Action    *PredictedAction
	Anomalies []Anomaly
}

// AppointmentSummary is the matched booking as shown on the dashboard.
type AppointmentSummary struct {
	ID             string
	StartTime      time.Time
	TechnicianName string
	Method         MatchMethod
}

// PaymentStatus summarises whether a customer owes money.
type PaymentStatus string

const (
	PaymentDebt     PaymentStatus = "DEBT"
	PaymentUpToDate PaymentStatus = "UP_TO_DATE"
)

// Finance is the money view of a customer across all cases.
type Finance struct {
	TotalCharged   float64
	PendingBalance float64
	TotalQuoted    float64
	PaymentStatus  PaymentStatus
}

// UnifiedClientRecord is the merged view of one customer. It is built per
// pass and never stored.
type UnifiedClientRecord struct {
	CustomerID             string
	Name                   string
	Phone                  string
	BusinessIntent         string
	CRMStatus              string
	AISummary              string
	LastInteraction        *time.Time
	MatchedAppointment     *AppointmentSummary
	IntegrityStatus        IntegrityStatus
	ResolvedTechnicianName string
	PredictedNextAction    *PredictedAction
	Finance                Finance
}

// UnassignedTechnician is shown when neither ledger names a technician.
const UnassignedTechnician = "unassigned"
