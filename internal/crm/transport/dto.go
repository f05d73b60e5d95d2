package transport

import (
	"time"
)

// DashboardRequest is the query string of GET /api/v1/crm/dashboard.
// Zero values fall back to the configured defaults.
type DashboardRequest struct {
	LookbackDays int    `form:"lookbackDays" validate:"omitempty,min=1,max=365"`
	Limit        int    `form:"limit" validate:"omitempty,min=1,max=1000"`
	Status       string `form:"status" validate:"omitempty,oneof=OK GHOST MANUAL NONE"`
	Intent       string `form:"intent" validate:"omitempty,max=64,ledgercode"`
}

// ReconcileRequest is the body of POST /api/v1/crm/reconcile. Now defaults
// to the server clock. Both lists must be present; an empty list is fine.
type ReconcileRequest struct {
	Now          *time.Time         `json:"now,omitempty"`
	Customers    []CustomerInput    `json:"customers" validate:"required,max=500,dive"`
	Appointments []AppointmentInput `json:"appointments" validate:"required,max=2000,dive"`
}

// CustomerInput is a business ledger customer as supplied by a caller.
type CustomerInput struct {
	ID                string      `json:"id" validate:"required"`
	Name              string      `json:"name"`
	Phone             string      `json:"phone"`
	BusinessIntent    string      `json:"businessIntent" validate:"omitempty,max=64"`
	CRMStatus         string      `json:"crmStatus"`
	Cases             []CaseInput `json:"cases" validate:"dive"`
	AppointmentDate   *time.Time  `json:"appointmentDate,omitempty"`
	AppointmentStatus string      `json:"appointmentStatus"`
	NextFollowUpDate  *time.Time  `json:"nextFollowUpDate,omitempty"`
	PendingBalance    float64     `json:"pendingBalance" validate:"gte=0"`
	LastInteraction   *time.Time  `json:"lastInteraction,omitempty"`
	AISummary         string      `json:"aiSummary"`
}

// CaseInput is one case of a CustomerInput. Profiles may be an object, a
// list or null.
type CaseInput struct {
	ID            FlexibleID         `json:"id" validate:"required"`
	Status        string             `json:"status"`
	AmountCharged float64            `json:"amountCharged" validate:"gte=0"`
	CreatedAt     *time.Time         `json:"createdAt,omitempty"`
	Profiles      TechnicianProfiles `json:"profiles"`
}

// AppointmentInput is a scheduling ledger booking as supplied by a caller.
type AppointmentInput struct {
	ID                  FlexibleID `json:"id" validate:"required"`
	StartTime           time.Time  `json:"startTime" validate:"required"`
	StructuredLink      string     `json:"structuredLink"`
	CustomerPhoneOnFile string     `json:"customerPhone"`
	TechnicianName      string     `json:"technicianName"`
}

// AppointmentSummaryResponse is the matched booking of a customer.
type AppointmentSummaryResponse struct {
	ID             string    `json:"id"`
	StartTime      time.Time `json:"startTime"`
	TechnicianName string    `json:"technicianName,omitempty"`
	Method         string    `json:"method"`
}

// PredictedActionResponse is the next dispatcher action for a customer.
type PredictedActionResponse struct {
	Kind        string    `json:"kind"`
	Severity    string    `json:"severity"`
	Message     string    `json:"message"`
	ScheduledAt time.Time `json:"scheduledAt"`
}

// FinanceResponse is the money view of a customer.
type FinanceResponse struct {
	TotalCharged   float64 `json:"totalCharged"`
	PendingBalance float64 `json:"pendingBalance"`
	TotalQuoted    float64 `json:"totalQuoted"`
	PaymentStatus  string  `json:"paymentStatus"`
}

// UnifiedClientResponse is one customer as seen across both ledgers.
type UnifiedClientResponse struct {
	ID                     string                      `json:"id"`
	Name                   string                      `json:"name"`
	Phone                  string                      `json:"phone"`
	BusinessIntent         string                      `json:"businessIntent"`
	CRMStatus              string                      `json:"crmStatus"`
	AISummary              string                      `json:"aiSummary,omitempty"`
	LastInteraction        *time.Time                  `json:"lastInteraction,omitempty"`
	MatchedAppointment     *AppointmentSummaryResponse `json:"matchedAppointment"`
	IntegrityStatus        string                      `json:"integrityStatus"`
	ResolvedTechnicianName string                      `json:"resolvedTechnicianName"`
	PredictedNextAction    *PredictedActionResponse    `json:"predictedNextAction"`
	Finance                FinanceResponse             `json:"finance"`
}

// SummaryResponse counts a pass.
type SummaryResponse struct {
	Total     int            `json:"total"`
	ByStatus  map[string]int `json:"byStatus"`
	ByAction  map[string]int `json:"byAction"`
	ByMethod  map[string]int `json:"byMethod"`
	Anomalies int            `json:"anomalies"`
}

// DashboardResponse is the body of GET /api/v1/crm/dashboard and POST /api/v1/crm/reconcile.
type DashboardResponse struct {
	Success     bool                    `json:"success"`
	Count       int                     `json:"count"`
	GeneratedAt time.Time               `json:"generatedAt"`
	Summary     SummaryResponse         `json:"summary"`
	Data        []UnifiedClientResponse `json:"data"`
}

// AnomalyCount is how often an unknown value was seen.
type AnomalyCount struct {
	Value string `json:"value"`
	Count int64  `json:"count"`
}

// AnomaliesResponse lists unknown values per field.
type AnomaliesResponse struct {
	Fields map[string][]AnomalyCount `json:"fields"`
}
