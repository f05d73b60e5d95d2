package domain

import (
	"fmt"
	"strings"
	"time"

	"crm_sync_backend/platform/phone"

	"gopkg.in/yaml.v3"
)

// codeSet is a case-insensitive set of ledger codes.
type codeSet map[string]struct{}

func newCodeSet(values ...string) codeSet {
	set := make(codeSet, len(values))
	for _, v := range values {
		if key := normalizeCode(v); key != "" {
			set[key] = struct{}{}
		}
	}
	return set
}

func (s codeSet) has(value string) bool {
	_, ok := s[normalizeCode(value)]
	return ok
}

func normalizeCode(value string) string {
	return strings.ToUpper(strings.TrimSpace(value))
}

// Rules is the rule table shared by the matcher, classifier and predictor.
// It mirrors the dispatcher's configuration; callers that need a different
// variant change the table, never the code.
type Rules struct {
	Location         *time.Location
	DispatchInterval time.Duration
	Phone            phone.Normalizer

	LinkCaseField     string
	LinkCustomerField string
	LinkByCustomerID  bool

	AppointmentIntents codeSet
	IdleIntents        codeSet
	FollowUpIntents    codeSet

	PendingStatuses  codeSet
	RemindedStatuses codeSet
	OtherStatuses    codeSet
	TerminalStatuses codeSet

	RequireAppointmentIntentForReminders bool

	IntentLabels map[string]string
}

// DefaultRules returns the rule table of the production dispatcher.
func DefaultRules() Rules {
	loc, err := time.LoadLocation("America/Mexico_City")
	if err != nil {
		loc = time.FixedZone("CST", -6*60*60)
	}
	return Rules{
		Location:          loc,
		DispatchInterval:  time.Hour,
		Phone:             phone.NewNormalizer("MX"),
		LinkCaseField:     "caso_id",
		LinkCustomerField: "cliente_id",

		AppointmentIntents: newCodeSet("APPOINTMENT"),
		IdleIntents:        newCodeSet("NONE", "AWAITING_REPLY", "COMPLETED"),
		FollowUpIntents:    newCodeSet("QUOTE_FOLLOWUP", "NO_REPLY", "SOFT_FOLLOWUP", "FUTURE_CONTACT"),

		PendingStatuses:  newCodeSet("PENDING", "PENDIENTE"),
		RemindedStatuses: newCodeSet("REMINDED_TOMORROW"),
		OtherStatuses:    newCodeSet("REMINDED_TODAY", "CONFIRMED", "CONFIRMADO"),
		TerminalStatuses: newCodeSet("COMPLETED", "COMPLETADO", "CANCELLED", "CANCELADO"),

		IntentLabels: map[string]string{
			"NO_REPLY":       "Recovery (no reply)",
			"QUOTE_FOLLOWUP": "Quote follow-up",
			"FUTURE_CONTACT": "Scheduled future contact",
			"SOFT_FOLLOWUP":  "Soft follow-up",
		},
	}
}

// ExpectsAppointment reports whether intent means the CRM believes a visit exists.
func (r Rules) ExpectsAppointment(intent string) bool {
	return r.AppointmentIntents.has(intent)
}

// KnownIntent reports whether intent appears anywhere in the rule table.
func (r Rules) KnownIntent(intent string) bool {
	return r.AppointmentIntents.has(intent) || r.IdleIntents.has(intent) || r.FollowUpIntents.has(intent)
}

// KnownAppointmentStatus reports whether status appears anywhere in the rule table.
func (r Rules) KnownAppointmentStatus(status string) bool {
	return r.PendingStatuses.has(status) || r.RemindedStatuses.has(status) ||
		r.OtherStatuses.has(status) || r.TerminalStatuses.has(status)
}

// IntentLabel returns the operator-facing label of intent.
func (r Rules) IntentLabel(intent string) string {
	if label, ok := r.IntentLabels[normalizeCode(intent)]; ok && label != "" {
		return label
	}
	return strings.TrimSpace(intent)
}

// RuleFile is the YAML shape of a rule table override. Omitted lists keep
// their defaults.
type RuleFile struct {
	Timezone                             string            `yaml:"timezone"`
	DispatchInterval                     string            `yaml:"dispatchInterval"`
	PhoneRegion                          string            `yaml:"phoneRegion"`
	LinkCaseField                        string            `yaml:"linkCaseField"`
	LinkCustomerField                    string            `yaml:"linkCustomerField"`
	LinkByCustomerID                     *bool             `yaml:"linkByCustomerId"`
	AppointmentIntents                   []string          `yaml:"appointmentIntents"`
	IdleIntents                          []string          `yaml:"idleIntents"`
	FollowUpIntents                      []string          `yaml:"followUpIntents"`
	PendingStatuses                      []string          `yaml:"pendingStatuses"`
	RemindedStatuses                     []string          `yaml:"remindedStatuses"`
	OtherStatuses                        []string          `yaml:"otherStatuses"`
	TerminalStatuses                     []string          `yaml:"terminalStatuses"`
	RequireAppointmentIntentForReminders *bool             `yaml:"requireAppointmentIntentForReminders"`
	IntentLabels                         map[string]string `yaml:"intentLabels"`
}

// ParseRules applies a YAML override on top of base.
func ParseRules(data []byte, base Rules) (Rules, error) {
	var file RuleFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return Rules{}, fmt.Errorf("parse rule file: %w", err)
	}
	return file.Apply(base)
}

// Apply overlays the file on base.
func (f RuleFile) Apply(base Rules) (Rules, error) {
	rules := base

	if tz := strings.TrimSpace(f.Timezone); tz != "" {
		loc, err := time.LoadLocation(tz)
		if err != nil {
			return Rules{}, fmt.Errorf("rule file timezone %q: %w", tz, err)
		}
		rules.Location = loc
	}
	if raw := strings.TrimSpace(f.DispatchInterval); raw != "" {
		d, err := time.ParseDuration(raw)
		if err != nil || d <= 0 {
			return Rules{}, fmt.Errorf("rule file dispatchInterval %q is not a positive duration", raw)
		}
		rules.DispatchInterval = d
	}
	if region := strings.TrimSpace(f.PhoneRegion); region != "" {
		rules.Phone = phone.NewNormalizer(region)
	}
	if f.LinkCaseField != "" {
		rules.LinkCaseField = f.LinkCaseField
	}
	if f.LinkCustomerField != "" {
		rules.LinkCustomerField = f.LinkCustomerField
	}
	if f.LinkByCustomerID != nil {
		rules.LinkByCustomerID = *f.LinkByCustomerID
	}
	if f.RequireAppointmentIntentForReminders != nil {
		rules.RequireAppointmentIntentForReminders = *f.RequireAppointmentIntentForReminders
	}

	overlaySet(&rules.AppointmentIntents, f.AppointmentIntents)
	overlaySet(&rules.IdleIntents, f.IdleIntents)
	overlaySet(&rules.FollowUpIntents, f.FollowUpIntents)
	overlaySet(&rules.PendingStatuses, f.PendingStatuses)
	overlaySet(&rules.RemindedStatuses, f.RemindedStatuses)
	overlaySet(&rules.OtherStatuses, f.OtherStatuses)
	overlaySet(&rules.TerminalStatuses, f.TerminalStatuses)

	if len(f.IntentLabels) > 0 {
		labels := make(map[string]string, len(rules.IntentLabels)+len(f.IntentLabels))
		for k, v := range rules.IntentLabels {
			labels[k] = v
		}
		for k, v := range f.IntentLabels {
			labels[normalizeCode(k)] = v
		}
		rules.IntentLabels = labels
	}

	if len(rules.AppointmentIntents) == 0 {
		return Rules{}, fmt.Errorf("rule file leaves appointmentIntents empty")
	}
	for code := range rules.AppointmentIntents {
		if rules.IdleIntents.has(code) {
			return Rules{}, fmt.Errorf("intent %s cannot be both an appointment intent and idle", code)
		}
	}
	for code := range rules.PendingStatuses {
		if rules.TerminalStatuses.has(code) {
			return Rules{}, fmt.Errorf("status %s cannot be both pending and terminal", code)
		}
	}

	return rules, nil
}

func overlaySet(dst *codeSet, values []string) {
	if values == nil {
		return
	}
	*dst = newCodeSet(values...)
}
