package domain

import (
	"strings"
	"time"
)

// PredictNextAction reproduces the dispatcher's rule order for one customer
// at instant now. Appointment reminders come first, then follow-ups; the
// first rule that fires wins. Calendar days are counted in rules.Location.
func PredictNextAction(customer CustomerRecord, now time.Time, rules Rules) Prediction {
	prediction := Prediction{Anomalies: detectAnomalies(customer, rules)}

	if action := predictReminder(customer, now, rules); action != nil {
		prediction.Action = action
		return prediction
	}
	prediction.Action = predictFollowUp(customer, now, rules)
	return prediction
}

func predictReminder(customer CustomerRecord, now time.Time, rules Rules) *PredictedAction {
	if customer.AppointmentDate == nil {
		return nil
	}
	status := customer.AppointmentStatus
	if rules.TerminalStatuses.has(status) {
		return nil
	}
	if rules.RequireAppointmentIntentForReminders && !rules.ExpectsAppointment(customer.BusinessIntent) {
		return nil
	}

	appt := customer.AppointmentDate.In(rules.location())
	switch days := calendarDaysBetween(now, appt, rules.location()); {
	case days == 1 && rules.PendingStatuses.has(status):
		return &PredictedAction{
			Kind:        ActionDayBeforeReminder,
			Severity:    SeverityWarning,
			Message:     "Tomorrow: appointment reminder",
			ScheduledAt: appt.AddDate(0, 0, -1),
		}
	case days == 0 && (rules.PendingStatuses.has(status) || rules.RemindedStatuses.has(status)):
		return &PredictedAction{
			Kind:        ActionDayOfReminder,
			Severity:    SeverityCritical,
			Message:     "TODAY: visit reminder",
			ScheduledAt: appt,
		}
	}
	return nil
}

func predictFollowUp(customer CustomerRecord, now time.Time, rules Rules) *PredictedAction {
	if customer.NextFollowUpDate == nil || !rules.requiresFollowUp(customer.BusinessIntent) {
		return nil
	}

	label := rules.IntentLabel(customer.BusinessIntent)
	due := *customer.NextFollowUpDate
	if !due.After(now) {
		return &PredictedAction{
			Kind:        ActionFollowUpQueued,
			Severity:    SeverityInfo,
			Message:     "In dispatch queue: " + label,
			ScheduledAt: rules.nextDispatch(now),
		}
	}
	return &PredictedAction{
		Kind:        ActionFollowUpScheduled,
		Severity:    SeverityInfo,
		Message:     "Scheduled: " + label,
		ScheduledAt: due,
	}
}

// requiresFollowUp is false for idle intents and for codes the table does
// not know, so an unexpected value never produces an alert.
func (r Rules) requiresFollowUp(intent string) bool {
	if strings.TrimSpace(intent) == "" || r.IdleIntents.has(intent) {
		return false
	}
	return r.KnownIntent(intent)
}

func (r Rules) location() *time.Location {
	if r.Location == nil {
		return time.UTC
	}
	return r.Location
}

// nextDispatch is the first hourly (or configured) dispatcher tick after now.
func (r Rules) nextDispatch(now time.Time) time.Time {
	interval := r.DispatchInterval
	if interval <= 0 {
		interval = time.Hour
	}
	return now.Truncate(interval).Add(interval).In(r.location())
}

// calendarDaysBetween counts whole calendar days from a to b in loc,
// ignoring the time of day.
func calendarDaysBetween(a, b time.Time, loc *time.Location) int {
	ay, am, ad := a.In(loc).Date()
	by, bm, bd := b.In(loc).Date()
	from := time.Date(ay, am, ad, 0, 0, 0, 0, time.UTC)
	to := time.Date(by, bm, bd, 0, 0, 0, 0, time.UTC)
	return int(to.Sub(from).Hours() / 24)
}

func detectAnomalies(customer CustomerRecord, rules Rules) []Anomaly {
	var anomalies []Anomaly
	if intent := strings.TrimSpace(customer.BusinessIntent); intent != "" && !rules.KnownIntent(intent) {
		anomalies = append(anomalies, Anomaly{CustomerID: customer.ID, Field: AnomalyIntent, Value: intent})
	}
	if status := strings.TrimSpace(customer.AppointmentStatus); status != "" && !rules.KnownAppointmentStatus(status) {
		anomalies = append(anomalies, Anomaly{CustomerID: customer.ID, Field: AnomalyAppointmentStatus, Value: status})
	}
	return anomalies
}
