package domain

import (
	"sort"
	"time"
)

// Summary counts a pass by integrity status, predicted action and match method.
type Summary struct {
	Total     int
	ByStatus  map[IntegrityStatus]int
	ByAction  map[ActionKind]int
	ByMethod  map[MatchMethod]int
	Anomalies int
}

func newSummary() Summary {
	s := Summary{
		ByStatus: make(map[IntegrityStatus]int, len(IntegrityStatuses)),
		ByAction: make(map[ActionKind]int, len(ActionKinds)),
		ByMethod: make(map[MatchMethod]int, 3),
	}
	for _, status := range IntegrityStatuses {
		s.ByStatus[status] = 0
	}
	for _, kind := range ActionKinds {
		s.ByAction[kind] = 0
	}
	return s
}

func (s *Summary) add(record UnifiedClientRecord) {
	s.Total++
	s.ByStatus[record.IntegrityStatus]++
	if record.PredictedNextAction != nil {
		s.ByAction[record.PredictedNextAction.Kind]++
	}
	method := MatchNone
	if record.MatchedAppointment != nil {
		method = record.MatchedAppointment.Method
	}
	s.ByMethod[method]++
}

// Result is the output of one reconciliation pass.
type Result struct {
	Records   []UnifiedClientRecord
	Anomalies []Anomaly
	Summary   Summary
}

// Reconcile runs the match, classify, predict and aggregate pipeline for
// every customer. Records come back in input order, one per customer.
func Reconcile(customers []CustomerRecord, appointments []AppointmentRecord, now time.Time, rules Rules) Result {
	result := Result{
		Records: make([]UnifiedClientRecord, 0, len(customers)),
		Summary: newSummary(),
	}

	agenda := NewAgenda(appointments, rules)
	for _, customer := range customers {
		record, anomalies := reconcileOne(customer, agenda, now, rules)
		result.Records = append(result.Records, record)
		result.Anomalies = append(result.Anomalies, anomalies...)
		result.Summary.add(record)
	}
	result.Summary.Anomalies = len(result.Anomalies)

	return result
}

// ReconcileOne runs the pipeline for a single customer.
func ReconcileOne(customer CustomerRecord, appointments []AppointmentRecord, now time.Time, rules Rules) (UnifiedClientRecord, []Anomaly) {
	return reconcileOne(customer, NewAgenda(appointments, rules), now, rules)
}

func reconcileOne(customer CustomerRecord, agenda *Agenda, now time.Time, rules Rules) (UnifiedClientRecord, []Anomaly) {
	matched, method := agenda.Find(customer, rules)
	status := Classify(rules.ExpectsAppointment(customer.BusinessIntent), matched != nil)
	prediction := PredictNextAction(customer, now, rules)
	return Aggregate(customer, matched, method, status, prediction), prediction.Anomalies
}

// Filter keeps the records matching status and intent. Empty values match all.
func Filter(records []UnifiedClientRecord, status IntegrityStatus, intent string) []UnifiedClientRecord {
	if status == "" && intent == "" {
		return records
	}
	out := make([]UnifiedClientRecord, 0, len(records))
	for _, r := range records {
		if status != "" && r.IntegrityStatus != status {
			continue
		}
		if intent != "" && normalizeCode(r.BusinessIntent) != normalizeCode(intent) {
			continue
		}
		out = append(out, r)
	}
	return out
}

// CountAnomalies groups anomalies by field and value.
func CountAnomalies(anomalies []Anomaly) map[AnomalyField]map[string]int {
	counts := make(map[AnomalyField]map[string]int)
	for _, a := range anomalies {
		if counts[a.Field] == nil {
			counts[a.Field] = make(map[string]int)
		}
		counts[a.Field][a.Value]++
	}
	return counts
}

// SortedValues returns the keys of counts in ascending order.
func SortedValues(counts map[string]int) []string {
	values := make([]string, 0, len(counts))
	for v := range counts {
		values = append(values, v)
	}
	sort.Strings(values)
	return values
}
