package transport

import (
	"time"

	"crm_sync_backend/internal/crm/domain"
	"crm_sync_backend/platform/sanitize"
)

// maxSummaryRunes caps the AI summary shown per customer.
const maxSummaryRunes = 500

// ToCustomerRecords converts caller input into engine records.
func ToCustomerRecords(in []CustomerInput) []domain.CustomerRecord {
	out := make([]domain.CustomerRecord, 0, len(in))
	for _, c := range in {
		cases := make([]domain.CaseRecord, 0, len(c.Cases))
		for _, cs := range c.Cases {
			cases = append(cases, domain.CaseRecord{
				ID:                     cs.ID.String(),
				Status:                 cs.Status,
				AmountCharged:          cs.AmountCharged,
				CreatedAt:              cs.CreatedAt,
				AssignedTechnicianName: cs.Profiles.Name(),
			})
		}
		out = append(out, domain.CustomerRecord{
			ID:                c.ID,
			Name:              c.Name,
			Phone:             c.Phone,
			BusinessIntent:    c.BusinessIntent,
			CRMStatus:         c.CRMStatus,
			Cases:             cases,
			AppointmentDate:   c.AppointmentDate,
			AppointmentStatus: c.AppointmentStatus,
			NextFollowUpDate:  c.NextFollowUpDate,
			PendingBalance:    c.PendingBalance,
			LastInteraction:   c.LastInteraction,
			AISummary:         c.AISummary,
		})
	}
	return out
}

// ToAppointmentRecords converts caller input into engine records.
func ToAppointmentRecords(in []AppointmentInput) []domain.AppointmentRecord {
	out := make([]domain.AppointmentRecord, 0, len(in))
	for _, a := range in {
		out = append(out, domain.AppointmentRecord{
			ID:                  a.ID.String(),
			StartTime:           a.StartTime,
			StructuredLink:      a.StructuredLink,
			CustomerPhoneOnFile: a.CustomerPhoneOnFile,
			TechnicianName:      a.TechnicianName,
		})
	}
	return out
}

// ToUnifiedClientResponse converts one engine record for the wire.
func ToUnifiedClientResponse(r domain.UnifiedClientRecord) UnifiedClientResponse {
	resp := UnifiedClientResponse{
		ID:                     r.CustomerID,
		Name:                   sanitize.Text(r.Name),
		Phone:                  r.Phone,
		BusinessIntent:         r.BusinessIntent,
		CRMStatus:              r.CRMStatus,
		AISummary:              sanitize.Summary(r.AISummary, maxSummaryRunes),
		LastInteraction:        r.LastInteraction,
		IntegrityStatus:        string(r.IntegrityStatus),
		ResolvedTechnicianName: sanitize.Text(r.ResolvedTechnicianName),
		Finance: FinanceResponse{
			TotalCharged:   r.Finance.TotalCharged,
			PendingBalance: r.Finance.PendingBalance,
			TotalQuoted:    r.Finance.TotalQuoted,
			PaymentStatus:  string(r.Finance.PaymentStatus),
		},
	}
	if m := r.MatchedAppointment; m != nil {
		resp.MatchedAppointment = &AppointmentSummaryResponse{
			ID:             m.ID,
			StartTime:      m.StartTime,
			TechnicianName: m.TechnicianName,
			Method:         string(m.Method),
		}
	}
	if a := r.PredictedNextAction; a != nil {
		resp.PredictedNextAction = &PredictedActionResponse{
			Kind:        string(a.Kind),
			Severity:    string(a.Severity),
			Message:     a.Message,
			ScheduledAt: a.ScheduledAt,
		}
	}
	return resp
}

// ToSummaryResponse converts pass counters for the wire.
func ToSummaryResponse(s domain.Summary) SummaryResponse {
	resp := SummaryResponse{
		Total:     s.Total,
		ByStatus:  make(map[string]int, len(s.ByStatus)),
		ByAction:  make(map[string]int, len(s.ByAction)),
		ByMethod:  make(map[string]int, len(s.ByMethod)),
		Anomalies: s.Anomalies,
	}
	for k, v := range s.ByStatus {
		resp.ByStatus[string(k)] = v
	}
	for k, v := range s.ByAction {
		resp.ByAction[string(k)] = v
	}
	for k, v := range s.ByMethod {
		resp.ByMethod[string(k)] = v
	}
	return resp
}

// ToDashboardResponse builds the response body for a (possibly filtered) pass.
func ToDashboardResponse(records []domain.UnifiedClientRecord, summary domain.Summary, generatedAt time.Time) DashboardResponse {
	data := make([]UnifiedClientResponse, 0, len(records))
	for _, r := range records {
		data = append(data, ToUnifiedClientResponse(r))
	}
	return DashboardResponse{
		Success:     true,
		Count:       len(data),
		GeneratedAt: generatedAt,
		Summary:     ToSummaryResponse(summary),
		Data:        data,
	}
}
