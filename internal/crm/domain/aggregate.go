package domain

import "strings"

// Aggregate merges one customer's match, status and prediction into the
// record shown to operators.
func Aggregate(customer CustomerRecord, matched *AppointmentRecord, method MatchMethod, status IntegrityStatus, prediction Prediction) UnifiedClientRecord {
	record := UnifiedClientRecord{
		CustomerID:             customer.ID,
		Name:                   customer.Name,
		Phone:                  customer.Phone,
		BusinessIntent:         customer.BusinessIntent,
		CRMStatus:              customer.CRMStatus,
		AISummary:              customer.AISummary,
		LastInteraction:        customer.LastInteraction,
		IntegrityStatus:        status,
		ResolvedTechnicianName: resolveTechnician(customer, matched),
		PredictedNextAction:    prediction.Action,
		Finance:                summarizeFinance(customer),
	}

	if matched != nil {
		record.MatchedAppointment = &AppointmentSummary{
			ID:             matched.ID,
			StartTime:      matched.StartTime,
			TechnicianName: strings.TrimSpace(matched.TechnicianName),
			Method:         method,
		}
	}

	return record
}

// resolveTechnician prefers the agenda, which knows who will actually show
// up, then the most recent case, then "unassigned".
func resolveTechnician(customer CustomerRecord, matched *AppointmentRecord) string {
	if matched != nil {
		if name := strings.TrimSpace(matched.TechnicianName); name != "" {
			return name
		}
	}
	if len(customer.Cases) > 0 {
		if name := strings.TrimSpace(customer.Cases[0].AssignedTechnicianName); name != "" {
			return name
		}
	}
	return UnassignedTechnician
}

func summarizeFinance(customer CustomerRecord) Finance {
	var charged float64
	for _, c := range customer.Cases {
		charged += c.AmountCharged
	}
	finance := Finance{
		TotalCharged:   charged,
		PendingBalance: customer.PendingBalance,
		TotalQuoted:    charged + customer.PendingBalance,
		PaymentStatus:  PaymentUpToDate,
	}
	if customer.PendingBalance > 0 {
		finance.PaymentStatus = PaymentDebt
	}
	return finance
}
