package domain

import (
	"testing"

	"crm_sync_backend/platform/phone"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFindAppointment_LinkBeatsPhone(t *testing.T) {
	customer := CustomerRecord{
		ID:    "c-1",
		Phone: "+52 55 1234 5678",
		Cases: []CaseRecord{{ID: "case-1"}},
	}
	appointments := []AppointmentRecord{
		{ID: "by-phone", CustomerPhoneOnFile: "5512345678"},
		{ID: "by-link", StructuredLink: `{"caso_id":"case-1"}`, CustomerPhoneOnFile: "0000000000"},
	}

	got, method := FindAppointment(customer, appointments, DefaultRules())

	require.NotNil(t, got)
	assert.Equal(t, "by-link", got.ID)
	assert.Equal(t, MatchLink, method)
}

func TestFindAppointment_PhoneFallback(t *testing.T) {
	customer := CustomerRecord{ID: "c-1", Phone: "(55) 1234-5678"}
	appointments := []AppointmentRecord{
		{ID: "other", CustomerPhoneOnFile: "5599999999"},
		{ID: "first", CustomerPhoneOnFile: "+52 1 55 1234 5678"},
		{ID: "second", CustomerPhoneOnFile: "55 1234 5678"},
	}

	got, method := FindAppointment(customer, appointments, DefaultRules())

	require.NotNil(t, got)
	assert.Equal(t, "first", got.ID, "list order breaks ties")
	assert.Equal(t, MatchPhone, method)
}

func TestFindAppointment_ShortPhonesNeverMatch(t *testing.T) {
	tests := []struct {
		name     string
		customer string
		onFile   string
	}{
		{name: "both empty", customer: "", onFile: ""},
		{name: "both short and equal", customer: "12345", onFile: "12345"},
		{name: "letters only", customer: "n/a", onFile: "n/a"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			customer := CustomerRecord{ID: "c-1", Phone: tt.customer}
			appointments := []AppointmentRecord{{ID: "a-1", CustomerPhoneOnFile: tt.onFile}}

			got, method := FindAppointment(customer, appointments, DefaultRules())

			assert.Nil(t, got)
			assert.Equal(t, MatchNone, method)
		})
	}
}

func TestFindAppointment_MalformedLinkFallsThroughToPhone(t *testing.T) {
	customer := CustomerRecord{
		ID:    "c-1",
		Phone: "5512345678",
		Cases: []CaseRecord{{ID: "case-1"}},
	}
	appointments := []AppointmentRecord{
		{ID: "a-1", StructuredLink: `{"caso_id": "case-1"`, CustomerPhoneOnFile: "5512345678"},
	}

	got, method := FindAppointment(customer, appointments, DefaultRules())

	require.NotNil(t, got)
	assert.Equal(t, "a-1", got.ID)
	assert.Equal(t, MatchPhone, method)
}

func TestFindAppointment_NoAppointments(t *testing.T) {
	got, method := FindAppointment(CustomerRecord{ID: "c-1", Phone: "5512345678"}, nil, DefaultRules())
	assert.Nil(t, got)
	assert.Equal(t, MatchNone, method)
}

func TestFindAppointment_LatestBookingWins(t *testing.T) {
	// The scheduling ledger lists the agenda newest first.
	customer := CustomerRecord{ID: "c-1", Phone: "5512345678", Cases: []CaseRecord{{ID: "case-1"}}}
	appointments := []AppointmentRecord{
		{ID: "rebooked", StartTime: at(t, "2026-03-12 09:00"), StructuredLink: `{"caso_id":"case-1"}`},
		{ID: "stale", StartTime: at(t, "2026-01-05 09:00"), StructuredLink: `{"caso_id":"case-1"}`},
	}

	got, method := FindAppointment(customer, appointments, DefaultRules())

	require.NotNil(t, got)
	assert.Equal(t, "rebooked", got.ID)
	assert.Equal(t, MatchLink, method)
}

func TestAgenda_EarliestLinkAcrossCases(t *testing.T) {
	customer := CustomerRecord{ID: "c-1", Cases: []CaseRecord{{ID: "case-2"}, {ID: " case-1 "}}}
	appointments := []AppointmentRecord{
		{ID: "other", StructuredLink: `{"caso_id":"case-9"}`},
		{ID: "for-case-1", StructuredLink: `{"caso_id":"case-1"}`},
		{ID: "for-case-2", StructuredLink: `{"caso_id":"case-2"}`},
	}
	rules := DefaultRules()

	got, method := NewAgenda(appointments, rules).Find(customer, rules)

	require.NotNil(t, got)
	assert.Equal(t, "for-case-1", got.ID)
	assert.Equal(t, MatchLink, method)
}

func TestAgenda_AgreesWithLinkResolver(t *testing.T) {
	rules := DefaultRules()
	rules.LinkByCustomerID = true

	appointments := []AppointmentRecord{
		{ID: "a-0", StructuredLink: `not json`, CustomerPhoneOnFile: "5511111111"},
		{ID: "a-1", StructuredLink: `{"caso_id":17}`},
		{ID: "a-2", StructuredLink: `{"cliente_id":"c-3"}`, CustomerPhoneOnFile: "5522222222"},
		{ID: "a-3", StructuredLink: `{"caso_id":"case-4","cliente_id":"c-9"}`},
		{ID: "a-4", CustomerPhoneOnFile: "+52 1 55 3333 3333"},
	}
	customers := []CustomerRecord{
		{ID: "c-1", Phone: "5511111111"},
		{ID: "c-2", Cases: []CaseRecord{{ID: "17"}}},
		{ID: "c-3", Phone: "5533333333"},
		{ID: "c-4", Cases: []CaseRecord{{ID: "case-4"}}},
		{ID: "c-9"},
		{ID: "c-5", Phone: "5533333333"},
		{ID: "c-6", Phone: "123"},
	}

	agenda := NewAgenda(appointments, rules)
	for _, customer := range customers {
		t.Run(customer.ID, func(t *testing.T) {
			var want *AppointmentRecord
			wantMethod := MatchNone
			for i := range appointments {
				if ResolveByLink(customer, appointments[i], rules) {
					want, wantMethod = &appointments[i], MatchLink
					break
				}
			}
			if want == nil {
				key := rules.Phone.Last10(customer.Phone)
				for i := range appointments {
					if phone.Comparable(key) && rules.Phone.Last10(appointments[i].CustomerPhoneOnFile) == key {
						want, wantMethod = &appointments[i], MatchPhone
						break
					}
				}
			}

			got, method := agenda.Find(customer, rules)

			assert.Equal(t, wantMethod, method)
			if want == nil {
				assert.Nil(t, got)
				return
			}
			require.NotNil(t, got)
			assert.Equal(t, want.ID, got.ID)
		})
	}
}
