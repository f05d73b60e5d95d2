package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResolveByLink(t *testing.T) {
	rules := DefaultRules()
	customer := CustomerRecord{
		ID:    "c-1",
		Cases: []CaseRecord{{ID: "case-9"}, {ID: "42"}},
	}

	tests := []struct {
		name string
		link string
		want bool
	}{
		{name: "string case id", link: `{"caso_id":"case-9"}`, want: true},
		{name: "numeric case id", link: `{"caso_id":42}`, want: true},
		{name: "padded case id", link: `{"caso_id":" case-9 "}`, want: true},
		{name: "other case", link: `{"caso_id":"case-1"}`, want: false},
		{name: "empty payload", link: "", want: false},
		{name: "truncated payload", link: `{"caso_id":"case-9`, want: false},
		{name: "array payload", link: `["case-9"]`, want: false},
		{name: "null payload", link: `null`, want: false},
		{name: "missing field", link: `{"folio":"case-9"}`, want: false},
		{name: "blank field", link: `{"caso_id":""}`, want: false},
		{name: "object field", link: `{"caso_id":{"id":"case-9"}}`, want: false},
		{name: "customer id without opt-in", link: `{"cliente_id":"c-1"}`, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			appt := AppointmentRecord{ID: "a-1", StructuredLink: tt.link}
			assert.Equal(t, tt.want, ResolveByLink(customer, appt, rules))
		})
	}
}

func TestResolveByLink_CustomerIDOptIn(t *testing.T) {
	rules := DefaultRules()
	rules.LinkByCustomerID = true
	customer := CustomerRecord{ID: "c-1"}

	assert.True(t, ResolveByLink(customer, AppointmentRecord{StructuredLink: `{"cliente_id":"c-1"}`}, rules))
	assert.False(t, ResolveByLink(customer, AppointmentRecord{StructuredLink: `{"cliente_id":"c-2"}`}, rules))
}

func TestResolveByLink_CustomerWithoutCases(t *testing.T) {
	appt := AppointmentRecord{StructuredLink: `{"caso_id":"case-9"}`}
	assert.False(t, ResolveByLink(CustomerRecord{ID: "c-1"}, appt, DefaultRules()))
}
