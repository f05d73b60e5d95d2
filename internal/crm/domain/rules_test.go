package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRules_Overlay(t *testing.T) {
	data := []byte(`
timezone: America/Monterrey
dispatchInterval: 30m
linkByCustomerId: true
appointmentIntents: [APPOINTMENT, QUOTE_FOLLOWUP]
followUpIntents: [NO_REPLY]
intentLabels:
  no_reply: "Rescate"
`)

	rules, err := ParseRules(data, DefaultRules())
	require.NoError(t, err)

	assert.Equal(t, "America/Monterrey", rules.Location.String())
	assert.Equal(t, 30*time.Minute, rules.DispatchInterval)
	assert.True(t, rules.LinkByCustomerID)
	assert.True(t, rules.ExpectsAppointment("quote_followup"))
	assert.False(t, rules.FollowUpIntents.has("FUTURE_CONTACT"))
	assert.True(t, rules.IdleIntents.has("NONE"), "omitted lists keep defaults")
	assert.Equal(t, "Rescate", rules.IntentLabel("NO_REPLY"))
	assert.Equal(t, "Quote follow-up", rules.IntentLabel("QUOTE_FOLLOWUP"))
	assert.Equal(t, "caso_id", rules.LinkCaseField)
}

func TestParseRules_Invalid(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{name: "bad yaml", data: "timezone: [unterminated"},
		{name: "unknown timezone", data: "timezone: Mars/Olympus"},
		{name: "bad interval", data: "dispatchInterval: soon"},
		{name: "zero interval", data: "dispatchInterval: 0s"},
		{name: "appointment intent is idle", data: "appointmentIntents: [NONE]"},
		{name: "pending status is terminal", data: "pendingStatuses: [CANCELADO]"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseRules([]byte(tt.data), DefaultRules())
			assert.Error(t, err)
		})
	}
}

func TestRules_KnownValues(t *testing.T) {
	rules := DefaultRules()

	assert.True(t, rules.KnownIntent(" appointment "))
	assert.False(t, rules.KnownIntent("UPSELL"))
	assert.True(t, rules.KnownAppointmentStatus("confirmado"))
	assert.False(t, rules.KnownAppointmentStatus("RESCHEDULED"))
	assert.Equal(t, "UPSELL", rules.IntentLabel(" UPSELL "))
}
