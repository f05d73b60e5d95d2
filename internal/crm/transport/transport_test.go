package transport

import (
	"encoding/json"
	"testing"
	"time"

	"crm_sync_backend/internal/crm/domain"
	"crm_sync_backend/platform/validator"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTechnicianProfiles_UnmarshalJSON(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{name: "object", body: `{"profiles":{"name":"Luis"}}`, want: "Luis"},
		{name: "one element list", body: `{"profiles":[{"name":"Luis"}]}`, want: "Luis"},
		{name: "longer list keeps first", body: `{"profiles":[{"name":"Ana"},{"name":"Luis"}]}`, want: "Ana"},
		{name: "empty list", body: `{"profiles":[]}`, want: ""},
		{name: "null", body: `{"profiles":null}`, want: ""},
		{name: "missing", body: `{}`, want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var in CaseInput
			require.NoError(t, json.Unmarshal([]byte(tt.body), &in))
			assert.Equal(t, tt.want, in.Profiles.Name())
		})
	}
}

func TestTechnicianProfiles_RejectsScalars(t *testing.T) {
	var in CaseInput
	assert.Error(t, json.Unmarshal([]byte(`{"profiles":"Luis"}`), &in))
}

func TestFlexibleID_UnmarshalJSON(t *testing.T) {
	var in AppointmentInput
	require.NoError(t, json.Unmarshal([]byte(`{"id":1234}`), &in))
	assert.Equal(t, FlexibleID("1234"), in.ID)

	require.NoError(t, json.Unmarshal([]byte(`{"id":" abc "}`), &in))
	assert.Equal(t, FlexibleID("abc"), in.ID)

	assert.Error(t, json.Unmarshal([]byte(`{"id":{"x":1}}`), &in))
}

func TestToCustomerRecords_UsesFirstProfile(t *testing.T) {
	var req ReconcileRequest
	body := `{
		"customers": [{
			"id": "c-1",
			"phone": "5512345678",
			"cases": [
				{"id": 7, "amountCharged": 100, "profiles": [{"name": "Luis"}]},
				{"id": "6", "profiles": {"name": "Ana"}}
			]
		}]
	}`
	require.NoError(t, json.Unmarshal([]byte(body), &req))

	records := ToCustomerRecords(req.Customers)

	require.Len(t, records, 1)
	require.Len(t, records[0].Cases, 2)
	assert.Equal(t, "7", records[0].Cases[0].ID)
	assert.Equal(t, "Luis", records[0].Cases[0].AssignedTechnicianName)
	assert.Equal(t, "Ana", records[0].Cases[1].AssignedTechnicianName)
}

func TestToUnifiedClientResponse(t *testing.T) {
	record := domain.UnifiedClientRecord{
		CustomerID:             "c-1",
		IntegrityStatus:        domain.StatusManual,
		ResolvedTechnicianName: "Luis",
		MatchedAppointment:     &domain.AppointmentSummary{ID: "a-1", Method: domain.MatchPhone},
		Finance:                domain.Finance{PaymentStatus: domain.PaymentUpToDate},
	}

	resp := ToUnifiedClientResponse(record)

	assert.Equal(t, "MANUAL", resp.IntegrityStatus)
	require.NotNil(t, resp.MatchedAppointment)
	assert.Equal(t, "phone", resp.MatchedAppointment.Method)
	assert.Nil(t, resp.PredictedNextAction)

	raw, err := json.Marshal(resp)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"predictedNextAction":null`)
}

func TestToUnifiedClientResponse_SanitizesFreeText(t *testing.T) {
	resp := ToUnifiedClientResponse(domain.UnifiedClientRecord{
		Name:      "<b>Ana</b>\n López",
		AISummary: "Cliente   pide\n\ncotización",
	})

	assert.Equal(t, "Ana López", resp.Name)
	assert.Equal(t, "Cliente pide cotización", resp.AISummary)
}

func TestDashboardRequest_Validation(t *testing.T) {
	val := validator.New()
	require.NoError(t, RegisterValidations(val))

	tests := []struct {
		name    string
		req     DashboardRequest
		wantErr bool
	}{
		{name: "empty", req: DashboardRequest{}},
		{name: "full", req: DashboardRequest{LookbackDays: 30, Limit: 100, Status: "GHOST", Intent: "QUOTE_FOLLOWUP"}},
		{name: "lookback too long", req: DashboardRequest{LookbackDays: 400}, wantErr: true},
		{name: "limit too high", req: DashboardRequest{Limit: 5000}, wantErr: true},
		{name: "unknown status", req: DashboardRequest{Status: "LOST"}, wantErr: true},
		{name: "intent with spaces", req: DashboardRequest{Intent: "DROP TABLE"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := val.Struct(tt.req)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestReconcileRequest_Validation(t *testing.T) {
	val := validator.New()
	require.NoError(t, RegisterValidations(val))
	start := time.Date(2026, 3, 12, 16, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		req     ReconcileRequest
		wantErr bool
	}{
		{name: "empty lists", req: ReconcileRequest{Customers: []CustomerInput{}, Appointments: []AppointmentInput{}}},
		{name: "booking", req: ReconcileRequest{Customers: []CustomerInput{}, Appointments: []AppointmentInput{{ID: "1", StartTime: start}}}},
		{name: "no appointments", req: ReconcileRequest{Customers: []CustomerInput{}}, wantErr: true},
		{name: "no customers", req: ReconcileRequest{Appointments: []AppointmentInput{}}, wantErr: true},
		{name: "zero start time", req: ReconcileRequest{Customers: []CustomerInput{}, Appointments: []AppointmentInput{{ID: "1"}}}, wantErr: true},
		{name: "too many customers", req: ReconcileRequest{Customers: make([]CustomerInput, 501), Appointments: []AppointmentInput{}}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := val.Struct(tt.req)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
		})
	}
}
