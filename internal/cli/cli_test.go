package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
	_ "time/tzdata"

	"crm_sync_backend/internal/crm/transport"
	"crm_sync_backend/internal/scheduler"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeDashboarder struct {
	resp transport.DashboardResponse
	err  error
	got  transport.DashboardRequest
}

func (f *fakeDashboarder) Dashboard(ctx context.Context, req transport.DashboardRequest) (transport.DashboardResponse, error) {
	f.got = req
	return f.resp, f.err
}

type fakeEnqueuer struct {
	payload scheduler.AuditPayload
}

func (f *fakeEnqueuer) EnqueueAudit(ctx context.Context, payload scheduler.AuditPayload) (string, error) {
	f.payload = payload
	return "task-1", nil
}

func sampleResponse() transport.DashboardResponse {
	at := time.Date(2026, 3, 11, 16, 0, 0, 0, time.UTC)
	return transport.DashboardResponse{
		Success: true,
		Count:   1,
		Summary: transport.SummaryResponse{
			Total:    2,
			ByStatus: map[string]int{"OK": 1, "GHOST": 1, "MANUAL": 0, "NONE": 0},
		},
		Data: []transport.UnifiedClientResponse{{
			ID:                     "c-1",
			Name:                   "Ana",
			BusinessIntent:         "APPOINTMENT",
			IntegrityStatus:        "GHOST",
			ResolvedTechnicianName: "unassigned",
			PredictedNextAction:    &transport.PredictedActionResponse{Message: "Tomorrow: appointment reminder", ScheduledAt: at},
		}},
	}
}

func execute(t *testing.T, deps Deps, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCommand(deps)
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func dashboardDeps(f *fakeDashboarder) Deps {
	return Deps{Dashboarder: func(ctx context.Context) (Dashboarder, func(), error) {
		return f, func() {}, nil
	}}
}

func TestRun_Table(t *testing.T) {
	fake := &fakeDashboarder{resp: sampleResponse()}

	out, err := execute(t, dashboardDeps(fake), "run", "--status", "ghost", "--lookback", "30")
	require.NoError(t, err)

	assert.Equal(t, "GHOST", fake.got.Status)
	assert.Equal(t, 30, fake.got.LookbackDays)
	assert.Contains(t, out, "Tomorrow: appointment reminder")
	assert.Contains(t, out, "2026-03-11 16:00")
	assert.Contains(t, out, "2 customers: 1 OK, 1 GHOST, 0 MANUAL, 0 NONE, 0 anomalies")
}

func TestRun_JSON(t *testing.T) {
	fake := &fakeDashboarder{resp: sampleResponse()}

	out, err := execute(t, dashboardDeps(fake), "run", "--format", "json")
	require.NoError(t, err)

	var decoded transport.DashboardResponse
	require.NoError(t, json.Unmarshal([]byte(out), &decoded))
	assert.Equal(t, 1, decoded.Count)
}

func TestRun_Errors(t *testing.T) {
	t.Run("invalid format", func(t *testing.T) {
		_, err := execute(t, dashboardDeps(&fakeDashboarder{}), "run", "--format", "xml")
		assert.Error(t, err)
	})

	t.Run("invalid status", func(t *testing.T) {
		_, err := execute(t, dashboardDeps(&fakeDashboarder{}), "run", "--status", "LOST")
		assert.Error(t, err)
	})

	t.Run("pass failure", func(t *testing.T) {
		_, err := execute(t, dashboardDeps(&fakeDashboarder{err: errors.New("scheduling ledger unavailable")}), "run")
		assert.ErrorContains(t, err, "scheduling ledger unavailable")
	})

	t.Run("fail on ghost", func(t *testing.T) {
		_, err := execute(t, dashboardDeps(&fakeDashboarder{resp: sampleResponse()}), "run", "--fail-on-ghost")
		assert.ErrorContains(t, err, "1 ghost appointment(s) found")
	})
}

func TestEnqueue(t *testing.T) {
	fake := &fakeEnqueuer{}
	deps := Deps{Enqueuer: func(ctx context.Context) (Enqueuer, func(), error) {
		return fake, func() {}, nil
	}}

	out, err := execute(t, deps, "enqueue")
	require.NoError(t, err)
	assert.Contains(t, out, "audit task task-1 enqueued")
	assert.Equal(t, "cli", fake.payload.Trigger)
	assert.False(t, fake.payload.RequestedAt.IsZero())
}

func TestRules(t *testing.T) {
	dir := t.TempDir()
	good := filepath.Join(dir, "rules.yaml")
	require.NoError(t, os.WriteFile(good, []byte("timezone: America/Bogota\nlinkByCustomerId: true\n"), 0o600))
	bad := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("dispatchInterval: soon\n"), 0o600))

	out, err := execute(t, Deps{}, "rules", good)
	require.NoError(t, err)
	assert.Contains(t, out, "timezone=America/Bogota")
	assert.Contains(t, out, "byCustomer=true")

	_, err = execute(t, Deps{}, "rules", bad)
	assert.Error(t, err)
}
