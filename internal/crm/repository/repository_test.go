package repository

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"crm_sync_backend/internal/crm/domain"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupRedis(t *testing.T) *redis.Client {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func setupMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db, mock
}

func TestSchedulingRepository_ListAppointments(t *testing.T) {
	db, mock := setupMockDB(t)
	since := time.Date(2025, 12, 10, 0, 0, 0, 0, time.UTC)
	start := time.Date(2026, 3, 11, 15, 0, 0, 0, time.UTC)

	rows := sqlmock.NewRows([]string{"id", "start_datetime", "notas_estructuradas", "mobile_number", "first_name"}).
		AddRow(int64(17), start, `{"caso_id":"9"}`, "5512345678", "Luis").
		AddRow(int64(18), start.Add(time.Hour), "", "", "")
	mock.ExpectQuery(`FROM ea_appointments a`).
		WithArgs(since).
		WillReturnRows(rows)

	got, err := NewScheduling(db).ListAppointments(context.Background(), since)

	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, domain.AppointmentRecord{
		ID:                  "17",
		StartTime:           start,
		StructuredLink:      `{"caso_id":"9"}`,
		CustomerPhoneOnFile: "5512345678",
		TechnicianName:      "Luis",
	}, got[0])
	assert.Equal(t, "18", got[1].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSchedulingRepository_NewestFirst(t *testing.T) {
	db, mock := setupMockDB(t)
	since := time.Date(2025, 12, 10, 0, 0, 0, 0, time.UTC)
	stale := time.Date(2026, 1, 5, 9, 0, 0, 0, time.UTC)
	rebooked := time.Date(2026, 3, 12, 9, 0, 0, 0, time.UTC)

	rows := sqlmock.NewRows([]string{"id", "start_datetime", "notas_estructuradas", "mobile_number", "first_name"}).
		AddRow(int64(40), rebooked, `{"caso_id":"9"}`, "5512345678", "Ana").
		AddRow(int64(12), stale, `{"caso_id":"9"}`, "5512345678", "Luis")
	mock.ExpectQuery(`ORDER BY a\.start_datetime DESC, a\.id DESC`).
		WithArgs(since).
		WillReturnRows(rows)

	got, err := NewScheduling(db).ListAppointments(context.Background(), since)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "40", got[0].ID)

	customer := domain.CustomerRecord{ID: "c-1", Cases: []domain.CaseRecord{{ID: "9"}}}
	matched, method := domain.FindAppointment(customer, got, domain.DefaultRules())
	require.NotNil(t, matched)
	assert.Equal(t, "40", matched.ID)
	assert.Equal(t, "Ana", matched.TechnicianName)
	assert.Equal(t, domain.MatchLink, method)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSchedulingRepository_QueryError(t *testing.T) {
	db, mock := setupMockDB(t)
	cause := errors.New("connection refused")
	mock.ExpectQuery(`FROM ea_appointments a`).WillReturnError(cause)

	_, err := NewScheduling(db).ListAppointments(context.Background(), time.Now())

	require.Error(t, err)
	assert.ErrorIs(t, err, cause)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSchedulingRepository_EmptyAgenda(t *testing.T) {
	db, mock := setupMockDB(t)
	mock.ExpectQuery(`FROM ea_appointments a`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "start_datetime", "notas_estructuradas", "mobile_number", "first_name"}))

	got, err := NewScheduling(db).ListAppointments(context.Background(), time.Now())

	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestAnomalyStore_RecordAndCount(t *testing.T) {
	ctx := context.Background()
	store := NewAnomalyStore(setupRedis(t))

	require.NoError(t, store.Record(ctx, []domain.Anomaly{
		{CustomerID: "1", Field: domain.AnomalyIntent, Value: "UPSELL"},
		{CustomerID: "2", Field: domain.AnomalyIntent, Value: "UPSELL"},
		{CustomerID: "2", Field: domain.AnomalyIntent, Value: "CHURN"},
		{CustomerID: "3", Field: domain.AnomalyAppointmentStatus, Value: "RESCHEDULED"},
	}))
	require.NoError(t, store.Record(ctx, nil))

	counts, err := store.Counts(ctx)
	require.NoError(t, err)

	assert.Equal(t, []AnomalyCount{{Value: "UPSELL", Count: 2}, {Value: "CHURN", Count: 1}}, counts[domain.AnomalyIntent])
	assert.Equal(t, []AnomalyCount{{Value: "RESCHEDULED", Count: 1}}, counts[domain.AnomalyAppointmentStatus])

	require.NoError(t, store.Reset(ctx))
	counts, err = store.Counts(ctx)
	require.NoError(t, err)
	assert.Empty(t, counts[domain.AnomalyIntent])
}

func TestDecodeCases(t *testing.T) {
	raw := []byte(`[
		{"id":"12","status":"OPEN","amountCharged":850.5,"createdAt":"2026-03-01T10:00:00+00:00","profiles":[{"name":" Luis "}]},
		{"id":"11","status":"CLOSED","amountCharged":0,"createdAt":null,"profiles":null}
	]`)

	cases, err := decodeCases(raw)

	require.NoError(t, err)
	require.Len(t, cases, 2)
	assert.Equal(t, "12", cases[0].ID)
	assert.Equal(t, "Luis", cases[0].AssignedTechnicianName)
	assert.InDelta(t, 850.5, cases[0].AmountCharged, 0.001)
	require.NotNil(t, cases[0].CreatedAt)
	assert.Equal(t, "", cases[1].AssignedTechnicianName)
	assert.Nil(t, cases[1].CreatedAt)
}

func TestDecodeCases_Empty(t *testing.T) {
	cases, err := decodeCases(nil)
	require.NoError(t, err)
	assert.Empty(t, cases)

	cases, err = decodeCases([]byte(`[]`))
	require.NoError(t, err)
	assert.Empty(t, cases)

	_, err = decodeCases([]byte(`{`))
	assert.Error(t, err)
}
