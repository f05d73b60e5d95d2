package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"time"

	"crm_sync_backend/internal/crm/domain"
)

// SchedulingRepository reads bookings from the agenda database
// (Easy!Appointments schema on MariaDB).
type SchedulingRepository struct {
	db *sql.DB
}

// NewScheduling creates a new scheduling ledger repository.
func NewScheduling(db *sql.DB) *SchedulingRepository {
	return &SchedulingRepository{db: db}
}

const listAppointmentsQuery = `SELECT a.id, a.start_datetime, COALESCE(a.notas_estructuradas, ''),
	COALESCE(c.mobile_number, ''), COALESCE(p.first_name, '')
	FROM ea_appointments a
	LEFT JOIN ea_users c ON a.id_users_customer = c.id
	LEFT JOIN ea_users p ON a.id_users_provider = p.id
	WHERE a.start_datetime >= ?
	ORDER BY a.start_datetime DESC, a.id DESC`

// ListAppointments returns bookings starting at or after since, newest
// first. The matcher keeps the first hit, so a rebooked visit wins over the
// stale one it replaced.
func (r *SchedulingRepository) ListAppointments(ctx context.Context, since time.Time) ([]domain.AppointmentRecord, error) {
	rows, err := r.db.QueryContext(ctx, listAppointmentsQuery, since)
	if err != nil {
		return nil, fmt.Errorf("failed to list appointments: %w", err)
	}
	defer rows.Close()

	var appointments []domain.AppointmentRecord
	for rows.Next() {
		var (
			id   int64
			appt domain.AppointmentRecord
		)
		if err := rows.Scan(&id, &appt.StartTime, &appt.StructuredLink, &appt.CustomerPhoneOnFile, &appt.TechnicianName); err != nil {
			return nil, fmt.Errorf("failed to scan appointment: %w", err)
		}
		appt.ID = strconv.FormatInt(id, 10)
		appointments = append(appointments, appt)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate appointments: %w", err)
	}

	return appointments, nil
}
