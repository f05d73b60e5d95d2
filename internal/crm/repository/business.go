package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"crm_sync_backend/internal/crm/domain"
	"crm_sync_backend/internal/crm/transport"
	"crm_sync_backend/platform/apperr"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const customerNotFoundMsg = "customer not found"

// customerColumns selects a customer with its cases folded into one JSON
// array, most recent case first. The technician relation is kept as the
// list the join yields; decoding collapses it to its first entry.
const customerColumns = `
	c.id::text,
	COALESCE(c.nombre_completo, ''),
	COALESCE(c.telefono, ''),
	COALESCE(c.crm_intent, ''),
	COALESCE(c.crm_status, ''),
	COALESCE(c.saldo_pendiente, 0)::float8,
	c.last_interaction,
	COALESCE(c.ai_summary, ''),
	c.appointment_date,
	COALESCE(c.appointment_status, ''),
	c.next_follow_up_date,
	COALESCE((
		SELECT json_agg(json_build_object(
			'id', k.id::text,
			'status', COALESCE(k.status, ''),
			'amountCharged', COALESCE(k.monto_cobrado, 0),
			'createdAt', k.created_at,
			'profiles', (
				SELECT json_agg(json_build_object('name', p.nombre))
				FROM profiles p
				WHERE p.id = k.tecnico_id
			)
		) ORDER BY k.created_at DESC NULLS LAST)
		FROM casos k
		WHERE k.cliente_id = c.id
	), '[]'::json)`

// BusinessRepository reads customers and cases from the CRM database.
type BusinessRepository struct {
	pool *pgxpool.Pool
}

// NewBusiness creates a new business ledger repository.
func NewBusiness(pool *pgxpool.Pool) *BusinessRepository {
	return &BusinessRepository{pool: pool}
}

// ListCustomers returns active customers, most recently contacted first.
func (r *BusinessRepository) ListCustomers(ctx context.Context, limit int) ([]domain.CustomerRecord, error) {
	query := `SELECT ` + customerColumns + `
		FROM clientes c
		WHERE c.crm_status IS NULL OR c.crm_status NOT IN ('CLOSED', 'BLOCKED')
		ORDER BY c.last_interaction DESC NULLS LAST
		LIMIT $1`

	rows, err := r.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list customers: %w", err)
	}
	defer rows.Close()

	customers := make([]domain.CustomerRecord, 0, limit)
	for rows.Next() {
		customer, err := scanCustomer(rows)
		if err != nil {
			return nil, err
		}
		customers = append(customers, customer)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate customers: %w", err)
	}

	return customers, nil
}

// GetCustomer returns one customer regardless of CRM status.
func (r *BusinessRepository) GetCustomer(ctx context.Context, id string) (domain.CustomerRecord, error) {
	query := `SELECT ` + customerColumns + `
		FROM clientes c
		WHERE c.id::text = $1`

	customer, err := scanCustomer(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.CustomerRecord{}, apperr.NotFound(customerNotFoundMsg)
		}
		return domain.CustomerRecord{}, err
	}
	return customer, nil
}

func scanCustomer(row pgx.Row) (domain.CustomerRecord, error) {
	var (
		c        domain.CustomerRecord
		casesRaw []byte
	)
	err := row.Scan(
		&c.ID, &c.Name, &c.Phone, &c.BusinessIntent, &c.CRMStatus,
		&c.PendingBalance, &c.LastInteraction, &c.AISummary,
		&c.AppointmentDate, &c.AppointmentStatus, &c.NextFollowUpDate,
		&casesRaw,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return c, err
		}
		return c, fmt.Errorf("failed to scan customer: %w", err)
	}

	cases, err := decodeCases(casesRaw)
	if err != nil {
		return c, fmt.Errorf("customer %s: %w", c.ID, err)
	}
	c.Cases = cases
	return c, nil
}

// decodeCases reads the JSON case list of one customer.
func decodeCases(raw []byte) ([]domain.CaseRecord, error) {
	if len(raw) == 0 {
		return nil, nil
	}

	var rows []struct {
		ID            transport.FlexibleID         `json:"id"`
		Status        string                       `json:"status"`
		AmountCharged float64                      `json:"amountCharged"`
		CreatedAt     *time.Time                   `json:"createdAt"`
		Profiles      transport.TechnicianProfiles `json:"profiles"`
	}
	if err := json.Unmarshal(raw, &rows); err != nil {
		return nil, fmt.Errorf("failed to decode cases: %w", err)
	}

	cases := make([]domain.CaseRecord, 0, len(rows))
	for _, row := range rows {
		cases = append(cases, domain.CaseRecord{
			ID:                     row.ID.String(),
			Status:                 row.Status,
			AmountCharged:          row.AmountCharged,
			CreatedAt:              row.CreatedAt,
			AssignedTechnicianName: row.Profiles.Name(),
		})
	}
	return cases, nil
}
