package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"clinica/internal/appointment/models"
	"clinica/pkg/platform/sentinel"
	txcontext "clinica/pkg/platform/tx"
)

// PostgresStore persists appointments in the appointment table. Queries join
// the transaction carried in the context when one is present.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (s *PostgresStore) conn(ctx context.Context) querier {
	if tx, ok := txcontext.From(ctx); ok {
		return tx
	}
	return s.db
}

const columns = `id, patient_id, provider_id, date_hour, status, reason, notes, created_at`

func (s *PostgresStore) Create(ctx context.Context, appointment *models.Appointment) error {
	query := `
		INSERT INTO appointment (patient_id, provider_id, date_hour, status, reason, notes, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id
	`
	err := s.conn(ctx).QueryRowContext(ctx, query,
		appointment.PatientID,
		appointment.ProviderID,
		appointment.DateHour,
		string(appointment.Status),
		appointment.Reason,
		appointment.Notes,
		appointment.CreatedAt,
	).Scan(&appointment.ID)
	if err != nil {
		return fmt.Errorf("insert appointment: %w", err)
	}
	return nil
}

func (s *PostgresStore) Get(ctx context.Context, id int64) (*models.Appointment, error) {
	query := `SELECT ` + columns + ` FROM appointment WHERE id = $1`
	return scanAppointment(s.conn(ctx).QueryRowContext(ctx, query, id))
}

func (s *PostgresStore) List(ctx context.Context) ([]*models.Appointment, error) {
	query := `SELECT ` + columns + ` FROM appointment ORDER BY id`
	rows, err := s.conn(ctx).QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list appointments: %w", err)
	}
	defer rows.Close()

	var out []*models.Appointment
	for rows.Next() {
		var appointment models.Appointment
		if err := rows.Scan(
			&appointment.ID,
			&appointment.PatientID,
			&appointment.ProviderID,
			&appointment.DateHour,
			&appointment.Status,
			&appointment.Reason,
			&appointment.Notes,
			&appointment.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan appointment: %w", err)
		}
		out = append(out, &appointment)
	}
	return out, rows.Err()
}

func (s *PostgresStore) Update(ctx context.Context, appointment *models.Appointment) error {
	query := `
		UPDATE appointment
		SET provider_id = $2, date_hour = $3, status = $4, reason = $5, notes = $6
		WHERE id = $1
	`
	result, err := s.conn(ctx).ExecContext(ctx, query,
		appointment.ID,
		appointment.ProviderID,
		appointment.DateHour,
		string(appointment.Status),
		appointment.Reason,
		appointment.Notes,
	)
	if err != nil {
		return fmt.Errorf("update appointment: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update appointment: %w", err)
	}
	if affected == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *PostgresStore) HasActiveForPatient(ctx context.Context, patientID int64) (bool, error) {
	return s.hasActive(ctx, "patient_id", patientID)
}

func (s *PostgresStore) HasActiveForProvider(ctx context.Context, providerID int64) (bool, error) {
	return s.hasActive(ctx, "provider_id", providerID)
}

func (s *PostgresStore) hasActive(ctx context.Context, column string, id int64) (bool, error) {
	query := fmt.Sprintf(`
		SELECT EXISTS (
			SELECT 1 FROM appointment
			WHERE %s = $1 AND status IN ('scheduled', 'confirmed', 'in_progress')
		)
	`, column)
	var exists bool
	if err := s.conn(ctx).QueryRowContext(ctx, query, id).Scan(&exists); err != nil {
		return false, fmt.Errorf("check active appointments: %w", err)
	}
	return exists, nil
}

func scanAppointment(row *sql.Row) (*models.Appointment, error) {
	var appointment models.Appointment
	err := row.Scan(
		&appointment.ID,
		&appointment.PatientID,
		&appointment.ProviderID,
		&appointment.DateHour,
		&appointment.Status,
		&appointment.Reason,
		&appointment.Notes,
		&appointment.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan appointment: %w", err)
	}
	return &appointment, nil
}
