package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"clinica/internal/clinic/models"
	"clinica/pkg/platform/sentinel"
	txcontext "clinica/pkg/platform/tx"

	"github.com/jackc/pgx/v5/pgconn"
)

const pgUniqueViolation = "23505"

type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// conn returns the transaction carried in the context when present, so all
// stores touched inside a unit of work share it.
func conn(ctx context.Context, db *sql.DB) querier {
	if tx, ok := txcontext.From(ctx); ok {
		return tx
	}
	return db
}

func translateWriteError(err error, op string) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
		return fmt.Errorf("%s: %w", op, sentinel.ErrConflict)
	}
	return fmt.Errorf("%s: %w", op, err)
}

// PostgresPersonStore persists persons in the person table.
type PostgresPersonStore struct {
	db *sql.DB
}

func NewPostgresPersonStore(db *sql.DB) *PostgresPersonStore {
	return &PostgresPersonStore{db: db}
}

func (s *PostgresPersonStore) Create(ctx context.Context, person *models.Person) error {
	query := `
		INSERT INTO person (name, birth_date, document, gender, phone_number, email, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id
	`
	err := conn(ctx, s.db).QueryRowContext(ctx, query,
		person.Name,
		person.BirthDate,
		person.Document,
		string(person.Gender),
		person.PhoneNumber,
		person.Email,
		person.CreatedAt,
	).Scan(&person.ID)
	if err != nil {
		return translateWriteError(err, "insert person")
	}
	return nil
}

func (s *PostgresPersonStore) Get(ctx context.Context, id int64) (*models.Person, error) {
	query := `
		SELECT id, name, birth_date, document, gender, phone_number, email, created_at, deleted_at
		FROM person
		WHERE id = $1
	`
	return scanPerson(conn(ctx, s.db).QueryRowContext(ctx, query, id))
}

func (s *PostgresPersonStore) GetByDocument(ctx context.Context, document string) (*models.Person, error) {
	// Active row first, newest tombstone otherwise.
	query := `
		SELECT id, name, birth_date, document, gender, phone_number, email, created_at, deleted_at
		FROM person
		WHERE document = $1
		ORDER BY (deleted_at IS NULL) DESC, id DESC
		LIMIT 1
	`
	return scanPerson(conn(ctx, s.db).QueryRowContext(ctx, query, document))
}

func (s *PostgresPersonStore) Update(ctx context.Context, person *models.Person) error {
	query := `
		UPDATE person
		SET name = $2, birth_date = $3, document = $4, gender = $5,
		    phone_number = $6, email = $7, deleted_at = $8
		WHERE id = $1
	`
	result, err := conn(ctx, s.db).ExecContext(ctx, query,
		person.ID,
		person.Name,
		person.BirthDate,
		person.Document,
		string(person.Gender),
		person.PhoneNumber,
		person.Email,
		person.DeletedAt,
	)
	if err != nil {
		return translateWriteError(err, "update person")
	}
	return requireRow(result, "update person")
}

func scanPerson(row *sql.Row) (*models.Person, error) {
	var person models.Person
	err := row.Scan(
		&person.ID,
		&person.Name,
		&person.BirthDate,
		&person.Document,
		&person.Gender,
		&person.PhoneNumber,
		&person.Email,
		&person.CreatedAt,
		&person.DeletedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan person: %w", err)
	}
	return &person, nil
}

func requireRow(result sql.Result, op string) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if affected == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

// PostgresPatientStore persists patient role records in the patient table.
type PostgresPatientStore struct {
	db *sql.DB
}

func NewPostgresPatientStore(db *sql.DB) *PostgresPatientStore {
	return &PostgresPatientStore{db: db}
}

const patientColumns = `id, person_id, medical_record_number, insurance_provider,
	insurance_number, blood_type, organ_donor, emergency_contact,
	emergency_phone, created_at, deleted_at`

func (s *PostgresPatientStore) Create(ctx context.Context, patient *models.Patient) error {
	query := `
		INSERT INTO patient (person_id, medical_record_number, insurance_provider,
			insurance_number, blood_type, organ_donor, emergency_contact,
			emergency_phone, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id
	`
	err := conn(ctx, s.db).QueryRowContext(ctx, query,
		patient.PersonID,
		patient.MedicalRecordNumber,
		string(patient.InsuranceProvider),
		patient.InsuranceNumber,
		patient.BloodType,
		patient.OrganDonor,
		patient.EmergencyContact,
		patient.EmergencyPhone,
		patient.CreatedAt,
	).Scan(&patient.ID)
	if err != nil {
		return translateWriteError(err, "insert patient")
	}
	return nil
}

func (s *PostgresPatientStore) Get(ctx context.Context, id int64) (*models.Patient, error) {
	query := `SELECT ` + patientColumns + ` FROM patient WHERE id = $1`
	return scanPatient(conn(ctx, s.db).QueryRowContext(ctx, query, id))
}

func (s *PostgresPatientStore) GetActive(ctx context.Context, id int64) (*models.Patient, error) {
	query := `SELECT ` + patientColumns + ` FROM patient WHERE id = $1 AND deleted_at IS NULL`
	return scanPatient(conn(ctx, s.db).QueryRowContext(ctx, query, id))
}

func (s *PostgresPatientStore) GetActiveByPerson(ctx context.Context, personID int64) (*models.Patient, error) {
	query := `SELECT ` + patientColumns + ` FROM patient WHERE person_id = $1 AND deleted_at IS NULL`
	return scanPatient(conn(ctx, s.db).QueryRowContext(ctx, query, personID))
}

func (s *PostgresPatientStore) ListActive(ctx context.Context) ([]*models.Patient, error) {
	query := `SELECT ` + patientColumns + ` FROM patient WHERE deleted_at IS NULL ORDER BY id`
	rows, err := conn(ctx, s.db).QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list patients: %w", err)
	}
	defer rows.Close()

	var out []*models.Patient
	for rows.Next() {
		var patient models.Patient
		if err := rows.Scan(
			&patient.ID,
			&patient.PersonID,
			&patient.MedicalRecordNumber,
			&patient.InsuranceProvider,
			&patient.InsuranceNumber,
			&patient.BloodType,
			&patient.OrganDonor,
			&patient.EmergencyContact,
			&patient.EmergencyPhone,
			&patient.CreatedAt,
			&patient.DeletedAt,
		); err != nil {
			return nil, fmt.Errorf("scan patient: %w", err)
		}
		out = append(out, &patient)
	}
	return out, rows.Err()
}

func (s *PostgresPatientStore) Update(ctx context.Context, patient *models.Patient) error {
	query := `
		UPDATE patient
		SET insurance_provider = $2, insurance_number = $3, blood_type = $4,
		    organ_donor = $5, emergency_contact = $6, emergency_phone = $7,
		    deleted_at = $8
		WHERE id = $1
	`
	result, err := conn(ctx, s.db).ExecContext(ctx, query,
		patient.ID,
		string(patient.InsuranceProvider),
		patient.InsuranceNumber,
		patient.BloodType,
		patient.OrganDonor,
		patient.EmergencyContact,
		patient.EmergencyPhone,
		patient.DeletedAt,
	)
	if err != nil {
		return translateWriteError(err, "update patient")
	}
	return requireRow(result, "update patient")
}

func scanPatient(row *sql.Row) (*models.Patient, error) {
	var patient models.Patient
	err := row.Scan(
		&patient.ID,
		&patient.PersonID,
		&patient.MedicalRecordNumber,
		&patient.InsuranceProvider,
		&patient.InsuranceNumber,
		&patient.BloodType,
		&patient.OrganDonor,
		&patient.EmergencyContact,
		&patient.EmergencyPhone,
		&patient.CreatedAt,
		&patient.DeletedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan patient: %w", err)
	}
	return &patient, nil
}

// PostgresProviderStore persists provider role records in the provider table.
type PostgresProviderStore struct {
	db *sql.DB
}

func NewPostgresProviderStore(db *sql.DB) *PostgresProviderStore {
	return &PostgresProviderStore{db: db}
}

const providerColumns = `id, person_id, specialty, work_shift, license_number,
	active, availability_notes, created_at, deleted_at`

func (s *PostgresProviderStore) Create(ctx context.Context, provider *models.Provider) error {
	query := `
		INSERT INTO provider (person_id, specialty, work_shift, license_number,
			active, availability_notes, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id
	`
	err := conn(ctx, s.db).QueryRowContext(ctx, query,
		provider.PersonID,
		string(provider.Specialty),
		string(provider.WorkShift),
		provider.LicenseNumber,
		provider.Active,
		provider.AvailabilityNotes,
		provider.CreatedAt,
	).Scan(&provider.ID)
	if err != nil {
		return translateWriteError(err, "insert provider")
	}
	return nil
}

func (s *PostgresProviderStore) Get(ctx context.Context, id int64) (*models.Provider, error) {
	query := `SELECT ` + providerColumns + ` FROM provider WHERE id = $1`
	return scanProvider(conn(ctx, s.db).QueryRowContext(ctx, query, id))
}

func (s *PostgresProviderStore) GetActive(ctx context.Context, id int64) (*models.Provider, error) {
	query := `SELECT ` + providerColumns + ` FROM provider WHERE id = $1 AND deleted_at IS NULL`
	return scanProvider(conn(ctx, s.db).QueryRowContext(ctx, query, id))
}

func (s *PostgresProviderStore) GetActiveByPerson(ctx context.Context, personID int64) (*models.Provider, error) {
	query := `SELECT ` + providerColumns + ` FROM provider WHERE person_id = $1 AND deleted_at IS NULL`
	return scanProvider(conn(ctx, s.db).QueryRowContext(ctx, query, personID))
}

func (s *PostgresProviderStore) ListActive(ctx context.Context) ([]*models.Provider, error) {
	query := `SELECT ` + providerColumns + ` FROM provider WHERE deleted_at IS NULL ORDER BY id`
	rows, err := conn(ctx, s.db).QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list providers: %w", err)
	}
	defer rows.Close()

	var out []*models.Provider
	for rows.Next() {
		var provider models.Provider
		if err := rows.Scan(
			&provider.ID,
			&provider.PersonID,
			&provider.Specialty,
			&provider.WorkShift,
			&provider.LicenseNumber,
			&provider.Active,
			&provider.AvailabilityNotes,
			&provider.CreatedAt,
			&provider.DeletedAt,
		); err != nil {
			return nil, fmt.Errorf("scan provider: %w", err)
		}
		out = append(out, &provider)
	}
	return out, rows.Err()
}

func (s *PostgresProviderStore) Update(ctx context.Context, provider *models.Provider) error {
	query := `
		UPDATE provider
		SET specialty = $2, work_shift = $3, license_number = $4,
		    active = $5, availability_notes = $6, deleted_at = $7
		WHERE id = $1
	`
	result, err := conn(ctx, s.db).ExecContext(ctx, query,
		provider.ID,
		string(provider.Specialty),
		string(provider.WorkShift),
		provider.LicenseNumber,
		provider.Active,
		provider.AvailabilityNotes,
		provider.DeletedAt,
	)
	if err != nil {
		return translateWriteError(err, "update provider")
	}
	return requireRow(result, "update provider")
}

func scanProvider(row *sql.Row) (*models.Provider, error) {
	var provider models.Provider
	err := row.Scan(
		&provider.ID,
		&provider.PersonID,
		&provider.Specialty,
		&provider.WorkShift,
		&provider.LicenseNumber,
		&provider.Active,
		&provider.AvailabilityNotes,
		&provider.CreatedAt,
		&provider.DeletedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan provider: %w", err)
	}
	return &provider, nil
}
