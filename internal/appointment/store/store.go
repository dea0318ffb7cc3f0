package store

import (
	"context"

	"clinica/internal/appointment/models"
)

// Store persists appointments. Appointments are append-plus-update history:
// there is no delete.
type Store interface {
	Create(ctx context.Context, appointment *models.Appointment) error
	Get(ctx context.Context, id int64) (*models.Appointment, error)
	List(ctx context.Context) ([]*models.Appointment, error)
	Update(ctx context.Context, appointment *models.Appointment) error
	HasActiveForPatient(ctx context.Context, patientID int64) (bool, error)
	HasActiveForProvider(ctx context.Context, providerID int64) (bool, error)
}
