package store

import (
	"context"

	"clinica/internal/clinic/models"
)

// PersonStore persists shared identity records. Lookups are deliberately
// not scoped to active rows: reconciliation needs to see soft-deleted
// persons to decide between reactivation and reuse.
type PersonStore interface {
	Create(ctx context.Context, person *models.Person) error
	Get(ctx context.Context, id int64) (*models.Person, error)
	GetByDocument(ctx context.Context, document string) (*models.Person, error)
	Update(ctx context.Context, person *models.Person) error
}

// PatientStore persists patient role records. Active-scoped lookups treat
// soft-deleted rows as absent.
type PatientStore interface {
	Create(ctx context.Context, patient *models.Patient) error
	Get(ctx context.Context, id int64) (*models.Patient, error)
	GetActive(ctx context.Context, id int64) (*models.Patient, error)
	GetActiveByPerson(ctx context.Context, personID int64) (*models.Patient, error)
	ListActive(ctx context.Context) ([]*models.Patient, error)
	Update(ctx context.Context, patient *models.Patient) error
}

// ProviderStore persists provider role records, same scoping rules as
// PatientStore.
type ProviderStore interface {
	Create(ctx context.Context, provider *models.Provider) error
	Get(ctx context.Context, id int64) (*models.Provider, error)
	GetActive(ctx context.Context, id int64) (*models.Provider, error)
	GetActiveByPerson(ctx context.Context, personID int64) (*models.Provider, error)
	ListActive(ctx context.Context) ([]*models.Provider, error)
	Update(ctx context.Context, provider *models.Provider) error
}
