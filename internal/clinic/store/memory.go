package store

import (
	"context"
	"sort"
	"sync"

	"clinica/internal/clinic/models"
	"clinica/pkg/platform/sentinel"
)

// InMemoryPersonStore keeps persons in a map guarded by a RWMutex. Used in
// tests and when the server runs without a database.
type InMemoryPersonStore struct {
	mu      sync.RWMutex
	nextID  int64
	persons map[int64]models.Person
}

func NewInMemoryPersonStore() *InMemoryPersonStore {
	return &InMemoryPersonStore{persons: make(map[int64]models.Person)}
}

func (s *InMemoryPersonStore) Create(_ context.Context, person *models.Person) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.persons {
		if existing.Document == person.Document && existing.DeletedAt == nil {
			return sentinel.ErrConflict
		}
	}
	s.nextID++
	person.ID = s.nextID
	s.persons[person.ID] = *person
	return nil
}

func (s *InMemoryPersonStore) Get(_ context.Context, id int64) (*models.Person, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	person, ok := s.persons[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return &person, nil
}

func (s *InMemoryPersonStore) GetByDocument(_ context.Context, document string) (*models.Person, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	// Prefer the active row; fall back to the most recent tombstone.
	var deleted *models.Person
	for id := range s.persons {
		person := s.persons[id]
		if person.Document != document {
			continue
		}
		if person.DeletedAt == nil {
			return &person, nil
		}
		if deleted == nil || person.ID > deleted.ID {
			deleted = &person
		}
	}
	if deleted != nil {
		return deleted, nil
	}
	return nil, sentinel.ErrNotFound
}

func (s *InMemoryPersonStore) Update(_ context.Context, person *models.Person) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.persons[person.ID]; !ok {
		return sentinel.ErrNotFound
	}
	// Mirror the partial unique index on (document) WHERE deleted_at IS NULL.
	if person.DeletedAt == nil {
		for id, existing := range s.persons {
			if id != person.ID && existing.Document == person.Document && existing.DeletedAt == nil {
				return sentinel.ErrConflict
			}
		}
	}
	s.persons[person.ID] = *person
	return nil
}

// InMemoryPatientStore keeps patient role records in memory.
type InMemoryPatientStore struct {
	mu       sync.RWMutex
	nextID   int64
	patients map[int64]models.Patient
}

func NewInMemoryPatientStore() *InMemoryPatientStore {
	return &InMemoryPatientStore{patients: make(map[int64]models.Patient)}
}

func (s *InMemoryPatientStore) Create(_ context.Context, patient *models.Patient) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.patients {
		if existing.PersonID == patient.PersonID && existing.DeletedAt == nil {
			return sentinel.ErrConflict
		}
	}
	s.nextID++
	patient.ID = s.nextID
	s.patients[patient.ID] = *patient
	return nil
}

func (s *InMemoryPatientStore) Get(_ context.Context, id int64) (*models.Patient, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	patient, ok := s.patients[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return &patient, nil
}

func (s *InMemoryPatientStore) GetActive(_ context.Context, id int64) (*models.Patient, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	patient, ok := s.patients[id]
	if !ok || patient.DeletedAt != nil {
		return nil, sentinel.ErrNotFound
	}
	return &patient, nil
}

func (s *InMemoryPatientStore) GetActiveByPerson(_ context.Context, personID int64) (*models.Patient, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for id := range s.patients {
		patient := s.patients[id]
		if patient.PersonID == personID && patient.DeletedAt == nil {
			return &patient, nil
		}
	}
	return nil, sentinel.ErrNotFound
}

func (s *InMemoryPatientStore) ListActive(_ context.Context) ([]*models.Patient, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.Patient, 0, len(s.patients))
	for id := range s.patients {
		patient := s.patients[id]
		if patient.DeletedAt == nil {
			out = append(out, &patient)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *InMemoryPatientStore) Update(_ context.Context, patient *models.Patient) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.patients[patient.ID]; !ok {
		return sentinel.ErrNotFound
	}
	s.patients[patient.ID] = *patient
	return nil
}

// InMemoryProviderStore keeps provider role records in memory.
type InMemoryProviderStore struct {
	mu        sync.RWMutex
	nextID    int64
	providers map[int64]models.Provider
}

func NewInMemoryProviderStore() *InMemoryProviderStore {
	return &InMemoryProviderStore{providers: make(map[int64]models.Provider)}
}

func (s *InMemoryProviderStore) Create(_ context.Context, provider *models.Provider) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.providers {
		if existing.PersonID == provider.PersonID && existing.DeletedAt == nil {
			return sentinel.ErrConflict
		}
	}
	s.nextID++
	provider.ID = s.nextID
	s.providers[provider.ID] = *provider
	return nil
}

func (s *InMemoryProviderStore) Get(_ context.Context, id int64) (*models.Provider, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	provider, ok := s.providers[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return &provider, nil
}

func (s *InMemoryProviderStore) GetActive(_ context.Context, id int64) (*models.Provider, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	provider, ok := s.providers[id]
	if !ok || provider.DeletedAt != nil {
		return nil, sentinel.ErrNotFound
	}
	return &provider, nil
}

func (s *InMemoryProviderStore) GetActiveByPerson(_ context.Context, personID int64) (*models.Provider, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for id := range s.providers {
		provider := s.providers[id]
		if provider.PersonID == personID && provider.DeletedAt == nil {
			return &provider, nil
		}
	}
	return nil, sentinel.ErrNotFound
}

func (s *InMemoryProviderStore) ListActive(_ context.Context) ([]*models.Provider, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.Provider, 0, len(s.providers))
	for id := range s.providers {
		provider := s.providers[id]
		if provider.DeletedAt == nil {
			out = append(out, &provider)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *InMemoryProviderStore) Update(_ context.Context, provider *models.Provider) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.providers[provider.ID]; !ok {
		return sentinel.ErrNotFound
	}
	s.providers[provider.ID] = *provider
	return nil
}
