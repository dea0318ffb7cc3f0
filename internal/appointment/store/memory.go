package store

import (
	"context"
	"sort"
	"sync"

	"clinica/internal/appointment/models"
	"clinica/pkg/platform/sentinel"
)

// InMemoryStore keeps appointments in a map guarded by a RWMutex.
type InMemoryStore struct {
	mu           sync.RWMutex
	nextID       int64
	appointments map[int64]models.Appointment
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{appointments: make(map[int64]models.Appointment)}
}

func (s *InMemoryStore) Create(_ context.Context, appointment *models.Appointment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	appointment.ID = s.nextID
	s.appointments[appointment.ID] = *appointment
	return nil
}

func (s *InMemoryStore) Get(_ context.Context, id int64) (*models.Appointment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	appointment, ok := s.appointments[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return &appointment, nil
}

func (s *InMemoryStore) List(_ context.Context) ([]*models.Appointment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.Appointment, 0, len(s.appointments))
	for id := range s.appointments {
		appointment := s.appointments[id]
		out = append(out, &appointment)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *InMemoryStore) Update(_ context.Context, appointment *models.Appointment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.appointments[appointment.ID]; !ok {
		return sentinel.ErrNotFound
	}
	s.appointments[appointment.ID] = *appointment
	return nil
}

func (s *InMemoryStore) HasActiveForPatient(_ context.Context, patientID int64) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, appointment := range s.appointments {
		if appointment.PatientID == patientID && !appointment.Status.Terminal() {
			return true, nil
		}
	}
	return false, nil
}

func (s *InMemoryStore) HasActiveForProvider(_ context.Context, providerID int64) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, appointment := range s.appointments {
		if appointment.ProviderID == providerID && !appointment.Status.Terminal() {
			return true, nil
		}
	}
	return false, nil
}
