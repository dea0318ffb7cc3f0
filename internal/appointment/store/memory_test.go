package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"clinica/internal/appointment/models"
	"clinica/pkg/platform/sentinel"
)

func seedAppointment(t *testing.T, s *InMemoryStore, patientID, providerID int64, status models.Status) *models.Appointment {
	t.Helper()
	appointment := &models.Appointment{
		PatientID:  patientID,
		ProviderID: providerID,
		DateHour:   time.Date(2026, 4, 15, 10, 0, 0, 0, time.UTC),
		Status:     status,
		CreatedAt:  time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC),
	}
	require.NoError(t, s.Create(context.Background(), appointment))
	return appointment
}

func TestInMemoryStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := NewInMemoryStore()

	created := seedAppointment(t, s, 1, 2, models.StatusScheduled)
	require.Equal(t, int64(1), created.ID)

	got, err := s.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.PatientID, got.PatientID)

	got.Status = models.StatusConfirmed
	require.NoError(t, s.Update(ctx, got))

	// The store hands out copies; the earlier read is unaffected.
	stale, err := s.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusConfirmed, stale.Status)

	_, err = s.Get(ctx, 99)
	assert.ErrorIs(t, err, sentinel.ErrNotFound)
	assert.ErrorIs(t, s.Update(ctx, &models.Appointment{ID: 99}), sentinel.ErrNotFound)
}

func TestInMemoryStoreActiveChecks(t *testing.T) {
	ctx := context.Background()
	s := NewInMemoryStore()

	seedAppointment(t, s, 1, 2, models.StatusCompleted)
	seedAppointment(t, s, 1, 3, models.StatusNoShow)

	active, err := s.HasActiveForPatient(ctx, 1)
	require.NoError(t, err)
	assert.False(t, active, "terminal statuses do not count as active")

	seedAppointment(t, s, 1, 3, models.StatusInProgress)

	active, err = s.HasActiveForPatient(ctx, 1)
	require.NoError(t, err)
	assert.True(t, active)

	active, err = s.HasActiveForProvider(ctx, 3)
	require.NoError(t, err)
	assert.True(t, active)

	active, err = s.HasActiveForProvider(ctx, 2)
	require.NoError(t, err)
	assert.False(t, active)
}
