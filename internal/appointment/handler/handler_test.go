package handler

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"clinica/internal/appointment/models"
	"clinica/internal/appointment/service"
	"clinica/internal/appointment/store"
	clinicmodels "clinica/internal/clinic/models"
	clinicstore "clinica/internal/clinic/store"
	"clinica/internal/platform/middleware"
)

const testToken = "valid-token"

type staticValidator struct{}

func (staticValidator) ValidateToken(tokenString string) (*middleware.JWTClaims, error) {
	if tokenString != testToken {
		return nil, errors.New("unknown token")
	}
	return &middleware.JWTClaims{UserID: 7, JTI: "test-jti"}, nil
}

func newAppointmentRouter(t *testing.T) chi.Router {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	patients := clinicstore.NewInMemoryPatientStore()
	providers := clinicstore.NewInMemoryProviderStore()
	require.NoError(t, patients.Create(t.Context(), &clinicmodels.Patient{
		PersonID:          1,
		InsuranceProvider: clinicmodels.InsuranceUnimed,
	}))
	require.NoError(t, providers.Create(t.Context(), &clinicmodels.Provider{
		PersonID:      2,
		Specialty:     clinicmodels.SpecialtyPsychology,
		WorkShift:     clinicmodels.ShiftMorning,
		LicenseNumber: "CRP-100",
		Active:        true,
	}))

	svc := service.New(store.NewInMemoryStore(), patients, providers, service.WithLogger(logger))
	h := New(svc, logger, staticValidator{}, nil)
	router := chi.NewRouter()
	h.Register(router)
	return router
}

func doJSON(t *testing.T, router chi.Router, method, path string, payload any) *httptest.ResponseRecorder {
	t.Helper()
	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		require.NoError(t, err)
		body = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, body)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+testToken)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestAppointmentAuthRequired(t *testing.T) {
	router := newAppointmentRouter(t)
	req := httptest.NewRequest(http.MethodGet, "/appointments", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAppointmentLifecycleViaHandlers(t *testing.T) {
	router := newAppointmentRouter(t)

	rec := doJSON(t, router, http.MethodPost, "/appointments", map[string]any{
		"patient_id":  1,
		"provider_id": 1,
		"date_hour":   "2026-04-15T10:00:00Z",
		"reason":      "initial consultation",
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	var created models.Appointment
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&created))
	assert.Equal(t, models.StatusScheduled, created.Status)

	rec = doJSON(t, router, http.MethodPut, "/appointments/1", map[string]any{
		"status": "completed",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	var updated models.Appointment
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&updated))
	assert.Equal(t, models.StatusCompleted, updated.Status)

	// Terminal rows stay readable but refuse further updates.
	rec = doJSON(t, router, http.MethodGet, "/appointments/1", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, router, http.MethodPut, "/appointments/1", map[string]any{
		"status": "scheduled",
	})
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = doJSON(t, router, http.MethodGet, "/appointments", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var listed []models.Appointment
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&listed))
	assert.Len(t, listed, 1)
}

func TestAppointmentCreateRejectsUnknownSides(t *testing.T) {
	router := newAppointmentRouter(t)

	rec := doJSON(t, router, http.MethodPost, "/appointments", map[string]any{
		"patient_id":  42,
		"provider_id": 1,
		"date_hour":   "2026-04-15T10:00:00Z",
	})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = doJSON(t, router, http.MethodPost, "/appointments", map[string]any{
		"patient_id":  1,
		"provider_id": 42,
		"date_hour":   "2026-04-15T10:00:00Z",
	})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = doJSON(t, router, http.MethodPost, "/appointments", map[string]any{
		"provider_id": 1,
		"date_hour":   "2026-04-15T10:00:00Z",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
