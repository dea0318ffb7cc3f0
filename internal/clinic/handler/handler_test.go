package handler

import (
	"bytes"
	"context"
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

	"clinica/internal/clinic/models"
	"clinica/internal/clinic/service"
	"clinica/internal/clinic/store"
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

type adjustableGuard struct {
	patientActive  bool
	providerActive bool
}

func (g *adjustableGuard) HasActiveForPatient(_ context.Context, _ int64) (bool, error) {
	return g.patientActive, nil
}

func (g *adjustableGuard) HasActiveForProvider(_ context.Context, _ int64) (bool, error) {
	return g.providerActive, nil
}

func newClinicRouter(_ *testing.T, guard *adjustableGuard) chi.Router {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := service.New(
		store.NewInMemoryPersonStore(),
		store.NewInMemoryPatientStore(),
		store.NewInMemoryProviderStore(),
		guard,
		service.WithLogger(logger),
	)
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

func patientPayload(document string) map[string]any {
	return map[string]any{
		"name":               "Ana Souza",
		"birth_date":         "1990-03-12T00:00:00Z",
		"gender":             "female",
		"document":           document,
		"phone_number":       "+55 11 99999-0001",
		"email":              "ana@example.com",
		"insurance_provider": "unimed",
		"organ_donor":        true,
	}
}

func providerPayload(document string) map[string]any {
	return map[string]any{
		"name":           "Carlos Lima",
		"birth_date":     "1985-07-20T00:00:00Z",
		"gender":         "male",
		"document":       document,
		"phone_number":   "+55 21 98888-0002",
		"email":          "carlos@example.com",
		"specialty":      "cardiology",
		"work_shift":     "morning",
		"license_number": "CRM-12345",
		"active":         true,
	}
}

func TestAuthenticationRequired(t *testing.T) {
	router := newClinicRouter(t, &adjustableGuard{})

	req := httptest.NewRequest(http.MethodGet, "/patients", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "/patients", nil)
	req.Header.Set("Authorization", "Bearer bogus")
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestPatientCRUD(t *testing.T) {
	router := newClinicRouter(t, &adjustableGuard{})

	rec := doJSON(t, router, http.MethodPost, "/patients", patientPayload("111.111.111-11"))
	require.Equal(t, http.StatusCreated, rec.Code)

	var created models.PatientView
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&created))
	require.NotZero(t, created.Patient.ID)
	assert.Equal(t, created.Person.ID, created.Patient.PersonID)

	rec = doJSON(t, router, http.MethodGet, "/patients/1", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, router, http.MethodGet, "/patients", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var listed []models.PatientView
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&listed))
	assert.Len(t, listed, 1)

	rec = doJSON(t, router, http.MethodPut, "/patients/1", map[string]any{
		"name":               "Ana Updated",
		"insurance_provider": "amil",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	var updated models.PatientView
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&updated))
	assert.Equal(t, "Ana Updated", updated.Person.Name)
	assert.Equal(t, models.InsuranceAmil, updated.Patient.InsuranceProvider)

	rec = doJSON(t, router, http.MethodDelete, "/patients/1", nil)
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = doJSON(t, router, http.MethodGet, "/patients/1", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDuplicatePatientRegistrationConflicts(t *testing.T) {
	router := newClinicRouter(t, &adjustableGuard{})

	rec := doJSON(t, router, http.MethodPost, "/patients", patientPayload("222.222.222-22"))
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = doJSON(t, router, http.MethodPost, "/patients", patientPayload("222.222.222-22"))
	assert.Equal(t, http.StatusConflict, rec.Code)

	var body struct {
		Error struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, "conflict", body.Error.Code)
	assert.NotEmpty(t, body.Error.Message)
}

func TestDeleteBlockedByActiveAppointment(t *testing.T) {
	guard := &adjustableGuard{}
	router := newClinicRouter(t, guard)

	rec := doJSON(t, router, http.MethodPost, "/patients", patientPayload("333.333.333-33"))
	require.Equal(t, http.StatusCreated, rec.Code)

	guard.patientActive = true
	rec = doJSON(t, router, http.MethodDelete, "/patients/1", nil)
	assert.Equal(t, http.StatusConflict, rec.Code)

	guard.patientActive = false
	rec = doJSON(t, router, http.MethodDelete, "/patients/1", nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = doJSON(t, router, http.MethodDelete, "/patients/1", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestProviderEndpoints(t *testing.T) {
	router := newClinicRouter(t, &adjustableGuard{})

	rec := doJSON(t, router, http.MethodPost, "/providers", providerPayload("444.444.444-44"))
	require.Equal(t, http.StatusCreated, rec.Code)

	var created models.ProviderView
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&created))
	assert.Equal(t, models.SpecialtyCardiology, created.Provider.Specialty)

	rec = doJSON(t, router, http.MethodPut, "/providers/1", map[string]any{
		"work_shift": "full_day",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	var updated models.ProviderView
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&updated))
	assert.Equal(t, models.ShiftFullDay, updated.Provider.WorkShift)

	rec = doJSON(t, router, http.MethodGet, "/providers", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, router, http.MethodDelete, "/providers/1", nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestValidationErrors(t *testing.T) {
	router := newClinicRouter(t, &adjustableGuard{})

	t.Run("malformed body", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/patients", bytes.NewReader([]byte("{not json")))
		req.Header.Set("Authorization", "Bearer "+testToken)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("unknown enum value", func(t *testing.T) {
		payload := patientPayload("555.555.555-55")
		payload["insurance_provider"] = "acme"
		rec := doJSON(t, router, http.MethodPost, "/patients", payload)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("non-numeric id", func(t *testing.T) {
		rec := doJSON(t, router, http.MethodGet, "/patients/abc", nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}
