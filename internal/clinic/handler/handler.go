// Package handler exposes patient and provider administration over HTTP.
package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"clinica/internal/clinic/models"
	"clinica/internal/platform/httpjson"
	"clinica/internal/platform/middleware"
	dErrors "clinica/pkg/domain-errors"
	"clinica/pkg/requestcontext"
)

// Service defines the clinic operations the handler depends on.
type Service interface {
	RegisterPatient(ctx context.Context, req models.RegisterPatientRequest) (*models.PatientView, error)
	GetPatient(ctx context.Context, id int64) (*models.PatientView, error)
	ListPatients(ctx context.Context) ([]models.PatientView, error)
	UpdatePatient(ctx context.Context, id int64, req models.UpdatePatientRequest) (*models.PatientView, error)
	DeletePatient(ctx context.Context, id int64) error

	RegisterProvider(ctx context.Context, req models.RegisterProviderRequest) (*models.ProviderView, error)
	GetProvider(ctx context.Context, id int64) (*models.ProviderView, error)
	ListProviders(ctx context.Context) ([]models.ProviderView, error)
	UpdateProvider(ctx context.Context, id int64, req models.UpdateProviderRequest) (*models.ProviderView, error)
	DeleteProvider(ctx context.Context, id int64) error
}

// Handler handles patient and provider endpoints.
type Handler struct {
	clinic       Service
	logger       *slog.Logger
	jwtValidator middleware.JWTValidator
	revocations  middleware.RevocationChecker
}

// New creates a clinic Handler.
func New(clinic Service, logger *slog.Logger, jwtValidator middleware.JWTValidator, revocations middleware.RevocationChecker) *Handler {
	return &Handler{
		clinic:       clinic,
		logger:       logger,
		jwtValidator: jwtValidator,
		revocations:  revocations,
	}
}

// Register mounts the clinic routes. Every route requires authentication.
func (h *Handler) Register(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(middleware.ContentTypeJSON)
		r.Use(middleware.RequireAuth(h.jwtValidator, h.revocations, h.logger))

		r.Route("/patients", func(r chi.Router) {
			r.Post("/", h.handleRegisterPatient)
			r.Get("/", h.handleListPatients)
			r.Get("/{id}", h.handleGetPatient)
			r.Put("/{id}", h.handleUpdatePatient)
			r.Delete("/{id}", h.handleDeletePatient)
		})

		r.Route("/providers", func(r chi.Router) {
			r.Post("/", h.handleRegisterProvider)
			r.Get("/", h.handleListProviders)
			r.Get("/{id}", h.handleGetProvider)
			r.Put("/{id}", h.handleUpdateProvider)
			r.Delete("/{id}", h.handleDeleteProvider)
		})
	})
}

func (h *Handler) handleRegisterPatient(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req models.RegisterPatientRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpjson.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	view, err := h.clinic.RegisterPatient(ctx, req)
	if err != nil {
		h.writeServiceError(ctx, w, err, "register patient")
		return
	}
	httpjson.Write(w, http.StatusCreated, view)
}

func (h *Handler) handleListPatients(w http.ResponseWriter, r *http.Request) {
	views, err := h.clinic.ListPatients(r.Context())
	if err != nil {
		h.writeServiceError(r.Context(), w, err, "list patients")
		return
	}
	httpjson.Write(w, http.StatusOK, views)
}

func (h *Handler) handleGetPatient(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		httpjson.WriteError(w, err)
		return
	}
	view, err := h.clinic.GetPatient(r.Context(), id)
	if err != nil {
		h.writeServiceError(r.Context(), w, err, "get patient")
		return
	}
	httpjson.Write(w, http.StatusOK, view)
}

func (h *Handler) handleUpdatePatient(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, err := pathID(r)
	if err != nil {
		httpjson.WriteError(w, err)
		return
	}

	var req models.UpdatePatientRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpjson.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	view, err := h.clinic.UpdatePatient(ctx, id, req)
	if err != nil {
		h.writeServiceError(ctx, w, err, "update patient")
		return
	}
	httpjson.Write(w, http.StatusOK, view)
}

func (h *Handler) handleDeletePatient(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		httpjson.WriteError(w, err)
		return
	}
	if err := h.clinic.DeletePatient(r.Context(), id); err != nil {
		h.writeServiceError(r.Context(), w, err, "delete patient")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleRegisterProvider(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req models.RegisterProviderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpjson.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	view, err := h.clinic.RegisterProvider(ctx, req)
	if err != nil {
		h.writeServiceError(ctx, w, err, "register provider")
		return
	}
	httpjson.Write(w, http.StatusCreated, view)
}

func (h *Handler) handleListProviders(w http.ResponseWriter, r *http.Request) {
	views, err := h.clinic.ListProviders(r.Context())
	if err != nil {
		h.writeServiceError(r.Context(), w, err, "list providers")
		return
	}
	httpjson.Write(w, http.StatusOK, views)
}

func (h *Handler) handleGetProvider(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		httpjson.WriteError(w, err)
		return
	}
	view, err := h.clinic.GetProvider(r.Context(), id)
	if err != nil {
		h.writeServiceError(r.Context(), w, err, "get provider")
		return
	}
	httpjson.Write(w, http.StatusOK, view)
}

func (h *Handler) handleUpdateProvider(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, err := pathID(r)
	if err != nil {
		httpjson.WriteError(w, err)
		return
	}

	var req models.UpdateProviderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpjson.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	view, err := h.clinic.UpdateProvider(ctx, id, req)
	if err != nil {
		h.writeServiceError(ctx, w, err, "update provider")
		return
	}
	httpjson.Write(w, http.StatusOK, view)
}

func (h *Handler) handleDeleteProvider(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		httpjson.WriteError(w, err)
		return
	}
	if err := h.clinic.DeleteProvider(r.Context(), id); err != nil {
		h.writeServiceError(r.Context(), w, err, "delete provider")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// writeServiceError logs unexpected failures and writes the envelope.
// Expected domain outcomes pass through without error-level noise.
func (h *Handler) writeServiceError(ctx context.Context, w http.ResponseWriter, err error, op string) {
	switch dErrors.CodeOf(err) {
	case dErrors.CodeInternal, dErrors.CodeTimeout:
		h.logger.ErrorContext(ctx, "clinic operation failed",
			"op", op,
			"request_id", requestcontext.RequestID(ctx),
			"error", err.Error(),
		)
	default:
		h.logger.WarnContext(ctx, "clinic operation rejected",
			"op", op,
			"request_id", requestcontext.RequestID(ctx),
			"error", err.Error(),
		)
	}
	httpjson.WriteError(w, err)
}

func pathID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, dErrors.New(dErrors.CodeBadRequest, "invalid id")
	}
	return id, nil
}
