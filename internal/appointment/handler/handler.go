// Package handler exposes the appointment ledger over HTTP.
package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"clinica/internal/appointment/models"
	"clinica/internal/platform/httpjson"
	"clinica/internal/platform/middleware"
	dErrors "clinica/pkg/domain-errors"
	"clinica/pkg/requestcontext"
)

// Service defines the appointment operations the handler depends on.
type Service interface {
	Create(ctx context.Context, req models.CreateRequest) (*models.Appointment, error)
	Get(ctx context.Context, id int64) (*models.Appointment, error)
	List(ctx context.Context) ([]*models.Appointment, error)
	Update(ctx context.Context, id int64, req models.UpdateRequest) (*models.Appointment, error)
}

// Handler handles appointment endpoints.
type Handler struct {
	appointments Service
	logger       *slog.Logger
	jwtValidator middleware.JWTValidator
	revocations  middleware.RevocationChecker
}

// New creates an appointment Handler.
func New(appointments Service, logger *slog.Logger, jwtValidator middleware.JWTValidator, revocations middleware.RevocationChecker) *Handler {
	return &Handler{
		appointments: appointments,
		logger:       logger,
		jwtValidator: jwtValidator,
		revocations:  revocations,
	}
}

// Register mounts the appointment routes. Every route requires
// authentication.
func (h *Handler) Register(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(middleware.ContentTypeJSON)
		r.Use(middleware.RequireAuth(h.jwtValidator, h.revocations, h.logger))

		r.Route("/appointments", func(r chi.Router) {
			r.Post("/", h.handleCreate)
			r.Get("/", h.handleList)
			r.Get("/{id}", h.handleGet)
			r.Put("/{id}", h.handleUpdate)
		})
	})
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req models.CreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpjson.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	appointment, err := h.appointments.Create(ctx, req)
	if err != nil {
		h.writeServiceError(ctx, w, err, "create appointment")
		return
	}
	httpjson.Write(w, http.StatusCreated, appointment)
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	appointments, err := h.appointments.List(r.Context())
	if err != nil {
		h.writeServiceError(r.Context(), w, err, "list appointments")
		return
	}
	httpjson.Write(w, http.StatusOK, appointments)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		httpjson.WriteError(w, err)
		return
	}
	appointment, err := h.appointments.Get(r.Context(), id)
	if err != nil {
		h.writeServiceError(r.Context(), w, err, "get appointment")
		return
	}
	httpjson.Write(w, http.StatusOK, appointment)
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, err := pathID(r)
	if err != nil {
		httpjson.WriteError(w, err)
		return
	}

	var req models.UpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpjson.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	appointment, err := h.appointments.Update(ctx, id, req)
	if err != nil {
		h.writeServiceError(ctx, w, err, "update appointment")
		return
	}
	httpjson.Write(w, http.StatusOK, appointment)
}

func (h *Handler) writeServiceError(ctx context.Context, w http.ResponseWriter, err error, op string) {
	switch dErrors.CodeOf(err) {
	case dErrors.CodeInternal, dErrors.CodeTimeout:
		h.logger.ErrorContext(ctx, "appointment operation failed",
			"op", op,
			"request_id", requestcontext.RequestID(ctx),
			"error", err.Error(),
		)
	default:
		h.logger.WarnContext(ctx, "appointment operation rejected",
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
