// Package handler exposes account and session endpoints over HTTP.
package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"clinica/internal/auth"
	"clinica/internal/platform/httpjson"
	"clinica/internal/platform/middleware"
	dErrors "clinica/pkg/domain-errors"
	"clinica/pkg/requestcontext"
)

// Service defines the auth operations the handler depends on.
type Service interface {
	Signup(ctx context.Context, req auth.SignupRequest) (*auth.User, error)
	Login(ctx context.Context, req auth.LoginRequest) (*auth.TokenResponse, error)
	Logout(ctx context.Context, tokenString string) error
}

// Handler handles authentication endpoints.
type Handler struct {
	auth         Service
	logger       *slog.Logger
	jwtValidator middleware.JWTValidator
	revocations  middleware.RevocationChecker
}

// New creates an auth Handler.
func New(auth Service, logger *slog.Logger, jwtValidator middleware.JWTValidator, revocations middleware.RevocationChecker) *Handler {
	return &Handler{
		auth:         auth,
		logger:       logger,
		jwtValidator: jwtValidator,
		revocations:  revocations,
	}
}

// Register mounts the auth routes. Signup and login are public; logout
// requires a valid token since it revokes the one presented.
func (h *Handler) Register(r chi.Router) {
	r.Route("/auth", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(middleware.ContentTypeJSON)
			r.Post("/signup", h.handleSignup)
			r.Post("/login", h.handleLogin)
		})
		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAuth(h.jwtValidator, h.revocations, h.logger))
			r.Post("/logout", h.handleLogout)
		})
	})
}

func (h *Handler) handleSignup(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req auth.SignupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpjson.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	user, err := h.auth.Signup(ctx, req)
	if err != nil {
		h.writeServiceError(ctx, w, err, "signup")
		return
	}
	httpjson.Write(w, http.StatusCreated, user)
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req auth.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpjson.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	resp, err := h.auth.Login(ctx, req)
	if err != nil {
		h.writeServiceError(ctx, w, err, "login")
		return
	}
	httpjson.Write(w, http.StatusOK, resp)
}

func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
	if !ok || token == "" {
		httpjson.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "missing bearer token"))
		return
	}

	if err := h.auth.Logout(ctx, token); err != nil {
		h.writeServiceError(ctx, w, err, "logout")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) writeServiceError(ctx context.Context, w http.ResponseWriter, err error, op string) {
	switch dErrors.CodeOf(err) {
	case dErrors.CodeInternal, dErrors.CodeTimeout:
		h.logger.ErrorContext(ctx, "auth operation failed",
			"op", op,
			"request_id", requestcontext.RequestID(ctx),
			"error", err.Error(),
		)
	default:
		h.logger.WarnContext(ctx, "auth operation rejected",
			"op", op,
			"request_id", requestcontext.RequestID(ctx),
			"error", err.Error(),
		)
	}
	httpjson.WriteError(w, err)
}
