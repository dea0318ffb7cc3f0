package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"clinica/internal/jwttoken"
	"clinica/internal/platform/metrics"
	dErrors "clinica/pkg/domain-errors"
	"clinica/pkg/platform/audit"
	"clinica/pkg/platform/sentinel"
	"clinica/pkg/requestcontext"
)

// TokenRevoker invalidates issued tokens before their natural expiry.
type TokenRevoker interface {
	RevokeToken(ctx context.Context, jti string, ttl time.Duration) error
}

// AuditPublisher records account and session events.
type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

// Service implements signup, login, and logout for staff accounts.
type Service struct {
	users  UserStore
	tokens *jwttoken.Service

	revoker   TokenRevoker
	logger    *slog.Logger
	publisher AuditPublisher
	metrics   *metrics.Metrics
	tracer    trace.Tracer
}

// Option configures a Service.
type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithAuditPublisher(publisher AuditPublisher) Option {
	return func(s *Service) { s.publisher = publisher }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// WithRevoker sets the revocation list; without one, logout still succeeds
// but issued tokens remain valid until expiry.
func WithRevoker(revoker TokenRevoker) Option {
	return func(s *Service) { s.revoker = revoker }
}

// NewService constructs a Service.
func NewService(users UserStore, tokens *jwttoken.Service, opts ...Option) *Service {
	s := &Service{
		users:  users,
		tokens: tokens,
		tracer: otel.Tracer("clinica/auth"),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	return s
}

// Signup creates a staff account.
func (s *Service) Signup(ctx context.Context, req SignupRequest) (*User, error) {
	ctx, span := s.tracer.Start(ctx, "auth.Signup")
	defer span.End()

	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}

	hash, err := HashPassword(req.Password)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to hash password")
	}

	user := &User{
		Username:       req.Username,
		Email:          req.Email,
		HashedPassword: hash,
		Admin:          req.Admin,
		IsActive:       true,
		CreatedAt:      requestcontext.Now(ctx),
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return nil, dErrors.New(dErrors.CodeConflict, "username already taken")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create user")
	}

	span.SetAttributes(attribute.Int64("user.id", user.ID))
	s.emitAudit(ctx, audit.ActionUserCreated, subjectOf(user.ID), "username="+user.Username)
	return user, nil
}

// Login exchanges credentials for an access token. Unknown usernames and
// bad passwords return the same error so accounts cannot be enumerated.
func (s *Service) Login(ctx context.Context, req LoginRequest) (*TokenResponse, error) {
	ctx, span := s.tracer.Start(ctx, "auth.Login")
	defer span.End()

	user, err := s.users.GetByUsername(ctx, req.Username)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, s.rejectLogin(ctx, req.Username)
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load user")
	}
	if !user.IsActive || !VerifyPassword(user.HashedPassword, req.Password) {
		return nil, s.rejectLogin(ctx, req.Username)
	}

	token, _, expiresAt, err := s.tokens.Generate(user.ID, user.Admin, requestcontext.Now(ctx))
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to issue token")
	}

	span.SetAttributes(attribute.Int64("user.id", user.ID))
	s.emitAudit(ctx, audit.ActionUserLogin, subjectOf(user.ID), "")
	return &TokenResponse{
		AccessToken: token,
		TokenType:   "Bearer",
		ExpiresAt:   expiresAt,
	}, nil
}

// Logout revokes the presented token for the remainder of its lifetime.
func (s *Service) Logout(ctx context.Context, tokenString string) error {
	ctx, span := s.tracer.Start(ctx, "auth.Logout")
	defer span.End()

	claims, err := s.tokens.Parse(tokenString)
	if err != nil {
		return err
	}

	if s.revoker != nil && claims.ExpiresAt != nil {
		ttl := time.Until(claims.ExpiresAt.Time)
		if err := s.revoker.RevokeToken(ctx, claims.ID, ttl); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to revoke token")
		}
	}

	s.emitAudit(ctx, audit.ActionUserLogout, subjectOf(claims.UserID), "")
	return nil
}

func (s *Service) rejectLogin(ctx context.Context, username string) error {
	s.logger.WarnContext(ctx, "login rejected",
		"username", username,
		"request_id", requestcontext.RequestID(ctx),
	)
	if s.metrics != nil {
		s.metrics.LoginsFailed.Inc()
	}
	return dErrors.New(dErrors.CodeUnauthorized, "invalid credentials")
}

func (s *Service) emitAudit(ctx context.Context, action audit.Action, subject, detail string) {
	s.logger.InfoContext(ctx, string(action),
		"subject", subject,
		"request_id", requestcontext.RequestID(ctx),
		"log_type", "audit",
	)
	if s.publisher == nil {
		return
	}
	err := s.publisher.Emit(ctx, audit.Event{
		Timestamp: requestcontext.Now(ctx),
		ActorID:   requestcontext.UserID(ctx),
		Action:    action,
		Subject:   subject,
		Detail:    detail,
		RequestID: requestcontext.RequestID(ctx),
		ClientIP:  requestcontext.ClientIP(ctx),
		UserAgent: requestcontext.UserAgent(ctx),
	})
	if err != nil {
		s.logger.WarnContext(ctx, "audit emit failed", "action", action, "error", err)
	}
}

func subjectOf(userID int64) string {
	return fmt.Sprintf("user:%d", userID)
}
