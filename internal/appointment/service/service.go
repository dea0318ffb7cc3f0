// Package service implements the appointment ledger: scheduling against
// active patients and providers, sparse updates, and the active-appointment
// checks that guard role deletion.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"clinica/internal/appointment/models"
	"clinica/internal/appointment/store"
	clinicmodels "clinica/internal/clinic/models"
	"clinica/internal/platform/metrics"
	dErrors "clinica/pkg/domain-errors"
	"clinica/pkg/platform/audit"
	"clinica/pkg/platform/sentinel"
	"clinica/pkg/requestcontext"
)

// PatientDirectory resolves patient role records in any lifecycle state.
type PatientDirectory interface {
	Get(ctx context.Context, id int64) (*clinicmodels.Patient, error)
}

// ProviderDirectory resolves provider role records in any lifecycle state.
type ProviderDirectory interface {
	Get(ctx context.Context, id int64) (*clinicmodels.Provider, error)
}

// AuditPublisher records administrative actions.
type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

// Service orchestrates the appointment lifecycle.
type Service struct {
	appointments store.Store
	patients     PatientDirectory
	providers    ProviderDirectory

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

// New constructs a Service.
func New(appointments store.Store, patients PatientDirectory, providers ProviderDirectory, opts ...Option) *Service {
	s := &Service{
		appointments: appointments,
		patients:     patients,
		providers:    providers,
		tracer:       otel.Tracer("clinica/appointment"),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	return s
}

// Create schedules an appointment. Both sides must exist and be active; the
// two lookups run concurrently and the first failure cancels the other.
func (s *Service) Create(ctx context.Context, req models.CreateRequest) (*models.Appointment, error) {
	ctx, span := s.tracer.Start(ctx, "appointment.Create")
	defer span.End()

	if err := req.Validate(); err != nil {
		return nil, err
	}

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		patient, err := s.patients.Get(gCtx, req.PatientID)
		if err != nil {
			if errors.Is(err, sentinel.ErrNotFound) {
				return dErrors.New(dErrors.CodeNotFound, "patient not found")
			}
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to load patient")
		}
		if !patient.IsActive() {
			return dErrors.New(dErrors.CodeConflict, "patient is deleted")
		}
		return nil
	})
	g.Go(func() error {
		provider, err := s.providers.Get(gCtx, req.ProviderID)
		if err != nil {
			if errors.Is(err, sentinel.ErrNotFound) {
				return dErrors.New(dErrors.CodeNotFound, "provider not found")
			}
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to load provider")
		}
		if !provider.IsActive() {
			return dErrors.New(dErrors.CodeConflict, "provider is deleted")
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	appointment := &models.Appointment{
		PatientID:  req.PatientID,
		ProviderID: req.ProviderID,
		DateHour:   req.DateHour,
		Status:     models.StatusScheduled,
		Reason:     req.Reason,
		Notes:      req.Notes,
		CreatedAt:  requestcontext.Now(ctx),
	}
	if err := s.appointments.Create(ctx, appointment); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create appointment")
	}

	span.SetAttributes(attribute.Int64("appointment.id", appointment.ID))
	s.emitAudit(ctx, audit.ActionAppointmentCreated,
		fmt.Sprintf("appointment:%d", appointment.ID),
		fmt.Sprintf("patient %d with provider %d", appointment.PatientID, appointment.ProviderID))
	if s.metrics != nil {
		s.metrics.AppointmentsCreated.Inc()
	}
	return appointment, nil
}

// Get returns one appointment, terminal or not.
func (s *Service) Get(ctx context.Context, id int64) (*models.Appointment, error) {
	ctx, span := s.tracer.Start(ctx, "appointment.Get")
	defer span.End()

	appointment, err := s.appointments.Get(ctx, id)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "appointment not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load appointment")
	}
	return appointment, nil
}

// List returns the full ledger, including terminal history.
func (s *Service) List(ctx context.Context) ([]*models.Appointment, error) {
	ctx, span := s.tracer.Start(ctx, "appointment.List")
	defer span.End()

	appointments, err := s.appointments.List(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list appointments")
	}
	return appointments, nil
}

// Update applies a sparse update. Terminal appointments are immutable
// history; an active one may move to any status, including straight to a
// terminal one. A provider change is validated like scheduling.
func (s *Service) Update(ctx context.Context, id int64, req models.UpdateRequest) (*models.Appointment, error) {
	ctx, span := s.tracer.Start(ctx, "appointment.Update")
	defer span.End()
	span.SetAttributes(attribute.Int64("appointment.id", id))

	if err := req.Validate(); err != nil {
		return nil, err
	}

	appointment, err := s.appointments.Get(ctx, id)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "appointment not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load appointment")
	}
	if appointment.Status.Terminal() {
		return nil, dErrors.New(dErrors.CodeConflict, "appointment is in a terminal status")
	}

	if req.ProviderID != nil && *req.ProviderID != appointment.ProviderID {
		provider, err := s.providers.Get(ctx, *req.ProviderID)
		if err != nil {
			if errors.Is(err, sentinel.ErrNotFound) {
				return nil, dErrors.New(dErrors.CodeNotFound, "provider not found")
			}
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load provider")
		}
		if !provider.IsActive() {
			return nil, dErrors.New(dErrors.CodeConflict, "provider is deleted")
		}
	}

	if !req.Apply(appointment) {
		return appointment, nil
	}
	if err := s.appointments.Update(ctx, appointment); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to update appointment")
	}

	s.emitAudit(ctx, audit.ActionAppointmentUpdated,
		fmt.Sprintf("appointment:%d", appointment.ID),
		fmt.Sprintf("status %s", appointment.Status))
	return appointment, nil
}

// HasActiveForPatient reports a non-terminal appointment for the patient.
// Used by the deletion guard.
func (s *Service) HasActiveForPatient(ctx context.Context, patientID int64) (bool, error) {
	return s.appointments.HasActiveForPatient(ctx, patientID)
}

// HasActiveForProvider reports a non-terminal appointment for the provider.
func (s *Service) HasActiveForProvider(ctx context.Context, providerID int64) (bool, error) {
	return s.appointments.HasActiveForProvider(ctx, providerID)
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
