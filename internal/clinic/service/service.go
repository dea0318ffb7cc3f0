// Package service implements the administrative lifecycle of patients and
// providers: registration with identity reconciliation, sparse updates,
// and guarded soft deletes.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"clinica/internal/clinic/models"
	"clinica/internal/clinic/store"
	"clinica/internal/platform/metrics"
	dErrors "clinica/pkg/domain-errors"
	"clinica/pkg/platform/audit"
	"clinica/pkg/platform/sentinel"
	"clinica/pkg/requestcontext"
)

// AppointmentGuard answers whether a role record is still referenced by an
// appointment that has not reached a terminal status.
type AppointmentGuard interface {
	HasActiveForPatient(ctx context.Context, patientID int64) (bool, error)
	HasActiveForProvider(ctx context.Context, providerID int64) (bool, error)
}

// AuditPublisher records administrative actions.
type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

// Service orchestrates patient and provider lifecycle management.
type Service struct {
	persons      store.PersonStore
	patients     store.PatientStore
	providers    store.ProviderStore
	appointments AppointmentGuard

	tx        StoreTx
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

// WithTx sets the transactional boundary; defaults to the in-memory lock.
func WithTx(tx StoreTx) Option {
	return func(s *Service) { s.tx = tx }
}

// New constructs a Service.
func New(persons store.PersonStore, patients store.PatientStore, providers store.ProviderStore, appointments AppointmentGuard, opts ...Option) *Service {
	s := &Service{
		persons:      persons,
		patients:     patients,
		providers:    providers,
		appointments: appointments,
		tracer:       otel.Tracer("clinica/clinic"),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.tx == nil {
		s.tx = NewInMemoryStoreTx()
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	return s
}

// GetPatient returns an active patient together with its identity record.
func (s *Service) GetPatient(ctx context.Context, id int64) (*models.PatientView, error) {
	ctx, span := s.tracer.Start(ctx, "clinic.GetPatient")
	defer span.End()

	patient, err := s.patients.GetActive(ctx, id)
	if err != nil {
		return nil, wrapStoreErr(err, "patient")
	}
	person, err := s.persons.Get(ctx, patient.PersonID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load identity record")
	}
	return &models.PatientView{Patient: *patient, Person: *person}, nil
}

// ListPatients returns all active patients with their identity records.
func (s *Service) ListPatients(ctx context.Context) ([]models.PatientView, error) {
	ctx, span := s.tracer.Start(ctx, "clinic.ListPatients")
	defer span.End()

	patients, err := s.patients.ListActive(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list patients")
	}
	views := make([]models.PatientView, 0, len(patients))
	for _, patient := range patients {
		person, err := s.persons.Get(ctx, patient.PersonID)
		if err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load identity record")
		}
		views = append(views, models.PatientView{Patient: *patient, Person: *person})
	}
	return views, nil
}

// GetProvider returns an active provider together with its identity record.
func (s *Service) GetProvider(ctx context.Context, id int64) (*models.ProviderView, error) {
	ctx, span := s.tracer.Start(ctx, "clinic.GetProvider")
	defer span.End()

	provider, err := s.providers.GetActive(ctx, id)
	if err != nil {
		return nil, wrapStoreErr(err, "provider")
	}
	person, err := s.persons.Get(ctx, provider.PersonID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load identity record")
	}
	return &models.ProviderView{Provider: *provider, Person: *person}, nil
}

// ListProviders returns all active providers with their identity records.
func (s *Service) ListProviders(ctx context.Context) ([]models.ProviderView, error) {
	ctx, span := s.tracer.Start(ctx, "clinic.ListProviders")
	defer span.End()

	providers, err := s.providers.ListActive(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list providers")
	}
	views := make([]models.ProviderView, 0, len(providers))
	for _, provider := range providers {
		person, err := s.persons.Get(ctx, provider.PersonID)
		if err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load identity record")
		}
		views = append(views, models.ProviderView{Provider: *provider, Person: *person})
	}
	return views, nil
}

// wrapStoreErr translates sentinel store errors into domain errors naming
// the entity.
func wrapStoreErr(err error, entity string) error {
	switch {
	case errors.Is(err, sentinel.ErrNotFound):
		return dErrors.New(dErrors.CodeNotFound, entity+" not found")
	case errors.Is(err, sentinel.ErrConflict):
		return dErrors.New(dErrors.CodeConflict, entity+" already exists")
	default:
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to load "+entity)
	}
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

func subjectOf(entity string, id int64) string {
	return fmt.Sprintf("%s:%d", entity, id)
}
