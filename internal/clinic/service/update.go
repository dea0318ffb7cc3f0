package service

import (
	"context"
	"errors"

	"go.opentelemetry.io/otel/attribute"

	"clinica/internal/clinic/models"
	dErrors "clinica/pkg/domain-errors"
	"clinica/pkg/platform/audit"
	"clinica/pkg/platform/sentinel"
)

// UpdatePatient applies a sparse update to a patient and its identity
// record. A request with no fields set is a no-op returning current state.
func (s *Service) UpdatePatient(ctx context.Context, id int64, req models.UpdatePatientRequest) (*models.PatientView, error) {
	ctx, span := s.tracer.Start(ctx, "clinic.UpdatePatient")
	defer span.End()
	span.SetAttributes(attribute.Int64("patient.id", id))

	if err := req.Validate(); err != nil {
		return nil, err
	}

	var view *models.PatientView
	err := s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		patient, err := s.patients.GetActive(txCtx, id)
		if err != nil {
			return wrapStoreErr(err, "patient")
		}
		person, err := s.persons.Get(txCtx, patient.PersonID)
		if err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to load identity record")
		}

		if !req.Apply(person, patient) {
			view = &models.PatientView{Patient: *patient, Person: *person}
			return nil
		}

		if err := s.persons.Update(txCtx, person); err != nil {
			if errors.Is(err, sentinel.ErrConflict) {
				return dErrors.New(dErrors.CodeConflict, "document is held by another active person")
			}
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to update person")
		}
		if err := s.patients.Update(txCtx, patient); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to update patient")
		}

		s.emitAudit(txCtx, audit.ActionPatientUpdated, subjectOf("patient", patient.ID), "")

		view = &models.PatientView{Patient: *patient, Person: *person}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return view, nil
}

// UpdateProvider applies a sparse update to a provider and its identity
// record, same rules as UpdatePatient.
func (s *Service) UpdateProvider(ctx context.Context, id int64, req models.UpdateProviderRequest) (*models.ProviderView, error) {
	ctx, span := s.tracer.Start(ctx, "clinic.UpdateProvider")
	defer span.End()
	span.SetAttributes(attribute.Int64("provider.id", id))

	if err := req.Validate(); err != nil {
		return nil, err
	}

	var view *models.ProviderView
	err := s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		provider, err := s.providers.GetActive(txCtx, id)
		if err != nil {
			return wrapStoreErr(err, "provider")
		}
		person, err := s.persons.Get(txCtx, provider.PersonID)
		if err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to load identity record")
		}

		if !req.Apply(person, provider) {
			view = &models.ProviderView{Provider: *provider, Person: *person}
			return nil
		}

		if err := s.persons.Update(txCtx, person); err != nil {
			if errors.Is(err, sentinel.ErrConflict) {
				return dErrors.New(dErrors.CodeConflict, "document is held by another active person")
			}
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to update person")
		}
		if err := s.providers.Update(txCtx, provider); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to update provider")
		}

		s.emitAudit(txCtx, audit.ActionProviderUpdated, subjectOf("provider", provider.ID), "")

		view = &models.ProviderView{Provider: *provider, Person: *person}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return view, nil
}
