package service

import (
	"context"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel/attribute"

	dErrors "clinica/pkg/domain-errors"
	"clinica/pkg/platform/audit"
	"clinica/pkg/platform/sentinel"
	"clinica/pkg/requestcontext"
)

// DeletePatient soft-deletes a patient. The delete is refused while the
// patient has an appointment in a non-terminal status. The identity record
// is stamped too, but only when no active provider role still references it.
func (s *Service) DeletePatient(ctx context.Context, id int64) error {
	ctx, span := s.tracer.Start(ctx, "clinic.DeletePatient")
	defer span.End()
	span.SetAttributes(attribute.Int64("patient.id", id))

	var blocked bool
	err := s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		patient, err := s.patients.GetActive(txCtx, id)
		if err != nil {
			return wrapStoreErr(err, "patient")
		}

		hasActive, err := s.appointments.HasActiveForPatient(txCtx, patient.ID)
		if err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to check appointments")
		}
		if hasActive {
			blocked = true
			return dErrors.New(dErrors.CodeConflict, "patient has active appointments")
		}

		now := requestcontext.Now(txCtx)
		patient.ApplySoftDelete(now)
		if err := s.patients.Update(txCtx, patient); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to delete patient")
		}

		if err := s.retirePersonIfUnreferenced(txCtx, patient.PersonID); err != nil {
			return err
		}

		s.emitAudit(txCtx, audit.ActionPatientDeleted, subjectOf("patient", patient.ID), "")
		return nil
	})
	if err != nil {
		if blocked {
			s.emitAudit(ctx, audit.ActionDeleteBlocked, subjectOf("patient", id), "active appointments")
			if s.metrics != nil {
				s.metrics.DeletesBlocked.Inc()
			}
		}
		return err
	}
	return nil
}

// DeleteProvider soft-deletes a provider under the same rules as
// DeletePatient.
func (s *Service) DeleteProvider(ctx context.Context, id int64) error {
	ctx, span := s.tracer.Start(ctx, "clinic.DeleteProvider")
	defer span.End()
	span.SetAttributes(attribute.Int64("provider.id", id))

	var blocked bool
	err := s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		provider, err := s.providers.GetActive(txCtx, id)
		if err != nil {
			return wrapStoreErr(err, "provider")
		}

		hasActive, err := s.appointments.HasActiveForProvider(txCtx, provider.ID)
		if err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to check appointments")
		}
		if hasActive {
			blocked = true
			return dErrors.New(dErrors.CodeConflict, "provider has active appointments")
		}

		now := requestcontext.Now(txCtx)
		provider.ApplySoftDelete(now)
		if err := s.providers.Update(txCtx, provider); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to delete provider")
		}

		if err := s.retirePersonIfUnreferenced(txCtx, provider.PersonID); err != nil {
			return err
		}

		s.emitAudit(txCtx, audit.ActionProviderDeleted, subjectOf("provider", provider.ID), "")
		return nil
	})
	if err != nil {
		if blocked {
			s.emitAudit(ctx, audit.ActionDeleteBlocked, subjectOf("provider", id), "active appointments")
			if s.metrics != nil {
				s.metrics.DeletesBlocked.Inc()
			}
		}
		return err
	}
	return nil
}

// retirePersonIfUnreferenced stamps the identity record once the last active
// role referencing it is gone. A person holding both roles stays active
// until both are deleted.
func (s *Service) retirePersonIfUnreferenced(ctx context.Context, personID int64) error {
	if _, err := s.patients.GetActiveByPerson(ctx, personID); err == nil {
		return nil
	} else if !errors.Is(err, sentinel.ErrNotFound) {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to check patient roles")
	}
	if _, err := s.providers.GetActiveByPerson(ctx, personID); err == nil {
		return nil
	} else if !errors.Is(err, sentinel.ErrNotFound) {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to check provider roles")
	}

	person, err := s.persons.Get(ctx, personID)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to load identity record")
	}
	if !person.IsActive() {
		return nil
	}
	person.ApplySoftDelete(requestcontext.Now(ctx))
	if err := s.persons.Update(ctx, person); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, fmt.Sprintf("failed to retire person %d", personID))
	}
	return nil
}
