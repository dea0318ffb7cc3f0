package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	"clinica/internal/clinic/models"
	dErrors "clinica/pkg/domain-errors"
	"clinica/pkg/platform/audit"
	"clinica/pkg/platform/sentinel"
	"clinica/pkg/requestcontext"
)

// RegisterPatient creates a patient role record, reconciling the identity by
// document: an unknown document creates a fresh person, a soft-deleted one
// is reactivated, and an active one is reused. A document already holding an
// active patient role is a conflict.
func (s *Service) RegisterPatient(ctx context.Context, req models.RegisterPatientRequest) (*models.PatientView, error) {
	ctx, span := s.tracer.Start(ctx, "clinic.RegisterPatient")
	defer span.End()

	if err := req.Validate(); err != nil {
		return nil, err
	}

	var (
		view        *models.PatientView
		reactivated bool
	)
	err := s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		now := requestcontext.Now(txCtx)

		person, wasReactivated, err := s.resolvePerson(txCtx, req.PersonDetails, now, func(personID int64) error {
			if _, err := s.patients.GetActiveByPerson(txCtx, personID); err == nil {
				return dErrors.New(dErrors.CodeConflict, "an active patient already exists for this document")
			} else if !errors.Is(err, sentinel.ErrNotFound) {
				return dErrors.Wrap(err, dErrors.CodeInternal, "failed to check existing patient role")
			}
			return nil
		})
		if err != nil {
			return err
		}
		reactivated = wasReactivated

		patient := &models.Patient{
			PersonID:            person.ID,
			MedicalRecordNumber: uuid.New(),
			InsuranceProvider:   req.InsuranceProvider,
			InsuranceNumber:     req.InsuranceNumber,
			BloodType:           req.BloodType,
			OrganDonor:          req.OrganDonor,
			EmergencyContact:    req.EmergencyContact,
			EmergencyPhone:      req.EmergencyPhone,
			CreatedAt:           now,
		}
		if err := s.patients.Create(txCtx, patient); err != nil {
			if errors.Is(err, sentinel.ErrConflict) {
				return dErrors.New(dErrors.CodeConflict, "an active patient already exists for this document")
			}
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to create patient")
		}

		s.emitAudit(txCtx, audit.ActionPatientRegistered,
			subjectOf("patient", patient.ID),
			fmt.Sprintf("person %d, record %s", person.ID, patient.MedicalRecordNumber))

		view = &models.PatientView{Patient: *patient, Person: *person}
		return nil
	})
	if err != nil {
		return nil, err
	}

	span.SetAttributes(
		attribute.Int64("patient.id", view.Patient.ID),
		attribute.Bool("person.reactivated", reactivated),
	)
	if s.metrics != nil {
		s.metrics.PatientsRegistered.Inc()
		if reactivated {
			s.metrics.PersonsReactivated.Inc()
		}
	}
	return view, nil
}

// RegisterProvider creates a provider role record with the same identity
// reconciliation rules as RegisterPatient.
func (s *Service) RegisterProvider(ctx context.Context, req models.RegisterProviderRequest) (*models.ProviderView, error) {
	ctx, span := s.tracer.Start(ctx, "clinic.RegisterProvider")
	defer span.End()

	if err := req.Validate(); err != nil {
		return nil, err
	}

	var (
		view        *models.ProviderView
		reactivated bool
	)
	err := s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		now := requestcontext.Now(txCtx)

		person, wasReactivated, err := s.resolvePerson(txCtx, req.PersonDetails, now, func(personID int64) error {
			if _, err := s.providers.GetActiveByPerson(txCtx, personID); err == nil {
				return dErrors.New(dErrors.CodeConflict, "an active provider already exists for this document")
			} else if !errors.Is(err, sentinel.ErrNotFound) {
				return dErrors.Wrap(err, dErrors.CodeInternal, "failed to check existing provider role")
			}
			return nil
		})
		if err != nil {
			return err
		}
		reactivated = wasReactivated

		provider := &models.Provider{
			PersonID:          person.ID,
			Specialty:         req.Specialty,
			WorkShift:         req.WorkShift,
			LicenseNumber:     req.LicenseNumber,
			Active:            req.Active,
			AvailabilityNotes: req.AvailabilityNotes,
			CreatedAt:         now,
		}
		if err := s.providers.Create(txCtx, provider); err != nil {
			if errors.Is(err, sentinel.ErrConflict) {
				return dErrors.New(dErrors.CodeConflict, "an active provider already exists for this document")
			}
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to create provider")
		}

		s.emitAudit(txCtx, audit.ActionProviderRegistered,
			subjectOf("provider", provider.ID),
			fmt.Sprintf("person %d, license %s", person.ID, provider.LicenseNumber))

		view = &models.ProviderView{Provider: *provider, Person: *person}
		return nil
	})
	if err != nil {
		return nil, err
	}

	span.SetAttributes(
		attribute.Int64("provider.id", view.Provider.ID),
		attribute.Bool("person.reactivated", reactivated),
	)
	if s.metrics != nil {
		s.metrics.ProvidersRegistered.Inc()
		if reactivated {
			s.metrics.PersonsReactivated.Inc()
		}
	}
	return view, nil
}

// resolvePerson finds or creates the identity record for a registration.
// checkRole runs against an existing person before any mutation so a
// duplicate active role aborts without side effects. Reports whether a
// soft-deleted person was reactivated.
func (s *Service) resolvePerson(ctx context.Context, details models.PersonDetails, now time.Time, checkRole func(personID int64) error) (*models.Person, bool, error) {
	existing, err := s.persons.GetByDocument(ctx, details.Document)
	if err != nil {
		if !errors.Is(err, sentinel.ErrNotFound) {
			return nil, false, dErrors.Wrap(err, dErrors.CodeInternal, "failed to look up identity record")
		}

		person, err := models.NewPerson(details.Name, details.BirthDate, details.Document,
			details.Gender, details.PhoneNumber, details.Email, now)
		if err != nil {
			return nil, false, err
		}
		if err := s.persons.Create(ctx, person); err != nil {
			if errors.Is(err, sentinel.ErrConflict) {
				// Lost a race with a concurrent registration for the same
				// document.
				return nil, false, dErrors.New(dErrors.CodeConflict, "a person with this document was just registered")
			}
			return nil, false, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create person")
		}
		s.emitAudit(ctx, audit.ActionPersonCreated, subjectOf("person", person.ID), "document matched no existing record")
		return person, false, nil
	}

	if err := checkRole(existing.ID); err != nil {
		return nil, false, err
	}

	if !existing.IsActive() {
		// The identity comes back from the dead with the details from the
		// new registration; the old ones may be years stale.
		existing.Name = details.Name
		existing.BirthDate = details.BirthDate
		existing.Gender = details.Gender
		existing.PhoneNumber = details.PhoneNumber
		existing.Email = details.Email
		existing.ApplyReactivation()
		if err := s.persons.Update(ctx, existing); err != nil {
			return nil, false, dErrors.Wrap(err, dErrors.CodeInternal, "failed to reactivate person")
		}
		s.emitAudit(ctx, audit.ActionPersonReactivated, subjectOf("person", existing.ID), "re-registration by document")
		return existing, true, nil
	}

	return existing, false, nil
}
