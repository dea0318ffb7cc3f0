package store

import (
	"context"
	"testing"
	"time"

	"clinica/internal/clinic/models"
	"clinica/pkg/platform/sentinel"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"
)

type InMemoryStoreSuite struct {
	suite.Suite
	persons   *InMemoryPersonStore
	patients  *InMemoryPatientStore
	providers *InMemoryProviderStore
}

func TestInMemoryStoreSuite(t *testing.T) {
	suite.Run(t, new(InMemoryStoreSuite))
}

func (s *InMemoryStoreSuite) SetupTest() {
	s.persons = NewInMemoryPersonStore()
	s.patients = NewInMemoryPatientStore()
	s.providers = NewInMemoryProviderStore()
}

func (s *InMemoryStoreSuite) newPerson(document string) *models.Person {
	return &models.Person{
		Name:        "Ana Souza",
		BirthDate:   time.Date(1990, 3, 12, 0, 0, 0, 0, time.UTC),
		Document:    document,
		Gender:      models.GenderFemale,
		PhoneNumber: "+55 11 99999-0001",
		Email:       "ana@example.com",
		CreatedAt:   time.Date(2026, 1, 2, 9, 0, 0, 0, time.UTC),
	}
}

func (s *InMemoryStoreSuite) TestPersonCreate() {
	ctx := context.Background()

	s.Run("assigns sequential identifiers", func() {
		first := s.newPerson("111.111.111-11")
		second := s.newPerson("222.222.222-22")

		s.NoError(s.persons.Create(ctx, first))
		s.NoError(s.persons.Create(ctx, second))
		s.Equal(int64(1), first.ID)
		s.Equal(int64(2), second.ID)
	})

	s.Run("rejects a second active person with the same document", func() {
		dup := s.newPerson("111.111.111-11")
		err := s.persons.Create(ctx, dup)
		s.ErrorIs(err, sentinel.ErrConflict)
	})

	s.Run("allows reuse of a document held only by a tombstone", func() {
		stamped := time.Date(2026, 2, 1, 10, 0, 0, 0, time.UTC)
		existing, err := s.persons.GetByDocument(ctx, "111.111.111-11")
		s.Require().NoError(err)
		existing.ApplySoftDelete(stamped)
		s.Require().NoError(s.persons.Update(ctx, existing))

		fresh := s.newPerson("111.111.111-11")
		s.NoError(s.persons.Create(ctx, fresh))
	})
}

func (s *InMemoryStoreSuite) TestPersonGetByDocument() {
	ctx := context.Background()

	s.Run("unknown document reports not found", func() {
		_, err := s.persons.GetByDocument(ctx, "000.000.000-00")
		s.ErrorIs(err, sentinel.ErrNotFound)
	})

	s.Run("prefers the active row over tombstones", func() {
		stamped := time.Date(2026, 2, 1, 10, 0, 0, 0, time.UTC)
		dead := s.newPerson("333.333.333-33")
		s.Require().NoError(s.persons.Create(ctx, dead))
		dead.ApplySoftDelete(stamped)
		s.Require().NoError(s.persons.Update(ctx, dead))

		alive := s.newPerson("333.333.333-33")
		s.Require().NoError(s.persons.Create(ctx, alive))

		got, err := s.persons.GetByDocument(ctx, "333.333.333-33")
		s.NoError(err)
		s.Equal(alive.ID, got.ID)
		s.Nil(got.DeletedAt)
	})

	s.Run("returns the tombstone when no active row exists", func() {
		stamped := time.Date(2026, 2, 1, 10, 0, 0, 0, time.UTC)
		dead := s.newPerson("444.444.444-44")
		s.Require().NoError(s.persons.Create(ctx, dead))
		dead.ApplySoftDelete(stamped)
		s.Require().NoError(s.persons.Update(ctx, dead))

		got, err := s.persons.GetByDocument(ctx, "444.444.444-44")
		s.NoError(err)
		s.Equal(dead.ID, got.ID)
		s.NotNil(got.DeletedAt)
	})
}

func (s *InMemoryStoreSuite) TestPatientActiveScoping() {
	ctx := context.Background()
	person := s.newPerson("555.555.555-55")
	s.Require().NoError(s.persons.Create(ctx, person))

	patient := &models.Patient{
		PersonID:            person.ID,
		MedicalRecordNumber: uuid.New(),
		InsuranceProvider:   models.InsuranceUnimed,
		CreatedAt:           time.Date(2026, 1, 2, 9, 0, 0, 0, time.UTC),
	}
	s.Require().NoError(s.patients.Create(ctx, patient))

	s.Run("one active patient per person", func() {
		second := &models.Patient{
			PersonID:            person.ID,
			MedicalRecordNumber: uuid.New(),
			InsuranceProvider:   models.InsuranceAmil,
		}
		s.ErrorIs(s.patients.Create(ctx, second), sentinel.ErrConflict)
	})

	s.Run("active lookups find the row", func() {
		byID, err := s.patients.GetActive(ctx, patient.ID)
		s.NoError(err)
		s.Equal(patient.ID, byID.ID)

		byPerson, err := s.patients.GetActiveByPerson(ctx, person.ID)
		s.NoError(err)
		s.Equal(patient.ID, byPerson.ID)

		listed, err := s.patients.ListActive(ctx)
		s.NoError(err)
		s.Len(listed, 1)
	})

	s.Run("soft-deleted rows vanish from active lookups", func() {
		patient.ApplySoftDelete(time.Date(2026, 2, 1, 10, 0, 0, 0, time.UTC))
		s.Require().NoError(s.patients.Update(ctx, patient))

		_, err := s.patients.GetActive(ctx, patient.ID)
		s.ErrorIs(err, sentinel.ErrNotFound)

		_, err = s.patients.GetActiveByPerson(ctx, person.ID)
		s.ErrorIs(err, sentinel.ErrNotFound)

		listed, err := s.patients.ListActive(ctx)
		s.NoError(err)
		s.Empty(listed)
	})

	s.Run("a fresh row may replace the tombstone", func() {
		replacement := &models.Patient{
			PersonID:            person.ID,
			MedicalRecordNumber: uuid.New(),
			InsuranceProvider:   models.InsurancePorto,
		}
		s.NoError(s.patients.Create(ctx, replacement))
		s.NotEqual(patient.ID, replacement.ID)
	})
}

func (s *InMemoryStoreSuite) TestProviderActiveScoping() {
	ctx := context.Background()
	person := s.newPerson("666.666.666-66")
	s.Require().NoError(s.persons.Create(ctx, person))

	provider := &models.Provider{
		PersonID:      person.ID,
		Specialty:     models.SpecialtyCardiology,
		WorkShift:     models.ShiftMorning,
		LicenseNumber: "CRM-12345",
		Active:        true,
	}
	s.Require().NoError(s.providers.Create(ctx, provider))

	s.Run("one active provider per person", func() {
		second := &models.Provider{
			PersonID:      person.ID,
			Specialty:     models.SpecialtyNutrition,
			WorkShift:     models.ShiftAfternoon,
			LicenseNumber: "CRN-999",
		}
		s.ErrorIs(s.providers.Create(ctx, second), sentinel.ErrConflict)
	})

	s.Run("soft delete hides the row from active lookups", func() {
		provider.ApplySoftDelete(time.Date(2026, 2, 1, 10, 0, 0, 0, time.UTC))
		s.Require().NoError(s.providers.Update(ctx, provider))

		_, err := s.providers.GetActive(ctx, provider.ID)
		s.ErrorIs(err, sentinel.ErrNotFound)

		listed, err := s.providers.ListActive(ctx)
		s.NoError(err)
		s.Empty(listed)
	})
}

func (s *InMemoryStoreSuite) TestUpdateUnknownRow() {
	ctx := context.Background()

	s.ErrorIs(s.persons.Update(ctx, &models.Person{ID: 99}), sentinel.ErrNotFound)
	s.ErrorIs(s.patients.Update(ctx, &models.Patient{ID: 99}), sentinel.ErrNotFound)
	s.ErrorIs(s.providers.Update(ctx, &models.Provider{ID: 99}), sentinel.ErrNotFound)
}
