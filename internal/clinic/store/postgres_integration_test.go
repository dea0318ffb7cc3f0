//go:build integration

package store_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"clinica/internal/clinic/models"
	"clinica/internal/clinic/store"
	"clinica/pkg/platform/sentinel"
	"clinica/pkg/testutil/containers"
)

type PostgresStoreSuite struct {
	suite.Suite
	postgres  *containers.PostgresContainer
	persons   *store.PostgresPersonStore
	patients  *store.PostgresPatientStore
	providers *store.PostgresProviderStore
}

func TestPostgresStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresStoreSuite))
}

func (s *PostgresStoreSuite) SetupSuite() {
	s.postgres = containers.NewPostgresContainer(s.T())
	s.persons = store.NewPostgresPersonStore(s.postgres.DB)
	s.patients = store.NewPostgresPatientStore(s.postgres.DB)
	s.providers = store.NewPostgresProviderStore(s.postgres.DB)
}

func (s *PostgresStoreSuite) SetupTest() {
	ctx := context.Background()
	err := s.postgres.TruncateTables(ctx, "appointment", "patient", "provider", "person")
	s.Require().NoError(err)
}

func (s *PostgresStoreSuite) createPerson(document string) *models.Person {
	person := &models.Person{
		Name:        "Carlos Lima",
		BirthDate:   time.Date(1985, 7, 20, 0, 0, 0, 0, time.UTC),
		Document:    document,
		Gender:      models.GenderMale,
		PhoneNumber: "+55 21 98888-0002",
		Email:       "carlos@example.com",
		CreatedAt:   time.Now().UTC().Truncate(time.Microsecond),
	}
	s.Require().NoError(s.persons.Create(context.Background(), person))
	return person
}

func (s *PostgresStoreSuite) TestPersonRoundTrip() {
	ctx := context.Background()
	person := s.createPerson("123.456.789-00")
	s.NotZero(person.ID)

	got, err := s.persons.Get(ctx, person.ID)
	s.Require().NoError(err)
	s.Equal(person.Document, got.Document)
	s.Equal(person.Gender, got.Gender)
	s.Nil(got.DeletedAt)

	got.Name = "Carlos A. Lima"
	stamped := time.Now().UTC().Truncate(time.Microsecond)
	got.ApplySoftDelete(stamped)
	s.Require().NoError(s.persons.Update(ctx, got))

	again, err := s.persons.Get(ctx, person.ID)
	s.Require().NoError(err)
	s.Equal("Carlos A. Lima", again.Name)
	s.NotNil(again.DeletedAt)
}

func (s *PostgresStoreSuite) TestPersonDocumentUniqueness() {
	ctx := context.Background()
	s.createPerson("123.456.789-00")

	dup := &models.Person{
		Name:        "Someone Else",
		BirthDate:   time.Date(1992, 1, 1, 0, 0, 0, 0, time.UTC),
		Document:    "123.456.789-00",
		Gender:      models.GenderNotAnnounced,
		PhoneNumber: "+55 11 90000-0000",
		Email:       "other@example.com",
		CreatedAt:   time.Now().UTC(),
	}
	s.ErrorIs(s.persons.Create(ctx, dup), sentinel.ErrConflict)
}

func (s *PostgresStoreSuite) TestPersonGetByDocumentPrefersActive() {
	ctx := context.Background()

	dead := s.createPerson("999.888.777-66")
	dead.ApplySoftDelete(time.Now().UTC().Truncate(time.Microsecond))
	s.Require().NoError(s.persons.Update(ctx, dead))

	alive := s.createPerson("999.888.777-66")

	got, err := s.persons.GetByDocument(ctx, "999.888.777-66")
	s.Require().NoError(err)
	s.Equal(alive.ID, got.ID)
	s.Nil(got.DeletedAt)
}

func (s *PostgresStoreSuite) TestPatientLifecycle() {
	ctx := context.Background()
	person := s.createPerson("123.456.789-00")

	patient := &models.Patient{
		PersonID:            person.ID,
		MedicalRecordNumber: uuid.New(),
		InsuranceProvider:   models.InsuranceAmil,
		OrganDonor:          true,
		CreatedAt:           time.Now().UTC().Truncate(time.Microsecond),
	}
	s.Require().NoError(s.patients.Create(ctx, patient))
	s.NotZero(patient.ID)

	s.Run("partial unique index blocks a second active row", func() {
		second := &models.Patient{
			PersonID:            person.ID,
			MedicalRecordNumber: uuid.New(),
			InsuranceProvider:   models.InsuranceUnimed,
			CreatedAt:           time.Now().UTC(),
		}
		s.ErrorIs(s.patients.Create(ctx, second), sentinel.ErrConflict)
	})

	s.Run("active lookups and list see the row", func() {
		got, err := s.patients.GetActiveByPerson(ctx, person.ID)
		s.Require().NoError(err)
		s.Equal(patient.ID, got.ID)
		s.Equal(patient.MedicalRecordNumber, got.MedicalRecordNumber)
		s.True(got.OrganDonor)

		listed, err := s.patients.ListActive(ctx)
		s.Require().NoError(err)
		s.Len(listed, 1)
	})

	s.Run("soft delete frees the person for a new row", func() {
		patient.ApplySoftDelete(time.Now().UTC().Truncate(time.Microsecond))
		s.Require().NoError(s.patients.Update(ctx, patient))

		_, err := s.patients.GetActive(ctx, patient.ID)
		s.ErrorIs(err, sentinel.ErrNotFound)

		replacement := &models.Patient{
			PersonID:            person.ID,
			MedicalRecordNumber: uuid.New(),
			InsuranceProvider:   models.InsuranceParticular,
			CreatedAt:           time.Now().UTC().Truncate(time.Microsecond),
		}
		s.NoError(s.patients.Create(ctx, replacement))
		s.NotEqual(patient.ID, replacement.ID)
	})
}

func (s *PostgresStoreSuite) TestProviderLifecycle() {
	ctx := context.Background()
	person := s.createPerson("123.456.789-00")

	notes := "mornings only until March"
	provider := &models.Provider{
		PersonID:          person.ID,
		Specialty:         models.SpecialtyPhysiotherapy,
		WorkShift:         models.ShiftMorning,
		LicenseNumber:     "CREFITO-4321",
		Active:            true,
		AvailabilityNotes: &notes,
		CreatedAt:         time.Now().UTC().Truncate(time.Microsecond),
	}
	s.Require().NoError(s.providers.Create(ctx, provider))

	got, err := s.providers.GetActive(ctx, provider.ID)
	s.Require().NoError(err)
	s.Equal(models.SpecialtyPhysiotherapy, got.Specialty)
	s.Require().NotNil(got.AvailabilityNotes)
	s.Equal(notes, *got.AvailabilityNotes)

	got.WorkShift = models.ShiftFullDay
	got.AvailabilityNotes = nil
	s.Require().NoError(s.providers.Update(ctx, got))

	again, err := s.providers.GetActive(ctx, provider.ID)
	s.Require().NoError(err)
	s.Equal(models.ShiftFullDay, again.WorkShift)
	s.Nil(again.AvailabilityNotes)
}
