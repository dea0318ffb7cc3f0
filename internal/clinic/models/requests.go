package models

import (
	"time"

	dErrors "clinica/pkg/domain-errors"
)

// PersonDetails carries the identity fields shared by both registration
// payloads.
type PersonDetails struct {
	Name        string    `json:"name"`
	BirthDate   time.Time `json:"birth_date"`
	Gender      Gender    `json:"gender"`
	Document    string    `json:"document"`
	PhoneNumber string    `json:"phone_number"`
	Email       string    `json:"email"`
}

func (d PersonDetails) validate() error {
	if d.Document == "" {
		return dErrors.New(dErrors.CodeBadRequest, "document is required")
	}
	if d.Name == "" {
		return dErrors.New(dErrors.CodeBadRequest, "name is required")
	}
	if !d.Gender.Valid() {
		return dErrors.New(dErrors.CodeBadRequest, "invalid gender option")
	}
	if d.PhoneNumber == "" {
		return dErrors.New(dErrors.CodeBadRequest, "phone_number is required")
	}
	if d.Email == "" {
		return dErrors.New(dErrors.CodeBadRequest, "email is required")
	}
	return nil
}

// RegisterPatientRequest is the payload for patient registration.
type RegisterPatientRequest struct {
	PersonDetails
	InsuranceProvider InsuranceProvider `json:"insurance_provider"`
	InsuranceNumber   *string           `json:"insurance_number,omitempty"`
	BloodType         *string           `json:"blood_type,omitempty"`
	OrganDonor        bool              `json:"organ_donor"`
	EmergencyContact  *string           `json:"emergency_contact,omitempty"`
	EmergencyPhone    *string           `json:"emergency_phone,omitempty"`
}

func (r RegisterPatientRequest) Validate() error {
	if err := r.PersonDetails.validate(); err != nil {
		return err
	}
	if !r.InsuranceProvider.Valid() {
		return dErrors.New(dErrors.CodeBadRequest, "invalid insurance provider option")
	}
	return nil
}

// RegisterProviderRequest is the payload for provider registration.
type RegisterProviderRequest struct {
	PersonDetails
	Specialty         Specialty `json:"specialty"`
	WorkShift         WorkShift `json:"work_shift"`
	LicenseNumber     string    `json:"license_number"`
	Active            bool      `json:"active"`
	AvailabilityNotes *string   `json:"availability_notes,omitempty"`
}

func (r RegisterProviderRequest) Validate() error {
	if err := r.PersonDetails.validate(); err != nil {
		return err
	}
	if !r.Specialty.Valid() {
		return dErrors.New(dErrors.CodeBadRequest, "invalid specialty option")
	}
	if !r.WorkShift.Valid() {
		return dErrors.New(dErrors.CodeBadRequest, "invalid work shift option")
	}
	if r.LicenseNumber == "" {
		return dErrors.New(dErrors.CodeBadRequest, "license_number is required")
	}
	return nil
}

// UpdatePatientRequest is a sparse update: only non-nil fields are applied.
// Field ownership is fixed here rather than resolved by reflection, so an
// unknown field is a decode error instead of a silent runtime assignment.
type UpdatePatientRequest struct {
	// Person-owned fields.
	Name        *string    `json:"name,omitempty"`
	BirthDate   *time.Time `json:"birth_date,omitempty"`
	Gender      *Gender    `json:"gender,omitempty"`
	Document    *string    `json:"document,omitempty"`
	PhoneNumber *string    `json:"phone_number,omitempty"`
	Email       *string    `json:"email,omitempty"`

	// Patient-owned fields.
	InsuranceProvider *InsuranceProvider `json:"insurance_provider,omitempty"`
	InsuranceNumber   *string            `json:"insurance_number,omitempty"`
	BloodType         *string            `json:"blood_type,omitempty"`
	OrganDonor        *bool              `json:"organ_donor,omitempty"`
	EmergencyContact  *string            `json:"emergency_contact,omitempty"`
	EmergencyPhone    *string            `json:"emergency_phone,omitempty"`
}

func (r UpdatePatientRequest) Validate() error {
	if r.Gender != nil && !r.Gender.Valid() {
		return dErrors.New(dErrors.CodeBadRequest, "invalid gender option")
	}
	if r.InsuranceProvider != nil && !r.InsuranceProvider.Valid() {
		return dErrors.New(dErrors.CodeBadRequest, "invalid insurance provider option")
	}
	if r.Document != nil && *r.Document == "" {
		return dErrors.New(dErrors.CodeBadRequest, "document cannot be empty")
	}
	return nil
}

// Apply merges the set fields into the person and patient records and
// reports whether anything changed.
func (r UpdatePatientRequest) Apply(person *Person, patient *Patient) bool {
	changed := applyPersonFields(person,
		r.Name, r.BirthDate, r.Gender, r.Document, r.PhoneNumber, r.Email)

	if r.InsuranceProvider != nil {
		patient.InsuranceProvider = *r.InsuranceProvider
		changed = true
	}
	if r.InsuranceNumber != nil {
		patient.InsuranceNumber = r.InsuranceNumber
		changed = true
	}
	if r.BloodType != nil {
		patient.BloodType = r.BloodType
		changed = true
	}
	if r.OrganDonor != nil {
		patient.OrganDonor = *r.OrganDonor
		changed = true
	}
	if r.EmergencyContact != nil {
		patient.EmergencyContact = r.EmergencyContact
		changed = true
	}
	if r.EmergencyPhone != nil {
		patient.EmergencyPhone = r.EmergencyPhone
		changed = true
	}
	return changed
}

// UpdateProviderRequest is a sparse update for providers, same merge rules
// as UpdatePatientRequest.
type UpdateProviderRequest struct {
	// Person-owned fields.
	Name        *string    `json:"name,omitempty"`
	BirthDate   *time.Time `json:"birth_date,omitempty"`
	Gender      *Gender    `json:"gender,omitempty"`
	Document    *string    `json:"document,omitempty"`
	PhoneNumber *string    `json:"phone_number,omitempty"`
	Email       *string    `json:"email,omitempty"`

	// Provider-owned fields.
	Specialty         *Specialty `json:"specialty,omitempty"`
	WorkShift         *WorkShift `json:"work_shift,omitempty"`
	LicenseNumber     *string    `json:"license_number,omitempty"`
	Active            *bool      `json:"active,omitempty"`
	AvailabilityNotes *string    `json:"availability_notes,omitempty"`
}

func (r UpdateProviderRequest) Validate() error {
	if r.Gender != nil && !r.Gender.Valid() {
		return dErrors.New(dErrors.CodeBadRequest, "invalid gender option")
	}
	if r.Specialty != nil && !r.Specialty.Valid() {
		return dErrors.New(dErrors.CodeBadRequest, "invalid specialty option")
	}
	if r.WorkShift != nil && !r.WorkShift.Valid() {
		return dErrors.New(dErrors.CodeBadRequest, "invalid work shift option")
	}
	if r.Document != nil && *r.Document == "" {
		return dErrors.New(dErrors.CodeBadRequest, "document cannot be empty")
	}
	if r.LicenseNumber != nil && *r.LicenseNumber == "" {
		return dErrors.New(dErrors.CodeBadRequest, "license_number cannot be empty")
	}
	return nil
}

// Apply merges the set fields into the person and provider records and
// reports whether anything changed.
func (r UpdateProviderRequest) Apply(person *Person, provider *Provider) bool {
	changed := applyPersonFields(person,
		r.Name, r.BirthDate, r.Gender, r.Document, r.PhoneNumber, r.Email)

	if r.Specialty != nil {
		provider.Specialty = *r.Specialty
		changed = true
	}
	if r.WorkShift != nil {
		provider.WorkShift = *r.WorkShift
		changed = true
	}
	if r.LicenseNumber != nil {
		provider.LicenseNumber = *r.LicenseNumber
		changed = true
	}
	if r.Active != nil {
		provider.Active = *r.Active
		changed = true
	}
	if r.AvailabilityNotes != nil {
		provider.AvailabilityNotes = r.AvailabilityNotes
		changed = true
	}
	return changed
}

// applyPersonFields is the single place that knows which update fields
// belong to the Person record.
func applyPersonFields(person *Person, name *string, birthDate *time.Time, gender *Gender, document, phone, email *string) bool {
	changed := false
	if name != nil {
		person.Name = *name
		changed = true
	}
	if birthDate != nil {
		person.BirthDate = *birthDate
		changed = true
	}
	if gender != nil {
		person.Gender = *gender
		changed = true
	}
	if document != nil {
		person.Document = *document
		changed = true
	}
	if phone != nil {
		person.PhoneNumber = *phone
		changed = true
	}
	if email != nil {
		person.Email = *email
		changed = true
	}
	return changed
}
