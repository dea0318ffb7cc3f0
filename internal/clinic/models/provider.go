package models

import "time"

// Specialty values accepted on provider records.
type Specialty string

const (
	SpecialtyPsychology    Specialty = "psychology"
	SpecialtyPhysiotherapy Specialty = "physiotherapy"
	SpecialtyNutrition     Specialty = "nutrition"
	SpecialtyCardiology    Specialty = "cardiology"
	SpecialtyDermatology   Specialty = "dermatology"
)

func (s Specialty) Valid() bool {
	switch s {
	case SpecialtyPsychology, SpecialtyPhysiotherapy, SpecialtyNutrition,
		SpecialtyCardiology, SpecialtyDermatology:
		return true
	}
	return false
}

// WorkShift values accepted on provider records.
type WorkShift string

const (
	ShiftMorning   WorkShift = "morning"
	ShiftAfternoon WorkShift = "afternoon"
	ShiftFullDay   WorkShift = "full_day"
)

func (w WorkShift) Valid() bool {
	switch w {
	case ShiftMorning, ShiftAfternoon, ShiftFullDay:
		return true
	}
	return false
}

// Provider is a role record referencing one Person, same lifecycle rules as
// Patient. Active is a scheduling flag set by the clinic and is independent
// of the soft-delete state.
type Provider struct {
	ID                int64      `json:"id"`
	PersonID          int64      `json:"person_id"`
	Specialty         Specialty  `json:"specialty"`
	WorkShift         WorkShift  `json:"work_shift"`
	LicenseNumber     string     `json:"license_number"`
	Active            bool       `json:"active"`
	AvailabilityNotes *string    `json:"availability_notes,omitempty"`
	CreatedAt         time.Time  `json:"created_at"`
	DeletedAt         *time.Time `json:"deleted_at,omitempty"`
}

func (p *Provider) IsActive() bool {
	return p.DeletedAt == nil
}

// ApplySoftDelete stamps the deletion timestamp.
func (p *Provider) ApplySoftDelete(now time.Time) {
	p.DeletedAt = &now
}
