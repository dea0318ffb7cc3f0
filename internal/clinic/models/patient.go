package models

import (
	"time"

	"github.com/google/uuid"
)

// InsuranceProvider values accepted on patient records.
type InsuranceProvider string

const (
	InsuranceAmil       InsuranceProvider = "amil"
	InsuranceUnimed     InsuranceProvider = "unimed"
	InsurancePorto      InsuranceProvider = "porto"
	InsuranceParticular InsuranceProvider = "particular"
)

func (i InsuranceProvider) Valid() bool {
	switch i {
	case InsuranceAmil, InsuranceUnimed, InsurancePorto, InsuranceParticular:
		return true
	}
	return false
}

// Patient is a role record: it references exactly one Person by identifier
// and carries its own deletion timestamp independent of the Person's. At
// most one active patient row may exist per person; soft-deleted rows stay
// behind as historical tombstones.
type Patient struct {
	ID                  int64             `json:"id"`
	PersonID            int64             `json:"person_id"`
	MedicalRecordNumber uuid.UUID         `json:"medical_record_number"`
	InsuranceProvider   InsuranceProvider `json:"insurance_provider"`
	InsuranceNumber     *string           `json:"insurance_number,omitempty"`
	BloodType           *string           `json:"blood_type,omitempty"`
	OrganDonor          bool              `json:"organ_donor"`
	EmergencyContact    *string           `json:"emergency_contact,omitempty"`
	EmergencyPhone      *string           `json:"emergency_phone,omitempty"`
	CreatedAt           time.Time         `json:"created_at"`
	DeletedAt           *time.Time        `json:"deleted_at,omitempty"`
}

func (p *Patient) IsActive() bool {
	return p.DeletedAt == nil
}

// ApplySoftDelete stamps the deletion timestamp.
func (p *Patient) ApplySoftDelete(now time.Time) {
	p.DeletedAt = &now
}
