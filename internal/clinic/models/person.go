package models

import (
	"time"

	dErrors "clinica/pkg/domain-errors"
)

// Gender values accepted on person records.
type Gender string

const (
	GenderMale         Gender = "male"
	GenderFemale       Gender = "female"
	GenderOther        Gender = "other"
	GenderNotAnnounced Gender = "not_announced"
)

func (g Gender) Valid() bool {
	switch g {
	case GenderMale, GenderFemale, GenderOther, GenderNotAnnounced:
		return true
	}
	return false
}

// Person is the shared identity record underlying both patients and
// providers.
//
// Invariants:
//   - Document is non-empty and unique among active persons; a document may
//     be reused across a delete/recreate cycle.
//   - DeletedAt is set when the last referencing role record is deleted and
//     cleared when a new role registration matches this person by document.
type Person struct {
	ID          int64      `json:"id"`
	Name        string     `json:"name"`
	BirthDate   time.Time  `json:"birth_date"`
	Document    string     `json:"document"`
	Gender      Gender     `json:"gender"`
	PhoneNumber string     `json:"phone_number"`
	Email       string     `json:"email"`
	CreatedAt   time.Time  `json:"created_at"`
	DeletedAt   *time.Time `json:"deleted_at,omitempty"`
}

func (p *Person) IsActive() bool {
	return p.DeletedAt == nil
}

// ApplyReactivation clears the deletion timestamp so the identity is active
// again. Idempotent.
func (p *Person) ApplyReactivation() {
	p.DeletedAt = nil
}

// ApplySoftDelete stamps the deletion timestamp.
func (p *Person) ApplySoftDelete(now time.Time) {
	p.DeletedAt = &now
}

// NewPerson builds an active person from identity fields.
func NewPerson(name string, birthDate time.Time, document string, gender Gender, phone, email string, now time.Time) (*Person, error) {
	if document == "" {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "document cannot be empty")
	}
	if name == "" {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "name cannot be empty")
	}
	if !gender.Valid() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "invalid gender option")
	}
	return &Person{
		Name:        name,
		BirthDate:   birthDate,
		Document:    document,
		Gender:      gender,
		PhoneNumber: phone,
		Email:       email,
		CreatedAt:   now,
	}, nil
}
