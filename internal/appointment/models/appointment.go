// Package models defines the appointment ledger records.
package models

import (
	"time"

	dErrors "clinica/pkg/domain-errors"
)

// Status of an appointment. The first three are active: they keep the
// referenced patient and provider from being deleted. The rest are terminal
// history and never change again.
type Status string

const (
	StatusScheduled  Status = "scheduled"
	StatusConfirmed  Status = "confirmed"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
	StatusCancelled  Status = "cancelled"
	StatusNoShow     Status = "no_show"
)

func (s Status) Valid() bool {
	switch s {
	case StatusScheduled, StatusConfirmed, StatusInProgress,
		StatusCompleted, StatusCancelled, StatusNoShow:
		return true
	}
	return false
}

// Terminal reports whether the appointment has reached its final state.
func (s Status) Terminal() bool {
	switch s {
	case StatusCompleted, StatusCancelled, StatusNoShow:
		return true
	}
	return false
}

// ActiveStatuses are the states that block deletion of the referenced
// patient or provider.
var ActiveStatuses = []Status{StatusScheduled, StatusConfirmed, StatusInProgress}

// Appointment links one patient and one provider at a point in time.
// Appointments are never deleted; terminal rows remain as history even when
// their patient or provider is later soft-deleted.
type Appointment struct {
	ID         int64      `json:"id"`
	PatientID  int64      `json:"patient_id"`
	ProviderID int64      `json:"provider_id"`
	DateHour   time.Time  `json:"date_hour"`
	Status     Status     `json:"status"`
	Reason     *string    `json:"reason,omitempty"`
	Notes      *string    `json:"notes,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
}

// CreateRequest is the payload for scheduling. New appointments always start
// as scheduled.
type CreateRequest struct {
	PatientID  int64     `json:"patient_id"`
	ProviderID int64     `json:"provider_id"`
	DateHour   time.Time `json:"date_hour"`
	Reason     *string   `json:"reason,omitempty"`
	Notes      *string   `json:"notes,omitempty"`
}

func (r CreateRequest) Validate() error {
	if r.PatientID <= 0 {
		return dErrors.New(dErrors.CodeBadRequest, "patient_id is required")
	}
	if r.ProviderID <= 0 {
		return dErrors.New(dErrors.CodeBadRequest, "provider_id is required")
	}
	if r.DateHour.IsZero() {
		return dErrors.New(dErrors.CodeBadRequest, "date_hour is required")
	}
	return nil
}

// UpdateRequest is a sparse appointment update. The patient reference is
// immutable; rebooking a different patient means a new appointment.
type UpdateRequest struct {
	ProviderID *int64     `json:"provider_id,omitempty"`
	DateHour   *time.Time `json:"date_hour,omitempty"`
	Status     *Status    `json:"status,omitempty"`
	Reason     *string    `json:"reason,omitempty"`
	Notes      *string    `json:"notes,omitempty"`
}

func (r UpdateRequest) Validate() error {
	if r.Status != nil && !r.Status.Valid() {
		return dErrors.New(dErrors.CodeBadRequest, "invalid status option")
	}
	if r.ProviderID != nil && *r.ProviderID <= 0 {
		return dErrors.New(dErrors.CodeBadRequest, "provider_id cannot be empty")
	}
	return nil
}

// Apply merges the set fields into the appointment and reports whether
// anything changed.
func (r UpdateRequest) Apply(a *Appointment) bool {
	changed := false
	if r.ProviderID != nil {
		a.ProviderID = *r.ProviderID
		changed = true
	}
	if r.DateHour != nil {
		a.DateHour = *r.DateHour
		changed = true
	}
	if r.Status != nil {
		a.Status = *r.Status
		changed = true
	}
	if r.Reason != nil {
		a.Reason = r.Reason
		changed = true
	}
	if r.Notes != nil {
		a.Notes = r.Notes
		changed = true
	}
	return changed
}
