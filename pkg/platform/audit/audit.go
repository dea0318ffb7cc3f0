// Package audit captures the administrative actions the clinic is required
// to keep a trail of: registrations, reactivations, soft deletes, blocked
// deletes, and appointment changes.
package audit

import (
	"context"
	"time"
)

// Action names a recorded lifecycle event.
type Action string

const (
	ActionPersonCreated      Action = "person_created"
	ActionPersonReactivated  Action = "person_reactivated"
	ActionPatientRegistered  Action = "patient_registered"
	ActionProviderRegistered Action = "provider_registered"
	ActionPatientUpdated     Action = "patient_updated"
	ActionProviderUpdated    Action = "provider_updated"
	ActionPatientDeleted     Action = "patient_deleted"
	ActionProviderDeleted    Action = "provider_deleted"
	ActionDeleteBlocked      Action = "delete_blocked"
	ActionAppointmentCreated Action = "appointment_created"
	ActionAppointmentUpdated Action = "appointment_updated"
	ActionUserCreated        Action = "user_created"
	ActionUserLogin          Action = "user_login"
	ActionUserLogout         Action = "user_logout"
)

// Event is emitted from domain logic to capture key actions. It is kept
// transport-agnostic so stores and sinks can fan out.
type Event struct {
	Timestamp time.Time
	// ActorID is the authenticated user who performed the action, zero for
	// unauthenticated actions such as signup.
	ActorID int64
	Action  Action
	// Subject identifies the affected record, e.g. "patient:42".
	Subject   string
	Detail    string
	RequestID string
	ClientIP  string
	UserAgent string
}

// Store persists audit events.
type Store interface {
	Append(ctx context.Context, event Event) error
	ListBySubject(ctx context.Context, subject string) ([]Event, error)
	ListRecent(ctx context.Context, limit int) ([]Event, error)
}
