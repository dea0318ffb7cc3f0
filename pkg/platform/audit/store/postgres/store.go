package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"clinica/pkg/platform/audit"
	txcontext "clinica/pkg/platform/tx"

	"github.com/google/uuid"
)

// Store persists audit events in the audit_events table. Writes join the
// surrounding transaction when one is carried in the context, so a rolled
// back registration leaves no trail entry.
type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

type dbExecutor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func (s *Store) execer(ctx context.Context) dbExecutor {
	if tx, ok := txcontext.From(ctx); ok {
		return tx
	}
	return s.db
}

func (s *Store) Append(ctx context.Context, event audit.Event) error {
	query := `
		INSERT INTO audit_events (
			id, timestamp, actor_id, action, subject, detail,
			request_id, client_ip, user_agent
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	var actorID *int64
	if event.ActorID != 0 {
		actorID = &event.ActorID
	}
	_, err := s.execer(ctx).ExecContext(ctx, query,
		uuid.New(),
		event.Timestamp,
		actorID,
		string(event.Action),
		event.Subject,
		event.Detail,
		event.RequestID,
		event.ClientIP,
		event.UserAgent,
	)
	if err != nil {
		return fmt.Errorf("insert audit event: %w", err)
	}
	return nil
}

func (s *Store) ListBySubject(ctx context.Context, subject string) ([]audit.Event, error) {
	query := `
		SELECT timestamp, actor_id, action, subject, detail,
		       request_id, client_ip, user_agent
		FROM audit_events
		WHERE subject = $1
		ORDER BY timestamp DESC
	`
	rows, err := s.db.QueryContext(ctx, query, subject)
	if err != nil {
		return nil, fmt.Errorf("query audit events: %w", err)
	}
	defer rows.Close()

	return scanEvents(rows)
}

func (s *Store) ListRecent(ctx context.Context, limit int) ([]audit.Event, error) {
	query := `
		SELECT timestamp, actor_id, action, subject, detail,
		       request_id, client_ip, user_agent
		FROM audit_events
		ORDER BY timestamp DESC
		LIMIT $1
	`
	rows, err := s.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("query audit events: %w", err)
	}
	defer rows.Close()

	return scanEvents(rows)
}

func scanEvents(rows *sql.Rows) ([]audit.Event, error) {
	var events []audit.Event
	for rows.Next() {
		var (
			event   audit.Event
			actorID sql.NullInt64
			action  string
		)
		err := rows.Scan(
			&event.Timestamp,
			&actorID,
			&action,
			&event.Subject,
			&event.Detail,
			&event.RequestID,
			&event.ClientIP,
			&event.UserAgent,
		)
		if err != nil {
			return nil, fmt.Errorf("scan audit event: %w", err)
		}
		event.Action = audit.Action(action)
		if actorID.Valid {
			event.ActorID = actorID.Int64
		}
		events = append(events, event)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate audit events: %w", err)
	}
	return events, nil
}
