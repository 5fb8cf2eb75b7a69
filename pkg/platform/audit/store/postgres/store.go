package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	audit "bookerregistry/pkg/platform/audit"
	txcontext "bookerregistry/pkg/platform/tx"
)

// Store persists the booker audit trail in the booker_audit table. Writes
// join the transaction bound to the context so an entry commits (or rolls
// back) together with the transition it describes.
type Store struct {
	db *sql.DB
}

// New creates a PostgreSQL audit store.
func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// Append inserts one audit entry.
func (s *Store) Append(ctx context.Context, event audit.Event) error {
	query := `
		INSERT INTO booker_audit (id, booker_reference, action, text, request_id, actor_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := txcontext.ExecutorFrom(ctx, s.db).ExecContext(ctx, query,
		uuid.New(),
		event.BookerReference,
		string(event.Action),
		event.Text,
		event.RequestID,
		event.ActorID,
		event.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("insert audit entry: %w", err)
	}
	return nil
}

// ListByBooker returns the booker's audit trail, oldest first.
func (s *Store) ListByBooker(ctx context.Context, bookerReference string) ([]audit.Event, error) {
	query := `
		SELECT booker_reference, action, text, request_id, actor_id, created_at
		FROM booker_audit
		WHERE booker_reference = $1
		ORDER BY created_at ASC, seq ASC
	`
	rows, err := txcontext.ExecutorFrom(ctx, s.db).QueryContext(ctx, query, bookerReference)
	if err != nil {
		return nil, fmt.Errorf("query audit entries: %w", err)
	}
	defer rows.Close()

	var events []audit.Event
	for rows.Next() {
		var (
			event  audit.Event
			action string
		)
		if err := rows.Scan(
			&event.BookerReference,
			&action,
			&event.Text,
			&event.RequestID,
			&event.ActorID,
			&event.Timestamp,
		); err != nil {
			return nil, fmt.Errorf("scan audit entry: %w", err)
		}
		event.Action = audit.Action(action)
		events = append(events, event)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate audit entries: %w", err)
	}
	return events, nil
}

// DeleteByBooker wipes a booker's audit trail as part of clearing their details.
func (s *Store) DeleteByBooker(ctx context.Context, bookerReference string) error {
	_, err := txcontext.ExecutorFrom(ctx, s.db).ExecContext(ctx,
		`DELETE FROM booker_audit WHERE booker_reference = $1`, bookerReference)
	if err != nil {
		return fmt.Errorf("delete audit entries: %w", err)
	}
	return nil
}
