package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	id "faircircle/pkg/domain"
	audit "faircircle/pkg/platform/audit"
	txcontext "faircircle/pkg/platform/tx"
)

// Store implements audit.Store on PostgreSQL. When the context carries a
// transaction the append joins it, so an audit row commits atomically with
// the circle mutation it records.
type Store struct {
	db *sql.DB
}

// New creates a new PostgreSQL audit store.
func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// Schema is the DDL for the audit_events table.
const Schema = `
CREATE TABLE IF NOT EXISTS audit_events (
    id         UUID PRIMARY KEY,
    category   TEXT NOT NULL,
    timestamp  TIMESTAMPTZ NOT NULL,
    circle_id  UUID,
    actor      TEXT NOT NULL,
    subject    TEXT NOT NULL DEFAULT '',
    action     TEXT NOT NULL,
    decision   TEXT NOT NULL DEFAULT '',
    reason     TEXT NOT NULL DEFAULT '',
    amount     BIGINT NOT NULL DEFAULT 0,
    round      SMALLINT NOT NULL DEFAULT 0,
    request_id TEXT NOT NULL DEFAULT '',
    client_ip  TEXT NOT NULL DEFAULT '',
    device     TEXT NOT NULL DEFAULT ''
)`

// EnsureSchema creates the audit_events table if it does not exist.
func (s *Store) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, Schema); err != nil {
		return fmt.Errorf("ensure audit schema: %w", err)
	}
	return nil
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

// Append writes an audit event, deriving the category from the action when
// the caller left it empty.
func (s *Store) Append(ctx context.Context, event audit.Event) error {
	category := event.Category
	if category == "" {
		category = audit.AuditEvent(event.Action).Category()
	}

	var circleID *string
	if !event.CircleID.IsNil() {
		v := event.CircleID.String()
		circleID = &v
	}

	query := `
		INSERT INTO audit_events (
			id, category, timestamp, circle_id, actor, subject,
			action, decision, reason, amount, round,
			request_id, client_ip, device
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`
	_, err := s.execer(ctx).ExecContext(ctx, query,
		uuid.New(),
		string(category),
		event.Timestamp,
		circleID,
		event.Actor.String(),
		event.Subject,
		event.Action,
		event.Decision,
		event.Reason,
		event.Amount,
		int16(event.Round),
		event.RequestID,
		event.ClientIP,
		event.Device,
	)
	if err != nil {
		return fmt.Errorf("insert audit event: %w", err)
	}
	return nil
}

// ListByCircle returns events for a specific circle.
func (s *Store) ListByCircle(ctx context.Context, circleID id.CircleID) ([]audit.Event, error) {
	query := `
		SELECT category, timestamp, circle_id, actor, subject,
		       action, decision, reason, amount, round,
		       request_id, client_ip, device
		FROM audit_events
		WHERE circle_id = $1
		ORDER BY timestamp ASC
	`
	rows, err := s.db.QueryContext(ctx, query, circleID.String())
	if err != nil {
		return nil, fmt.Errorf("query audit events: %w", err)
	}
	defer rows.Close()

	return scanEvents(rows)
}

// ListRecent returns the N most recent events across all circles.
func (s *Store) ListRecent(ctx context.Context, limit int) ([]audit.Event, error) {
	query := `
		SELECT category, timestamp, circle_id, actor, subject,
		       action, decision, reason, amount, round,
		       request_id, client_ip, device
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
			category string
			actor    string
			circleID *string
			round    int16
			event    audit.Event
		)

		err := rows.Scan(
			&category,
			&event.Timestamp,
			&circleID,
			&actor,
			&event.Subject,
			&event.Action,
			&event.Decision,
			&event.Reason,
			&event.Amount,
			&round,
			&event.RequestID,
			&event.ClientIP,
			&event.Device,
		)
		if err != nil {
			return nil, fmt.Errorf("scan audit event: %w", err)
		}

		event.Category = audit.EventCategory(category)
		event.Actor = id.Principal(actor)
		event.Round = uint8(round)
		if circleID != nil {
			parsed, parseErr := id.ParseCircleID(*circleID)
			if parseErr != nil {
				return nil, fmt.Errorf("corrupt audit circle id %q", *circleID)
			}
			event.CircleID = parsed
		}

		events = append(events, event)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate audit events: %w", err)
	}
	return events, nil
}
