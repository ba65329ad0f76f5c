package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"slices"
	"strings"

	"finwell/internal/audit"
	"finwell/internal/events"
	txcontext "finwell/pkg/platform/tx"
)

// Schema is applied by Migrate.
const Schema = `
CREATE TABLE IF NOT EXISTS audit_events (
	id          UUID PRIMARY KEY,
	name        TEXT NOT NULL,
	record_id   BIGINT,
	owner       BYTEA,
	payload     JSONB NOT NULL,
	recorded_at TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS audit_events_record_idx ON audit_events (record_id, recorded_at);
CREATE INDEX IF NOT EXISTS audit_events_owner_idx ON audit_events (owner, recorded_at);
`

// PostgresStore archives notifications in the audit_events table. The full
// event is kept as JSON; record and owner are split out for filtering.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, Schema); err != nil {
		return fmt.Errorf("migrate audit schema: %w", err)
	}
	return nil
}

func (s *PostgresStore) Append(ctx context.Context, entry audit.Entry) error {
	payload, err := json.Marshal(entry.Event)
	if err != nil {
		return fmt.Errorf("marshal audit payload: %w", err)
	}
	var recordID sql.NullInt64
	if !entry.Event.RecordID.IsNil() {
		recordID = sql.NullInt64{Int64: int64(entry.Event.RecordID), Valid: true}
	}
	var owner []byte
	if entry.Event.Owner != nil {
		owner = entry.Event.Owner.Bytes()
	}
	_, err = txcontext.Execer(ctx, s.db).ExecContext(ctx, `
		INSERT INTO audit_events (id, name, record_id, owner, payload, recorded_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO NOTHING
	`, entry.ID, string(entry.Event.Name), recordID, owner, payload, entry.RecordedAt)
	if err != nil {
		return fmt.Errorf("insert audit event: %w", err)
	}
	return nil
}

func (s *PostgresStore) List(ctx context.Context, q audit.Query) ([]audit.Entry, error) {
	var (
		where []string
		args  []any
	)
	if !q.RecordID.IsNil() {
		args = append(args, int64(q.RecordID))
		where = append(where, fmt.Sprintf("record_id = $%d", len(args)))
	}
	if q.Owner != nil {
		args = append(args, q.Owner.Bytes())
		where = append(where, fmt.Sprintf("owner = $%d", len(args)))
	}
	query := `SELECT id, payload, recorded_at FROM audit_events`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY recorded_at DESC, id"
	if q.Limit > 0 {
		args = append(args, q.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}

	rows, err := txcontext.Execer(ctx, s.db).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list audit events: %w", err)
	}
	defer rows.Close()

	var out []audit.Entry
	for rows.Next() {
		var (
			entry   audit.Entry
			payload []byte
		)
		if err := rows.Scan(&entry.ID, &payload, &entry.RecordedAt); err != nil {
			return nil, fmt.Errorf("scan audit event: %w", err)
		}
		var ev events.Event
		if err := json.Unmarshal(payload, &ev); err != nil {
			return nil, fmt.Errorf("decode audit event %s: %w", entry.ID, err)
		}
		entry.Event = ev
		entry.RecordedAt = entry.RecordedAt.UTC()
		out = append(out, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate audit events: %w", err)
	}
	// Newest first from the query; callers get oldest first.
	slices.Reverse(out)
	return out, nil
}

var (
	_ audit.Store = (*PostgresStore)(nil)
	_ audit.Store = (*InMemory)(nil)
)
