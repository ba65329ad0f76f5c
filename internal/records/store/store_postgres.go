package store

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/lib/pq"

	"finwell/internal/records"
	id "finwell/pkg/domain"
	"finwell/pkg/platform/sentinel"
	txcontext "finwell/pkg/platform/tx"
)

//go:embed schema.sql
var Schema string

// PostgresStore persists records in PostgreSQL. Ids come from BIGSERIAL, and
// the reveal flip is a conditional UPDATE so concurrent completions race on
// the row, not in application code.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// Migrate creates the tables if they do not exist.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, Schema); err != nil {
		return fmt.Errorf("migrate records schema: %w", err)
	}
	return nil
}

func (s *PostgresStore) AllocateAndStore(ctx context.Context, owner id.Identity, income, expenses, savings id.Handle, now time.Time) (id.RecordID, error) {
	var recordID int64
	err := txcontext.Run(ctx, s.db, func(txCtx context.Context) error {
		exec := txcontext.Execer(txCtx, s.db)
		err := exec.QueryRowContext(txCtx, `
			INSERT INTO encrypted_records (owner, income, expenses, savings, submitted_at)
			VALUES ($1, $2, $3, $4, $5)
			RETURNING id
		`, owner.Bytes(), income.Bytes(), expenses.Bytes(), savings.Bytes(), now).Scan(&recordID)
		if err != nil {
			return fmt.Errorf("insert encrypted record: %w", err)
		}
		if _, err := exec.ExecContext(txCtx, `INSERT INTO revealed_records (record_id) VALUES ($1)`, recordID); err != nil {
			return fmt.Errorf("insert revealed record: %w", err)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return id.RecordID(recordID), nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (*records.EncryptedRecord, error) {
	var (
		recordID                         int64
		owner, income, expenses, savings []byte
		submittedAt                      time.Time
	)
	if err := row.Scan(&recordID, &owner, &income, &expenses, &savings, &submittedAt); err != nil {
		return nil, err
	}
	return &records.EncryptedRecord{
		ID:          id.RecordID(recordID),
		Owner:       id.Identity(common.BytesToAddress(owner)),
		Income:      id.Handle(common.BytesToHash(income)),
		Expenses:    id.Handle(common.BytesToHash(expenses)),
		Savings:     id.Handle(common.BytesToHash(savings)),
		SubmittedAt: submittedAt,
	}, nil
}

func (s *PostgresStore) Get(ctx context.Context, recordID id.RecordID) (*records.EncryptedRecord, error) {
	row := txcontext.Execer(ctx, s.db).QueryRowContext(ctx, `
		SELECT id, owner, income, expenses, savings, submitted_at
		FROM encrypted_records WHERE id = $1
	`, int64(recordID))
	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get encrypted record: %w", err)
	}
	return rec, nil
}

func scanRevealed(row rowScanner) (*records.RevealedRecord, error) {
	var (
		rec        records.RevealedRecord
		recordID   int64
		revealedAt sql.NullTime
	)
	if err := row.Scan(&recordID, &rec.Income, &rec.Expenses, &rec.Savings, &rec.Revealed, &revealedAt); err != nil {
		return nil, err
	}
	rec.ID = id.RecordID(recordID)
	if revealedAt.Valid {
		at := revealedAt.Time
		rec.RevealedAt = &at
	}
	return &rec, nil
}

func (s *PostgresStore) GetRevealed(ctx context.Context, recordID id.RecordID) (*records.RevealedRecord, error) {
	row := txcontext.Execer(ctx, s.db).QueryRowContext(ctx, `
		SELECT record_id, income, expenses, savings, revealed, revealed_at
		FROM revealed_records WHERE record_id = $1
	`, int64(recordID))
	rec, err := scanRevealed(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get revealed record: %w", err)
	}
	return rec, nil
}

func (s *PostgresStore) Reveal(ctx context.Context, recordID id.RecordID, figures records.Figures, now time.Time) error {
	exec := txcontext.Execer(ctx, s.db)
	res, err := exec.ExecContext(ctx, `
		UPDATE revealed_records
		SET income = $2, expenses = $3, savings = $4, revealed = TRUE, revealed_at = $5
		WHERE record_id = $1 AND revealed = FALSE
	`, int64(recordID), figures.Income, figures.Expenses, figures.Savings, now)
	if err != nil {
		return fmt.Errorf("reveal record: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("reveal record rows affected: %w", err)
	}
	if n == 1 {
		return nil
	}

	var exists bool
	if err := exec.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM revealed_records WHERE record_id = $1)`, int64(recordID)).Scan(&exists); err != nil {
		return fmt.Errorf("check revealed record: %w", err)
	}
	if !exists {
		return sentinel.ErrNotFound
	}
	return sentinel.ErrAlreadyUsed
}

func (s *PostgresStore) ListByOwner(ctx context.Context, owner id.Identity) ([]*records.EncryptedRecord, error) {
	rows, err := txcontext.Execer(ctx, s.db).QueryContext(ctx, `
		SELECT id, owner, income, expenses, savings, submitted_at
		FROM encrypted_records WHERE owner = $1 ORDER BY id
	`, owner.Bytes())
	if err != nil {
		return nil, fmt.Errorf("list records by owner: %w", err)
	}
	defer rows.Close()

	var out []*records.EncryptedRecord
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scan encrypted record: %w", err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate encrypted records: %w", err)
	}
	return out, nil
}

// RevealedMany loads reveal state for several records in one round trip.
// Unknown ids are absent from the result.
func (s *PostgresStore) RevealedMany(ctx context.Context, ids []id.RecordID) (map[id.RecordID]*records.RevealedRecord, error) {
	out := make(map[id.RecordID]*records.RevealedRecord, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	raw := make([]int64, len(ids))
	for i, recordID := range ids {
		raw[i] = int64(recordID)
	}
	rows, err := txcontext.Execer(ctx, s.db).QueryContext(ctx, `
		SELECT record_id, income, expenses, savings, revealed, revealed_at
		FROM revealed_records WHERE record_id = ANY($1::bigint[])
	`, pq.Array(raw))
	if err != nil {
		return nil, fmt.Errorf("list revealed records: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		rec, err := scanRevealed(rows)
		if err != nil {
			return nil, fmt.Errorf("scan revealed record: %w", err)
		}
		out[rec.ID] = rec
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate revealed records: %w", err)
	}
	return out, nil
}
