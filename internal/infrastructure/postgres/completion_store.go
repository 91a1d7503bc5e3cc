package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hyeonlab/ward-recon/internal/domain/entity"
	"github.com/hyeonlab/ward-recon/internal/domain/repository"
)

var _ repository.CompletionStore = (*CompletionStore)(nil)

// CompletionStore persists the operator resolution log in completion_log.
// Saves are wholesale, mirroring the single-document layout of the port.
type CompletionStore struct {
	pool *pgxpool.Pool
}

// NewCompletionStore builds the adapter.
func NewCompletionStore(pool *pgxpool.Pool) *CompletionStore {
	return &CompletionStore{pool: pool}
}

var completionColumns = []string{
	"id", "date", "department", "item_code", "completed_at",
	"item_name", "requested", "received", "difference", "missing",
}

// Load returns every logged entry with its mismatch snapshot.
func (s *CompletionStore) Load(ctx context.Context) ([]entity.CompletionEntry, error) {
	query := `
		SELECT id, date, department, item_code, completed_at,
		       item_name, requested, received, difference, missing
		FROM completion_log
		ORDER BY completed_at`
	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("load completion log: %w", err)
	}
	defer rows.Close()

	var out []entity.CompletionEntry
	for rows.Next() {
		var e entity.CompletionEntry
		err := rows.Scan(
			&e.ID, &e.Date, &e.Department, &e.ItemCode, &e.CompletedAt,
			&e.Snapshot.ItemName, &e.Snapshot.Requested, &e.Snapshot.Received, &e.Snapshot.Difference, &e.Snapshot.Missing,
		)
		if err != nil {
			return nil, fmt.Errorf("scan completion entry: %w", err)
		}
		e.Snapshot.Date = e.Date
		e.Snapshot.Department = e.Department
		e.Snapshot.ItemCode = e.ItemCode
		out = append(out, e)
	}
	return out, rows.Err()
}

// Save replaces the whole log.
func (s *CompletionStore) Save(ctx context.Context, entries []entity.CompletionEntry) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM completion_log`); err != nil {
		return fmt.Errorf("clear completion log: %w", err)
	}
	src := pgx.CopyFromSlice(len(entries), func(i int) ([]any, error) {
		e := entries[i]
		return []any{
			e.ID, e.Date, e.Department, e.ItemCode, e.CompletedAt,
			e.Snapshot.ItemName, e.Snapshot.Requested, e.Snapshot.Received, e.Snapshot.Difference, e.Snapshot.Missing,
		}, nil
	})
	if _, err := tx.CopyFrom(ctx, pgx.Identifier{"completion_log"}, completionColumns, src); err != nil {
		return fmt.Errorf("copy completion log: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit completion log: %w", err)
	}
	return nil
}
