package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hyeonlab/ward-recon/internal/domain/entity"
	"github.com/hyeonlab/ward-recon/internal/domain/repository"
)

var _ repository.PartitionStore = (*PartitionStore)(nil)

// PartitionStore persists per-date mismatch partitions in mismatch_records
// and the canonical merged set in merged_records.
type PartitionStore struct {
	pool *pgxpool.Pool
}

// NewPartitionStore builds the adapter.
func NewPartitionStore(pool *pgxpool.Pool) *PartitionStore {
	return &PartitionStore{pool: pool}
}

var mismatchColumns = []string{"date", "department", "item_code", "item_name", "requested", "received", "difference", "missing"}

// SavePartition replaces the partition for date: delete then bulk copy, one
// transaction.
func (s *PartitionStore) SavePartition(ctx context.Context, date string, records []entity.MismatchRecord) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM mismatch_records WHERE date = $1`, date); err != nil {
		return fmt.Errorf("clear partition %s: %w", date, err)
	}
	if _, err := tx.CopyFrom(ctx, pgx.Identifier{"mismatch_records"}, mismatchColumns, mismatchSource(records)); err != nil {
		return fmt.Errorf("copy partition %s: %w", date, err)
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit partition %s: %w", date, err)
	}
	return nil
}

// LoadPartition returns the rows stored for date. An absent date yields an
// empty slice, not an error.
func (s *PartitionStore) LoadPartition(ctx context.Context, date string) ([]entity.MismatchRecord, error) {
	query := `
		SELECT date, department, item_code, item_name, requested, received, difference, missing
		FROM mismatch_records WHERE date = $1
		ORDER BY department, item_code`
	rows, err := s.pool.Query(ctx, query, date)
	if err != nil {
		return nil, fmt.Errorf("load partition %s: %w", date, err)
	}
	defer rows.Close()
	return scanMismatches(rows)
}

// Dates lists the dates that have a stored partition.
func (s *PartitionStore) Dates(ctx context.Context) ([]string, error) {
	rows, err := s.pool.Query(ctx, `SELECT DISTINCT date FROM mismatch_records ORDER BY date`)
	if err != nil {
		return nil, fmt.Errorf("list dates: %w", err)
	}
	defer rows.Close()

	var dates []string
	for rows.Next() {
		var d string
		if err := rows.Scan(&d); err != nil {
			return nil, fmt.Errorf("scan date: %w", err)
		}
		dates = append(dates, d)
	}
	return dates, rows.Err()
}

// SaveMerged replaces the canonical merged set.
func (s *PartitionStore) SaveMerged(ctx context.Context, records []entity.MismatchRecord) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM merged_records`); err != nil {
		return fmt.Errorf("clear merged set: %w", err)
	}
	if _, err := tx.CopyFrom(ctx, pgx.Identifier{"merged_records"}, mismatchColumns, mismatchSource(records)); err != nil {
		return fmt.Errorf("copy merged set: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit merged set: %w", err)
	}
	return nil
}

// LoadMerged returns the canonical merged set.
func (s *PartitionStore) LoadMerged(ctx context.Context) ([]entity.MismatchRecord, error) {
	query := `
		SELECT date, department, item_code, item_name, requested, received, difference, missing
		FROM merged_records
		ORDER BY date, department, item_code`
	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("load merged set: %w", err)
	}
	defer rows.Close()
	return scanMismatches(rows)
}

func mismatchSource(records []entity.MismatchRecord) pgx.CopyFromSource {
	return pgx.CopyFromSlice(len(records), func(i int) ([]any, error) {
		r := records[i]
		return []any{r.Date, r.Department, r.ItemCode, r.ItemName, r.Requested, r.Received, r.Difference, r.Missing}, nil
	})
}

func scanMismatches(rows pgx.Rows) ([]entity.MismatchRecord, error) {
	var out []entity.MismatchRecord
	for rows.Next() {
		var r entity.MismatchRecord
		if err := rows.Scan(&r.Date, &r.Department, &r.ItemCode, &r.ItemName, &r.Requested, &r.Received, &r.Difference, &r.Missing); err != nil {
			return nil, fmt.Errorf("scan mismatch row: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
