package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hyeonlab/ward-recon/internal/domain/entity"
	"github.com/hyeonlab/ward-recon/internal/domain/repository"
)

var _ repository.DirectoryStore = (*DirectoryStore)(nil)

// DirectoryStore persists the item_code <-> item_name directory.
type DirectoryStore struct {
	pool *pgxpool.Pool
}

// NewDirectoryStore builds the adapter.
func NewDirectoryStore(pool *pgxpool.Pool) *DirectoryStore {
	return &DirectoryStore{pool: pool}
}

// Save replaces the directory wholesale.
func (s *DirectoryStore) Save(ctx context.Context, pairs []entity.CodeName) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM item_directory`); err != nil {
		return fmt.Errorf("clear item directory: %w", err)
	}
	src := pgx.CopyFromSlice(len(pairs), func(i int) ([]any, error) {
		return []any{pairs[i].Code, pairs[i].Name}, nil
	})
	if _, err := tx.CopyFrom(ctx, pgx.Identifier{"item_directory"}, []string{"code", "name"}, src); err != nil {
		return fmt.Errorf("copy item directory: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit item directory: %w", err)
	}
	return nil
}

// Load returns every directory pair.
func (s *DirectoryStore) Load(ctx context.Context) ([]entity.CodeName, error) {
	rows, err := s.pool.Query(ctx, `SELECT code, name FROM item_directory ORDER BY code`)
	if err != nil {
		return nil, fmt.Errorf("load item directory: %w", err)
	}
	defer rows.Close()

	var pairs []entity.CodeName
	for rows.Next() {
		var p entity.CodeName
		if err := rows.Scan(&p.Code, &p.Name); err != nil {
			return nil, fmt.Errorf("scan directory pair: %w", err)
		}
		pairs = append(pairs, p)
	}
	return pairs, rows.Err()
}
