// Package repository defines the storage ports of the reconciliation core.
// Durable storage has key-value semantics: per-date partitions keyed by the
// canonical date string, one merged set, one completion log, one item
// directory. There is no cross-writer locking; the model assumes a single
// writer per date and the later write wins.
package repository

import (
	"context"

	"github.com/hyeonlab/ward-recon/internal/domain/entity"
)

// PartitionStore persists per-date mismatch partitions and the canonical
// merged view. SavePartition and SaveMerged overwrite wholesale.
type PartitionStore interface {
	SavePartition(ctx context.Context, date string, records []entity.MismatchRecord) error
	LoadPartition(ctx context.Context, date string) ([]entity.MismatchRecord, error)
	Dates(ctx context.Context) ([]string, error)
	SaveMerged(ctx context.Context, records []entity.MismatchRecord) error
	LoadMerged(ctx context.Context) ([]entity.MismatchRecord, error)
}

// CompletionStore persists the operator resolution log as a whole, mirroring
// the single-file layout of the durable store.
type CompletionStore interface {
	Load(ctx context.Context) ([]entity.CompletionEntry, error)
	Save(ctx context.Context, entries []entity.CompletionEntry) error
}

// BlobStore is the raw key-value surface used for OCR page text and preview
// thumbnails. Get returns domain.ErrNotFound for absent keys.
type BlobStore interface {
	Put(ctx context.Context, key string, data []byte) error
	Get(ctx context.Context, key string) ([]byte, error)
	List(ctx context.Context, prefix string) ([]string, error)
	Delete(ctx context.Context, key string) error
}

// DirectoryStore persists the item_code <-> item_name directory.
type DirectoryStore interface {
	Save(ctx context.Context, pairs []entity.CodeName) error
	Load(ctx context.Context) ([]entity.CodeName, error)
}
