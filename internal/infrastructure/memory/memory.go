// Package memory provides in-process implementations of the storage ports.
// Used by tests and by runs that do not need durable storage.
package memory

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/hyeonlab/ward-recon/internal/domain"
	"github.com/hyeonlab/ward-recon/internal/domain/entity"
	"github.com/hyeonlab/ward-recon/internal/domain/repository"
)

var (
	_ repository.PartitionStore  = (*PartitionStore)(nil)
	_ repository.CompletionStore = (*CompletionStore)(nil)
	_ repository.BlobStore       = (*BlobStore)(nil)
	_ repository.DirectoryStore  = (*DirectoryStore)(nil)
)

// PartitionStore keeps partitions and the merged set in maps.
type PartitionStore struct {
	mu         sync.RWMutex
	partitions map[string][]entity.MismatchRecord
	merged     []entity.MismatchRecord
}

// NewPartitionStore builds an empty store.
func NewPartitionStore() *PartitionStore {
	return &PartitionStore{partitions: make(map[string][]entity.MismatchRecord)}
}

func (s *PartitionStore) SavePartition(_ context.Context, date string, records []entity.MismatchRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.partitions[date] = append([]entity.MismatchRecord(nil), records...)
	return nil
}

func (s *PartitionStore) LoadPartition(_ context.Context, date string) ([]entity.MismatchRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	records, ok := s.partitions[date]
	if !ok {
		return nil, fmt.Errorf("partition %s: %w", date, domain.ErrNotFound)
	}
	return append([]entity.MismatchRecord(nil), records...), nil
}

func (s *PartitionStore) Dates(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	dates := make([]string, 0, len(s.partitions))
	for d := range s.partitions {
		dates = append(dates, d)
	}
	return dates, nil
}

func (s *PartitionStore) SaveMerged(_ context.Context, records []entity.MismatchRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.merged = append([]entity.MismatchRecord(nil), records...)
	return nil
}

func (s *PartitionStore) LoadMerged(_ context.Context) ([]entity.MismatchRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]entity.MismatchRecord(nil), s.merged...), nil
}

// CompletionStore keeps the resolution log in memory.
type CompletionStore struct {
	mu      sync.RWMutex
	entries []entity.CompletionEntry
}

// NewCompletionStore builds an empty store.
func NewCompletionStore() *CompletionStore {
	return &CompletionStore{}
}

func (s *CompletionStore) Load(_ context.Context) ([]entity.CompletionEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]entity.CompletionEntry(nil), s.entries...), nil
}

func (s *CompletionStore) Save(_ context.Context, entries []entity.CompletionEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append([]entity.CompletionEntry(nil), entries...)
	return nil
}

// BlobStore keeps blobs in a map.
type BlobStore struct {
	mu    sync.RWMutex
	blobs map[string][]byte
}

// NewBlobStore builds an empty store.
func NewBlobStore() *BlobStore {
	return &BlobStore{blobs: make(map[string][]byte)}
}

func (s *BlobStore) Put(_ context.Context, key string, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.blobs[key] = append([]byte(nil), data...)
	return nil
}

func (s *BlobStore) Get(_ context.Context, key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	data, ok := s.blobs[key]
	if !ok {
		return nil, fmt.Errorf("blob %s: %w", key, domain.ErrNotFound)
	}
	return append([]byte(nil), data...), nil
}

func (s *BlobStore) List(_ context.Context, prefix string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var keys []string
	for k := range s.blobs {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	return keys, nil
}

func (s *BlobStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.blobs, key)
	return nil
}

// DirectoryStore keeps the item directory in memory.
type DirectoryStore struct {
	mu    sync.RWMutex
	pairs []entity.CodeName
}

// NewDirectoryStore builds an empty store.
func NewDirectoryStore() *DirectoryStore {
	return &DirectoryStore{}
}

func (s *DirectoryStore) Save(_ context.Context, pairs []entity.CodeName) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pairs = append([]entity.CodeName(nil), pairs...)
	return nil
}

func (s *DirectoryStore) Load(_ context.Context) ([]entity.CodeName, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]entity.CodeName(nil), s.pairs...), nil
}
