// Package preview stores and fetches per-department page thumbnails. Reads
// go through an expiring in-process cache and a bounded worker pool so a
// date with many departments does not serialize on blob round-trips.
package preview

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/hyeonlab/ward-recon/internal/domain/entity"
	"github.com/hyeonlab/ward-recon/internal/domain/repository"
	"github.com/hyeonlab/ward-recon/pkg/logger"
)

const (
	defaultWorkers    = 4
	defaultTTL        = time.Hour
	defaultMaxEntries = 100
)

// Fetcher serves preview thumbnails from the blob store.
type Fetcher struct {
	blobs      repository.BlobStore
	cache      *gocache.Cache
	workers    int
	maxEntries int
	log        *logger.Logger
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithWorkers sets the fetch concurrency (default 4).
func WithWorkers(n int) Option {
	return func(f *Fetcher) {
		if n > 0 {
			f.workers = n
		}
	}
}

// WithCache sets the cache TTL and entry cap (defaults 1h, 100).
func WithCache(ttl time.Duration, maxEntries int) Option {
	return func(f *Fetcher) {
		if ttl > 0 {
			f.cache = gocache.New(ttl, ttl)
		}
		if maxEntries > 0 {
			f.maxEntries = maxEntries
		}
	}
}

// NewFetcher builds a Fetcher.
func NewFetcher(blobs repository.BlobStore, log *logger.Logger, opts ...Option) *Fetcher {
	f := &Fetcher{
		blobs:      blobs,
		cache:      gocache.New(defaultTTL, defaultTTL),
		workers:    defaultWorkers,
		maxEntries: defaultMaxEntries,
		log:        log,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Store persists one thumbnail.
func (f *Fetcher) Store(ctx context.Context, date, department string, page int, png []byte) error {
	key := Key(date, department, page)
	if err := f.blobs.Put(ctx, key, png); err != nil {
		return fmt.Errorf("store preview %s: %w", key, err)
	}
	f.put(key, png)
	return nil
}

// Fetch returns one thumbnail, from cache when fresh.
func (f *Fetcher) Fetch(ctx context.Context, date, department string, page int) ([]byte, error) {
	key := Key(date, department, page)
	if v, ok := f.cache.Get(key); ok {
		return v.([]byte), nil
	}
	data, err := f.blobs.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	f.put(key, data)
	return data, nil
}

// FetchAll fetches the thumbnails for every (department, page) pair
// concurrently, bounded by the worker count. Absent or failed thumbnails are
// simply missing from the result; the caller renders a placeholder.
func (f *Fetcher) FetchAll(ctx context.Context, date string, pairs []entity.DepartmentPage) map[string][]byte {
	type fetched struct {
		key  string
		data []byte
	}

	jobs := make(chan entity.DepartmentPage)
	results := make(chan fetched, len(pairs))

	var wg sync.WaitGroup
	for i := 0; i < f.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for dp := range jobs {
				data, err := f.Fetch(ctx, date, dp.Department, dp.Page)
				if err != nil {
					f.log.Debug().Err(err).Str("department", dp.Department).Int("page", dp.Page).Msg("preview unavailable")
					continue
				}
				results <- fetched{key: Key(date, dp.Department, dp.Page), data: data}
			}
		}()
	}
	for _, dp := range pairs {
		jobs <- dp
	}
	close(jobs)
	wg.Wait()
	close(results)

	out := make(map[string][]byte, len(pairs))
	for r := range results {
		out[r.key] = r.data
	}
	return out
}

// put caches data, flushing wholesale once the entry cap is reached. A full
// flush is acceptable because entries are cheap to refetch.
func (f *Fetcher) put(key string, data []byte) {
	if f.cache.ItemCount() >= f.maxEntries {
		f.cache.Flush()
	}
	f.cache.SetDefault(key, data)
}

// Key is the blob key of one thumbnail. Path separators in department names
// are flattened so they cannot nest the key.
func Key(date, department string, page int) string {
	safe := strings.NewReplacer("/", "_", "\\", "_").Replace(department)
	return fmt.Sprintf("preview_images/%s/%s_page%d_preview.png", date, safe, page)
}
