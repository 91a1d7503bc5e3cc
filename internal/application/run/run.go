// Package run wires one reconciliation run: the use cases of the
// application layer bound to concrete stores and the OCR client. Each run is
// independent; nothing here is process-global.
package run

import (
	"context"
	"fmt"

	gocache "github.com/patrickmn/go-cache"

	"github.com/hyeonlab/ward-recon/internal/application/accumulate"
	"github.com/hyeonlab/ward-recon/internal/application/completion"
	"github.com/hyeonlab/ward-recon/internal/application/ingest"
	"github.com/hyeonlab/ward-recon/internal/application/ocrtext"
	"github.com/hyeonlab/ward-recon/internal/application/preview"
	"github.com/hyeonlab/ward-recon/internal/application/reconcile"
	"github.com/hyeonlab/ward-recon/internal/application/scan"
	"github.com/hyeonlab/ward-recon/internal/domain"
	"github.com/hyeonlab/ward-recon/internal/domain/dateutil"
	"github.com/hyeonlab/ward-recon/internal/domain/entity"
	"github.com/hyeonlab/ward-recon/internal/domain/repository"
	"github.com/hyeonlab/ward-recon/pkg/config"
	"github.com/hyeonlab/ward-recon/pkg/logger"
)

// Stores groups the storage ports a run needs.
type Stores struct {
	Partitions repository.PartitionStore
	Completion repository.CompletionStore
	Blobs      repository.BlobStore
	Directory  repository.DirectoryStore
}

// Context is the per-run dependency graph.
type Context struct {
	Log *logger.Logger
	Std dateutil.Standardizer

	Ingestor    *ingest.Ingestor
	Parser      *ocrtext.Parser
	Engine      *reconcile.Engine
	Accumulator *accumulate.Store
	Completion  *completion.Log
	Scanner     *scan.Pipeline
	Previews    *preview.Fetcher

	stores Stores
	cache  *gocache.Cache
}

const directoryCacheKey = "item_directory"

// New wires a run context from configuration, stores and the OCR client.
// ocr may be nil when the run only works with already-stored text.
func New(cfg *config.Config, log *logger.Logger, stores Stores, ocr scan.OCRClient) *Context {
	std := dateutil.Standardizer{}
	parser := ocrtext.NewParser(cfg.Recon.DeptMarker, log)

	return &Context{
		Log:         log,
		Std:         std,
		Ingestor:    ingest.New(std, log),
		Parser:      parser,
		Engine:      reconcile.New(log),
		Accumulator: accumulate.NewStore(stores.Partitions, std, log),
		Completion:  completion.NewLog(stores.Completion, std, log),
		Scanner:     scan.NewPipeline(ocr, stores.Blobs, parser, log),
		Previews: preview.NewFetcher(stores.Blobs, log,
			preview.WithWorkers(cfg.Recon.PreviewWorkers),
			preview.WithCache(cfg.Recon.CacheTTL(), cfg.Recon.CacheMaxEntries)),
		stores: stores,
		cache:  gocache.New(cfg.Recon.CacheTTL(), cfg.Recon.CacheTTL()),
	}
}

// Reconcile runs the full pipeline for one ingested workbook: compute
// mismatches per date, overwrite each date's partition, and rebuild the
// merged set with the completion overlay applied.
//
// Records whose date cannot be standardized (cumulative ingestion keeps raw
// values) are skipped with a warning rather than aborting the run; only zero
// usable records is an error.
func (c *Context) Reconcile(ctx context.Context, ingested *ingest.Result) (*accumulate.MergeResult, error) {
	byDate := make(map[string][]entity.LedgerRecord)
	var warnings []string
	for _, r := range ingested.Records {
		date, err := c.Std.Standardize(r.Date)
		if err != nil {
			msg := fmt.Sprintf("record %s/%s skipped: unrecognizable date %q", r.Department, r.ItemCode, r.Date)
			c.Log.Warn().Msg(msg)
			warnings = append(warnings, msg)
			continue
		}
		r.Date = date
		byDate[date] = append(byDate[date], r)
	}
	if len(byDate) == 0 {
		return nil, fmt.Errorf("reconcile: no records with a usable date: %w", domain.ErrEmptyInput)
	}

	for date, records := range byDate {
		mismatches := c.Engine.Reconcile(records)
		if err := c.Accumulator.SavePartition(ctx, date, mismatches); err != nil {
			return nil, err
		}
	}

	entries, err := c.Completion.Entries(ctx)
	if err != nil {
		return nil, err
	}
	res, err := c.Accumulator.MergeAll(ctx, accumulate.MergeOptions{Completed: entries})
	if err != nil {
		return nil, err
	}
	res.Warnings = append(warnings, res.Warnings...)
	return res, nil
}

// Directory returns the item directory, loading it from the store at most
// once per cache TTL. The directory is immutable once built, so sharing the
// cached instance is safe.
func (c *Context) Directory(ctx context.Context) (*entity.ItemDirectory, error) {
	if v, ok := c.cache.Get(directoryCacheKey); ok {
		return v.(*entity.ItemDirectory), nil
	}
	pairs, err := c.stores.Directory.Load(ctx)
	if err != nil {
		return nil, err
	}
	dir := entity.NewItemDirectory(pairs)
	c.cache.SetDefault(directoryCacheKey, dir)
	return dir, nil
}

// ReloadDirectory drops the cached directory so the next Directory call
// reads the store again.
func (c *Context) ReloadDirectory() {
	c.cache.Delete(directoryCacheKey)
}
