// Package accumulate persists mismatch results per supply date and builds
// the single canonical merged set across all stored dates.
package accumulate

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/hyeonlab/ward-recon/internal/application/completion"
	"github.com/hyeonlab/ward-recon/internal/domain"
	"github.com/hyeonlab/ward-recon/internal/domain/dateutil"
	"github.com/hyeonlab/ward-recon/internal/domain/entity"
	"github.com/hyeonlab/ward-recon/internal/domain/repository"
	"github.com/hyeonlab/ward-recon/pkg/logger"
)

// Store accumulates per-date mismatch partitions. Partition writes are
// wholesale: re-running a date replaces its partition, so the newest run
// always wins.
type Store struct {
	parts repository.PartitionStore
	std   dateutil.Standardizer
	log   *logger.Logger
}

// NewStore builds the accumulation use case.
func NewStore(parts repository.PartitionStore, std dateutil.Standardizer, log *logger.Logger) *Store {
	return &Store{parts: parts, std: std, log: log}
}

// SavePartition overwrites the partition for date with records. Every row's
// date is repaired to the partition date when it is blank or unparseable,
// and duplicate (date, department, item_code) keys keep the last occurrence.
func (s *Store) SavePartition(ctx context.Context, date string, records []entity.MismatchRecord) error {
	date, err := s.std.Standardize(date)
	if err != nil {
		return fmt.Errorf("partition date: %w", err)
	}
	normalized := s.normalize(date, records)
	deduped := dedupeKeepLast(normalized)

	if err := s.parts.SavePartition(ctx, date, deduped); err != nil {
		return fmt.Errorf("save partition %s: %w", date, err)
	}
	s.log.Info().Str("date", date).Int("rows", len(deduped)).Msg("partition saved")
	return nil
}

// AppendMissing merges system-missing candidates into an existing partition.
// On a key collision the row carrying the system-missing marker wins, so a
// plain mismatch row for the same item is upgraded rather than duplicated.
func (s *Store) AppendMissing(ctx context.Context, date string, missing []entity.MismatchRecord) error {
	date, err := s.std.Standardize(date)
	if err != nil {
		return fmt.Errorf("partition date: %w", err)
	}
	existing, err := s.parts.LoadPartition(ctx, date)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return fmt.Errorf("load partition %s: %w", date, err)
	}

	combined := append(existing, s.normalize(date, missing)...)
	merged := dedupeMissingWins(combined)

	if err := s.parts.SavePartition(ctx, date, merged); err != nil {
		return fmt.Errorf("save partition %s: %w", date, err)
	}
	s.log.Info().Str("date", date).Int("appended", len(missing)).Int("rows", len(merged)).Msg("missing candidates appended")
	return nil
}

// MergeOptions controls MergeAll. A non-nil Completed set applies the
// completion filter (missing-marker rows are never filtered), optionally
// restricted to Range.
type MergeOptions struct {
	Completed []entity.CompletionEntry
	Range     *completion.DateRange
}

// MergeResult is the canonical merged set plus the dates that contributed
// and any per-partition load warnings.
type MergeResult struct {
	Records  []entity.MismatchRecord
	Dates    []string
	Warnings []string
}

// MergeAll loads every stored partition, normalizes, dedupes and sorts the
// union, applies the completion overlay when requested, and persists the
// result as the canonical merged set. A partition that fails to load is
// skipped with a warning rather than aborting the merge; if nothing usable
// remains the error is domain.ErrEmptyInput.
func (s *Store) MergeAll(ctx context.Context, opts MergeOptions) (*MergeResult, error) {
	dates, err := s.parts.Dates(ctx)
	if err != nil {
		return nil, fmt.Errorf("list partition dates: %w", err)
	}
	sort.Strings(dates)

	res := &MergeResult{}
	var all []entity.MismatchRecord
	for _, date := range dates {
		records, err := s.parts.LoadPartition(ctx, date)
		if err != nil {
			msg := fmt.Sprintf("partition %s skipped: %v", date, err)
			s.log.Warn().Msg(msg)
			res.Warnings = append(res.Warnings, msg)
			continue
		}
		all = append(all, s.normalize(date, records)...)
		res.Dates = append(res.Dates, date)
	}
	if len(all) == 0 {
		return nil, fmt.Errorf("merge: %w", domain.ErrEmptyInput)
	}

	merged := dedupeKeepLast(all)
	merged = completion.Filter(merged, opts.Completed, opts.Range)
	sortRecords(merged)

	if err := s.parts.SaveMerged(ctx, merged); err != nil {
		return nil, fmt.Errorf("save merged set: %w", err)
	}
	res.Records = merged
	s.log.Info().Int("dates", len(res.Dates)).Int("rows", len(merged)).Msg("partitions merged")
	return res, nil
}

// Merged returns the persisted canonical merged set.
func (s *Store) Merged(ctx context.Context) ([]entity.MismatchRecord, error) {
	return s.parts.LoadMerged(ctx)
}

// Dates lists the stored partition dates, sorted ascending.
func (s *Store) Dates(ctx context.Context) ([]string, error) {
	dates, err := s.parts.Dates(ctx)
	if err != nil {
		return nil, err
	}
	sort.Strings(dates)
	return dates, nil
}

// normalize re-standardizes each row's date, falling back to the partition
// date when the row's own value does not parse. Partitions written by older
// runs may carry raw sheet names as dates.
func (s *Store) normalize(partitionDate string, records []entity.MismatchRecord) []entity.MismatchRecord {
	out := make([]entity.MismatchRecord, len(records))
	for i, r := range records {
		if date, err := s.std.Standardize(r.Date); err == nil {
			r.Date = date
		} else {
			r.Date = partitionDate
		}
		out[i] = r
	}
	return out
}

func dedupeKeepLast(records []entity.MismatchRecord) []entity.MismatchRecord {
	last := make(map[entity.RecordKey]int, len(records))
	for i, r := range records {
		last[r.Key()] = i
	}
	out := make([]entity.MismatchRecord, 0, len(last))
	for i, r := range records {
		if last[r.Key()] == i {
			out = append(out, r)
		}
	}
	return out
}

// dedupeMissingWins is keep-last with one exception: once a key has been
// seen with the system-missing marker, a later unmarked row does not demote
// it.
func dedupeMissingWins(records []entity.MismatchRecord) []entity.MismatchRecord {
	chosen := make(map[entity.RecordKey]int, len(records))
	for i, r := range records {
		key := r.Key()
		prev, ok := chosen[key]
		if ok && records[prev].IsSystemMissing() && !r.IsSystemMissing() {
			continue
		}
		chosen[key] = i
	}
	out := make([]entity.MismatchRecord, 0, len(chosen))
	for i, r := range records {
		if chosen[r.Key()] == i {
			out = append(out, r)
		}
	}
	return out
}

func sortRecords(records []entity.MismatchRecord) {
	sort.Slice(records, func(i, j int) bool {
		a, b := records[i], records[j]
		if a.Date != b.Date {
			return a.Date < b.Date
		}
		if a.Department != b.Department {
			return a.Department < b.Department
		}
		return a.ItemCode < b.ItemCode
	})
}
