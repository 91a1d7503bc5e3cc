// Package completion maintains the operator resolution overlay: which
// mismatch rows have been manually marked as handled, and the filtering of
// those rows out of every downstream view.
//
// Policy, pinned: rows carrying the system-missing marker are never excluded
// by the completion filter, in any call path. They represent a physical
// observation with no ledger counterpart and disappear only when a corrected
// ledger stops producing them.
package completion

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/hyeonlab/ward-recon/internal/domain"
	"github.com/hyeonlab/ward-recon/internal/domain/dateutil"
	"github.com/hyeonlab/ward-recon/internal/domain/entity"
	"github.com/hyeonlab/ward-recon/internal/domain/repository"
	"github.com/hyeonlab/ward-recon/pkg/logger"
)

// DateRange restricts a filter to completion entries within [Start, End],
// both canonical "YYYY-MM-DD" strings, inclusive.
type DateRange struct {
	Start string
	End   string
}

func (r DateRange) contains(date string) bool {
	return date >= r.Start && date <= r.End
}

// AppendResult reports what one Append call did.
type AppendResult struct {
	Added   int
	Skipped int // key already logged
	Invalid int // missing identity fields or unparseable date
}

// Log is the completion log use case over a CompletionStore.
type Log struct {
	store repository.CompletionStore
	std   dateutil.Standardizer
	log   *logger.Logger
	now   func() time.Time
}

// NewLog builds the use case. now defaults to time.Now.
func NewLog(store repository.CompletionStore, std dateutil.Standardizer, log *logger.Logger) *Log {
	return &Log{store: store, std: std, log: log, now: time.Now}
}

// Entries loads the log, dropping malformed entries (missing identity fields
// or a date that cannot be standardized) from the aggregate with a warning.
func (l *Log) Entries(ctx context.Context) ([]entity.CompletionEntry, error) {
	raw, err := l.store.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load completion log: %w", err)
	}
	valid := make([]entity.CompletionEntry, 0, len(raw))
	dropped := 0
	for _, e := range raw {
		std, err := l.standardize(e)
		if err != nil {
			dropped++
			l.log.Warn().Err(err).Str("item_code", e.ItemCode).Msg("completion entry dropped")
			continue
		}
		valid = append(valid, std)
	}
	if dropped > 0 {
		l.log.Warn().Int("dropped", dropped).Int("kept", len(valid)).Msg("malformed completion entries excluded")
	}
	return valid, nil
}

// Append records operator resolutions. Each entry must carry date,
// department and item_code; the date is standardized; entries whose key is
// already logged are skipped. The result counts added, skipped and invalid
// entries.
func (l *Log) Append(ctx context.Context, entries []entity.CompletionEntry) (*AppendResult, error) {
	existing, err := l.Entries(ctx)
	if err != nil {
		return nil, err
	}
	seen := make(map[entity.RecordKey]bool, len(existing))
	for _, e := range existing {
		seen[e.Key()] = true
	}

	res := &AppendResult{}
	for _, e := range entries {
		std, err := l.standardize(e)
		if err != nil {
			res.Invalid++
			l.log.Warn().Err(err).Msg("completion entry rejected")
			continue
		}
		if seen[std.Key()] {
			res.Skipped++
			continue
		}
		if std.ID == "" {
			std.ID = uuid.NewString()
		}
		if std.CompletedAt.IsZero() {
			std.CompletedAt = l.now()
		}
		seen[std.Key()] = true
		existing = append(existing, std)
		res.Added++
	}

	if res.Added > 0 {
		if err := l.store.Save(ctx, existing); err != nil {
			return nil, fmt.Errorf("save completion log: %w", err)
		}
	}
	l.log.Info().Int("added", res.Added).Int("skipped", res.Skipped).Int("invalid", res.Invalid).Msg("completion log append")
	return res, nil
}

// Retract removes the given keys from the log and persists the result.
// Retracted keys become eligible again on the next Filter. Returns how many
// entries were removed.
func (l *Log) Retract(ctx context.Context, keys []entity.RecordKey) (int, error) {
	existing, err := l.Entries(ctx)
	if err != nil {
		return 0, err
	}
	drop := make(map[entity.RecordKey]bool, len(keys))
	for _, k := range keys {
		drop[k] = true
	}

	kept := existing[:0]
	removed := 0
	for _, e := range existing {
		if drop[e.Key()] {
			removed++
			continue
		}
		kept = append(kept, e)
	}
	if removed > 0 {
		if err := l.store.Save(ctx, kept); err != nil {
			return 0, fmt.Errorf("save completion log: %w", err)
		}
	}
	l.log.Info().Int("removed", removed).Msg("completion log retract")
	return removed, nil
}

// FilterRecords loads the log and applies Filter with it.
func (l *Log) FilterRecords(ctx context.Context, records []entity.MismatchRecord, rng *DateRange) ([]entity.MismatchRecord, error) {
	entries, err := l.Entries(ctx)
	if err != nil {
		return nil, err
	}
	return Filter(records, entries, rng), nil
}

func (l *Log) standardize(e entity.CompletionEntry) (entity.CompletionEntry, error) {
	if e.Date == "" || e.Department == "" || e.ItemCode == "" {
		return e, fmt.Errorf("%w: date, department and item_code are required", domain.ErrMalformedLogEntry)
	}
	date, err := l.std.Standardize(e.Date)
	if err != nil {
		return e, fmt.Errorf("%w: %v", domain.ErrMalformedLogEntry, err)
	}
	e.Date = date
	return e, nil
}

// Filter removes from records every non-missing row whose key appears in the
// completion entries, optionally restricted to entries within rng.
// System-missing rows pass through untouched (see package policy).
func Filter(records []entity.MismatchRecord, entries []entity.CompletionEntry, rng *DateRange) []entity.MismatchRecord {
	if len(records) == 0 || len(entries) == 0 {
		return records
	}
	completed := keySet(entries, rng)

	out := make([]entity.MismatchRecord, 0, len(records))
	for _, r := range records {
		if !r.IsSystemMissing() && completed[r.Key()] {
			continue
		}
		out = append(out, r)
	}
	return out
}

// Annotate returns the records with Resolved set on every row, including
// system-missing ones, whose key appears in the completion entries. Nothing
// is removed; views that show resolved rows greyed out use this instead of
// Filter.
func Annotate(records []entity.MismatchRecord, entries []entity.CompletionEntry) []entity.MismatchRecord {
	completed := keySet(entries, nil)
	out := make([]entity.MismatchRecord, len(records))
	for i, r := range records {
		r.Resolved = completed[r.Key()]
		out[i] = r
	}
	return out
}

func keySet(entries []entity.CompletionEntry, rng *DateRange) map[entity.RecordKey]bool {
	set := make(map[entity.RecordKey]bool, len(entries))
	for _, e := range entries {
		if rng != nil && !rng.contains(e.Date) {
			continue
		}
		set[e.Key()] = true
	}
	return set
}
