package accumulate_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hyeonlab/ward-recon/internal/application/accumulate"
	"github.com/hyeonlab/ward-recon/internal/application/completion"
	"github.com/hyeonlab/ward-recon/internal/domain"
	"github.com/hyeonlab/ward-recon/internal/domain/dateutil"
	"github.com/hyeonlab/ward-recon/internal/domain/entity"
	"github.com/hyeonlab/ward-recon/internal/infrastructure/memory"
	"github.com/hyeonlab/ward-recon/pkg/logger"
)

func pinnedStd() dateutil.Standardizer {
	return dateutil.Standardizer{Now: func() time.Time {
		return time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	}}
}

func mismatch(date, dept, code string, diff int64) entity.MismatchRecord {
	return entity.MismatchRecord{
		Date:       date,
		Department: dept,
		ItemCode:   code,
		ItemName:   code,
		Requested:  decimal.NewFromInt(1),
		Received:   decimal.NewFromInt(1 + diff),
		Difference: decimal.NewFromInt(diff),
	}
}

func missing(date, dept, code string) entity.MismatchRecord {
	return entity.MismatchRecord{
		Date:       date,
		Department: dept,
		ItemCode:   code,
		ItemName:   code,
		Requested:  decimal.Zero,
		Received:   decimal.NewFromInt(1),
		Difference: decimal.NewFromInt(1),
		Missing:    entity.MarkerSystemMissing,
	}
}

func TestSavePartition_RerunOverwrites(t *testing.T) {
	ctx := context.Background()
	store := accumulate.NewStore(memory.NewPartitionStore(), pinnedStd(), logger.Nop())

	require.NoError(t, store.SavePartition(ctx, "2024-12-15", []entity.MismatchRecord{
		mismatch("2024-12-15", "ICU", "A123456", 1),
	}))
	// Re-running the same date replaces the partition wholesale.
	require.NoError(t, store.SavePartition(ctx, "2024-12-15", []entity.MismatchRecord{
		mismatch("2024-12-15", "ICU", "A123456", 2),
	}))

	res, err := store.MergeAll(ctx, accumulate.MergeOptions{})
	require.NoError(t, err)
	require.Len(t, res.Records, 1)
	assert.True(t, res.Records[0].Difference.Equal(decimal.NewFromInt(2)))
}

func TestSavePartition_DedupesKeepLast(t *testing.T) {
	ctx := context.Background()
	parts := memory.NewPartitionStore()
	store := accumulate.NewStore(parts, pinnedStd(), logger.Nop())

	require.NoError(t, store.SavePartition(ctx, "2024-12-15", []entity.MismatchRecord{
		mismatch("2024-12-15", "ICU", "A123456", 1),
		mismatch("2024-12-15", "ICU", "A123456", 3),
	}))

	saved, err := parts.LoadPartition(ctx, "2024-12-15")
	require.NoError(t, err)
	require.Len(t, saved, 1)
	assert.True(t, saved[0].Difference.Equal(decimal.NewFromInt(3)))
}

func TestSavePartition_RepairsRowDates(t *testing.T) {
	ctx := context.Background()
	parts := memory.NewPartitionStore()
	store := accumulate.NewStore(parts, pinnedStd(), logger.Nop())

	require.NoError(t, store.SavePartition(ctx, "2024-12-15", []entity.MismatchRecord{
		mismatch("notadate", "ICU", "A123456", 1),
	}))

	saved, err := parts.LoadPartition(ctx, "2024-12-15")
	require.NoError(t, err)
	require.Len(t, saved, 1)
	assert.Equal(t, "2024-12-15", saved[0].Date)
}

func TestAppendMissing_MarkerWinsOnCollision(t *testing.T) {
	ctx := context.Background()
	parts := memory.NewPartitionStore()
	store := accumulate.NewStore(parts, pinnedStd(), logger.Nop())

	require.NoError(t, store.SavePartition(ctx, "2024-12-15", []entity.MismatchRecord{
		mismatch("2024-12-15", "ICU", "A123456", 1),
	}))
	require.NoError(t, store.AppendMissing(ctx, "2024-12-15", []entity.MismatchRecord{
		missing("2024-12-15", "ICU", "A123456"),
		missing("2024-12-15", "ICU", "B234567"),
	}))

	saved, err := parts.LoadPartition(ctx, "2024-12-15")
	require.NoError(t, err)
	require.Len(t, saved, 2)
	for _, r := range saved {
		assert.True(t, r.IsSystemMissing(), "row %s should carry the marker", r.ItemCode)
	}
}

func TestAppendMissing_IntoEmptyPartition(t *testing.T) {
	ctx := context.Background()
	store := accumulate.NewStore(memory.NewPartitionStore(), pinnedStd(), logger.Nop())

	require.NoError(t, store.AppendMissing(ctx, "2024-12-15", []entity.MismatchRecord{
		missing("2024-12-15", "ICU", "A123456"),
	}))

	dates, err := store.Dates(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"2024-12-15"}, dates)
}

func TestMergeAll_SortsAndDedupesAcrossDates(t *testing.T) {
	ctx := context.Background()
	store := accumulate.NewStore(memory.NewPartitionStore(), pinnedStd(), logger.Nop())

	require.NoError(t, store.SavePartition(ctx, "2024-12-16", []entity.MismatchRecord{
		mismatch("2024-12-16", "ER", "B234567", 1),
		mismatch("2024-12-16", "ER", "A123456", 1),
	}))
	require.NoError(t, store.SavePartition(ctx, "2024-12-15", []entity.MismatchRecord{
		mismatch("2024-12-15", "ICU", "A123456", 1),
	}))

	res, err := store.MergeAll(ctx, accumulate.MergeOptions{})
	require.NoError(t, err)
	assert.Equal(t, []string{"2024-12-15", "2024-12-16"}, res.Dates)

	require.Len(t, res.Records, 3)
	assert.Equal(t, "2024-12-15", res.Records[0].Date)
	assert.Equal(t, "A123456", res.Records[1].ItemCode)
	assert.Equal(t, "B234567", res.Records[2].ItemCode)

	// The merged set is persisted as the canonical view.
	merged, err := store.Merged(ctx)
	require.NoError(t, err)
	assert.Equal(t, res.Records, merged)
}

func TestMergeAll_Idempotent(t *testing.T) {
	ctx := context.Background()
	store := accumulate.NewStore(memory.NewPartitionStore(), pinnedStd(), logger.Nop())

	require.NoError(t, store.SavePartition(ctx, "2024-12-15", []entity.MismatchRecord{
		mismatch("2024-12-15", "ICU", "A123456", 1),
	}))

	first, err := store.MergeAll(ctx, accumulate.MergeOptions{})
	require.NoError(t, err)
	second, err := store.MergeAll(ctx, accumulate.MergeOptions{})
	require.NoError(t, err)
	assert.Equal(t, first.Records, second.Records)
}

func TestMergeAll_AppliesCompletionFilter(t *testing.T) {
	ctx := context.Background()
	store := accumulate.NewStore(memory.NewPartitionStore(), pinnedStd(), logger.Nop())

	require.NoError(t, store.SavePartition(ctx, "2024-12-15", []entity.MismatchRecord{
		mismatch("2024-12-15", "ICU", "A123456", 1),
		missing("2024-12-15", "ICU", "B234567"),
	}))

	entries := []entity.CompletionEntry{
		{Date: "2024-12-15", Department: "ICU", ItemCode: "A123456"},
		// Completing a system-missing row must not remove it.
		{Date: "2024-12-15", Department: "ICU", ItemCode: "B234567"},
	}

	res, err := store.MergeAll(ctx, accumulate.MergeOptions{Completed: entries})
	require.NoError(t, err)
	require.Len(t, res.Records, 1)
	assert.Equal(t, "B234567", res.Records[0].ItemCode)
	assert.True(t, res.Records[0].IsSystemMissing())
}

func TestMergeAll_DateRangeRestrictsFilter(t *testing.T) {
	ctx := context.Background()
	store := accumulate.NewStore(memory.NewPartitionStore(), pinnedStd(), logger.Nop())

	require.NoError(t, store.SavePartition(ctx, "2024-12-15", []entity.MismatchRecord{
		mismatch("2024-12-15", "ICU", "A123456", 1),
	}))

	entries := []entity.CompletionEntry{
		{Date: "2024-12-15", Department: "ICU", ItemCode: "A123456"},
	}
	rng := &completion.DateRange{Start: "2024-01-01", End: "2024-11-30"}

	// The completion entry is outside the range, so the row survives.
	res, err := store.MergeAll(ctx, accumulate.MergeOptions{Completed: entries, Range: rng})
	require.NoError(t, err)
	require.Len(t, res.Records, 1)
}

func TestMergeAll_NoPartitions(t *testing.T) {
	ctx := context.Background()
	store := accumulate.NewStore(memory.NewPartitionStore(), pinnedStd(), logger.Nop())

	_, err := store.MergeAll(ctx, accumulate.MergeOptions{})
	assert.ErrorIs(t, err, domain.ErrEmptyInput)
}
