package ingest_test

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hyeonlab/ward-recon/internal/application/ingest"
	"github.com/hyeonlab/ward-recon/internal/domain"
	"github.com/hyeonlab/ward-recon/internal/domain/dateutil"
	"github.com/hyeonlab/ward-recon/pkg/logger"
)

type fakeWorkbook struct {
	sheets []string
	rows   map[string][][]string
}

func (w *fakeWorkbook) Sheets() []string { return w.sheets }
func (w *fakeWorkbook) Rows(sheet string) ([][]string, error) {
	return w.rows[sheet], nil
}

func newIngestor() *ingest.Ingestor {
	std := dateutil.Standardizer{Now: func() time.Time {
		return time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	}}
	return ingest.New(std, logger.Nop())
}

func TestIngest_HeaderBelowTitleRows(t *testing.T) {
	wb := &fakeWorkbook{
		sheets: []string{"12.15"},
		rows: map[string][][]string{
			"12.15": {
				{"병원 물품 청구 현황"},
				{},
				{"", "작성일: 2024-12"},
				{"번호", "부서명", "물품코드", "물품명", "청구량", "수령량"},
				{"1", "ICU", "A123456", "saline 500ml", "10", "10"},
				{"2", "ER", "B234567", "gauze roll", "1,200", "abc"},
				{},
			},
		},
	}

	res, err := newIngestor().Ingest(wb, false)
	require.NoError(t, err)
	require.Len(t, res.Records, 2)
	assert.Equal(t, []string{"2024-12-15"}, res.Dates)

	first := res.Records[0]
	assert.Equal(t, "2024-12-15", first.Date)
	assert.Equal(t, "ICU", first.Department)
	assert.Equal(t, "A123456", first.ItemCode)
	assert.Equal(t, "saline 500ml", first.ItemName)
	assert.True(t, first.Requested.Equal(decimal.NewFromInt(10)))
	assert.False(t, first.IsMismatch())

	// Thousands separator stripped; non-numeric coerced to zero.
	second := res.Records[1]
	assert.True(t, second.Requested.Equal(decimal.NewFromInt(1200)))
	assert.True(t, second.Received.IsZero())
	assert.True(t, second.IsMismatch())
}

func TestIngest_ItemNameFallsBackToCode(t *testing.T) {
	wb := &fakeWorkbook{
		sheets: []string{"2024-12-01"},
		rows: map[string][][]string{
			"2024-12-01": {
				{"부서명", "물품코드", "물품명", "청구량", "수령량"},
				{"ICU", "A123456", "", "1", "2"},
			},
		},
	}

	res, err := newIngestor().Ingest(wb, false)
	require.NoError(t, err)
	require.Len(t, res.Records, 1)
	assert.Equal(t, "A123456", res.Records[0].ItemName)
}

func TestIngest_SheetWithoutDateNameSkipped(t *testing.T) {
	wb := &fakeWorkbook{
		sheets: []string{"Sheet1", "2024-12-01"},
		rows: map[string][][]string{
			"Sheet1": {
				{"부서명", "물품코드", "청구량", "수령량"},
				{"ICU", "A123456", "1", "2"},
			},
			"2024-12-01": {
				{"부서명", "물품코드", "청구량", "수령량"},
				{"ER", "B234567", "3", "3"},
			},
		},
	}

	res, err := newIngestor().Ingest(wb, false)
	require.NoError(t, err)
	require.Len(t, res.Records, 1)
	assert.Equal(t, "ER", res.Records[0].Department)
	require.Len(t, res.Warnings, 1)
	assert.Contains(t, res.Warnings[0], "Sheet1")
}

func TestIngest_AllSheetsUnusable(t *testing.T) {
	wb := &fakeWorkbook{
		sheets: []string{"Sheet1"},
		rows:   map[string][][]string{"Sheet1": {{"no", "ledger", "here"}}},
	}

	_, err := newIngestor().Ingest(wb, false)
	assert.ErrorIs(t, err, domain.ErrEmptyInput)
}

func TestIngest_MissingRequiredColumn(t *testing.T) {
	wb := &fakeWorkbook{
		sheets: []string{"2024-12-01"},
		rows: map[string][][]string{
			"2024-12-01": {
				// Header row detected (all keywords present) but the code
				// column header is corrupted, so resolution fails.
				{"부서명", "물품코드X", "item_code?", "청구량", "수령량"},
				{"ICU", "A123456", "", "1", "2"},
			},
		},
	}

	_, err := newIngestor().Ingest(wb, false)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrMissingColumn)

	var missing *domain.MissingColumnError
	require.ErrorAs(t, err, &missing)
	assert.Contains(t, missing.Columns, "item_code")
}

func TestIngest_EnglishHeaders(t *testing.T) {
	wb := &fakeWorkbook{
		sheets: []string{"2024-12-01"},
		rows: map[string][][]string{
			"2024-12-01": {
				{"department", "item_code", "requested", "received"},
				{"ICU", "A123456", "1", "2"},
			},
		},
	}

	res, err := newIngestor().Ingest(wb, false)
	require.NoError(t, err)
	require.Len(t, res.Records, 1)
	assert.Equal(t, "ICU", res.Records[0].Department)
}

func TestIngest_CumulativeLayout(t *testing.T) {
	header := []string{"날짜", "부서명", "물품코드", "물품명", "청구량", "수령량", "", "", "", "", "", "처리일"}
	wb := &fakeWorkbook{
		sheets: []string{"accumulated"},
		rows: map[string][][]string{
			"accumulated": {
				header,
				{"", "ICU", "A123456", "saline 500ml", "5", "3", "", "", "", "", "", "2024-12-01"},
				{"", "ER", "B234567", "gauze roll", "2", "2", "", "", "", "", "", "notadate"},
			},
		},
	}

	res, err := newIngestor().Ingest(wb, true)
	require.NoError(t, err)
	require.Len(t, res.Records, 2)

	assert.Equal(t, "2024-12-01", res.Records[0].Date)
	// Unparseable per-row dates survive raw; the merge repairs them against
	// the partition date later.
	assert.Equal(t, "notadate", res.Records[1].Date)
}

func TestIngest_CumulativeMissingDateColumn(t *testing.T) {
	wb := &fakeWorkbook{
		sheets: []string{"accumulated"},
		rows: map[string][][]string{
			"accumulated": {
				{"부서명", "물품코드", "청구량", "수령량"},
				{"ICU", "A123456", "1", "2"},
			},
		},
	}

	_, err := newIngestor().Ingest(wb, true)
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrEmptyInput))
}

func TestFindHeaderRow(t *testing.T) {
	rows := [][]string{
		{"title"},
		{},
		{"번호", "부서명", "물품코드", "청구량", "수령량"},
	}
	idx, found := ingest.FindHeaderRow(rows)
	assert.True(t, found)
	assert.Equal(t, 2, idx)

	_, found = ingest.FindHeaderRow([][]string{{"nothing"}, {"here"}})
	assert.False(t, found)
}
