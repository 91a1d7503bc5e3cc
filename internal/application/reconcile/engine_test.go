package reconcile_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hyeonlab/ward-recon/internal/application/reconcile"
	"github.com/hyeonlab/ward-recon/internal/domain/entity"
	"github.com/hyeonlab/ward-recon/pkg/logger"
)

func ledgerRow(dept, code, name string, req, recv int64) entity.LedgerRecord {
	return entity.LedgerRecord{
		Date:       "2024-12-15",
		Department: dept,
		ItemCode:   code,
		ItemName:   name,
		Requested:  decimal.NewFromInt(req),
		Received:   decimal.NewFromInt(recv),
	}
}

func TestReconcile_OnlyDisagreementsSurvive(t *testing.T) {
	eng := reconcile.New(logger.Nop())

	records := []entity.LedgerRecord{
		ledgerRow("ICU", "A123456", "saline 500ml", 2, 2),
		ledgerRow("ICU", "B234567", "gauze roll", 0, 1),
		ledgerRow("ER", "C345678", "syringe 10ml", 5, 3),
	}

	mismatches := eng.Reconcile(records)
	require.Len(t, mismatches, 2)

	assert.Equal(t, "B234567", mismatches[0].ItemCode)
	assert.True(t, mismatches[0].Difference.Equal(decimal.NewFromInt(1)))
	assert.False(t, mismatches[0].IsSystemMissing())

	assert.Equal(t, "C345678", mismatches[1].ItemCode)
	assert.True(t, mismatches[1].Difference.Equal(decimal.NewFromInt(-2)))
}

func TestReconcile_NoMismatches(t *testing.T) {
	eng := reconcile.New(logger.Nop())

	mismatches := eng.Reconcile([]entity.LedgerRecord{
		ledgerRow("ICU", "A123456", "saline 500ml", 2, 2),
	})
	assert.Empty(t, mismatches)
}

func TestCompareDepartments(t *testing.T) {
	eng := reconcile.New(logger.Nop())

	ledger := []entity.LedgerRecord{
		ledgerRow("ICU", "A123456", "saline 500ml", 1, 1),
		ledgerRow("ER", "B234567", "gauze roll", 1, 1),
	}
	ocr := []entity.DepartmentPage{
		{Department: "ICU", Page: 1},
		{Department: "ICU", Page: 2},
		{Department: "OR", Page: 3},
	}

	cmp := eng.CompareDepartments(ledger, ocr)
	assert.Equal(t, []string{"ICU"}, cmp.Common)
	assert.Equal(t, []string{"ER"}, cmp.LedgerOnly)
	require.Len(t, cmp.OCROnly, 1)
	assert.Equal(t, "OR", cmp.OCROnly[0].Department)
	assert.Equal(t, []int{3}, cmp.OCROnly[0].Pages)
}

func TestCompareItems(t *testing.T) {
	eng := reconcile.New(logger.Nop())
	dir := entity.NewItemDirectory([]entity.CodeName{
		{Code: "A123456", Name: "saline 500ml"},
		{Code: "B234567", Name: "gauze roll"},
		{Code: "C345678", Name: "syringe 10ml"},
	})

	ledger := []entity.LedgerRecord{
		ledgerRow("ICU", "", "saline 500ml", 1, 1),
		ledgerRow("ICU", "", "gauze roll", 1, 1),
		ledgerRow("ICU", "", "mystery item", 1, 1),
	}
	ocrCodes := []string{"A123456", "C345678"}

	cmp, warnings := eng.CompareItems(ledger, ocrCodes, dir)

	assert.Equal(t, []entity.CodeName{{Code: "A123456", Name: "saline 500ml"}}, cmp.Common)
	assert.Equal(t, []entity.CodeName{{Code: "B234567", Name: "gauze roll"}}, cmp.LedgerOnly)
	assert.Equal(t, []entity.CodeName{{Code: "C345678", Name: "syringe 10ml"}}, cmp.OCROnly)

	// The unmapped ledger name is reported, not silently dropped.
	require.Len(t, warnings, 1)
	assert.Contains(t, warnings[0], "mystery item")
}

func TestMissingRecords(t *testing.T) {
	eng := reconcile.New(logger.Nop())

	records := eng.MissingRecords("2024-12-15", "ICU", []entity.CodeName{
		{Code: "D456789", Name: "alcohol swab"},
		{Code: "E567890", Name: ""},
	})
	require.Len(t, records, 2)

	first := records[0]
	assert.Equal(t, "2024-12-15", first.Date)
	assert.Equal(t, "ICU", first.Department)
	assert.True(t, first.Requested.IsZero())
	assert.True(t, first.Received.Equal(decimal.NewFromInt(1)))
	assert.True(t, first.Difference.Equal(decimal.NewFromInt(1)))
	assert.True(t, first.IsSystemMissing())

	// Name falls back to the code when the directory has none.
	assert.Equal(t, "E567890", records[1].ItemName)
}

func TestSummarize_SkipsSystemMissingRows(t *testing.T) {
	eng := reconcile.New(logger.Nop())

	mismatches := eng.Reconcile([]entity.LedgerRecord{
		ledgerRow("ICU", "A123456", "saline 500ml", 0, 1),
		ledgerRow("ER", "B234567", "gauze roll", 5, 2),
		ledgerRow("ER", "C345678", "syringe 10ml", 4, 5),
	})
	mismatches = append(mismatches, eng.MissingRecords("2024-12-15", "OR", []entity.CodeName{
		{Code: "D456789", Name: "alcohol swab"},
	})...)

	s := reconcile.Summarize(mismatches)
	assert.Equal(t, 3, s.Total)
	// (1 - 3 + 1) / 3
	assert.True(t, s.AvgDifference.Round(4).Equal(decimal.RequireFromString("-0.3333")),
		"avg difference should be -1/3, got %s", s.AvgDifference)

	require.Len(t, s.Departments, 2)
	assert.Equal(t, reconcile.NameCount{Name: "ER", Count: 2}, s.Departments[0])
	assert.Equal(t, reconcile.NameCount{Name: "ICU", Count: 1}, s.Departments[1])
}
