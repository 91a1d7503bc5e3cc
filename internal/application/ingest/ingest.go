// Package ingest normalizes heterogeneous ward ledger workbooks into
// canonical LedgerRecords: header-row detection, sheet-name date resolution,
// column-name standardization and quantity coercion.
package ingest

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/hyeonlab/ward-recon/internal/domain"
	"github.com/hyeonlab/ward-recon/internal/domain/dateutil"
	"github.com/hyeonlab/ward-recon/internal/domain/entity"
	"github.com/hyeonlab/ward-recon/pkg/logger"
)

// headerScanRows limits header detection to the top of each sheet.
const headerScanRows = 10

// cumulativeDateColumn is the 0-based column that carries the date in the
// fixed-layout accumulated workbook (column L).
const cumulativeDateColumn = 11

// Workbook is the tabular input surface. The excelize adapter in
// infrastructure/excel implements it; tests use in-memory grids.
type Workbook interface {
	Sheets() []string
	Rows(sheet string) ([][]string, error)
}

// Result is the outcome of one ingestion call. Warnings carry per-sheet
// conditions that did not abort the call (skipped sheets, header fallback).
type Result struct {
	Records  []entity.LedgerRecord
	Dates    []string
	Warnings []string
}

// Ingestor converts workbooks into canonical ledger records. Pure transform:
// no stored state beyond the injected clock and logger.
type Ingestor struct {
	std dateutil.Standardizer
	log *logger.Logger
}

// New builds an Ingestor.
func New(std dateutil.Standardizer, log *logger.Logger) *Ingestor {
	return &Ingestor{std: std, log: log}
}

// FindHeaderRow scans at most the first 10 rows for one containing, for every
// required field, at least one cell whose lower-cased text includes one of
// that field's keywords. Returns the first qualifying row index, or (0,
// false) when none qualifies.
func FindHeaderRow(rows [][]string) (int, bool) {
	limit := len(rows)
	if limit > headerScanRows {
		limit = headerScanRows
	}
	for i := 0; i < limit; i++ {
		if rowHasAllKeywords(rows[i]) {
			return i, true
		}
	}
	return 0, false
}

func rowHasAllKeywords(row []string) bool {
	for _, keywords := range headerKeywords {
		found := false
		for _, cell := range row {
			lower := strings.ToLower(cell)
			for _, kw := range keywords {
				if strings.Contains(lower, kw) {
					found = true
					break
				}
			}
			if found {
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

// Ingest loads every usable sheet of wb and returns canonical records.
//
// Non-cumulative mode resolves each sheet's date from its name; sheets whose
// name is not a recognizable date are skipped with a warning. Cumulative mode
// assumes the fixed accumulated layout: row 0 is the header and each data
// row's date sits in column index 11.
//
// An unresolvable required column aborts the call with MissingColumnError;
// zero usable sheets aborts with ErrEmptyInput.
func (ing *Ingestor) Ingest(wb Workbook, cumulative bool) (*Result, error) {
	res := &Result{}
	dateSeen := map[string]bool{}

	for _, sheet := range wb.Sheets() {
		var (
			records []entity.LedgerRecord
			err     error
		)
		if cumulative {
			records, err = ing.loadCumulativeSheet(wb, sheet, res)
		} else {
			records, err = ing.loadSheet(wb, sheet, res)
		}
		if err != nil {
			return nil, err
		}
		for _, r := range records {
			if !dateSeen[r.Date] {
				dateSeen[r.Date] = true
				res.Dates = append(res.Dates, r.Date)
			}
		}
		res.Records = append(res.Records, records...)
	}

	if len(res.Records) == 0 {
		return nil, fmt.Errorf("%w: no usable sheets in workbook", domain.ErrEmptyInput)
	}
	return res, nil
}

// loadSheet handles the one-sheet-per-period layout: the sheet name is the
// period date and the header row is searched within the first rows.
func (ing *Ingestor) loadSheet(wb Workbook, sheet string, res *Result) ([]entity.LedgerRecord, error) {
	date, err := ing.std.Standardize(sheet)
	if err != nil {
		ing.warnf(res, "sheet %q skipped: name is not a recognizable date", sheet)
		return nil, nil
	}

	rows, err := wb.Rows(sheet)
	if err != nil {
		ing.warnf(res, "sheet %q skipped: %v", sheet, err)
		return nil, nil
	}
	if len(rows) == 0 {
		ing.warnf(res, "sheet %q skipped: empty", sheet)
		return nil, nil
	}

	headerIdx, found := FindHeaderRow(rows)
	if !found {
		ing.warnf(res, "sheet %q: header row not found, using row 0", sheet)
	}

	cols, err := resolveColumns(rows[headerIdx])
	if err != nil {
		return nil, err
	}

	var records []entity.LedgerRecord
	for _, row := range rows[headerIdx+1:] {
		if emptyRow(row) {
			continue
		}
		records = append(records, buildRecord(row, cols, date))
	}
	ing.log.Info().Str("sheet", sheet).Str("date", date).Int("rows", len(records)).Msg("sheet loaded")
	return records, nil
}

// loadCumulativeSheet handles the fixed accumulated layout: no header search,
// row 0 is the header, dates come from column index 11 of each data row.
func (ing *Ingestor) loadCumulativeSheet(wb Workbook, sheet string, res *Result) ([]entity.LedgerRecord, error) {
	rows, err := wb.Rows(sheet)
	if err != nil {
		ing.warnf(res, "cumulative sheet %q skipped: %v", sheet, err)
		return nil, nil
	}
	if len(rows) < 2 {
		ing.warnf(res, "cumulative sheet %q skipped: no data rows", sheet)
		return nil, nil
	}
	if maxWidth(rows) <= cumulativeDateColumn {
		ing.warnf(res, "cumulative sheet %q skipped: date column %d missing", sheet, cumulativeDateColumn)
		return nil, nil
	}

	cols, err := resolveColumns(rows[0])
	if err != nil {
		return nil, err
	}

	var records []entity.LedgerRecord
	for _, row := range rows[1:] {
		if emptyRow(row) {
			continue
		}
		raw := cell(row, cumulativeDateColumn)
		date, err := ing.std.Standardize(raw)
		if err != nil {
			// Keep the raw value; the merge repairs it against the
			// partition date later.
			date = strings.TrimSpace(raw)
		}
		records = append(records, buildRecord(row, cols, date))
	}
	ing.log.Info().Str("sheet", sheet).Int("rows", len(records)).Msg("cumulative sheet loaded")
	return records, nil
}

// resolveColumns maps header cells to canonical fields via the synonym
// table. Duplicate header names keep the first occurrence. department,
// item_code and at least one quantity column are required.
func resolveColumns(header []string) (map[Field]int, error) {
	cols := make(map[Field]int)
	for i, raw := range header {
		f := resolveColumn(raw)
		if f == FieldUnknown {
			continue
		}
		if _, dup := cols[f]; dup {
			continue // duplicate column name, keep first
		}
		cols[f] = i
	}

	var missing []string
	if _, ok := cols[FieldDepartment]; !ok {
		missing = append(missing, FieldDepartment.String())
	}
	if _, ok := cols[FieldItemCode]; !ok {
		missing = append(missing, FieldItemCode.String())
	}
	_, hasReq := cols[FieldRequested]
	_, hasRecv := cols[FieldReceived]
	if !hasReq && !hasRecv {
		missing = append(missing, FieldRequested.String(), FieldReceived.String())
	}
	if len(missing) > 0 {
		return nil, &domain.MissingColumnError{Columns: missing}
	}
	return cols, nil
}

func buildRecord(row []string, cols map[Field]int, date string) entity.LedgerRecord {
	rec := entity.LedgerRecord{
		Date:       date,
		Department: fieldValue(row, cols, FieldDepartment),
		ItemCode:   fieldValue(row, cols, FieldItemCode),
		ItemName:   fieldValue(row, cols, FieldItemName),
		Requested:  parseQty(fieldValue(row, cols, FieldRequested)),
		Received:   parseQty(fieldValue(row, cols, FieldReceived)),
	}
	if rec.ItemName == "" {
		rec.ItemName = rec.ItemCode
	}
	return rec
}

func fieldValue(row []string, cols map[Field]int, f Field) string {
	idx, ok := cols[f]
	if !ok {
		return ""
	}
	return strings.TrimSpace(cell(row, idx))
}

// parseQty coerces a quantity cell to decimal; anything non-numeric
// (including blank) becomes 0.
func parseQty(raw string) decimal.Decimal {
	cleaned := strings.ReplaceAll(strings.TrimSpace(raw), ",", "")
	if cleaned == "" {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(cleaned)
	if err != nil {
		return decimal.Zero
	}
	return d
}

func emptyRow(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

func cell(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return row[idx]
}

func maxWidth(rows [][]string) int {
	w := 0
	for _, r := range rows {
		if len(r) > w {
			w = len(r)
		}
	}
	return w
}

func (ing *Ingestor) warnf(res *Result, format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	ing.log.Warn().Msg(msg)
	res.Warnings = append(res.Warnings, msg)
}
