// Package reconcile computes the discrepancies between the ledger and the
// OCR-derived receipt observations: quantity mismatches, department set
// differences and system-missing item candidates.
package reconcile

import (
	"fmt"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/hyeonlab/ward-recon/internal/domain/entity"
	"github.com/hyeonlab/ward-recon/pkg/logger"
)

// Engine runs the comparisons. Stateless apart from the logger.
type Engine struct {
	log *logger.Logger
}

// New builds an Engine.
func New(log *logger.Logger) *Engine {
	return &Engine{log: log}
}

// Reconcile emits one MismatchRecord per ledger row whose requested and
// received quantities differ. Quantities were already coerced to numeric at
// ingestion (non-numeric becomes 0), so the comparison here is exact.
func (e *Engine) Reconcile(records []entity.LedgerRecord) []entity.MismatchRecord {
	var out []entity.MismatchRecord
	for _, r := range records {
		if !r.IsMismatch() {
			continue
		}
		out = append(out, entity.MismatchRecord{
			Date:       r.Date,
			Department: r.Department,
			ItemCode:   r.ItemCode,
			ItemName:   r.ItemName,
			Requested:  r.Requested,
			Received:   r.Received,
			Difference: r.Difference(),
		})
	}
	e.log.Debug().Int("rows", len(records)).Int("mismatches", len(out)).Msg("reconcile")
	return out
}

// OCROnlyDepartment is a department seen on the receipts but absent from the
// ledger, with the sorted pages it appears on. These are the "likely absent
// from ledger" candidates.
type OCROnlyDepartment struct {
	Department string
	Pages      []int
}

// DepartmentComparison is the set comparison between ledger and OCR
// departments. All slices are sorted by department name.
type DepartmentComparison struct {
	Common     []string
	LedgerOnly []string
	OCROnly    []OCROnlyDepartment
}

// CompareDepartments intersects the ledger's department set with the
// OCR-derived one.
func (e *Engine) CompareDepartments(ledger []entity.LedgerRecord, ocr []entity.DepartmentPage) DepartmentComparison {
	ledgerSet := make(map[string]bool)
	for _, r := range ledger {
		if r.Department != "" {
			ledgerSet[r.Department] = true
		}
	}
	ocrPages := entity.GroupPages(ocr)

	var cmp DepartmentComparison
	for dept := range ledgerSet {
		if _, ok := ocrPages[dept]; ok {
			cmp.Common = append(cmp.Common, dept)
		} else {
			cmp.LedgerOnly = append(cmp.LedgerOnly, dept)
		}
	}
	for dept, pages := range ocrPages {
		if !ledgerSet[dept] {
			cmp.OCROnly = append(cmp.OCROnly, OCROnlyDepartment{Department: dept, Pages: pages})
		}
	}

	sort.Strings(cmp.Common)
	sort.Strings(cmp.LedgerOnly)
	sort.Slice(cmp.OCROnly, func(i, j int) bool { return cmp.OCROnly[i].Department < cmp.OCROnly[j].Department })
	return cmp
}

// ItemComparison is the code-level set comparison for one department. Every
// slice is sorted by code; names come from the item directory ("" when the
// directory does not know the code).
type ItemComparison struct {
	Common     []entity.CodeName
	LedgerOnly []entity.CodeName
	OCROnly    []entity.CodeName
}

// CompareItems maps the ledger rows' item names to codes through the
// directory's inverse lookup and compares them against the OCR code set.
// Ledger names the directory cannot map are dropped with a warning; the
// OCROnly side is the system-missing candidate set.
func (e *Engine) CompareItems(ledger []entity.LedgerRecord, ocrCodes []string, dir *entity.ItemDirectory) (ItemComparison, []string) {
	var warnings []string

	ledgerSet := make(map[string]bool)
	seenNames := make(map[string]bool)
	for _, r := range ledger {
		name := r.ItemName
		if name == "" || seenNames[name] {
			continue
		}
		seenNames[name] = true
		code := dir.Code(name)
		if code == "" {
			msg := fmt.Sprintf("ledger item name %q has no directory match", name)
			e.log.Warn().Msg(msg)
			warnings = append(warnings, msg)
			continue
		}
		ledgerSet[code] = true
	}

	ocrSet := make(map[string]bool, len(ocrCodes))
	for _, c := range ocrCodes {
		ocrSet[c] = true
	}

	var cmp ItemComparison
	for code := range ledgerSet {
		if ocrSet[code] {
			cmp.Common = append(cmp.Common, entity.CodeName{Code: code, Name: dir.Name(code)})
		} else {
			cmp.LedgerOnly = append(cmp.LedgerOnly, entity.CodeName{Code: code, Name: dir.Name(code)})
		}
	}
	for code := range ocrSet {
		if !ledgerSet[code] {
			cmp.OCROnly = append(cmp.OCROnly, entity.CodeName{Code: code, Name: dir.Name(code)})
		}
	}

	sortByCode(cmp.Common)
	sortByCode(cmp.LedgerOnly)
	sortByCode(cmp.OCROnly)
	return cmp, warnings
}

// MissingRecords synthesizes a system-missing MismatchRecord for each
// OCR-only item: one observed unit that the ledger never requested.
func (e *Engine) MissingRecords(date, department string, ocrOnly []entity.CodeName) []entity.MismatchRecord {
	out := make([]entity.MismatchRecord, 0, len(ocrOnly))
	for _, it := range ocrOnly {
		name := it.Name
		if name == "" {
			name = it.Code
		}
		out = append(out, entity.MismatchRecord{
			Date:       date,
			Department: department,
			ItemCode:   it.Code,
			ItemName:   name,
			Requested:  decimal.Zero,
			Received:   decimal.NewFromInt(1),
			Difference: decimal.NewFromInt(1),
			Missing:    entity.MarkerSystemMissing,
		})
	}
	return out
}

func sortByCode(s []entity.CodeName) {
	sort.Slice(s, func(i, j int) bool { return s[i].Code < s[j].Code })
}
