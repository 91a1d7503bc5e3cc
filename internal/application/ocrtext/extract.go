// Package ocrtext segments per-page OCR text into department blocks and
// extracts item codes. The text is semi-structured and marker-delimited: a
// marker token line announces that the next line is a department name, and
// everything up to the next marker belongs to that department.
package ocrtext

import (
	"fmt"
	"regexp"
	"sort"

	"github.com/hyeonlab/ward-recon/internal/domain/entity"
	"github.com/hyeonlab/ward-recon/pkg/logger"
)

// DefaultMarker is the department marker token printed on ward receipts.
const DefaultMarker = "[부서명]"

var (
	// codePattern matches an item code anywhere in a line.
	codePattern = regexp.MustCompile(`[A-Z]\d{6}`)
	// codeLinePattern is the strict whole-line variant; the following line
	// is then taken as the item's display name.
	codeLinePattern = regexp.MustCompile(`^[A-Z]\d{6}$`)
)

// DeptItems is the aggregated item-code set for one department across all of
// its pages: sorted, deduplicated, plus the count.
type DeptItems struct {
	Codes []string
	Count int
}

// Parser extracts departments and item codes from per-page OCR text.
type Parser struct {
	marker string
	log    *logger.Logger
}

// NewParser builds a parser. An empty marker selects DefaultMarker.
func NewParser(marker string, log *logger.Logger) *Parser {
	if marker == "" {
		marker = DefaultMarker
	}
	return &Parser{marker: marker, log: log}
}

// ExtractDepartments returns one (department, page) pair per department block
// occurrence, in page order. The same department spanning several pages
// yields several pairs; entity.GroupPages collapses them when needed.
func (p *Parser) ExtractDepartments(pages []string) []entity.DepartmentPage {
	var out []entity.DepartmentPage
	for _, b := range scanPages(pages, p.marker) {
		out = append(out, entity.DepartmentPage{Department: b.dept, Page: b.page})
	}
	return out
}

// ExtractItems aggregates item codes per department over the given
// (department, page) pairs: all block lines of a department are concatenated
// across its pages, codes are matched anywhere in a line, and the result is
// sorted and deduplicated. Re-running on the same input yields the same set.
//
// Pairs with a page index outside [1, len(pages)] are skipped with a warning.
func (p *Parser) ExtractItems(pages []string, depts []entity.DepartmentPage) (map[string]DeptItems, []string) {
	var warnings []string
	wanted := make(map[entity.DepartmentPage]bool)
	for _, dp := range depts {
		if dp.Page < 1 || dp.Page > len(pages) {
			msg := fmt.Sprintf("page %d out of range for department %q", dp.Page, dp.Department)
			p.log.Warn().Msg(msg)
			warnings = append(warnings, msg)
			continue
		}
		wanted[dp] = true
	}

	codes := make(map[string]map[string]bool)
	for _, b := range scanPages(pages, p.marker) {
		if !wanted[entity.DepartmentPage{Department: b.dept, Page: b.page}] {
			continue
		}
		if codes[b.dept] == nil {
			codes[b.dept] = make(map[string]bool)
		}
		for _, line := range b.lines {
			for _, code := range codePattern.FindAllString(line, -1) {
				codes[b.dept][code] = true
			}
		}
	}

	out := make(map[string]DeptItems, len(codes))
	for dept, set := range codes {
		list := make([]string, 0, len(set))
		for c := range set {
			list = append(list, c)
		}
		sort.Strings(list)
		out[dept] = DeptItems{Codes: list, Count: len(list)}
		p.log.Debug().Str("department", dept).Int("items", len(list)).Msg("aggregated item codes")
	}
	return out, warnings
}

// ExtractItemsWithNames is the strict variant: a line that is exactly an item
// code, inside a department block on one of the given pages, pairs with the
// immediately following line as the item's display name. Codes whose
// following line is blank or absent are dropped.
func (p *Parser) ExtractItemsWithNames(pages []string, pageNums []int) ([]entity.CodeName, []string) {
	var warnings []string
	valid := make(map[int]bool)
	for _, n := range pageNums {
		if n < 1 || n > len(pages) {
			msg := fmt.Sprintf("page %d out of range", n)
			p.log.Warn().Msg(msg)
			warnings = append(warnings, msg)
			continue
		}
		valid[n] = true
	}

	var out []entity.CodeName
	for _, b := range scanPages(pages, p.marker) {
		if !valid[b.page] {
			continue
		}
		for i, line := range b.lines {
			if !codeLinePattern.MatchString(line) {
				continue
			}
			if i+1 >= len(b.lines) {
				continue
			}
			if name := b.lines[i+1]; name != "" {
				out = append(out, entity.CodeName{Code: line, Name: name})
			}
		}
	}
	return out, warnings
}
