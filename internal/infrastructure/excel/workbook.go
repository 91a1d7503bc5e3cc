// Package excel adapts xlsx workbooks and item-directory files to the
// application layer's input surfaces.
package excel

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"
)

// Workbook wraps an open xlsx file behind the ingest.Workbook surface.
type Workbook struct {
	f *excelize.File
}

// Open opens a workbook from disk.
func Open(path string) (*Workbook, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open workbook %s: %w", path, err)
	}
	return &Workbook{f: f}, nil
}

// OpenReader opens a workbook from a stream (uploads).
func OpenReader(r io.Reader) (*Workbook, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	return &Workbook{f: f}, nil
}

// Close releases the underlying file.
func (w *Workbook) Close() error {
	return w.f.Close()
}

// Sheets returns the sheet names in workbook order.
func (w *Workbook) Sheets() []string {
	return w.f.GetSheetList()
}

// Rows returns every row of a sheet as strings. Trailing empty cells may be
// absent; callers index defensively.
func (w *Workbook) Rows(sheet string) ([][]string, error) {
	return w.f.GetRows(sheet)
}
