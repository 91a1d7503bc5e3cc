package excel

import (
	"encoding/csv"
	"fmt"
	"io"
	"regexp"
	"strings"

	"golang.org/x/text/encoding/korean"
	"golang.org/x/text/transform"

	"github.com/hyeonlab/ward-recon/internal/domain/entity"
)

// itemCodePattern decides whether a row is data or header when loading a
// directory file without a declared schema.
var itemCodePattern = regexp.MustCompile(`^[A-Z]\d{6}$`)

// LoadDirectoryXLSX reads the item directory from the first sheet of an xlsx
// file: column A is the item code, column B the display name. A leading
// header row (first cell not shaped like a code) is skipped.
func LoadDirectoryXLSX(path string) ([]entity.CodeName, error) {
	wb, err := Open(path)
	if err != nil {
		return nil, err
	}
	defer wb.Close()

	sheets := wb.Sheets()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("directory %s: workbook has no sheets", path)
	}
	rows, err := wb.Rows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("directory %s: %w", path, err)
	}
	return pairsFromRows(rows), nil
}

// LoadDirectoryCSV reads the item directory from a CSV stream. Hospital
// exports are EUC-KR encoded; the stream is transcoded to UTF-8 first.
func LoadDirectoryCSV(r io.Reader) ([]entity.CodeName, error) {
	cr := csv.NewReader(transform.NewReader(r, korean.EUCKR.NewDecoder()))
	cr.FieldsPerRecord = -1

	var rows [][]string
	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("directory csv: %w", err)
		}
		rows = append(rows, row)
	}
	return pairsFromRows(rows), nil
}

func pairsFromRows(rows [][]string) []entity.CodeName {
	var pairs []entity.CodeName
	for i, row := range rows {
		if len(row) < 2 {
			continue
		}
		code := strings.TrimSpace(row[0])
		name := strings.TrimSpace(row[1])
		if code == "" || name == "" {
			continue
		}
		if i == 0 && !itemCodePattern.MatchString(code) {
			continue // header row
		}
		pairs = append(pairs, entity.CodeName{Code: code, Name: name})
	}
	return pairs
}
