package ingest

import "strings"

// Field identifies a canonical ledger column.
type Field int

const (
	FieldUnknown Field = iota
	FieldDate
	FieldDepartment
	FieldItemCode
	FieldItemName
	FieldRequested
	FieldReceived
)

// String returns the canonical field name used across the module.
func (f Field) String() string {
	switch f {
	case FieldDate:
		return "date"
	case FieldDepartment:
		return "department"
	case FieldItemCode:
		return "item_code"
	case FieldItemName:
		return "item_name"
	case FieldRequested:
		return "requested_qty"
	case FieldReceived:
		return "received_qty"
	default:
		return "unknown"
	}
}

// columnSynonyms maps normalized (lower-cased, trimmed) raw header text to a
// canonical field. Matching is exact, not fuzzy: a header either is one of
// these strings or it is not a ledger column. Kept apart from the ingestion
// control flow so the table can be tested and extended on its own.
var columnSynonyms = map[string]Field{
	// Korean ward ledger headers
	"날짜":   FieldDate,
	"부서명":  FieldDepartment,
	"물품코드": FieldItemCode,
	"물품명":  FieldItemName,
	"청구량":  FieldRequested,
	"수령량":  FieldReceived,

	// English exports
	"date":          FieldDate,
	"department":    FieldDepartment,
	"item_code":     FieldItemCode,
	"item code":     FieldItemCode,
	"item_name":     FieldItemName,
	"item name":     FieldItemName,
	"requested_qty": FieldRequested,
	"requested":     FieldRequested,
	"received_qty":  FieldReceived,
	"received":      FieldReceived,
}

// headerKeywords drive header-row detection: a row qualifies as the header
// when, for every required field, at least one cell contains one of that
// field's keywords as a lower-cased substring.
var headerKeywords = map[Field][]string{
	FieldDepartment: {"부서명", "department"},
	FieldItemCode:   {"물품코드", "item_code", "item code"},
	FieldRequested:  {"청구량", "requested"},
	FieldReceived:   {"수령량", "received"},
}

// resolveColumn maps a raw header cell to its canonical field, or
// FieldUnknown when it is not a recognized ledger column.
func resolveColumn(raw string) Field {
	return columnSynonyms[strings.ToLower(strings.TrimSpace(raw))]
}
