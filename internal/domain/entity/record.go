package entity

import (
	"github.com/shopspring/decimal"
)

// MarkerSystemMissing flags an item observed on the scanned receipt but
// entirely absent from the ledger. An empty marker means a plain quantity
// mismatch.
const MarkerSystemMissing = "system-missing"

// RecordKey is the de-duplication identity used by every merge and filter:
// (date, department, item_code). Date is the canonical "YYYY-MM-DD" string.
type RecordKey struct {
	Date       string
	Department string
	ItemCode   string
}

// LedgerRecord is one normalized row of the requested/received ledger.
// Records are rebuilt on every ingestion and never mutated in place.
type LedgerRecord struct {
	Date       string
	Department string
	ItemCode   string
	ItemName   string
	Requested  decimal.Decimal
	Received   decimal.Decimal
}

// Difference is received minus requested.
func (r LedgerRecord) Difference() decimal.Decimal {
	return r.Received.Sub(r.Requested)
}

// IsMismatch reports whether requested and received quantities differ.
func (r LedgerRecord) IsMismatch() bool {
	return !r.Requested.Equal(r.Received)
}

// Key returns the record's de-duplication identity.
func (r LedgerRecord) Key() RecordKey {
	return RecordKey{Date: r.Date, Department: r.Department, ItemCode: r.ItemCode}
}

// MismatchRecord is a ledger row whose quantities disagree, or a synthesized
// system-missing observation (Requested 0, Received 1). Resolved is an
// overlay set from the completion log; it is never persisted with the row.
type MismatchRecord struct {
	Date       string
	Department string
	ItemCode   string
	ItemName   string
	Requested  decimal.Decimal
	Received   decimal.Decimal
	Difference decimal.Decimal
	Missing    string
	Resolved   bool
}

// Key returns the record's de-duplication identity.
func (m MismatchRecord) Key() RecordKey {
	return RecordKey{Date: m.Date, Department: m.Department, ItemCode: m.ItemCode}
}

// IsSystemMissing reports whether the row carries the system-missing marker.
func (m MismatchRecord) IsSystemMissing() bool {
	return m.Missing == MarkerSystemMissing
}
