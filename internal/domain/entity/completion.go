package entity

import "time"

// CompletionEntry records one operator resolution: the identity key of the
// resolved row, when it was resolved, and a snapshot of the row at that
// moment. Entries never expire; removal is only by explicit retraction.
type CompletionEntry struct {
	ID          string
	Date        string
	Department  string
	ItemCode    string
	CompletedAt time.Time
	Snapshot    MismatchRecord
}

// Key returns the entry's identity key.
func (e CompletionEntry) Key() RecordKey {
	return RecordKey{Date: e.Date, Department: e.Department, ItemCode: e.ItemCode}
}
