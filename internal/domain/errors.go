package domain

import (
	"errors"
	"fmt"
	"strings"
)

// Error taxonomy for the reconciliation core. Failures local to one unit of
// work (one sheet, one page, one partition) are logged and skipped by callers;
// only these sentinels cross the module boundary.
var (
	ErrMissingColumn     = errors.New("required ledger column unresolved")
	ErrUnrecognizedDate  = errors.New("unrecognized date")
	ErrEmptyInput        = errors.New("no usable input")
	ErrExternalService   = errors.New("external service call failed")
	ErrMalformedLogEntry = errors.New("malformed completion log entry")
	ErrNotFound          = errors.New("not found")
)

// MissingColumnError reports which canonical ledger columns could not be
// resolved after header normalization. Fatal to the ingestion call.
type MissingColumnError struct {
	Columns []string
}

func (e *MissingColumnError) Error() string {
	return fmt.Sprintf("required ledger column unresolved: %s", strings.Join(e.Columns, ", "))
}

func (e *MissingColumnError) Unwrap() error { return ErrMissingColumn }
