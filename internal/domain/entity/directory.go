package entity

import "strings"

// ItemDirectory is the bidirectional item_code <-> item_name mapping, loaded
// once and immutable for the rest of the run. Duplicate codes keep the last
// occurrence, matching the source file's row order.
type ItemDirectory struct {
	byCode map[string]string
	byName map[string]string
}

// NewItemDirectory builds a directory from (code, name) pairs. Values are
// trimmed; pairs with an empty code are skipped.
func NewItemDirectory(pairs []CodeName) *ItemDirectory {
	d := &ItemDirectory{
		byCode: make(map[string]string, len(pairs)),
		byName: make(map[string]string, len(pairs)),
	}
	for _, p := range pairs {
		code := strings.TrimSpace(p.Code)
		name := strings.TrimSpace(p.Name)
		if code == "" {
			continue
		}
		d.byCode[code] = name
	}
	// Inverse built after the forward map so a re-used name points at the
	// code that won the forward mapping.
	for code, name := range d.byCode {
		if name != "" {
			d.byName[name] = code
		}
	}
	return d
}

// Name returns the display name for a code, or "" when unknown.
func (d *ItemDirectory) Name(code string) string {
	return d.byCode[strings.TrimSpace(code)]
}

// Code returns the item code for a display name, or "" when unknown.
func (d *ItemDirectory) Code(name string) string {
	return d.byName[strings.TrimSpace(name)]
}

// Len is the number of known item codes.
func (d *ItemDirectory) Len() int { return len(d.byCode) }
