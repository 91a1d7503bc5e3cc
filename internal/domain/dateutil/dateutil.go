// Package dateutil standardizes the date strings that arrive in sheet names,
// file names and partition rows into canonical "YYYY-MM-DD" form.
//
// Month-day inputs carry no year, so the current year is assumed and rolled
// back by one when the result lands in the future. That heuristic is
// ambiguous around year boundaries; callers that need determinism inject a
// pinned clock.
package dateutil

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/hyeonlab/ward-recon/internal/domain"
)

var (
	ymdPattern = regexp.MustCompile(`^(\d{4})[.-]?(\d{1,2})[.-]?(\d{1,2})`)
	mdPattern  = regexp.MustCompile(`(\d{1,2})[.-](\d{1,2})`)
)

// Standardizer converts heterogeneous date strings to "YYYY-MM-DD".
// The zero value uses the wall clock.
type Standardizer struct {
	Now func() time.Time
}

func (s Standardizer) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// Standardize parses date strings of the forms "YYYY-MM-DD", "YYYY.MM.DD",
// "MM.DD", "MM-DD" (also embedded in file names such as "ward_log_12.15").
// Month-day forms assume the current year, rolled back a year when the
// resulting date is in the future and the month is ahead of the clock's.
// Unrecognizable input returns domain.ErrUnrecognizedDate.
func (s Standardizer) Standardize(raw string) (string, error) {
	trimmed := strings.TrimSpace(raw)

	if m := ymdPattern.FindStringSubmatch(trimmed); m != nil {
		if d, ok := makeDate(atoi(m[1]), atoi(m[2]), atoi(m[3])); ok {
			return d.Format("2006-01-02"), nil
		}
	}

	if m := mdPattern.FindStringSubmatch(trimmed); m != nil {
		month, day := atoi(m[1]), atoi(m[2])
		if d, ok := makeDate(s.year(month, day), month, day); ok {
			return d.Format("2006-01-02"), nil
		}
	}

	return "", fmt.Errorf("%w: %q", domain.ErrUnrecognizedDate, raw)
}

// Canonical reports whether raw is already in exact "YYYY-MM-DD" form.
func Canonical(raw string) bool {
	if len(raw) != 10 {
		return false
	}
	_, err := time.Parse("2006-01-02", raw)
	return err == nil
}

func (s Standardizer) year(month, day int) int {
	now := s.now()
	year := now.Year()
	candidate := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	if candidate.After(now) && month > int(now.Month()) {
		year--
	}
	return year
}

func makeDate(year, month, day int) (time.Time, bool) {
	if month < 1 || month > 12 || day < 1 || day > 31 {
		return time.Time{}, false
	}
	d := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	// time.Date normalizes overflow (e.g. Feb 30 -> Mar 2); reject that.
	if int(d.Month()) != month || d.Day() != day {
		return time.Time{}, false
	}
	return d, true
}

func atoi(s string) int {
	n := 0
	for _, c := range s {
		n = n*10 + int(c-'0')
	}
	return n
}
