// Package period resolves named reporting periods into inclusive date ranges.
package period

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// DateLayout is the wire format for calendar dates.
const DateLayout = "2006-01-02"

// Kind names a period policy.
type Kind string

// Supported period kinds.
const (
	Weekly  Kind = "weekly"
	Monthly Kind = "monthly"
	All     Kind = "all"
	Custom  Kind = "custom"
)

// ErrInvalidDate is returned by Parse for malformed date strings.
var ErrInvalidDate = errors.New("invalid date")

// Range is an inclusive span of calendar dates. The zero Start and End mean
// the range has no bounds and matches every date.
type Range struct {
	Kind  Kind
	Start time.Time
	End   time.Time
}

// ParseKind maps a query value onto a Kind. Unknown values are monthly.
func ParseKind(s string) Kind {
	switch Kind(strings.ToLower(strings.TrimSpace(s))) {
	case Weekly:
		return Weekly
	case All:
		return All
	default:
		return Monthly
	}
}

// Parse reads a YYYY-MM-DD date.
func Parse(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, fmt.Errorf("%w %q: expected YYYY-MM-DD", ErrInvalidDate, s)
	}
	return t, nil
}

// Date returns the calendar date of t as midnight UTC, keeping t's own
// year, month and day.
func Date(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// Resolve computes the range for kind around ref. When both start and end
// are given they win verbatim, even if start is after end.
func Resolve(kind Kind, ref time.Time, start, end *time.Time, monthStartDay int) Range {
	if start != nil && end != nil {
		return Range{Kind: Custom, Start: Date(*start), End: Date(*end)}
	}

	ref = Date(ref)
	switch kind {
	case All:
		return Range{Kind: All}
	case Weekly:
		return weekly(ref)
	default:
		return monthly(ref, monthStartDay)
	}
}

// weekly returns the Monday through Sunday week containing ref.
func weekly(ref time.Time) Range {
	offset := (int(ref.Weekday()) + 6) % 7
	start := ref.AddDate(0, 0, -offset)
	return Range{Kind: Weekly, Start: start, End: start.AddDate(0, 0, 6)}
}

// monthly returns the billing month containing ref. A start day past the end
// of a month is clipped to that month's last day.
func monthly(ref time.Time, day int) Range {
	day = max(1, min(day, 31))

	start := clampDay(ref.Year(), ref.Month(), day)
	if ref.Before(start) {
		start = clampDay(ref.Year(), ref.Month()-1, day)
	}
	next := clampDay(start.Year(), start.Month()+1, day)

	return Range{Kind: Monthly, Start: start, End: next.AddDate(0, 0, -1)}
}

func clampDay(year int, month time.Month, day int) time.Time {
	first := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	last := first.AddDate(0, 1, -1).Day()
	return time.Date(first.Year(), first.Month(), min(day, last), 0, 0, 0, 0, time.UTC)
}

// Bounded reports whether r limits dates at all.
func (r Range) Bounded() bool {
	return !r.Start.IsZero() || !r.End.IsZero()
}

// Days is the inclusive length of r. It is zero or negative for an inverted
// custom range and zero for an unbounded one.
func (r Range) Days() int {
	if !r.Bounded() {
		return 0
	}
	return int(r.End.Sub(r.Start).Hours()/24) + 1
}

// Contains reports whether date falls inside r.
func (r Range) Contains(date time.Time) bool {
	if !r.Bounded() {
		return true
	}
	d := Date(date)
	return !d.Before(r.Start) && !d.After(r.End)
}

// Previous returns the equal-length window ending the day before r starts.
// Unbounded ranges have no previous window.
func (r Range) Previous() (Range, bool) {
	if !r.Bounded() {
		return Range{}, false
	}
	end := r.Start.AddDate(0, 0, -1)
	return Range{
		Kind:  r.Kind,
		Start: end.AddDate(0, 0, -(r.Days() - 1)),
		End:   end,
	}, true
}

// Bounds returns the start and end as pointers, nil when unbounded.
func (r Range) Bounds() (start, end *time.Time) {
	if !r.Bounded() {
		return nil, nil
	}
	s, e := r.Start, r.End
	return &s, &e
}

// Label is the period name reported to clients.
func (r Range) Label() string {
	return string(r.Kind)
}
