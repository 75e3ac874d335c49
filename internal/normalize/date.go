package normalize

import (
	"time"
)

// dateLayouts are tried in order. Full dates come before partial dates so a
// month/year value such as "12/2023" is never read as a day-level date.
var dateLayouts = [...]string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-1-2",
	"2006/1/2",
	"1/2/2006",
	"1-2-2006",
	"2/1/2006",
	"1/2/06",
	"January 2, 2006",
	"January 2 2006",
	"Jan 2, 2006",
	"Jan 2 2006",
	"2 January 2006",
	"2 Jan 2006",
	"January 2006",
	"Jan 2006",
	"1/2006",
	"1-2006",
	"2006-1",
	"2006",
}

// Date converts a date-like value into a UTC calendar date at midnight.
// Native time values are truncated to their calendar date. Returns nil for
// missing or malformed input.
func Date(v any) *time.Time {
	switch x := v.(type) {
	case nil:
		return nil
	case time.Time:
		if x.IsZero() {
			return nil
		}
		return calendarDate(x)
	case *time.Time:
		if x == nil || x.IsZero() {
			return nil
		}
		return calendarDate(*x)
	case bool:
		return nil
	}

	s, ok := text(v)
	if !ok {
		return nil
	}

	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return calendarDate(t)
		}
	}
	return nil
}

func calendarDate(t time.Time) *time.Time {
	y, m, d := t.Date()
	out := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return &out
}

// FormatDate renders a normalized date in ISO form, or "" for nil.
func FormatDate(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format("2006-01-02")
}
