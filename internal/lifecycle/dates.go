package lifecycle

import (
	"strings"
	"time"
)

// DateLayout is the canonical wire format for calendar dates.
const DateLayout = "2006-01-02"

var acceptedLayouts = []string{
	DateLayout,
	"02-01-2006",
	time.RFC3339,
	time.RFC3339Nano,
}

// CalendarDay truncates t to midnight UTC of the calendar date t carries in its own location.
func CalendarDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// DayIn returns the calendar day on which the instant t falls in loc.
func DayIn(t time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	return CalendarDay(t.In(loc))
}

// ParseDate reads a calendar date in YYYY-MM-DD, DD-MM-YYYY or RFC 3339 form.
// Empty or malformed input yields nil.
func ParseDate(value string) *time.Time {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil
	}

	for _, layout := range acceptedLayouts {
		parsed, err := time.Parse(layout, value)
		if err != nil {
			continue
		}
		day := CalendarDay(parsed)
		return &day
	}

	return nil
}

// FormatDate renders a calendar date in the canonical layout; nil renders as "".
func FormatDate(t *time.Time) string {
	if t == nil {
		return ""
	}
	return CalendarDay(*t).Format(DateLayout)
}
