package locale

import (
	"strconv"
	"strings"
	"time"
)

// Statement dates are anchored at midday UTC so formatting them back to a
// date-only string never shifts across a timezone boundary.
const anchorHour = 12

// ParseDate parses a statement date in DD/MM/YYYY or YYYY-MM-DD form.
//
// DD/MM/YYYY rejects a day or month of 00, which some banks emit as a
// placeholder. YYYY-MM-DD is matched as a prefix; trailing text (a time
// component, usually) is ignored. Anything else, including calendar-invalid
// dates such as 31/02, returns ok=false, never an error. Callers discard
// the row.
func ParseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)

	if d, ok := parseSlashDate(s); ok {
		return d, true
	}
	return parseISODate(s)
}

// parseSlashDate handles DD/MM/YYYY
func parseSlashDate(s string) (time.Time, bool) {
	parts := strings.Split(s, "/")
	if len(parts) != 3 {
		return time.Time{}, false
	}
	if len(parts[0]) != 2 || len(parts[1]) != 2 || len(parts[2]) != 4 {
		return time.Time{}, false
	}

	day, err := strconv.Atoi(parts[0])
	if err != nil {
		return time.Time{}, false
	}
	month, err := strconv.Atoi(parts[1])
	if err != nil {
		return time.Time{}, false
	}
	year, err := strconv.Atoi(parts[2])
	if err != nil {
		return time.Time{}, false
	}

	// 00/00/0000 and friends are placeholders, not dates
	if day == 0 || month == 0 {
		return time.Time{}, false
	}

	return makeDate(year, month, day)
}

// parseISODate handles YYYY-MM-DD with optional trailing text
func parseISODate(s string) (time.Time, bool) {
	if len(s) < 10 {
		return time.Time{}, false
	}
	s = s[:10]
	if s[4] != '-' || s[7] != '-' {
		return time.Time{}, false
	}

	year, err := strconv.Atoi(s[0:4])
	if err != nil {
		return time.Time{}, false
	}
	month, err := strconv.Atoi(s[5:7])
	if err != nil {
		return time.Time{}, false
	}
	day, err := strconv.Atoi(s[8:10])
	if err != nil {
		return time.Time{}, false
	}

	if day == 0 || month == 0 {
		return time.Time{}, false
	}

	return makeDate(year, month, day)
}

// makeDate builds the midday-anchored date and rejects calendar-invalid
// component combinations. time.Date normalizes overflow (31/02 becomes
// 02/03), so a round-trip comparison catches them.
func makeDate(year, month, day int) (time.Time, bool) {
	if month > 12 || day > 31 {
		return time.Time{}, false
	}

	d := time.Date(year, time.Month(month), day, anchorHour, 0, 0, 0, time.UTC)
	if d.Year() != year || d.Month() != time.Month(month) || d.Day() != day {
		return time.Time{}, false
	}
	return d, true
}
