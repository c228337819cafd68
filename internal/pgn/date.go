package pgn

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

var (
	pgnDateRe = regexp.MustCompile(`^(\d{4})\.(\d{1,2})\.(\d{1,2})$`)
	isoDateRe = regexp.MustCompile(`^(\d{4})-(\d{2})-(\d{2})$`)
)

// ParseDate parses a PGN Date tag ("2023.05.15"). Dates with unknown parts
// ("2023.??.??") fall back to January 1st of the year when the year is known.
// Anything unparseable yields nil.
func ParseDate(raw string) *time.Time {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}

	if strings.Contains(raw, "?") {
		year := strings.SplitN(raw, ".", 2)[0]
		if strings.Contains(year, "?") {
			return nil
		}
		y, err := strconv.Atoi(year)
		if err != nil {
			return nil
		}
		return newDate(y, 1, 1)
	}

	m := pgnDateRe.FindStringSubmatch(raw)
	if m == nil {
		m = isoDateRe.FindStringSubmatch(raw)
	}
	if m == nil {
		return nil
	}
	y, _ := strconv.Atoi(m[1])
	mo, _ := strconv.Atoi(m[2])
	d, _ := strconv.Atoi(m[3])
	return newDate(y, mo, d)
}

// newDate rejects out-of-range parts instead of letting time.Date normalize them.
func newDate(y, m, d int) *time.Time {
	t := time.Date(y, time.Month(m), d, 0, 0, 0, 0, time.UTC)
	if t.Year() != y || int(t.Month()) != m || t.Day() != d {
		return nil
	}
	return &t
}

// FormatDate renders t in PGN form, or the unknown-date placeholder for nil.
func FormatDate(t *time.Time) string {
	if t == nil {
		return "????.??.??"
	}
	return t.Format("2006.01.02")
}
