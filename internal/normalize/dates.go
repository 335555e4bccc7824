package normalize

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

const (
	// DateLayout is the canonical output form for date columns.
	DateLayout = "2006-01-02"

	// TimestampLayout is the canonical output form for timestamp columns.
	TimestampLayout = "2006-01-02 15:04:05"
)

// Compact YYYYMMDD dates.
var compactDateRegex = regexp.MustCompile(`^\d{8}$`)

// dayFirstLayout accepts one- or two-digit day and month after separator
// unification ("4-7-2023" and "04-07-2023").
const dayFirstLayout = "2-1-2006"

var dateSeparatorReplacer = strings.NewReplacer(".", "-", "/", "-")

// NormalizeDate converts YYYYMMDD or DD-MM-YYYY (with '-', '.' or '/'
// separators) into YYYY-MM-DD. Anything else is returned unchanged.
func NormalizeDate(s string) string {
	if compactDateRegex.MatchString(s) {
		t, err := time.Parse("20060102", s)
		if err != nil {
			return s
		}
		return t.Format(DateLayout)
	}

	candidate := strings.TrimSpace(dateSeparatorReplacer.Replace(s))
	t, err := time.Parse(dayFirstLayout, candidate)
	if err != nil {
		return s
	}
	return t.Format(DateLayout)
}

// NormalizeTimestamp converts integer epoch seconds into a UTC
// "YYYY-MM-DD HH:MM:SS" string. Anything else, including instants outside
// years 1-9999, is returned unchanged.
func NormalizeTimestamp(s string) string {
	secs, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return s
	}
	t := time.Unix(secs, 0).UTC()
	if t.Year() < 1 || t.Year() > 9999 {
		return s
	}
	return t.Format(TimestampLayout)
}
