package parse

import (
	"regexp"
	"strings"
	"time"
)

// dateOnlyPattern matches the source's 8-digit date-only numerals (yyyymmdd),
// which some registry rows carry instead of a full timestamp.
var dateOnlyPattern = regexp.MustCompile(`^\d{8}$`)

var timestampLayouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	time.RFC3339,
	"2006-01-02 15:04:05.999999",
	"2006-01-02",
}

// Timestamp parses a source timestamp into canonical UTC form. It accepts a
// full timestamp in any of the layouts the source is known to emit, or an
// 8-digit date-only numeral. Returns false when the input is empty or matches
// no layout; callers treat that as a skip, not an error.
func Timestamp(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	if dateOnlyPattern.MatchString(s) {
		t, err := time.ParseInLocation("20060102", s, time.UTC)
		if err != nil {
			return time.Time{}, false
		}
		return t, true
	}
	for _, layout := range timestampLayouts {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
