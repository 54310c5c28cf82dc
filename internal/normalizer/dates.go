package normalizer

import (
	"strings"
	"time"
)

// dateLayouts are tried in order; the first layout that parses wins. Numeric
// layouts use non-padded verbs so "3/7/2024" and "03/07/2024" both match.
// Month-first comes before day-first, so ambiguous dates resolve US-style.
var dateLayouts = []string{
	"2006-1-2",
	"1/2/2006",
	"2/1/2006",
	"1-2-2006",
	"2-1-2006",
	"2006/1/2",
	"2 Jan 2006",
	"Jan 2, 2006",
	"Jan 2 2006",
	"2-Jan-2006",
	"2 January 2006",
	"1/2/06",
	"2/1/06",
}

// ParseDate parses a statement date in any of the supported formats.
func ParseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
