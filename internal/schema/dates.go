package schema

import (
	"strings"
	"time"
)

// timestampLayouts are tried in order. All parses are UTC-naive: no
// timezone is assumed beyond what the string itself carries.
var timestampLayouts = []string{
	"2006-01-02T15:04:05Z07:00",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
	"2006/01/02",
	"02/01/2006 15:04",
	"02/01/2006",
	"01/02/2006",
	"02-01-2006",
	"02.01.2006",
	"02 Jan 2006",
	"Jan 2, 2006",
	"2 January 2006",
	"2006-01",
}

// ParseTimestamp attempts to parse a cell value as a datetime. The
// second return value reports success.
func ParseTimestamp(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range timestampLayouts {
		if ts, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return ts, true
		}
	}
	return time.Time{}, false
}
