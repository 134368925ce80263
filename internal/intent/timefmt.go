package intent

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"
)

// timeLayouts are tried in order for string timestamps. Zone-less layouts
// are read as UTC.
var timeLayouts = []string{
	time.RFC3339Nano,
	time.RFC1123,
	time.RFC1123Z,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02",
}

// ParseTime decodes a JSON timestamp: an RFC 3339 / RFC 1123 string, a
// zone-less ISO string, or a number of Unix milliseconds. Null or missing
// values yield the zero time.
func ParseTime(raw json.RawMessage) (time.Time, error) {
	raw = bytes.TrimSpace(raw)
	if isEmptyRaw(raw) {
		return time.Time{}, nil
	}

	if raw[0] != '"' {
		var ms int64
		if err := json.Unmarshal(raw, &ms); err != nil {
			return time.Time{}, fmt.Errorf("unsupported timestamp %s", raw)
		}
		return time.UnixMilli(ms).UTC(), nil
	}

	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return time.Time{}, err
	}
	if s == "" {
		return time.Time{}, nil
	}
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unsupported timestamp %q", s)
}

// DisplayLayout renders instants as e.g. "5 March 2024 at 14:03:09".
const DisplayLayout = "2 January 2006 at 15:04:05"

// FormatTime renders t in loc using DisplayLayout. The zero time renders
// as an empty string.
func FormatTime(t time.Time, loc *time.Location) string {
	if t.IsZero() {
		return ""
	}
	if loc == nil {
		loc = time.UTC
	}
	return t.In(loc).Format(DisplayLayout)
}

// FormatSeconds renders an execution time with three decimals, e.g. "1.250 s".
func FormatSeconds(s float64) string {
	return fmt.Sprintf("%.3f s", s)
}
