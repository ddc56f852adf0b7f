// Package normalize is the decode boundary between the loosely typed payloads
// served by the system of record and the strict internal model.  Every
// function here is total: malformed input degrades to a zero value instead of
// an error.
package normalize

import (
	"encoding/json"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// DateLayout is the layout of a date key (YYYY-MM-DD).
const DateLayout = "2006-01-02"

var dateKeyPattern = regexp.MustCompile(`^\s*(\d{4})-(\d{2})-(\d{2})`)

// ToDateKey extracts the date-only component of a date or date-time string
// and returns it as a YYYY-MM-DD key.  Time of day and any timezone suffix are
// ignored, so "2026-01-24T00:00:00Z" and "2026-01-24" yield the same key.
// The second result is false when no valid calendar date can be found.
func ToDateKey(value string) (string, bool) {
	m := dateKeyPattern.FindStringSubmatch(value)
	if m == nil {
		return "", false
	}
	key := m[1] + "-" + m[2] + "-" + m[3]
	if _, err := time.Parse(DateLayout, key); err != nil {
		return "", false
	}
	return key, true
}

// IsSameDateKey reports whether value falls on the day identified by key.
func IsSameDateKey(value, key string) bool {
	k, ok := ToDateKey(value)
	return ok && k == key
}

// TodayKey returns the calendar date at now in loc as a YYYY-MM-DD key.
func TodayKey(now time.Time, loc *time.Location) string {
	if loc == nil {
		loc = time.Local
	}
	return now.In(loc).Format(DateLayout)
}

// MonthKey returns the YYYY-MM prefix of a date key, used by the guest list
// endpoint which is queried per month.
func MonthKey(dateKey string) string {
	if len(dateKey) < 7 {
		return dateKey
	}
	return dateKey[:7]
}

// ToBoolean accepts the truthy encodings seen across endpoints: a boolean
// true, the number 1, or the strings "1", "true" and "sim" in any case.
// Everything else is false.
func ToBoolean(value any) bool {
	switch v := value.(type) {
	case bool:
		return v
	case float64:
		return v == 1
	case float32:
		return v == 1
	case int:
		return v == 1
	case int64:
		return v == 1
	case int32:
		return v == 1
	case uint64:
		return v == 1
	case json.Number:
		f, err := v.Float64()
		return err == nil && f == 1
	case []byte:
		return ToBoolean(string(v))
	case string:
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "1", "true", "sim":
			return true
		}
	}
	return false
}

// ParseIntSafe coerces value to an int, truncating fractional numbers.  It
// returns 0 for anything that is not numeric.
func ParseIntSafe(value any) int {
	switch v := value.(type) {
	case int:
		return v
	case int64:
		return int(v)
	case int32:
		return int(v)
	case uint64:
		return int(v)
	case float64:
		return floatToInt(v)
	case float32:
		return floatToInt(float64(v))
	case json.Number:
		if n, err := v.Int64(); err == nil {
			return int(n)
		}
		if f, err := v.Float64(); err == nil {
			return floatToInt(f)
		}
	case []byte:
		return ParseIntSafe(string(v))
	case string:
		s := strings.TrimSpace(v)
		if n, err := strconv.Atoi(s); err == nil {
			return n
		}
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return floatToInt(f)
		}
	}
	return 0
}

func floatToInt(f float64) int {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return int(f)
}

// String renders an identifier or text field.  Numbers are printed without a
// fractional part when they are whole, nil becomes "".
func String(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(v)
	case []byte:
		return strings.TrimSpace(string(v))
	case json.Number:
		return v.String()
	case float64:
		if v == math.Trunc(v) && !math.IsInf(v, 0) {
			return strconv.FormatInt(int64(v), 10)
		}
		return strconv.FormatFloat(v, 'f', -1, 64)
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case uint64:
		return strconv.FormatUint(v, 10)
	case time.Time:
		if v.IsZero() {
			return ""
		}
		return v.Format(time.RFC3339)
	case bool:
		// a boolean in an id or text slot is garbage
		return ""
	}
	return ""
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04",
}

// ParseTimestamp parses a check-in timestamp.  Timestamps without an offset
// are interpreted in loc.  The second result is false when value is empty or
// in none of the accepted layouts.
func ParseTimestamp(value string, loc *time.Location) (time.Time, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, false
	}
	if loc == nil {
		loc = time.UTC
	}
	for _, layout := range timestampLayouts {
		if t, err := time.ParseInLocation(layout, value, loc); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
