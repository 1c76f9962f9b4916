package api

import (
	"fmt"
	"strconv"
	"time"
)

// dateLayouts are the accepted date string patterns, tried in order after
// RFC 3339.
var dateLayouts = []string{
	"2006/01/02", "02/01/2006", "01/02/2006",
	"2006-01-02", "02-01-2006", "01-02-2006",
	"2006.01.02", "02.01.2006", "01.02.2006",
	"20060102", "02012006", "01022006",
	"2006-01-02 15:04:05", "02-01-2006 15:04:05", "01-02-2006 15:04:05",
	"2006/01/02 15:04:05", "02/01/2006 15:04:05", "01/02/2006 15:04:05",
}

// ResolveTimestamp converts a flexible date value to Unix seconds. Accepted
// representations: integer epoch seconds, time.Time, a numeric string, an
// RFC 3339 / ISO-8601 string, or one of the common date layouts above.
// Date strings are interpreted as UTC.
func ResolveTimestamp(value any) (int64, error) {
	switch v := value.(type) {
	case int:
		return int64(v), nil
	case int32:
		return int64(v), nil
	case int64:
		return v, nil
	case time.Time:
		return v.Unix(), nil
	case string:
		return resolveDateString(v)
	}
	return 0, fmt.Errorf("%w: %v (type %T)", ErrBadTimestamp, value, value)
}

func resolveDateString(s string) (int64, error) {
	if ts, err := strconv.ParseInt(s, 10, 64); err == nil {
		return ts, nil
	}

	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.Unix(), nil
	}
	// ISO date-time without zone
	if t, err := time.Parse("2006-01-02T15:04:05", s); err == nil {
		return t.Unix(), nil
	}

	for _, layout := range dateLayouts {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return t.Unix(), nil
		}
	}

	return 0, fmt.Errorf("%w: %q", ErrBadTimestamp, s)
}

// SinceForLimit computes the since timestamp that yields limit points of the
// given interval ending now. Unrecognized intervals fall back to the 24h step.
func SinceForLimit(interval string, limit int) (int64, error) {
	if limit <= 0 {
		return 0, ErrBadLimit
	}

	step, ok := intervalSeconds[interval]
	if !ok {
		step = intervalSeconds["24h"]
	}

	// limit full steps back, so since always precedes until.
	return time.Now().Unix() - int64(limit)*step, nil
}
