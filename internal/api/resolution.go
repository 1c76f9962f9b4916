package api

import "fmt"

// BulkMaxDays is the maximum timerange, in days, a bulk endpoint accepts in
// one request, keyed by resolution interval. Part of the external contract:
// callers doing non-paginated fetches must stay inside these windows.
var BulkMaxDays = map[string]int{
	"10m":    10,
	"1h":     10,
	"24h":    31,
	"1w":     93,
	"1month": 93,
}

// MaxTimerange returns the bulk window size in seconds for an interval.
// Unknown intervals fail fast before any request is made.
func MaxTimerange(interval string) (int64, error) {
	days, ok := BulkMaxDays[interval]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrUnknownInterval, interval)
	}
	return int64(days) * 24 * 60 * 60, nil
}

// intervalSeconds maps a resolution interval to its sampling step in seconds.
// Used to derive a since timestamp from a point limit.
var intervalSeconds = map[string]int64{
	"10m":    10 * 60,
	"1h":     60 * 60,
	"24h":    24 * 60 * 60,
	"1d":     24 * 60 * 60,
	"1w":     7 * 24 * 60 * 60,
	"1month": 30 * 24 * 60 * 60, // approximation
}
