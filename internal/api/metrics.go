package api

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// FetchOptions configures a single-series metric fetch.
type FetchOptions struct {
	Asset    string
	Since    any // unix seconds, date string, or time.Time; nil to omit
	Until    any
	Interval string
	Format   string // "json" (default) or "csv"
	Currency string // "native" (default) or "USD"
	Limit    int    // newest N points ending now; overrides Since/Until
	Extra    url.Values
}

// BulkOptions configures a bulk metric fetch.
type BulkOptions struct {
	Assets   []string
	Since    any
	Until    any
	Interval string // defaults to "24h"
	Currency string // "native" (default) or "USD"
	Paginate bool
	Extra    url.Values
}

// metricPath normalizes a metric path like "market/price_usd_close" into the
// request path for the metrics endpoint.
func metricPath(path string) string {
	return "/metrics/" + strings.TrimPrefix(path, "/")
}

// FetchMetric fetches data for a single metric and returns the raw payload
// (JSON records or CSV text depending on opts.Format).
func (c *Client) FetchMetric(ctx context.Context, path string, opts FetchOptions) (*Payload, error) {
	query := url.Values{}
	for k, vs := range opts.Extra {
		query[k] = vs
	}

	if opts.Asset != "" {
		query.Set("a", opts.Asset)
	}

	format := opts.Format
	if format == "" {
		format = "json"
	}
	query.Set("f", format)

	currency := opts.Currency
	if currency == "" {
		currency = "native"
	}
	query.Set("c", currency)

	if opts.Interval != "" {
		query.Set("i", opts.Interval)
	}

	if opts.Limit > 0 {
		since, err := SinceForLimit(opts.Interval, opts.Limit)
		if err != nil {
			return nil, err
		}
		query.Set("s", strconv.FormatInt(since, 10))
	} else {
		if opts.Since != nil {
			since, err := ResolveTimestamp(opts.Since)
			if err != nil {
				return nil, fmt.Errorf("resolve since: %w", err)
			}
			query.Set("s", strconv.FormatInt(since, 10))
		}
		if opts.Until != nil {
			until, err := ResolveTimestamp(opts.Until)
			if err != nil {
				return nil, fmt.Errorf("resolve until: %w", err)
			}
			query.Set("u", strconv.FormatInt(until, 10))
		}
	}

	p, err := c.getPage(ctx, metricPath(path), query)
	if err != nil {
		return nil, fmt.Errorf("fetch metric %s: %w", path, err)
	}
	return p, nil
}

// FetchBulkMetric fetches data for a metric via the bulk endpoint, which
// returns many series' values per timestamp. The metric's metadata must
// advertise bulk support. Without Paginate the requested range is clamped to
// the per-interval window; with Paginate the full range is walked and
// stitched into one combined response.
func (c *Client) FetchBulkMetric(ctx context.Context, path string, opts BulkOptions) (*BulkResponse, error) {
	interval := opts.Interval
	if interval == "" {
		interval = "24h"
	}

	window, err := MaxTimerange(interval)
	if err != nil {
		return nil, err
	}

	meta, err := c.GetMetricMetadata(ctx, path, "")
	if err != nil {
		return nil, err
	}
	if !meta.BulkSupported {
		return nil, fmt.Errorf("%w: %s", ErrBulkUnsupported, path)
	}

	query := url.Values{}
	for k, vs := range opts.Extra {
		query[k] = vs
	}
	query.Set("i", interval)

	currency := opts.Currency
	if currency == "" {
		currency = "native"
	}
	query.Set("c", currency)

	if len(opts.Assets) > 0 {
		query["a"] = opts.Assets
	}

	until := time.Now().Unix()
	if opts.Until != nil {
		until, err = ResolveTimestamp(opts.Until)
		if err != nil {
			return nil, fmt.Errorf("resolve until: %w", err)
		}
	}

	var since *int64
	if opts.Since != nil {
		s, err := ResolveTimestamp(opts.Since)
		if err != nil {
			return nil, fmt.Errorf("resolve since: %w", err)
		}
		since = &s
	}

	bulkPath := metricPath(path) + "/bulk"

	if opts.Paginate {
		return c.paginateBulk(ctx, bulkPath, query, since, until, interval)
	}

	// Single request: stay inside the per-interval window, anchored at until.
	var sinceTS int64
	if since == nil {
		sinceTS = until - window
	} else {
		sinceTS = *since
		if until-sinceTS > window {
			c.logger.Warn("requested timerange exceeds bulk window, adjusting since",
				"path", path,
				"interval", interval,
				"max_days", BulkMaxDays[interval],
			)
			sinceTS = until - window
		}
	}

	query.Set("s", strconv.FormatInt(sinceTS, 10))
	query.Set("u", strconv.FormatInt(until, 10))

	var resp BulkResponse
	if err := c.getJSON(ctx, bulkPath, query, &resp); err != nil {
		return nil, fmt.Errorf("fetch bulk metric %s: %w", path, err)
	}
	return &resp, nil
}
