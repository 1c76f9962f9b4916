package api

import (
	"context"
	"encoding/json"
	"net/url"
	"strconv"
)

// bulkAccumulator stitches pages of bulk entries into one chronologically
// ordered sequence. Entries are keyed by timestamp in a map for O(1) merge;
// a separate order list preserves chronology without re-sorting.
type bulkAccumulator struct {
	byTime map[int64]*BulkEntry
	order  []int64
}

func newBulkAccumulator() *bulkAccumulator {
	return &bulkAccumulator{byTime: make(map[int64]*BulkEntry)}
}

// mergePage folds one page into the accumulator. Entries for known
// timestamps merge into the existing group (same tag set: later page wins);
// new timestamps append at the end for forward pagination and prepend as a
// block, relative order intact, for backward.
func (a *bulkAccumulator) mergePage(entries []BulkEntry, forward bool) {
	var fresh []int64

	for i := range entries {
		e := entries[i]
		if e.Malformed {
			continue
		}
		if existing, ok := a.byTime[e.T]; ok {
			existing.merge(e)
			continue
		}
		cp := e
		a.byTime[e.T] = &cp
		fresh = append(fresh, e.T)
	}

	if forward {
		a.order = append(a.order, fresh...)
	} else {
		a.order = append(fresh, a.order...)
	}
}

// entries materializes the accumulated data in chronological order.
func (a *bulkAccumulator) entries() []BulkEntry {
	out := make([]BulkEntry, 0, len(a.order))
	for _, t := range a.order {
		out = append(out, *a.byTime[t])
	}
	return out
}

// paginateBulk retrieves all data covering [since, until] by issuing one
// request per bulk window. With since set it walks forward from since;
// otherwise it walks backward from until toward the past. Two consecutive
// empty pages mean no more data. Non-data keys of the first non-empty page
// are carried over as the combined response's metadata.
//
// A page failure aborts pagination and returns whatever accumulated so far
// alongside the error; the pagination loop itself never retries.
func (c *Client) paginateBulk(ctx context.Context, path string, base url.Values, since *int64, until int64, interval string) (*BulkResponse, error) {
	window, err := MaxTimerange(interval)
	if err != nil {
		return nil, err
	}

	combined := &BulkResponse{Meta: make(map[string]json.RawMessage)}
	acc := newBulkAccumulator()
	forward := since != nil
	metaCaptured := false
	emptyPages := 0

	var curSince, curUntil int64
	if forward {
		curSince = *since
		curUntil = min(curSince+window, until)
	} else {
		curUntil = until
		curSince = curUntil - window
	}

	for {
		query := url.Values{}
		for k, vs := range base {
			query[k] = vs
		}
		query.Set("s", strconv.FormatInt(curSince, 10))
		query.Set("u", strconv.FormatInt(curUntil, 10))

		var page BulkResponse
		if err := c.getJSON(ctx, path, query, &page); err != nil {
			c.logger.Error("bulk page fetch failed, aborting pagination",
				"path", path,
				"since", curSince,
				"until", curUntil,
				"err", err,
			)
			combined.Data = acc.entries()
			return combined, err
		}

		if page.Empty() {
			emptyPages++
			if emptyPages >= 2 {
				break
			}
		} else {
			emptyPages = 0

			if !metaCaptured {
				for k, v := range page.Meta {
					combined.Meta[k] = v
				}
				metaCaptured = true
			}

			acc.mergePage(page.Data, forward)
		}

		if forward {
			if curUntil >= until {
				break
			}
			curSince = curUntil + 1
			curUntil = min(curSince+window, until)
		} else {
			if curSince <= 0 {
				break
			}
			curUntil = curSince - 1
			curSince = max(curUntil-window, 0)
		}
	}

	combined.Data = acc.entries()
	return combined, nil
}
