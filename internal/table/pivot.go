package table

import (
	"fmt"
	"sort"
	"strings"

	"github.com/neocortex/glassnode-api/internal/api"
)

// Layout selects the shape of a reshaped bulk response.
type Layout string

const (
	// LayoutWide is one table: one row per timestamp, one column per series.
	LayoutWide Layout = "wide"

	// LayoutByAsset maps each asset to a sub-table over series keys.
	LayoutByAsset Layout = "by_asset"

	// LayoutBySeriesKey maps each series key to a sub-table over assets.
	LayoutBySeriesKey Layout = "by_series_key"
)

// ParseLayout validates a layout token. Dashes are accepted in place of
// underscores.
func ParseLayout(s string) (Layout, error) {
	switch Layout(strings.ReplaceAll(s, "-", "_")) {
	case LayoutWide:
		return LayoutWide, nil
	case LayoutByAsset:
		return LayoutByAsset, nil
	case LayoutBySeriesKey:
		return LayoutBySeriesKey, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownLayout, s)
}

// FromBulk reshapes a bulk response into the requested layout. Exactly one
// return value is set: the wide table for LayoutWide, the keyed mapping for
// the other layouts.
func FromBulk(resp *api.BulkResponse, layout Layout) (*Table, map[string]*Table, error) {
	switch layout {
	case LayoutWide:
		t, err := Wide(resp)
		return t, nil, err
	case LayoutByAsset:
		m, err := ByAsset(resp)
		return nil, m, err
	case LayoutBySeriesKey:
		m, err := BySeriesKey(resp)
		return nil, m, err
	}
	return nil, nil, fmt.Errorf("%w: %q", ErrUnknownLayout, layout)
}

// wideColumn derives the wide-layout column name for a record: the series
// key alone when the asset is absent or already equals the series key, else
// asset and series key joined.
func wideColumn(r FlatRecord) string {
	if !r.HasAsset {
		return r.SeriesKey
	}
	if r.SeriesKey == r.Asset {
		return r.Asset
	}
	return r.Asset + "_" + r.SeriesKey
}

// Wide pivots a bulk response into one table with a column per distinct
// (asset, series key) pair. A duplicate cell keeps the last processed value.
func Wide(resp *api.BulkResponse) (*Table, error) {
	flat := Flatten(resp)
	if len(flat) == 0 {
		return newBuilder().build(), nil
	}

	cols := make(map[string]struct{})
	for _, r := range flat {
		cols[wideColumn(r)] = struct{}{}
	}

	b := newBuilder()
	b.addColumns(sortedKeys(cols)...)
	for _, r := range flat {
		b.set(r.T, wideColumn(r), r.Value)
	}
	return b.build(), nil
}

// ByAsset pivots a bulk response into one sub-table per asset. Every
// sub-table spans the same index (all timestamps) and the same columns (all
// series keys); combinations never observed stay nil.
func ByAsset(resp *api.BulkResponse) (map[string]*Table, error) {
	flat := Flatten(resp)
	result := make(map[string]*Table)
	if len(flat) == 0 {
		return result, nil
	}

	keys := make(map[string]struct{})
	times := make(map[int64]struct{})
	groups := make(map[string][]FlatRecord)
	for _, r := range flat {
		keys[r.SeriesKey] = struct{}{}
		times[r.T] = struct{}{}
		groups[r.AssetLabel()] = append(groups[r.AssetLabel()], r)
	}
	columns := sortedKeys(keys)

	for asset, recs := range groups {
		b := newBuilder()
		b.addColumns(columns...)
		for t := range times {
			b.touch(t)
		}
		for _, r := range recs {
			b.set(r.T, r.SeriesKey, r.Value)
		}
		result[asset] = b.build()
	}
	return result, nil
}

// BySeriesKey pivots a bulk response into one sub-table per series key, with
// one column per asset label. The same reindexing rule as ByAsset applies.
func BySeriesKey(resp *api.BulkResponse) (map[string]*Table, error) {
	flat := Flatten(resp)
	result := make(map[string]*Table)
	if len(flat) == 0 {
		return result, nil
	}

	assets := make(map[string]struct{})
	times := make(map[int64]struct{})
	groups := make(map[string][]FlatRecord)
	for _, r := range flat {
		assets[r.AssetLabel()] = struct{}{}
		times[r.T] = struct{}{}
		groups[r.SeriesKey] = append(groups[r.SeriesKey], r)
	}
	columns := sortedKeys(assets)

	for key, recs := range groups {
		b := newBuilder()
		b.addColumns(columns...)
		for t := range times {
			b.touch(t)
		}
		for _, r := range recs {
			b.set(r.T, r.AssetLabel(), r.Value)
		}
		result[key] = b.build()
	}
	return result, nil
}

func sortedKeys(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
