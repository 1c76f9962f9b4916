package table

import (
	"log/slog"

	"github.com/neocortex/glassnode-api/internal/api"
)

// NullAssetLabel stands in for an absent asset tag in keyed layouts.
const NullAssetLabel = "None"

// FlatRecord is one long-form row of a flattened bulk response: one value at
// one instant for one series, identified by asset (possibly absent) and the
// derived series key.
type FlatRecord struct {
	T         int64
	Asset     string
	HasAsset  bool
	SeriesKey string
	Value     *float64
}

// AssetLabel returns the asset as a map key, using NullAssetLabel when the
// asset tag is absent.
func (r FlatRecord) AssetLabel() string {
	if !r.HasAsset {
		return NullAssetLabel
	}
	return r.Asset
}

// Flatten converts a bulk response into long-form records: one per series
// record per timestamp. Malformed entries and records are skipped with a
// warning, never fatal.
func Flatten(resp *api.BulkResponse) []FlatRecord {
	if resp == nil {
		return nil
	}

	var flat []FlatRecord
	for _, entry := range resp.Bulk() {
		if entry.Malformed {
			slog.Warn("skipping malformed bulk entry", "t", entry.T)
			continue
		}
		for _, rec := range entry.Bulk {
			if rec.Malformed {
				slog.Warn("skipping malformed series record", "t", entry.T, "tags", rec.Tags)
				continue
			}
			asset, hasAsset := rec.Asset()
			flat = append(flat, FlatRecord{
				T:         entry.T,
				Asset:     asset,
				HasAsset:  hasAsset,
				SeriesKey: rec.SeriesKey(),
				Value:     rec.Value,
			})
		}
	}
	return flat
}
