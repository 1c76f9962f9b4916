package table

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/neocortex/glassnode-api/internal/api"
)

func TestFlatten(t *testing.T) {
	resp := bulkResp(
		api.BulkEntry{T: 100, Bulk: []api.SeriesRecord{
			rec("BTC", fptr(1)),
			taggedRec(map[string]string{"a": "BTC", "e": "binance"}, nil),
		}},
		api.BulkEntry{T: 200, Bulk: []api.SeriesRecord{
			taggedRec(map[string]string{"e": "kraken"}, fptr(3)),
		}},
	)

	flat := Flatten(resp)
	require.Len(t, flat, 3)

	assert.Equal(t, int64(100), flat[0].T)
	assert.Equal(t, "BTC", flat[0].Asset)
	assert.True(t, flat[0].HasAsset)
	assert.Equal(t, "BTC", flat[0].SeriesKey)
	assert.Equal(t, 1.0, *flat[0].Value)

	assert.Equal(t, "e_binance", flat[1].SeriesKey)
	assert.Nil(t, flat[1].Value, "null values flatten as nil, not dropped")

	assert.False(t, flat[2].HasAsset)
	assert.Equal(t, "e_kraken", flat[2].SeriesKey)
	assert.Equal(t, NullAssetLabel, flat[2].AssetLabel())
}

func TestFlattenSkipsMalformed(t *testing.T) {
	resp := bulkResp(
		api.BulkEntry{T: 100, Malformed: true},
		api.BulkEntry{T: 200, Bulk: []api.SeriesRecord{
			{Tags: map[string]string{"a": "BTC"}, Malformed: true},
			rec("ETH", fptr(2)),
		}},
	)

	flat := Flatten(resp)
	require.Len(t, flat, 1)
	assert.Equal(t, "ETH", flat[0].Asset)
}

func TestFlattenEmpty(t *testing.T) {
	assert.Nil(t, Flatten(nil))
	assert.Empty(t, Flatten(bulkResp()))
}
