package api

import (
	"context"
	"fmt"
	"net/url"
)

// Asset describes one supported asset from /metadata/assets.
type Asset struct {
	ID   string   `json:"id"`
	Name string   `json:"name"`
	Tags []string `json:"tags"`
}

// MetricInfo describes one available metric from /metadata/metrics.
type MetricInfo struct {
	Path   string   `json:"path"`
	Tier   int      `json:"tier"`
	Assets []string `json:"assets"`
}

// MetricMetadata describes a single metric from /metadata/metric.
type MetricMetadata struct {
	Path          string   `json:"path"`
	Tier          int      `json:"tier"`
	BulkSupported bool     `json:"bulk_supported"`
	Resolutions   []string `json:"resolutions"`
	Formats       []string `json:"formats"`
	Currencies    []string `json:"currencies"`
	Assets        []string `json:"assets"`
}

// GetAssets fetches the list of all supported assets.
func (c *Client) GetAssets(ctx context.Context) ([]Asset, error) {
	var assets []Asset
	if err := c.getJSON(ctx, "/metadata/assets", nil, &assets); err != nil {
		return nil, fmt.Errorf("get assets: %w", err)
	}
	return assets, nil
}

// GetMetrics fetches the list of all available metrics.
func (c *Client) GetMetrics(ctx context.Context) ([]MetricInfo, error) {
	var metrics []MetricInfo
	if err := c.getJSON(ctx, "/metadata/metrics", nil, &metrics); err != nil {
		return nil, fmt.Errorf("get metrics: %w", err)
	}
	return metrics, nil
}

// GetMetricMetadata fetches metadata for one metric, optionally scoped to an
// asset. Results are cached in the client's LRU cache.
func (c *Client) GetMetricMetadata(ctx context.Context, path, asset string) (*MetricMetadata, error) {
	cacheKey := path + "|" + asset
	if cached, ok := c.metaCache.Get(cacheKey); ok {
		return cached.(*MetricMetadata), nil
	}

	query := url.Values{}
	query.Set("path", path)
	if asset != "" {
		query.Set("a", asset)
	}

	var meta MetricMetadata
	if err := c.getJSON(ctx, "/metadata/metric", query, &meta); err != nil {
		return nil, fmt.Errorf("get metric metadata %s: %w", path, err)
	}

	c.metaCache.Add(cacheKey, &meta)
	return &meta, nil
}
