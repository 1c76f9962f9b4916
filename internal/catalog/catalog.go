// Package catalog maintains the asset→metric map built from the metadata
// endpoints, cached on disk as JSON so repeated runs skip the full metadata
// listing while the cache is fresh.
package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/neocortex/glassnode-api/internal/api"
)

// MetadataSource lists available metrics. Satisfied by *api.Client.
type MetadataSource interface {
	GetMetrics(ctx context.Context) ([]api.MetricInfo, error)
}

// Catalog maps asset symbols to the metric paths available for them.
type Catalog struct {
	source    MetadataSource
	cachePath string
	ttl       time.Duration
	logger    *slog.Logger

	mu        sync.RWMutex
	assets    map[string][]string
	fetchedAt time.Time
}

// cacheFile is the on-disk representation.
type cacheFile struct {
	FetchedAt time.Time           `json:"fetched_at"`
	Assets    map[string][]string `json:"assets"`
}

// New creates a catalog backed by the given metadata source. cachePath may
// be empty to disable the on-disk cache.
func New(source MetadataSource, cachePath string, ttl time.Duration, logger *slog.Logger) *Catalog {
	if logger == nil {
		logger = slog.Default()
	}
	return &Catalog{
		source:    source,
		cachePath: cachePath,
		ttl:       ttl,
		logger:    logger,
		assets:    make(map[string][]string),
	}
}

// Load populates the catalog, preferring a fresh on-disk cache over a
// metadata fetch.
func (c *Catalog) Load(ctx context.Context) error {
	if c.loadFromDisk() {
		return nil
	}
	return c.Refresh(ctx)
}

// Refresh rebuilds the catalog from the metadata endpoint and rewrites the
// on-disk cache.
func (c *Catalog) Refresh(ctx context.Context) error {
	metrics, err := c.source.GetMetrics(ctx)
	if err != nil {
		return fmt.Errorf("refresh catalog: %w", err)
	}

	assets := make(map[string][]string)
	for _, m := range metrics {
		for _, a := range m.Assets {
			assets[a] = append(assets[a], m.Path)
		}
	}
	for a := range assets {
		sort.Strings(assets[a])
	}

	c.mu.Lock()
	c.assets = assets
	c.fetchedAt = time.Now().UTC()
	c.mu.Unlock()

	c.saveToDisk()

	c.logger.Info("catalog refreshed",
		"assets", len(assets),
		"metrics", len(metrics),
	)
	return nil
}

// MetricsFor returns the metric paths available for an asset.
func (c *Catalog) MetricsFor(asset string) []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.assets[asset]
}

// Assets returns all known asset symbols, sorted.
func (c *Catalog) Assets() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]string, 0, len(c.assets))
	for a := range c.assets {
		out = append(out, a)
	}
	sort.Strings(out)
	return out
}

// loadFromDisk reads the cache file and reports whether it was usable and
// still fresh.
func (c *Catalog) loadFromDisk() bool {
	if c.cachePath == "" {
		return false
	}

	data, err := os.ReadFile(c.cachePath)
	if err != nil {
		return false
	}

	var cached cacheFile
	if err := json.Unmarshal(data, &cached); err != nil {
		c.logger.Warn("discarding unreadable catalog cache", "path", c.cachePath, "err", err)
		return false
	}

	if c.ttl > 0 && time.Since(cached.FetchedAt) > c.ttl {
		return false
	}

	c.mu.Lock()
	c.assets = cached.Assets
	c.fetchedAt = cached.FetchedAt
	c.mu.Unlock()

	c.logger.Debug("catalog loaded from cache",
		"path", c.cachePath,
		"assets", len(cached.Assets),
		"fetched_at", cached.FetchedAt,
	)
	return true
}

func (c *Catalog) saveToDisk() {
	if c.cachePath == "" {
		return
	}

	c.mu.RLock()
	cached := cacheFile{FetchedAt: c.fetchedAt, Assets: c.assets}
	c.mu.RUnlock()

	data, err := json.MarshalIndent(cached, "", "  ")
	if err != nil {
		c.logger.Warn("failed to encode catalog cache", "err", err)
		return
	}

	if dir := filepath.Dir(c.cachePath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			c.logger.Warn("failed to create catalog cache dir", "dir", dir, "err", err)
			return
		}
	}
	if err := os.WriteFile(c.cachePath, data, 0o644); err != nil {
		c.logger.Warn("failed to write catalog cache", "path", c.cachePath, "err", err)
	}
}
