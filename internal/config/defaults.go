package config

import (
	"time"

	"github.com/neocortex/glassnode-api/internal/api"
)

// Default values for optional configuration fields.
const (
	DefaultBaseURL           = api.DefaultBaseURL
	DefaultAPITimeout        = 30 * time.Second
	DefaultMaxRetries        = 3
	DefaultRateBurst         = 5
	DefaultMetadataCacheSize = api.DefaultMetadataCacheSize
	DefaultDBPort            = 5432
	DefaultDBSSLMode         = "prefer"
	DefaultMaxConns          = 10
	DefaultMinConns          = 2
	DefaultPollInterval      = 1 * time.Hour
	DefaultPollTimeout       = 2 * time.Minute
	DefaultPollConcurrency   = 4
	DefaultResolution        = "24h"
	DefaultCurrency          = "native"
	DefaultCatalogTTL        = 24 * time.Hour
	DefaultMetricsPort       = 9090
	DefaultMetricsPath       = "/metrics"
)

func (c *GathererConfig) applyDefaults() {
	// API defaults
	if c.API.BaseURL == "" {
		c.API.BaseURL = DefaultBaseURL
	}
	if c.API.Timeout == 0 {
		c.API.Timeout = DefaultAPITimeout
	}
	if c.API.MaxRetries == 0 {
		c.API.MaxRetries = DefaultMaxRetries
	}
	if c.API.RateBurst == 0 {
		c.API.RateBurst = DefaultRateBurst
	}
	if c.API.MetadataCacheSize == 0 {
		c.API.MetadataCacheSize = DefaultMetadataCacheSize
	}

	// Database defaults
	applyDBDefaults(&c.Database.Timescale)

	// Poller defaults
	if c.Poller.Interval == 0 {
		c.Poller.Interval = DefaultPollInterval
	}
	if c.Poller.Timeout == 0 {
		c.Poller.Timeout = DefaultPollTimeout
	}
	if c.Poller.Concurrency == 0 {
		c.Poller.Concurrency = DefaultPollConcurrency
	}
	if c.Poller.Resolution == "" {
		c.Poller.Resolution = DefaultResolution
	}
	if c.Poller.Currency == "" {
		c.Poller.Currency = DefaultCurrency
	}

	// Catalog defaults
	if c.Catalog.TTL == 0 {
		c.Catalog.TTL = DefaultCatalogTTL
	}

	// Metrics defaults
	if c.Metrics.Port == 0 {
		c.Metrics.Port = DefaultMetricsPort
	}
	if c.Metrics.Path == "" {
		c.Metrics.Path = DefaultMetricsPath
	}
}

func applyDBDefaults(db *DBConfig) {
	if db.Port == 0 {
		db.Port = DefaultDBPort
	}
	if db.SSLMode == "" {
		db.SSLMode = DefaultDBSSLMode
	}
	if db.MaxConns == 0 {
		db.MaxConns = DefaultMaxConns
	}
	if db.MinConns == 0 {
		db.MinConns = DefaultMinConns
	}
}
