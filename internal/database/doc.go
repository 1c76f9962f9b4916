// Package database provides the TimescaleDB connection pool and the batched
// writer for fetched metric observations.
//
// Observations land in the metric_observations hypertable, one row per
// (metric_path, asset, series_key, ts), with inserts deduplicated via
// ON CONFLICT DO NOTHING.
package database
