package database

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/neocortex/glassnode-api/internal/table"
)

// ObservationWriter persists flattened metric observations.
type ObservationWriter struct {
	db     *pgxpool.Pool
	logger *slog.Logger
}

// NewObservationWriter creates a writer over the given pool.
func NewObservationWriter(db *pgxpool.Pool, logger *slog.Logger) *ObservationWriter {
	if logger == nil {
		logger = slog.Default()
	}
	return &ObservationWriter{db: db, logger: logger}
}

// Write inserts one batch of flattened records for a metric, stamped with
// the gatherer run ID. Rows already present (same metric, series identity
// and timestamp) are left untouched; the conflict count is reported back.
func (w *ObservationWriter) Write(ctx context.Context, runID uuid.UUID, metricPath string, recs []table.FlatRecord) (inserted, conflicts int, err error) {
	if len(recs) == 0 {
		return 0, 0, nil
	}

	fetchedAt := time.Now().UTC()

	batch := &pgx.Batch{}
	for _, r := range recs {
		var asset *string
		if r.HasAsset {
			a := r.Asset
			asset = &a
		}
		batch.Queue(`
			INSERT INTO metric_observations (run_id, metric_path, asset, series_key, ts, value, fetched_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
			ON CONFLICT (metric_path, asset, series_key, ts) DO NOTHING
		`, runID, metricPath, asset, r.SeriesKey, r.T, r.Value, fetchedAt)
	}

	start := time.Now()

	results := w.db.SendBatch(ctx, batch)
	defer results.Close()

	for range recs {
		ct, err := results.Exec()
		if err != nil {
			return inserted, conflicts, err
		}
		if ct.RowsAffected() == 0 {
			conflicts++
		} else {
			inserted++
		}
	}

	w.logger.Debug("flushed observations",
		"metric", metricPath,
		"count", len(recs),
		"conflicts", conflicts,
		"duration", time.Since(start),
	)

	return inserted, conflicts, nil
}
