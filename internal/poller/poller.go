package poller

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/neocortex/glassnode-api/internal/api"
	"github.com/neocortex/glassnode-api/internal/config"
	"github.com/neocortex/glassnode-api/internal/metrics"
	"github.com/neocortex/glassnode-api/internal/table"
)

// Fetcher retrieves bulk metric data. Satisfied by *api.Client.
type Fetcher interface {
	FetchBulkMetric(ctx context.Context, path string, opts api.BulkOptions) (*api.BulkResponse, error)
}

// ObservationHandler receives flattened records for one fetched metric.
type ObservationHandler interface {
	HandleObservations(ctx context.Context, metricPath string, recs []table.FlatRecord) error
}

// ObservationHandlerFunc is a function adapter for ObservationHandler.
type ObservationHandlerFunc func(ctx context.Context, metricPath string, recs []table.FlatRecord) error

func (f ObservationHandlerFunc) HandleObservations(ctx context.Context, metricPath string, recs []table.FlatRecord) error {
	return f(ctx, metricPath, recs)
}

// Config holds poller configuration.
type Config struct {
	Interval    time.Duration // Poll interval (default: 1h)
	Timeout     time.Duration // Per-metric timeout (default: 2m)
	Concurrency int           // Max concurrent fetches (default: 4)
	Resolution  string        // Bulk resolution interval (default: 24h)
	Currency    string        // Currency parameter (default: native)
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		Interval:    1 * time.Hour,
		Timeout:     2 * time.Minute,
		Concurrency: 4,
		Resolution:  "24h",
		Currency:    "native",
	}
}

// Poller periodically fetches configured metrics via the bulk endpoint.
type Poller struct {
	cfg     Config
	client  Fetcher
	jobs    []config.MetricJob
	handler ObservationHandler
	logger  *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New creates a new Poller.
func New(cfg Config, client Fetcher, jobs []config.MetricJob, handler ObservationHandler, logger *slog.Logger) *Poller {
	if logger == nil {
		logger = slog.Default()
	}
	return &Poller{
		cfg:     cfg,
		client:  client,
		jobs:    jobs,
		handler: handler,
		logger:  logger,
	}
}

// Start begins the polling loop.
func (p *Poller) Start(ctx context.Context) error {
	p.ctx, p.cancel = context.WithCancel(ctx)

	p.wg.Add(1)
	go p.run()

	p.logger.Info("metric poller started",
		"interval", p.cfg.Interval,
		"jobs", len(p.jobs),
		"resolution", p.cfg.Resolution,
	)

	return nil
}

// Stop gracefully shuts down the poller.
func (p *Poller) Stop(ctx context.Context) error {
	if p.cancel != nil {
		p.cancel()
	}

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		p.logger.Info("metric poller stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// run is the main polling loop.
func (p *Poller) run() {
	defer p.wg.Done()

	ticker := time.NewTicker(p.cfg.Interval)
	defer ticker.Stop()

	// Poll immediately on start.
	p.pollAll()

	for {
		select {
		case <-p.ctx.Done():
			return
		case <-ticker.C:
			p.pollAll()
		}
	}
}

// pollAll fetches all configured metrics with bounded concurrency.
func (p *Poller) pollAll() {
	start := time.Now()

	// Semaphore for bounded concurrency.
	sem := make(chan struct{}, p.cfg.Concurrency)
	var wg sync.WaitGroup
	var fetched, errors atomic.Int64

	for _, job := range p.jobs {
		wg.Add(1)
		go func(job config.MetricJob) {
			defer wg.Done()

			// Acquire semaphore slot.
			select {
			case sem <- struct{}{}:
				defer func() { <-sem }()
			case <-p.ctx.Done():
				return
			}

			if err := p.pollJob(job); err != nil {
				p.logger.Warn("failed to poll metric",
					"metric", job.Path,
					"err", err,
				)
				metrics.JobFetches.WithLabelValues(job.Path, "error").Inc()
				errors.Add(1)
				return
			}

			metrics.JobFetches.WithLabelValues(job.Path, "ok").Inc()
			fetched.Add(1)
		}(job)
	}

	wg.Wait()
	metrics.PollCycles.Inc()

	p.logger.Info("poll cycle complete",
		"jobs", len(p.jobs),
		"fetched", fetched.Load(),
		"errors", errors.Load(),
		"duration", time.Since(start),
	)
}

// pollJob fetches one metric's most recent bulk window and hands the
// flattened records to the handler.
func (p *Poller) pollJob(job config.MetricJob) error {
	ctx, cancel := context.WithTimeout(p.ctx, p.cfg.Timeout)
	defer cancel()

	start := time.Now()
	resp, err := p.client.FetchBulkMetric(ctx, job.Path, api.BulkOptions{
		Assets:   job.Assets,
		Interval: p.cfg.Resolution,
		Currency: p.cfg.Currency,
	})
	metrics.FetchDuration.WithLabelValues(job.Path).Observe(time.Since(start).Seconds())
	if err != nil {
		return err
	}

	recs := table.Flatten(resp)
	metrics.PointsFetched.Add(float64(len(recs)))
	if len(recs) == 0 {
		p.logger.Debug("no data in bulk window", "metric", job.Path)
		return nil
	}

	if p.handler != nil {
		if err := p.handler.HandleObservations(ctx, job.Path, recs); err != nil {
			return err
		}
	}

	return nil
}
