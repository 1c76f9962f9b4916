package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"github.com/neocortex/glassnode-api/internal/api"
	"github.com/neocortex/glassnode-api/internal/catalog"
	"github.com/neocortex/glassnode-api/internal/config"
	"github.com/neocortex/glassnode-api/internal/database"
	"github.com/neocortex/glassnode-api/internal/metrics"
	"github.com/neocortex/glassnode-api/internal/poller"
	"github.com/neocortex/glassnode-api/internal/table"
	"github.com/neocortex/glassnode-api/internal/version"
)

func main() {
	configPath := flag.String("config", "configs/gatherer.local.yaml", "path to config file")
	flag.Parse()

	// Set up structured logging
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))
	slog.SetDefault(logger)

	logger.Info("starting gatherer",
		"version", version.Version,
		"commit", version.Commit,
		"config", *configPath,
	)

	// Load configuration
	cfg, err := config.LoadAndValidate(*configPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger.Info("configuration loaded",
		"instance_id", cfg.Instance.ID,
		"api_url", cfg.API.BaseURL,
		"jobs", len(cfg.Poller.Jobs),
	)

	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle shutdown signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Info("received shutdown signal", "signal", sig)
		cancel()
	}()

	// Connect to database
	logger.Info("connecting to database",
		"host", cfg.Database.Timescale.Host,
		"port", cfg.Database.Timescale.Port,
		"database", cfg.Database.Timescale.Name,
	)

	pool, err := database.Connect(ctx, cfg.Database.Timescale)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	logger.Info("database connected")

	// Create API client
	apiClient := api.NewClient(
		cfg.API.BaseURL,
		cfg.API.APIKey,
		api.WithLogger(logger),
		api.WithTimeout(cfg.API.Timeout),
		api.WithRetries(cfg.API.MaxRetries, time.Second),
		api.WithRateLimit(cfg.API.RateLimit, cfg.API.RateBurst),
		api.WithMetadataCacheSize(cfg.API.MetadataCacheSize),
	)

	// Load the asset→metric catalog (disk cache if fresh)
	cat := catalog.New(apiClient, cfg.Catalog.CachePath, cfg.Catalog.TTL, logger)
	if err := cat.Load(ctx); err != nil {
		logger.Error("failed to load metric catalog", "error", err)
		os.Exit(1)
	}
	logger.Info("metric catalog ready", "assets", len(cat.Assets()))

	// Wire the poller to the observation writer. Each gatherer process
	// gets one run ID stamped on every row it inserts.
	runID := uuid.New()
	writer := database.NewObservationWriter(pool, logger)
	handler := poller.ObservationHandlerFunc(func(ctx context.Context, metricPath string, recs []table.FlatRecord) error {
		inserted, conflicts, err := writer.Write(ctx, runID, metricPath, recs)
		if err != nil {
			return err
		}
		metrics.PointsWritten.Add(float64(inserted))
		metrics.WriteConflicts.Add(float64(conflicts))
		return nil
	})

	pollerCfg := poller.Config{
		Interval:    cfg.Poller.Interval,
		Timeout:     cfg.Poller.Timeout,
		Concurrency: cfg.Poller.Concurrency,
		Resolution:  cfg.Poller.Resolution,
		Currency:    cfg.Poller.Currency,
	}
	p := poller.New(pollerCfg, apiClient, cfg.Poller.Jobs, handler, logger)

	// Metrics and health server
	mux := http.NewServeMux()
	mux.Handle(cfg.Metrics.Path, promhttp.Handler())
	mux.HandleFunc("/health", healthHandler(pool, cat))

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Metrics.Port),
		Handler: mux,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("starting metrics server", "port", cfg.Metrics.Port, "path", cfg.Metrics.Path)
		if err := srv.ListenAndServe(); err != http.ErrServerClosed {
			return err
		}
		return nil
	})

	g.Go(func() error {
		if err := p.Start(gctx); err != nil {
			return err
		}
		<-gctx.Done()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()
		return p.Stop(shutdownCtx)
	})

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		return srv.Shutdown(shutdownCtx)
	})

	logger.Info("gatherer running",
		"instance_id", cfg.Instance.ID,
		"run_id", runID,
		"health_url", fmt.Sprintf("http://localhost:%d/health", cfg.Metrics.Port),
	)

	if err := g.Wait(); err != nil && err != context.Canceled {
		logger.Error("gatherer exited with error", "error", err)
		os.Exit(1)
	}

	logger.Info("gatherer stopped")
}

// healthHandler reports database connectivity and catalog state.
func healthHandler(pool *pgxpool.Pool, cat *catalog.Catalog) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		health := struct {
			Status     string                 `json:"status"`
			Components map[string]interface{} `json:"components"`
		}{
			Status:     "healthy",
			Components: make(map[string]interface{}),
		}

		if err := pool.Ping(ctx); err != nil {
			health.Status = "unhealthy"
			health.Components["timescaledb"] = map[string]string{
				"status": "disconnected",
				"error":  err.Error(),
			}
		} else {
			health.Components["timescaledb"] = "connected"
		}

		assets := cat.Assets()
		health.Components["catalog"] = map[string]interface{}{
			"assets": len(assets),
		}
		if len(assets) == 0 {
			health.Status = "degraded"
		}

		w.Header().Set("Content-Type", "application/json")
		if health.Status == "unhealthy" {
			w.WriteHeader(http.StatusServiceUnavailable)
		}
		json.NewEncoder(w).Encode(health)
	}
}
