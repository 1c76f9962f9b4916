package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/neocortex/glassnode-api/internal/api"
	"github.com/neocortex/glassnode-api/internal/table"
)

func main() {
	apiKey := flag.String("key", os.Getenv("GLASSNODE_API_KEY"), "Glassnode API key")
	flag.Parse()

	if *apiKey == "" {
		log.Fatal("missing API key (set -key or GLASSNODE_API_KEY)")
	}

	client := api.NewClient(
		api.DefaultBaseURL,
		*apiKey,
		api.WithTimeout(30*time.Second),
		api.WithRateLimit(2, 2),
	)

	ctx, cancel := context.WithTimeout(context.Background(), 120*time.Second)
	defer cancel()

	// Test 1: List assets
	fmt.Println("=== Testing GetAssets ===")
	assets, err := client.GetAssets(ctx)
	if err != nil {
		log.Fatalf("GetAssets failed: %v", err)
	}
	fmt.Printf("Fetched %d assets\n", len(assets))
	for i, a := range assets {
		if i >= 5 {
			break
		}
		fmt.Printf("  %d. %s - %s\n", i+1, a.ID, a.Name)
	}

	// Test 2: Metric metadata
	metric := "market/price_usd_close"
	fmt.Printf("\n=== Testing GetMetricMetadata (%s) ===\n", metric)
	meta, err := client.GetMetricMetadata(ctx, metric, "BTC")
	if err != nil {
		log.Fatalf("GetMetricMetadata failed: %v", err)
	}
	fmt.Printf("Path: %s\n", meta.Path)
	fmt.Printf("Tier: %d\n", meta.Tier)
	fmt.Printf("Bulk supported: %v\n", meta.BulkSupported)
	fmt.Printf("Resolutions: %v\n", meta.Resolutions)

	// Test 3: Single-series fetch, newest 10 daily points
	fmt.Printf("\n=== Testing FetchMetric (%s) ===\n", metric)
	payload, err := client.FetchMetric(ctx, metric, api.FetchOptions{
		Asset:    "BTC",
		Interval: "24h",
		Limit:    10,
	})
	if err != nil {
		log.Fatalf("FetchMetric failed: %v", err)
	}
	tbl, err := table.FromSingle(payload, metric)
	if err != nil {
		log.Fatalf("FromSingle failed: %v", err)
	}
	fmt.Printf("Rows: %d, Columns: %v\n", tbl.Len(), tbl.Columns)
	for i, t := range tbl.Index {
		if i >= 3 {
			break
		}
		fmt.Printf("  %s -> %v\n", time.Unix(t, 0).UTC().Format(time.DateOnly), fmtCell(tbl.Values[i][0]))
	}

	// Test 4: Bulk fetch across assets, pivoted wide
	fmt.Printf("\n=== Testing FetchBulkMetric (%s) ===\n", metric)
	resp, err := client.FetchBulkMetric(ctx, metric, api.BulkOptions{
		Assets:   []string{"BTC", "ETH"},
		Interval: "24h",
		Since:    time.Now().AddDate(0, 0, -7),
	})
	if err != nil {
		log.Fatalf("FetchBulkMetric failed: %v", err)
	}
	fmt.Printf("Timestamps: %d\n", len(resp.Bulk()))

	wide, err := table.Wide(resp)
	if err != nil {
		log.Fatalf("Wide failed: %v", err)
	}
	fmt.Printf("Wide table: %d rows, columns %v\n", wide.Len(), wide.Columns)
	for i, t := range wide.Index {
		if i >= 3 {
			break
		}
		fmt.Printf("  %s:", time.Unix(t, 0).UTC().Format(time.DateOnly))
		for j := range wide.Columns {
			fmt.Printf(" %s=%s", wide.Columns[j], fmtCell(wide.Values[i][j]))
		}
		fmt.Println()
	}

	fmt.Println("\n=== All API tests passed! ===")
}

func fmtCell(v *float64) string {
	if v == nil {
		return "<nil>"
	}
	return fmt.Sprintf("%g", *v)
}
