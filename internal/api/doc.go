// Package api provides the Glassnode REST API client.
//
// Endpoints:
//   - Metadata: /metadata/assets, /metadata/metrics, /metadata/metric
//   - Metrics: /metrics/{category}/{metric}
//   - Bulk metrics: /metrics/{category}/{metric}/bulk
//
// Bulk endpoints cap the requested timerange per resolution; FetchBulkMetric
// with Paginate set walks larger ranges window by window and stitches the
// pages into one combined response.
package api
