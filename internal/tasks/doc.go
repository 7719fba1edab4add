// Package tasks orchestrates batches of recommendation requests with real-time progress reporting.
//
// # Batch Recommendations
//
// [RecommendEngine.BatchRecommend] fans seeds out to a worker pool:
//   - Each seed gets its own curator.Controller, so validation and failure handling match the TUI
//   - Requests share a single rate.Limiter; seeds rejected by validation never wait on it
//   - Successful responses are exported with the formatter package and optionally recorded to history
//   - A batch_manifest.json summarizes every seed in input order
//
// # Progress Reporting
//
// The [ProgressUpdate] struct contains phase, step counters, messages, and optional data for advanced UI rendering.
// Updates use select with default to prevent blocking.
package tasks
