// Package repositories implements SQLite persistence for recommendation history.
//
// Key Implementations:
//   - [HistoryRepository] : CRUD for [models.HistoryEntry] with soft deletes and newest-first listing
//   - [HistoryRecorder] : Adapter that turns a successful response into a history entry
//
// Sequence numbers provide stable, human-readable ordering (e.g., history #15) independent of UUIDs and creation timestamps.
// The [NextSequence] function atomically increments per-table sequence counters in dedicated sequence tables.
package repositories
