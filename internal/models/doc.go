// Package models defines the data model for the vibe recommendation client.
//
// The package contains two categories of types:
//
// 1. Wire types: JSON shapes exchanged with the recommendation backend
//   - [Song] : Seed song identity (song_id, song_name, artist, optional genre)
//   - [RecommendationItem] : A [Song] with its 1-based rank and relevance score
//   - [RecommendationResponse] : One /recommend result, items in backend order
//   - [SongDetail], [SearchResult], [Health] : catalog and health payloads
//
// 2. Persistent Entities: Database-backed models with lifecycle management
//   - [HistoryEntry] : A recorded recommendation response
//
// Persistent entities implement the [Model] interface providing ID, timestamps and validation.
// The [Repository] interface defines standard CRUD operations for database access.
package models
