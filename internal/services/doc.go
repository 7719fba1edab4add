// Package services implements the HTTP client for the recommendation backend.
//
// # Recommendation Contract
//
// [Client.FetchRecommendations] issues exactly one GET /recommend?seed_id=&k= per call.
// There are no retries, no timeouts beyond the caller's context, and no caching.
// The [Recommender] interface is the seam the curator package depends on.
//
// # Catalog Lookups
//
// [Client.GetSong], [Client.SearchSongs] and [Client.Health] wrap the backend's /songs/{id}, /search and /health routes.
// They are used by the CLI only; the interactive flow never calls them.
//
// # Error Handling
//
// Every failure is reported as a [*RequestFailure]:
//   - non-2xx status: StatusCode is set, the body is not parsed
//   - transport failure: StatusCode is 0, Err carries the cause
//   - malformed body: StatusCode is the (2xx) status, Err carries the decode error
//
// A [*RequestFailure] matches [shared.ErrAPIRequest] via errors.Is.
// Unknown seeds are not distinguished from other failures.
package services
