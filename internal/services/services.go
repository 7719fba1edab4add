// package services defines the Recommender and Catalog interfaces for the recommendation backend
package services

import (
	"context"

	"github.com/desertthunder/vibe/internal/models"
)

// Recommender requests ranked recommendations for a seed song.
type Recommender interface {
	// FetchRecommendations performs a single request for k recommendations seeded by seedID.
	// k <= 0 selects the configured default.
	FetchRecommendations(ctx context.Context, seedID int64, k int) (*models.RecommendationResponse, error)
}

// Catalog exposes the backend's song lookup, search, and health routes.
type Catalog interface {
	GetSong(ctx context.Context, songID int64) (*models.SongDetail, error)
	SearchSongs(ctx context.Context, query string, limit int) (*models.SearchResult, error)
	Health(ctx context.Context) (*models.Health, error)
}

var (
	_ Recommender = (*Client)(nil)
	_ Catalog     = (*Client)(nil)
)
