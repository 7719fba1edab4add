package repositories

import (
	"fmt"
	"sync"

	"github.com/desertthunder/vibe/internal/models"
)

// HistoryRecorder records successful responses through a [HistoryRepository].
//
// It is safe for concurrent use; sequence allocation and insert happen under one lock.
type HistoryRecorder struct {
	mu   sync.Mutex
	repo *HistoryRepository
}

// NewHistoryRecorder creates a new HistoryRecorder with the given repository
func NewHistoryRecorder(repo *HistoryRepository) *HistoryRecorder {
	return &HistoryRecorder{repo: repo}
}

// Record stores resp, requested with result size k, as a new history entry.
func (a *HistoryRecorder) Record(k int, resp models.RecommendationResponse) (*models.HistoryEntry, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	entry := models.NewHistoryEntry(0, k, resp)
	if err := a.repo.Create(entry); err != nil {
		return nil, fmt.Errorf("failed to record history: %w", err)
	}
	return entry, nil
}
