package models

import (
	"fmt"
	"time"
)

var _ Model = (*HistoryEntry)(nil)

// HistoryEntry records one successful recommendation response.
//
// Summary columns (seed, method, counts) are denormalized from the payload so history can be listed without decoding it.
type HistoryEntry struct {
	id        string
	sequence  int
	k         int
	response  RecommendationResponse
	createdAt time.Time
	updatedAt time.Time
	deletedAt *time.Time
}

// NewHistoryEntry creates an entry for a response requested with result size k.
func NewHistoryEntry(sequence, k int, response RecommendationResponse) *HistoryEntry {
	now := time.Now()
	return &HistoryEntry{
		sequence:  sequence,
		k:         k,
		response:  response,
		createdAt: now,
		updatedAt: now,
	}
}

func (h *HistoryEntry) ID() string                       { return h.id }
func (h *HistoryEntry) Sequence() int                    { return h.sequence }
func (h *HistoryEntry) K() int                           { return h.k }
func (h *HistoryEntry) Response() RecommendationResponse { return h.response }
func (h *HistoryEntry) SeedID() int64                    { return h.response.Seed.SongID }
func (h *HistoryEntry) SeedName() string                 { return h.response.Seed.SongName }
func (h *HistoryEntry) Method() string                   { return h.response.Method }
func (h *HistoryEntry) EngineVersion() string            { return h.response.EngineVersion }
func (h *HistoryEntry) Cached() bool                     { return h.response.Cached }
func (h *HistoryEntry) ItemCount() int                   { return len(h.response.Items) }
func (h *HistoryEntry) CreatedAt() time.Time             { return h.createdAt }
func (h *HistoryEntry) UpdatedAt() time.Time             { return h.updatedAt }
func (h *HistoryEntry) DeletedAt() *time.Time            { return h.deletedAt }

func (h *HistoryEntry) SetID(id string)                      { h.id = id }
func (h *HistoryEntry) SetSequence(seq int)                  { h.sequence = seq }
func (h *HistoryEntry) SetCreatedAt(t time.Time)             { h.createdAt = t }
func (h *HistoryEntry) SetUpdatedAt(t time.Time)             { h.updatedAt = t }
func (h *HistoryEntry) SetDeletedAt(t *time.Time)            { h.deletedAt = t }
func (h *HistoryEntry) SetResponse(r RecommendationResponse) { h.response = r }

// Validate checks that the entry describes a real request.
func (h *HistoryEntry) Validate() error {
	if h.id == "" {
		return fmt.Errorf("history entry id is required")
	}
	if h.k <= 0 {
		return fmt.Errorf("k must be positive, got %d", h.k)
	}
	if h.response.Seed.SongID <= 0 {
		return fmt.Errorf("seed song_id must be positive, got %d", h.response.Seed.SongID)
	}
	return nil
}
