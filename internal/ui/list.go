package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	"github.com/desertthunder/vibe/internal/models"
)

var _ list.Item = recommendationItem{}

// recommendationItem wraps [models.RecommendationItem] to implement [list.Item].
type recommendationItem struct {
	item models.RecommendationItem
}

func (i recommendationItem) FilterValue() string { return i.item.SongName + " " + i.item.Artist }
func (i recommendationItem) Title() string       { return fmt.Sprintf("#%d %s", i.item.Rank, i.item.SongName) }
func (i recommendationItem) Description() string {
	parts := []string{i.item.Artist}
	if i.item.Genre != "" {
		parts = append(parts, i.item.Genre)
	}
	parts = append(parts, fmt.Sprintf("%.3f", i.item.Score))
	return strings.Join(parts, " • ")
}

// toListItems keeps the backend's order.
func toListItems(items []models.RecommendationItem) []list.Item {
	out := make([]list.Item, len(items))
	for i, it := range items {
		out[i] = recommendationItem{item: it}
	}
	return out
}
