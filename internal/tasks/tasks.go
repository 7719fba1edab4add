// package tasks runs multi-seed recommendation batches.
//
// Operations emit progress updates via channels for non-blocking status reporting to CLI/UI layers.
package tasks

import (
	"io"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/vibe/internal/models"
	"github.com/desertthunder/vibe/internal/services"
)

// Recorder persists a successful response requested with result size k.
//
// Implemented by repositories.HistoryRecorder.
type Recorder interface {
	Record(k int, resp models.RecommendationResponse) (*models.HistoryEntry, error)
}

// RecommendEngine runs batches against a [services.Recommender].
type RecommendEngine struct {
	recommender services.Recommender
	logger      *log.Logger
}

// NewRecommendEngine creates a new RecommendEngine. A nil logger discards output.
func NewRecommendEngine(rec services.Recommender, logger *log.Logger) *RecommendEngine {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &RecommendEngine{recommender: rec, logger: logger}
}

// sendProgress sends a progress update through the channel without blocking.
func sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
	default:
	}
}
