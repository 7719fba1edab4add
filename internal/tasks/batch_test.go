package tasks

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/desertthunder/vibe/internal/curator"
	"github.com/desertthunder/vibe/internal/formatter"
	"github.com/desertthunder/vibe/internal/models"
	"github.com/desertthunder/vibe/internal/services"
	"github.com/desertthunder/vibe/internal/shared"
	tu "github.com/desertthunder/vibe/internal/testing"
)

type fakeRecorder struct {
	mu      sync.Mutex
	entries []int64
	err     error
}

func (r *fakeRecorder) Record(k int, resp models.RecommendationResponse) (*models.HistoryEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return nil, r.err
	}
	r.entries = append(r.entries, resp.Seed.SongID)
	return models.NewHistoryEntry(len(r.entries), k, resp), nil
}

// failingSeeds returns a recommender that fails for the given ids and succeeds with 3 items otherwise.
func failingSeeds(calls *atomic.Int32, ids ...int64) tu.RecommenderFunc {
	return func(ctx context.Context, seedID int64, k int) (*models.RecommendationResponse, error) {
		calls.Add(1)
		for _, id := range ids {
			if id == seedID {
				return nil, &services.RequestFailure{Op: "recommend", StatusCode: 503}
			}
		}
		return tu.ResponseFor(seedID, 3), nil
	}
}

func TestBatchRecommend(t *testing.T) {
	t.Run("Successful Batch", func(t *testing.T) {
		tests := []struct {
			name   string
			format formatter.Format
			seeds  []string
			ext    string
		}{
			{name: "single seed json", format: formatter.FormatJSON, seeds: []string{"1"}, ext: "json"},
			{name: "several seeds csv", format: formatter.FormatCSV, seeds: []string{"1", "2", "3"}, ext: "csv"},
			{name: "markdown", format: formatter.FormatMarkdown, seeds: []string{"4", "5"}, ext: "md"},
			{name: "text", format: formatter.FormatText, seeds: []string{"6"}, ext: "txt"},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				var calls atomic.Int32
				tempDir := t.TempDir()
				engine := NewRecommendEngine(failingSeeds(&calls), nil)

				result, err := engine.BatchRecommend(context.Background(), nil, tt.seeds, BatchOpts{
					Format:    tt.format,
					OutputDir: tempDir,
					RateLimit: 1000,
				})
				if err != nil {
					t.Fatalf("BatchRecommend failed: %v", err)
				}

				if result.Succeeded != len(tt.seeds) || result.Failed != 0 {
					t.Errorf("expected %d successes, got %d/%d", len(tt.seeds), result.Succeeded, result.Failed)
				}
				if int(calls.Load()) != len(tt.seeds) {
					t.Errorf("expected %d requests, got %d", len(tt.seeds), calls.Load())
				}
				for i, res := range result.Results {
					if res.Seed != tt.seeds[i] {
						t.Errorf("result %d: expected seed %s, got %s", i, tt.seeds[i], res.Seed)
					}
					if len(res.Files) != 1 || !strings.HasSuffix(res.Files[0], "."+tt.ext) {
						t.Errorf("result %d: unexpected files %v", i, res.Files)
					}
					tu.AssertFileExists(t, res.Files[0])
				}
				tu.AssertFileExists(t, filepath.Join(tempDir, ManifestFilename))
			})
		}
	})

	t.Run("Partial Failure", func(t *testing.T) {
		var calls atomic.Int32
		tempDir := t.TempDir()
		engine := NewRecommendEngine(failingSeeds(&calls, 999), nil)

		result, err := engine.BatchRecommend(context.Background(), nil, []string{"123456", "12.5", "999", "abc"}, BatchOpts{
			Format:     formatter.FormatCSV,
			OutputDir:  tempDir,
			NumWorkers: 2,
			RateLimit:  1000,
		})
		if err != nil {
			t.Fatalf("BatchRecommend failed: %v", err)
		}

		if result.Succeeded != 1 || result.Failed != 3 {
			t.Errorf("expected 1 success and 3 failures, got %d/%d", result.Succeeded, result.Failed)
		}
		if calls.Load() != 2 {
			t.Errorf("expected only valid seeds to reach the recommender, got %d calls", calls.Load())
		}

		if msg := result.Results[1].Message; msg != curator.ValidationMessage {
			t.Errorf("expected validation message for 12.5, got %q", msg)
		}
		var ve *curator.ValidationError
		if !errors.As(result.Results[3].Error, &ve) {
			t.Errorf("expected ValidationError for abc, got %v", result.Results[3].Error)
		}

		failed := result.Results[2]
		if failed.Message != curator.FailureMessage || failed.SeedID != 999 {
			t.Errorf("unexpected failure result: %+v", failed)
		}
		if !errors.Is(failed.Error, shared.ErrAPIRequest) {
			t.Errorf("expected underlying request failure, got %v", failed.Error)
		}

		content := tu.MustReadFile(t, result.ManifestPath)
		if !strings.Contains(content, `"status": "failed"`) || !strings.Contains(content, curator.FailureMessage) {
			t.Errorf("manifest missing failure entry:\n%s", content)
		}
		if strings.Contains(content, "status 503") {
			t.Error("manifest should carry the user-facing message, not the cause")
		}
	})

	t.Run("Records History", func(t *testing.T) {
		var calls atomic.Int32
		recorder := &fakeRecorder{}
		engine := NewRecommendEngine(failingSeeds(&calls, 2), nil)

		_, err := engine.BatchRecommend(context.Background(), nil, []string{"1", "2", "3"}, BatchOpts{
			OutputDir: t.TempDir(),
			RateLimit: 1000,
			K:         7,
			Recorder:  recorder,
		})
		if err != nil {
			t.Fatalf("BatchRecommend failed: %v", err)
		}

		if len(recorder.entries) != 2 {
			t.Errorf("expected 2 recorded entries, got %v", recorder.entries)
		}
	})

	t.Run("Recorder Failure Is Not Fatal", func(t *testing.T) {
		var calls atomic.Int32
		engine := NewRecommendEngine(failingSeeds(&calls), nil)

		result, err := engine.BatchRecommend(context.Background(), nil, []string{"1"}, BatchOpts{
			OutputDir: t.TempDir(),
			RateLimit: 1000,
			Recorder:  &fakeRecorder{err: errors.New("disk full")},
		})
		if err != nil {
			t.Fatalf("BatchRecommend failed: %v", err)
		}
		if result.Succeeded != 1 {
			t.Errorf("expected success despite recorder failure, got %+v", result.Results[0])
		}
	})

	t.Run("Deduplicates Seeds", func(t *testing.T) {
		var calls atomic.Int32
		engine := NewRecommendEngine(failingSeeds(&calls), nil)

		result, err := engine.BatchRecommend(context.Background(), nil, []string{" 1", "1 ", "", "2"}, BatchOpts{
			OutputDir: t.TempDir(),
			RateLimit: 1000,
		})
		if err != nil {
			t.Fatalf("BatchRecommend failed: %v", err)
		}
		if result.TotalSeeds != 2 || calls.Load() != 2 {
			t.Errorf("expected 2 unique seeds, got total=%d calls=%d", result.TotalSeeds, calls.Load())
		}
	})

	t.Run("Defaults", func(t *testing.T) {
		t.Chdir(t.TempDir())

		var calls atomic.Int32
		engine := NewRecommendEngine(failingSeeds(&calls), nil)

		result, err := engine.BatchRecommend(context.Background(), nil, []string{"1"}, BatchOpts{RateLimit: 1000})
		if err != nil {
			t.Fatalf("BatchRecommend failed: %v", err)
		}
		if !strings.HasPrefix(result.OutputDirectory, "vibe_batch_") {
			t.Errorf("unexpected default directory %s", result.OutputDirectory)
		}
		if !strings.HasSuffix(result.Results[0].Files[0], ".json") {
			t.Errorf("expected json by default, got %v", result.Results[0].Files)
		}
	})

	t.Run("Progress Updates", func(t *testing.T) {
		var calls atomic.Int32
		engine := NewRecommendEngine(failingSeeds(&calls, 2), nil)
		prog := make(chan ProgressUpdate, 20)

		_, err := engine.BatchRecommend(context.Background(), prog, []string{"1", "2"}, BatchOpts{
			OutputDir: t.TempDir(),
			RateLimit: 1000,
		})
		if err != nil {
			t.Fatalf("BatchRecommend failed: %v", err)
		}
		close(prog)

		phases := map[Phase]int{}
		var messages []string
		for u := range prog {
			phases[u.Phase]++
			messages = append(messages, u.Message)
		}

		if phases[Queue] != 1 || phases[Recommend] != 2 || phases[WriteManifest] != 1 {
			t.Errorf("unexpected phase counts: %v", phases)
		}
		joined := strings.Join(messages, "\n")
		if !strings.Contains(joined, "✓") || !strings.Contains(joined, "✗") {
			t.Errorf("expected success and failure markers, got:\n%s", joined)
		}
	})

	t.Run("Canceled Context", func(t *testing.T) {
		var calls atomic.Int32
		engine := NewRecommendEngine(failingSeeds(&calls), nil)

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		result, err := engine.BatchRecommend(ctx, nil, []string{"1", "2", "3"}, BatchOpts{
			OutputDir: t.TempDir(),
			RateLimit: 1000,
		})
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("expected context.Canceled, got %v", err)
		}
		if result == nil || result.Failed != 3 || calls.Load() != 0 {
			t.Errorf("expected every seed to fail without requests, got %+v", result)
		}
		tu.AssertFileExists(t, result.ManifestPath)
	})

	t.Run("Errors", func(t *testing.T) {
		t.Run("No Recommender", func(t *testing.T) {
			engine := NewRecommendEngine(nil, nil)
			if _, err := engine.BatchRecommend(context.Background(), nil, []string{"1"}, BatchOpts{}); !errors.Is(err, shared.ErrServiceUnavailable) {
				t.Errorf("expected ErrServiceUnavailable, got %v", err)
			}
		})

		t.Run("No Seeds", func(t *testing.T) {
			var calls atomic.Int32
			engine := NewRecommendEngine(failingSeeds(&calls), nil)
			if _, err := engine.BatchRecommend(context.Background(), nil, []string{" ", ""}, BatchOpts{}); !errors.Is(err, shared.ErrMissingArgument) {
				t.Errorf("expected ErrMissingArgument, got %v", err)
			}
		})

		t.Run("Output Directory Is A File", func(t *testing.T) {
			file := filepath.Join(t.TempDir(), "file")
			if err := os.WriteFile(file, []byte("x"), 0644); err != nil {
				t.Fatalf("setup failed: %v", err)
			}

			var calls atomic.Int32
			engine := NewRecommendEngine(failingSeeds(&calls), nil)
			if _, err := engine.BatchRecommend(context.Background(), nil, []string{"1"}, BatchOpts{OutputDir: file}); err == nil {
				t.Error("expected error for unusable output directory")
			}
		})
	})
}

func TestPhaseString(t *testing.T) {
	for phase, want := range map[Phase]string{Queue: "queue", Recommend: "recommend", WriteManifest: "write_manifest", Phase(42): ""} {
		if got := phase.String(); got != want {
			t.Errorf("Phase(%d).String() = %q, want %q", phase, got, want)
		}
	}
}
