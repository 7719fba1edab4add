package tasks

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/desertthunder/vibe/internal/curator"
	"github.com/desertthunder/vibe/internal/formatter"
	"github.com/desertthunder/vibe/internal/shared"
	"golang.org/x/time/rate"
)

const (
	DefaultWorkers   = 3
	MaxWorkers       = 10
	DefaultRateLimit = 2.0
	ManifestFilename = "batch_manifest.json"
)

// BatchOpts contains configuration for a batch of recommendation requests.
type BatchOpts struct {
	Format     formatter.Format // Export format: json, csv, markdown, txt
	OutputDir  string           // Output directory (default: vibe_batch_{epoch})
	NumWorkers int              // Concurrent workers (default: 3, max: 10)
	RateLimit  float64          // Requests per second (default: 2)
	K          int              // Result size per seed; <= 0 uses the client default
	Recorder   Recorder         // Optional history recorder
}

// SeedResult is the outcome for one seed of a batch.
type SeedResult struct {
	Seed     string   // Seed text as given
	SeedID   int64    // Resolved seed song id (0 when rejected)
	SeedName string   // Resolved seed song name
	Items    int      // Number of recommendations
	Files    []string // Files written for this seed
	Success  bool
	Message  string // User-facing failure message
	Error    error  // Underlying cause
}

// BatchResult contains all data from a batch run.
type BatchResult struct {
	TotalSeeds      int
	Succeeded       int
	Failed          int
	Results         []SeedResult // In input order
	OutputDirectory string
	ManifestPath    string
}

type batchJob struct {
	index int
	seed  string
}

// BatchRecommend requests recommendations for many seeds with a worker pool and a shared rate limit.
//
// Each seed is driven by its own [curator.Controller], so rejected seeds never consume a rate limit token.
// Successful responses are exported in opts.Format and the run ends by writing [ManifestFilename].
func (e *RecommendEngine) BatchRecommend(
	ctx context.Context,
	prog chan<- ProgressUpdate,
	seeds []string,
	opts BatchOpts,
) (*BatchResult, error) {
	if e.recommender == nil {
		return nil, fmt.Errorf("%w: recommender not initialized", shared.ErrServiceUnavailable)
	}

	seeds = uniqueSeeds(seeds)
	if len(seeds) == 0 {
		return nil, fmt.Errorf("%w: at least one seed is required", shared.ErrMissingArgument)
	}

	if opts.Format == "" {
		opts.Format = formatter.FormatJSON
	}
	if opts.OutputDir == "" {
		opts.OutputDir = fmt.Sprintf("vibe_batch_%d", time.Now().Unix())
	}
	if opts.NumWorkers <= 0 {
		opts.NumWorkers = DefaultWorkers
	}
	if opts.NumWorkers > MaxWorkers {
		opts.NumWorkers = MaxWorkers
	}
	if opts.RateLimit <= 0 {
		opts.RateLimit = DefaultRateLimit
	}

	if err := os.MkdirAll(opts.OutputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	result := &BatchResult{
		TotalSeeds:      len(seeds),
		OutputDirectory: opts.OutputDir,
		Results:         make([]SeedResult, len(seeds)),
	}

	limiter := rate.NewLimiter(rate.Limit(opts.RateLimit), 1)

	jobs := make(chan batchJob, len(seeds))
	done := make(chan int, len(seeds))

	for i, seed := range seeds {
		jobs <- batchJob{index: i, seed: seed}
	}
	close(jobs)

	sendProgress(prog, queuedUpdate(len(seeds), opts.NumWorkers))

	var wg sync.WaitGroup
	for i := 0; i < opts.NumWorkers; i++ {
		wg.Add(1)
		go e.batchWorker(ctx, &wg, limiter, jobs, done, result.Results, opts)
	}

	go func() {
		wg.Wait()
		close(done)
	}()

	completed := 0
	for idx := range done {
		completed++
		res := result.Results[idx]
		if res.Success {
			result.Succeeded++
			sendProgress(prog, seedCompletedUpdate(completed, len(seeds), res))
		} else {
			result.Failed++
			sendProgress(prog, seedFailedUpdate(completed, len(seeds), res))
		}
	}

	// Seeds never picked up because ctx was canceled.
	for i := range result.Results {
		if result.Results[i].Seed == "" {
			result.Results[i] = SeedResult{Seed: seeds[i], Message: "canceled", Error: ctx.Err()}
			result.Failed++
		}
	}

	manifestPath := filepath.Join(opts.OutputDir, ManifestFilename)
	if err := formatter.WriteBatchManifest(buildManifest(result, opts.Format), manifestPath); err != nil {
		return result, fmt.Errorf("batch completed but failed to write manifest: %w", err)
	}
	result.ManifestPath = manifestPath
	sendProgress(prog, manifestUpdate(len(seeds), manifestPath))

	if err := ctx.Err(); err != nil {
		return result, err
	}
	return result, nil
}

// batchWorker drains jobs, writing each result into its input slot and reporting the index on done.
func (e *RecommendEngine) batchWorker(
	ctx context.Context,
	wg *sync.WaitGroup,
	limiter *rate.Limiter,
	jobs <-chan batchJob,
	done chan<- int,
	results []SeedResult,
	opts BatchOpts,
) {
	defer wg.Done()

	for job := range jobs {
		select {
		case <-ctx.Done():
			return
		default:
		}

		results[job.index] = e.recommendOne(ctx, limiter, job.seed, opts)
		done <- job.index
	}
}

// recommendOne runs the submit/fetch/resolve cycle for a single seed and exports a successful result.
func (e *RecommendEngine) recommendOne(ctx context.Context, limiter *rate.Limiter, seed string, opts BatchOpts) SeedResult {
	res := SeedResult{Seed: seed}
	logger := e.logger.With("seed", seed)

	c := curator.NewController(e.recommender, opts.K, logger)
	c.SetSeedText(seed)

	pending, ok := c.Submit()
	if !ok {
		res.Message = curator.ValidationMessage
		res.Error = &curator.ValidationError{Input: seed}
		return res
	}
	res.SeedID = pending.SeedID

	if err := limiter.Wait(ctx); err != nil {
		c.Abandon()
		res.Message = "canceled"
		res.Error = err
		return res
	}

	outcome := c.Fetch(ctx, pending)
	c.Resolve(outcome)

	switch state := c.State().(type) {
	case curator.Result:
		data := state.Data
		res.SeedName = data.Seed.SongName
		res.Items = data.Len()

		path := filepath.Join(opts.OutputDir, formatter.DefaultFilename(&data, opts.Format))
		written, err := formatter.WriteExport(&data, opts.Format, path)
		if err != nil {
			res.Message = "failed to write export"
			res.Error = err
			return res
		}
		res.Files = []string{written}
		res.Success = true

		if opts.Recorder != nil {
			if _, err := opts.Recorder.Record(pending.K, data); err != nil {
				logger.Warn("failed to record history", "err", err)
			}
		}
	case curator.Input:
		res.Message = state.Error
		res.Error = outcome.Err
	default:
		res.Message = curator.FailureMessage
		res.Error = errors.New("request did not resolve")
	}

	return res
}

func buildManifest(result *BatchResult, f formatter.Format) formatter.BatchManifest {
	m := formatter.BatchManifest{
		Format:     f,
		TotalSeeds: result.TotalSeeds,
		Succeeded:  result.Succeeded,
		Failed:     result.Failed,
		Entries:    make([]formatter.ManifestEntry, 0, len(result.Results)),
	}

	for _, r := range result.Results {
		entry := formatter.ManifestEntry{
			Seed:     r.Seed,
			SeedID:   r.SeedID,
			SeedName: r.SeedName,
			Items:    r.Items,
			Files:    r.Files,
			Status:   "success",
		}
		if !r.Success {
			entry.Status = "failed"
			entry.Error = r.Message
		}
		m.Entries = append(m.Entries, entry)
	}
	return m
}

// uniqueSeeds trims seeds and drops blanks and repeats, keeping first occurrences.
func uniqueSeeds(seeds []string) []string {
	seen := make(map[string]bool, len(seeds))
	out := make([]string, 0, len(seeds))
	for _, s := range seeds {
		s = strings.TrimSpace(s)
		if s == "" || seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	return out
}
