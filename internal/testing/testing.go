// package testing contains shared testing utilities
package testing

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"sync"
	"testing"

	"github.com/desertthunder/vibe/internal/models"
)

// SampleResponse returns the canonical single-item response used across tests.
func SampleResponse() models.RecommendationResponse {
	return models.RecommendationResponse{
		EngineVersion: "v1",
		AudioModel:    "m1",
		Cached:        false,
		Method:        "content",
		Seed:          models.Song{SongID: 123456, SongName: "X", Artist: "Y"},
		Items: []models.RecommendationItem{
			{Song: models.Song{SongID: 1, SongName: "A", Artist: "B"}, Rank: 1, Score: 0.9},
		},
	}
}

// SampleResponseJSON is the wire form of [SampleResponse].
const SampleResponseJSON = `{"engine_version":"v1","audio_model":"m1","cached":false,"method":"content",` +
	`"seed":{"song_id":123456,"song_name":"X","artist":"Y"},` +
	`"items":[{"song_id":1,"song_name":"A","artist":"B","rank":1,"score":0.9}]}`

// RecommendCall records the arguments of one FetchRecommendations call.
type RecommendCall struct {
	SeedID int64
	K      int
}

// RecordingRecommender is a test double for services.Recommender that records calls and returns a fixed result.
//
// When Gate is non-nil each call blocks until a value is received from it (or ctx is done).
type RecordingRecommender struct {
	Response *models.RecommendationResponse
	Err      error
	Gate     chan struct{}

	mu    sync.Mutex
	calls []RecommendCall
}

func (r *RecordingRecommender) FetchRecommendations(ctx context.Context, seedID int64, k int) (*models.RecommendationResponse, error) {
	r.mu.Lock()
	r.calls = append(r.calls, RecommendCall{SeedID: seedID, K: k})
	r.mu.Unlock()

	if r.Gate != nil {
		select {
		case <-r.Gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	if r.Err != nil {
		return nil, r.Err
	}
	return r.Response, nil
}

// Calls returns a copy of the recorded calls.
func (r *RecordingRecommender) Calls() []RecommendCall {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]RecommendCall(nil), r.calls...)
}

// RecommenderFunc adapts a function to services.Recommender.
type RecommenderFunc func(ctx context.Context, seedID int64, k int) (*models.RecommendationResponse, error)

func (f RecommenderFunc) FetchRecommendations(ctx context.Context, seedID int64, k int) (*models.RecommendationResponse, error) {
	return f(ctx, seedID, k)
}

// ResponseFor builds a response for seedID with n ranked items.
func ResponseFor(seedID int64, n int) *models.RecommendationResponse {
	resp := &models.RecommendationResponse{
		EngineVersion: "v1",
		AudioModel:    "m1",
		Method:        "content",
		Seed:          models.Song{SongID: seedID, SongName: "Seed", Artist: "Artist"},
		Items:         make([]models.RecommendationItem, 0, n),
	}
	for i := 1; i <= n; i++ {
		resp.Items = append(resp.Items, models.RecommendationItem{
			Song:  models.Song{SongID: seedID*100 + int64(i), SongName: "Song", Artist: "A"},
			Rank:  i,
			Score: 1 / float64(i),
		})
	}
	return resp
}

// Backend is an httptest server that records the query of every request it serves.
type Backend struct {
	*httptest.Server

	mu      sync.Mutex
	paths   []string
	queries []url.Values
}

// NewBackend starts a [Backend] serving handler; it is closed when the test ends.
func NewBackend(t *testing.T, handler http.HandlerFunc) *Backend {
	t.Helper()
	b := &Backend{}
	b.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		b.paths = append(b.paths, r.URL.Path)
		b.queries = append(b.queries, r.URL.Query())
		b.mu.Unlock()
		handler(w, r)
	}))
	t.Cleanup(b.Close)
	return b
}

// Requests returns the number of requests served so far.
func (b *Backend) Requests() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.queries)
}

// Query returns the query of the i-th request.
func (b *Backend) Query(i int) url.Values {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.queries[i]
}

// Path returns the path of the i-th request.
func (b *Backend) Path(i int) string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.paths[i]
}

// JSONHandler replies with status and body as application/json.
func JSONHandler(status int, body string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		io.WriteString(w, body)
	}
}

// FWriter always returns an error on Write
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}

// MockRoundTripper allows custom HTTP responses for testing
type MockRoundTripper struct {
	response *http.Response
	err      error
}

func NewMockRoundTripper(r *http.Response, e error) *MockRoundTripper {
	return &MockRoundTripper{response: r, err: e}
}

func (m *MockRoundTripper) RoundTrip(*http.Request) (*http.Response, error) {
	return m.response, m.err
}

// FCloser simulates a failure when reading response body
type FCloser struct{}

func (f *FCloser) Read(p []byte) (n int, err error) {
	return 0, errors.New("read failed")
}

func (f *FCloser) Close() error {
	return nil
}

func AssertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("File does not exist: %s", path)
	}
}

func MustReadFile(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file %s: %v", path, err)
	}
	return string(content)
}
