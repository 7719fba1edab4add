package services

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/desertthunder/vibe/internal/models"
	"github.com/desertthunder/vibe/internal/shared"
	"github.com/goccy/go-json"
)

const (
	defaultBaseURL     = "http://127.0.0.1:8000"
	DefaultK           = 20
	DefaultSearchLimit = 20
	MaxSearchLimit     = 100
)

// Client talks to the recommendation backend. It holds only immutable configuration and is safe for concurrent use.
type Client struct {
	baseURL    string
	defaultK   int
	httpClient *http.Client
}

// NewClient creates a backend client from the backend configuration.
//
// An empty base URL falls back to the local default, a non-positive default k to [DefaultK], and a nil client to [http.DefaultClient].
func NewClient(cfg shared.BackendConfig, client *http.Client) *Client {
	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	k := cfg.DefaultK
	if k <= 0 {
		k = DefaultK
	}
	if client == nil {
		client = http.DefaultClient
	}

	return &Client{
		baseURL:    baseURL,
		defaultK:   k,
		httpClient: client,
	}
}

// BaseURL returns the normalized backend base URL.
func (c *Client) BaseURL() string { return c.baseURL }

// DefaultK returns the result size used when a caller passes k <= 0.
func (c *Client) DefaultK() int { return c.defaultK }

// recommendPayload mirrors [models.RecommendationResponse] with pointers so missing seed/items can be told apart from empty ones.
type recommendPayload struct {
	EngineVersion string                       `json:"engine_version"`
	AudioModel    string                       `json:"audio_model"`
	Cached        bool                         `json:"cached"`
	Method        string                       `json:"method"`
	Seed          *models.Song                 `json:"seed"`
	Items         *[]models.RecommendationItem `json:"items"`
}

// FetchRecommendations performs GET /recommend?seed_id=&k= and decodes the response.
func (c *Client) FetchRecommendations(ctx context.Context, seedID int64, k int) (*models.RecommendationResponse, error) {
	if k <= 0 {
		k = c.defaultK
	}

	params := url.Values{}
	params.Set("seed_id", strconv.FormatInt(seedID, 10))
	params.Set("k", strconv.Itoa(k))

	var payload recommendPayload
	status, err := c.get(ctx, "recommend", "/recommend", params, &payload)
	if err != nil {
		return nil, err
	}

	if payload.Seed == nil {
		return nil, &RequestFailure{Op: "recommend", StatusCode: status, Err: fmt.Errorf("response missing seed")}
	}
	if payload.Items == nil {
		return nil, &RequestFailure{Op: "recommend", StatusCode: status, Err: fmt.Errorf("response missing items")}
	}

	return &models.RecommendationResponse{
		EngineVersion: payload.EngineVersion,
		AudioModel:    payload.AudioModel,
		Cached:        payload.Cached,
		Method:        payload.Method,
		Seed:          *payload.Seed,
		Items:         *payload.Items,
	}, nil
}

// GetSong performs GET /songs/{id}.
func (c *Client) GetSong(ctx context.Context, songID int64) (*models.SongDetail, error) {
	var payload models.SongResponse
	if _, err := c.get(ctx, "song", "/songs/"+strconv.FormatInt(songID, 10), nil, &payload); err != nil {
		return nil, err
	}
	return &payload.Song, nil
}

// SearchSongs performs GET /search?q=&limit=, matching song names and artists case-insensitively.
//
// The limit is clamped to 1..[MaxSearchLimit]; zero selects [DefaultSearchLimit].
func (c *Client) SearchSongs(ctx context.Context, query string, limit int) (*models.SearchResult, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("%w: search query is empty", shared.ErrInvalidInput)
	}

	switch {
	case limit <= 0:
		limit = DefaultSearchLimit
	case limit > MaxSearchLimit:
		limit = MaxSearchLimit
	}

	params := url.Values{}
	params.Set("q", query)
	params.Set("limit", strconv.Itoa(limit))

	var payload models.SearchResult
	if _, err := c.get(ctx, "search", "/search", params, &payload); err != nil {
		return nil, err
	}
	return &payload, nil
}

// Health performs GET /health.
func (c *Client) Health(ctx context.Context) (*models.Health, error) {
	var payload models.Health
	if _, err := c.get(ctx, "health", "/health", nil, &payload); err != nil {
		return nil, err
	}
	return &payload, nil
}

// get issues a single GET and decodes a 2xx JSON body into out.
//
// Non-2xx bodies are drained but never parsed.
func (c *Client) get(ctx context.Context, op, path string, params url.Values, out any) (int, error) {
	fullURL := c.baseURL + path
	if len(params) > 0 {
		fullURL += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return 0, &RequestFailure{Op: op, Err: fmt.Errorf("failed to create request: %w", err)}
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, &RequestFailure{Op: op, Err: fmt.Errorf("request failed: %w", err)}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return resp.StatusCode, &RequestFailure{Op: op, StatusCode: resp.StatusCode}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, &RequestFailure{Op: op, StatusCode: resp.StatusCode, Err: fmt.Errorf("failed to read response: %w", err)}
	}

	if err := json.Unmarshal(body, out); err != nil {
		return resp.StatusCode, &RequestFailure{Op: op, StatusCode: resp.StatusCode, Err: fmt.Errorf("failed to decode response: %w", err)}
	}

	return resp.StatusCode, nil
}
