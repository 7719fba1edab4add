package models

// Song identifies a song in the backend catalog. Used both as the resolved seed and as the base of each recommendation.
type Song struct {
	SongID   int64  `json:"song_id"`
	SongName string `json:"song_name"`
	Artist   string `json:"artist"`
	Genre    string `json:"genre,omitempty"`
}

// RecommendationItem is a recommended [Song] with its position and relevance.
type RecommendationItem struct {
	Song
	Rank  int     `json:"rank"`  // 1-based, unique within a response
	Score float64 `json:"score"` // higher is more relevant; not normalized
}

// RecommendationResponse is the full result of one /recommend request.
//
// Items keep the backend's order (ascending rank). An empty Items slice is valid.
type RecommendationResponse struct {
	EngineVersion string               `json:"engine_version"`
	AudioModel    string               `json:"audio_model"`
	Cached        bool                 `json:"cached"`
	Method        string               `json:"method"`
	Seed          Song                 `json:"seed"`
	Items         []RecommendationItem `json:"items"`
}

// Len reports the number of recommended items.
func (r RecommendationResponse) Len() int {
	return len(r.Items)
}

// SongDetail is a catalog entry returned by /songs/{id} and /search.
type SongDetail struct {
	Song
	IssueYear *int `json:"issue_year,omitempty"`
}

// SongResponse wraps a single catalog entry.
type SongResponse struct {
	Song SongDetail `json:"song"`
}

// SearchResult is the /search payload.
type SearchResult struct {
	Query string       `json:"query"`
	Total int          `json:"total"`
	Items []SongDetail `json:"items"`
}

// Health is the backend /health payload.
type Health struct {
	Status          string  `json:"status"`
	EngineVersion   string  `json:"engine_version"`
	AudioModel      string  `json:"audio_model"`
	DemoMode        bool    `json:"demo_mode"`
	MetaFullLoaded  bool    `json:"meta_full_loaded"`
	MetaFullCount   int     `json:"meta_full_count"`
	MetaAudioLoaded bool    `json:"meta_audio_loaded"`
	MetaAudioCount  int     `json:"meta_audio_count"`
	Item2VecLoaded  bool    `json:"item2vec_loaded"`
	AudioLoaded     bool    `json:"audio_loaded"`
	AudioModelType  *string `json:"audio_model_type,omitempty"`
	RedisConnected  bool    `json:"redis_connected"`
}

// OK reports whether the backend declares itself fully operational.
func (h Health) OK() bool {
	return h.Status == "ok"
}
