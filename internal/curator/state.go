package curator

import "github.com/desertthunder/vibe/internal/models"

// State is exactly one of [Input], [Loading] or [Result].
type State interface {
	isState()
	String() string
}

// Input collects the seed text. An empty Error means there is nothing to report.
type Input struct {
	SeedText string
	Error    string
}

// Loading is shown while the single in-flight request is pending.
type Loading struct{}

// Result holds the last successful response.
type Result struct {
	Data models.RecommendationResponse
}

func (Input) isState()   {}
func (Loading) isState() {}
func (Result) isState()  {}

func (Input) String() string   { return "input" }
func (Loading) String() string { return "loading" }
func (Result) String() string  { return "result" }

// HasError reports whether a validation or request failure is pending display.
func (i Input) HasError() bool { return i.Error != "" }
