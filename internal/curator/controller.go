package curator

import (
	"context"
	"errors"
	"io"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/vibe/internal/models"
	"github.com/desertthunder/vibe/internal/services"
)

// Pending describes a request admitted by [Controller.Submit].
type Pending struct {
	Generation uint64
	SeedID     int64
	K          int
}

// Outcome is the result of [Controller.Fetch] for one [Pending] request.
type Outcome struct {
	Generation uint64
	SeedID     int64
	K          int
	Response   *models.RecommendationResponse
	Err        error
}

// Controller is the single writer of the interaction [State] and the only caller of the [services.Recommender].
//
// It is not safe for concurrent use: everything except [Controller.Fetch] must run on one goroutine.
type Controller struct {
	recommender services.Recommender
	k           int
	logger      *log.Logger

	state      State
	seedText   string
	generation uint64
}

// NewController creates a controller in [Input] with empty seed text.
//
// k is the result size sent with every request; k <= 0 defers to the recommender's default.
func NewController(rec services.Recommender, k int, logger *log.Logger) *Controller {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Controller{
		recommender: rec,
		k:           k,
		logger:      logger,
		state:       Input{},
	}
}

// State returns a snapshot of the current state.
func (c *Controller) State() State { return c.state }

// SeedText returns the seed text as last typed, which survives Loading.
func (c *Controller) SeedText() string { return c.seedText }

// Generation returns the generation of the most recent submit.
func (c *Controller) Generation() uint64 { return c.generation }

// SetSeedText replaces the seed text. Any displayed error is kept until the next submit.
func (c *Controller) SetSeedText(text string) bool {
	in, ok := c.state.(Input)
	if !ok {
		return false
	}
	c.seedText = text
	in.SeedText = text
	c.state = in
	return true
}

// Submit validates the seed text and, when it is a valid id, moves to [Loading].
//
// It returns ok=false without any request when the state is not [Input] or the text is rejected.
func (c *Controller) Submit() (Pending, bool) {
	p, err := c.submit()
	return p, err == nil
}

func (c *Controller) submit() (Pending, error) {
	if _, ok := c.state.(Input); !ok {
		return Pending{}, transitionError("submit", c.state)
	}

	seedID, err := ParseSeed(c.seedText)
	if err != nil {
		c.state = Input{SeedText: c.seedText, Error: ValidationMessage}
		c.logger.Debug("rejected seed", "input", c.seedText)
		return Pending{}, err
	}

	c.generation++
	c.state = Loading{}
	c.logger.Debug("requesting recommendations", "seed_id", seedID, "k", c.k, "generation", c.generation)

	return Pending{Generation: c.generation, SeedID: seedID, K: c.k}, nil
}

// Fetch performs the single request for p. It reads no controller state and may run on any goroutine.
func (c *Controller) Fetch(ctx context.Context, p Pending) Outcome {
	resp, err := c.recommender.FetchRecommendations(ctx, p.SeedID, p.K)
	if err == nil && resp == nil {
		err = errors.New("recommender returned no response")
	}
	return Outcome{Generation: p.Generation, SeedID: p.SeedID, K: p.K, Response: resp, Err: err}
}

// Resolve applies o if it belongs to the current generation and the controller is still [Loading].
//
// Stale outcomes are dropped and Resolve returns false.
func (c *Controller) Resolve(o Outcome) bool {
	if _, ok := c.state.(Loading); !ok || o.Generation != c.generation {
		c.logger.Debug("discarding stale outcome", "generation", o.Generation, "current", c.generation, "state", c.state)
		return false
	}

	if o.Err != nil {
		c.logger.Error("recommendation request failed", "seed_id", o.SeedID, "err", o.Err)
		c.state = Input{SeedText: c.seedText, Error: FailureMessage}
		return true
	}

	c.logger.Info("recommendations received", "seed_id", o.SeedID, "items", o.Response.Len(), "cached", o.Response.Cached)
	c.state = Result{Data: *o.Response}
	return true
}

// Run submits, fetches and resolves in one call.
//
// It returns the [*ValidationError] or the recommender's error; the state is updated as if each step ran separately.
func (c *Controller) Run(ctx context.Context) error {
	p, err := c.submit()
	if err != nil {
		return err
	}

	o := c.Fetch(ctx, p)
	c.Resolve(o)
	return o.Err
}

// Retry discards the held response and returns to an empty [Input].
func (c *Controller) Retry() bool {
	if _, ok := c.state.(Result); !ok {
		return false
	}
	c.seedText = ""
	c.state = Input{}
	return true
}

// Abandon leaves [Loading] without waiting for the in-flight request, whose outcome will be discarded.
func (c *Controller) Abandon() bool {
	if _, ok := c.state.(Loading); !ok {
		return false
	}
	c.generation++
	c.state = Input{SeedText: c.seedText}
	c.logger.Debug("abandoned request", "input", c.seedText)
	return true
}
