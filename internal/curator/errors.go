package curator

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/desertthunder/vibe/internal/shared"
)

const (
	// ValidationMessage is shown when the seed text is not a base-10 integer.
	ValidationMessage = "only a numeric song id is currently accepted"
	// FailureMessage is shown for every request failure; the cause is only logged.
	FailureMessage = "an error occurred while requesting recommendations"
)

var ErrInvalidTransition = errors.New("operation not valid in current state")

// ValidationError rejects seed text before any request is made.
type ValidationError struct {
	Input string
}

func (e *ValidationError) Error() string {
	return ValidationMessage
}

func (e *ValidationError) Unwrap() error {
	return shared.ErrInvalidInput
}

// ParseSeed trims text and parses it as a base-10 song id.
//
// Surrounding whitespace and a leading sign are accepted; fractions, hex, exponents and empty input are not.
func ParseSeed(text string) (int64, error) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return 0, &ValidationError{Input: text}
	}

	id, err := strconv.ParseInt(trimmed, 10, 64)
	if err != nil {
		return 0, &ValidationError{Input: text}
	}
	return id, nil
}

func transitionError(op string, s State) error {
	return fmt.Errorf("%w: %s from %s", ErrInvalidTransition, op, s)
}
