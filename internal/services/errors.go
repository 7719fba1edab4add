package services

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/desertthunder/vibe/internal/shared"
)

// RequestFailure reports a backend call that did not produce a usable response.
type RequestFailure struct {
	Op         string // backend operation, e.g. "recommend"
	StatusCode int    // HTTP status; 0 when no response was received
	Err        error  // underlying cause, if any
}

func (e *RequestFailure) Error() string {
	switch {
	case e.StatusCode != 0 && e.Err != nil:
		return fmt.Sprintf("%s: %s: status %d: %v", shared.ErrAPIRequest, e.Op, e.StatusCode, e.Err)
	case e.StatusCode != 0:
		return fmt.Sprintf("%s: %s: status %d", shared.ErrAPIRequest, e.Op, e.StatusCode)
	case e.Err != nil:
		return fmt.Sprintf("%s: %s: %v", shared.ErrAPIRequest, e.Op, e.Err)
	default:
		return fmt.Sprintf("%s: %s", shared.ErrAPIRequest, e.Op)
	}
}

// Unwrap exposes both [shared.ErrAPIRequest] and the underlying cause to errors.Is/As.
func (e *RequestFailure) Unwrap() []error {
	if e.Err == nil {
		return []error{shared.ErrAPIRequest}
	}
	return []error{shared.ErrAPIRequest, e.Err}
}

// IsNotFound reports whether err is a [*RequestFailure] for an HTTP 404.
func IsNotFound(err error) bool {
	var rf *RequestFailure
	return errors.As(err, &rf) && rf.StatusCode == http.StatusNotFound
}
