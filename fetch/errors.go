package fetch

import (
	"fmt"

	"github.com/pkg/errors"
)

// ErrNoCandidates is returned when there is nothing to try.
var ErrNoCandidates = errors.New("no candidate URLs to try")

// ExhaustedError reports that every candidate failed. It keeps the last URL attempted
// and the last underlying failure so callers can show "tried: <url>".
type ExhaustedError struct {
	LastURL  string
	Attempts int
	Err      error
}

func (e *ExhaustedError) Error() string {
	if e.LastURL == "" {
		return fmt.Sprintf("fetch failed: %v", e.Err)
	}
	return fmt.Sprintf("fetch failed after %d attempt(s), tried %s: %v", e.Attempts, e.LastURL, e.Err)
}

func (e *ExhaustedError) Unwrap() error {
	return e.Err
}

// StatusError is a non-2xx HTTP response.
type StatusError struct {
	URL  string
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d from %s", e.Code, e.URL)
}

// TooLargeError is a body that exceeded MaxBodySize. The body is discarded, never truncated.
type TooLargeError struct {
	URL   string
	Limit int64
}

func (e *TooLargeError) Error() string {
	return fmt.Sprintf("body from %s exceeds %d bytes", e.URL, e.Limit)
}

// TriedURL extracts the last attempted URL from a fetch failure, if any.
func TriedURL(err error) string {
	var exhausted *ExhaustedError
	if errors.As(err, &exhausted) {
		return exhausted.LastURL
	}
	return ""
}
