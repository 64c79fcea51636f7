package tokenlist

import (
	"errors"
	"fmt"
)

var (
	// ErrNetworkFailure covers transport errors and non-2xx responses.
	ErrNetworkFailure = errors.New("network failure")
	// ErrMalformedResponse covers undecodable bodies and payloads that violate the schema.
	ErrMalformedResponse = errors.New("malformed response")
)

// StatusError is returned (wrapped in ErrNetworkFailure) when a source answers with a non-2xx status.
type StatusError struct {
	Source     string
	URL        string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s: unexpected status %d from %s", e.Source, e.StatusCode, e.URL)
}

// IsRetryable reports whether a fetch error is worth retrying.
// Malformed payloads are not: the same body would come back.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrNetworkFailure)
}
