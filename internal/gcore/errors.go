package gcore

import (
	"fmt"

	"github.com/cockroachdb/errors"
	"github.com/rm-hull/heat-metadata-collector/internal/config"
)

var (
	ErrNotConfigured = config.ErrNotConfigured
	ErrNotAvailable  = errors.New("gcore metadata not available")
)

// HTTPStatusError is returned when the remote server responds with a non-2xx status.
type HTTPStatusError struct {
	URL        string
	Status     string
	StatusCode int
}

func (e *HTTPStatusError) Error() string {
	return fmt.Sprintf("http status response from %s: %s", e.URL, e.Status)
}

// DecodeError is returned when a response body is not the JSON we expected.
type DecodeError struct {
	URL string
	Err error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("failed to decode response from %s: %v", e.URL, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}
