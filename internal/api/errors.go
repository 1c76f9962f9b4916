package api

import (
	"errors"
	"fmt"
)

// Sentinel errors returned by the client. Callers match them with errors.Is.
var (
	// ErrDecode indicates a response body that is neither valid JSON nor
	// recognizable delimited text.
	ErrDecode = errors.New("undecodable response body")

	// ErrFormat indicates a decoded payload whose shape matches no known schema.
	ErrFormat = errors.New("unexpected payload shape")

	// ErrUnknownInterval indicates a resolution outside the supported set.
	ErrUnknownInterval = errors.New("unknown resolution interval")

	// ErrBulkUnsupported indicates a metric whose metadata rejects bulk fetches.
	ErrBulkUnsupported = errors.New("metric does not support bulk operations")

	// ErrBadTimestamp indicates a date value in no supported representation.
	ErrBadTimestamp = errors.New("unparseable date value")

	// ErrBadLimit indicates a non-positive point limit.
	ErrBadLimit = errors.New("limit must be a positive integer")
)

// APIError represents an HTTP error from the Glassnode API.
type APIError struct {
	StatusCode int
	Message    string
	Body       []byte
}

func (e *APIError) Error() string {
	return fmt.Sprintf("glassnode api error %d: %s", e.StatusCode, e.Message)
}

// IsRetryable returns true if the error should trigger a transport retry.
func (e *APIError) IsRetryable() bool {
	return e.StatusCode >= 500 || e.StatusCode == 429
}
