package client

import (
	"errors"
	"fmt"
)

// Common errors returned by the client.
var (
	// ErrMaxRetriesExceeded is returned when every attempt of a page request failed.
	ErrMaxRetriesExceeded = errors.New("max retries exceeded")

	// ErrContextCancelled is returned when the context is cancelled during a request or backoff.
	ErrContextCancelled = errors.New("context cancelled")

	// ErrDecode is returned when a response body is not valid JSON.
	ErrDecode = errors.New("decode response")
)

// maxBodyExcerpt bounds the response body kept in an APIError.
const maxBodyExcerpt = 256

// APIError represents a non-2xx response from the Steam Web API.
type APIError struct {
	StatusCode int
	Status     string
	Body       string
	Err        error
}

// Error implements the error interface.
func (e *APIError) Error() string {
	msg := fmt.Sprintf("steam api error (status %d)", e.StatusCode)
	if e.Status != "" {
		msg = fmt.Sprintf("steam api error (%s)", e.Status)
	}
	if e.Body != "" {
		msg += ": " + e.Body
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap implements error unwrapping for errors.Is/As.
func (e *APIError) Unwrap() error {
	return e.Err
}

func newAPIError(statusCode int, status string, body []byte) *APIError {
	excerpt := string(body)
	if len(excerpt) > maxBodyExcerpt {
		excerpt = excerpt[:maxBodyExcerpt] + "..."
	}
	return &APIError{
		StatusCode: statusCode,
		Status:     status,
		Body:       excerpt,
	}
}
