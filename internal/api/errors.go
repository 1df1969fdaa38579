package api

import (
	"errors"
	"fmt"
)

// ErrUnauthorized marks a 401 from any authenticated endpoint. It is
// terminal for the operation that hit it: callers must not retry, and the
// top-level coordinator (not this package) clears credential state.
var ErrUnauthorized = errors.New("unauthorized")

// ErrEmptyResponse marks a 2xx response whose body is missing a field the
// caller requires.
var ErrEmptyResponse = errors.New("empty response")

// RequestError covers every other failure: non-2xx statuses and transport
// errors. Status is zero when the request never produced a response.
type RequestError struct {
	Status int
	Err    error
}

func (e *RequestError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("request failed: status %d", e.Status)
	}
	return fmt.Sprintf("request failed: %v", e.Err)
}

func (e *RequestError) Unwrap() error {
	return e.Err
}
