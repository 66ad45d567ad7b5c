package client

import (
	"errors"
	"fmt"
)

// ErrSourceUnavailable is returned when the config source cannot be reached.
var ErrSourceUnavailable = errors.New("config source unavailable")

// ErrBadResponse is matched by every *StatusError.
var ErrBadResponse = errors.New("bad response from config source")

// ErrDeserialization is matched by every *DecodeError.
var ErrDeserialization = errors.New("malformed config source payload")

// StatusError reports a response with an unexpected status code.
type StatusError struct {
	// Op names the operation, e.g. "get technical config".
	Op string
	// StatusCode is the HTTP status returned by the source.
	StatusCode int
	// Body is a short excerpt of the response body, if any.
	Body string
}

func (e *StatusError) Error() string {
	if e.Body != "" {
		return fmt.Sprintf("%s: unexpected status %d: %s", e.Op, e.StatusCode, e.Body)
	}
	return fmt.Sprintf("%s: unexpected status %d", e.Op, e.StatusCode)
}

func (e *StatusError) Is(target error) bool {
	return target == ErrBadResponse
}

// DecodeError reports a response body that could not be parsed.
type DecodeError struct {
	Op  string
	Err error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("%s: decode response: %v", e.Op, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

func (e *DecodeError) Is(target error) bool {
	return target == ErrDeserialization
}

// unavailable wraps a transport error so it matches ErrSourceUnavailable.
func unavailable(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, ErrSourceUnavailable, err)
}

// Status represents the health check response.
type Status struct {
	Status string `json:"status"`
}
