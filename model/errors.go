package model

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorKind categorizes pipeline failures.
type ErrorKind string

const (
	// KindBadRequest indicates missing/malformed input or a reference
	// pointing at the wrong container.
	KindBadRequest ErrorKind = "bad_request"

	// KindNotFound indicates a referenced artifact or record is absent.
	KindNotFound ErrorKind = "not_found"

	// KindStoreUnavailable indicates the artifact or ledger store is
	// unreachable or erroring.
	KindStoreUnavailable ErrorKind = "store_unavailable"

	// KindUpstreamStage indicates the next-stage call returned a
	// non-success response or timed out.
	KindUpstreamStage ErrorKind = "upstream_stage"
)

// Error is the canonical pipeline error, converted to an HTTP response
// at the stage boundary.
type Error struct {
	Kind    ErrorKind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// HTTPStatus maps the error kind to a status code.
func (e *Error) HTTPStatus() int {
	switch e.Kind {
	case KindBadRequest:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindStoreUnavailable:
		return http.StatusServiceUnavailable
	case KindUpstreamStage:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// ErrBadRequest creates a validation error.
func ErrBadRequest(message string) *Error {
	return &Error{Kind: KindBadRequest, Message: message}
}

// ErrNotFound creates a missing-artifact/record error.
func ErrNotFound(message string) *Error {
	return &Error{Kind: KindNotFound, Message: message}
}

// ErrStoreUnavailable wraps an underlying store failure.
func ErrStoreUnavailable(message string, err error) *Error {
	return &Error{Kind: KindStoreUnavailable, Message: message, Err: err}
}

// ErrUpstreamStage wraps a failed next-stage trigger.
func ErrUpstreamStage(message string, err error) *Error {
	return &Error{Kind: KindUpstreamStage, Message: message, Err: err}
}

// KindOf returns the kind of err, or an empty kind for errors outside
// the taxonomy.
func KindOf(err error) ErrorKind {
	var pe *Error
	if errors.As(err, &pe) {
		return pe.Kind
	}
	return ""
}

// HTTPStatusFor returns the response status for any error; unexpected
// errors map to 500.
func HTTPStatusFor(err error) int {
	var pe *Error
	if errors.As(err, &pe) {
		return pe.HTTPStatus()
	}
	return http.StatusInternalServerError
}
