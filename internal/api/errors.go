package api

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Error is a failure reported by the server: either an envelope with
// success=false or a non-2xx response.
type Error struct {
	Status  int
	Method  string
	Path    string
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s %s: %s (HTTP %d)", e.Method, e.Path, e.Message, e.Status)
}

// TransportError wraps a failure to reach the server or read its response.
type TransportError struct {
	Method string
	Path   string
	Err    error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Method, e.Path, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// ValidationError rejects input before any request is sent.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s %s", e.Field, e.Reason)
}

// IsTransport reports whether err came from the network layer.
func IsTransport(err error) bool {
	var te *TransportError
	return errors.As(err, &te)
}

// IsValidation reports whether err was raised before a request was sent.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// Message renders any error from this package as the single line an operator sees.
func Message(err error) string {
	if err == nil {
		return ""
	}
	var apiErr *Error
	if errors.As(err, &apiErr) {
		if msg := strings.TrimSpace(apiErr.Message); msg != "" {
			return msg
		}
		return fmt.Sprintf("request failed (HTTP %d)", apiErr.Status)
	}
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve.Error()
	}
	if errors.Is(err, context.Canceled) {
		return "request cancelled"
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return "request timed out"
	}
	var te *TransportError
	if errors.As(err, &te) {
		return "network error: " + te.Err.Error()
	}
	return err.Error()
}

func requireID(field string, id int64) error {
	if id <= 0 {
		return &ValidationError{Field: field, Reason: "must be a positive integer"}
	}
	return nil
}

func requireText(field, value string) error {
	if strings.TrimSpace(value) == "" {
		return &ValidationError{Field: field, Reason: "is required"}
	}
	return nil
}
