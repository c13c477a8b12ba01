package services

import (
	"context"
	"errors"
	"fmt"
)

// ErrChatBusy is returned when no upstream slot frees up in time.
var ErrChatBusy = errors.New("chat service busy")

type ValidationError struct{ Message string }

func (e *ValidationError) Error() string { return e.Message }

type UnauthorizedError struct{ Message string }

func (e *UnauthorizedError) Error() string { return e.Message }

// UpstreamKind classifies a failed call to the completion API.
type UpstreamKind string

const (
	UpstreamNetwork   UpstreamKind = "network"
	UpstreamStatus    UpstreamKind = "status"
	UpstreamMalformed UpstreamKind = "malformed"
)

// UpstreamError is returned by chat providers for any failed completion call.
// StatusCode is set only for UpstreamStatus.
type UpstreamError struct {
	Kind       UpstreamKind
	StatusCode int
	Err        error
}

func (e *UpstreamError) Error() string {
	if e.Kind == UpstreamStatus {
		return fmt.Sprintf("upstream %s error (HTTP %d): %v", e.Kind, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("upstream %s error: %v", e.Kind, e.Err)
}

func (e *UpstreamError) Unwrap() error { return e.Err }

// Timeout reports whether the failure was a deadline expiring.
func (e *UpstreamError) Timeout() bool {
	if e.Kind != UpstreamNetwork {
		return false
	}
	if errors.Is(e.Err, context.DeadlineExceeded) {
		return true
	}
	var t interface{ Timeout() bool }
	return errors.As(e.Err, &t) && t.Timeout()
}

func networkError(err error) *UpstreamError {
	return &UpstreamError{Kind: UpstreamNetwork, Err: err}
}

func statusError(code int, err error) *UpstreamError {
	return &UpstreamError{Kind: UpstreamStatus, StatusCode: code, Err: err}
}

func malformedError(err error) *UpstreamError {
	return &UpstreamError{Kind: UpstreamMalformed, Err: err}
}
