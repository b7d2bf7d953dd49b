package services

import (
	"context"
	"errors"
	"fmt"
	"net"
)

// FailureKind separates transport problems from bad backend answers. Both
// are shown to the operator the same way; the kind only feeds logs.
type FailureKind int

const (
	NetworkFailure FailureKind = iota
	BackendFailure
)

func (kind FailureKind) String() string {
	switch kind {
	case NetworkFailure:
		return "network"
	case BackendFailure:
		return "backend"
	default:
		return "unknown"
	}
}

var (
	ErrMalformedListing = errors.New("malformed file list")
	ErrMixedSentinel    = errors.New("not-loaded marker mixed with entries")
	ErrArchiveRequired  = errors.New("archive id is required")
)

type FetchError struct {
	Kind       FailureKind
	StatusCode int
	Err        error
}

func (err *FetchError) Error() string {
	if err.StatusCode != 0 {
		return fmt.Sprintf("%s failure: HTTP %d: %v", err.Kind, err.StatusCode, err.Err)
	}
	return fmt.Sprintf("%s failure: %v", err.Kind, err.Err)
}

func (err *FetchError) Unwrap() error {
	return err.Err
}

// FailureKindOf classifies any fetch error.
func FailureKindOf(err error) FailureKind {
	var fetchErr *FetchError
	if errors.As(err, &fetchErr) {
		return fetchErr.Kind
	}
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) || errors.As(err, &netErr) {
		return NetworkFailure
	}
	return BackendFailure
}

func networkFailure(err error) error {
	return &FetchError{Kind: NetworkFailure, Err: err}
}

func backendFailure(status int, err error) error {
	return &FetchError{Kind: BackendFailure, StatusCode: status, Err: err}
}
