package main

import (
	"errors"
	"fmt"
)

// Failure kinds. Every error leaving the weather client or a location store
// wraps exactly one of them, so callers can branch with errors.Is while
// errors.As still reaches the underlying cause.
var (
	ErrTransport = errors.New("transport failure")
	ErrDecode    = errors.New("decode failure")
	ErrStorage   = errors.New("storage failure")
	ErrConfig    = errors.New("configuration failure")

	ErrInvalidSpec       = errors.New("invalid city spec")
	ErrLocationNotStored = errors.New("no location stored")
)

func failure(kind error, format string, args ...any) error {
	return fmt.Errorf("%w: %w", kind, fmt.Errorf(format, args...))
}

// failureKind returns the name of the failure kind wrapped by err.
func failureKind(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrTransport):
		return "transport"
	case errors.Is(err, ErrDecode):
		return "decode"
	case errors.Is(err, ErrStorage):
		return "storage"
	case errors.Is(err, ErrConfig):
		return "config"
	case errors.Is(err, ErrInvalidSpec):
		return "invalid_spec"
	default:
		return "unknown"
	}
}
