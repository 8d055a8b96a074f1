// Package normalize turns raw model completions into well-formed records.
// Missing fields are defaulted and numeric fields clamped; anything that
// cannot be repaired becomes a ParseError.
package normalize

import (
	"errors"
	"fmt"
)

// Kind tags the outcome of an AI round trip
type Kind int

const (
	Ok Kind = iota
	ParseError
	UpstreamError
)

func (k Kind) String() string {
	switch k {
	case Ok:
		return "ok"
	case ParseError:
		return "parse_error"
	case UpstreamError:
		return "upstream_error"
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// ErrInvalidShape is wrapped by every ParseError
var ErrInvalidShape = errors.New("invalid AI response shape")

// Result is the tagged outcome of normalizing one completion
type Result[T any] struct {
	Kind  Kind
	Value T
	Err   error
}

// OK wraps a normalized value
func OK[T any](v T) Result[T] {
	return Result[T]{Kind: Ok, Value: v}
}

// Parse wraps a shape failure
func Parse[T any](err error) Result[T] {
	if !errors.Is(err, ErrInvalidShape) {
		err = fmt.Errorf("%w: %w", ErrInvalidShape, err)
	}
	return Result[T]{Kind: ParseError, Err: err}
}

// Upstream wraps a provider failure
func Upstream[T any](err error) Result[T] {
	return Result[T]{Kind: UpstreamError, Err: err}
}

// IsOk reports whether the result carries a value
func (r Result[T]) IsOk() bool {
	return r.Kind == Ok
}
