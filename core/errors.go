package core

import (
	"errors"
	"fmt"
)

var (
	ErrMissingImageRef = errors.New("image reference is empty")
	ErrNotFound        = errors.New("document not found")
)

// FetchErrorKind classifies why an image could not be used.
type FetchErrorKind int

const (
	FetchUnreachable FetchErrorKind = iota + 1
	FetchInvalidFormat
	FetchTimeout
)

func (k FetchErrorKind) String() string {
	switch k {
	case FetchUnreachable:
		return "unreachable"
	case FetchInvalidFormat:
		return "invalid_format"
	case FetchTimeout:
		return "timeout"
	}
	return "unknown"
}

// FetchError is returned when an image cannot be retrieved or fails validation.
// It is terminal for the request; nothing retries it.
type FetchError struct {
	Kind FetchErrorKind
	Role ImageRole
	URL  string
	Err  error
}

func (e *FetchError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("fetch %s image (%s): %s: %v", e.Role, e.URL, e.Kind, e.Err)
	}
	return fmt.Sprintf("fetch %s image (%s): %s", e.Role, e.URL, e.Kind)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// ComposeErrorKind classifies composition failures.
type ComposeErrorKind int

const (
	ComposeInvalidInput ComposeErrorKind = iota + 1
	ComposeEncodingFailure
)

func (k ComposeErrorKind) String() string {
	switch k {
	case ComposeInvalidInput:
		return "invalid_input"
	case ComposeEncodingFailure:
		return "encoding_failure"
	}
	return "unknown"
}

// ComposeError is returned when a card document cannot be produced.
type ComposeError struct {
	Kind ComposeErrorKind
	Err  error
}

func (e *ComposeError) Error() string {
	return fmt.Sprintf("compose card: %s: %v", e.Kind, e.Err)
}

func (e *ComposeError) Unwrap() error {
	return e.Err
}

// IsFetchKind reports whether err carries a FetchError of the given kind.
func IsFetchKind(err error, kind FetchErrorKind) bool {
	var fe *FetchError
	return errors.As(err, &fe) && fe.Kind == kind
}

// IsComposeKind reports whether err carries a ComposeError of the given kind.
func IsComposeKind(err error, kind ComposeErrorKind) bool {
	var ce *ComposeError
	return errors.As(err, &ce) && ce.Kind == kind
}
