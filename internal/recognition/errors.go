package recognition

import (
	"errors"
	"fmt"
)

// Kind is the closed failure taxonomy of the verification pipeline.
type Kind string

const (
	// KindInputDefect means the probe could not be evaluated at all
	// (no face, multiple faces, wrong dimension).
	KindInputDefect Kind = "input_defect"
	// KindStorage means a store read or write failed; fatal to the
	// current request only.
	KindStorage Kind = "storage"
)

// Error wraps a pipeline failure with its kind so callers can branch
// without string matching.
type Error struct {
	Kind Kind
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %v", e.Kind, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// NewError wraps err with a kind.
func NewError(kind Kind, err error) *Error {
	return &Error{Kind: kind, Err: err}
}

// KindOf extracts the kind of a pipeline error, or "" for foreign errors.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}
