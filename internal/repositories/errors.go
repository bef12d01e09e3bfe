package repositories

import (
	"errors"
	"fmt"
)

// ErrorKind categorises persistence failures for the service layer.
type ErrorKind int

const (
	KindUnknown ErrorKind = iota
	KindNotFound
	KindConflict
	KindUnavailable
)

// Error is the concrete RepositoryError produced by storage adapters.
type Error struct {
	Kind ErrorKind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return e.Op
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

func (e *Error) IsNotFound() bool    { return e.Kind == KindNotFound }
func (e *Error) IsConflict() bool    { return e.Kind == KindConflict }
func (e *Error) IsUnavailable() bool { return e.Kind == KindUnavailable }

// NewNotFound builds a not-found repository error.
func NewNotFound(op string, err error) error {
	return &Error{Kind: KindNotFound, Op: op, Err: err}
}

// NewConflict builds a conflict repository error.
func NewConflict(op string, err error) error {
	return &Error{Kind: KindConflict, Op: op, Err: err}
}

// NewUnavailable builds an unavailable repository error.
func NewUnavailable(op string, err error) error {
	return &Error{Kind: KindUnavailable, Op: op, Err: err}
}

// IsNotFound reports whether err carries a not-found repository error.
func IsNotFound(err error) bool {
	var repoErr RepositoryError
	return errors.As(err, &repoErr) && repoErr.IsNotFound()
}
