// ABOUTME: Typed errors returned by position engine operations
// ABOUTME: Each failure carries its kind, the operation, and the underlying cause

package sortable

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/harper/sortable/internal/storage"
)

var (
	// ErrNotFound is returned when the target row does not exist.
	ErrNotFound = errors.New("row not found")

	// ErrPersistence is returned when the store rejects a read or write.
	// The surrounding transaction has been rolled back.
	ErrPersistence = errors.New("persistence failure")

	// ErrInvalidConfiguration is returned by New for unusable settings.
	ErrInvalidConfiguration = errors.New("invalid configuration")

	// ErrInvalidPosition is returned when a requested position is not
	// of the form start + k*step.
	ErrInvalidPosition = errors.New("invalid position")
)

// Error describes a failed engine operation.
type Error struct {
	Op   string
	ID   uuid.UUID
	Kind error
	Err  error
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(e.Op)
	if e.ID != uuid.Nil {
		b.WriteString(" ")
		b.WriteString(e.ID.String())
	}
	b.WriteString(": ")
	b.WriteString(e.Kind.Error())
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

// Unwrap exposes both the kind and the cause to errors.Is and errors.As.
func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// KindOf returns the error kind of err, or nil if err did not come from the engine.
func KindOf(err error) error {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return nil
}

func wrap(op string, id uuid.UUID, err error) error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return err
	}
	return &Error{Op: op, ID: id, Kind: classify(err), Err: err}
}

func classify(err error) error {
	switch {
	case errors.Is(err, storage.ErrNotFound):
		return ErrNotFound
	case errors.Is(err, ErrInvalidPosition):
		return ErrInvalidPosition
	case errors.Is(err, ErrInvalidConfiguration):
		return ErrInvalidConfiguration
	default:
		return ErrPersistence
	}
}

func invalidConfig(format string, args ...any) error {
	return &Error{Op: "configure", Kind: ErrInvalidConfiguration, Err: fmt.Errorf(format, args...)}
}
