// Package fault defines the failure taxonomy shared by the core
// operations. Every failure surfaced to the presentation layer is a
// (kind, message) pair; handlers map kinds to HTTP statuses.
package fault

import (
	"errors"
	"fmt"
)

// Kind classifies a failure.
type Kind int

const (
	// Validation is malformed or out-of-range input.
	Validation Kind = iota + 1
	// Authorization is an actor lacking the role or ownership required.
	Authorization
	// NotFound is a referenced entity id that does not exist.
	NotFound
	// Conflict is a uniqueness violation, e.g. a duplicate playlist title.
	Conflict
	// Persistence is an underlying transaction that could not commit.
	Persistence
)

func (k Kind) String() string {
	switch k {
	case Validation:
		return "validation"
	case Authorization:
		return "authorization"
	case NotFound:
		return "not_found"
	case Conflict:
		return "conflict"
	case Persistence:
		return "persistence"
	default:
		return "unknown"
	}
}

// Failure is a kinded error with a human-readable message.
type Failure struct {
	Kind    Kind
	Message string
	Err     error
}

func (f *Failure) Error() string {
	if f.Err != nil {
		return fmt.Sprintf("%s: %s: %v", f.Kind, f.Message, f.Err)
	}
	return fmt.Sprintf("%s: %s", f.Kind, f.Message)
}

func (f *Failure) Unwrap() error { return f.Err }

// New creates a failure of the given kind.
func New(kind Kind, message string) *Failure {
	return &Failure{Kind: kind, Message: message}
}

// Newf creates a failure with a formatted message.
func Newf(kind Kind, format string, args ...interface{}) *Failure {
	return &Failure{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap creates a failure that carries an underlying cause.
func Wrap(kind Kind, message string, err error) *Failure {
	return &Failure{Kind: kind, Message: message, Err: err}
}

// KindOf returns the kind of err, or 0 if err is not a Failure.
func KindOf(err error) Kind {
	var f *Failure
	if errors.As(err, &f) {
		return f.Kind
	}
	return 0
}

// IsKind reports whether err is a Failure of the given kind.
func IsKind(err error, kind Kind) bool {
	return KindOf(err) == kind
}
