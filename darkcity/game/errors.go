// Package game holds the failure taxonomy shared by the simulation engines.
package game

import (
	"errors"
	"fmt"
)

type FailureKind int

const (
	KindNotFound FailureKind = iota
	KindPrecondition
	KindForbidden
	KindConflict
)

// Failure is a typed, human-readable rejection raised by an engine before any
// state was mutated. Callers translate it to an external presentation.
type Failure struct {
	Kind   FailureKind
	Reason string
}

func (f *Failure) Error() string { return f.Reason }

func NotFound(format string, args ...any) error {
	return &Failure{Kind: KindNotFound, Reason: fmt.Sprintf(format, args...)}
}

func Precondition(format string, args ...any) error {
	return &Failure{Kind: KindPrecondition, Reason: fmt.Sprintf(format, args...)}
}

func Forbidden(format string, args ...any) error {
	return &Failure{Kind: KindForbidden, Reason: fmt.Sprintf(format, args...)}
}

func Conflict(format string, args ...any) error {
	return &Failure{Kind: KindConflict, Reason: fmt.Sprintf(format, args...)}
}

func kindOf(err error) (FailureKind, bool) {
	var f *Failure
	if errors.As(err, &f) {
		return f.Kind, true
	}
	return 0, false
}

func IsNotFound(err error) bool {
	k, ok := kindOf(err)
	return ok && k == KindNotFound
}

func IsPrecondition(err error) bool {
	k, ok := kindOf(err)
	return ok && k == KindPrecondition
}

func IsForbidden(err error) bool {
	k, ok := kindOf(err)
	return ok && k == KindForbidden
}

func IsConflict(err error) bool {
	k, ok := kindOf(err)
	return ok && k == KindConflict
}
