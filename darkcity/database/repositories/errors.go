package repositories

import "errors"

var (
	// ErrNotFound is returned when the requested row does not exist.
	ErrNotFound = errors.New("record not found")

	// ErrConflict is returned when a guarded update matched zero rows:
	// either a version check lost against a concurrent writer or a state
	// machine guard (status, completed, claimed) no longer holds. Callers
	// retry against fresh state or surface the conflict.
	ErrConflict = errors.New("concurrent update conflict")

	// ErrUnavailable is returned when an inventory withdrawal cannot be
	// satisfied: the slot is missing, equipped or short on quantity.
	// Retrying does not help.
	ErrUnavailable = errors.New("inventory unavailable")
)
