package store

import "errors"

var (
	// ErrNotFound is returned when a machine or part does not exist.
	ErrNotFound = errors.New("not found")
	// ErrInvalidInput is returned for input the store refuses to persist.
	ErrInvalidInput = errors.New("invalid input")
	// ErrConflict is returned when a write would break the tree invariants.
	ErrConflict = errors.New("conflict")
)
