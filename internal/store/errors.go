package store

import "errors"

// ErrNotFound is returned when a record does not exist.
var ErrNotFound = errors.New("not found")

// ErrDuplicate is returned when an insert violates the username
// unique constraint.
var ErrDuplicate = errors.New("duplicate record")

// ErrConflict is returned when a conditional update matched the row but not
// its expected current state (concurrent modification).
var ErrConflict = errors.New("conflicting update")
