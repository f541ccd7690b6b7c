// Package domain provides shared domain-level sentinel errors.
package domain

import "errors"

// ErrNotFound indicates the requested entity does not exist.
var ErrNotFound = errors.New("not found")

// ErrConflict indicates a write collided with an existing record (e.g. a unique key).
var ErrConflict = errors.New("conflict")

// ErrValidation indicates the caller supplied missing or malformed input.
var ErrValidation = errors.New("validation failed")

// ErrInvalidState indicates the operation is not allowed in the entity's
// current state (already claimed, already seeded, ...).
var ErrInvalidState = errors.New("invalid state")
