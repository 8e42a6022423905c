package shared

import "errors"

// Domain-wide error classes. Packages wrap these with their own sentinels so
// transport layers can classify failures with errors.Is.
var (
	// ErrNotFound indicates resource not found.
	ErrNotFound = errors.New("not found")
	// ErrDuplicate indicates an entity with the same identity already exists.
	ErrDuplicate = errors.New("duplicate entry")
	// ErrValidation indicates malformed or out of range input.
	ErrValidation = errors.New("validation failed")
	// ErrConflict indicates the request conflicts with current state.
	ErrConflict = errors.New("conflict")
	// ErrStorage indicates a persistence failure after the change was applied in memory.
	ErrStorage = errors.New("storage failure")
)
