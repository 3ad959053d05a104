package artifact

import "errors"

// Sentinel errors for artifact operations. They are part of the Store's
// public API and should be checked with errors.Is().
var (
	// ErrNotFound is returned when the requested artifact does not exist.
	ErrNotFound = errors.New("artifact not found")

	// ErrAccessDenied is returned when the artifact exists but the caller
	// does not own it. Existence is checked first, so ErrAccessDenied never
	// leaks for ids that do not resolve.
	ErrAccessDenied = errors.New("artifact access denied")

	// ErrValidation is returned when a content payload fails the schema
	// registered for the artifact's type. The stored record is unchanged.
	ErrValidation = errors.New("artifact content validation failed")
)
