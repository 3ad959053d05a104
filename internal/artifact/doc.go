// Package artifact provides versioned work-product management for Quill.
//
// An artifact is a durable, mutable document produced by an assistant tool
// during a conversation (a drafted document, a slide outline, a code file).
// Artifacts are stored as single records whose version is a string-encoded
// integer bumped by exactly one on every successful update; conversation
// messages embed only snapshots of an artifact, never the record itself.
//
// Access control is owner-scoped: an artifact with no owner is readable (and
// writable) by any caller who knows its id, an owned artifact only by its
// owner. Existence is always checked before ownership, so callers learn
// "not found" only when the record truly does not exist.
//
// Thread safety: Store is safe for concurrent use; the database is the sole
// source of truth and concurrent updates are last-write-wins.
package artifact
