// Package conversation persists chat history and rehydrates it.
//
// A conversation is an ordered sequence of messages; each message is an
// ordered sequence of genkit ai.Part values stored as JSONB. Tool-response
// parts may embed an artifact Snapshot — the (id, type, version, content)
// captured when the tool ran. Snapshots are transient cache, not truth: the
// Hydrator rewrites them to the artifact's current state before history is
// replayed into a model context window, so the model never reasons over
// stale content after an out-of-band edit.
//
// Thread safety: Store and Hydrator are safe for concurrent use.
package conversation
