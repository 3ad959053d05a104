// Package chat implements the conversational agent: it replays hydrated
// history to the model, exposes the artifact tools the model calls to create
// and revise work products, and persists the resulting turns.
//
// The agent is stateless and uses dependency injection. Stores and the model
// runtime are provided via Config; per-request identity travels through the
// context so tool handlers registered once at startup can act on behalf of
// the requesting user.
package chat
