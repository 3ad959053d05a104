package chat

import (
	"context"

	"github.com/google/uuid"
)

// Scope carries the request identity tool handlers need: which conversation
// the model is working in and who asked.
type Scope struct {
	ConversationID uuid.UUID
	UserID         string
}

type scopeKey struct{}

// WithScope attaches the request scope to ctx. The agent sets this before
// generation so tool handlers can read it back from the tool context.
func WithScope(ctx context.Context, s Scope) context.Context {
	return context.WithValue(ctx, scopeKey{}, s)
}

// ScopeFrom retrieves the request scope from ctx.
func ScopeFrom(ctx context.Context) (Scope, bool) {
	s, ok := ctx.Value(scopeKey{}).(Scope)
	return s, ok
}
