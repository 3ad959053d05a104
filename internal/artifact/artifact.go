package artifact

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Type selects which content schema applies to an artifact.
// The tag is immutable after creation.
type Type string

// Types with registered content schemas. Unregistered tags are accepted and
// treated as opaque payloads (see Registry).
const (
	TypeDocument      Type = "document"
	TypeSlidesOutline Type = "slides-outline"
	TypeCode          Type = "code"
)

// Artifact is a versioned, typed work-product generated or edited during a
// conversation.
//
// Zero values:
//   - ID: uuid.Nil (invalid, assigned on create)
//   - ConversationID: uuid.Nil (invalid, required)
//   - OwnerID: nil (ownerless, public-read)
//   - Version: "" (invalid; starts at "1")
type Artifact struct {
	ID             uuid.UUID
	ConversationID uuid.UUID
	OwnerID        *string
	Type           Type
	Version        string // string-encoded positive integer, "1" at creation
	Content        json.RawMessage
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Latest is the minimal projection of an artifact used by hydration batch
// reads: just enough to refresh an embedded snapshot.
type Latest struct {
	Type    Type
	Version string
	Content json.RawMessage
}

// canAccess reports whether callerID may read or write the artifact.
// An ownerless artifact is accessible to any caller; writes to ownerless
// artifacts are deliberately allowed too, since the guard is a single
// predicate applied uniformly at every boundary. Callers that need write
// protection set an owner at creation.
func canAccess(ownerID *string, callerID string) bool {
	return ownerID == nil || *ownerID == callerID
}
