package conversation

import (
	"time"

	"github.com/firebase/genkit/go/ai"
	"github.com/google/uuid"
)

// Conversation is one chat thread.
type Conversation struct {
	ID           uuid.UUID
	OwnerID      *string
	Title        string
	MessageCount int
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Message is one turn entry in a conversation. Content is the full part
// sequence (text, tool requests, tool responses) in original order.
type Message struct {
	ID             uuid.UUID
	ConversationID uuid.UUID
	Role           string // ai.RoleUser, ai.RoleModel, ai.RoleTool
	Content        []*ai.Part
	SequenceNumber int32
	CreatedAt      time.Time
}

// History converts stored messages to the ai.Message sequence handed to the
// model, preserving order.
func History(msgs []*Message) []*ai.Message {
	out := make([]*ai.Message, len(msgs))
	for i, m := range msgs {
		out[i] = &ai.Message{Role: ai.Role(m.Role), Content: m.Content}
	}
	return out
}
