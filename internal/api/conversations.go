package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/firebase/genkit/go/ai"
	"github.com/google/uuid"

	"github.com/quillworks/quill/internal/conversation"
)

const messagesDefaultLimit = 100

// ConversationStore is the slice of the conversation store the handlers
// need.
type ConversationStore interface {
	Create(ctx context.Context, ownerID, title string) (*conversation.Conversation, error)
	Get(ctx context.Context, id uuid.UUID) (*conversation.Conversation, error)
	GetMessages(ctx context.Context, conversationID uuid.UUID, limit, offset int32) ([]*conversation.Message, error)
}

type conversationHandler struct {
	store  ConversationStore
	logger *slog.Logger
}

type conversationJSON struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	MessageCount int       `json:"messageCount"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

func toConversationJSON(c *conversation.Conversation) conversationJSON {
	return conversationJSON{
		ID:           c.ID.String(),
		Title:        c.Title,
		MessageCount: c.MessageCount,
		CreatedAt:    c.CreatedAt,
		UpdatedAt:    c.UpdatedAt,
	}
}

type messageJSON struct {
	ID             string     `json:"id"`
	Role           string     `json:"role"`
	Content        []*ai.Part `json:"content"`
	SequenceNumber int32      `json:"sequenceNumber"`
	CreatedAt      time.Time  `json:"createdAt"`
}

type createConversationRequest struct {
	Title string `json:"title"`
}

// createConversation handles POST /api/v1/conversations.
func (h *conversationHandler) createConversation(w http.ResponseWriter, r *http.Request) {
	var req createConversationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "request body must be JSON")
		return
	}

	callerID, _ := userIDFromContext(r.Context())
	c, err := h.store.Create(r.Context(), callerID, req.Title)
	if err != nil {
		h.logger.Error("creating conversation", "error", err)
		writeError(w, http.StatusInternalServerError, "internal_error", "internal server error")
		return
	}
	writeJSON(w, http.StatusCreated, toConversationJSON(c))
}

// getConversation handles GET /api/v1/conversations/{id}.
func (h *conversationHandler) getConversation(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}

	c, err := h.store.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, conversation.ErrNotFound) {
			writeError(w, http.StatusNotFound, "not_found", "conversation not found")
			return
		}
		h.logger.Error("getting conversation", "id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "internal_error", "internal server error")
		return
	}
	writeJSON(w, http.StatusOK, toConversationJSON(c))
}

// getMessages handles GET /api/v1/conversations/{id}/messages.
// Supports ?limit= and ?offset= query parameters.
func (h *conversationHandler) getMessages(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}

	limit := queryInt32(r, "limit", messagesDefaultLimit)
	offset := queryInt32(r, "offset", 0)

	msgs, err := h.store.GetMessages(r.Context(), id, limit, offset)
	if err != nil {
		h.logger.Error("getting messages", "conversation_id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "internal_error", "internal server error")
		return
	}

	out := make([]messageJSON, len(msgs))
	for i, m := range msgs {
		out[i] = messageJSON{
			ID:             m.ID.String(),
			Role:           m.Role,
			Content:        m.Content,
			SequenceNumber: m.SequenceNumber,
			CreatedAt:      m.CreatedAt,
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{"messages": out})
}

// queryInt32 parses a query parameter as int32, falling back to def for
// missing or invalid values.
func queryInt32(r *http.Request, name string, def int32) int32 {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def
	}
	n, err := strconv.ParseInt(raw, 10, 32)
	if err != nil || n < 0 {
		return def
	}
	return int32(n)
}
