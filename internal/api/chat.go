package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/quillworks/quill/internal/chat"
	"github.com/quillworks/quill/internal/conversation"
)

// ChatAgent runs one chat turn. Implemented by *chat.Agent.
type ChatAgent interface {
	Send(ctx context.Context, conversationID uuid.UUID, userID, input string) (*chat.Response, error)
}

type chatHandler struct {
	agent  ChatAgent
	logger *slog.Logger
}

type chatRequest struct {
	ConversationID string `json:"conversationId"`
	Message        string `json:"message"`
}

type chatResponse struct {
	Reply     string                  `json:"reply"`
	Artifacts []conversation.Snapshot `json:"artifacts,omitempty"`
}

// send handles POST /api/v1/chat.
func (h *chatHandler) send(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "request body must be JSON")
		return
	}

	conversationID, err := uuid.Parse(req.ConversationID)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "invalid conversationId")
		return
	}

	callerID, _ := userIDFromContext(r.Context())
	resp, err := h.agent.Send(r.Context(), conversationID, callerID, req.Message)
	if err != nil {
		switch {
		case errors.Is(err, chat.ErrEmptyInput):
			writeError(w, http.StatusBadRequest, "invalid_request", "message is required")
		case errors.Is(err, conversation.ErrNotFound):
			writeError(w, http.StatusNotFound, "not_found", "conversation not found")
		default:
			h.logger.Error("chat turn failed", "conversation_id", conversationID, "error", err)
			writeError(w, http.StatusInternalServerError, "internal_error", "internal server error")
		}
		return
	}

	writeJSON(w, http.StatusOK, chatResponse{
		Reply:     resp.Text,
		Artifacts: resp.Artifacts,
	})
}
