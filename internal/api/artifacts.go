package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/quillworks/quill/internal/artifact"
)

// maxPatchBodyBytes caps the PATCH request body size.
const maxPatchBodyBytes = 1 << 20 // 1 MiB

// ArtifactStore is the slice of the artifact store the handlers need.
type ArtifactStore interface {
	Get(ctx context.Context, id uuid.UUID, callerID string) (*artifact.Artifact, error)
	ListByConversation(ctx context.Context, conversationID uuid.UUID, callerID string) ([]*artifact.Artifact, error)
	Update(ctx context.Context, id uuid.UUID, callerID string, newContent []byte) (*artifact.Artifact, error)
	Delete(ctx context.Context, id uuid.UUID, callerID string) error
}

type artifactHandler struct {
	store  ArtifactStore
	logger *slog.Logger
}

// artifactJSON is the wire representation of an artifact.
type artifactJSON struct {
	ID             string          `json:"id"`
	ConversationID string          `json:"conversationId"`
	Type           string          `json:"type"`
	Version        string          `json:"version"`
	Title          string          `json:"title"`
	Icon           string          `json:"icon"`
	Content        json.RawMessage `json:"content"`
	CreatedAt      time.Time       `json:"createdAt"`
	UpdatedAt      time.Time       `json:"updatedAt"`
	DisplayTime    string          `json:"displayTime"`
}

func toArtifactJSON(a *artifact.Artifact) artifactJSON {
	return artifactJSON{
		ID:             a.ID.String(),
		ConversationID: a.ConversationID.String(),
		Type:           string(a.Type),
		Version:        a.Version,
		Title:          artifact.Title(a),
		Icon:           artifact.Icon(a.Type),
		Content:        a.Content,
		CreatedAt:      a.CreatedAt,
		UpdatedAt:      a.UpdatedAt,
		DisplayTime:    artifact.DisplayTime(a.UpdatedAt, time.Now()),
	}
}

// getArtifact handles GET /api/v1/artifacts/{id}.
func (h *artifactHandler) getArtifact(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	callerID, _ := userIDFromContext(r.Context())

	a, err := h.store.Get(r.Context(), id, callerID)
	if err != nil {
		h.writeStoreError(w, err, "getting artifact", "id", id)
		return
	}
	writeJSON(w, http.StatusOK, toArtifactJSON(a))
}

// listArtifacts handles GET /api/v1/artifacts/conversation/{id}.
func (h *artifactHandler) listArtifacts(w http.ResponseWriter, r *http.Request) {
	conversationID, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	callerID, _ := userIDFromContext(r.Context())

	artifacts, err := h.store.ListByConversation(r.Context(), conversationID, callerID)
	if err != nil {
		h.writeStoreError(w, err, "listing artifacts", "conversation_id", conversationID)
		return
	}

	out := make([]artifactJSON, len(artifacts))
	for i, a := range artifacts {
		out[i] = toArtifactJSON(a)
	}
	writeJSON(w, http.StatusOK, map[string]any{"artifacts": out})
}

// updateArtifactRequest is the PATCH body: a full replacement content.
type updateArtifactRequest struct {
	Content json.RawMessage `json:"content"`
}

// updateArtifact handles PATCH /api/v1/artifacts/{id}.
func (h *artifactHandler) updateArtifact(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	callerID, _ := userIDFromContext(r.Context())

	body, err := io.ReadAll(io.LimitReader(r.Body, maxPatchBodyBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "reading request body")
		return
	}
	var req updateArtifactRequest
	if err := json.Unmarshal(body, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "request body must be JSON")
		return
	}
	if len(req.Content) == 0 {
		writeError(w, http.StatusBadRequest, "invalid_request", "content is required")
		return
	}

	a, err := h.store.Update(r.Context(), id, callerID, req.Content)
	if err != nil {
		h.writeStoreError(w, err, "updating artifact", "id", id)
		return
	}
	writeJSON(w, http.StatusOK, toArtifactJSON(a))
}

// deleteArtifact handles DELETE /api/v1/artifacts/{id}.
func (h *artifactHandler) deleteArtifact(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	callerID, _ := userIDFromContext(r.Context())

	if err := h.store.Delete(r.Context(), id, callerID); err != nil {
		h.writeStoreError(w, err, "deleting artifact", "id", id)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// writeStoreError maps store errors to HTTP statuses. Existence is checked
// before ownership, so a caller probing someone else's artifact still gets
// 403 only when the record exists. Unexpected errors stay opaque.
func (h *artifactHandler) writeStoreError(w http.ResponseWriter, err error, msg string, args ...any) {
	switch {
	case errors.Is(err, artifact.ErrNotFound):
		writeError(w, http.StatusNotFound, "not_found", "artifact not found")
	case errors.Is(err, artifact.ErrAccessDenied):
		writeError(w, http.StatusForbidden, "access_denied", "access denied")
	case errors.Is(err, artifact.ErrValidation):
		writeError(w, http.StatusBadRequest, "validation_failed", err.Error())
	default:
		h.logger.Error(msg, append(args, "error", err)...)
		writeError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}

// pathUUID parses the named path segment as a UUID, responding 400 on
// failure.
func pathUUID(w http.ResponseWriter, r *http.Request, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(r.PathValue(name))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "invalid "+name)
		return uuid.Nil, false
	}
	return id, true
}
