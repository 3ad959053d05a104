package chat

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/genkit"
	"github.com/google/uuid"

	"github.com/quillworks/quill/internal/artifact"
	"github.com/quillworks/quill/internal/conversation"
)

// Tool names registered with the model runtime.
const (
	CreateArtifactName = "createArtifact"
	UpdateArtifactName = "updateArtifact"
)

// ErrNoScope indicates a tool handler ran without request identity in
// context. This is a wiring bug: the agent must call WithScope before
// generation.
var ErrNoScope = errors.New("request scope missing from context")

// ArtifactWriter is the slice of the artifact store the tools need.
type ArtifactWriter interface {
	Create(ctx context.Context, ownerID string, conversationID uuid.UUID, t artifact.Type, content []byte) (*artifact.Artifact, error)
	Update(ctx context.Context, id uuid.UUID, callerID string, newContent []byte) (*artifact.Artifact, error)
}

// Toolset holds the artifact tool handlers. Dependencies are captured at
// construction; per-request identity comes from the tool context.
type Toolset struct {
	artifacts ArtifactWriter
	logger    *slog.Logger
}

// NewToolset creates the artifact toolset.
func NewToolset(artifacts ArtifactWriter, logger *slog.Logger) (*Toolset, error) {
	if artifacts == nil {
		return nil, fmt.Errorf("artifact store is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Toolset{artifacts: artifacts, logger: logger}, nil
}

// CreateArtifactInput is the model-facing input for the createArtifact tool.
type CreateArtifactInput struct {
	// Type is the artifact type, e.g. "document", "slides-outline", "code".
	Type string `json:"type"`
	// Content is the full artifact body as a JSON object.
	Content json.RawMessage `json:"content"`
}

// UpdateArtifactInput is the model-facing input for the updateArtifact tool.
type UpdateArtifactInput struct {
	// ArtifactID identifies the artifact to revise.
	ArtifactID string `json:"artifactId"`
	// Content is the complete replacement body as a JSON object.
	Content json.RawMessage `json:"content"`
}

// Register defines the artifact tools with the model runtime and returns
// their references for ai.WithTools.
func Register(g *genkit.Genkit, ts *Toolset) ([]ai.Tool, error) {
	if g == nil {
		return nil, fmt.Errorf("genkit instance is required")
	}
	if ts == nil {
		return nil, fmt.Errorf("toolset is required")
	}

	return []ai.Tool{
		genkit.DefineTool(g, CreateArtifactName,
			"Create a new versioned artifact (document, slides outline, or code) in the current conversation. "+
				"Input: type and the full content as a JSON object. "+
				"Returns: the artifact's id, type, version, and content. "+
				"Use this when the user asks you to produce a substantial work product they may want to revise later. "+
				"Keep the returned artifactId so follow-up edits can reference it.",
			ts.CreateArtifact),
		genkit.DefineTool(g, UpdateArtifactName,
			"Revise an existing artifact by replacing its content entirely. "+
				"Input: the artifactId from a previous createArtifact or updateArtifact result, and the complete new content. "+
				"Returns: the artifact's id, type, new version, and content. "+
				"The content must be the full replacement body, not a diff.",
			ts.UpdateArtifact),
	}, nil
}

// CreateArtifact handles the createArtifact tool call. The new artifact is
// owned by the requesting user and starts at version "1".
func (ts *Toolset) CreateArtifact(toolCtx *ai.ToolContext, in CreateArtifactInput) (conversation.Snapshot, error) {
	scope, ok := ScopeFrom(toolCtx.Context)
	if !ok {
		return conversation.Snapshot{}, ErrNoScope
	}

	a, err := ts.artifacts.Create(toolCtx.Context, scope.UserID, scope.ConversationID, artifact.Type(in.Type), in.Content)
	if err != nil {
		ts.logger.Warn("createArtifact failed",
			"conversation_id", scope.ConversationID, "type", in.Type, "error", err)
		return conversation.Snapshot{}, fmt.Errorf("creating artifact: %w", err)
	}

	ts.logger.Debug("createArtifact succeeded", "id", a.ID, "type", a.Type)
	return snapshotOf(a), nil
}

// UpdateArtifact handles the updateArtifact tool call.
func (ts *Toolset) UpdateArtifact(toolCtx *ai.ToolContext, in UpdateArtifactInput) (conversation.Snapshot, error) {
	scope, ok := ScopeFrom(toolCtx.Context)
	if !ok {
		return conversation.Snapshot{}, ErrNoScope
	}

	id, err := uuid.Parse(in.ArtifactID)
	if err != nil {
		return conversation.Snapshot{}, fmt.Errorf("invalid artifact id %q: %w", in.ArtifactID, err)
	}

	a, err := ts.artifacts.Update(toolCtx.Context, id, scope.UserID, in.Content)
	if err != nil {
		ts.logger.Warn("updateArtifact failed", "id", id, "error", err)
		return conversation.Snapshot{}, fmt.Errorf("updating artifact: %w", err)
	}

	ts.logger.Debug("updateArtifact succeeded", "id", a.ID, "version", a.Version)
	return snapshotOf(a), nil
}

// snapshotOf captures an artifact's state as the tool-response payload that
// gets embedded in conversation history.
func snapshotOf(a *artifact.Artifact) conversation.Snapshot {
	return conversation.Snapshot{
		ArtifactID: a.ID.String(),
		Type:       string(a.Type),
		Version:    a.Version,
		Content:    a.Content,
	}
}
