package chat

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/firebase/genkit/go/ai"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quillworks/quill/internal/artifact"
	"github.com/quillworks/quill/internal/log"
)

// fakeWriter records the arguments of the last call.
type fakeWriter struct {
	created *artifact.Artifact
	updated *artifact.Artifact
	err     error

	gotOwner        string
	gotConversation uuid.UUID
	gotType         artifact.Type
	gotID           uuid.UUID
	gotContent      []byte
}

func (f *fakeWriter) Create(_ context.Context, ownerID string, conversationID uuid.UUID, t artifact.Type, content []byte) (*artifact.Artifact, error) {
	f.gotOwner, f.gotConversation, f.gotType, f.gotContent = ownerID, conversationID, t, content
	return f.created, f.err
}

func (f *fakeWriter) Update(_ context.Context, id uuid.UUID, callerID string, newContent []byte) (*artifact.Artifact, error) {
	f.gotID, f.gotOwner, f.gotContent = id, callerID, newContent
	return f.updated, f.err
}

func scopedToolContext(conversationID uuid.UUID, userID string) *ai.ToolContext {
	ctx := WithScope(context.Background(), Scope{ConversationID: conversationID, UserID: userID})
	return &ai.ToolContext{Context: ctx}
}

func TestCreateArtifact(t *testing.T) {
	convID := uuid.New()
	owner := "alice"
	created := &artifact.Artifact{
		ID:      uuid.New(),
		Type:    artifact.TypeDocument,
		Version: "1",
		OwnerID: &owner,
		Content: json.RawMessage(`{"title":"Draft"}`),
	}
	w := &fakeWriter{created: created}
	ts, err := NewToolset(w, log.NewNop())
	require.NoError(t, err)

	snap, err := ts.CreateArtifact(scopedToolContext(convID, "alice"), CreateArtifactInput{
		Type:    "document",
		Content: json.RawMessage(`{"title":"Draft"}`),
	})
	require.NoError(t, err)

	assert.Equal(t, created.ID.String(), snap.ArtifactID)
	assert.Equal(t, "document", snap.Type)
	assert.Equal(t, "1", snap.Version)
	assert.JSONEq(t, `{"title":"Draft"}`, string(snap.Content))

	assert.Equal(t, "alice", w.gotOwner)
	assert.Equal(t, convID, w.gotConversation)
	assert.Equal(t, artifact.TypeDocument, w.gotType)
}

func TestCreateArtifact_MissingScope(t *testing.T) {
	ts, err := NewToolset(&fakeWriter{}, log.NewNop())
	require.NoError(t, err)

	_, err = ts.CreateArtifact(&ai.ToolContext{Context: context.Background()}, CreateArtifactInput{Type: "document"})
	assert.ErrorIs(t, err, ErrNoScope)
}

func TestCreateArtifact_StoreError(t *testing.T) {
	ts, err := NewToolset(&fakeWriter{err: artifact.ErrValidation}, log.NewNop())
	require.NoError(t, err)

	_, err = ts.CreateArtifact(scopedToolContext(uuid.New(), "alice"), CreateArtifactInput{
		Type:    "document",
		Content: json.RawMessage(`{}`),
	})
	assert.ErrorIs(t, err, artifact.ErrValidation)
}

func TestUpdateArtifact(t *testing.T) {
	id := uuid.New()
	updated := &artifact.Artifact{
		ID:      id,
		Type:    artifact.TypeDocument,
		Version: "2",
		Content: json.RawMessage(`{"title":"Final"}`),
	}
	w := &fakeWriter{updated: updated}
	ts, err := NewToolset(w, log.NewNop())
	require.NoError(t, err)

	snap, err := ts.UpdateArtifact(scopedToolContext(uuid.New(), "alice"), UpdateArtifactInput{
		ArtifactID: id.String(),
		Content:    json.RawMessage(`{"title":"Final"}`),
	})
	require.NoError(t, err)

	assert.Equal(t, "2", snap.Version)
	assert.Equal(t, id, w.gotID)
	assert.Equal(t, "alice", w.gotOwner)
}

func TestUpdateArtifact_InvalidID(t *testing.T) {
	ts, err := NewToolset(&fakeWriter{}, log.NewNop())
	require.NoError(t, err)

	_, err = ts.UpdateArtifact(scopedToolContext(uuid.New(), "alice"), UpdateArtifactInput{
		ArtifactID: "not-a-uuid",
	})
	assert.Error(t, err)
}

func TestUpdateArtifact_AccessDenied(t *testing.T) {
	ts, err := NewToolset(&fakeWriter{err: artifact.ErrAccessDenied}, log.NewNop())
	require.NoError(t, err)

	_, err = ts.UpdateArtifact(scopedToolContext(uuid.New(), "mallory"), UpdateArtifactInput{
		ArtifactID: uuid.New().String(),
		Content:    json.RawMessage(`{}`),
	})
	assert.ErrorIs(t, err, artifact.ErrAccessDenied)
}

func TestNewToolset_RequiresStore(t *testing.T) {
	_, err := NewToolset(nil, log.NewNop())
	assert.Error(t, err)
}
