package conversation

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/firebase/genkit/go/ai"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quillworks/quill/internal/artifact"
	"github.com/quillworks/quill/internal/log"
)

// fakeFetcher serves canned latest states and records calls.
type fakeFetcher struct {
	latest map[uuid.UUID]artifact.Latest
	err    error
	calls  int
	gotIDs [][]uuid.UUID
}

func (f *fakeFetcher) GetLatestBatch(_ context.Context, ids []uuid.UUID) (map[uuid.UUID]artifact.Latest, error) {
	f.calls++
	f.gotIDs = append(f.gotIDs, ids)
	if f.err != nil {
		return nil, f.err
	}
	out := make(map[uuid.UUID]artifact.Latest)
	for _, id := range ids {
		if l, ok := f.latest[id]; ok {
			out[id] = l
		}
	}
	return out, nil
}

func snapshotPart(id uuid.UUID, typ, version, content string) *ai.Part {
	return ai.NewToolResponsePart(&ai.ToolResponse{
		Name: "createArtifact",
		Output: Snapshot{
			ArtifactID: id.String(),
			Type:       typ,
			Version:    version,
			Content:    json.RawMessage(content),
		},
	})
}

func TestHydrate_NoSnapshots_NoStoreRoundTrip(t *testing.T) {
	f := &fakeFetcher{}
	h := NewHydrator(f, log.NewNop())

	msgs := []*ai.Message{
		ai.NewUserMessage(ai.NewTextPart("hello")),
		ai.NewModelMessage(ai.NewTextPart("hi there")),
	}

	got := h.Hydrate(context.Background(), msgs)

	assert.Equal(t, 0, f.calls, "empty reference set must not hit the store")
	if &got[0] != &msgs[0] {
		// Same backing array: the input slice itself is returned.
		t.Error("expected input slice to be returned unchanged")
	}
}

func TestHydrate_RewritesToLatest(t *testing.T) {
	id := uuid.New()
	f := &fakeFetcher{latest: map[uuid.UUID]artifact.Latest{
		id: {Type: artifact.TypeDocument, Version: "2", Content: json.RawMessage(`{"title":"Final"}`)},
	}}
	h := NewHydrator(f, log.NewNop())

	msgs := []*ai.Message{
		ai.NewUserMessage(ai.NewTextPart("draft something")),
		{
			Role: ai.RoleModel,
			Content: []*ai.Part{
				ai.NewTextPart("I created a document."),
				snapshotPart(id, "document", "1", `{"title":"Draft"}`),
				ai.NewTextPart("Let me know what you think."),
			},
		},
	}

	got := h.Hydrate(context.Background(), msgs)

	require.Len(t, got, 2)
	assert.Equal(t, 1, f.calls)
	assert.Equal(t, []uuid.UUID{id}, f.gotIDs[0])

	// Untouched message passes through by reference.
	assert.Same(t, msgs[0], got[0])

	// Snapshot refreshed to version 2 with latest content.
	parts := got[1].Content
	require.Len(t, parts, 3)
	snap, ok := parts[1].ToolResponse.Output.(Snapshot)
	require.True(t, ok, "rewritten output should be a Snapshot")
	assert.Equal(t, "2", snap.Version)
	assert.JSONEq(t, `{"title":"Final"}`, string(snap.Content))
	assert.Equal(t, id.String(), snap.ArtifactID)
	assert.Equal(t, "createArtifact", parts[1].ToolResponse.Name)

	// Surrounding text parts are the very same pointers.
	assert.Same(t, msgs[1].Content[0], parts[0])
	assert.Same(t, msgs[1].Content[2], parts[2])

	// Original history is never mutated.
	orig, ok := msgs[1].Content[1].ToolResponse.Output.(Snapshot)
	require.True(t, ok)
	assert.Equal(t, "1", orig.Version)
}

func TestHydrate_TypeDriftFollowsStore(t *testing.T) {
	id := uuid.New()
	f := &fakeFetcher{latest: map[uuid.UUID]artifact.Latest{
		id: {Type: artifact.TypeDocument, Version: "3", Content: json.RawMessage(`{"title":"x"}`)},
	}}
	h := NewHydrator(f, log.NewNop())

	// Snapshot claims a different type than the store; the store wins.
	msgs := []*ai.Message{{
		Role:    ai.RoleTool,
		Content: []*ai.Part{snapshotPart(id, "slides-outline", "1", `{}`)},
	}}

	got := h.Hydrate(context.Background(), msgs)
	snap := got[0].Content[0].ToolResponse.Output.(Snapshot)
	assert.Equal(t, "document", snap.Type)
}

func TestHydrate_MissingArtifactKeepsStaleSnapshot(t *testing.T) {
	existing, deleted := uuid.New(), uuid.New()
	f := &fakeFetcher{latest: map[uuid.UUID]artifact.Latest{
		existing: {Type: artifact.TypeDocument, Version: "5", Content: json.RawMessage(`{"title":"v5"}`)},
	}}
	h := NewHydrator(f, log.NewNop())

	msgs := []*ai.Message{{
		Role: ai.RoleModel,
		Content: []*ai.Part{
			snapshotPart(existing, "document", "1", `{"title":"v1"}`),
			snapshotPart(deleted, "document", "2", `{"title":"gone"}`),
		},
	}}

	got := h.Hydrate(context.Background(), msgs)

	refreshed := got[0].Content[0].ToolResponse.Output.(Snapshot)
	assert.Equal(t, "5", refreshed.Version)

	stale := got[0].Content[1].ToolResponse.Output.(Snapshot)
	assert.Equal(t, "2", stale.Version, "deleted artifact keeps last-known-good snapshot")
	assert.JSONEq(t, `{"title":"gone"}`, string(stale.Content))
}

func TestHydrate_FetchFailureReturnsOriginal(t *testing.T) {
	id := uuid.New()
	f := &fakeFetcher{err: errors.New("connection refused")}
	h := NewHydrator(f, log.NewNop())

	msgs := []*ai.Message{{
		Role:    ai.RoleModel,
		Content: []*ai.Part{snapshotPart(id, "document", "1", `{"title":"Draft"}`)},
	}}

	got := h.Hydrate(context.Background(), msgs)
	assert.Same(t, msgs[0], got[0], "store outage must degrade to unhydrated history")
}

func TestHydrate_Idempotent(t *testing.T) {
	id := uuid.New()
	f := &fakeFetcher{latest: map[uuid.UUID]artifact.Latest{
		id: {Type: artifact.TypeDocument, Version: "4", Content: json.RawMessage(`{"title":"latest"}`)},
	}}
	h := NewHydrator(f, log.NewNop())

	msgs := []*ai.Message{
		ai.NewUserMessage(ai.NewTextPart("hi")),
		{
			Role: ai.RoleModel,
			Content: []*ai.Part{
				snapshotPart(id, "document", "1", `{"title":"old"}`),
			},
		},
	}

	once := h.Hydrate(context.Background(), msgs)
	twice := h.Hydrate(context.Background(), once)

	onceJSON, err := json.Marshal(once)
	require.NoError(t, err)
	twiceJSON, err := json.Marshal(twice)
	require.NoError(t, err)
	assert.Equal(t, string(onceJSON), string(twiceJSON),
		"hydrating an already-hydrated sequence must be byte-identical")
}

func TestHydrate_AfterJSONRoundTrip(t *testing.T) {
	// After storage, tool outputs come back as map[string]any. The hydrator
	// must still recognize and refresh them.
	id := uuid.New()
	f := &fakeFetcher{latest: map[uuid.UUID]artifact.Latest{
		id: {Type: artifact.TypeDocument, Version: "2", Content: json.RawMessage(`{"title":"Final"}`)},
	}}
	h := NewHydrator(f, log.NewNop())

	msgs := []*ai.Message{{
		Role: ai.RoleModel,
		Content: []*ai.Part{
			ai.NewToolResponsePart(&ai.ToolResponse{
				Name: "createArtifact",
				Output: map[string]any{
					"artifactId": id.String(),
					"type":       "document",
					"version":    "1",
					"content":    map[string]any{"title": "Draft"},
				},
			}),
		},
	}}

	got := h.Hydrate(context.Background(), msgs)
	snap, ok := got[0].Content[0].ToolResponse.Output.(Snapshot)
	require.True(t, ok)
	assert.Equal(t, "2", snap.Version)
	assert.JSONEq(t, `{"title":"Final"}`, string(snap.Content))
}

func TestHydrate_IgnoresUnrelatedToolOutputs(t *testing.T) {
	f := &fakeFetcher{}
	h := NewHydrator(f, log.NewNop())

	msgs := []*ai.Message{{
		Role: ai.RoleModel,
		Content: []*ai.Part{
			ai.NewToolResponsePart(&ai.ToolResponse{
				Name:   "currentTime",
				Output: map[string]any{"time": "2026-08-31T12:00:00Z"},
			}),
			ai.NewToolResponsePart(&ai.ToolResponse{
				Name:   "search",
				Output: "plain string output",
			}),
		},
	}}

	got := h.Hydrate(context.Background(), msgs)
	assert.Equal(t, 0, f.calls, "non-snapshot tool outputs are not artifact references")
	assert.Same(t, msgs[0], got[0])
}

func TestCollectArtifactIDs_DistinctFirstSeenOrder(t *testing.T) {
	a, b := uuid.New(), uuid.New()
	msgs := []*ai.Message{
		{Role: ai.RoleModel, Content: []*ai.Part{
			snapshotPart(a, "document", "1", `{}`),
			snapshotPart(b, "code", "1", `{}`),
			snapshotPart(a, "document", "1", `{}`), // duplicate
		}},
	}
	ids := collectArtifactIDs(msgs)
	assert.Equal(t, []uuid.UUID{a, b}, ids)
}
