//go:build integration

package conversation

import (
	"context"
	"sync"
	"testing"

	"github.com/firebase/genkit/go/ai"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quillworks/quill/internal/log"
	"github.com/quillworks/quill/internal/testutil"
)

func newIntegrationStore(t *testing.T) *Store {
	t.Helper()

	pool := testutil.SetupPostgres(t)
	store, err := NewStore(pool, log.NewNop())
	require.NoError(t, err)
	return store
}

func TestStore_ConversationLifecycle(t *testing.T) {
	store := newIntegrationStore(t)
	ctx := context.Background()

	c, err := store.Create(ctx, "alice", "trip planning")
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, c.ID)
	assert.Equal(t, "trip planning", c.Title)

	got, err := store.Get(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, c.ID, got.ID)
	assert.Equal(t, 0, got.MessageCount)

	_, err = store.Get(ctx, uuid.New())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStore_AddMessages_Sequencing(t *testing.T) {
	store := newIntegrationStore(t)
	ctx := context.Background()

	c, err := store.Create(ctx, "", "")
	require.NoError(t, err)

	err = store.AddMessages(ctx, c.ID, []*Message{
		{Role: string(ai.RoleUser), Content: []*ai.Part{ai.NewTextPart("hi")}},
		{Role: string(ai.RoleModel), Content: []*ai.Part{ai.NewTextPart("hello")}},
	})
	require.NoError(t, err)

	err = store.AddMessages(ctx, c.ID, []*Message{
		{Role: string(ai.RoleUser), Content: []*ai.Part{ai.NewTextPart("again")}},
	})
	require.NoError(t, err)

	msgs, err := store.GetMessages(ctx, c.ID, 100, 0)
	require.NoError(t, err)
	require.Len(t, msgs, 3)
	for i, m := range msgs {
		assert.Equal(t, int32(i+1), m.SequenceNumber)
	}

	err = store.AddMessages(ctx, uuid.New(), []*Message{
		{Role: string(ai.RoleUser), Content: []*ai.Part{ai.NewTextPart("nowhere")}},
	})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStore_AddMessages_ConcurrentAppends(t *testing.T) {
	store := newIntegrationStore(t)
	ctx := context.Background()

	c, err := store.Create(ctx, "", "")
	require.NoError(t, err)

	const writers = 5
	var wg sync.WaitGroup
	errs := make([]error, writers)
	for i := range writers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs[i] = store.AddMessages(ctx, c.ID, []*Message{
				{Role: string(ai.RoleUser), Content: []*ai.Part{ai.NewTextPart("q")}},
				{Role: string(ai.RoleModel), Content: []*ai.Part{ai.NewTextPart("a")}},
			})
		}()
	}
	wg.Wait()
	for _, err := range errs {
		require.NoError(t, err)
	}

	// The row lock serializes appends: numbering stays contiguous.
	msgs, err := store.GetMessages(ctx, c.ID, 100, 0)
	require.NoError(t, err)
	require.Len(t, msgs, writers*2)
	for i, m := range msgs {
		assert.Equal(t, int32(i+1), m.SequenceNumber)
	}
}

func TestStore_MessagesRoundTrip(t *testing.T) {
	store := newIntegrationStore(t)
	ctx := context.Background()

	c, err := store.Create(ctx, "alice", "artifacts")
	require.NoError(t, err)

	artifactID := uuid.NewString()
	toolMsg := &Message{
		Role: string(ai.RoleTool),
		Content: []*ai.Part{
			ai.NewToolResponsePart(&ai.ToolResponse{
				Name: "createArtifact",
				Output: map[string]any{
					"artifactId": artifactID,
					"type":       "document",
					"version":    "1",
					"content":    map[string]any{"title": "notes"},
				},
			}),
		},
	}

	err = store.AddMessages(ctx, c.ID, []*Message{
		{Role: string(ai.RoleUser), Content: []*ai.Part{ai.NewTextPart("make a doc")}},
		toolMsg,
	})
	require.NoError(t, err)

	msgs, err := store.GetMessages(ctx, c.ID, 100, 0)
	require.NoError(t, err)
	require.Len(t, msgs, 2)

	// The snapshot inside the tool response survives JSONB storage intact.
	snaps := Snapshots(History(msgs))
	require.Len(t, snaps, 1)
	assert.Equal(t, artifactID, snaps[0].ArtifactID)
	assert.Equal(t, "document", snaps[0].Type)
	assert.Equal(t, "1", snaps[0].Version)

	got, err := store.Get(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, got.MessageCount)
}

func TestStore_GetMessages_Paging(t *testing.T) {
	store := newIntegrationStore(t)
	ctx := context.Background()

	c, err := store.Create(ctx, "", "")
	require.NoError(t, err)

	batch := make([]*Message, 5)
	for i := range batch {
		batch[i] = &Message{Role: string(ai.RoleUser), Content: []*ai.Part{ai.NewTextPart("m")}}
	}
	require.NoError(t, store.AddMessages(ctx, c.ID, batch))

	page, err := store.GetMessages(ctx, c.ID, 2, 2)
	require.NoError(t, err)
	require.Len(t, page, 2)
	assert.Equal(t, int32(3), page[0].SequenceNumber)
	assert.Equal(t, int32(4), page[1].SequenceNumber)
}
