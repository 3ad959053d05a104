package conversation

import (
	"context"
	"encoding/json"
	"log/slog"
	"slices"

	"github.com/firebase/genkit/go/ai"
	"github.com/google/uuid"

	"github.com/quillworks/quill/internal/artifact"
)

// Snapshot is the artifact reference embedded in a tool-response part: the
// (id, type, version, content) captured at the moment the tool ran.
type Snapshot struct {
	ArtifactID string          `json:"artifactId"`
	Type       string          `json:"type"`
	Version    string          `json:"version"`
	Content    json.RawMessage `json:"content"`
}

// LatestFetcher is the privileged batch read the Hydrator needs from the
// artifact store. Ids that do not resolve are absent from the map.
type LatestFetcher interface {
	GetLatestBatch(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]artifact.Latest, error)
}

// Hydrator rewrites artifact snapshots embedded in conversation history to
// the artifact's current state.
type Hydrator struct {
	artifacts LatestFetcher
	logger    *slog.Logger
}

// NewHydrator creates a Hydrator backed by the given artifact source.
func NewHydrator(artifacts LatestFetcher, logger *slog.Logger) *Hydrator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Hydrator{artifacts: artifacts, logger: logger}
}

// Hydrate returns msgs with every completed tool-response snapshot replaced
// by the referenced artifact's latest (type, version, content). Everything
// else — non-artifact parts, message order, part order, all other part and
// message fields — passes through unchanged.
//
// Behavior at the edges:
//   - no snapshots anywhere: the input slice is returned as-is, with no
//     store round trip;
//   - a snapshot whose artifact no longer exists keeps its last-known-good
//     content rather than failing the pass;
//   - a failed batch fetch logs and returns the original sequence, so a
//     store outage degrades to stale history instead of a failed request;
//   - hydrating an already-hydrated sequence yields the same sequence.
//
// Parts whose tool call has not completed (tool requests awaiting an output)
// carry no ToolResponse and are never touched.
func (h *Hydrator) Hydrate(ctx context.Context, msgs []*ai.Message) []*ai.Message {
	ids := collectArtifactIDs(msgs)
	if len(ids) == 0 {
		return msgs
	}

	latest, err := h.artifacts.GetLatestBatch(ctx, ids)
	if err != nil {
		h.logger.Warn("artifact batch fetch failed, replaying unhydrated history",
			"artifacts", len(ids), "error", err)
		return msgs
	}

	out := make([]*ai.Message, len(msgs))
	for i, m := range msgs {
		out[i] = hydrateMessage(m, latest)
	}
	return out
}

// collectArtifactIDs gathers the distinct artifact ids referenced by
// completed tool-response parts, in first-seen order.
func collectArtifactIDs(msgs []*ai.Message) []uuid.UUID {
	var ids []uuid.UUID
	seen := make(map[uuid.UUID]struct{})
	for _, m := range msgs {
		for _, p := range m.Content {
			_, id, ok := snapshotFromPart(p)
			if !ok {
				continue
			}
			if _, dup := seen[id]; dup {
				continue
			}
			seen[id] = struct{}{}
			ids = append(ids, id)
		}
	}
	return ids
}

// hydrateMessage returns m with refreshed snapshots, or m itself when no
// part needed rewriting. The message and part structs are copied before
// mutation so callers' history stays untouched.
func hydrateMessage(m *ai.Message, latest map[uuid.UUID]artifact.Latest) *ai.Message {
	var content []*ai.Part
	for i, p := range m.Content {
		snap, id, ok := snapshotFromPart(p)
		if !ok {
			continue
		}
		l, found := latest[id]
		if !found {
			// Deleted artifact: keep the stale snapshot as last-known-good.
			continue
		}

		if content == nil {
			content = slices.Clone(m.Content)
		}
		tr := *p.ToolResponse
		tr.Output = Snapshot{
			ArtifactID: snap.ArtifactID,
			Type:       string(l.Type),
			Version:    l.Version,
			Content:    l.Content,
		}
		part := *p
		part.ToolResponse = &tr
		content[i] = &part
	}

	if content == nil {
		return m
	}
	msg := *m
	msg.Content = content
	return &msg
}

// Snapshots extracts every artifact snapshot carried by the given messages,
// in encounter order. Duplicate references to the same artifact are kept;
// callers see one entry per tool response.
func Snapshots(msgs []*ai.Message) []Snapshot {
	var snaps []Snapshot
	for _, m := range msgs {
		for _, p := range m.Content {
			if snap, _, ok := snapshotFromPart(p); ok {
				snaps = append(snaps, *snap)
			}
		}
	}
	return snaps
}

// snapshotFromPart recognizes a completed artifact-reference part. The
// tool output may be a Snapshot (in-process) or a plain map (after a JSONB
// round trip); anything without a parseable artifact id and a version is
// not a snapshot.
func snapshotFromPart(p *ai.Part) (*Snapshot, uuid.UUID, bool) {
	if p == nil || p.ToolResponse == nil {
		return nil, uuid.Nil, false
	}

	var snap Snapshot
	switch out := p.ToolResponse.Output.(type) {
	case Snapshot:
		snap = out
	case *Snapshot:
		if out == nil {
			return nil, uuid.Nil, false
		}
		snap = *out
	case map[string]any:
		raw, err := json.Marshal(out)
		if err != nil {
			return nil, uuid.Nil, false
		}
		if err := json.Unmarshal(raw, &snap); err != nil {
			return nil, uuid.Nil, false
		}
	default:
		return nil, uuid.Nil, false
	}

	if snap.ArtifactID == "" || snap.Version == "" {
		return nil, uuid.Nil, false
	}
	id, err := uuid.Parse(snap.ArtifactID)
	if err != nil {
		return nil, uuid.Nil, false
	}
	return &snap, id, true
}
