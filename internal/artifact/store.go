package artifact

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// artifactCols is the standard SELECT column list for scanArtifact.
const artifactCols = `id, conversation_id, owner_id, type, version, content, created_at, updated_at`

// Store manages artifact persistence with a PostgreSQL backend.
//
// Every externally reachable operation takes the caller's identity and
// applies the owner-scoped access guard after the existence check. The
// batch read used by hydration (GetLatestBatch) is privileged and skips
// the guard.
//
// Store is safe for concurrent use by multiple goroutines.
type Store struct {
	pool   *pgxpool.Pool
	types  *Registry
	logger *slog.Logger
}

// NewStore creates an artifact Store.
func NewStore(pool *pgxpool.Pool, types *Registry, logger *slog.Logger) (*Store, error) {
	if pool == nil {
		return nil, fmt.Errorf("pool is required")
	}
	if types == nil {
		return nil, fmt.Errorf("type registry is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{pool: pool, types: types, logger: logger}, nil
}

// Create validates content against the type's schema and persists a new
// artifact at version "1". ownerID may be empty, which makes the artifact
// public.
func (s *Store) Create(ctx context.Context, ownerID string, conversationID uuid.UUID, t Type, content []byte) (*Artifact, error) {
	if err := s.types.Validate(t, content); err != nil {
		return nil, err
	}

	var owner *string
	if ownerID != "" {
		owner = &ownerID
	}

	row := s.pool.QueryRow(ctx,
		`INSERT INTO artifacts (conversation_id, owner_id, type, version, content)
		 VALUES ($1, $2, $3, '1', $4)
		 RETURNING `+artifactCols,
		conversationID, owner, string(t), content,
	)
	a, err := scanArtifact(row)
	if err != nil {
		return nil, fmt.Errorf("creating artifact: %w", err)
	}

	s.logger.Debug("created artifact",
		"id", a.ID, "conversation_id", conversationID, "type", t)
	return a, nil
}

// Get retrieves an artifact by id on behalf of callerID.
// Returns ErrNotFound if no record exists and ErrAccessDenied if the record
// exists but is owned by someone else.
func (s *Store) Get(ctx context.Context, id uuid.UUID, callerID string) (*Artifact, error) {
	a, err := s.fetch(ctx, id)
	if err != nil {
		return nil, err
	}
	if !canAccess(a.OwnerID, callerID) {
		return nil, ErrAccessDenied
	}
	return a, nil
}

// ListByConversation returns the artifacts of a conversation visible to
// callerID (owned-or-ownerless), most recently created first.
func (s *Store) ListByConversation(ctx context.Context, conversationID uuid.UUID, callerID string) ([]*Artifact, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+artifactCols+`
		 FROM artifacts
		 WHERE conversation_id = $1 AND (owner_id IS NULL OR owner_id = $2)
		 ORDER BY created_at DESC`,
		conversationID, callerID,
	)
	if err != nil {
		return nil, fmt.Errorf("listing artifacts for conversation %s: %w", conversationID, err)
	}
	defer rows.Close()

	var artifacts []*Artifact
	for rows.Next() {
		a, err := scanArtifact(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning artifact row: %w", err)
		}
		artifacts = append(artifacts, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("listing artifacts for conversation %s: %w", conversationID, err)
	}
	return artifacts, nil
}

// Update re-validates newContent against the stored type's schema and
// persists it with the next version. The whole update is rejected on
// validation failure: no partial write, no version bump.
//
// The bump happens inside the UPDATE statement itself, reading the row value
// under its row lock: concurrent updates race on content (last commit wins)
// but each committed write takes a distinct version number. An unparsable
// stored version is treated as 1, matching NextVersion.
func (s *Store) Update(ctx context.Context, id uuid.UUID, callerID string, newContent []byte) (*Artifact, error) {
	current, err := s.fetch(ctx, id)
	if err != nil {
		return nil, err
	}
	if !canAccess(current.OwnerID, callerID) {
		return nil, ErrAccessDenied
	}
	if err := s.types.Validate(current.Type, newContent); err != nil {
		return nil, err
	}

	row := s.pool.QueryRow(ctx,
		`UPDATE artifacts
		 SET content = $2,
		     version = ((CASE WHEN version ~ '^[0-9]+$' THEN version::bigint ELSE 1 END) + 1)::text,
		     updated_at = now()
		 WHERE id = $1
		 RETURNING `+artifactCols,
		id, newContent,
	)
	a, err := scanArtifact(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// Deleted between fetch and update.
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("updating artifact %s: %w", id, err)
	}

	s.logger.Debug("updated artifact", "id", id, "version", a.Version)
	return a, nil
}

// Delete removes an artifact. Returns ErrNotFound if it does not exist and
// ErrAccessDenied if callerID does not own it. Message snapshots referencing
// a deleted artifact are left as-is; hydration keeps their last-known-good
// content.
func (s *Store) Delete(ctx context.Context, id uuid.UUID, callerID string) error {
	current, err := s.fetch(ctx, id)
	if err != nil {
		return err
	}
	if !canAccess(current.OwnerID, callerID) {
		return ErrAccessDenied
	}

	tag, err := s.pool.Exec(ctx, `DELETE FROM artifacts WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("deleting artifact %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}

	s.logger.Debug("deleted artifact", "id", id)
	return nil
}

// GetLatestBatch fetches the latest (type, version, content) for each id in
// one query. Ids that do not resolve are simply absent from the result —
// callers decide how to handle misses.
//
// This is a privileged internal read used by the hydration engine; it does
// not apply the access guard.
func (s *Store) GetLatestBatch(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]Latest, error) {
	if len(ids) == 0 {
		return map[uuid.UUID]Latest{}, nil
	}

	idStrs := make([]string, len(ids))
	for i, id := range ids {
		idStrs[i] = id.String()
	}

	rows, err := s.pool.Query(ctx,
		`SELECT id, type, version, content FROM artifacts WHERE id = ANY($1::uuid[])`,
		idStrs,
	)
	if err != nil {
		return nil, fmt.Errorf("batch fetching %d artifacts: %w", len(ids), err)
	}
	defer rows.Close()

	latest := make(map[uuid.UUID]Latest, len(ids))
	for rows.Next() {
		var (
			id uuid.UUID
			l  Latest
		)
		if err := rows.Scan(&id, &l.Type, &l.Version, &l.Content); err != nil {
			return nil, fmt.Errorf("scanning artifact batch row: %w", err)
		}
		latest[id] = l
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("batch fetching %d artifacts: %w", len(ids), err)
	}
	return latest, nil
}

// fetch loads a record by primary key without applying the access guard.
func (s *Store) fetch(ctx context.Context, id uuid.UUID) (*Artifact, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+artifactCols+` FROM artifacts WHERE id = $1`, id)
	a, err := scanArtifact(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("fetching artifact %s: %w", id, err)
	}
	return a, nil
}

// scanArtifact scans one artifact row from either pgx.Row or pgx.Rows.
func scanArtifact(row pgx.Row) (*Artifact, error) {
	var (
		a   Artifact
		typ string
	)
	err := row.Scan(&a.ID, &a.ConversationID, &a.OwnerID, &typ,
		&a.Version, &a.Content, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return nil, err
	}
	a.Type = Type(typ)
	return &a, nil
}
