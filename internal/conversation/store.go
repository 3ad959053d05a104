package conversation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/firebase/genkit/go/ai"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Store manages conversation and message persistence with PostgreSQL.
//
// Message part content is stored as JSONB and round-trips through
// encoding/json, so ai.Part values survive unchanged.
//
// Store is safe for concurrent use by multiple goroutines.
type Store struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

// NewStore creates a conversation Store.
func NewStore(pool *pgxpool.Pool, logger *slog.Logger) (*Store, error) {
	if pool == nil {
		return nil, fmt.Errorf("pool is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{pool: pool, logger: logger}, nil
}

// Create starts a new conversation. ownerID may be empty.
func (s *Store) Create(ctx context.Context, ownerID, title string) (*Conversation, error) {
	var owner *string
	if ownerID != "" {
		owner = &ownerID
	}

	var c Conversation
	err := s.pool.QueryRow(ctx,
		`INSERT INTO conversations (owner_id, title)
		 VALUES ($1, $2)
		 RETURNING id, owner_id, COALESCE(title, ''), created_at, updated_at`,
		owner, title,
	).Scan(&c.ID, &c.OwnerID, &c.Title, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("creating conversation: %w", err)
	}

	s.logger.Debug("created conversation", "id", c.ID, "title", title)
	return &c, nil
}

// Get retrieves a conversation by id. Returns ErrNotFound if absent.
func (s *Store) Get(ctx context.Context, id uuid.UUID) (*Conversation, error) {
	var c Conversation
	err := s.pool.QueryRow(ctx,
		`SELECT c.id, c.owner_id, COALESCE(c.title, ''), c.created_at, c.updated_at,
		        (SELECT COUNT(*) FROM messages m WHERE m.conversation_id = c.id)
		 FROM conversations c WHERE c.id = $1`,
		id,
	).Scan(&c.ID, &c.OwnerID, &c.Title, &c.CreatedAt, &c.UpdatedAt, &c.MessageCount)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("getting conversation %s: %w", id, err)
	}
	return &c, nil
}

// AddMessages appends messages to a conversation in one transaction.
// Sequence numbers are assigned contiguously after the current maximum; the
// conversation row is locked for the duration so concurrent appends cannot
// interleave numbering.
func (s *Store) AddMessages(ctx context.Context, conversationID uuid.UUID, messages []*Message) error {
	if len(messages) == 0 {
		return nil
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() {
		if rbErr := tx.Rollback(ctx); rbErr != nil && !errors.Is(rbErr, pgx.ErrTxClosed) {
			s.logger.Debug("transaction rollback", "error", rbErr)
		}
	}()

	var locked uuid.UUID
	err = tx.QueryRow(ctx,
		`SELECT id FROM conversations WHERE id = $1 FOR UPDATE`, conversationID,
	).Scan(&locked)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound
		}
		return fmt.Errorf("locking conversation %s: %w", conversationID, err)
	}

	var maxSeq int32
	err = tx.QueryRow(ctx,
		`SELECT COALESCE(MAX(sequence_number), 0) FROM messages WHERE conversation_id = $1`,
		conversationID,
	).Scan(&maxSeq)
	if err != nil {
		return fmt.Errorf("reading max sequence number: %w", err)
	}

	for i, msg := range messages {
		for j, part := range msg.Content {
			if part == nil {
				return fmt.Errorf("message %d has nil content part at index %d", i, j)
			}
		}
		contentJSON, err := json.Marshal(msg.Content)
		if err != nil {
			return fmt.Errorf("marshalling message %d content: %w", i, err)
		}

		seq := maxSeq + int32(i) + 1 // #nosec G115 -- i bounded by slice length
		if _, err := tx.Exec(ctx,
			`INSERT INTO messages (conversation_id, role, content, sequence_number)
			 VALUES ($1, $2, $3, $4)`,
			conversationID, msg.Role, contentJSON, seq,
		); err != nil {
			return fmt.Errorf("inserting message %d: %w", i, err)
		}
	}

	if _, err := tx.Exec(ctx,
		`UPDATE conversations SET updated_at = now() WHERE id = $1`, conversationID,
	); err != nil {
		return fmt.Errorf("touching conversation: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}

	s.logger.Debug("added messages", "conversation_id", conversationID, "count", len(messages))
	return nil
}

// GetMessages retrieves messages ordered by sequence number ascending.
// Malformed rows are skipped with a warning rather than failing the load.
func (s *Store) GetMessages(ctx context.Context, conversationID uuid.UUID, limit, offset int32) ([]*Message, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, conversation_id, role, content, sequence_number, created_at
		 FROM messages
		 WHERE conversation_id = $1
		 ORDER BY sequence_number ASC
		 LIMIT $2 OFFSET $3`,
		conversationID, limit, offset,
	)
	if err != nil {
		return nil, fmt.Errorf("getting messages for conversation %s: %w", conversationID, err)
	}
	defer rows.Close()

	var messages []*Message
	for rows.Next() {
		var (
			m       Message
			content []byte
		)
		if err := rows.Scan(&m.ID, &m.ConversationID, &m.Role, &content, &m.SequenceNumber, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning message row: %w", err)
		}
		var parts []*ai.Part
		if err := json.Unmarshal(content, &parts); err != nil {
			s.logger.Warn("skipping message with malformed content",
				"message_id", m.ID, "error", err)
			continue
		}
		m.Content = parts
		messages = append(messages, &m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("getting messages for conversation %s: %w", conversationID, err)
	}
	return messages, nil
}
