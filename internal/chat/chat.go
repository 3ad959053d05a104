package chat

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/firebase/genkit/go/ai"
	"github.com/google/uuid"

	"github.com/quillworks/quill/internal/conversation"
)

const (
	// defaultHistoryLimit caps how many stored messages are replayed per turn.
	defaultHistoryLimit = 500

	// fallbackResponseMessage is returned when the model produces an empty
	// response with no tool activity.
	fallbackResponseMessage = "I apologize, but I couldn't generate a response. Please try rephrasing your question."
)

// ErrEmptyInput indicates the user message was blank.
var ErrEmptyInput = errors.New("empty input")

// ConversationStore is the slice of the conversation store the agent needs.
type ConversationStore interface {
	Get(ctx context.Context, id uuid.UUID) (*conversation.Conversation, error)
	GetMessages(ctx context.Context, conversationID uuid.UUID, limit, offset int32) ([]*conversation.Message, error)
	AddMessages(ctx context.Context, conversationID uuid.UUID, messages []*conversation.Message) error
}

// HistoryHydrator refreshes artifact snapshots in replayed history.
type HistoryHydrator interface {
	Hydrate(ctx context.Context, msgs []*ai.Message) []*ai.Message
}

// Config contains all required parameters for the chat Agent.
type Config struct {
	Generator     Generator
	Conversations ConversationStore
	Hydrator      HistoryHydrator
	Logger        *slog.Logger

	// HistoryLimit overrides how many stored messages are replayed
	// (0 = default).
	HistoryLimit int32
}

func (cfg Config) validate() error {
	if cfg.Generator == nil {
		return errors.New("generator is required")
	}
	if cfg.Conversations == nil {
		return errors.New("conversation store is required")
	}
	if cfg.Hydrator == nil {
		return errors.New("hydrator is required")
	}
	return nil
}

// Response is the complete result of one chat turn.
type Response struct {
	// Text is the model's final reply.
	Text string
	// Artifacts are the snapshots produced by tool calls during this turn,
	// in execution order.
	Artifacts []conversation.Snapshot
}

// Agent runs chat turns: hydrate history, generate with tools, persist the
// new messages. Stateless; safe for concurrent use.
type Agent struct {
	generator     Generator
	conversations ConversationStore
	hydrator      HistoryHydrator
	logger        *slog.Logger
	historyLimit  int32
}

// New creates a chat Agent.
func New(cfg Config) (*Agent, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	limit := cfg.HistoryLimit
	if limit <= 0 {
		limit = defaultHistoryLimit
	}

	return &Agent{
		generator:     cfg.Generator,
		conversations: cfg.Conversations,
		hydrator:      cfg.Hydrator,
		logger:        logger,
		historyLimit:  limit,
	}, nil
}

// Send runs one chat turn on behalf of userID.
//
// Stored history is hydrated before replay, so the model always sees every
// referenced artifact at its current version regardless of when the snapshot
// was written. The turn's new messages — the user input, any tool activity,
// and the final model reply — are appended to the conversation afterwards.
//
// Returns conversation.ErrNotFound when the conversation does not exist.
func (a *Agent) Send(ctx context.Context, conversationID uuid.UUID, userID, input string) (*Response, error) {
	if strings.TrimSpace(input) == "" {
		return nil, ErrEmptyInput
	}

	if _, err := a.conversations.Get(ctx, conversationID); err != nil {
		return nil, fmt.Errorf("loading conversation: %w", err)
	}

	stored, err := a.conversations.GetMessages(ctx, conversationID, a.historyLimit, 0)
	if err != nil {
		return nil, fmt.Errorf("loading history: %w", err)
	}

	history := a.hydrator.Hydrate(ctx, conversation.History(stored))

	userMsg := ai.NewUserMessage(ai.NewTextPart(input))
	messages := make([]*ai.Message, 0, len(history)+1)
	messages = append(messages, history...)
	messages = append(messages, userMsg)

	genCtx := WithScope(ctx, Scope{ConversationID: conversationID, UserID: userID})
	resp, err := a.generator.Generate(genCtx, messages)
	if err != nil {
		return nil, fmt.Errorf("generating response: %w", err)
	}

	responseText := resp.Text()
	if strings.TrimSpace(responseText) == "" && len(resp.ToolRequests()) == 0 {
		a.logger.Warn("model returned empty response with no tool requests",
			"conversation_id", conversationID)
		responseText = fallbackResponseMessage
	}

	newMessages := turnMessages(userMsg, messages, resp, responseText)
	if err := a.conversations.AddMessages(ctx, conversationID, toStored(newMessages)); err != nil {
		// A lost turn would replay without this exchange's snapshots, so the
		// failure surfaces instead of degrading silently.
		a.logger.Error("appending messages to history",
			"conversation_id", conversationID, "error", err)
		return nil, fmt.Errorf("appending messages to history: %w", err)
	}

	return &Response{
		Text:      responseText,
		Artifacts: conversation.Snapshots(newMessages[1:]),
	}, nil
}

// turnMessages assembles the messages produced by this turn: the user input,
// the intermediate tool request/response messages the runtime appended during
// the agentic loop, and the final model reply. The tool messages carry the
// artifact snapshots that later hydration passes refresh.
func turnMessages(userMsg *ai.Message, sent []*ai.Message, resp *ai.ModelResponse, finalText string) []*ai.Message {
	out := []*ai.Message{userMsg}

	if resp.Request != nil && len(resp.Request.Messages) > len(sent) {
		out = append(out, resp.Request.Messages[len(sent):]...)
	}

	final := resp.Message
	if final == nil || strings.TrimSpace(resp.Text()) == "" {
		final = ai.NewModelMessage(ai.NewTextPart(finalText))
	}
	return append(out, final)
}

// toStored converts model messages to their persistence form.
func toStored(msgs []*ai.Message) []*conversation.Message {
	out := make([]*conversation.Message, len(msgs))
	for i, m := range msgs {
		out[i] = &conversation.Message{
			Role:    string(m.Role),
			Content: m.Content,
		}
	}
	return out
}
