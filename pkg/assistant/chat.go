package assistant

import (
	"context"
	"log/slog"
	"slices"
	"sync"

	"github.com/dukex/flowbuilder/pkg/models"
)

// FallbackReply is appended to the transcript when the suggester fails or answers
// with nothing.
const FallbackReply = "Sorry, I couldn't get a response. Please try again."

// SuggestionsReply stands in for an empty reply that still carries suggestions.
const SuggestionsReply = "Here are some steps you could add."

// Chat keeps the running transcript of one assistant conversation.
type Chat struct {
	mu         sync.Mutex
	suggester  Suggester
	logger     *slog.Logger
	transcript []Message
}

func NewChat(suggester Suggester, logger *slog.Logger) *Chat {
	if logger == nil {
		logger = slog.Default()
	}

	return &Chat{suggester: suggester, logger: logger.With("module", "assistant")}
}

// Send appends the user's message, asks the suggester and appends its reply. A
// failed call appends FallbackReply and returns no suggestions; the conversation
// can continue. An empty reply is never stored.
func (c *Chat) Send(ctx context.Context, text string, catalog []models.CatalogEntry) Suggestion {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.transcript = append(c.transcript, Message{Role: RoleUser, Content: text})

	reply, err := c.suggester.Suggest(ctx, slices.Clone(c.transcript), catalog)
	if err != nil {
		c.logger.WarnContext(ctx, "Suggestion request failed", "error", err)

		reply = Suggestion{Reply: FallbackReply}
	}

	if reply.Reply == "" {
		reply.Reply = FallbackReply
		if len(reply.Suggestions) > 0 {
			reply.Reply = SuggestionsReply
		}
	}

	c.transcript = append(c.transcript, Message{Role: RoleAssistant, Content: reply.Reply})

	return reply
}

// Transcript returns a copy of the conversation so far.
func (c *Chat) Transcript() []Message {
	c.mu.Lock()
	defer c.mu.Unlock()

	return slices.Clone(c.transcript)
}

// Reset clears the conversation.
func (c *Chat) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.transcript = nil
}
