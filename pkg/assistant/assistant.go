// Package assistant asks a language model which activities fit the user's request.
package assistant

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/tmc/langchaingo/llms"

	"github.com/dukex/flowbuilder/pkg/models"
)

// ErrEmptyResponse is returned when the model produced no choices.
var ErrEmptyResponse = errors.New("language model returned an empty response")

// Role of a transcript message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one entry of the chat transcript.
type Message struct {
	Role    Role   `json:"role"    validate:"required,oneof=user assistant"`
	Content string `json:"content" validate:"required"`
}

// Suggestion is the assistant's answer: a reply to show and the ids of the
// templates to add, in order.
type Suggestion struct {
	Reply       string   `json:"reply"`
	Suggestions []string `json:"suggestions"`
}

// Suggester proposes activity templates for a conversation.
type Suggester interface {
	Suggest(ctx context.Context, transcript []Message, catalog []models.CatalogEntry) (Suggestion, error)
}

const systemPrompt = `You help build automation workflows from a catalog of activities.
Answer with a JSON object {"reply": string, "suggestions": string[]}.
"suggestions" holds activity ids from the catalog only. When the user asks for a
sequence, list the ids in that order.

Catalog:
%s`

// LLMSuggester implements Suggester over any langchaingo model.
type LLMSuggester struct {
	model   llms.Model
	options []llms.CallOption
}

// NewLLMSuggester creates a suggester. Options are passed to every call.
func NewLLMSuggester(model llms.Model, options ...llms.CallOption) *LLMSuggester {
	return &LLMSuggester{model: model, options: options}
}

// Suggest sends the catalog and the transcript to the model and parses its answer.
// Only transport failures are errors; a malformed answer becomes a reply without
// suggestions.
func (s *LLMSuggester) Suggest(ctx context.Context, transcript []Message, catalog []models.CatalogEntry) (Suggestion, error) {
	catalogJSON, err := json.Marshal(catalog)
	if err != nil {
		return Suggestion{}, fmt.Errorf("failed to encode catalog: %w", err)
	}

	messages := make([]llms.MessageContent, 0, len(transcript)+1)
	messages = append(messages, llms.TextParts(llms.ChatMessageTypeSystem, fmt.Sprintf(systemPrompt, catalogJSON)))

	for _, m := range transcript {
		role := llms.ChatMessageTypeHuman
		if m.Role == RoleAssistant {
			role = llms.ChatMessageTypeAI
		}

		messages = append(messages, llms.TextParts(role, m.Content))
	}

	options := append(slices.Clone(s.options), llms.WithJSONMode())

	resp, err := s.model.GenerateContent(ctx, messages, options...)
	if err != nil {
		return Suggestion{}, fmt.Errorf("LLM call failed: %w", err)
	}

	if resp == nil || len(resp.Choices) == 0 {
		return Suggestion{}, ErrEmptyResponse
	}

	return ParseReply(resp.Choices[0].Content, catalog), nil
}

// ParseReply decodes the model's answer. Code fences are ignored. Text that is not
// the expected JSON object becomes the reply. Suggested ids missing from the
// catalog are dropped; the order of the rest is kept.
func ParseReply(content string, catalog []models.CatalogEntry) Suggestion {
	body := stripFence(strings.TrimSpace(content))

	var raw struct {
		Reply       string   `json:"reply"`
		Suggestions []string `json:"suggestions"`
	}

	if err := json.Unmarshal([]byte(body), &raw); err != nil {
		return Suggestion{Reply: strings.TrimSpace(content)}
	}

	known := make(map[string]struct{}, len(catalog))
	for _, e := range catalog {
		known[e.ID] = struct{}{}
	}

	out := Suggestion{Reply: raw.Reply}

	for _, id := range raw.Suggestions {
		if _, ok := known[id]; ok {
			out.Suggestions = append(out.Suggestions, id)
		}
	}

	return out
}

func stripFence(s string) string {
	if !strings.HasPrefix(s, "```") {
		return s
	}

	s = strings.TrimPrefix(s, "```")
	if nl := strings.IndexByte(s, '\n'); nl >= 0 {
		s = s[nl+1:]
	}

	return strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(s), "```"))
}
