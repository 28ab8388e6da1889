package reference

import (
	"sort"
	"strings"

	"github.com/lithammer/fuzzysearch/fuzzy"

	"github.com/dukex/flowbuilder/pkg/models"
)

// Suggestion is one autocomplete candidate.
type Suggestion struct {
	ElementID string             `json:"elementId"`
	Label     string             `json:"label"`
	Type      models.ElementType `json:"type"`
	Token     string             `json:"token"`
}

// SuggestOptions restricts the candidates.
type SuggestOptions struct {
	// Types limits candidates to the listed element types. Empty means every
	// referenceable type.
	Types []models.ElementType
	// Limit caps the result size; zero means no cap.
	Limit int
}

func (o SuggestOptions) allows(t models.ElementType) bool {
	if len(o.Types) == 0 {
		return Referenceable(t)
	}

	for _, allowed := range o.Types {
		if allowed == t {
			return true
		}
	}

	return false
}

// Suggestions returns candidate elements for a partially typed label. Case-insensitive
// prefix matches come first in tree order, followed by fuzzy matches ranked by distance.
// Labels are deduplicated; the first element carrying a label wins, matching FindByLabel.
func Suggestions(prefix string, elements []models.UIElement, opts SuggestOptions) []Suggestion {
	var candidates []Suggestion

	seen := make(map[string]struct{})

	models.Walk(elements, func(el *models.UIElement) bool {
		if el.Label == "" || !opts.allows(el.Type) {
			return true
		}

		if _, dup := seen[el.Label]; dup {
			return true
		}

		seen[el.Label] = struct{}{}
		candidates = append(candidates, Suggestion{
			ElementID: el.ID,
			Label:     el.Label,
			Type:      el.Type,
			Token:     Token(el.Label),
		})

		return true
	})

	query := strings.ToLower(strings.TrimSpace(prefix))

	var (
		prefixed []Suggestion
		rest     []string
		byLabel  = make(map[string]Suggestion, len(candidates))
	)

	for _, c := range candidates {
		if strings.HasPrefix(strings.ToLower(c.Label), query) {
			prefixed = append(prefixed, c)

			continue
		}

		rest = append(rest, c.Label)
		byLabel[c.Label] = c
	}

	out := prefixed

	if query != "" && len(rest) > 0 {
		ranks := fuzzy.RankFindFold(query, rest)
		sort.Stable(ranks)

		for _, r := range ranks {
			out = append(out, byLabel[r.Target])
		}
	}

	if opts.Limit > 0 && len(out) > opts.Limit {
		out = out[:opts.Limit]
	}

	return out
}

// Query describes an in-progress token at the cursor.
type Query struct {
	// Start is the byte offset of the '#'.
	Start int
	// Text is what has been typed after "#" or "#{" up to the cursor.
	Text string
}

// ActiveQuery reports whether the cursor sits after an unmatched '#': one with no
// closing '}' between it and the cursor.
func ActiveQuery(text string, cursor int) (Query, bool) {
	if cursor < 0 || cursor > len(text) {
		return Query{}, false
	}

	before := text[:cursor]

	start := strings.LastIndex(before, "#")
	if start < 0 {
		return Query{}, false
	}

	typed := before[start+1:]
	if strings.Contains(typed, "}") || strings.ContainsAny(typed, "\n") {
		return Query{}, false
	}

	return Query{Start: start, Text: strings.TrimPrefix(typed, "{")}, true
}

// Complete replaces the active query at cursor with a full token for label and returns
// the new text and cursor position. Text is returned unchanged when no query is active.
func Complete(text string, cursor int, label string) (string, int) {
	q, ok := ActiveQuery(text, cursor)
	if !ok {
		return text, cursor
	}

	end := cursor
	// Swallow a closing brace the editor already auto-inserted.
	if strings.HasPrefix(text[cursor:], "}") && strings.HasPrefix(text[q.Start:], "#{") {
		end++
	}

	token := Token(label)
	out := text[:q.Start] + token + text[end:]

	return out, q.Start + len(token)
}
