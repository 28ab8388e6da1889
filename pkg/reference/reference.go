// Package reference expands #{Label} tokens in free text with the current values of
// the labelled elements and offers label suggestions while a token is being typed.
package reference

import (
	"regexp"
	"strings"

	"github.com/dukex/flowbuilder/pkg/models"
)

var tokenPattern = regexp.MustCompile(`#\{([^}]*)\}`)

// Token formats label as a reference token.
func Token(label string) string {
	return "#{" + label + "}"
}

// Labels returns the labels referenced by text in order of appearance.
func Labels(text string) []string {
	matches := tokenPattern.FindAllStringSubmatch(text, -1)

	labels := make([]string, 0, len(matches))
	for _, m := range matches {
		labels = append(labels, strings.TrimSpace(m[1]))
	}

	return labels
}

// ParseToken returns the label of a text consisting of a single token, as stored in
// a button's elementReference.
func ParseToken(text string) (string, bool) {
	m := tokenPattern.FindStringSubmatch(strings.TrimSpace(text))
	if m == nil || len(m[0]) != len(strings.TrimSpace(text)) {
		return "", false
	}

	return strings.TrimSpace(m[1]), true
}

// Referenceable reports whether elements of type t carry a value that a token can expand to.
func Referenceable(t models.ElementType) bool {
	return t.CarriesValue()
}

// FindByLabel searches the tree depth-first, descending into every follow-up subtree,
// for the first value-carrying element whose label equals label. Surrounding
// whitespace is ignored on both sides.
func FindByLabel(elements []models.UIElement, label string) (*models.UIElement, bool) {
	var found *models.UIElement

	label = strings.TrimSpace(label)

	models.Walk(elements, func(el *models.UIElement) bool {
		if strings.TrimSpace(el.Label) == label && Referenceable(el.Type) {
			found = el

			return false
		}

		return true
	})

	return found, found != nil
}

// Resolve replaces every token in text with the rendered value of the referenced
// element. Unknown labels and missing values expand to the empty string.
func Resolve(text string, elements []models.UIElement, values models.Values) string {
	if !strings.Contains(text, "#{") {
		return text
	}

	return tokenPattern.ReplaceAllStringFunc(text, func(token string) string {
		label := strings.TrimSpace(token[2 : len(token)-1])

		el, ok := FindByLabel(elements, label)
		if !ok {
			return ""
		}

		return Render(el, values[el.ID])
	})
}

// Render formats a value the way it appears inside resolved text. Toggles render as
// ON/OFF and single checkboxes as checked/unchecked.
func Render(el *models.UIElement, value models.FieldValue) string {
	switch v := value.(type) {
	case nil:
		return ""
	case models.Bool:
		switch el.Type {
		case models.ElementToggle:
			if v {
				return "ON"
			}

			return "OFF"
		case models.ElementCheckbox:
			if v {
				return "checked"
			}

			return "unchecked"
		default:
			return models.String(v)
		}
	case models.FileRef:
		return v.Name
	case models.Text, models.Number, models.StringList, models.BranchSet:
		return models.String(v)
	default:
		return models.String(v)
	}
}
