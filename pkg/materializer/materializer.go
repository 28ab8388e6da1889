// Package materializer creates new form elements at runtime when a user clicks an
// element-adding button.
package materializer

import (
	"errors"
	"strings"

	"github.com/dukex/flowbuilder/pkg/models"
	"github.com/dukex/flowbuilder/pkg/reference"
)

var ErrNotMaterializing = errors.New("button does not add elements")

// Materializer clones and synthesizes elements with fresh ids.
type Materializer struct {
	newID func() string
}

// Option configures a Materializer.
type Option func(*Materializer)

// WithIDGenerator replaces the default UUIDv7 id source.
func WithIDGenerator(fn func() string) Option {
	return func(m *Materializer) {
		m.newID = fn
	}
}

// New returns a Materializer.
func New(opts ...Option) *Materializer {
	m := &Materializer{newID: models.NewElementID}
	for _, opt := range opts {
		opt(m)
	}

	return m
}

// Click returns the elements one click of button adds. In literal mode that is a
// fresh copy of the button's addedElements. In reference mode the elementReference
// token is resolved against original, the node's own element tree without any
// earlier dynamic insertions; the match is cloned, or an element is synthesized from
// the label when nothing matches.
func (m *Materializer) Click(button *models.UIElement, original []models.UIElement) ([]models.UIElement, error) {
	if button.Type != models.ElementButton || !button.AddsElements {
		return nil, ErrNotMaterializing
	}

	if button.AddNewElements {
		return m.Refresh(button.AddedElements), nil
	}

	label, ok := reference.ParseToken(button.ElementReference)
	if !ok {
		label = strings.TrimSpace(button.ElementReference)
	}

	if el, found := reference.FindByLabel(original, label); found {
		return m.Refresh([]models.UIElement{*el}), nil
	}

	return []models.UIElement{m.Synthesize(label)}, nil
}

// Refresh deep-copies elements and assigns a fresh id to every element, including
// follow-up subtrees and nested button templates.
func (m *Materializer) Refresh(elements []models.UIElement) []models.UIElement {
	out := models.CloneElements(elements)
	m.refresh(out)

	return out
}

func (m *Materializer) refresh(elements []models.UIElement) {
	for i := range elements {
		el := &elements[i]
		el.ID = m.newID()

		for j := range el.ConditionalFollowUps {
			m.refresh(el.ConditionalFollowUps[j].Elements)
		}

		m.refresh(el.AddedElements)
	}
}

type typeHint struct {
	keywords []string
	typ      models.ElementType
}

// hints are checked in order; the first keyword found in the label wins.
var hints = []typeHint{
	{keywords: []string{"dropdown", "select"}, typ: models.ElementDropdown},
	{keywords: []string{"checkbox", "check"}, typ: models.ElementCheckbox},
	{keywords: []string{"toggle", "switch"}, typ: models.ElementToggle},
	{keywords: []string{"file", "upload"}, typ: models.ElementFileUpload},
	{keywords: []string{"number"}, typ: models.ElementNumber},
	{keywords: []string{"date"}, typ: models.ElementDate},
	{keywords: []string{"radio", "choice"}, typ: models.ElementRadio},
	{keywords: []string{"textarea", "description", "comment"}, typ: models.ElementTextarea},
}

// GuessType maps label keywords to an element type, defaulting to text.
func GuessType(label string) models.ElementType {
	lower := strings.ToLower(label)

	for _, hint := range hints {
		for _, kw := range hint.keywords {
			if strings.Contains(lower, kw) {
				return hint.typ
			}
		}
	}

	return models.ElementText
}

// DefaultOptions are given to synthesized choice elements.
var DefaultOptions = []string{"Option 1", "Option 2"}

// Synthesize builds a plausible element for a label that matched nothing.
func (m *Materializer) Synthesize(label string) models.UIElement {
	el := models.UIElement{
		ID:    m.newID(),
		Type:  GuessType(label),
		Label: label,
	}

	if el.Type == models.ElementDropdown || el.Type == models.ElementRadio {
		el.Options = append([]string(nil), DefaultOptions...)
	}

	return el
}
