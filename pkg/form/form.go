// Package form turns a node's element tree and values into the side-panel form a
// user edits, and validates the values against it.
package form

import (
	"encoding/json"

	"github.com/dukex/flowbuilder/pkg/conditions"
	"github.com/dukex/flowbuilder/pkg/models"
	"github.com/dukex/flowbuilder/pkg/reference"
	"github.com/dukex/flowbuilder/pkg/visibility"
)

// Field is one visible element of a rendered form.
type Field struct {
	Element models.UIElement  `json:"element"`
	Depth   int               `json:"depth"`
	Value   models.FieldValue `json:"-"`
	// Text is the element's display text with every reference resolved.
	Text string `json:"text,omitempty"`
	// ButtonID is set on elements materialized by a button.
	ButtonID string `json:"buttonId,omitempty"`
	// Branches summarizes the branches of a conditions module.
	Branches []Branch `json:"branches,omitempty"`
}

// MarshalJSON emits the value in the tagged form used by node values.
func (f Field) MarshalJSON() ([]byte, error) {
	type alias Field

	out := struct {
		alias
		Value json.RawMessage `json:"value,omitempty"`
	}{alias: alias(f)}

	if f.Value != nil {
		raw, err := models.MarshalValue(f.Value)
		if err != nil {
			return nil, err
		}

		out.Value = raw
	}

	return json.Marshal(out)
}

// Branch is a condition branch as shown in the form.
type Branch struct {
	Name    string `json:"name"`
	Summary string `json:"summary"`
}

// Options narrows what Render returns.
type Options struct {
	// Tab keeps only elements on this tab; empty keeps every tab.
	Tab models.Tab
}

type visit func(el *models.UIElement, depth int, buttonID string) bool

// walk visits the visible elements of node in form order. Each button's dynamic
// elements, with their own active follow-ups, come right before the button.
func walk(node *models.WorkflowNode, fn visit) {
	var inner func(elements []models.UIElement, depth int, buttonID string) bool

	inner = func(elements []models.UIElement, depth int, buttonID string) bool {
		for i := range elements {
			el := &elements[i]

			if dynamic := node.DynamicElements[el.ID]; len(dynamic) > 0 {
				if !inner(dynamic, depth, el.ID) {
					return false
				}
			}

			if !fn(el, depth, buttonID) {
				return false
			}

			if !inner(visibility.ActiveFollowUp(el, node.Values[el.ID]), depth+1, buttonID) {
				return false
			}
		}

		return true
	}

	inner(node.Elements, 0, "")
}

// VisibleElements returns every element of the node currently shown in the form,
// dynamic elements included.
func VisibleElements(node *models.WorkflowNode) []*models.UIElement {
	var out []*models.UIElement

	walk(node, func(el *models.UIElement, _ int, _ string) bool {
		out = append(out, el)

		return true
	})

	return out
}

// Render returns the node's form fields in display order.
func Render(node *models.WorkflowNode, opts Options) []Field {
	all := node.AllElements()

	var fields []Field

	walk(node, func(el *models.UIElement, depth int, buttonID string) bool {
		if opts.Tab != "" && el.EffectiveTab() != opts.Tab {
			return true
		}

		field := Field{
			Element:  el.Clone(),
			Depth:    depth,
			Value:    node.Values[el.ID],
			ButtonID: buttonID,
		}

		switch el.Type {
		case models.ElementTextBlock, models.ElementSectionDivider:
			field.Text = reference.Resolve(el.DisplayText(), all, node.Values)
		case models.ElementConditionsModule, models.ElementTriggerConditionsModule:
			if set, ok := node.Values[el.ID].(models.BranchSet); ok {
				for _, b := range set.Branches {
					field.Branches = append(field.Branches, Branch{Name: b.Name, Summary: conditions.Summarize(b, el)})
				}
			}
		default:
			field.Text = el.Label
		}

		fields = append(fields, field)

		return true
	})

	return fields
}

// Description returns the node's side-panel description with references resolved.
func Description(node *models.WorkflowNode) string {
	return reference.Resolve(node.SidePanelDescription, node.AllElements(), node.Values)
}

// MapDescription returns the subtext of the node's map card with references resolved.
func MapDescription(node *models.WorkflowNode) string {
	return reference.Resolve(node.MapDescription, node.AllElements(), node.Values)
}
