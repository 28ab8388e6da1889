// Package visibility decides which conditional follow-up subtrees are live for a
// given set of values.
package visibility

import "github.com/dukex/flowbuilder/pkg/models"

// ActiveFollowUp returns the elements of the first follow-up whose condition value
// equals value. Booleans compare only with booleans and strings only with strings.
// The result is empty when follow-ups are disabled or nothing matches.
func ActiveFollowUp(el *models.UIElement, value models.FieldValue) []models.UIElement {
	if !el.HasConditionalFollowUps || !el.Type.SupportsFollowUps() {
		return nil
	}

	for _, followUp := range el.ConditionalFollowUps {
		if followUp.ConditionValue.Matches(value) {
			return followUp.Elements
		}
	}

	return nil
}

// Visit is called for every visible element with its follow-up depth.
type Visit func(el *models.UIElement, depth int) bool

// Walk visits the visible elements depth-first: each element is followed by its
// active follow-up subtree, recursively. Returning false from fn stops the walk.
func Walk(elements []models.UIElement, values models.Values, fn Visit) bool {
	return walk(elements, values, 0, fn)
}

func walk(elements []models.UIElement, values models.Values, depth int, fn Visit) bool {
	for i := range elements {
		el := &elements[i]
		if !fn(el, depth) {
			return false
		}

		if !walk(ActiveFollowUp(el, values[el.ID]), values, depth+1, fn) {
			return false
		}
	}

	return true
}

// Visible returns the flattened list of visible elements.
func Visible(elements []models.UIElement, values models.Values) []*models.UIElement {
	var out []*models.UIElement

	Walk(elements, values, func(el *models.UIElement, _ int) bool {
		out = append(out, el)

		return true
	})

	return out
}

// IsVisible reports whether the element with the given id is currently shown.
func IsVisible(elements []models.UIElement, values models.Values, id string) bool {
	found := false

	Walk(elements, values, func(el *models.UIElement, _ int) bool {
		found = el.ID == id

		return !found
	})

	return found
}

// Hidden returns the ids of elements that exist in the tree but sit inside an
// inactive follow-up. Their values are kept but ignored by validation and rendering.
func Hidden(elements []models.UIElement, values models.Values) []string {
	visible := make(map[string]struct{})

	for _, el := range Visible(elements, values) {
		visible[el.ID] = struct{}{}
	}

	var hidden []string

	models.Walk(elements, func(el *models.UIElement) bool {
		if _, ok := visible[el.ID]; !ok {
			hidden = append(hidden, el.ID)
		}

		return true
	})

	return hidden
}
