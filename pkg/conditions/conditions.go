// Package conditions maintains and interprets the branches of condition modules:
// naming, evaluation against node values and human-readable summaries.
package conditions

import (
	"fmt"
	"slices"
	"strings"

	"github.com/dukex/flowbuilder/pkg/models"
	"github.com/dukex/flowbuilder/pkg/reference"
)

// BranchName returns the canonical name of the index-th (1-based) branch of a
// condition node.
func BranchName(conditionNumber, index int) string {
	return fmt.Sprintf("Branch %d.%d", conditionNumber, index)
}

// NewBranch returns a branch with one empty group.
func NewBranch(name string, conditionNumber int) models.ConditionBranch {
	return models.ConditionBranch{
		Name:                name,
		OuterLogic:          models.LogicAnd,
		ConditionNodeNumber: conditionNumber,
		Groups: []models.ConditionGroup{
			{GroupLogic: models.LogicAnd, Lines: []models.ConditionLine{{Operator: models.OperatorIs}}},
		},
	}
}

// AddBranch appends a branch named "Branch {conditionNumber}.{len+1}". When that name
// is taken, per taken, the index is bumped until the name is free.
func AddBranch(branches []models.ConditionBranch, conditionNumber int, taken func(string) bool) []models.ConditionBranch {
	inUse := func(name string) bool {
		if taken != nil && taken(name) {
			return true
		}

		return slices.ContainsFunc(branches, func(b models.ConditionBranch) bool { return b.Name == name })
	}

	index := len(branches) + 1

	name := BranchName(conditionNumber, index)
	for inUse(name) {
		index++
		name = BranchName(conditionNumber, index)
	}

	out := models.CloneBranches(branches)

	return append(out, NewBranch(name, conditionNumber))
}

// Line is a condition line after property and operator inheritance.
type Line struct {
	Property string
	Operator models.Operator
	Value    string
}

// EffectiveLines applies inheritance: a line with an empty property or operator takes
// the nearest preceding non-empty one. Lines that still have no property are dropped.
func EffectiveLines(group models.ConditionGroup) []Line {
	var (
		out      []Line
		property string
		operator models.Operator
	)

	for _, line := range group.Lines {
		if strings.TrimSpace(line.Property) != "" {
			property = strings.TrimSpace(line.Property)
		}

		if line.Operator != "" {
			operator = line.Operator
		}

		if property == "" {
			continue
		}

		op := operator
		if op == "" {
			op = models.OperatorIs
		}

		out = append(out, Line{Property: property, Operator: op, Value: line.Value})
	}

	return out
}

// ResolveProperty finds the element a condition property refers to: by id, then by
// label ignoring case, then by the snake_case form of the label.
func ResolveProperty(property string, elements []models.UIElement) (*models.UIElement, bool) {
	if el, ok := models.FindElement(elements, property); ok {
		return el, true
	}

	var found *models.UIElement

	models.Walk(elements, func(el *models.UIElement) bool {
		if el.Type.CarriesValue() && strings.EqualFold(el.Label, property) {
			found = el

			return false
		}

		return true
	})

	if found != nil {
		return found, true
	}

	snake := ToSnake(property)

	models.Walk(elements, func(el *models.UIElement) bool {
		if el.Type.CarriesValue() && labelKey(el.Label) == snake {
			found = el

			return false
		}

		return true
	})

	return found, found != nil
}

func labelKey(label string) string {
	return strings.Join(strings.Fields(strings.ToLower(label)), "_")
}

// Evaluate reports whether the branch is taken for the given values. Lines within a
// group combine with the group's logic; groups combine with the branch's outer logic.
// A branch without any complete line is unconditional and evaluates to true.
func Evaluate(branch models.ConditionBranch, elements []models.UIElement, values models.Values) bool {
	outer := branch.OuterLogic.Normalize()

	var (
		result    bool
		evaluated bool
	)

	for _, group := range branch.Groups {
		lines := EffectiveLines(group)
		if len(lines) == 0 {
			continue
		}

		groupResult := evaluateGroup(group.GroupLogic.Normalize(), lines, elements, values)

		switch {
		case !evaluated:
			result = groupResult
		case outer == models.LogicOr:
			result = result || groupResult
		default:
			result = result && groupResult
		}

		evaluated = true
	}

	return !evaluated || result
}

func evaluateGroup(logic models.Logic, lines []Line, elements []models.UIElement, values models.Values) bool {
	result := logic == models.LogicAnd

	for _, line := range lines {
		ok := evaluateLine(line, elements, values)

		if logic == models.LogicOr {
			result = result || ok
		} else {
			result = result && ok
		}
	}

	return result
}

func evaluateLine(line Line, elements []models.UIElement, values models.Values) bool {
	var (
		el    *models.UIElement
		value models.FieldValue
	)

	if found, ok := ResolveProperty(line.Property, elements); ok {
		el = found
		value = values[found.ID]
	} else {
		value = values[line.Property]
	}

	return Compare(el, value, line.Operator, line.Value)
}

// Compare applies op to a field value and the line's literal. Missing values compare
// as the empty string; list values match "is" when any item equals the literal.
func Compare(el *models.UIElement, value models.FieldValue, op models.Operator, want string) bool {
	candidates := candidatesOf(el, value)

	match := func(pred func(string) bool) bool {
		return slices.ContainsFunc(candidates, pred)
	}

	switch op {
	case models.OperatorIs:
		return match(func(s string) bool { return s == want })
	case models.OperatorIsNot:
		return !match(func(s string) bool { return s == want })
	case models.OperatorContains:
		return match(func(s string) bool { return strings.Contains(s, want) })
	case models.OperatorNotContains:
		return !match(func(s string) bool { return strings.Contains(s, want) })
	case models.OperatorStartsWith:
		return match(func(s string) bool { return strings.HasPrefix(s, want) })
	case models.OperatorEndsWith:
		return match(func(s string) bool { return strings.HasSuffix(s, want) })
	case models.OperatorIsEmpty:
		return models.IsEmpty(value)
	case models.OperatorIsNotEmpty:
		return !models.IsEmpty(value)
	default:
		return false
	}
}

func candidatesOf(el *models.UIElement, value models.FieldValue) []string {
	switch v := value.(type) {
	case nil:
		return []string{""}
	case models.StringList:
		if len(v) == 0 {
			return []string{""}
		}

		return v
	case models.Bool:
		out := []string{models.String(v)}
		if el != nil {
			if rendered := reference.Render(el, v); rendered != out[0] {
				out = append(out, rendered)
			}
		}

		return out
	case models.Text, models.Number, models.FileRef, models.BranchSet:
		return []string{models.String(v)}
	default:
		return []string{models.String(v)}
	}
}

// Summarize renders the branch as text such as "City is Oslo OR City is Bucharest".
// Groups with more than one line are parenthesized when the branch has several groups.
// el supplies per-instance property and operator labels and may be nil.
func Summarize(branch models.ConditionBranch, el *models.UIElement) string {
	p := NewPrettifier(el)

	var (
		groups []string
		multi  []bool
	)

	for _, group := range branch.Groups {
		lines := EffectiveLines(group)
		if len(lines) == 0 {
			continue
		}

		parts := make([]string, 0, len(lines))
		for _, line := range lines {
			parts = append(parts, summarizeLine(p, line))
		}

		groups = append(groups, strings.Join(parts, " "+group.GroupLogic.Keyword()+" "))
		multi = append(multi, len(parts) > 1)
	}

	if len(groups) > 1 {
		for i := range groups {
			if multi[i] {
				groups[i] = "(" + groups[i] + ")"
			}
		}
	}

	return strings.Join(groups, " "+branch.OuterLogic.Keyword()+" ")
}

func summarizeLine(p *Prettifier, line Line) string {
	text := p.Property(line.Property) + " " + p.Operator(string(line.Operator))

	switch line.Operator {
	case models.OperatorIsEmpty, models.OperatorIsNotEmpty:
		return text
	default:
		return text + " " + line.Value
	}
}

// SummarizeAll maps each branch name to its summary, skipping branches without conditions.
func SummarizeAll(branches []models.ConditionBranch, el *models.UIElement) map[string]string {
	out := make(map[string]string, len(branches))

	for _, branch := range branches {
		if summary := Summarize(branch, el); summary != "" {
			out[branch.Name] = summary
		}
	}

	return out
}
