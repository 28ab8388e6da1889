package models

import (
	"slices"
	"strings"
)

// Logic joins lines within a group or groups within a branch.
type Logic string

const (
	LogicAnd Logic = "and"
	LogicOr  Logic = "or"
)

// Normalize returns LogicOr for "or" in any case and LogicAnd otherwise.
func (l Logic) Normalize() Logic {
	if strings.EqualFold(string(l), string(LogicOr)) {
		return LogicOr
	}

	return LogicAnd
}

// Keyword renders the logic as it appears in summaries.
func (l Logic) Keyword() string {
	return strings.ToUpper(string(l.Normalize()))
}

// Operator compares a property's value to a condition line's value.
type Operator string

const (
	OperatorIs          Operator = "is"
	OperatorIsNot       Operator = "is_not"
	OperatorContains    Operator = "contains"
	OperatorNotContains Operator = "not_contains"
	OperatorStartsWith  Operator = "starts_with"
	OperatorEndsWith    Operator = "ends_with"
	OperatorIsEmpty     Operator = "is_empty"
	OperatorIsNotEmpty  Operator = "is_not_empty"
)

// ConditionLine is one comparison. Empty Property or Operator inherit from the
// nearest preceding non-empty line of the same group.
type ConditionLine struct {
	Property string   `json:"property"`
	Operator Operator `json:"operator"`
	Value    string   `json:"value"`
	Logic    Logic    `json:"logic,omitempty"`
}

// ConditionGroup is a list of lines joined by GroupLogic.
type ConditionGroup struct {
	Lines      []ConditionLine `json:"lines"`
	GroupLogic Logic           `json:"groupLogic,omitempty"`
}

// ConditionBranch is one named outcome of a condition node.
type ConditionBranch struct {
	Name                string           `json:"name"                          validate:"required"`
	OuterLogic          Logic            `json:"outerLogic,omitempty"`
	Groups              []ConditionGroup `json:"groups"`
	ConditionNodeNumber int              `json:"conditionNodeNumber,omitempty"`
}

// Clone returns a deep copy of the branch.
func (b ConditionBranch) Clone() ConditionBranch {
	out := b
	if b.Groups != nil {
		out.Groups = make([]ConditionGroup, len(b.Groups))
		for i, group := range b.Groups {
			out.Groups[i] = ConditionGroup{
				Lines:      slices.Clone(group.Lines),
				GroupLogic: group.GroupLogic,
			}
		}
	}

	return out
}

// CloneBranches returns a deep copy of the branch list.
func CloneBranches(branches []ConditionBranch) []ConditionBranch {
	if branches == nil {
		return nil
	}

	out := make([]ConditionBranch, len(branches))
	for i, branch := range branches {
		out[i] = branch.Clone()
	}

	return out
}
