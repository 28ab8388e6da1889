package models

import (
	"maps"
	"slices"

	"github.com/google/uuid"
)

// WorkflowNode is one activity instance inside a workflow. Elements is a node-owned
// deep copy of the template's element tree; later template edits do not reach it.
type WorkflowNode struct {
	ID                   string      `json:"id"                              validate:"required"`
	ActivityTemplateID   string      `json:"activityTemplateId"              validate:"required"`
	Elements             []UIElement `json:"localSidePanelElements"`
	UserAssignedName     string      `json:"userAssignedName,omitempty"`
	SidePanelDescription string      `json:"sidePanelDescription,omitempty"`
	MapDescription       string      `json:"mapDescription,omitempty"`
	Values               Values      `json:"values"`

	// Branch is the branch this node sits on; empty means main.
	Branch string `json:"branch,omitempty"`
	// Branches lists the branch names a condition node owns, in display order.
	Branches []string `json:"branches,omitempty"`
	// BranchConditions maps a branch name to its condition summary.
	BranchConditions map[string]string `json:"branchConditions,omitempty"`
	// ConditionNumber is the stable number assigned when the condition node was created.
	ConditionNumber int `json:"conditionNumber,omitempty"`
	// DynamicElements holds the elements materialized by each button, keyed by button id.
	DynamicElements map[string][]UIElement `json:"dynamicElements,omitempty"`
}

// IsCondition reports whether the node's element tree contains a conditions module.
func (n *WorkflowNode) IsCondition() bool {
	return ContainsType(n.Elements, ElementConditionsModule)
}

// EffectiveBranch returns the node's branch, defaulting to main.
func (n *WorkflowNode) EffectiveBranch() string {
	if n.Branch == "" {
		return MainBranch
	}

	return n.Branch
}

// DisplayName returns the user-assigned name or the fallback.
func (n *WorkflowNode) DisplayName(fallback string) string {
	if n.UserAssignedName != "" {
		return n.UserAssignedName
	}

	return fallback
}

// AllElements returns the node's element tree followed by every button's dynamic
// elements, in button order. Buttons that were themselves materialized contribute
// their own lists after the list that holds them.
func (n *WorkflowNode) AllElements() []UIElement {
	if len(n.DynamicElements) == 0 {
		return n.Elements
	}

	out := slices.Clone(n.Elements)
	seen := make(map[string]bool, len(n.DynamicElements))

	var collect func([]UIElement)

	collect = func(elements []UIElement) {
		Walk(elements, func(el *UIElement) bool {
			added, ok := n.DynamicElements[el.ID]
			if !ok || seen[el.ID] {
				return true
			}

			seen[el.ID] = true
			out = append(out, added...)
			collect(added)

			return true
		})
	}

	collect(n.Elements)

	return out
}

// Clone returns a deep copy of the node.
func (n *WorkflowNode) Clone() *WorkflowNode {
	out := *n
	out.Elements = CloneElements(n.Elements)
	out.Values = n.Values.Clone()
	out.Branches = slices.Clone(n.Branches)
	out.BranchConditions = maps.Clone(n.BranchConditions)

	if n.DynamicElements != nil {
		out.DynamicElements = make(map[string][]UIElement, len(n.DynamicElements))
		for id, elements := range n.DynamicElements {
			out.DynamicElements[id] = CloneElements(elements)
		}
	}

	return &out
}

// NewElementID returns a fresh collision-resistant element id: a UUIDv7 carries a
// millisecond timestamp followed by random bits.
func NewElementID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}

	return id.String()
}
