package workflow

import (
	"slices"

	"github.com/dukex/flowbuilder/pkg/conditions"
	"github.com/dukex/flowbuilder/pkg/models"
)

// AddNode instantiates an activity template as a new node. The node receives a deep
// copy of the template's elements. Condition nodes get the next condition number
// and their first branch.
type AddNode struct {
	TemplateID string `json:"activityTemplateId" validate:"required"`
	Branch     string `json:"branch,omitempty"`
	// Index positions the node in the document; nil or out of range appends.
	Index            *int   `json:"index,omitempty"`
	UserAssignedName string `json:"userAssignedName,omitempty"`
}

func (AddNode) Name() string { return "AddNode" }

func (c AddNode) apply(s *state) error {
	tpl, ok := s.env.Templates(c.TemplateID)
	if !ok {
		return &CommandError{Command: c.Name(), Err: ErrTemplateNotFound}
	}

	branch := c.Branch
	if branch == "" {
		branch = models.MainBranch
	}

	if _, ok := validBranches(s.wf)[branch]; !ok {
		return &CommandError{Command: c.Name(), Err: ErrUnknownBranch}
	}

	node := &models.WorkflowNode{
		ID:                   s.env.NewNodeID(),
		ActivityTemplateID:   tpl.ID,
		Elements:             models.CloneElements(tpl.SidePanelElements),
		UserAssignedName:     c.UserAssignedName,
		SidePanelDescription: tpl.SidePanelDescription,
	}

	if branch != models.MainBranch {
		node.Branch = branch
	}

	node.Values = initialValues(nil, node.Elements)

	if node.IsCondition() {
		node.ConditionNumber = nextConditionNumber(s.wf)
		setBranches(node, conditions.AddBranch(nil, node.ConditionNumber, branchTaken(s.wf)))
	}

	if c.Index == nil || *c.Index < 0 || *c.Index >= len(s.wf.Nodes) {
		s.wf.Nodes = append(s.wf.Nodes, node)
	} else {
		s.wf.Nodes = slices.Insert(s.wf.Nodes, *c.Index, node)
	}

	s.result.NodeID = node.ID

	return nil
}

// UpdateNode edits node-level attributes. Nil fields are left unchanged.
type UpdateNode struct {
	NodeID               string  `json:"-"`
	UserAssignedName     *string `json:"userAssignedName,omitempty"`
	SidePanelDescription *string `json:"sidePanelDescription,omitempty"`
	MapDescription       *string `json:"mapDescription,omitempty"`
	Branch               *string `json:"branch,omitempty"`
}

func (UpdateNode) Name() string { return "UpdateNode" }

func (c UpdateNode) apply(s *state) error {
	node, err := s.node(c.Name(), c.NodeID)
	if err != nil {
		return err
	}

	if c.Branch != nil {
		branch := *c.Branch
		if branch == "" {
			branch = models.MainBranch
		}

		if _, ok := validBranches(s.wf)[branch]; !ok {
			return &CommandError{Command: c.Name(), NodeID: c.NodeID, Err: ErrUnknownBranch}
		}

		if branch != models.MainBranch {
			owner, _ := branchOwner(s.wf, branch)
			if owner.ID == node.ID || slices.Contains(Descendants(s.wf, node.Branches), owner.ID) {
				return &CommandError{Command: c.Name(), NodeID: c.NodeID, Err: ErrBranchCycle}
			}

			node.Branch = branch
		} else {
			node.Branch = ""
		}
	}

	if c.UserAssignedName != nil {
		node.UserAssignedName = *c.UserAssignedName
	}

	if c.SidePanelDescription != nil {
		node.SidePanelDescription = *c.SidePanelDescription
	}

	if c.MapDescription != nil {
		node.MapDescription = *c.MapDescription
	}

	s.result.NodeID = node.ID

	return nil
}

// RemoveNode deletes a node. Removing a condition node deletes its branches and
// everything on them.
type RemoveNode struct {
	NodeID string `json:"nodeId"`
}

func (RemoveNode) Name() string { return "RemoveNode" }

func (c RemoveNode) apply(s *state) error {
	node, err := s.node(c.Name(), c.NodeID)
	if err != nil {
		return err
	}

	var removed []string

	if len(node.Branches) > 0 {
		removed = deleteBranches(s.wf, node.Branches)
	}

	s.wf.Nodes = slices.DeleteFunc(s.wf.Nodes, func(n *models.WorkflowNode) bool { return n.ID == c.NodeID })
	removed = append(removed, c.NodeID)
	removed = append(removed, dropOrphans(s.wf)...)

	s.result.RemovedNodes = removed

	return nil
}

// SetValue stores or clears (nil Value) the value of one element of a node. The
// element may live anywhere in the node's tree or among its dynamic elements.
type SetValue struct {
	NodeID    string            `json:"-"`
	ElementID string            `json:"-"`
	Value     models.FieldValue `json:"-"`
}

func (SetValue) Name() string { return "SetValue" }

func (c SetValue) apply(s *state) error {
	node, err := s.node(c.Name(), c.NodeID)
	if err != nil {
		return err
	}

	el, ok := models.FindElement(node.AllElements(), c.ElementID)
	if !ok {
		return &CommandError{Command: c.Name(), NodeID: c.NodeID, Err: ErrElementNotFound}
	}

	if el.Type == models.ElementConditionsModule {
		return &CommandError{Command: c.Name(), NodeID: c.NodeID, Err: ErrUseBranchCommands}
	}

	if c.Value == nil {
		delete(node.Values, c.ElementID)

		return nil
	}

	if err := models.CheckValueKind(el, c.Value); err != nil {
		return &CommandError{Command: c.Name(), NodeID: c.NodeID, Err: err}
	}

	if node.Values == nil {
		node.Values = models.Values{}
	}

	node.Values[c.ElementID] = models.CloneValue(c.Value)
	s.result.NodeID = node.ID

	return nil
}

// ClickButton materializes the elements a button adds and appends them to the
// button's dynamic element list.
type ClickButton struct {
	NodeID   string `json:"-"`
	ButtonID string `json:"-"`
}

func (ClickButton) Name() string { return "ClickButton" }

func (c ClickButton) apply(s *state) error {
	node, err := s.node(c.Name(), c.NodeID)
	if err != nil {
		return err
	}

	// Buttons inside a materialized group are clickable; references still resolve
	// against the node's own tree.
	button, ok := models.FindElement(node.AllElements(), c.ButtonID)
	if !ok {
		return &CommandError{Command: c.Name(), NodeID: c.NodeID, Err: ErrElementNotFound}
	}

	added, err := s.env.Materializer.Click(button, node.Elements)
	if err != nil {
		return &CommandError{Command: c.Name(), NodeID: c.NodeID, Err: err}
	}

	if node.DynamicElements == nil {
		node.DynamicElements = make(map[string][]models.UIElement)
	}

	node.DynamicElements[c.ButtonID] = append(node.DynamicElements[c.ButtonID], added...)
	node.Values = initialValues(node.Values, added)

	s.result.NodeID = node.ID
	s.result.Elements = added

	return nil
}

// RemoveDynamicElement clears the value of a materialized element. The element stays
// in its button's list.
type RemoveDynamicElement struct {
	NodeID    string `json:"-"`
	ButtonID  string `json:"-"`
	ElementID string `json:"-"`
}

func (RemoveDynamicElement) Name() string { return "RemoveDynamicElement" }

func (c RemoveDynamicElement) apply(s *state) error {
	node, err := s.node(c.Name(), c.NodeID)
	if err != nil {
		return err
	}

	if _, ok := models.FindElement(node.DynamicElements[c.ButtonID], c.ElementID); !ok {
		return &CommandError{Command: c.Name(), NodeID: c.NodeID, Err: ErrElementNotFound}
	}

	models.Walk(node.DynamicElements[c.ButtonID], func(el *models.UIElement) bool {
		if el.ID == c.ElementID {
			models.Walk([]models.UIElement{*el}, func(inner *models.UIElement) bool {
				delete(node.Values, inner.ID)

				return true
			})

			return false
		}

		return true
	})

	s.result.NodeID = node.ID

	return nil
}
