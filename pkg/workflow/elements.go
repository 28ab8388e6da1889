package workflow

import (
	"github.com/dukex/flowbuilder/pkg/conditions"
	"github.com/dukex/flowbuilder/pkg/elementtree"
	"github.com/dukex/flowbuilder/pkg/models"
)

// ElementOp names an edit of a node's local element tree.
type ElementOp string

const (
	ElementOpUpdate         ElementOp = "update"
	ElementOpInsert         ElementOp = "insert"
	ElementOpRemove         ElementOp = "remove"
	ElementOpAddFollowUp    ElementOp = "add_follow_up"
	ElementOpRemoveFollowUp ElementOp = "remove_follow_up"
)

// ElementEdit is one edit of a node's local element tree. Which fields are read
// depends on Op.
type ElementEdit struct {
	Op ElementOp `json:"op" validate:"required,oneof=update insert remove add_follow_up remove_follow_up"`
	// ElementID is the element updated, removed, or owning the follow-up.
	ElementID string `json:"elementId,omitempty"`
	// Element carries the new attributes (update) or the element to insert.
	Element *models.UIElement `json:"element,omitempty"`
	// ParentID and Value address the follow-up list an insert goes into; an empty
	// ParentID inserts at the top level.
	ParentID string               `json:"parentId,omitempty"`
	Value    models.FollowUpValue `json:"value"`
	Index    int                  `json:"index,omitempty"`
}

// UpdateElements applies edits to a node's local element tree. Edits only affect
// this node; the originating template is untouched. Values of removed elements are
// dropped. The resulting tree must validate.
type UpdateElements struct {
	NodeID string        `json:"-"`
	Edits  []ElementEdit `json:"edits" validate:"required,min=1,dive"`
}

func (UpdateElements) Name() string { return "UpdateElements" }

func (c UpdateElements) apply(s *state) error {
	node, err := s.node(c.Name(), c.NodeID)
	if err != nil {
		return err
	}

	wasCondition := node.IsCondition()
	tree := elementtree.Build(node.Elements)

	for _, edit := range c.Edits {
		if err := applyEdit(tree, node, edit); err != nil {
			return &CommandError{Command: c.Name(), NodeID: c.NodeID, Err: err}
		}
	}

	elements := tree.Elements()
	if err := models.ValidateTree(elements); err != nil {
		return &CommandError{Command: c.Name(), NodeID: c.NodeID, Err: err}
	}

	node.Elements = elements

	switch {
	case wasCondition && !node.IsCondition():
		return &CommandError{Command: c.Name(), NodeID: c.NodeID, Err: ErrUseBranchCommands}
	case !wasCondition && node.IsCondition():
		node.ConditionNumber = nextConditionNumber(s.wf)
		setBranches(node, conditions.AddBranch(nil, node.ConditionNumber, branchTaken(s.wf)))
	}

	s.result.NodeID = node.ID

	return nil
}

func applyEdit(tree *elementtree.Tree, node *models.WorkflowNode, edit ElementEdit) error {
	switch edit.Op {
	case ElementOpUpdate:
		if edit.Element == nil {
			return models.ErrInvalidElement
		}

		return tree.Update(edit.ElementID, func(el *models.UIElement) {
			hasFollowUps := el.HasConditionalFollowUps
			*el = edit.Element.Clone()
			el.HasConditionalFollowUps = hasFollowUps
		})
	case ElementOpInsert:
		if edit.Element == nil {
			return models.ErrInvalidElement
		}

		return tree.Insert(elementtree.Position{ParentID: edit.ParentID, Value: edit.Value, Index: edit.Index}, *edit.Element)
	case ElementOpRemove:
		removed := tree.SubtreeIDs(edit.ElementID)
		if err := tree.Remove(edit.ElementID); err != nil {
			return err
		}

		forget(node, removed)

		return nil
	case ElementOpAddFollowUp:
		return tree.AddFollowUp(edit.ElementID, edit.Value)
	case ElementOpRemoveFollowUp:
		removed := tree.FollowUpIDs(edit.ElementID, edit.Value)
		if err := tree.RemoveFollowUp(edit.ElementID, edit.Value); err != nil {
			return err
		}

		forget(node, removed)

		return nil
	default:
		return models.ErrInvalidElement
	}
}

// forget drops the values of elements that left the node. A removed button takes
// its dynamic list with it, and the values of everything in that list.
func forget(node *models.WorkflowNode, ids []string) {
	for _, id := range ids {
		delete(node.Values, id)

		added, ok := node.DynamicElements[id]
		if !ok {
			continue
		}

		delete(node.DynamicElements, id)

		var nested []string

		models.Walk(added, func(el *models.UIElement) bool {
			nested = append(nested, el.ID)

			return true
		})

		forget(node, nested)
	}
}
