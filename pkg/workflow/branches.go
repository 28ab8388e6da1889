package workflow

import (
	"maps"
	"slices"
	"strings"

	"github.com/dukex/flowbuilder/pkg/conditions"
	"github.com/dukex/flowbuilder/pkg/models"
)

// AddBranch appends a new branch to a condition node.
type AddBranch struct {
	NodeID string `json:"-"`
}

func (AddBranch) Name() string { return "AddBranch" }

func (c AddBranch) apply(s *state) error {
	node, err := s.node(c.Name(), c.NodeID)
	if err != nil {
		return err
	}

	if !node.IsCondition() {
		return &CommandError{Command: c.Name(), NodeID: c.NodeID, Err: ErrNotConditionNode}
	}

	branches := conditions.AddBranch(Branches(node), node.ConditionNumber, branchTaken(s.wf))
	setBranches(node, branches)

	s.result.NodeID = node.ID
	s.result.Branch = branches[len(branches)-1].Name

	return nil
}

// RenameBranch renames a branch everywhere it is referenced: the branch itself, the
// owning node's branch list and summaries, and every node assigned to it.
type RenameBranch struct {
	OldName string `json:"oldName" validate:"required"`
	NewName string `json:"newName" validate:"required"`
}

func (RenameBranch) Name() string { return "RenameBranch" }

func (c RenameBranch) apply(s *state) error {
	newName := strings.TrimSpace(c.NewName)
	if newName == "" || strings.EqualFold(newName, models.MainBranch) {
		return &CommandError{Command: c.Name(), Err: ErrInvalidBranchName}
	}

	if newName == c.OldName {
		return nil
	}

	if _, ok := branchOwner(s.wf, c.OldName); !ok {
		return &CommandError{Command: c.Name(), Err: ErrBranchNotFound}
	}

	if branchTaken(s.wf)(newName) {
		return &CommandError{Command: c.Name(), Err: ErrBranchNameTaken}
	}

	for _, node := range s.wf.Nodes {
		renameIn(node, c.OldName, newName)
	}

	s.result.Branch = newName

	return nil
}

func renameIn(node *models.WorkflowNode, oldName, newName string) {
	if node.Branch == oldName {
		node.Branch = newName
	}

	if !slices.Contains(node.Branches, oldName) {
		return
	}

	branches := Branches(node)
	for i := range branches {
		if branches[i].Name == oldName {
			branches[i].Name = newName
		}
	}

	setBranches(node, branches)
}

// UpdateBranch replaces the logic and groups of one branch of a condition node.
type UpdateBranch struct {
	NodeID string                 `json:"-"`
	Branch models.ConditionBranch `json:"branch"`
}

func (UpdateBranch) Name() string { return "UpdateBranch" }

func (c UpdateBranch) apply(s *state) error {
	node, err := s.node(c.Name(), c.NodeID)
	if err != nil {
		return err
	}

	branches := Branches(node)

	i := slices.IndexFunc(branches, func(b models.ConditionBranch) bool { return b.Name == c.Branch.Name })
	if i < 0 {
		return &CommandError{Command: c.Name(), NodeID: c.NodeID, Err: ErrBranchNotFound}
	}

	updated := c.Branch.Clone()
	updated.ConditionNodeNumber = node.ConditionNumber
	updated.OuterLogic = updated.OuterLogic.Normalize()

	for g := range updated.Groups {
		updated.Groups[g].GroupLogic = updated.Groups[g].GroupLogic.Normalize()
	}

	branches[i] = updated
	setBranches(node, branches)

	s.result.NodeID = node.ID
	s.result.Branch = updated.Name

	return nil
}

// DeleteBranches deletes the named branches, every node on them and, recursively,
// the branches and nodes of condition nodes among those.
type DeleteBranches struct {
	Names []string `json:"names" validate:"required,min=1"`
}

func (DeleteBranches) Name() string { return "DeleteBranches" }

func (c DeleteBranches) apply(s *state) error {
	var known []string

	for _, name := range c.Names {
		if _, ok := branchOwner(s.wf, name); ok {
			known = append(known, name)
		}
	}

	if len(known) == 0 {
		return &CommandError{Command: c.Name(), Err: ErrBranchNotFound}
	}

	s.result.RemovedNodes = deleteBranches(s.wf, known)

	return nil
}

// deleteBranches removes every node reachable from names, strips the deleted branch
// names from the surviving nodes and finally drops nodes left on a branch no
// surviving condition node declares. It returns the removed node ids.
func deleteBranches(wf *models.Workflow, names []string) []string {
	doomed := Descendants(wf, names)

	deleted := make(map[string]struct{}, len(names))
	for _, name := range names {
		deleted[name] = struct{}{}
	}

	for _, node := range wf.Nodes {
		if slices.Contains(doomed, node.ID) {
			for _, name := range node.Branches {
				deleted[name] = struct{}{}
			}
		}
	}

	wf.Nodes = slices.DeleteFunc(wf.Nodes, func(n *models.WorkflowNode) bool {
		return slices.Contains(doomed, n.ID)
	})

	for _, node := range wf.Nodes {
		clean(node, deleted)
	}

	return append(doomed, dropOrphans(wf)...)
}

func clean(node *models.WorkflowNode, deleted map[string]struct{}) {
	isDeleted := func(name string) bool {
		_, ok := deleted[name]

		return ok
	}

	if slices.ContainsFunc(node.Branches, isDeleted) {
		branches := slices.DeleteFunc(Branches(node), func(b models.ConditionBranch) bool {
			return isDeleted(b.Name)
		})
		setBranches(node, branches)
	}

	node.Branches = slices.DeleteFunc(node.Branches, isDeleted)
	maps.DeleteFunc(node.BranchConditions, func(name, _ string) bool { return isDeleted(name) })
}

// dropOrphans removes nodes whose branch is neither main nor declared by a surviving
// condition node, repeating until the document is stable.
func dropOrphans(wf *models.Workflow) []string {
	var removed []string

	for {
		valid := validBranches(wf)

		var orphans []string

		for _, node := range wf.Nodes {
			if _, ok := valid[node.EffectiveBranch()]; !ok {
				orphans = append(orphans, node.ID)
			}
		}

		if len(orphans) == 0 {
			return removed
		}

		wf.Nodes = slices.DeleteFunc(wf.Nodes, func(n *models.WorkflowNode) bool {
			return slices.Contains(orphans, n.ID)
		})
		removed = append(removed, orphans...)
	}
}
