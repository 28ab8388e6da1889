package models

import "time"

// MainBranch is the branch every node belongs to unless a condition node routes it elsewhere.
const MainBranch = "main"

// Workflow is an ordered chain of nodes built from activity templates.
type Workflow struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"                   validate:"required,min=1"`
	Description string          `json:"description,omitempty"`
	Nodes       []*WorkflowNode `json:"nodes"`
	// NextConditionNumber is the number the next condition node receives. Numbers are
	// never reused or recomputed from node position.
	NextConditionNumber int        `json:"next_condition_number"`
	Owner               string     `json:"owner,omitempty"`
	CreatedAt           time.Time  `json:"created_at"`
	UpdatedAt           time.Time  `json:"updated_at"`
	DeletedAt           *time.Time `json:"deleted_at,omitempty"`
}

// Clone returns a deep copy of the workflow.
func (w *Workflow) Clone() *Workflow {
	out := *w
	if w.Nodes != nil {
		out.Nodes = make([]*WorkflowNode, len(w.Nodes))
		for i, node := range w.Nodes {
			out.Nodes[i] = node.Clone()
		}
	}

	if w.DeletedAt != nil {
		deletedAt := *w.DeletedAt
		out.DeletedAt = &deletedAt
	}

	return &out
}

// Node returns the node with the given id.
func (w *Workflow) Node(id string) (*WorkflowNode, bool) {
	for _, node := range w.Nodes {
		if node.ID == id {
			return node, true
		}
	}

	return nil, false
}

// ConditionNodes returns the condition nodes in document order.
func (w *Workflow) ConditionNodes() []*WorkflowNode {
	var out []*WorkflowNode

	for _, node := range w.Nodes {
		if node.IsCondition() {
			out = append(out, node)
		}
	}

	return out
}

// BranchNames returns every branch name declared by a condition node.
func (w *Workflow) BranchNames() map[string]struct{} {
	names := make(map[string]struct{})

	for _, node := range w.Nodes {
		for _, name := range node.Branches {
			names[name] = struct{}{}
		}
	}

	return names
}
