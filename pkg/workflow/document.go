// Package workflow is the workflow document model: nodes, their branch assignment
// and the commands that edit a document while keeping branch names unique and
// branch references consistent.
package workflow

import (
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/dukex/flowbuilder/pkg/conditions"
	"github.com/dukex/flowbuilder/pkg/materializer"
	"github.com/dukex/flowbuilder/pkg/models"
)

// TemplateLookup finds an activity template by id.
type TemplateLookup func(id string) (*models.ActivityTemplate, bool)

// Env carries the collaborators some commands need.
type Env struct {
	Templates    TemplateLookup
	Materializer *materializer.Materializer
	NewNodeID    func() string
	Now          func() time.Time
}

func (e Env) withDefaults() Env {
	if e.Materializer == nil {
		e.Materializer = materializer.New()
	}

	if e.NewNodeID == nil {
		e.NewNodeID = uuid.NewString
	}

	if e.Now == nil {
		e.Now = time.Now
	}

	if e.Templates == nil {
		e.Templates = func(string) (*models.ActivityTemplate, bool) { return nil, false }
	}

	return e
}

// Result describes what a command changed.
type Result struct {
	// NodeID is the node created or edited.
	NodeID string `json:"nodeId,omitempty"`
	// Elements are the elements a button click materialized.
	Elements []models.UIElement `json:"elements,omitempty"`
	// RemovedNodes lists every node deleted, including cascades.
	RemovedNodes []string `json:"removedNodes,omitempty"`
	// Branch is the branch created or renamed.
	Branch string `json:"branch,omitempty"`
}

// Command is one edit of a workflow document.
type Command interface {
	Name() string
	apply(s *state) error
}

type state struct {
	wf     *models.Workflow
	env    Env
	result Result
}

// New returns an empty workflow.
func New(name, description string, now time.Time) *models.Workflow {
	return &models.Workflow{
		ID:                  uuid.NewString(),
		Name:                name,
		Description:         description,
		Nodes:               []*models.WorkflowNode{},
		NextConditionNumber: 1,
		CreatedAt:           now,
		UpdatedAt:           now,
	}
}

// Apply runs cmd against a copy of wf and returns the edited copy. wf itself is never
// modified, so on error the caller keeps the previous document.
func Apply(wf *models.Workflow, cmd Command, env Env) (*models.Workflow, Result, error) {
	s := &state{wf: wf.Clone(), env: env.withDefaults()}

	if err := cmd.apply(s); err != nil {
		return wf, Result{}, err
	}

	s.wf.UpdatedAt = s.env.Now().UTC()

	return s.wf, s.result, nil
}

func (s *state) node(cmd, id string) (*models.WorkflowNode, error) {
	node, ok := s.wf.Node(id)
	if !ok {
		return nil, &CommandError{Command: cmd, NodeID: id, Err: ErrNodeNotFound}
	}

	return node, nil
}

// ConditionModule returns the conditions-module element of a condition node.
func ConditionModule(node *models.WorkflowNode) (*models.UIElement, bool) {
	var found *models.UIElement

	models.Walk(node.Elements, func(el *models.UIElement) bool {
		if el.Type == models.ElementConditionsModule {
			found = el

			return false
		}

		return true
	})

	return found, found != nil
}

// Branches returns the condition branches a node owns, in display order.
func Branches(node *models.WorkflowNode) []models.ConditionBranch {
	module, ok := ConditionModule(node)
	if !ok {
		return nil
	}

	set, _ := node.Values[module.ID].(models.BranchSet)

	return set.Branches
}

func setBranches(node *models.WorkflowNode, branches []models.ConditionBranch) {
	module, ok := ConditionModule(node)
	if !ok {
		return
	}

	if node.Values == nil {
		node.Values = models.Values{}
	}

	node.Values[module.ID] = models.BranchSet{Branches: branches}

	names := make([]string, 0, len(branches))
	for _, b := range branches {
		names = append(names, b.Name)
	}

	node.Branches = names
	node.BranchConditions = conditions.SummarizeAll(branches, module)
}

// nextConditionNumber hands out a number no condition node of wf has used. Documents
// saved before the counter existed start above the highest number in use.
func nextConditionNumber(wf *models.Workflow) int {
	n := max(wf.NextConditionNumber, 1)

	for _, node := range wf.Nodes {
		n = max(n, node.ConditionNumber+1)
	}

	wf.NextConditionNumber = n + 1

	return n
}

// branchOwner returns the condition node owning the branch name.
func branchOwner(wf *models.Workflow, name string) (*models.WorkflowNode, bool) {
	for _, node := range wf.Nodes {
		if slices.Contains(node.Branches, name) {
			return node, true
		}
	}

	return nil, false
}

func branchTaken(wf *models.Workflow) func(string) bool {
	names := wf.BranchNames()

	return func(name string) bool {
		_, ok := names[name]

		return ok || name == models.MainBranch
	}
}

// Descendants returns the ids of every node reachable from the given branch names,
// following the branches of nested condition nodes.
func Descendants(wf *models.Workflow, branches []string) []string {
	pending := slices.Clone(branches)
	seen := make(map[string]struct{})

	var out []string

	for len(pending) > 0 {
		name := pending[0]
		pending = pending[1:]

		if _, done := seen[name]; done {
			continue
		}

		seen[name] = struct{}{}

		for _, node := range wf.Nodes {
			if node.EffectiveBranch() != name || slices.Contains(out, node.ID) {
				continue
			}

			out = append(out, node.ID)
			pending = append(pending, node.Branches...)
		}
	}

	return out
}

// validBranches is main plus every branch of a condition node.
func validBranches(wf *models.Workflow) map[string]struct{} {
	valid := map[string]struct{}{models.MainBranch: {}}

	for _, node := range wf.Nodes {
		if node.IsCondition() {
			for _, name := range node.Branches {
				valid[name] = struct{}{}
			}
		}
	}

	return valid
}

// initialValues seeds a value bag from the elements' default values.
func initialValues(values models.Values, elements []models.UIElement) models.Values {
	if values == nil {
		values = models.Values{}
	}

	models.Walk(elements, func(el *models.UIElement) bool {
		if el.DefaultValue != nil {
			if _, set := values[el.ID]; !set {
				values[el.ID] = models.CloneValue(el.DefaultValue)
			}
		}

		return true
	})

	return values
}
