// Package elementtree stores a UI element tree in an arena so nested follow-up edits
// touch one slot instead of rebuilding every ancestor.
package elementtree

import (
	"errors"
	"fmt"
	"slices"

	"github.com/dukex/flowbuilder/pkg/models"
)

var (
	ErrElementNotFound  = errors.New("element not found")
	ErrFollowUpNotFound = errors.New("follow-up not found")
	ErrDuplicateID      = errors.New("element id already exists in tree")
	ErrInvalidPosition  = errors.New("invalid insert position")
)

const root = -1

type followUp struct {
	value    models.FollowUpValue
	children []int
}

type slot struct {
	element   models.UIElement
	parent    int
	followUps []followUp
	removed   bool
}

// Tree is an arena-backed element tree. Elements are addressed by id. Removed slots
// stay in the arena until the tree is rebuilt.
type Tree struct {
	slots []slot
	roots []int
	index map[string]int
}

// Build copies elements into a new arena.
func Build(elements []models.UIElement) *Tree {
	t := &Tree{index: make(map[string]int)}
	t.roots = t.load(elements, root)

	return t
}

func (t *Tree) load(elements []models.UIElement, parent int) []int {
	ids := make([]int, 0, len(elements))

	for _, el := range elements {
		ids = append(ids, t.add(el, parent))
	}

	return ids
}

func (t *Tree) add(el models.UIElement, parent int) int {
	nested := el.ConditionalFollowUps
	el = el.Clone()
	el.ConditionalFollowUps = nil

	pos := len(t.slots)
	t.slots = append(t.slots, slot{element: el, parent: parent})
	t.index[el.ID] = pos

	if len(nested) > 0 {
		followUps := make([]followUp, len(nested))
		for i, f := range nested {
			followUps[i] = followUp{value: f.ConditionValue, children: t.load(f.Elements, pos)}
		}

		t.slots[pos].followUps = followUps
	}

	return pos
}

func (t *Tree) lookup(id string) (int, error) {
	pos, ok := t.index[id]
	if !ok || t.slots[pos].removed {
		return 0, fmt.Errorf("%w: %s", ErrElementNotFound, id)
	}

	return pos, nil
}

// Len returns the number of live elements.
func (t *Tree) Len() int {
	return len(t.index)
}

// Get returns a copy of the element without its follow-up subtrees.
func (t *Tree) Get(id string) (models.UIElement, bool) {
	pos, err := t.lookup(id)
	if err != nil {
		return models.UIElement{}, false
	}

	return t.slots[pos].element, true
}

// Parent returns the id of the element owning id's follow-up, or "" for top-level elements.
func (t *Tree) Parent(id string) (string, error) {
	pos, err := t.lookup(id)
	if err != nil {
		return "", err
	}

	parent := t.slots[pos].parent
	if parent == root {
		return "", nil
	}

	return t.slots[parent].element.ID, nil
}

// Depth returns 0 for top-level elements and n for elements nested n follow-ups deep.
func (t *Tree) Depth(id string) (int, error) {
	pos, err := t.lookup(id)
	if err != nil {
		return 0, err
	}

	depth := 0
	for p := t.slots[pos].parent; p != root; p = t.slots[p].parent {
		depth++
	}

	return depth, nil
}

// Update applies fn to the element in place. Follow-up subtrees are managed through
// AddFollowUp and RemoveFollowUp; changes fn makes to ConditionalFollowUps are ignored.
func (t *Tree) Update(id string, fn func(*models.UIElement)) error {
	pos, err := t.lookup(id)
	if err != nil {
		return err
	}

	el := &t.slots[pos].element
	fn(el)
	el.ConditionalFollowUps = nil

	if el.ID != id {
		if _, taken := t.index[el.ID]; taken {
			dup := el.ID
			el.ID = id

			return fmt.Errorf("%w: %s", ErrDuplicateID, dup)
		}

		delete(t.index, id)
		t.index[el.ID] = pos
	}

	return nil
}

// Position addresses a child list: the top level when ParentID is empty, otherwise
// the follow-up of ParentID keyed by Value.
type Position struct {
	ParentID string
	Value    models.FollowUpValue
	Index    int
}

// Insert places el (and any follow-ups it carries) at pos. An index past the end appends.
func (t *Tree) Insert(pos Position, el models.UIElement) error {
	ids := collectIDs([]models.UIElement{el})
	for _, id := range ids {
		if _, taken := t.index[id]; taken {
			return fmt.Errorf("%w: %s", ErrDuplicateID, id)
		}
	}

	if len(ids) != len(uniq(ids)) {
		return fmt.Errorf("%w: %s", ErrDuplicateID, ids[0])
	}

	if pos.Index < 0 {
		return fmt.Errorf("%w: negative index", ErrInvalidPosition)
	}

	list, parent, err := t.children(pos)
	if err != nil {
		return err
	}

	added := t.add(el, parent)
	index := min(pos.Index, len(*list))
	*list = slices.Insert(*list, index, added)

	return nil
}

func (t *Tree) children(pos Position) (*[]int, int, error) {
	if pos.ParentID == "" {
		return &t.roots, root, nil
	}

	parent, err := t.lookup(pos.ParentID)
	if err != nil {
		return nil, 0, err
	}

	for i := range t.slots[parent].followUps {
		f := &t.slots[parent].followUps[i]
		if f.value == pos.Value {
			return &f.children, parent, nil
		}
	}

	return nil, 0, fmt.Errorf("%w: %s=%s", ErrFollowUpNotFound, pos.ParentID, pos.Value)
}

// Remove deletes the element and its whole follow-up subtree.
func (t *Tree) Remove(id string) error {
	pos, err := t.lookup(id)
	if err != nil {
		return err
	}

	parent := t.slots[pos].parent
	if parent == root {
		t.roots = slices.DeleteFunc(t.roots, func(p int) bool { return p == pos })
	} else {
		for i := range t.slots[parent].followUps {
			f := &t.slots[parent].followUps[i]
			f.children = slices.DeleteFunc(f.children, func(p int) bool { return p == pos })
		}
	}

	t.drop(pos)

	return nil
}

func (t *Tree) drop(pos int) {
	s := &t.slots[pos]
	s.removed = true
	delete(t.index, s.element.ID)

	for _, f := range s.followUps {
		for _, child := range f.children {
			t.drop(child)
		}
	}
}

// SubtreeIDs returns id followed by the ids of every element nested under it.
func (t *Tree) SubtreeIDs(id string) []string {
	pos, err := t.lookup(id)
	if err != nil {
		return nil
	}

	var out []string

	var visit func(int)

	visit = func(p int) {
		out = append(out, t.slots[p].element.ID)

		for _, f := range t.slots[p].followUps {
			for _, child := range f.children {
				visit(child)
			}
		}
	}

	visit(pos)

	return out
}

// AddFollowUp enables a follow-up on id for value. Adding an existing value is a no-op.
func (t *Tree) AddFollowUp(id string, value models.FollowUpValue) error {
	pos, err := t.lookup(id)
	if err != nil {
		return err
	}

	s := &t.slots[pos]
	if !s.element.Type.SupportsFollowUps() {
		return fmt.Errorf("%w: %s", models.ErrFollowUpUnsupported, s.element.Type)
	}

	for _, f := range s.followUps {
		if f.value == value {
			return nil
		}
	}

	s.followUps = append(s.followUps, followUp{value: value})
	s.element.HasConditionalFollowUps = true

	return nil
}

// FollowUpIDs returns the ids of every element under the follow-up of id keyed by
// value, nested follow-ups included.
func (t *Tree) FollowUpIDs(id string, value models.FollowUpValue) []string {
	pos, err := t.lookup(id)
	if err != nil {
		return nil
	}

	var out []string

	for _, f := range t.slots[pos].followUps {
		if f.value != value {
			continue
		}

		for _, child := range f.children {
			out = append(out, t.SubtreeIDs(t.slots[child].element.ID)...)
		}
	}

	return out
}

// RemoveFollowUp deletes the follow-up keyed by value together with its elements.
func (t *Tree) RemoveFollowUp(id string, value models.FollowUpValue) error {
	pos, err := t.lookup(id)
	if err != nil {
		return err
	}

	s := &t.slots[pos]

	for i, f := range s.followUps {
		if f.value != value {
			continue
		}

		for _, child := range f.children {
			t.drop(child)
		}

		s = &t.slots[pos]
		s.followUps = slices.Delete(s.followUps, i, i+1)

		if len(s.followUps) == 0 {
			s.element.HasConditionalFollowUps = false
		}

		return nil
	}

	return fmt.Errorf("%w: %s=%s", ErrFollowUpNotFound, id, value)
}

// Elements materializes the tree back into nested UIElement values.
func (t *Tree) Elements() []models.UIElement {
	return t.materialize(t.roots)
}

func (t *Tree) materialize(list []int) []models.UIElement {
	out := make([]models.UIElement, 0, len(list))

	for _, pos := range list {
		s := t.slots[pos]
		el := s.element.Clone()

		if len(s.followUps) > 0 {
			el.ConditionalFollowUps = make([]models.ConditionalFollowUp, len(s.followUps))
			for i, f := range s.followUps {
				el.ConditionalFollowUps[i] = models.ConditionalFollowUp{
					ConditionValue: f.value,
					Elements:       t.materialize(f.children),
				}
			}
		}

		out = append(out, el)
	}

	return out
}

func collectIDs(elements []models.UIElement) []string {
	var ids []string

	models.Walk(elements, func(el *models.UIElement) bool {
		ids = append(ids, el.ID)

		return true
	})

	return ids
}

func uniq(ids []string) []string {
	out := slices.Clone(ids)
	slices.Sort(out)

	return slices.Compact(out)
}
