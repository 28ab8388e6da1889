// Package models defines the core domain models of the workflow builder: activity
// templates, their UI element trees, and the workflow documents built from them.
package models

import (
	"errors"
	"fmt"
	"slices"
)

// ElementType identifies the variant of a UIElement.
type ElementType string

const (
	ElementText                    ElementType = "text"
	ElementTextarea                ElementType = "textarea"
	ElementDropdown                ElementType = "dropdown"
	ElementRadio                   ElementType = "radio"
	ElementCheckbox                ElementType = "checkbox"
	ElementToggle                  ElementType = "toggle"
	ElementButton                  ElementType = "button"
	ElementFileUpload              ElementType = "file-upload"
	ElementNumber                  ElementType = "number"
	ElementDate                    ElementType = "date"
	ElementSectionDivider          ElementType = "section-divider"
	ElementTextBlock               ElementType = "text-block"
	ElementScreeningQuestions      ElementType = "screening-questions"
	ElementConditionsModule        ElementType = "conditions-module"
	ElementEventsModule            ElementType = "events-module"
	ElementTriggerConditionsModule ElementType = "trigger-conditions-module"
)

// ElementTypes lists every known element variant.
var ElementTypes = []ElementType{
	ElementText,
	ElementTextarea,
	ElementDropdown,
	ElementRadio,
	ElementCheckbox,
	ElementToggle,
	ElementButton,
	ElementFileUpload,
	ElementNumber,
	ElementDate,
	ElementSectionDivider,
	ElementTextBlock,
	ElementScreeningQuestions,
	ElementConditionsModule,
	ElementEventsModule,
	ElementTriggerConditionsModule,
}

// Valid reports whether t is a known element variant.
func (t ElementType) Valid() bool {
	return slices.Contains(ElementTypes, t)
}

// SupportsFollowUps reports whether elements of this type may own conditional follow-ups.
func (t ElementType) SupportsFollowUps() bool {
	switch t {
	case ElementDropdown, ElementToggle, ElementRadio, ElementCheckbox:
		return true
	default:
		return false
	}
}

// SupportsHalfSize reports whether the half-width layout hint applies to this type.
func (t ElementType) SupportsHalfSize() bool {
	switch t {
	case ElementText, ElementDropdown, ElementDate, ElementNumber:
		return true
	default:
		return false
	}
}

// HasOptions reports whether the type is a choice type driven by Options.
func (t ElementType) HasOptions() bool {
	switch t {
	case ElementDropdown, ElementRadio, ElementCheckbox:
		return true
	default:
		return false
	}
}

// CarriesValue reports whether the element holds a user value. Dividers, text blocks
// and buttons are presentational only.
func (t ElementType) CarriesValue() bool {
	switch t {
	case ElementSectionDivider, ElementTextBlock, ElementButton:
		return false
	default:
		return true
	}
}

// IsConditionModule reports whether the type edits condition branches.
func (t ElementType) IsConditionModule() bool {
	return t == ElementConditionsModule || t == ElementTriggerConditionsModule
}

// Tab is the side-panel tab an element is shown on.
type Tab string

const (
	TabConfiguration Tab = "Configuration"
	TabAdvanced      Tab = "Advanced"
	TabUserInterface Tab = "User Interface"
)

// IconPosition places a button icon relative to its label.
type IconPosition string

const (
	IconPositionLeft  IconPosition = "left"
	IconPositionRight IconPosition = "right"
)

// Option is a value/label pair used by condition modules for property and operator pickers.
type Option struct {
	Value string `json:"value" validate:"required"`
	Label string `json:"label"`
}

// EventSummary is one entry displayed by an events-module element.
type EventSummary struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Date        string `json:"date,omitempty"`
}

// ConditionalFollowUp maps one concrete value of the owning element to a nested element subtree.
type ConditionalFollowUp struct {
	ConditionValue FollowUpValue `json:"conditionValue"`
	Elements       []UIElement   `json:"elements"`
}

// UIElement is a single schema-driven form element. Type selects the variant; the
// variant-specific attributes are ignored (and rejected by Validate) on other types.
type UIElement struct {
	ID           string      `json:"id"                     validate:"required"`
	Type         ElementType `json:"type"                   validate:"required"`
	Label        string      `json:"label"`
	Required     bool        `json:"required,omitempty"`
	Placeholder  string      `json:"placeholder,omitempty"`
	DefaultValue FieldValue  `json:"-"`
	Tab          Tab         `json:"tab,omitempty"          validate:"omitempty,oneof=Configuration Advanced 'User Interface'"`
	HalfSize     bool        `json:"halfSize,omitempty"`

	// dropdown, radio, checkbox
	Options     []string `json:"options,omitempty"`
	Multiselect bool     `json:"multiselect,omitempty"`

	// number, date
	Min  *float64 `json:"min,omitempty"`
	Max  *float64 `json:"max,omitempty"`
	Step *float64 `json:"step,omitempty"`

	// button
	HasIcon          bool         `json:"hasIcon,omitempty"`
	Icon             IconName     `json:"icon,omitempty"`
	IconPosition     IconPosition `json:"iconPosition,omitempty"`
	AddsElements     bool         `json:"addsElements,omitempty"`
	AddNewElements   bool         `json:"addNewElements,omitempty"`
	AddedElements    []UIElement  `json:"addedElements,omitempty"`
	ElementReference string       `json:"elementReference,omitempty"`

	// text-block, section-divider
	Text string `json:"text,omitempty"`

	// events-module
	Events []EventSummary `json:"events,omitempty"`

	// conditions-module, trigger-conditions-module
	PropertyOptions []Option `json:"propertyOptions,omitempty"`
	OperatorOptions []Option `json:"operatorOptions,omitempty"`

	HasConditionalFollowUps bool                  `json:"hasConditionalFollowUps,omitempty"`
	ConditionalFollowUps    []ConditionalFollowUp `json:"conditionalFollowUps,omitempty"`
}

// EffectiveTab returns the element's tab, defaulting to Configuration.
func (e *UIElement) EffectiveTab() Tab {
	if e.Tab == "" {
		return TabConfiguration
	}

	return e.Tab
}

// DisplayText returns the text shown for text blocks and dividers, falling back to the label.
func (e *UIElement) DisplayText() string {
	if e.Text != "" {
		return e.Text
	}

	return e.Label
}

var (
	ErrInvalidElementType  = errors.New("invalid element type")
	ErrInvalidElement      = errors.New("invalid element")
	ErrDuplicateElementID  = errors.New("duplicate element id")
	ErrFollowUpUnsupported = errors.New("element type cannot own conditional follow-ups")
)

// ElementError describes a schema violation on one element.
type ElementError struct {
	ElementID string
	Reason    string
	Err       error
}

func (e *ElementError) Error() string {
	return fmt.Sprintf("element %q: %s", e.ElementID, e.Reason)
}

func (e *ElementError) Unwrap() error {
	return e.Err
}

// Validate checks the per-variant attribute rules of a single element. It does not
// descend into follow-ups; use ValidateTree for whole trees.
func (e *UIElement) Validate() error {
	if e.ID == "" {
		return &ElementError{ElementID: e.ID, Reason: "id is required", Err: ErrInvalidElement}
	}

	if !e.Type.Valid() {
		return &ElementError{ElementID: e.ID, Reason: fmt.Sprintf("unknown type %q", e.Type), Err: ErrInvalidElementType}
	}

	switch e.Tab {
	case "", TabConfiguration, TabAdvanced, TabUserInterface:
	default:
		return &ElementError{ElementID: e.ID, Reason: fmt.Sprintf("unknown tab %q", e.Tab), Err: ErrInvalidElement}
	}

	if e.HalfSize && !e.Type.SupportsHalfSize() {
		return &ElementError{ElementID: e.ID, Reason: "halfSize is only valid for text, dropdown, date and number", Err: ErrInvalidElement}
	}

	if e.Multiselect && e.Type != ElementDropdown {
		return &ElementError{ElementID: e.ID, Reason: "multiselect is only valid for dropdown", Err: ErrInvalidElement}
	}

	if len(e.Options) > 0 && !e.Type.HasOptions() {
		return &ElementError{ElementID: e.ID, Reason: "options are only valid for dropdown, radio and checkbox", Err: ErrInvalidElement}
	}

	if (e.Type == ElementDropdown || e.Type == ElementRadio) && len(e.Options) == 0 {
		return &ElementError{ElementID: e.ID, Reason: "choice elements need at least one option", Err: ErrInvalidElement}
	}

	if e.Min != nil && e.Max != nil && *e.Min > *e.Max {
		return &ElementError{ElementID: e.ID, Reason: "min is greater than max", Err: ErrInvalidElement}
	}

	if e.Step != nil && *e.Step <= 0 {
		return &ElementError{ElementID: e.ID, Reason: "step must be positive", Err: ErrInvalidElement}
	}

	if e.Icon != "" {
		if _, ok := LookupIcon(string(e.Icon)); !ok {
			return &ElementError{ElementID: e.ID, Reason: fmt.Sprintf("unknown icon %q", e.Icon), Err: ErrUnknownIcon}
		}
	}

	if e.Type != ElementButton && (e.AddsElements || len(e.AddedElements) > 0 || e.ElementReference != "") {
		return &ElementError{ElementID: e.ID, Reason: "element materialization is only valid for buttons", Err: ErrInvalidElement}
	}

	if e.AddsElements && e.AddNewElements && len(e.AddedElements) == 0 {
		return &ElementError{ElementID: e.ID, Reason: "addNewElements requires addedElements", Err: ErrInvalidElement}
	}

	if e.AddsElements && !e.AddNewElements && e.ElementReference == "" {
		return &ElementError{ElementID: e.ID, Reason: "reference mode requires elementReference", Err: ErrInvalidElement}
	}

	if (e.HasConditionalFollowUps || len(e.ConditionalFollowUps) > 0) && !e.Type.SupportsFollowUps() {
		return &ElementError{ElementID: e.ID, Reason: string(e.Type) + " cannot own follow-ups", Err: ErrFollowUpUnsupported}
	}

	if e.DefaultValue != nil {
		if err := CheckValueKind(e, e.DefaultValue); err != nil {
			return &ElementError{ElementID: e.ID, Reason: err.Error(), Err: ErrInvalidElement}
		}
	}

	return nil
}

// ValidateTree validates every element of the tree, including follow-up subtrees and
// button templates, and enforces id uniqueness across all of them.
func ValidateTree(elements []UIElement) error {
	seen := make(map[string]struct{})

	var visit func([]UIElement) error

	visit = func(list []UIElement) error {
		for i := range list {
			el := &list[i]

			if err := el.Validate(); err != nil {
				return err
			}

			if _, dup := seen[el.ID]; dup {
				return &ElementError{ElementID: el.ID, Reason: "id is not unique within the tree", Err: ErrDuplicateElementID}
			}

			seen[el.ID] = struct{}{}

			for _, followUp := range el.ConditionalFollowUps {
				if err := visit(followUp.Elements); err != nil {
					return err
				}
			}

			if err := visit(el.AddedElements); err != nil {
				return err
			}
		}

		return nil
	}

	return visit(elements)
}

// CloneElements returns a deep copy of the element list.
func CloneElements(elements []UIElement) []UIElement {
	if elements == nil {
		return nil
	}

	out := make([]UIElement, len(elements))
	for i := range elements {
		out[i] = elements[i].Clone()
	}

	return out
}

// Clone returns a deep copy of the element.
func (e UIElement) Clone() UIElement {
	out := e

	out.Options = slices.Clone(e.Options)
	out.Events = slices.Clone(e.Events)
	out.PropertyOptions = slices.Clone(e.PropertyOptions)
	out.OperatorOptions = slices.Clone(e.OperatorOptions)
	out.AddedElements = CloneElements(e.AddedElements)
	out.Min = cloneFloat(e.Min)
	out.Max = cloneFloat(e.Max)
	out.Step = cloneFloat(e.Step)
	out.DefaultValue = CloneValue(e.DefaultValue)

	if e.ConditionalFollowUps != nil {
		out.ConditionalFollowUps = make([]ConditionalFollowUp, len(e.ConditionalFollowUps))
		for i, followUp := range e.ConditionalFollowUps {
			out.ConditionalFollowUps[i] = ConditionalFollowUp{
				ConditionValue: followUp.ConditionValue,
				Elements:       CloneElements(followUp.Elements),
			}
		}
	}

	return out
}

func cloneFloat(f *float64) *float64 {
	if f == nil {
		return nil
	}

	v := *f

	return &v
}

// Walk visits every element of the tree depth-first, including all follow-up subtrees
// regardless of which one is active. Returning false from fn stops the walk.
func Walk(elements []UIElement, fn func(*UIElement) bool) bool {
	for i := range elements {
		el := &elements[i]
		if !fn(el) {
			return false
		}

		for j := range el.ConditionalFollowUps {
			if !Walk(el.ConditionalFollowUps[j].Elements, fn) {
				return false
			}
		}
	}

	return true
}

// FindElement returns the first element with the given id anywhere in the tree.
func FindElement(elements []UIElement, id string) (*UIElement, bool) {
	var found *UIElement

	Walk(elements, func(el *UIElement) bool {
		if el.ID == id {
			found = el

			return false
		}

		return true
	})

	return found, found != nil
}

// ContainsType reports whether any element of the tree has the given type.
func ContainsType(elements []UIElement, t ElementType) bool {
	found := false

	Walk(elements, func(el *UIElement) bool {
		if el.Type == t {
			found = true

			return false
		}

		return true
	})

	return found
}
