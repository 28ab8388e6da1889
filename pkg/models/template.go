package models

import (
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// ActivityTemplate is the reusable schema for one kind of workflow step.
type ActivityTemplate struct {
	ID                   string      `json:"id"`
	Name                 string      `json:"name"                           validate:"required,min=1"`
	Icon                 IconName    `json:"icon,omitempty"                 validate:"omitempty,icon"`
	IconColor            string      `json:"iconColor,omitempty"`
	Category             string      `json:"category,omitempty"`
	SidePanelElements    []UIElement `json:"sidePanelElements"`
	Description          string      `json:"description,omitempty"`
	SidePanelDescription string      `json:"sidePanelDescription,omitempty"`
	CreatedAt            time.Time   `json:"created_at"`
	UpdatedAt            time.Time   `json:"updated_at"`
}

// IsTriggerLike reports whether the template acts as a workflow trigger: its name
// mentions "trigger" or it uses the Zap icon.
func (t *ActivityTemplate) IsTriggerLike() bool {
	return strings.Contains(strings.ToLower(t.Name), "trigger") || t.Icon == IconZap
}

// IsConditionTemplate reports whether nodes created from the template branch the workflow.
func (t *ActivityTemplate) IsConditionTemplate() bool {
	return ContainsType(t.SidePanelElements, ElementConditionsModule)
}

// Validate checks struct tags and the element tree.
func (t *ActivityTemplate) Validate(v *validator.Validate) error {
	if err := v.Struct(t); err != nil {
		return err
	}

	return ValidateTree(t.SidePanelElements)
}

// Clone returns a deep copy of the template.
func (t *ActivityTemplate) Clone() *ActivityTemplate {
	out := *t
	out.SidePanelElements = CloneElements(t.SidePanelElements)

	return &out
}

// CatalogEntry is the reduced view of a template shared with the suggestion service.
type CatalogEntry struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// Catalog reduces templates to id, name and description.
func Catalog(templates []*ActivityTemplate) []CatalogEntry {
	out := make([]CatalogEntry, 0, len(templates))
	for _, t := range templates {
		out = append(out, CatalogEntry{ID: t.ID, Name: t.Name, Description: t.Description})
	}

	return out
}

// RegisterValidations adds the model-specific tags (currently "icon") to v.
func RegisterValidations(v *validator.Validate) error {
	return v.RegisterValidation("icon", func(fl validator.FieldLevel) bool {
		return IconName(fl.Field().String()).Valid()
	})
}

// NewValidator returns a validator with the model tags registered.
func NewValidator() *validator.Validate {
	v := validator.New()
	if err := RegisterValidations(v); err != nil {
		panic(err)
	}

	return v
}
