// Package testutil provides test data builders and utilities for testing.
package testutil

import (
	"time"

	"github.com/google/uuid"

	"github.com/dukex/flowbuilder/pkg/models"
)

// FixedNow is the clock tests pin the console to.
var FixedNow = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

// CreateTestTemplate creates a test ActivityTemplate with default values that can be overridden.
func CreateTestTemplate(overrides ...func(*models.ActivityTemplate)) *models.ActivityTemplate {
	template := &models.ActivityTemplate{
		ID:       uuid.New().String(),
		Name:     "Test Template",
		Icon:     models.IconMail,
		Category: "Testing",
		SidePanelElements: []models.UIElement{
			{ID: "message", Type: models.ElementText, Label: "Message"},
		},
		CreatedAt: FixedNow,
		UpdatedAt: FixedNow,
	}

	for _, override := range overrides {
		override(template)
	}

	return template
}

// WithTemplateID sets the template ID.
func WithTemplateID(id string) func(*models.ActivityTemplate) {
	return func(t *models.ActivityTemplate) {
		t.ID = id
	}
}

// WithTemplateName sets the template name.
func WithTemplateName(name string) func(*models.ActivityTemplate) {
	return func(t *models.ActivityTemplate) {
		t.Name = name
	}
}

// WithIcon sets the template icon.
func WithIcon(icon models.IconName) func(*models.ActivityTemplate) {
	return func(t *models.ActivityTemplate) {
		t.Icon = icon
	}
}

// WithElements replaces the side panel elements.
func WithElements(elements ...models.UIElement) func(*models.ActivityTemplate) {
	return func(t *models.ActivityTemplate) {
		t.SidePanelElements = elements
	}
}

// WithSidePanelDescription sets the description template shown on the node.
func WithSidePanelDescription(description string) func(*models.ActivityTemplate) {
	return func(t *models.ActivityTemplate) {
		t.SidePanelDescription = description
	}
}

// EmailTemplate is a two-field messaging template with a referencing description.
func EmailTemplate() *models.ActivityTemplate {
	return CreateTestTemplate(
		WithTemplateID("email"),
		WithTemplateName("Send Email"),
		WithElements(
			models.UIElement{ID: "recipient", Type: models.ElementText, Label: "Recipient"},
			models.UIElement{ID: "subject", Type: models.ElementText, Label: "Subject"},
		),
		WithSidePanelDescription("Email #{Recipient}"),
	)
}

// ConditionTemplate creates nodes that branch the workflow.
func ConditionTemplate() *models.ActivityTemplate {
	return CreateTestTemplate(
		WithTemplateID("condition"),
		WithTemplateName("Condition"),
		WithIcon(models.IconGitBranch),
		WithElements(models.UIElement{ID: "rules", Type: models.ElementConditionsModule, Label: "Rules"}),
	)
}

// CreateTestNode creates a test WorkflowNode with default values that can be overridden.
func CreateTestNode(overrides ...func(*models.WorkflowNode)) *models.WorkflowNode {
	node := &models.WorkflowNode{
		ID:                 uuid.New().String(),
		ActivityTemplateID: "email",
		Elements: []models.UIElement{
			{ID: "recipient", Type: models.ElementText, Label: "Recipient"},
		},
		Values: models.Values{},
	}

	for _, override := range overrides {
		override(node)
	}

	return node
}

// WithID sets the node ID.
func WithID(id string) func(*models.WorkflowNode) {
	return func(n *models.WorkflowNode) {
		n.ID = id
	}
}

// WithBranch places the node on a branch.
func WithBranch(branch string) func(*models.WorkflowNode) {
	return func(n *models.WorkflowNode) {
		n.Branch = branch
	}
}

// WithValue sets one element value.
func WithValue(elementID string, value models.FieldValue) func(*models.WorkflowNode) {
	return func(n *models.WorkflowNode) {
		if n.Values == nil {
			n.Values = models.Values{}
		}

		n.Values[elementID] = value
	}
}

// CreateTestWorkflow creates a test workflow holding nodes.
func CreateTestWorkflow(nodes ...*models.WorkflowNode) *models.Workflow {
	if nodes == nil {
		nodes = []*models.WorkflowNode{}
	}

	return &models.Workflow{
		ID:                  uuid.New().String(),
		Name:                "Test Workflow",
		Description:         "A workflow for testing",
		Owner:               "test-user",
		Nodes:               nodes,
		NextConditionNumber: 1,
		CreatedAt:           FixedNow,
		UpdatedAt:           FixedNow,
	}
}
