// Package persistence provides the storage abstraction for activity templates and
// workflow documents.
package persistence

import (
	"cmp"
	"context"
	"slices"

	"github.com/dukex/flowbuilder/pkg/models"
)

// Persistence loads and stores templates and workflows. Save methods create or
// replace by id; delete methods do not fail when the id is already gone.
type Persistence interface {
	Templates(ctx context.Context) ([]*models.ActivityTemplate, error)
	TemplateByID(ctx context.Context, id string) (*models.ActivityTemplate, error)
	SaveTemplate(ctx context.Context, template *models.ActivityTemplate) error
	DeleteTemplate(ctx context.Context, id string) error

	Workflows(ctx context.Context) ([]*models.Workflow, error)
	WorkflowByID(ctx context.Context, id string) (*models.Workflow, error)
	SaveWorkflow(ctx context.Context, workflow *models.Workflow) error
	DeleteWorkflow(ctx context.Context, id string) error

	HealthCheck(ctx context.Context) error

	Close(ctx context.Context) error
}

// SortTemplates orders templates by creation time, then id. This is the load order
// every backend returns.
func SortTemplates(templates []*models.ActivityTemplate) {
	slices.SortStableFunc(templates, func(a, b *models.ActivityTemplate) int {
		if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
			return c
		}

		return cmp.Compare(a.ID, b.ID)
	})
}

// SortWorkflows orders workflows by creation time, then id.
func SortWorkflows(workflows []*models.Workflow) {
	slices.SortStableFunc(workflows, func(a, b *models.Workflow) int {
		if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
			return c
		}

		return cmp.Compare(a.ID, b.ID)
	})
}
