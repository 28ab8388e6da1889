// Package file provides file-based persistence: one JSON document per template and
// per workflow under a root directory.
package file

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/dukex/flowbuilder/pkg/models"
	"github.com/dukex/flowbuilder/pkg/persistence"
)

// Persistence implements the persistence.Persistence interface using the file system.
type Persistence struct {
	root      string
	templates collection[models.ActivityTemplate]
	workflows collection[models.Workflow]
	now       func() time.Time
}

// NewPersistence creates a new instance of Persistence with the specified root
// directory. A file:// prefix is accepted.
func NewPersistence(root string) *Persistence {
	cleanRoot := strings.Replace(root, "file://", "", 1)

	return &Persistence{
		root:      cleanRoot,
		templates: newCollection[models.ActivityTemplate](cleanRoot, "templates"),
		workflows: newCollection[models.Workflow](cleanRoot, "workflows"),
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Close performs any necessary cleanup. For file-based persistence, there is nothing to clean up.
func (fp *Persistence) Close(_ context.Context) error {
	return nil
}

// HealthCheck checks if the file persistence layer is healthy by verifying the root directory exists.
func (fp *Persistence) HealthCheck(_ context.Context) error {
	if _, err := os.Stat(fp.root); err != nil {
		return err
	}

	return nil
}

func (fp *Persistence) Templates(_ context.Context) ([]*models.ActivityTemplate, error) {
	templates, err := fp.templates.all()
	if err != nil {
		return nil, persistence.NewOperationError(persistence.VerbLoad, persistence.NounTemplates, "", err)
	}

	persistence.SortTemplates(templates)

	return templates, nil
}

func (fp *Persistence) TemplateByID(_ context.Context, id string) (*models.ActivityTemplate, error) {
	template, err := fp.templates.get(id)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			err = persistence.ErrTemplateNotFound
		}

		return nil, persistence.NewOperationError(persistence.VerbLoad, persistence.NounTemplate, id, err)
	}

	return template, nil
}

// SaveTemplate creates or replaces a template, assigning an id and timestamps when
// missing.
func (fp *Persistence) SaveTemplate(_ context.Context, template *models.ActivityTemplate) error {
	verb := persistence.VerbUpdate

	if template.ID == "" {
		template.ID = uuid.NewString()
		verb = persistence.VerbCreate
	}

	now := fp.now()
	if template.CreatedAt.IsZero() {
		template.CreatedAt = now
	}

	template.UpdatedAt = now

	if err := fp.templates.put(template.ID, template); err != nil {
		return persistence.NewOperationError(verb, persistence.NounTemplate, template.ID, err)
	}

	return nil
}

func (fp *Persistence) DeleteTemplate(_ context.Context, id string) error {
	if err := fp.templates.remove(id); err != nil {
		return persistence.NewOperationError(persistence.VerbDelete, persistence.NounTemplate, id, err)
	}

	return nil
}

func (fp *Persistence) Workflows(_ context.Context) ([]*models.Workflow, error) {
	workflows, err := fp.workflows.all()
	if err != nil {
		return nil, persistence.NewOperationError(persistence.VerbLoad, persistence.NounWorkflows, "", err)
	}

	live := workflows[:0]
	for _, wf := range workflows {
		if wf.DeletedAt == nil {
			live = append(live, wf)
		}
	}

	persistence.SortWorkflows(live)

	return live, nil
}

func (fp *Persistence) WorkflowByID(_ context.Context, id string) (*models.Workflow, error) {
	workflow, err := fp.workflows.get(id)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			err = persistence.ErrWorkflowNotFound
		}

		return nil, persistence.NewOperationError(persistence.VerbLoad, persistence.NounWorkflow, id, err)
	}

	if workflow.DeletedAt != nil {
		return nil, persistence.NewOperationError(persistence.VerbLoad, persistence.NounWorkflow, id, persistence.ErrWorkflowNotFound)
	}

	return workflow, nil
}

// SaveWorkflow creates or replaces a workflow, assigning an id and timestamps when
// missing.
func (fp *Persistence) SaveWorkflow(_ context.Context, workflow *models.Workflow) error {
	verb := persistence.VerbUpdate

	if workflow.ID == "" {
		workflow.ID = uuid.NewString()
		verb = persistence.VerbCreate
	}

	now := fp.now()
	if workflow.CreatedAt.IsZero() {
		workflow.CreatedAt = now
	}

	if workflow.UpdatedAt.IsZero() {
		workflow.UpdatedAt = now
	}

	if err := fp.workflows.put(workflow.ID, workflow); err != nil {
		return persistence.NewOperationError(verb, persistence.NounWorkflow, workflow.ID, err)
	}

	return nil
}

func (fp *Persistence) DeleteWorkflow(_ context.Context, id string) error {
	if err := fp.workflows.remove(id); err != nil {
		return persistence.NewOperationError(persistence.VerbDelete, persistence.NounWorkflow, id, err)
	}

	return nil
}
