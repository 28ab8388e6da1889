package postgresql

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/dukex/flowbuilder/pkg/models"
	"github.com/dukex/flowbuilder/pkg/persistence"
)

// WorkflowRepository handles workflow-related database operations.
type WorkflowRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewWorkflowRepository creates a new workflow repository.
func NewWorkflowRepository(db *sql.DB, logger *slog.Logger) *WorkflowRepository {
	return &WorkflowRepository{db: db, logger: logger}
}

// GetAll returns all workflows that are not soft deleted.
func (r *WorkflowRepository) GetAll(ctx context.Context) ([]*models.Workflow, error) {
	query := `
		SELECT document
		FROM workflows
		WHERE deleted_at IS NULL
		ORDER BY created_at ASC, id ASC
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, persistence.NewOperationError(persistence.VerbLoad, persistence.NounWorkflows, "", err)
	}

	defer func() {
		if err := rows.Close(); err != nil {
			r.logger.ErrorContext(ctx, "failed to close rows", "error", err)
		}
	}()

	workflows := make([]*models.Workflow, 0)

	for rows.Next() {
		workflow, err := scanDocument[models.Workflow](rows)
		if err != nil {
			return nil, persistence.NewOperationError(persistence.VerbLoad, persistence.NounWorkflows, "", err)
		}

		workflows = append(workflows, workflow)
	}

	if err := rows.Err(); err != nil {
		return nil, persistence.NewOperationError(persistence.VerbLoad, persistence.NounWorkflows, "", err)
	}

	return workflows, nil
}

// GetByID returns one workflow that is not soft deleted.
func (r *WorkflowRepository) GetByID(ctx context.Context, id string) (*models.Workflow, error) {
	row := r.db.QueryRowContext(ctx, "SELECT document FROM workflows WHERE id = $1 AND deleted_at IS NULL", id)

	workflow, err := scanDocument[models.Workflow](row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			err = persistence.ErrWorkflowNotFound
		}

		return nil, persistence.NewOperationError(persistence.VerbLoad, persistence.NounWorkflow, id, err)
	}

	return workflow, nil
}

// Save upserts the whole workflow document.
func (r *WorkflowRepository) Save(ctx context.Context, workflow *models.Workflow) error {
	verb := persistence.VerbUpdate

	if workflow.ID == "" {
		id, err := uuid.NewV7()
		if err != nil {
			return persistence.NewOperationError(persistence.VerbCreate, persistence.NounWorkflow, "", err)
		}

		workflow.ID = id.String()
		verb = persistence.VerbCreate
	}

	now := time.Now().UTC()
	if workflow.CreatedAt.IsZero() {
		workflow.CreatedAt = now
	}

	if workflow.UpdatedAt.IsZero() {
		workflow.UpdatedAt = now
	}

	document, err := json.Marshal(workflow)
	if err != nil {
		return persistence.NewOperationError(verb, persistence.NounWorkflow, workflow.ID, fmt.Errorf("failed to marshal workflow: %w", err))
	}

	query := `
		INSERT INTO workflows (id, name, description, document, owner, created_at, updated_at, deleted_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			description = EXCLUDED.description,
			document = EXCLUDED.document,
			owner = EXCLUDED.owner,
			updated_at = EXCLUDED.updated_at,
			deleted_at = EXCLUDED.deleted_at
	`

	_, err = r.db.ExecContext(ctx, query,
		workflow.ID,
		workflow.Name,
		workflow.Description,
		document,
		workflow.Owner,
		workflow.CreatedAt,
		workflow.UpdatedAt,
		workflow.DeletedAt,
	)
	if err != nil {
		return persistence.NewOperationError(verb, persistence.NounWorkflow, workflow.ID, err)
	}

	return nil
}

// Delete soft deletes a workflow by setting deleted_at timestamp.
func (r *WorkflowRepository) Delete(ctx context.Context, id string) error {
	query := `UPDATE workflows SET deleted_at = $2 WHERE id = $1 AND deleted_at IS NULL`

	_, err := r.db.ExecContext(ctx, query, id, time.Now().UTC())
	if err != nil {
		return persistence.NewOperationError(persistence.VerbDelete, persistence.NounWorkflow, id, err)
	}

	return nil
}
