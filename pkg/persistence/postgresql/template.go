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

// TemplateRepository handles activity-template database operations.
type TemplateRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewTemplateRepository creates a new template repository.
func NewTemplateRepository(db *sql.DB, logger *slog.Logger) *TemplateRepository {
	return &TemplateRepository{db: db, logger: logger}
}

// GetAll returns every template ordered by creation time, then id.
func (r *TemplateRepository) GetAll(ctx context.Context) ([]*models.ActivityTemplate, error) {
	query := `
		SELECT document
		FROM activity_templates
		ORDER BY created_at ASC, id ASC
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, persistence.NewOperationError(persistence.VerbLoad, persistence.NounTemplates, "", err)
	}

	defer func() {
		if err := rows.Close(); err != nil {
			r.logger.ErrorContext(ctx, "failed to close rows", "error", err)
		}
	}()

	templates := make([]*models.ActivityTemplate, 0)

	for rows.Next() {
		template, err := scanDocument[models.ActivityTemplate](rows)
		if err != nil {
			return nil, persistence.NewOperationError(persistence.VerbLoad, persistence.NounTemplates, "", err)
		}

		templates = append(templates, template)
	}

	if err := rows.Err(); err != nil {
		return nil, persistence.NewOperationError(persistence.VerbLoad, persistence.NounTemplates, "", err)
	}

	return templates, nil
}

// GetByID returns one template.
func (r *TemplateRepository) GetByID(ctx context.Context, id string) (*models.ActivityTemplate, error) {
	row := r.db.QueryRowContext(ctx, "SELECT document FROM activity_templates WHERE id = $1", id)

	template, err := scanDocument[models.ActivityTemplate](row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			err = persistence.ErrTemplateNotFound
		}

		return nil, persistence.NewOperationError(persistence.VerbLoad, persistence.NounTemplate, id, err)
	}

	return template, nil
}

// Save upserts a template, assigning an id and timestamps when missing.
func (r *TemplateRepository) Save(ctx context.Context, template *models.ActivityTemplate) error {
	verb := persistence.VerbUpdate

	if template.ID == "" {
		id, err := uuid.NewV7()
		if err != nil {
			return persistence.NewOperationError(persistence.VerbCreate, persistence.NounTemplate, "", err)
		}

		template.ID = id.String()
		verb = persistence.VerbCreate
	}

	now := time.Now().UTC()
	if template.CreatedAt.IsZero() {
		template.CreatedAt = now
	}

	template.UpdatedAt = now

	document, err := json.Marshal(template)
	if err != nil {
		return persistence.NewOperationError(verb, persistence.NounTemplate, template.ID, fmt.Errorf("failed to marshal template: %w", err))
	}

	query := `
		INSERT INTO activity_templates (id, name, icon, category, document, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			icon = EXCLUDED.icon,
			category = EXCLUDED.category,
			document = EXCLUDED.document,
			updated_at = EXCLUDED.updated_at
	`

	_, err = r.db.ExecContext(ctx, query,
		template.ID,
		template.Name,
		string(template.Icon),
		template.Category,
		document,
		template.CreatedAt,
		template.UpdatedAt,
	)
	if err != nil {
		return persistence.NewOperationError(verb, persistence.NounTemplate, template.ID, err)
	}

	return nil
}

// Delete removes a template. Deleting a missing template is not an error.
func (r *TemplateRepository) Delete(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, "DELETE FROM activity_templates WHERE id = $1", id)
	if err != nil {
		return persistence.NewOperationError(persistence.VerbDelete, persistence.NounTemplate, id, err)
	}

	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanDocument[T any](row scanner) (*T, error) {
	var raw []byte
	if err := row.Scan(&raw); err != nil {
		return nil, err
	}

	var doc T
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("failed to unmarshal document: %w", err)
	}

	return &doc, nil
}
