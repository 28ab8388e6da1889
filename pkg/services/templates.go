package services

import (
	"context"
	"slices"

	"github.com/google/uuid"

	"github.com/dukex/flowbuilder/pkg/events"
	"github.com/dukex/flowbuilder/pkg/models"
	"github.com/dukex/flowbuilder/pkg/persistence"
)

// CreateTemplate validates and stores a new template, then adds it to memory.
func (s *Studio) CreateTemplate(ctx context.Context, t *models.ActivityTemplate) (*models.ActivityTemplate, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	created := t.Clone()
	if created.ID == "" {
		created.ID = uuid.NewString()
	}

	if _, exists := s.lookupTemplate(created.ID); exists {
		return nil, NewValidationError("CreateTemplate", "DUPLICATE_TEMPLATE", "template id already exists", ErrInvalidRequest)
	}

	now := s.now().UTC()
	created.CreatedAt = now
	created.UpdatedAt = now

	if err := s.validateTemplate("CreateTemplate", created); err != nil {
		return nil, err
	}

	if err := s.store.SaveTemplate(ctx, created); err != nil {
		return nil, s.storageFailed(ctx, persistence.VerbCreate, persistence.NounTemplate, created.ID, err)
	}

	s.templates = append(slices.Clone(s.templates), created)
	s.publish(ctx, created.ID, events.NewTemplateChanged(events.TemplateCreatedEvent, created.ID, created.Name))

	return created, nil
}

// UpdateTemplateRequest patches a template; nil fields are kept.
type UpdateTemplateRequest struct {
	Name                 *string             `json:"name"`
	Icon                 *models.IconName    `json:"icon"`
	IconColor            *string             `json:"iconColor"`
	Category             *string             `json:"category"`
	SidePanelElements    *[]models.UIElement `json:"sidePanelElements"`
	Description          *string             `json:"description"`
	SidePanelDescription *string             `json:"sidePanelDescription"`
}

func (r UpdateTemplateRequest) apply(t *models.ActivityTemplate) {
	setIf(&t.Name, r.Name)
	setIf(&t.Icon, r.Icon)
	setIf(&t.IconColor, r.IconColor)
	setIf(&t.Category, r.Category)
	setIf(&t.Description, r.Description)
	setIf(&t.SidePanelDescription, r.SidePanelDescription)

	if r.SidePanelElements != nil {
		t.SidePanelElements = models.CloneElements(*r.SidePanelElements)
	}
}

func setIf[T any](dst *T, src *T) {
	if src != nil {
		*dst = *src
	}
}

// UpdateTemplate stores the patched template, then replaces it in memory. Nodes
// already created from the template keep their own copy of its elements.
func (s *Studio) UpdateTemplate(ctx context.Context, id string, req UpdateTemplateRequest) (*models.ActivityTemplate, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.lookupTemplate(id)
	if !ok {
		return nil, &ServiceError{Op: "UpdateTemplate", Code: "TEMPLATE_NOT_FOUND", Err: ErrTemplateNotFound}
	}

	next := current.Clone()
	req.apply(next)
	next.UpdatedAt = s.now().UTC()

	if err := s.validateTemplate("UpdateTemplate", next); err != nil {
		return nil, err
	}

	if err := s.store.SaveTemplate(ctx, next); err != nil {
		return nil, s.storageFailed(ctx, persistence.VerbUpdate, persistence.NounTemplate, id, err)
	}

	templates := slices.Clone(s.templates)
	templates[slices.Index(templates, current)] = next
	s.templates = templates
	s.publish(ctx, id, events.NewTemplateChanged(events.TemplateUpdatedEvent, id, next.Name))

	return next, nil
}

// DeleteTemplate removes the template from storage, then from memory.
func (s *Studio) DeleteTemplate(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.lookupTemplate(id)
	if !ok {
		return &ServiceError{Op: "DeleteTemplate", Code: "TEMPLATE_NOT_FOUND", Err: ErrTemplateNotFound}
	}

	if err := s.store.DeleteTemplate(ctx, id); err != nil {
		return s.storageFailed(ctx, persistence.VerbDelete, persistence.NounTemplate, id, err)
	}

	s.templates = slices.DeleteFunc(slices.Clone(s.templates), func(t *models.ActivityTemplate) bool { return t.ID == id })
	s.publish(ctx, id, events.NewTemplateChanged(events.TemplateDeletedEvent, id, current.Name))

	return nil
}

// Catalog returns the reduced template list shared with the suggestion service.
func (s *Studio) Catalog() []models.CatalogEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return models.Catalog(s.templates)
}

func (s *Studio) validateTemplate(op string, t *models.ActivityTemplate) error {
	if t.Name == "" {
		return NewValidationError(op, "INVALID_TEMPLATE", "template name is required", ErrTemplateNameRequired)
	}

	if err := t.Validate(s.validate); err != nil {
		return NewValidationError(op, "INVALID_TEMPLATE", err.Error(), ErrInvalidTemplate)
	}

	return nil
}
