package services

import (
	"context"
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/dukex/flowbuilder/pkg/events"
	"github.com/dukex/flowbuilder/pkg/form"
	"github.com/dukex/flowbuilder/pkg/models"
	"github.com/dukex/flowbuilder/pkg/persistence"
)

// TriggerTemplateName is the name of the template the bootstrap creates.
const TriggerTemplateName = "Trigger"

// DefaultTriggerTemplate returns the template created when none of the loaded
// templates is trigger-like.
func DefaultTriggerTemplate(now time.Time) *models.ActivityTemplate {
	return &models.ActivityTemplate{
		ID:          uuid.NewString(),
		Name:        TriggerTemplateName,
		Icon:        models.IconZap,
		Category:    "Triggers",
		Description: "Starts the workflow",
		SidePanelElements: []models.UIElement{
			{
				ID:       models.NewElementID(),
				Type:     models.ElementDropdown,
				Label:    form.TriggerTypeLabel,
				Required: true,
				Options:  slices.Clone(models.TriggerTypes),
			},
			{
				ID:          models.NewElementID(),
				Type:        models.ElementText,
				Label:       form.TriggerConditionLabel,
				Placeholder: "e.g. 0 9 * * 1-5",
			},
		},
		SidePanelDescription: "Starts on #{" + form.TriggerTypeLabel + "}",
		CreatedAt:            now,
		UpdatedAt:            now,
	}
}

// bootstrapTrigger leaves exactly one trigger-like template: it creates the default
// one when there is none and deletes every one but the first otherwise. Deletes run
// one after another; a failed delete keeps that template and moves on.
func (s *Studio) bootstrapTrigger(ctx context.Context) {
	var triggers []*models.ActivityTemplate

	for _, t := range s.templates {
		if t.IsTriggerLike() {
			triggers = append(triggers, t)
		}
	}

	switch {
	case len(triggers) == 0:
		t := DefaultTriggerTemplate(s.now().UTC())

		if err := s.store.SaveTemplate(ctx, t); err != nil {
			_ = s.storageFailed(ctx, persistence.VerbCreate, persistence.NounTemplate, t.ID, err)

			return
		}

		s.templates = append(slices.Clone(s.templates), t)
		s.logger.InfoContext(ctx, "Created default trigger template", "template_id", t.ID)
		s.publish(ctx, t.ID, events.NewTemplateChanged(events.TemplateCreatedEvent, t.ID, t.Name))

	case len(triggers) > 1:
		for _, dup := range triggers[1:] {
			if err := s.store.DeleteTemplate(ctx, dup.ID); err != nil {
				_ = s.storageFailed(ctx, persistence.VerbDelete, persistence.NounTemplate, dup.ID, err)

				continue
			}

			s.templates = slices.DeleteFunc(slices.Clone(s.templates), func(t *models.ActivityTemplate) bool {
				return t.ID == dup.ID
			})
			s.logger.InfoContext(ctx, "Deleted duplicate trigger template", "template_id", dup.ID, "kept", triggers[0].ID)
			s.publish(ctx, dup.ID, events.NewTemplateChanged(events.TemplateDeletedEvent, dup.ID, dup.Name))
		}
	}
}
