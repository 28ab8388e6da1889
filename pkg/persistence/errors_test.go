package persistence_test

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/dukex/flowbuilder/pkg/models"
	"github.com/dukex/flowbuilder/pkg/persistence"
)

func TestOperationError(t *testing.T) {
	t.Parallel()

	t.Run("message is the banner text", func(t *testing.T) {
		err := persistence.NewOperationError(persistence.VerbUpdate, persistence.NounWorkflow, "wf-1", errors.New("disk full"))

		assert.Equal(t, "Failed to update workflow", err.Error())
		assert.Equal(t, "Failed to update workflow wf-1: disk full", err.Detail())
	})

	t.Run("unwraps to the cause", func(t *testing.T) {
		err := fmt.Errorf("saving: %w",
			persistence.NewOperationError(persistence.VerbLoad, persistence.NounTemplate, "t-1", persistence.ErrTemplateNotFound))

		assert.True(t, persistence.IsTemplateNotFound(err))
		assert.False(t, persistence.IsWorkflowNotFound(err))
		assert.Equal(t, "Failed to load template", persistence.Banner(err))
	})

	t.Run("banner of a foreign error", func(t *testing.T) {
		assert.Equal(t, "boom", persistence.Banner(errors.New("boom")))
	})
}

func TestSortTemplates(t *testing.T) {
	t.Parallel()

	day := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	templates := []*models.ActivityTemplate{
		{ID: "c", CreatedAt: day.Add(time.Hour)},
		{ID: "b", CreatedAt: day},
		{ID: "a", CreatedAt: day},
	}

	persistence.SortTemplates(templates)

	ids := []string{templates[0].ID, templates[1].ID, templates[2].ID}
	assert.Equal(t, []string{"a", "b", "c"}, ids)
}
