package file

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dukex/flowbuilder/pkg/models"
	"github.com/dukex/flowbuilder/pkg/persistence"
)

func TestNewPersistence(t *testing.T) {
	// Test with regular path
	fp := NewPersistence("/tmp/test")
	assert.Equal(t, "/tmp/test", fp.root)

	// Test with file:// prefix
	fp = NewPersistence("file:///tmp/test")
	assert.Equal(t, "/tmp/test", fp.root)
}

func TestPersistence_HealthCheck(t *testing.T) {
	assert.NoError(t, NewPersistence(t.TempDir()).HealthCheck(t.Context()))
	assert.Error(t, NewPersistence(filepath.Join(t.TempDir(), "missing")).HealthCheck(t.Context()))
}

func TestPersistence_Templates(t *testing.T) {
	testDir := t.TempDir()
	fp := NewPersistence(testDir)

	templates, err := fp.Templates(t.Context())
	require.NoError(t, err)
	assert.Empty(t, templates)

	first := &models.ActivityTemplate{Name: "Trigger", Icon: models.IconZap, CreatedAt: time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)}
	second := &models.ActivityTemplate{ID: "email", Name: "Send Email", CreatedAt: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}

	require.NoError(t, fp.SaveTemplate(t.Context(), first))
	require.NoError(t, fp.SaveTemplate(t.Context(), second))

	assert.NotEmpty(t, first.ID)
	assert.FileExists(t, filepath.Join(testDir, "templates", "email.json"))

	templates, err = fp.Templates(t.Context())
	require.NoError(t, err)
	require.Len(t, templates, 2)
	assert.Equal(t, "email", templates[0].ID)
	assert.Equal(t, models.IconZap, templates[1].Icon)

	require.NoError(t, fp.DeleteTemplate(t.Context(), "email"))
	require.NoError(t, fp.DeleteTemplate(t.Context(), "email"))

	_, err = fp.TemplateByID(t.Context(), "email")
	assert.True(t, persistence.IsTemplateNotFound(err))
	assert.Equal(t, "Failed to load template", err.Error())
}

func TestPersistence_WorkflowRoundTrip(t *testing.T) {
	testDir := t.TempDir()
	fp := NewPersistence(testDir)

	workflow := &models.Workflow{
		ID:                  "wf-1",
		Name:                "Onboarding",
		NextConditionNumber: 2,
		Nodes: []*models.WorkflowNode{{
			ID:                 "n1",
			ActivityTemplateID: "email",
			Elements: []models.UIElement{
				{ID: "to", Type: models.ElementText, Label: "To"},
				{ID: "retries", Type: models.ElementNumber, Label: "Retries"},
			},
			Values:         models.Values{"to": models.Text("#{Email}"), "retries": models.Number(3)},
			Branch:         "Branch 1.1",
			MapDescription: "Send to #{Email}",
		}},
	}

	require.NoError(t, fp.SaveWorkflow(t.Context(), workflow))

	info, err := os.Stat(filepath.Join(testDir, "workflows", "wf-1.json"))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	loaded, err := fp.WorkflowByID(t.Context(), "wf-1")
	require.NoError(t, err)
	assert.Equal(t, 2, loaded.NextConditionNumber)
	assert.Equal(t, models.Text("#{Email}"), loaded.Nodes[0].Values["to"])
	assert.Equal(t, models.Number(3), loaded.Nodes[0].Values["retries"])
	assert.Equal(t, "Send to #{Email}", loaded.Nodes[0].MapDescription)
	assert.Equal(t, "Branch 1.1", loaded.Nodes[0].Branch)

	require.NoError(t, fp.DeleteWorkflow(t.Context(), "wf-1"))

	_, err = fp.WorkflowByID(t.Context(), "wf-1")
	assert.True(t, persistence.IsWorkflowNotFound(err))

	workflows, err := fp.Workflows(t.Context())
	require.NoError(t, err)
	assert.Empty(t, workflows)
}

func TestPersistence_WorkflowsSkipSoftDeleted(t *testing.T) {
	fp := NewPersistence(t.TempDir())

	deletedAt := time.Now().UTC()

	require.NoError(t, fp.SaveWorkflow(t.Context(), &models.Workflow{ID: "live", Name: "Live"}))
	require.NoError(t, fp.SaveWorkflow(t.Context(), &models.Workflow{ID: "gone", Name: "Gone", DeletedAt: &deletedAt}))

	workflows, err := fp.Workflows(t.Context())
	require.NoError(t, err)
	require.Len(t, workflows, 1)
	assert.Equal(t, "live", workflows[0].ID)

	_, err = fp.WorkflowByID(t.Context(), "gone")
	assert.True(t, persistence.IsWorkflowNotFound(err))
}

func TestPersistence_SaveFailure(t *testing.T) {
	root := filepath.Join(t.TempDir(), "blocked")
	require.NoError(t, os.WriteFile(root, []byte("not a directory"), 0600))

	err := NewPersistence(root).SaveWorkflow(t.Context(), &models.Workflow{Name: "x"})
	require.Error(t, err)
	assert.Equal(t, "Failed to create workflow", err.Error())
}
