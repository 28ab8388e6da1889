package postgresql_test

import (
	"context"
	"database/sql"
	"log/slog"
	"os"
	"testing"
	"time"

	_ "github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go/modules/postgres"

	"github.com/dukex/flowbuilder/pkg/models"
	"github.com/dukex/flowbuilder/pkg/persistence"
	"github.com/dukex/flowbuilder/pkg/persistence/postgresql"
)

var postgresContainer *postgres.PostgresContainer

func dropDb(ctx context.Context, t *testing.T, databaseURL string) {
	t.Helper()

	db, err := sql.Open("postgres", databaseURL)
	require.NoError(t, err)

	for _, table := range []string{"workflows", "activity_templates", "schema_migrations"} {
		_, err = db.ExecContext(ctx, "DROP TABLE IF EXISTS "+table+" CASCADE")
		require.NoError(t, err)
	}

	err = db.Close()
	require.NoError(t, err)
}

func setupTestDB(t *testing.T) (*postgresql.Persistence, context.Context, string) {
	t.Helper()

	if testing.Short() {
		t.Skip("skipping PostgreSQL integration test in short mode")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 120*time.Second)

	if postgresContainer == nil || !postgresContainer.IsRunning() {
		var err error

		postgresContainer, err = postgres.Run(ctx,
			"postgres:16-alpine",
			postgres.WithDatabase("flowbuilder_test"),
			postgres.WithUsername("flowbuilder"),
			postgres.WithPassword("flowbuilder"),
			postgres.BasicWaitStrategies(),
		)
		require.NoError(t, err)
	}

	databaseURL, err := postgresContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	dropDb(ctx, t, databaseURL)

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))

	p, err := postgresql.NewPersistence(ctx, logger, databaseURL)
	require.NoError(t, err)

	t.Cleanup(func() {
		dropDb(ctx, t, databaseURL)

		err = p.Close(ctx)
		require.NoError(t, err)

		cancel()
	})

	return p, ctx, databaseURL
}

func TestNewPersistence_Migrations(t *testing.T) {
	_, ctx, databaseURL := setupTestDB(t)

	db, err := sql.Open("postgres", databaseURL)
	require.NoError(t, err)

	defer func() {
		err := db.Close()
		require.NoError(t, err)
	}()

	for _, table := range []string{"workflows", "activity_templates", "schema_migrations"} {
		var exists bool

		err = db.QueryRowContext(ctx, `SELECT EXISTS (SELECT FROM
information_schema.tables WHERE table_name = $1)`, table).Scan(&exists)
		require.NoError(t, err)
		assert.True(t, exists, "%s table should exist", table)
	}

	var version int

	err = db.QueryRowContext(ctx, "SELECT MAX(version) FROM schema_migrations").Scan(&version)
	require.NoError(t, err)
	assert.Equal(t, 1, version)
}

func TestNewPersistence_HealthCheck(t *testing.T) {
	p, ctx, _ := setupTestDB(t)

	err := p.HealthCheck(ctx)
	assert.NoError(t, err)
}

func TestNewPersistence_Templates(t *testing.T) {
	p, ctx, _ := setupTestDB(t)

	trigger := &models.ActivityTemplate{
		Name: "Trigger",
		Icon: models.IconZap,
		SidePanelElements: []models.UIElement{
			{ID: "type", Type: models.ElementDropdown, Label: "Trigger Type", Options: models.TriggerTypes, Required: true},
		},
	}

	require.NoError(t, p.SaveTemplate(ctx, trigger))
	assert.NotEmpty(t, trigger.ID)

	retrieved, err := p.TemplateByID(ctx, trigger.ID)
	require.NoError(t, err)
	assert.Equal(t, models.IconZap, retrieved.Icon)
	require.Len(t, retrieved.SidePanelElements, 1)
	assert.Equal(t, models.TriggerTypes, retrieved.SidePanelElements[0].Options)

	trigger.Description = "Starts a workflow"
	require.NoError(t, p.SaveTemplate(ctx, trigger))

	templates, err := p.Templates(ctx)
	require.NoError(t, err)
	require.Len(t, templates, 1)
	assert.Equal(t, "Starts a workflow", templates[0].Description)

	require.NoError(t, p.DeleteTemplate(ctx, trigger.ID))

	_, err = p.TemplateByID(ctx, trigger.ID)
	assert.True(t, persistence.IsTemplateNotFound(err))
}

func TestNewPersistence_SaveAndRetrieveWorkflow(t *testing.T) {
	p, ctx, _ := setupTestDB(t)

	workflow := &models.Workflow{
		Name:                "Test Workflow",
		Description:         "A test workflow",
		NextConditionNumber: 3,
		Owner:               "test-user",
		Nodes: []*models.WorkflowNode{
			{
				ID:                 "cond",
				ActivityTemplateID: "condition",
				Elements:           []models.UIElement{{ID: "rules", Type: models.ElementConditionsModule}},
				Values: models.Values{"rules": models.BranchSet{Branches: []models.ConditionBranch{
					{Name: "Branch 2.1", OuterLogic: models.LogicOr, ConditionNodeNumber: 2},
				}}},
				Branches:        []string{"Branch 2.1"},
				ConditionNumber: 2,
			},
			{
				ID:                 "mail",
				ActivityTemplateID: "email",
				Branch:             "Branch 2.1",
				Elements:           []models.UIElement{{ID: "to", Type: models.ElementText, Label: "To"}},
				Values:             models.Values{"to": models.Text("ada@example.com")},
			},
		},
	}

	err := p.SaveWorkflow(ctx, workflow)
	require.NoError(t, err)
	assert.False(t, workflow.CreatedAt.IsZero())

	retrieved, err := p.WorkflowByID(ctx, workflow.ID)
	require.NoError(t, err)

	assert.Equal(t, workflow.Name, retrieved.Name)
	assert.Equal(t, workflow.Owner, retrieved.Owner)
	assert.Equal(t, 3, retrieved.NextConditionNumber)
	require.Len(t, retrieved.Nodes, 2)
	assert.Equal(t, 2, retrieved.Nodes[0].ConditionNumber)
	assert.Equal(t, workflow.Nodes[0].Values, retrieved.Nodes[0].Values)
	assert.Equal(t, "Branch 2.1", retrieved.Nodes[1].Branch)

	_, err = p.WorkflowByID(ctx, "missing")
	assert.True(t, persistence.IsWorkflowNotFound(err))
	assert.Equal(t, "Failed to load workflow", err.Error())
}

func TestNewPersistence_DeleteWorkflow(t *testing.T) {
	p, ctx, _ := setupTestDB(t)

	workflow := &models.Workflow{Name: "Short lived"}
	require.NoError(t, p.SaveWorkflow(ctx, workflow))

	require.NoError(t, p.DeleteWorkflow(ctx, workflow.ID))
	require.NoError(t, p.DeleteWorkflow(ctx, workflow.ID))

	workflows, err := p.Workflows(ctx)
	require.NoError(t, err)
	assert.Empty(t, workflows)

	_, err = p.WorkflowByID(ctx, workflow.ID)
	assert.True(t, persistence.IsWorkflowNotFound(err))
}
