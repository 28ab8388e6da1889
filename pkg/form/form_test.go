package form

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dukex/flowbuilder/pkg/models"
)

func ptr(f float64) *float64 { return &f }

func surveyNode() *models.WorkflowNode {
	return &models.WorkflowNode{
		ID:                   "n1",
		ActivityTemplateID:   "survey",
		SidePanelDescription: "Send to #{Email}",
		MapDescription:       "Notify #{Email} (#{Notify})",
		Elements: []models.UIElement{
			{ID: "email", Type: models.ElementText, Label: "Email", Required: true},
			{
				ID: "notify", Type: models.ElementToggle, Label: "Notify",
				HasConditionalFollowUps: true,
				ConditionalFollowUps: []models.ConditionalFollowUp{{
					ConditionValue: models.FollowUpBool(true),
					Elements: []models.UIElement{
						{ID: "channel", Type: models.ElementDropdown, Label: "Channel", Options: []string{"Slack", "Email"}, Required: true},
					},
				}},
			},
			{ID: "retries", Type: models.ElementNumber, Label: "Retries", Min: ptr(0), Max: ptr(5), Tab: models.TabAdvanced},
			{ID: "intro", Type: models.ElementTextBlock, Text: "Mail goes to #{Email}"},
			{ID: "add", Type: models.ElementButton, Label: "Add question", AddsElements: true, ElementReference: "#{Question}"},
		},
		Values: models.Values{"email": models.Text("ada@example.com"), "notify": models.Bool(false)},
		DynamicElements: map[string][]models.UIElement{
			"add": {{ID: "dyn-1", Type: models.ElementText, Label: "Question"}},
		},
	}
}

func ids(fields []Field) []string {
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		out = append(out, f.Element.ID)
	}

	return out
}

func TestRender_Order(t *testing.T) {
	t.Parallel()

	node := surveyNode()

	fields := Render(node, Options{})
	assert.Equal(t, []string{"email", "notify", "retries", "intro", "dyn-1", "add"}, ids(fields))
	assert.Equal(t, "add", fields[4].ButtonID)
	assert.Equal(t, "Mail goes to ada@example.com", fields[3].Text)

	node.Values["notify"] = models.Bool(true)

	fields = Render(node, Options{})
	assert.Equal(t, []string{"email", "notify", "channel", "retries", "intro", "dyn-1", "add"}, ids(fields))
	assert.Equal(t, 1, fields[2].Depth)
}

func TestRender_TabFilter(t *testing.T) {
	t.Parallel()

	fields := Render(surveyNode(), Options{Tab: models.TabAdvanced})
	assert.Equal(t, []string{"retries"}, ids(fields))
}

func TestRender_ConditionBranches(t *testing.T) {
	t.Parallel()

	node := &models.WorkflowNode{
		ID: "c1",
		Elements: []models.UIElement{
			{ID: "rules", Type: models.ElementConditionsModule},
		},
		Values: models.Values{"rules": models.BranchSet{Branches: []models.ConditionBranch{{
			Name: "Branch 1.1",
			Groups: []models.ConditionGroup{{
				GroupLogic: models.LogicOr,
				Lines: []models.ConditionLine{
					{Property: "city", Operator: models.OperatorIs, Value: "Oslo"},
					{Value: "Bucharest"},
				},
			}},
		}}}},
	}

	fields := Render(node, Options{})
	require.Len(t, fields, 1)
	assert.Equal(t, []Branch{{Name: "Branch 1.1", Summary: "City is Oslo OR City is Bucharest"}}, fields[0].Branches)
}

func TestField_MarshalJSON(t *testing.T) {
	t.Parallel()

	raw, err := json.Marshal(Render(surveyNode(), Options{})[1])
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.Equal(t, map[string]any{"kind": "bool", "value": false}, decoded["value"])
	assert.Equal(t, "Notify", decoded["text"])
}

func TestDescriptions(t *testing.T) {
	t.Parallel()

	node := surveyNode()
	assert.Equal(t, "Send to ada@example.com", Description(node))
	assert.Equal(t, "Notify ada@example.com (OFF)", MapDescription(node))
}

func TestValidate(t *testing.T) {
	t.Parallel()

	t.Run("valid", func(t *testing.T) {
		t.Parallel()

		assert.Empty(t, Validate(surveyNode()))
	})

	t.Run("required", func(t *testing.T) {
		t.Parallel()

		node := surveyNode()
		delete(node.Values, "email")

		errs := Validate(node)
		require.Len(t, errs, 1)
		assert.Equal(t, "email", errs[0].ElementID)
		assert.ErrorIs(t, errs[0], ErrRequired)
	})

	t.Run("hidden follow-up is ignored", func(t *testing.T) {
		t.Parallel()

		node := surveyNode()
		node.Values["channel"] = models.Text("Pigeon")
		assert.Empty(t, Validate(node))

		node.Values["notify"] = models.Bool(true)

		errs := Validate(node)
		require.Len(t, errs, 1)
		assert.ErrorIs(t, errs[0], ErrNotAnOption)
	})

	t.Run("bounds", func(t *testing.T) {
		t.Parallel()

		node := surveyNode()
		node.Values["retries"] = models.Number(9)

		errs := Validate(node)
		require.Len(t, errs, 1)
		assert.ErrorIs(t, errs[0], ErrOutOfRange)
		assert.Equal(t, "Retries: must be at most 5", errs[0].Error())
	})
}

func TestScheduleRule(t *testing.T) {
	t.Parallel()

	now := func() time.Time { return time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC) }

	trigger := func(kind, condition string) *models.WorkflowNode {
		return &models.WorkflowNode{
			ID: "t",
			Elements: []models.UIElement{
				{ID: "type", Type: models.ElementDropdown, Label: TriggerTypeLabel, Options: models.TriggerTypes, Required: true},
				{ID: "cond", Type: models.ElementText, Label: TriggerConditionLabel},
			},
			Values: models.Values{"type": models.Text(kind), "cond": models.Text(condition)},
		}
	}

	tests := []struct {
		name    string
		node    *models.WorkflowNode
		wantErr bool
	}{
		{name: "valid cron", node: trigger(models.TriggerTypeSchedule, "*/5 * * * *")},
		{name: "descriptor", node: trigger(models.TriggerTypeSchedule, "@daily")},
		{name: "invalid cron", node: trigger(models.TriggerTypeSchedule, "every monday"), wantErr: true},
		{name: "empty cron", node: trigger(models.TriggerTypeSchedule, ""), wantErr: true},
		{name: "not a schedule", node: trigger(models.TriggerTypeWebhook, "anything")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			errs := Validate(tt.node, ScheduleRule(now))
			if tt.wantErr {
				require.Len(t, errs, 1)
				assert.Equal(t, "cond", errs[0].ElementID)
				assert.ErrorIs(t, errs[0], models.ErrInvalidSchedule)

				return
			}

			assert.Empty(t, errs)
		})
	}
}
