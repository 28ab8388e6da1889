package conditions

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dukex/flowbuilder/pkg/models"
)

func countryBranch() models.ConditionBranch {
	return models.ConditionBranch{
		Name:       "Branch 1.1",
		OuterLogic: models.LogicAnd,
		Groups: []models.ConditionGroup{
			{
				GroupLogic: models.LogicAnd,
				Lines:      []models.ConditionLine{{Property: "country", Operator: models.OperatorIs, Value: "US"}},
			},
		},
	}
}

func TestEvaluate_SimpleCondition(t *testing.T) {
	t.Parallel()

	elements := []models.UIElement{{ID: "countryFieldId", Type: models.ElementText, Label: "Country"}}

	assert.True(t, Evaluate(countryBranch(), elements, models.Values{"countryFieldId": models.Text("US")}))
	assert.False(t, Evaluate(countryBranch(), elements, models.Values{"countryFieldId": models.Text("Canada")}))
	assert.False(t, Evaluate(countryBranch(), elements, nil))
}

func TestEvaluate_PropertyResolution(t *testing.T) {
	t.Parallel()

	elements := []models.UIElement{
		{ID: "f1", Type: models.ElementText, Label: "First Name"},
		{ID: "f2", Type: models.ElementText, Label: "Job Title"},
	}
	values := models.Values{"f1": models.Text("Ada"), "f2": models.Text("Engineer")}

	testCases := []struct {
		name     string
		property string
		value    string
	}{
		{name: "by id", property: "f1", value: "Ada"},
		{name: "by label ignoring case", property: "first name", value: "Ada"},
		{name: "by snake case label", property: "job_title", value: "Engineer"},
		{name: "by camel case label", property: "jobTitle", value: "Engineer"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			branch := models.ConditionBranch{Groups: []models.ConditionGroup{{
				Lines: []models.ConditionLine{{Property: tc.property, Operator: models.OperatorIs, Value: tc.value}},
			}}}

			assert.True(t, Evaluate(branch, elements, values))
		})
	}
}

func TestEvaluate_GroupAndOuterLogic(t *testing.T) {
	t.Parallel()

	elements := []models.UIElement{
		{ID: "city", Type: models.ElementText, Label: "City"},
		{ID: "tier", Type: models.ElementText, Label: "Tier"},
	}

	branch := models.ConditionBranch{
		OuterLogic: models.LogicOr,
		Groups: []models.ConditionGroup{
			{
				GroupLogic: models.LogicOr,
				Lines: []models.ConditionLine{
					{Property: "city", Operator: models.OperatorIs, Value: "Oslo"},
					{Value: "Bucharest"},
				},
			},
			{
				GroupLogic: models.LogicAnd,
				Lines:      []models.ConditionLine{{Property: "tier", Operator: models.OperatorContains, Value: "gold"}},
			},
		},
	}

	assert.True(t, Evaluate(branch, elements, models.Values{"city": models.Text("Bucharest")}))
	assert.True(t, Evaluate(branch, elements, models.Values{"city": models.Text("Paris"), "tier": models.Text("rose-gold")}))
	assert.False(t, Evaluate(branch, elements, models.Values{"city": models.Text("Paris"), "tier": models.Text("silver")}))

	branch.OuterLogic = models.LogicAnd
	assert.False(t, Evaluate(branch, elements, models.Values{"city": models.Text("Oslo")}))
	assert.True(t, Evaluate(branch, elements, models.Values{"city": models.Text("Oslo"), "tier": models.Text("gold")}))
}

func TestEvaluate_UnconditionalBranch(t *testing.T) {
	t.Parallel()

	branch := NewBranch("Branch 1.1", 1)
	assert.True(t, Evaluate(branch, nil, nil))
}

func TestCompare(t *testing.T) {
	t.Parallel()

	toggle := &models.UIElement{ID: "t", Type: models.ElementToggle}

	testCases := []struct {
		name  string
		el    *models.UIElement
		value models.FieldValue
		op    models.Operator
		want  string
		ok    bool
	}{
		{name: "list is any", value: models.StringList{"a", "b"}, op: models.OperatorIs, want: "b", ok: true},
		{name: "list is_not none", value: models.StringList{"a", "b"}, op: models.OperatorIsNot, want: "b", ok: false},
		{name: "list contains substring", value: models.StringList{"alpha"}, op: models.OperatorContains, want: "lph", ok: true},
		{name: "missing value is empty string", value: nil, op: models.OperatorIs, want: "", ok: true},
		{name: "missing is_not", value: nil, op: models.OperatorIsNot, want: "x", ok: true},
		{name: "toggle true", el: toggle, value: models.Bool(true), op: models.OperatorIs, want: "true", ok: true},
		{name: "toggle ON", el: toggle, value: models.Bool(true), op: models.OperatorIs, want: "ON", ok: true},
		{name: "number", value: models.Number(3), op: models.OperatorIs, want: "3", ok: true},
		{name: "case sensitive", value: models.Text("US"), op: models.OperatorIs, want: "us", ok: false},
		{name: "starts with", value: models.Text("hello"), op: models.OperatorStartsWith, want: "he", ok: true},
		{name: "is empty", value: models.Text(""), op: models.OperatorIsEmpty, ok: true},
		{name: "unknown operator", value: models.Text("x"), op: "greater_than", want: "x", ok: false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tc.ok, Compare(tc.el, tc.value, tc.op, tc.want))
		})
	}
}

func TestSummarize_MultiLineInheritance(t *testing.T) {
	t.Parallel()

	branch := models.ConditionBranch{
		Groups: []models.ConditionGroup{{
			GroupLogic: models.LogicOr,
			Lines: []models.ConditionLine{
				{Property: "city", Operator: models.OperatorIs, Value: "Oslo"},
				{Operator: models.OperatorIs, Value: "Bucharest"},
			},
		}},
	}

	assert.Equal(t, "City is Oslo OR City is Bucharest", Summarize(branch, nil))
}

func TestSummarize_Groups(t *testing.T) {
	t.Parallel()

	branch := models.ConditionBranch{
		OuterLogic: models.LogicOr,
		Groups: []models.ConditionGroup{
			{
				GroupLogic: models.LogicAnd,
				Lines: []models.ConditionLine{
					{Property: "first_name", Operator: models.OperatorIsNot, Value: "Bob"},
					{Property: "emailAddress", Operator: models.OperatorContains, Value: "@acme"},
				},
			},
			{Lines: []models.ConditionLine{{Property: "status", Operator: models.OperatorIsEmpty}}},
			{Lines: []models.ConditionLine{{Value: "ignored"}}},
		},
	}

	assert.Equal(t,
		"(First Name is not Bob AND Email Address contains @acme) OR Status is empty",
		Summarize(branch, nil))
}

func TestSummarize_ElementOverrides(t *testing.T) {
	t.Parallel()

	module := &models.UIElement{
		ID:              "cond",
		Type:            models.ElementConditionsModule,
		PropertyOptions: []models.Option{{Value: "city", Label: "Town"}},
		OperatorOptions: []models.Option{{Value: "is", Label: "equals"}},
	}

	branch := models.ConditionBranch{Groups: []models.ConditionGroup{{
		Lines: []models.ConditionLine{{Property: "city", Operator: models.OperatorIs, Value: "Oslo"}},
	}}}

	assert.Equal(t, "Town equals Oslo", Summarize(branch, module))
	assert.Equal(t, map[string]string{}, SummarizeAll([]models.ConditionBranch{NewBranch("Branch 1.1", 1)}, module))
}

func TestPrettifier_Tiers(t *testing.T) {
	t.Parallel()

	p := &Prettifier{
		Properties: map[string]string{"order_total": "Order Total ($)", "customerTier": "Customer Tier"},
		Operators:  map[string]string{},
	}

	assert.Equal(t, "Order Total ($)", p.Property("order_total"))
	assert.Equal(t, "Order Total ($)", p.Property("orderTotal"))
	assert.Equal(t, "Customer Tier", p.Property("customer_tier"))
	assert.Equal(t, "Shipping Method", p.Property("shipping_method"))
	assert.Equal(t, "Shipping Method", p.Property("shippingMethod"))
	assert.Equal(t, "Greater Than", p.Operator("greater_than"))
	assert.Empty(t, p.Property(""))
}

func TestCaseConversion(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "order_total", ToSnake("orderTotal"))
	assert.Equal(t, "http_status", ToSnake("HTTPStatus"))
	assert.Equal(t, "orderTotal", ToCamel("order_total"))
	assert.Equal(t, "Kebab Case Words", TitleCase("kebab-case-words"))
}

func TestAddBranch(t *testing.T) {
	t.Parallel()

	branches := AddBranch(nil, 3, nil)
	require.Len(t, branches, 1)
	assert.Equal(t, "Branch 3.1", branches[0].Name)
	assert.Equal(t, 3, branches[0].ConditionNodeNumber)

	branches = AddBranch(branches, 3, nil)
	assert.Equal(t, "Branch 3.2", branches[1].Name)

	branches[0].Name = "Branch 3.3"
	taken := func(name string) bool { return name == "Branch 3.4" }

	branches = AddBranch(branches, 3, taken)
	assert.Equal(t, "Branch 3.5", branches[2].Name)
}
