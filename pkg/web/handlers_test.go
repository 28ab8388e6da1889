package web_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dukex/flowbuilder/pkg/assistant"
	"github.com/dukex/flowbuilder/pkg/models"
	"github.com/dukex/flowbuilder/pkg/persistence/file"
	"github.com/dukex/flowbuilder/pkg/services"
	"github.com/dukex/flowbuilder/pkg/testutil"
	"github.com/dukex/flowbuilder/pkg/web"
)

type stubSuggester struct {
	reply assistant.Suggestion
	err   error
}

func (s stubSuggester) Suggest(context.Context, []assistant.Message, []models.CatalogEntry) (assistant.Suggestion, error) {
	return s.reply, s.err
}

func setupApp(t *testing.T, chat *assistant.Chat) (*fiber.App, *services.Studio) {
	t.Helper()

	store := file.NewPersistence(t.TempDir())
	require.NoError(t, store.SaveTemplate(t.Context(), testutil.EmailTemplate()))
	require.NoError(t, store.SaveTemplate(t.Context(), testutil.ConditionTemplate()))

	n := 0
	studio := services.NewStudio(store,
		services.WithClock(func() time.Time { return testutil.FixedNow }),
		services.WithNodeIDs(func() string {
			n++

			return fmt.Sprintf("node-%d", n)
		}),
	)
	require.NoError(t, studio.Load(t.Context()))

	app := fiber.New()
	web.NewAPIHandlers(studio, models.NewValidator(), chat).Register(app)

	return app, studio
}

func do(t *testing.T, app *fiber.App, method, path string, body any) (int, map[string]any) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)

		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	require.NoError(t, err)

	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	out := map[string]any{}
	if len(raw) > 0 && raw[0] == '{' {
		require.NoError(t, json.Unmarshal(raw, &out))
	}

	return resp.StatusCode, out
}

func createWorkflow(t *testing.T, app *fiber.App) string {
	t.Helper()

	status, body := do(t, app, http.MethodPost, "/workflows", map[string]any{"name": "Onboarding"})
	require.Equal(t, http.StatusCreated, status)

	return body["id"].(string)
}

func TestHealthCheck(t *testing.T) {
	app, _ := setupApp(t, nil)

	status, body := do(t, app, http.MethodGet, "/health", nil)

	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "healthy", body["status"])
}

func TestTemplates_ListIncludesBootstrappedTrigger(t *testing.T) {
	app, _ := setupApp(t, nil)

	status, body := do(t, app, http.MethodGet, "/templates", nil)
	require.Equal(t, http.StatusOK, status)

	templates := body["templates"].([]any)
	require.Len(t, templates, 3)

	var names []string
	for _, tpl := range templates {
		names = append(names, tpl.(map[string]any)["name"].(string))
	}

	assert.Contains(t, names, services.TriggerTemplateName)
}

func TestTemplates_CreateRejectsUnknownIcon(t *testing.T) {
	app, _ := setupApp(t, nil)

	status, _ := do(t, app, http.MethodPost, "/templates", map[string]any{
		"name": "Broken",
		"icon": "NotAnIcon",
	})

	assert.Equal(t, http.StatusBadRequest, status)
}

func TestWorkflows_CreateValidatesName(t *testing.T) {
	app, _ := setupApp(t, nil)

	status, body := do(t, app, http.MethodPost, "/workflows", map[string]any{"name": ""})

	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "validation_error", body["type"])
}

func TestWorkflows_UnknownID(t *testing.T) {
	app, _ := setupApp(t, nil)

	status, _ := do(t, app, http.MethodGet, "/workflows/missing", nil)
	assert.Equal(t, http.StatusNotFound, status)

	status, _ = do(t, app, http.MethodPost, "/workflows/missing/nodes", map[string]any{"activityTemplateId": "email"})
	assert.Equal(t, http.StatusNotFound, status)
}

func TestNodes_EditAndRenderForm(t *testing.T) {
	app, studio := setupApp(t, nil)
	id := createWorkflow(t, app)

	status, body := do(t, app, http.MethodPost, "/workflows/"+id+"/nodes", map[string]any{"activityTemplateId": "email"})
	require.Equal(t, http.StatusCreated, status)
	assert.Equal(t, "node-1", body["result"].(map[string]any)["nodeId"])

	status, _ = do(t, app, http.MethodPut, "/workflows/"+id+"/nodes/node-1/values/recipient", map[string]any{"value": "ops@example.com"})
	require.Equal(t, http.StatusOK, status)

	wf, err := studio.Workflow(id)
	require.NoError(t, err)

	node, ok := wf.Node("node-1")
	require.True(t, ok)
	assert.Equal(t, models.Text("ops@example.com"), node.Values["recipient"])

	status, body = do(t, app, http.MethodGet, "/workflows/"+id+"/nodes/node-1/form", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "Email ops@example.com", body["description"])

	status, _ = do(t, app, http.MethodDelete, "/workflows/"+id+"/nodes/node-1/values/recipient", nil)
	require.Equal(t, http.StatusOK, status)

	wf, err = studio.Workflow(id)
	require.NoError(t, err)

	node, _ = wf.Node("node-1")
	assert.NotContains(t, node.Values, "recipient")
}

func TestNodes_SetValueRejectsWrongKind(t *testing.T) {
	app, _ := setupApp(t, nil)
	id := createWorkflow(t, app)

	status, _ := do(t, app, http.MethodPost, "/workflows/"+id+"/nodes", map[string]any{"activityTemplateId": "email"})
	require.Equal(t, http.StatusCreated, status)

	status, _ = do(t, app, http.MethodPut, "/workflows/"+id+"/nodes/node-1/values/recipient", map[string]any{"value": 5})
	assert.Equal(t, http.StatusBadRequest, status)

	status, _ = do(t, app, http.MethodPut, "/workflows/"+id+"/nodes/node-1/values/missing", map[string]any{"value": "x"})
	assert.Equal(t, http.StatusNotFound, status)
}

func TestBranches_AddUpdateRenameDelete(t *testing.T) {
	app, studio := setupApp(t, nil)
	id := createWorkflow(t, app)

	status, _ := do(t, app, http.MethodPost, "/workflows/"+id+"/nodes", map[string]any{"activityTemplateId": "condition"})
	require.Equal(t, http.StatusCreated, status)

	status, body := do(t, app, http.MethodPost, "/workflows/"+id+"/nodes/node-1/branches", nil)
	require.Equal(t, http.StatusCreated, status)
	assert.Equal(t, "Branch 1.2", body["result"].(map[string]any)["branch"])

	status, _ = do(t, app, http.MethodPut, "/workflows/"+id+"/nodes/node-1/branches/Branch%201.1", map[string]any{"groups": []any{}})
	require.Equal(t, http.StatusOK, status)

	status, _ = do(t, app, http.MethodPut, "/workflows/"+id+"/nodes/node-1/branches/Branch%201.1", map[string]any{"name": "Other"})
	assert.Equal(t, http.StatusBadRequest, status)

	status, _ = do(t, app, http.MethodPost, "/workflows/"+id+"/nodes", map[string]any{"activityTemplateId": "email", "branch": "Branch 1.2"})
	require.Equal(t, http.StatusCreated, status)

	status, _ = do(t, app, http.MethodPost, "/workflows/"+id+"/branches/rename", map[string]any{"oldName": "Branch 1.2", "newName": "Escalate"})
	require.Equal(t, http.StatusOK, status)

	wf, err := studio.Workflow(id)
	require.NoError(t, err)

	email, ok := wf.Node("node-2")
	require.True(t, ok)
	assert.Equal(t, "Escalate", email.Branch)

	status, body = do(t, app, http.MethodPost, "/workflows/"+id+"/branches/delete", map[string]any{"names": []string{"Escalate"}})
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, []any{"node-2"}, body["result"].(map[string]any)["removedNodes"])

	status, _ = do(t, app, http.MethodPost, "/workflows/"+id+"/branches/delete", map[string]any{"names": []string{}})
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestApplySuggestions_AddsNodesInOrder(t *testing.T) {
	app, studio := setupApp(t, nil)
	id := createWorkflow(t, app)

	status, body := do(t, app, http.MethodPost, "/workflows/"+id+"/suggestions", map[string]any{"templateIds": []string{"email", "condition"}})
	require.Equal(t, http.StatusCreated, status)
	assert.Equal(t, []any{"node-1", "node-2"}, body["nodeIds"])

	wf, err := studio.Workflow(id)
	require.NoError(t, err)
	require.Len(t, wf.Nodes, 2)
	assert.Equal(t, "condition", wf.Nodes[1].ActivityTemplateID)
}

func TestReferences(t *testing.T) {
	app, _ := setupApp(t, nil)
	id := createWorkflow(t, app)

	status, _ := do(t, app, http.MethodPost, "/workflows/"+id+"/nodes", map[string]any{"activityTemplateId": "email"})
	require.Equal(t, http.StatusCreated, status)

	status, _ = do(t, app, http.MethodPut, "/workflows/"+id+"/nodes/node-1/values/subject", map[string]any{"value": "Welcome"})
	require.Equal(t, http.StatusOK, status)

	t.Run("resolve against a node", func(t *testing.T) {
		status, body := do(t, app, http.MethodPost, "/references/resolve", map[string]any{
			"workflowId": id,
			"nodeId":     "node-1",
			"text":       "Re: #{Subject} for #{Recipient}",
		})

		require.Equal(t, http.StatusOK, status)
		assert.Equal(t, "Re: Welcome for ", body["text"])
	})

	t.Run("node without workflow", func(t *testing.T) {
		status, _ := do(t, app, http.MethodPost, "/references/resolve", map[string]any{"nodeId": "node-1", "text": "x"})
		assert.Equal(t, http.StatusBadRequest, status)
	})

	t.Run("suggestions", func(t *testing.T) {
		status, body := do(t, app, http.MethodPost, "/references/suggestions", map[string]any{
			"workflowId": id,
			"nodeId":     "node-1",
			"text":       "Hi #{Sub",
			"cursor":     8,
		})

		require.Equal(t, http.StatusOK, status)
		assert.Equal(t, true, body["active"])
		assert.Equal(t, "Sub", body["query"])

		suggestions := body["suggestions"].([]any)
		require.Len(t, suggestions, 1)
		assert.Equal(t, "#{Subject}", suggestions[0].(map[string]any)["token"])
	})

	t.Run("suggestions without an open token", func(t *testing.T) {
		status, body := do(t, app, http.MethodPost, "/references/suggestions", map[string]any{"text": "plain", "cursor": 5})

		require.Equal(t, http.StatusOK, status)
		assert.Equal(t, false, body["active"])
		assert.Empty(t, body["suggestions"])
	})

	t.Run("complete", func(t *testing.T) {
		status, body := do(t, app, http.MethodPost, "/references/complete", map[string]any{
			"text":   "Hi #Sub",
			"cursor": 7,
			"label":  "Subject",
		})

		require.Equal(t, http.StatusOK, status)
		assert.Equal(t, "Hi #{Subject}", body["text"])
		assert.InDelta(t, 13, body["cursor"], 0)
	})
}

func TestAssistant(t *testing.T) {
	t.Run("disabled without a model", func(t *testing.T) {
		app, _ := setupApp(t, nil)

		status, _ := do(t, app, http.MethodPost, "/assistant/messages", map[string]any{"message": "hi"})
		assert.Equal(t, http.StatusServiceUnavailable, status)
	})

	t.Run("conversation", func(t *testing.T) {
		chat := assistant.NewChat(stubSuggester{reply: assistant.Suggestion{Reply: "Try email", Suggestions: []string{"email"}}}, nil)
		app, _ := setupApp(t, chat)

		status, body := do(t, app, http.MethodPost, "/assistant/messages", map[string]any{"message": "notify the team"})
		require.Equal(t, http.StatusOK, status)
		assert.Equal(t, "Try email", body["reply"])
		assert.Equal(t, []any{"email"}, body["suggestions"])
		assert.Len(t, body["transcript"], 2)

		status, _ = do(t, app, http.MethodDelete, "/assistant/messages", nil)
		require.Equal(t, http.StatusNoContent, status)

		status, body = do(t, app, http.MethodGet, "/assistant/messages", nil)
		require.Equal(t, http.StatusOK, status)
		assert.Empty(t, body["transcript"])
	})

	t.Run("fallback reply on model failure", func(t *testing.T) {
		chat := assistant.NewChat(stubSuggester{err: errors.New("boom")}, nil)
		app, _ := setupApp(t, chat)

		status, body := do(t, app, http.MethodPost, "/assistant/messages", map[string]any{"message": "hi"})
		require.Equal(t, http.StatusOK, status)
		assert.Equal(t, assistant.FallbackReply, body["reply"])
	})
}

func TestIcons_FilterByCapability(t *testing.T) {
	app, _ := setupApp(t, nil)

	req := httptest.NewRequest(http.MethodGet, "/icons?capability=template", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)

	defer resp.Body.Close()

	var icons []web.IconResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&icons))
	assert.Len(t, icons, len(models.Icons(models.IconCapability("template"))))
}
