package web

import (
	"encoding/json"

	"github.com/dukex/flowbuilder/pkg/assistant"
	"github.com/dukex/flowbuilder/pkg/form"
	"github.com/dukex/flowbuilder/pkg/models"
	"github.com/dukex/flowbuilder/pkg/reference"
	"github.com/dukex/flowbuilder/pkg/workflow"
)

// CommandResponse is returned by every workflow edit: the new document and what
// the edit changed.
type CommandResponse struct {
	Workflow *models.Workflow `json:"workflow"`
	Result   workflow.Result  `json:"result"`
	Banner   string           `json:"banner,omitempty"`
}

// SetValueRequest carries a bare value decoded by the element's type; null clears it.
type SetValueRequest struct {
	Value json.RawMessage `json:"value"`
}

// FormResponse is the rendered side panel of a node.
type FormResponse struct {
	NodeID         string            `json:"nodeId"`
	Description    string            `json:"description"`
	MapDescription string            `json:"mapDescription"`
	Fields         []form.Field      `json:"fields"`
	Errors         []form.FieldError `json:"errors"`
}

// ScopeRequest names the node whose elements and values a reference request uses.
// Without a node, Elements and Values from the body are used.
type ScopeRequest struct {
	WorkflowID string             `json:"workflowId" validate:"required_with=NodeID"`
	NodeID     string             `json:"nodeId"     validate:"required_with=WorkflowID"`
	Elements   []models.UIElement `json:"elements"`
	Values     models.Values      `json:"values"`
}

type ResolveRequest struct {
	ScopeRequest

	Text string `json:"text"`
}

type ResolveResponse struct {
	Text string `json:"text"`
}

type SuggestionsRequest struct {
	ScopeRequest

	Text   string               `json:"text"`
	Cursor int                  `json:"cursor" validate:"min=0"`
	Types  []models.ElementType `json:"types"`
	Limit  int                  `json:"limit"  validate:"min=0,max=100"`
}

type SuggestionsResponse struct {
	Active      bool                   `json:"active"`
	Query       string                 `json:"query"`
	Suggestions []reference.Suggestion `json:"suggestions"`
}

type CompleteRequest struct {
	Text   string `json:"text"`
	Cursor int    `json:"cursor" validate:"min=0"`
	Label  string `json:"label"  validate:"required"`
}

type CompleteResponse struct {
	Text   string `json:"text"`
	Cursor int    `json:"cursor"`
}

type AssistantMessageRequest struct {
	Message string `json:"message" validate:"required,max=4000"`
}

type AssistantMessageResponse struct {
	Reply       string              `json:"reply"`
	Suggestions []string            `json:"suggestions"`
	Transcript  []assistant.Message `json:"transcript"`
}

// ApplySuggestionsRequest adds one node per suggested template, in order.
type ApplySuggestionsRequest struct {
	TemplateIDs []string `json:"templateIds" validate:"required,min=1,dive,required"`
	Branch      string   `json:"branch"`
}

type IconResponse struct {
	Name         models.IconName         `json:"name"`
	Glyph        string                  `json:"glyph"`
	Capabilities []models.IconCapability `json:"capabilities"`
}
