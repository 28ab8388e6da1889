package web

import (
	"github.com/gofiber/fiber/v3"

	"github.com/dukex/flowbuilder/pkg/models"
	"github.com/dukex/flowbuilder/pkg/reference"
)

// scope returns the elements and values a reference request resolves against.
func (h *APIHandlers) scope(req ScopeRequest) ([]models.UIElement, models.Values, error) {
	if req.NodeID == "" {
		return req.Elements, req.Values, nil
	}

	wf, err := h.studio.Workflow(req.WorkflowID)
	if err != nil {
		return nil, nil, err
	}

	node, ok := wf.Node(req.NodeID)
	if !ok {
		return nil, nil, errNodeNotFound(req.NodeID)
	}

	return node.AllElements(), node.Values, nil
}

func (h *APIHandlers) ResolveReferences(c fiber.Ctx) error {
	var req ResolveRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req.ScopeRequest); err != nil {
		return badRequest(c, err.Error())
	}

	elements, values, err := h.scope(req.ScopeRequest)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(ResolveResponse{Text: reference.Resolve(req.Text, elements, values)})
}

func (h *APIHandlers) SuggestReferences(c fiber.Ctx) error {
	var req SuggestionsRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	elements, _, err := h.scope(req.ScopeRequest)
	if err != nil {
		return handleServiceError(c, err)
	}

	query, active := reference.ActiveQuery(req.Text, req.Cursor)
	if !active {
		return c.JSON(SuggestionsResponse{Suggestions: []reference.Suggestion{}})
	}

	suggestions := reference.Suggestions(query.Text, elements, reference.SuggestOptions{Types: req.Types, Limit: req.Limit})
	if suggestions == nil {
		suggestions = []reference.Suggestion{}
	}

	return c.JSON(SuggestionsResponse{Active: true, Query: query.Text, Suggestions: suggestions})
}

func (h *APIHandlers) CompleteReference(c fiber.Ctx) error {
	var req CompleteRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	text, cursor := reference.Complete(req.Text, req.Cursor, req.Label)

	return c.JSON(CompleteResponse{Text: text, Cursor: cursor})
}
