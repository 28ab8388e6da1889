package web

import (
	"bytes"
	"net/url"

	"github.com/gofiber/fiber/v3"

	"github.com/dukex/flowbuilder/pkg/form"
	"github.com/dukex/flowbuilder/pkg/models"
	"github.com/dukex/flowbuilder/pkg/workflow"
)

// execute runs one command against the workflow in the path and writes the
// CommandResponse.
func (h *APIHandlers) execute(c fiber.Ctx, status int, cmd workflow.Command) error {
	wf, result, err := h.studio.Execute(c.Context(), c.Params("id"), cmd)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.Status(status).JSON(CommandResponse{Workflow: wf, Result: result, Banner: h.studio.Banner()})
}

// node looks up the node in the path.
func (h *APIHandlers) node(c fiber.Ctx) (*models.WorkflowNode, error) {
	wf, err := h.studio.Workflow(c.Params("id"))
	if err != nil {
		return nil, err
	}

	node, ok := wf.Node(c.Params("nodeId"))
	if !ok {
		return nil, errNodeNotFound(c.Params("nodeId"))
	}

	return node, nil
}

func errNodeNotFound(id string) error {
	return &workflow.CommandError{Command: "GetNode", NodeID: id, Err: workflow.ErrNodeNotFound}
}

// param returns a path parameter with URL escapes decoded; branch names contain spaces.
func param(c fiber.Ctx, name string) string {
	raw := c.Params(name)

	decoded, err := url.PathUnescape(raw)
	if err != nil {
		return raw
	}

	return decoded
}

func (h *APIHandlers) AddNode(c fiber.Ctx) error {
	var req workflow.AddNode
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	return h.execute(c, fiber.StatusCreated, req)
}

func (h *APIHandlers) ApplySuggestions(c fiber.Ctx) error {
	var req ApplySuggestionsRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	var (
		wf    *models.Workflow
		added []string
	)

	for _, id := range req.TemplateIDs {
		next, result, err := h.studio.Execute(c.Context(), c.Params("id"), workflow.AddNode{TemplateID: id, Branch: req.Branch})
		if err != nil {
			return handleServiceError(c, err)
		}

		wf = next
		added = append(added, result.NodeID)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"workflow": wf,
		"nodeIds":  added,
		"banner":   h.studio.Banner(),
	})
}

func (h *APIHandlers) GetNode(c fiber.Ctx) error {
	node, err := h.node(c)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(node)
}

func (h *APIHandlers) UpdateNode(c fiber.Ctx) error {
	var req workflow.UpdateNode
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	req.NodeID = c.Params("nodeId")

	return h.execute(c, fiber.StatusOK, req)
}

func (h *APIHandlers) RemoveNode(c fiber.Ctx) error {
	return h.execute(c, fiber.StatusOK, workflow.RemoveNode{NodeID: c.Params("nodeId")})
}

func (h *APIHandlers) SetValue(c fiber.Ctx) error {
	var req SetValueRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	node, err := h.node(c)
	if err != nil {
		return handleServiceError(c, err)
	}

	el, ok := models.FindElement(node.AllElements(), c.Params("elementId"))
	if !ok {
		return notFound(c, "element not found")
	}

	cmd := workflow.SetValue{NodeID: node.ID, ElementID: el.ID}

	if len(req.Value) > 0 && !bytes.Equal(bytes.TrimSpace(req.Value), []byte("null")) {
		value, err := models.DecodeForElement(el, req.Value)
		if err != nil {
			return badRequest(c, err.Error())
		}

		cmd.Value = value
	}

	return h.execute(c, fiber.StatusOK, cmd)
}

func (h *APIHandlers) ClearValue(c fiber.Ctx) error {
	return h.execute(c, fiber.StatusOK, workflow.SetValue{NodeID: c.Params("nodeId"), ElementID: c.Params("elementId")})
}

func (h *APIHandlers) UpdateElements(c fiber.Ctx) error {
	var req workflow.UpdateElements
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format: "+err.Error())
	}

	if len(req.Edits) == 0 {
		return badRequest(c, "at least one edit is required")
	}

	req.NodeID = c.Params("nodeId")

	return h.execute(c, fiber.StatusOK, req)
}

func (h *APIHandlers) ClickButton(c fiber.Ctx) error {
	return h.execute(c, fiber.StatusOK, workflow.ClickButton{NodeID: c.Params("nodeId"), ButtonID: c.Params("buttonId")})
}

func (h *APIHandlers) RemoveDynamicElement(c fiber.Ctx) error {
	return h.execute(c, fiber.StatusOK, workflow.RemoveDynamicElement{
		NodeID:    c.Params("nodeId"),
		ButtonID:  c.Params("buttonId"),
		ElementID: c.Params("elementId"),
	})
}

func (h *APIHandlers) GetForm(c fiber.Ctx) error {
	node, err := h.node(c)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(FormResponse{
		NodeID:         node.ID,
		Description:    form.Description(node),
		MapDescription: form.MapDescription(node),
		Fields:         form.Render(node, form.Options{Tab: models.Tab(c.Query("tab"))}),
		Errors:         form.Validate(node, form.ScheduleRule(h.now)),
	})
}

func (h *APIHandlers) AddBranch(c fiber.Ctx) error {
	return h.execute(c, fiber.StatusCreated, workflow.AddBranch{NodeID: c.Params("nodeId")})
}

func (h *APIHandlers) UpdateBranch(c fiber.Ctx) error {
	var branch models.ConditionBranch
	if err := c.Bind().JSON(&branch); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	name := param(c, "name")
	if branch.Name != "" && branch.Name != name {
		return badRequest(c, "branch name in body does not match the path; use the rename endpoint")
	}

	branch.Name = name

	return h.execute(c, fiber.StatusOK, workflow.UpdateBranch{NodeID: c.Params("nodeId"), Branch: branch})
}

func (h *APIHandlers) RenameBranch(c fiber.Ctx) error {
	var req workflow.RenameBranch
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	return h.execute(c, fiber.StatusOK, req)
}

func (h *APIHandlers) DeleteBranches(c fiber.Ctx) error {
	var req workflow.DeleteBranches
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	return h.execute(c, fiber.StatusOK, req)
}
