// Package web provides the HTTP API of the workflow-builder console.
package web

import (
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"

	"github.com/dukex/flowbuilder/pkg/assistant"
	"github.com/dukex/flowbuilder/pkg/models"
	"github.com/dukex/flowbuilder/pkg/services"
)

type APIHandlers struct {
	studio    *services.Studio
	validator *validator.Validate
	chat      *assistant.Chat
	now       func() time.Time
}

// NewAPIHandlers creates the handlers. chat may be nil when no language model is
// configured; the assistant endpoints then answer 503.
func NewAPIHandlers(studio *services.Studio, validator *validator.Validate, chat *assistant.Chat) *APIHandlers {
	return &APIHandlers{
		studio:    studio,
		validator: validator,
		chat:      chat,
		now:       time.Now,
	}
}

func (h *APIHandlers) HealthCheck(c fiber.Ctx) error {
	repositoryCheck, repOk := h.studio.HealthCheck(c.Context())

	status := "unhealthy"
	message := "Flowbuilder API is unhealthy"
	httpStatus := http.StatusInternalServerError

	if repOk {
		status = "healthy"
		message = "Flowbuilder API is healthy"
		httpStatus = http.StatusOK
	}

	return c.Status(httpStatus).JSON(fiber.Map{
		"status":  status,
		"message": message,
		"checkers": fiber.Map{
			"repository": repositoryCheck,
			"loaded":     h.studio.Loaded(),
		},
		"timestamp": h.now().UTC(),
	})
}

func (h *APIHandlers) GetBanner(c fiber.Ctx) error {
	return c.JSON(fiber.Map{"banner": h.studio.Banner()})
}

func (h *APIHandlers) DismissBanner(c fiber.Ctx) error {
	h.studio.DismissBanner()

	return c.SendStatus(fiber.StatusNoContent)
}

func (h *APIHandlers) GetIcons(c fiber.Ctx) error {
	capability := models.IconCapability(c.Query("capability"))

	icons := models.Icons(capability)

	out := make([]IconResponse, 0, len(icons))
	for _, icon := range icons {
		out = append(out, IconResponse{Name: icon.Name, Glyph: icon.Glyph, Capabilities: icon.Capabilities})
	}

	return c.JSON(out)
}

func (h *APIHandlers) GetTemplates(c fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"templates": h.studio.Templates(),
		"banner":    h.studio.Banner(),
	})
}

func (h *APIHandlers) GetTemplate(c fiber.Ctx) error {
	template, err := h.studio.Template(c.Params("id"))
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(template)
}

func (h *APIHandlers) CreateTemplate(c fiber.Ctx) error {
	var req models.ActivityTemplate
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format: "+err.Error())
	}

	created, err := h.studio.CreateTemplate(c.Context(), &req)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(created)
}

func (h *APIHandlers) UpdateTemplate(c fiber.Ctx) error {
	var req services.UpdateTemplateRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format: "+err.Error())
	}

	updated, err := h.studio.UpdateTemplate(c.Context(), c.Params("id"), req)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(updated)
}

func (h *APIHandlers) DeleteTemplate(c fiber.Ctx) error {
	if err := h.studio.DeleteTemplate(c.Context(), c.Params("id")); err != nil {
		return handleServiceError(c, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

func (h *APIHandlers) GetWorkflows(c fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"workflows": h.studio.Workflows(),
		"banner":    h.studio.Banner(),
	})
}

func (h *APIHandlers) GetWorkflow(c fiber.Ctx) error {
	wf, err := h.studio.Workflow(c.Params("id"))
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(wf)
}

func (h *APIHandlers) CreateWorkflow(c fiber.Ctx) error {
	var req services.CreateWorkflowRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	created, err := h.studio.CreateWorkflow(c.Context(), req)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(created)
}

func (h *APIHandlers) UpdateWorkflow(c fiber.Ctx) error {
	var req services.UpdateWorkflowRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	updated, err := h.studio.UpdateWorkflow(c.Context(), c.Params("id"), req)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(updated)
}

func (h *APIHandlers) DeleteWorkflow(c fiber.Ctx) error {
	if err := h.studio.DeleteWorkflow(c.Context(), c.Params("id")); err != nil {
		return handleServiceError(c, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}
