package web

import (
	"github.com/gofiber/fiber/v3"
)

func (h *APIHandlers) SendAssistantMessage(c fiber.Ctx) error {
	if h.chat == nil {
		return serviceUnavailable(c, "assistant is not configured")
	}

	var req AssistantMessageRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	reply := h.chat.Send(c.Context(), req.Message, h.studio.Catalog())

	suggestions := reply.Suggestions
	if suggestions == nil {
		suggestions = []string{}
	}

	return c.JSON(AssistantMessageResponse{
		Reply:       reply.Reply,
		Suggestions: suggestions,
		Transcript:  h.chat.Transcript(),
	})
}

func (h *APIHandlers) GetAssistantMessages(c fiber.Ctx) error {
	if h.chat == nil {
		return serviceUnavailable(c, "assistant is not configured")
	}

	return c.JSON(fiber.Map{"transcript": h.chat.Transcript()})
}

func (h *APIHandlers) ResetAssistant(c fiber.Ctx) error {
	if h.chat == nil {
		return serviceUnavailable(c, "assistant is not configured")
	}

	h.chat.Reset()

	return c.SendStatus(fiber.StatusNoContent)
}
