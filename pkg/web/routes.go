package web

import "github.com/gofiber/fiber/v3"

// Register mounts every console endpoint on router.
func (h *APIHandlers) Register(router fiber.Router) {
	router.Get("/health", h.HealthCheck)
	router.Get("/banner", h.GetBanner)
	router.Delete("/banner", h.DismissBanner)
	router.Get("/icons", h.GetIcons)

	t := router.Group("/templates")
	t.Get("/", h.GetTemplates)
	t.Post("/", h.CreateTemplate)
	t.Get("/:id", h.GetTemplate)
	t.Patch("/:id", h.UpdateTemplate)
	t.Delete("/:id", h.DeleteTemplate)

	w := router.Group("/workflows")
	w.Get("/", h.GetWorkflows)
	w.Post("/", h.CreateWorkflow)
	w.Get("/:id", h.GetWorkflow)
	w.Patch("/:id", h.UpdateWorkflow)
	w.Delete("/:id", h.DeleteWorkflow)

	w.Post("/:id/suggestions", h.ApplySuggestions)
	w.Post("/:id/branches/rename", h.RenameBranch)
	w.Post("/:id/branches/delete", h.DeleteBranches)

	// Node endpoints:
	w.Post("/:id/nodes", h.AddNode)
	w.Get("/:id/nodes/:nodeId", h.GetNode)
	w.Patch("/:id/nodes/:nodeId", h.UpdateNode)
	w.Delete("/:id/nodes/:nodeId", h.RemoveNode)
	w.Get("/:id/nodes/:nodeId/form", h.GetForm)
	w.Patch("/:id/nodes/:nodeId/elements", h.UpdateElements)
	w.Put("/:id/nodes/:nodeId/values/:elementId", h.SetValue)
	w.Delete("/:id/nodes/:nodeId/values/:elementId", h.ClearValue)
	w.Post("/:id/nodes/:nodeId/buttons/:buttonId/click", h.ClickButton)
	w.Delete("/:id/nodes/:nodeId/buttons/:buttonId/elements/:elementId", h.RemoveDynamicElement)
	w.Post("/:id/nodes/:nodeId/branches", h.AddBranch)
	w.Put("/:id/nodes/:nodeId/branches/:name", h.UpdateBranch)

	r := router.Group("/references")
	r.Post("/resolve", h.ResolveReferences)
	r.Post("/suggestions", h.SuggestReferences)
	r.Post("/complete", h.CompleteReference)

	a := router.Group("/assistant")
	a.Get("/messages", h.GetAssistantMessages)
	a.Post("/messages", h.SendAssistantMessage)
	a.Delete("/messages", h.ResetAssistant)
}
