package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// MountRoutes registers all API routes on the given chi router.
func MountRoutes(r chi.Router, h *Handlers, version string) {
	limit := h.bodyLimit()

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/", func(w http.ResponseWriter, _ *http.Request) {
			writeJSON(w, http.StatusOK, map[string]string{"version": version})
		})

		// Projects
		r.Get("/projects", handleList(h.Plans.ListProjects))
		r.Post("/projects", handleCreate(limit, h.Plans.CreateProject))
		r.Get("/projects/{id}", handleGet(h.Plans.GetProject, "project not found"))
		r.Put("/projects/{id}", handleUpdate(limit, h.Plans.UpdateProject, "project not found"))
		r.Delete("/projects/{id}", handleDelete(h.Plans.DeleteProject, "project not found"))

		// Epics
		r.Get("/projects/{id}/epics", handleListByParent(h.Plans.ListEpics, "project not found"))
		r.Post("/projects/{id}/epics", handleCreateUnder(limit, h.Plans.CreateEpic, "project not found"))
		r.Put("/projects/{id}/epics/reorder", handleReorder(limit, h.Plans.ReorderEpics, "project not found"))
		r.Put("/epics/{id}", handleUpdate(limit, h.Plans.UpdateEpic, "epic not found"))
		r.Delete("/epics/{id}", handleDelete(h.Plans.DeleteEpic, "epic not found"))

		// Stories
		r.Get("/epics/{id}/stories", handleListByParent(h.Plans.ListStories, "epic not found"))
		r.Post("/epics/{id}/stories", handleCreateUnder(limit, h.Plans.CreateStory, "epic not found"))
		r.Put("/epics/{id}/stories/reorder", handleReorder(limit, h.Plans.ReorderStories, "epic not found"))
		r.Put("/stories/{id}", handleUpdate(limit, h.Plans.UpdateStory, "story not found"))
		r.Delete("/stories/{id}", handleDelete(h.Plans.DeleteStory, "story not found"))

		// Tasks
		r.Get("/stories/{id}/tasks", handleListByParent(h.Plans.ListTasks, "story not found"))
		r.Post("/stories/{id}/tasks", handleCreateUnder(limit, h.Plans.CreateTask, "story not found"))
		r.Put("/stories/{id}/tasks/reorder", handleReorder(limit, h.Plans.ReorderTasks, "story not found"))
		r.Put("/tasks/{id}", handleUpdate(limit, h.Plans.UpdateTask, "task not found"))
		r.Delete("/tasks/{id}", handleDelete(h.Plans.DeleteTask, "task not found"))

		// Conversations and plan synthesis
		r.Post("/projects/{id}/chat", h.Chat)
		r.Post("/projects/{id}/extract-plan", h.ExtractPlan)
		r.Get("/projects/{id}/conversations", handleListByParent(h.AI.Conversations, "project not found"))

		// LLM (proxied to LiteLLM)
		r.Get("/llm/models", h.ListLLMModels)
		r.Get("/llm/health", h.LLMHealth)
	})
}
