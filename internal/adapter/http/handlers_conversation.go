package http

import (
	"net/http"

	"github.com/Strob0t/PlanForge/internal/domain/conversation"
)

// Chat handles POST /api/v1/projects/{id}/chat
func (h *Handlers) Chat(w http.ResponseWriter, r *http.Request) {
	projectID, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	req, ok := readJSON[conversation.ChatRequest](w, r, h.bodyLimit())
	if !ok {
		return
	}

	resp, err := h.AI.Chat(r.Context(), projectID, req)
	if err != nil {
		writeDomainError(w, r, err, "project or conversation not found")
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// ExtractPlan handles POST /api/v1/projects/{id}/extract-plan
func (h *Handlers) ExtractPlan(w http.ResponseWriter, r *http.Request) {
	projectID, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	p, err := h.AI.ExtractPlan(r.Context(), projectID)
	if err != nil {
		writeDomainError(w, r, err, "project not found")
		return
	}
	writeJSON(w, http.StatusOK, p)
}
