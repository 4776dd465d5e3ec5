package http

import (
	"log/slog"
	"net/http"

	"github.com/Strob0t/PlanForge/internal/adapter/litellm"
)

// ListLLMModels handles GET /api/v1/llm/models
func (h *Handlers) ListLLMModels(w http.ResponseWriter, r *http.Request) {
	models, err := h.LLM.ListModels(r.Context())
	if err != nil {
		slog.ErrorContext(r.Context(), "litellm unavailable", "error", err)
		writeError(w, http.StatusBadGateway, "LLM service unavailable")
		return
	}
	if models == nil {
		models = []litellm.Model{}
	}
	writeJSON(w, http.StatusOK, models)
}

type llmHealthResponse struct {
	Status         string `json:"status"`
	HealthyCount   int    `json:"healthyCount"`
	UnhealthyCount int    `json:"unhealthyCount"`
}

// LLMHealth handles GET /api/v1/llm/health
func (h *Handlers) LLMHealth(w http.ResponseWriter, r *http.Request) {
	report, err := h.LLM.HealthDetailed(r.Context())
	if err != nil {
		slog.WarnContext(r.Context(), "litellm health check failed", "error", err)
		writeJSON(w, http.StatusOK, llmHealthResponse{Status: "unhealthy"})
		return
	}

	status := "healthy"
	if report.HealthyCount == 0 {
		status = "unhealthy"
	} else if report.UnhealthyCount > 0 {
		status = "degraded"
	}
	writeJSON(w, http.StatusOK, llmHealthResponse{
		Status:         status,
		HealthyCount:   report.HealthyCount,
		UnhealthyCount: report.UnhealthyCount,
	})
}
