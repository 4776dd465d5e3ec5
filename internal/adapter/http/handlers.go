package http

import (
	"context"

	"github.com/Strob0t/PlanForge/internal/adapter/litellm"
	"github.com/Strob0t/PlanForge/internal/service"
)

// DefaultMaxBodySize bounds JSON request bodies.
const DefaultMaxBodySize = 1 << 20 // 1 MB

// LLMProxy is the subset of the LiteLLM client exposed over HTTP.
type LLMProxy interface {
	ListModels(ctx context.Context) ([]litellm.Model, error)
	HealthDetailed(ctx context.Context) (*litellm.HealthReport, error)
}

// Handlers holds the HTTP handler dependencies.
type Handlers struct {
	Plans       *service.PlanService
	AI          *service.AIService
	LLM         LLMProxy
	MaxBodySize int64
}

func (h *Handlers) bodyLimit() int64 {
	if h.MaxBodySize > 0 {
		return h.MaxBodySize
	}
	return DefaultMaxBodySize
}
