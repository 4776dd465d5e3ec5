package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/Strob0t/PlanForge/internal/adapter/litellm"
	pfotel "github.com/Strob0t/PlanForge/internal/adapter/otel"
	"github.com/Strob0t/PlanForge/internal/config"
	"github.com/Strob0t/PlanForge/internal/domain"
	"github.com/Strob0t/PlanForge/internal/domain/prompt"
)

// ChatCompleter is the model transport used by AssistantGateway.
// *litellm.Client implements it.
type ChatCompleter interface {
	ChatCompletion(ctx context.Context, req litellm.ChatCompletionRequest) (*litellm.ChatCompletionResponse, error)
}

// AssistantGateway sends prompts to the model and folds every failure into
// domain.ErrGeneration.
type AssistantGateway struct {
	llm     ChatCompleter
	cfg     config.LLM
	metrics *pfotel.Metrics
}

// NewAssistantGateway creates a gateway. metrics may be nil.
func NewAssistantGateway(llm ChatCompleter, cfg config.LLM, metrics *pfotel.Metrics) *AssistantGateway {
	return &AssistantGateway{llm: llm, cfg: cfg, metrics: metrics}
}

// Invoke performs one completion bounded by the configured timeout and
// returns the model's text. Transport errors, an open circuit, a timeout,
// and blank output all fail with domain.ErrGeneration.
func (g *AssistantGateway) Invoke(ctx context.Context, messages []prompt.Message) (text string, err error) {
	ctx, span := pfotel.StartInvokeSpan(ctx, g.cfg.Model, len(messages))
	started := time.Now()
	defer func() {
		g.metrics.RecordLLMCall(ctx, g.cfg.Model, started, err)
		pfotel.EndSpan(span, err)
	}()

	if g.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.cfg.Timeout)
		defer cancel()
	}

	req := litellm.ChatCompletionRequest{
		Model:       g.cfg.Model,
		Messages:    make([]litellm.ChatMessage, len(messages)),
		Temperature: g.cfg.Temperature,
		MaxTokens:   g.cfg.MaxTokens,
	}
	for i, m := range messages {
		req.Messages[i] = litellm.ChatMessage{Role: string(m.Role), Content: m.Content}
	}

	resp, err := g.llm.ChatCompletion(ctx, req)
	if err != nil {
		slog.ErrorContext(ctx, "assistant invocation failed", "model", g.cfg.Model, "error", err)
		return "", fmt.Errorf("assistant unavailable: %w: %w", domain.ErrGeneration, err)
	}
	// PostgreSQL text columns reject NUL.
	content := strings.ReplaceAll(resp.Content, "\x00", "")
	if strings.TrimSpace(content) == "" {
		return "", fmt.Errorf("assistant returned an empty response: %w", domain.ErrGeneration)
	}

	slog.DebugContext(ctx, "assistant invocation done",
		"model", resp.Model, "tokens_in", resp.TokensIn, "tokens_out", resp.TokensOut,
		"duration_ms", time.Since(started).Milliseconds())
	return content, nil
}
