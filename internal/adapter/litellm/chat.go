package litellm

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
)

// ChatMessage is one message of an OpenAI-compatible chat request.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatCompletionRequest is the body sent to /v1/chat/completions.
type ChatCompletionRequest struct {
	Model       string        `json:"model"`
	Messages    []ChatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
}

// ChatCompletionResponse is the flattened result of a completion.
type ChatCompletionResponse struct {
	Content      string
	Model        string
	FinishReason string
	TokensIn     int
	TokensOut    int
}

type chatCompletionWire struct {
	Model   string `json:"model"`
	Choices []struct {
		Message struct {
			Content *string `json:"content"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
	} `json:"usage"`
}

// ChatCompletion sends a non-streaming completion request. When a breaker
// is attached, the call runs through it and fails fast while the circuit
// is open.
func (c *Client) ChatCompletion(ctx context.Context, req ChatCompletionRequest) (*ChatCompletionResponse, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshal chat completion: %w", err)
	}

	var data []byte
	call := func() error {
		var err error
		data, err = c.doRequest(ctx, c.chatHTTP, http.MethodPost, "/v1/chat/completions", body)
		return err
	}
	if c.breaker != nil {
		err = c.breaker.Execute(call)
	} else {
		err = call()
	}
	if err != nil {
		return nil, fmt.Errorf("chat completion: %w", err)
	}

	var wire chatCompletionWire
	if err := json.Unmarshal(data, &wire); err != nil {
		return nil, fmt.Errorf("unmarshal chat completion: %w", err)
	}
	if len(wire.Choices) == 0 {
		return nil, fmt.Errorf("chat completion: response has no choices")
	}

	choice := wire.Choices[0]
	resp := &ChatCompletionResponse{
		Model:        wire.Model,
		FinishReason: choice.FinishReason,
		TokensIn:     wire.Usage.PromptTokens,
		TokensOut:    wire.Usage.CompletionTokens,
	}
	if choice.Message.Content != nil {
		resp.Content = *choice.Message.Content
	}
	return resp, nil
}
