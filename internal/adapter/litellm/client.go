// Package litellm provides an HTTP client for the LiteLLM Proxy, covering
// the OpenAI-compatible chat endpoint and the admin endpoints used for
// health and model discovery.
package litellm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/Strob0t/PlanForge/internal/resilience"
)

// Model represents a configured model in LiteLLM.
type Model struct {
	ModelName string         `json:"model_name"`
	Provider  string         `json:"litellm_provider,omitempty"`
	ModelID   string         `json:"model_id,omitempty"`
	ModelInfo map[string]any `json:"model_info,omitempty"`
	Params    map[string]any `json:"litellm_params,omitempty"`
}

// HealthReport is the detailed health output of the proxy.
type HealthReport struct {
	HealthyEndpoints   []EndpointHealth `json:"healthy_endpoints"`
	UnhealthyEndpoints []EndpointHealth `json:"unhealthy_endpoints"`
	HealthyCount       int              `json:"healthy_count"`
	UnhealthyCount     int              `json:"unhealthy_count"`
}

// EndpointHealth represents the health of a single model endpoint.
type EndpointHealth struct {
	Model   string `json:"model"`
	APIBase string `json:"api_base,omitempty"`
	Error   string `json:"error,omitempty"`
}

// Client talks to the LiteLLM Proxy.
type Client struct {
	baseURL   string
	masterKey string
	// adminHTTP serves the short admin calls; chatHTTP has no client-side
	// timeout because completions are bounded by the caller's context.
	adminHTTP *http.Client
	chatHTTP  *http.Client
	breaker   *resilience.Breaker
}

// NewClient creates a new LiteLLM client.
func NewClient(baseURL, masterKey string) *Client {
	return &Client{
		baseURL:   baseURL,
		masterKey: masterKey,
		adminHTTP: &http.Client{
			Timeout: 10 * time.Second,
		},
		chatHTTP: &http.Client{},
	}
}

// SetBreaker attaches a circuit breaker to chat completion calls.
func (c *Client) SetBreaker(b *resilience.Breaker) {
	c.breaker = b
}

// ListModels returns all configured models from LiteLLM.
func (c *Client) ListModels(ctx context.Context) ([]Model, error) {
	resp, err := c.doRequest(ctx, c.adminHTTP, http.MethodGet, "/model/info", nil)
	if err != nil {
		return nil, fmt.Errorf("list models: %w", err)
	}

	var result struct {
		Data []Model `json:"data"`
	}
	if err := json.Unmarshal(resp, &result); err != nil {
		return nil, fmt.Errorf("unmarshal models: %w", err)
	}
	if result.Data == nil {
		result.Data = []Model{}
	}
	return result.Data, nil
}

// Health checks if LiteLLM is reachable.
func (c *Client) Health(ctx context.Context) (bool, error) {
	_, err := c.doRequest(ctx, c.adminHTTP, http.MethodGet, "/health/liveliness", nil)
	return err == nil, err
}

// HealthDetailed returns the per-endpoint health report. LiteLLM probes
// every configured model for this call, so it can be slow.
func (c *Client) HealthDetailed(ctx context.Context) (*HealthReport, error) {
	resp, err := c.doRequest(ctx, c.adminHTTP, http.MethodGet, "/health", nil)
	if err != nil {
		return nil, fmt.Errorf("health: %w", err)
	}

	var report HealthReport
	if err := json.Unmarshal(resp, &report); err != nil {
		return nil, fmt.Errorf("unmarshal health: %w", err)
	}
	if report.HealthyCount == 0 {
		report.HealthyCount = len(report.HealthyEndpoints)
	}
	if report.UnhealthyCount == 0 {
		report.UnhealthyCount = len(report.UnhealthyEndpoints)
	}
	return &report, nil
}

func (c *Client) doRequest(ctx context.Context, hc *http.Client, method, path string, body []byte) ([]byte, error) {
	var bodyReader io.Reader
	if body != nil {
		bodyReader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	if c.masterKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.masterKey)
	}

	resp, err := hc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode >= 400 {
		return nil, &APIError{StatusCode: resp.StatusCode, Body: truncate(string(data), 512)}
	}
	return data, nil
}

// APIError is returned for any non-2xx response from the proxy.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("litellm API error %d: %s", e.StatusCode, e.Body)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
