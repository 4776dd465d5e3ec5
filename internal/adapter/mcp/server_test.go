package mcp_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	mcplib "github.com/mark3labs/mcp-go/mcp"

	pfmcp "github.com/Strob0t/PlanForge/internal/adapter/mcp"
	"github.com/Strob0t/PlanForge/internal/domain"
	"github.com/Strob0t/PlanForge/internal/domain/conversation"
	"github.com/Strob0t/PlanForge/internal/domain/plan"
)

// --- Mocks ---

type mockProjects struct {
	projects []plan.Project
	err      error
}

func (m *mockProjects) ListProjects(context.Context) ([]plan.Project, error) {
	return m.projects, m.err
}

func (m *mockProjects) GetProject(_ context.Context, id int64) (*plan.Project, error) {
	for i := range m.projects {
		if m.projects[i].ID == id {
			return &m.projects[i], nil
		}
	}
	return nil, fmt.Errorf("get project %d: %w", id, domain.ErrNotFound)
}

type mockAssistant struct {
	got     conversation.ChatRequest
	chatErr error
	plan    *plan.Project
}

func (m *mockAssistant) Chat(_ context.Context, _ int64, req conversation.ChatRequest) (*conversation.ChatResponse, error) {
	m.got = req
	if m.chatErr != nil {
		return nil, m.chatErr
	}
	return &conversation.ChatResponse{ConversationID: 3, UserMessage: req.Message, AssistantMessage: "noted"}, nil
}

func (m *mockAssistant) ExtractPlan(context.Context, int64) (*plan.Project, error) {
	return m.plan, nil
}

func newServer(deps pfmcp.ServerDeps) *pfmcp.Server {
	return pfmcp.NewServer(pfmcp.ServerConfig{Name: "test", Version: "0.1.0"}, deps)
}

func callTool(t *testing.T, s *pfmcp.Server, name string, args map[string]any) *mcplib.CallToolResult {
	t.Helper()
	tool, ok := s.MCPServer().ListTools()[name]
	if !ok {
		t.Fatalf("%s tool not found", name)
	}
	result, err := tool.Handler(context.Background(), mcplib.CallToolRequest{
		Params: mcplib.CallToolParams{Name: name, Arguments: args},
	})
	if err != nil {
		t.Fatalf("handler error: %v", err)
	}
	return result
}

func resultText(t *testing.T, r *mcplib.CallToolResult) string {
	t.Helper()
	text, ok := r.Content[0].(mcplib.TextContent)
	if !ok {
		t.Fatal("expected TextContent")
	}
	return text.Text
}

func shopProject() plan.Project {
	return plan.Project{ID: 1, Name: "Shop", Epics: []plan.Epic{{
		Title: "Auth", Priority: plan.PriorityHigh, Status: plan.StatusTodo, OrderIndex: plan.IntPtr(0),
		Stories: []plan.Story{{Title: "Login", Priority: plan.PriorityMedium, Status: plan.StatusTodo, OrderIndex: plan.IntPtr(0)}},
	}}}
}

// --- Tests ---

func TestToolRegistration(t *testing.T) {
	tools := newServer(pfmcp.ServerDeps{}).MCPServer().ListTools()

	expected := []string{"list_projects", "get_project_plan", "send_chat_message", "extract_plan"}
	if len(tools) != len(expected) {
		t.Fatalf("expected %d tools, got %d", len(expected), len(tools))
	}
	for _, name := range expected {
		if _, ok := tools[name]; !ok {
			t.Errorf("expected tool %q not registered", name)
		}
	}
}

func TestHandleListProjects(t *testing.T) {
	s := newServer(pfmcp.ServerDeps{Projects: &mockProjects{projects: []plan.Project{{ID: 1, Name: "Alpha"}, {ID: 2, Name: "Beta"}}}})

	result := callTool(t, s, "list_projects", nil)
	if result.IsError {
		t.Fatalf("tool returned error: %v", result.Content)
	}
	var projects []plan.Project
	if err := json.Unmarshal([]byte(resultText(t, result)), &projects); err != nil {
		t.Fatalf("unmarshal error: %v", err)
	}
	if len(projects) != 2 {
		t.Fatalf("expected 2 projects, got %d", len(projects))
	}
}

func TestHandleGetProjectPlan(t *testing.T) {
	s := newServer(pfmcp.ServerDeps{Projects: &mockProjects{projects: []plan.Project{shopProject()}}})

	result := callTool(t, s, "get_project_plan", map[string]any{"project_id": float64(1)})
	if result.IsError {
		t.Fatalf("tool returned error: %v", result.Content)
	}
	text := resultText(t, result)
	if !strings.Contains(text, "Auth") || !strings.Contains(text, "Login") {
		t.Errorf("snapshot lacks plan entries: %q", text)
	}

	if r := callTool(t, s, "get_project_plan", map[string]any{"project_id": float64(9)}); !r.IsError {
		t.Error("expected error result for unknown project")
	}
}

func TestHandleArgumentErrors(t *testing.T) {
	s := newServer(pfmcp.ServerDeps{Projects: &mockProjects{}, Assistant: &mockAssistant{}})

	tests := []struct {
		tool string
		args map[string]any
	}{
		{"get_project_plan", nil},
		{"get_project_plan", map[string]any{"project_id": "1"}},
		{"get_project_plan", map[string]any{"project_id": float64(1.5)}},
		{"extract_plan", map[string]any{"project_id": float64(-1)}},
		{"send_chat_message", map[string]any{"project_id": float64(1), "message": "hi", "conversation_id": "x"}},
	}
	for _, tt := range tests {
		if r := callTool(t, s, tt.tool, tt.args); !r.IsError {
			t.Errorf("%s %v: expected error result", tt.tool, tt.args)
		}
	}
}

func TestHandleSendChatMessage(t *testing.T) {
	assistant := &mockAssistant{}
	s := newServer(pfmcp.ServerDeps{Assistant: assistant})

	result := callTool(t, s, "send_chat_message", map[string]any{
		"project_id": float64(1), "message": "We sell shoes.", "conversation_id": float64(3),
	})
	if result.IsError {
		t.Fatalf("tool returned error: %v", result.Content)
	}
	if assistant.got.ConversationID == nil || *assistant.got.ConversationID != 3 || assistant.got.Message != "We sell shoes." {
		t.Errorf("unexpected chat request: %+v", assistant.got)
	}
	var resp conversation.ChatResponse
	if err := json.Unmarshal([]byte(resultText(t, result)), &resp); err != nil || resp.AssistantMessage != "noted" {
		t.Errorf("unexpected response %+v: %v", resp, err)
	}

	assistant.chatErr = fmt.Errorf("assistant unavailable: %w", domain.ErrGeneration)
	if r := callTool(t, s, "send_chat_message", map[string]any{"project_id": float64(1), "message": "hi"}); !r.IsError {
		t.Error("expected error result when the assistant fails")
	}
	if assistant.got.ConversationID != nil {
		t.Error("conversation id should be nil when omitted")
	}
}

func TestHandleExtractPlan(t *testing.T) {
	p := shopProject()
	s := newServer(pfmcp.ServerDeps{Assistant: &mockAssistant{plan: &p}})

	result := callTool(t, s, "extract_plan", map[string]any{"project_id": float64(1)})
	if result.IsError || !strings.Contains(resultText(t, result), "Auth") {
		t.Fatalf("unexpected result: %+v", result)
	}
}

func TestHandleNilDeps(t *testing.T) {
	s := newServer(pfmcp.ServerDeps{})
	for _, name := range []string{"list_projects", "extract_plan"} {
		if r := callTool(t, s, name, map[string]any{"project_id": float64(1)}); !r.IsError {
			t.Errorf("%s: expected error result when deps are nil", name)
		}
	}
}

func TestAuthMiddleware(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) })

	tests := []struct {
		name   string
		key    string
		header string
		want   int
	}{
		{"disabled", "", "", http.StatusOK},
		{"missing", "secret", "", http.StatusUnauthorized},
		{"not bearer", "secret", "secret", http.StatusUnauthorized},
		{"wrong", "secret", "Bearer nope", http.StatusForbidden},
		{"valid", "secret", "Bearer secret", http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/mcp", http.NoBody)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			pfmcp.AuthMiddleware(tt.key, next).ServeHTTP(rec, req)
			if rec.Code != tt.want {
				t.Errorf("expected %d, got %d", tt.want, rec.Code)
			}
		})
	}
}
