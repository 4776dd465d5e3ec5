package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"

	mcplib "github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/Strob0t/PlanForge/internal/domain"
	"github.com/Strob0t/PlanForge/internal/domain/conversation"
	"github.com/Strob0t/PlanForge/internal/domain/plan"
)

// registerTools registers all MCP tools on the server.
func (s *Server) registerTools() {
	s.mcpServer.AddTools(
		s.listProjectsTool(),
		s.getProjectPlanTool(),
		s.sendChatMessageTool(),
		s.extractPlanTool(),
	)
}

func (s *Server) listProjectsTool() mcpserver.ServerTool {
	tool := mcplib.NewTool("list_projects",
		mcplib.WithDescription("List all projects, newest first"),
	)
	return mcpserver.ServerTool{Tool: tool, Handler: s.handleListProjects}
}

func (s *Server) getProjectPlanTool() mcpserver.ServerTool {
	tool := mcplib.NewTool("get_project_plan",
		mcplib.WithDescription("Show a project's epics, user stories and tasks as an indented outline"),
		mcplib.WithNumber("project_id", mcplib.Required(), mcplib.Description("The project ID")),
	)
	return mcpserver.ServerTool{Tool: tool, Handler: s.handleGetProjectPlan}
}

func (s *Server) sendChatMessageTool() mcpserver.ServerTool {
	tool := mcplib.NewTool("send_chat_message",
		mcplib.WithDescription("Send a message to the planning assistant about a project. "+
			"Omit conversation_id to start a new conversation."),
		mcplib.WithNumber("project_id", mcplib.Required(), mcplib.Description("The project ID")),
		mcplib.WithString("message", mcplib.Required(), mcplib.Description("The message text")),
		mcplib.WithNumber("conversation_id", mcplib.Description("An existing conversation of the project")),
	)
	return mcpserver.ServerTool{Tool: tool, Handler: s.handleSendChatMessage}
}

func (s *Server) extractPlanTool() mcpserver.ServerTool {
	tool := mcplib.NewTool("extract_plan",
		mcplib.WithDescription("Replace the project's plan with one extracted from all of its conversations"),
		mcplib.WithNumber("project_id", mcplib.Required(), mcplib.Description("The project ID")),
	)
	return mcpserver.ServerTool{Tool: tool, Handler: s.handleExtractPlan}
}

func (s *Server) handleListProjects(ctx context.Context, _ mcplib.CallToolRequest) (*mcplib.CallToolResult, error) { //nolint:gocritic // hugeParam: mcp-go handler signature
	if s.deps.Projects == nil {
		return mcplib.NewToolResultError("project reader not configured"), nil
	}
	projects, err := s.deps.Projects.ListProjects(ctx)
	if err != nil {
		return mcplib.NewToolResultErrorFromErr("failed to list projects", err), nil
	}
	return toolResultJSON(projects)
}

func (s *Server) handleGetProjectPlan(ctx context.Context, req mcplib.CallToolRequest) (*mcplib.CallToolResult, error) { //nolint:gocritic // hugeParam: mcp-go handler signature
	if s.deps.Projects == nil {
		return mcplib.NewToolResultError("project reader not configured"), nil
	}
	projectID, err := idArg(req.GetArguments(), "project_id")
	if err != nil {
		return mcplib.NewToolResultError(err.Error()), nil
	}
	p, err := s.deps.Projects.GetProject(ctx, projectID)
	if err != nil {
		return toolResultDomainError(fmt.Sprintf("failed to get project %d", projectID), err), nil
	}
	return mcplib.NewToolResultText(plan.RenderSnapshot(p)), nil
}

func (s *Server) handleSendChatMessage(ctx context.Context, req mcplib.CallToolRequest) (*mcplib.CallToolResult, error) { //nolint:gocritic // hugeParam: mcp-go handler signature
	if s.deps.Assistant == nil {
		return mcplib.NewToolResultError("assistant not configured"), nil
	}
	args := req.GetArguments()
	projectID, err := idArg(args, "project_id")
	if err != nil {
		return mcplib.NewToolResultError(err.Error()), nil
	}
	message, _ := args["message"].(string)
	chat := conversation.ChatRequest{Message: message}
	if _, ok := args["conversation_id"]; ok {
		convID, err := idArg(args, "conversation_id")
		if err != nil {
			return mcplib.NewToolResultError(err.Error()), nil
		}
		chat.ConversationID = &convID
	}

	resp, err := s.deps.Assistant.Chat(ctx, projectID, chat)
	if err != nil {
		return toolResultDomainError("chat failed", err), nil
	}
	return toolResultJSON(resp)
}

func (s *Server) handleExtractPlan(ctx context.Context, req mcplib.CallToolRequest) (*mcplib.CallToolResult, error) { //nolint:gocritic // hugeParam: mcp-go handler signature
	if s.deps.Assistant == nil {
		return mcplib.NewToolResultError("assistant not configured"), nil
	}
	projectID, err := idArg(req.GetArguments(), "project_id")
	if err != nil {
		return mcplib.NewToolResultError(err.Error()), nil
	}
	p, err := s.deps.Assistant.ExtractPlan(ctx, projectID)
	if err != nil {
		return toolResultDomainError("plan extraction failed", err), nil
	}
	return mcplib.NewToolResultText(plan.RenderSnapshot(p)), nil
}

// idArg reads a positive integer argument. JSON numbers arrive as float64.
func idArg(args map[string]any, name string) (int64, error) {
	switch v := args[name].(type) {
	case float64:
		if v > 0 && v == math.Trunc(v) {
			return int64(v), nil
		}
	case int:
		if v > 0 {
			return int64(v), nil
		}
	case int64:
		if v > 0 {
			return v, nil
		}
	case nil:
		return 0, fmt.Errorf("%s is required", name)
	}
	return 0, fmt.Errorf("%s must be a positive integer", name)
}

func toolResultJSON(v any) (*mcplib.CallToolResult, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return mcplib.NewToolResultErrorFromErr("failed to marshal result", err), nil
	}
	return mcplib.NewToolResultText(string(data)), nil
}

// toolResultDomainError reports not-found and validation failures with
// their message and hides anything else behind msg.
func toolResultDomainError(msg string, err error) *mcplib.CallToolResult {
	switch {
	case errors.Is(err, domain.ErrNotFound), errors.Is(err, domain.ErrValidation), errors.Is(err, domain.ErrGeneration):
		return mcplib.NewToolResultErrorFromErr(msg, err)
	default:
		return mcplib.NewToolResultError(msg)
	}
}
