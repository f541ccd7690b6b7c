package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	mcplib "github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/Strob0t/MissionControl/internal/domain/agent"
	"github.com/Strob0t/MissionControl/internal/domain/message"
)

// registerTools registers all MCP tools on the server.
func (s *Server) registerTools() {
	s.mcpServer.AddTools(
		s.getBoardTool(),
		s.getTaskTool(),
		s.postMessageTool(),
		s.heartbeatTool(),
		s.setStatusTool(),
		s.listNotificationsTool(),
		s.markNotificationsDeliveredTool(),
	)
}

func (s *Server) getBoardTool() mcpserver.ServerTool {
	tool := mcplib.NewTool("get_board",
		mcplib.WithDescription("Get all tasks grouped by status column"),
	)
	return mcpserver.ServerTool{Tool: tool, Handler: s.handleGetBoard}
}

func (s *Server) getTaskTool() mcpserver.ServerTool {
	tool := mcplib.NewTool("get_task",
		mcplib.WithDescription("Get a single task with its assignee"),
		mcplib.WithString("task_id", mcplib.Required(), mcplib.Description("The task ID")),
	)
	return mcpserver.ServerTool{Tool: tool, Handler: s.handleGetTask}
}

func (s *Server) postMessageTool() mcpserver.ServerTool {
	tool := mcplib.NewTool("post_message",
		mcplib.WithDescription("Post a message on a task thread. @name mentions notify the named agents"),
		mcplib.WithString("task_id", mcplib.Required(), mcplib.Description("The task ID")),
		mcplib.WithString("content", mcplib.Required(), mcplib.Description("Message text")),
		mcplib.WithString("sender_id", mcplib.Description("Sending agent ID; omit for a human or system sender")),
		mcplib.WithString("type", mcplib.Enum("text", "system", "error"), mcplib.Description("Message type, default text")),
	)
	return mcpserver.ServerTool{Tool: tool, Handler: s.handlePostMessage}
}

func (s *Server) heartbeatTool() mcpserver.ServerTool {
	tool := mcplib.NewTool("heartbeat",
		mcplib.WithDescription("Report that an agent is alive, optionally updating its model, session and current task"),
		mcplib.WithString("agent_id", mcplib.Required(), mcplib.Description("The agent ID")),
		mcplib.WithString("current_model", mcplib.Description("Model the agent is running")),
		mcplib.WithString("session_key", mcplib.Description("Orchestrator session key")),
		mcplib.WithString("current_task_id", mcplib.Description("Task the agent is working on")),
	)
	return mcpserver.ServerTool{Tool: tool, Handler: s.handleHeartbeat}
}

func (s *Server) setStatusTool() mcpserver.ServerTool {
	tool := mcplib.NewTool("set_status",
		mcplib.WithDescription("Set an agent's status"),
		mcplib.WithString("agent_id", mcplib.Required(), mcplib.Description("The agent ID")),
		mcplib.WithString("status", mcplib.Required(), mcplib.Enum("idle", "active", "busy", "error")),
		mcplib.WithString("current_task_id", mcplib.Description("Task the agent is working on; omit to clear")),
	)
	return mcpserver.ServerTool{Tool: tool, Handler: s.handleSetStatus}
}

func (s *Server) listNotificationsTool() mcpserver.ServerTool {
	tool := mcplib.NewTool("list_notifications",
		mcplib.WithDescription("List mention notifications for an agent, newest first"),
		mcplib.WithString("agent_id", mcplib.Required(), mcplib.Description("The agent ID")),
		mcplib.WithBoolean("undelivered_only", mcplib.Description("Only return undelivered notifications")),
		mcplib.WithNumber("limit", mcplib.Description("Maximum number of notifications, default 50")),
	)
	return mcpserver.ServerTool{Tool: tool, Handler: s.handleListNotifications}
}

func (s *Server) markNotificationsDeliveredTool() mcpserver.ServerTool {
	tool := mcplib.NewTool("mark_notifications_delivered",
		mcplib.WithDescription("Mark every undelivered notification of an agent as delivered"),
		mcplib.WithString("agent_id", mcplib.Required(), mcplib.Description("The agent ID")),
	)
	return mcpserver.ServerTool{Tool: tool, Handler: s.handleMarkNotificationsDelivered}
}

func (s *Server) handleGetBoard(ctx context.Context, _ mcplib.CallToolRequest) (*mcplib.CallToolResult, error) { //nolint:gocritic // hugeParam: mcp-go handler signature
	if s.deps.Tasks == nil {
		return mcplib.NewToolResultError("task service not configured"), nil
	}
	board, err := s.deps.Tasks.ListByStatus(ctx)
	if err != nil {
		return mcplib.NewToolResultErrorFromErr("failed to load board", err), nil
	}
	return toolResultJSON(board)
}

func (s *Server) handleGetTask(ctx context.Context, req mcplib.CallToolRequest) (*mcplib.CallToolResult, error) { //nolint:gocritic // hugeParam: mcp-go handler signature
	if s.deps.Tasks == nil {
		return mcplib.NewToolResultError("task service not configured"), nil
	}
	args := req.GetArguments()
	taskID := stringArg(args, "task_id")
	if taskID == "" {
		return mcplib.NewToolResultError("task_id is required"), nil
	}
	t, err := s.deps.Tasks.Get(ctx, taskID)
	if err != nil {
		return mcplib.NewToolResultErrorFromErr(fmt.Sprintf("failed to get task %s", taskID), err), nil
	}
	return toolResultJSON(t)
}

func (s *Server) handlePostMessage(ctx context.Context, req mcplib.CallToolRequest) (*mcplib.CallToolResult, error) { //nolint:gocritic // hugeParam: mcp-go handler signature
	if s.deps.Messages == nil {
		return mcplib.NewToolResultError("message service not configured"), nil
	}
	args := req.GetArguments()
	in := message.CreateRequest{
		TaskID:   stringArg(args, "task_id"),
		Content:  stringArg(args, "content"),
		SenderID: optionalStringArg(args, "sender_id"),
		Type:     message.Type(stringArg(args, "type")),
	}
	created, err := s.deps.Messages.Create(ctx, in)
	if err != nil {
		return mcplib.NewToolResultErrorFromErr("failed to post message", err), nil
	}
	return toolResultJSON(created)
}

func (s *Server) handleHeartbeat(ctx context.Context, req mcplib.CallToolRequest) (*mcplib.CallToolResult, error) { //nolint:gocritic // hugeParam: mcp-go handler signature
	if s.deps.Agents == nil {
		return mcplib.NewToolResultError("agent service not configured"), nil
	}
	args := req.GetArguments()
	agentID := stringArg(args, "agent_id")
	if agentID == "" {
		return mcplib.NewToolResultError("agent_id is required"), nil
	}
	a, err := s.deps.Agents.Heartbeat(ctx, agentID, agent.HeartbeatRequest{
		CurrentModel:  optionalStringArg(args, "current_model"),
		SessionKey:    optionalStringArg(args, "session_key"),
		CurrentTaskID: optionalStringArg(args, "current_task_id"),
	})
	if err != nil {
		return mcplib.NewToolResultErrorFromErr("heartbeat failed", err), nil
	}
	return toolResultJSON(a)
}

func (s *Server) handleSetStatus(ctx context.Context, req mcplib.CallToolRequest) (*mcplib.CallToolResult, error) { //nolint:gocritic // hugeParam: mcp-go handler signature
	if s.deps.Agents == nil {
		return mcplib.NewToolResultError("agent service not configured"), nil
	}
	args := req.GetArguments()
	agentID := stringArg(args, "agent_id")
	if agentID == "" {
		return mcplib.NewToolResultError("agent_id is required"), nil
	}
	a, err := s.deps.Agents.SetStatus(ctx, agentID, agent.StatusRequest{
		Status:        agent.Status(stringArg(args, "status")),
		CurrentTaskID: optionalStringArg(args, "current_task_id"),
	})
	if err != nil {
		return mcplib.NewToolResultErrorFromErr("failed to set status", err), nil
	}
	return toolResultJSON(a)
}

func (s *Server) handleListNotifications(ctx context.Context, req mcplib.CallToolRequest) (*mcplib.CallToolResult, error) { //nolint:gocritic // hugeParam: mcp-go handler signature
	if s.deps.Notifications == nil {
		return mcplib.NewToolResultError("notification service not configured"), nil
	}
	args := req.GetArguments()
	agentID := stringArg(args, "agent_id")
	if agentID == "" {
		return mcplib.NewToolResultError("agent_id is required"), nil
	}
	undelivered, _ := args["undelivered_only"].(bool)
	limit := 0
	if n, ok := args["limit"].(float64); ok && n > 0 {
		limit = int(n)
	}
	notes, err := s.deps.Notifications.ListForAgent(ctx, agentID, undelivered, limit)
	if err != nil {
		return mcplib.NewToolResultErrorFromErr("failed to list notifications", err), nil
	}
	return toolResultJSON(notes)
}

func (s *Server) handleMarkNotificationsDelivered(ctx context.Context, req mcplib.CallToolRequest) (*mcplib.CallToolResult, error) { //nolint:gocritic // hugeParam: mcp-go handler signature
	if s.deps.Notifications == nil {
		return mcplib.NewToolResultError("notification service not configured"), nil
	}
	agentID := stringArg(req.GetArguments(), "agent_id")
	if agentID == "" {
		return mcplib.NewToolResultError("agent_id is required"), nil
	}
	n, err := s.deps.Notifications.MarkAllDelivered(ctx, agentID)
	if err != nil {
		return mcplib.NewToolResultErrorFromErr("failed to mark notifications", err), nil
	}
	return toolResultJSON(map[string]int64{"delivered": n})
}

// toolResultJSON marshals v into a text result.
func toolResultJSON(v any) (*mcplib.CallToolResult, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return mcplib.NewToolResultErrorFromErr("failed to marshal result", err), nil
	}
	return mcplib.NewToolResultText(string(data)), nil
}

func stringArg(args map[string]any, key string) string {
	v, _ := args[key].(string)
	return v
}

// optionalStringArg returns nil for a missing or empty argument.
func optionalStringArg(args map[string]any, key string) *string {
	v, ok := args[key].(string)
	if !ok || v == "" {
		return nil
	}
	return &v
}
