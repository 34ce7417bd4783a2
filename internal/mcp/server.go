package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"director/internal/gitstate"
	"director/internal/metrics"
	"director/internal/models"
	"director/internal/plan"
	"director/internal/store"
)

// Server wraps the director data layer and exposes it as MCP tools.
type Server struct {
	store       store.Store
	metricsPath string
	planTool    string
}

// NewServer creates the MCP server wrapper. metricsPath is the execution log
// location; planTool is the planning CLI name or path ("" for the default).
func NewServer(s store.Store, metricsPath, planTool string) *Server {
	return &Server{
		store:       s,
		metricsPath: metricsPath,
		planTool:    planTool,
	}
}

// MCPServer returns a configured mcp-go server with all tools registered.
func (s *Server) MCPServer() *server.MCPServer {
	srv := server.NewMCPServer("director", "1.0.0", server.WithToolCapabilities(true))

	srv.AddTool(s.queryPlanTool())
	srv.AddTool(s.gitSnapshotTool())
	srv.AddTool(s.detectConflictsTool())
	srv.AddTool(s.attemptMergeTool())
	srv.AddTool(s.successRateTool())
	srv.AddTool(s.recommendParallelismTool())
	srv.AddTool(s.listSessionsTool())

	return srv
}

// ServeStdio starts the stdio transport, blocking until ctx is cancelled.
func (s *Server) ServeStdio(ctx context.Context) error {
	srv := s.MCPServer()
	stdioServer := server.NewStdioServer(srv)
	return stdioServer.Listen(ctx, os.Stdin, os.Stdout)
}

// ---------------------------------------------------------------------------
// Tool definitions and handlers
// ---------------------------------------------------------------------------

// director_query_plan
func (s *Server) queryPlanTool() (mcp.Tool, server.ToolHandlerFunc) {
	tool := mcp.NewTool("director_query_plan",
		mcp.WithDescription("Query the planning tool's robot execution plan. Returns JSON with success, phases (name + tasks), and a message when the tool is unavailable."),
	)
	return tool, s.handleQueryPlan
}

func (s *Server) handleQueryPlan(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	result := plan.Query(ctx, s.planTool)
	data, err := json.Marshal(result)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to marshal plan: %v", err)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

// director_git_snapshot
func (s *Server) gitSnapshotTool() (mcp.Tool, server.ToolHandlerFunc) {
	tool := mcp.NewTool("director_git_snapshot",
		mcp.WithDescription("Capture the git state of a repository: porcelain status, HEAD commit, and modified file list."),
		mcp.WithString("repo_dir", mcp.Required(), mcp.Description("Absolute path to the git repository")),
	)
	return tool, s.handleGitSnapshot
}

func (s *Server) handleGitSnapshot(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	repoDir, err := request.RequireString("repo_dir")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: repo_dir"), nil
	}

	snapshot, err := gitstate.TakeSnapshot(ctx, repoDir)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("snapshot failed: %v", err)), nil
	}

	data, err := json.Marshal(map[string]any{
		"head":           snapshot.Head,
		"status":         snapshot.Status,
		"modified_files": snapshot.ModifiedFiles,
	})
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to marshal snapshot: %v", err)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

// director_detect_conflicts
func (s *Server) detectConflictsTool() (mcp.Tool, server.ToolHandlerFunc) {
	tool := mcp.NewTool("director_detect_conflicts",
		mcp.WithDescription("List files currently in merge-conflict state in a repository. Returns an empty list when there are none or the query fails."),
		mcp.WithString("repo_dir", mcp.Required(), mcp.Description("Absolute path to the git repository")),
	)
	return tool, s.handleDetectConflicts
}

func (s *Server) handleDetectConflicts(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	repoDir, err := request.RequireString("repo_dir")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: repo_dir"), nil
	}

	conflicts := gitstate.DetectConflicts(ctx, repoDir)
	data, err := json.Marshal(map[string]any{"conflicted_files": conflicts})
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to marshal conflicts: %v", err)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

// director_attempt_merge
func (s *Server) attemptMergeTool() (mcp.Tool, server.ToolHandlerFunc) {
	tool := mcp.NewTool("director_attempt_merge",
		mcp.WithDescription("Attempt to merge a branch into the current branch. Returns merged, conflict (with conflicted files), or error; never fails outright."),
		mcp.WithString("branch", mcp.Required(), mcp.Description("Branch name to merge")),
		mcp.WithString("repo_dir", mcp.Required(), mcp.Description("Absolute path to the git repository")),
	)
	return tool, s.handleAttemptMerge
}

func (s *Server) handleAttemptMerge(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	branch, err := request.RequireString("branch")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: branch"), nil
	}
	repoDir, err := request.RequireString("repo_dir")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: repo_dir"), nil
	}

	result := gitstate.AttemptMerge(ctx, branch, repoDir)
	data, err := json.Marshal(map[string]any{
		"status":           string(result.Status),
		"message":          result.Message,
		"conflicted_files": result.ConflictedFiles,
	})
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to marshal merge result: %v", err)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

// director_success_rate
func (s *Server) successRateTool() (mcp.Tool, server.ToolHandlerFunc) {
	tool := mcp.NewTool("director_success_rate",
		mcp.WithDescription("Compute the success rate from the execution log, optionally filtered by agent type and a trailing time window in hours."),
		mcp.WithString("agent_type", mcp.Description("Only count executions by this agent type")),
		mcp.WithNumber("window_hours", mcp.Description("Only count executions within the last N hours")),
	)
	return tool, s.handleSuccessRate
}

func (s *Server) handleSuccessRate(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	filter := metrics.Filter{
		AgentType: request.GetString("agent_type", ""),
	}
	if hours := request.GetFloat("window_hours", 0); hours > 0 {
		filter.TimeWindow = time.Duration(hours * float64(time.Hour))
	}

	rate, ok := metrics.SuccessRate(s.metricsPath, filter)
	data, err := json.Marshal(map[string]any{
		"success_rate": rate,
		"has_data":     ok,
	})
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to marshal rate: %v", err)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

// director_recommend_parallelism
func (s *Server) recommendParallelismTool() (mcp.Tool, server.ToolHandlerFunc) {
	tool := mcp.NewTool("director_recommend_parallelism",
		mcp.WithDescription("Recommend the next parallelism level from the recent success rate: scale up at 90%, down below 70%, bounded 1-4."),
		mcp.WithNumber("current", mcp.Required(), mcp.Description("Current parallelism level")),
	)
	return tool, s.handleRecommendParallelism
}

func (s *Server) handleRecommendParallelism(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	current, err := request.RequireFloat("current")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: current"), nil
	}

	rate, ok := metrics.SuccessRate(s.metricsPath, metrics.Filter{})
	recommended := int(current)
	if ok {
		recommended = metrics.RecommendParallelism(rate, int(current))
	}

	data, err := json.Marshal(map[string]any{
		"recommended":  recommended,
		"success_rate": rate,
		"has_data":     ok,
	})
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to marshal recommendation: %v", err)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

// director_list_sessions
func (s *Server) listSessionsTool() (mcp.Tool, server.ToolHandlerFunc) {
	tool := mcp.NewTool("director_list_sessions",
		mcp.WithDescription("List spawned sub-agent sessions, newest first. Returns a JSON array with id, issue, agent type, status, outcome, and timestamps."),
		mcp.WithString("issue_id", mcp.Description("Filter by tracker issue id")),
		mcp.WithString("status", mcp.Description("Filter by session status (running, completed, failed, timed_out, cancelled)")),
		mcp.WithNumber("limit", mcp.Description("Maximum number of sessions to return")),
	)
	return tool, s.handleListSessions
}

func (s *Server) handleListSessions(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	filter := store.SessionFilter{
		IssueID: request.GetString("issue_id", ""),
		Status:  models.SessionStatus(request.GetString("status", "")),
		Limit:   int(request.GetFloat("limit", 0)),
	}

	sessions, err := s.store.ListSessions(ctx, filter)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to list sessions: %v", err)), nil
	}

	type sessionOut struct {
		ID        string     `json:"id"`
		IssueID   string     `json:"issue_id"`
		AgentType string     `json:"agent_type"`
		Status    string     `json:"status"`
		Outcome   string     `json:"outcome,omitempty"`
		StartedAt time.Time  `json:"started_at"`
		EndedAt   *time.Time `json:"ended_at,omitempty"`
	}

	out := make([]sessionOut, len(sessions))
	for i, session := range sessions {
		out[i] = sessionOut{
			ID:        session.ID,
			IssueID:   session.IssueID,
			AgentType: session.AgentType,
			Status:    string(session.Status),
			Outcome:   session.Outcome,
			StartedAt: session.StartedAt,
			EndedAt:   session.EndedAt,
		}
	}

	data, err := json.Marshal(out)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to marshal sessions: %v", err)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}
