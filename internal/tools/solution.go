package tools

import (
	"context"
	"fmt"

	"github.com/dcastillo/roslyn-mcp/internal/orchestrator"
	"github.com/mark3labs/mcp-go/mcp"
)

// SelectSolutionTool handles the select_solution MCP tool. Selecting a
// solution installs a fresh workspace session at snapshot version 1
// and invalidates every previously discovered action.
type SelectSolutionTool struct {
	orch *orchestrator.Orchestrator
}

// NewSelectSolutionTool creates a SelectSolutionTool.
func NewSelectSolutionTool(orch *orchestrator.Orchestrator) *SelectSolutionTool {
	return &SelectSolutionTool{orch: orch}
}

// Definition returns the MCP tool definition for registration.
func (t *SelectSolutionTool) Definition() mcp.Tool {
	return mcp.NewTool("select_solution",
		mcp.WithDescription(
			"Load a solution (.sln, .slnx, or .csproj) as the active workspace. "+
				"Replaces any previously selected solution and invalidates all "+
				"previously discovered action ids.",
		),
		mcp.WithString("path",
			mcp.Required(),
			mcp.Description("Path to the solution artifact. Must be inside the configured allowed roots."),
		),
	)
}

// Handle processes the select_solution tool call.
func (t *SelectSolutionTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path := req.GetString("path", "")

	sess, err := t.orch.SelectSolution(ctx, path)
	if err != nil {
		return faultResult(err)
	}

	return mcp.NewToolResultText(fmt.Sprintf(
		"# Solution Selected\n\n"+
			"**Path:** `%s`\n"+
			"**Snapshot version:** %d\n\n"+
			"Use `discover_code_fixes` or `discover_refactorings` to find available actions.",
		sess.Path, sess.Version,
	)), nil
}

// ReloadSolutionTool handles the reload_solution MCP tool.
type ReloadSolutionTool struct {
	orch *orchestrator.Orchestrator
}

// NewReloadSolutionTool creates a ReloadSolutionTool.
func NewReloadSolutionTool(orch *orchestrator.Orchestrator) *ReloadSolutionTool {
	return &ReloadSolutionTool{orch: orch}
}

// Definition returns the MCP tool definition for registration.
func (t *ReloadSolutionTool) Definition() mcp.Tool {
	return mcp.NewTool("reload_solution",
		mcp.WithDescription(
			"Reload the selected solution from disk, picking up external edits. "+
				"Advances the snapshot version and invalidates all previously "+
				"discovered action ids.",
		),
	)
}

// Handle processes the reload_solution tool call.
func (t *ReloadSolutionTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sess, err := t.orch.ReloadSolution(ctx)
	if err != nil {
		return faultResult(err)
	}

	return mcp.NewToolResultText(fmt.Sprintf(
		"# Solution Reloaded\n\n"+
			"**Path:** `%s`\n"+
			"**Snapshot version:** %d\n\n"+
			"All previously discovered action ids are now stale; re-run discovery.",
		sess.Path, sess.Version,
	)), nil
}

// SolutionStatusTool handles the solution_status MCP tool, for clients
// that cannot read the roslyn://workspace/status resource.
type SolutionStatusTool struct {
	orch *orchestrator.Orchestrator
}

// NewSolutionStatusTool creates a SolutionStatusTool.
func NewSolutionStatusTool(orch *orchestrator.Orchestrator) *SolutionStatusTool {
	return &SolutionStatusTool{orch: orch}
}

// Definition returns the MCP tool definition for registration.
func (t *SolutionStatusTool) Definition() mcp.Tool {
	return mcp.NewTool("solution_status",
		mcp.WithDescription(
			"Report the active solution, its snapshot version, the number of "+
				"pending discovered actions, and the active policy profile.",
		),
	)
}

// Handle processes the solution_status tool call.
func (t *SolutionStatusTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	profile := t.orch.Profile()

	sess, err := t.orch.Session()
	if err != nil {
		// No solution selected is a normal status, not an error.
		return mcp.NewToolResultText(fmt.Sprintf(
			"# Workspace Status\n\n"+
				"**Solution:** none selected\n"+
				"**Profile:** %s (max risk: %s)\n\n"+
				"Call `select_solution` to load a workspace.",
			profile.Name, profile.MaxRisk,
		)), nil
	}

	return mcp.NewToolResultText(fmt.Sprintf(
		"# Workspace Status\n\n"+
			"**Solution:** `%s`\n"+
			"**Snapshot version:** %d\n"+
			"**Pending actions:** %d\n"+
			"**Profile:** %s (max risk: %s)",
		sess.Path, sess.Version, t.orch.PendingActions(),
		profile.Name, profile.MaxRisk,
	)), nil
}
