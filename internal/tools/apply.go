package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/dcastillo/roslyn-mcp/internal/orchestrator"
	"github.com/mark3labs/mcp-go/mcp"
)

// ApplyActionTool handles the apply_action MCP tool.
type ApplyActionTool struct {
	orch *orchestrator.Orchestrator
}

// NewApplyActionTool creates an ApplyActionTool.
func NewApplyActionTool(orch *orchestrator.Orchestrator) *ApplyActionTool {
	return &ApplyActionTool{orch: orch}
}

// Definition returns the MCP tool definition for registration.
func (t *ApplyActionTool) Definition() mcp.Tool {
	return mcp.NewTool("apply_action",
		mcp.WithDescription(
			"Commit a discovered code fix or refactoring. On success the "+
				"snapshot version advances and every previously discovered "+
				"action id, including this one, becomes stale. Fails with "+
				"StaleWorkspaceSnapshot if the workspace mutated since discovery, "+
				"or FixConflict if the underlying document diverged.",
		),
		mcp.WithString("action_id",
			mcp.Required(),
			mcp.Description("An action id returned by discover_code_fixes or discover_refactorings."),
		),
	)
}

// Handle processes the apply_action tool call.
func (t *ApplyActionTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	actionID := req.GetString("action_id", "")
	if strings.TrimSpace(actionID) == "" {
		return mcp.NewToolResultError("'action_id' is required: run discovery first"), nil
	}

	result, err := t.orch.Apply(ctx, actionID)
	if err != nil {
		return faultResult(err)
	}

	return mcp.NewToolResultText(fmt.Sprintf(
		"# Applied: %s\n\n"+
			"**Snapshot version:** %d\n"+
			"**Changed files (%d):**\n\n%s\n"+
			"All previously discovered action ids are now stale; re-run discovery.",
		result.Title, result.Version, len(result.ChangedFiles), fileList(result.ChangedFiles),
	)), nil
}
