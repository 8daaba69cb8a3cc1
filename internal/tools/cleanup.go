package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/dcastillo/roslyn-mcp/internal/orchestrator"
	"github.com/dcastillo/roslyn-mcp/internal/provider"
	"github.com/mark3labs/mcp-go/mcp"
)

// RunCleanupTool handles the run_cleanup MCP tool.
type RunCleanupTool struct {
	orch *orchestrator.Orchestrator
}

// NewRunCleanupTool creates a RunCleanupTool.
func NewRunCleanupTool(orch *orchestrator.Orchestrator) *RunCleanupTool {
	return &RunCleanupTool{orch: orch}
}

// Definition returns the MCP tool definition for registration.
func (t *RunCleanupTool) Definition() mcp.Tool {
	return mcp.NewTool("run_cleanup",
		mcp.WithDescription(
			"Run the active profile's ordered cleanup rules against a scope. "+
				"Rules blocked by policy are skipped and reported as warnings. "+
				"The snapshot version advances once for the whole batch, and only "+
				"if at least one rule changed a file. Pass expected_version to "+
				"guard against concurrent mutations: a mismatch fails "+
				"WorkspaceChanged before any rule runs.",
		),
		mcp.WithString("scope",
			mcp.Required(),
			mcp.Description("How much of the workspace to clean."),
			mcp.Enum("document", "project", "solution"),
		),
		mcp.WithNumber("expected_version",
			mcp.Description("Optional optimistic-concurrency guard: the snapshot version the caller last observed."),
		),
	)
}

// Handle processes the run_cleanup tool call.
func (t *RunCleanupTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	scope := provider.Scope(req.GetString("scope", ""))
	if err := provider.ValidateScope(scope); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var expected *uint64
	if hasArg(req, "expected_version") {
		v := intArg(req, "expected_version", 0)
		if v < 1 {
			return mcp.NewToolResultError("'expected_version' must be a positive integer"), nil
		}
		ev := uint64(v)
		expected = &ev
	}

	result, err := t.orch.ExecuteCleanup(ctx, scope, expected)
	if err != nil {
		return faultResult(err)
	}

	var b strings.Builder
	b.WriteString("# Cleanup Complete\n\n")
	fmt.Fprintf(&b, "**Rules applied:** %d\n", len(result.Applied))
	fmt.Fprintf(&b, "**Snapshot version:** %d\n\n", result.Version)

	if len(result.Applied) > 0 {
		b.WriteString("## Applied\n\n")
		for _, rule := range result.Applied {
			fmt.Fprintf(&b, "- %s\n", rule)
		}
		b.WriteString("\n")
	}
	if len(result.Warnings) > 0 {
		b.WriteString("## Warnings\n\n")
		for _, w := range result.Warnings {
			fmt.Fprintf(&b, "- ⚠️ %s\n", w)
		}
		b.WriteString("\n")
	}
	if result.Changed {
		fmt.Fprintf(&b, "## Changed files (%d)\n\n%s", len(result.ChangedFiles), fileList(result.ChangedFiles))
		b.WriteString("\nAll previously discovered action ids are now stale; re-run discovery.")
	} else {
		b.WriteString("No files changed; the snapshot version did not advance.")
	}
	return mcp.NewToolResultText(b.String()), nil
}
