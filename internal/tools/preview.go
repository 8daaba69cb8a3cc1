package tools

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/dcastillo/roslyn-mcp/internal/orchestrator"
	"github.com/mark3labs/mcp-go/mcp"
)

// PreviewActionTool handles the preview_action MCP tool.
type PreviewActionTool struct {
	orch *orchestrator.Orchestrator
}

// NewPreviewActionTool creates a PreviewActionTool.
func NewPreviewActionTool(orch *orchestrator.Orchestrator) *PreviewActionTool {
	return &PreviewActionTool{orch: orch}
}

// Definition returns the MCP tool definition for registration.
func (t *PreviewActionTool) Definition() mcp.Tool {
	return mcp.NewTool("preview_action",
		mcp.WithDescription(
			"Show which files a discovered action would edit, and how many "+
				"edits per file, without committing anything. The snapshot "+
				"version does not change and the action id stays valid.",
		),
		mcp.WithString("action_id",
			mcp.Required(),
			mcp.Description("An action id returned by discover_code_fixes or discover_refactorings."),
		),
	)
}

// Handle processes the preview_action tool call.
func (t *PreviewActionTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	actionID := req.GetString("action_id", "")
	if strings.TrimSpace(actionID) == "" {
		return mcp.NewToolResultError("'action_id' is required: run discovery first"), nil
	}

	preview, err := t.orch.Preview(ctx, actionID)
	if err != nil {
		return faultResult(err)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "# Preview: %s\n\n", preview.Title)
	if len(preview.ChangedFiles) == 0 {
		b.WriteString("This action would change no files.")
		return mcp.NewToolResultText(b.String()), nil
	}

	files := make([]string, len(preview.ChangedFiles))
	copy(files, preview.ChangedFiles)
	sort.Strings(files)

	fmt.Fprintf(&b, "Would edit %d file(s):\n\n", len(files))
	for _, f := range files {
		fmt.Fprintf(&b, "- `%s`: %d edit(s)\n", f, preview.PerFile[f])
	}
	b.WriteString("\nNothing has been committed. Use `apply_action` with the same id to commit.")
	return mcp.NewToolResultText(b.String()), nil
}
