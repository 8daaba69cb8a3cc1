package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/dcastillo/roslyn-mcp/internal/orchestrator"
	"github.com/mark3labs/mcp-go/mcp"
)

// RenameSymbolTool handles the rename_symbol MCP tool.
type RenameSymbolTool struct {
	orch *orchestrator.Orchestrator
}

// NewRenameSymbolTool creates a RenameSymbolTool.
func NewRenameSymbolTool(orch *orchestrator.Orchestrator) *RenameSymbolTool {
	return &RenameSymbolTool{orch: orch}
}

// Definition returns the MCP tool definition for registration.
func (t *RenameSymbolTool) Definition() mcp.Tool {
	return mcp.NewTool("rename_symbol",
		mcp.WithDescription(
			"Rename a symbol across the solution. The new name is validated "+
				"against C# identifier rules before anything runs. Fails with "+
				"RenameConflict if the name already binds in an affected scope. "+
				"On success the snapshot version advances and all previously "+
				"discovered action ids become stale.",
		),
		mcp.WithString("symbol_id",
			mcp.Required(),
			mcp.Description("Provider symbol id (e.g. from a navigation or diagnostics query)."),
		),
		mcp.WithString("new_name",
			mcp.Required(),
			mcp.Description("The new identifier. Reserved keywords need an @ prefix."),
		),
	)
}

// Handle processes the rename_symbol tool call.
func (t *RenameSymbolTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	symbolID := req.GetString("symbol_id", "")
	newName := req.GetString("new_name", "")

	result, err := t.orch.RenameSymbol(ctx, symbolID, newName)
	if err != nil {
		return faultResult(err)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "# Renamed to `%s`\n\n", result.NewName)
	fmt.Fprintf(&b, "**Snapshot version:** %d\n", result.Version)
	fmt.Fprintf(&b, "**Changed files (%d):**\n\n%s", len(result.ChangedFiles), fileList(result.ChangedFiles))
	if len(result.Locations) > 0 {
		fmt.Fprintf(&b, "\n**Affected locations (%d):**\n\n", len(result.Locations))
		for _, loc := range result.Locations {
			fmt.Fprintf(&b, "- `%s:%d:%d`\n", loc.Path, loc.Line, loc.Column)
		}
	}
	b.WriteString("\nAll previously discovered action ids are now stale; re-run discovery.")
	return mcp.NewToolResultText(b.String()), nil
}
