package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/dcastillo/roslyn-mcp/internal/orchestrator"
	"github.com/dcastillo/roslyn-mcp/internal/provider"
	"github.com/mark3labs/mcp-go/mcp"
)

// DiscoverCodeFixesTool handles the discover_code_fixes MCP tool.
type DiscoverCodeFixesTool struct {
	orch *orchestrator.Orchestrator
}

// NewDiscoverCodeFixesTool creates a DiscoverCodeFixesTool.
func NewDiscoverCodeFixesTool(orch *orchestrator.Orchestrator) *DiscoverCodeFixesTool {
	return &DiscoverCodeFixesTool{orch: orch}
}

// Definition returns the MCP tool definition for registration.
func (t *DiscoverCodeFixesTool) Definition() mcp.Tool {
	return mcp.NewTool("discover_code_fixes",
		mcp.WithDescription(
			"Find available code fixes within a scope of the active solution. "+
				"Each fix gets an ephemeral action id valid only for the current "+
				"snapshot version, annotated with the policy decision. "+
				"Action ids expire whenever the workspace mutates.",
		),
		mcp.WithString("scope",
			mcp.Required(),
			mcp.Description("How much of the workspace to scan."),
			mcp.Enum("document", "project", "solution"),
		),
	)
}

// Handle processes the discover_code_fixes tool call.
func (t *DiscoverCodeFixesTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	scope := provider.Scope(req.GetString("scope", ""))
	if err := provider.ValidateScope(scope); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	found, err := t.orch.DiscoverCodeFixes(ctx, scope)
	if err != nil {
		return faultResult(err)
	}
	return mcp.NewToolResultText(renderActions("Code Fixes", found)), nil
}

// DiscoverRefactoringsTool handles the discover_refactorings MCP tool.
type DiscoverRefactoringsTool struct {
	orch *orchestrator.Orchestrator
}

// NewDiscoverRefactoringsTool creates a DiscoverRefactoringsTool.
func NewDiscoverRefactoringsTool(orch *orchestrator.Orchestrator) *DiscoverRefactoringsTool {
	return &DiscoverRefactoringsTool{orch: orch}
}

// Definition returns the MCP tool definition for registration.
func (t *DiscoverRefactoringsTool) Definition() mcp.Tool {
	return mcp.NewTool("discover_refactorings",
		mcp.WithDescription(
			"Find available refactorings at a document location in the active "+
				"solution. Each refactoring gets an ephemeral action id valid only "+
				"for the current snapshot version, annotated with the policy decision.",
		),
		mcp.WithString("path",
			mcp.Required(),
			mcp.Description("Document path within the solution."),
		),
		mcp.WithNumber("line",
			mcp.Required(),
			mcp.Description("1-based line number."),
		),
		mcp.WithNumber("column",
			mcp.Required(),
			mcp.Description("1-based column number."),
		),
	)
}

// Handle processes the discover_refactorings tool call.
func (t *DiscoverRefactoringsTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	loc := provider.Location{
		Path:   req.GetString("path", ""),
		Line:   intArg(req, "line", 0),
		Column: intArg(req, "column", 0),
	}
	if strings.TrimSpace(loc.Path) == "" {
		return mcp.NewToolResultError("'path' is required: the document to inspect"), nil
	}
	if loc.Line < 1 || loc.Column < 1 {
		return mcp.NewToolResultError("'line' and 'column' must be 1-based positive integers"), nil
	}

	found, err := t.orch.DiscoverRefactorings(ctx, loc)
	if err != nil {
		return faultResult(err)
	}
	return mcp.NewToolResultText(renderActions("Refactorings", found)), nil
}

// renderActions formats a discovery result. Blocked actions are listed
// too; callers should see what policy withheld and why.
func renderActions(heading string, found []orchestrator.DiscoveredAction) string {
	if len(found) == 0 {
		return fmt.Sprintf("# %s\n\nNo actions available.", heading)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "# %s (%d)\n\n", heading, len(found))
	for _, a := range found {
		marker := "✅"
		if !a.Decision.Allowed() {
			marker = "🚫"
		}
		fmt.Fprintf(&b, "%s **%s**\n", marker, a.Title)
		fmt.Fprintf(&b, "  - id: `%s`\n", a.ID)
		fmt.Fprintf(&b, "  - location: `%s:%d:%d`\n", a.Location.Path, a.Location.Line, a.Location.Column)
		fmt.Fprintf(&b, "  - category: %s, origin: %s, risk: %s\n", a.Category, a.Origin, a.Risk)
		if a.DiagnosticID != "" {
			fmt.Fprintf(&b, "  - diagnostic: %s\n", a.DiagnosticID)
		}
		fmt.Fprintf(&b, "  - policy: %s (%s)\n", a.Decision.Verdict, a.Decision.Message)
	}
	b.WriteString("\nUse `preview_action` to inspect an edit, or `apply_action` to commit it.\n")
	b.WriteString("Action ids expire when the workspace mutates; re-run discovery after any apply.")
	return b.String()
}
