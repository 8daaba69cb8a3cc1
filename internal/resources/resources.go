// Package resources implements MCP resource handlers.
//
// Resources provide read-only data that the host can consume for
// context. They use URI-based addressing (roslyn://...) following MCP
// conventions.
package resources

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/dcastillo/roslyn-mcp/internal/fault"
	"github.com/dcastillo/roslyn-mcp/internal/orchestrator"
	"github.com/mark3labs/mcp-go/mcp"
)

// Handler manages the workspace resource endpoints.
type Handler struct {
	orch *orchestrator.Orchestrator
}

// NewHandler creates a resource Handler with its dependencies.
func NewHandler(orch *orchestrator.Orchestrator) *Handler {
	return &Handler{orch: orch}
}

// status is the JSON shape served by the status resource.
type status struct {
	SolutionPath   string `json:"solutionPath,omitempty"`
	Version        uint64 `json:"version,omitempty"`
	Selected       bool   `json:"selected"`
	PendingActions int    `json:"pendingActions"`
	Profile        string `json:"profile"`
	MaxRisk        string `json:"maxRisk"`
}

// StatusResource returns the MCP resource definition for workspace status.
func (h *Handler) StatusResource() mcp.Resource {
	return mcp.NewResource(
		"roslyn://workspace/status",
		"Workspace Status",
		mcp.WithResourceDescription("Current solution, snapshot version, pending action count, and active policy profile"),
		mcp.WithMIMEType("application/json"),
	)
}

// HandleStatus returns the current workspace status as JSON.
func (h *Handler) HandleStatus(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	profile := h.orch.Profile()
	st := status{
		Profile:        profile.Name,
		MaxRisk:        string(profile.MaxRisk),
		PendingActions: h.orch.PendingActions(),
	}

	sess, err := h.orch.Session()
	switch {
	case err == nil:
		st.Selected = true
		st.SolutionPath = sess.Path
		st.Version = sess.Version
	case fault.Is(err, fault.CodeSolutionNotSelected):
		// No solution yet; still a valid status.
	default:
		return nil, fmt.Errorf("reading session: %w", err)
	}

	data, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshaling status: %w", err)
	}

	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      req.Params.URI,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}
