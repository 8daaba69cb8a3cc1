package orchestrator

import (
	"context"
	"sort"

	"github.com/dcastillo/roslyn-mcp/internal/actions"
	"github.com/dcastillo/roslyn-mcp/internal/policy"
	"github.com/dcastillo/roslyn-mcp/internal/provider"
	"github.com/dcastillo/roslyn-mcp/internal/workspace"
)

// DiscoveredAction is one candidate action as surfaced to the caller:
// the minted token, the descriptor fields worth showing, and the
// policy decision computed at discovery time.
type DiscoveredAction struct {
	ID           string            `json:"id"`
	Kind         actions.Kind      `json:"kind"`
	Title        string            `json:"title"`
	Category     string            `json:"category"`
	Origin       string            `json:"origin"`
	Risk         provider.Risk     `json:"riskLevel"`
	DiagnosticID string            `json:"diagnosticId,omitempty"`
	Location     provider.Location `json:"location"`
	Decision     policy.Decision   `json:"decision"`
}

// DiscoverCodeFixes finds candidate code fixes within scope, registers
// each under a fresh token, and annotates it with the policy decision.
// Read-only with respect to the workspace version.
func (o *Orchestrator) DiscoverCodeFixes(ctx context.Context, scope provider.Scope) ([]DiscoveredAction, error) {
	var out []DiscoveredAction
	err := o.store.View(func(sess workspace.Session) error {
		descs, err := o.cip.FindCodeFixes(ctx, sess.Handle, scope)
		if err != nil {
			return cipFault(err)
		}
		out = o.register(actions.KindCodeFix, descs, sess.Version)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// DiscoverRefactorings finds candidate refactorings at a location.
func (o *Orchestrator) DiscoverRefactorings(ctx context.Context, loc provider.Location) ([]DiscoveredAction, error) {
	var out []DiscoveredAction
	err := o.store.View(func(sess workspace.Session) error {
		descs, err := o.cip.FindRefactorings(ctx, sess.Handle, loc)
		if err != nil {
			return cipFault(err)
		}
		out = o.register(actions.KindRefactoring, descs, sess.Version)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// register evaluates, stores, and orders a batch of descriptors. The
// ordering (location, then origin, then title) is a stable,
// deterministic tie-break so identical workspaces produce identical
// listings.
func (o *Orchestrator) register(kind actions.Kind, descs []provider.Descriptor, version uint64) []DiscoveredAction {
	sort.SliceStable(descs, func(i, j int) bool {
		if c := descs[i].Location.Compare(descs[j].Location); c != 0 {
			return c < 0
		}
		if descs[i].Origin != descs[j].Origin {
			return descs[i].Origin < descs[j].Origin
		}
		return descs[i].Title < descs[j].Title
	})

	out := make([]DiscoveredAction, 0, len(descs))
	for _, d := range descs {
		decision := policy.Evaluate(d, o.profile)
		id := o.registry.Put(kind, d, decision, version)
		out = append(out, DiscoveredAction{
			ID:           id,
			Kind:         kind,
			Title:        d.Title,
			Category:     d.Category,
			Origin:       d.Origin,
			Risk:         d.Risk,
			DiagnosticID: d.DiagnosticID,
			Location:     d.Location,
			Decision:     decision,
		})
	}
	return out
}
