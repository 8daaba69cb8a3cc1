// Package provider defines the contract with the Code Intelligence
// Provider: the external Roslyn sidecar that performs semantic
// analysis, materializes edits, and commits them against the loaded
// workspace. The orchestrator only ever talks to the Provider
// interface; the HTTP client in this package is the one production
// implementation.
package provider

import (
	"context"
	"errors"
	"fmt"
)

// --- Sentinel signals ---
//
// The sidecar distinguishes a handful of expected outcomes from real
// failures. They surface here as sentinel errors so the orchestrator
// can branch with errors.Is without parsing messages.

var (
	// ErrWorkspaceGone signals that the solution artifact no longer
	// exists on disk (deleted or moved since it was selected).
	ErrWorkspaceGone = errors.New("workspace artifact no longer exists")

	// ErrEditConflict signals that the diagnostic or span an edit was
	// computed against no longer matches the live document.
	ErrEditConflict = errors.New("edit conflicts with live document state")

	// ErrNameCollision signals that a rename target name already binds
	// to another symbol in an affected scope.
	ErrNameCollision = errors.New("new name collides with an existing symbol")

	// ErrRuleSkipped signals that a cleanup rule ran but had nothing to
	// change, or does not apply to the current scope.
	ErrRuleSkipped = errors.New("cleanup rule skipped")
)

// --- Risk levels ---

// Risk is the provider's estimate of how behavior-preserving an action
// is. Ordinal: Safe < Moderate < Risky.
type Risk string

const (
	RiskSafe     Risk = "safe"
	RiskModerate Risk = "moderate"
	RiskRisky    Risk = "risky"
)

var riskOrdinals = map[Risk]int{
	RiskSafe:     0,
	RiskModerate: 1,
	RiskRisky:    2,
}

// Ordinal returns the rank of the risk level, or -1 for unknown values.
func (r Risk) Ordinal() int {
	if ord, ok := riskOrdinals[r]; ok {
		return ord
	}
	return -1
}

// ValidateRisk returns an error if the risk level is not recognized.
func ValidateRisk(r Risk) error {
	if _, ok := riskOrdinals[r]; !ok {
		return fmt.Errorf("invalid risk level %q: must be one of: safe, moderate, risky", r)
	}
	return nil
}

// --- Scopes ---

// Scope bounds a discovery or cleanup run.
type Scope string

const (
	ScopeDocument Scope = "document"
	ScopeProject  Scope = "project"
	ScopeSolution Scope = "solution"
)

var validScopes = map[Scope]bool{
	ScopeDocument: true,
	ScopeProject:  true,
	ScopeSolution: true,
}

// ValidateScope returns an error if the scope is not recognized.
func ValidateScope(s Scope) error {
	if !validScopes[s] {
		return fmt.Errorf("invalid scope %q: must be one of: document, project, solution", s)
	}
	return nil
}

// --- DTOs ---

// Location is a position inside a document of the loaded workspace.
type Location struct {
	Path   string `json:"path"`
	Line   int    `json:"line"`
	Column int    `json:"column"`
}

// Compare orders locations by path, then line, then column.
func (l Location) Compare(o Location) int {
	switch {
	case l.Path != o.Path:
		if l.Path < o.Path {
			return -1
		}
		return 1
	case l.Line != o.Line:
		return l.Line - o.Line
	default:
		return l.Column - o.Column
	}
}

// Descriptor describes one candidate mutating action as reported by
// the sidecar. Ref is the sidecar-side reference used to materialize
// or commit the action later; it is never exposed to tool callers;
// they only ever see the opaque action tokens minted by the registry.
type Descriptor struct {
	Ref          string   `json:"ref"`
	Title        string   `json:"title"`
	Category     string   `json:"category"`
	Origin       string   `json:"origin"`
	Risk         Risk     `json:"riskLevel"`
	DiagnosticID string   `json:"diagnosticId,omitempty"`
	Location     Location `json:"location"`
}

// ChangeSet is the materialized result of one action: which files
// change and how many edits land in each. It is transient: produced
// by the sidecar, consumed within a single request, never stored.
type ChangeSet struct {
	Ref          string         `json:"ref"`
	PerFile      map[string]int `json:"perFile"`
	ChangedFiles []string       `json:"changedFiles"`
	Locations    []Location     `json:"locations,omitempty"`
}

// Empty reports whether the change set touches no files.
func (c *ChangeSet) Empty() bool {
	return c == nil || len(c.ChangedFiles) == 0
}

// --- Provider contract ---

// Provider is the Code Intelligence Provider consumed by the
// orchestrator. Every call takes a context and is expected to abort
// promptly on cancellation; no call mutates orchestrator-owned state.
type Provider interface {
	// LoadWorkspace loads the solution at path and returns an opaque
	// workspace handle. Returns ErrWorkspaceGone if the artifact
	// vanished between validation and load.
	LoadWorkspace(ctx context.Context, path string) (handle string, err error)

	// FindCodeFixes returns candidate code fixes within scope.
	FindCodeFixes(ctx context.Context, handle string, scope Scope) ([]Descriptor, error)

	// FindRefactorings returns candidate refactorings at a location.
	FindRefactorings(ctx context.Context, handle string, loc Location) ([]Descriptor, error)

	// FindCleanupRules returns the ordered rule ids configured for the
	// named cleanup profile.
	FindCleanupRules(ctx context.Context, profile string) ([]string, error)

	// MaterializeEdit computes the change set for a descriptor without
	// committing anything.
	MaterializeEdit(ctx context.Context, handle, descriptorRef string) (*ChangeSet, error)

	// CommitEdit applies a previously materialized change set and
	// returns the handle of the mutated workspace. Returns
	// ErrEditConflict if the live documents have diverged.
	CommitEdit(ctx context.Context, handle, changeSetRef string) (newHandle string, err error)

	// ApplyCleanupRule runs one cleanup rule against scope and commits
	// its edits. Returns ErrRuleSkipped when the rule had no effect.
	ApplyCleanupRule(ctx context.Context, handle, ruleID string, scope Scope) (newHandle string, cs *ChangeSet, err error)

	// ComputeRename computes the rename edit set for a symbol. Returns
	// ErrNameCollision if newName already binds in an affected scope.
	ComputeRename(ctx context.Context, handle, symbolID, newName string) (*ChangeSet, error)
}
