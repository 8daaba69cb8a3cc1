// Package orchestrator coordinates discovery, preview, and apply for
// code fixes, refactorings, cleanup runs, and symbol renames. It is
// the only component that drives the provider and the only caller of
// the session store's mutation path, so the versioning and
// invalidation guarantees the server promises are enforced here.
package orchestrator

import (
	"context"
	"errors"
	"log/slog"

	"github.com/dcastillo/roslyn-mcp/internal/actions"
	"github.com/dcastillo/roslyn-mcp/internal/fault"
	"github.com/dcastillo/roslyn-mcp/internal/history"
	"github.com/dcastillo/roslyn-mcp/internal/policy"
	"github.com/dcastillo/roslyn-mcp/internal/provider"
	"github.com/dcastillo/roslyn-mcp/internal/workspace"
)

// Recorder journals applied mutations. Best-effort: a Recorder failure
// never fails the mutation it describes.
type Recorder interface {
	Record(ctx context.Context, e history.Entry) error
}

// Orchestrator wires the session store, the action registry, the
// policy profile, and the provider into the operation surface exposed
// by the tool layer.
type Orchestrator struct {
	store    *workspace.Store
	registry *actions.Registry
	profile  policy.Profile
	cip      provider.Provider
	journal  Recorder
	log      *slog.Logger
}

// New creates an orchestrator. journal may be nil (no history).
func New(store *workspace.Store, registry *actions.Registry, profile policy.Profile, cip provider.Provider, journal Recorder, log *slog.Logger) *Orchestrator {
	if log == nil {
		log = slog.Default()
	}
	return &Orchestrator{
		store:    store,
		registry: registry,
		profile:  profile,
		cip:      cip,
		journal:  journal,
		log:      log,
	}
}

// Profile returns the active policy profile.
func (o *Orchestrator) Profile() policy.Profile {
	return o.profile
}

// Session returns the current workspace session.
func (o *Orchestrator) Session() (workspace.Session, error) {
	return o.store.Current()
}

// PendingActions returns the number of live registry records.
func (o *Orchestrator) PendingActions() int {
	return o.registry.Len()
}

// SelectSolution installs a new workspace session for path.
func (o *Orchestrator) SelectSolution(ctx context.Context, path string) (workspace.Session, error) {
	sess, err := o.store.Select(ctx, path)
	if err != nil {
		return workspace.Session{}, err
	}
	o.log.Info("solution selected", "path", sess.Path, "version", sess.Version)
	return sess, nil
}

// ReloadSolution reloads the selected solution from disk.
func (o *Orchestrator) ReloadSolution(ctx context.Context) (workspace.Session, error) {
	sess, err := o.store.Reload(ctx)
	if err != nil {
		return workspace.Session{}, err
	}
	o.log.Info("solution reloaded", "path", sess.Path, "version", sess.Version)
	return sess, nil
}

// record journals an applied mutation, logging on failure instead of
// propagating it.
func (o *Orchestrator) record(ctx context.Context, e history.Entry) {
	if o.journal == nil {
		return
	}
	if err := o.journal.Record(ctx, e); err != nil {
		o.log.Warn("history journal write failed", "operation", e.Operation, "error", err)
	}
}

// cipFault converts a provider error into the fault taxonomy,
// preserving context cancellation untouched.
func cipFault(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return fault.Internalize(err, fault.CodeAnalysisFailed)
}
