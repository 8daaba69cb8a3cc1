// Package workspace owns the single authoritative handle to the loaded
// solution: its path, its provider handle, and the monotonic snapshot
// version that action validity is bound to.
//
// The Store is the one place the version ever changes, and it owns the
// lock that serializes mutations against reads: Select/Reload and the
// orchestrator's Mutate closures run under the exclusive lock, while
// View (discovery, preview) runs under the shared lock. A view can
// therefore never observe a half-committed state.
package workspace

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/dcastillo/roslyn-mcp/internal/fault"
	"github.com/dcastillo/roslyn-mcp/internal/provider"
)

// Session is an immutable snapshot of the active workspace. Version
// strictly increases across every successful state-mutating operation.
type Session struct {
	Path    string
	Version uint64
	Handle  string
}

// PathResolver validates and canonicalizes a solution path before it
// is ever handed to the provider. Implementations return
// fault.CodeInvalidPath or fault.CodePathOutOfScope on rejection.
type PathResolver interface {
	ResolveSolution(path string) (string, error)
}

// Loader loads a solution and returns an opaque workspace handle.
// Satisfied by provider.Provider.
type Loader interface {
	LoadWorkspace(ctx context.Context, path string) (string, error)
}

// Store holds the active session and its lock.
type Store struct {
	resolver PathResolver
	loader   Loader

	mu      sync.RWMutex
	session *Session

	// invalidate is called whenever the session handle is replaced or
	// the version advances, with the lock held. Wired to the action
	// registry's ClearAll at composition time.
	invalidate func()
}

// NewStore creates an empty session store. No solution is selected
// until the first Select call succeeds.
func NewStore(resolver PathResolver, loader Loader) *Store {
	return &Store{resolver: resolver, loader: loader, invalidate: func() {}}
}

// OnInvalidate registers the callback fired on every version change or
// handle replacement. Must be called during wiring, before the store
// is shared across goroutines.
func (s *Store) OnInvalidate(fn func()) {
	if fn != nil {
		s.invalidate = fn
	}
}

// Current returns the active session.
func (s *Store) Current() (Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.session == nil {
		return Session{}, fault.New(fault.CodeSolutionNotSelected, "no solution selected: call select_solution first")
	}
	return *s.session, nil
}

// Select installs a new session for path at version 1, replacing any
// existing session. The previous registry contents are invalidated
// whether or not a session existed before.
func (s *Store) Select(ctx context.Context, path string) (Session, error) {
	resolved, err := s.resolver.ResolveSolution(path)
	if err != nil {
		return Session{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	handle, err := s.loader.LoadWorkspace(ctx, resolved)
	if err != nil {
		return Session{}, loadFault(resolved, err)
	}

	s.session = &Session{Path: resolved, Version: 1, Handle: handle}
	s.invalidate()
	return *s.session, nil
}

// Reload re-requests a handle for the already selected path and bumps
// the version. The registry is invalidated unconditionally, even when
// the reload itself fails: a failed reload may have left the old
// handle dangling, so no cached action may reference it.
func (s *Store) Reload(ctx context.Context) (Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.session == nil {
		return Session{}, fault.New(fault.CodeSolutionNotSelected, "no solution selected: call select_solution first")
	}

	s.invalidate()

	handle, err := s.loader.LoadWorkspace(ctx, s.session.Path)
	if err != nil {
		return Session{}, loadFault(s.session.Path, err)
	}

	s.session = &Session{
		Path:    s.session.Path,
		Version: s.session.Version + 1,
		Handle:  handle,
	}
	return *s.session, nil
}

// View runs fn under the shared lock with the current session. Used by
// read-only operations (discover, preview); fn must not mutate
// workspace state.
func (s *Store) View(fn func(Session) error) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.session == nil {
		return fault.New(fault.CodeSolutionNotSelected, "no solution selected: call select_solution first")
	}
	return fn(*s.session)
}

// Mutate runs fn under the exclusive lock. fn performs the provider
// round trips for one mutation and reports the workspace handle that
// resulted. When fn reports changed=true the version advances by
// exactly one, the handle is replaced, and the registry is
// invalidated, all before the lock is released. When fn returns an
// error or changed=false, no state changes at all.
func (s *Store) Mutate(fn func(Session) (newHandle string, changed bool, err error)) (Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.session == nil {
		return Session{}, fault.New(fault.CodeSolutionNotSelected, "no solution selected: call select_solution first")
	}

	newHandle, changed, err := fn(*s.session)
	if err != nil {
		return Session{}, err
	}
	if !changed {
		return *s.session, nil
	}
	if newHandle == "" {
		return Session{}, fmt.Errorf("mutation reported a change but no workspace handle")
	}

	s.session = &Session{
		Path:    s.session.Path,
		Version: s.session.Version + 1,
		Handle:  newHandle,
	}
	s.invalidate()
	return *s.session, nil
}

// loadFault maps provider load failures onto the session-lifecycle
// fault taxonomy.
func loadFault(path string, err error) error {
	if errors.Is(err, provider.ErrWorkspaceGone) {
		return fault.New(fault.CodeSolutionNotFound, "solution no longer exists: %s", path)
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return fault.Internalize(err, fault.CodeAnalysisFailed)
}
