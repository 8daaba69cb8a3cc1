package actions

import (
	"sync"

	"github.com/dcastillo/roslyn-mcp/internal/fault"
	"github.com/dcastillo/roslyn-mcp/internal/policy"
	"github.com/dcastillo/roslyn-mcp/internal/provider"
)

// Registry is the generation-scoped action table. Eviction is
// wholesale: ClearAll drops the entire backing map, so the table never
// grows across snapshots no matter how many discovery requests run
// within one.
//
// To keep the UnknownActionId / StaleWorkspaceSnapshot distinction
// meaningful after a wipe, the registry remembers the id set (ids
// only, no records) of the generation it just dropped: a token from
// the immediately previous snapshot reports stale, anything older or
// never issued reports unknown.
type Registry struct {
	mu       sync.Mutex
	records  map[string]*Record
	previous map[string]struct{}
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		records:  make(map[string]*Record),
		previous: make(map[string]struct{}),
	}
}

// Put mints a token for the descriptor, binds it to currentVersion,
// and stores the record. The minted id is returned.
func (r *Registry) Put(kind Kind, desc provider.Descriptor, decision policy.Decision, currentVersion uint64) string {
	r.mu.Lock()
	defer r.mu.Unlock()

	id := mintToken(kind)
	// A collision within one generation is cryptographically
	// negligible, but re-minting costs nothing.
	for _, exists := r.records[id]; exists; _, exists = r.records[id] {
		id = mintToken(kind)
	}
	r.records[id] = &Record{
		ID:           id,
		BoundVersion: currentVersion,
		Kind:         kind,
		Descriptor:   desc,
		Decision:     decision,
	}
	return id
}

// Get returns the record for id, provided it is still bound to
// currentVersion. Distinguishes a caller error (UnknownActionId) from
// a legitimate race with a concurrent mutation
// (StaleWorkspaceSnapshot).
func (r *Registry) Get(id string, currentVersion uint64) (*Record, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if rec, ok := r.records[id]; ok {
		if rec.BoundVersion != currentVersion {
			return nil, staleFault(id)
		}
		return rec, nil
	}
	if _, wiped := r.previous[id]; wiped {
		return nil, staleFault(id)
	}
	return nil, fault.New(fault.CodeUnknownActionID, "unknown action id").With("actionId", id)
}

// ClearAll atomically drops every record and rolls the generation.
// Idempotent; O(1) amortized: the backing map is replaced, not
// emptied entry by entry.
func (r *Registry) ClearAll() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.records) == 0 {
		// Nothing wiped; keep the previous generation's id set so
		// back-to-back clears stay idempotent.
		return
	}
	prev := make(map[string]struct{}, len(r.records))
	for id := range r.records {
		prev[id] = struct{}{}
	}
	r.previous = prev
	r.records = make(map[string]*Record)
}

// Len returns the number of live records.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.records)
}

func staleFault(id string) error {
	return fault.New(fault.CodeStaleWorkspaceSnapshot,
		"action was discovered against an earlier workspace snapshot: re-run discovery").
		With("actionId", id)
}
