package provider

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// sidecarStub fakes the Roslyn sidecar: one canned response per path.
type sidecarStub struct {
	t *testing.T

	status   int
	body     any
	lastPath string
	lastBody map[string]any
}

func (s *sidecarStub) handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.lastPath = r.URL.Path
		s.lastBody = map[string]any{}
		assert.NoError(s.t, json.NewDecoder(r.Body).Decode(&s.lastBody))
		assert.Equal(s.t, "application/json", r.Header.Get("Content-Type"))

		status := s.status
		if status == 0 {
			status = http.StatusOK
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		assert.NoError(s.t, json.NewEncoder(w).Encode(s.body))
	})
}

func newStubClient(t *testing.T, stub *sidecarStub) *HTTPClient {
	t.Helper()
	stub.t = t
	srv := httptest.NewServer(stub.handler())
	t.Cleanup(srv.Close)
	return NewHTTPClient(srv.URL)
}

func TestLoadWorkspace_ReturnsHandle(t *testing.T) {
	stub := &sidecarStub{body: map[string]string{"handle": "ws-42"}}
	c := newStubClient(t, stub)

	handle, err := c.LoadWorkspace(context.Background(), "/work/app.sln")
	require.NoError(t, err)
	assert.Equal(t, "ws-42", handle)
	assert.Equal(t, "/workspace/load", stub.lastPath)
	assert.Equal(t, "/work/app.sln", stub.lastBody["path"])
}

func TestLoadWorkspace_GoneMapsToSentinel(t *testing.T) {
	stub := &sidecarStub{
		status: http.StatusNotFound,
		body:   map[string]string{"code": "workspace_gone", "message": "deleted"},
	}
	c := newStubClient(t, stub)

	_, err := c.LoadWorkspace(context.Background(), "/work/gone.sln")
	assert.ErrorIs(t, err, ErrWorkspaceGone)
}

func TestFindCodeFixes_DecodesDescriptors(t *testing.T) {
	stub := &sidecarStub{body: map[string]any{
		"fixes": []Descriptor{{
			Ref:          "fix.cs0168",
			Title:        "Remove unused variable",
			Category:     "usage",
			Origin:       "compiler",
			Risk:         RiskSafe,
			DiagnosticID: "CS0168",
			Location:     Location{Path: "src/Program.cs", Line: 12, Column: 9},
		}},
	}}
	c := newStubClient(t, stub)

	fixes, err := c.FindCodeFixes(context.Background(), "ws-1", ScopeDocument)
	require.NoError(t, err)
	require.Len(t, fixes, 1)
	assert.Equal(t, "CS0168", fixes[0].DiagnosticID)
	assert.Equal(t, RiskSafe, fixes[0].Risk)
	assert.Equal(t, 12, fixes[0].Location.Line)
	assert.Equal(t, "ws-1", stub.lastBody["handle"])
	assert.Equal(t, "document", stub.lastBody["scope"])
}

func TestFindCleanupRules_PassesProfileName(t *testing.T) {
	stub := &sidecarStub{body: map[string]any{
		"rules": []string{"remove_unnecessary_imports", "format_document"},
	}}
	c := newStubClient(t, stub)

	rules, err := c.FindCleanupRules(context.Background(), "ci")
	require.NoError(t, err)
	assert.Equal(t, []string{"remove_unnecessary_imports", "format_document"}, rules)
	assert.Equal(t, "/cleanup/rules", stub.lastPath)
	assert.Equal(t, "ci", stub.lastBody["profile"])
}

func TestCommitEdit_ConflictMapsToSentinel(t *testing.T) {
	stub := &sidecarStub{
		status: http.StatusConflict,
		body:   map[string]string{"code": "edit_conflict", "message": "document diverged"},
	}
	c := newStubClient(t, stub)

	_, err := c.CommitEdit(context.Background(), "ws-1", "cs-9")
	assert.ErrorIs(t, err, ErrEditConflict)
}

func TestComputeRename_CollisionMapsToSentinel(t *testing.T) {
	stub := &sidecarStub{
		status: http.StatusConflict,
		body:   map[string]string{"code": "name_collision", "message": "Lexer already exists"},
	}
	c := newStubClient(t, stub)

	_, err := c.ComputeRename(context.Background(), "ws-1", "T:Acme.Parser", "Lexer")
	assert.ErrorIs(t, err, ErrNameCollision)
}

func TestApplyCleanupRule_SkippedMapsToSentinel(t *testing.T) {
	stub := &sidecarStub{
		status: http.StatusUnprocessableEntity,
		body:   map[string]string{"code": "rule_skipped", "message": "nothing to do"},
	}
	c := newStubClient(t, stub)

	_, _, err := c.ApplyCleanupRule(context.Background(), "ws-1", "format_document", ScopeSolution)
	assert.ErrorIs(t, err, ErrRuleSkipped)
}

func TestApplyCleanupRule_DecodesChangeSet(t *testing.T) {
	stub := &sidecarStub{body: map[string]any{
		"handle": "ws-2",
		"changeSet": ChangeSet{
			Ref:          "cs-7",
			PerFile:      map[string]int{"src/A.cs": 3},
			ChangedFiles: []string{"src/A.cs"},
		},
	}}
	c := newStubClient(t, stub)

	handle, cs, err := c.ApplyCleanupRule(context.Background(), "ws-1", "format_document", ScopeProject)
	require.NoError(t, err)
	assert.Equal(t, "ws-2", handle)
	assert.False(t, cs.Empty())
	assert.Equal(t, 3, cs.PerFile["src/A.cs"])
}

func TestPost_UnknownErrorCodeIsPlainError(t *testing.T) {
	stub := &sidecarStub{
		status: http.StatusInternalServerError,
		body:   map[string]string{"code": "compiler_panic", "message": "stack overflow"},
	}
	c := newStubClient(t, stub)

	_, err := c.MaterializeEdit(context.Background(), "ws-1", "fix.x")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrEditConflict)
	assert.Contains(t, err.Error(), "compiler_panic")
}

func TestPost_ContextCancellation(t *testing.T) {
	stub := &sidecarStub{body: map[string]string{"handle": "ws-1"}}
	c := newStubClient(t, stub)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.LoadWorkspace(ctx, "/work/app.sln")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestChangeSet_Empty(t *testing.T) {
	assert.True(t, (*ChangeSet)(nil).Empty())
	assert.True(t, (&ChangeSet{Ref: "cs"}).Empty())
	assert.False(t, (&ChangeSet{ChangedFiles: []string{"a.cs"}}).Empty())
}

func TestLocation_Compare(t *testing.T) {
	a := Location{Path: "a.cs", Line: 1, Column: 1}
	b := Location{Path: "b.cs", Line: 1, Column: 1}
	assert.Negative(t, a.Compare(b))
	assert.Positive(t, b.Compare(a))
	assert.Zero(t, a.Compare(a))

	sameFile := Location{Path: "a.cs", Line: 2, Column: 1}
	assert.Negative(t, a.Compare(sameFile))
	col := Location{Path: "a.cs", Line: 1, Column: 9}
	assert.Negative(t, a.Compare(col))
}
