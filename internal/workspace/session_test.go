package workspace

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dcastillo/roslyn-mcp/internal/fault"
	"github.com/dcastillo/roslyn-mcp/internal/provider"
)

type passthroughResolver struct {
	err error
}

func (r passthroughResolver) ResolveSolution(path string) (string, error) {
	if r.err != nil {
		return "", r.err
	}
	return path, nil
}

type stubLoader struct {
	mu     sync.Mutex
	loads  int
	err    error
	handle string
}

func (l *stubLoader) LoadWorkspace(_ context.Context, _ string) (string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.loads++
	if l.err != nil {
		return "", l.err
	}
	if l.handle != "" {
		return l.handle, nil
	}
	return "handle-1", nil
}

func newTestStore(loader *stubLoader) (*Store, *int) {
	store := NewStore(passthroughResolver{}, loader)
	invalidations := 0
	store.OnInvalidate(func() { invalidations++ })
	return store, &invalidations
}

func TestCurrent_BeforeSelect(t *testing.T) {
	store, _ := newTestStore(&stubLoader{})

	_, err := store.Current()
	require.Error(t, err)
	assert.True(t, fault.Is(err, fault.CodeSolutionNotSelected))
}

func TestSelect_InstallsVersionOne(t *testing.T) {
	store, invalidations := newTestStore(&stubLoader{})

	sess, err := store.Select(context.Background(), "/work/app.sln")
	require.NoError(t, err)
	assert.Equal(t, "/work/app.sln", sess.Path)
	assert.Equal(t, uint64(1), sess.Version)
	assert.Equal(t, "handle-1", sess.Handle)
	assert.Equal(t, 1, *invalidations)
}

func TestSelect_ReplacementResetsToVersionOne(t *testing.T) {
	store, invalidations := newTestStore(&stubLoader{})

	_, err := store.Select(context.Background(), "/work/a.sln")
	require.NoError(t, err)
	_, err = store.Reload(context.Background())
	require.NoError(t, err)

	sess, err := store.Select(context.Background(), "/work/b.sln")
	require.NoError(t, err)
	assert.Equal(t, uint64(1), sess.Version)
	assert.Equal(t, "/work/b.sln", sess.Path)
	assert.Equal(t, 3, *invalidations)
}

func TestSelect_ResolverFaultSkipsLoad(t *testing.T) {
	loader := &stubLoader{}
	pathErr := fault.New(fault.CodeInvalidPath, "not a solution file")
	store := NewStore(passthroughResolver{err: pathErr}, loader)

	_, err := store.Select(context.Background(), "/work/readme.md")
	assert.True(t, fault.Is(err, fault.CodeInvalidPath))
	assert.Equal(t, 0, loader.loads)
}

func TestSelect_WorkspaceGoneMapsToSolutionNotFound(t *testing.T) {
	store, invalidations := newTestStore(&stubLoader{err: provider.ErrWorkspaceGone})

	_, err := store.Select(context.Background(), "/work/gone.sln")
	assert.True(t, fault.Is(err, fault.CodeSolutionNotFound))
	assert.Equal(t, 0, *invalidations)

	_, err = store.Current()
	assert.True(t, fault.Is(err, fault.CodeSolutionNotSelected))
}

func TestReload_BumpsVersion(t *testing.T) {
	store, invalidations := newTestStore(&stubLoader{})

	_, err := store.Select(context.Background(), "/work/app.sln")
	require.NoError(t, err)

	sess, err := store.Reload(context.Background())
	require.NoError(t, err)
	assert.Equal(t, uint64(2), sess.Version)
	assert.Equal(t, 2, *invalidations)
}

func TestReload_FailureStillInvalidates(t *testing.T) {
	loader := &stubLoader{}
	store, invalidations := newTestStore(loader)

	_, err := store.Select(context.Background(), "/work/app.sln")
	require.NoError(t, err)

	loader.err = errors.New("msbuild crashed")
	_, err = store.Reload(context.Background())
	require.Error(t, err)
	assert.True(t, fault.Is(err, fault.CodeAnalysisFailed))

	// The registry wipe must happen even though the reload failed.
	assert.Equal(t, 2, *invalidations)

	// Session survives at its old version so the caller can retry.
	sess, err := store.Current()
	require.NoError(t, err)
	assert.Equal(t, uint64(1), sess.Version)
}

func TestReload_BeforeSelect(t *testing.T) {
	store, _ := newTestStore(&stubLoader{})

	_, err := store.Reload(context.Background())
	assert.True(t, fault.Is(err, fault.CodeSolutionNotSelected))
}

func TestMutate_ChangedAdvancesVersionOnce(t *testing.T) {
	store, invalidations := newTestStore(&stubLoader{})
	_, err := store.Select(context.Background(), "/work/app.sln")
	require.NoError(t, err)

	sess, err := store.Mutate(func(s Session) (string, bool, error) {
		assert.Equal(t, uint64(1), s.Version)
		return "handle-2", true, nil
	})
	require.NoError(t, err)
	assert.Equal(t, uint64(2), sess.Version)
	assert.Equal(t, "handle-2", sess.Handle)
	assert.Equal(t, 2, *invalidations)
}

func TestMutate_UnchangedLeavesStateAlone(t *testing.T) {
	store, invalidations := newTestStore(&stubLoader{})
	_, err := store.Select(context.Background(), "/work/app.sln")
	require.NoError(t, err)

	sess, err := store.Mutate(func(s Session) (string, bool, error) {
		return "", false, nil
	})
	require.NoError(t, err)
	assert.Equal(t, uint64(1), sess.Version)
	assert.Equal(t, "handle-1", sess.Handle)
	assert.Equal(t, 1, *invalidations)
}

func TestMutate_ErrorLeavesStateAlone(t *testing.T) {
	store, invalidations := newTestStore(&stubLoader{})
	_, err := store.Select(context.Background(), "/work/app.sln")
	require.NoError(t, err)

	boom := errors.New("commit failed")
	_, err = store.Mutate(func(s Session) (string, bool, error) {
		return "", false, boom
	})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 1, *invalidations)

	sess, err := store.Current()
	require.NoError(t, err)
	assert.Equal(t, uint64(1), sess.Version)
}

func TestMutate_SerializesWriters(t *testing.T) {
	store := NewStore(passthroughResolver{}, &stubLoader{})
	_, err := store.Select(context.Background(), "/work/app.sln")
	require.NoError(t, err)

	const writers = 8
	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := store.Mutate(func(s Session) (string, bool, error) {
				return "handle-next", true, nil
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	sess, err := store.Current()
	require.NoError(t, err)
	assert.Equal(t, uint64(1+writers), sess.Version)
}

func TestView_SeesConsistentSnapshot(t *testing.T) {
	store := NewStore(passthroughResolver{}, &stubLoader{})
	_, err := store.Select(context.Background(), "/work/app.sln")
	require.NoError(t, err)

	err = store.View(func(s Session) error {
		assert.Equal(t, uint64(1), s.Version)
		assert.Equal(t, "handle-1", s.Handle)
		return nil
	})
	require.NoError(t, err)
}

func TestView_BeforeSelect(t *testing.T) {
	store, _ := newTestStore(&stubLoader{})

	err := store.View(func(Session) error {
		t.Fatal("view callback must not run without a session")
		return nil
	})
	assert.True(t, fault.Is(err, fault.CodeSolutionNotSelected))
}
