package history

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(t.TempDir())
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func entry(op, subject, solution string, version uint64) Entry {
	return Entry{
		Operation:    op,
		Subject:      subject,
		SolutionPath: solution,
		Version:      version,
		ChangedFiles: 2,
		AppliedAt:    time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
	}
}

func TestOpen_CreatesDataDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "data")
	s, err := Open(dir)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer func() { _ = s.Close() }()

	if _, err := os.Stat(filepath.Join(dir, "history.db")); err != nil {
		t.Errorf("expected history.db to exist: %v", err)
	}
}

func TestRecord_Roundtrip(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	if err := s.Record(ctx, entry("code_fix", "Remove unused variable", "/work/app.sln", 2)); err != nil {
		t.Fatalf("Record() error = %v", err)
	}

	got, err := s.Recent(ctx, "/work/app.sln", 10)
	if err != nil {
		t.Fatalf("Recent() error = %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("Recent() returned %d entries, want 1", len(got))
	}
	e := got[0]
	if e.Operation != "code_fix" || e.Subject != "Remove unused variable" {
		t.Errorf("unexpected entry: %+v", e)
	}
	if e.Version != 2 || e.ChangedFiles != 2 {
		t.Errorf("unexpected counters: %+v", e)
	}
	if !e.AppliedAt.Equal(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)) {
		t.Errorf("AppliedAt = %v", e.AppliedAt)
	}
}

func TestRecent_NewestFirst(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	for i := uint64(2); i <= 4; i++ {
		if err := s.Record(ctx, entry("rename", "Name", "/work/app.sln", i)); err != nil {
			t.Fatalf("Record() error = %v", err)
		}
	}

	got, err := s.Recent(ctx, "/work/app.sln", 10)
	if err != nil {
		t.Fatalf("Recent() error = %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("Recent() returned %d entries, want 3", len(got))
	}
	if got[0].Version != 4 || got[2].Version != 2 {
		t.Errorf("entries not newest-first: %v, %v, %v", got[0].Version, got[1].Version, got[2].Version)
	}
}

func TestRecent_FiltersBySolution(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	_ = s.Record(ctx, entry("cleanup", "2 rules", "/work/a.sln", 2))
	_ = s.Record(ctx, entry("cleanup", "1 rule", "/work/b.sln", 2))

	got, err := s.Recent(ctx, "/work/a.sln", 10)
	if err != nil {
		t.Fatalf("Recent() error = %v", err)
	}
	if len(got) != 1 || got[0].SolutionPath != "/work/a.sln" {
		t.Errorf("filter failed: %+v", got)
	}

	all, err := s.Recent(ctx, "", 10)
	if err != nil {
		t.Fatalf("Recent() error = %v", err)
	}
	if len(all) != 2 {
		t.Errorf("unfiltered query returned %d entries, want 2", len(all))
	}
}

func TestRecent_LimitAndDefault(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	for i := 0; i < 25; i++ {
		_ = s.Record(ctx, entry("code_fix", "fix", "/work/app.sln", uint64(i+2)))
	}

	got, err := s.Recent(ctx, "", 5)
	if err != nil {
		t.Fatalf("Recent() error = %v", err)
	}
	if len(got) != 5 {
		t.Errorf("limit 5 returned %d entries", len(got))
	}

	defaulted, err := s.Recent(ctx, "", 0)
	if err != nil {
		t.Fatalf("Recent() error = %v", err)
	}
	if len(defaulted) != 20 {
		t.Errorf("default limit returned %d entries, want 20", len(defaulted))
	}
}
