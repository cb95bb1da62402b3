package store

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/google/uuid"

	"github.com/roach88/tempo/internal/testutil"
)

// createTestStore creates a new store in a temporary directory.
func createTestStore(t *testing.T, opts ...Option) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path, opts...)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func okCompilation(unit, sourceHash string, optimized bool) Compilation {
	return Compilation{
		Unit:       unit,
		SourceHash: sourceHash,
		IRHash:     "ir-" + sourceHash,
		Optimized:  optimized,
		IR:         []byte(`{"kind":"Program","statements":[]}`),
	}
}

func TestOpen_CreatesNewDatabase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	defer s.Close()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Error("database file was not created")
	}
}

func TestOpen_Idempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	for i := 0; i < 3; i++ {
		s, err := Open(path)
		if err != nil {
			t.Fatalf("Open() iteration %d failed: %v", i, err)
		}
		s.Close()
	}
}

func TestOpen_AppliesPragmas(t *testing.T) {
	s := createTestStore(t)

	if err := s.verifyPragma("journal_mode", "wal"); err != nil {
		t.Error(err)
	}
	if err := s.verifyPragma("user_version", "1"); err != nil {
		t.Error(err)
	}
}

func TestOpen_CreatesLookupIndex(t *testing.T) {
	s := createTestStore(t)

	var name string
	err := s.db.QueryRow(`SELECT name FROM sqlite_master WHERE type = 'index' AND name = 'idx_compilations_lookup'`).Scan(&name)
	if err != nil {
		t.Fatalf("lookup index missing: %v", err)
	}
}

func TestClose_NilDB(t *testing.T) {
	s := &Store{}
	if err := s.Close(); err != nil {
		t.Errorf("Close() on empty store returned %v", err)
	}
}

func TestRecord_AssignsIDAndSeq(t *testing.T) {
	s := createTestStore(t, WithIDGenerator(testutil.NewFixedIDGenerator()))
	ctx := context.Background()

	first, err := s.Record(ctx, okCompilation("a.tempo", "h1", true))
	if err != nil {
		t.Fatalf("Record() failed: %v", err)
	}
	second, err := s.Record(ctx, okCompilation("b.tempo", "h2", true))
	if err != nil {
		t.Fatalf("Record() failed: %v", err)
	}

	if first.ID != "id-1" || second.ID != "id-2" {
		t.Errorf("ids = %q, %q; want id-1, id-2", first.ID, second.ID)
	}
	if first.Seq != 1 || second.Seq != 2 {
		t.Errorf("seqs = %d, %d; want 1, 2", first.Seq, second.Seq)
	}
	if first.IRVersion == "" {
		t.Error("IRVersion not defaulted")
	}
}

func TestRecord_DefaultIDsAreUUIDv7(t *testing.T) {
	s := createTestStore(t)

	c, err := s.Record(context.Background(), okCompilation("a.tempo", "h1", false))
	if err != nil {
		t.Fatalf("Record() failed: %v", err)
	}
	parsed, err := uuid.Parse(c.ID)
	if err != nil {
		t.Fatalf("id %q is not a UUID: %v", c.ID, err)
	}
	if parsed.Version() != 7 {
		t.Errorf("uuid version = %d, want 7", parsed.Version())
	}
}

func TestRecord_DuplicateIDFails(t *testing.T) {
	s := createTestStore(t, WithIDGenerator(testutil.NewFixedIDGenerator("same", "same")))
	ctx := context.Background()

	if _, err := s.Record(ctx, okCompilation("a.tempo", "h1", true)); err != nil {
		t.Fatalf("first Record() failed: %v", err)
	}
	if _, err := s.Record(ctx, okCompilation("a.tempo", "h1", true)); err == nil {
		t.Fatal("second Record() with duplicate id succeeded")
	}

	all, err := s.List(ctx, 0)
	if err != nil {
		t.Fatalf("List() failed: %v", err)
	}
	if len(all) != 1 {
		t.Errorf("len(List()) = %d, want 1", len(all))
	}
}

func TestRecord_ConcurrentWritersGetDistinctSeqs(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := s.Record(ctx, okCompilation("a.tempo", "h", true)); err != nil {
				t.Errorf("Record() failed: %v", err)
			}
		}()
	}
	wg.Wait()

	all, err := s.List(ctx, 0)
	if err != nil {
		t.Fatalf("List() failed: %v", err)
	}
	if len(all) != 20 {
		t.Fatalf("len(List()) = %d, want 20", len(all))
	}
	seen := make(map[int64]bool)
	for _, c := range all {
		if seen[c.Seq] {
			t.Errorf("duplicate seq %d", c.Seq)
		}
		seen[c.Seq] = true
	}
}

func TestLookup_FindsLatestSuccess(t *testing.T) {
	s := createTestStore(t, WithIDGenerator(testutil.NewFixedIDGenerator()))
	ctx := context.Background()

	if _, err := s.Record(ctx, okCompilation("a.tempo", "h1", true)); err != nil {
		t.Fatal(err)
	}
	latest := okCompilation("a.tempo", "h1", true)
	latest.IRHash = "newer"
	if _, err := s.Record(ctx, latest); err != nil {
		t.Fatal(err)
	}
	failed := Compilation{Unit: "a.tempo", SourceHash: "h1", Optimized: true, ErrorKind: "TypeError", ErrorCode: "E301", ErrorMessage: "boom"}
	if _, err := s.Record(ctx, failed); err != nil {
		t.Fatal(err)
	}

	got, ok, err := s.Lookup(ctx, "a.tempo", "h1", true)
	if err != nil {
		t.Fatalf("Lookup() failed: %v", err)
	}
	if !ok {
		t.Fatal("Lookup() found nothing")
	}
	if got.ID != "id-2" || got.IRHash != "newer" {
		t.Errorf("Lookup() = %+v, want id-2 with ir_hash newer", got)
	}
	if string(got.IR) != `{"kind":"Program","statements":[]}` {
		t.Errorf("IR = %s", got.IR)
	}
}

func TestLookup_KeyedByOptimizationAndUnit(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	if _, err := s.Record(ctx, okCompilation("a.tempo", "h1", true)); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		unit      string
		hash      string
		optimized bool
	}{
		{"a.tempo", "h1", false},
		{"b.tempo", "h1", true},
		{"a.tempo", "h2", true},
	}
	for _, tt := range tests {
		_, ok, err := s.Lookup(ctx, tt.unit, tt.hash, tt.optimized)
		if err != nil {
			t.Fatalf("Lookup() failed: %v", err)
		}
		if ok {
			t.Errorf("Lookup(%q, %q, %v) found a row", tt.unit, tt.hash, tt.optimized)
		}
	}
}

func TestLookup_SkipsIncompatibleVersions(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	for _, version := range []string{"0.9.0", "99.0.0", "not-a-version"} {
		c := okCompilation("a.tempo", "h1", true)
		c.IRVersion = version
		if _, err := s.Record(ctx, c); err != nil {
			t.Fatal(err)
		}
	}

	if _, ok, err := s.Lookup(ctx, "a.tempo", "h1", true); err != nil || ok {
		t.Errorf("Lookup() = ok %v, err %v; want a miss", ok, err)
	}
}

func TestGet(t *testing.T) {
	s := createTestStore(t, WithIDGenerator(testutil.NewFixedIDGenerator("only")))
	ctx := context.Background()

	if _, err := s.Record(ctx, okCompilation("a.tempo", "h1", true)); err != nil {
		t.Fatal(err)
	}
	c, err := s.Get(ctx, "only")
	if err != nil {
		t.Fatalf("Get() failed: %v", err)
	}
	if c.Unit != "a.tempo" || !c.Optimized {
		t.Errorf("Get() = %+v", c)
	}

	if _, err := s.Get(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get(missing) error = %v, want ErrNotFound", err)
	}
}

func TestList_NewestFirstWithLimit(t *testing.T) {
	s := createTestStore(t, WithIDGenerator(testutil.NewFixedIDGenerator()))
	ctx := context.Background()

	empty, err := s.List(ctx, 10)
	if err != nil {
		t.Fatalf("List() failed: %v", err)
	}
	if empty == nil || len(empty) != 0 {
		t.Errorf("List() on empty log = %#v, want empty slice", empty)
	}

	for _, h := range []string{"h1", "h2", "h3"} {
		if _, err := s.Record(ctx, okCompilation("a.tempo", h, false)); err != nil {
			t.Fatal(err)
		}
	}

	got, err := s.List(ctx, 2)
	if err != nil {
		t.Fatalf("List() failed: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("len(List(2)) = %d, want 2", len(got))
	}
	if got[0].SourceHash != "h3" || got[1].SourceHash != "h2" {
		t.Errorf("List(2) order = %s, %s; want h3, h2", got[0].SourceHash, got[1].SourceHash)
	}
}

func TestCompilation_Failed(t *testing.T) {
	if (Compilation{}).Failed() {
		t.Error("zero Compilation reports Failed")
	}
	if !(Compilation{ErrorKind: "ScopeError"}).Failed() {
		t.Error("Compilation with ErrorKind does not report Failed")
	}
}
