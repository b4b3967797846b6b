package checksum

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func newStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "hashes.json"))
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	return store
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestComputeIsDeterministic(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "a.txt", "stable content")

	first, err := Compute(path)
	if err != nil {
		t.Fatal(err)
	}
	second, err := Compute(path)
	if err != nil {
		t.Fatal(err)
	}
	if first != second {
		t.Fatalf("digest not stable: %q vs %q", first, second)
	}
	if len(first) != 64 {
		t.Fatalf("expected sha256 hex digest, got %q", first)
	}
}

func TestComputeMissingFile(t *testing.T) {
	if _, err := Compute(filepath.Join(t.TempDir(), "absent")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestRecordFirstWriterWins(t *testing.T) {
	store := newStore(t)

	if err := store.Record("digest-1", "/first/path.jpg"); err != nil {
		t.Fatal(err)
	}
	if err := store.Record("digest-1", "/second/path.jpg"); err != nil {
		t.Fatal(err)
	}

	path, ok := store.Lookup("digest-1")
	if !ok || path != "/first/path.jpg" {
		t.Fatalf("expected first path to win, got %q (ok=%v)", path, ok)
	}
	if store.Len() != 1 {
		t.Fatalf("expected 1 record, got %d", store.Len())
	}
}

func TestReassignRetargetsExistingDigest(t *testing.T) {
	store := newStore(t)

	if err := store.Record("digest-1", "/old/path.jpg"); err != nil {
		t.Fatal(err)
	}
	if err := store.Reassign("digest-1", "/new/path.jpg"); err != nil {
		t.Fatal(err)
	}
	path, ok := store.Lookup("digest-1")
	if !ok || path != "/new/path.jpg" {
		t.Fatalf("expected retargeted path, got %q (ok=%v)", path, ok)
	}

	if err := store.Reassign("unknown", "/x.jpg"); err == nil {
		t.Fatal("reassigning an unknown digest must fail")
	}
}

func TestPersistenceSurvivesReopen(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "hashes.json")

	store, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := store.Record("abc", "/a.jpg"); err != nil {
		t.Fatal(err)
	}

	reopened, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	if got, ok := reopened.Lookup("abc"); !ok || got != "/a.jpg" {
		t.Fatalf("record lost across reopen: %q (ok=%v)", got, ok)
	}
}

func TestOpenCorruptDocumentStartsEmpty(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "hashes.json", "{not json")

	store, err := Open(path)
	if err != nil {
		t.Fatalf("corrupt store must not be fatal: %v", err)
	}
	if store.Len() != 0 {
		t.Fatalf("expected empty store, got %d records", store.Len())
	}
	if _, err := os.Stat(path + ".corrupt"); err != nil {
		t.Fatalf("corrupt document should be preserved: %v", err)
	}
}

func TestBackupBeforeRebuild(t *testing.T) {
	dir := t.TempDir()
	storePath := filepath.Join(dir, "hashes.json")
	store, err := Open(storePath)
	if err != nil {
		t.Fatal(err)
	}
	if err := store.Record("old", "/old.jpg"); err != nil {
		t.Fatal(err)
	}

	source := filepath.Join(dir, "library")
	writeFile(t, source, "one.jpg", "one")
	writeFile(t, source, "nested/two.jpg", "two")

	var seen []string
	if err := store.Rebuild(context.Background(), source, func(path string) {
		seen = append(seen, path)
	}); err != nil {
		t.Fatalf("Rebuild failed: %v", err)
	}

	if len(seen) != 2 {
		t.Fatalf("expected 2 files visited, got %d", len(seen))
	}
	if _, ok := store.Lookup("old"); ok {
		t.Fatal("rebuild must clear prior records")
	}
	if store.Len() != 2 {
		t.Fatalf("expected 2 rebuilt records, got %d", store.Len())
	}

	backups, err := filepath.Glob(storePath + ".*.bak")
	if err != nil {
		t.Fatal(err)
	}
	if len(backups) != 1 {
		t.Fatalf("expected one backup, got %v", backups)
	}
}

func TestVerifyReportsMismatchAndMissing(t *testing.T) {
	dir := t.TempDir()
	store := newStore(t)

	okPath := writeFile(t, dir, "ok.txt", "unchanged")
	changedPath := writeFile(t, dir, "changed.txt", "before")
	missingPath := filepath.Join(dir, "missing.txt")

	for _, path := range []string{okPath, changedPath} {
		digest, err := Compute(path)
		if err != nil {
			t.Fatal(err)
		}
		if err := store.Record(digest, path); err != nil {
			t.Fatal(err)
		}
	}
	if err := store.Record("deadbeef", missingPath); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(changedPath, []byte("after"), 0o644); err != nil {
		t.Fatal(err)
	}

	results := store.Verify(context.Background())
	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(results))
	}
	byPath := map[string]VerifyResult{}
	for _, result := range results {
		byPath[result.Path] = result
	}
	if !byPath[okPath].OK {
		t.Fatalf("unchanged file reported bad: %+v", byPath[okPath])
	}
	if byPath[changedPath].OK || !strings.Contains(byPath[changedPath].Reason, "mismatch") {
		t.Fatalf("changed file not flagged: %+v", byPath[changedPath])
	}
	if byPath[missingPath].OK {
		t.Fatalf("missing file not flagged: %+v", byPath[missingPath])
	}
	if store.Len() != 3 {
		t.Fatal("verify must not mutate the store")
	}
}
