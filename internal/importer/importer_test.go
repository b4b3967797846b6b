package importer_test

import (
	"context"
	"os"
	"path/filepath"
	"regexp"
	"testing"
	"time"

	"mediasort/internal/checksum"
	"mediasort/internal/geocache"
	"mediasort/internal/importer"
	"mediasort/internal/logging"
	"mediasort/internal/media"
	"mediasort/internal/pathing"
)

var captureTime = time.Date(2023, 1, 15, 10, 30, 0, 0, time.UTC)

func writeSource(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.Chtimes(path, captureTime, captureTime); err != nil {
		t.Fatal(err)
	}
	return path
}

func newTestImporter(t *testing.T, dataDir string, opts importer.Options) *importer.Importer {
	t.Helper()
	hashes, err := checksum.Open(filepath.Join(dataDir, "hashes.json"))
	if err != nil {
		t.Fatal(err)
	}
	places, err := geocache.Open(filepath.Join(dataDir, "locations.json"))
	if err != nil {
		t.Fatal(err)
	}
	return importer.New(
		media.NewRegistry(),
		pathing.NewDeriver(pathing.Options{}),
		hashes,
		places,
		geocache.OfflineResolver{},
		nil,
		logging.NewNop(),
		opts,
	)
}

func TestRunDeduplicatesIdenticalContent(t *testing.T) {
	src := t.TempDir()
	dest := filepath.Join(t.TempDir(), "library")
	for i := 0; i < 5; i++ {
		writeSource(t, src, string(rune('a'+i))+".txt", "same bytes")
	}

	imp := newTestImporter(t, t.TempDir(), importer.Options{Destination: dest, Workers: 4})
	report, err := imp.Run(context.Background(), []string{src})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	success, skipped, failed := report.Counts()
	if success != 1 || skipped != 4 || failed != 0 {
		t.Fatalf("want 1/4/0, got %d/%d/%d", success, skipped, failed)
	}
	if report.HasFailures() {
		t.Fatal("skipped duplicates must not count as failures")
	}

	entries, err := os.ReadDir(filepath.Join(dest, "2023-01", "Unknown Location"))
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected exactly one placed file, got %d", len(entries))
	}
}

func TestRunReportsPerFileFailures(t *testing.T) {
	src := t.TempDir()
	dest := filepath.Join(t.TempDir(), "library")
	valid := writeSource(t, src, "keep.txt", "content")
	missing := filepath.Join(src, "absent.txt")

	imp := newTestImporter(t, t.TempDir(), importer.Options{Destination: dest, Workers: 2})
	report, err := imp.Run(context.Background(), []string{valid, missing})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	success, _, failed := report.Counts()
	if success != 1 || failed != 1 {
		t.Fatalf("want 1 success and 1 failure, got %d/%d", success, failed)
	}
	if !report.HasFailures() {
		t.Fatal("a missing source must surface as a failure")
	}
}

func TestRunEmitsOneOutcomePerFile(t *testing.T) {
	src := t.TempDir()
	dest := filepath.Join(t.TempDir(), "library")
	const count = 12
	for i := 0; i < count; i++ {
		writeSource(t, src, string(rune('a'+i))+".txt", string(rune('a'+i)))
	}

	var progressCalls int
	imp := newTestImporter(t, t.TempDir(), importer.Options{
		Destination: dest,
		Workers:     4,
		OnProgress:  func(done, total int) { progressCalls++ },
	})
	report, err := imp.Run(context.Background(), []string{src})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if len(report.Outcomes) != count {
		t.Fatalf("expected %d outcomes, got %d", count, len(report.Outcomes))
	}
	if progressCalls != count {
		t.Fatalf("expected %d progress callbacks, got %d", count, progressCalls)
	}
}

func TestRunRejectsSourceContainingDestination(t *testing.T) {
	src := t.TempDir()
	dest := filepath.Join(src, "library")
	if err := os.MkdirAll(dest, 0o755); err != nil {
		t.Fatal(err)
	}

	imp := newTestImporter(t, t.TempDir(), importer.Options{Destination: dest, Workers: 1})
	report, err := imp.Run(context.Background(), []string{src})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if len(report.Outcomes) != 1 || report.Outcomes[0].Status != importer.StatusFailed {
		t.Fatalf("source containing the destination must fail: %+v", report.Outcomes)
	}
}

func TestRunFailsUnsupportedExtension(t *testing.T) {
	src := t.TempDir()
	dest := filepath.Join(t.TempDir(), "library")
	writeSource(t, src, "binary.xyz", "data")

	imp := newTestImporter(t, t.TempDir(), importer.Options{Destination: dest, Workers: 1})
	report, err := imp.Run(context.Background(), []string{src})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if len(report.Outcomes) != 1 || report.Outcomes[0].Status != importer.StatusFailed {
		t.Fatalf("unsupported file must fail: %+v", report.Outcomes)
	}
}

func TestRunMoveRemovesSource(t *testing.T) {
	src := t.TempDir()
	dest := filepath.Join(t.TempDir(), "library")
	source := writeSource(t, src, "photo.txt", "move me")

	imp := newTestImporter(t, t.TempDir(), importer.Options{Destination: dest, Workers: 1, Move: true})
	report, err := imp.Run(context.Background(), []string{source})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if report.Outcomes[0].Status != importer.StatusSuccess {
		t.Fatalf("unexpected outcome %+v", report.Outcomes[0])
	}
	if _, err := os.Stat(source); !os.IsNotExist(err) {
		t.Fatal("move must remove the source file")
	}
	if _, err := os.Stat(report.Outcomes[0].Destination); err != nil {
		t.Fatalf("destination missing: %v", err)
	}
}

func TestRunAllowDuplicatesSuffixesCollisions(t *testing.T) {
	src := t.TempDir()
	dest := filepath.Join(t.TempDir(), "library")
	// Same name, same derived destination, different content.
	first := writeSource(t, filepath.Join(src, "one"), "pic.txt", "first")
	second := writeSource(t, filepath.Join(src, "two"), "pic.txt", "second")

	imp := newTestImporter(t, t.TempDir(), importer.Options{
		Destination:     dest,
		Workers:         1,
		AllowDuplicates: true,
	})
	report, err := imp.Run(context.Background(), []string{first, second})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	success, _, _ := report.Counts()
	if success != 2 {
		t.Fatalf("both files should import, got %+v", report.Outcomes)
	}
	outcomes := report.Sorted()
	if outcomes[0].Destination == outcomes[1].Destination {
		t.Fatalf("collision not disambiguated: %s", outcomes[0].Destination)
	}
}

func TestDiscoverSkipsExclusionsAndDestination(t *testing.T) {
	src := t.TempDir()
	dest := filepath.Join(src, "library")
	keep := writeSource(t, src, "keep.txt", "keep")
	writeSource(t, src, "skip.tmp", "skip")
	writeSource(t, filepath.Join(src, ".thumbnails"), "thumb.jpg", "thumb")
	writeSource(t, dest, "already.txt", "already placed")

	files, err := importer.Discover(
		[]string{src},
		dest,
		[]*regexp.Regexp{regexp.MustCompile(`\.tmp$`), regexp.MustCompile(`^\.thumbnails$`)},
	)
	if err != nil {
		t.Fatalf("Discover failed: %v", err)
	}
	if len(files) != 1 || files[0] != keep {
		t.Fatalf("unexpected discovery result: %v", files)
	}
}

func TestRelocateMovesAndRetargetsDigest(t *testing.T) {
	dataDir := t.TempDir()
	dest := filepath.Join(t.TempDir(), "library")
	src := t.TempDir()
	source := writeSource(t, src, "note.txt", "relocate me")

	imp := newTestImporter(t, dataDir, importer.Options{Destination: dest, Workers: 1, Move: true})
	report, err := imp.Run(context.Background(), []string{source})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	placed := report.Outcomes[0].Destination

	registry := media.NewRegistry()
	file, ok := registry.Open(placed)
	if !ok {
		t.Fatal("placed file must reopen")
	}
	if err := file.SetAlbum("Road Trip"); err != nil {
		t.Fatal(err)
	}

	moved, err := imp.Relocate(file, "")
	if err != nil {
		t.Fatalf("Relocate failed: %v", err)
	}
	// Album is not in the default segment template, so the derived path is
	// unchanged and the file stays put.
	if moved != placed {
		t.Fatalf("expected stable path, got %s -> %s", placed, moved)
	}

	if err := file.SetDateTaken(time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)); err != nil {
		t.Fatal(err)
	}
	moved, err = imp.Relocate(file, "")
	if err != nil {
		t.Fatalf("Relocate failed: %v", err)
	}
	if moved == placed {
		t.Fatal("date rewrite must relocate the file")
	}
	if _, err := os.Stat(moved); err != nil {
		t.Fatalf("relocated file missing: %v", err)
	}
	if _, err := os.Stat(placed); !os.IsNotExist(err) {
		t.Fatal("old path must be gone after relocation")
	}

	hashes, err := checksum.Open(filepath.Join(dataDir, "hashes.json"))
	if err != nil {
		t.Fatal(err)
	}
	records := hashes.All()
	if len(records) != 1 || records[0].Path != moved {
		t.Fatalf("digest record not retargeted: %+v", records)
	}
}
