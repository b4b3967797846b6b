package media

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestClassifyClosedSet(t *testing.T) {
	registry := NewRegistry()
	cases := []struct {
		path string
		want Kind
	}{
		{"photo.jpg", KindPhoto},
		{"PHOTO.JPG", KindPhoto},
		{"raw.NEF", KindPhoto},
		{"clip.mp4", KindVideo},
		{"song.flac", KindAudio},
		{"notes.txt", KindText},
		{"archive.zip", KindUnknown},
		{"no-extension", KindUnknown},
	}
	for _, tc := range cases {
		if got := registry.Classify(tc.path); got != tc.want {
			t.Errorf("Classify(%q) = %v, want %v", tc.path, got, tc.want)
		}
	}
}

func TestOpenRejectsUnsupported(t *testing.T) {
	registry := NewRegistry()
	if _, ok := registry.Open("file.zip"); ok {
		t.Fatal("expected unsupported file to be rejected")
	}
	file, ok := registry.Open("notes.txt")
	if !ok || file.Kind() != KindText {
		t.Fatalf("expected text variant, got %v ok=%v", file, ok)
	}
}

func TestFallbackMetadataUsesModTime(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "notes.txt")
	if err := os.WriteFile(path, []byte("note"), 0o644); err != nil {
		t.Fatal(err)
	}
	taken := time.Date(2023, 1, 15, 12, 30, 45, 0, time.UTC)
	if err := os.Chtimes(path, taken, taken); err != nil {
		t.Fatal(err)
	}

	registry := NewRegistry()
	file, ok := registry.Open(path)
	if !ok {
		t.Fatal("expected text file to classify")
	}
	meta, err := file.Metadata()
	if err != nil {
		t.Fatal(err)
	}
	if !meta.DateTaken.Equal(taken) {
		t.Fatalf("expected mtime capture date, got %v", meta.DateTaken)
	}
	if meta.BaseName != "notes" {
		t.Fatalf("unexpected base name %q", meta.BaseName)
	}
	if meta.HasLocation {
		t.Fatal("text file must not carry location")
	}
}

func TestMetadataMissingFile(t *testing.T) {
	registry := NewRegistry()
	file, ok := registry.Open(filepath.Join(t.TempDir(), "absent.txt"))
	if !ok {
		t.Fatal("classification is extension-only")
	}
	if _, err := file.Metadata(); err == nil {
		t.Fatal("expected unreadable metadata error")
	}
}

func TestPhotoWithoutExifFallsBack(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "plain.jpg")
	if err := os.WriteFile(path, []byte("not a real jpeg"), 0o644); err != nil {
		t.Fatal(err)
	}

	registry := NewRegistry()
	file, _ := registry.Open(path)
	meta, err := file.Metadata()
	if err != nil {
		t.Fatalf("exif-less photo must fall back, got %v", err)
	}
	if meta.DateTaken.IsZero() {
		t.Fatal("expected mtime fallback date")
	}
}

func TestSetTitleDoesNotCompound(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "photo.txt")
	if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	registry := NewRegistry()
	file, _ := registry.Open(path)

	if err := file.SetTitle("First Title"); err != nil {
		t.Fatal(err)
	}
	meta, err := file.Metadata()
	if err != nil {
		t.Fatal(err)
	}
	// Simulate the on-disk state after the first rename.
	meta.BaseName = meta.BaseName + "-" + SanitizeTitle(meta.Title)

	if err := file.SetTitle("Second Title"); err != nil {
		t.Fatal(err)
	}
	if meta.BaseName != "photo" {
		t.Fatalf("prior title suffix not stripped: %q", meta.BaseName)
	}
	if meta.Title != "Second Title" {
		t.Fatalf("unexpected title %q", meta.Title)
	}
}

func TestSetAlbumFromFolder(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "summer_vacation-2019")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(dir, "notes.txt")
	if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	registry := NewRegistry()
	file, _ := registry.Open(path)
	if err := file.SetAlbumFromFolder(); err != nil {
		t.Fatal(err)
	}
	meta, err := file.Metadata()
	if err != nil {
		t.Fatal(err)
	}
	if meta.Album != "Summer Vacation 2019" {
		t.Fatalf("unexpected album %q", meta.Album)
	}
}

func TestSanitizeTitle(t *testing.T) {
	cases := map[string]string{
		"First Title":     "first-title",
		"Trip to  Paris!": "trip-to-paris",
		"--already--":     "already",
		"":                "",
		"!!!":             "",
	}
	for input, want := range cases {
		if got := SanitizeTitle(input); got != want {
			t.Errorf("SanitizeTitle(%q) = %q, want %q", input, got, want)
		}
	}
}

func TestTitleizeName(t *testing.T) {
	if got := TitleizeName("summer_trip.2019"); got != "Summer Trip 2019" {
		t.Fatalf("unexpected titleized name %q", got)
	}
	if got := TitleizeName("###"); got != "" {
		t.Fatalf("expected empty title, got %q", got)
	}
}
