package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"mediasort/internal/geocache"
)

func TestParseTimeFlag(t *testing.T) {
	parsed, err := parseTimeFlag("2023-05-01 14:30:00")
	if err != nil {
		t.Fatal(err)
	}
	if parsed.Hour() != 14 || parsed.Day() != 1 {
		t.Fatalf("unexpected parse result %v", parsed)
	}

	parsed, err = parseTimeFlag("2023-05-01")
	if err != nil {
		t.Fatal(err)
	}
	if !parsed.Equal(time.Date(2023, 5, 1, 0, 0, 0, 0, time.Local)) {
		t.Fatalf("unexpected parse result %v", parsed)
	}

	if _, err := parseTimeFlag("yesterday"); err == nil {
		t.Fatal("free-form time must fail")
	}
}

func TestResolveLocationFlag(t *testing.T) {
	places, err := geocache.Open(filepath.Join(t.TempDir(), "locations.json"))
	if err != nil {
		t.Fatal(err)
	}
	if err := places.Store(60.17, 24.94, geocache.Place{Default: "Helsinki", City: "Helsinki"}); err != nil {
		t.Fatal(err)
	}

	lat, lon, err := resolveLocationFlag(places, "60.5, -24.25")
	if err != nil {
		t.Fatal(err)
	}
	if lat != 60.5 || lon != -24.25 {
		t.Fatalf("coordinates not parsed: %f,%f", lat, lon)
	}

	lat, lon, err = resolveLocationFlag(places, "helsinki")
	if err != nil {
		t.Fatal(err)
	}
	if lat != 60.17 || lon != 24.94 {
		t.Fatalf("cached place not resolved: %f,%f", lat, lon)
	}

	if _, _, err := resolveLocationFlag(places, "atlantis"); err == nil {
		t.Fatal("unknown place must be a hard miss")
	}
}

func TestLibraryRoot(t *testing.T) {
	path := filepath.Join("/library", "2023-01", "Helsinki", "photo.jpg")
	if got := libraryRoot(path, 2); got != "/library" {
		t.Fatalf("unexpected root %q", got)
	}
}

func TestPruneEmptyDirs(t *testing.T) {
	root := t.TempDir()
	leaf := filepath.Join(root, "2023-01", "Helsinki")
	if err := os.MkdirAll(leaf, 0o755); err != nil {
		t.Fatal(err)
	}

	pruneEmptyDirs(leaf, root)
	if _, err := os.Stat(filepath.Join(root, "2023-01")); !os.IsNotExist(err) {
		t.Fatal("empty directory chain should be pruned")
	}
	if _, err := os.Stat(root); err != nil {
		t.Fatal("root must survive pruning")
	}
}
