package importer

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
)

// Discover enumerates the candidate files for a batch. Directory sources
// are walked recursively; file sources pass through as-is. Paths whose
// components match an exclusion pattern are dropped, as is anything that
// already lives under the destination root. The result is absolute,
// deduplicated, and sorted.
func Discover(sources []string, destination string, exclusions []*regexp.Regexp) ([]string, error) {
	destAbs, err := filepath.Abs(destination)
	if err != nil {
		return nil, fmt.Errorf("resolve destination: %w", err)
	}

	seen := map[string]struct{}{}
	var files []string
	add := func(path string) {
		if _, ok := seen[path]; ok {
			return
		}
		seen[path] = struct{}{}
		files = append(files, path)
	}

	for _, source := range sources {
		abs, err := filepath.Abs(source)
		if err != nil {
			return nil, fmt.Errorf("resolve source %s: %w", source, err)
		}
		info, err := os.Stat(abs)
		if err != nil {
			// A missing explicit source is still a candidate; the worker
			// converts it to a failed outcome so the batch report shows it.
			add(abs)
			continue
		}
		if !info.IsDir() {
			if !excluded(abs, exclusions) && !underRoot(abs, destAbs) {
				add(abs)
			}
			continue
		}

		walkErr := filepath.WalkDir(abs, func(path string, entry fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if entry.IsDir() {
				if underRoot(path, destAbs) || excluded(path, exclusions) {
					return filepath.SkipDir
				}
				return nil
			}
			if !entry.Type().IsRegular() {
				return nil
			}
			if excluded(path, exclusions) {
				return nil
			}
			add(path)
			return nil
		})
		if walkErr != nil {
			return nil, fmt.Errorf("walk %s: %w", abs, walkErr)
		}
	}

	sort.Strings(files)
	return files, nil
}

// excluded reports whether any path component matches an exclusion pattern.
func excluded(path string, exclusions []*regexp.Regexp) bool {
	if len(exclusions) == 0 {
		return false
	}
	for _, component := range strings.Split(filepath.ToSlash(path), "/") {
		if component == "" {
			continue
		}
		for _, pattern := range exclusions {
			if pattern.MatchString(component) {
				return true
			}
		}
	}
	return false
}

func underRoot(path, root string) bool {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return false
	}
	return rel == "." || (!strings.HasPrefix(rel, "..") && !filepath.IsAbs(rel))
}
