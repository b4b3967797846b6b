// Package preflight verifies directory access before a batch starts, so
// configuration problems surface as one clear failure instead of a batch
// full of per-file placement errors.
package preflight

import (
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/sys/unix"

	"mediasort/internal/config"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// RunAll executes the checks required before an import batch. The
// destination is created when missing: an uncreatable destination root is
// the one batch-fatal condition.
func RunAll(cfg *config.Config, destination string) []Result {
	var results []Result
	results = append(results, CheckCreatableDirectory("Destination root", destination))
	results = append(results, CheckCreatableDirectory("Data directory", cfg.Paths.DataDir))
	results = append(results, CheckCreatableDirectory("Log directory", cfg.Paths.LogDir))
	return results
}

// Failed returns the first failing result, if any.
func Failed(results []Result) (Result, bool) {
	for _, result := range results {
		if !result.Passed {
			return result, true
		}
	}
	return Result{}, false
}

// CheckCreatableDirectory ensures path exists (creating it when absent) and
// is a readable, writable directory.
func CheckCreatableDirectory(name, path string) Result {
	if path == "" {
		return Result{Name: name, Detail: "no path configured"}
	}
	if err := os.MkdirAll(path, 0o755); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: create: %v)", path, err)}
	}
	return CheckDirectoryAccess(name, path)
}

// CheckDirectoryAccess verifies that the directory exists and is
// readable/writable.
func CheckDirectoryAccess(name, path string) Result {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", filepath.Clean(path))}
}
