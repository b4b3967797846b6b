package importer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"
	"sync"

	"mediasort/internal/checksum"
	"mediasort/internal/fileutil"
	"mediasort/internal/geocache"
	"mediasort/internal/logging"
	"mediasort/internal/media"
	"mediasort/internal/pathing"
	"mediasort/internal/sessionlog"
)

// maxDefaultWorkers caps the pool size when the configuration leaves the
// worker count at zero.
const maxDefaultWorkers = 8

// progressInterval controls how often batch progress is logged.
const progressInterval = 10

// Options configure one batch.
type Options struct {
	Destination     string
	Workers         int
	AllowDuplicates bool
	// Trash relocates sources into the trash after a successful copy.
	// Ignored when Move is set: a move leaves no source behind.
	Trash    bool
	TrashDir string
	Move     bool
	// AlbumFromFolder derives the album from each source's parent directory
	// when the file itself carries no album.
	AlbumFromFolder bool
	RadiusMeters    float64
	Exclusions      []*regexp.Regexp
	// OnProgress, when set, observes completion counts as files finish.
	OnProgress func(done, total int)
}

// Importer coordinates one import batch: sequential discovery, then a
// bounded worker pool running the per-file pipeline.
type Importer struct {
	registry *media.Registry
	deriver  *pathing.Deriver
	hashes   *checksum.Store
	places   *geocache.Cache
	resolver geocache.Resolver
	session  *sessionlog.Logger
	logger   *slog.Logger
	opts     Options

	// placeMu serializes the digest check-then-act together with the
	// destination existence probe and the write, so two workers can never
	// claim the same destination or double-import identical content.
	placeMu sync.Mutex
	// reportMu covers the report and session log only, keeping result
	// bookkeeping off the placement critical section.
	reportMu sync.Mutex
}

// New assembles an importer. The session logger may be nil; every other
// dependency is required.
func New(registry *media.Registry, deriver *pathing.Deriver, hashes *checksum.Store, places *geocache.Cache, resolver geocache.Resolver, session *sessionlog.Logger, logger *slog.Logger, opts Options) *Importer {
	return &Importer{
		registry: registry,
		deriver:  deriver,
		hashes:   hashes,
		places:   places,
		resolver: resolver,
		session:  session,
		logger:   logging.WithComponent(logger, "importer"),
		opts:     opts,
	}
}

// Run discovers candidates under sources and imports them. The returned
// report carries exactly one outcome per discovered file; per-file errors
// never abort the batch. Run itself fails only on discovery errors or
// context cancellation.
func (imp *Importer) Run(ctx context.Context, sources []string) (*Report, error) {
	report := &Report{}
	valid, invalid := imp.splitInvalidSources(sources)

	files, err := Discover(valid, imp.opts.Destination, imp.opts.Exclusions)
	if err != nil {
		return nil, err
	}
	total := len(files) + len(invalid)
	imp.logger.Info("starting batch",
		logging.Int("files", total),
		logging.Int("workers", imp.workerCount(len(files))),
		logging.String("destination", imp.opts.Destination))
	for _, source := range invalid {
		imp.record(report, Outcome{
			Source: source,
			Status: StatusFailed,
			Reason: fmt.Sprintf("%v: %s contains %s", ErrInvalidSource, source, imp.opts.Destination),
		}, total)
	}
	if len(files) == 0 {
		return report, nil
	}

	workers := imp.workerCount(len(files))
	if workers == 1 {
		for _, path := range files {
			if err := ctx.Err(); err != nil {
				return report, err
			}
			imp.record(report, imp.importOne(path), total)
		}
		return report, nil
	}

	queue := make(chan string)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for path := range queue {
				imp.record(report, imp.importOne(path), total)
			}
		}()
	}

dispatch:
	for _, path := range files {
		select {
		case <-ctx.Done():
			break dispatch
		case queue <- path:
		}
	}
	close(queue)
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return report, err
	}
	return report, nil
}

// splitInvalidSources rejects source directories that contain the
// destination root. Importing such a tree would re-ingest the library into
// itself, so the whole source fails up front.
func (imp *Importer) splitInvalidSources(sources []string) (valid, invalid []string) {
	destAbs, err := filepath.Abs(imp.opts.Destination)
	if err != nil {
		return sources, nil
	}
	for _, source := range sources {
		abs, err := filepath.Abs(source)
		if err != nil {
			valid = append(valid, source)
			continue
		}
		if info, err := os.Stat(abs); err == nil && info.IsDir() && abs != destAbs && containsPath(abs, destAbs) {
			invalid = append(invalid, abs)
			continue
		}
		valid = append(valid, source)
	}
	return valid, invalid
}

func containsPath(dir, path string) bool {
	rel, err := filepath.Rel(dir, path)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)) && !filepath.IsAbs(rel)
}

// workerCount resolves the pool size: the configured count, capped default
// otherwise, and never more workers than files.
func (imp *Importer) workerCount(files int) int {
	workers := imp.opts.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
		if workers > maxDefaultWorkers {
			workers = maxDefaultWorkers
		}
	}
	if files > 0 && workers > files {
		workers = files
	}
	if workers < 1 {
		workers = 1
	}
	return workers
}

// importOne runs the per-file pipeline. Every failure mode collapses into
// an outcome; this function never returns an error.
func (imp *Importer) importOne(path string) Outcome {
	if _, err := os.Stat(path); err != nil {
		return Outcome{Source: path, Status: StatusFailed, Reason: fmt.Sprintf("%v: %v", ErrNotFound, err)}
	}

	file, ok := imp.registry.Open(path)
	if !ok {
		return Outcome{Source: path, Status: StatusFailed, Reason: fmt.Sprintf("%v: %s", ErrUnsupportedFile, filepath.Ext(path))}
	}

	meta, err := file.Metadata()
	if err != nil {
		return Outcome{Source: path, Status: StatusFailed, Reason: fmt.Sprintf("read metadata: %v", err)}
	}
	if imp.opts.AlbumFromFolder && meta.Album == "" {
		if err := file.SetAlbumFromFolder(); err != nil {
			return Outcome{Source: path, Status: StatusFailed, Reason: fmt.Sprintf("derive album: %v", err)}
		}
	}

	// Digest and geocode both run outside the placement lock; they touch no
	// destination state and dominate per-file latency.
	digest, err := checksum.Compute(path)
	if err != nil {
		return Outcome{Source: path, Status: StatusFailed, Reason: fmt.Sprintf("digest: %v", err)}
	}
	place, err := imp.resolvePlace(meta)
	if err != nil {
		return Outcome{Source: path, Status: StatusFailed, Reason: fmt.Sprintf("resolve place: %v", err)}
	}

	destination, status, reason := imp.place(path, meta, place, digest)
	outcome := Outcome{Source: path, Destination: destination, Status: status, Reason: reason}
	if status != StatusSuccess {
		return outcome
	}

	if imp.opts.Trash && !imp.opts.Move {
		if trashed, err := fileutil.MoveToTrash(path, imp.opts.TrashDir); err != nil {
			// The destination copy is intact; report success but keep the
			// trash failure visible.
			imp.logger.Warn("trash failed", logging.String("source", path), logging.Error(err))
		} else {
			imp.logger.Debug("source trashed", logging.String("source", path), logging.String("trash", trashed))
		}
	}
	return outcome
}

// place performs the locked section of the pipeline: duplicate check,
// destination derivation, and the write.
func (imp *Importer) place(source string, meta *media.Metadata, place, digest string) (destination string, status Status, reason string) {
	imp.placeMu.Lock()
	defer imp.placeMu.Unlock()

	if origin, ok := imp.hashes.Lookup(digest); ok && !imp.opts.AllowDuplicates {
		return "", StatusSkipped, fmt.Sprintf("duplicate content (first seen at %s)", origin)
	}

	destination, err := imp.deriver.Destination(imp.opts.Destination, source, meta, place, imp.opts.AllowDuplicates, destinationExists)
	if err != nil {
		// Under the no-duplicates policy a destination collision is an
		// expected skip. With duplicates allowed the suffix safety net has
		// been exhausted, which is a real failure.
		if errors.Is(err, pathing.ErrDuplicateDestination) && !imp.opts.AllowDuplicates {
			return "", StatusSkipped, err.Error()
		}
		return "", StatusFailed, fmt.Sprintf("%v: %v", ErrPlacement, err)
	}

	if err := os.MkdirAll(filepath.Dir(destination), 0o755); err != nil {
		return "", StatusFailed, fmt.Sprintf("%v: %v", ErrPlacement, err)
	}
	if imp.opts.Move {
		err = fileutil.MoveFile(source, destination)
	} else {
		err = fileutil.CopyFileVerified(source, destination)
	}
	if err != nil {
		return "", StatusFailed, fmt.Sprintf("%v: %v", ErrPlacement, err)
	}
	if err := imp.hashes.Record(digest, destination); err != nil {
		return destination, StatusFailed, fmt.Sprintf("record digest: %v", err)
	}
	return destination, StatusSuccess, ""
}

// resolvePlace maps capture coordinates to a place name through the cache.
// Files without coordinates, and cache misses, yield the empty place and
// fall into the unknown-location bucket downstream.
func (imp *Importer) resolvePlace(meta *media.Metadata) (string, error) {
	if !meta.HasLocation || imp.places == nil {
		return "", nil
	}
	place, ok, err := imp.places.Resolve(imp.resolver, meta.Latitude, meta.Longitude, imp.opts.RadiusMeters)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", nil
	}
	return place.Default, nil
}

// record publishes one outcome under the reporting lock.
func (imp *Importer) record(report *Report, outcome Outcome, total int) {
	imp.reportMu.Lock()
	defer imp.reportMu.Unlock()

	report.Add(outcome)
	if imp.session != nil {
		imp.session.LogFile(outcome.Source, outcome.Destination, sessionStatus(outcome.Status), outcome.Reason)
	}

	done := len(report.Outcomes)
	if imp.opts.OnProgress != nil {
		imp.opts.OnProgress(done, total)
	}
	if done%progressInterval == 0 || done == total {
		success, skipped, failed := report.Counts()
		imp.logger.Info("progress",
			logging.Int("done", done),
			logging.Int("total", total),
			logging.Int("success", success),
			logging.Int("skipped", skipped),
			logging.Int("failed", failed))
	}
	switch outcome.Status {
	case StatusSuccess:
		imp.logger.Debug("imported",
			logging.String("source", outcome.Source),
			logging.String("destination", outcome.Destination))
	case StatusSkipped:
		imp.logger.Debug("skipped",
			logging.String("source", outcome.Source),
			logging.String("reason", outcome.Reason))
	default:
		imp.logger.Warn("failed",
			logging.String("source", outcome.Source),
			logging.String("reason", outcome.Reason))
	}
}

// Relocate re-derives the destination for an already-managed file after a
// metadata rewrite and moves it there, updating the checksum record. It
// returns the new path, which equals the current path when nothing changed.
func (imp *Importer) Relocate(file *media.File, place string) (string, error) {
	meta, err := file.Metadata()
	if err != nil {
		return "", err
	}
	digest, err := checksum.Compute(file.Path())
	if err != nil {
		return "", err
	}

	imp.placeMu.Lock()
	defer imp.placeMu.Unlock()

	current := file.Path()
	candidate := filepath.Join(imp.opts.Destination, imp.deriver.RelativeDir(meta, place), imp.deriver.FileName(meta, current))
	if candidate == current {
		return current, nil
	}

	destination, err := imp.deriver.Destination(imp.opts.Destination, current, meta, place, true, destinationExists)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(destination), 0o755); err != nil {
		return "", fmt.Errorf("%w: %v", ErrPlacement, err)
	}
	if err := fileutil.MoveFile(current, destination); err != nil {
		return "", fmt.Errorf("%w: %v", ErrPlacement, err)
	}
	if _, ok := imp.hashes.Lookup(digest); ok {
		if err := imp.hashes.Reassign(digest, destination); err != nil {
			return destination, err
		}
	} else if err := imp.hashes.Record(digest, destination); err != nil {
		return destination, err
	}
	return destination, nil
}

func destinationExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func sessionStatus(status Status) sessionlog.Status {
	switch status {
	case StatusSuccess:
		return sessionlog.StatusSuccess
	case StatusSkipped:
		return sessionlog.StatusSkipped
	default:
		return sessionlog.StatusFailed
	}
}
