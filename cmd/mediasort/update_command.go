package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"mediasort/internal/checksum"
	"mediasort/internal/fileutil"
	"mediasort/internal/geocache"
	"mediasort/internal/importer"
	"mediasort/internal/logging"
	"mediasort/internal/media"
	"mediasort/internal/pathing"
	"mediasort/internal/sessionlog"
)

var timeFlagLayouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// metadataEdit is the set of rewrites one update invocation applies to
// every named file.
type metadataEdit struct {
	title           string
	album           string
	albumFromFolder bool
	setLocation     bool
	latitude        float64
	longitude       float64
	setTime         bool
	taken           time.Time
}

func (e metadataEdit) empty() bool {
	return e.title == "" && e.album == "" && !e.albumFromFolder && !e.setLocation && !e.setTime
}

func newUpdateCommand(ctx *commandContext) *cobra.Command {
	var titleFlag string
	var albumFlag string
	var albumFromFolder bool
	var locationFlag string
	var timeFlag string

	cmd := &cobra.Command{
		Use:   "update <file>...",
		Short: "Rewrite metadata on managed files and re-derive their paths",
		Long: `Update changes the title, album, location, or capture time of files
already placed in the library, then moves each file to the path the new
metadata derives. Emptied directories are pruned afterwards.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}

			release, err := ctx.acquireBatchLock()
			if err != nil {
				return err
			}
			defer release()

			hashes, err := ctx.openHashes()
			if err != nil {
				return err
			}
			places, err := ctx.openPlaces()
			if err != nil {
				return err
			}
			deriver, err := ctx.deriver()
			if err != nil {
				return err
			}

			edit := metadataEdit{
				title:           titleFlag,
				album:           albumFlag,
				albumFromFolder: albumFromFolder,
			}
			if timeFlag != "" {
				edit.taken, err = parseTimeFlag(timeFlag)
				if err != nil {
					return err
				}
				edit.setTime = true
			}
			if locationFlag != "" {
				edit.latitude, edit.longitude, err = resolveLocationFlag(places, locationFlag)
				if err != nil {
					return err
				}
				edit.setLocation = true
			}
			if edit.empty() {
				return errors.New("nothing to update; pass at least one of --title, --album, --album-from-folder, --location, --time")
			}

			history, err := ctx.openSessionStore()
			if err != nil {
				return err
			}
			defer history.Close()
			session := sessionlog.New(cfg.Paths.LogDir, history)
			session.SetCommand("update", map[string]any{"files": args})

			updater := &updater{
				registry: media.NewRegistry(),
				deriver:  deriver,
				hashes:   hashes,
				places:   places,
				radius:   cfg.Geocode.RadiusMeters,
				logger:   logger,
			}

			report := &importer.Report{}
			for _, arg := range args {
				outcome := updater.updateOne(arg, edit)
				report.Add(outcome)
				session.LogFile(outcome.Source, outcome.Destination, sessionStatus(outcome.Status), outcome.Reason)
			}

			if logPath, err := session.Finalize(cmd.Context()); err != nil {
				logger.Warn("session log not persisted", logging.Error(err))
			} else {
				logger.Info("session log written", logging.String("path", logPath))
			}
			printUpdateReport(cmd, report)
			if report.HasFailures() {
				_, _, failed := report.Counts()
				return fmt.Errorf("%d file(s) failed to update", failed)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&titleFlag, "title", "", "New title")
	cmd.Flags().StringVar(&albumFlag, "album", "", "New album")
	cmd.Flags().BoolVar(&albumFromFolder, "album-from-folder", false, "Derive the album from the file's parent folder")
	cmd.Flags().StringVar(&locationFlag, "location", "", "New location: \"lat,lon\" or a cached place name")
	cmd.Flags().StringVar(&timeFlag, "time", "", "New capture time (\"2006-01-02 15:04:05\" or \"2006-01-02\")")

	return cmd
}

type updater struct {
	registry *media.Registry
	deriver  *pathing.Deriver
	hashes   *checksum.Store
	places   *geocache.Cache
	radius   float64
	logger   *slog.Logger
}

// updateOne applies the edit to a single managed file and relocates it. The
// library root is recovered by walking up the segment depth from the file.
func (u *updater) updateOne(arg string, edit metadataEdit) importer.Outcome {
	source, err := filepath.Abs(arg)
	if err != nil {
		return importer.Outcome{Source: arg, Status: importer.StatusFailed, Reason: err.Error()}
	}
	if _, err := os.Stat(source); err != nil {
		return importer.Outcome{Source: source, Status: importer.StatusFailed, Reason: fmt.Sprintf("stat: %v", err)}
	}

	file, ok := u.registry.Open(source)
	if !ok {
		return importer.Outcome{Source: source, Status: importer.StatusFailed, Reason: fmt.Sprintf("unsupported file: %s", filepath.Ext(source))}
	}
	if err := u.applyEdit(file, edit); err != nil {
		return importer.Outcome{Source: source, Status: importer.StatusFailed, Reason: err.Error()}
	}

	meta, err := file.Metadata()
	if err != nil {
		return importer.Outcome{Source: source, Status: importer.StatusFailed, Reason: fmt.Sprintf("read metadata: %v", err)}
	}
	place := ""
	if meta.HasLocation {
		if resolved, ok := u.places.PlaceByCoordinates(meta.Latitude, meta.Longitude, u.radius); ok {
			place = resolved.Default
		}
	}

	root := libraryRoot(source, u.deriver.FolderDepth())
	imp := importer.New(u.registry, u.deriver, u.hashes, u.places, geocache.OfflineResolver{}, nil, u.logger,
		importer.Options{Destination: root})

	destination, err := imp.Relocate(file, place)
	if err != nil {
		return importer.Outcome{Source: source, Status: importer.StatusFailed, Reason: err.Error()}
	}
	if destination == source {
		return importer.Outcome{Source: source, Destination: destination, Status: importer.StatusSkipped, Reason: "derived path unchanged"}
	}
	pruneEmptyDirs(filepath.Dir(source), root)
	u.logger.Debug("file relocated",
		logging.String("source", source),
		logging.String("destination", destination))
	return importer.Outcome{Source: source, Destination: destination, Status: importer.StatusSuccess}
}

func (u *updater) applyEdit(file *media.File, edit metadataEdit) error {
	if edit.title != "" {
		if err := file.SetTitle(edit.title); err != nil {
			return err
		}
	}
	if edit.album != "" {
		if err := file.SetAlbum(edit.album); err != nil {
			return err
		}
	}
	if edit.albumFromFolder {
		if err := file.SetAlbumFromFolder(); err != nil {
			return err
		}
	}
	if edit.setLocation {
		if err := file.SetLocation(edit.latitude, edit.longitude); err != nil {
			return err
		}
	}
	if edit.setTime {
		if err := file.SetDateTaken(edit.taken); err != nil {
			return err
		}
	}
	return nil
}

func printUpdateReport(cmd *cobra.Command, report *importer.Report) {
	var rows [][]string
	for _, outcome := range report.Sorted() {
		detail := outcome.Destination
		if outcome.Status != importer.StatusSuccess {
			detail = outcome.Reason
		}
		rows = append(rows, []string{outcome.Source, outcome.Status.String(), detail})
	}
	fmt.Fprintln(cmd.OutOrStdout(), renderTable(
		[]string{"File", "Status", "Result"},
		rows,
		[]columnAlignment{alignLeft, alignLeft, alignLeft},
	))
}

// parseTimeFlag accepts a datetime or bare date.
func parseTimeFlag(value string) (time.Time, error) {
	for _, layout := range timeFlagLayouts {
		if parsed, err := time.ParseInLocation(layout, value, time.Local); err == nil {
			return parsed, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized time %q (expected \"2006-01-02 15:04:05\" or \"2006-01-02\")", value)
}

// resolveLocationFlag interprets --location: explicit coordinates pass
// through, anything else is forward-geocoded against the place cache. An
// unknown name is a hard failure; there is no online fallback.
func resolveLocationFlag(places *geocache.Cache, value string) (lat, lon float64, err error) {
	if parts := strings.Split(value, ","); len(parts) == 2 {
		lat, latErr := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
		lon, lonErr := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
		if latErr == nil && lonErr == nil {
			return lat, lon, nil
		}
	}
	lat, lon, found := places.CoordinatesByName(value)
	if !found {
		return 0, 0, fmt.Errorf("location %q is not in the place cache; pass coordinates as \"lat,lon\"", value)
	}
	return lat, lon, nil
}

func sessionStatus(status importer.Status) sessionlog.Status {
	switch status {
	case importer.StatusSuccess:
		return sessionlog.StatusSuccess
	case importer.StatusSkipped:
		return sessionlog.StatusSkipped
	default:
		return sessionlog.StatusFailed
	}
}

// libraryRoot walks up from a managed file to the destination root the
// configured segment template implies.
func libraryRoot(path string, depth int) string {
	dir := filepath.Dir(path)
	for i := 0; i < depth; i++ {
		dir = filepath.Dir(dir)
	}
	return dir
}

// pruneEmptyDirs removes the file's former directory chain up to root when
// emptied by the move.
func pruneEmptyDirs(dir, root string) {
	for dir != root && strings.HasPrefix(dir, root+string(filepath.Separator)) {
		removed, err := fileutil.RemoveDirIfEmpty(dir)
		if err != nil || !removed {
			return
		}
		dir = filepath.Dir(dir)
	}
}
