package main

import (
	"fmt"
	"io"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"mediasort/internal/geocache"
	"mediasort/internal/importer"
	"mediasort/internal/logging"
	"mediasort/internal/media"
	"mediasort/internal/preflight"
	"mediasort/internal/sessionlog"
)

func newImportCommand(ctx *commandContext) *cobra.Command {
	var destinationFlag string
	var workersFlag int
	var allowDuplicates bool
	var trash bool
	var albumFromFolder bool
	var move bool

	cmd := &cobra.Command{
		Use:   "import <source>...",
		Short: "Import media files into the library",
		Long: `Import copies (or moves) media files into the destination hierarchy.
Directory sources are walked recursively. Content already present in the
library is skipped unless --allow-duplicates is set.`,
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
			destination, err := ctx.resolveDestination(destinationFlag)
			if err != nil {
				return err
			}

			release, err := ctx.acquireBatchLock()
			if err != nil {
				return err
			}
			defer release()

			results := preflight.RunAll(cfg, destination)
			if failure, failed := preflight.Failed(results); failed {
				return fmt.Errorf("preflight: %s: %s", failure.Name, failure.Detail)
			}

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
			exclusions, err := cfg.CompiledExclusions()
			if err != nil {
				return err
			}

			history, err := ctx.openSessionStore()
			if err != nil {
				return err
			}
			defer history.Close()
			session := sessionlog.New(cfg.Paths.LogDir, history)
			session.SetCommand("import", map[string]any{
				"destination":      destination,
				"sources":          args,
				"move":             move,
				"allow_duplicates": allowDuplicates,
			})

			workers := workersFlag
			if workers == 0 {
				workers = cfg.Import.Workers
			}
			progress := newProgressReporter(cmd.ErrOrStderr())

			imp := importer.New(
				media.NewRegistry(),
				deriver,
				hashes,
				places,
				geocache.OfflineResolver{},
				session,
				logger,
				importer.Options{
					Destination:     destination,
					Workers:         workers,
					AllowDuplicates: allowDuplicates || cfg.Import.AllowDuplicates,
					Trash:           trash || cfg.Import.Trash,
					AlbumFromFolder: albumFromFolder || cfg.Import.AlbumFromFolder,
					Move:            move,
					RadiusMeters:    cfg.Geocode.RadiusMeters,
					Exclusions:      exclusions,
					OnProgress:      progress.update,
				},
			)

			report, runErr := imp.Run(cmd.Context(), args)
			progress.finish()

			if report != nil {
				if logPath, err := session.Finalize(cmd.Context()); err != nil {
					logger.Warn("session log not persisted", logging.Error(err))
				} else {
					logger.Info("session log written", logging.String("path", logPath))
				}
				printImportReport(cmd, report)
			}
			if runErr != nil {
				return runErr
			}
			if report.HasFailures() {
				_, _, failed := report.Counts()
				return fmt.Errorf("%d file(s) failed to import", failed)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&destinationFlag, "destination", "d", "", "Destination root (overrides configuration)")
	cmd.Flags().IntVar(&workersFlag, "workers", 0, "Worker count (0 uses the configured default)")
	cmd.Flags().BoolVar(&allowDuplicates, "allow-duplicates", false, "Import content already present in the library")
	cmd.Flags().BoolVar(&trash, "trash", false, "Move sources to the trash after a successful copy")
	cmd.Flags().BoolVar(&albumFromFolder, "album-from-folder", false, "Derive missing albums from the source folder name")
	cmd.Flags().BoolVar(&move, "move", false, "Move files instead of copying")

	return cmd
}

func printImportReport(cmd *cobra.Command, report *importer.Report) {
	out := cmd.OutOrStdout()
	success, skipped, failed := report.Counts()
	fmt.Fprintln(out, renderTable(
		[]string{"Imported", "Skipped", "Failed"},
		[][]string{{fmt.Sprint(success), fmt.Sprint(skipped), fmt.Sprint(failed)}},
		[]columnAlignment{alignRight, alignRight, alignRight},
	))

	var rows [][]string
	for _, outcome := range report.Sorted() {
		if outcome.Status == importer.StatusSuccess {
			continue
		}
		rows = append(rows, []string{outcome.Source, outcome.Status.String(), outcome.Reason})
	}
	if len(rows) > 0 {
		fmt.Fprintln(out, renderTable(
			[]string{"Source", "Status", "Reason"},
			rows,
			[]columnAlignment{alignLeft, alignLeft, alignLeft},
		))
	}
}

// progressReporter drives a terminal progress bar; on non-terminals it
// stays silent and the structured logs carry progress instead.
type progressReporter struct {
	out     io.Writer
	enabled bool
	bar     *progressbar.ProgressBar
}

func newProgressReporter(out io.Writer) *progressReporter {
	enabled := false
	if f, ok := out.(*os.File); ok {
		enabled = isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
	}
	return &progressReporter{out: out, enabled: enabled}
}

func (p *progressReporter) update(done, total int) {
	if !p.enabled {
		return
	}
	if p.bar == nil {
		p.bar = progressbar.NewOptions(total,
			progressbar.OptionSetWriter(p.out),
			progressbar.OptionSetDescription("importing"),
			progressbar.OptionShowCount(),
			progressbar.OptionClearOnFinish(),
		)
	}
	_ = p.bar.Set(done)
}

func (p *progressReporter) finish() {
	if p.bar != nil {
		_ = p.bar.Finish()
	}
}
