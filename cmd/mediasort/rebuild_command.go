package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"mediasort/internal/logging"
)

func newRebuildCommand(ctx *commandContext) *cobra.Command {
	var destinationFlag string

	cmd := &cobra.Command{
		Use:   "rebuild-db",
		Short: "Regenerate the checksum store from the library contents",
		Long: `Rebuild backs up the current checksum store, clears it, and re-digests
every file under the destination root. Use it after the store document is
lost or after files were changed outside mediasort.`,
		RunE: func(cmd *cobra.Command, args []string) error {
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

			hashes, err := ctx.openHashes()
			if err != nil {
				return err
			}

			log := logging.WithComponent(logger, "rebuild")
			var visited int
			err = hashes.Rebuild(cmd.Context(), destination, func(path string) {
				visited++
				log.Debug("recorded", logging.String("path", path))
			})
			if err != nil {
				return fmt.Errorf("rebuild checksum store: %w", err)
			}

			log.Info("rebuild complete",
				logging.Int("files", visited),
				logging.Int("digests", hashes.Len()))
			fmt.Fprintf(cmd.OutOrStdout(), "Rebuilt checksum store from %d file(s) (%d unique digests)\n", visited, hashes.Len())
			return nil
		},
	}

	cmd.Flags().StringVarP(&destinationFlag, "destination", "d", "", "Library root to scan (overrides configuration)")
	return cmd
}
