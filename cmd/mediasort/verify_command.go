package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newVerifyCommand(ctx *commandContext) *cobra.Command {
	var showAll bool

	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Check every stored digest against the file on disk",
		RunE: func(cmd *cobra.Command, args []string) error {
			hashes, err := ctx.openHashes()
			if err != nil {
				return err
			}

			results := hashes.Verify(cmd.Context())
			out := cmd.OutOrStdout()
			if len(results) == 0 {
				fmt.Fprintln(out, "Checksum store is empty; nothing to verify")
				return nil
			}

			var rows [][]string
			var bad int
			for _, result := range results {
				if result.OK {
					if showAll {
						rows = append(rows, []string{result.Path, "ok", ""})
					}
					continue
				}
				bad++
				rows = append(rows, []string{result.Path, "FAIL", result.Reason})
			}
			if len(rows) > 0 {
				fmt.Fprintln(out, renderTable(
					[]string{"Path", "Status", "Reason"},
					rows,
					[]columnAlignment{alignLeft, alignLeft, alignLeft},
				))
			}
			fmt.Fprintf(out, "Verified %d record(s): %d ok, %d failed\n", len(results), len(results)-bad, bad)
			if bad > 0 {
				return fmt.Errorf("%d record(s) failed verification", bad)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&showAll, "all", false, "List passing records as well as failures")
	return cmd
}
