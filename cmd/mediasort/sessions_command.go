package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

func newSessionsCommand(ctx *commandContext) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "sessions [session-id]",
		Short: "Show recent import sessions",
		Long: `Without arguments, sessions lists the most recent batches. With a
session id it lists every file that batch processed.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			history, err := ctx.openSessionStore()
			if err != nil {
				return err
			}
			defer history.Close()

			out := cmd.OutOrStdout()
			if len(args) == 1 {
				files, err := history.SessionFiles(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				if len(files) == 0 {
					fmt.Fprintf(out, "No files recorded for session %s\n", args[0])
					return nil
				}
				rows := make([][]string, 0, len(files))
				for _, file := range files {
					detail := file.Destination
					if detail == "" {
						detail = file.Message
					}
					rows = append(rows, []string{file.Source, string(file.Status), detail})
				}
				fmt.Fprintln(out, renderTable(
					[]string{"Source", "Status", "Result"},
					rows,
					[]columnAlignment{alignLeft, alignLeft, alignLeft},
				))
				return nil
			}

			sessions, err := history.RecentSessions(cmd.Context(), limit)
			if err != nil {
				return err
			}
			if len(sessions) == 0 {
				fmt.Fprintln(out, "No sessions recorded yet")
				return nil
			}
			rows := make([][]string, 0, len(sessions))
			for _, session := range sessions {
				rows = append(rows, []string{
					session.SessionID,
					session.Command,
					session.StartTime.Local().Format(time.DateTime),
					fmt.Sprint(session.Total),
					fmt.Sprint(session.Succeeded),
					fmt.Sprint(session.Skipped),
					fmt.Sprint(session.Failed),
				})
			}
			fmt.Fprintln(out, renderTable(
				[]string{"Session", "Command", "Started", "Total", "OK", "Skipped", "Failed"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignLeft, alignRight, alignRight, alignRight, alignRight},
			))
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum number of sessions to list")
	return cmd
}
