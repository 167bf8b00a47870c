package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"readalong/internal/app"
	"readalong/internal/ingest"
)

func newMigrateCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate-legacy [TRACK_ID VOICE_ID]",
		Short: "Rewrite timing blobs stored in older formats",
		Long:  "Without arguments every voice holding legacy timing rows is migrated.",
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) != 0 && len(args) != 2 {
				return fmt.Errorf("expected no arguments or TRACK_ID VOICE_ID, got %d", len(args))
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withApp(cmd, func(a *app.App) error {
				var summaries []ingest.MigrationSummary
				if len(args) == 2 {
					summary, err := a.Ingest.MigrateLegacy(cmd.Context(), args[0], args[1])
					if err != nil {
						return err
					}
					summaries = append(summaries, summary)
				} else {
					all, err := a.Ingest.MigrateAll(cmd.Context())
					if err != nil {
						return err
					}
					summaries = all
				}
				if ctx.jsonMode() {
					return writeJSONList(cmd, summaries)
				}
				out := cmd.OutOrStdout()
				table := migrationsTable(summaries)
				if table == "" {
					fmt.Fprintln(out, "No legacy timings found")
					return nil
				}
				fmt.Fprintln(out, table)
				return nil
			})
		},
	}
}
